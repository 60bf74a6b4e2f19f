package families

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"allie-backend/internal/shared/server/middleware"
	"allie-backend/internal/shared/server/respond"
)

const familyIDKey = "familyId"

// RequireFamily resolves the caller's family and stores its id in the
// request context. Requests without a family are rejected with 409.
func RequireFamily(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserIDFromContext(c)
		family, err := svc.Current(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
				respond.Error(c, http.StatusConflict, "family_required", "create a family first", nil)
				return
			}
			respond.Internal(c, "failed to resolve family", err)
			return
		}
		c.Set(familyIDKey, family.ID)
		c.Next()
	}
}

// FamilyIDFromContext returns the family id set by RequireFamily.
func FamilyIDFromContext(c *gin.Context) string {
	return c.GetString(familyIDKey)
}
