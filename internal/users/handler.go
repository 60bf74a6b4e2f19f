package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"allie-backend/internal/shared/server/middleware"
	"allie-backend/internal/shared/server/respond"
	"allie-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

type meResponse struct {
	UserID     string `json:"userId"`
	Email      string `json:"email,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
	IsGuest    bool   `json:"isGuest"`
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	if middleware.IsGuest(c) {
		respond.OK(c, meResponse{UserID: userID, IsGuest: true})
		return
	}

	// Token claims are the fallback when the profile row is missing, e.g.
	// a token issued before the database was attached.
	resp := meResponse{
		UserID:     userID,
		Email:      middleware.UserEmailFromContext(c),
		FullName:   middleware.UserNameFromContext(c),
		PictureURL: middleware.UserPictureFromContext(c),
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	switch {
	case err == nil:
		resp.Email = user.Email
		resp.FullName = user.FullName
		resp.PictureURL = user.PictureURL
	case errors.Is(err, ErrNotFound):
	default:
		telemetry.Warn("users.me.lookup_failed", map[string]any{"user_id": userID, "error": err})
	}
	respond.OK(c, resp)
}
