package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "allie-backend/internal/auth"
	"allie-backend/internal/families"
	"allie-backend/internal/insurance"
	"allie-backend/internal/medicaldocs"
	"allie-backend/internal/medications"
	"allie-backend/internal/reminders"
	"allie-backend/internal/services/health"
	"allie-backend/internal/shared/config"
	"allie-backend/internal/shared/metrics"
	"allie-backend/internal/shared/server/middleware"
	"allie-backend/internal/shared/server/respond"
	"allie-backend/internal/uploads"
	"allie-backend/internal/users"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are
// skipped.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	Families          *families.Service
	FamilyHandler     *families.Handler
	MedicalDocHandler *medicaldocs.Handler
	InsuranceHandler  *insurance.Handler
	MedicationHandler *medications.Handler
	ReminderHandler   *reminders.Handler
	UploadHandler     *uploads.Handler
	UserHandler       *users.Handler
	GoogleAuth        *googleauth.GoogleService
	RateLimiter       *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{Limiter: deps.RateLimiter}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.FamilyHandler != nil {
		deps.FamilyHandler.RegisterRoutes(api)
	}

	if deps.Families == nil {
		return r
	}
	scoped := api.Group("", families.RequireFamily(deps.Families))
	if deps.FamilyHandler != nil {
		deps.FamilyHandler.RegisterScopedRoutes(scoped)
	}
	if deps.MedicalDocHandler != nil {
		deps.MedicalDocHandler.RegisterRoutes(scoped)
	}
	if deps.InsuranceHandler != nil {
		deps.InsuranceHandler.RegisterRoutes(scoped)
	}
	if deps.MedicationHandler != nil {
		deps.MedicationHandler.RegisterRoutes(scoped)
	}
	if deps.ReminderHandler != nil {
		deps.ReminderHandler.RegisterRoutes(scoped)
	}
	if deps.UploadHandler != nil {
		deps.UploadHandler.RegisterRoutes(scoped)
	}

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		status := svc.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
