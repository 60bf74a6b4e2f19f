package reminders

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"allie-backend/internal/families"
	"allie-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches reminder routes. rg must run families.RequireFamily.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/members/:memberId/reminders/upcoming", h.upcoming)
	rg.POST("/reminders/:id/acknowledge", h.acknowledge)
	rg.POST("/reminders/:id/dismiss", h.dismiss)
}

func (h *Handler) upcoming(c *gin.Context) {
	c.Set("memberId", c.Param("memberId"))
	days := 0
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respond.Validation(c, "days must be a positive integer")
			return
		}
		days = v
	}
	items, err := h.Svc.Upcoming(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("memberId"), days)
	if err != nil {
		fail(c, err, "failed to list reminders")
		return
	}
	resp := make([]UpcomingResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toUpcomingResponse(item))
	}
	respond.OK(c, resp)
}

func (h *Handler) acknowledge(c *gin.Context) {
	c.Set("reminderId", c.Param("id"))
	rem, err := h.Svc.Acknowledge(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to acknowledge reminder")
		return
	}
	respond.OK(c, toReminderResponse(rem))
}

func (h *Handler) dismiss(c *gin.Context) {
	c.Set("reminderId", c.Param("id"))
	rem, err := h.Svc.Dismiss(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to dismiss reminder")
		return
	}
	respond.OK(c, toReminderResponse(rem))
}

func fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Validation(c, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.NotFound(c, "not found")
	default:
		respond.Internal(c, msg, err)
	}
}
