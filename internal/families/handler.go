package families

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"allie-backend/internal/shared/server/middleware"
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

// RegisterRoutes attaches routes that work before a family exists.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/families", h.create)
	rg.GET("/families/current", h.current)
}

// RegisterScopedRoutes attaches member routes. rg must run RequireFamily.
func (h *Handler) RegisterScopedRoutes(rg *gin.RouterGroup) {
	rg.POST("/families/current/members", h.addMember)
	rg.GET("/families/current/members", h.listMembers)
	rg.DELETE("/families/current/members/:memberId", h.removeMember)
}

func (h *Handler) create(c *gin.Context) {
	var req createFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}

	family, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			respond.Error(c, http.StatusConflict, "family_exists", "family already exists", toFamilyResponse(family))
		case errors.Is(err, ErrInvalidInput):
			respond.Validation(c, err.Error())
		default:
			respond.Internal(c, "failed to create family", err)
		}
		return
	}
	respond.Created(c, toFamilyResponse(family))
}

func (h *Handler) current(c *gin.Context) {
	family, err := h.Svc.Current(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.NotFound(c, "family not found")
		case errors.Is(err, ErrInvalidInput):
			respond.Validation(c, err.Error())
		default:
			respond.Internal(c, "failed to fetch family", err)
		}
		return
	}
	respond.OK(c, toFamilyResponse(family))
}

func (h *Handler) addMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}

	member, err := h.Svc.AddMember(c.Request.Context(), FamilyIDFromContext(c), MemberInput{
		Name:         req.Name,
		Relationship: req.Relationship,
		BirthDate:    req.BirthDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Validation(c, err.Error())
		case errors.Is(err, ErrNotFound):
			respond.NotFound(c, "family not found")
		default:
			respond.Internal(c, "failed to add member", err)
		}
		return
	}
	respond.Created(c, toMemberResponse(member))
}

func (h *Handler) listMembers(c *gin.Context) {
	members, err := h.Svc.ListMembers(c.Request.Context(), FamilyIDFromContext(c))
	if err != nil {
		respond.Internal(c, "failed to list members", err)
		return
	}
	resp := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, toMemberResponse(m))
	}
	respond.OK(c, resp)
}

func (h *Handler) removeMember(c *gin.Context) {
	c.Set("memberId", c.Param("memberId"))
	err := h.Svc.RemoveMember(c.Request.Context(), FamilyIDFromContext(c), c.Param("memberId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.NotFound(c, "member not found")
		case errors.Is(err, ErrInvalidInput):
			respond.Validation(c, err.Error())
		default:
			respond.Internal(c, "failed to remove member", err)
		}
		return
	}
	respond.NoContent(c)
}
