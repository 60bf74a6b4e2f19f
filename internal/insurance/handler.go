package insurance

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"allie-backend/internal/families"
	"allie-backend/internal/shared/server/middleware"
	"allie-backend/internal/shared/server/respond"
	"allie-backend/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc      *Service
	Location *time.Location
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, loc *time.Location) *Handler {
	return &Handler{Svc: svc, Location: loc}
}

// RegisterRoutes attaches insurance routes. rg must run families.RequireFamily.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/insurance/plans", h.createPlan)
	rg.GET("/insurance/plans", h.listPlans)
	rg.GET("/insurance/plans/:id", h.getPlan)
	rg.PUT("/insurance/plans/:id", h.updatePlan)
	rg.DELETE("/insurance/plans/:id", h.deletePlan)
	rg.POST("/insurance/plans/:id/documents", h.createDocument)
	rg.GET("/insurance/plans/:id/documents", h.listDocuments)
	rg.DELETE("/insurance/documents/:id", h.deleteDocument)
}

func (h *Handler) createPlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	in, err := req.toInput(h.Location)
	if err != nil {
		respond.Validation(c, err.Error())
		return
	}
	plan, err := h.Svc.CreatePlan(c.Request.Context(), families.FamilyIDFromContext(c), middleware.UserIDFromContext(c), in)
	if err != nil {
		fail(c, err, "failed to create plan")
		return
	}
	respond.Created(c, toPlanResponse(plan, h.Svc.now()))
}

func (h *Handler) listPlans(c *gin.Context) {
	plans, err := h.Svc.ListPlans(c.Request.Context(), families.FamilyIDFromContext(c))
	if err != nil {
		respond.Internal(c, "failed to list plans", err)
		return
	}
	now := h.Svc.now()
	resp := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, toPlanResponse(p, now))
	}
	respond.OK(c, resp)
}

func (h *Handler) getPlan(c *gin.Context) {
	c.Set("planId", c.Param("id"))
	plan, err := h.Svc.GetPlan(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch plan")
		return
	}
	respond.OK(c, toPlanResponse(plan, h.Svc.now()))
}

func (h *Handler) updatePlan(c *gin.Context) {
	c.Set("planId", c.Param("id"))
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	in, err := req.toInput(h.Location)
	if err != nil {
		respond.Validation(c, err.Error())
		return
	}
	plan, err := h.Svc.UpdatePlan(c.Request.Context(), families.FamilyIDFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), in)
	if err != nil {
		fail(c, err, "failed to update plan")
		return
	}
	respond.OK(c, toPlanResponse(plan, h.Svc.now()))
}

func (h *Handler) deletePlan(c *gin.Context) {
	c.Set("planId", c.Param("id"))
	if err := h.Svc.DeletePlan(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id")); err != nil {
		fail(c, err, "failed to delete plan")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) createDocument(c *gin.Context) {
	c.Set("planId", c.Param("id"))
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)

	var req documentRequest
	var file *File
	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Validation(c, "invalid request body")
			return
		}
	} else {
		if err := c.ShouldBind(&req); err != nil {
			respond.Validation(c, "invalid form body")
			return
		}
		if fileHeader, err := c.FormFile("file"); err == nil {
			if fileHeader.Size > maxUploadSize {
				respond.Validation(c, "file exceeds 10MB limit")
				return
			}
			f, err := fileHeader.Open()
			if err != nil {
				respond.Validation(c, "unable to read file")
				return
			}
			defer f.Close()
			file = &File{Name: fileHeader.Filename, Body: f}
		}
	}

	exp, err := util.ParseOptionalDate(req.ExpirationDate, h.Location)
	if err != nil {
		respond.Validation(c, "expirationDate must be YYYY-MM-DD or RFC 3339")
		return
	}

	doc, err := h.Svc.CreateDocument(c.Request.Context(), families.FamilyIDFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), DocumentInput{
		MemberID:       req.MemberID,
		Name:           req.Name,
		Description:    req.Description,
		DocumentType:   req.DocumentType,
		ExpirationDate: exp,
	}, file)
	if err != nil {
		fail(c, err, "failed to create document")
		return
	}
	respond.Created(c, toDocumentResponse(doc))
}

func (h *Handler) listDocuments(c *gin.Context) {
	c.Set("planId", c.Param("id"))
	docs, err := h.Svc.ListDocuments(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to list documents")
		return
	}
	resp := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, toDocumentResponse(d))
	}
	respond.OK(c, resp)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	if err := h.Svc.DeleteDocument(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id")); err != nil {
		fail(c, err, "failed to delete document")
		return
	}
	respond.NoContent(c)
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
