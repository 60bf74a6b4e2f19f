package medicaldocs

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"allie-backend/internal/families"
	"allie-backend/internal/shared/server/middleware"
	"allie-backend/internal/shared/server/respond"
	"allie-backend/internal/shared/util"
)

// maxRequestBytes leaves room for multipart framing around a full-size file.
const maxRequestBytes = MaxFileBytes + 1<<20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc      *Service
	Location *time.Location
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, loc *time.Location) *Handler {
	return &Handler{Svc: svc, Location: loc}
}

// RegisterRoutes attaches document and category routes. rg must run
// families.RequireFamily.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/medical-documents", h.create)
	rg.POST("/medical-documents/from-upload", h.createFromUpload)
	rg.GET("/medical-documents", h.list)
	rg.GET("/medical-documents/:id", h.get)
	rg.PATCH("/medical-documents/:id", h.update)
	rg.DELETE("/medical-documents/:id", h.delete)
	rg.GET("/medical-documents/:id/file", h.download)

	rg.POST("/medical-document-categories", h.createCategory)
	rg.GET("/medical-document-categories", h.listCategories)
	rg.DELETE("/medical-document-categories/:id", h.deleteCategory)
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

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
			if fileHeader.Size > MaxFileBytes {
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

	in, err := h.input(req)
	if err != nil {
		respond.Validation(c, err.Error())
		return
	}

	familyID := families.FamilyIDFromContext(c)
	doc, err := h.Svc.Create(c.Request.Context(), familyID, middleware.UserIDFromContext(c), in, file)
	if err != nil {
		h.fail(c, err, "failed to create document")
		return
	}
	respond.Created(c, toResponse(doc))
}

func (h *Handler) createFromUpload(c *gin.Context) {
	var req fromUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	in, err := h.input(req.documentRequest)
	if err != nil {
		respond.Validation(c, err.Error())
		return
	}

	familyID := families.FamilyIDFromContext(c)
	doc, err := h.Svc.CreateFromUpload(c.Request.Context(), familyID, middleware.UserIDFromContext(c), req.S3Key, req.FileName, in)
	if err != nil {
		h.fail(c, err, "failed to create document")
		return
	}
	respond.Created(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context(), families.FamilyIDFromContext(c), Filter{
		Category:  c.Query("category"),
		PatientID: c.Query("patientId"),
		Search:    c.Query("search"),
	})
	if err != nil {
		respond.Internal(c, "failed to list documents", err)
		return
	}
	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	doc, err := h.Svc.Get(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) update(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}

	u := Update{
		Title:       req.Title,
		Description: req.Description,
		PatientID:   req.PatientID,
		Category:    req.Category,
		Tags:        req.Tags,
	}
	if req.Date != nil {
		date, err := util.ParseDate(*req.Date, h.Location)
		if err != nil {
			respond.Validation(c, "date must be YYYY-MM-DD or RFC 3339")
			return
		}
		u.Date = &date
	}
	if req.ExpirationDate != nil {
		exp, err := util.ParseOptionalDate(*req.ExpirationDate, h.Location)
		if err != nil {
			respond.Validation(c, "expirationDate must be YYYY-MM-DD or RFC 3339")
			return
		}
		u.ExpirationDate = exp
		u.ClearExpiration = exp == nil
	}

	doc, err := h.Svc.Update(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"), u)
	if err != nil {
		h.fail(c, err, "failed to update document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete document")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) download(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	doc, rc, err := h.Svc.Download(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to open document file")
		return
	}
	defer rc.Close()

	contentType := doc.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	if doc.FileSize > 0 {
		c.Header("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	}
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}
	category, err := h.Svc.CreateCategory(c.Request.Context(), families.FamilyIDFromContext(c), middleware.UserIDFromContext(c), CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		h.fail(c, err, "failed to create category")
		return
	}
	respond.Created(c, toCategoryResponse(category))
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.Svc.ListCategories(c.Request.Context(), families.FamilyIDFromContext(c))
	if err != nil {
		respond.Internal(c, "failed to list categories", err)
		return
	}
	resp := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		resp = append(resp, toCategoryResponse(category))
	}
	respond.OK(c, resp)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if err := h.Svc.DeleteCategory(c.Request.Context(), families.FamilyIDFromContext(c), c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete category")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) input(req documentRequest) (Input, error) {
	date, err := util.ParseDate(req.Date, h.Location)
	if err != nil {
		return Input{}, errors.New("date must be YYYY-MM-DD or RFC 3339")
	}
	exp, err := util.ParseOptionalDate(req.ExpirationDate, h.Location)
	if err != nil {
		return Input{}, errors.New("expirationDate must be YYYY-MM-DD or RFC 3339")
	}
	return Input{
		Title:          req.Title,
		Description:    req.Description,
		PatientID:      req.PatientID,
		Category:       req.Category,
		Date:           date,
		ExpirationDate: exp,
		Tags:           splitTags(req.Tags),
	}, nil
}

// splitTags accepts repeated values and comma-separated lists.
func splitTags(raw []string) []string {
	var out []string
	for _, v := range raw {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		respond.Validation(c, fmt.Sprintf("request exceeds %d bytes", maxErr.Limit))
	case errors.Is(err, ErrInvalidInput):
		respond.Validation(c, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.NotFound(c, "not found")
	case errors.Is(err, ErrNoFile):
		respond.NotFound(c, "document has no file")
	default:
		respond.Internal(c, msg, err)
	}
}
