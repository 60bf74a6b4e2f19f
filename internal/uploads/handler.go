package uploads

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"allie-backend/internal/families"
	"allie-backend/internal/shared/server/respond"
	"allie-backend/internal/shared/storage/object"
	"allie-backend/internal/shared/telemetry"
	"allie-backend/internal/shared/util"
)

const (
	maxUploadBytes = 10 << 20
	presignExpires = 15 * time.Minute
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/heic": {},
}

// Presigner is the subset of *s3.PresignClient used here.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Handler issues presigned PUT URLs for direct-to-S3 medical document uploads.
// A nil Presign means uploads are not configured.
type Handler struct {
	Presign Presigner
	Bucket  string
	Prefix  string
}

func NewHandler(presign Presigner, bucket, prefix string) *Handler {
	return &Handler{Presign: presign, Bucket: bucket, Prefix: prefix}
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	S3Key            string `json:"s3Key"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/presign", h.presign)
}

func (h *Handler) presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, "invalid request body")
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.ToLower(strings.TrimSpace(req.ContentType))
	if req.FileName == "" {
		respond.Validation(c, "fileName is required")
		return
	}
	if _, ok := allowedContentTypes[req.ContentType]; !ok {
		respond.Validation(c, "contentType is not allowed")
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		respond.Validation(c, "sizeBytes must be between 1 byte and 10MB")
		return
	}
	sanitized, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		respond.Validation(c, "invalid fileName")
		return
	}

	if h.Presign == nil || h.Bucket == "" {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "uploads not configured", nil)
		return
	}

	familyID := families.FamilyIDFromContext(c)
	key := object.OwnerPrefix(h.Prefix, familyID) + uuid.NewString() + "-" + sanitized

	out, err := h.Presign.PresignPutObject(c.Request.Context(), presignInput(h.Bucket, key, req.ContentType), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"error":       err.Error(),
			"bucket":      h.Bucket,
			"key":         key,
			"contentType": req.ContentType,
			"sizeBytes":   req.SizeBytes,
			"request_id":  c.GetString("requestId"),
		})
		respond.Internal(c, "failed to generate upload url", err)
		return
	}

	respond.OK(c, presignResponse{
		UploadURL:        out.URL,
		S3Key:            key,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}

// presignInput leaves ContentLength unset so browsers may PUT without the
// exact size header being signed.
func presignInput(bucket, key, contentType string) *s3.PutObjectInput {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	return in
}
