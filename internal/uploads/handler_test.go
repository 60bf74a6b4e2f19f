package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"allie-backend/internal/shared/storage/object"
)

func TestPresignSignedHeadersExcludeContentLength(t *testing.T) {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	presigner := s3.NewPresignClient(s3.NewFromConfig(cfg))

	out, err := presigner.PresignPutObject(context.Background(), presignInput("bucket", "medical-documents/fam/file.pdf", "application/pdf"))
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	parsed, err := url.Parse(out.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	signed := parsed.Query().Get("X-Amz-SignedHeaders")
	if signed == "" {
		t.Fatalf("expected X-Amz-SignedHeaders")
	}
	if strings.Contains(signed, "content-length") {
		t.Fatalf("unexpected content-length in signed headers: %s", signed)
	}
	if !strings.Contains(signed, "host") {
		t.Fatalf("expected host in signed headers: %s", signed)
	}
}

type fakePresigner struct {
	keys []string
	err  error
}

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &v4.PresignedHTTPRequest{URL: "https://uploads.example.com/" + aws.ToString(in.Key)}, nil
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("familyId", "fam-1")
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postPresign(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestPresignKeyUnderFamilyPrefix(t *testing.T) {
	fake := &fakePresigner{}
	r := newTestRouter(NewHandler(fake, "bucket", "medical-documents/"))

	resp := postPresign(r, `{"fileName":"lab results.pdf","contentType":"application/pdf","sizeBytes":2048}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body presignResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	prefix := object.OwnerPrefix("medical-documents/", "fam-1")
	if !strings.HasPrefix(body.S3Key, prefix) {
		t.Fatalf("key %q not under %q", body.S3Key, prefix)
	}
	if body.ExpiresInSeconds != 900 {
		t.Fatalf("expected 900s expiry, got %d", body.ExpiresInSeconds)
	}
	if len(fake.keys) != 1 || fake.keys[0] != body.S3Key {
		t.Fatalf("presigned keys = %v", fake.keys)
	}
}

func TestPresignValidation(t *testing.T) {
	r := newTestRouter(NewHandler(&fakePresigner{}, "bucket", "p/"))
	cases := map[string]string{
		"missing name": `{"contentType":"application/pdf","sizeBytes":1}`,
		"bad type":     `{"fileName":"a.exe","contentType":"application/x-msdownload","sizeBytes":1}`,
		"too large":    `{"fileName":"a.pdf","contentType":"application/pdf","sizeBytes":10485761}`,
		"empty":        `{"fileName":"a.pdf","contentType":"application/pdf","sizeBytes":0}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if resp := postPresign(r, body); resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
		})
	}
}

func TestPresignNotConfigured(t *testing.T) {
	r := newTestRouter(NewHandler(nil, "", ""))
	resp := postPresign(r, `{"fileName":"scan.png","contentType":"image/png","sizeBytes":10}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestPresignFailure(t *testing.T) {
	r := newTestRouter(NewHandler(&fakePresigner{err: errors.New("boom")}, "bucket", "p/"))
	resp := postPresign(r, `{"fileName":"notes.txt","contentType":"text/plain","sizeBytes":10}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
