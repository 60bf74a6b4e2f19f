package medicaldocs

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	h := NewHandler(svc, time.UTC)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("userId", "google:1")
		c.Set("familyId", "fam-1")
	})
	h.RegisterRoutes(api)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		fw, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadListDownload(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"title":    "Cardiology consult",
		"category": "specialists",
		"date":     "2025-03-14",
		"tags":     "heart, follow-up",
	}, "consult.txt", "Echo normal. Continue beta blocker.")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/medical-documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.HasFile || created.FileName != "consult.txt" {
		t.Fatalf("expected stored file, got %+v", created)
	}
	if len(created.Tags) != 2 || created.Tags[1] != "follow-up" {
		t.Fatalf("unexpected tags %v", created.Tags)
	}
	if !created.Date.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", created.Date)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/medical-documents?search=beta", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var listed []DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected search to find the document, got %+v", listed)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/medical-documents/"+created.ID+"/file", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != "Echo normal. Continue beta blocker." {
		t.Fatalf("unexpected body %q", got)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "consult.txt") {
		t.Fatalf("unexpected disposition %q", cd)
	}
}

func TestCreateValidationAndNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/medical-documents", strings.NewReader(`{"title":"","date":"2025-01-01"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/medical-documents", strings.NewReader(`{"title":"x","date":"soon"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/medical-documents/missing", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPatchClearsExpiration(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/medical-documents",
		strings.NewReader(`{"title":"Passport copy","expirationDate":"2030-01-01"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var created DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ExpirationDate == nil {
		t.Fatal("expected expiration date")
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/medical-documents/"+created.ID, strings.NewReader(`{"expirationDate":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated DocumentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.ExpirationDate != nil || updated.Title != "Passport copy" {
		t.Fatalf("unexpected update result %+v", updated)
	}
}
