package reminders

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t, 2, 400)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("userId", "google:1")
		c.Set("familyId", "fam-1")
	})
	NewHandler(f.svc).RegisterRoutes(api)
	return r, f
}

func send(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestReminderRoutes(t *testing.T) {
	r, f := newTestRouter(t)
	f.medicationWithSchedule(t, "20:00")

	resp := send(r, http.MethodGet, "/api/v1/members/m-1/reminders/upcoming?days=2")
	if resp.Code != http.StatusOK {
		t.Fatalf("upcoming: expected 200, got %d", resp.Code)
	}
	var items []UpcomingResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].Medication == nil || items[0].Title != "Time to take Metformin" {
		t.Fatalf("unexpected upcoming %s", resp.Body.String())
	}

	resp = send(r, http.MethodPost, "/api/v1/reminders/"+items[0].ID+"/acknowledge")
	if resp.Code != http.StatusOK {
		t.Fatalf("acknowledge: expected 200, got %d", resp.Code)
	}
	var acked ReminderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &acked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !acked.IsAcknowledged || acked.Status != StatusCompleted {
		t.Fatalf("unexpected acknowledged reminder %+v", acked)
	}

	resp = send(r, http.MethodPost, "/api/v1/reminders/"+items[1].ID+"/dismiss")
	if resp.Code != http.StatusOK {
		t.Fatalf("dismiss: expected 200, got %d", resp.Code)
	}
	resp = send(r, http.MethodPost, "/api/v1/reminders/"+items[1].ID+"/acknowledge")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("acknowledge dismissed: expected 400, got %d", resp.Code)
	}

	resp = send(r, http.MethodPost, "/api/v1/reminders/missing/dismiss")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", resp.Code)
	}

	resp = send(r, http.MethodGet, "/api/v1/members/m-1/reminders/upcoming?days=abc")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad days: expected 400, got %d", resp.Code)
	}
}
