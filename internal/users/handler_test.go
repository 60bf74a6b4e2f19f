package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allie-backend/internal/shared/auth"
	"allie-backend/internal/shared/server/middleware"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth("dev"))
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func getMe(t *testing.T, r http.Handler, header, value string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set(header, value)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return resp.Code, body
}

func TestMeForGuest(t *testing.T) {
	r := newTestRouter(NewService(NewMemoryRepo()))
	code, body := getMe(t, r, "X-Guest-Id", "abc")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "guest:abc", body["userId"])
	assert.Equal(t, true, body["isGuest"])
}

func TestMePrefersStoredProfile(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.UpsertFromAuth(context.Background(), User{ID: "google:7", Email: "stored@example.com", FullName: "Stored Name"})
	require.NoError(t, err)

	token, err := auth.SignJWT(auth.Claims{Sub: "google:7", Email: "token@example.com", Name: "Token Name"})
	require.NoError(t, err)

	code, body := getMe(t, newTestRouter(svc), "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "stored@example.com", body["email"])
	assert.Equal(t, "Stored Name", body["fullName"])
	assert.Equal(t, false, body["isGuest"])
}

func TestMeFallsBackToClaims(t *testing.T) {
	token, err := auth.SignJWT(auth.Claims{Sub: "google:8", Email: "token@example.com"})
	require.NoError(t, err)

	code, body := getMe(t, newTestRouter(NewService(NewMemoryRepo())), "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "token@example.com", body["email"])
}
