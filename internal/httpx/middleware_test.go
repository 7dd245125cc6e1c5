package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxle/go-parts-market/internal/auth"
	"github.com/openaxle/go-parts-market/internal/users"
)

func authedRequest(t *testing.T, svc *auth.JWTService, userID, role string) *http.Request {
	t.Helper()
	token, _, err := svc.Issue(userID, userID+"@example.com", role)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthenticate(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)

	var gotCaller string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = callerID(r)
	})
	h := Authenticate(svc)(next)

	t.Run("valid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(t, svc, "u1", users.RoleUser))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", gotCaller)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := Authenticate(svc)(RequireRole(users.RoleAdmin, users.RoleDealer)(next))

	t.Run("admin allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(t, svc, "a1", users.RoleAdmin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("dealer allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(t, svc, "d1", users.RoleDealer))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plain user forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(t, svc, "u1", users.RoleUser))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
