package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/auth"
)

func requestAs(identity *auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if identity == nil {
		return req
	}
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func TestRequireAdmin(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"user key", &auth.Identity{Role: auth.RoleUser, UserID: &userID}, http.StatusForbidden},
		{"admin key", &auth.Identity{Role: auth.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			middleware.RequireAdmin()(okHandler()).ServeHTTP(w, requestAs(tt.identity))

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireUser(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"admin key without user", &auth.Identity{Role: auth.RoleAdmin}, http.StatusForbidden},
		{"admin key with user", &auth.Identity{Role: auth.RoleAdmin, UserID: &userID}, http.StatusOK},
		{"user key", &auth.Identity{Role: auth.RoleUser, UserID: &userID}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			middleware.RequireUser()(okHandler()).ServeHTTP(w, requestAs(tt.identity))

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireUser_ForbiddenMessage(t *testing.T) {
	w := httptest.NewRecorder()

	middleware.RequireUser()(okHandler()).ServeHTTP(w, requestAs(&auth.Identity{Role: auth.RoleAdmin}))

	env := parseEnvelope(t, w)
	assert.Equal(t, "FORBIDDEN", env["code"])
	assert.Equal(t, "API key is not bound to a user", env["error"])
}
