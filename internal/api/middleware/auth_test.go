package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/auth"
	"github.com/creatorfund/boostd/internal/auth/authtest"
)

const testBcryptCost = 4

func setupAuth(t *testing.T) (*auth.Service, *authtest.KeyStore) {
	t.Helper()
	store := authtest.New()
	return auth.NewService(store, testBcryptCost), store
}

func TestAuth_MissingKey(t *testing.T) {
	svc, _ := setupAuth(t)
	handler := middleware.Auth(svc)(okHandler())
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseEnvelope(t, w)
	assert.Equal(t, "UNAUTHORIZED", env["code"])
	assert.Equal(t, "API key is required", env["error"])
}

func TestAuth_InvalidKey(t *testing.T) {
	svc, _ := setupAuth(t)
	handler := middleware.Auth(svc)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "bst_invalidkeyvalue12345678901234567890")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or revoked API key", parseEnvelope(t, w)["error"])
}

func TestAuth_ValidKey_IdentityInContext(t *testing.T) {
	svc, _ := setupAuth(t)
	userID := uuid.New()
	key, rawKey, err := svc.CreateKey(context.Background(), "creator-app", auth.RoleUser, &userID)
	require.NoError(t, err)

	var captured *auth.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	middleware.Auth(svc)(inner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, key.ID, captured.KeyID)
	assert.Equal(t, "creator-app", captured.Name)
	assert.Equal(t, auth.RoleUser, captured.Role)
	require.NotNil(t, captured.UserID)
	assert.Equal(t, userID, *captured.UserID)
}

func TestAuth_RevokedKey(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()
	key, rawKey, err := svc.CreateKey(ctx, "ops", auth.RoleAdmin, nil)
	require.NoError(t, err)
	require.NoError(t, svc.RevokeKey(ctx, key.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	middleware.Auth(svc)(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_RepositoryError(t *testing.T) {
	svc, store := setupAuth(t)
	store.Err = errors.New("db down")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "bst_somethinglongenough")
	w := httptest.NewRecorder()

	middleware.Auth(svc)(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", parseEnvelope(t, w)["code"])
}

func TestGetIdentity_EmptyContext(t *testing.T) {
	assert.Nil(t, middleware.GetIdentity(context.Background()))
}
