package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/response"
	"github.com/creatorfund/boostd/internal/api/validation"
	"github.com/creatorfund/boostd/internal/auth"
)

type createKeyRequest struct {
	Name   string  `json:"name" validate:"required,max=255"`
	Role   string  `json:"role" validate:"required,api_role"`
	UserID *string `json:"userId" validate:"omitempty,uuid"`
}

type apiKeyResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	UserID    *string `json:"userId"`
	KeyPrefix string  `json:"keyPrefix"`
	CreatedAt string  `json:"createdAt"`
	RevokedAt *string `json:"revokedAt,omitempty"`
}

type apiKeyWithSecretResponse struct {
	apiKeyResponse
	APIKey string `json:"apiKey"`
}

func toAPIKeyResponse(k *auth.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:        k.ID.String(),
		Name:      k.Name,
		Role:      k.Role,
		UserID:    uuidPtrString(k.UserID),
		KeyPrefix: k.KeyPrefix,
		CreatedAt: formatTime(k.CreatedAt),
		RevokedAt: formatTimePtr(k.RevokedAt),
	}
}

// APIKeyHandler handles API key issuance and revocation.
type APIKeyHandler struct {
	authService *auth.Service
	validator   *validation.Validator
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(authService *auth.Service, v *validation.Validator) *APIKeyHandler {
	return &APIKeyHandler{
		authService: authService,
		validator:   v,
	}
}

// Create handles POST /admin/api-keys. The raw key is only returned here.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createKeyRequest
	if !decodeJSON(w, r, &req) || !validate(w, r, h.validator, req) {
		return
	}

	var userID *uuid.UUID
	if req.UserID != nil {
		id, _ := uuid.Parse(*req.UserID) // already validated
		userID = &id
	}

	k, rawKey, err := h.authService.CreateKey(r.Context(), strings.TrimSpace(req.Name), req.Role, userID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRole):
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "userId", Message: "userId is required for user keys"}}, requestID)
		case errors.Is(err, auth.ErrUnknownUser):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User profile not found", requestID)
		default:
			slog.Error("failed to create api key", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, apiKeyWithSecretResponse{
		apiKeyResponse: toAPIKeyResponse(k),
		APIKey:         rawKey,
	}, requestID)
}

// List handles GET /admin/api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	keys, err := h.authService.ListKeys(r.Context())
	if err != nil {
		slog.Error("failed to list api keys", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys", requestID)
		return
	}

	items := make([]apiKeyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, toAPIKeyResponse(&keys[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), len(items), requestID)
}

// Delete handles DELETE /admin/api-keys/{id} (soft-revoke).
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	// A key cannot revoke itself.
	if identity := middleware.GetIdentity(r.Context()); identity != nil && identity.KeyID == id {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot revoke the key used for this request", requestID)
		return
	}

	if err := h.authService.RevokeKey(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "API key not found", requestID)
			return
		}
		if errors.Is(err, auth.ErrKeyRevoked) {
			// Already revoked, treat as success (idempotent)
			response.NoContent(w)
			return
		}
		slog.Error("failed to revoke api key", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key", requestID)
		return
	}

	response.NoContent(w)
}
