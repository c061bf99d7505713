package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/response"
	"github.com/creatorfund/boostd/internal/api/validation"
	"github.com/creatorfund/boostd/internal/profile"
)

type upsertProfileRequest struct {
	DisplayName    string     `json:"displayName" validate:"max=255"`
	TierLevel      string     `json:"tierLevel" validate:"required,tier_level"`
	IsCreator      *bool      `json:"isCreator" validate:"required"`
	TierUpgradedAt *time.Time `json:"tierUpgradedAt"`
}

// ProfileHandler lets operators mirror the platform's creator tier flags
// into the profiles table.
type ProfileHandler struct {
	repo      profile.Repository
	validator *validation.Validator
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(repo profile.Repository, v *validation.Validator) *ProfileHandler {
	return &ProfileHandler{
		repo:      repo,
		validator: v,
	}
}

// Upsert handles PUT /admin/profiles/{userId}.
func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	var req upsertProfileRequest
	if !decodeJSON(w, r, &req) || !validate(w, r, h.validator, req) {
		return
	}

	p := &profile.Profile{
		UserID:         userID,
		DisplayName:    strings.TrimSpace(req.DisplayName),
		TierLevel:      req.TierLevel,
		IsCreator:      *req.IsCreator,
		TierUpgradedAt: req.TierUpgradedAt,
	}
	if err := h.repo.Upsert(r.Context(), p); err != nil {
		writeServiceError(w, r, err, "save profile")
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}
