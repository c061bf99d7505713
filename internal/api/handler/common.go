package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/response"
	"github.com/creatorfund/boostd/internal/api/validation"
	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/profile"
)

// timestampLayout keeps the stored microseconds so clients can compare
// against boost windows exactly. Whole seconds render without a fraction.
const timestampLayout = time.RFC3339Nano

const maxBodyBytes = 1 << 20

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// decodeJSON reads the request body into dst. On failure it writes a 400
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// validate runs v over req. On failure it writes a 400 with field details
// and returns false.
func validate(w http.ResponseWriter, r *http.Request, v *validation.Validator, req any) bool {
	if fieldErrors := v.Struct(req); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// uuidParam parses the named URL parameter. On failure it writes a 400 and
// returns false.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", name+" must be a valid UUID", middleware.GetRequestID(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps a boost or profile error to its HTTP status.
// Unrecognized errors are logged and reported as 500 "Failed to <action>".
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	requestID := middleware.GetRequestID(r.Context())

	if fieldErrors := validation.FromError(err); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var tierErr *boost.TierError
	switch {
	case errors.Is(err, boost.ErrBoostNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Boost not found", requestID)
	case errors.Is(err, boost.ErrPromotionNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Promotion not found", requestID)
	case errors.Is(err, boost.ErrConfigNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Boost configuration not found", requestID)
	case errors.Is(err, profile.ErrProfileNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "User profile not found", requestID)
	case errors.Is(err, boost.ErrConfigDisabled):
		response.Err(w, http.StatusBadRequest, "CONFIG_DISABLED", "Boost configuration is disabled", requestID)
	case errors.As(err, &tierErr):
		response.Err(w, http.StatusForbidden, "NOT_ELIGIBLE", "This "+tierErr.Error(), requestID)
	case errors.Is(err, boost.ErrNotEligible):
		response.Err(w, http.StatusBadRequest, "NOT_ELIGIBLE", "Only Tier 2 creators can claim this boost", requestID)
	case errors.Is(err, boost.ErrPromotionClaimed):
		response.Err(w, http.StatusBadRequest, "ALREADY_BOOSTED", "You have already claimed this promotion", requestID)
	case errors.Is(err, boost.ErrPromotionInactive):
		response.Err(w, http.StatusBadRequest, "PROMOTION_INACTIVE", "Promotion is not currently active", requestID)
	case errors.Is(err, boost.ErrPromotionFull):
		response.Err(w, http.StatusBadRequest, "PROMOTION_FULL", "Promotion has reached maximum participants", requestID)
	case errors.Is(err, boost.ErrAlreadyBoosted):
		response.Err(w, http.StatusBadRequest, "ALREADY_BOOSTED", "You already have an active Tier 2 boost", requestID)
	case errors.Is(err, boost.ErrApplyInProgress):
		response.Err(w, http.StatusConflict, "CONFLICT", "Boost configuration is already being applied", requestID)
	case errors.Is(err, boost.ErrForbidden):
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "You can only record earnings on your own boosts", requestID)
	default:
		slog.Error("failed to "+action, "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action, requestID)
	}
}
