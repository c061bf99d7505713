package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/response"
	"github.com/creatorfund/boostd/internal/api/validation"
	"github.com/creatorfund/boostd/internal/boost"
)

type calculateEarningsRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,gte=0"`
}

type recordEarningsRequest struct {
	Earnings *decimal.Decimal `json:"earnings" validate:"required,gte=0"`
}

// BoostHandler handles the creator-facing boost endpoints. Every route acts
// on the caller's own boosts.
type BoostHandler struct {
	service   *boost.Service
	validator *validation.Validator
}

// NewBoostHandler creates a new BoostHandler.
func NewBoostHandler(service *boost.Service, v *validation.Validator) *BoostHandler {
	return &BoostHandler{
		service:   service,
		validator: v,
	}
}

// MyBoost handles GET /my-boost.
func (h *BoostHandler) MyBoost(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	rec, err := h.service.GetActiveBoost(r.Context(), *identity.UserID)
	if err != nil {
		writeServiceError(w, r, err, "fetch active boost")
		return
	}

	response.Success(w, http.StatusOK, toBoostResponse(rec), requestID)
}

// MyBoosts handles GET /my-boosts.
func (h *BoostHandler) MyBoosts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Err(w, http.StatusBadRequest, "INVALID_QUERY", "limit must be a positive integer", requestID)
			return
		}
		limit = n
	}
	limit = boost.ListLimit(limit)

	records, err := h.service.ListUserBoosts(r.Context(), *identity.UserID, limit)
	if err != nil {
		writeServiceError(w, r, err, "fetch boost history")
		return
	}

	response.SuccessList(w, http.StatusOK, toBoostResponses(records), len(records), limit, requestID)
}

// CalculateEarnings handles POST /calculate-earnings.
func (h *BoostHandler) CalculateEarnings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var req calculateEarningsRequest
	if !decodeJSON(w, r, &req) || !validate(w, r, h.validator, req) {
		return
	}

	result, err := h.service.CalculateEarningsWithBoost(r.Context(), *identity.UserID, *req.Amount)
	if err != nil {
		writeServiceError(w, r, err, "calculate earnings")
		return
	}

	response.Success(w, http.StatusOK, toEarningsResponse(result), requestID)
}

// RecordEarnings handles POST /record-earnings/{boostId}. Admins may record
// earnings on any boost; everyone else only on their own.
func (h *BoostHandler) RecordEarnings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	boostID, ok := uuidParam(w, r, "boostId")
	if !ok {
		return
	}

	var req recordEarningsRequest
	if !decodeJSON(w, r, &req) || !validate(w, r, h.validator, req) {
		return
	}

	owner := identity.UserID
	if identity.IsAdmin() {
		owner = nil
	} else if owner == nil {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "API key is not bound to a user", requestID)
		return
	}

	if _, err := h.service.RecordBoostEarnings(r.Context(), boostID, *req.Earnings, owner); err != nil {
		writeServiceError(w, r, err, "record boost earnings")
		return
	}

	response.Message(w, http.StatusOK, "Boost earnings recorded successfully", requestID)
}

// Tier2Eligibility handles GET /tier2-eligibility.
func (h *BoostHandler) Tier2Eligibility(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	e, err := h.service.CheckTier2Eligibility(r.Context(), *identity.UserID)
	if err != nil {
		writeServiceError(w, r, err, "check eligibility")
		return
	}

	response.Success(w, http.StatusOK, eligibilityResponse{
		Eligible:      e.Eligible,
		DaysRemaining: e.DaysRemaining,
		Reason:        e.Reason,
	}, requestID)
}

// ClaimTierUpgrade handles POST /claim-tier-upgrade.
func (h *BoostHandler) ClaimTierUpgrade(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	rec, err := h.service.ClaimTierUpgradeBoost(r.Context(), *identity.UserID)
	if err != nil {
		writeServiceError(w, r, err, "apply Tier 2 boost")
		return
	}

	response.Success(w, http.StatusCreated, toBoostResponse(rec), requestID)
}

// ListPromotions handles GET /seasonal-promotions.
func (h *BoostHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	promotions, err := h.service.ListPromotions(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "fetch promotions")
		return
	}

	items := toPromotionResponses(promotions)
	response.SuccessList(w, http.StatusOK, items, len(items), len(items), requestID)
}

// ClaimPromotion handles POST /seasonal-promotions/{promotionId}/claim.
func (h *BoostHandler) ClaimPromotion(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	promotionID, ok := uuidParam(w, r, "promotionId")
	if !ok {
		return
	}

	claim, err := h.service.ClaimPromotion(r.Context(), *identity.UserID, promotionID)
	if err != nil {
		writeServiceError(w, r, err, "claim promotion")
		return
	}

	response.Success(w, http.StatusCreated, claimPromotionResponse{
		Boost:          toBoostResponse(claim.Boost),
		PromotionID:    claim.PromotionID.String(),
		BadgeTrialDays: claim.BadgeTrialDays,
	}, requestID)
}

// Opportunities handles GET /boost-opportunities.
func (h *BoostHandler) Opportunities(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	opportunities, err := h.service.BoostOpportunities(r.Context(), *identity.UserID)
	if err != nil {
		writeServiceError(w, r, err, "fetch boost opportunities")
		return
	}

	items := toOpportunityResponses(opportunities)
	response.SuccessList(w, http.StatusOK, items, len(items), len(items), requestID)
}
