package handler

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/response"
	"github.com/creatorfund/boostd/internal/api/validation"
	"github.com/creatorfund/boostd/internal/boost"
)

type createConfigRequest struct {
	BoostType    string           `json:"boostType" validate:"required,boost_type"`
	Multiplier   *decimal.Decimal `json:"multiplier" validate:"required,gt=0,lte=99.99"`
	DurationDays int              `json:"durationDays" validate:"required,gt=0"`
	Description  string           `json:"description" validate:"max=500"`
	Conditions   map[string]any   `json:"conditions"`
}

type updateConfigRequest struct {
	BoostType    *string          `json:"boostType" validate:"omitempty,boost_type"`
	Multiplier   *decimal.Decimal `json:"multiplier" validate:"omitempty,gt=0,lte=99.99"`
	DurationDays *int             `json:"durationDays" validate:"omitempty,gt=0"`
	Description  *string          `json:"description" validate:"omitempty,max=500"`
	Enabled      *bool            `json:"enabled"`
	Conditions   map[string]any   `json:"conditions"`
}

type applyResponse struct {
	AppliedCount int    `json:"appliedCount"`
	Message      string `json:"message"`
}

// BoostAdminHandler handles the operator endpoints under /admin.
type BoostAdminHandler struct {
	service   *boost.Service
	validator *validation.Validator
}

// NewBoostAdminHandler creates a new BoostAdminHandler.
func NewBoostAdminHandler(service *boost.Service, v *validation.Validator) *BoostAdminHandler {
	return &BoostAdminHandler{
		service:   service,
		validator: v,
	}
}

// ApplyTierUpgrade handles POST /admin/apply-tier-upgrade/{userId}.
func (h *BoostAdminHandler) ApplyTierUpgrade(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	rec, err := h.service.ApplyTierUpgradeBoost(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "apply tier upgrade boost")
		return
	}

	response.Success(w, http.StatusCreated, toBoostResponse(rec), requestID)
}

// ListConfigs handles GET /admin/configurations.
func (h *BoostAdminHandler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	configs, err := h.service.GetAllBoostConfigs(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list boost configurations")
		return
	}

	items := make([]configResponse, 0, len(configs))
	for i := range configs {
		items = append(items, toConfigResponse(&configs[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), len(items), requestID)
}

// CreateConfig handles POST /admin/configurations.
func (h *BoostAdminHandler) CreateConfig(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var req createConfigRequest
	if !decodeJSON(w, r, &req) || !validate(w, r, h.validator, req) {
		return
	}

	c, err := h.service.CreateSeasonalBoost(r.Context(), boost.NewConfig{
		Type:         boost.Type(req.BoostType),
		Multiplier:   *req.Multiplier,
		DurationDays: req.DurationDays,
		Description:  req.Description,
		Conditions:   req.Conditions,
		CreatedBy:    identity.UserID,
	})
	if err != nil {
		writeServiceError(w, r, err, "create boost configuration")
		return
	}

	response.Success(w, http.StatusCreated, toConfigResponse(c), requestID)
}

// GetConfig handles GET /admin/configurations/{configId}.
func (h *BoostAdminHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	configID, ok := uuidParam(w, r, "configId")
	if !ok {
		return
	}

	c, err := h.service.GetBoostConfig(r.Context(), configID)
	if err != nil {
		writeServiceError(w, r, err, "get boost configuration")
		return
	}

	response.Success(w, http.StatusOK, toConfigResponse(c), requestID)
}

// UpdateConfig handles PATCH /admin/configurations/{configId}. Only the
// fields present in the body are written.
func (h *BoostAdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	configID, ok := uuidParam(w, r, "configId")
	if !ok {
		return
	}

	var req updateConfigRequest
	if !decodeJSON(w, r, &req) || !validate(w, r, h.validator, req) {
		return
	}

	fields := boost.UpdateConfigFields{
		Multiplier:   req.Multiplier,
		DurationDays: req.DurationDays,
		Description:  req.Description,
		Enabled:      req.Enabled,
		Conditions:   req.Conditions,
		UpdatedBy:    identity.UserID,
	}
	if req.BoostType != nil {
		t := boost.Type(*req.BoostType)
		fields.Type = &t
	}

	c, err := h.service.UpdateBoostConfig(r.Context(), configID, fields)
	if err != nil {
		writeServiceError(w, r, err, "update boost configuration")
		return
	}

	response.Success(w, http.StatusOK, toConfigResponse(c), requestID)
}

// ApplySeasonal handles POST /admin/seasonal/apply/{configId}.
func (h *BoostAdminHandler) ApplySeasonal(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	configID, ok := uuidParam(w, r, "configId")
	if !ok {
		return
	}

	n, err := h.service.ApplySeasonalBoostToAll(r.Context(), configID)
	if err != nil {
		writeServiceError(w, r, err, "apply seasonal boost")
		return
	}

	response.Success(w, http.StatusOK, applyResponse{
		AppliedCount: n,
		Message:      fmt.Sprintf("Seasonal boost applied to %d creators", n),
	}, requestID)
}

// Stats handles GET /admin/stats.
func (h *BoostAdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	stats, err := h.service.GetBoostStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "fetch boost stats")
		return
	}

	response.Success(w, http.StatusOK, toStatsResponse(stats), requestID)
}

// Deactivate handles POST /admin/deactivate/{boostId}.
func (h *BoostAdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	boostID, ok := uuidParam(w, r, "boostId")
	if !ok {
		return
	}

	if _, err := h.service.DeactivateBoost(r.Context(), boostID); err != nil {
		writeServiceError(w, r, err, "deactivate boost")
		return
	}

	response.Message(w, http.StatusOK, "Boost deactivated successfully", requestID)
}
