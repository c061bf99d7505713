package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/response"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      Pinger
	redis   Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when the
// service runs without Redis.
func NewHealthHandler(db, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		version: version,
	}
}

type dependencyStatus struct {
	Connected bool    `json:"connected"`
	Error     *string `json:"error,omitempty"`
}

type healthData struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Database dependencyStatus  `json:"database"`
	Redis    *dependencyStatus `json:"redis"`
}

func check(ctx context.Context, p Pinger) dependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		msg := err.Error()
		return dependencyStatus{Error: &msg}
	}
	return dependencyStatus{Connected: true}
}

// ServeHTTP handles the health check request. A failed database reports
// 503; a failed Redis only degrades the status.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	data := healthData{
		Status:   "healthy",
		Version:  h.version,
		Database: check(r.Context(), h.db),
	}

	if h.redis != nil {
		rs := check(r.Context(), h.redis)
		data.Redis = &rs
		if !rs.Connected {
			data.Status = "degraded"
		}
	}

	status := http.StatusOK
	if !data.Database.Connected {
		data.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	response.Success(w, status, data, requestID)
}
