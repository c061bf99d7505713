package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/auth"
)

// countingLimiter allows limit.Rate calls per key and never resets.
type countingLimiter struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func newCountingLimiter() *countingLimiter {
	return &countingLimiter{calls: make(map[string]int)}
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.calls[key]++
	if l.calls[key] > limit.Rate {
		return &redis_rate.Result{Limit: limit, Allowed: 0, Remaining: 0, RetryAfter: 30 * time.Second}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: limit.Rate - l.calls[key]}, nil
}

func TestRateLimit_AllowsUpToLimit(t *testing.T) {
	limiter := newCountingLimiter()
	handler := middleware.RateLimit(limiter, 2)(okHandler())
	identity := &auth.Identity{KeyID: uuid.New(), Role: auth.RoleUser}

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs(identity))
		codes = append(codes, w.Code)
		if i == 0 {
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_RejectionEnvelope(t *testing.T) {
	limiter := newCountingLimiter()
	handler := middleware.RateLimit(limiter, 1)(okHandler())
	identity := &auth.Identity{KeyID: uuid.New()}

	handler.ServeHTTP(httptest.NewRecorder(), requestAs(identity))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(identity))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", parseEnvelope(t, w)["code"])
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	limiter := newCountingLimiter()
	handler := middleware.RateLimit(limiter, 1)(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs(&auth.Identity{KeyID: uuid.New()}))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_LimiterErrorFailsOpen(t *testing.T) {
	limiter := newCountingLimiter()
	limiter.err = errors.New("redis down")
	w := httptest.NewRecorder()

	middleware.RateLimit(limiter, 1)(okHandler()).ServeHTTP(w, requestAs(nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
