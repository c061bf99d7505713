package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/validation"
	"github.com/creatorfund/boostd/internal/auth"
	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/boost/boosttest"
	"github.com/creatorfund/boostd/internal/profile"
)

var testNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store   *boosttest.Store
	service *boost.Service
	v       *validation.Validator
}

func newFixture() *fixture {
	store := boosttest.New()
	svc := boost.NewService(store.Records(), store.Configs(), store.Profiles(),
		boost.WithClock(func() time.Time { return testNow }))
	return &fixture{store: store, service: svc, v: validation.New()}
}

// addCreator stores a profile and returns its user id.
func (f *fixture) addCreator(tier string, isCreator bool, upgradedAt *time.Time) uuid.UUID {
	id := uuid.New()
	f.store.AddProfile(profile.Profile{
		UserID:         id,
		DisplayName:    "creator-" + id.String()[:8],
		TierLevel:      tier,
		IsCreator:      isCreator,
		TierUpgradedAt: upgradedAt,
	})
	return id
}

// addBoost stores an active boost covering testNow.
func (f *fixture) addBoost(userID uuid.UUID, t boost.Type, multiplier string) boost.Record {
	return f.store.AddRecord(boost.Record{
		UserID:          userID,
		Type:            t,
		Multiplier:      decimal.RequireFromString(multiplier),
		Description:     string(t) + " boost",
		StartDate:       testNow.Add(-24 * time.Hour),
		EndDate:         testNow.Add(24 * time.Hour),
		IsActive:        true,
		AppliedEarnings: decimal.Zero,
		CreatedAt:       testNow.Add(-24 * time.Hour),
	})
}

func userIdentity(userID uuid.UUID) *auth.Identity {
	return &auth.Identity{KeyID: uuid.New(), Name: "creator-app", UserID: &userID, Role: auth.RoleUser}
}

func adminIdentity() *auth.Identity {
	adminID := uuid.New()
	return &auth.Identity{KeyID: uuid.New(), Name: "ops", UserID: &adminID, Role: auth.RoleAdmin}
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func makeChiRequest(method, path string, body []byte, params map[string]string, identity *auth.Identity) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	if identity != nil {
		ctx = middleware.WithIdentity(ctx, identity)
	}

	return req.WithContext(ctx), httptest.NewRecorder()
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "failed to parse response body")
	return env
}

func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	data, ok := parseEnvelope(t, w)["data"].(map[string]any)
	require.True(t, ok, "data should be an object: %s", w.Body.String())
	return data
}
