package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/creatorfund/boostd/internal/api/handler"
	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/validation"
	"github.com/creatorfund/boostd/internal/auth"
	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/metrics"
	"github.com/creatorfund/boostd/internal/profile"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	BoostService *boost.Service
	AuthService  *auth.Service
	Profiles     profile.Repository
	DBPinger     handler.Pinger
	RedisPinger  handler.Pinger // nil without Redis
	Limiter      middleware.Limiter
	RateLimit    int // requests per minute per key on creator routes; 0 disables
	Metrics      *metrics.Metrics
	Version      string
	OpenAPISpec  []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Method("GET", "/metrics", deps.Metrics.Handler())
	}

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.RedisPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec, deps.Version)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	v := validation.New()
	boostHandler := handler.NewBoostHandler(deps.BoostService, v)
	adminHandler := handler.NewBoostAdminHandler(deps.BoostService, v)
	profileHandler := handler.NewProfileHandler(deps.Profiles, v)
	keyHandler := handler.NewAPIKeyHandler(deps.AuthService, v)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Route("/creator-fund", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if deps.Limiter != nil && deps.RateLimit > 0 {
					r.Use(middleware.RateLimit(deps.Limiter, deps.RateLimit))
				}

				r.Post("/record-earnings/{boostId}", boostHandler.RecordEarnings)
				r.Get("/seasonal-promotions", boostHandler.ListPromotions)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireUser())
					r.Get("/my-boost", boostHandler.MyBoost)
					r.Get("/my-boosts", boostHandler.MyBoosts)
					r.Post("/calculate-earnings", boostHandler.CalculateEarnings)
					r.Get("/tier2-eligibility", boostHandler.Tier2Eligibility)
					r.Post("/claim-tier-upgrade", boostHandler.ClaimTierUpgrade)
					r.Post("/seasonal-promotions/{promotionId}/claim", boostHandler.ClaimPromotion)
					r.Get("/boost-opportunities", boostHandler.Opportunities)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Post("/apply-tier-upgrade/{userId}", adminHandler.ApplyTierUpgrade)
				r.Get("/configurations", adminHandler.ListConfigs)
				r.Post("/configurations", adminHandler.CreateConfig)
				r.Get("/configurations/{configId}", adminHandler.GetConfig)
				r.Patch("/configurations/{configId}", adminHandler.UpdateConfig)
				r.Post("/seasonal/apply/{configId}", adminHandler.ApplySeasonal)
				r.Get("/stats", adminHandler.Stats)
				r.Post("/deactivate/{boostId}", adminHandler.Deactivate)
				r.Put("/profiles/{userId}", profileHandler.Upsert)
			})
		})

		r.Route("/admin/api-keys", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Post("/", keyHandler.Create)
			r.Get("/", keyHandler.List)
			r.Delete("/{id}", keyHandler.Delete)
		})
	})

	return r
}
