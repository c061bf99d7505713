package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/creatorfund/boostd/internal/auth"
	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/cache"
	"github.com/creatorfund/boostd/internal/config"
	"github.com/creatorfund/boostd/internal/database"
	"github.com/creatorfund/boostd/internal/lock"
	"github.com/creatorfund/boostd/internal/metrics"
	"github.com/creatorfund/boostd/internal/profile"
	"github.com/creatorfund/boostd/internal/seed"
)

// localCacheSize bounds the in-process cache used when Redis is not configured.
const localCacheSize = 10_000

// app bundles the long-lived dependencies shared by every command.
type app struct {
	cfg      *config.Config
	db       *database.DB
	redis    *redis.Client
	metrics  *metrics.Metrics
	profiles profile.Repository
	boosts   *boost.Service
	auth     *auth.Service
	limiter  *redis_rate.Limiter
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	setupLogger(cfg.LogLevel)

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		db:       db,
		metrics:  metrics.New(),
		profiles: profile.NewRepository(db.Pool()),
		auth:     auth.NewService(auth.NewRepository(db.Pool()), cfg.BcryptCost),
	}

	opts := []boost.Option{boost.WithMetrics(a.metrics)}
	if cfg.RedisEnabled() {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		a.redis = redis.NewClient(redisOpts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable at startup", "error", err)
		}
		a.limiter = redis_rate.NewLimiter(a.redis)
		opts = append(opts,
			boost.WithCache(cache.NewRedis(a.redis), cfg.ActiveBoostTTL),
			boost.WithLocker(lock.NewRedsync(a.redis), cfg.ApplyLockTTL),
		)
	} else {
		slog.Info("redis not configured; using in-process cache and locks")
		opts = append(opts,
			boost.WithCache(cache.NewLocal(localCacheSize, cfg.ActiveBoostTTL), cfg.ActiveBoostTTL),
			boost.WithLocker(lock.NewLocal(), cfg.ApplyLockTTL),
		)
	}

	a.boosts = boost.NewService(
		boost.NewPostgresRecordRepository(db.Pool()),
		boost.NewPostgresConfigRepository(db.Pool()),
		a.profiles,
		opts...,
	)

	return a, nil
}

func (a *app) migrate(ctx context.Context) error {
	applied, err := a.db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("migrations applied", "count", applied)
	return nil
}

// seed inserts the configurations from path, or the built-in defaults when
// path is empty, for boost types that have none yet.
func (a *app) seed(ctx context.Context, path string) error {
	entries, err := seed.Load(path)
	if err != nil {
		return err
	}
	inserted, err := a.boosts.SeedConfigs(ctx, entries)
	if err != nil {
		return fmt.Errorf("seeding boost configurations: %w", err)
	}
	slog.Info("boost configurations seeded", "inserted", inserted, "entries", len(entries))
	return nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("closing redis client", "error", err)
		}
	}
	a.db.Close()
}
