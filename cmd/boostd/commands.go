package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	specpkg "github.com/creatorfund/boostd/api"
	"github.com/creatorfund/boostd/internal/api"
	"github.com/creatorfund/boostd/internal/api/handler"
	"github.com/creatorfund/boostd/internal/sweeper"
)

const shutdownTimeout = 15 * time.Second

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and the expiry sweeper",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.AutoMigrate {
				if err := a.migrate(ctx); err != nil {
					return err
				}
				if err := a.seed(ctx, a.cfg.SeedFile); err != nil {
					return err
				}
			}

			if _, err := a.auth.BootstrapAdmin(ctx); err != nil {
				return fmt.Errorf("bootstrapping admin key: %w", err)
			}

			sw, err := sweeper.New(a.boosts, a.cfg.SweepSchedule)
			if err != nil {
				return err
			}

			return serve(ctx, a, sw)
		},
	}
}

func serve(ctx context.Context, a *app, sw *sweeper.Sweeper) error {
	deps := api.RouterDeps{
		BoostService: a.boosts,
		AuthService:  a.auth,
		Profiles:     a.profiles,
		DBPinger:     handler.PingFunc(a.db.Ping),
		RateLimit:    a.cfg.RateLimitPerMinute,
		Metrics:      a.metrics,
		Version:      a.cfg.Version,
		OpenAPISpec:  specpkg.OpenAPISpec,
	}
	if a.redis != nil {
		deps.RedisPinger = handler.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
		deps.Limiter = a.limiter
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting boostd server", "port", a.cfg.Port, "version", a.cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sw.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}

func commandMigrate() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.migrate(c.Context)
		},
	}
}

func commandSeed() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "insert default boost configurations for boost types that have none",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "YAML seed file, overriding SEED_FILE",
			},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context)
			if err != nil {
				return err
			}
			defer a.Close()

			path := c.String("file")
			if path == "" {
				path = a.cfg.SeedFile
			}
			return a.seed(c.Context, path)
		},
	}
}

func commandSweep() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "deactivate expired boosts once and exit",
		Action: func(c *cli.Context) error {
			a, err := newApp(c.Context)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.boosts.ExpireBoosts(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "expired %d boosts\n", n)
			return nil
		},
	}
}
