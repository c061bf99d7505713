package sweeper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Expirer deactivates boosts whose validity window has ended.
type Expirer interface {
	ExpireBoosts(ctx context.Context) (int, error)
}

// Sweeper runs the expiry job on a cron schedule.
type Sweeper struct {
	expirer  Expirer
	spec     string
	schedule cron.Schedule
}

// New creates a Sweeper. spec is a standard cron expression or a descriptor
// such as "@every 1m".
func New(expirer Expirer, spec string) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing sweep schedule %q: %w", spec, err)
	}
	return &Sweeper{
		expirer:  expirer,
		spec:     spec,
		schedule: schedule,
	}, nil
}

// Start runs the sweep on schedule. It blocks until ctx is cancelled and
// waits for a running sweep to finish before returning.
func (s *Sweeper) Start(ctx context.Context) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.RunOnce(ctx)
	}))

	slog.Info("sweeper started", "schedule", s.spec)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("sweeper stopped")
}

// RunOnce performs a single sweep and returns how many boosts expired.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	n, err := s.expirer.ExpireBoosts(ctx)
	if err != nil {
		slog.Error("sweeper: failed to expire boosts", "error", err)
		return 0
	}
	if n > 0 {
		slog.Info("sweeper: boosts expired", "count", n)
	}
	return n
}
