package sweeper_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorfund/boostd/internal/sweeper"
)

type mockExpirer struct {
	calls atomic.Int32
	n     int
	err   error
}

func (m *mockExpirer) ExpireBoosts(_ context.Context) (int, error) {
	m.calls.Add(1)
	return m.n, m.err
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := sweeper.New(&mockExpirer{}, "every now and then")
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("returns expired count", func(t *testing.T) {
		m := &mockExpirer{n: 4}
		s, err := sweeper.New(m, "@every 1m")
		require.NoError(t, err)

		assert.Equal(t, 4, s.RunOnce(ctx))
		assert.Equal(t, int32(1), m.calls.Load())
	})

	t.Run("error is logged, not returned", func(t *testing.T) {
		m := &mockExpirer{err: errors.New("db down")}
		s, err := sweeper.New(m, "@every 1m")
		require.NoError(t, err)

		assert.Equal(t, 0, s.RunOnce(ctx))
	})

	t.Run("cancelled context skips the sweep", func(t *testing.T) {
		m := &mockExpirer{n: 1}
		s, err := sweeper.New(m, "@every 1m")
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		assert.Equal(t, 0, s.RunOnce(cancelled))
		assert.Equal(t, int32(0), m.calls.Load())
	})
}

func TestStart_RunsOnScheduleAndStops(t *testing.T) {
	m := &mockExpirer{}
	s, err := sweeper.New(m, "@every 1s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
