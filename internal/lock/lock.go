package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when the lock is held by someone else.
var ErrNotObtained = errors.New("lock not obtained")

// UnlockFunc releases a lock obtained by TryLock.
type UnlockFunc func(ctx context.Context) error

// Locker hands out exclusive, expiring locks keyed by name.
type Locker interface {
	// TryLock obtains key without waiting. It returns ErrNotObtained if the
	// key is already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// Redsync is a Locker backed by redsync on a single Redis.
type Redsync struct {
	rs *redsync.Redsync
}

// NewRedsync creates a Redsync locker using client.
func NewRedsync(client redis.UniversalClient) *Redsync {
	pool := goredis.NewPool(client)
	return &Redsync{rs: redsync.New(pool)}
}

func (l *Redsync) TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(ttl), redsync.WithTries(1))
	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotObtained, key, err)
		}
		return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			return fmt.Errorf("releasing lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// Local is an in-process Locker for single instance deployments.
type Local struct {
	mu   sync.Mutex
	held map[string]*hold
	now  func() time.Time
}

type hold struct {
	expiry time.Time
}

// NewLocal creates an empty Local locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]*hold), now: time.Now}
}

func (l *Local) TryLock(_ context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if h, ok := l.held[key]; ok && now.Before(h.expiry) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	h := &hold{expiry: now.Add(ttl)}
	l.held[key] = h

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// An expired hold may have been taken over; leave the new one alone.
		if l.held[key] == h {
			delete(l.held, key)
		}
		return nil
	}, nil
}
