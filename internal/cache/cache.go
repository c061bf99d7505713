package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = cache.ErrCacheMiss

// Cache stores JSON-encoded values under string keys.
type Cache interface {
	Get(ctx context.Context, key string, target any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UseCache returns the cached value for key, or calls load and caches its
// result. A failed Set is ignored; the loaded value is still returned. When c
// is a *Guarded, a Delete of key issued while load runs discards the result.
func UseCache[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, bool, error) {
	g, guarded := c.(*Guarded)
	var gen uint64
	if guarded {
		gen = g.generation(key)
	}

	var v T
	err := c.Get(ctx, key, &v)
	if err == nil {
		return v, true, nil
	}
	if !errors.Is(err, ErrMiss) {
		return v, false, err
	}

	v, err = load()
	if err != nil {
		return v, false, err
	}

	if guarded {
		//nolint:errcheck
		g.setIfCurrent(ctx, key, gen, v, ttl)
	} else {
		//nolint:errcheck
		c.Set(ctx, key, v, ttl)
	}
	return v, false, nil
}

// Redis is a Cache backed by go-redis/cache. Values are JSON encoded so that
// types with custom JSON codecs (decimals, uuids) round-trip.
type Redis struct {
	instance *cache.Cache
}

// NewRedis creates a Redis cache on top of client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{cache.New(&cache.Options{
		Redis:     client,
		Marshal:   json.Marshal,
		Unmarshal: json.Unmarshal,
	})}
}

// NewLocal creates an in-process cache with no Redis tier. Entries live for
// at most ttl regardless of the per-item TTL.
func NewLocal(size int, ttl time.Duration) *Redis {
	return &Redis{cache.New(&cache.Options{
		LocalCache: cache.NewTinyLFU(size, ttl),
		Marshal:    json.Marshal,
		Unmarshal:  json.Unmarshal,
	})}
}

func (c *Redis) Get(ctx context.Context, key string, target any) error {
	return c.instance.Get(ctx, key, target)
}

func (c *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.instance.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	err := c.instance.Delete(ctx, key)
	if errors.Is(err, ErrMiss) {
		return nil
	}
	return err
}

// Noop never stores anything. Every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error { return ErrMiss }

func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }
