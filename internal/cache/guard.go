package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const guardStripes = 64

// Guarded wraps a Cache so that a Delete wins over a concurrent UseCache
// fill whose value was loaded before the Delete. Keys hash onto a fixed set
// of stripes, each with a generation bumped by Delete; a fill only stores
// its value if the generation it read before loading is unchanged.
//
// The guard is per process. Fills from other processes sharing the same
// Redis are bounded only by their TTL.
type Guarded struct {
	Cache
	stripes [guardStripes]guardStripe
}

type guardStripe struct {
	mu  sync.Mutex
	gen uint64
}

// NewGuarded wraps c. Wrapping a *Guarded returns it unchanged.
func NewGuarded(c Cache) *Guarded {
	if g, ok := c.(*Guarded); ok {
		return g
	}
	return &Guarded{Cache: c}
}

func (g *Guarded) stripe(key string) *guardStripe {
	return &g.stripes[xxhash.Sum64String(key)%guardStripes]
}

func (g *Guarded) generation(key string) uint64 {
	s := g.stripe(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// setIfCurrent stores value unless key's stripe was invalidated after gen
// was read. The stripe stays locked across Set so a Delete cannot slip in
// between the check and the write.
func (g *Guarded) setIfCurrent(ctx context.Context, key string, gen uint64, value any, ttl time.Duration) error {
	s := g.stripe(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	return g.Cache.Set(ctx, key, value, ttl)
}

// Delete removes key and invalidates fills in flight on its stripe.
func (g *Guarded) Delete(ctx context.Context, key string) error {
	s := g.stripe(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return g.Cache.Delete(ctx, key)
}
