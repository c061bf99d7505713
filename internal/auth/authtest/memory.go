// Package authtest provides an in-memory auth.KeyRepository for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/creatorfund/boostd/internal/auth"
)

// KeyStore keeps API keys in memory.
type KeyStore struct {
	mu   sync.Mutex
	keys []auth.APIKey

	// Err, when set, is returned by Create, FindByPrefix and CountAll.
	Err error
}

// New returns an empty KeyStore.
func New() *KeyStore {
	return &KeyStore{}
}

func (m *KeyStore) Create(_ context.Context, k *auth.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	k.ID = uuid.New()
	k.CreatedAt = time.Now()
	m.keys = append(m.keys, *k)
	return nil
}

func (m *KeyStore) GetByID(_ context.Context, id uuid.UUID) (*auth.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.ID == id {
			return &k, nil
		}
	}
	return nil, auth.ErrKeyNotFound
}

func (m *KeyStore) FindByPrefix(_ context.Context, prefix string) ([]auth.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []auth.APIKey{}
	for _, k := range m.keys {
		if k.KeyPrefix == prefix && k.RevokedAt == nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *KeyStore) List(_ context.Context) ([]auth.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.APIKey, len(m.keys))
	copy(out, m.keys)
	return out, nil
}

func (m *KeyStore) Revoke(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.keys {
		if m.keys[i].ID != id {
			continue
		}
		if m.keys[i].RevokedAt != nil {
			return auth.ErrKeyRevoked
		}
		now := time.Now()
		m.keys[i].RevokedAt = &now
		return nil
	}
	return auth.ErrKeyNotFound
}

func (m *KeyStore) CountAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.keys), nil
}
