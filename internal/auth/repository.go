package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrKeyNotFound is returned when an API key record is not found.
var ErrKeyNotFound = errors.New("api key not found")

// ErrKeyRevoked is returned when attempting to operate on a revoked key.
var ErrKeyRevoked = errors.New("api key is revoked")

// ErrUnknownUser is returned when a key references a user without a profile.
var ErrUnknownUser = errors.New("api key user has no profile")

// KeyRepository provides operations on the api_keys table.
type KeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, id uuid.UUID) (*APIKey, error)
	FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error)
	List(ctx context.Context) ([]APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int, error)
}
