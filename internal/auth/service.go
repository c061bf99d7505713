package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidKey is returned when the provided API key does not match any active key.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// ErrInvalidRole is returned when issuing a key with an unknown role, or a
// user key without a user.
var ErrInvalidRole = errors.New("invalid api key role")

// keyPrefix starts every raw key.
const keyPrefix = "bst_"

// Service provides authentication operations.
type Service struct {
	keyRepo    KeyRepository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(keyRepo KeyRepository, bcryptCost int) *Service {
	return &Service{
		keyRepo:    keyRepo,
		bcryptCost: bcryptCost,
	}
}

// GenerateKey creates a new API key. Returns the raw key, its prefix (first 8 chars),
// and the bcrypt hash. The raw key is: 32 random bytes -> base64url -> prepend "bst_".
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = keyPrefix + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Authenticate resolves a raw API key to an Identity. It extracts the prefix,
// looks up candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}

	prefix := rawKey[:8]

	candidates, err := s.keyRepo.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding api keys by prefix: %w", err)
	}

	for _, k := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(rawKey)) == nil {
			return &Identity{
				KeyID:  k.ID,
				Name:   k.Name,
				UserID: k.UserID,
				Role:   k.Role,
			}, nil
		}
	}

	return nil, ErrInvalidKey
}

// CreateKey issues a new key. User keys must name the user they act as.
// Returns the stored record and the raw key, which is not recoverable later.
func (s *Service) CreateKey(ctx context.Context, name, role string, userID *uuid.UUID) (*APIKey, string, error) {
	switch role {
	case RoleAdmin:
	case RoleUser:
		if userID == nil {
			return nil, "", fmt.Errorf("%w: user keys require a userId", ErrInvalidRole)
		}
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return nil, "", err
	}

	k := &APIKey{
		Name:      name,
		UserID:    userID,
		Role:      role,
		KeyPrefix: prefix,
		KeyHash:   hash,
	}
	if err := s.keyRepo.Create(ctx, k); err != nil {
		return nil, "", fmt.Errorf("creating api key: %w", err)
	}

	return k, rawKey, nil
}

// ListKeys returns every key, including revoked ones.
func (s *Service) ListKeys(ctx context.Context) ([]APIKey, error) {
	return s.keyRepo.List(ctx)
}

// RevokeKey revokes a key so it no longer authenticates.
func (s *Service) RevokeKey(ctx context.Context, id uuid.UUID) error {
	return s.keyRepo.Revoke(ctx, id)
}

// BootstrapAdmin creates the initial admin key if the api_keys table is empty.
// Returns the raw API key (only displayed once). If keys already exist, returns empty string.
func (s *Service) BootstrapAdmin(ctx context.Context) (string, error) {
	count, err := s.keyRepo.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("counting api keys: %w", err)
	}

	if count > 0 {
		return "", nil
	}

	_, rawKey, err := s.CreateKey(ctx, "bootstrap-admin", RoleAdmin, nil)
	if err != nil {
		return "", fmt.Errorf("creating admin key: %w", err)
	}

	slog.Info("Admin API key created", "key", rawKey)

	return rawKey, nil
}
