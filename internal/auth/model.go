package auth

import (
	"time"

	"github.com/google/uuid"
)

// Roles an API key can carry.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// APIKey represents a row in the api_keys table.
type APIKey struct {
	ID        uuid.UUID
	Name      string
	UserID    *uuid.UUID // profile the key acts as; nil for service admin keys
	Role      string
	KeyPrefix string
	KeyHash   string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	KeyID  uuid.UUID
	Name   string
	UserID *uuid.UUID
	Role   string
}

// IsAdmin reports whether the identity may use admin routes.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
