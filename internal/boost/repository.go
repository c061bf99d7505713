package boost

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordRepository provides operations on the creator_boosts table.
//
// Every insert path supersedes the user's previously active records in the
// same transaction, so a user holds at most one active boost.
type RecordRepository interface {
	// GetActive returns the newest record for userID that is active at t,
	// or ErrBoostNotFound.
	GetActive(ctx context.Context, userID uuid.UUID, at time.Time) (*Record, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error)
	ListActive(ctx context.Context, at time.Time) ([]Record, error)
	// Activate deactivates the user's active records and inserts rec.
	// Returns profile.ErrProfileNotFound when the user has no profile.
	Activate(ctx context.Context, rec *Record) error
	// ApplyToEligible inserts a copy of tmpl for every tier 2 creator,
	// superseding their active records, and returns the boosted user ids.
	ApplyToEligible(ctx context.Context, tmpl Record) ([]uuid.UUID, error)
	// ClaimFromConfig is Activate for a record taken from rec.ConfigID. When
	// maxParticipants is positive and that many users already hold a record
	// from the configuration, it returns ErrPromotionFull and inserts nothing.
	ClaimFromConfig(ctx context.Context, rec *Record, maxParticipants int) error
	// CountParticipants returns, per configuration id, how many distinct users
	// hold a record created from it. Ids without records are omitted.
	CountParticipants(ctx context.Context, configIDs []uuid.UUID) (map[uuid.UUID]int, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Record, error)
	SetAppliedEarnings(ctx context.Context, id uuid.UUID, earnings decimal.Decimal) (*Record, error)
	// DeactivateExpired deactivates active records whose window ended before
	// t and returns them.
	DeactivateExpired(ctx context.Context, at time.Time) ([]Record, error)
}

// ConfigRepository provides CRUD operations on the boost_configurations table.
type ConfigRepository interface {
	Create(ctx context.Context, c *Config) error
	GetByID(ctx context.Context, id uuid.UUID) (*Config, error)
	List(ctx context.Context) ([]Config, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateConfigFields) (*Config, error)
}
