package boost

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies where a boost came from.
type Type string

const (
	TypeTierUpgrade Type = "tier_upgrade"
	TypeSeasonal    Type = "seasonal"
	TypePromotional Type = "promotional"
	TypeReferral    Type = "referral"
)

// Types lists every valid boost type in display order.
var Types = []Type{TypeTierUpgrade, TypeSeasonal, TypePromotional, TypeReferral}

// ParseType converts s into a Type, reporting whether it is a known one.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Tier upgrade boosts are fixed: 1.5x for 30 days.
var (
	TierUpgradeMultiplier = decimal.RequireFromString("1.5")
	TierUpgradeDuration   = 30 * 24 * time.Hour
)

// TierUpgradeDescription is stored on every tier upgrade boost.
const TierUpgradeDescription = "New Tier 2 Creator Boost - 1.5x earnings for 30 days"

// Record represents a row in the creator_boosts table.
type Record struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Type            Type
	Multiplier      decimal.Decimal
	Description     string
	StartDate       time.Time
	EndDate         time.Time
	IsActive        bool
	AppliedEarnings decimal.Decimal
	ConfigID        *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActiveAt reports whether the record is in effect at t. The validity
// window is closed on both ends.
func (r *Record) IsActiveAt(t time.Time) bool {
	return r.IsActive && !t.Before(r.StartDate) && !t.After(r.EndDate)
}

// Config represents a row in the boost_configurations table: a reusable
// template an operator applies to many users at once.
type Config struct {
	ID           uuid.UUID
	Type         Type
	Multiplier   decimal.Decimal
	DurationDays int
	Description  string
	Enabled      bool
	Conditions   map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UpdatedBy    *uuid.UUID
}

// Duration converts DurationDays into a time.Duration.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationDays) * 24 * time.Hour
}

// NewConfig holds the fields accepted when creating a template.
type NewConfig struct {
	Type         Type
	Multiplier   decimal.Decimal
	DurationDays int
	Description  string
	Conditions   map[string]any
	CreatedBy    *uuid.UUID
}

// UpdateConfigFields holds optional fields for a partial config update.
// Nil fields are not updated.
type UpdateConfigFields struct {
	Type         *Type
	Multiplier   *decimal.Decimal
	DurationDays *int
	Description  *string
	Enabled      *bool
	Conditions   map[string]any
	UpdatedBy    *uuid.UUID
}

// IsEmpty reports whether no field is set.
func (f UpdateConfigFields) IsEmpty() bool {
	return f.Type == nil && f.Multiplier == nil && f.DurationDays == nil &&
		f.Description == nil && f.Enabled == nil && f.Conditions == nil
}

// EarningsResult is the outcome of applying a user's active boost to base earnings.
type EarningsResult struct {
	BaseEarnings  decimal.Decimal
	Multiplier    decimal.Decimal
	BoostEarnings decimal.Decimal
	TotalEarnings decimal.Decimal
	BoostInfo     *Record
}

// Stats summarizes the currently active boosts.
type Stats struct {
	TotalActive          int
	ByType               map[Type]int
	TotalAppliedEarnings decimal.Decimal
	AverageMultiplier    decimal.Decimal
}

// Eligibility describes whether a user is inside the tier 2 boost period.
type Eligibility struct {
	Eligible      bool
	DaysRemaining int
	Reason        string
}
