package profile

import (
	"time"

	"github.com/google/uuid"
)

// Tier levels stored in profiles.tier_level.
const (
	TierOne = "tier_1"
	TierTwo = "tier_2"
)

// Profile represents a row in the profiles table. The table belongs to the
// wider platform; this service only reads the creator tier flags from it.
type Profile struct {
	UserID         uuid.UUID
	DisplayName    string
	TierLevel      string
	IsCreator      bool
	TierUpgradedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTier2Creator reports whether the profile matches the bulk boost
// eligibility rule: a creator on tier 2.
func (p *Profile) IsTier2Creator() bool {
	return p.IsCreator && p.TierLevel == TierTwo
}
