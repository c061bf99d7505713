package boost

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/profile"
)

// dateLayout is accepted for promotion dates alongside RFC 3339. A date-only
// end date covers that whole day.
const dateLayout = "2006-01-02"

// IsPromotion reports whether configurations of type t are offered to
// creators as claimable promotions.
func IsPromotion(t Type) bool {
	return t == TypeSeasonal || t == TypePromotional
}

// PromotionTerms are the promotion settings carried in a configuration's
// conditions. Unknown condition keys are ignored.
type PromotionTerms struct {
	Name            string
	StartsAt        *time.Time
	EndsAt          *time.Time
	Eligibility     []string
	BadgeTrialDays  int
	MaxParticipants int
}

type promotionConditions struct {
	Name            string   `json:"name"`
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	Eligibility     []string `json:"eligibility"`
	BadgeTrialDays  int      `json:"badgeTrialDays"`
	MaxParticipants int      `json:"maxParticipants"`
}

// ParsePromotionTerms reads the promotion keys of conditions. Missing dates
// leave the window open on that side; a missing eligibility list means tier 2.
func ParsePromotionTerms(conditions map[string]any) (PromotionTerms, error) {
	var c promotionConditions
	if len(conditions) > 0 {
		raw, err := json.Marshal(conditions)
		if err != nil {
			return PromotionTerms{}, invalid("conditions", "must be a JSON object")
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return PromotionTerms{}, invalid("conditions."+typeErr.Field, "must be a %s", typeErr.Type)
			}
			return PromotionTerms{}, invalid("conditions", "is malformed")
		}
	}

	terms := PromotionTerms{
		Name:            strings.TrimSpace(c.Name),
		Eligibility:     c.Eligibility,
		BadgeTrialDays:  c.BadgeTrialDays,
		MaxParticipants: c.MaxParticipants,
	}

	var err error
	if terms.StartsAt, err = parsePromotionDate("conditions.startDate", c.StartDate, false); err != nil {
		return PromotionTerms{}, err
	}
	if terms.EndsAt, err = parsePromotionDate("conditions.endDate", c.EndDate, true); err != nil {
		return PromotionTerms{}, err
	}
	if terms.StartsAt != nil && terms.EndsAt != nil && terms.EndsAt.Before(*terms.StartsAt) {
		return PromotionTerms{}, invalid("conditions.endDate", "must not be before startDate")
	}

	if len(terms.Eligibility) == 0 {
		terms.Eligibility = []string{profile.TierTwo}
	}
	for _, tier := range terms.Eligibility {
		if tier != profile.TierOne && tier != profile.TierTwo {
			return PromotionTerms{}, invalid("conditions.eligibility", "must only contain tier_1 or tier_2")
		}
	}
	if terms.BadgeTrialDays < 0 {
		return PromotionTerms{}, invalid("conditions.badgeTrialDays", "must not be negative")
	}
	if terms.MaxParticipants < 0 {
		return PromotionTerms{}, invalid("conditions.maxParticipants", "must not be negative")
	}

	return terms, nil
}

func parsePromotionDate(field, s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.UTC().Truncate(time.Microsecond)
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, invalid(field, "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

// OpenAt reports whether now falls inside the promotion window, both ends
// included.
func (t PromotionTerms) OpenAt(now time.Time) bool {
	if t.StartsAt != nil && now.Before(*t.StartsAt) {
		return false
	}
	if t.EndsAt != nil && now.After(*t.EndsAt) {
		return false
	}
	return true
}

// Admits reports whether a profile may claim the promotion.
func (t PromotionTerms) Admits(p *profile.Profile) bool {
	return p.IsCreator && slices.Contains(t.Eligibility, p.TierLevel)
}

// Promotion is a claimable configuration together with its terms.
type Promotion struct {
	Config              Config
	Terms               PromotionTerms
	IsActive            bool
	CurrentParticipants int
}

// Title is the promotion name, falling back to the configuration description.
func (p Promotion) Title() string {
	if p.Terms.Name != "" {
		return p.Terms.Name
	}
	return p.Config.Description
}

// Full reports whether the participant cap has been reached.
func (p Promotion) Full() bool {
	return p.Terms.MaxParticipants > 0 && p.CurrentParticipants >= p.Terms.MaxParticipants
}

// PromotionClaim is the result of a creator claiming a promotion.
type PromotionClaim struct {
	Boost          *Record
	PromotionID    uuid.UUID
	BadgeTrialDays int
}

// Opportunity is a boost a creator can claim now, or already holds.
type Opportunity struct {
	Type         Type
	ConfigID     *uuid.UUID
	Title        string
	Description  string
	Multiplier   decimal.Decimal
	DurationDays int
	Requirements []string
	Reward       string
	Claimed      bool
}

// rewardText describes the earnings increase of multiplier, e.g. "25%
// earnings increase + 14 day badge trial".
func rewardText(multiplier decimal.Decimal, badgeTrialDays int) string {
	pct := multiplier.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).Round(0)
	reward := pct.String() + "% earnings increase"
	if badgeTrialDays > 0 {
		reward += fmt.Sprintf(" + %d day badge trial", badgeTrialDays)
	}
	return reward
}

func tierRequirement(tiers []string) string {
	return strings.Join(tiers, " or ") + " creator"
}

// daysUntil counts whole days from now to end, rounding up.
func daysUntil(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}
