package boost_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/profile"
)

func TestParsePromotionTerms_Defaults(t *testing.T) {
	terms, err := boost.ParsePromotionTerms(nil)
	require.NoError(t, err)

	assert.Empty(t, terms.Name)
	assert.Nil(t, terms.StartsAt)
	assert.Nil(t, terms.EndsAt)
	assert.Equal(t, []string{profile.TierTwo}, terms.Eligibility)
	assert.Zero(t, terms.BadgeTrialDays)
	assert.Zero(t, terms.MaxParticipants)
	assert.True(t, terms.OpenAt(time.Now()))
}

func TestParsePromotionTerms_Full(t *testing.T) {
	terms, err := boost.ParsePromotionTerms(map[string]any{
		"name":            "  Summer Creator Surge ",
		"startDate":       "2026-06-01",
		"endDate":         "2026-08-31",
		"eligibility":     []any{"tier_1", "tier_2"},
		"badgeTrialDays":  14,
		"maxParticipants": float64(1000),
		"season":          "summer",
	})
	require.NoError(t, err)

	assert.Equal(t, "Summer Creator Surge", terms.Name)
	require.NotNil(t, terms.StartsAt)
	require.NotNil(t, terms.EndsAt)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), *terms.StartsAt)
	assert.Equal(t, time.Date(2026, 8, 31, 23, 59, 59, 999999000, time.UTC), *terms.EndsAt)
	assert.Equal(t, []string{"tier_1", "tier_2"}, terms.Eligibility)
	assert.Equal(t, 14, terms.BadgeTrialDays)
	assert.Equal(t, 1000, terms.MaxParticipants)
}

func TestParsePromotionTerms_RFC3339Dates(t *testing.T) {
	terms, err := boost.ParsePromotionTerms(map[string]any{
		"startDate": "2026-06-01T12:00:00+02:00",
		"endDate":   "2026-06-02T10:00:00.5Z",
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC), *terms.StartsAt)
	assert.Equal(t, time.Date(2026, 6, 2, 10, 0, 0, 500000000, time.UTC), *terms.EndsAt)
}

func TestParsePromotionTerms_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		conditions map[string]any
		field      string
	}{
		{"bad start date", map[string]any{"startDate": "June 1st"}, "conditions.startDate"},
		{"bad end date", map[string]any{"endDate": "2026-13-01"}, "conditions.endDate"},
		{"end before start", map[string]any{"startDate": "2026-06-02", "endDate": "2026-06-01"}, "conditions.endDate"},
		{"unknown tier", map[string]any{"eligibility": []any{"tier_3"}}, "conditions.eligibility"},
		{"negative badge trial", map[string]any{"badgeTrialDays": -1}, "conditions.badgeTrialDays"},
		{"negative cap", map[string]any{"maxParticipants": -5}, "conditions.maxParticipants"},
		{"cap is not a number", map[string]any{"maxParticipants": "ten"}, "conditions.maxParticipants"},
		{"fractional cap", map[string]any{"maxParticipants": 2.5}, "conditions.maxParticipants"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := boost.ParsePromotionTerms(tt.conditions)

			var ve *boost.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestPromotionTerms_OpenAtIncludesBothEnds(t *testing.T) {
	terms, err := boost.ParsePromotionTerms(map[string]any{
		"startDate": "2026-06-01",
		"endDate":   "2026-06-30",
	})
	require.NoError(t, err)

	assert.False(t, terms.OpenAt(time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, terms.OpenAt(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, terms.OpenAt(time.Date(2026, 6, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, terms.OpenAt(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPromotionTerms_Admits(t *testing.T) {
	terms, err := boost.ParsePromotionTerms(map[string]any{"eligibility": []any{"tier_1"}})
	require.NoError(t, err)

	assert.True(t, terms.Admits(&profile.Profile{TierLevel: profile.TierOne, IsCreator: true}))
	assert.False(t, terms.Admits(&profile.Profile{TierLevel: profile.TierTwo, IsCreator: true}))
	assert.False(t, terms.Admits(&profile.Profile{TierLevel: profile.TierOne, IsCreator: false}))
}

func TestPromotion_TitleAndFull(t *testing.T) {
	p := boost.Promotion{
		Config: boost.Config{Description: "Seasonal promotion"},
		Terms:  boost.PromotionTerms{MaxParticipants: 2},
	}
	assert.Equal(t, "Seasonal promotion", p.Title())
	assert.False(t, p.Full())

	p.Terms.Name = "Spring Spotlight"
	p.CurrentParticipants = 2
	assert.Equal(t, "Spring Spotlight", p.Title())
	assert.True(t, p.Full())

	p.Terms.MaxParticipants = 0
	assert.False(t, p.Full(), "zero cap means unlimited")
}

func TestTierError_MatchesNotEligible(t *testing.T) {
	err := error(&boost.TierError{Required: []string{"tier_1", "tier_2"}})

	assert.ErrorIs(t, err, boost.ErrNotEligible)
	assert.Equal(t, "promotion requires a tier_1 or tier_2 creator", err.Error())
}
