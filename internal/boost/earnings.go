package boost

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/profile"
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateEarnings applies rec to base. A nil rec leaves earnings unchanged.
// The boost delta is derived from the rounded total so the two never drift.
func CalculateEarnings(base decimal.Decimal, rec *Record) EarningsResult {
	if rec == nil {
		return EarningsResult{
			BaseEarnings:  base,
			Multiplier:    decimal.NewFromInt(1),
			BoostEarnings: decimal.Zero,
			TotalEarnings: base,
		}
	}

	total := Round2(base.Mul(rec.Multiplier))
	return EarningsResult{
		BaseEarnings:  base,
		Multiplier:    rec.Multiplier,
		BoostEarnings: Round2(total.Sub(base)),
		TotalEarnings: total,
		BoostInfo:     rec,
	}
}

// Summarize reduces a set of active records into Stats.
func Summarize(records []Record) Stats {
	stats := Stats{
		ByType:               make(map[Type]int),
		TotalAppliedEarnings: decimal.Zero,
		AverageMultiplier:    decimal.Zero,
	}

	sum := decimal.Zero
	for _, r := range records {
		stats.TotalActive++
		stats.ByType[r.Type]++
		stats.TotalAppliedEarnings = stats.TotalAppliedEarnings.Add(r.AppliedEarnings)
		sum = sum.Add(r.Multiplier)
	}

	if stats.TotalActive > 0 {
		stats.AverageMultiplier = Round2(sum.Div(decimal.NewFromInt(int64(stats.TotalActive))))
	}

	return stats
}

// EvaluateTier2Eligibility reports whether p is still inside the 30 day
// window that follows its tier 2 upgrade.
func EvaluateTier2Eligibility(p *profile.Profile, now time.Time) Eligibility {
	if p.TierLevel != profile.TierTwo {
		return Eligibility{Reason: "Must be Tier 2 creator to qualify for this boost"}
	}
	if p.TierUpgradedAt == nil {
		return Eligibility{Reason: "Tier 2 upgrade date not found"}
	}

	remaining := p.TierUpgradedAt.Add(TierUpgradeDuration).Sub(now)
	days := int(math.Ceil(remaining.Hours() / 24))
	if days <= 0 {
		return Eligibility{Reason: "Your 30-day boost period has ended"}
	}

	return Eligibility{
		Eligible:      true,
		DaysRemaining: days,
		Reason:        formatDaysRemaining(days),
	}
}

func formatDaysRemaining(days int) string {
	if days == 1 {
		return "You have 1 day remaining in your boost period"
	}
	return fmt.Sprintf("You have %d days remaining in your boost period", days)
}
