package handler

import (
	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/profile"
)

type boostResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"userId"`
	BoostType       string  `json:"boostType"`
	Multiplier      float64 `json:"multiplier"`
	Description     string  `json:"description"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	IsActive        bool    `json:"isActive"`
	AppliedEarnings float64 `json:"appliedEarnings"`
	ConfigID        *string `json:"configId"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toBoostResponse(r *boost.Record) *boostResponse {
	if r == nil {
		return nil
	}
	return &boostResponse{
		ID:              r.ID.String(),
		UserID:          r.UserID.String(),
		BoostType:       string(r.Type),
		Multiplier:      r.Multiplier.InexactFloat64(),
		Description:     r.Description,
		StartDate:       formatTime(r.StartDate),
		EndDate:         formatTime(r.EndDate),
		IsActive:        r.IsActive,
		AppliedEarnings: r.AppliedEarnings.InexactFloat64(),
		ConfigID:        uuidPtrString(r.ConfigID),
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
}

func toBoostResponses(records []boost.Record) []boostResponse {
	items := make([]boostResponse, 0, len(records))
	for i := range records {
		items = append(items, *toBoostResponse(&records[i]))
	}
	return items
}

type earningsResponse struct {
	BaseEarnings  float64        `json:"baseEarnings"`
	Multiplier    float64        `json:"multiplier"`
	BoostEarnings float64        `json:"boostEarnings"`
	TotalEarnings float64        `json:"totalEarnings"`
	BoostInfo     *boostResponse `json:"boostInfo"`
}

func toEarningsResponse(e boost.EarningsResult) earningsResponse {
	return earningsResponse{
		BaseEarnings:  e.BaseEarnings.InexactFloat64(),
		Multiplier:    e.Multiplier.InexactFloat64(),
		BoostEarnings: e.BoostEarnings.InexactFloat64(),
		TotalEarnings: e.TotalEarnings.InexactFloat64(),
		BoostInfo:     toBoostResponse(e.BoostInfo),
	}
}

type eligibilityResponse struct {
	Eligible      bool   `json:"eligible"`
	DaysRemaining int    `json:"daysRemaining"`
	Reason        string `json:"reason"`
}

type promotionResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	BoostType           string   `json:"boostType"`
	Multiplier          float64  `json:"multiplier"`
	DurationDays        int      `json:"durationDays"`
	StartDate           *string  `json:"startDate"`
	EndDate             *string  `json:"endDate"`
	Eligibility         []string `json:"eligibility"`
	BadgeTrialDays      int      `json:"badgeTrialDays"`
	MaxParticipants     *int     `json:"maxParticipants"`
	CurrentParticipants int      `json:"currentParticipants"`
	IsActive            bool     `json:"isActive"`
}

func toPromotionResponses(promotions []boost.Promotion) []promotionResponse {
	items := make([]promotionResponse, 0, len(promotions))
	for _, p := range promotions {
		var maxParticipants *int
		if p.Terms.MaxParticipants > 0 {
			n := p.Terms.MaxParticipants
			maxParticipants = &n
		}
		items = append(items, promotionResponse{
			ID:                  p.Config.ID.String(),
			Name:                p.Title(),
			Description:         p.Config.Description,
			BoostType:           string(p.Config.Type),
			Multiplier:          p.Config.Multiplier.InexactFloat64(),
			DurationDays:        p.Config.DurationDays,
			StartDate:           formatTimePtr(p.Terms.StartsAt),
			EndDate:             formatTimePtr(p.Terms.EndsAt),
			Eligibility:         p.Terms.Eligibility,
			BadgeTrialDays:      p.Terms.BadgeTrialDays,
			MaxParticipants:     maxParticipants,
			CurrentParticipants: p.CurrentParticipants,
			IsActive:            p.IsActive,
		})
	}
	return items
}

type claimPromotionResponse struct {
	Boost          *boostResponse `json:"boost"`
	PromotionID    string         `json:"promotionId"`
	BadgeTrialDays int            `json:"badgeTrialDays"`
}

type opportunityResponse struct {
	BoostType    string   `json:"boostType"`
	ConfigID     *string  `json:"configId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Multiplier   float64  `json:"multiplier"`
	DurationDays int      `json:"durationDays"`
	Requirements []string `json:"requirements"`
	Reward       string   `json:"reward"`
	Claimed      bool     `json:"claimed"`
}

func toOpportunityResponses(opportunities []boost.Opportunity) []opportunityResponse {
	items := make([]opportunityResponse, 0, len(opportunities))
	for _, o := range opportunities {
		items = append(items, opportunityResponse{
			BoostType:    string(o.Type),
			ConfigID:     uuidPtrString(o.ConfigID),
			Title:        o.Title,
			Description:  o.Description,
			Multiplier:   o.Multiplier.InexactFloat64(),
			DurationDays: o.DurationDays,
			Requirements: o.Requirements,
			Reward:       o.Reward,
			Claimed:      o.Claimed,
		})
	}
	return items
}

type configResponse struct {
	ID           string         `json:"id"`
	BoostType    string         `json:"boostType"`
	Multiplier   float64        `json:"multiplier"`
	DurationDays int            `json:"durationDays"`
	Description  string         `json:"description"`
	Enabled      bool           `json:"enabled"`
	Conditions   map[string]any `json:"conditions"`
	CreatedAt    string         `json:"createdAt"`
	UpdatedAt    string         `json:"updatedAt"`
	UpdatedBy    *string        `json:"updatedBy"`
}

func toConfigResponse(c *boost.Config) configResponse {
	conditions := c.Conditions
	if conditions == nil {
		conditions = map[string]any{}
	}
	return configResponse{
		ID:           c.ID.String(),
		BoostType:    string(c.Type),
		Multiplier:   c.Multiplier.InexactFloat64(),
		DurationDays: c.DurationDays,
		Description:  c.Description,
		Enabled:      c.Enabled,
		Conditions:   conditions,
		CreatedAt:    formatTime(c.CreatedAt),
		UpdatedAt:    formatTime(c.UpdatedAt),
		UpdatedBy:    uuidPtrString(c.UpdatedBy),
	}
}

type statsResponse struct {
	TotalActive          int            `json:"totalActive"`
	ByType               map[string]int `json:"byType"`
	TotalAppliedEarnings float64        `json:"totalAppliedEarnings"`
	AverageMultiplier    float64        `json:"averageMultiplier"`
}

func toStatsResponse(s boost.Stats) statsResponse {
	byType := make(map[string]int, len(s.ByType))
	for t, n := range s.ByType {
		byType[string(t)] = n
	}
	return statsResponse{
		TotalActive:          s.TotalActive,
		ByType:               byType,
		TotalAppliedEarnings: s.TotalAppliedEarnings.InexactFloat64(),
		AverageMultiplier:    s.AverageMultiplier.InexactFloat64(),
	}
}

type profileResponse struct {
	UserID         string  `json:"userId"`
	DisplayName    string  `json:"displayName"`
	TierLevel      string  `json:"tierLevel"`
	IsCreator      bool    `json:"isCreator"`
	TierUpgradedAt *string `json:"tierUpgradedAt"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func toProfileResponse(p *profile.Profile) profileResponse {
	return profileResponse{
		UserID:         p.UserID.String(),
		DisplayName:    p.DisplayName,
		TierLevel:      p.TierLevel,
		IsCreator:      p.IsCreator,
		TierUpgradedAt: formatTimePtr(p.TierUpgradedAt),
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	}
}
