package boost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/cache"
	"github.com/creatorfund/boostd/internal/lock"
	"github.com/creatorfund/boostd/internal/metrics"
	"github.com/creatorfund/boostd/internal/profile"
)

const (
	// DefaultListLimit is used by ListUserBoosts when no limit is given.
	DefaultListLimit = 50
	// MaxListLimit caps ListUserBoosts.
	MaxListLimit = 100
)

var maxMultiplier = decimal.RequireFromString("99.99")

// Service computes boosted earnings and manages boost records and templates.
type Service struct {
	records  RecordRepository
	configs  ConfigRepository
	profiles profile.Repository

	cache    cache.Cache
	cacheTTL time.Duration
	locker   lock.Locker
	lockTTL  time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables read-through caching of active boosts.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithLocker sets the locker that serializes bulk applies of a configuration.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = l
		s.lockTTL = ttl
	}
}

// WithMetrics records domain counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a boost Service. Without options it uses no cache and
// an in-process locker.
func NewService(records RecordRepository, configs ConfigRepository, profiles profile.Repository, opts ...Option) *Service {
	s := &Service{
		records:  records,
		configs:  configs,
		profiles: profiles,
		cache:    cache.Noop{},
		cacheTTL: time.Minute,
		locker:   lock.NewLocal(),
		lockTTL:  2 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Invalidations must not be undone by a read that loaded before them.
	s.cache = cache.NewGuarded(s.cache)
	return s
}

// clock returns the current time at the precision Postgres stores.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// activeEntry wraps the cached lookup so that "no active boost" is cacheable.
type activeEntry struct {
	Record *Record `json:"record"`
}

func activeKey(userID uuid.UUID) string {
	return "boost:active:" + userID.String()
}

func applyLockKey(configID uuid.UUID) string {
	return "boost:apply:" + configID.String()
}

func (s *Service) invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	for _, id := range userIDs {
		if err := s.cache.Delete(ctx, activeKey(id)); err != nil {
			slog.Warn("failed to invalidate active boost cache", "error", err, "user_id", id)
		}
	}
}

// GetActiveBoost returns the user's newest boost active now, or nil.
func (s *Service) GetActiveBoost(ctx context.Context, userID uuid.UUID) (*Record, error) {
	now := s.clock()

	entry, hit, err := cache.UseCache(ctx, s.cache, activeKey(userID), s.cacheTTL, func() (activeEntry, error) {
		rec, err := s.records.GetActive(ctx, userID, now)
		if errors.Is(err, ErrBoostNotFound) {
			return activeEntry{}, nil
		}
		if err != nil {
			return activeEntry{}, fmt.Errorf("getting active boost: %w", err)
		}
		return activeEntry{Record: rec}, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CacheLookup(hit)

	// A cached record may have expired since it was stored.
	if entry.Record == nil || !entry.Record.IsActiveAt(now) {
		return nil, nil
	}
	return entry.Record, nil
}

// CalculateEarningsWithBoost applies the user's active boost to base.
func (s *Service) CalculateEarningsWithBoost(ctx context.Context, userID uuid.UUID, base decimal.Decimal) (EarningsResult, error) {
	if base.IsNegative() {
		return EarningsResult{}, invalid("amount", "must not be negative")
	}

	rec, err := s.GetActiveBoost(ctx, userID)
	if err != nil {
		return EarningsResult{}, err
	}

	s.metrics.EarningsCalculation(rec != nil)
	return CalculateEarnings(base, rec), nil
}

// ApplyTierUpgradeBoost grants the fixed 1.5x, 30 day boost to userID,
// superseding any boost the user currently holds.
func (s *Service) ApplyTierUpgradeBoost(ctx context.Context, userID uuid.UUID) (*Record, error) {
	now := s.clock()
	rec := &Record{
		UserID:      userID,
		Type:        TypeTierUpgrade,
		Multiplier:  TierUpgradeMultiplier,
		Description: TierUpgradeDescription,
		StartDate:   now,
		EndDate:     now.Add(TierUpgradeDuration),
		IsActive:    true,
	}

	if err := s.records.Activate(ctx, rec); err != nil {
		return nil, fmt.Errorf("applying tier upgrade boost: %w", err)
	}
	s.invalidate(ctx, userID)
	s.metrics.BoostApplied(string(TypeTierUpgrade), 1)

	slog.Info("tier upgrade boost applied", "user_id", userID, "boost_id", rec.ID)
	return rec, nil
}

// ClaimTierUpgradeBoost lets a tier 2 creator grant themselves the tier
// upgrade boost, unless they already hold one.
func (s *Service) ClaimTierUpgradeBoost(ctx context.Context, userID uuid.UUID) (*Record, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if !p.IsTier2Creator() {
		return nil, ErrNotEligible
	}

	active, err := s.records.GetActive(ctx, userID, s.clock())
	switch {
	case errors.Is(err, ErrBoostNotFound):
	case err != nil:
		return nil, fmt.Errorf("getting active boost: %w", err)
	case active.Type == TypeTierUpgrade:
		return nil, ErrAlreadyBoosted
	}

	return s.ApplyTierUpgradeBoost(ctx, userID)
}

func validateConfigValues(t *Type, multiplier *decimal.Decimal, durationDays *int) error {
	if t != nil {
		if _, ok := ParseType(string(*t)); !ok {
			return invalid("boostType", "must be one of tier_upgrade, seasonal, promotional, referral")
		}
	}
	if multiplier != nil {
		m := *multiplier
		if !m.IsPositive() {
			return invalid("multiplier", "must be greater than 0")
		}
		if m.GreaterThan(maxMultiplier) {
			return invalid("multiplier", "must be at most %s", maxMultiplier)
		}
		if !m.Equal(m.Round(2)) {
			return invalid("multiplier", "must have at most two decimal places")
		}
	}
	if durationDays != nil && *durationDays <= 0 {
		return invalid("durationDays", "must be greater than 0")
	}
	return nil
}

// validatePromotionTerms checks the conditions of promotion types. Other
// types keep free-form conditions.
func validatePromotionTerms(t Type, conditions map[string]any) error {
	if !IsPromotion(t) {
		return nil
	}
	_, err := ParsePromotionTerms(conditions)
	return err
}

// CreateSeasonalBoost stores a new, enabled boost template.
func (s *Service) CreateSeasonalBoost(ctx context.Context, nc NewConfig) (*Config, error) {
	if err := validateConfigValues(&nc.Type, &nc.Multiplier, &nc.DurationDays); err != nil {
		return nil, err
	}
	if err := validatePromotionTerms(nc.Type, nc.Conditions); err != nil {
		return nil, err
	}

	c := &Config{
		Type:         nc.Type,
		Multiplier:   nc.Multiplier,
		DurationDays: nc.DurationDays,
		Description:  nc.Description,
		Enabled:      true,
		Conditions:   nc.Conditions,
		UpdatedBy:    nc.CreatedBy,
	}
	if err := s.configs.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating boost configuration: %w", err)
	}

	return c, nil
}

// ApplySeasonalBoostToAll grants the template to every tier 2 creator and
// returns how many boosts were created. Only one apply of a given template
// runs at a time.
func (s *Service) ApplySeasonalBoostToAll(ctx context.Context, configID uuid.UUID) (int, error) {
	cfg, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		return 0, fmt.Errorf("getting boost configuration: %w", err)
	}
	if !cfg.Enabled {
		return 0, ErrConfigDisabled
	}

	unlock, err := s.locker.TryLock(ctx, applyLockKey(configID), s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return 0, ErrApplyInProgress
		}
		return 0, fmt.Errorf("locking boost configuration: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("failed to release apply lock", "error", err, "config_id", configID)
		}
	}()

	now := s.clock()
	tmpl := Record{
		Type:        cfg.Type,
		Multiplier:  cfg.Multiplier,
		Description: cfg.Description,
		StartDate:   now,
		EndDate:     now.Add(cfg.Duration()),
		IsActive:    true,
		ConfigID:    &cfg.ID,
	}

	users, err := s.records.ApplyToEligible(ctx, tmpl)
	if err != nil {
		return 0, fmt.Errorf("applying boost configuration: %w", err)
	}
	s.invalidate(ctx, users...)
	s.metrics.BoostApplied(string(cfg.Type), len(users))

	slog.Info("boost configuration applied", "config_id", configID, "boost_type", cfg.Type, "count", len(users))
	return len(users), nil
}

// UpdateBoostConfig writes only the fields set in fields.
func (s *Service) UpdateBoostConfig(ctx context.Context, configID uuid.UUID, fields UpdateConfigFields) (*Config, error) {
	if err := validateConfigValues(fields.Type, fields.Multiplier, fields.DurationDays); err != nil {
		return nil, err
	}
	if fields.Conditions != nil {
		t := fields.Type
		if t == nil {
			current, err := s.configs.GetByID(ctx, configID)
			if err != nil {
				return nil, fmt.Errorf("getting boost configuration: %w", err)
			}
			t = &current.Type
		}
		if err := validatePromotionTerms(*t, fields.Conditions); err != nil {
			return nil, err
		}
	}

	c, err := s.configs.Update(ctx, configID, fields)
	if err != nil {
		return nil, fmt.Errorf("updating boost configuration: %w", err)
	}
	return c, nil
}

// GetBoostConfig returns a single template.
func (s *Service) GetBoostConfig(ctx context.Context, configID uuid.UUID) (*Config, error) {
	c, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("getting boost configuration: %w", err)
	}
	return c, nil
}

// GetAllBoostConfigs returns every template, oldest first.
func (s *Service) GetAllBoostConfigs(ctx context.Context) ([]Config, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing boost configurations: %w", err)
	}
	return configs, nil
}

// GetBoostStats summarizes the boosts active now.
func (s *Service) GetBoostStats(ctx context.Context) (Stats, error) {
	active, err := s.records.ListActive(ctx, s.clock())
	if err != nil {
		return Stats{}, fmt.Errorf("listing active boosts: %w", err)
	}
	return Summarize(active), nil
}

// DeactivateBoost turns a boost off. Deactivating an inactive boost succeeds.
func (s *Service) DeactivateBoost(ctx context.Context, boostID uuid.UUID) (*Record, error) {
	rec, err := s.records.Deactivate(ctx, boostID)
	if err != nil {
		return nil, fmt.Errorf("deactivating boost: %w", err)
	}
	s.invalidate(ctx, rec.UserID)
	s.metrics.BoostDeactivated("manual", 1)

	slog.Info("boost deactivated", "boost_id", boostID, "user_id", rec.UserID)
	return rec, nil
}

// RecordBoostEarnings overwrites the earnings attributed to a boost. When
// owner is non-nil the boost must belong to that user.
func (s *Service) RecordBoostEarnings(ctx context.Context, boostID uuid.UUID, earnings decimal.Decimal, owner *uuid.UUID) (*Record, error) {
	if earnings.IsNegative() {
		return nil, invalid("earnings", "must not be negative")
	}

	if owner != nil {
		rec, err := s.records.GetByID(ctx, boostID)
		if err != nil {
			return nil, fmt.Errorf("getting boost: %w", err)
		}
		if rec.UserID != *owner {
			return nil, ErrForbidden
		}
	}

	rec, err := s.records.SetAppliedEarnings(ctx, boostID, earnings)
	if err != nil {
		return nil, fmt.Errorf("recording boost earnings: %w", err)
	}
	s.invalidate(ctx, rec.UserID)
	return rec, nil
}

// ListLimit normalizes a requested page size. A non-positive limit means
// DefaultListLimit; larger limits are capped at MaxListLimit.
func ListLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ListUserBoosts returns the user's boosts, newest first, at most
// ListLimit(limit) of them.
func (s *Service) ListUserBoosts(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error) {
	records, err := s.records.ListByUser(ctx, userID, ListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing user boosts: %w", err)
	}
	return records, nil
}

// CheckTier2Eligibility reports whether the user is still inside the period
// that follows their tier 2 upgrade.
func (s *Service) CheckTier2Eligibility(ctx context.Context, userID uuid.UUID) (Eligibility, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("getting profile: %w", err)
	}
	return EvaluateTier2Eligibility(p, s.clock()), nil
}

// ExpireBoosts deactivates every active boost whose window has ended and
// returns how many were deactivated.
func (s *Service) ExpireBoosts(ctx context.Context) (int, error) {
	start := time.Now()
	expired, err := s.records.DeactivateExpired(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("expiring boosts: %w", err)
	}
	s.metrics.ObserveSweep(time.Since(start))

	seen := make(map[uuid.UUID]struct{}, len(expired))
	users := make([]uuid.UUID, 0, len(expired))
	for _, r := range expired {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		users = append(users, r.UserID)
	}
	s.invalidate(ctx, users...)
	s.metrics.BoostDeactivated("expired", len(expired))

	return len(expired), nil
}

// SeedConfigs inserts each template whose boost type has none yet and
// returns how many were inserted.
func (s *Service) SeedConfigs(ctx context.Context, entries []Config) (int, error) {
	existing, err := s.configs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing boost configurations: %w", err)
	}

	present := make(map[Type]bool, len(existing))
	for _, c := range existing {
		present[c.Type] = true
	}

	inserted := 0
	for i := range entries {
		c := entries[i]
		if present[c.Type] {
			continue
		}
		if err := validateConfigValues(&c.Type, &c.Multiplier, &c.DurationDays); err != nil {
			return inserted, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if err := validatePromotionTerms(c.Type, c.Conditions); err != nil {
			return inserted, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if err := s.configs.Create(ctx, &c); err != nil {
			return inserted, fmt.Errorf("seeding %s configuration: %w", c.Type, err)
		}
		present[c.Type] = true
		inserted++
	}

	return inserted, nil
}

// promotion loads configID as a promotion. Configurations of other types
// are reported as ErrPromotionNotFound.
func (s *Service) promotion(ctx context.Context, configID uuid.UUID) (*Config, PromotionTerms, error) {
	cfg, err := s.configs.GetByID(ctx, configID)
	if errors.Is(err, ErrConfigNotFound) {
		return nil, PromotionTerms{}, ErrPromotionNotFound
	}
	if err != nil {
		return nil, PromotionTerms{}, fmt.Errorf("getting boost configuration: %w", err)
	}
	if !IsPromotion(cfg.Type) {
		return nil, PromotionTerms{}, ErrPromotionNotFound
	}

	terms, err := ParsePromotionTerms(cfg.Conditions)
	if err != nil {
		return nil, PromotionTerms{}, fmt.Errorf("reading terms of promotion %s: %v", configID, err)
	}
	return cfg, terms, nil
}

// ListPromotions returns the enabled seasonal and promotional
// configurations with their terms and participant counts.
func (s *Service) ListPromotions(ctx context.Context) ([]Promotion, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing boost configurations: %w", err)
	}

	now := s.clock()
	promotions := make([]Promotion, 0, len(configs))
	ids := make([]uuid.UUID, 0, len(configs))
	for _, c := range configs {
		if !c.Enabled || !IsPromotion(c.Type) {
			continue
		}
		terms, err := ParsePromotionTerms(c.Conditions)
		if err != nil {
			slog.Warn("skipping promotion with unreadable terms", "error", err, "config_id", c.ID)
			continue
		}
		promotions = append(promotions, Promotion{Config: c, Terms: terms, IsActive: terms.OpenAt(now)})
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return promotions, nil
	}

	counts, err := s.records.CountParticipants(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("counting promotion participants: %w", err)
	}
	for i := range promotions {
		promotions[i].CurrentParticipants = counts[promotions[i].Config.ID]
	}
	return promotions, nil
}

// ClaimPromotion grants the promotion's boost to userID, superseding any
// boost the user currently holds. The boost ends with the promotion window
// when that comes first.
func (s *Service) ClaimPromotion(ctx context.Context, userID, configID uuid.UUID) (*PromotionClaim, error) {
	cfg, terms, err := s.promotion(ctx, configID)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, ErrConfigDisabled
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if !terms.Admits(p) {
		return nil, &TierError{Required: terms.Eligibility}
	}

	now := s.clock()
	if !terms.OpenAt(now) {
		return nil, ErrPromotionInactive
	}

	active, err := s.records.GetActive(ctx, userID, now)
	switch {
	case errors.Is(err, ErrBoostNotFound):
	case err != nil:
		return nil, fmt.Errorf("getting active boost: %w", err)
	case active.ConfigID != nil && *active.ConfigID == configID:
		return nil, ErrPromotionClaimed
	}

	end := now.Add(cfg.Duration())
	if terms.EndsAt != nil && terms.EndsAt.Before(end) {
		end = *terms.EndsAt
	}
	rec := &Record{
		UserID:      userID,
		Type:        cfg.Type,
		Multiplier:  cfg.Multiplier,
		Description: cfg.Description,
		StartDate:   now,
		EndDate:     end,
		IsActive:    true,
		ConfigID:    &cfg.ID,
	}
	if err := s.records.ClaimFromConfig(ctx, rec, terms.MaxParticipants); err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, fmt.Errorf("claiming promotion: %w", err)
	}
	s.invalidate(ctx, userID)
	s.metrics.BoostApplied(string(cfg.Type), 1)

	slog.Info("promotion claimed", "user_id", userID, "config_id", configID, "boost_id", rec.ID)
	return &PromotionClaim{Boost: rec, PromotionID: cfg.ID, BadgeTrialDays: terms.BadgeTrialDays}, nil
}

// BoostOpportunities lists the boosts userID can claim now, plus the ones
// they already hold.
func (s *Service) BoostOpportunities(ctx context.Context, userID uuid.UUID) ([]Opportunity, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	now := s.clock()
	active, err := s.records.GetActive(ctx, userID, now)
	if errors.Is(err, ErrBoostNotFound) {
		active, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active boost: %w", err)
	}

	var opportunities []Opportunity
	if EvaluateTier2Eligibility(p, now).Eligible {
		opportunities = append(opportunities, Opportunity{
			Type:         TypeTierUpgrade,
			Title:        "New Tier 2 Creator Boost",
			Description:  TierUpgradeDescription,
			Multiplier:   TierUpgradeMultiplier,
			DurationDays: int(TierUpgradeDuration / (24 * time.Hour)),
			Requirements: []string{"Tier 2 account"},
			Reward:       rewardText(TierUpgradeMultiplier, 0),
			Claimed:      active != nil && active.Type == TypeTierUpgrade,
		})
	}

	promotions, err := s.ListPromotions(ctx)
	if err != nil {
		return nil, err
	}
	for _, pr := range promotions {
		claimed := active != nil && active.ConfigID != nil && *active.ConfigID == pr.Config.ID
		if !pr.IsActive || !pr.Terms.Admits(p) || (pr.Full() && !claimed) {
			continue
		}

		days := pr.Config.DurationDays
		if pr.Terms.EndsAt != nil {
			days = min(days, daysUntil(now, *pr.Terms.EndsAt))
		}
		id := pr.Config.ID
		opportunities = append(opportunities, Opportunity{
			Type:         pr.Config.Type,
			ConfigID:     &id,
			Title:        pr.Title(),
			Description:  pr.Config.Description,
			Multiplier:   pr.Config.Multiplier,
			DurationDays: days,
			Requirements: []string{tierRequirement(pr.Terms.Eligibility)},
			Reward:       rewardText(pr.Config.Multiplier, pr.Terms.BadgeTrialDays),
			Claimed:      claimed,
		})
	}
	return opportunities, nil
}
