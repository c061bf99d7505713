// Package boosttest provides an in-memory implementation of the boost and
// profile repositories for tests.
package boosttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/boost"
	"github.com/creatorfund/boostd/internal/profile"
)

// Store keeps records, configurations and profiles in memory. Records are
// kept in insertion order, which stands in for created_at ordering.
type Store struct {
	mu       sync.Mutex
	records  []boost.Record
	configs  []boost.Config
	profiles map[uuid.UUID]profile.Profile

	// Err, when set, is returned by every repository call.
	Err error
}

// New returns an empty Store.
func New() *Store {
	return &Store{profiles: make(map[uuid.UUID]profile.Profile)}
}

// Records returns the store as a boost.RecordRepository.
func (s *Store) Records() boost.RecordRepository { return recordRepo{s} }

// Configs returns the store as a boost.ConfigRepository.
func (s *Store) Configs() boost.ConfigRepository { return configRepo{s} }

// Profiles returns the store as a profile.Repository.
func (s *Store) Profiles() profile.Repository { return profileRepo{s} }

// AddProfile inserts or replaces a profile.
func (s *Store) AddProfile(p profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// AddRecord inserts r as-is, bypassing the one-active-boost rule, and
// returns it with an id assigned. Tests use it to seed legacy rows.
func (s *Store) AddRecord(r boost.Record) boost.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = r.CreatedAt
	s.records = append(s.records, r)
	return r
}

// AllRecords returns a copy of every stored record in insertion order.
func (s *Store) AllRecords() []boost.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]boost.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) insertLocked(r boost.Record) boost.Record {
	r.ID = uuid.New()
	r.AppliedEarnings = decimal.Zero
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	s.records = append(s.records, r)
	return r
}

func (s *Store) supersedeLocked(userID uuid.UUID) {
	for i := range s.records {
		if s.records[i].UserID == userID && s.records[i].IsActive {
			s.records[i].IsActive = false
			s.records[i].UpdatedAt = time.Now()
		}
	}
}

func (s *Store) hasConfigLocked(id uuid.UUID) bool {
	for _, c := range s.configs {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) participantsLocked(configID uuid.UUID) map[uuid.UUID]struct{} {
	users := make(map[uuid.UUID]struct{})
	for _, rec := range s.records {
		if rec.ConfigID != nil && *rec.ConfigID == configID {
			users[rec.UserID] = struct{}{}
		}
	}
	return users
}

func (s *Store) findRecordLocked(id uuid.UUID) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

type recordRepo struct{ s *Store }

func (r recordRepo) GetActive(_ context.Context, userID uuid.UUID, at time.Time) (*boost.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for i := len(r.s.records) - 1; i >= 0; i-- {
		rec := r.s.records[i]
		if rec.UserID == userID && rec.IsActiveAt(at) {
			return &rec, nil
		}
	}
	return nil, boost.ErrBoostNotFound
}

func (r recordRepo) GetByID(_ context.Context, id uuid.UUID) (*boost.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	i := r.s.findRecordLocked(id)
	if i < 0 {
		return nil, boost.ErrBoostNotFound
	}
	rec := r.s.records[i]
	return &rec, nil
}

func (r recordRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]boost.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []boost.Record{}
	for i := len(r.s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.records[i].UserID == userID {
			out = append(out, r.s.records[i])
		}
	}
	return out, nil
}

func (r recordRepo) ListActive(_ context.Context, at time.Time) ([]boost.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []boost.Record{}
	for _, rec := range r.s.records {
		if rec.IsActiveAt(at) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r recordRepo) Activate(_ context.Context, rec *boost.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.profiles[rec.UserID]; !ok {
		return profile.ErrProfileNotFound
	}
	r.s.supersedeLocked(rec.UserID)
	*rec = r.s.insertLocked(*rec)
	return nil
}

func (r recordRepo) ApplyToEligible(_ context.Context, tmpl boost.Record) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}

	eligible := []uuid.UUID{}
	for id, p := range r.s.profiles {
		if p.IsTier2Creator() {
			eligible = append(eligible, id)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].String() < eligible[j].String() })

	for _, id := range eligible {
		r.s.supersedeLocked(id)
		rec := tmpl
		rec.UserID = id
		rec.IsActive = true
		r.s.insertLocked(rec)
	}
	return eligible, nil
}

func (r recordRepo) ClaimFromConfig(_ context.Context, rec *boost.Record, maxParticipants int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if rec.ConfigID == nil || !r.s.hasConfigLocked(*rec.ConfigID) {
		return boost.ErrConfigNotFound
	}
	if _, ok := r.s.profiles[rec.UserID]; !ok {
		return profile.ErrProfileNotFound
	}
	if maxParticipants > 0 {
		users := r.s.participantsLocked(*rec.ConfigID)
		delete(users, rec.UserID)
		if len(users) >= maxParticipants {
			return boost.ErrPromotionFull
		}
	}
	r.s.supersedeLocked(rec.UserID)
	*rec = r.s.insertLocked(*rec)
	return nil
}

func (r recordRepo) CountParticipants(_ context.Context, configIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	counts := make(map[uuid.UUID]int, len(configIDs))
	for _, id := range configIDs {
		if n := len(r.s.participantsLocked(id)); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (r recordRepo) Deactivate(_ context.Context, id uuid.UUID) (*boost.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	i := r.s.findRecordLocked(id)
	if i < 0 {
		return nil, boost.ErrBoostNotFound
	}
	if r.s.records[i].IsActive {
		r.s.records[i].IsActive = false
		r.s.records[i].UpdatedAt = time.Now()
	}
	rec := r.s.records[i]
	return &rec, nil
}

func (r recordRepo) SetAppliedEarnings(_ context.Context, id uuid.UUID, earnings decimal.Decimal) (*boost.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	i := r.s.findRecordLocked(id)
	if i < 0 {
		return nil, boost.ErrBoostNotFound
	}
	r.s.records[i].AppliedEarnings = earnings
	r.s.records[i].UpdatedAt = time.Now()
	rec := r.s.records[i]
	return &rec, nil
}

func (r recordRepo) DeactivateExpired(_ context.Context, at time.Time) ([]boost.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []boost.Record{}
	for i := range r.s.records {
		if r.s.records[i].IsActive && r.s.records[i].EndDate.Before(at) {
			r.s.records[i].IsActive = false
			r.s.records[i].UpdatedAt = time.Now()
			out = append(out, r.s.records[i])
		}
	}
	return out, nil
}

type configRepo struct{ s *Store }

func (r configRepo) Create(_ context.Context, c *boost.Config) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	c.ID = uuid.New()
	if c.Conditions == nil {
		c.Conditions = map[string]any{}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.configs = append(r.s.configs, *c)
	return nil
}

func (r configRepo) GetByID(_ context.Context, id uuid.UUID) (*boost.Config, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, c := range r.s.configs {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, boost.ErrConfigNotFound
}

func (r configRepo) List(_ context.Context) ([]boost.Config, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]boost.Config, len(r.s.configs))
	copy(out, r.s.configs)
	return out, nil
}

func (r configRepo) Update(_ context.Context, id uuid.UUID, f boost.UpdateConfigFields) (*boost.Config, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for i := range r.s.configs {
		c := &r.s.configs[i]
		if c.ID != id {
			continue
		}
		if f.IsEmpty() {
			out := *c
			return &out, nil
		}
		if f.Type != nil {
			c.Type = *f.Type
		}
		if f.Multiplier != nil {
			c.Multiplier = *f.Multiplier
		}
		if f.DurationDays != nil {
			c.DurationDays = *f.DurationDays
		}
		if f.Description != nil {
			c.Description = *f.Description
		}
		if f.Enabled != nil {
			c.Enabled = *f.Enabled
		}
		if f.Conditions != nil {
			c.Conditions = f.Conditions
		}
		if f.UpdatedBy != nil {
			c.UpdatedBy = f.UpdatedBy
		}
		c.UpdatedAt = time.Now()
		out := *c
		return &out, nil
	}
	return nil, boost.ErrConfigNotFound
}

type profileRepo struct{ s *Store }

func (r profileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &p, nil
}

func (r profileRepo) Upsert(_ context.Context, p *profile.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	now := time.Now()
	if existing, ok := r.s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.s.profiles[p.UserID] = *p
	return nil
}
