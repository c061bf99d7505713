package boost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/creatorfund/boostd/internal/profile"
)

// PostgresRecordRepository implements RecordRepository using pgxpool.
type PostgresRecordRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRecordRepository creates a new RecordRepository backed by the given connection pool.
func NewPostgresRecordRepository(pool *pgxpool.Pool) RecordRepository {
	return &PostgresRecordRepository{pool: pool}
}

// recordColumns is the ordered list of columns scanned by scanRecord.
const recordColumns = `id, user_id, boost_type, multiplier, description, start_date, end_date,
	is_active, applied_earnings, config_id, created_at, updated_at`

// activeAt matches records in effect at the given placeholder. The window
// is closed on both ends.
func activeAt(placeholder string) string {
	return fmt.Sprintf("is_active AND start_date <= %[1]s AND end_date >= %[1]s", placeholder)
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var boostType string
	err := row.Scan(
		&r.ID, &r.UserID, &boostType, &r.Multiplier, &r.Description,
		&r.StartDate, &r.EndDate, &r.IsActive, &r.AppliedEarnings,
		&r.ConfigID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBoostNotFound
		}
		return nil, fmt.Errorf("scanning boost row: %w", err)
	}
	r.Type = Type(boostType)
	return &r, nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating boost rows: %w", err)
	}

	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// GetActive returns the most recently created active record for the user.
func (r *PostgresRecordRepository) GetActive(ctx context.Context, userID uuid.UUID, at time.Time) (*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM creator_boosts
		WHERE user_id = $1 AND %s
		ORDER BY created_at DESC
		LIMIT 1`, recordColumns, activeAt("$2"))
	return scanRecord(r.pool.QueryRow(ctx, query, userID, at))
}

// GetByID retrieves a single record by its UUID.
func (r *PostgresRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM creator_boosts WHERE id = $1`, recordColumns)
	return scanRecord(r.pool.QueryRow(ctx, query, id))
}

// ListByUser returns a user's records, newest first.
func (r *PostgresRecordRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM creator_boosts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, recordColumns)

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing user boosts: %w", err)
	}
	return collectRecords(rows)
}

// ListActive returns every record active at the given time.
func (r *PostgresRecordRepository) ListActive(ctx context.Context, at time.Time) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM creator_boosts
		WHERE %s
		ORDER BY created_at ASC`, recordColumns, activeAt("$1"))

	rows, err := r.pool.Query(ctx, query, at)
	if err != nil {
		return nil, fmt.Errorf("listing active boosts: %w", err)
	}
	return collectRecords(rows)
}

// Activate locks the owner's profile row, supersedes their active records
// and inserts rec, all in one transaction.
func (r *PostgresRecordRepository) Activate(ctx context.Context, rec *Record) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return activateTx(ctx, tx, rec)
	})
}

// ClaimFromConfig locks the configuration row so concurrent claims are
// counted one at a time, checks the cap, then activates rec.
func (r *PostgresRecordRepository) ClaimFromConfig(ctx context.Context, rec *Record, maxParticipants int) error {
	if rec.ConfigID == nil {
		return fmt.Errorf("claiming boost: record has no configuration")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM boost_configurations WHERE id = $1 FOR UPDATE`, *rec.ConfigID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrConfigNotFound
			}
			return fmt.Errorf("locking boost configuration: %w", err)
		}

		if maxParticipants > 0 {
			var participants int
			err = tx.QueryRow(ctx, `
				SELECT COUNT(DISTINCT user_id) FROM creator_boosts
				WHERE config_id = $1 AND user_id <> $2`, id, rec.UserID,
			).Scan(&participants)
			if err != nil {
				return fmt.Errorf("counting participants: %w", err)
			}
			if participants >= maxParticipants {
				return ErrPromotionFull
			}
		}

		return activateTx(ctx, tx, rec)
	})
}

func activateTx(ctx context.Context, tx pgx.Tx, rec *Record) error {
	var owner uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT user_id FROM profiles WHERE user_id = $1 FOR UPDATE`, rec.UserID,
	).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.ErrProfileNotFound
		}
		return fmt.Errorf("locking profile: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE creator_boosts
		SET is_active = false, updated_at = NOW()
		WHERE user_id = $1 AND is_active`, rec.UserID)
	if err != nil {
		return fmt.Errorf("superseding active boosts: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO creator_boosts
			(user_id, boost_type, multiplier, description, start_date, end_date, is_active, config_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, applied_earnings, created_at, updated_at`,
		rec.UserID, string(rec.Type), rec.Multiplier, rec.Description,
		rec.StartDate, rec.EndDate, rec.IsActive, rec.ConfigID,
	).Scan(&rec.ID, &rec.AppliedEarnings, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting boost: %w", err)
	}

	return nil
}

// CountParticipants counts distinct users per configuration in one query.
func (r *PostgresRecordRepository) CountParticipants(ctx context.Context, configIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(configIDs))
	if len(configIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT config_id, COUNT(DISTINCT user_id)
		FROM creator_boosts
		WHERE config_id = ANY($1)
		GROUP BY config_id`, configIDs)
	if err != nil {
		return nil, fmt.Errorf("counting participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning participant count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating participant counts: %w", err)
	}
	return counts, nil
}

// ApplyToEligible materializes tmpl for every tier 2 creator in a single
// transaction. The eligible profile rows stay locked until commit, so a
// concurrent promotion or second apply waits instead of interleaving.
func (r *PostgresRecordRepository) ApplyToEligible(ctx context.Context, tmpl Record) ([]uuid.UUID, error) {
	var applied []uuid.UUID

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT user_id FROM profiles
			WHERE tier_level = $1 AND is_creator
			ORDER BY user_id
			FOR UPDATE`, profile.TierTwo)
		if err != nil {
			return fmt.Errorf("locking eligible profiles: %w", err)
		}
		eligible, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("collecting eligible profiles: %w", err)
		}
		if len(eligible) == 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE creator_boosts
			SET is_active = false, updated_at = NOW()
			WHERE is_active AND user_id = ANY($1)`, eligible)
		if err != nil {
			return fmt.Errorf("superseding active boosts: %w", err)
		}

		rows, err = tx.Query(ctx, `
			INSERT INTO creator_boosts
				(user_id, boost_type, multiplier, description, start_date, end_date, is_active, config_id)
			SELECT u, $2, $3, $4, $5, $6, true, $7
			FROM unnest($1::uuid[]) AS u
			RETURNING user_id`,
			eligible, string(tmpl.Type), tmpl.Multiplier, tmpl.Description,
			tmpl.StartDate, tmpl.EndDate, tmpl.ConfigID,
		)
		if err != nil {
			return fmt.Errorf("inserting boosts: %w", err)
		}
		applied, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("collecting inserted boosts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if applied == nil {
		applied = []uuid.UUID{}
	}
	return applied, nil
}

// Deactivate clears is_active on a record. Deactivating an inactive record
// is a no-op that still returns the record.
func (r *PostgresRecordRepository) Deactivate(ctx context.Context, id uuid.UUID) (*Record, error) {
	query := fmt.Sprintf(`
		UPDATE creator_boosts
		SET is_active = false,
		    updated_at = CASE WHEN is_active THEN NOW() ELSE updated_at END
		WHERE id = $1
		RETURNING %s`, recordColumns)
	return scanRecord(r.pool.QueryRow(ctx, query, id))
}

// SetAppliedEarnings overwrites applied_earnings on a record.
func (r *PostgresRecordRepository) SetAppliedEarnings(ctx context.Context, id uuid.UUID, earnings decimal.Decimal) (*Record, error) {
	query := fmt.Sprintf(`
		UPDATE creator_boosts
		SET applied_earnings = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, recordColumns)
	return scanRecord(r.pool.QueryRow(ctx, query, id, earnings))
}

// DeactivateExpired deactivates every active record whose end_date is before at.
func (r *PostgresRecordRepository) DeactivateExpired(ctx context.Context, at time.Time) ([]Record, error) {
	query := fmt.Sprintf(`
		UPDATE creator_boosts
		SET is_active = false, updated_at = NOW()
		WHERE is_active AND end_date < $1
		RETURNING %s`, recordColumns)

	rows, err := r.pool.Query(ctx, query, at)
	if err != nil {
		return nil, fmt.Errorf("expiring boosts: %w", err)
	}
	return collectRecords(rows)
}
