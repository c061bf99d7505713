package boost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfigRepository implements ConfigRepository using pgxpool.
type PostgresConfigRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresConfigRepository creates a new ConfigRepository backed by the given connection pool.
func NewPostgresConfigRepository(pool *pgxpool.Pool) ConfigRepository {
	return &PostgresConfigRepository{pool: pool}
}

// configColumns is the ordered list of columns scanned by scanConfig.
const configColumns = `id, boost_type, multiplier, duration_days, description, enabled,
	conditions, created_at, updated_at, updated_by`

func scanConfig(row pgx.Row) (*Config, error) {
	var c Config
	var boostType string
	err := row.Scan(
		&c.ID, &boostType, &c.Multiplier, &c.DurationDays, &c.Description,
		&c.Enabled, &c.Conditions, &c.CreatedAt, &c.UpdatedAt, &c.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("scanning boost configuration row: %w", err)
	}
	c.Type = Type(boostType)
	if c.Conditions == nil {
		c.Conditions = map[string]any{}
	}
	return &c, nil
}

// Create inserts a new configuration.
func (r *PostgresConfigRepository) Create(ctx context.Context, c *Config) error {
	conditions := c.Conditions
	if conditions == nil {
		conditions = map[string]any{}
	}

	query := fmt.Sprintf(`
		INSERT INTO boost_configurations
			(boost_type, multiplier, duration_days, description, enabled, conditions, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, configColumns)

	created, err := scanConfig(r.pool.QueryRow(ctx, query,
		string(c.Type), c.Multiplier, c.DurationDays, c.Description,
		c.Enabled, conditions, c.UpdatedBy,
	))
	if err != nil {
		return fmt.Errorf("inserting boost configuration: %w", err)
	}

	*c = *created
	return nil
}

// GetByID retrieves a single configuration by its UUID.
func (r *PostgresConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*Config, error) {
	query := fmt.Sprintf(`SELECT %s FROM boost_configurations WHERE id = $1`, configColumns)
	return scanConfig(r.pool.QueryRow(ctx, query, id))
}

// List retrieves all configurations ordered by creation time.
func (r *PostgresConfigRepository) List(ctx context.Context) ([]Config, error) {
	query := fmt.Sprintf(`SELECT %s FROM boost_configurations ORDER BY created_at ASC`, configColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing boost configurations: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating boost configuration rows: %w", err)
	}

	if configs == nil {
		configs = []Config{}
	}

	return configs, nil
}

// Update modifies only the non-nil fields of a configuration. Returns the updated configuration.
func (r *PostgresConfigRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateConfigFields) (*Config, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Type != nil {
		setClauses = append(setClauses, fmt.Sprintf("boost_type = $%d", argIdx))
		args = append(args, string(*fields.Type))
		argIdx++
	}
	if fields.Multiplier != nil {
		setClauses = append(setClauses, fmt.Sprintf("multiplier = $%d", argIdx))
		args = append(args, *fields.Multiplier)
		argIdx++
	}
	if fields.DurationDays != nil {
		setClauses = append(setClauses, fmt.Sprintf("duration_days = $%d", argIdx))
		args = append(args, *fields.DurationDays)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}
	if fields.Enabled != nil {
		setClauses = append(setClauses, fmt.Sprintf("enabled = $%d", argIdx))
		args = append(args, *fields.Enabled)
		argIdx++
	}
	if fields.Conditions != nil {
		setClauses = append(setClauses, fmt.Sprintf("conditions = $%d", argIdx))
		args = append(args, fields.Conditions)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	if fields.UpdatedBy != nil {
		setClauses = append(setClauses, fmt.Sprintf("updated_by = $%d", argIdx))
		args = append(args, *fields.UpdatedBy)
		argIdx++
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE boost_configurations
		SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, configColumns)

	return scanConfig(r.pool.QueryRow(ctx, query, args...))
}
