package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements KeyRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new KeyRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) KeyRepository {
	return &PostgresRepository{pool: pool}
}

const keyColumns = `id, name, user_id, role, key_prefix, key_hash, created_at, revoked_at`

func scanKey(row pgx.Row) (*APIKey, error) {
	var k APIKey
	err := row.Scan(
		&k.ID, &k.Name, &k.UserID, &k.Role,
		&k.KeyPrefix, &k.KeyHash,
		&k.CreatedAt, &k.RevokedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// Create inserts a new API key record.
func (r *PostgresRepository) Create(ctx context.Context, k *APIKey) error {
	query := `
		INSERT INTO api_keys (name, user_id, role, key_prefix, key_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		k.Name,
		k.UserID,
		k.Role,
		k.KeyPrefix,
		k.KeyHash,
	).Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrUnknownUser
		}
		return fmt.Errorf("inserting api key: %w", err)
	}

	return nil
}

// GetByID retrieves a single API key by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE id = $1`, keyColumns)

	k, err := scanKey(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("querying api key: %w", err)
	}

	return k, nil
}

// FindByPrefix returns active (non-revoked) keys matching the given prefix.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM api_keys
		WHERE key_prefix = $1 AND revoked_at IS NULL`, keyColumns)

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding api keys by prefix: %w", err)
	}
	return collectKeys(rows)
}

// List retrieves all API keys ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys ORDER BY created_at ASC`, keyColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	return collectKeys(rows)
}

func collectKeys(rows pgx.Rows) ([]APIKey, error) {
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		keys = append(keys, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api key rows: %w", err)
	}

	if keys == nil {
		keys = []APIKey{}
	}

	return keys, nil
}

// Revoke sets revoked_at on a key. Returns ErrKeyNotFound if the key
// does not exist, and ErrKeyRevoked if already revoked.
func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE api_keys
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish not-found from already-revoked
		var exists bool
		err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM api_keys WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking api key existence: %w", err)
		}
		if !exists {
			return ErrKeyNotFound
		}
		return ErrKeyRevoked
	}

	return nil
}

// CountAll returns the total number of keys in the table (including revoked).
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM api_keys").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting api keys: %w", err)
	}
	return count, nil
}
