package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the profile store. Debit and Credit are atomic per call: a
// debit never leaves the balance negative even under concurrent requests.
type Repository interface {
	Ensure(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Profile, error)
	Debit(ctx context.Context, id string, amount int64) (int64, error)
	Credit(ctx context.Context, id string, amount int64) (int64, error)
}

// PostgresRepository stores profiles in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Ensure creates an empty profile row if none exists.
func (r *PostgresRepository) Ensure(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO profiles (id, balance) VALUES ($1, 0)
        ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Get fetches a profile. A NULL balance reads as zero.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Profile, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(ROUND(balance * 100), 0)::bigint
        FROM profiles WHERE id = $1`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrRecordNotFound
		}
		return Profile{}, unavailable(err)
	}
	return Profile{ID: id, Balance: balance}, nil
}

// Debit subtracts amount only while the balance covers it.
func (r *PostgresRepository) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `UPDATE profiles
        SET balance = balance - $2::numeric / 100, updated_at = NOW()
        WHERE id = $1 AND balance >= $2::numeric / 100
        RETURNING ROUND(balance * 100)::bigint`, id, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, unavailable(err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, unavailable(err)
	}
	if !exists {
		return 0, ErrRecordNotFound
	}
	return 0, ErrInsufficientFunds
}

// Credit adds amount to the balance.
func (r *PostgresRepository) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `UPDATE profiles
        SET balance = COALESCE(balance, 0) + $2::numeric / 100, updated_at = NOW()
        WHERE id = $1
        RETURNING ROUND(balance * 100)::bigint`, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRecordNotFound
		}
		return 0, unavailable(err)
	}
	return balance, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}
