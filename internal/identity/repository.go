package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository persists local accounts.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	FindByEmail(ctx context.Context, email string) (Account, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4)`, acct.ID, strings.ToLower(acct.Email), acct.PasswordHash, acct.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyRegistered
	}
	return err
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, strings.ToLower(email))
	var acct Account
	if err := row.Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	acct.CreatedAt = acct.CreatedAt.UTC()
	return acct, nil
}
