package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJournal persists entries in the journal_entries table.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal constructs a Postgres-backed journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Record inserts e and returns it with the database timestamp.
func (j *PostgresJournal) Record(ctx context.Context, e Entry) (Entry, error) {
	if err := validate(e); err != nil {
		return Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	const query = `
        INSERT INTO journal_entries (id, user_id, kind, amount, balance_after, reference)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`
	if err := j.db.QueryRow(ctx, query, e.ID, e.UserID, e.Kind, e.Amount, e.BalanceAfter, e.Reference).Scan(&e.CreatedAt); err != nil {
		return Entry{}, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

// List returns the newest entries for userID first.
func (j *PostgresJournal) List(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	const query = `
        SELECT id, user_id, kind, amount, balance_after, reference, created_at
        FROM journal_entries
        WHERE user_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2`
	rows, err := j.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.Reference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
