package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/congo-pay/datatopup/internal/supabase"
)

const (
	profilesTable = "profiles"
	casAttempts   = 3
)

type profileRow struct {
	ID      string   `json:"id"`
	Balance *float64 `json:"balance"`
}

// SupabaseRepository stores profiles in a Supabase table through PostgREST.
//
// PostgREST has no "balance = balance - x" update, so mutations are
// compare-and-swap PATCHes filtered on the balance that was read.
type SupabaseRepository struct {
	client *supabase.Client
}

// NewSupabaseRepository builds a repository backed by the Supabase profiles table.
func NewSupabaseRepository(client *supabase.Client) *SupabaseRepository {
	return &SupabaseRepository{client: client}
}

// Ensure inserts an empty profile, leaving an existing row untouched.
func (r *SupabaseRepository) Ensure(ctx context.Context, id string) error {
	row := map[string]any{"id": id, "balance": FormatMajor(0)}
	if _, err := r.client.From(profilesTable).Insert([]map[string]any{row}, true).Execute(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Get fetches a profile. A NULL balance reads as zero.
func (r *SupabaseRepository) Get(ctx context.Context, id string) (Profile, error) {
	row, err := r.fetch(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{ID: id, Balance: rowBalance(row)}, nil
}

// Debit subtracts amount only while the balance covers it.
func (r *SupabaseRepository) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	return r.swap(ctx, id, func(current int64) (int64, error) {
		if current < amount {
			return 0, ErrInsufficientFunds
		}
		return current - amount, nil
	})
}

// Credit adds amount to the balance.
func (r *SupabaseRepository) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	return r.swap(ctx, id, func(current int64) (int64, error) {
		return current + amount, nil
	})
}

func (r *SupabaseRepository) swap(ctx context.Context, id string, next func(int64) (int64, error)) (int64, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		row, err := r.fetch(ctx, id)
		if err != nil {
			return 0, err
		}
		current := rowBalance(row)
		updated, err := next(current)
		if err != nil {
			return 0, err
		}

		q := r.client.From(profilesTable).
			Update(map[string]any{"balance": FormatMajor(updated)}).
			Eq("id", id)
		if row.Balance == nil {
			q = q.Is("balance", "null")
		} else {
			// Match the stored value exactly; rows written by float arithmetic
			// may carry more than two decimals.
			q = q.Eq("balance", strconv.FormatFloat(*row.Balance, 'f', -1, 64))
		}

		var rows []profileRow
		if err := q.ExecuteInto(ctx, &rows); err != nil {
			return 0, classify(err)
		}
		if len(rows) == 0 {
			continue
		}
		return rowBalance(rows[0]), nil
	}
	return 0, ErrConflict
}

func (r *SupabaseRepository) fetch(ctx context.Context, id string) (profileRow, error) {
	var row profileRow
	err := r.client.From(profilesTable).Select("id,balance").Eq("id", id).Single().ExecuteInto(ctx, &row)
	if err != nil {
		return profileRow{}, classify(err)
	}
	return row, nil
}

func rowBalance(row profileRow) int64 {
	if row.Balance == nil {
		return 0
	}
	return Minor(*row.Balance)
}

// classify maps Supabase failures onto the profile error taxonomy.
func classify(err error) error {
	var apiErr *supabase.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	switch {
	case apiErr.Code == "PGRST116" || apiErr.StatusCode == http.StatusNotAcceptable:
		return ErrRecordNotFound
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	case apiErr.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	default:
		return err
	}
}
