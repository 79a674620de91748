package journal

import (
	"context"
	"time"
)

const (
	// KindPurchase records a data bundle debit.
	KindPurchase = "purchase"
	// KindTopUp records a verified gateway credit.
	KindTopUp = "topup"

	// DefaultListLimit caps List when callers pass a non-positive limit.
	DefaultListLimit = 50
)

// Entry is one balance movement. Amount is always positive; Kind gives the sign.
type Entry struct {
	ID           string
	UserID       string
	Kind         string
	Amount       int64
	BalanceAfter int64
	Reference    string
	CreatedAt    time.Time
}

// Journal is an append-only history of balance movements per user.
type Journal interface {
	Record(ctx context.Context, e Entry) (Entry, error)
	List(ctx context.Context, userID string, limit int) ([]Entry, error)
}
