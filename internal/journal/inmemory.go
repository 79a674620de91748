package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory keeps journal entries in process for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemory constructs an empty in-memory journal.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Record appends e, assigning an id and timestamp when missing.
func (j *InMemory) Record(_ context.Context, e Entry) (Entry, error) {
	if err := validate(e); err != nil {
		return Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return e, nil
}

// List returns the newest entries for userID first.
func (j *InMemory) List(_ context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, 0, limit)
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if j.entries[i].UserID == userID {
			out = append(out, j.entries[i])
		}
	}
	return out, nil
}

func validate(e Entry) error {
	if e.UserID == "" {
		return fmt.Errorf("journal entry requires a user id")
	}
	if e.Kind != KindPurchase && e.Kind != KindTopUp {
		return fmt.Errorf("unknown journal entry kind %q", e.Kind)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
