package profile

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryRepository constructs an in-memory repository for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{balances: make(map[string]int64)}
}

func (r *memoryRepository) Ensure(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.balances[id]; !exists {
		r.balances[id] = 0
	}
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance, ok := r.balances[id]
	if !ok {
		return Profile{}, ErrRecordNotFound
	}
	return Profile{ID: id, Balance: balance}, nil
}

func (r *memoryRepository) Debit(_ context.Context, id string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance, ok := r.balances[id]
	if !ok {
		return 0, ErrRecordNotFound
	}
	if balance < amount {
		return 0, ErrInsufficientFunds
	}
	balance -= amount
	r.balances[id] = balance
	return balance, nil
}

func (r *memoryRepository) Credit(_ context.Context, id string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance, ok := r.balances[id]
	if !ok {
		return 0, ErrRecordNotFound
	}
	balance += amount
	r.balances[id] = balance
	return balance, nil
}
