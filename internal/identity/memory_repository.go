package identity

import (
	"context"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]Account
}

// NewMemoryRepository builds an in-memory user store for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(acct.Email)
	if _, exists := r.users[key]; exists {
		return ErrAlreadyRegistered
	}
	r.users[key] = acct
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.users[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}
