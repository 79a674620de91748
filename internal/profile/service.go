package profile

import (
	"context"
	"fmt"
)

// Service exposes balance reads and mutations over a Repository.
type Service struct {
	repo Repository
}

// NewService builds a profile service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Ensure provisions an empty profile for a newly signed-in user.
func (s *Service) Ensure(ctx context.Context, userID string) error {
	return s.repo.Ensure(ctx, userID)
}

// Get returns the current profile for userID.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	return s.repo.Get(ctx, userID)
}

// Debit atomically subtracts amount and returns the new balance.
func (s *Service) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return s.repo.Debit(ctx, userID, amount)
}

// Credit atomically adds amount and returns the new balance.
func (s *Service) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return s.repo.Credit(ctx, userID, amount)
}
