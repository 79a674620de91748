package auth

import (
	"context"
	"log/slog"

	"github.com/congo-pay/datatopup/internal/identity"
	"github.com/congo-pay/datatopup/internal/profile"
)

// ActionSignUp selects account creation on the login form. Any other action signs in.
const ActionSignUp = "signup"

// Service signs users in or up and makes sure they have a profile row.
type Service struct {
	provider identity.Provider
	profiles *profile.Service
	logger   *slog.Logger
}

// NewService wires the identity provider and profile service.
func NewService(provider identity.Provider, profiles *profile.Service, logger *slog.Logger) *Service {
	return &Service{provider: provider, profiles: profiles, logger: logger}
}

// Login runs the requested action and returns the authenticated user.
// A failure to provision the profile is logged; the balance page reads a
// missing profile as zero.
func (s *Service) Login(ctx context.Context, action string, creds identity.Credentials) (identity.User, error) {
	var (
		user identity.User
		err  error
	)
	if action == ActionSignUp {
		user, err = s.provider.SignUp(ctx, creds)
	} else {
		user, err = s.provider.SignIn(ctx, creds)
	}
	if err != nil {
		return identity.User{}, err
	}

	if err := s.profiles.Ensure(ctx, user.ID); err != nil {
		s.logger.Warn("profile provisioning failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return user, nil
}
