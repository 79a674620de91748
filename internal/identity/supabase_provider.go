package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/congo-pay/datatopup/internal/supabase"
)

// SupabaseProvider delegates sign-up and sign-in to Supabase Auth.
type SupabaseProvider struct {
	client *supabase.Client
}

// NewSupabaseProvider wraps a Supabase client.
func NewSupabaseProvider(client *supabase.Client) *SupabaseProvider {
	return &SupabaseProvider{client: client}
}

// SignUp registers the user with Supabase Auth.
func (p *SupabaseProvider) SignUp(ctx context.Context, creds Credentials) (User, error) {
	u, err := p.client.SignUp(ctx, creds.Email, creds.Password)
	if err != nil {
		return User{}, translate(err)
	}
	return User{ID: u.ID, Email: u.Email}, nil
}

// SignIn exchanges the password for a Supabase session and keeps only the user.
func (p *SupabaseProvider) SignIn(ctx context.Context, creds Credentials) (User, error) {
	s, err := p.client.SignInWithPassword(ctx, creds.Email, creds.Password)
	if err != nil {
		return User{}, translate(err)
	}
	return User{ID: s.User.ID, Email: s.User.Email}, nil
}

func translate(err error) error {
	var apiErr *supabase.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == "user_already_exists":
		return ErrAlreadyRegistered
	case apiErr.Code == "invalid_credentials" || (apiErr.StatusCode == http.StatusBadRequest && apiErr.Message == "Invalid login credentials"):
		return ErrInvalidCredentials
	case apiErr.Code == "weak_password":
		return fmt.Errorf("%w: %s", ErrWeakPassword, apiErr.Message)
	default:
		return errors.New(apiErr.Message)
	}
}
