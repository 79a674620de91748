package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// LocalProvider is a Provider backed by the local users table with bcrypt hashes.
type LocalProvider struct {
	repo Repository
}

// NewLocalProvider creates a provider over repo.
func NewLocalProvider(repo Repository) *LocalProvider {
	return &LocalProvider{repo: repo}
}

// SignUp registers a new user and returns its identity.
func (p *LocalProvider) SignUp(ctx context.Context, creds Credentials) (User, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, ErrInvalidCredentials
	}
	if len(creds.Password) < minPasswordLength {
		return User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	acct := Account{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.repo.Create(ctx, acct); err != nil {
		return User{}, err
	}
	return User{ID: acct.ID, Email: acct.Email}, nil
}

// SignIn verifies the password for an existing user.
func (p *LocalProvider) SignIn(ctx context.Context, creds Credentials) (User, error) {
	acct, err := p.repo.FindByEmail(ctx, strings.TrimSpace(creds.Email))
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return User{ID: acct.ID, Email: acct.Email}, nil
}
