package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrAlreadyRegistered is returned by SignUp for a known email.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrWeakPassword is returned by SignUp for passwords below the minimum length.
	ErrWeakPassword = errors.New("password should be at least 6 characters")
)

// User is the identity handed out by a Provider and cached in the session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Credentials carries the login form fields.
type Credentials struct {
	Email    string
	Password string
}

// Provider signs users up and in. Implementations talk to an external identity
// service or to the local users table.
type Provider interface {
	SignUp(ctx context.Context, creds Credentials) (User, error)
	SignIn(ctx context.Context, creds Credentials) (User, error)
}

// Account is a locally stored user with its password hash.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
