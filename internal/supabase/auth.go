package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// User is the subset of a GoTrue user the application keeps.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is returned by a successful password sign-in.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new email/password user.
//
// GoTrue returns a session wrapping the user when email confirmation is disabled
// and the bare user object otherwise; both shapes are accepted.
func (c *Client) SignUp(ctx context.Context, email, password string) (User, error) {
	body, err := c.request(ctx, http.MethodPost, c.authURL+"/signup", credentialsRequest{Email: email, Password: password}, nil)
	if err != nil {
		return User{}, err
	}

	var resp struct {
		User
		Nested *User `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return User{}, fmt.Errorf("unmarshal signup response: %w", err)
	}

	switch {
	case resp.Nested != nil && resp.Nested.ID != "":
		return *resp.Nested, nil
	case resp.ID != "":
		return resp.User, nil
	}
	return User{}, fmt.Errorf("signup response carried no user")
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (AuthSession, error) {
	body, err := c.request(ctx, http.MethodPost, c.authURL+"/token?grant_type=password", credentialsRequest{Email: email, Password: password}, nil)
	if err != nil {
		return AuthSession{}, err
	}

	var session AuthSession
	if err := json.Unmarshal(body, &session); err != nil {
		return AuthSession{}, fmt.Errorf("unmarshal token response: %w", err)
	}
	if session.User.ID == "" {
		return AuthSession{}, fmt.Errorf("token response carried no user")
	}
	return session, nil
}
