package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateID returns a URL-safe session id carrying 256 bits of entropy.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandomSecret returns a fresh signing key. Cookies signed with it do not
// survive a restart.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("session: generate secret: %w", err)
	}
	return b, nil
}
