package profile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInsufficientFunds means the balance cannot cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrRecordNotFound means no profile row exists for the user.
	ErrRecordNotFound = errors.New("profile not found")
	// ErrNotAuthenticated means the store rejected the caller's credentials.
	ErrNotAuthenticated = errors.New("profile store rejected credentials")
	// ErrUpstreamUnavailable means the store could not be reached or failed.
	ErrUpstreamUnavailable = errors.New("profile store unavailable")
	// ErrConflict means concurrent writers kept winning a compare-and-swap.
	ErrConflict = errors.New("concurrent balance update")
)

// Profile is a user's balance record. Balance is in minor units (1/100).
type Profile struct {
	ID      string
	Balance int64
}

// Minor converts a decimal major-unit amount (e.g. 20.50) to minor units.
func Minor(major float64) int64 {
	return int64(math.Round(major * 100))
}

// Major converts minor units back to a decimal amount for JSON responses.
func Major(minor int64) float64 {
	return float64(minor) / 100
}

// FormatMajor renders minor units with exactly two decimals.
func FormatMajor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// Amount is a major-unit decimal read from a JSON request. It accepts a JSON
// number or a numeric string, and converts to minor units with Minor.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid amount %s", b)
	}
	*a = Amount(v)
	return nil
}

// Minor returns the amount in minor units.
func (a Amount) Minor() int64 {
	return Minor(float64(a))
}
