package paystack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the production Paystack API.
	DefaultBaseURL = "https://api.paystack.co"
	defaultTimeout = 15 * time.Second
)

// ErrGatewayUnavailable wraps transport failures and unreadable gateway replies.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Config configures a Client.
type Config struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// Client calls the Paystack transaction API with the secret key.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// Verification is the part of a verify reply that decides a top-up.
type Verification struct {
	// Status is the top-level API status flag.
	Status  bool
	Message string
	// TransactionStatus is data.status, "success" for a settled charge.
	TransactionStatus string
	// Amount is data.amount in minor units (kobo, pesewas).
	Amount    int64
	Currency  string
	Reference string
}

// Successful reports whether both the API call and the charge succeeded.
func (v Verification) Successful() bool {
	return v.Status && v.TransactionStatus == "success"
}

// New builds a Paystack client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, secretKey: cfg.SecretKey, httpClient: httpClient}
}

// Verify looks up the transaction identified by reference. Paystack answers
// unknown or failed references with a JSON body and status false; those are
// returned as a Verification, not an error.
func (c *Client) Verify(ctx context.Context, reference string) (Verification, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Verification{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Verification{}, fmt.Errorf("%w: read body: %w", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return Verification{}, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return Verification{}, fmt.Errorf("%w: status %d: non-JSON reply", ErrGatewayUnavailable, resp.StatusCode)
	}

	res := gjson.ParseBytes(body)
	return Verification{
		Status:            res.Get("status").Bool(),
		Message:           res.Get("message").String(),
		TransactionStatus: res.Get("data.status").String(),
		Amount:            res.Get("data.amount").Int(),
		Currency:          res.Get("data.currency").String(),
		Reference:         res.Get("data.reference").String(),
	}, nil
}
