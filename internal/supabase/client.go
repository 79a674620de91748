// Package supabase is a small REST client for the Supabase auth (GoTrue) and
// database (PostgREST) endpoints used by the identity and profile stores.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// Client talks to a single Supabase project with one API key.
type Client struct {
	restURL    string
	authURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase api key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	return &Client{
		restURL:    baseURL + "/rest/v1",
		authURL:    baseURL + "/auth/v1",
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// Error is a non-2xx response decoded from PostgREST or GoTrue.
type Error struct {
	Code       string
	Message    string
	Details    string
	Hint       string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.StatusCode)
}

// request performs a JSON request and returns the raw body for 2xx responses.
func (c *Client) request(ctx context.Context, method, url string, payload any, headers map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseError(respBody, resp.StatusCode)
	}
	return respBody, nil
}

func parseError(body []byte, statusCode int) error {
	var errResp struct {
		Code             any    `json:"code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &Error{Code: "unknown", Message: strings.TrimSpace(string(body)), StatusCode: statusCode}
	}

	msg := errResp.Message
	for _, alt := range []string{errResp.Msg, errResp.ErrorDescription, errResp.Error} {
		if msg == "" {
			msg = alt
		}
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	// GoTrue reports numeric codes, PostgREST string codes.
	code := errResp.ErrorCode
	if s, ok := errResp.Code.(string); ok && code == "" {
		code = s
	}

	return &Error{
		Code:       code,
		Message:    msg,
		Details:    errResp.Details,
		Hint:       errResp.Hint,
		StatusCode: statusCode,
	}
}
