package paystack

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("unexpected authorization %q", got)
		}
		_, _ = io.WriteString(w, `{"status":true,"message":"Verification successful","data":{"status":"success","amount":10000,"currency":"GHS","reference":"ref-123"}}`)
	}))
	defer srv.Close()

	v, err := New(Config{BaseURL: srv.URL, SecretKey: "sk_test"}).Verify(context.Background(), "ref-123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !v.Successful() {
		t.Fatalf("expected success, got %+v", v)
	}
	if v.Amount != 10000 || v.Currency != "GHS" || v.Reference != "ref-123" {
		t.Fatalf("unexpected verification %+v", v)
	}
}

func TestVerifyNotSuccessful(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"api status false": {http.StatusBadRequest, `{"status":false,"message":"Transaction reference not found"}`},
		"charge abandoned": {http.StatusOK, `{"status":true,"message":"Verification successful","data":{"status":"abandoned","amount":500}}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			v, err := New(Config{BaseURL: srv.URL}).Verify(context.Background(), "ref")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if v.Successful() {
				t.Fatalf("expected non-success, got %+v", v)
			}
		})
	}
}

func TestVerifyGatewayFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	}))
	defer srv.Close()

	if _, err := New(Config{BaseURL: srv.URL}).Verify(context.Background(), "ref"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}

	if _, err := New(Config{BaseURL: "http://127.0.0.1:1"}).Verify(context.Background(), "ref"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected transport failure to be gateway unavailable, got %v", err)
	}
}

func TestVerifyEscapesReference(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{"status":false}`)
	}))
	defer srv.Close()

	_, _ = New(Config{BaseURL: srv.URL}).Verify(context.Background(), "a/b c")
	if got != "/transaction/verify/a%2Fb%20c" {
		t.Fatalf("unexpected escaped path %s", got)
	}
}
