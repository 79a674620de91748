package profile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/congo-pay/datatopup/internal/supabase"
)

// fakePostgREST serves a single profiles table. raceOnce makes the next PATCH
// lose its compare-and-swap as if another writer had committed first.
type fakePostgREST struct {
	mu       sync.Mutex
	rows     map[string]*float64
	raceOnce bool
	patches  int
	status   int
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"message":"forced failure"}`)
		return
	}

	id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
	switch r.Method {
	case http.MethodGet:
		bal, ok := f.rows[id]
		if !ok {
			w.WriteHeader(http.StatusNotAcceptable)
			_, _ = io.WriteString(w, `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "balance": bal})
	case http.MethodPatch:
		f.patches++
		var body struct {
			Balance string `json:"balance"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		current, ok := f.rows[id]
		matches := ok
		if filter := r.URL.Query().Get("balance"); ok && filter == "is.null" {
			matches = current == nil
		} else if ok {
			want, err := strconv.ParseFloat(strings.TrimPrefix(filter, "eq."), 64)
			matches = err == nil && current != nil && *current == want
		}
		if f.raceOnce && matches {
			f.raceOnce = false
			bumped := 1.0
			if current != nil {
				bumped += *current
			}
			f.rows[id] = &bumped
			matches = false
		}
		if !matches {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		next, _ := strconv.ParseFloat(body.Balance, 64)
		f.rows[id] = &next
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": id, "balance": next}})
	case http.MethodPost:
		var rows []map[string]any
		_ = json.NewDecoder(r.Body).Decode(&rows)
		for _, row := range rows {
			rid, _ := row["id"].(string)
			if _, exists := f.rows[rid]; !exists {
				zero := 0.0
				f.rows[rid] = &zero
			}
		}
		_, _ = io.WriteString(w, `[]`)
	}
}

func newSupabaseRepo(t *testing.T, fake *fakePostgREST) *SupabaseRepository {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client, err := supabase.New(supabase.Config{URL: srv.URL, APIKey: "key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewSupabaseRepository(client)
}

func float(v float64) *float64 { return &v }

func TestSupabaseRepositoryGet(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]*float64{"u-1": float(50), "u-null": nil}}
	repo := newSupabaseRepo(t, fake)
	ctx := context.Background()

	p, err := repo.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Balance != 5_000 {
		t.Fatalf("expected 5000, got %d", p.Balance)
	}

	p, err = repo.Get(ctx, "u-null")
	if err != nil {
		t.Fatalf("get null balance: %v", err)
	}
	if p.Balance != 0 {
		t.Fatalf("expected null balance to read as zero, got %d", p.Balance)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSupabaseRepositoryDebit(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]*float64{"u-1": float(50)}}
	repo := newSupabaseRepo(t, fake)
	ctx := context.Background()

	balance, err := repo.Debit(ctx, "u-1", 2_000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 3_000 {
		t.Fatalf("expected 3000, got %d", balance)
	}

	if _, err := repo.Debit(ctx, "u-1", 5_000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if fake.patches != 1 {
		t.Fatalf("insufficient debit must not write, saw %d patches", fake.patches)
	}
}

func TestSupabaseRepositoryRetriesLostSwap(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]*float64{"u-1": float(5)}, raceOnce: true}
	repo := newSupabaseRepo(t, fake)

	balance, err := repo.Credit(context.Background(), "u-1", 10_000)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	// The competing writer added 1.00 before our swap landed.
	if balance != 10_600 {
		t.Fatalf("expected 10600, got %d", balance)
	}
	if fake.patches != 2 {
		t.Fatalf("expected one retry, saw %d patches", fake.patches)
	}
}

func TestSupabaseRepositoryUnroundedBalance(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]*float64{"u-1": float(50.3000000000001)}}
	repo := newSupabaseRepo(t, fake)
	ctx := context.Background()

	p, err := repo.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Balance != 5_030 {
		t.Fatalf("expected 5030, got %d", p.Balance)
	}

	balance, err := repo.Debit(ctx, "u-1", 2_000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 3_030 {
		t.Fatalf("expected 3030, got %d", balance)
	}
	if fake.patches != 1 {
		t.Fatalf("expected the first swap to land, saw %d patches", fake.patches)
	}

	fake.rows["u-1"] = float(10.1 + 0.2)
	balance, err = repo.Credit(ctx, "u-1", 100)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 1_130 {
		t.Fatalf("expected 1130, got %d", balance)
	}
}

func TestSupabaseRepositoryCreditNullBalance(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]*float64{"u-1": nil}}
	repo := newSupabaseRepo(t, fake)

	balance, err := repo.Credit(context.Background(), "u-1", 250)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 250 {
		t.Fatalf("expected 250, got %d", balance)
	}
}

func TestSupabaseRepositoryEnsure(t *testing.T) {
	fake := &fakePostgREST{rows: map[string]*float64{"u-1": float(9)}}
	repo := newSupabaseRepo(t, fake)
	ctx := context.Background()

	if err := repo.Ensure(ctx, "u-1"); err != nil {
		t.Fatalf("ensure existing: %v", err)
	}
	if err := repo.Ensure(ctx, "u-2"); err != nil {
		t.Fatalf("ensure new: %v", err)
	}
	if *fake.rows["u-1"] != 9 {
		t.Fatalf("ensure overwrote existing balance")
	}
	if _, ok := fake.rows["u-2"]; !ok {
		t.Fatalf("ensure did not create profile")
	}
}

func TestSupabaseRepositoryClassifiesFailures(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized:       ErrNotAuthenticated,
		http.StatusForbidden:          ErrNotAuthenticated,
		http.StatusServiceUnavailable: ErrUpstreamUnavailable,
	}
	for status, want := range cases {
		fake := &fakePostgREST{rows: map[string]*float64{}, status: status}
		repo := newSupabaseRepo(t, fake)
		if _, err := repo.Get(context.Background(), "u-1"); !errors.Is(err, want) {
			t.Fatalf("status %d: expected %v, got %v", status, want, err)
		}
	}

	client, _ := supabase.New(supabase.Config{URL: "http://127.0.0.1:1", APIKey: "key"})
	repo := NewSupabaseRepository(client)
	if _, err := repo.Get(context.Background(), "u-1"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected transport failure to be upstream unavailable, got %v", err)
	}
}
