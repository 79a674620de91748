package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestServiceDebitAndCredit(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Ensure(ctx, "user-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	SeedBalance(repo, "user-1", 5_000)

	balance, err := svc.Debit(ctx, "user-1", 2_000)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 3_000 {
		t.Fatalf("expected balance 3000, got %d", balance)
	}

	balance, err = svc.Credit(ctx, "user-1", 10_000)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 13_000 {
		t.Fatalf("expected balance 13000, got %d", balance)
	}

	if _, err := svc.Debit(ctx, "user-1", 20_000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	p, _ := svc.Get(ctx, "user-1")
	if p.Balance != 13_000 {
		t.Fatalf("failed debit changed balance to %d", p.Balance)
	}
}

func TestServiceRejectsNonPositiveAmounts(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	_ = svc.Ensure(ctx, "user-1")

	if _, err := svc.Debit(ctx, "user-1", 0); err == nil {
		t.Fatal("expected error for zero debit")
	}
	if _, err := svc.Credit(ctx, "user-1", -5); err == nil {
		t.Fatal("expected error for negative credit")
	}
}

func TestServiceMissingProfile(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Get(ctx, "ghost"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Debit(ctx, "ghost", 100); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEnsureKeepsExistingBalance(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	SeedBalance(repo, "user-1", 700)

	if err := repo.Ensure(ctx, "user-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	p, err := repo.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Balance != 700 {
		t.Fatalf("ensure overwrote balance: %d", p.Balance)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	SeedBalance(repo, "user-1", 10_000)

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Debit(ctx, "user-1", 1_000); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Fatalf("expected exactly 10 debits to succeed, got %d", succeeded)
	}
	p, _ := svc.Get(ctx, "user-1")
	if p.Balance != 0 {
		t.Fatalf("expected zero balance, got %d", p.Balance)
	}
}

func TestMoneyConversions(t *testing.T) {
	if got := Minor(20.00); got != 2_000 {
		t.Fatalf("Minor(20.00) = %d", got)
	}
	if got := Minor(0.29); got != 29 {
		t.Fatalf("Minor(0.29) = %d", got)
	}
	if got := Major(3_000); got != 30 {
		t.Fatalf("Major(3000) = %v", got)
	}
	if got := FormatMajor(10_505); got != "105.05" {
		t.Fatalf("FormatMajor(10505) = %s", got)
	}
	if got := FormatMajor(-7); got != "-0.07" {
		t.Fatalf("FormatMajor(-7) = %s", got)
	}
}

func TestAmountAcceptsNumbersAndStrings(t *testing.T) {
	cases := map[string]int64{
		`20`:       2_000,
		`20.5`:     2_050,
		`"100.00"`: 10_000,
		`null`:     0,
	}
	for in, want := range cases {
		var a Amount
		if err := a.UnmarshalJSON([]byte(in)); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if a.Minor() != want {
			t.Fatalf("%s: expected %d, got %d", in, want, a.Minor())
		}
	}

	var a Amount
	if err := a.UnmarshalJSON([]byte(`"ten"`)); err == nil {
		t.Fatal("expected non-numeric amount to fail")
	}
}
