package sqlite

import (
	"context"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// seedCoffeeHistory inserts three "Coffee Shop" transactions, each a credit
// on checking paired with a debit on dining, plus one unrelated grocery
// transaction.
func seedCoffeeHistory(t *testing.T, s *Store, fx *fixture) {
	t.Helper()
	ctx := context.Background()

	for _, day := range []string{"2026-01-05", "2026-01-12", "2026-01-19"} {
		_, err := s.CreateTransaction(ctx, "Coffee Shop", fx.currencyEUR, []domain.LineInput{
			{AccountID: fx.checking, Amount: domain.CreditOf(5.00), Date: date(day)},
			{AccountID: fx.dining, Amount: domain.DebitOf(5.00), Date: date(day)},
		})
		if err != nil {
			t.Fatalf("seeding coffee transaction: %v", err)
		}
	}
	_, err := s.CreateTransaction(ctx, "Supermarket", fx.currencyEUR, []domain.LineInput{
		{AccountID: fx.checking, Amount: domain.CreditOf(60.00), Date: date("2026-01-20")},
		{AccountID: fx.groceries, Amount: domain.DebitOf(60.00), Date: date("2026-01-20")},
	})
	if err != nil {
		t.Fatalf("seeding grocery transaction: %v", err)
	}
}

func TestCounterpartsByDescription(t *testing.T) {
	s, fx := newTestStore(t)
	seedCoffeeHistory(t, s, fx)
	ctx := context.Background()

	got, err := s.CounterpartsByDescription(ctx, "coffee shop", true, 3)
	if err != nil {
		t.Fatalf("CounterpartsByDescription failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d counterparts, want 1: %+v", len(got), got)
	}
	if got[0].AccountID != fx.dining || got[0].AccountName != "Dining" {
		t.Errorf("counterpart = %+v, want Dining", got[0])
	}

	// Opposite direction: a debit orphan pairs against the credit side.
	got, err = s.CounterpartsByDescription(ctx, "Coffee Shop", false, 3)
	if err != nil {
		t.Fatalf("CounterpartsByDescription(debit) failed: %v", err)
	}
	if len(got) != 1 || got[0].AccountID != fx.checking {
		t.Errorf("debit-side counterpart = %+v, want Checking", got)
	}
}

func TestCounterpartsByKeyword(t *testing.T) {
	s, fx := newTestStore(t)
	seedCoffeeHistory(t, s, fx)
	ctx := context.Background()

	got, err := s.CounterpartsByKeyword(ctx, "coffee", true, 2)
	if err != nil {
		t.Fatalf("CounterpartsByKeyword failed: %v", err)
	}
	if len(got) != 1 || got[0].AccountID != fx.dining {
		t.Errorf("keyword counterpart = %+v, want Dining", got)
	}

	// LIKE wildcards in the needle must not widen the match.
	got, err = s.CounterpartsByKeyword(ctx, "%", true, 2)
	if err != nil {
		t.Fatalf("CounterpartsByKeyword(%%) failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("wildcard keyword matched %+v, want nothing", got)
	}
}

func TestCounterpartsByAmount(t *testing.T) {
	s, fx := newTestStore(t)
	seedCoffeeHistory(t, s, fx)
	ctx := context.Background()

	// 5.10 is within ±5% of the 5.00 coffee credits, 60.00 is not.
	got, err := s.CounterpartsByAmount(ctx, 5.10*0.95, 5.10*1.05, true, 2)
	if err != nil {
		t.Fatalf("CounterpartsByAmount failed: %v", err)
	}
	if len(got) != 1 || got[0].AccountID != fx.dining {
		t.Errorf("amount counterpart = %+v, want Dining", got)
	}
}

func TestRecentAccounts(t *testing.T) {
	s, fx := newTestStore(t)
	seedCoffeeHistory(t, s, fx)
	ctx := context.Background()

	got, err := s.RecentAccounts(ctx, 5)
	if err != nil {
		t.Fatalf("RecentAccounts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d recent accounts, want 3: %+v", len(got), got)
	}
	// The grocery transaction is the newest.
	if got[0].AccountID != fx.checking && got[0].AccountID != fx.groceries {
		t.Errorf("first recent account = %+v, want one from the 2026-01-20 transaction", got[0])
	}
}
