package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// newTestStore opens an in-memory database with the full schema and a small
// reference data set.
func newTestStore(t *testing.T) (*Store, *fixture) {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewStore(db)
	ctx := context.Background()
	if err := s.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	fx := &fixture{}
	catID, err := s.CreateCategory(ctx, "General")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	fx.currencyEUR, err = s.CreateCurrency(ctx, "EUR", 1.0)
	if err != nil {
		t.Fatalf("CreateCurrency failed: %v", err)
	}
	mk := func(name string) int64 {
		id, err := s.CreateAccount(ctx, domain.Account{Name: name, CategoryID: catID})
		if err != nil {
			t.Fatalf("CreateAccount(%s) failed: %v", name, err)
		}
		return id
	}
	fx.checking = mk("Checking")
	fx.dining = mk("Dining")
	fx.groceries = mk("Groceries")
	fx.bankFees = mk("Bank Fees")
	return s, fx
}

type fixture struct {
	currencyEUR int64
	checking    int64
	dining      int64
	groceries   int64
	bankFees    int64
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateTransactionAndLines(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()

	txID, err := s.CreateTransaction(ctx, "Lunch", fx.currencyEUR, []domain.LineInput{
		{AccountID: fx.checking, Amount: domain.CreditOf(18.40), Date: date("2026-03-01")},
		{AccountID: fx.dining, Amount: domain.DebitOf(18.40), Date: date("2026-03-01")},
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	lines, err := s.LinesForTransaction(ctx, txID)
	if err != nil {
		t.Fatalf("LinesForTransaction failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var net float64
	for _, l := range lines {
		net += l.Amount.Signed()
	}
	if net != 0 {
		t.Errorf("lines net to %v, want 0", net)
	}
	if lines[0].AccountID != fx.checking || lines[0].Amount.Side != domain.Credit {
		t.Errorf("first line = %+v, want credit on checking", lines[0])
	}
}

func TestCreateTransactionRejectsBadLine(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTransaction(ctx, "Broken", fx.currencyEUR, []domain.LineInput{
		{AccountID: fx.checking, Amount: domain.CreditOf(10), Date: date("2026-03-01")},
		{AccountID: fx.dining, Amount: domain.DebitOf(0), Date: date("2026-03-01")},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("CreateTransaction error = %v, want ErrValidation", err)
	}

	// The whole unit must have rolled back, first line included.
	row := s.db.QueryRow(`SELECT COUNT(*) FROM transactions`)
	var n int
	if err := row.Scan(&n); err != nil {
		t.Fatalf("counting transactions: %v", err)
	}
	if n != 0 {
		t.Errorf("found %d transactions after failed create, want 0", n)
	}
}

func TestAddUpdateDeleteLine(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()

	txID, err := s.CreateTransaction(ctx, "Groceries", fx.currencyEUR, []domain.LineInput{
		{AccountID: fx.checking, Amount: domain.CreditOf(55), Date: date("2026-03-02")},
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	lineID, err := s.AddLine(ctx, txID, domain.LineInput{
		AccountID: fx.groceries, Amount: domain.DebitOf(50), Date: date("2026-03-02"),
	})
	if err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}

	if err := s.UpdateLine(ctx, lineID, domain.LineInput{
		AccountID: fx.groceries, Amount: domain.DebitOf(55), Date: date("2026-03-02"),
	}); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}

	lines, err := s.LinesForTransaction(ctx, txID)
	if err != nil {
		t.Fatalf("LinesForTransaction failed: %v", err)
	}
	if len(lines) != 2 || lines[1].Amount.Value != 55 {
		t.Fatalf("after update lines = %+v, want second debit 55", lines)
	}

	if err := s.DeleteLine(ctx, lineID); err != nil {
		t.Fatalf("DeleteLine failed: %v", err)
	}
	if err := s.DeleteLine(ctx, lineID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteLine error = %v, want ErrNotFound", err)
	}
}

func TestInsertBatchPreservesInvalidLines(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()

	lines := make([]domain.RawLine, 0, 5)
	for i := 0; i < 4; i++ {
		lines = append(lines, domain.RawLine{
			Description: "ok row",
			AccountID:   &fx.checking,
			Amount:      domain.DebitOf(10),
			Date:        date("2026-02-01"),
			CurrencyID:  fx.currencyEUR,
			Valid:       true,
		})
	}
	lines = append(lines, domain.RawLine{
		Description: "mystery row",
		Amount:      domain.CreditOf(3.50),
		Date:        date("2026-02-01"),
		CurrencyID:  fx.currencyEUR,
		Valid:       false,
		Note:        "original account name: Acme Savings",
	})

	batchID, err := s.InsertBatch(ctx, "feb.csv", lines)
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := s.ListLines(ctx, LineFilter{BatchID: &batchID})
	if err != nil {
		t.Fatalf("ListLines failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d lines, want 5", len(got))
	}
	var valid, invalid int
	for _, l := range got {
		if l.Valid {
			valid++
			if l.AccountID == nil {
				t.Errorf("valid line %d has no account", l.ID)
			}
		} else {
			invalid++
			if l.AccountID != nil {
				t.Errorf("invalid line %d has an account", l.ID)
			}
			if l.Note != "original account name: Acme Savings" {
				t.Errorf("invalid line note = %q", l.Note)
			}
		}
		if l.Status != domain.OrphanNew {
			t.Errorf("line %d status = %q, want new", l.ID, l.Status)
		}
	}
	if valid != 4 || invalid != 1 {
		t.Errorf("valid/invalid = %d/%d, want 4/1", valid, invalid)
	}
}

func TestConsumeLineTwice(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()

	batchID, err := s.InsertBatch(ctx, "x.csv", []domain.RawLine{{
		Description: "one",
		AccountID:   &fx.checking,
		Amount:      domain.DebitOf(5),
		Date:        date("2026-02-02"),
		CurrencyID:  fx.currencyEUR,
		Valid:       true,
	}})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	lines, err := s.ListLines(ctx, LineFilter{BatchID: &batchID})
	if err != nil || len(lines) != 1 {
		t.Fatalf("ListLines = %v, %v", lines, err)
	}
	lineID := lines[0].ID

	txID, err := s.CreateTransaction(ctx, "t", fx.currencyEUR, nil)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if err := s.ConsumeLine(ctx, lineID, txID); err != nil {
		t.Fatalf("first ConsumeLine failed: %v", err)
	}
	if err := s.ConsumeLine(ctx, lineID, txID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second ConsumeLine error = %v, want ErrNotFound", err)
	}

	got, err := s.OrphanLine(ctx, lineID)
	if err != nil {
		t.Fatalf("OrphanLine failed: %v", err)
	}
	if got.Status != domain.OrphanConsumed {
		t.Errorf("status = %q, want consumed", got.Status)
	}
	if got.TransactionID == nil || *got.TransactionID != txID {
		t.Errorf("transaction_id = %v, want %d", got.TransactionID, txID)
	}
}

func TestSetStatusValidation(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()

	batchID, err := s.InsertBatch(ctx, "y.csv", []domain.RawLine{{
		Description: "one",
		AccountID:   &fx.checking,
		Amount:      domain.DebitOf(5),
		Date:        date("2026-02-02"),
		CurrencyID:  fx.currencyEUR,
		Valid:       true,
	}})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	if err := s.SetBatchStatus(ctx, batchID, "consumed"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("SetBatchStatus(consumed) error = %v, want ErrValidation", err)
	}
	if err := s.SetBatchStatus(ctx, batchID, domain.BatchProcessed); err != nil {
		t.Errorf("SetBatchStatus(processed) failed: %v", err)
	}

	lines, _ := s.ListLines(ctx, LineFilter{BatchID: &batchID})
	if err := s.SetLineStatus(ctx, lines[0].ID, "done"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("SetLineStatus(done) error = %v, want ErrValidation", err)
	}
	if err := s.SetLineStatus(ctx, lines[0].ID, domain.OrphanIgnored); err != nil {
		t.Errorf("SetLineStatus(ignored) failed: %v", err)
	}

	status := domain.OrphanIgnored
	got, err := s.ListLines(ctx, LineFilter{Status: &status})
	if err != nil {
		t.Fatalf("ListLines by status failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d ignored lines, want 1", len(got))
	}
}

func TestDeleteAccountGuards(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateTransaction(ctx, "uses checking", fx.currencyEUR, []domain.LineInput{
		{AccountID: fx.checking, Amount: domain.DebitOf(1), Date: date("2026-01-01")},
	}); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	used, err := s.AccountHasTransactions(ctx, fx.checking)
	if err != nil || !used {
		t.Fatalf("AccountHasTransactions = %v, %v; want true", used, err)
	}

	if err := s.DeleteAccount(ctx, fx.checking); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("DeleteAccount(used) error = %v, want ErrInvalidState", err)
	}
	if err := s.DeleteAccount(ctx, fx.groceries); err != nil {
		t.Errorf("DeleteAccount(unused) failed: %v", err)
	}
}

func TestNameCacheInvalidate(t *testing.T) {
	s, fx := newTestStore(t)
	ctx := context.Background()
	_ = fx

	cache := NewNameCache(s)
	id, ok, err := cache.AccountID(ctx, "Dining")
	if err != nil || !ok {
		t.Fatalf("AccountID(Dining) = %v, %v, %v", id, ok, err)
	}

	// Rename behind the cache's back; a stale entry must survive only until
	// Invalidate.
	if _, err := s.db.ExecContext(ctx, `UPDATE accounts SET name = 'Restaurants' WHERE id = ?`, id); err != nil {
		t.Fatalf("renaming account: %v", err)
	}
	if _, ok, _ := cache.AccountID(ctx, "Dining"); !ok {
		t.Fatal("expected cached hit for old name before invalidation")
	}

	cache.Invalidate()
	if _, ok, err := cache.AccountID(ctx, "Dining"); err != nil || ok {
		t.Errorf("after Invalidate AccountID(Dining) ok = %v, err = %v; want miss", ok, err)
	}
	if _, ok, err := cache.AccountID(ctx, "Restaurants"); err != nil || !ok {
		t.Errorf("after Invalidate AccountID(Restaurants) ok = %v, err = %v; want hit", ok, err)
	}
}
