package domain

import "time"

// Transaction represents one balanced economic event. The balance invariant
// (lines net to zero debit minus credit) is enforced by the reconciliation
// engine, not by the schema.
type Transaction struct {
	ID          int64
	Description string
	CurrencyID  int64
}

// TransactionLine is one side of a double entry inside a transaction.
type TransactionLine struct {
	ID               int64
	TransactionID    int64
	AccountID        int64
	Amount           Amount
	Date             time.Time
	ClassificationID *int64
}

// LineInput carries the caller-supplied fields for a new or updated
// transaction line.
type LineInput struct {
	AccountID        int64
	Amount           Amount
	Date             time.Time
	ClassificationID *int64
}
