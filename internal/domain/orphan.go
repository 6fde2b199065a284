package domain

import "time"

// BatchStatus is the lifecycle state of an imported orphan batch. Batch
// status is bookkeeping only; reconciliation operates on individual lines.
type BatchStatus string

const (
	BatchNew       BatchStatus = "new"
	BatchProcessed BatchStatus = "processed"
	BatchIgnored   BatchStatus = "ignored"
)

// ValidBatchStatus reports membership in the allowed batch status set.
func ValidBatchStatus(s BatchStatus) bool {
	switch s {
	case BatchNew, BatchProcessed, BatchIgnored:
		return true
	}
	return false
}

// OrphanLineStatus is the lifecycle state of a single imported line.
type OrphanLineStatus string

const (
	// OrphanNew: imported, not yet folded into a ledger transaction.
	OrphanNew OrphanLineStatus = "new"
	// OrphanConsumed: folded into a transaction; TransactionID is set exactly
	// once at consumption time and never cleared.
	OrphanConsumed OrphanLineStatus = "consumed"
	// OrphanIgnored: explicitly discarded by the user.
	OrphanIgnored OrphanLineStatus = "ignored"
)

// ValidOrphanLineStatus reports membership in the allowed line status set.
func ValidOrphanLineStatus(s OrphanLineStatus) bool {
	switch s {
	case OrphanNew, OrphanConsumed, OrphanIgnored:
		return true
	}
	return false
}

// OrphanBatch groups the lines of one import (typically one statement file).
type OrphanBatch struct {
	ID         int64
	Reference  string
	ImportedAt time.Time
	Status     BatchStatus
}

// OrphanLine is an imported statement row awaiting reconciliation.
type OrphanLine struct {
	ID            int64
	BatchID       int64
	Description   string
	AccountID     *int64 // nil when the statement's account name did not resolve
	Amount        Amount
	Date          time.Time
	CurrencyID    int64
	Status        OrphanLineStatus
	TransactionID *int64 // set when consumed
	Valid         bool
	Note          string // why the line is invalid, e.g. the unresolved account name
}

// RawLine is one normalized statement row handed to the orphan store by the
// ingestion layer. Account resolution and field typing already happened;
// a row that failed either step still arrives here, flagged invalid, so no
// data is ever dropped at ingestion time.
type RawLine struct {
	Description string
	AccountID   *int64
	Amount      Amount
	Date        time.Time
	CurrencyID  int64
	Valid       bool
	Note        string
}
