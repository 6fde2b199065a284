package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/reconcile"
)

// Tx exposes the row-level operations of one in-flight database transaction.
// It implements reconcile.TxStore so the whole reconciliation sequence
// shares a single begin/commit/rollback unit.
type Tx struct {
	tx *sql.Tx
}

var _ reconcile.TxStore = (*Tx)(nil)
var _ reconcile.Store = (*Store)(nil)

// RunInTx runs fn inside one database transaction. Any error from fn rolls
// the whole unit back; a nil return commits it.
func (s *Store) RunInTx(ctx context.Context, fn func(tx reconcile.TxStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("RunInTx: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("RunInTx: commit: %w", err)
	}
	return nil
}

// OrphanLine loads one orphan line, any status, inside the unit.
func (t *Tx) OrphanLine(ctx context.Context, id int64) (*domain.OrphanLine, error) {
	return orphanLine(ctx, t.tx, id)
}

// InsertTransaction creates the transaction header inside the unit.
func (t *Tx) InsertTransaction(ctx context.Context, description string, currencyID int64) (int64, error) {
	return insertTransaction(ctx, t.tx, description, currencyID)
}

// InsertLine creates one transaction line inside the unit.
func (t *Tx) InsertLine(ctx context.Context, txID, accountID int64, amount domain.Amount, date time.Time, classificationID *int64) (int64, error) {
	return insertLine(ctx, t.tx, txID, domain.LineInput{
		AccountID:        accountID,
		Amount:           amount,
		Date:             date,
		ClassificationID: classificationID,
	})
}

// ConsumeLine performs the compare-and-swap status transition inside the
// unit.
func (t *Tx) ConsumeLine(ctx context.Context, lineID, transactionID int64) error {
	return consumeOrphanLine(ctx, t.tx, lineID, transactionID)
}
