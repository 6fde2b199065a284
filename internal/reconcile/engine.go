package reconcile

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// balanceEpsilon bounds the debit/credit net below which a set of lines
// counts as balanced. Amounts arrive as floats from statement files, so the
// comparison cannot be exact-zero.
const balanceEpsilon = 0.001

// TxStore is the slice of storage the engine needs inside one atomic unit.
type TxStore interface {
	// OrphanLine loads a line regardless of status; ErrNotFound when the id
	// does not resolve.
	OrphanLine(ctx context.Context, id int64) (*domain.OrphanLine, error)
	// InsertTransaction creates the transaction header.
	InsertTransaction(ctx context.Context, description string, currencyID int64) (int64, error)
	// InsertLine creates one transaction line.
	InsertLine(ctx context.Context, txID, accountID int64, amount domain.Amount, date time.Time, classificationID *int64) (int64, error)
	// ConsumeLine transitions a line new→consumed, ErrNotFound when the line
	// is missing or no longer new.
	ConsumeLine(ctx context.Context, lineID, transactionID int64) error
}

// Store provides atomic execution: fn either commits as a whole or leaves no
// trace.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx TxStore) error) error
}

// Engine folds orphan lines into balanced ledger transactions.
type Engine struct {
	store Store
}

// NewEngine creates a reconciliation engine over the store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// CreateFromOrphans converts the given orphan lines into one balanced
// transaction. Every orphan line must be resolvable, flagged valid and in
// status new; anything else is a hard error, never a silent skip. Skipping
// would let the caller believe a line was processed when it was not.
//
// All resulting lines carry balancingDate: dates normalize to one value per
// transaction. When the lines do not net to zero, exactly one synthetic
// balancing line on balancingAccountID absorbs the imbalance.
func (e *Engine) CreateFromOrphans(ctx context.Context, description string, currencyID int64, orphanLineIDs []int64, balancingAccountID int64, balancingDate time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	if len(orphanLineIDs) == 0 {
		return 0, fmt.Errorf("CreateFromOrphans: no orphan lines given: %w", domain.ErrValidation)
	}
	seen := make(map[int64]bool, len(orphanLineIDs))
	for _, id := range orphanLineIDs {
		if seen[id] {
			return 0, fmt.Errorf("CreateFromOrphans: orphan line %d listed twice: %w", id, domain.ErrValidation)
		}
		seen[id] = true
	}

	var txID int64
	err := e.store.RunInTx(ctx, func(tx TxStore) error {
		lines := make([]*domain.OrphanLine, 0, len(orphanLineIDs))
		for _, id := range orphanLineIDs {
			line, err := tx.OrphanLine(ctx, id)
			if err != nil {
				return fmt.Errorf("CreateFromOrphans: %w", err)
			}
			if err := eligible(line); err != nil {
				return fmt.Errorf("CreateFromOrphans: %w", err)
			}
			lines = append(lines, line)
		}

		var imbalance float64
		for _, line := range lines {
			imbalance += line.Amount.Signed()
		}

		id, err := tx.InsertTransaction(ctx, description, currencyID)
		if err != nil {
			return fmt.Errorf("CreateFromOrphans: %w", err)
		}

		for _, line := range lines {
			if _, err := tx.InsertLine(ctx, id, *line.AccountID, line.Amount, balancingDate, nil); err != nil {
				return fmt.Errorf("CreateFromOrphans: orphan line %d: %w", line.ID, err)
			}
			if err := tx.ConsumeLine(ctx, line.ID, id); err != nil {
				return fmt.Errorf("CreateFromOrphans: %w", err)
			}
		}

		if math.Abs(imbalance) > balanceEpsilon {
			balancing := domain.CreditOf(imbalance)
			if imbalance < 0 {
				balancing = domain.DebitOf(-imbalance)
			}
			if _, err := tx.InsertLine(ctx, id, balancingAccountID, balancing, balancingDate, nil); err != nil {
				return fmt.Errorf("CreateFromOrphans: balancing line: %w", err)
			}
			log.Debug().
				Int64("transaction_id", id).
				Float64("imbalance", imbalance).
				Str("balancing_side", balancing.Side.String()).
				Msg("inserted balancing line")
		}

		txID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("transaction_id", txID).
		Int("orphan_lines", len(orphanLineIDs)).
		Msg("reconciled orphan lines into transaction")
	return txID, nil
}

// ReconcileLine folds a single orphan line into a two-line transaction: the
// line's own entry plus the exact offsetting entry on the chosen counterpart
// account. Description, currency and date come from the orphan line itself.
func (e *Engine) ReconcileLine(ctx context.Context, orphanLineID, counterpartAccountID int64) (int64, error) {
	log := logger.FromContext(ctx)

	var txID int64
	err := e.store.RunInTx(ctx, func(tx TxStore) error {
		line, err := tx.OrphanLine(ctx, orphanLineID)
		if err != nil {
			return fmt.Errorf("ReconcileLine: %w", err)
		}
		if err := eligible(line); err != nil {
			return fmt.Errorf("ReconcileLine: %w", err)
		}

		id, err := tx.InsertTransaction(ctx, line.Description, line.CurrencyID)
		if err != nil {
			return fmt.Errorf("ReconcileLine: %w", err)
		}
		if _, err := tx.InsertLine(ctx, id, *line.AccountID, line.Amount, line.Date, nil); err != nil {
			return fmt.Errorf("ReconcileLine: original entry: %w", err)
		}
		if _, err := tx.InsertLine(ctx, id, counterpartAccountID, line.Amount.Opposite(), line.Date, nil); err != nil {
			return fmt.Errorf("ReconcileLine: counterpart entry: %w", err)
		}
		if err := tx.ConsumeLine(ctx, line.ID, id); err != nil {
			return fmt.Errorf("ReconcileLine: %w", err)
		}

		txID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("transaction_id", txID).
		Int64("orphan_line_id", orphanLineID).
		Int64("counterpart_account_id", counterpartAccountID).
		Msg("reconciled single orphan line")
	return txID, nil
}

// eligible checks the preconditions an orphan line must meet before it can
// be folded into a transaction.
func eligible(line *domain.OrphanLine) error {
	if line.Status != domain.OrphanNew {
		return fmt.Errorf("orphan line %d has status %q, want %q: %w",
			line.ID, line.Status, domain.OrphanNew, domain.ErrInvalidState)
	}
	if !line.Valid {
		return fmt.Errorf("orphan line %d is flagged invalid (%s), fix it before reconciling: %w",
			line.ID, line.Note, domain.ErrValidation)
	}
	if line.AccountID == nil {
		return fmt.Errorf("orphan line %d has no resolved account: %w", line.ID, domain.ErrValidation)
	}
	return line.Amount.Validate()
}
