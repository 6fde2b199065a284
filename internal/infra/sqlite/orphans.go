package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// InsertBatch atomically creates the batch row and every line row. Lines
// flagged invalid are inserted like any other: ingestion never drops data,
// it records the problem in the note for later manual repair.
func (s *Store) InsertBatch(ctx context.Context, reference string, lines []domain.RawLine) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("InsertBatch: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orphan_transactions (reference, imported_at, status) VALUES (?, ?, ?)`,
		reference, time.Now().UTC().Format(time.RFC3339), domain.BatchNew)
	if err != nil {
		return 0, fmt.Errorf("InsertBatch: inserting batch: %w", err)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("InsertBatch: batch id: %w", err)
	}

	for i, line := range lines {
		if err := insertOrphanLine(ctx, tx, batchID, line); err != nil {
			return 0, fmt.Errorf("InsertBatch: line %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("InsertBatch: commit: %w", err)
	}
	return batchID, nil
}

func insertOrphanLine(ctx context.Context, q querier, batchID int64, line domain.RawLine) error {
	var debit, credit sql.NullFloat64
	if line.Amount.Value == 0 {
		// Amount never parsed; only an invalid line may be stored amountless.
		if line.Valid {
			return fmt.Errorf("valid line with zero amount: %w", domain.ErrValidation)
		}
		debit, credit = zeroAmountColumns()
	} else {
		if err := line.Amount.Validate(); err != nil {
			return err
		}
		debit, credit = amountColumns(line.Amount)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO orphan_transaction_lines
			(orphan_transaction_id, description, account_id, debit, credit, date, currency_id, status, valid, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID, line.Description, line.AccountID, debit, credit,
		line.Date.Format(dateLayout), line.CurrencyID, domain.OrphanNew, line.Valid, line.Note)
	if err != nil {
		return fmt.Errorf("inserting orphan line: %w", err)
	}
	return nil
}

// Batch loads one orphan batch header.
func (s *Store) Batch(ctx context.Context, id int64) (*domain.OrphanBatch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, reference, imported_at, status FROM orphan_transactions WHERE id = ?`, id)

	var (
		b        domain.OrphanBatch
		imported string
	)
	if err := row.Scan(&b.ID, &b.Reference, &imported, &b.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Batch: orphan batch %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Batch: scan: %w", err)
	}
	t, err := time.Parse(time.RFC3339, imported)
	if err != nil {
		return nil, fmt.Errorf("Batch: parsing imported_at %q: %w", imported, err)
	}
	b.ImportedAt = t
	return &b, nil
}

// LineFilter narrows ListLines. Nil fields mean "any".
type LineFilter struct {
	BatchID *int64
	Status  *domain.OrphanLineStatus
}

// ListLines returns orphan lines matching the filter, oldest first.
func (s *Store) ListLines(ctx context.Context, f LineFilter) ([]domain.OrphanLine, error) {
	var (
		where []string
		args  []any
	)
	if f.BatchID != nil {
		where = append(where, "orphan_transaction_id = ?")
		args = append(args, *f.BatchID)
	}
	if f.Status != nil {
		if !domain.ValidOrphanLineStatus(*f.Status) {
			return nil, fmt.Errorf("ListLines: status %q: %w", *f.Status, domain.ErrValidation)
		}
		where = append(where, "status = ?")
		args = append(args, *f.Status)
	}

	query := `
		SELECT id, orphan_transaction_id, description, account_id, debit, credit,
		       date, currency_id, status, transaction_id, valid, note
		FROM orphan_transaction_lines`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListLines: query: %w", err)
	}
	defer rows.Close()

	var out []domain.OrphanLine
	for rows.Next() {
		line, err := scanOrphanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("ListLines: %w", err)
		}
		out = append(out, *line)
	}
	return out, rows.Err()
}

// OrphanLine loads a single line regardless of status.
func (s *Store) OrphanLine(ctx context.Context, id int64) (*domain.OrphanLine, error) {
	return orphanLine(ctx, s.db, id)
}

func orphanLine(ctx context.Context, q querier, id int64) (*domain.OrphanLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, orphan_transaction_id, description, account_id, debit, credit,
		       date, currency_id, status, transaction_id, valid, note
		FROM orphan_transaction_lines
		WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("orphan line %d: query: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("orphan line %d: %w", id, err)
		}
		return nil, fmt.Errorf("orphan line %d: %w", id, domain.ErrNotFound)
	}
	return scanOrphanLine(rows)
}

func scanOrphanLine(rows *sql.Rows) (*domain.OrphanLine, error) {
	var (
		l             domain.OrphanLine
		debit, credit sql.NullFloat64
		date          string
	)
	if err := rows.Scan(&l.ID, &l.BatchID, &l.Description, &l.AccountID, &debit, &credit,
		&date, &l.CurrencyID, &l.Status, &l.TransactionID, &l.Valid, &l.Note); err != nil {
		return nil, fmt.Errorf("scanning orphan line: %w", err)
	}

	switch {
	case !debit.Valid && !credit.Valid:
		if l.Valid {
			return nil, fmt.Errorf("orphan line %d: neither debit nor credit populated: %w", l.ID, domain.ErrValidation)
		}
		// Invalid lines may be stored amountless; a zero debit keeps the
		// zero value inert (Validate rejects it downstream).
		l.Amount = domain.Amount{Side: domain.Debit}
	default:
		a, err := amountFromColumns(debit, credit)
		if err != nil {
			return nil, fmt.Errorf("orphan line %d: %w", l.ID, err)
		}
		l.Amount = a
	}

	d, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("orphan line %d: %w", l.ID, err)
	}
	l.Date = d
	return &l, nil
}

// ConsumeLine transitions one line new→consumed and stamps the consuming
// transaction. The transition is a compare-and-swap on status: when another
// caller got there first (or the line never existed) zero rows match and the
// caller sees ErrNotFound, closing the load/mark race.
func (s *Store) ConsumeLine(ctx context.Context, lineID, transactionID int64) error {
	return consumeOrphanLine(ctx, s.db, lineID, transactionID)
}

func consumeOrphanLine(ctx context.Context, q querier, lineID, transactionID int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE orphan_transaction_lines
		SET status = ?, transaction_id = ?
		WHERE id = ? AND status = ?`,
		domain.OrphanConsumed, transactionID, lineID, domain.OrphanNew)
	if err != nil {
		return fmt.Errorf("consuming orphan line %d: %w", lineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consuming orphan line %d: rows affected: %w", lineID, err)
	}
	if n == 0 {
		return fmt.Errorf("orphan line %d is not reconcilable (missing or not status=new): %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// SetLineStatus moves one line to the given status after validating it
// against the allowed set.
func (s *Store) SetLineStatus(ctx context.Context, lineID int64, status domain.OrphanLineStatus) error {
	if !domain.ValidOrphanLineStatus(status) {
		return fmt.Errorf("SetLineStatus: status %q: %w", status, domain.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE orphan_transaction_lines SET status = ? WHERE id = ?`, status, lineID)
	if err != nil {
		return fmt.Errorf("SetLineStatus: updating line %d: %w", lineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetLineStatus: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("SetLineStatus: orphan line %d: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// SetBatchStatus moves one batch to the given status after validating it
// against the allowed set.
func (s *Store) SetBatchStatus(ctx context.Context, batchID int64, status domain.BatchStatus) error {
	if !domain.ValidBatchStatus(status) {
		return fmt.Errorf("SetBatchStatus: status %q: %w", status, domain.ErrValidation)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE orphan_transactions SET status = ? WHERE id = ?`, status, batchID)
	if err != nil {
		return fmt.Errorf("SetBatchStatus: updating batch %d: %w", batchID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetBatchStatus: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("SetBatchStatus: orphan batch %d: %w", batchID, domain.ErrNotFound)
	}
	return nil
}
