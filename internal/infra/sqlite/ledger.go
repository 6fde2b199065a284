package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// CreateTransaction inserts a transaction and all of its lines as one atomic
// unit. Either every line is persisted or none are.
func (s *Store) CreateTransaction(ctx context.Context, description string, currencyID int64, lines []domain.LineInput) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("CreateTransaction: begin: %w", err)
	}
	defer tx.Rollback()

	txID, err := insertTransaction(ctx, tx, description, currencyID)
	if err != nil {
		return 0, fmt.Errorf("CreateTransaction: %w", err)
	}
	for i, in := range lines {
		if _, err := insertLine(ctx, tx, txID, in); err != nil {
			return 0, fmt.Errorf("CreateTransaction: line %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("CreateTransaction: commit: %w", err)
	}
	return txID, nil
}

// Transaction loads one transaction header by id.
func (s *Store) Transaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, description, currency_id FROM transactions WHERE id = ?`, id)

	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.Description, &t.CurrencyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Transaction: transaction %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Transaction: scan: %w", err)
	}
	return &t, nil
}

// AddLine appends one line to an existing transaction.
func (s *Store) AddLine(ctx context.Context, txID int64, in domain.LineInput) (int64, error) {
	id, err := insertLine(ctx, s.db, txID, in)
	if err != nil {
		return 0, fmt.Errorf("AddLine: %w", err)
	}
	return id, nil
}

// UpdateLine rewrites the caller-supplied fields of an existing line.
func (s *Store) UpdateLine(ctx context.Context, lineID int64, in domain.LineInput) error {
	if err := in.Amount.Validate(); err != nil {
		return fmt.Errorf("UpdateLine: %w", err)
	}
	debit, credit := amountColumns(in.Amount)
	res, err := s.db.ExecContext(ctx, `
		UPDATE transaction_lines
		SET account_id = ?, debit = ?, credit = ?, date = ?, classification_id = ?
		WHERE id = ?`,
		in.AccountID, debit, credit, in.Date.Format(dateLayout), in.ClassificationID, lineID)
	if err != nil {
		return fmt.Errorf("UpdateLine: updating line %d: %w", lineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateLine: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateLine: transaction line %d: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// DeleteLine removes one line.
func (s *Store) DeleteLine(ctx context.Context, lineID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transaction_lines WHERE id = ?`, lineID)
	if err != nil {
		return fmt.Errorf("DeleteLine: deleting line %d: %w", lineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteLine: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteLine: transaction line %d: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// LinesForTransaction returns a transaction's lines ordered by insertion.
func (s *Store) LinesForTransaction(ctx context.Context, txID int64) ([]domain.TransactionLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, account_id, debit, credit, date, classification_id
		FROM transaction_lines
		WHERE transaction_id = ?
		ORDER BY id ASC`, txID)
	if err != nil {
		return nil, fmt.Errorf("LinesForTransaction: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TransactionLine
	for rows.Next() {
		var (
			l             domain.TransactionLine
			debit, credit sql.NullFloat64
			date          string
		)
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.AccountID, &debit, &credit, &date, &l.ClassificationID); err != nil {
			return nil, fmt.Errorf("LinesForTransaction: scan: %w", err)
		}
		l.Amount, err = amountFromColumns(debit, credit)
		if err != nil {
			return nil, fmt.Errorf("LinesForTransaction: line %d: %w", l.ID, err)
		}
		l.Date, err = parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("LinesForTransaction: line %d: %w", l.ID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func insertTransaction(ctx context.Context, q querier, description string, currencyID int64) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO transactions (description, currency_id) VALUES (?, ?)`,
		description, currencyID)
	if err != nil {
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

func insertLine(ctx context.Context, q querier, txID int64, in domain.LineInput) (int64, error) {
	if err := in.Amount.Validate(); err != nil {
		return 0, err
	}
	debit, credit := amountColumns(in.Amount)
	res, err := q.ExecContext(ctx, `
		INSERT INTO transaction_lines (transaction_id, account_id, debit, credit, date, classification_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		txID, in.AccountID, debit, credit, in.Date.Format(dateLayout), in.ClassificationID)
	if err != nil {
		return 0, fmt.Errorf("inserting line: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("line id: %w", err)
	}
	return id, nil
}
