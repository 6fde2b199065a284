package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// Plain parameterized accessors for the reference tables. These carry no
// reconciliation logic; the engines reach them mostly through the NameCache.

func (s *Store) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO cat (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("CreateCategory: %w", err)
	}
	return lastID(res, "CreateCategory")
}

func (s *Store) CreateCurrency(ctx context.Context, name string, exchangeRate float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO currency (name, exchange_rate) VALUES (?, ?)`, name, exchangeRate)
	if err != nil {
		return 0, fmt.Errorf("CreateCurrency: %w", err)
	}
	return lastID(res, "CreateCurrency")
}

func (s *Store) CreateAccount(ctx context.Context, a domain.Account) (int64, error) {
	if a.Nature == "" {
		a.Nature = domain.NatureBoth
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (name, cat_id, currency_id, nature, term) VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.CategoryID, a.CurrencyID, a.Nature, a.Term)
	if err != nil {
		return 0, fmt.Errorf("CreateAccount: %w", err)
	}
	return lastID(res, "CreateAccount")
}

func (s *Store) CreateClassification(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO classifications (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("CreateClassification: %w", err)
	}
	return lastID(res, "CreateClassification")
}

// AttachClassification allows a classification to be offered for lines
// against the given account.
func (s *Store) AttachClassification(ctx context.Context, accountID, classificationID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO account_classifications (account_id, classification_id) VALUES (?, ?)`,
		accountID, classificationID)
	if err != nil {
		return fmt.Errorf("AttachClassification: %w", err)
	}
	return nil
}

func (s *Store) Account(ctx context.Context, id int64) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, cat_id, currency_id, nature, term FROM accounts WHERE id = ?`, id)
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Name, &a.CategoryID, &a.CurrencyID, &a.Nature, &a.Term); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Account: account %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Account: scan: %w", err)
	}
	return &a, nil
}

// AccountIDByName resolves an account by exact name. Returns ErrNotFound
// when no account carries the name; if several do (uniqueness is only a
// convention) the lowest id wins.
func (s *Store) AccountIDByName(ctx context.Context, name string) (int64, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE name = ? ORDER BY id ASC LIMIT 1`, name)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("AccountIDByName: account %q: %w", name, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("AccountIDByName: scan: %w", err)
	}
	return id, nil
}

func (s *Store) CurrencyIDByName(ctx context.Context, name string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id FROM currency WHERE name = ?`, name)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("CurrencyIDByName: currency %q: %w", name, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("CurrencyIDByName: scan: %w", err)
	}
	return id, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, cat_id, currency_id, nature, term FROM accounts ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.CategoryID, &a.CurrencyID, &a.Nature, &a.Term); err != nil {
			return nil, fmt.Errorf("ListAccounts: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ClassificationsForAccount lists the classifications attached to an
// account, i.e. the ones a line against it may carry.
func (s *Store) ClassificationsForAccount(ctx context.Context, accountID int64) ([]domain.Classification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name
		FROM classifications c
		JOIN account_classifications ac ON ac.classification_id = c.id
		WHERE ac.account_id = ?
		ORDER BY c.name ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("ClassificationsForAccount: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Classification
	for rows.Next() {
		var c domain.Classification
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("ClassificationsForAccount: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AccountHasTransactions reports whether any transaction line references the
// account. Deleting an account does not cascade: callers must check first.
func (s *Store) AccountHasTransactions(ctx context.Context, accountID int64) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transaction_lines WHERE account_id = ?)`, accountID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("AccountHasTransactions: scan: %w", err)
	}
	return exists, nil
}

// DeleteAccount removes an account after verifying nothing depends on it:
// no credit card record and no transaction lines.
func (s *Store) DeleteAccount(ctx context.Context, accountID int64) error {
	var hasCard bool
	row := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ccards WHERE account_id = ?)`, accountID)
	if err := row.Scan(&hasCard); err != nil {
		return fmt.Errorf("DeleteAccount: checking credit cards: %w", err)
	}
	if hasCard {
		return fmt.Errorf("DeleteAccount: account %d still has a credit card record: %w", accountID, domain.ErrInvalidState)
	}

	used, err := s.AccountHasTransactions(ctx, accountID)
	if err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	if used {
		return fmt.Errorf("DeleteAccount: account %d still has transaction lines: %w", accountID, domain.ErrInvalidState)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("DeleteAccount: deleting account %d: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteAccount: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteAccount: account %d: %w", accountID, domain.ErrNotFound)
	}
	return nil
}

func lastID(res sql.Result, op string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	return id, nil
}
