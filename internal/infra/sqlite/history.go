package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// History queries for the counterpart suggestion engine. Each query pairs a
// line on the orphan's side with a line on the opposite side of the same
// transaction and returns the distinct opposite-side accounts. Read-only.

// counterpartQuery builds the shared pairing query. sideCol is the column
// populated on the orphan's own side, counterCol the opposite one; extra is
// an additional predicate over t/tl1.
func counterpartQuery(isCredit bool, extra string) string {
	sideCol, counterCol := "debit", "credit"
	if isCredit {
		sideCol, counterCol = "credit", "debit"
	}
	return fmt.Sprintf(`
		SELECT tl2.account_id, a.name
		FROM transactions t
		JOIN transaction_lines tl1
			ON tl1.transaction_id = t.id AND tl1.%s IS NOT NULL
		JOIN transaction_lines tl2
			ON tl2.transaction_id = t.id AND tl2.id <> tl1.id AND tl2.%s IS NOT NULL
		JOIN accounts a ON a.id = tl2.account_id
		WHERE %s
		GROUP BY tl2.account_id, a.name
		ORDER BY COUNT(*) DESC, MAX(tl1.date) DESC, tl2.account_id ASC
		LIMIT ?`, sideCol, counterCol, extra)
}

// CounterpartsByDescription finds counterpart accounts of past transactions
// whose description equals desc case-insensitively, most frequent first.
func (s *Store) CounterpartsByDescription(ctx context.Context, desc string, isCredit bool, limit int) ([]domain.Counterpart, error) {
	query := counterpartQuery(isCredit, `LOWER(t.description) = LOWER(?)`)
	return s.queryCounterparts(ctx, "CounterpartsByDescription", query, desc, limit)
}

// CounterpartsByKeyword is the substring variant of the pairing query.
func (s *Store) CounterpartsByKeyword(ctx context.Context, keyword string, isCredit bool, limit int) ([]domain.Counterpart, error) {
	query := counterpartQuery(isCredit, `t.description LIKE ? ESCAPE '\'`)
	return s.queryCounterparts(ctx, "CounterpartsByKeyword", query, "%"+escapeLike(keyword)+"%", limit)
}

// CounterpartsByAmount finds counterparts of past transactions whose
// own-side line amount falls within [lo, hi].
func (s *Store) CounterpartsByAmount(ctx context.Context, lo, hi float64, isCredit bool, limit int) ([]domain.Counterpart, error) {
	sideCol := "debit"
	if isCredit {
		sideCol = "credit"
	}
	query := counterpartQuery(isCredit, fmt.Sprintf(`tl1.%s BETWEEN ? AND ?`, sideCol))
	rows, err := s.db.QueryContext(ctx, query, lo, hi, limit)
	if err != nil {
		return nil, fmt.Errorf("CounterpartsByAmount: query: %w", err)
	}
	return collectCounterparts("CounterpartsByAmount", rows)
}

// RecentAccounts returns the accounts most recently used on any transaction
// line, newest first.
func (s *Store) RecentAccounts(ctx context.Context, limit int) ([]domain.Counterpart, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tl.account_id, a.name
		FROM transaction_lines tl
		JOIN accounts a ON a.id = tl.account_id
		GROUP BY tl.account_id, a.name
		ORDER BY MAX(tl.date) DESC, MAX(tl.id) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentAccounts: query: %w", err)
	}
	return collectCounterparts("RecentAccounts", rows)
}

func (s *Store) queryCounterparts(ctx context.Context, op, query string, needle string, limit int) ([]domain.Counterpart, error) {
	rows, err := s.db.QueryContext(ctx, query, needle, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	return collectCounterparts(op, rows)
}

func collectCounterparts(op string, rows *sql.Rows) ([]domain.Counterpart, error) {
	defer rows.Close()

	var out []domain.Counterpart
	for rows.Next() {
		var c domain.Counterpart
		if err := rows.Scan(&c.AccountID, &c.AccountName); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
