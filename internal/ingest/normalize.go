package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// dateLayouts are tried in order when parsing statement dates.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02.01.2006",
	"Jan 2, 2006",
}

// parseAmount turns a statement amount string into a signed float. Decimal
// parsing sidesteps float text quirks; thousands separators and currency
// padding are stripped first.
func parseAmount(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	clean = strings.ReplaceAll(clean, " ", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount: %w", domain.ErrValidation)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, domain.ErrValidation)
	}
	return d.InexactFloat64(), nil
}

// parseSignedAmount maps a single signed amount column onto a side:
// positive is a debit on the statement account, negative a credit.
func parseSignedAmount(s string) (domain.Amount, error) {
	v, err := parseAmount(s)
	if err != nil {
		return domain.Amount{}, err
	}
	switch {
	case v > 0:
		return domain.DebitOf(v), nil
	case v < 0:
		return domain.CreditOf(-v), nil
	default:
		return domain.Amount{}, fmt.Errorf("amount %q is zero: %w", s, domain.ErrValidation)
	}
}

// parseSplitAmount maps separate debit/credit columns onto a side. Exactly
// one of the two cells may hold a value.
func parseSplitAmount(debit, credit string) (domain.Amount, error) {
	debit = strings.TrimSpace(debit)
	credit = strings.TrimSpace(credit)
	switch {
	case debit != "" && credit != "":
		return domain.Amount{}, fmt.Errorf("both debit %q and credit %q present: %w", debit, credit, domain.ErrValidation)
	case debit != "":
		v, err := parseAmount(debit)
		if err != nil {
			return domain.Amount{}, err
		}
		a := domain.DebitOf(v)
		return a, a.Validate()
	case credit != "":
		v, err := parseAmount(credit)
		if err != nil {
			return domain.Amount{}, err
		}
		a := domain.CreditOf(v)
		return a, a.Validate()
	default:
		return domain.Amount{}, fmt.Errorf("neither debit nor credit present: %w", domain.ErrValidation)
	}
}

func parseStatementDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q matches no known layout: %w", s, domain.ErrValidation)
}
