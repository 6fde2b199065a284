package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// amountColumns maps a tagged amount onto the legacy two-column layout:
// the populated side carries the value, the other stays NULL.
func amountColumns(a domain.Amount) (debit, credit sql.NullFloat64) {
	if a.Side == domain.Debit {
		return sql.NullFloat64{Float64: a.Value, Valid: true}, sql.NullFloat64{}
	}
	return sql.NullFloat64{}, sql.NullFloat64{Float64: a.Value, Valid: true}
}

// amountFromColumns rebuilds the tagged amount from the two nullable
// columns. A row with both sides populated violates the application
// convention and is reported, not silently repaired.
func amountFromColumns(debit, credit sql.NullFloat64) (domain.Amount, error) {
	switch {
	case debit.Valid && credit.Valid:
		return domain.Amount{}, fmt.Errorf("both debit (%v) and credit (%v) populated: %w",
			debit.Float64, credit.Float64, domain.ErrValidation)
	case debit.Valid:
		return domain.DebitOf(debit.Float64), nil
	case credit.Valid:
		return domain.CreditOf(credit.Float64), nil
	default:
		return domain.Amount{}, fmt.Errorf("neither debit nor credit populated: %w", domain.ErrValidation)
	}
}

// zeroAmountColumns is the stored shape of a line whose amount never parsed:
// both sides NULL. Only orphan lines flagged invalid may carry it.
func zeroAmountColumns() (debit, credit sql.NullFloat64) {
	return sql.NullFloat64{}, sql.NullFloat64{}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored date %q: %w", s, err)
	}
	return d, nil
}
