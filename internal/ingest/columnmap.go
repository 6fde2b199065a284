package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// ColumnMap assigns CSV column indexes to statement fields. -1 marks an
// absent column. Either Amount (signed, positive = debit) or the separate
// Debit/Credit pair must be mapped, not both.
type ColumnMap struct {
	Date        int
	Description int
	Amount      int
	Debit       int
	Credit      int
	Account     int
	Currency    int
}

// DefaultColumnMap matches the common four-column export:
// date, description, signed amount, account.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{Date: 0, Description: 1, Amount: 2, Account: 3, Currency: -1, Debit: -1, Credit: -1}
}

// ParseColumnMap reads a "field=index" list, e.g.
// "date=0,desc=1,debit=2,credit=3,account=4,currency=5".
func ParseColumnMap(spec string) (ColumnMap, error) {
	m := ColumnMap{Date: -1, Description: -1, Amount: -1, Debit: -1, Credit: -1, Account: -1, Currency: -1}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, idxStr, ok := strings.Cut(part, "=")
		if !ok {
			return ColumnMap{}, fmt.Errorf("ParseColumnMap: %q is not field=index: %w", part, domain.ErrValidation)
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 {
			return ColumnMap{}, fmt.Errorf("ParseColumnMap: bad index in %q: %w", part, domain.ErrValidation)
		}
		switch strings.ToLower(field) {
		case "date":
			m.Date = idx
		case "desc", "description":
			m.Description = idx
		case "amount":
			m.Amount = idx
		case "debit":
			m.Debit = idx
		case "credit":
			m.Credit = idx
		case "account":
			m.Account = idx
		case "currency":
			m.Currency = idx
		default:
			return ColumnMap{}, fmt.Errorf("ParseColumnMap: unknown field %q: %w", field, domain.ErrValidation)
		}
	}
	if err := m.Validate(); err != nil {
		return ColumnMap{}, err
	}
	return m, nil
}

// Validate checks the map names the required fields consistently.
func (m ColumnMap) Validate() error {
	if m.Date < 0 {
		return fmt.Errorf("ColumnMap: date column is required: %w", domain.ErrValidation)
	}
	if m.Description < 0 {
		return fmt.Errorf("ColumnMap: description column is required: %w", domain.ErrValidation)
	}
	hasAmount := m.Amount >= 0
	hasSplit := m.Debit >= 0 || m.Credit >= 0
	if hasAmount && hasSplit {
		return fmt.Errorf("ColumnMap: map either amount or debit/credit, not both: %w", domain.ErrValidation)
	}
	if !hasAmount && !hasSplit {
		return fmt.Errorf("ColumnMap: an amount or debit/credit column is required: %w", domain.ErrValidation)
	}
	return nil
}
