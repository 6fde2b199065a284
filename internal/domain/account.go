package domain

// AccountNature constrains which side of a transaction line an account may
// legally appear on.
type AccountNature string

const (
	NatureDebit  AccountNature = "debit"
	NatureCredit AccountNature = "credit"
	NatureBoth   AccountNature = "both"
)

// Account is a ledger account. Name uniqueness is a practical convention,
// not a schema constraint.
type Account struct {
	ID         int64
	Name       string
	CategoryID int64
	CurrencyID *int64 // default currency, optional
	Nature     AccountNature
	Term       string // informational term classification
}

// Currency as stored; ExchangeRate is recorded but the reconciliation core
// does no cross-currency conversion with it.
type Currency struct {
	ID           int64
	Name         string
	ExchangeRate float64
}

// Classification is a user-defined tag attachable to transaction lines and,
// via account_classifications, to accounts.
type Classification struct {
	ID   int64
	Name string
}

// Counterpart is a candidate account surfaced by the suggestion history
// queries.
type Counterpart struct {
	AccountID   int64
	AccountName string
}
