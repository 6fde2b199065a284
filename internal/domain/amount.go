package domain

import (
	"fmt"
)

// Side says which side of a double entry a money amount sits on.
type Side int

const (
	Debit Side = iota
	Credit
)

func (s Side) String() string {
	switch s {
	case Debit:
		return "debit"
	case Credit:
		return "credit"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Amount is a monetary value pinned to one side of an entry. The legacy
// schema keeps two nullable debit/credit columns; in memory exactly one side
// exists, so "both populated" cannot occur.
type Amount struct {
	Side  Side
	Value float64
}

// DebitOf returns a debit-side amount.
func DebitOf(v float64) Amount { return Amount{Side: Debit, Value: v} }

// CreditOf returns a credit-side amount.
func CreditOf(v float64) Amount { return Amount{Side: Credit, Value: v} }

// Validate rejects non-positive values. A zero or negative amount on either
// side is malformed input, never a representation of the opposite side.
func (a Amount) Validate() error {
	if a.Value <= 0 {
		return fmt.Errorf("amount must be strictly positive, got %v %s: %w", a.Value, a.Side, ErrValidation)
	}
	if a.Side != Debit && a.Side != Credit {
		return fmt.Errorf("unknown amount side %d: %w", int(a.Side), ErrValidation)
	}
	return nil
}

// Signed returns the value as debit-minus-credit: positive for debits,
// negative for credits.
func (a Amount) Signed() float64 {
	if a.Side == Credit {
		return -a.Value
	}
	return a.Value
}

// Opposite returns the exact offsetting amount on the other side.
func (a Amount) Opposite() Amount {
	if a.Side == Debit {
		return Amount{Side: Credit, Value: a.Value}
	}
	return Amount{Side: Debit, Value: a.Value}
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %.2f", a.Side, a.Value)
}
