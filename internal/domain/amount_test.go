package domain

import (
	"errors"
	"testing"
)

func TestAmountValidate(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		wantErr bool
	}{
		{name: "positive debit", amount: DebitOf(12.50), wantErr: false},
		{name: "positive credit", amount: CreditOf(0.01), wantErr: false},
		{name: "zero debit", amount: DebitOf(0), wantErr: true},
		{name: "negative credit", amount: CreditOf(-3), wantErr: true},
		{name: "unknown side", amount: Amount{Side: Side(7), Value: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.amount.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestAmountSigned(t *testing.T) {
	if got := DebitOf(5).Signed(); got != 5 {
		t.Errorf("debit Signed() = %v, want 5", got)
	}
	if got := CreditOf(5).Signed(); got != -5 {
		t.Errorf("credit Signed() = %v, want -5", got)
	}
}

func TestAmountOpposite(t *testing.T) {
	d := DebitOf(42.17)
	c := d.Opposite()
	if c.Side != Credit || c.Value != 42.17 {
		t.Errorf("Opposite() = %+v, want credit 42.17", c)
	}
	if back := c.Opposite(); back != d {
		t.Errorf("Opposite() round trip = %+v, want %+v", back, d)
	}
}

func TestStatusSets(t *testing.T) {
	if !ValidOrphanLineStatus(OrphanConsumed) {
		t.Error("consumed should be a valid line status")
	}
	if ValidOrphanLineStatus("done") {
		t.Error("'done' should not be a valid line status")
	}
	if !ValidBatchStatus(BatchProcessed) {
		t.Error("processed should be a valid batch status")
	}
	if ValidBatchStatus("consumed") {
		t.Error("'consumed' is a line status, not a batch status")
	}
}
