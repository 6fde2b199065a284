package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

func TestSaveAndLoadFilterProfile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	criteria := []domain.FilterCriterion{
		{Field: domain.FilterFieldBatch, Op: domain.FilterOpEq, Value: "7"},
		{Field: domain.FilterFieldStatus, Op: domain.FilterOpEq, Value: "new"},
	}
	id, err := s.SaveFilterProfile(ctx, "fresh imports", criteria)
	if err != nil {
		t.Fatalf("SaveFilterProfile failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero profile id")
	}

	p, err := s.FilterProfileByName(ctx, "fresh imports")
	if err != nil {
		t.Fatalf("FilterProfileByName failed: %v", err)
	}
	if len(p.Criteria) != 2 {
		t.Fatalf("got %d criteria, want 2", len(p.Criteria))
	}

	f, err := LineFilterFromCriteria(p.Criteria)
	if err != nil {
		t.Fatalf("LineFilterFromCriteria failed: %v", err)
	}
	if f.BatchID == nil || *f.BatchID != 7 {
		t.Errorf("got batch filter %v, want 7", f.BatchID)
	}
	if f.Status == nil || *f.Status != domain.OrphanNew {
		t.Errorf("got status filter %v, want new", f.Status)
	}
}

func TestSaveFilterProfileRejectsBadCriteria(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		criteria []domain.FilterCriterion
	}{
		{"unknown field", []domain.FilterCriterion{{Field: "colour", Op: "eq", Value: "red"}}},
		{"unknown op", []domain.FilterCriterion{{Field: "status", Op: "lt", Value: "new"}}},
		{"empty value", []domain.FilterCriterion{{Field: "batch", Op: "eq", Value: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveFilterProfile(ctx, "bad-"+tt.name, tt.criteria)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
		})
	}

	if _, err := s.SaveFilterProfile(ctx, "", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty name: got %v, want ErrValidation", err)
	}
}

func TestLineFilterFromCriteriaRejectsBadValues(t *testing.T) {
	_, err := LineFilterFromCriteria([]domain.FilterCriterion{
		{Field: domain.FilterFieldBatch, Op: domain.FilterOpEq, Value: "seven"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("non-numeric batch: got %v, want ErrValidation", err)
	}

	_, err = LineFilterFromCriteria([]domain.FilterCriterion{
		{Field: domain.FilterFieldStatus, Op: domain.FilterOpEq, Value: "pending"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown status: got %v, want ErrValidation", err)
	}
}

func TestCriteriaRoundTrip(t *testing.T) {
	batch := int64(3)
	status := domain.OrphanIgnored
	in := LineFilter{BatchID: &batch, Status: &status}

	out, err := LineFilterFromCriteria(CriteriaFromLineFilter(in))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if out.BatchID == nil || *out.BatchID != batch {
		t.Errorf("got batch %v, want %d", out.BatchID, batch)
	}
	if out.Status == nil || *out.Status != status {
		t.Errorf("got status %v, want %s", out.Status, status)
	}
}

func TestDeleteFilterProfile(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveFilterProfile(ctx, "temp", []domain.FilterCriterion{
		{Field: domain.FilterFieldStatus, Op: domain.FilterOpEq, Value: "ignored"},
	}); err != nil {
		t.Fatalf("SaveFilterProfile failed: %v", err)
	}

	if err := s.DeleteFilterProfile(ctx, "temp"); err != nil {
		t.Fatalf("DeleteFilterProfile failed: %v", err)
	}
	if _, err := s.FilterProfileByName(ctx, "temp"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after delete", err)
	}
	if err := s.DeleteFilterProfile(ctx, "temp"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}
