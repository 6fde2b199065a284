package domain

import "fmt"

// FilterProfile is a named, saved set of criteria over the orphan line
// listing.
type FilterProfile struct {
	ID       int64
	Name     string
	Criteria []FilterCriterion
}

// FilterCriterion is one field/operator/value triplet of a profile.
type FilterCriterion struct {
	Field string
	Op    string
	Value string
}

// Fields and operators a criterion may use.
const (
	FilterFieldBatch  = "batch"
	FilterFieldStatus = "status"

	FilterOpEq = "eq"
)

// Validate rejects criteria outside the supported field/operator sets.
func (c FilterCriterion) Validate() error {
	switch c.Field {
	case FilterFieldBatch, FilterFieldStatus:
	default:
		return fmt.Errorf("FilterCriterion.Validate: unknown field %q: %w", c.Field, ErrValidation)
	}
	if c.Op != FilterOpEq {
		return fmt.Errorf("FilterCriterion.Validate: unknown operator %q: %w", c.Op, ErrValidation)
	}
	if c.Value == "" {
		return fmt.Errorf("FilterCriterion.Validate: empty value: %w", ErrValidation)
	}
	return nil
}
