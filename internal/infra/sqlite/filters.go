package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// Filter profiles persist named orphan-listing filters. A profile's criteria
// convert back into the same LineFilter ListLines takes.

// SaveFilterProfile stores a profile and its criteria atomically. The profile
// name is unique; criteria are validated up front.
func (s *Store) SaveFilterProfile(ctx context.Context, name string, criteria []domain.FilterCriterion) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("SaveFilterProfile: empty profile name: %w", domain.ErrValidation)
	}
	for _, c := range criteria {
		if err := c.Validate(); err != nil {
			return 0, fmt.Errorf("SaveFilterProfile: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("SaveFilterProfile: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO filter_profiles (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("SaveFilterProfile: inserting profile: %w", err)
	}
	profileID, err := lastID(res, "SaveFilterProfile")
	if err != nil {
		return 0, err
	}

	for _, c := range criteria {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO filter_criteria (profile_id, field, op, value) VALUES (?, ?, ?, ?)`,
			profileID, c.Field, c.Op, c.Value)
		if err != nil {
			return 0, fmt.Errorf("SaveFilterProfile: inserting criterion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("SaveFilterProfile: commit: %w", err)
	}
	return profileID, nil
}

// FilterProfileByName loads a profile and its criteria.
func (s *Store) FilterProfileByName(ctx context.Context, name string) (*domain.FilterProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name FROM filter_profiles WHERE name = ?`, name)
	var p domain.FilterProfile
	if err := row.Scan(&p.ID, &p.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FilterProfileByName: profile %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("FilterProfileByName: scan: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT field, op, value FROM filter_criteria WHERE profile_id = ? ORDER BY id ASC`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("FilterProfileByName: query criteria: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.FilterCriterion
		if err := rows.Scan(&c.Field, &c.Op, &c.Value); err != nil {
			return nil, fmt.Errorf("FilterProfileByName: scan criterion: %w", err)
		}
		p.Criteria = append(p.Criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FilterProfileByName: %w", err)
	}
	return &p, nil
}

// ListFilterProfiles returns the profile names, without criteria.
func (s *Store) ListFilterProfiles(ctx context.Context) ([]domain.FilterProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM filter_profiles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListFilterProfiles: query: %w", err)
	}
	defer rows.Close()

	var out []domain.FilterProfile
	for rows.Next() {
		var p domain.FilterProfile
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("ListFilterProfiles: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteFilterProfile removes a profile and its criteria.
func (s *Store) DeleteFilterProfile(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteFilterProfile: begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT id FROM filter_profiles WHERE name = ?`, name)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("DeleteFilterProfile: profile %q: %w", name, domain.ErrNotFound)
		}
		return fmt.Errorf("DeleteFilterProfile: scan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM filter_criteria WHERE profile_id = ?`, id); err != nil {
		return fmt.Errorf("DeleteFilterProfile: deleting criteria: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM filter_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("DeleteFilterProfile: deleting profile: %w", err)
	}
	return tx.Commit()
}

// LineFilterFromCriteria converts saved criteria into the filter shape
// ListLines takes.
func LineFilterFromCriteria(criteria []domain.FilterCriterion) (LineFilter, error) {
	var f LineFilter
	for _, c := range criteria {
		if err := c.Validate(); err != nil {
			return LineFilter{}, fmt.Errorf("LineFilterFromCriteria: %w", err)
		}
		switch c.Field {
		case domain.FilterFieldBatch:
			id, err := strconv.ParseInt(c.Value, 10, 64)
			if err != nil {
				return LineFilter{}, fmt.Errorf("LineFilterFromCriteria: batch id %q: %w", c.Value, domain.ErrValidation)
			}
			f.BatchID = &id
		case domain.FilterFieldStatus:
			status := domain.OrphanLineStatus(c.Value)
			if !domain.ValidOrphanLineStatus(status) {
				return LineFilter{}, fmt.Errorf("LineFilterFromCriteria: status %q: %w", c.Value, domain.ErrValidation)
			}
			f.Status = &status
		}
	}
	return f, nil
}

// CriteriaFromLineFilter is the inverse of LineFilterFromCriteria, used when
// saving the currently applied filter as a profile.
func CriteriaFromLineFilter(f LineFilter) []domain.FilterCriterion {
	var out []domain.FilterCriterion
	if f.BatchID != nil {
		out = append(out, domain.FilterCriterion{
			Field: domain.FilterFieldBatch,
			Op:    domain.FilterOpEq,
			Value: strconv.FormatInt(*f.BatchID, 10),
		})
	}
	if f.Status != nil {
		out = append(out, domain.FilterCriterion{
			Field: domain.FilterFieldStatus,
			Op:    domain.FilterOpEq,
			Value: string(*f.Status),
		})
	}
	return out
}
