// Package ingest turns delimited statement files into orphan batches. A row
// that cannot be fully normalized is still inserted, flagged invalid with an
// explanatory note: ingestion records problems, it never drops data.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// Resolver maps statement names to ids. Satisfied by sqlite.NameCache.
type Resolver interface {
	AccountID(ctx context.Context, name string) (int64, bool, error)
	CurrencyID(ctx context.Context, name string) (int64, bool, error)
}

// OrphanStore is the slice of storage ingestion writes to.
type OrphanStore interface {
	InsertBatch(ctx context.Context, reference string, lines []domain.RawLine) (int64, error)
}

// Config controls one importer.
type Config struct {
	Columns ColumnMap
	// HasHeader skips the first record.
	HasHeader bool
	// DefaultCurrency names the currency used when the file maps no currency
	// column or a cell does not resolve.
	DefaultCurrency string
}

// Importer runs the ingestion pipeline for statement files.
type Importer struct {
	store    OrphanStore
	resolver Resolver
	cfg      Config
}

// NewImporter creates an importer.
func NewImporter(store OrphanStore, resolver Resolver, cfg Config) (*Importer, error) {
	if err := cfg.Columns.Validate(); err != nil {
		return nil, fmt.Errorf("NewImporter: %w", err)
	}
	if cfg.DefaultCurrency == "" {
		return nil, fmt.Errorf("NewImporter: a default currency is required: %w", domain.ErrValidation)
	}
	return &Importer{store: store, resolver: resolver, cfg: cfg}, nil
}

// Step is a single stage of the ingestion pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state threaded through the pipeline steps.
type State struct {
	Path      string
	Reference string
	Records   [][]string
	RawLines  []domain.RawLine
	BatchID   int64
	// Invalid counts lines flagged invalid during normalization.
	Invalid int
}

// ImportFile ingests one file as a single orphan batch. When reference is
// empty a unique one is derived from the file name. Returns the batch id and
// the number of lines flagged invalid.
func (imp *Importer) ImportFile(ctx context.Context, path, reference string) (int64, int, error) {
	log := logger.FromContext(ctx)

	if reference == "" {
		reference = fmt.Sprintf("%s-%s", filepath.Base(path), uuid.NewString())
	}
	state := &State{Path: path, Reference: reference}

	steps := []Step{
		&readFileStep{},
		&normalizeStep{imp: imp},
		&insertBatchStep{imp: imp},
	}
	for _, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			return 0, 0, err
		}
	}

	log.Info().
		Str("file", path).
		Str("reference", reference).
		Int64("batch_id", state.BatchID).
		Int("lines", len(state.RawLines)).
		Int("invalid", state.Invalid).
		Msg("imported statement file")
	return state.BatchID, state.Invalid, nil
}

// readFileStep reads and CSV-parses the whole file.
type readFileStep struct{}

func (s *readFileStep) Execute(ctx context.Context, state *State) error {
	f, err := os.Open(state.Path)
	if err != nil {
		return fmt.Errorf("readFileStep: opening %s: %w", state.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are normalization's problem
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("readFileStep: parsing %s: %w", state.Path, err)
	}
	state.Records = records
	return nil
}

// normalizeStep types every record into a RawLine. Failures downgrade the
// line to invalid instead of aborting the batch.
type normalizeStep struct {
	imp *Importer
}

func (s *normalizeStep) Execute(ctx context.Context, state *State) error {
	records := state.Records
	if s.imp.cfg.HasHeader && len(records) > 0 {
		records = records[1:]
	}

	defaultCurrency, ok, err := s.imp.resolver.CurrencyID(ctx, s.imp.cfg.DefaultCurrency)
	if err != nil {
		return fmt.Errorf("normalizeStep: resolving default currency: %w", err)
	}
	if !ok {
		return fmt.Errorf("normalizeStep: default currency %q does not exist: %w",
			s.imp.cfg.DefaultCurrency, domain.ErrNotFound)
	}

	lines := make([]domain.RawLine, 0, len(records))
	for i, record := range records {
		line, err := s.imp.normalizeRecord(ctx, record, defaultCurrency)
		if err != nil {
			return fmt.Errorf("normalizeStep: row %d: %w", i, err)
		}
		if !line.Valid {
			state.Invalid++
		}
		lines = append(lines, line)
	}
	state.RawLines = lines
	return nil
}

// normalizeRecord types one CSV record. Only infrastructure failures return
// an error; malformed cells produce an invalid line.
func (imp *Importer) normalizeRecord(ctx context.Context, record []string, defaultCurrency int64) (domain.RawLine, error) {
	m := imp.cfg.Columns
	cell := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	line := domain.RawLine{
		Description: cell(m.Description),
		CurrencyID:  defaultCurrency,
		Valid:       true,
	}
	invalidate := func(format string, args ...any) {
		line.Valid = false
		if line.Note != "" {
			line.Note += "; "
		}
		line.Note += fmt.Sprintf(format, args...)
	}

	date, err := parseStatementDate(cell(m.Date))
	if err != nil {
		invalidate("unparsed date %q", cell(m.Date))
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	line.Date = date

	var amount domain.Amount
	if m.Amount >= 0 {
		amount, err = parseSignedAmount(cell(m.Amount))
	} else {
		amount, err = parseSplitAmount(cell(m.Debit), cell(m.Credit))
	}
	if err != nil {
		invalidate("unparsed amount: %v", err)
	} else {
		line.Amount = amount
	}

	if name := cell(m.Account); name != "" {
		id, ok, err := imp.resolver.AccountID(ctx, name)
		if err != nil {
			return domain.RawLine{}, fmt.Errorf("resolving account %q: %w", name, err)
		}
		if ok {
			line.AccountID = &id
		} else {
			invalidate("original account name: %s", name)
		}
	} else if m.Account >= 0 {
		invalidate("empty account name")
	}

	if name := cell(m.Currency); name != "" {
		id, ok, err := imp.resolver.CurrencyID(ctx, name)
		if err != nil {
			return domain.RawLine{}, fmt.Errorf("resolving currency %q: %w", name, err)
		}
		if ok {
			line.CurrencyID = id
		} else {
			invalidate("unknown currency: %s", name)
		}
	}

	return line, nil
}

// insertBatchStep writes the batch through the orphan store.
type insertBatchStep struct {
	imp *Importer
}

func (s *insertBatchStep) Execute(ctx context.Context, state *State) error {
	if len(state.RawLines) == 0 {
		return fmt.Errorf("insertBatchStep: %s holds no data rows: %w", state.Path, domain.ErrValidation)
	}
	batchID, err := s.imp.store.InsertBatch(ctx, state.Reference, state.RawLines)
	if err != nil {
		return fmt.Errorf("insertBatchStep: %w", err)
	}
	state.BatchID = batchID
	return nil
}
