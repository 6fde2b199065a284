package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// Confidence per heuristic. The only ordering promise is that a higher
// confidence means the candidate came from a higher-priority rule.
const (
	ConfidenceExact   = 90
	ConfidenceKeyword = 60
	ConfidenceAmount  = 40
	ConfidenceRecent  = 20
)

const (
	exactLimit      = 3
	keywordLimit    = 2
	amountLimit     = 2
	recentLimit     = 5
	minKeywordLen   = 4    // words shorter than this carry no signal
	amountTolerance = 0.05 // ±5%
)

// History is the read-only slice of ledger history the engine queries.
type History interface {
	CounterpartsByDescription(ctx context.Context, desc string, isCredit bool, limit int) ([]domain.Counterpart, error)
	CounterpartsByKeyword(ctx context.Context, keyword string, isCredit bool, limit int) ([]domain.Counterpart, error)
	CounterpartsByAmount(ctx context.Context, lo, hi float64, isCredit bool, limit int) ([]domain.Counterpart, error)
	RecentAccounts(ctx context.Context, limit int) ([]domain.Counterpart, error)
}

// Suggestion is one ranked counterpart candidate.
type Suggestion struct {
	AccountID   int64
	AccountName string
	Confidence  int
	Reason      string
}

// Engine ranks counterpart accounts for an orphan line.
type Engine struct {
	history History
}

// NewEngine creates a suggestion engine over the history source.
func NewEngine(history History) *Engine {
	return &Engine{history: history}
}

// Suggest ranks candidate counterpart accounts for a line with the given
// description, amount and direction. Results are ordered by confidence
// descending; a duplicate account keeps only its highest-confidence
// occurrence, and ties retain discovery order.
func (e *Engine) Suggest(ctx context.Context, description string, amount float64, isCredit bool) ([]Suggestion, error) {
	log := logger.FromContext(ctx)

	var (
		out  []Suggestion
		seen = make(map[int64]bool)
	)
	add := func(candidates []domain.Counterpart, confidence int, reason string) {
		for _, c := range candidates {
			if seen[c.AccountID] {
				continue
			}
			seen[c.AccountID] = true
			out = append(out, Suggestion{
				AccountID:   c.AccountID,
				AccountName: c.AccountName,
				Confidence:  confidence,
				Reason:      reason,
			})
		}
	}

	// 1. Exact description match.
	exact, err := e.history.CounterpartsByDescription(ctx, description, isCredit, exactLimit)
	if err != nil {
		return nil, fmt.Errorf("Suggest: exact match: %w", err)
	}
	add(exact, ConfidenceExact, fmt.Sprintf("past transactions described %q", description))

	// 2. Keyword matches.
	for _, kw := range keywords(description) {
		candidates, err := e.history.CounterpartsByKeyword(ctx, kw, isCredit, keywordLimit)
		if err != nil {
			return nil, fmt.Errorf("Suggest: keyword %q: %w", kw, err)
		}
		add(candidates, ConfidenceKeyword, fmt.Sprintf("descriptions containing %q", kw))
	}

	// 3. Amount similarity.
	if amount > 0 {
		lo := amount * (1 - amountTolerance)
		hi := amount * (1 + amountTolerance)
		similar, err := e.history.CounterpartsByAmount(ctx, lo, hi, isCredit, amountLimit)
		if err != nil {
			return nil, fmt.Errorf("Suggest: amount similarity: %w", err)
		}
		add(similar, ConfidenceAmount, fmt.Sprintf("amounts within 5%% of %.2f", amount))
	}

	// 4. Recency fallback.
	recent, err := e.history.RecentAccounts(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("Suggest: recent accounts: %w", err)
	}
	add(recent, ConfidenceRecent, "recently used account")

	// The cascade already emits in descending confidence; the stable sort
	// keeps discovery order within equal confidence.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})

	log.Debug().
		Str("description", description).
		Float64("amount", amount).
		Bool("is_credit", isCredit).
		Int("suggestions", len(out)).
		Msg("ranked counterpart suggestions")
	return out, nil
}

// keywords extracts the searchable words of a description: anything longer
// than three characters once surrounding punctuation is stripped.
func keywords(description string) []string {
	var out []string
	for _, word := range strings.Fields(description) {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		if len(word) >= minKeywordLen {
			out = append(out, word)
		}
	}
	return out
}
