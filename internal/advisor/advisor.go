// Package advisor implements the rule evaluation engine: a fixed,
// ordered set of heuristic analyzers that turn a financial snapshot
// into an ordered list of recommendations.
package advisor

import (
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/infra/observability"

	"go.uber.org/zap"
)

// Analyzer is a single heuristic rule. It is a pure function of the
// snapshot: a nil advice means "not applicable", an error means the
// analyzer itself faulted. Analyzers never assign identity or
// timestamps and never read the wall clock for decisions.
type Analyzer interface {
	Name() string
	Evaluate(snap *domain.Snapshot) (*domain.Advice, error)
}

// Engine runs analyzers in a fixed order and assembles their advice
// into finalized recommendations. One bad analyzer never aborts a run:
// its fault is logged, counted, and skipped.
type Engine struct {
	analyzers []Analyzer
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates the engine with the canonical analyzer order.
func NewEngine(metrics *observability.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		analyzers: []Analyzer{
			SmartPayment{},
			AutoSavings{},
			EntertainmentControl{},
			StressIndex{},
		},
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Evaluate runs every analyzer over the snapshot and returns the
// ordered recommendation list. It never fails as a whole; the result
// may be empty. For identical snapshots the output is identical across
// runs, except for the created_at timestamps.
func (e *Engine) Evaluate(snap *domain.Snapshot) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(e.analyzers))

	for _, a := range e.analyzers {
		advice, err := a.Evaluate(snap)
		if err != nil {
			e.logger.Error("analyzer failed",
				zap.String("analyzer", a.Name()),
				zap.Error(err),
			)
			e.metrics.IncrAnalyzerFailure(a.Name())
			continue
		}
		if advice == nil {
			continue
		}
		recs = append(recs, e.finalize(len(recs)+1, advice))
	}

	return recs
}

// EvaluateAffordability runs the affordability analyzer for a planned
// purchase of the given amount. The result is a single recommendation
// with ID 1.
func (e *Engine) EvaluateAffordability(snap *domain.Snapshot, amount float64) (*domain.Recommendation, error) {
	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	a := Affordability{Amount: amount}
	advice, err := a.Evaluate(snap)
	if err != nil {
		e.logger.Error("analyzer failed",
			zap.String("analyzer", a.Name()),
			zap.Error(err),
		)
		e.metrics.IncrAnalyzerFailure(a.Name())
		return nil, err
	}

	rec := e.finalize(1, advice)
	return &rec, nil
}

func (e *Engine) finalize(id int, advice *domain.Advice) domain.Recommendation {
	e.metrics.IncrRecommendation(advice.Category)
	return domain.Recommendation{
		ID:          id,
		Title:       advice.Title,
		Description: advice.Description,
		Category:    advice.Category,
		Priority:    advice.Priority,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
}
