package service

import (
	"context"
	"time"

	"github.com/finbalance/advisor-go/internal/advisor"
	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/infra/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var advisorTracer = otel.Tracer("service/advisor")

// AdvisorService runs the rule engine over a fresh or cached snapshot
// and tags every evaluation with a run ID for log correlation.
type AdvisorService struct {
	snapshots *SnapshotService
	engine    *advisor.Engine
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewAdvisorService creates an advisor service.
func NewAdvisorService(snapshots *SnapshotService, engine *advisor.Engine, metrics *observability.Metrics, logger *zap.Logger) *AdvisorService {
	return &AdvisorService{snapshots: snapshots, engine: engine, metrics: metrics, logger: logger}
}

// Recommendations evaluates the full analyzer set and returns the
// recommendations plus the run ID.
func (s *AdvisorService) Recommendations(ctx context.Context, token string) ([]domain.Recommendation, string, error) {
	ctx, span := advisorTracer.Start(ctx, "AdvisorService.Recommendations")
	defer span.End()

	runID := uuid.New().String()
	span.SetAttributes(attribute.String("run.id", runID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("advice", time.Since(start)) }()

	snap, err := s.snapshots.BuildSnapshot(ctx, token)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, runID, err
	}

	recs := s.engine.Evaluate(snap)
	s.metrics.IncrRequest("success")
	span.SetAttributes(attribute.Int("recommendations.count", len(recs)))
	s.logger.Info("advice evaluated",
		zap.String("run_id", runID),
		zap.Int("recommendations", len(recs)),
	)
	return recs, runID, nil
}

// Affordability answers whether a purchase of the given amount is
// advisable for the token's owner.
func (s *AdvisorService) Affordability(ctx context.Context, token string, amount float64) (*domain.Recommendation, string, error) {
	ctx, span := advisorTracer.Start(ctx, "AdvisorService.Affordability")
	defer span.End()

	runID := uuid.New().String()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.Float64("amount", amount),
	)

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("affordability", time.Since(start)) }()

	// Reject bad input before touching the bank API.
	if amount <= 0 {
		s.metrics.IncrRequest("error")
		return nil, runID, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	snap, err := s.snapshots.BuildSnapshot(ctx, token)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, runID, err
	}

	rec, err := s.engine.EvaluateAffordability(snap, amount)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, runID, err
	}
	s.metrics.IncrRequest("success")
	s.logger.Info("affordability evaluated",
		zap.String("run_id", runID),
		zap.Float64("amount", amount),
		zap.String("priority", rec.Priority),
	)
	return rec, runID, nil
}
