package service

import (
	"context"
	"time"

	"github.com/finbalance/advisor-go/internal/domain"
	"github.com/finbalance/advisor-go/internal/forecast"
	"github.com/finbalance/advisor-go/internal/infra/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var forecastTracer = otel.Tracer("service/forecast")

// ForecastService trains a fresh spending model per run and predicts
// next month's expense total. Models are never shared or persisted
// across requests.
type ForecastService struct {
	snapshots *SnapshotService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewForecastService creates a forecast service.
func NewForecastService(snapshots *SnapshotService, metrics *observability.Metrics, logger *zap.Logger) *ForecastService {
	return &ForecastService{snapshots: snapshots, metrics: metrics, logger: logger}
}

// Forecast returns the next-month expense prediction, or a nil result
// when the history is too short to train on. Insufficient data is a
// normal outcome, not an error.
func (s *ForecastService) Forecast(ctx context.Context, token string) (*domain.ForecastResult, string, error) {
	ctx, span := forecastTracer.Start(ctx, "ForecastService.Forecast")
	defer span.End()

	runID := uuid.New().String()
	span.SetAttributes(attribute.String("run.id", runID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("forecast", time.Since(start)) }()

	snap, err := s.snapshots.BuildSnapshot(ctx, token)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, runID, err
	}
	s.metrics.IncrRequest("success")

	rows := forecast.BuildMonthly(snap.Transactions)
	monthsObserved := forecast.CountMonths(snap.Transactions)
	span.SetAttributes(
		attribute.Int("months.observed", monthsObserved),
		attribute.Int("rows.trained", len(rows)),
	)

	predictor := forecast.NewPredictor()
	if !predictor.Train(rows) {
		s.metrics.IncrForecastOutcome("insufficient_data")
		s.logger.Info("forecast skipped, history too short",
			zap.String("run_id", runID),
			zap.Int("months_observed", monthsObserved),
			zap.Int("rows", len(rows)),
		)
		return nil, runID, nil
	}

	predicted, ok := predictor.PredictNextMonth(rows)
	if !ok {
		s.metrics.IncrForecastOutcome("insufficient_data")
		return nil, runID, nil
	}

	s.metrics.IncrForecastOutcome("predicted")
	s.logger.Info("forecast produced",
		zap.String("run_id", runID),
		zap.Float64("next_month_expenses", predicted),
		zap.Int("rows", len(rows)),
	)
	return &domain.ForecastResult{
		NextMonthExpenses: predicted,
		MonthsObserved:    monthsObserved,
		RowsTrained:       len(rows),
	}, runID, nil
}
