package handler

import (
	"encoding/json"
	"net/http"

	"github.com/finbalance/advisor-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Advice — GET /v1/advice
// ============================================================

func adviceHandler(svc *service.AdvisorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/advice")
		defer span.End()

		token := TokenFromContext(ctx)
		recs, runID, err := svc.Recommendations(ctx, token)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		span.SetAttributes(attribute.Int("recommendations.count", len(recs)))
		writeSuccess(w, http.StatusOK, runID, recs)
	}
}

// ============================================================
// Affordability — POST /v1/advice/affordability
// ============================================================

type affordabilityRequest struct {
	Amount float64 `json:"amount"`
}

func affordabilityHandler(svc *service.AdvisorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/advice/affordability")
		defer span.End()

		var req affordabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token := TokenFromContext(ctx)
		rec, runID, err := svc.Affordability(ctx, token, req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeSuccess(w, http.StatusOK, runID, rec)
	}
}
