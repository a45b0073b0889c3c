package handler

import (
	"net/http"

	"github.com/finbalance/advisor-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Forecast — GET /v1/forecast
// ============================================================

// forecastResponse wraps the prediction so the insufficient-data
// outcome is an explicit field rather than an absent body.
type forecastResponse struct {
	Forecast any    `json:"forecast"`
	Message  string `json:"message,omitempty"`
}

func forecastHandler(svc *service.ForecastService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/forecast")
		defer span.End()

		token := TokenFromContext(ctx)
		result, runID, err := svc.Forecast(ctx, token)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := forecastResponse{}
		if result == nil {
			resp.Message = "not enough transaction history to train a model"
		} else {
			resp.Forecast = result
		}
		writeSuccess(w, http.StatusOK, runID, resp)
	}
}
