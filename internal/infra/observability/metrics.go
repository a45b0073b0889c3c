package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the advisor.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	analyzerFailures *prometheus.CounterVec
	recommendations  *prometheus.CounterVec
	forecastOutcomes *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
}

// AdvisorSnapshot is a JSON-friendly view of the advisor metrics,
// served by GET /v1/metrics/advisor.
type AdvisorSnapshot struct {
	TotalRequests        int64   `json:"totalRequests"`
	ErrorRate            float64 `json:"errorRate"`
	CacheHitRate         float64 `json:"cacheHitRate"`
	AnalyzerFailures     int64   `json:"analyzerFailures"`
	RecommendationsTotal int64   `json:"recommendationsTotal"`
	ForecastsPredicted   int64   `json:"forecastsPredicted"`
	ForecastsSkipped     int64   `json:"forecastsSkipped"`
	Period               string  `json:"period"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_external_errors_total",
				Help: "Total errors from the upstream banking-data API.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		analyzerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_analyzer_failures_total",
				Help: "Total analyzer faults isolated by the evaluation engine.",
			},
			[]string{"analyzer"},
		),
		recommendations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_recommendations_total",
				Help: "Total recommendations produced, by category.",
			},
			[]string{"category"},
		),
		forecastOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_forecast_outcomes_total",
				Help: "Forecast runs by outcome (predicted, insufficient_data).",
			},
			[]string{"outcome"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrAnalyzerFailure counts an isolated analyzer fault.
func (m *Metrics) IncrAnalyzerFailure(analyzer string) {
	m.analyzerFailures.WithLabelValues(analyzer).Inc()
}

// IncrRecommendation counts a produced recommendation by category.
func (m *Metrics) IncrRecommendation(category string) {
	m.recommendations.WithLabelValues(category).Inc()
}

// IncrForecastOutcome counts a forecast run outcome.
func (m *Metrics) IncrForecastOutcome(outcome string) {
	m.forecastOutcomes.WithLabelValues(outcome).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetAdvisorSnapshot returns a snapshot of advisor metrics suitable for
// the GET /v1/metrics/advisor endpoint.
func (m *Metrics) GetAdvisorSnapshot() *AdvisorSnapshot {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "snapshot")
	cacheMisses := getCounterValue(m.cacheMisses, "snapshot")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	var analyzerFailures float64
	for _, a := range []string{"smart_payment", "auto_savings", "entertainment_control", "stress_index", "affordability"} {
		analyzerFailures += getCounterValue(m.analyzerFailures, a)
	}
	var recs float64
	for _, c := range []string{"payment", "savings", "expenses", "risk", "affordability"} {
		recs += getCounterValue(m.recommendations, c)
	}

	return &AdvisorSnapshot{
		TotalRequests:        int64(totalRequests),
		ErrorRate:            errorRate,
		CacheHitRate:         cacheHitRate,
		AnalyzerFailures:     int64(analyzerFailures),
		RecommendationsTotal: int64(recs),
		ForecastsPredicted:   int64(getCounterValue(m.forecastOutcomes, "predicted")),
		ForecastsSkipped:     int64(getCounterValue(m.forecastOutcomes, "insufficient_data")),
		Period:               "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
