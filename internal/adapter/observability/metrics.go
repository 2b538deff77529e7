package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"route", "method"},
	)

	RecommendationsServedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of recommendation results returned",
		},
	)
	RecommendationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)
	ConfidenceHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_confidence_score",
			Help:    "Distribution of confidence_score ([0,100]) of returned results",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	PostingsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "postings_skipped_total",
			Help: "Postings skipped during ranking because they could not be scored",
		},
	)

	CatalogPostings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_postings",
			Help: "Number of postings in the active catalog snapshot",
		},
	)
	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Catalog reloads by source and outcome",
		},
		[]string{"source", "outcome"},
	)
	CatalogFitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_fit_duration_seconds",
			Help:    "Time to fit the vector space over a catalog",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	CatalogEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_total",
			Help: "Catalog change events by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	ConfidenceDrift = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommendation_confidence_drift",
			Help: "Absolute drift of average confidence from the snapshot baseline",
		},
		[]string{"catalog_version"},
	)
	SourceBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_source_breaker_state",
			Help: "Catalog source breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"source"},
	)
)

var initOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to
// call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			RecommendationsServedTotal,
			RecommendationRequestsTotal,
			ConfidenceHistogram,
			PostingsSkippedTotal,
			CatalogPostings,
			CatalogReloadsTotal,
			CatalogFitDuration,
			CatalogEventsTotal,
			ConfidenceDrift,
			SourceBreakerState,
		)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveRecommendations records one served recommendation set.
func ObserveRecommendations(confidences []int, skipped int) {
	outcome := "ok"
	if len(confidences) == 0 {
		outcome = "empty"
	}
	RecommendationRequestsTotal.WithLabelValues(outcome).Inc()
	RecommendationsServedTotal.Add(float64(len(confidences)))
	for _, c := range confidences {
		if c >= 0 && c <= 100 {
			ConfidenceHistogram.Observe(float64(c))
		}
	}
	if skipped > 0 {
		PostingsSkippedTotal.Add(float64(skipped))
	}
}

// RecordRecommendationFailure counts a rejected or failed request.
func RecordRecommendationFailure(reason string) {
	RecommendationRequestsTotal.WithLabelValues(reason).Inc()
}

// ObserveCatalogReload records a reload attempt and, on success, the new
// catalog size and fit duration.
func ObserveCatalogReload(source string, postings int, fit time.Duration, err error) {
	if err != nil {
		CatalogReloadsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	CatalogReloadsTotal.WithLabelValues(source, "ok").Inc()
	CatalogPostings.Set(float64(postings))
	CatalogFitDuration.Observe(fit.Seconds())
}

// RecordCatalogEvent counts a produced or consumed catalog event.
func RecordCatalogEvent(direction, outcome string) {
	CatalogEventsTotal.WithLabelValues(direction, outcome).Inc()
}

// RecordBreakerState exports a catalog source breaker state.
func RecordBreakerState(source string, state BreakerState) {
	SourceBreakerState.WithLabelValues(source).Set(float64(state))
}
