// Package app wires configuration, adapters and use cases into the running
// service: HTTP routing, catalog bootstrap and background reload triggers.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpserver "github.com/fairyhunter13/internship-recommender/internal/adapter/httpserver"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/config"
	"github.com/fairyhunter13/internship-recommender/internal/service/ratelimiter"
)

// RecommendRateClass is the limiter bucket class of the recommendation
// endpoint.
const RecommendRateClass = "recommend"

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
// A nil limiter falls back to an in-process per-IP limit.
func BuildRouter(cfg config.Config, srv *httpserver.Server, limiter ratelimiter.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	if cfg.RequestTimeout > 0 {
		r.Use(httpserver.TimeoutMiddleware(cfg.RequestTimeout))
	}
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Group(func(wr chi.Router) {
		if limiter != nil {
			wr.Use(httpserver.RateLimit(limiter, RecommendRateClass))
		} else if cfg.RateLimitPerMin > 0 {
			wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
		}
		wr.Post("/v1/recommendations", srv.RecommendHandler())
	})

	r.Get("/v1/internships", srv.InternshipsHandler())
	r.Get("/v1/internships/{id}", srv.InternshipHandler())
	r.Get("/v1/sectors", srv.SectorsHandler())
	r.Get("/v1/locations", srv.LocationsHandler())
	r.Get("/v1/skills", srv.SkillsHandler())
	r.Get("/v1/education-levels", srv.EducationLevelsHandler())
	r.Get("/v1/health", srv.HealthHandler())

	r.Get("/healthz", httpserver.HealthzHandler)
	r.Get("/readyz", srv.ReadyzHandler())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", srv.OpenAPIServe())

	if cfg.AdminEnabled() {
		srv.MountAdmin(r, cfg.AdminUsername, cfg.AdminPasswordHash)
	}

	return otelhttp.NewHandler(httpserver.SecurityHeaders(r), "http.server")
}
