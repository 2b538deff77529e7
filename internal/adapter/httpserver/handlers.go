package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/usecase"
)

// RecommendService is the recommendation use case.
type RecommendService interface {
	Recommend(ctx domain.Context, req usecase.RecommendRequest) (usecase.RecommendOutput, error)
}

// CatalogService is the catalog use case: reads plus reload.
type CatalogService interface {
	Browse(ctx domain.Context, f usecase.BrowseFilter) (usecase.BrowseResult, error)
	Posting(ctx domain.Context, id string) (domain.Posting, error)
	Sectors(ctx domain.Context) ([]string, error)
	Locations(ctx domain.Context) ([]string, error)
	Skills(ctx domain.Context) ([]string, error)
	EducationLevels(ctx domain.Context) []string
	Status() usecase.CatalogStatus
	Reload(ctx domain.Context) (usecase.ReloadResult, error)
}

// Server aggregates handler dependencies.
type Server struct {
	Recommend RecommendService
	Catalog   CatalogService
	// Readiness probes of optional backends; nil checks are skipped.
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	// OpenAPIPath is served by OpenAPIServe.
	OpenAPIPath string
}

// NewServer constructs a Server.
func NewServer(rec RecommendService, cat CatalogService, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Recommend: rec, Catalog: cat, DBCheck: dbCheck, RedisCheck: redisCheck, OpenAPIPath: "api/openapi.yaml"}
}

func acceptsJSON(r *http.Request) bool {
	a := r.Header.Get("Accept")
	return a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json")
}

func notAcceptable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
		Code:    "INVALID_ARGUMENT",
		Message: "not acceptable",
		Details: map[string]string{"accept": r.Header.Get("Accept")},
	}})
}

// RecommendHandler ranks the catalog for the posted candidate profile.
func (s *Server) RecommendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r) {
			notAcceptable(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
			writeError(w, r, domain.NewValidationError("content_type", "must be application/json"), nil)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]int64{"max_bytes": mbe.Limit},
				}})
				return
			}
			writeError(w, r, domain.NewValidationError("body", "unreadable"), nil)
			return
		}
		req, err := decodeRecommendRequest(body)
		if err != nil {
			observability.RecordRecommendationFailure(failureReason(err))
			writeError(w, r, err, nil)
			return
		}
		out, err := s.Recommend.Recommend(r.Context(), req.toUsecase())
		if err != nil {
			observability.RecordRecommendationFailure(failureReason(err))
			writeError(w, r, err, nil)
			return
		}
		LoggerFrom(r).Info("recommendations served",
			slog.Int("results", len(out.Recommendations)),
			slog.Int("skipped", out.Skipped),
			slog.String("catalog_version", out.CatalogVersion))
		msg := ""
		if len(out.Recommendations) == 0 {
			msg = "no recommendations found"
		}
		writeSuccess(w, out, msg)
	}
}

// failureReason is the outcome label for a failed recommendation request.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid"
	case errors.Is(err, domain.ErrEngineNotInitialized):
		return "not_ready"
	default:
		return "error"
	}
}

// InternshipsHandler lists the catalog with optional sector and location
// filters.
func (s *Server) InternshipsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseBrowseQuery(r.URL.Query())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		res, err := s.Catalog.Browse(r.Context(), f)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeSuccess(w, res, "")
	}
}

// InternshipHandler returns one posting by its catalog id.
func (s *Server) InternshipHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Catalog.Posting(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeSuccess(w, p, "")
	}
}

func (s *Server) listHandler(list func(domain.Context) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := list(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeSuccess(w, out, "")
	}
}

// SectorsHandler returns the distinct catalog industries.
func (s *Server) SectorsHandler() http.HandlerFunc { return s.listHandler(s.Catalog.Sectors) }

// LocationsHandler returns the distinct catalog locations.
func (s *Server) LocationsHandler() http.HandlerFunc { return s.listHandler(s.Catalog.Locations) }

// SkillsHandler returns the distinct required skills.
func (s *Server) SkillsHandler() http.HandlerFunc { return s.listHandler(s.Catalog.Skills) }

// EducationLevelsHandler returns the static education enumeration.
func (s *Server) EducationLevelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, s.Catalog.EducationLevels(r.Context()), "")
	}
}

type healthResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	InternshipsLoaded bool   `json:"internships_loaded"`
	CatalogVersion    string `json:"catalog_version,omitempty"`
	Postings          int    `json:"postings"`
}

// HealthHandler always answers 200 and reports whether a catalog is loaded.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := s.Catalog.Status()
		writeJSON(w, http.StatusOK, healthResponse{
			Status:            "healthy",
			Message:           "internship recommendation API is running",
			InternshipsLoaded: st.Loaded,
			CatalogVersion:    st.Version,
			Postings:          st.Postings,
		})
	}
}

// HealthzHandler is the liveness probe.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadyzHandler reports ready once a catalog is loaded and the configured
// backends answer.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := []check{}
		st := s.Catalog.Status()
		if st.Loaded {
			checks = append(checks, check{Name: "catalog", OK: true})
		} else {
			checks = append(checks, check{Name: "catalog", OK: false, Details: "not loaded"})
		}
		probe := func(name string, fn func(context.Context) error) {
			if fn == nil {
				return
			}
			if err := fn(ctx); err != nil {
				checks = append(checks, check{Name: name, OK: false, Details: err.Error()})
				return
			}
			checks = append(checks, check{Name: name, OK: true})
		}
		probe("db", s.DBCheck)
		probe("redis", s.RedisCheck)

		status := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				status = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, status, map[string]any{"checks": checks})
	}
}

// OpenAPIServe serves the OpenAPI document if present.
func (s *Server) OpenAPIServe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(s.OpenAPIPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
