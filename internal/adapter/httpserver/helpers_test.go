package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/httpserver"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
	"github.com/fairyhunter13/internship-recommender/internal/usecase"
)

type stubSource struct {
	postings []domain.Posting
	err      error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(context.Context) ([]domain.Posting, error) { return s.postings, s.err }

func testCatalog() []domain.Posting {
	return []domain.Posting{
		{ID: "1", Company: "Acme", Role: "Data Analyst Intern", Location: "Bengaluru", Industry: "Technology", RequiredSkills: []string{"Python", "SQL", "Excel"}},
		{ID: "2", Company: "Brand", Role: "Marketing Intern", Location: "Mumbai", Industry: "Marketing", RequiredSkills: []string{"Communication", "SEO"}},
		{ID: "3", Company: "Ledger", Role: "Finance Analyst", Location: "New Delhi", Industry: "Finance", RequiredSkills: []string{"Excel", "Accounting"}, MinEducation: "B.Com"},
	}
}

type fixture struct {
	engine *matching.Engine
	source *stubSource
	server *httpserver.Server
	router chi.Router
}

// newFixture wires real use cases over an engine; loaded publishes the
// test catalog first.
func newFixture(t *testing.T, loaded bool) *fixture {
	t.Helper()
	e, err := matching.NewEngine(matching.DefaultOptions(), nil)
	require.NoError(t, err)
	src := &stubSource{postings: testCatalog()}
	if loaded {
		snap, err := matching.NewSnapshot(src.postings)
		require.NoError(t, err)
		e.Publish(snap)
	}
	rec := usecase.NewRecommendationService(e, usecase.DefaultBrowseLimit, nil)
	cat := usecase.NewCatalogService(e, src, nil)
	s := httpserver.NewServer(rec, cat, nil, nil)

	r := chi.NewRouter()
	r.Use(httpserver.RequestID(), httpserver.Recoverer())
	r.Post("/v1/recommendations", s.RecommendHandler())
	r.Get("/v1/internships", s.InternshipsHandler())
	r.Get("/v1/internships/{id}", s.InternshipHandler())
	r.Get("/v1/sectors", s.SectorsHandler())
	r.Get("/v1/locations", s.LocationsHandler())
	r.Get("/v1/skills", s.SkillsHandler())
	r.Get("/v1/education-levels", s.EducationLevelsHandler())
	r.Get("/v1/health", s.HealthHandler())
	r.Get("/readyz", s.ReadyzHandler())
	return &fixture{engine: e, source: src, server: s, router: r}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
