package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/catalog"
	httpserver "github.com/fairyhunter13/internship-recommender/internal/adapter/httpserver"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/config"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
	"github.com/fairyhunter13/internship-recommender/internal/usecase"
)

type countingSource struct {
	mu       sync.Mutex
	postings []domain.Posting
	errs     []error
	calls    int
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load(context.Context) ([]domain.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.postings, nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countedSource struct {
	domain.CatalogSource
	calls atomic.Int32
}

func (s *countedSource) Load(ctx context.Context) ([]domain.Posting, error) {
	s.calls.Add(1)
	return s.CatalogSource.Load(ctx)
}

func sampleCatalog() []domain.Posting {
	return []domain.Posting{
		{ID: "1", Company: "Acme", Role: "Data Analyst Intern", Location: "Bengaluru", Industry: "Technology", RequiredSkills: []string{"Python", "SQL"}},
		{ID: "2", Company: "Brand", Role: "Marketing Intern", Location: "Mumbai", Industry: "Marketing", RequiredSkills: []string{"SEO"}},
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	cfg.AppEnv = "test"
	return cfg
}

func TestParseOrigins(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"  ,  ", []string{"*"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseOrigins(c.in), c.in)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := testConfig(t)
	opts, err := EngineOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, matching.DefaultOptions(), opts)

	cfg.WeightSkills, cfg.WeightIndustry, cfg.WeightLocation, cfg.WeightEducation = 0, 0, 0, 0
	_, err = EngineOptions(cfg)
	require.Error(t, err)
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int64) (bool, time.Duration, error) {
	return false, 2 * time.Second, nil
}

func newTestServer(t *testing.T) (*httpserver.Server, *matching.Engine, *countingSource) {
	t.Helper()
	e, err := matching.NewEngine(matching.DefaultOptions(), nil)
	require.NoError(t, err)
	src := &countingSource{postings: sampleCatalog()}
	cat := usecase.NewCatalogService(e, src, nil)
	_, err = cat.Reload(context.Background())
	require.NoError(t, err)
	rec := usecase.NewRecommendationService(e, 20, nil)
	return httpserver.NewServer(rec, cat, nil, nil), e, src
}

func TestBuildRouter_Routes(t *testing.T) {
	cfg := testConfig(t)
	srv, _, _ := newTestServer(t)
	h := BuildRouter(cfg, srv, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/v1/health", "/v1/internships", "/v1/internships/1", "/v1/sectors", "/v1/locations", "/v1/skills", "/v1/education-levels"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), path)
	}

	body := `{"skills":"Python","education_level":"UG","sector_interest":"Technology","location_preference":"Bengaluru"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/catalog/reload", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "admin is not mounted without credentials")
}

func TestBuildRouter_AdminAndLimiter(t *testing.T) {
	hash, err := httpserver.HashPassword("pw", httpserver.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32})
	require.NoError(t, err)
	cfg := testConfig(t)
	cfg.AdminUsername = "admin"
	cfg.AdminPasswordHash = hash

	srv, _, src := newTestServer(t)
	h := BuildRouter(cfg, srv, denyLimiter{})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/catalog/reload", nil)
	req.SetBasicAuth("admin", "pw")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, src.Calls())

	req = httptest.NewRequest(http.MethodPost, "/v1/recommendations", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sectors", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "read endpoints are not rate limited")
}

func TestBuildReadinessChecks(t *testing.T) {
	db, red := BuildReadinessChecks(nil, nil)
	assert.Nil(t, db)
	assert.Nil(t, red)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, red = BuildReadinessChecks(pingFunc(func(context.Context) error { return errors.New("db down") }), rdb)
	require.NotNil(t, db)
	require.NotNil(t, red)
	assert.EqualError(t, db(context.Background()), "db down")
	assert.NoError(t, red(context.Background()))

	mr.Close()
	assert.Error(t, red(context.Background()))
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestGuardedSource(t *testing.T) {
	down := errors.New("bucket unreachable")
	src := &countingSource{postings: sampleCatalog(), errs: []error{down, down}}
	g := NewGuardedSource(src, 2, time.Hour)
	assert.Equal(t, "counting", g.Name())

	_, err := g.Load(context.Background())
	require.ErrorIs(t, err, down)
	_, err = g.Load(context.Background())
	require.ErrorIs(t, err, down)

	_, err = g.Load(context.Background())
	require.ErrorIs(t, err, observability.ErrBreakerOpen)
	assert.Equal(t, 2, src.Calls(), "open breaker must not call the source")

	g.Breaker.Reset()
	postings, err := g.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, postings, 2)
}

func TestGuardedSource_MalformedDoesNotTrip(t *testing.T) {
	bad := fmt.Errorf("decode: %w", domain.ErrMalformedPosting)
	src := &countingSource{errs: []error{bad, bad, bad}}
	g := NewGuardedSource(src, 1, time.Hour)
	for i := 0; i < 3; i++ {
		_, err := g.Load(context.Background())
		require.ErrorIs(t, err, domain.ErrMalformedPosting)
	}
	assert.Equal(t, observability.BreakerClosed, g.Breaker.State())
}

func TestLoadInitialCatalog(t *testing.T) {
	cfg := testConfig(t)

	t.Run("retries transient failures", func(t *testing.T) {
		e, err := matching.NewEngine(matching.DefaultOptions(), nil)
		require.NoError(t, err)
		src := &countingSource{postings: sampleCatalog(), errs: []error{errors.New("timeout"), errors.New("timeout")}}
		res, err := LoadInitialCatalog(context.Background(), cfg, usecase.NewCatalogService(e, src, nil))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Postings)
		assert.Equal(t, 3, src.Calls())
		assert.True(t, e.Ready())
	})

	t.Run("malformed catalog fails fast", func(t *testing.T) {
		e, err := matching.NewEngine(matching.DefaultOptions(), nil)
		require.NoError(t, err)
		src := &countingSource{postings: []domain.Posting{{ID: "1"}, {ID: "1"}}}
		_, err = LoadInitialCatalog(context.Background(), cfg, usecase.NewCatalogService(e, src, nil))
		require.ErrorIs(t, err, domain.ErrMalformedPosting)
		assert.Equal(t, 1, src.Calls())
		assert.False(t, e.Ready())
	})

	t.Run("unparseable csv fails on the first attempt", func(t *testing.T) {
		e, err := matching.NewEngine(matching.DefaultOptions(), nil)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "internships.csv")
		body := "id,company,role,location,industry,required_skills\n1,Acme,Data Analyst Intern\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		src := &countedSource{CatalogSource: catalog.NewFileSource(path)}
		guarded := NewGuardedSource(src, 1, time.Hour)
		_, err = LoadInitialCatalog(context.Background(), cfg, usecase.NewCatalogService(e, guarded, nil))
		require.ErrorIs(t, err, domain.ErrMalformedPosting)
		assert.Equal(t, int32(1), src.calls.Load())
		assert.Equal(t, observability.BreakerClosed, guarded.Breaker.State())
		assert.False(t, e.Ready())
	})

	t.Run("gives up when the context ends", func(t *testing.T) {
		e, err := matching.NewEngine(matching.DefaultOptions(), nil)
		require.NoError(t, err)
		errs := make([]error, 1000)
		for i := range errs {
			errs[i] = errors.New("down")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = LoadInitialCatalog(ctx, cfg, usecase.NewCatalogService(e, &countingSource{errs: errs}, nil))
		require.Error(t, err)
	})
}

func TestRecommendationObserver(t *testing.T) {
	drift := observability.NewConfidenceDriftMonitor(1, 10, nil)
	observe := RecommendationObserver(drift)

	before := testutil.ToFloat64(observability.RecommendationsServedTotal)
	observe(matching.Result{
		Recommendations: []domain.Recommendation{{ConfidenceScore: 80}, {ConfidenceScore: 60}},
		Analytics:       domain.Analytics{AvgConfidence: 70},
		CatalogVersion:  "v1",
	})
	assert.Equal(t, before+2, testutil.ToFloat64(observability.RecommendationsServedTotal))
	baseline, ok := drift.Baseline()
	require.True(t, ok)
	assert.Equal(t, 70.0, baseline)

	observe(matching.Result{CatalogVersion: "v1"})
	baseline, _ = drift.Baseline()
	assert.Equal(t, 70.0, baseline, "empty results do not feed drift")
}

func TestCatalogRefresher(t *testing.T) {
	assert.Nil(t, NewCatalogRefresher(nil, time.Second))
	assert.Nil(t, NewCatalogRefresher(&fakeReloader{}, 0))
	var nilRefresher *CatalogRefresher
	nilRefresher.Run(context.Background())

	r := &fakeReloader{}
	ref := NewCatalogRefresher(r, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ref.Run(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

type fakeReloader struct {
	calls atomic.Int32
	err   error
}

func (f *fakeReloader) Reload(context.Context) (usecase.ReloadResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return usecase.ReloadResult{}, f.err
	}
	return usecase.ReloadResult{Source: "fake", Version: "v", Postings: 1}, nil
}

func TestCatalogEventHandler(t *testing.T) {
	r := &fakeReloader{}
	h := CatalogEventHandler(r)
	ev := domain.CatalogEvent{Type: domain.CatalogEventTypeUpdated, Source: "catalogseed", Postings: 3}
	require.NoError(t, h(context.Background(), ev))
	assert.EqualValues(t, 1, r.calls.Load())

	r.err = errors.New("load failed")
	require.Error(t, h(context.Background(), ev))
}
