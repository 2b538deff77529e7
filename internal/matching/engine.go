package matching

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// Snapshot is an immutable catalog with its fitted vector space and the
// precomputed posting vectors. Build one per catalog load.
type Snapshot struct {
	postings []domain.Posting
	model    *VectorSpaceModel
	vectors  []Vector
	version  string
	fittedAt time.Time
	fitTook  time.Duration
}

// NewSnapshot fits the vector space over postings. IDs must be non-empty and
// unique. The postings slice is copied; callers may reuse it.
func NewSnapshot(postings []domain.Posting) (*Snapshot, error) {
	seen := make(map[string]struct{}, len(postings))
	for i, p := range postings {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("op=matching.NewSnapshot: %w: posting %d has no id", domain.ErrMalformedPosting, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("op=matching.NewSnapshot: %w: duplicate id %q", domain.ErrMalformedPosting, id)
		}
		seen[id] = struct{}{}
	}
	start := time.Now()
	catalog := make([]domain.Posting, len(postings))
	copy(catalog, postings)
	corpus := make([]string, len(catalog))
	for i, p := range catalog {
		corpus[i] = p.DescriptionText()
	}
	model := Fit(corpus)
	vectors := make([]Vector, len(catalog))
	for i, doc := range corpus {
		vectors[i] = model.Transform(doc)
	}
	return &Snapshot{
		postings: catalog,
		model:    model,
		vectors:  vectors,
		version:  uuid.NewString(),
		fittedAt: time.Now().UTC(),
		fitTook:  time.Since(start),
	}, nil
}

// Postings returns a copy of the catalog in load order.
func (s *Snapshot) Postings() []domain.Posting {
	out := make([]domain.Posting, len(s.postings))
	copy(out, s.postings)
	return out
}

// Head returns a copy of the first n postings (all when n <= 0).
func (s *Snapshot) Head(n int) []domain.Posting {
	if n <= 0 || n > len(s.postings) {
		n = len(s.postings)
	}
	out := make([]domain.Posting, n)
	copy(out, s.postings[:n])
	return out
}

// Len is the number of postings.
func (s *Snapshot) Len() int { return len(s.postings) }

// Version identifies this snapshot.
func (s *Snapshot) Version() string { return s.version }

// FittedAt is when the snapshot was built.
func (s *Snapshot) FittedAt() time.Time { return s.fittedAt }

// FitDuration is how long fitting took.
func (s *Snapshot) FitDuration() time.Duration { return s.fitTook }

// Model exposes the fitted vector space.
func (s *Snapshot) Model() *VectorSpaceModel { return s.model }

// Result is a full recommendation answer.
type Result struct {
	Recommendations []domain.Recommendation
	Analytics       domain.Analytics
	Skipped         []Skipped
	CatalogVersion  string
}

// Engine serves recommendations from the current snapshot. Readers never
// lock: Publish swaps the snapshot pointer atomically.
type Engine struct {
	opts    Options
	ranker  Ranker
	current atomic.Pointer[Snapshot]
}

// NewEngine validates opts and returns an engine with no snapshot loaded.
func NewEngine(opts Options, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("op=matching.NewEngine: %w: %v", domain.ErrInvalidArgument, err)
	}
	return &Engine{opts: opts, ranker: NewRanker(opts, logger)}, nil
}

// Options returns the scoring options in use.
func (e *Engine) Options() Options { return e.opts }

// Publish installs s and returns the snapshot it replaced, if any.
func (e *Engine) Publish(s *Snapshot) *Snapshot { return e.current.Swap(s) }

// Snapshot returns the current snapshot or nil before the first Publish.
func (e *Engine) Snapshot() *Snapshot { return e.current.Load() }

// Ready reports whether a snapshot is loaded.
func (e *Engine) Ready() bool { return e.current.Load() != nil }

// Recommend ranks the current catalog for p. topN <= 0 uses the configured
// default. An empty catalog yields an empty result, not an error.
func (e *Engine) Recommend(p domain.CandidateProfile, topN int) (Result, error) {
	s := e.current.Load()
	if s == nil {
		return Result{}, domain.ErrEngineNotInitialized
	}
	if topN <= 0 {
		topN = e.opts.TopN
	}
	r, err := e.ranker.Rank(s, p, topN)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Recommendations: r.Results,
		Analytics:       Summarize(r.Results, p),
		Skipped:         r.Skipped,
		CatalogVersion:  s.version,
	}, nil
}
