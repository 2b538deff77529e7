package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
)

// Browse limits.
const (
	DefaultBrowseLimit = 20
	MaxBrowseLimit     = 100
)

// SnapshotPublisher is the engine side CatalogService needs for reloads.
type SnapshotPublisher interface {
	Publish(s *matching.Snapshot) *matching.Snapshot
	Snapshot() *matching.Snapshot
}

// ReloadResult describes a published snapshot.
type ReloadResult struct {
	Source      string        `json:"source"`
	Version     string        `json:"catalog_version"`
	Postings    int           `json:"postings"`
	FitDuration time.Duration `json:"-"`
	FitMillis   int64         `json:"fit_ms"`
}

// BrowseFilter narrows the catalog listing. Empty fields match everything.
type BrowseFilter struct {
	Sector   string
	Location string
	Limit    int
}

// BrowseResult is one page of the catalog listing.
type BrowseResult struct {
	Internships   []domain.Posting `json:"internships"`
	TotalCount    int              `json:"total_count"`
	FilteredCount int              `json:"filtered_count"`
}

// CatalogService loads catalogs into the engine and serves read-only
// catalog views.
type CatalogService struct {
	Engine SnapshotPublisher
	Source domain.CatalogSource
	// OnReload, when set, is told about every reload attempt.
	OnReload func(source string, postings int, fit time.Duration, err error)

	mu *sync.Mutex
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(e SnapshotPublisher, src domain.CatalogSource, onReload func(string, int, time.Duration, error)) CatalogService {
	return CatalogService{Engine: e, Source: src, OnReload: onReload, mu: &sync.Mutex{}}
}

// Reload reads the source, fits a new snapshot and publishes it. Reloads are
// serialized; readers keep using the previous snapshot until the swap.
func (s CatalogService) Reload(ctx domain.Context) (ReloadResult, error) {
	tracer := otel.Tracer("usecase.catalog")
	ctx, span := tracer.Start(ctx, "CatalogService.Reload")
	defer span.End()

	if s.Source == nil {
		return ReloadResult{}, fmt.Errorf("op=usecase.Reload: %w: no catalog source configured", domain.ErrInternal)
	}
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	name := s.Source.Name()
	span.SetAttributes(attribute.String("catalog.source", name))

	res, err := s.reload(ctx, name)
	if s.OnReload != nil {
		s.OnReload(name, res.Postings, res.FitDuration, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReloadResult{}, err
	}
	span.SetAttributes(
		attribute.String("catalog.version", res.Version),
		attribute.Int("catalog.postings", res.Postings),
	)
	return res, nil
}

func (s CatalogService) reload(ctx domain.Context, name string) (ReloadResult, error) {
	postings, err := s.Source.Load(ctx)
	if err != nil {
		return ReloadResult{}, fmt.Errorf("op=usecase.Reload: load %s: %w", name, err)
	}
	snap, err := matching.NewSnapshot(postings)
	if err != nil {
		return ReloadResult{}, fmt.Errorf("op=usecase.Reload: %w", err)
	}
	prev := s.Engine.Publish(snap)
	attrs := []any{
		slog.String("source", name),
		slog.String("catalog_version", snap.Version()),
		slog.Int("postings", snap.Len()),
		slog.Duration("fit", snap.FitDuration()),
	}
	if prev != nil {
		attrs = append(attrs, slog.String("previous_version", prev.Version()))
	}
	slog.Info("catalog snapshot published", attrs...)
	return ReloadResult{
		Source:      name,
		Version:     snap.Version(),
		Postings:    snap.Len(),
		FitDuration: snap.FitDuration(),
		FitMillis:   snap.FitDuration().Milliseconds(),
	}, nil
}

func (s CatalogService) current() (*matching.Snapshot, error) {
	snap := s.Engine.Snapshot()
	if snap == nil {
		return nil, domain.ErrEngineNotInitialized
	}
	return snap, nil
}

// Browse lists postings whose industry contains Sector and whose location
// contains Location, case-insensitively, in catalog order. FilteredCount is
// the size of the returned page.
func (s CatalogService) Browse(_ domain.Context, f BrowseFilter) (BrowseResult, error) {
	snap, err := s.current()
	if err != nil {
		return BrowseResult{}, err
	}
	limit := f.Limit
	if limit == 0 {
		limit = DefaultBrowseLimit
	}
	if limit < 1 || limit > MaxBrowseLimit {
		return BrowseResult{}, domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxBrowseLimit))
	}
	sector := strings.ToLower(strings.TrimSpace(f.Sector))
	location := strings.ToLower(strings.TrimSpace(f.Location))

	all := snap.Postings()
	out := make([]domain.Posting, 0, limit)
	for _, p := range all {
		if len(out) == limit {
			break
		}
		if sector != "" && !strings.Contains(strings.ToLower(p.Industry), sector) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(p.Location), location) {
			continue
		}
		out = append(out, p)
	}
	return BrowseResult{Internships: out, TotalCount: len(all), FilteredCount: len(out)}, nil
}

// Posting returns the posting with the given id from the current snapshot.
func (s CatalogService) Posting(_ domain.Context, id string) (domain.Posting, error) {
	snap, err := s.current()
	if err != nil {
		return domain.Posting{}, err
	}
	id = strings.TrimSpace(id)
	for _, p := range snap.Postings() {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Posting{}, fmt.Errorf("op=usecase.Posting: %w: internship %q", domain.ErrNotFound, id)
}

// Sectors returns the distinct industries, sorted.
func (s CatalogService) Sectors(_ domain.Context) ([]string, error) {
	return s.distinct(func(p domain.Posting) []string { return []string{p.Industry} })
}

// Locations returns the distinct locations, sorted.
func (s CatalogService) Locations(_ domain.Context) ([]string, error) {
	return s.distinct(func(p domain.Posting) []string { return []string{p.Location} })
}

// Skills returns the distinct required skills, sorted. Skills differing
// only in case or punctuation are listed once, first spelling wins.
func (s CatalogService) Skills(_ domain.Context) ([]string, error) {
	return s.distinct(func(p domain.Posting) []string { return p.RequiredSkills })
}

// EducationLevels returns the static education enumeration. It does not
// depend on the catalog.
func (s CatalogService) EducationLevels(_ domain.Context) []string {
	levels := domain.EducationLevels()
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = l.Label
	}
	return out
}

func (s CatalogService) distinct(values func(domain.Posting) []string) ([]string, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range snap.Postings() {
		for _, v := range values(p) {
			v = strings.TrimSpace(v)
			key := matching.SkillKey(v)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// CatalogStatus is the health view of the loaded catalog.
type CatalogStatus struct {
	Loaded   bool
	Version  string
	Postings int
	FittedAt time.Time
}

// Status reports whether a catalog is loaded and which one.
func (s CatalogService) Status() CatalogStatus {
	snap := s.Engine.Snapshot()
	if snap == nil {
		return CatalogStatus{}
	}
	return CatalogStatus{Loaded: true, Version: snap.Version(), Postings: snap.Len(), FittedAt: snap.FittedAt()}
}
