// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
)

// MaxTopN bounds the per-request result size override.
const MaxTopN = 50

// Recommender is the scoring engine port.
type Recommender interface {
	Recommend(p domain.CandidateProfile, topN int) (matching.Result, error)
	Snapshot() *matching.Snapshot
}

// RecommendRequest is the boundary input of a recommendation call.
type RecommendRequest struct {
	Profile domain.ProfileInput
	// TopN overrides the configured result size when in [1, MaxTopN]; 0
	// keeps the default.
	TopN int
}

// RecommendOutput is the recommendation response body.
type RecommendOutput struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	BrowseTable     []domain.Posting        `json:"browse_table"`
	Analytics       domain.Analytics        `json:"analytics"`
	CatalogVersion  string                  `json:"catalog_version"`
	Skipped         int                     `json:"-"`
}

// RecommendationService validates candidate input, runs the engine and
// assembles the response with the browse table.
type RecommendationService struct {
	Engine      Recommender
	BrowseLimit int
	// Observe, when set, receives every successful result.
	Observe func(matching.Result)
}

// NewRecommendationService constructs a RecommendationService.
func NewRecommendationService(e Recommender, browseLimit int, observe func(matching.Result)) RecommendationService {
	return RecommendationService{Engine: e, BrowseLimit: browseLimit, Observe: observe}
}

// Recommend returns the top matches for the request's profile.
func (s RecommendationService) Recommend(ctx domain.Context, req RecommendRequest) (RecommendOutput, error) {
	tracer := otel.Tracer("usecase.recommend")
	_, span := tracer.Start(ctx, "RecommendationService.Recommend")
	defer span.End()

	profile, err := domain.NewCandidateProfile(req.Profile)
	if err != nil {
		span.SetStatus(codes.Error, "invalid profile")
		return RecommendOutput{}, err
	}
	if req.TopN < 0 || req.TopN > MaxTopN {
		span.SetStatus(codes.Error, "invalid top_n")
		return RecommendOutput{}, domain.NewValidationError("top_n", fmt.Sprintf("must be between 1 and %d", MaxTopN))
	}

	res, err := s.Engine.Recommend(profile, req.TopN)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RecommendOutput{}, fmt.Errorf("op=usecase.Recommend: %w", err)
	}
	span.SetAttributes(
		attribute.Int("recommend.results", len(res.Recommendations)),
		attribute.Int("recommend.skipped", len(res.Skipped)),
		attribute.String("catalog.version", res.CatalogVersion),
	)
	if len(res.Skipped) > 0 {
		slog.Debug("postings skipped during ranking",
			slog.Int("count", len(res.Skipped)),
			slog.String("catalog_version", res.CatalogVersion))
	}
	if s.Observe != nil {
		s.Observe(res)
	}

	return RecommendOutput{
		Recommendations: res.Recommendations,
		BrowseTable:     s.browseTable(),
		Analytics:       res.Analytics,
		CatalogVersion:  res.CatalogVersion,
		Skipped:         len(res.Skipped),
	}, nil
}

func (s RecommendationService) browseTable() []domain.Posting {
	snap := s.Engine.Snapshot()
	if snap == nil {
		return []domain.Posting{}
	}
	return snap.Head(s.BrowseLimit)
}
