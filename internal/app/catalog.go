package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/catalog"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/internship-recommender/internal/config"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
	"github.com/fairyhunter13/internship-recommender/internal/usecase"
)

// EngineOptions maps the effective scoring configuration onto engine
// options and validates them.
func EngineOptions(cfg config.Config) (matching.Options, error) {
	sc, err := cfg.Scoring()
	if err != nil {
		return matching.Options{}, err
	}
	opts := matching.Options{
		Weights: matching.Weights{
			Skills:    sc.WeightSkills,
			Industry:  sc.WeightIndustry,
			Location:  sc.WeightLocation,
			Education: sc.WeightEducation,
		},
		LocationPartialCredit: sc.LocationPartialCredit,
		EducationNeutralScore: sc.EducationNeutralScore,
		TopN:                  sc.DefaultTopN,
	}
	if err := opts.Validate(); err != nil {
		return matching.Options{}, fmt.Errorf("op=app.EngineOptions: %w", err)
	}
	return opts, nil
}

// BuildCatalogSource selects the configured catalog source. repo is only
// consulted for the postgres source; s3 builds its own client.
func BuildCatalogSource(ctx context.Context, cfg config.Config, repo *postgres.CatalogRepo) (domain.CatalogSource, error) {
	switch cfg.CatalogSource {
	case config.CatalogSourceFile:
		return catalog.NewFileSource(cfg.CatalogPath), nil
	case config.CatalogSourcePostgres:
		if repo == nil {
			return nil, fmt.Errorf("op=app.BuildCatalogSource: postgres source needs a database pool")
		}
		return repo, nil
	case config.CatalogSourceS3:
		client, err := catalog.NewS3Client(ctx, catalog.S3Options{
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyle,
			AccessKey:    cfg.AWSAccessKeyID,
			SecretKey:    cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return catalog.NewS3Source(client, cfg.S3Bucket, cfg.S3Key), nil
	}
	return nil, fmt.Errorf("op=app.BuildCatalogSource: unknown source %q", cfg.CatalogSource)
}

// GuardedSource runs a catalog source behind a circuit breaker so a failing
// backend is not hammered by reload triggers.
type GuardedSource struct {
	Source  domain.CatalogSource
	Breaker *observability.Breaker
}

// NewGuardedSource wraps src with a breaker named after the source.
func NewGuardedSource(src domain.CatalogSource, maxFailures int, coolDown time.Duration) *GuardedSource {
	return &GuardedSource{Source: src, Breaker: observability.NewBreaker(src.Name(), maxFailures, coolDown)}
}

// Name implements domain.CatalogSource.
func (g *GuardedSource) Name() string { return g.Source.Name() }

// Load implements domain.CatalogSource. A malformed catalog is the
// operator's problem, not the backend's, and does not trip the breaker.
func (g *GuardedSource) Load(ctx context.Context) ([]domain.Posting, error) {
	var (
		postings []domain.Posting
		loadErr  error
	)
	err := g.Breaker.Call(func() error {
		postings, loadErr = g.Source.Load(ctx)
		if errors.Is(loadErr, domain.ErrMalformedPosting) {
			return nil
		}
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return postings, loadErr
}

// Reloader reloads the catalog into the engine.
type Reloader interface {
	Reload(ctx domain.Context) (usecase.ReloadResult, error)
}

// LoadInitialCatalog retries the first catalog load with exponential
// backoff. Malformed catalogs fail immediately since retrying cannot fix
// them.
func LoadInitialCatalog(ctx context.Context, cfg config.Config, r Reloader) (usecase.ReloadResult, error) {
	maxElapsed, initial, maxInterval, multiplier := cfg.GetCatalogLoadBackoff()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.MaxElapsedTime = maxElapsed
	expo.Multiplier = multiplier

	var res usecase.ReloadResult
	op := func() error {
		var err error
		res, err = r.Reload(ctx)
		if errors.Is(err, domain.ErrMalformedPosting) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		slog.Warn("catalog load failed; retrying",
			slog.Any("error", err),
			slog.Duration("next_attempt_in", next))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(expo, ctx), notify); err != nil {
		return usecase.ReloadResult{}, fmt.Errorf("op=app.LoadInitialCatalog: %w", err)
	}
	return res, nil
}

// RecommendationObserver exports metrics for every served result and feeds
// the confidence drift monitor when one is given.
func RecommendationObserver(drift *observability.ConfidenceDriftMonitor) func(matching.Result) {
	return func(res matching.Result) {
		confidences := make([]int, len(res.Recommendations))
		for i, rec := range res.Recommendations {
			confidences[i] = rec.ConfidenceScore
		}
		observability.ObserveRecommendations(confidences, len(res.Skipped))
		if drift != nil && len(confidences) > 0 {
			drift.Record(res.CatalogVersion, float64(res.Analytics.AvgConfidence))
		}
	}
}
