package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// CatalogRefresher reloads the catalog on a fixed interval, for sources that
// change without publishing events (files edited in place, S3 objects
// overwritten by other tools).
type CatalogRefresher struct {
	reloader Reloader
	interval time.Duration
}

// NewCatalogRefresher returns nil when r is nil or interval is not
// positive; a nil refresher's Run returns immediately.
func NewCatalogRefresher(r Reloader, interval time.Duration) *CatalogRefresher {
	if r == nil || interval <= 0 {
		return nil
	}
	return &CatalogRefresher{reloader: r, interval: interval}
}

// Run reloads on every tick until ctx is cancelled. The initial load is the
// caller's job.
func (c *CatalogRefresher) Run(ctx context.Context) {
	if c == nil {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog refresher stopping")
			return
		case <-ticker.C:
			c.refreshOnce(ctx)
		}
	}
}

func (c *CatalogRefresher) refreshOnce(ctx context.Context) {
	tracer := otel.Tracer("catalog.refresher")
	ctx, span := tracer.Start(ctx, "CatalogRefresher.refreshOnce")
	defer span.End()

	res, err := c.reloader.Reload(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("periodic catalog reload failed; keeping previous snapshot", slog.Any("error", err))
		return
	}
	span.SetAttributes(
		attribute.String("catalog.version", res.Version),
		attribute.Int("catalog.postings", res.Postings),
	)
}

// CatalogEventHandler turns catalog.updated events into reloads. Failures
// are returned so the consumer can count them; the previous snapshot keeps
// serving.
func CatalogEventHandler(r Reloader) func(ctx context.Context, ev domain.CatalogEvent) error {
	return func(ctx context.Context, ev domain.CatalogEvent) error {
		res, err := r.Reload(ctx)
		if err != nil {
			slog.Error("event triggered catalog reload failed",
				slog.String("event_source", ev.Source),
				slog.Any("error", err))
			return err
		}
		slog.Info("catalog reloaded from event",
			slog.String("event_source", ev.Source),
			slog.Int("event_postings", ev.Postings),
			slog.String("catalog_version", res.Version),
			slog.Int("postings", res.Postings))
		return nil
	}
}
