// Command catalogseed loads an internship catalog file (CSV, YAML or JSON)
// into PostgreSQL and announces the change on the catalog events topic so
// running servers reload.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/catalog"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/internship-recommender/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/internship-recommender/internal/config"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	path := flag.String("file", cfg.CatalogPath, "catalog file to seed from")
	publish := flag.Bool("publish", cfg.CatalogEventsEnabled, "publish a catalog.updated event after seeding")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without writing it")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed(ctx, cfg, *path, *publish, *dryRun); err != nil {
		slog.Error("catalog seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg config.Config, path string, publish, dryRun bool) error {
	postings, err := catalog.NewFileSource(path).Load(ctx)
	if err != nil {
		return err
	}
	// Fitting a snapshot applies the same checks the server will.
	snap, err := matching.NewSnapshot(postings)
	if err != nil {
		return err
	}
	slog.Info("catalog validated", slog.String("file", path), slog.Int("postings", snap.Len()))
	if dryRun {
		return nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewCatalogRepo(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	stats, err := repo.Replace(ctx, postings)
	if err != nil {
		return err
	}
	slog.Info("catalog stored",
		slog.Int("upserted", stats.Upserted),
		slog.Int64("removed", stats.Removed))

	if !publish {
		return nil
	}
	producer, err := redpanda.NewProducer(ctx, cfg.KafkaBrokers, cfg.CatalogEventsTopic)
	if err != nil {
		return err
	}
	defer producer.Close()
	return producer.PublishCatalogUpdated(ctx, domain.CatalogEvent{
		Type:     domain.CatalogEventTypeUpdated,
		Source:   "catalogseed",
		Postings: len(postings),
	})
}
