package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repo for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS internships (
	id              TEXT PRIMARY KEY,
	ordinal         INTEGER NOT NULL,
	company         TEXT NOT NULL,
	role            TEXT NOT NULL,
	location        TEXT NOT NULL,
	industry        TEXT NOT NULL,
	required_skills TEXT[] NOT NULL DEFAULT '{}',
	min_education   TEXT,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `INSERT INTO internships (id, ordinal, company, role, location, industry, required_skills, min_education, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),now())
ON CONFLICT (id) DO UPDATE SET ordinal=EXCLUDED.ordinal, company=EXCLUDED.company, role=EXCLUDED.role,
	location=EXCLUDED.location, industry=EXCLUDED.industry, required_skills=EXCLUDED.required_skills,
	min_education=EXCLUDED.min_education, updated_at=now()`

// CatalogRepo reads and writes the internships table. It implements
// domain.CatalogSource.
type CatalogRepo struct{ Pool PgxPool }

// NewCatalogRepo constructs a CatalogRepo with the given pool.
func NewCatalogRepo(p PgxPool) *CatalogRepo { return &CatalogRepo{Pool: p} }

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("repo.internships").Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", "internships"),
	)
	return ctx, span
}

// Name implements domain.CatalogSource.
func (r *CatalogRepo) Name() string { return "postgres" }

// EnsureSchema creates the internships table when missing.
func (r *CatalogRepo) EnsureSchema(ctx domain.Context) error {
	ctx, span := startSpan(ctx, "internships.EnsureSchema", "CREATE")
	defer span.End()
	if _, err := r.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("op=internships.ensure_schema: %w", err)
	}
	return nil
}

// Load returns every posting in catalog order.
func (r *CatalogRepo) Load(ctx domain.Context) ([]domain.Posting, error) {
	ctx, span := startSpan(ctx, "internships.Load", "SELECT")
	defer span.End()
	q := `SELECT id, company, role, location, industry, required_skills, COALESCE(min_education,'') FROM internships ORDER BY ordinal, id`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=internships.load: %w", err)
	}
	defer rows.Close()
	out := []domain.Posting{}
	for rows.Next() {
		var p domain.Posting
		var skills []string
		if err := rows.Scan(&p.ID, &p.Company, &p.Role, &p.Location, &p.Industry, &skills, &p.MinEducation); err != nil {
			return nil, fmt.Errorf("op=internships.load_scan: %w", err)
		}
		if skills == nil {
			skills = []string{}
		}
		p.RequiredSkills = skills
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=internships.load_rows: %w", err)
	}
	span.SetAttributes(attribute.Int("db.rows", len(out)))
	return out, nil
}

// ReplaceStats reports what Replace changed.
type ReplaceStats struct {
	Upserted int
	Removed  int64
}

// Replace makes the table hold exactly postings, in the given order, inside
// one transaction. Rows whose id is not in postings are deleted.
func (r *CatalogRepo) Replace(ctx domain.Context, postings []domain.Posting) (ReplaceStats, error) {
	ctx, span := startSpan(ctx, "internships.Replace", "UPSERT")
	defer span.End()

	ids := make([]string, 0, len(postings))
	for i, p := range postings {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return ReplaceStats{}, fmt.Errorf("op=internships.replace: %w: posting %d has no id", domain.ErrMalformedPosting, i)
		}
		ids = append(ids, id)
	}

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return ReplaceStats{}, fmt.Errorf("op=internships.replace_begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, p := range postings {
		skills := p.RequiredSkills
		if skills == nil {
			skills = []string{}
		}
		if _, err := tx.Exec(ctx, upsertSQL, ids[i], i, p.Company, p.Role, p.Location, p.Industry, skills, p.MinEducation); err != nil {
			return ReplaceStats{}, fmt.Errorf("op=internships.replace_upsert id=%s: %w", ids[i], err)
		}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM internships WHERE NOT (id = ANY($1))`, ids)
	if err != nil {
		return ReplaceStats{}, fmt.Errorf("op=internships.replace_prune: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return ReplaceStats{}, fmt.Errorf("op=internships.replace_commit: %w", err)
	}

	stats := ReplaceStats{Upserted: len(postings), Removed: tag.RowsAffected()}
	span.SetAttributes(attribute.Int("db.rows", stats.Upserted), attribute.Int64("db.rows_removed", stats.Removed))
	slog.Info("catalog stored",
		slog.Int("upserted", stats.Upserted),
		slog.Int64("removed", stats.Removed),
	)
	return stats, nil
}
