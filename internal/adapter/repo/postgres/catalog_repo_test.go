package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

var catalogColumns = []string{"id", "company", "role", "location", "industry", "required_skills", "min_education"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestCatalogRepo_Name(t *testing.T) {
	assert.Equal(t, "postgres", postgres.NewCatalogRepo(nil).Name())
}

func TestCatalogRepo_EnsureSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		execErr error
		wantErr bool
	}{
		{name: "creates table"},
		{name: "database error", execErr: errors.New("permission denied"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := newMock(t)
			e := m.ExpectExec("CREATE TABLE IF NOT EXISTS internships")
			if tt.execErr != nil {
				e.WillReturnError(tt.execErr)
			} else {
				e.WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
			}

			err := postgres.NewCatalogRepo(m).EnsureSchema(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "op=internships.ensure_schema")
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, m.ExpectationsWereMet())
		})
	}
}

func TestCatalogRepo_Load(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("SELECT id, company, role, location, industry, required_skills").
		WillReturnRows(pgxmock.NewRows(catalogColumns).
			AddRow("1", "Acme", "Data Analyst Intern", "Bengaluru", "Technology", []string{"Python", "SQL"}, "B.Sc").
			AddRow("2", "Beta", "Marketing Intern", "Mumbai", "Marketing", []string(nil), ""))

	got, err := postgres.NewCatalogRepo(m).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Posting{
		ID: "1", Company: "Acme", Role: "Data Analyst Intern", Location: "Bengaluru",
		Industry: "Technology", RequiredSkills: []string{"Python", "SQL"}, MinEducation: "B.Sc",
	}, got[0])
	assert.Equal(t, []string{}, got[1].RequiredSkills)
	assert.Empty(t, got[1].MinEducation)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestCatalogRepo_Load_Empty(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("SELECT id").WillReturnRows(pgxmock.NewRows(catalogColumns))

	got, err := postgres.NewCatalogRepo(m).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCatalogRepo_Load_QueryError(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("SELECT id").WillReturnError(errors.New("connection refused"))

	_, err := postgres.NewCatalogRepo(m).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=internships.load")
}

func TestCatalogRepo_Load_RowError(t *testing.T) {
	m := newMock(t)
	m.ExpectQuery("SELECT id").
		WillReturnRows(pgxmock.NewRows(catalogColumns).
			AddRow("1", "Acme", "Intern", "Pune", "Tech", []string{"Go"}, "").
			RowError(0, errors.New("broken row")))

	_, err := postgres.NewCatalogRepo(m).Load(context.Background())
	require.Error(t, err)
}

func TestCatalogRepo_Replace(t *testing.T) {
	m := newMock(t)
	postings := []domain.Posting{
		{ID: "10", Company: "Acme", Role: "Intern", Location: "Pune", Industry: "Tech", RequiredSkills: []string{"Go"}},
		{ID: " 11 ", Company: "Beta", Role: "Analyst", Location: "Delhi", Industry: "Finance", MinEducation: "MBA"},
	}
	m.ExpectBegin()
	m.ExpectExec("INSERT INTO internships").
		WithArgs("10", 0, "Acme", "Intern", "Pune", "Tech", []string{"Go"}, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	m.ExpectExec("INSERT INTO internships").
		WithArgs("11", 1, "Beta", "Analyst", "Delhi", "Finance", []string{}, "MBA").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	m.ExpectExec("DELETE FROM internships").
		WithArgs([]string{"10", "11"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	m.ExpectCommit()
	m.ExpectRollback()

	stats, err := postgres.NewCatalogRepo(m).Replace(context.Background(), postings)
	require.NoError(t, err)
	assert.Equal(t, postgres.ReplaceStats{Upserted: 2, Removed: 3}, stats)
}

func TestCatalogRepo_Replace_Errors(t *testing.T) {
	one := []domain.Posting{{ID: "1", Company: "Acme", Role: "Intern", Location: "Pune", Industry: "Tech"}}

	t.Run("missing id", func(t *testing.T) {
		m := newMock(t)
		_, err := postgres.NewCatalogRepo(m).Replace(context.Background(), []domain.Posting{{Company: "x"}})
		require.ErrorIs(t, err, domain.ErrMalformedPosting)
		require.NoError(t, m.ExpectationsWereMet())
	})
	t.Run("begin", func(t *testing.T) {
		m := newMock(t)
		m.ExpectBegin().WillReturnError(errors.New("no conn"))
		_, err := postgres.NewCatalogRepo(m).Replace(context.Background(), one)
		require.ErrorContains(t, err, "op=internships.replace_begin")
	})
	t.Run("upsert rolls back", func(t *testing.T) {
		m := newMock(t)
		m.ExpectBegin()
		m.ExpectExec("INSERT INTO internships").WillReturnError(errors.New("constraint"))
		m.ExpectRollback()
		_, err := postgres.NewCatalogRepo(m).Replace(context.Background(), one)
		require.ErrorContains(t, err, "op=internships.replace_upsert id=1")
		require.NoError(t, m.ExpectationsWereMet())
	})
	t.Run("commit", func(t *testing.T) {
		m := newMock(t)
		m.ExpectBegin()
		m.ExpectExec("INSERT INTO internships").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		m.ExpectExec("DELETE FROM internships").WillReturnResult(pgxmock.NewResult("DELETE", 0))
		m.ExpectCommit().WillReturnError(errors.New("serialization failure"))
		m.ExpectRollback()
		_, err := postgres.NewCatalogRepo(m).Replace(context.Background(), one)
		require.ErrorContains(t, err, "op=internships.replace_commit")
	})
}
