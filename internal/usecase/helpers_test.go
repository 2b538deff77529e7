package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
)

type stubSource struct {
	name     string
	postings []domain.Posting
	err      error
	calls    int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Load(_ context.Context) ([]domain.Posting, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.postings, nil
}

var errSourceDown = errors.New("source down")

func testCatalog() []domain.Posting {
	return []domain.Posting{
		{ID: "1", Company: "Acme", Role: "Data Analyst", Location: "Bengaluru", Industry: "Technology", RequiredSkills: []string{"Python", "SQL"}},
		{ID: "2", Company: "Brand", Role: "Marketing Intern", Location: "Mumbai", Industry: "Marketing", RequiredSkills: []string{"Communication", "SEO"}},
		{ID: "3", Company: "Ledger", Role: "Finance Analyst", Location: "New Delhi", Industry: "Finance", RequiredSkills: []string{"Excel", "python"}},
		{ID: "4", Company: "Gopher", Role: "Backend Intern", Location: "Bengaluru Urban", Industry: "Information Technology", RequiredSkills: []string{"Go", "SQL"}},
	}
}

func newEngine(t *testing.T) *matching.Engine {
	t.Helper()
	e, err := matching.NewEngine(matching.DefaultOptions(), nil)
	require.NoError(t, err)
	return e
}

func loadedEngine(t *testing.T, postings []domain.Posting) *matching.Engine {
	t.Helper()
	e := newEngine(t)
	snap, err := matching.NewSnapshot(postings)
	require.NoError(t, err)
	e.Publish(snap)
	return e
}
