package matching

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// Skipped records a posting the ranker could not score.
type Skipped struct {
	PostingID string
	Err       error
}

// Ranking is the ranker output: the truncated, ordered results plus the
// postings that were left out because they failed to score.
type Ranking struct {
	Results []domain.Recommendation
	Skipped []Skipped
	// Scored counts postings that produced a result before truncation.
	Scored int
}

// Ranker assembles, orders and explains recommendation results.
type Ranker struct {
	scorer Scorer
	logger *slog.Logger
}

// NewRanker returns a Ranker. A nil logger falls back to slog.Default.
func NewRanker(opts Options, logger *slog.Logger) Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return Ranker{scorer: NewScorer(opts), logger: logger}
}

// Rank scores every posting of the snapshot against the profile and returns
// at most topN results. A posting that fails to score is skipped and logged
// at debug level; it never fails the batch.
func (r Ranker) Rank(s *Snapshot, p domain.CandidateProfile, topN int) (Ranking, error) {
	if s == nil {
		return Ranking{}, domain.ErrEngineNotInitialized
	}
	doc, err := BuildQueryDocument(p)
	if err != nil {
		return Ranking{}, err
	}
	query := s.model.Transform(doc)
	skills := CandidateSkillSet(p.Skills)

	out := Ranking{Results: make([]domain.Recommendation, 0, len(s.postings))}
	for i, post := range s.postings {
		rec, err := r.scoreOne(query, s.vectors[i], skills, p, post)
		if err != nil {
			r.logger.Debug("posting skipped", slog.String("posting_id", post.ID), slog.Any("error", err))
			out.Skipped = append(out.Skipped, Skipped{PostingID: post.ID, Err: err})
			continue
		}
		out.Results = append(out.Results, rec)
	}
	out.Scored = len(out.Results)

	SortRecommendations(out.Results)
	if topN > 0 && len(out.Results) > topN {
		out.Results = out.Results[:topN]
	}
	return out, nil
}

func (r Ranker) scoreOne(query, vec Vector, skills TokenSet, p domain.CandidateProfile, post domain.Posting) (domain.Recommendation, error) {
	if len(vec) != len(query) {
		return domain.Recommendation{}, fmt.Errorf("%w: vector dimension %d, query %d", domain.ErrMalformedPosting, len(vec), len(query))
	}
	if err := checkRequiredSkills(post.RequiredSkills); err != nil {
		return domain.Recommendation{}, err
	}
	sc := r.scorer.Score(query, vec, p, post)
	if math.IsNaN(sc.Composite) || math.IsInf(sc.Composite, 0) {
		return domain.Recommendation{}, fmt.Errorf("%w: non-finite score", domain.ErrMalformedPosting)
	}
	sa := AnalyzeSkills(skills, post.RequiredSkills)
	return domain.Recommendation{
		Posting:         post,
		Similarity:      sc.Similarity,
		ConfidenceScore: sc.Confidence,
		SkillsAnalysis:  sa,
		ScoreBreakdown:  sc.Breakdown,
		MatchReasoning:  Explain(sc.Breakdown, sa, p, post),
	}, nil
}

// SortRecommendations orders by confidence descending, then posting id
// ascending.
func SortRecommendations(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].ConfidenceScore != recs[j].ConfidenceScore {
			return recs[i].ConfidenceScore > recs[j].ConfidenceScore
		}
		return CompareIDs(recs[i].Posting.ID, recs[j].Posting.ID) < 0
	})
}

// CompareIDs orders posting ids numerically when both parse as integers and
// lexicographically otherwise.
func CompareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
