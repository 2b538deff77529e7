package matching

import (
	"math"
	"strings"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// Score is the scorer output for one posting.
type Score struct {
	Similarity float64
	Breakdown  domain.ScoreBreakdown
	Composite  float64
	Confidence int
}

// Scorer computes similarity and categorical bonuses. It holds only
// configuration and is safe to share.
type Scorer struct {
	opts Options
}

// NewScorer returns a Scorer using opts.
func NewScorer(opts Options) Scorer { return Scorer{opts: opts} }

// Score rates one posting against the candidate. The combined query vector
// doubles as the skills component: SkillsMatch equals Similarity.
func (s Scorer) Score(query, posting Vector, p domain.CandidateProfile, post domain.Posting) Score {
	sim := Cosine(query, posting)
	b := domain.ScoreBreakdown{
		SkillsMatch:            sim,
		IndustryMatch:          IndustryMatch(p.SectorInterest, post.Industry),
		LocationMatch:          LocationMatch(p.LocationPreference, post.Location, s.opts.LocationPartialCredit),
		EducationCompatibility: EducationCompatibility(p.EducationLevel, post.MinEducation, s.opts.EducationNeutralScore),
	}
	composite := s.Composite(b)
	return Score{
		Similarity: sim,
		Breakdown:  b,
		Composite:  composite,
		Confidence: ConfidenceScore(composite),
	}
}

// Composite is the weighted sum of the breakdown clamped to [0,1].
func (s Scorer) Composite(b domain.ScoreBreakdown) float64 {
	w := s.opts.Weights
	return clamp01(w.Skills*b.SkillsMatch +
		w.Industry*b.IndustryMatch +
		w.Location*b.LocationMatch +
		w.Education*b.EducationCompatibility)
}

// ConfidenceScore maps a composite in [0,1] to an integer in [0,100].
func ConfidenceScore(composite float64) int {
	return int(math.Round(clamp01(composite) * 100))
}

// IndustryMatch is 1 when every sector-interest token appears in the
// industry, otherwise the Jaccard overlap of the two token sets.
func IndustryMatch(sectorInterest, industry string) float64 {
	s := Normalize(sectorInterest)
	ind := Normalize(industry)
	if s.Len() == 0 || ind.Len() == 0 {
		return 0
	}
	inter := 0
	for t := range s {
		if ind.Has(t) {
			inter++
		}
	}
	if inter == s.Len() {
		return 1
	}
	union := s.Len() + ind.Len() - inter
	return float64(inter) / float64(union)
}

// LocationMatch is 1 on a case-insensitive exact match, partial when the
// preference is contained in the posting location, else 0.
func LocationMatch(preference, location string, partial float64) float64 {
	pref := normalizePhrase(preference)
	loc := normalizePhrase(location)
	switch {
	case pref == "" || loc == "":
		return 0
	case pref == loc:
		return 1
	case strings.Contains(loc, pref):
		return partial
	}
	return 0
}

// EducationCompatibility compares the candidate tier with the posting's
// minimum. Postings without a requirement, or with an unknown label, get
// the neutral score.
func EducationCompatibility(candidate domain.EducationLevel, required string, neutral float64) float64 {
	if strings.TrimSpace(required) == "" {
		return neutral
	}
	req, ok := domain.LookupEducationLevel(required)
	if !ok || req.Tier <= 0 {
		return neutral
	}
	if candidate.Tier >= req.Tier {
		return 1
	}
	if candidate.Tier <= 0 {
		return 0
	}
	return clamp01(float64(candidate.Tier) / float64(req.Tier))
}
