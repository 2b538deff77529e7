package matching

import (
	"fmt"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// AnalyzeSkills splits required into skills the candidate has and skills
// they lack, both in posting order with display casing preserved.
func AnalyzeSkills(candidate TokenSet, required []string) domain.SkillsAnalysis {
	res := domain.SkillsAnalysis{
		MatchingSkills: make([]string, 0, len(required)),
		MissingSkills:  make([]string, 0, len(required)),
	}
	for _, s := range required {
		if candidate.Has(SkillKey(s)) {
			res.MatchingSkills = append(res.MatchingSkills, s)
		} else {
			res.MissingSkills = append(res.MissingSkills, s)
		}
	}
	if len(required) > 0 {
		res.MatchPercentage = float64(len(res.MatchingSkills)) / float64(len(required))
	}
	return res
}

// checkRequiredSkills rejects skill entries with no alphanumeric content.
// Distinct entries may share a key ("C++" and "C#" both fold to "c"); each
// still lands in exactly one of matching or missing.
func checkRequiredSkills(required []string) error {
	for i, s := range required {
		if SkillKey(s) == "" {
			return fmt.Errorf("%w: required skill %d %q has no comparable text", domain.ErrMalformedPosting, i, s)
		}
	}
	return nil
}
