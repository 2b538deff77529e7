package matching

import (
	"math"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// Summarize aggregates a ranked result list. It depends only on its inputs.
func Summarize(results []domain.Recommendation, p domain.CandidateProfile) domain.Analytics {
	a := domain.Analytics{
		TotalRecommendations: len(results),
		CandidateProfile: domain.CandidateSummary{
			SkillsCount:        CandidateSkillSet(p.Skills).Len(),
			EducationLevel:     p.EducationLevel.Label,
			SectorInterest:     p.SectorInterest,
			LocationPreference: p.LocationPreference,
		},
	}
	if len(results) == 0 {
		return a
	}
	sum := 0
	for _, r := range results {
		sum += r.ConfidenceScore
	}
	a.AvgConfidence = int(math.Round(float64(sum) / float64(len(results))))
	a.TopMatchScore = results[0].ConfidenceScore
	return a
}
