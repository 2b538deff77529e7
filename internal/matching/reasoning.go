package matching

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

const maxReasonSkills = 3

type component int

const (
	compSkills component = iota
	compIndustry
	compLocation
	compEducation
)

type rankedComponent struct {
	kind  component
	value float64
}

// orderComponents sorts the breakdown by value, descending. Equal values
// keep skills, industry, location, education order.
func orderComponents(b domain.ScoreBreakdown) []rankedComponent {
	cs := []rankedComponent{
		{compSkills, b.SkillsMatch},
		{compIndustry, b.IndustryMatch},
		{compLocation, b.LocationMatch},
		{compEducation, b.EducationCompatibility},
	}
	// insertion sort keeps ties in declaration order
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].value > cs[j-1].value; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
	return cs
}

// Explain renders the match reasoning for one result. The first clause names
// the strongest breakdown component and the second, when present, the next
// non-zero one. Skills are always mentioned: up to three matched skills, or
// an explicit note that none matched.
func Explain(b domain.ScoreBreakdown, sa domain.SkillsAnalysis, p domain.CandidateProfile, post domain.Posting) string {
	cs := orderComponents(b)
	used := []component{cs[0].kind}
	for _, c := range cs[1:] {
		if c.value > 0 {
			used = append(used, c.kind)
			break
		}
	}
	clauses := make([]string, 0, len(used)+1)
	mentionsSkills := false
	for _, k := range used {
		clauses = append(clauses, clause(k, b, sa, p, post))
		mentionsSkills = mentionsSkills || k == compSkills
	}
	if !mentionsSkills {
		if len(sa.MatchingSkills) == 0 {
			clauses = append(clauses, noSkillsClause(post))
		} else {
			clauses = append(clauses, skillsOverlap(sa.MatchingSkills))
		}
	}
	out := strings.Join(clauses, "; ")
	return strings.ToUpper(out[:1]) + out[1:] + "."
}

func clause(kind component, b domain.ScoreBreakdown, sa domain.SkillsAnalysis, p domain.CandidateProfile, post domain.Posting) string {
	switch kind {
	case compSkills:
		if len(sa.MatchingSkills) == 0 {
			return noSkillsClause(post)
		}
		return "strong " + skillsOverlap(sa.MatchingSkills)
	case compIndustry:
		return fmt.Sprintf("industry %s fits your interest in %s", post.Industry, p.SectorInterest)
	case compLocation:
		if b.LocationMatch >= 1 {
			return "matches preferred location " + post.Location
		}
		return fmt.Sprintf("located in %s, near preferred location %s", post.Location, p.LocationPreference)
	default:
		if strings.TrimSpace(post.MinEducation) == "" {
			return "no minimum education stated"
		}
		if b.EducationCompatibility < 1 {
			return fmt.Sprintf("education %s partly meets the %s requirement", p.EducationLevel.Label, post.MinEducation)
		}
		return fmt.Sprintf("education %s meets the %s requirement", p.EducationLevel.Label, post.MinEducation)
	}
}

func skillsOverlap(matching []string) string {
	if len(matching) > maxReasonSkills {
		matching = matching[:maxReasonSkills]
	}
	return "skills overlap in " + strings.Join(matching, ", ")
}

func noSkillsClause(post domain.Posting) string {
	if len(post.RequiredSkills) == 0 {
		return "no required skill listed"
	}
	return "no required skill matched your profile"
}
