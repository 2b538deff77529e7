package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fairyhunter13/internship-recommender/internal/matching"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	matchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// render formats a result as one bordered card per recommendation followed
// by the analytics summary.
func render(res matching.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Internship recommendations"))
	b.WriteString("\n")
	if len(res.Recommendations) == 0 {
		b.WriteString(dimStyle.Render("no recommendations found"))
		return b.String()
	}
	for i, rec := range res.Recommendations {
		p := rec.Posting
		var card strings.Builder
		fmt.Fprintf(&card, "%d. %s at %s  %s\n", i+1, p.Role, p.Company, scoreStyle.Render(fmt.Sprintf("%d%%", rec.ConfidenceScore)))
		card.WriteString(dimStyle.Render(fmt.Sprintf("%s | %s | requires %s", p.Location, p.Industry, p.SkillsDisplay())))
		card.WriteString("\n")
		if len(rec.SkillsAnalysis.MatchingSkills) > 0 {
			card.WriteString(matchStyle.Render("have: " + strings.Join(rec.SkillsAnalysis.MatchingSkills, ", ")))
			card.WriteString("\n")
		}
		if len(rec.SkillsAnalysis.MissingSkills) > 0 {
			card.WriteString(missingStyle.Render("learn: " + strings.Join(rec.SkillsAnalysis.MissingSkills, ", ")))
			card.WriteString("\n")
		}
		sb := rec.ScoreBreakdown
		fmt.Fprintf(&card, "skills %.2f  industry %.2f  location %.2f  education %.2f\n",
			sb.SkillsMatch, sb.IndustryMatch, sb.LocationMatch, sb.EducationCompatibility)
		card.WriteString(rec.MatchReasoning)
		b.WriteString(cardStyle.Render(card.String()))
		b.WriteString("\n")
	}
	a := res.Analytics
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d results, average confidence %d%%, top match %d%%",
		a.TotalRecommendations, a.AvgConfidence, a.TopMatchScore)))
	return b.String()
}
