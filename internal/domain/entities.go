package domain

import (
	"context"
	"errors"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrRateLimited          = errors.New("rate limited")
	ErrEngineNotInitialized = errors.New("engine not initialized")
	ErrMalformedPosting     = errors.New("malformed posting")
	ErrInternal             = errors.New("internal error")
)

// Posting is one internship in the catalog.
// Invariants: ID non-empty and unique within a catalog; RequiredSkills keeps
// the catalog's display casing and order.
type Posting struct {
	ID             string   `json:"id" yaml:"id"`
	Company        string   `json:"company" yaml:"company"`
	Role           string   `json:"role" yaml:"role"`
	Location       string   `json:"location" yaml:"location"`
	Industry       string   `json:"industry" yaml:"industry"`
	RequiredSkills []string `json:"required_skills" yaml:"required_skills"`
	// MinEducation is an optional education level label; empty means the
	// posting states no requirement.
	MinEducation string `json:"min_education,omitempty" yaml:"min_education,omitempty"`
}

// DescriptionText is the corpus document used to fit the vector space.
func (p Posting) DescriptionText() string {
	parts := make([]string, 0, 2+len(p.RequiredSkills))
	parts = append(parts, p.Role, p.Industry)
	parts = append(parts, p.RequiredSkills...)
	return strings.Join(parts, " ")
}

// SkillsDisplay joins the required skills for tables and CSV export.
func (p Posting) SkillsDisplay() string { return strings.Join(p.RequiredSkills, ", ") }

// SkillsAnalysis is the skill-gap view of one posting for one candidate.
type SkillsAnalysis struct {
	MatchingSkills  []string `json:"matching_skills"`
	MissingSkills   []string `json:"missing_skills"`
	MatchPercentage float64  `json:"match_percentage"`
}

// ScoreBreakdown holds the four normalized components of the composite score.
type ScoreBreakdown struct {
	SkillsMatch            float64 `json:"skills_match"`
	IndustryMatch          float64 `json:"industry_match"`
	LocationMatch          float64 `json:"location_match"`
	EducationCompatibility float64 `json:"education_compatibility"`
}

// Recommendation is the scored, explained result for one posting.
type Recommendation struct {
	Posting         Posting        `json:"posting"`
	Similarity      float64        `json:"similarity"`
	ConfidenceScore int            `json:"confidence_score"`
	SkillsAnalysis  SkillsAnalysis `json:"skills_analysis"`
	ScoreBreakdown  ScoreBreakdown `json:"score_breakdown"`
	MatchReasoning  string         `json:"match_reasoning"`
}

// CandidateSummary echoes the profile facts shown next to analytics.
type CandidateSummary struct {
	SkillsCount        int    `json:"skills_count"`
	EducationLevel     string `json:"education_level"`
	SectorInterest     string `json:"sector_interest"`
	LocationPreference string `json:"location_preference"`
}

// Analytics summarizes one recommendation set.
type Analytics struct {
	TotalRecommendations int              `json:"total_recommendations"`
	AvgConfidence        int              `json:"avg_confidence"`
	TopMatchScore        int              `json:"top_match_score"`
	CandidateProfile     CandidateSummary `json:"candidate_profile"`
}

// CatalogSource (port) loads the ordered posting catalog.
// Implementations may read files, object storage or a database.
type CatalogSource interface {
	Name() string
	Load(ctx Context) ([]Posting, error)
}

// CatalogEvent is published when the stored catalog changes.
type CatalogEvent struct {
	Type     string `json:"type"`
	Source   string `json:"source"`
	Postings int    `json:"postings"`
	At       int64  `json:"at"`
}

// CatalogEventTypeUpdated marks a catalog content change.
const CatalogEventTypeUpdated = "catalog.updated"

// Context is an alias so ports read the same across adapters.
type Context = context.Context
