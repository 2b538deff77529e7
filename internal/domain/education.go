package domain

import (
	"strings"
	"unicode"
)

// EducationLevel is one entry of the fixed education enumeration.
type EducationLevel struct {
	Label string `json:"label"`
	Tier  int    `json:"tier"`
}

// Education tiers, lowest to highest.
const (
	TierSecondary       = 1
	TierHigherSecondary = 2
	TierDiploma         = 3
	TierUndergraduate   = 4
	TierPostgraduate    = 5
	TierDoctorate       = 6
)

// educationLevels is ordered by tier, then by the order shown to users.
var educationLevels = []EducationLevel{
	{"10th", TierSecondary},
	{"12th", TierHigherSecondary},
	{"Diploma", TierDiploma},
	{"UG", TierUndergraduate},
	{"B.Tech", TierUndergraduate},
	{"B.Sc", TierUndergraduate},
	{"BBA", TierUndergraduate},
	{"B.Com", TierUndergraduate},
	{"BCA", TierUndergraduate},
	{"PG", TierPostgraduate},
	{"M.Tech", TierPostgraduate},
	{"M.Sc", TierPostgraduate},
	{"MBA", TierPostgraduate},
	{"MCA", TierPostgraduate},
	{"M.Com", TierPostgraduate},
	{"PhD", TierDoctorate},
}

var educationIndex = func() map[string]EducationLevel {
	m := make(map[string]EducationLevel, len(educationLevels))
	for _, l := range educationLevels {
		m[educationKey(l.Label)] = l
	}
	return m
}()

// EducationLevels returns the enumeration in display order.
func EducationLevels() []EducationLevel {
	out := make([]EducationLevel, len(educationLevels))
	copy(out, educationLevels)
	return out
}

// LookupEducationLevel resolves a label ignoring case, spaces and
// punctuation, so "btech", "B. Tech" and "B.Tech" are the same level.
func LookupEducationLevel(label string) (EducationLevel, bool) {
	l, ok := educationIndex[educationKey(label)]
	return l, ok
}

func educationKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
