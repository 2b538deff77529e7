// Package matching is the internship scoring core: text normalization,
// TF-IDF vector space, similarity and bonus scoring, skill-gap analysis,
// ranking and analytics.
//
// Everything in this package is pure and safe for concurrent use once a
// Snapshot has been built; nothing mutates shared state after Fit.
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// TokenSet is a set of normalized tokens or skill keys.
type TokenSet map[string]struct{}

// Has reports whether t is in the set.
func (s TokenSet) Has(t string) bool {
	_, ok := s[t]
	return ok
}

// Len returns the number of distinct members.
func (s TokenSet) Len() int { return len(s) }

// foldText lower-cases and strips combining marks so "Bengalūru" and
// "bengaluru" compare equal.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokenize lower-cases text and splits it on every rune that is not a letter
// or digit. Order and duplicates are kept for term-frequency counting.
func Tokenize(text string) []string {
	return strings.FieldsFunc(foldText(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalize returns the distinct tokens of text.
func Normalize(text string) TokenSet {
	toks := Tokenize(text)
	set := make(TokenSet, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

// SkillKey is the comparison key of a single skill: its tokens joined by one
// space. "Machine-Learning " and "machine learning" share a key.
func SkillKey(skill string) string {
	return strings.Join(Tokenize(skill), " ")
}

// ParseSkillList splits comma, semicolon or newline separated skills, trims
// them and drops empties and duplicates (by SkillKey, first wins).
func ParseSkillList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '|'
	})
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		k := SkillKey(p)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// CandidateSkillSet returns the skill keys of a profile. Entries that
// normalize to nothing are dropped.
func CandidateSkillSet(skills []string) TokenSet {
	set := make(TokenSet, len(skills))
	for _, s := range skills {
		if k := SkillKey(s); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// BuildQueryDocument concatenates skills, aspirations and sector interest
// into the text projected into the vector space. Location and education are
// scored separately and stay out of the document.
func BuildQueryDocument(p domain.CandidateProfile) (string, error) {
	if CandidateSkillSet(p.Skills).Len() == 0 {
		return "", domain.NewValidationError("skills", "no usable skill tokens")
	}
	parts := make([]string, 0, len(p.Skills)+2)
	parts = append(parts, p.Skills...)
	if p.Aspirations != "" {
		parts = append(parts, p.Aspirations)
	}
	parts = append(parts, p.SectorInterest)
	return strings.Join(parts, " "), nil
}

// normalizePhrase folds case and accents and collapses runs of whitespace.
func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(foldText(s)), " ")
}
