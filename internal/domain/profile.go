package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError is a correctable input error. It always wraps
// ErrInvalidArgument so callers can match it with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidArgument.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidArgument, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// NewValidationError builds a single-field validation error.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ProfileInput is the raw, loosely typed boundary payload.
type ProfileInput struct {
	Skills             []string
	EducationLevel     string
	SectorInterest     string
	LocationPreference string
	Experience         string
	Aspirations        string
}

// CandidateProfile is the validated, per-request candidate.
// Invariants: Skills non-empty; EducationLevel is a known level; sector and
// location are non-empty after trimming.
type CandidateProfile struct {
	Skills             []string
	EducationLevel     EducationLevel
	SectorInterest     string
	LocationPreference string
	Experience         string
	Aspirations        string
}

// NewCandidateProfile validates in and returns the strongly typed profile.
// Skill entries are trimmed and deduplicated case-insensitively; the caller
// is expected to have split comma separated text already.
func NewCandidateProfile(in ProfileInput) (CandidateProfile, error) {
	verr := &ValidationError{Fields: map[string]string{}}

	skills := make([]string, 0, len(in.Skills))
	seen := make(map[string]struct{}, len(in.Skills))
	for _, s := range in.Skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		skills = append(skills, s)
	}
	if len(skills) == 0 {
		verr.Fields["skills"] = "required"
	}

	edu := strings.TrimSpace(in.EducationLevel)
	level, known := LookupEducationLevel(edu)
	switch {
	case edu == "":
		verr.Fields["education_level"] = "required"
	case !known:
		verr.Fields["education_level"] = "unknown education level"
	}

	sector := strings.TrimSpace(in.SectorInterest)
	if sector == "" {
		verr.Fields["sector_interest"] = "required"
	}
	loc := strings.TrimSpace(in.LocationPreference)
	if loc == "" {
		verr.Fields["location_preference"] = "required"
	}
	if len(verr.Fields) > 0 {
		return CandidateProfile{}, verr
	}
	return CandidateProfile{
		Skills:             skills,
		EducationLevel:     level,
		SectorInterest:     sector,
		LocationPreference: loc,
		Experience:         strings.TrimSpace(in.Experience),
		Aspirations:        strings.TrimSpace(in.Aspirations),
	}, nil
}
