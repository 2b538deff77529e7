package matching

import (
	"fmt"
	"math"
)

// Weights are the composite-score weights of the four breakdown components.
type Weights struct {
	Skills    float64 `yaml:"skills"`
	Industry  float64 `yaml:"industry"`
	Location  float64 `yaml:"location"`
	Education float64 `yaml:"education"`
}

// Options tune scoring and ranking. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	Weights Weights
	// LocationPartialCredit is awarded when the preference is contained in
	// the posting location without being equal to it.
	LocationPartialCredit float64
	// EducationNeutralScore applies to postings without a minimum level.
	EducationNeutralScore float64
	// TopN is the default result size.
	TopN int
}

// DefaultOptions returns the canonical four-factor configuration.
func DefaultOptions() Options {
	return Options{
		Weights:               Weights{Skills: 0.5, Industry: 0.2, Location: 0.2, Education: 0.1},
		LocationPartialCredit: 0.5,
		EducationNeutralScore: 0.5,
		TopN:                  5,
	}
}

// Validate rejects weights and credits outside their domains.
func (o Options) Validate() error {
	ws := []struct {
		name string
		v    float64
	}{
		{"skills", o.Weights.Skills},
		{"industry", o.Weights.Industry},
		{"location", o.Weights.Location},
		{"education", o.Weights.Education},
	}
	sum := 0.0
	for _, w := range ws {
		if w.v < 0 || math.IsNaN(w.v) || math.IsInf(w.v, 0) {
			return fmt.Errorf("weight %s must be a finite non-negative number, got %v", w.name, w.v)
		}
		sum += w.v
	}
	if sum <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	if o.LocationPartialCredit < 0 || o.LocationPartialCredit > 1 {
		return fmt.Errorf("location partial credit must be in [0,1], got %v", o.LocationPartialCredit)
	}
	if o.EducationNeutralScore < 0 || o.EducationNeutralScore > 1 {
		return fmt.Errorf("education neutral score must be in [0,1], got %v", o.EducationNeutralScore)
	}
	if o.TopN <= 0 {
		return fmt.Errorf("top n must be positive, got %d", o.TopN)
	}
	return nil
}
