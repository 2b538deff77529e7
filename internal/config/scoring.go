package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScoringConfig holds the effective scoring knobs after env defaults and the
// optional YAML override are merged.
type ScoringConfig struct {
	WeightSkills          float64
	WeightIndustry        float64
	WeightLocation        float64
	WeightEducation       float64
	LocationPartialCredit float64
	EducationNeutralScore float64
	DefaultTopN           int
}

// ScoringYAML is the on-disk override format. Absent keys keep the env value.
type ScoringYAML struct {
	Weights struct {
		Skills    *float64 `yaml:"skills"`
		Industry  *float64 `yaml:"industry"`
		Location  *float64 `yaml:"location"`
		Education *float64 `yaml:"education"`
	} `yaml:"weights"`
	LocationPartialCredit *float64 `yaml:"location_partial_credit"`
	EducationNeutralScore *float64 `yaml:"education_neutral_score"`
	DefaultTopN           *int     `yaml:"default_top_n"`
}

// Scoring returns the scoring configuration, applying SCORING_CONFIG_PATH
// when set.
func (c Config) Scoring() (ScoringConfig, error) {
	sc := ScoringConfig{
		WeightSkills:          c.WeightSkills,
		WeightIndustry:        c.WeightIndustry,
		WeightLocation:        c.WeightLocation,
		WeightEducation:       c.WeightEducation,
		LocationPartialCredit: c.LocationPartialCredit,
		EducationNeutralScore: c.EducationNeutralScore,
		DefaultTopN:           c.DefaultTopN,
	}
	if c.ScoringConfigPath == "" {
		return sc, nil
	}
	y, err := LoadScoringYAML(c.ScoringConfigPath)
	if err != nil {
		return ScoringConfig{}, fmt.Errorf("op=config.Scoring: %w", err)
	}
	y.apply(&sc)
	return sc, nil
}

// LoadScoringYAML reads a scoring override file.
func LoadScoringYAML(filePath string) (*ScoringYAML, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	data, err := os.ReadFile(absPath) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", absPath, err)
	}
	var y ScoringYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", absPath, err)
	}
	return &y, nil
}

func (y *ScoringYAML) apply(sc *ScoringConfig) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&sc.WeightSkills, y.Weights.Skills)
	set(&sc.WeightIndustry, y.Weights.Industry)
	set(&sc.WeightLocation, y.Weights.Location)
	set(&sc.WeightEducation, y.Weights.Education)
	set(&sc.LocationPartialCredit, y.LocationPartialCredit)
	set(&sc.EducationNeutralScore, y.EducationNeutralScore)
	if y.DefaultTopN != nil {
		sc.DefaultTopN = *y.DefaultTopN
	}
}
