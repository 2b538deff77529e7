// Command recommend ranks a catalog file for one candidate profile and
// prints the results, without any server or database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/catalog"
	"github.com/fairyhunter13/internship-recommender/internal/app"
	"github.com/fairyhunter13/internship-recommender/internal/config"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
)

type options struct {
	cfg         config.Config
	catalogPath string
	profile     domain.ProfileInput
	topN        int
	asJSON      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("recommend: %v", err)
	}
	var (
		o      = options{cfg: cfg}
		skills string
	)
	flag.StringVar(&o.catalogPath, "catalog", cfg.CatalogPath, "catalog file (CSV, YAML or JSON)")
	flag.StringVar(&o.cfg.ScoringConfigPath, "scoring", cfg.ScoringConfigPath, "optional scoring YAML override")
	flag.StringVar(&skills, "skills", "", "comma separated skills")
	flag.StringVar(&o.profile.EducationLevel, "education", "", "education level, e.g. B.Tech")
	flag.StringVar(&o.profile.SectorInterest, "sector", "", "sector of interest")
	flag.StringVar(&o.profile.LocationPreference, "location", "", "preferred location")
	flag.StringVar(&o.profile.Experience, "experience", "", "free-text experience")
	flag.StringVar(&o.profile.Aspirations, "aspirations", "", "free-text aspirations")
	flag.IntVar(&o.topN, "top", cfg.DefaultTopN, "number of recommendations")
	flag.BoolVar(&o.asJSON, "json", false, "print JSON instead of a table")
	flag.Parse()
	o.profile.Skills = matching.ParseSkillList(skills)

	if err := run(context.Background(), os.Stdout, o); err != nil {
		log.Fatalf("recommend: %v", err)
	}
}

func run(ctx context.Context, w io.Writer, o options) error {
	opts, err := app.EngineOptions(o.cfg)
	if err != nil {
		return err
	}
	engine, err := matching.NewEngine(opts, nil)
	if err != nil {
		return err
	}

	postings, err := catalog.NewFileSource(o.catalogPath).Load(ctx)
	if err != nil {
		return err
	}
	snap, err := matching.NewSnapshot(postings)
	if err != nil {
		return err
	}
	engine.Publish(snap)

	profile, err := domain.NewCandidateProfile(o.profile)
	if err != nil {
		return err
	}
	res, err := engine.Recommend(profile, o.topN)
	if err != nil {
		return err
	}
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Recommendations []domain.Recommendation `json:"recommendations"`
			Analytics       domain.Analytics        `json:"analytics"`
		}{res.Recommendations, res.Analytics})
	}
	_, err = fmt.Fprintln(w, render(res))
	return err
}
