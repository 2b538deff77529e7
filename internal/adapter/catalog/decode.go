// Package catalog reads internship catalogs from files and object storage.
package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/pkg/textx"
)

// Format is a catalog serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned when a catalog cannot be recognized.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

var requiredColumns = []string{"id", "company", "role", "location", "industry", "required_skills"}

// DetectFormat picks the format from the file extension and falls back to
// content sniffing. JSON is read with the YAML decoder.
func DetectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	}
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("text/csv"):
		return FormatCSV, nil
	case mt.Is("application/json"):
		return FormatYAML, nil
	case mt.Is("text/plain"):
		// a header line naming required_skills marks CSV; other text is tried as YAML
		first, _, _ := bytes.Cut(data, []byte("\n"))
		if bytes.Contains(first, []byte(",")) && bytes.Contains(bytes.ToLower(first), []byte("required_skills")) {
			return FormatCSV, nil
		}
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, name, mt.String())
}

// Decode parses a catalog in the given format.
func Decode(f Format, data []byte) ([]domain.Posting, error) {
	switch f {
	case FormatCSV:
		return DecodeCSV(bytes.NewReader(data))
	case FormatYAML:
		return DecodeYAML(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// DecodeCSV reads a header row naming at least the required columns
// (any order, case-insensitive) plus an optional min_education column.
// required_skills holds a comma separated list.
func DecodeCSV(r io.Reader) ([]domain.Posting, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Posting{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("op=catalog.DecodeCSV: header: %w: %w", domain.ErrMalformedPosting, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := col[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("op=catalog.DecodeCSV: %w: missing columns: %s", domain.ErrMalformedPosting, strings.Join(missing, ", "))
	}
	eduCol, hasEdu := col["min_education"]

	out := []domain.Posting{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("op=catalog.DecodeCSV: line %d: %w: %w", line, domain.ErrMalformedPosting, err)
		}
		p := domain.Posting{
			ID:             textx.CleanField(rec[col["id"]]),
			Company:        textx.CleanField(rec[col["company"]]),
			Role:           textx.CleanField(rec[col["role"]]),
			Location:       textx.CleanField(rec[col["location"]]),
			Industry:       textx.CleanField(rec[col["industry"]]),
			RequiredSkills: textx.SplitList(rec[col["required_skills"]], ","),
		}
		if hasEdu {
			p.MinEducation = textx.CleanField(rec[eduCol])
		}
		out = append(out, p)
	}
	return out, nil
}

type yamlCatalog struct {
	Postings []yamlPosting `yaml:"postings"`
}

// yamlPosting accepts required_skills as a list or a comma separated string.
type yamlPosting struct {
	ID             string    `yaml:"id"`
	Company        string    `yaml:"company"`
	Role           string    `yaml:"role"`
	Location       string    `yaml:"location"`
	Industry       string    `yaml:"industry"`
	RequiredSkills yaml.Node `yaml:"required_skills"`
	MinEducation   string    `yaml:"min_education"`
}

// DecodeYAML reads either a top-level sequence of postings or a mapping with
// a postings key. JSON input is accepted.
func DecodeYAML(data []byte) ([]domain.Posting, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("op=catalog.DecodeYAML: %w: %w", domain.ErrMalformedPosting, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return []domain.Posting{}, nil
	}
	var items []yamlPosting
	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&items); err != nil {
			return nil, fmt.Errorf("op=catalog.DecodeYAML: %w: %w", domain.ErrMalformedPosting, err)
		}
	case yaml.MappingNode:
		var c yamlCatalog
		if err := doc.Decode(&c); err != nil {
			return nil, fmt.Errorf("op=catalog.DecodeYAML: %w: %w", domain.ErrMalformedPosting, err)
		}
		items = c.Postings
	default:
		return nil, fmt.Errorf("op=catalog.DecodeYAML: %w: %w: expected a list of postings", ErrUnsupportedFormat, domain.ErrMalformedPosting)
	}

	out := make([]domain.Posting, 0, len(items))
	for i, it := range items {
		skills, err := decodeSkills(&it.RequiredSkills)
		if err != nil {
			return nil, fmt.Errorf("op=catalog.DecodeYAML: posting %d: %w", i, err)
		}
		out = append(out, domain.Posting{
			ID:             textx.CleanField(it.ID),
			Company:        textx.CleanField(it.Company),
			Role:           textx.CleanField(it.Role),
			Location:       textx.CleanField(it.Location),
			Industry:       textx.CleanField(it.Industry),
			RequiredSkills: skills,
			MinEducation:   textx.CleanField(it.MinEducation),
		})
	}
	return out, nil
}

func decodeSkills(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case 0:
		return []string{}, nil
	case yaml.ScalarNode:
		return textx.SplitList(n.Value, ","), nil
	case yaml.SequenceNode:
		var raw []string
		if err := n.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: required_skills: %v", domain.ErrMalformedPosting, err)
		}
		out := make([]string, 0, len(raw))
		for _, s := range raw {
			out = append(out, textx.CleanField(s))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: required_skills must be a list or a string", domain.ErrMalformedPosting)
}
