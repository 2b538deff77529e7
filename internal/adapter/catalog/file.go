package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// maxCatalogBytes bounds what a single catalog read may pull into memory.
const maxCatalogBytes = 64 << 20

// FileSource loads a catalog from a local CSV, YAML or JSON file.
type FileSource struct {
	Path string
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

// Name implements domain.CatalogSource.
func (s *FileSource) Name() string { return "file" }

// Load implements domain.CatalogSource.
func (s *FileSource) Load(ctx context.Context) ([]domain.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.FileSource.Load: %w", err)
	}
	if info.Size() > maxCatalogBytes {
		return nil, fmt.Errorf("op=catalog.FileSource.Load: %s is %d bytes, limit %d", s.Path, info.Size(), maxCatalogBytes)
	}
	data, err := os.ReadFile(s.Path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("op=catalog.FileSource.Load: %w", err)
	}
	return decodeNamed(s.Path, data)
}

func decodeNamed(name string, data []byte) ([]domain.Posting, error) {
	f, err := DetectFormat(name, data)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.decode: %w", err)
	}
	postings, err := Decode(f, data)
	if err != nil {
		return nil, fmt.Errorf("op=catalog.decode: %s: %w", name, err)
	}
	return postings, nil
}
