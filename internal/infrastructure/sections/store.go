package sections

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chipfilings/assistant/internal/core/domain"
)

// Store keeps one JSON section index per filing, named
// <filing>_sections.json under the sections directory.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "./data/sections"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sections dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Load(_ context.Context, sourceFile string) ([]domain.Section, error) {
	raw, err := os.ReadFile(s.path(sourceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrFilingNotFound, "load section index", fmt.Errorf("%s: %w", sourceFile, err))
		}
		return nil, fmt.Errorf("read section index: %w", err)
	}

	var sections []domain.Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("parse section index %s: %w", sourceFile, err)
	}
	return sections, nil
}

func (s *Store) Save(_ context.Context, sourceFile string, sections []domain.Section) error {
	raw, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal section index: %w", err)
	}

	path := s.path(sourceFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write section index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace section index: %w", err)
	}
	return nil
}

func (s *Store) path(sourceFile string) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), ".pdf")
	return filepath.Join(s.dir, base+"_sections.json")
}
