package food

import (
	"fmt"
	"path/filepath"

	"github.com/xaenox/time-bot/internal/notes"
	"github.com/xaenox/time-bot/internal/storage"
)

const FoodsDir = "Foods"

type foodNoteMeta struct {
	OriginalName string `yaml:"original_name"`
	Filename     string `yaml:"filename"`
}

// FoodsService keeps one reference note per distinct food.
type FoodsService struct {
	files storage.Files
	dir   string
}

func NewFoodsService(files storage.Files) *FoodsService {
	return &FoodsService{files: files, dir: FoodsDir}
}

// EnsureNotes makes sure every food has a note and returns their paths in
// input order. A food whose sanitized name collides with a note for a
// different original name gets "name (2).md", "name (3).md" and so on.
func (s *FoodsService) EnsureNotes(foods []string) ([]string, error) {
	paths := make([]string, 0, len(foods))
	reserved := make(map[string]bool, len(foods))
	for _, f := range foods {
		rel := s.selectPath(f, reserved)
		reserved[rel] = true

		content, err := defaultFoodNote(f, filepath.Base(rel))
		if err != nil {
			return nil, err
		}
		path, err := s.files.EnsureFile(rel, content)
		if err != nil {
			return nil, fmt.Errorf("ensure note for %q: %w", f, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *FoodsService) selectPath(food string, reserved map[string]bool) string {
	base := SanitizeFilename(food)
	for n := 1; ; n++ {
		name := base + ".md"
		if n > 1 {
			name = fmt.Sprintf("%s (%d).md", base, n)
		}
		rel := filepath.Join(s.dir, name)
		if s.matchesOriginal(rel, food) {
			return rel
		}
		if !s.files.Exists(rel) && !reserved[rel] {
			return rel
		}
	}
}

func (s *FoodsService) matchesOriginal(rel, food string) bool {
	if !s.files.Exists(rel) {
		return false
	}
	content, err := s.files.ReadText(rel)
	if err != nil {
		return false
	}
	fm, _, err := notes.Split(content)
	if err != nil {
		return false
	}
	return fm.String("original_name") == food
}

func defaultFoodNote(food, filename string) (string, error) {
	return renderFrontmatter(foodNoteMeta{OriginalName: food, Filename: filename},
		fmt.Sprintf("# %s\n\n%s\n", food, bodyTag))
}
