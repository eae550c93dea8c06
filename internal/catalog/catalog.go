// Package catalog loads the fixed list of categories people vote in.
//
// The catalog is read once at startup, either from the embedded default
// or from a YAML file, and never changes afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sakif/slay-vote/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

type file struct {
	Categories []model.Category `yaml:"categories"`
}

// Catalog is an ordered, validated set of categories.
type Catalog struct {
	categories []model.Category
	byID       map[string]int
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog from a YAML file. An empty path means the
// embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decoding yaml: %w", err)
	}
	return New(f.Categories)
}

// New validates categories and builds a Catalog from them.
func New(categories []model.Category) (*Catalog, error) {
	if err := validate(categories); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	c := &Catalog{
		categories: categories,
		byID:       make(map[string]int, len(categories)),
	}
	for i, cat := range categories {
		c.byID[cat.ID] = i
	}
	return c, nil
}

// Categories returns the categories in display order. The slice is a
// copy; the catalog itself is immutable.
func (c *Catalog) Categories() []model.Category {
	out := make([]model.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Len returns the number of categories.
func (c *Catalog) Len() int { return len(c.categories) }

// Get looks up a category by ID.
func (c *Catalog) Get(id string) (model.Category, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Category{}, false
	}
	return c.categories[i], true
}

func validate(categories []model.Category) error {
	if len(categories) == 0 {
		return errors.New("no categories defined")
	}

	seenCats := make(map[string]bool, len(categories))
	paired := 0
	for _, cat := range categories {
		if cat.ID == "" {
			return errors.New("category with empty id")
		}
		if seenCats[cat.ID] {
			return fmt.Errorf("duplicate category id %q", cat.ID)
		}
		seenCats[cat.ID] = true
		if cat.Title == "" {
			return fmt.Errorf("category %q has no title", cat.ID)
		}
		if cat.Paired {
			paired++
		}

		seen := make(map[string]bool, len(cat.Candidates))
		for _, cand := range cat.Candidates {
			switch {
			case cand.ID == "":
				return fmt.Errorf("category %q: candidate with empty id", cat.ID)
			case strings.HasPrefix(cand.ID, model.WriteInMarker):
				return fmt.Errorf("category %q: candidate id %q uses the reserved %q prefix",
					cat.ID, cand.ID, model.WriteInMarker)
			case seen[cand.ID]:
				return fmt.Errorf("category %q: duplicate candidate id %q", cat.ID, cand.ID)
			case strings.TrimSpace(cand.Name) == "":
				return fmt.Errorf("category %q: candidate %q has no name", cat.ID, cand.ID)
			}
			seen[cand.ID] = true
		}
	}

	if paired > 1 {
		return fmt.Errorf("%d paired categories defined, at most one allowed", paired)
	}
	return nil
}
