package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("default catalog is empty")
	}

	paired := 0
	for _, cat := range c.Categories() {
		if cat.Paired {
			paired++
		}
	}
	if paired != 1 {
		t.Errorf("default catalog has %d paired categories, want 1", paired)
	}
}

func TestGet(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	cat, ok := c.Get("cat1")
	if !ok {
		t.Fatal("Get(cat1) not found")
	}
	if cat.ID != "cat1" {
		t.Errorf("Get(cat1).ID = %q", cat.ID)
	}
	if _, ok := c.Get("nope"); ok {
		t.Error("Get(nope) should not be found")
	}
}

func TestCategories_ReturnsCopy(t *testing.T) {
	c, _ := Default()
	cats := c.Categories()
	cats[0].ID = "mutated"

	if c.Categories()[0].ID == "mutated" {
		t.Error("Categories() exposed internal slice")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "categories: []",
			wantErr: "no categories",
		},
		{
			name: "duplicate category",
			yaml: `
categories:
  - { id: a, title: A }
  - { id: a, title: B }`,
			wantErr: "duplicate category",
		},
		{
			name: "reserved prefix",
			yaml: `
categories:
  - id: a
    title: A
    candidates:
      - { id: "custom:x", name: X }`,
			wantErr: "reserved",
		},
		{
			name: "duplicate candidate",
			yaml: `
categories:
  - id: a
    title: A
    candidates:
      - { id: x, name: X }
      - { id: x, name: Y }`,
			wantErr: "duplicate candidate",
		},
		{
			name: "two paired",
			yaml: `
categories:
  - { id: a, title: A, paired: true }
  - { id: b, title: B, paired: true }`,
			wantErr: "paired",
		},
		{
			name:    "bad yaml",
			yaml:    "categories: [",
			wantErr: "decoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cats.yaml")
	data := `
categories:
  - id: x
    title: X
    emoji: "🔥"
    candidates:
      - { id: x1, name: One }
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cat, _ := c.Get("x")
	if len(cat.Candidates) != 1 || cat.Candidates[0].Name != "One" {
		t.Errorf("loaded category = %+v", cat)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
