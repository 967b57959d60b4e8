package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
	return path
}

func TestLoadIndex(t *testing.T) {
	path := writeIndex(t, `[
		{"title": "Image", "templates": [
			{"name": "flux_basic", "description": "Generates images with Flux", "mediaType": "image", "usage": 120},
			{"name": "sdxl_turbo", "description": "Fast SDXL", "mediaType": "image", "usage": 45}
		]},
		{"title": "Video", "templates": [
			{"name": "wan_video", "description": "Video generation", "mediaType": "video", "usage": 300}
		]}
	]`)

	categories, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}

	templates := Flatten(categories)
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}
	if templates[0].Name != "flux_basic" {
		t.Errorf("expected index order preserved, got %q first", templates[0].Name)
	}
}

func TestLoadIndex_Missing(t *testing.T) {
	if _, err := LoadIndex(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing index")
	}
}

func TestLoadIndex_Malformed(t *testing.T) {
	path := writeIndex(t, `{"not": "an array"`)
	if _, err := LoadIndex(path); err == nil {
		t.Fatal("expected error for malformed index")
	}
}

func TestTopByUsage(t *testing.T) {
	templates := []TemplateRecord{
		{Name: "a", Usage: 10},
		{Name: "b", Usage: 300},
		{Name: "c", Usage: 45},
	}

	top := TopByUsage(templates, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(top))
	}
	if top[0].Name != "b" || top[1].Name != "c" {
		t.Errorf("unexpected order: %q, %q", top[0].Name, top[1].Name)
	}

	// Input must not be reordered.
	if templates[0].Name != "a" {
		t.Error("TopByUsage mutated its input")
	}

	all := TopByUsage(templates, 0)
	if len(all) != 3 {
		t.Errorf("limit 0 should keep all templates, got %d", len(all))
	}
}

func TestFilterByName(t *testing.T) {
	templates := []TemplateRecord{
		{Name: "flux_basic"},
		{Name: "flux_schnell"},
		{Name: "sdxl_turbo"},
	}

	matched := FilterByName(templates, "FLUX")
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}

	if got := FilterByName(templates, ""); len(got) != 3 {
		t.Errorf("empty filter should keep all, got %d", len(got))
	}
}

func TestDisplayName(t *testing.T) {
	withTitle := TemplateRecord{Name: "flux_basic", Title: "Flux Basic"}
	if withTitle.DisplayName() != "Flux Basic" {
		t.Errorf("expected title, got %q", withTitle.DisplayName())
	}
	noTitle := TemplateRecord{Name: "flux_basic"}
	if noTitle.DisplayName() != "flux_basic" {
		t.Errorf("expected name fallback, got %q", noTitle.DisplayName())
	}
}
