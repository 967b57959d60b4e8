package assembler

import (
	"testing"
	"time"

	"contentsmith/internal/catalog"
)

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestClassifyStyle_Breakthrough(t *testing.T) {
	rec := catalog.TemplateRecord{
		Name:   "wan_2.5_video",
		Date:   "2026-08-01",
		Models: []string{"Wan 2.5"},
	}
	if got := ClassifyStyle(rec, now); got != StyleBreakthrough {
		t.Errorf("expected breakthrough, got %s", got)
	}
}

func TestClassifyStyle_BreakthroughRequiresRecency(t *testing.T) {
	rec := catalog.TemplateRecord{
		Name:   "wan_2.5_video",
		Date:   "2025-01-01",
		Models: []string{"Wan 2.5"},
	}
	if got := ClassifyStyle(rec, now); got == StyleBreakthrough {
		t.Error("old records must not classify as breakthrough")
	}
}

func TestClassifyStyle_BreakthroughRequiresKeyword(t *testing.T) {
	rec := catalog.TemplateRecord{
		Name: "plain_template",
		Date: "2026-08-01",
	}
	if got := ClassifyStyle(rec, now); got == StyleBreakthrough {
		t.Error("recency alone must not classify as breakthrough")
	}
}

func TestClassifyStyle_Comparison(t *testing.T) {
	cases := []catalog.TemplateRecord{
		{Name: "flux_vs_sdxl"},
		{Name: "x", Description: "The best alternative to cloud upscalers"},
		{Name: "x", Title: "Compare samplers"},
	}
	for _, rec := range cases {
		if got := ClassifyStyle(rec, now); got != StyleComparison {
			t.Errorf("record %q: expected comparison, got %s", rec.Name, got)
		}
	}
}

func TestClassifyStyle_ComparisonDoesNotMatchInsideWords(t *testing.T) {
	rec := catalog.TemplateRecord{Name: "canvas_inpaint"}
	if got := ClassifyStyle(rec, now); got == StyleComparison {
		t.Error(`"canvas" must not match the vs keyword`)
	}
}

func TestClassifyStyle_ShowcaseByKeyword(t *testing.T) {
	rec := catalog.TemplateRecord{Name: "portrait_master", MediaType: catalog.MediaAudio}
	if got := ClassifyStyle(rec, now); got != StyleShowcase {
		t.Errorf("expected showcase, got %s", got)
	}
}

func TestClassifyStyle_ShowcaseByPopularity(t *testing.T) {
	popular := catalog.TemplateRecord{Name: "img_gen", MediaType: catalog.MediaImage, Usage: popularityThreshold + 1}
	if got := ClassifyStyle(popular, now); got != StyleShowcase {
		t.Errorf("expected showcase for popular visual template, got %s", got)
	}

	popularAudio := catalog.TemplateRecord{Name: "audio_gen", MediaType: catalog.MediaAudio, Usage: 5000}
	if got := ClassifyStyle(popularAudio, now); got == StyleShowcase {
		t.Error("non-visual templates must not showcase on popularity alone")
	}
}

func TestClassifyStyle_DefaultTutorial(t *testing.T) {
	rec := catalog.TemplateRecord{Name: "basic_inpaint", MediaType: catalog.MediaImage, Usage: 3}
	if got := ClassifyStyle(rec, now); got != StyleTutorial {
		t.Errorf("expected tutorial fallback, got %s", got)
	}
}

func TestClassifyStyle_PriorityOrder(t *testing.T) {
	// Qualifies as breakthrough AND comparison AND showcase; first rule wins.
	rec := catalog.TemplateRecord{
		Name:      "flux_pro_vs_sdxl_showcase",
		Date:      "2026-08-01",
		MediaType: catalog.MediaImage,
		Usage:     10000,
	}
	if got := ClassifyStyle(rec, now); got != StyleBreakthrough {
		t.Errorf("breakthrough must win ties, got %s", got)
	}
}
