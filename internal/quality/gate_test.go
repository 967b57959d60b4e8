package quality

import (
	"strings"
	"testing"

	"contentsmith/internal/catalog"
	"contentsmith/internal/content"
)

func goodContent() content.Generated {
	sentence := "This ComfyUI workflow pairs flux with sdxl to produce detailed renders from plain text prompts. "
	desc := strings.Repeat(sentence, 11) // ~170 words
	return content.Generated{
		ExtendedDescription: desc,
		HowToUse:            []string{"Load the template", "Configure the prompt", "Queue the workflow"},
		MetaDescription:     strings.Repeat("Generate detailed images with this workflow. ", 4)[:140],
		FAQItems: []content.FAQ{
			{Question: "What models does this need?", Answer: "flux and sdxl."},
			{Question: "Does it run on CPU?", Answer: "Slowly, yes."},
		},
	}
}

func testRecord() catalog.TemplateRecord {
	return catalog.TemplateRecord{
		Name:   "flux_sdxl_render",
		Title:  "Flux + SDXL Render",
		Models: []string{"flux", "sdxl"},
	}
}

func TestScorePerfect(t *testing.T) {
	report := Score(testRecord(), goodContent())
	if report.Score != 100 {
		t.Fatalf("score = %d, issues: %v", report.Score, report.Issues)
	}
	if !report.Passed {
		t.Error("expected pass")
	}
}

func TestScoreShortDescription(t *testing.T) {
	gen := goodContent()
	gen.ExtendedDescription = "A ComfyUI workflow using flux and sdxl."
	report := Score(testRecord(), gen)
	if report.Score != 70 {
		t.Errorf("score = %d, want 70 (issues: %v)", report.Score, report.Issues)
	}
}

func TestScoreBelowTargetLength(t *testing.T) {
	gen := goodContent()
	sentence := "This ComfyUI workflow pairs flux with sdxl to render images from text prompts quickly. "
	gen.ExtendedDescription = strings.Repeat(sentence, 5) // ~70 words
	report := Score(testRecord(), gen)
	if report.Score != 90 {
		t.Errorf("score = %d, want 90 (issues: %v)", report.Score, report.Issues)
	}
}

func TestScoreMissingStructure(t *testing.T) {
	gen := goodContent()
	gen.HowToUse = []string{"Run it"}
	gen.FAQItems = nil
	report := Score(testRecord(), gen)
	if report.Score != 75 {
		t.Errorf("score = %d, want 75 (issues: %v)", report.Score, report.Issues)
	}
}

func TestScoreMissingModels(t *testing.T) {
	gen := goodContent()
	gen.ExtendedDescription = strings.Repeat("This ComfyUI workflow renders detailed images from plain text prompts every time. ", 13)
	report := Score(testRecord(), gen)
	if report.Score != 90 {
		t.Errorf("score = %d, want 90 for two missing models (issues: %v)", report.Score, report.Issues)
	}
}

func TestScoreMissingKeywordAndMeta(t *testing.T) {
	gen := goodContent()
	gen.ExtendedDescription = strings.Repeat("This workflow pairs flux with sdxl to produce detailed renders from plain text prompts. ", 12)
	gen.MetaDescription = "Too short."
	report := Score(testRecord(), gen)
	if report.Score != 80 {
		t.Errorf("score = %d, want 80 (issues: %v)", report.Score, report.Issues)
	}
}

func TestScoreBannedPhrases(t *testing.T) {
	gen := goodContent()
	gen.ExtendedDescription += " Unleash the power of diffusion and take your renders to the next level."
	report := Score(testRecord(), gen)
	if report.Score != 90 {
		t.Errorf("score = %d, want 90 for two banned phrases (issues: %v)", report.Score, report.Issues)
	}
}

func TestScoreFloorsAtZero(t *testing.T) {
	report := Score(testRecord(), content.Generated{})
	if report.Score < 0 {
		t.Errorf("score = %d, must not go negative", report.Score)
	}
	if report.Passed {
		t.Error("empty content must not pass")
	}
}

func TestScoreNeverBlocks(t *testing.T) {
	// Failing reports still carry the content; scoring has no side effects.
	gen := goodContent()
	before := gen.ExtendedDescription
	Score(testRecord(), gen)
	if gen.ExtendedDescription != before {
		t.Error("Score must not mutate its input")
	}
}
