// Package quality scores generated content against heuristic rules. The
// gate only annotates: lower-quality output still ships, because a
// placeholder page beats a missing one.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"contentsmith/internal/catalog"
	"contentsmith/internal/content"
)

// Scoring thresholds.
const (
	minDescriptionWords    = 50
	targetDescriptionWords = 150
	minUsageSteps          = 3
	minFAQItems            = 2
	metaMinChars           = 120
	metaMaxChars           = 160
	passingScore           = 60

	productKeyword = "ComfyUI"
)

// Deductions, applied in rule-table order.
const (
	deductShortDescription  = 30
	deductBelowTargetLength = 10
	deductFewSteps          = 15
	deductFewFAQ            = 10
	deductMissingModel      = 5
	deductMissingKeyword    = 10
	deductMetaLength        = 10
	deductBannedPhrase      = 5
)

// bannedPhrases are AI-sounding marketing clichés. Each match costs one
// deduction.
var bannedPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)in today's (fast-paced|digital) world`),
	regexp.MustCompile(`(?i)unleash(ing)? (the|your)`),
	regexp.MustCompile(`(?i)unlock (the|your) (power|potential)`),
	regexp.MustCompile(`(?i)revolutioniz\w+`),
	regexp.MustCompile(`(?i)game.chang\w+`),
	regexp.MustCompile(`(?i)take .{1,40} to the next level`),
	regexp.MustCompile(`(?i)elevate your`),
	regexp.MustCompile(`(?i)seamlessly integrat\w+`),
	regexp.MustCompile(`(?i)whether you'?re a`),
	regexp.MustCompile(`(?i)look no further`),
}

// Report is the gate's verdict for one record.
type Report struct {
	Score  int
	Passed bool
	Issues []string
}

// Score evaluates generated content for a template. The rules run in a
// fixed order; each appends a human-readable issue when it fires.
func Score(rec catalog.TemplateRecord, gen content.Generated) Report {
	report := Report{Score: 100}
	deduct := func(points int, format string, args ...interface{}) {
		report.Score -= points
		report.Issues = append(report.Issues, fmt.Sprintf(format, args...))
	}

	words := len(strings.Fields(gen.ExtendedDescription))
	if words < minDescriptionWords {
		deduct(deductShortDescription, "description too short: %d words (min %d)", words, minDescriptionWords)
	} else if words < targetDescriptionWords {
		deduct(deductBelowTargetLength, "description below target: %d words (target %d)", words, targetDescriptionWords)
	}

	if len(gen.HowToUse) < minUsageSteps {
		deduct(deductFewSteps, "only %d usage steps (min %d)", len(gen.HowToUse), minUsageSteps)
	}

	if len(gen.FAQItems) < minFAQItems {
		deduct(deductFewFAQ, "only %d FAQ items (min %d)", len(gen.FAQItems), minFAQItems)
	}

	descLower := strings.ToLower(gen.ExtendedDescription)
	for _, model := range rec.Models {
		if !strings.Contains(descLower, strings.ToLower(model)) {
			deduct(deductMissingModel, "model %q not mentioned in description", model)
		}
	}

	if !strings.Contains(descLower, strings.ToLower(productKeyword)) {
		deduct(deductMissingKeyword, "missing product keyword %q", productKeyword)
	}

	if metaLen := len(gen.MetaDescription); metaLen < metaMinChars || metaLen > metaMaxChars {
		deduct(deductMetaLength, "meta description %d chars (target %d-%d)", metaLen, metaMinChars, metaMaxChars)
	}

	for _, pattern := range bannedPhrases {
		for _, match := range pattern.FindAllString(gen.ExtendedDescription, -1) {
			deduct(deductBannedPhrase, "AI-sounding phrase: %q", match)
		}
	}

	if report.Score < 0 {
		report.Score = 0
	}
	report.Passed = report.Score >= passingScore
	return report
}
