package assembler

import (
	"regexp"
	"strings"
	"time"

	"contentsmith/internal/catalog"
)

// Style selects which content voice a template page gets.
type Style string

const (
	StyleBreakthrough Style = "breakthrough" // recently released, version-bumped models
	StyleComparison   Style = "comparison"   // head-to-head and alternative pages
	StyleShowcase     Style = "showcase"     // popular visual templates
	StyleTutorial     Style = "tutorial"     // default walkthrough voice
)

// breakthroughWindow is how recent a record's date must be for the
// breakthrough style.
const breakthroughWindow = 90 * 24 * time.Hour

// popularityThreshold is the usage count above which a visual template
// qualifies as a showcase.
const popularityThreshold = 100

// Keyword tables. Rule order below is part of the observable contract:
// first match wins, so keep classification order out of ad-hoc branching.
var (
	versionKeywords  = []string{"2.0", "2.5", "3.0", "pro", "ultra", "new", "preview", "turbo"}
	showcaseKeywords = []string{"showcase", "gallery", "cinematic", "stunning", "portrait"}

	comparisonPattern = regexp.MustCompile(`(?i)\b(vs|versus|compare|comparison|alternative|better|best)\b`)
)

type styleRule struct {
	style   Style
	matches func(rec catalog.TemplateRecord, now time.Time) bool
}

var styleRules = []styleRule{
	{StyleBreakthrough, isBreakthrough},
	{StyleComparison, isComparison},
	{StyleShowcase, isShowcase},
}

// ClassifyStyle picks the content style for a record by evaluating the
// rule table in fixed priority order. Tutorial is the fallback.
func ClassifyStyle(rec catalog.TemplateRecord, now time.Time) Style {
	for _, rule := range styleRules {
		if rule.matches(rec, now) {
			return rule.style
		}
	}
	return StyleTutorial
}

func isBreakthrough(rec catalog.TemplateRecord, now time.Time) bool {
	if rec.Date == "" {
		return false
	}
	date, err := time.Parse("2006-01-02", rec.Date)
	if err != nil || now.Sub(date) > breakthroughWindow || date.After(now) {
		return false
	}

	haystack := strings.ToLower(rec.Name + " " + rec.Title + " " + strings.Join(rec.Models, " "))
	for _, kw := range versionKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func isComparison(rec catalog.TemplateRecord, _ time.Time) bool {
	haystack := rec.Name + " " + rec.Title + " " + rec.Description
	// Catalog names use underscores; normalize them so \b can see the words.
	haystack = strings.NewReplacer("_", " ", "-", " ").Replace(haystack)
	return comparisonPattern.MatchString(haystack)
}

func isShowcase(rec catalog.TemplateRecord, _ time.Time) bool {
	haystack := strings.ToLower(rec.Name + " " + rec.Title)
	for _, kw := range showcaseKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}

	visual := rec.MediaType == catalog.MediaImage || rec.MediaType == catalog.MediaVideo
	return visual && rec.Usage > popularityThreshold
}
