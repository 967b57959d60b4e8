// Package content defines the generated-content schema, placeholder
// synthesis, and the override merge that layers human corrections on top.
package content

import "time"

// metaDescriptionLimit caps meta descriptions for search snippets.
const metaDescriptionLimit = 160

// defaultHowToUse is the documented fallback when a response carries no
// usable step list.
var defaultHowToUse = []string{
	"Load the template",
	"Configure inputs",
	"Run the workflow",
}

// FAQ is a single question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Generated is the pipeline's output unit for one template.
type Generated struct {
	ExtendedDescription string    `json:"extendedDescription"`
	HowToUse            []string  `json:"howToUse"`
	MetaDescription     string    `json:"metaDescription"`
	SuggestedUseCases   []string  `json:"suggestedUseCases"`
	FAQItems            []FAQ     `json:"faqItems"`
	Style               string    `json:"style,omitempty"`
	GeneratedAt         time.Time `json:"generatedAt,omitempty"`
}

// DefaultHowToUse returns a copy of the generic three-step usage list.
func DefaultHowToUse() []string {
	steps := make([]string, len(defaultHowToUse))
	copy(steps, defaultHowToUse)
	return steps
}

// TruncateMeta enforces the meta-description character cap.
func TruncateMeta(s string) string {
	if len(s) > metaDescriptionLimit {
		return s[:metaDescriptionLimit]
	}
	return s
}

// Placeholder synthesizes minimal content from a raw catalog description,
// used in no-service mode and as the fallback when generation fails. A
// placeholder is always emitted so the renderer never sees a missing page.
func Placeholder(description string) Generated {
	return Generated{
		ExtendedDescription: description,
		HowToUse:            DefaultHowToUse(),
		MetaDescription:     TruncateMeta(description),
		SuggestedUseCases:   []string{},
		FAQItems:            []FAQ{},
	}
}
