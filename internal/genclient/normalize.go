package genclient

import (
	"encoding/json"
	"strings"

	"contentsmith/internal/content"
)

// rawContent mirrors the requested output schema loosely: every field is
// raw JSON so a single malformed field cannot sink the whole record.
type rawContent struct {
	ExtendedDescription json.RawMessage `json:"extendedDescription"`
	HowToUse            json.RawMessage `json:"howToUse"`
	MetaDescription     json.RawMessage `json:"metaDescription"`
	SuggestedUseCases   json.RawMessage `json:"suggestedUseCases"`
	FAQItems            json.RawMessage `json:"faqItems"`
}

// Documented defaults for missing or malformed fields.
const (
	defaultExtendedDescription = "Description not available."
	defaultMetaDescription     = "ComfyUI workflow template"
)

// parseResponseJSON extracts the structured payload from a response text,
// tolerating markdown code fences around the JSON.
func parseResponseJSON(text string) rawContent {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var raw rawContent
	// A completely unparseable body yields the zero rawContent, which
	// normalize turns into all defaults.
	_ = json.Unmarshal([]byte(trimmed), &raw)
	return raw
}

// normalize validates field by field, substituting documented defaults for
// anything missing, malformed, or of the wrong shape. This is local
// recovery: it never fails.
func normalize(raw rawContent) content.Generated {
	return content.Generated{
		ExtendedDescription: stringOr(raw.ExtendedDescription, defaultExtendedDescription),
		HowToUse:            stringListOr(raw.HowToUse, content.DefaultHowToUse()),
		MetaDescription:     content.TruncateMeta(stringOr(raw.MetaDescription, defaultMetaDescription)),
		SuggestedUseCases:   stringListOr(raw.SuggestedUseCases, []string{}),
		FAQItems:            faqListOr(raw.FAQItems),
	}
}

func stringOr(raw json.RawMessage, fallback string) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func stringListOr(raw json.RawMessage, fallback []string) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return fallback
	}
	var cleaned []string
	for _, item := range list {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if cleaned == nil {
		return fallback
	}
	return cleaned
}

func faqListOr(raw json.RawMessage) []content.FAQ {
	var list []content.FAQ
	if err := json.Unmarshal(raw, &list); err != nil {
		return []content.FAQ{}
	}
	cleaned := make([]content.FAQ, 0, len(list))
	for _, item := range list {
		if item.Question != "" && item.Answer != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}
