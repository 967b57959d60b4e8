package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Override is a human-authored partial correction. Nil fields mean "keep
// the generated value". When HumanEdited is set the pipeline never
// regenerates or overwrites the record's content fields.
type Override struct {
	ExtendedDescription *string   `json:"extendedDescription,omitempty"`
	HowToUse            *[]string `json:"howToUse,omitempty"`
	MetaDescription     *string   `json:"metaDescription,omitempty"`
	SuggestedUseCases   *[]string `json:"suggestedUseCases,omitempty"`
	FAQItems            *[]FAQ    `json:"faqItems,omitempty"`
	HumanEdited         bool      `json:"humanEdited,omitempty"`
}

// LoadOverride reads the override record for a template. Missing files
// return (nil, nil); malformed files return an error the caller downgrades
// to a warning and treats as "none".
func LoadOverride(dir, templateName string) (*Override, error) {
	path := filepath.Join(dir, templateName+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read override %s: %w", path, err)
	}

	var ov Override
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to parse override %s: %w", path, err)
	}
	return &ov, nil
}

// Merge coalesces an override onto base content field by field. The schema
// is fixed: stray keys in an override file cannot leak into the result.
func Merge(base Generated, ov *Override) Generated {
	if ov == nil {
		return base
	}

	merged := base
	if ov.ExtendedDescription != nil {
		merged.ExtendedDescription = *ov.ExtendedDescription
	}
	if ov.HowToUse != nil {
		merged.HowToUse = *ov.HowToUse
	}
	if ov.MetaDescription != nil {
		merged.MetaDescription = *ov.MetaDescription
	}
	if ov.SuggestedUseCases != nil {
		merged.SuggestedUseCases = *ov.SuggestedUseCases
	}
	if ov.FAQItems != nil {
		merged.FAQItems = *ov.FAQItems
	}
	return merged
}

// FromOverride builds content purely from an override, for human-edited
// records that must be re-emitted verbatim.
func FromOverride(ov *Override) Generated {
	return Merge(Generated{
		HowToUse:          []string{},
		SuggestedUseCases: []string{},
		FAQItems:          []FAQ{},
	}, ov)
}
