package genclient

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"contentsmith/internal/content"
)

func TestNormalize_AllDefaults(t *testing.T) {
	gen := normalize(parseResponseJSON("not json at all"))

	want := content.Generated{
		ExtendedDescription: defaultExtendedDescription,
		HowToUse:            content.DefaultHowToUse(),
		MetaDescription:     defaultMetaDescription,
		SuggestedUseCases:   []string{},
		FAQItems:            []content.FAQ{},
	}
	if diff := cmp.Diff(want, gen); diff != "" {
		t.Errorf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_WrongShapes(t *testing.T) {
	gen := normalize(parseResponseJSON(`{
		"extendedDescription": 42,
		"howToUse": "not a list",
		"metaDescription": ["not", "a", "string"],
		"suggestedUseCases": {"wrong": "shape"},
		"faqItems": [{"question": "Q only"}, {"question": "Q", "answer": "A"}]
	}`))

	if gen.ExtendedDescription != defaultExtendedDescription {
		t.Errorf("wrong-typed description should default, got %q", gen.ExtendedDescription)
	}
	if len(gen.HowToUse) != 3 {
		t.Errorf("wrong-typed steps should default to 3 generic steps, got %v", gen.HowToUse)
	}
	if gen.MetaDescription != defaultMetaDescription {
		t.Errorf("wrong-typed meta should default, got %q", gen.MetaDescription)
	}
	if len(gen.SuggestedUseCases) != 0 {
		t.Errorf("wrong-typed use cases should default to empty, got %v", gen.SuggestedUseCases)
	}
	if len(gen.FAQItems) != 1 {
		t.Errorf("incomplete FAQ pairs should be dropped, got %v", gen.FAQItems)
	}
}

func TestNormalize_MetaCapped(t *testing.T) {
	long := `{"metaDescription": "` + stringOfLen(400) + `"}`
	gen := normalize(parseResponseJSON(long))
	if len(gen.MetaDescription) != 160 {
		t.Errorf("meta should be capped at 160 chars, got %d", len(gen.MetaDescription))
	}
}

func TestNormalize_DropsBlankSteps(t *testing.T) {
	gen := normalize(parseResponseJSON(`{"howToUse": ["  ", "", "Real step"]}`))
	if len(gen.HowToUse) != 1 || gen.HowToUse[0] != "Real step" {
		t.Errorf("blank steps should be dropped, got %v", gen.HowToUse)
	}
}

func stringOfLen(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
