package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentsmith/internal/catalog"
	"contentsmith/internal/content"
)

// outputRecord is the published site-facing record: the catalog metadata
// joined with generated content. Thumbnails come from a separate sync job
// and must survive rewrites.
type outputRecord struct {
	Name        string            `json:"name"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description"`
	MediaType   catalog.MediaType `json:"mediaType"`
	Tags        []string          `json:"tags,omitempty"`
	Models      []string          `json:"models,omitempty"`

	ExtendedDescription string        `json:"extendedDescription"`
	HowToUse            []string      `json:"howToUse"`
	MetaDescription     string        `json:"metaDescription"`
	SuggestedUseCases   []string      `json:"suggestedUseCases,omitempty"`
	FAQItems            []content.FAQ `json:"faqItems,omitempty"`
	Style               string        `json:"style,omitempty"`
	GeneratedAt         string        `json:"generatedAt,omitempty"`
	HumanEdited         bool          `json:"humanEdited,omitempty"`

	Thumbnails json.RawMessage `json:"thumbnails,omitempty"`
}

// writeOutput publishes the record for one template, overwriting any
// previous version but carrying its thumbnails forward. humanEdited marks
// frozen records so downstream tooling can tell them apart.
func (p *Pipeline) writeOutput(rec catalog.TemplateRecord, gen content.Generated, humanEdited bool) error {
	path := p.outputPath(rec.Name)

	out := outputRecord{
		Name:                rec.Name,
		Title:               rec.Title,
		Description:         rec.Description,
		MediaType:           rec.MediaType,
		Tags:                rec.Tags,
		Models:              rec.Models,
		ExtendedDescription: gen.ExtendedDescription,
		HowToUse:            gen.HowToUse,
		MetaDescription:     gen.MetaDescription,
		SuggestedUseCases:   gen.SuggestedUseCases,
		FAQItems:            gen.FAQItems,
		Style:               gen.Style,
		HumanEdited:         humanEdited,
	}
	if !gen.GeneratedAt.IsZero() {
		out.GeneratedAt = gen.GeneratedAt.UTC().Format(time.RFC3339)
	}
	out.Thumbnails = readThumbnails(path)

	if err := os.MkdirAll(p.cfg.Paths.Output, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output for %s: %w", rec.Name, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadOutput reads a published record back, for inspection commands.
func (p *Pipeline) LoadOutput(name string) (json.RawMessage, error) {
	data, err := os.ReadFile(p.outputPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read output for %s: %w", name, err)
	}
	return data, nil
}

func (p *Pipeline) outputPath(name string) string {
	safe := strings.ReplaceAll(name, string(filepath.Separator), "_")
	return filepath.Join(p.cfg.Paths.Output, safe+".json")
}

// readThumbnails pulls the thumbnails field out of an existing record.
// Any read or parse problem just means there is nothing to preserve.
func readThumbnails(path string) json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var existing struct {
		Thumbnails json.RawMessage `json:"thumbnails"`
	}
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil
	}
	return existing.Thumbnails
}
