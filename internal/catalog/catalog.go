// Package catalog reads the template index that drives the content pipeline.
// The index is owned by the upstream template repository; records are
// read-only inputs here.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// MediaType classifies what a template produces.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	Media3D    MediaType = "3d"
)

// TemplateRecord is one catalog entry describing a workflow template.
type TemplateRecord struct {
	Name        string    `json:"name"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description"`
	MediaType   MediaType `json:"mediaType"`
	Tags        []string  `json:"tags,omitempty"`
	Models      []string  `json:"models,omitempty"`
	Usage       int       `json:"usage,omitempty"`
	Date        string    `json:"date,omitempty"` // YYYY-MM-DD
}

// DisplayName returns the title when set, otherwise the name.
func (t TemplateRecord) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// Category groups templates in the index file.
type Category struct {
	Title     string           `json:"title"`
	Templates []TemplateRecord `json:"templates"`
}

// LoadIndex reads and parses the template index. An unreadable or
// malformed index is a configuration error and aborts the run.
func LoadIndex(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template index %s: %w", path, err)
	}

	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse template index %s: %w", path, err)
	}

	return categories, nil
}

// Flatten collects every template across categories, preserving index order.
func Flatten(categories []Category) []TemplateRecord {
	var templates []TemplateRecord
	for _, cat := range categories {
		templates = append(templates, cat.Templates...)
	}
	return templates
}

// TopByUsage returns templates sorted by usage descending, optionally
// truncated to limit. A limit of 0 means no truncation.
func TopByUsage(templates []TemplateRecord, limit int) []TemplateRecord {
	sorted := make([]TemplateRecord, len(templates))
	copy(sorted, templates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Usage > sorted[j].Usage
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// FilterByName keeps templates whose name contains the given substring
// (case-insensitive). An empty filter keeps everything.
func FilterByName(templates []TemplateRecord, substr string) []TemplateRecord {
	if substr == "" {
		return templates
	}
	needle := strings.ToLower(substr)
	var matched []TemplateRecord
	for _, t := range templates {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			matched = append(matched, t)
		}
	}
	return matched
}
