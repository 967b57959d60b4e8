// Package workflow reads and analyzes raw workflow graphs. The analysis is
// derived fresh every run and never cached; extracted free text is treated
// as untrusted reference material.
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Document is the parsed workflow graph.
type Document struct {
	Nodes  []Node  `json:"nodes"`
	Groups []Group `json:"groups"`
}

// Node is a single graph node. WidgetValues carries free-form widget
// state; only string values are ever inspected.
type Node struct {
	Type         string          `json:"type"`
	Title        string          `json:"title,omitempty"`
	WidgetValues json.RawMessage `json:"widgets_values,omitempty"`
}

// Group is a titled section of the graph canvas.
type Group struct {
	Title string `json:"title"`
}

// Read loads the workflow document for a template. A missing file returns
// (nil, nil); a malformed file returns an error the caller downgrades to a
// warning and treats as absent.
func Read(dir, templateName string) (*Document, error) {
	path := filepath.Join(dir, templateName+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read workflow %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse workflow %s: %w", path, err)
	}
	return &doc, nil
}

// stringWidgets returns string values from a node's widgets_values, which
// may be a JSON array or an object keyed by widget name.
func (n Node) stringWidgets() []string {
	if len(n.WidgetValues) == 0 {
		return nil
	}

	var out []string

	var asList []interface{}
	if err := json.Unmarshal(n.WidgetValues, &asList); err == nil {
		for _, v := range asList {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(n.WidgetValues, &asMap); err == nil {
		for _, v := range asMap {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
