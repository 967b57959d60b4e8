package workflow

import (
	"regexp"
	"strings"
)

// Author notes are capped so a single verbose workflow cannot flood the
// generation context.
const maxNotesLength = 3000

// maxExamplePrompts bounds how many embedded prompts are carried forward.
const maxExamplePrompts = 10

var noteNodeTypes = map[string]bool{
	"Note":         true,
	"MarkdownNote": true,
	"CM_NoteNode":  true,
}

// promptNodeTypes are text-encoding nodes whose string widgets hold the
// example prompts authors shipped with the workflow.
var promptNodeTypes = map[string]bool{
	"CLIPTextEncode":      true,
	"CLIPTextEncodeSDXL":  true,
	"TextEncodeQwenImage": true,
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// NodeLabel pairs a node type with the custom title an author gave it.
type NodeLabel struct {
	NodeType string `json:"nodeType"`
	Title    string `json:"title"`
}

// ExtractedText is author-supplied free text pulled out of a workflow.
// All of it is untrusted: it is only ever presented to the model as fenced
// reference data, never echoed into generated output.
type ExtractedText struct {
	AuthorNotes    string      `json:"authorNotes"`
	ExamplePrompts []string    `json:"examplePrompts"`
	GroupTitles    []string    `json:"groupTitles"`
	CustomLabels   []NodeLabel `json:"customLabels"`
}

// ExtractText collects notes, example prompts, group titles, and custom
// node labels from a workflow document.
func ExtractText(doc *Document) ExtractedText {
	var text ExtractedText
	if doc == nil {
		return text
	}

	var notes []string
	for _, node := range doc.Nodes {
		switch {
		case noteNodeTypes[node.Type]:
			for _, val := range node.stringWidgets() {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					notes = append(notes, trimmed)
				}
			}
		case promptNodeTypes[node.Type]:
			if len(text.ExamplePrompts) >= maxExamplePrompts {
				continue
			}
			for _, val := range node.stringWidgets() {
				trimmed := strings.TrimSpace(val)
				if trimmed == "" || len(text.ExamplePrompts) >= maxExamplePrompts {
					continue
				}
				text.ExamplePrompts = append(text.ExamplePrompts, trimmed)
			}
		}

		if node.Title != "" && node.Title != node.Type {
			text.CustomLabels = append(text.CustomLabels, NodeLabel{
				NodeType: node.Type,
				Title:    node.Title,
			})
		}
	}

	for _, group := range doc.Groups {
		if title := strings.TrimSpace(group.Title); title != "" {
			text.GroupTitles = append(text.GroupTitles, title)
		}
	}

	combined := strings.Join(notes, "\n\n")
	stripped := htmlTagPattern.ReplaceAllString(combined, "")
	if len(stripped) > maxNotesLength {
		stripped = stripped[:maxNotesLength]
	}
	text.AuthorNotes = stripped

	return text
}
