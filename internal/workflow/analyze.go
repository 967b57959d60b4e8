package workflow

import "strings"

// maxNodeTypes caps the distinct node types kept in an analysis.
const maxNodeTypes = 20

// Analysis summarizes what a workflow consumes and produces.
type Analysis struct {
	HasInputImage bool
	HasInputVideo bool
	OutputType    string
	NodeTypes     []string
}

// Analyze derives an Analysis from a workflow document. A nil document
// yields the zero analysis with the default image output type.
func Analyze(doc *Document) Analysis {
	analysis := Analysis{OutputType: "image"}
	if doc == nil {
		return analysis
	}

	seen := make(map[string]bool)
	for _, node := range doc.Nodes {
		if node.Type == "" {
			continue
		}
		lower := strings.ToLower(node.Type)

		if strings.Contains(lower, "loadimage") || strings.Contains(lower, "image input") {
			analysis.HasInputImage = true
		}
		if strings.Contains(lower, "loadvideo") || strings.Contains(lower, "video input") {
			analysis.HasInputVideo = true
		}

		if !seen[node.Type] {
			seen[node.Type] = true
			if len(analysis.NodeTypes) < maxNodeTypes {
				analysis.NodeTypes = append(analysis.NodeTypes, node.Type)
			}
		}
	}

	// Output type: video beats audio beats the image default.
	for t := range seen {
		lower := strings.ToLower(t)
		if strings.Contains(lower, "video") {
			analysis.OutputType = "video"
			break
		}
		if strings.Contains(lower, "audio") {
			analysis.OutputType = "audio"
		}
	}

	return analysis
}

// InputSummary describes the workflow's primary input for prompt context.
func (a Analysis) InputSummary() string {
	switch {
	case a.HasInputImage:
		return "Image"
	case a.HasInputVideo:
		return "Video"
	default:
		return "Text/prompt only"
	}
}
