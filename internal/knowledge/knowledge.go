// Package knowledge loads the reference documents that ground content
// generation: model docs, model-doc summaries, concept docs, prior
// tutorials, and the prompt templates themselves.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Base holds every reference document for a run, keyed by the markdown
// filename without extension.
type Base struct {
	Models         map[string]string
	ModelSummaries map[string]string
	Concepts       map[string]string
	Tutorials      map[string]string
	Prompts        map[string]string
}

// SystemPrompt returns the required system prompt template.
func (b *Base) SystemPrompt() string {
	return b.Prompts["system"]
}

// StylePrompt returns the style-specific instruction block, empty when the
// knowledge base carries none for that style.
func (b *Base) StylePrompt(style string) string {
	return b.Prompts[style]
}

// PromptsText concatenates every prompt template in sorted filename order.
// The result feeds the global prompts fingerprint, so the order must be
// stable across runs.
func (b *Base) PromptsText() string {
	names := make([]string, 0, len(b.Prompts))
	for name := range b.Prompts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString("\n")
		sb.WriteString(b.Prompts[name])
		sb.WriteString("\n")
	}
	return sb.String()
}

// Loader reads a knowledge directory once per process. Repeated Load calls
// return the same Base.
type Loader struct {
	dir  string
	once sync.Once
	base *Base
	err  error
}

// NewLoader creates a loader rooted at the knowledge directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads every document set. A missing system prompt is a
// configuration error; missing document directories are tolerated and
// yield empty sets.
func (l *Loader) Load() (*Base, error) {
	l.once.Do(func() {
		l.base, l.err = l.loadAll()
	})
	return l.base, l.err
}

func (l *Loader) loadAll() (*Base, error) {
	base := &Base{}
	var err error

	if base.Models, err = readMarkdownDir(filepath.Join(l.dir, "models")); err != nil {
		return nil, err
	}
	if base.ModelSummaries, err = readMarkdownDir(filepath.Join(l.dir, "model-summaries")); err != nil {
		return nil, err
	}
	if base.Concepts, err = readMarkdownDir(filepath.Join(l.dir, "concepts")); err != nil {
		return nil, err
	}
	if base.Tutorials, err = readMarkdownDir(filepath.Join(l.dir, "tutorials")); err != nil {
		return nil, err
	}
	if base.Prompts, err = readMarkdownDir(filepath.Join(l.dir, "prompts")); err != nil {
		return nil, err
	}

	if base.SystemPrompt() == "" {
		return nil, fmt.Errorf("required prompt template missing: %s", filepath.Join(l.dir, "prompts", "system.md"))
	}

	return base, nil
}

// readMarkdownDir loads every *.md file in dir. A missing directory is not
// an error; unreadable files are.
func readMarkdownDir(dir string) (map[string]string, error) {
	docs := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return docs, nil
		}
		return nil, fmt.Errorf("failed to read knowledge dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read knowledge doc %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".md")
		docs[name] = string(data)
	}

	return docs, nil
}
