// Package manifest owns the incremental-generation cache: a manifest file
// tracking per-template fingerprints plus one cached content blob per
// template. The manifest is saved after every successful generation, not
// batched, so a crash mid-run loses at most one template of progress.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"contentsmith/internal/content"
)

// Version is the manifest format version. Entries recorded under a
// different version are regenerated on the next run.
const Version = "2"

const manifestFilename = "_manifest.json"

// Entry records what a cached blob was generated from.
type Entry struct {
	TemplateHash string    `json:"templateHash"`
	PromptsHash  string    `json:"promptsHash"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Model        string    `json:"model"`
}

// Manifest is the on-disk cache index.
type Manifest struct {
	Version     string           `json:"version"`
	PromptsHash string           `json:"promptsHash"`
	Entries     map[string]Entry `json:"entries"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// Decision is the outcome of a cache-validity check.
type Decision struct {
	Regenerate bool
	Reason     string
}

// Store loads, checks, and persists the manifest and its content blobs.
type Store struct {
	dir      string
	log      *zap.Logger
	manifest *Manifest
}

// NewStore creates a store rooted at the cache directory.
func NewStore(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log.Named("manifest")}
}

// Load reads the manifest from disk. A missing or corrupt manifest is
// non-fatal: it yields an empty manifest stamped with the current time,
// which simply regenerates everything.
func (s *Store) Load() *Manifest {
	if s.manifest != nil {
		return s.manifest
	}

	empty := &Manifest{
		Version:     Version,
		Entries:     make(map[string]Entry),
		LastUpdated: time.Now(),
	}

	data, err := os.ReadFile(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read manifest, starting empty", zap.Error(err))
		}
		s.manifest = empty
		return s.manifest
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Warn("manifest corrupted, starting empty", zap.Error(err))
		s.manifest = empty
		return s.manifest
	}
	if m.Entries == nil {
		m.Entries = make(map[string]Entry)
	}

	s.manifest = &m
	return s.manifest
}

// Check returns the regenerate decision for one template, evaluated in
// fixed precedence: force flag, missing entry, manifest version mismatch,
// prompts-hash mismatch, template-hash mismatch, otherwise valid.
func (s *Store) Check(name, templateHash, promptsHash string, force bool) Decision {
	m := s.Load()

	if force {
		return Decision{Regenerate: true, Reason: "forced by flag"}
	}

	entry, ok := m.Entries[name]
	if !ok {
		return Decision{Regenerate: true, Reason: "no cache entry"}
	}
	if m.Version != Version {
		return Decision{Regenerate: true, Reason: fmt.Sprintf("manifest version %q, expected %q", m.Version, Version)}
	}
	if entry.PromptsHash != promptsHash {
		return Decision{Regenerate: true, Reason: "prompt templates changed"}
	}
	if entry.TemplateHash != templateHash {
		return Decision{Regenerate: true, Reason: "template fields changed"}
	}

	return Decision{Regenerate: false, Reason: "cache valid"}
}

// RecordSuccess stores the entry and persists the manifest immediately so
// an interrupted run keeps all completed templates as cache hits.
func (s *Store) RecordSuccess(name string, entry Entry) error {
	m := s.Load()
	m.Entries[name] = entry
	m.LastUpdated = time.Now()
	return s.save()
}

// Finalize stamps the global prompts fingerprint and version, then saves
// once more at run end.
func (s *Store) Finalize(promptsHash string) error {
	m := s.Load()
	m.Version = Version
	m.PromptsHash = promptsHash
	m.LastUpdated = time.Now()
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, manifestFilename)
}

// LoadContent reads the cached content blob for a template. An entry
// without a readable blob is invalid, so any failure returns (nil, error).
func (s *Store) LoadContent(name string) (*content.Generated, error) {
	data, err := os.ReadFile(s.contentPath(name))
	if err != nil {
		return nil, fmt.Errorf("cached content unavailable for %s: %w", name, err)
	}
	var gen content.Generated
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, fmt.Errorf("cached content corrupt for %s: %w", name, err)
	}
	return &gen, nil
}

// SaveContent writes the content blob for a template.
func (s *Store) SaveContent(name string, gen content.Generated) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cached content: %w", err)
	}
	if err := os.WriteFile(s.contentPath(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write cached content: %w", err)
	}
	return nil
}

func (s *Store) contentPath(name string) string {
	// Blob files must stay inside the cache directory even if a name
	// carries a separator.
	safe := strings.ReplaceAll(name, string(filepath.Separator), "_")
	return filepath.Join(s.dir, safe+".json")
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}
