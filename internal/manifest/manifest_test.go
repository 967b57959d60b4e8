package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentsmith/internal/content"
)

func TestLoad_MissingIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cache"), nil)

	m := store.Load()
	require.NotNil(t, m)
	assert.Equal(t, Version, m.Version)
	assert.Empty(t, m.Entries)
	assert.WithinDuration(t, time.Now(), m.LastUpdated, time.Minute)
}

func TestLoad_CorruptIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFilename), []byte("{broken"), 0644))

	store := NewStore(dir, nil)
	m := store.Load()
	require.NotNil(t, m)
	assert.Empty(t, m.Entries)
}

func TestCheck_Precedence(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	m := store.Load()
	m.Entries["flux_basic"] = Entry{
		TemplateHash: "th1",
		PromptsHash:  "ph1",
		GeneratedAt:  time.Now(),
		Model:        "gemini-2.5-flash",
	}

	cases := []struct {
		name         string
		template     string
		templateHash string
		promptsHash  string
		force        bool
		regenerate   bool
		reason       string
	}{
		{"force wins", "flux_basic", "th1", "ph1", true, true, "forced by flag"},
		{"missing entry", "unknown", "th1", "ph1", false, true, "no cache entry"},
		{"prompts changed", "flux_basic", "th1", "ph2", false, true, "prompt templates changed"},
		{"template changed", "flux_basic", "th2", "ph1", false, true, "template fields changed"},
		{"valid", "flux_basic", "th1", "ph1", false, false, "cache valid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := store.Check(tc.template, tc.templateHash, tc.promptsHash, tc.force)
			assert.Equal(t, tc.regenerate, d.Regenerate)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestCheck_VersionMismatch(t *testing.T) {
	dir := t.TempDir()
	old := Manifest{
		Version:     "1",
		Entries:     map[string]Entry{"flux_basic": {TemplateHash: "th1", PromptsHash: "ph1"}},
		LastUpdated: time.Now(),
	}
	data, err := json.Marshal(old)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFilename), data, 0644))

	store := NewStore(dir, nil)
	d := store.Check("flux_basic", "th1", "ph1", false)
	assert.True(t, d.Regenerate)
	assert.Contains(t, d.Reason, "version")
}

func TestRecordSuccess_PersistsImmediately(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	entry := Entry{TemplateHash: "th1", PromptsHash: "ph1", GeneratedAt: time.Now(), Model: "gemini-2.5-flash"}
	require.NoError(t, store.RecordSuccess("flux_basic", entry))

	// A fresh store must see the entry without any finalize step.
	reloaded := NewStore(dir, nil).Load()
	got, ok := reloaded.Entries["flux_basic"]
	require.True(t, ok, "entry should already be on disk")
	assert.Equal(t, "th1", got.TemplateHash)
}

func TestFinalize(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	require.NoError(t, store.Finalize("global-prompts-hash"))

	reloaded := NewStore(dir, nil).Load()
	assert.Equal(t, "global-prompts-hash", reloaded.PromptsHash)
	assert.Equal(t, Version, reloaded.Version)
}

func TestContentBlobRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	gen := content.Generated{
		ExtendedDescription: "long text",
		HowToUse:            []string{"step one"},
		MetaDescription:     "meta",
	}
	require.NoError(t, store.SaveContent("flux_basic", gen))

	loaded, err := store.LoadContent("flux_basic")
	require.NoError(t, err)
	assert.Equal(t, gen.ExtendedDescription, loaded.ExtendedDescription)
	assert.Equal(t, gen.HowToUse, loaded.HowToUse)
}

func TestLoadContent_MissingBlobIsError(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	_, err := store.LoadContent("absent")
	assert.Error(t, err, "an entry without a blob must be treated as invalid")
}
