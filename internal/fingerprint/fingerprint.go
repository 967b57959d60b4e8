// Package fingerprint derives the content hashes that drive cache
// invalidation. A template's hash covers only the fields that influence
// generated text, so cosmetic catalog updates (usage counters, dates) do
// not force regeneration.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"contentsmith/internal/catalog"
)

// promptsCacheVersion is folded into the prompts hash. Bump it to force
// regeneration of every template without touching the prompt files, e.g.
// after a model upgrade.
const promptsCacheVersion = "v2"

// relevantFields is the canonical representation hashed for a template.
// Field order is fixed by the struct, so serialization is deterministic.
type relevantFields struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Models      []string `json:"models"`
}

// TemplateHash fingerprints the generation-relevant subset of a template.
func TemplateHash(rec catalog.TemplateRecord) string {
	canonical := relevantFields{
		Name:        rec.Name,
		Title:       rec.Title,
		Description: rec.Description,
		Tags:        rec.Tags,
		Models:      rec.Models,
	}
	data, _ := json.Marshal(canonical)
	return hashHex(data)
}

// PromptsHash fingerprints the full prompt-template set. Any change to any
// prompt file, or to promptsCacheVersion, changes the digest.
func PromptsHash(promptsText string) string {
	return hashHex([]byte(promptsCacheVersion + "\n" + promptsText))
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
