// Package config loads contentsmith configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all contentsmith configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Generator GeneratorConfig `yaml:"generator"`
	Context   ContextConfig   `yaml:"context"`
}

// PathsConfig locates the site data the pipeline reads and writes.
type PathsConfig struct {
	Index     string `yaml:"index"`     // template catalog index.json
	Workflows string `yaml:"workflows"` // workflow graph JSON directory
	Knowledge string `yaml:"knowledge"` // knowledge base root
	Cache     string `yaml:"cache"`     // cache manifest and blobs
	Output    string `yaml:"output"`    // generated content files
	Overrides string `yaml:"overrides"` // manual override files
}

// GeneratorConfig configures the generation API client.
type GeneratorConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
	MaxDelay   string `yaml:"max_delay"`
}

// ContextConfig configures prompt context assembly.
type ContextConfig struct {
	TokenBudget      int     `yaml:"token_budget"`
	SummaryThreshold int     `yaml:"summary_threshold"`
	Tier3Ratio       float64 `yaml:"tier3_ratio"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Index:     "templates/index.json",
			Workflows: "templates",
			Knowledge: "knowledge",
			Cache:     "cache",
			Output:    "output",
			Overrides: "overrides",
		},
		Generator: GeneratorConfig{
			Model:      "gemini-2.5-flash",
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			Timeout:    "2m",
			MaxRetries: 4,
			BaseDelay:  "1s",
			MaxDelay:   "30s",
		},
		Context: ContextConfig{
			TokenBudget:      8000,
			SummaryThreshold: 2000,
			Tier3Ratio:       0.70,
		},
	}
}

// Load reads configuration from path. A missing file returns defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Generator.APIKey = key
	}
	if model := os.Getenv("CONTENTSMITH_MODEL"); model != "" {
		c.Generator.Model = model
	}
	if out := os.Getenv("CONTENTSMITH_OUTPUT"); out != "" {
		c.Paths.Output = out
	}
}

// GetTimeout returns the API request timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Generator.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// GetBaseDelay returns the initial retry backoff as a duration.
func (c *Config) GetBaseDelay() time.Duration {
	d, err := time.ParseDuration(c.Generator.BaseDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// GetMaxDelay returns the retry backoff cap as a duration.
func (c *Config) GetMaxDelay() time.Duration {
	d, err := time.ParseDuration(c.Generator.MaxDelay)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
