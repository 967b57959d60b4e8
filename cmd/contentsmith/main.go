package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"contentsmith/internal/config"
	"contentsmith/internal/genclient"
	"contentsmith/internal/logging"
	"contentsmith/internal/manifest"
	"contentsmith/internal/pipeline"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Generate flags
	filterName string
	limit      int
	force      bool
	dryRun     bool
	noAPI      bool
	testName   string

	// Cache clear flags
	clearForce  bool
	clearDryRun bool

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "contentsmith",
	Short: "contentsmith - AI content generation for workflow template pages",
	Long: `contentsmith generates SEO page content for ComfyUI workflow templates.

It assembles a token-budgeted context from the template catalog, the
workflow graph, and a local knowledge base, calls the Gemini API with
bounded retries, and caches results against content fingerprints so only
changed templates are regenerated.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args)
	},
}

// generateCmd runs the content pipeline
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate page content for templates with stale or missing cache entries",
	Long: `Walks the template catalog and regenerates content where the cached
fingerprints no longer match: changed template metadata, changed prompt
templates, a manifest version bump, or --force. Valid entries are served
from cache without an API call.`,
	RunE: runGenerate,
}

// cacheCmd groups cache inspection commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the generation cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache manifest version, entry count, and entry ages",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache manifest and content blobs",
	Long: `Lists what would be deleted by default. Pass --force to actually
delete. The next generate run rebuilds everything from the API.`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "contentsmith.yaml", "Config file path")

	for _, cmd := range []*cobra.Command{rootCmd, generateCmd} {
		cmd.Flags().StringVar(&filterName, "filter", "", "Only process templates whose name contains this substring")
		cmd.Flags().IntVar(&limit, "limit", 0, "Only the top N templates by usage (0 = all)")
		cmd.Flags().BoolVar(&force, "force", false, "Regenerate everything regardless of cache state")
		cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would regenerate without calling the API")
		cmd.Flags().BoolVar(&noAPI, "no-api", false, "Write placeholder content without calling the API")
		cmd.Flags().StringVar(&testName, "test", "", "Generate a single template and print its record")
	}

	cacheClearCmd.Flags().BoolVar(&clearForce, "force", false, "Actually delete cache files")
	cacheClearCmd.Flags().BoolVar(&clearDryRun, "dry-run", false, "List cache files without deleting")

	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runGenerate executes the pipeline over the catalog.
func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	opts := pipeline.Options{
		Filter: filterName,
		Limit:  limit,
		Force:  force,
		DryRun: dryRun,
		NoAPI:  noAPI,
	}
	if testName != "" {
		opts.Filter = testName
		opts.Limit = 1
		opts.Force = true
	}

	var gen pipeline.Generator
	if !opts.NoAPI && !opts.DryRun {
		if cfg.Generator.APIKey == "" {
			fmt.Println("⚠️  No API key configured (GEMINI_API_KEY), falling back to placeholder content")
			opts.NoAPI = true
		} else {
			gen = genclient.New(genclient.Config{
				APIKey:     cfg.Generator.APIKey,
				BaseURL:    cfg.Generator.BaseURL,
				Model:      cfg.Generator.Model,
				Timeout:    cfg.GetTimeout(),
				MaxRetries: cfg.Generator.MaxRetries,
				BaseDelay:  cfg.GetBaseDelay(),
				MaxDelay:   cfg.GetMaxDelay(),
			}, logger)
		}
	}

	p := pipeline.New(cfg, gen, logger, os.Stdout)
	stats, err := p.Run(ctx, opts)
	if err != nil {
		return err
	}

	if testName != "" && !opts.DryRun {
		name, err := p.ResolveName(testName)
		if err != nil {
			return err
		}
		record, err := p.LoadOutput(name)
		if err != nil {
			return err
		}
		fmt.Println(string(record))
	}

	logger.Info("run complete",
		zap.String("run_id", stats.RunID),
		zap.Int("regenerated", stats.Regenerated),
		zap.Int("cache_hits", stats.CacheHits))
	return nil
}

// runCacheStatus summarizes the manifest.
func runCacheStatus(cmd *cobra.Command, args []string) error {
	store := manifest.NewStore(cfg.Paths.Cache, logger)
	m := store.Load()

	fmt.Println("📦 Cache status")
	fmt.Printf("   version:      %s\n", orUnset(m.Version))
	hash := m.PromptsHash
	if len(hash) > 12 {
		hash = hash[:12] + "..."
	}
	fmt.Printf("   prompts hash: %s\n", orUnset(hash))
	fmt.Printf("   entries:      %d\n", len(m.Entries))
	if !m.LastUpdated.IsZero() {
		fmt.Printf("   last updated: %s\n", m.LastUpdated.Format("2006-01-02 15:04:05"))
	}

	if len(m.Entries) == 0 {
		return nil
	}

	byModel := make(map[string]int)
	var oldest, newest string
	for name, entry := range m.Entries {
		byModel[entry.Model]++
		if oldest == "" || entry.GeneratedAt.Before(m.Entries[oldest].GeneratedAt) {
			oldest = name
		}
		if newest == "" || entry.GeneratedAt.After(m.Entries[newest].GeneratedAt) {
			newest = name
		}
	}

	models := make([]string, 0, len(byModel))
	for model := range byModel {
		models = append(models, model)
	}
	sort.Strings(models)
	fmt.Println("   by model:")
	for _, model := range models {
		fmt.Printf("     %s: %d\n", orUnset(model), byModel[model])
	}
	fmt.Printf("   oldest: %s (%s)\n", oldest, m.Entries[oldest].GeneratedAt.Format("2006-01-02"))
	fmt.Printf("   newest: %s (%s)\n", newest, m.Entries[newest].GeneratedAt.Format("2006-01-02"))
	return nil
}

// runCacheClear deletes cache files, or lists them without --force.
func runCacheClear(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(cfg.Paths.Cache)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("Cache directory does not exist, nothing to clear")
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	var files []string
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		files = append(files, entry.Name())
		if info, err := entry.Info(); err == nil {
			total += info.Size()
		}
	}

	if len(files) == 0 {
		fmt.Println("Cache is empty, nothing to clear")
		return nil
	}

	fmt.Printf("🗑️  %d cache files (%.1f KB)\n", len(files), float64(total)/1024)
	for _, name := range files {
		fmt.Printf("   %s\n", name)
	}

	if clearDryRun || !clearForce {
		fmt.Println("\nDry run. Pass --force to delete.")
		return nil
	}

	for _, name := range files {
		if err := os.Remove(filepath.Join(cfg.Paths.Cache, name)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", name, err)
		}
	}
	fmt.Printf("✅ Deleted %d files. The next generate run rebuilds the cache.\n", len(files))
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
