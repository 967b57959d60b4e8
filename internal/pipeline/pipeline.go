// Package pipeline orchestrates content generation across the template
// catalog: cache checks, context assembly, API calls, quality scoring,
// override merging, and output writes. Templates run sequentially so the
// generation API's rate limits stay under the retry protocol's control.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"contentsmith/internal/assembler"
	"contentsmith/internal/catalog"
	"contentsmith/internal/config"
	"contentsmith/internal/content"
	"contentsmith/internal/fingerprint"
	"contentsmith/internal/knowledge"
	"contentsmith/internal/manifest"
	"contentsmith/internal/quality"
	"contentsmith/internal/workflow"
)

// Generator produces content for one assembled prompt. *genclient.Client
// is the production implementation.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, style assembler.Style) (*content.Generated, error)
	Model() string
}

// Options control a single run.
type Options struct {
	Filter string // case-insensitive substring on template names
	Limit  int    // top N templates by usage, 0 = all
	Force  bool   // regenerate regardless of cache state
	DryRun bool   // report decisions without calling the API or writing
	NoAPI  bool   // write placeholder content, bypass the cache entirely
}

// Failure names a template whose generation failed after retries.
type Failure struct {
	Name string
	Err  string
}

// Stats summarize one run.
type Stats struct {
	RunID        string
	CacheHits    int
	Regenerated  int
	Placeholders int
	Skipped      int
	Failed       int
	Failures     []Failure
}

// Pipeline wires the generation stages together.
type Pipeline struct {
	cfg    *config.Config
	store  *manifest.Store
	gen    Generator
	log    *zap.Logger
	stdout io.Writer

	now func() time.Time
}

// New builds a pipeline. gen may be nil when every run will use NoAPI.
func New(cfg *config.Config, gen Generator, log *zap.Logger, stdout io.Writer) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  manifest.NewStore(cfg.Paths.Cache, log),
		gen:    gen,
		log:    log,
		stdout: stdout,
		now:    time.Now,
	}
}

// Run processes the catalog sequentially and returns run statistics. The
// returned error is non-nil when the run as a whole should fail: an
// unreadable catalog, every attempted generation failing with no cache
// hits to fall back on, or a dry run that found nothing to do.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Stats, error) {
	stats := &Stats{RunID: uuid.NewString()}

	categories, err := catalog.LoadIndex(p.cfg.Paths.Index)
	if err != nil {
		return stats, fmt.Errorf("failed to load template index: %w", err)
	}
	templates := catalog.Flatten(categories)
	if opts.Filter != "" {
		templates = catalog.FilterByName(templates, opts.Filter)
	}
	if opts.Limit > 0 {
		templates = catalog.TopByUsage(templates, opts.Limit)
	}

	base, err := knowledge.NewLoader(p.cfg.Paths.Knowledge).Load()
	if err != nil {
		return stats, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	promptsHash := fingerprint.PromptsHash(base.PromptsText())

	p.store.Load()
	p.log.Info("run started",
		zap.String("run_id", stats.RunID),
		zap.Int("templates", len(templates)),
		zap.String("prompts_hash", promptsHash[:12]))

	for _, rec := range templates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		p.processOne(ctx, rec, base, promptsHash, opts, stats)
	}

	if !opts.DryRun && !opts.NoAPI {
		if err := p.store.Finalize(promptsHash); err != nil {
			p.log.Warn("failed to finalize manifest", zap.Error(err))
		}
	}

	p.printSummary(stats, opts)

	attempted := stats.Regenerated + stats.Failed
	if stats.Failed > 0 && attempted == stats.Failed && stats.CacheHits == 0 {
		return stats, errors.New("all generations failed")
	}
	if opts.DryRun && stats.Regenerated == 0 {
		return stats, errors.New("nothing to regenerate")
	}
	return stats, nil
}

// ResolveName maps a filter substring to the template it selects: the
// most-used match, the same record a Run with that filter and limit 1
// processes first.
func (p *Pipeline) ResolveName(filter string) (string, error) {
	categories, err := catalog.LoadIndex(p.cfg.Paths.Index)
	if err != nil {
		return "", fmt.Errorf("failed to load template index: %w", err)
	}
	matches := catalog.FilterByName(catalog.Flatten(categories), filter)
	if len(matches) == 0 {
		return "", fmt.Errorf("no template matches %q", filter)
	}
	return catalog.TopByUsage(matches, 1)[0].Name, nil
}

// processOne runs the per-template decision sequence. All failure paths
// degrade to usable output; only the stats record what went wrong.
func (p *Pipeline) processOne(ctx context.Context, rec catalog.TemplateRecord, base *knowledge.Base, promptsHash string, opts Options, stats *Stats) {
	ov, err := content.LoadOverride(p.cfg.Paths.Overrides, rec.Name)
	if err != nil {
		p.log.Warn("ignoring malformed override", zap.String("template", rec.Name), zap.Error(err))
		ov = nil
	}

	// Human-edited records are frozen: the emitted content is exactly the
	// override's fields, with no generated or cached text mixed in.
	if ov != nil && ov.HumanEdited {
		gen := content.FromOverride(ov)
		if !opts.DryRun {
			if err := p.writeOutput(rec, gen, true); err != nil {
				p.log.Warn("failed to write output", zap.String("template", rec.Name), zap.Error(err))
			}
		}
		fmt.Fprintf(p.stdout, "🔒 %s (human edited, skipped)\n", rec.Name)
		stats.Skipped++
		return
	}

	templateHash := fingerprint.TemplateHash(rec)
	decision := p.store.Check(rec.Name, templateHash, promptsHash, opts.Force)

	if !decision.Regenerate {
		cached, err := p.store.LoadContent(rec.Name)
		if err == nil {
			if !opts.DryRun {
				if err := p.writeOutput(rec, content.Merge(*cached, ov), false); err != nil {
					p.log.Warn("failed to write output", zap.String("template", rec.Name), zap.Error(err))
				}
			}
			fmt.Fprintf(p.stdout, "✅ %s (cached)\n", rec.Name)
			stats.CacheHits++
			return
		}
		// An entry without a readable blob is not a valid cache hit.
		p.log.Warn("cache entry missing content blob", zap.String("template", rec.Name), zap.Error(err))
		decision = manifest.Decision{Regenerate: true, Reason: "missing content blob"}
	}

	if opts.DryRun {
		asmCtx := p.assemble(rec, base)
		fmt.Fprintf(p.stdout, "🔄 %s would regenerate (%s): style=%s tokens tier1=%d tier2=%d tier3=%d total=%d\n",
			rec.Name, decision.Reason, asmCtx.Style,
			asmCtx.Usage.Tier1, asmCtx.Usage.Tier2, asmCtx.Usage.Tier3, asmCtx.Usage.Total)
		stats.Regenerated++
		return
	}

	if opts.NoAPI {
		gen := content.Placeholder(rec.Description)
		gen.GeneratedAt = p.now()
		if err := p.writeOutput(rec, content.Merge(gen, ov), false); err != nil {
			p.log.Warn("failed to write output", zap.String("template", rec.Name), zap.Error(err))
		}
		fmt.Fprintf(p.stdout, "📝 %s (placeholder)\n", rec.Name)
		stats.Placeholders++
		return
	}

	gen, style, err := p.generate(ctx, rec, base)
	if err != nil {
		p.log.Error("generation failed", zap.String("template", rec.Name), zap.Error(err))
		fallback := content.Placeholder(rec.Description)
		fallback.GeneratedAt = p.now()
		if werr := p.writeOutput(rec, content.Merge(fallback, ov), false); werr != nil {
			p.log.Warn("failed to write output", zap.String("template", rec.Name), zap.Error(werr))
		}
		fmt.Fprintf(p.stdout, "❌ %s failed: %v\n", rec.Name, err)
		stats.Failed++
		stats.Failures = append(stats.Failures, Failure{Name: rec.Name, Err: truncateErr(err)})
		return
	}

	gen.Style = string(style)
	gen.GeneratedAt = p.now()

	report := quality.Score(rec, *gen)
	if !report.Passed {
		p.log.Warn("content below quality threshold",
			zap.String("template", rec.Name),
			zap.Int("score", report.Score),
			zap.Strings("issues", report.Issues))
	}

	if err := p.store.SaveContent(rec.Name, *gen); err != nil {
		p.log.Warn("failed to cache content", zap.String("template", rec.Name), zap.Error(err))
	} else if err := p.store.RecordSuccess(rec.Name, manifest.Entry{
		TemplateHash: templateHash,
		PromptsHash:  promptsHash,
		GeneratedAt:  gen.GeneratedAt,
		Model:        p.gen.Model(),
	}); err != nil {
		p.log.Warn("failed to record cache entry", zap.String("template", rec.Name), zap.Error(err))
	}

	if err := p.writeOutput(rec, content.Merge(*gen, ov), false); err != nil {
		p.log.Warn("failed to write output", zap.String("template", rec.Name), zap.Error(err))
	}
	fmt.Fprintf(p.stdout, "✨ %s (%s, score %d) [%s]\n", rec.Name, style, report.Score, decision.Reason)
	stats.Regenerated++
}

// assemble builds the prompt context for one template. It touches no
// cache state, so the dry-run path can use it for reporting.
func (p *Pipeline) assemble(rec catalog.TemplateRecord, base *knowledge.Base) *assembler.Context {
	doc, err := workflow.Read(p.cfg.Paths.Workflows, rec.Name)
	if err != nil {
		p.log.Warn("unreadable workflow, continuing without graph context",
			zap.String("template", rec.Name), zap.Error(err))
	}
	var analysis workflow.Analysis
	var text workflow.ExtractedText
	if doc != nil {
		analysis = workflow.Analyze(doc)
		text = workflow.ExtractText(doc)
	}

	asm := assembler.New(assembler.Options{
		Budget:           p.cfg.Context.TokenBudget,
		SummaryThreshold: p.cfg.Context.SummaryThreshold,
		Tier3Ratio:       p.cfg.Context.Tier3Ratio,
	})
	asmCtx := asm.Assemble(rec, analysis, text, base, p.now())

	p.log.Debug("context assembled",
		zap.String("template", rec.Name),
		zap.String("style", string(asmCtx.Style)),
		zap.Int("tokens", asmCtx.Usage.Total),
		zap.Bool("summaries", asmCtx.UsedSummaries),
		zap.Bool("tier3_skipped", asmCtx.SkippedTier3))
	return asmCtx
}

// generate assembles the prompt context for one template and calls the API.
func (p *Pipeline) generate(ctx context.Context, rec catalog.TemplateRecord, base *knowledge.Base) (*content.Generated, assembler.Style, error) {
	asmCtx := p.assemble(rec, base)
	gen, err := p.gen.Generate(ctx, base.SystemPrompt(), asmCtx.Prompt, asmCtx.Style)
	if err != nil {
		return nil, asmCtx.Style, err
	}
	return gen, asmCtx.Style, nil
}

func (p *Pipeline) printSummary(stats *Stats, opts Options) {
	fmt.Fprintf(p.stdout, "\n📊 run %s\n", stats.RunID)
	fmt.Fprintf(p.stdout, "   cached: %d  regenerated: %d  placeholders: %d  skipped: %d  failed: %d\n",
		stats.CacheHits, stats.Regenerated, stats.Placeholders, stats.Skipped, stats.Failed)
	for _, f := range stats.Failures {
		fmt.Fprintf(p.stdout, "   ❌ %s: %s\n", f.Name, f.Err)
	}
}

const maxErrLength = 200

func truncateErr(err error) string {
	s := err.Error()
	if len(s) > maxErrLength {
		return s[:maxErrLength] + "..."
	}
	return s
}
