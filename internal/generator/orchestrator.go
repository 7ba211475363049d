package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sitegen/internal/assemble"
	"sitegen/internal/catalog"
	"sitegen/internal/research"
	"sitegen/internal/site"
	"sitegen/internal/usage"
)

// researchSections are the content sections that each get one research
// query per run.
var researchSections = []struct {
	Name      string
	Topic     string
	FocusArea string
}{
	{Name: "hero", Topic: "hero section and call to action design", FocusArea: "conversion"},
	{Name: "catalog", Topic: "product grid layout and card design", FocusArea: "ui_ux"},
	{Name: "styling", Topic: "component patterns and utility styling", FocusArea: "tailwind"},
	{Name: "seo", Topic: "affiliate landing page search optimization", FocusArea: "seo"},
}

// Orchestrator drives one generation run through its phases.
type Orchestrator struct {
	deps   *Deps
	ledger *usage.Ledger
	phase  Phase
	report Report
}

func NewOrchestrator(deps *Deps) *Orchestrator {
	deps.fill()
	runID := uuid.NewString()
	return &Orchestrator{
		deps:   deps,
		ledger: usage.NewLedger(runID),
		phase:  PhasePending,
		report: Report{RunID: runID, Phase: PhasePending},
	}
}

// Phase returns the current run phase.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Ledger exposes the shared run ledger.
func (o *Orchestrator) Ledger() *usage.Ledger { return o.ledger }

// Report returns the diagnostics collected so far. Complete after Run
// returns.
func (o *Orchestrator) Report() *Report {
	report := o.report
	report.Phase = o.phase
	report.ResearchCache = o.deps.Cache.Stats()
	report.Usage = o.ledger.Stats()
	return &report
}

func (o *Orchestrator) enter(phase Phase) {
	o.deps.Logger.Info("phase transition",
		zap.String("run_id", o.report.RunID),
		zap.String("from", string(o.phase)),
		zap.String("to", string(phase)))
	o.phase = phase
}

// Run executes the full pipeline. On fatal failure it returns
// *GenerationFailed carrying any artifacts rendered before the
// failure; research and per-artifact render failures are absorbed into
// the report instead.
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*Website, error) {
	start := time.Now()
	defer func() { o.report.Duration = time.Since(start) }()

	if err := req.Validate(); err != nil {
		o.enter(PhaseFailed)
		return nil, &GenerationFailed{Phase: PhasePending, Reason: err.Error(), Err: err}
	}

	// Every model call in this run reports into one ledger.
	ctx = usage.NewContext(ctx, o.ledger)

	fetch, err := o.deps.Fetcher.Fetch(ctx, req.Source)
	if err != nil {
		o.enter(PhaseFailed)
		return nil, &GenerationFailed{Phase: PhasePending, Reason: "product source unavailable", Err: err}
	}
	o.report.ProductCount = len(fetch.Products)
	o.report.SkippedRows = fetch.Skipped
	o.report.RowWarnings = len(fetch.Warnings)
	o.report.CatalogCached = fetch.Cached
	o.deps.Logger.Info("catalog fetched",
		zap.String("source", req.Source.Describe()),
		zap.Int("products", len(fetch.Products)),
		zap.Int("skipped", fetch.Skipped),
		zap.Bool("cached", fetch.Cached))

	o.enter(PhaseResearch)
	results, err := o.researchPhase(ctx, req)
	if err != nil {
		o.enter(PhaseFailed)
		return nil, &GenerationFailed{Phase: PhaseResearch, Reason: "research canceled", Err: err}
	}

	o.enter(PhaseRender)
	files, rendered, err := o.renderPhase(ctx, req, fetch.Products, results)
	if err != nil {
		o.enter(PhaseFailed)
		return nil, &GenerationFailed{Phase: PhaseRender, Reason: err.Error(), Artifacts: rendered, Err: err}
	}

	o.enter(PhaseAssembly)
	website, err := o.assemblyPhase(ctx, req, files)
	if err != nil {
		o.enter(PhaseFailed)
		return nil, &GenerationFailed{Phase: PhaseAssembly, Reason: "assembly failed", Artifacts: rendered, Err: err}
	}

	o.enter(PhaseComplete)
	return website, nil
}

// researchPhase runs one query per content section, cache first, with
// bounded retries and a generic fallback. Sections run concurrently;
// only context cancellation is returned as an error.
func (o *Orchestrator) researchPhase(ctx context.Context, req *Request) ([]*research.Result, error) {
	results := make([]*research.Result, len(researchSections))
	fallbacks := make([]string, len(researchSections))

	g, gctx := errgroup.WithContext(ctx)
	for i, section := range researchSections {
		i, section := i, section
		g.Go(func() error {
			query := &research.Query{
				Topic:      fmt.Sprintf("%s for %s affiliate marketing", section.Topic, req.Niche),
				FocusArea:  section.FocusArea,
				Niche:      req.Niche,
				MaxSources: o.deps.ResearchMaxSources,
			}
			query.Normalize()

			result, usedFallback := o.resolveSection(gctx, section.Name, query)
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = result
			if usedFallback {
				fallbacks[i] = section.Name
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, name := range fallbacks {
		if name != "" {
			o.report.FallbackSections = append(o.report.FallbackSections, name)
		}
	}
	o.report.TopPrinciples = research.TopPrinciples(results)
	return results, nil
}

// resolveSection answers one section query: cache hit, else the agent
// with retries, else the generic recommendation set.
func (o *Orchestrator) resolveSection(ctx context.Context, section string, query *research.Query) (*research.Result, bool) {
	fingerprint := query.Fingerprint()
	if cached := o.deps.Cache.Get(fingerprint); cached != nil {
		o.deps.Logger.Debug("research cache hit",
			zap.String("section", section), zap.String("topic", query.Topic))
		return cached, false
	}

	attempts := o.deps.ResearchRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		result, err := o.deps.Agent.Run(ctx, query)
		if err == nil {
			o.deps.Cache.Put(fingerprint, result, o.deps.ResearchTTL)
			return result, false
		}

		var retryable *research.RetryableError
		if errors.As(err, &retryable) && attempt < attempts {
			o.deps.Logger.Warn("research attempt failed, retrying",
				zap.String("section", section),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		o.deps.Logger.Warn("research exhausted, using fallback",
			zap.String("section", section),
			zap.Int("attempts", attempt),
			zap.Error(err))
		break
	}

	return &research.Result{
		Query:           query.Topic,
		Findings:        []string{"fallback: proven conversion patterns"},
		Recommendations: research.DefaultRecommendations(),
		Confidence:      0.2,
		Timestamp:       time.Now(),
	}, true
}

// renderPhase renders every artifact sequentially against one merged
// context. A failed artifact gets one regeneration with the safe
// context before it is reported and skipped.
func (o *Orchestrator) renderPhase(ctx context.Context, req *Request, products []catalog.Product, results []*research.Result) (map[string]string, []string, error) {
	merged := renderContext(req, products, results)
	safe := safeContext(req, products)

	files := make(map[string]string)
	var rendered []string

	for _, artifact := range site.DefaultArtifacts() {
		if err := ctx.Err(); err != nil {
			return nil, rendered, err
		}

		content, err := o.renderArtifact(artifact, merged)
		if err != nil {
			o.deps.Logger.Warn("artifact failed, regenerating with safe context",
				zap.String("artifact", artifact.OutputPath), zap.Error(err))
			content, err = o.renderArtifact(artifact, safe)
		}
		if err != nil {
			o.report.ArtifactFailures = append(o.report.ArtifactFailures, ArtifactFailure{
				TemplateID: artifact.TemplateID,
				OutputPath: artifact.OutputPath,
				Reason:     err.Error(),
			})
			continue
		}

		files[artifact.OutputPath] = content
		rendered = append(rendered, artifact.OutputPath)
	}

	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no renderable artifacts")
	}
	return files, rendered, nil
}

func (o *Orchestrator) renderArtifact(artifact site.Artifact, ctx map[string]any) (string, error) {
	content, err := o.deps.Renderer.Render(artifact.TemplateID, ctx)
	if err != nil {
		return "", err
	}
	if err := site.ValidateArtifact(artifact.OutputPath, content); err != nil {
		return "", err
	}
	return content, nil
}

// assemblyPhase writes the manifest, hands the file set to the
// assembler, and builds the immutable Website.
func (o *Orchestrator) assemblyPhase(ctx context.Context, req *Request, files map[string]string) (*Website, error) {
	projectName := site.Kebab(req.BrandName)
	envVars := map[string]string{
		"GOOGLE_SHEETS_API_KEY":  "your-google-sheets-api-key",
		"NEXT_PUBLIC_BRAND_NAME": req.BrandName,
		"NEXT_PUBLIC_NICHE":      req.Niche,
	}
	manifest := Manifest{
		BuildCommand: "next build",
		OutputDir:    ".next",
		EnvVarNames:  []string{"GOOGLE_SHEETS_API_KEY", "NEXT_PUBLIC_BRAND_NAME", "NEXT_PUBLIC_NICHE"},
	}

	manifestJSON, err := json.MarshalIndent(struct {
		ProjectName string   `json:"project_name"`
		Manifest    Manifest `json:"manifest"`
		GeneratedAt string   `json:"generated_at"`
	}{projectName, manifest, time.Now().UTC().Format(time.RFC3339)}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	files["site-manifest.json"] = string(manifestJSON)

	path, err := o.deps.Assembler.Assemble(ctx, &assemble.Input{
		ProjectName: projectName,
		Files:       files,
		EnvVars:     envVars,
	})
	if err != nil {
		return nil, err
	}

	return &Website{
		ProjectName: projectName,
		Path:        path,
		Files:       files,
		FileCount:   len(files),
		Manifest:    manifest,
		EnvVars:     envVars,
		GeneratedAt: time.Now(),
	}, nil
}
