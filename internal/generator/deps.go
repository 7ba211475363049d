package generator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sitegen/internal/assemble"
	"sitegen/internal/catalog"
	"sitegen/internal/research"
)

// ResearchRunner is the slice of the research agent the orchestrator
// needs. One-directional: research has no handle back on the generator.
type ResearchRunner interface {
	Run(ctx context.Context, query *research.Query) (*research.Result, error)
}

// ArtifactRenderer is the slice of the template renderer the
// orchestrator needs. Satisfied by *site.Renderer.
type ArtifactRenderer interface {
	Render(templateID string, ctx map[string]any) (string, error)
}

const (
	// DefaultResearchRetries is how many extra attempts a retryable
	// research failure gets before the generic fallback is used.
	DefaultResearchRetries = 2

	// DefaultResearchTTL bounds how long research results stay cached.
	DefaultResearchTTL = time.Hour
)

// Deps is the per-run dependency set. Constructed once per run, passed
// by reference, never global.
type Deps struct {
	Fetcher   *catalog.Fetcher
	Agent     ResearchRunner
	Renderer  ArtifactRenderer
	Assembler *assemble.Assembler
	Cache     *research.Cache
	Logger    *zap.Logger

	ResearchRetries    int
	ResearchMaxSources int
	ResearchTTL        time.Duration
}

func (d *Deps) fill() {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = research.NewCache()
	}
	if d.ResearchRetries <= 0 {
		d.ResearchRetries = DefaultResearchRetries
	}
	if d.ResearchTTL <= 0 {
		d.ResearchTTL = DefaultResearchTTL
	}
}
