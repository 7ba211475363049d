// Package generator orchestrates a full site generation run: product
// fetch, research fan-out, template rendering, and atomic assembly.
package generator

import (
	"fmt"
	"time"

	"sitegen/internal/catalog"
	"sitegen/internal/research"
	"sitegen/internal/usage"
)

// Phase tracks run progress through the state machine.
type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseResearch Phase = "research"
	PhaseRender   Phase = "render"
	PhaseAssembly Phase = "assembly"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"
)

// Request describes one generation run. Immutable once submitted.
type Request struct {
	Niche           string               `json:"niche"`
	BrandName       string               `json:"brand_name"`
	Tagline         string               `json:"tagline,omitempty"`
	TargetAudience  string               `json:"target_audience,omitempty"`
	ColorScheme     string               `json:"color_scheme,omitempty"`
	ConversionGoals []string             `json:"conversion_goals,omitempty"`
	Source          catalog.SourceConfig `json:"source"`
}

// Validate checks the request before a run starts.
func (r *Request) Validate() error {
	if r.BrandName == "" {
		return fmt.Errorf("request: brand name is required")
	}
	if r.Niche == "" {
		return fmt.Errorf("request: niche is required")
	}
	if r.Source.SourceID == "" {
		return fmt.Errorf("request: data source ID is required")
	}
	return nil
}

// Manifest describes how to build and deploy the generated project.
type Manifest struct {
	BuildCommand string   `json:"build_command"`
	OutputDir    string   `json:"output_dir"`
	EnvVarNames  []string `json:"env_var_names"`
}

// Website is the completed output of a run. Never mutated after
// assembly.
type Website struct {
	ProjectName string            `json:"project_name"`
	Path        string            `json:"path"`
	Files       map[string]string `json:"-"`
	FileCount   int               `json:"file_count"`
	Manifest    Manifest          `json:"manifest"`
	EnvVars     map[string]string `json:"env_vars"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// ArtifactFailure records an artifact that failed validation after its
// regeneration attempt. Non-fatal unless every artifact fails.
type ArtifactFailure struct {
	TemplateID string `json:"template_id"`
	OutputPath string `json:"output_path"`
	Reason     string `json:"reason"`
}

// Report is the run diagnostics summary.
type Report struct {
	RunID            string              `json:"run_id"`
	Phase            Phase               `json:"phase"`
	ProductCount     int                 `json:"product_count"`
	SkippedRows      int                 `json:"skipped_rows"`
	RowWarnings      int                 `json:"row_warnings"`
	CatalogCached    bool                `json:"catalog_cached"`
	ResearchCache    research.CacheStats `json:"research_cache"`
	FallbackSections []string            `json:"fallback_sections,omitempty"`
	TopPrinciples    []string            `json:"top_principles,omitempty"`
	ArtifactFailures []ArtifactFailure   `json:"artifact_failures,omitempty"`
	Usage            usage.Stats         `json:"usage"`
	Duration         time.Duration       `json:"duration"`
}

// GenerationFailed is the fatal run error. It carries whatever
// artifacts were successfully rendered before the run died.
type GenerationFailed struct {
	Phase     Phase
	Reason    string
	Artifacts []string
	Err       error
}

func (e *GenerationFailed) Error() string {
	return fmt.Sprintf("generation failed in %s phase: %s", e.Phase, e.Reason)
}

func (e *GenerationFailed) Unwrap() error { return e.Err }
