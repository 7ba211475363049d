package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"sitegen/internal/assemble"
	"sitegen/internal/catalog"
	"sitegen/internal/research"
	"sitegen/internal/site"
	"sitegen/internal/usage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubProvider serves a fixed row set.
type stubProvider struct {
	rows [][]string
	err  error
}

func (s *stubProvider) Rows(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func catalogRows() [][]string {
	return [][]string{
		{"Name", "Description", "Price", "Image URL", "Affiliate URL", "Category", "Stock Status"},
		{"Trail Tent 2P", "Two person tent", "$199.99", "https://img.example.com/tent.jpg", "https://aff.example.com/tent", "Tents", "in_stock"},
		{"Summit Pack 40L", "Lightweight pack", "$89.00", "https://img.example.com/pack.jpg", "https://aff.example.com/pack", "Backpacks", "low_stock"},
		{"Broken Row", "No price", "", "https://img.example.com/x.jpg", "https://aff.example.com/x", "Tents", "in_stock"},
	}
}

// scriptedRunner returns canned outcomes per call, tracking call counts
// per topic.
type scriptedRunner struct {
	mu       sync.Mutex
	calls    map[string]int
	failures int // retryable failures before success; -1 fails forever
	result   func(q *research.Query) *research.Result
	track    bool
}

func (s *scriptedRunner) Run(ctx context.Context, query *research.Query) (*research.Result, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[query.Topic]++
	n := s.calls[query.Topic]
	s.mu.Unlock()

	if s.track {
		if ledger := usage.FromContext(ctx); ledger != nil {
			ledger.Track("test-model", "researcher", "complete", 100, 20)
		}
	}

	if s.failures < 0 || n <= s.failures {
		return nil, &research.RetryableError{Query: query.Topic, Reason: "no usable result"}
	}

	if s.result != nil {
		return s.result(query), nil
	}
	return &research.Result{
		Query:      query.Topic,
		Findings:   []string{"finding for " + query.Topic},
		Sources:    []string{"https://example.com"},
		Confidence: 0.84,
		Timestamp:  time.Now(),
		Recommendations: []research.Recommendation{
			{
				ElementType:         "button",
				PsychologyPrinciple: "urgency/scarcity",
				ColorScheme:         "red for urgency and action",
				TextContent:         "Act fast, ends tonight",
				Placement:           "above the fold",
			},
		},
	}, nil
}

func (s *scriptedRunner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func testDeps(t *testing.T, provider catalog.RowProvider, runner ResearchRunner) *Deps {
	t.Helper()
	renderer, err := site.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return &Deps{
		Fetcher:   catalog.NewFetcher(provider, time.Minute, nil),
		Agent:     runner,
		Renderer:  renderer,
		Assembler: assemble.New(t.TempDir(), nil),
		Cache:     research.NewCache(),
	}
}

func testRequest() *Request {
	return &Request{
		Niche:     "outdoor_gear",
		BrandName: "Peak Gear Hub",
		Source: catalog.SourceConfig{
			SourceID:  "sheet-123",
			ReadRange: "Products!A1:J100",
		},
	}
}

func TestRunCompletes(t *testing.T) {
	runner := &scriptedRunner{}
	orch := NewOrchestrator(testDeps(t, &stubProvider{rows: catalogRows()}, runner))

	website, err := orch.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if orch.Phase() != PhaseComplete {
		t.Errorf("phase = %s, want complete", orch.Phase())
	}
	if website.ProjectName != "peak-gear-hub" {
		t.Errorf("project name = %q", website.ProjectName)
	}

	// Full artifact set plus the manifest.
	wantFiles := len(site.DefaultArtifacts()) + 1
	if website.FileCount != wantFiles {
		t.Errorf("file count = %d, want %d", website.FileCount, wantFiles)
	}
	for _, artifact := range site.DefaultArtifacts() {
		if _, err := os.Stat(filepath.Join(website.Path, filepath.FromSlash(artifact.OutputPath))); err != nil {
			t.Errorf("missing artifact on disk: %s", artifact.OutputPath)
		}
	}

	report := orch.Report()
	if report.Phase != PhaseComplete {
		t.Errorf("report phase = %s", report.Phase)
	}
	if report.ProductCount != 2 || report.SkippedRows != 1 {
		t.Errorf("products/skipped = %d/%d, want 2/1", report.ProductCount, report.SkippedRows)
	}
	if len(report.FallbackSections) != 0 {
		t.Errorf("unexpected fallbacks: %v", report.FallbackSections)
	}
}

func TestRunRetriesThenFallsBack(t *testing.T) {
	runner := &scriptedRunner{failures: -1}
	deps := testDeps(t, &stubProvider{rows: catalogRows()}, runner)
	orch := NewOrchestrator(deps)

	website, err := orch.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if website == nil {
		t.Fatal("no website despite fallback research")
	}

	report := orch.Report()
	if len(report.FallbackSections) != len(researchSections) {
		t.Errorf("fallback sections = %v, want all %d", report.FallbackSections, len(researchSections))
	}

	// Each section gets the initial attempt plus the bounded retries.
	wantCalls := len(researchSections) * (deps.ResearchRetries + 1)
	if got := runner.callCount(); got != wantCalls {
		t.Errorf("agent calls = %d, want %d", got, wantCalls)
	}
}

func TestRunRetryThenSuccess(t *testing.T) {
	runner := &scriptedRunner{failures: 1}
	orch := NewOrchestrator(testDeps(t, &stubProvider{rows: catalogRows()}, runner))

	if _, err := orch.Run(context.Background(), testRequest()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fallbacks := orch.Report().FallbackSections; len(fallbacks) != 0 {
		t.Errorf("fallbacks = %v, want none after retry success", fallbacks)
	}
	if got, want := runner.callCount(), len(researchSections)*2; got != want {
		t.Errorf("agent calls = %d, want %d", got, want)
	}
}

func TestRunSharedCacheSkipsAgent(t *testing.T) {
	runner := &scriptedRunner{}
	deps := testDeps(t, &stubProvider{rows: catalogRows()}, runner)

	if _, err := NewOrchestrator(deps).Run(context.Background(), testRequest()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	callsAfterFirst := runner.callCount()

	if _, err := NewOrchestrator(deps).Run(context.Background(), testRequest()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if runner.callCount() != callsAfterFirst {
		t.Errorf("agent called on cached sections: %d -> %d", callsAfterFirst, runner.callCount())
	}
	if deps.Cache.Stats().Hits < len(researchSections) {
		t.Errorf("cache hits = %d, want >= %d", deps.Cache.Stats().Hits, len(researchSections))
	}
}

func TestRunSourceUnavailable(t *testing.T) {
	runner := &scriptedRunner{}
	orch := NewOrchestrator(testDeps(t, &stubProvider{err: fmt.Errorf("connection refused")}, runner))

	_, err := orch.Run(context.Background(), testRequest())
	var failed *GenerationFailed
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want *GenerationFailed", err)
	}
	var srcErr *catalog.DataSourceError
	if !errors.As(err, &srcErr) {
		t.Errorf("cause not a *DataSourceError: %v", err)
	}
	if orch.Phase() != PhaseFailed {
		t.Errorf("phase = %s, want failed", orch.Phase())
	}
	if runner.callCount() != 0 {
		t.Error("research ran despite unavailable source")
	}
}

func TestRunInvalidRequest(t *testing.T) {
	orch := NewOrchestrator(testDeps(t, &stubProvider{rows: catalogRows()}, &scriptedRunner{}))

	req := testRequest()
	req.BrandName = ""
	_, err := orch.Run(context.Background(), req)
	var failed *GenerationFailed
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want *GenerationFailed", err)
	}
}

func TestRunRegeneratesTaintedArtifacts(t *testing.T) {
	// Research copy carrying a banned pattern fails artifact
	// validation; the safe-context regeneration must recover.
	runner := &scriptedRunner{result: func(q *research.Query) *research.Result {
		return &research.Result{
			Query:      q.Topic,
			Findings:   []string{"finding"},
			Confidence: 0.9,
			Timestamp:  time.Now(),
			Recommendations: []research.Recommendation{{
				ElementType:         "banner",
				PsychologyPrinciple: "trust building",
				ColorScheme:         "green for trust",
				TextContent:         "Just call eval( for instant trust",
				Placement:           "top",
			}},
		}
	}}
	orch := NewOrchestrator(testDeps(t, &stubProvider{rows: catalogRows()}, runner))

	website, err := orch.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if failures := orch.Report().ArtifactFailures; len(failures) != 0 {
		t.Errorf("artifact failures = %v, want none after regeneration", failures)
	}
	for path, content := range website.Files {
		if strings.Contains(content, "eval(") {
			t.Errorf("tainted copy survived in %s", path)
		}
	}
}

// taintingRenderer injects a banned pattern into one artifact's output
// on every attempt, so neither the merged nor the safe context can
// produce a valid file.
type taintingRenderer struct {
	inner    *site.Renderer
	template string
}

func (r *taintingRenderer) Render(templateID string, ctx map[string]any) (string, error) {
	content, err := r.inner.Render(templateID, ctx)
	if err != nil {
		return "", err
	}
	if templateID == r.template {
		return content + "\neval(unsafe)", nil
	}
	return content, nil
}

func TestRunExcludesArtifactFailingBothAttempts(t *testing.T) {
	deps := testDeps(t, &stubProvider{rows: catalogRows()}, &scriptedRunner{})
	deps.Renderer = &taintingRenderer{inner: deps.Renderer.(*site.Renderer), template: "hero"}
	orch := NewOrchestrator(deps)

	website, err := orch.Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if orch.Phase() != PhaseComplete {
		t.Errorf("phase = %s, want complete", orch.Phase())
	}

	if _, ok := website.Files["components/Hero.tsx"]; ok {
		t.Error("failed artifact present in file set")
	}
	if _, err := os.Stat(filepath.Join(website.Path, "components", "Hero.tsx")); !os.IsNotExist(err) {
		t.Error("failed artifact written to disk")
	}

	failures := orch.Report().ArtifactFailures
	if len(failures) != 1 {
		t.Fatalf("artifact failures = %v, want exactly one", failures)
	}
	if failures[0].OutputPath != "components/Hero.tsx" || failures[0].Reason == "" {
		t.Errorf("failure = %+v", failures[0])
	}

	// The rest of the artifact set still assembled.
	wantFiles := len(site.DefaultArtifacts()) // one lost, manifest added
	if website.FileCount != wantFiles {
		t.Errorf("file count = %d, want %d", website.FileCount, wantFiles)
	}
}

func TestRunThreadsMaxSourcesIntoQueries(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	runner := &scriptedRunner{result: func(q *research.Query) *research.Result {
		mu.Lock()
		seen = append(seen, q.MaxSources)
		mu.Unlock()
		return &research.Result{Query: q.Topic, Findings: []string{"f"}, Confidence: 0.9, Timestamp: time.Now()}
	}}
	deps := testDeps(t, &stubProvider{rows: catalogRows()}, runner)
	deps.ResearchMaxSources = 2

	if _, err := NewOrchestrator(deps).Run(context.Background(), testRequest()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != len(researchSections) {
		t.Fatalf("queries seen = %d, want %d", len(seen), len(researchSections))
	}
	for _, max := range seen {
		if max != 2 {
			t.Errorf("query MaxSources = %d, want 2", max)
		}
	}
}

func TestRunThreadsLedgerThroughContext(t *testing.T) {
	runner := &scriptedRunner{track: true}
	orch := NewOrchestrator(testDeps(t, &stubProvider{rows: catalogRows()}, runner))

	if _, err := orch.Run(context.Background(), testRequest()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stats := orch.Report().Usage
	if stats.Calls != len(researchSections) {
		t.Errorf("ledger calls = %d, want %d", stats.Calls, len(researchSections))
	}
	if stats.Total.Input != int64(100*len(researchSections)) {
		t.Errorf("ledger input tokens = %d", stats.Total.Input)
	}
	if stats.RunID != orch.Report().RunID {
		t.Error("ledger run ID mismatch")
	}
}

func TestRunCancellation(t *testing.T) {
	runner := &scriptedRunner{}
	orch := NewOrchestrator(testDeps(t, &stubProvider{rows: catalogRows()}, runner))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Run(ctx, testRequest())
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if orch.Phase() == PhaseComplete {
		t.Error("run completed despite cancellation")
	}
}

func TestToolsRegistry(t *testing.T) {
	runner := &scriptedRunner{}
	orch := NewOrchestrator(testDeps(t, &stubProvider{rows: catalogRows()}, runner))

	reg, err := orch.Tools()
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	for _, name := range []string{"fetch_products", "research_topic", "render_artifact", "assemble_site"} {
		if !reg.Has(name) {
			t.Errorf("missing tool %s", name)
		}
	}

	result, err := reg.Execute(context.Background(), "fetch_products", map[string]any{
		"source_id":  "sheet-123",
		"read_range": "Products!A1:J100",
	})
	if err != nil {
		t.Fatalf("fetch_products: %v", err)
	}
	if !strings.Contains(result.Result, "Trail Tent 2P") {
		t.Errorf("fetch_products result missing products: %s", result.Result)
	}

	result, err = reg.Execute(context.Background(), "research_topic", map[string]any{
		"topic": "cta design",
		"niche": "outdoor_gear",
	})
	if err != nil {
		t.Fatalf("research_topic: %v", err)
	}
	if !strings.Contains(result.Result, "recommendations") {
		t.Errorf("research_topic result = %s", result.Result)
	}
}
