package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sitegen/internal/llm"
)

const (
	maxConcurrentReads = 3
	maxFindings        = 10

	// DefaultMinConfidence is the floor below which a run is treated
	// as retryable rather than returned.
	DefaultMinConfidence = 0.3
)

const synthesisSystemPrompt = `You are a UI/UX and conversion optimization research specialist for affiliate marketing websites.
You turn raw research insights into specific, actionable conversion elements.
Each element names the UI element type (button, banner, form, or card), the psychology principle it leans on, a color strategy, example copy, and a placement.
Ground every element in the provided insights. Respond with JSON only.`

var synthesisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"recommendations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"element_type":         map[string]any{"type": "string", "enum": []string{"button", "banner", "form", "card"}},
					"psychology_principle": map[string]any{"type": "string"},
					"color_scheme":         map[string]any{"type": "string"},
					"text_content":         map[string]any{"type": "string"},
					"placement":            map[string]any{"type": "string"},
				},
				"required": []string{"element_type", "psychology_principle", "color_scheme", "text_content", "placement"},
			},
		},
	},
	"required": []string{"recommendations"},
}

// Deps are the agent's collaborators, injected per construction.
// Model is optional: without it the agent falls back to keyword-driven
// synthesis.
type Deps struct {
	Reader SourceReader
	Model  llm.JSONClient
	Logger *zap.Logger
}

// Agent performs one research query per Run call. It holds no state
// between calls; caching is the caller's concern.
type Agent struct {
	deps          Deps
	minConfidence float64
}

func NewAgent(deps Deps) *Agent {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Reader == nil {
		deps.Reader = NewHTTPReader()
	}
	return &Agent{deps: deps, minConfidence: DefaultMinConfidence}
}

// Run researches the query across its curated sources and synthesizes
// recommendations. Unreachable sources are skipped; a run that produces
// no findings, or too few sources to trust, returns *RetryableError.
func (a *Agent) Run(ctx context.Context, query *Query) (*Result, error) {
	query.Normalize()
	if query.Topic == "" {
		return nil, fmt.Errorf("research: empty topic")
	}

	sources := SourcesFor(query.FocusArea, query.Niche)
	if len(sources) == 0 {
		return nil, fmt.Errorf("research: no sources for focus area %q", query.FocusArea)
	}
	if len(sources) > query.MaxSources {
		sources = sources[:query.MaxSources]
	}

	pages := a.readSources(ctx, sources, query.FocusArea)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, &RetryableError{Query: query.Topic, Reason: "no sources reachable"}
	}

	findings, insights, reached := distill(pages)
	if len(findings) == 0 || len(insights) == 0 {
		return nil, &RetryableError{Query: query.Topic, Reason: "no relevant findings"}
	}

	confidence := confidenceScore(len(pages), query.MaxSources)
	if confidence < a.minConfidence {
		return nil, &RetryableError{
			Query:  query.Topic,
			Reason: fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, a.minConfidence),
		}
	}

	recs := a.synthesize(ctx, query, insights)

	a.deps.Logger.Info("research complete",
		zap.String("topic", query.Topic),
		zap.String("focus_area", query.FocusArea),
		zap.Int("sources", len(reached)),
		zap.Int("findings", len(findings)),
		zap.Int("recommendations", len(recs)),
		zap.Float64("confidence", confidence))

	return &Result{
		Query:           query.Topic,
		Findings:        findings,
		Sources:         reached,
		Recommendations: recs,
		Confidence:      confidence,
		Timestamp:       time.Now(),
	}, nil
}

// readSources fetches sources concurrently, keeping input order in the
// returned pages. Individual failures are logged and dropped.
func (a *Agent) readSources(ctx context.Context, sources []string, focusArea string) []*Page {
	var mu sync.Mutex
	pages := make([]*Page, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			page, err := a.deps.Reader.Read(gctx, source, focusArea)
			if err != nil {
				a.deps.Logger.Warn("source unreachable",
					zap.String("source", source), zap.Error(err))
				return nil
			}
			mu.Lock()
			pages[i] = page
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	out := make([]*Page, 0, len(pages))
	for _, p := range pages {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// distill turns fetched pages into a deduplicated finding list, the
// insight pool for synthesis, and the list of reached source URLs.
func distill(pages []*Page) (findings, insights, reached []string) {
	seen := make(map[string]struct{})
	for _, page := range pages {
		reached = append(reached, page.URL)

		if page.Text != "" && len(findings) < maxFindings {
			excerpt := page.Text
			if len(excerpt) > 200 {
				excerpt = truncateText(excerpt, 200) + "..."
			}
			finding := fmt.Sprintf("From %s: %s", hostOf(page.URL), excerpt)
			if _, dup := seen[finding]; !dup {
				seen[finding] = struct{}{}
				findings = append(findings, finding)
			}
		}

		for _, insight := range page.Insights {
			key := strings.ToLower(insight)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			insights = append(insights, insight)
		}
	}
	return findings, insights, reached
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// confidenceScore grows with source coverage, capped at 1.
func confidenceScore(reached, maxSources int) float64 {
	if maxSources <= 0 {
		maxSources = 1
	}
	score := float64(reached)/float64(maxSources)*0.8 + 0.2
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// synthesize asks the model to turn insights into conversion elements,
// falling back to keyword heuristics when the model is absent or its
// answer does not parse.
func (a *Agent) synthesize(ctx context.Context, query *Query, insights []string) []Recommendation {
	if a.deps.Model == nil {
		return recommendationsFromInsights(insights, query.FocusArea)
	}

	prompt := buildSynthesisPrompt(query, insights)
	raw, err := a.deps.Model.CompleteJSON(ctx, synthesisSystemPrompt, prompt, synthesisSchema)
	if err != nil {
		a.deps.Logger.Warn("model synthesis failed, using heuristics",
			zap.String("topic", query.Topic), zap.Error(err))
		return recommendationsFromInsights(insights, query.FocusArea)
	}

	var parsed struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || len(parsed.Recommendations) == 0 {
		a.deps.Logger.Warn("model synthesis unparseable, using heuristics",
			zap.String("topic", query.Topic))
		return recommendationsFromInsights(insights, query.FocusArea)
	}
	if len(parsed.Recommendations) > maxRecommendations {
		parsed.Recommendations = parsed.Recommendations[:maxRecommendations]
	}
	return parsed.Recommendations
}

func buildSynthesisPrompt(query *Query, insights []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\nNiche: %s\nFocus area: %s\n\nResearch insights:\n", query.Topic, query.Niche, query.FocusArea)

	capped := insights
	if len(capped) > maxFindings {
		capped = capped[:maxFindings]
	}
	for i, insight := range capped {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, insight)
	}
	fmt.Fprintf(&sb, "\nSynthesize at most %d conversion elements grounded in these insights.", maxRecommendations)
	return sb.String()
}

// TopPrinciples returns the distinct psychology principles across
// results, most frequent first. The generator surfaces them in the run
// report.
func TopPrinciples(results []*Result) []string {
	counts := make(map[string]int)
	var order []string
	for _, res := range results {
		for _, rec := range res.Recommendations {
			if counts[rec.PsychologyPrinciple] == 0 {
				order = append(order, rec.PsychologyPrinciple)
			}
			counts[rec.PsychologyPrinciple]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
