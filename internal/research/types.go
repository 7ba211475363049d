// Package research gathers conversion-optimization insight for a niche
// and synthesizes it into recommendations the site generator can act on.
package research

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Query describes one research request.
type Query struct {
	Topic       string `json:"topic"`
	FocusArea   string `json:"focus_area"` // ui_ux, conversion, tailwind, seo
	Niche       string `json:"niche"`
	MaxSources  int    `json:"max_sources"`
	RecencyDays int    `json:"recency_days"`
}

// Normalize fills defaults and canonicalizes free-text fields.
func (q *Query) Normalize() {
	q.Topic = strings.TrimSpace(q.Topic)
	q.FocusArea = strings.ToLower(strings.TrimSpace(q.FocusArea))
	q.Niche = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(q.Niche), " ", "_"))
	if q.FocusArea == "" {
		q.FocusArea = "conversion"
	}
	if q.MaxSources <= 0 {
		q.MaxSources = 5
	}
	if q.RecencyDays <= 0 {
		q.RecencyDays = 365
	}
}

// Fingerprint returns a deterministic cache key covering every field.
func (q *Query) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d", q.Topic, q.FocusArea, q.Niche, q.MaxSources, q.RecencyDays)
	return hex.EncodeToString(h.Sum(nil))
}

// Recommendation is one actionable conversion element.
type Recommendation struct {
	ElementType         string `json:"element_type"` // button, banner, form, card
	PsychologyPrinciple string `json:"psychology_principle"`
	ColorScheme         string `json:"color_scheme"`
	TextContent         string `json:"text_content"`
	Placement           string `json:"placement"`
}

// Result is a completed research response.
type Result struct {
	Query           string           `json:"query"`
	Findings        []string         `json:"findings"`
	Sources         []string         `json:"sources"`
	Recommendations []Recommendation `json:"recommendations"`
	Confidence      float64          `json:"confidence"`
	Timestamp       time.Time        `json:"timestamp"`
	Cached          bool             `json:"cached"`
}

// RetryableError marks a research failure worth retrying: the sources
// were reachable but produced nothing usable this attempt.
type RetryableError struct {
	Query  string
	Reason string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("research for %q yielded no usable result: %s", e.Query, e.Reason)
}
