package generator

import (
	"strings"

	"sitegen/internal/catalog"
	"sitegen/internal/research"
)

// Base palette; research findings adjust primary and accent.
func defaultColors() map[string]string {
	return map[string]string{
		"primary":   "blue-600",
		"secondary": "gray-600",
		"accent":    "green-500",
		"warning":   "yellow-500",
		"danger":    "red-500",
	}
}

func defaultTrustSignals() []string {
	return []string{
		"SSL Secure Checkout",
		"30-Day Money Back Guarantee",
		"Free Shipping",
		"Customer Reviews",
	}
}

func defaultUrgencyElements() []string {
	return []string{
		"Limited Time Offer",
		"Only X Left in Stock",
		"Sale Ends Soon",
	}
}

// conversionColors maps research color guidance onto the Tailwind
// palette used by the templates.
func conversionColors(results []*research.Result, requested string) map[string]string {
	colors := defaultColors()

	switch strings.ToLower(requested) {
	case "green":
		colors["primary"] = "green-600"
	case "orange":
		colors["primary"] = "orange-600"
	case "red":
		colors["primary"] = "red-600"
	}

	for _, result := range results {
		for _, rec := range result.Recommendations {
			scheme := strings.ToLower(rec.ColorScheme)
			switch {
			case strings.Contains(scheme, "green"):
				colors["primary"] = "green-600"
			case strings.Contains(scheme, "orange"):
				colors["primary"] = "orange-600"
			case strings.Contains(scheme, "red"):
				colors["accent"] = "red-600"
			}
		}
	}
	return colors
}

// trustSignals extends the defaults with trust-building copy surfaced
// by research.
func trustSignals(results []*research.Result) []string {
	signals := defaultTrustSignals()
	seen := make(map[string]struct{}, len(signals))
	for _, s := range signals {
		seen[s] = struct{}{}
	}
	for _, result := range results {
		for _, rec := range result.Recommendations {
			if !strings.Contains(strings.ToLower(rec.PsychologyPrinciple), "trust") {
				continue
			}
			if _, dup := seen[rec.TextContent]; dup || rec.TextContent == "" {
				continue
			}
			seen[rec.TextContent] = struct{}{}
			signals = append(signals, rec.TextContent)
		}
	}
	return signals
}

// urgencyElements extends the defaults with urgency and scarcity copy
// surfaced by research.
func urgencyElements(results []*research.Result) []string {
	elements := defaultUrgencyElements()
	seen := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		seen[e] = struct{}{}
	}
	for _, result := range results {
		for _, rec := range result.Recommendations {
			principle := strings.ToLower(rec.PsychologyPrinciple)
			if !strings.Contains(principle, "urgency") && !strings.Contains(principle, "scarcity") {
				continue
			}
			if _, dup := seen[rec.TextContent]; dup || rec.TextContent == "" {
				continue
			}
			seen[rec.TextContent] = struct{}{}
			elements = append(elements, rec.TextContent)
		}
	}
	return elements
}

// renderContext merges the request, catalog, and research results into
// the single context every template renders from.
func renderContext(req *Request, products []catalog.Product, results []*research.Result) map[string]any {
	return map[string]any{
		"BrandName":       req.BrandName,
		"Niche":           req.Niche,
		"Tagline":         req.Tagline,
		"Colors":          conversionColors(results, req.ColorScheme),
		"TrustSignals":    trustSignals(results),
		"UrgencyElements": urgencyElements(results),
		"Categories":      catalog.Categories(products),
		"SheetsID":        req.Source.SourceID,
		"SheetsRange":     req.Source.ReadRange,
	}
}

// safeContext is the regeneration context: identical request and
// catalog data, but research-derived copy replaced by the defaults.
// Used when a rendered artifact fails structural validation.
func safeContext(req *Request, products []catalog.Product) map[string]any {
	return renderContext(req, products, nil)
}
