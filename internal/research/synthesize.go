package research

import (
	"strings"
)

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func elementTypeFor(insight string) string {
	lower := strings.ToLower(insight)
	switch {
	case containsAny(lower, "button", "cta", "click"):
		return "button"
	case containsAny(lower, "banner", "header", "hero"):
		return "banner"
	case containsAny(lower, "form", "input", "signup"):
		return "form"
	default:
		return "card"
	}
}

func psychologyPrincipleFor(insight string) string {
	lower := strings.ToLower(insight)
	switch {
	case containsAny(lower, "urgency", "limited", "hurry"):
		return "urgency/scarcity"
	case containsAny(lower, "trust", "secure", "safe"):
		return "trust building"
	case containsAny(lower, "social", "proof", "testimonial"):
		return "social proof"
	case containsAny(lower, "color", "red", "green", "blue"):
		return "color psychology"
	default:
		return "general persuasion"
	}
}

func colorSchemeFor(insight, focusArea string) string {
	lower := strings.ToLower(insight)
	switch {
	case containsAny(lower, "red", "urgency"):
		return "red for urgency and action"
	case containsAny(lower, "green", "trust"):
		return "green for trust and success"
	case containsAny(lower, "blue") || focusArea == "ui_ux":
		return "blue for professionalism and trust"
	default:
		return "brand-consistent colors"
	}
}

func placementFor(elementType string) string {
	switch elementType {
	case "button":
		return "above the fold, right-aligned"
	case "banner":
		return "top of page or sticky header"
	case "form":
		return "center of page or sidebar"
	case "card":
		return "grid layout with proper spacing"
	default:
		return "prominently visible"
	}
}

const maxRecommendations = 5

// recommendationsFromInsights derives conversion elements directly from
// insight sentences. Used when the synthesis model is unavailable or
// returns an unusable answer.
func recommendationsFromInsights(insights []string, focusArea string) []Recommendation {
	recs := make([]Recommendation, 0, maxRecommendations)
	for _, insight := range insights {
		if len(recs) >= maxRecommendations {
			break
		}
		elementType := elementTypeFor(insight)
		text := insight
		if len(text) > 100 {
			text = text[:100] + "..."
		}
		recs = append(recs, Recommendation{
			ElementType:         elementType,
			PsychologyPrinciple: psychologyPrincipleFor(insight),
			ColorScheme:         colorSchemeFor(insight, focusArea),
			TextContent:         text,
			Placement:           placementFor(elementType),
		})
	}
	return recs
}

// DefaultRecommendations is the generic set used when research exhausts
// its retries. Proven patterns, no niche awareness.
func DefaultRecommendations() []Recommendation {
	return []Recommendation{
		{
			ElementType:         "button",
			PsychologyPrinciple: "urgency/scarcity",
			ColorScheme:         "red for urgency and action",
			TextContent:         "Shop Now - Limited Time Offer",
			Placement:           "above the fold, right-aligned",
		},
		{
			ElementType:         "banner",
			PsychologyPrinciple: "trust building",
			ColorScheme:         "green for trust and success",
			TextContent:         "Free Shipping on All Orders - 30-Day Money-Back Guarantee",
			Placement:           "top of page or sticky header",
		},
		{
			ElementType:         "card",
			PsychologyPrinciple: "social proof",
			ColorScheme:         "blue for professionalism and trust",
			TextContent:         "Trusted by thousands of happy customers",
			Placement:           "grid layout with proper spacing",
		},
	}
}
