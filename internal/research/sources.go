package research

// Curated source lists per focus area. These skew toward publications
// that keep their conversion and UX writing current.
var focusSources = map[string][]string{
	"ui_ux": {
		"https://www.nngroup.com",
		"https://uxplanet.org",
		"https://www.smashingmagazine.com",
		"https://medium.com/topic/design",
		"https://www.interaction-design.org",
	},
	"conversion": {
		"https://cxl.com",
		"https://www.optimizely.com/insights",
		"https://blog.hubspot.com/marketing/conversion-optimization",
		"https://unbounce.com/conversion-rate-optimization",
		"https://www.crazyegg.com/blog",
	},
	"tailwind": {
		"https://tailwindcss.com/docs",
		"https://tailwindui.com/components",
		"https://headlessui.com",
		"https://heroicons.com",
		"https://github.com/tailwindlabs",
	},
	"seo": {
		"https://developers.google.com/search",
		"https://moz.com/blog",
		"https://searchengineland.com",
		"https://backlinko.com",
		"https://www.semrush.com/blog",
	},
}

var nicheSources = map[string][]string{
	"fashion": {
		"https://www.vogue.com/fashion",
		"https://fashionista.com",
		"https://www.refinery29.com/en-us/fashion",
	},
	"tech": {
		"https://techcrunch.com",
		"https://www.theverge.com",
		"https://arstechnica.com",
	},
	"outdoor_gear": {
		"https://www.outsideonline.com",
		"https://www.rei.com/blog",
		"https://www.backpacker.com",
	},
}

// SourcesFor returns candidate source URLs for a focus area, extended
// with niche-specific publications when the niche has any.
func SourcesFor(focusArea, niche string) []string {
	base := focusSources[focusArea]
	out := make([]string, 0, len(base)+3)
	out = append(out, base...)
	out = append(out, nicheSources[niche]...)
	return out
}
