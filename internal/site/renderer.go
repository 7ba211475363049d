// Package site renders the Next.js project artifacts from embedded
// templates. Rendering is pure: the same template and context always
// produce byte-identical output.
package site

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateError reports a rendering failure for one template.
type TemplateError struct {
	TemplateID string
	Err        error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Artifact names one generated file: which template produces it and
// where it lands in the project tree.
type Artifact struct {
	TemplateID string
	OutputPath string
}

// DefaultArtifacts is the full Next.js project file set, in assembly
// order.
func DefaultArtifacts() []Artifact {
	return []Artifact{
		{TemplateID: "index", OutputPath: "pages/index.tsx"},
		{TemplateID: "category", OutputPath: "pages/category/[slug].tsx"},
		{TemplateID: "api_sheets", OutputPath: "pages/api/sheets.ts"},
		{TemplateID: "product_card", OutputPath: "components/ProductCard.tsx"},
		{TemplateID: "hero", OutputPath: "components/Hero.tsx"},
		{TemplateID: "navigation", OutputPath: "components/Navigation.tsx"},
		{TemplateID: "footer", OutputPath: "components/Footer.tsx"},
		{TemplateID: "tailwind_config", OutputPath: "tailwind.config.js"},
		{TemplateID: "next_config", OutputPath: "next.config.js"},
		{TemplateID: "package_json", OutputPath: "package.json"},
		{TemplateID: "vercel_json", OutputPath: "vercel.json"},
	}
}

// Renderer renders artifacts from the embedded template set. Missing
// context keys are errors; optional values get explicit defaults in the
// templates via the default func.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	root := template.New("site").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"default": defaultValue,
			"kebab":   Kebab,
			"pascal":  Pascal,
			"camel":   Camel,
			"join":    strings.Join,
		})

	root, err := root.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: root}, nil
}

// Render executes templateID against ctx.
func (r *Renderer) Render(templateID string, ctx map[string]any) (string, error) {
	tmpl := r.templates.Lookup(templateID + ".tmpl")
	if tmpl == nil {
		return "", &TemplateError{TemplateID: templateID, Err: fmt.Errorf("unknown template")}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, ctx); err != nil {
		return "", &TemplateError{TemplateID: templateID, Err: err}
	}
	return sb.String(), nil
}

// Has reports whether templateID is part of the embedded set.
func (r *Renderer) Has(templateID string) bool {
	return r.templates.Lookup(templateID+".tmpl") != nil
}

// defaultValue returns fallback when value is nil or an empty string.
func defaultValue(fallback, value any) any {
	switch v := value.(type) {
	case nil:
		return fallback
	case string:
		if v == "" {
			return fallback
		}
	}
	return value
}
