package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"sitegen/internal/assemble"
	"sitegen/internal/catalog"
	"sitegen/internal/research"
	"sitegen/internal/site"
	"sitegen/internal/tools"
)

// Tools exposes the orchestrator's capabilities as a registry, one tool
// per pipeline operation. The agents see the pipeline only through
// these.
func (o *Orchestrator) Tools() (*tools.Registry, error) {
	reg := tools.NewRegistry(o.deps.Logger)

	register := []*tools.Tool{
		{
			Name:        "fetch_products",
			Description: "Fetch and validate the product catalog from the configured data source",
			Category:    tools.CategoryData,
			Schema: tools.ToolSchema{
				Required: []string{"source_id"},
				Properties: map[string]tools.Property{
					"source_id":       {Type: "string", Description: "Spreadsheet or workbook identifier"},
					"read_range":      {Type: "string", Description: "Cell range or sheet name to read"},
					"category_filter": {Type: "string", Description: "Optional category filter"},
				},
			},
			Execute: o.fetchProductsTool,
		},
		{
			Name:        "research_topic",
			Description: "Research conversion and UX guidance for a topic within the site's niche",
			Category:    tools.CategoryResearch,
			Schema: tools.ToolSchema{
				Required: []string{"topic"},
				Properties: map[string]tools.Property{
					"topic":      {Type: "string", Description: "Research topic"},
					"focus_area": {Type: "string", Description: "ui_ux, conversion, tailwind, or seo", Default: "conversion"},
					"niche":      {Type: "string", Description: "Business niche context"},
				},
			},
			Execute: o.researchTopicTool,
		},
		{
			Name:        "render_artifact",
			Description: "Render one project artifact from its template and validate its structure",
			Category:    tools.CategoryRender,
			Schema: tools.ToolSchema{
				Required: []string{"template_id", "context"},
				Properties: map[string]tools.Property{
					"template_id": {Type: "string", Description: "Template identifier"},
					"context":     {Type: "object", Description: "Rendering context"},
				},
			},
			Execute: o.renderArtifactTool,
		},
		{
			Name:        "assemble_site",
			Description: "Atomically write a complete file set to the output directory",
			Category:    tools.CategoryAssembly,
			Schema: tools.ToolSchema{
				Required: []string{"project_name", "files"},
				Properties: map[string]tools.Property{
					"project_name": {Type: "string", Description: "Project directory name"},
					"files":        {Type: "object", Description: "Relative path to content map"},
				},
			},
			Execute: o.assembleSiteTool,
		},
	}

	for _, tool := range register {
		if err := reg.Register(tool); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (o *Orchestrator) fetchProductsTool(ctx context.Context, args map[string]any) (string, error) {
	cfg := catalog.SourceConfig{
		SourceID: args["source_id"].(string),
	}
	if readRange, ok := args["read_range"].(string); ok {
		cfg.ReadRange = readRange
	}
	if filter, ok := args["category_filter"].(string); ok {
		cfg.CategoryFilter = filter
	}

	result, err := o.deps.Fetcher.Fetch(ctx, cfg)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(map[string]any{
		"products": result.Products,
		"skipped":  result.Skipped,
		"cached":   result.Cached,
	})
	return string(out), err
}

func (o *Orchestrator) researchTopicTool(ctx context.Context, args map[string]any) (string, error) {
	query := &research.Query{
		Topic: args["topic"].(string),
	}
	if focus, ok := args["focus_area"].(string); ok {
		query.FocusArea = focus
	}
	if niche, ok := args["niche"].(string); ok {
		query.Niche = niche
	}
	query.Normalize()

	result, _ := o.resolveSection(ctx, "tool", query)
	out, err := json.Marshal(result)
	return string(out), err
}

func (o *Orchestrator) renderArtifactTool(ctx context.Context, args map[string]any) (string, error) {
	templateID := args["template_id"].(string)
	renderCtx, ok := args["context"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("context must be an object")
	}

	outputPath := templateID
	for _, artifact := range site.DefaultArtifacts() {
		if artifact.TemplateID == templateID {
			outputPath = artifact.OutputPath
			break
		}
	}

	content, err := o.deps.Renderer.Render(templateID, renderCtx)
	if err != nil {
		return "", err
	}
	if err := site.ValidateArtifact(outputPath, content); err != nil {
		return "", err
	}
	return content, nil
}

func (o *Orchestrator) assembleSiteTool(ctx context.Context, args map[string]any) (string, error) {
	rawFiles, ok := args["files"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("files must be an object")
	}
	files := make(map[string]string, len(rawFiles))
	for path, content := range rawFiles {
		text, ok := content.(string)
		if !ok {
			return "", fmt.Errorf("file %s: content must be a string", path)
		}
		files[path] = text
	}

	path, err := o.deps.Assembler.Assemble(ctx, &assemble.Input{
		ProjectName: args["project_name"].(string),
		Files:       files,
	})
	if err != nil {
		return "", err
	}
	return path, nil
}
