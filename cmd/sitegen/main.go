package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitegen/internal/assemble"
	"sitegen/internal/catalog"
	"sitegen/internal/config"
	"sitegen/internal/generator"
	"sitegen/internal/llm"
	"sitegen/internal/logging"
	"sitegen/internal/research"
	"sitegen/internal/site"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sitegen",
	Short: "sitegen - generate conversion-optimized affiliate sites from a product sheet",
	Long: `sitegen turns a product spreadsheet into a complete, deployable
Next.js affiliate site.

It validates the product catalog, researches conversion and UX patterns
for the niche, renders the project from templates, and assembles the
output atomically.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real env vars win either way.
		_ = godotenv.Load()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Level, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	niche      string
	brandName  string
	tagline    string
	audience   string
	colors     string
	goals      []string
	sheetID    string
	workbook   string
	readRange  string
	category   string
	outputDir  string
	reportPath string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a complete affiliate website",
	RunE:  runGenerate,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the pipeline tools exposed to the agents",
	RunE:  runTools,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "sitegen.yaml", "config file path")

	generateCmd.Flags().StringVar(&niche, "niche", "", "business niche (e.g. outdoor_gear)")
	generateCmd.Flags().StringVar(&brandName, "brand", "", "brand name for the generated site")
	generateCmd.Flags().StringVar(&tagline, "tagline", "", "optional brand tagline")
	generateCmd.Flags().StringVar(&audience, "audience", "", "target audience description")
	generateCmd.Flags().StringVar(&colors, "colors", "", "preferred color scheme (green, orange, red)")
	generateCmd.Flags().StringSliceVar(&goals, "goals", nil, "conversion goals")
	generateCmd.Flags().StringVar(&sheetID, "sheet", "", "Google Sheets spreadsheet ID")
	generateCmd.Flags().StringVar(&workbook, "workbook", "", "local .xlsx workbook path (overrides --sheet)")
	generateCmd.Flags().StringVar(&readRange, "range", "", "read range or sheet name")
	generateCmd.Flags().StringVar(&category, "category", "", "only include this product category")
	generateCmd.Flags().StringVar(&outputDir, "output", "", "output directory")
	generateCmd.Flags().StringVar(&reportPath, "report", "", "write the run report JSON to this path")
	_ = generateCmd.MarkFlagRequired("brand")
	_ = generateCmd.MarkFlagRequired("niche")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	deps, req, err := buildRun(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := generator.NewOrchestrator(deps)
	start := time.Now()
	website, runErr := orch.Run(ctx, req)

	report := orch.Report()
	if reportPath != "" {
		if err := writeReport(reportPath, report); err != nil {
			logger.Warn("failed to write report", zap.Error(err))
		}
	}
	if website != nil {
		ledgerPath := filepath.Join(website.Path, "usage.json")
		if err := orch.Ledger().Save(ledgerPath); err != nil {
			logger.Warn("failed to persist usage ledger", zap.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("Site generated at %s (%d files, %s)\n",
		website.Path, website.FileCount, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Skipped rows: %d  Research cache: %d hits / %d misses  Tokens: %d in / %d out\n",
		report.SkippedRows,
		report.ResearchCache.Hits, report.ResearchCache.Misses,
		report.Usage.Total.Input, report.Usage.Total.Output)
	if len(report.FallbackSections) > 0 {
		fmt.Printf("Fallback research sections: %s\n", strings.Join(report.FallbackSections, ", "))
	}
	for _, failure := range report.ArtifactFailures {
		fmt.Printf("Artifact failed: %s (%s)\n", failure.OutputPath, failure.Reason)
	}
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	deps, _, err := buildRun(cfg)
	if err != nil {
		return err
	}
	reg, err := generator.NewOrchestrator(deps).Tools()
	if err != nil {
		return err
	}
	for _, tool := range reg.All() {
		fmt.Printf("%-16s %-12s %s\n", tool.Name, tool.Category, tool.Description)
	}
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if sheetID != "" {
		cfg.Source.SpreadsheetID = sheetID
	}
	if workbook != "" {
		cfg.Source.Workbook = workbook
	}
	if readRange != "" {
		cfg.Source.ReadRange = readRange
	}
	if category != "" {
		cfg.Source.CategoryFilter = category
	}
	if outputDir != "" {
		cfg.Site.OutputDir = outputDir
	}
}

// buildRun wires the per-run dependency set from config.
func buildRun(cfg *config.Config) (*generator.Deps, *generator.Request, error) {
	var provider catalog.RowProvider
	sourceID := cfg.Source.SpreadsheetID
	if cfg.Source.Workbook != "" {
		provider = catalog.NewExcelProvider()
		sourceID = cfg.Source.Workbook
	} else {
		if cfg.Source.APIKey == "" {
			return nil, nil, fmt.Errorf("GOOGLE_SHEETS_API_KEY is required for sheet sources")
		}
		provider = catalog.NewSheetsProvider(cfg.Source.APIKey)
	}
	if sourceID == "" {
		return nil, nil, fmt.Errorf("no product source configured (set --sheet or --workbook)")
	}

	var model llm.JSONClient
	if cfg.LLM.APIKey != "" {
		gemCfg := llm.DefaultGeminiConfig(cfg.LLM.APIKey)
		gemCfg.Model = cfg.LLM.Model
		gemCfg.BaseURL = cfg.LLM.BaseURL
		gemCfg.Agent = "researcher"
		gemCfg.Timeout = cfg.LLMTimeout()
		gemCfg.MinInterval = cfg.LLMMinInterval()
		model = llm.NewGeminiClientWithConfig(gemCfg)
	} else {
		logger.Warn("GEMINI_API_KEY not set, research runs without model synthesis")
	}

	renderer, err := site.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	deps := &generator.Deps{
		Fetcher: catalog.NewFetcher(provider, cfg.SourceCacheTTL(), logger.Named("catalog")),
		Agent: research.NewAgent(research.Deps{
			Model:  model,
			Logger: logger.Named("research"),
		}),
		Renderer:           renderer,
		Assembler:          assemble.New(cfg.Site.OutputDir, logger.Named("assemble")),
		Cache:              research.NewCache(),
		Logger:             logger.Named("generator"),
		ResearchRetries:    cfg.Research.MaxRetries,
		ResearchMaxSources: cfg.Research.MaxSources,
		ResearchTTL:        cfg.ResearchCacheTTL(),
	}

	req := &generator.Request{
		Niche:           niche,
		BrandName:       brandName,
		Tagline:         tagline,
		TargetAudience:  audience,
		ColorScheme:     colors,
		ConversionGoals: goals,
		Source: catalog.SourceConfig{
			SourceID:       sourceID,
			ReadRange:      cfg.Source.ReadRange,
			CategoryFilter: cfg.Source.CategoryFilter,
			CacheTTL:       cfg.SourceCacheTTL(),
		},
	}
	return deps, req, nil
}

func writeReport(path string, report *generator.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
