// Package config loads sitegen configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sitegen configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM provider settings
	LLM LLMConfig `yaml:"llm"`

	// Product data source
	Source SourceConfig `yaml:"source"`

	// Research behavior
	Research ResearchConfig `yaml:"research"`

	// Site output
	Site SiteConfig `yaml:"site"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the synthesis model.
type LLMConfig struct {
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	Timeout     string `yaml:"timeout"`
	MinInterval string `yaml:"min_interval"`
}

// SourceConfig configures the product catalog source.
type SourceConfig struct {
	SpreadsheetID  string `yaml:"spreadsheet_id"`
	Workbook       string `yaml:"workbook"` // local .xlsx path; used when set
	ReadRange      string `yaml:"read_range"`
	CategoryFilter string `yaml:"category_filter"`
	APIKey         string `yaml:"api_key"`
	CacheTTL       string `yaml:"cache_ttl"`
}

// ResearchConfig bounds the research phase.
type ResearchConfig struct {
	CacheTTL   string `yaml:"cache_ttl"`
	MaxRetries int    `yaml:"max_retries"`
	MaxSources int    `yaml:"max_sources"`
}

// SiteConfig configures assembly output.
type SiteConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig configures the run logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "sitegen",
		Version: "1.0.0",

		LLM: LLMConfig{
			Model:       "gemini-2.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Timeout:     "120s",
			MinInterval: "500ms",
		},

		Source: SourceConfig{
			ReadRange: "Products!A1:J1000",
			CacheTTL:  "5m",
		},

		Research: ResearchConfig{
			CacheTTL:   "1h",
			MaxRetries: 2,
			MaxSources: 5,
		},

		Site: SiteConfig{
			OutputDir: "generated",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GOOGLE_SHEETS_API_KEY"); key != "" {
		c.Source.APIKey = key
	}
	if id := os.Getenv("SITEGEN_SPREADSHEET_ID"); id != "" {
		c.Source.SpreadsheetID = id
	}
	if dir := os.Getenv("SITEGEN_OUTPUT_DIR"); dir != "" {
		c.Site.OutputDir = dir
	}
	if level := os.Getenv("SITEGEN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// LLMTimeout returns the parsed LLM timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 2*time.Minute)
}

// LLMMinInterval returns the parsed request spacing.
func (c *Config) LLMMinInterval() time.Duration {
	return parseDuration(c.LLM.MinInterval, 500*time.Millisecond)
}

// SourceCacheTTL returns the parsed catalog cache TTL.
func (c *Config) SourceCacheTTL() time.Duration {
	return parseDuration(c.Source.CacheTTL, 5*time.Minute)
}

// ResearchCacheTTL returns the parsed research cache TTL.
func (c *Config) ResearchCacheTTL() time.Duration {
	return parseDuration(c.Research.CacheTTL, time.Hour)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
