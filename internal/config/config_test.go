package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotEmpty(t, cfg.LLM.Model)
	assert.Equal(t, 2, cfg.Research.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout())
	assert.Equal(t, 5*time.Minute, cfg.SourceCacheTTL())
	assert.Equal(t, time.Hour, cfg.ResearchCacheTTL())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sitegen", cfg.Name)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
llm:
  model: gemini-2.5-pro
  timeout: 90s
source:
  spreadsheet_id: sheet-abc
  read_range: Products!A1:H50
research:
  max_retries: 4
site:
  output_dir: ./out
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout())
	assert.Equal(t, "sheet-abc", cfg.Source.SpreadsheetID)
	assert.Equal(t, 4, cfg.Research.MaxRetries)

	// Unset fields keep defaults.
	assert.Equal(t, "1h", cfg.Research.CacheTTL)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY sets LLM key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "env-gemini-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "env-gemini-key", cfg.LLM.APIKey)
	})

	t.Run("GOOGLE_SHEETS_API_KEY sets source key", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_API_KEY", "env-sheets-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "env-sheets-key", cfg.Source.APIKey)
	})

	t.Run("SITEGEN_ vars override paths and levels", func(t *testing.T) {
		t.Setenv("SITEGEN_SPREADSHEET_ID", "env-sheet")
		t.Setenv("SITEGEN_OUTPUT_DIR", "/tmp/sites")
		t.Setenv("SITEGEN_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "env-sheet", cfg.Source.SpreadsheetID)
		assert.Equal(t, "/tmp/sites", cfg.Site.OutputDir)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Source.SpreadsheetID = "sheet-xyz"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet-xyz", loaded.Source.SpreadsheetID)
}

func TestParseDurationFallback(t *testing.T) {
	cfg := DefaultConfig()

	cfg.LLM.Timeout = "not-a-duration"
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout())

	cfg.LLM.Timeout = "-5s"
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout())
}
