package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xuri/excelize/v2"
)

// RowProvider fetches raw rows for a spreadsheet range. The first row is
// the header. Authentication and wire format live behind this boundary.
type RowProvider interface {
	Rows(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
}

// SheetsProvider reads public Google Sheets through the values endpoint
// with an API key.
type SheetsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// SheetsConfig configures the Sheets provider.
type SheetsConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DefaultSheetsConfig returns sensible defaults.
func DefaultSheetsConfig(apiKey string) SheetsConfig {
	return SheetsConfig{
		APIKey:  apiKey,
		BaseURL: "https://sheets.googleapis.com/v4",
		Timeout: 30 * time.Second,
	}
}

// NewSheetsProvider creates a provider with default config.
func NewSheetsProvider(apiKey string) *SheetsProvider {
	return NewSheetsProviderWithConfig(DefaultSheetsConfig(apiKey))
}

// NewSheetsProviderWithConfig creates a provider with custom config.
func NewSheetsProviderWithConfig(cfg SheetsConfig) *SheetsProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://sheets.googleapis.com/v4"
	}
	return &SheetsProvider{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// valuesResponse mirrors the sheets values endpoint payload. Cells may
// arrive as strings or numbers depending on the sheet formatting.
type valuesResponse struct {
	Values [][]any `json:"values"`
}

// Rows fetches the given range and flattens every cell to a string.
func (p *SheetsProvider) Rows(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?key=%s",
		p.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(readRange), url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheets request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: sheets API status %d: %s", ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	var payload valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sheets response: %w", err)
	}

	rows := make([][]string, 0, len(payload.Values))
	for _, raw := range payload.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = cellToString(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellToString(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		// Whole numbers otherwise render as 1.000000e+00.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ExcelProvider reads rows from a local .xlsx workbook. Used for offline
// runs and tests; the spreadsheetID is the file path and the readRange
// is the sheet name ("" selects the first sheet).
type ExcelProvider struct{}

// NewExcelProvider creates a workbook-backed provider.
func NewExcelProvider() *ExcelProvider { return &ExcelProvider{} }

// Rows opens the workbook and returns every row of the named sheet.
func (p *ExcelProvider) Rows(ctx context.Context, path, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrSourceUnavailable, sheet, err)
	}
	return rows, nil
}
