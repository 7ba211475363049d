package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SourceConfig identifies one product data source and its fetch options.
type SourceConfig struct {
	SourceID       string        // spreadsheet ID or workbook path
	ReadRange      string        // e.g. "Sheet1!A:J", or sheet name for workbooks
	CategoryFilter string        // optional, case-insensitive match
	CacheTTL       time.Duration // 0 uses the fetcher default
}

// FetchResult is the envelope returned by a fetch: validated records in
// source order plus ingestion diagnostics.
type FetchResult struct {
	Products []Product
	Warnings []RowWarning
	Skipped  int  // rows dropped for required-field failures
	Cached   bool // true when served from the TTL cache
}

// Fetcher turns raw provider rows into validated product records.
// Safe for concurrent use.
type Fetcher struct {
	provider   RowProvider
	cache      *fetchCache
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewFetcher creates a fetcher over the given provider.
func NewFetcher(provider RowProvider, defaultTTL time.Duration, logger *zap.Logger) *Fetcher {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		provider:   provider,
		cache:      newFetchCache(),
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// Fetch retrieves, validates, and caches product records. Individual bad
// rows are skipped or degraded, never fatal; only total unavailability
// of the source or an unrecognized header aborts.
func (f *Fetcher) Fetch(ctx context.Context, cfg SourceConfig) (*FetchResult, error) {
	key := cacheKey(cfg.SourceID, cfg.ReadRange, cfg.CategoryFilter)
	if entry, ok := f.cache.get(key); ok {
		f.logger.Debug("serving cached product records",
			zap.String("source", cfg.SourceID),
			zap.Int("records", len(entry.products)))
		return &FetchResult{
			Products: append([]Product(nil), entry.products...),
			Skipped:  entry.skipped,
			Cached:   true,
		}, nil
	}

	rows, err := f.provider.Rows(ctx, cfg.SourceID, cfg.ReadRange)
	if err != nil {
		return nil, &DataSourceError{SourceID: cfg.SourceID, Err: err}
	}
	if len(rows) == 0 {
		return nil, &DataSourceError{SourceID: cfg.SourceID, Err: ErrEmptySource}
	}

	layout, err := detectLayout(rows[0])
	if err != nil {
		return nil, &DataSourceError{SourceID: cfg.SourceID, Err: err}
	}

	result := &FetchResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // header is row 1
		product, warnings := ParseRow(layout, row, rowNum)
		result.Warnings = append(result.Warnings, warnings...)
		if product == nil {
			result.Skipped++
			continue
		}
		if cfg.CategoryFilter != "" && !strings.EqualFold(product.Category, cfg.CategoryFilter) {
			continue
		}
		result.Products = append(result.Products, *product)
	}

	for _, w := range result.Warnings {
		if w.Dropped {
			f.logger.Warn("product row dropped",
				zap.Int("row", w.Row), zap.String("field", w.Field), zap.String("reason", w.Reason))
		}
	}
	f.logger.Info("fetched product records",
		zap.String("source", cfg.SourceID),
		zap.Int("records", len(result.Products)),
		zap.Int("skipped", result.Skipped))

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = f.defaultTTL
	}
	f.cache.put(key, result.Products, result.Skipped, ttl)

	return result, nil
}

// EvictExpired drops stale cache entries. Safe to call opportunistically.
func (f *Fetcher) EvictExpired() int {
	return f.cache.evictExpired()
}

// Categories returns the distinct categories in source order.
func Categories(products []Product) []string {
	seen := make(map[string]bool, len(products))
	var out []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// Describe summarizes a source config for logs and diagnostics.
func (c SourceConfig) Describe() string {
	return fmt.Sprintf("%s[%s]", c.SourceID, c.ReadRange)
}
