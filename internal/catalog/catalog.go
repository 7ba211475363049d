// Package catalog ingests and validates tabular product data for the
// generation pipeline. Rows come from an injected RowProvider (Google
// Sheets over HTTP, or a local spreadsheet file); validated records are
// cached per (source, range, filter) with a TTL.
package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// StockStatus is the fixed stock-state enum for a product.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// PlaceholderImageURL substitutes a missing or malformed image reference.
// An unusable image degrades the field; it never drops the row.
const PlaceholderImageURL = "https://via.placeholder.com/400x400"

// Product is one validated row from a product data source.
// Immutable after validation; the next ingestion cycle supersedes it.
type Product struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Price           float64     `json:"price"`
	ImageURL        string      `json:"image_url"`
	AffiliateURL    string      `json:"affiliate_url"`
	Category        string      `json:"category"`
	Description     string      `json:"description,omitempty"`
	DiscountPercent *float64    `json:"discount_percent,omitempty"`
	IsFeatured      bool        `json:"is_featured"`
	StockStatus     StockStatus `json:"stock_status"`
}

// Validate re-checks the invariants established at ingestion time.
// A record produced by ParseRow always passes.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %s: name is empty", p.ID)
	}
	if p.Price <= 0 {
		return fmt.Errorf("product %s: price %v is not positive", p.ID, p.Price)
	}
	if !validHTTPURL(p.ImageURL) {
		return fmt.Errorf("product %s: image url %q is invalid", p.ID, p.ImageURL)
	}
	if !validHTTPURL(p.AffiliateURL) {
		return fmt.Errorf("product %s: affiliate url %q is invalid", p.ID, p.AffiliateURL)
	}
	if p.DiscountPercent != nil && (*p.DiscountPercent < 0 || *p.DiscountPercent > 100) {
		return fmt.Errorf("product %s: discount %v out of range", p.ID, *p.DiscountPercent)
	}
	switch p.StockStatus {
	case StockInStock, StockLowStock, StockOutOfStock:
	default:
		return fmt.Errorf("product %s: unknown stock status %q", p.ID, p.StockStatus)
	}
	return nil
}

// ParseStockStatus maps loose spreadsheet spellings onto the enum.
// Unknown or empty values fall back to in_stock.
func ParseStockStatus(raw string) StockStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "out_of_stock", "out of stock", "unavailable":
		return StockOutOfStock
	case "low_stock", "low stock", "limited":
		return StockLowStock
	default:
		return StockInStock
	}
}

// ParseBool accepts the truthy spellings spreadsheets tend to contain.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func parsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q: %w", raw, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("price %v is not positive", price)
	}
	return price, nil
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
