package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Expected logical header order. A leading ID column is tolerated, as
// are extra trailing columns.
var expectedHeader = []string{
	"name", "description", "price", "image url", "affiliate url", "category", "stock status",
}

// columnLayout records which physical column each logical field lives in.
type columnLayout struct {
	id          int // -1 when the sheet has no ID column
	name        int
	description int
	price       int
	imageURL    int
	affiliate   int
	category    int
	stock       int
	discount    int // -1 when absent
	featured    int // -1 when absent
}

// detectLayout validates the header row against the expected schema.
// It returns ErrUnrecognizedHeader when the shape cannot be matched.
func detectLayout(header []string) (*columnLayout, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	offset := 0
	if len(normalized) > 0 && (normalized[0] == "id" || normalized[0] == "product id") {
		offset = 1
	}
	if len(normalized) < offset+len(expectedHeader) {
		return nil, fmt.Errorf("%w: got %d columns, need %d", ErrUnrecognizedHeader, len(header), offset+len(expectedHeader))
	}
	for i, want := range expectedHeader {
		if normalized[offset+i] != want {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrUnrecognizedHeader, offset+i, header[offset+i], want)
		}
	}

	layout := &columnLayout{
		id:          -1,
		name:        offset,
		description: offset + 1,
		price:       offset + 2,
		imageURL:    offset + 3,
		affiliate:   offset + 4,
		category:    offset + 5,
		stock:       offset + 6,
		discount:    -1,
		featured:    -1,
	}
	if offset == 1 {
		layout.id = 0
	}
	// Optional trailing columns, matched by name in any order.
	for i := offset + len(expectedHeader); i < len(normalized); i++ {
		switch normalized[i] {
		case "discount", "discount percent", "discount %":
			layout.discount = i
		case "featured", "is featured":
			layout.featured = i
		}
	}
	return layout, nil
}

// RowWarning records why an individual row was skipped or degraded.
type RowWarning struct {
	Row     int    // 1-based source row number (header is row 1)
	Field   string // offending logical field
	Reason  string
	Dropped bool // true when the whole row was dropped
}

// ParseRow coerces one data row into a Product. The returned warnings
// capture degraded optional fields; a nil product with Dropped warnings
// means the row failed a required field.
func ParseRow(layout *columnLayout, row []string, rowNum int) (*Product, []RowWarning) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var warnings []RowWarning

	name := cell(layout.name)
	if name == "" {
		return nil, append(warnings, RowWarning{Row: rowNum, Field: "name", Reason: "empty", Dropped: true})
	}

	price, err := parsePrice(cell(layout.price))
	if err != nil {
		return nil, append(warnings, RowWarning{Row: rowNum, Field: "price", Reason: err.Error(), Dropped: true})
	}

	affiliateURL := cell(layout.affiliate)
	if !validHTTPURL(affiliateURL) {
		return nil, append(warnings, RowWarning{Row: rowNum, Field: "affiliate_url", Reason: "invalid URI", Dropped: true})
	}

	imageURL := cell(layout.imageURL)
	if !validHTTPURL(imageURL) {
		warnings = append(warnings, RowWarning{Row: rowNum, Field: "image_url", Reason: "invalid URI, using placeholder"})
		imageURL = PlaceholderImageURL
	}

	category := cell(layout.category)
	if category == "" {
		category = "Uncategorized"
	}

	id := cell(layout.id)
	if id == "" {
		id = fmt.Sprintf("product-%d", rowNum)
	}

	product := &Product{
		ID:           id,
		Name:         name,
		Price:        price,
		ImageURL:     imageURL,
		AffiliateURL: affiliateURL,
		Category:     category,
		Description:  cell(layout.description),
		StockStatus:  ParseStockStatus(cell(layout.stock)),
	}

	if raw := cell(layout.discount); raw != "" {
		discount, err := strconv.ParseFloat(raw, 64)
		switch {
		case err != nil:
			warnings = append(warnings, RowWarning{Row: rowNum, Field: "discount", Reason: "unparseable, dropped"})
		case discount < 0 || discount > 100:
			clamped := clampDiscount(discount)
			product.DiscountPercent = &clamped
			warnings = append(warnings, RowWarning{Row: rowNum, Field: "discount", Reason: fmt.Sprintf("%v clamped to %v", discount, clamped)})
		default:
			product.DiscountPercent = &discount
		}
	}

	if raw := cell(layout.featured); raw != "" {
		product.IsFeatured = ParseBool(raw)
	}

	return product, warnings
}

func clampDiscount(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
