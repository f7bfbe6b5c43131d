package ingest

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "smart-dashboard/internal/errors"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/schema"
)

var digitRun = regexp.MustCompile(`\d+`)

// ValidateSales maps headers through aliases, checks that every sales column
// is present and coerces each row. Coercion never fails: malformed numbers
// become zero.
func ValidateSales(t *RawTable, aliases schema.AliasTable) ([]models.SalesRecord, error) {
	idx, err := resolveColumns(t, aliases, models.SalesColumns)
	if err != nil {
		return nil, err
	}

	records := make([]models.SalesRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, models.SalesRecord{
			ProductName: Text(cell(row, idx[models.ColProductName])),
			ColorCode:   Text(cell(row, idx[models.ColColorCode])),
			Variant:     Text(cell(row, idx[models.ColVariant])),
			UnitsSold:   Int(cell(row, idx[models.ColUnitsSold])),
			UnitPrice:   Decimal(cell(row, idx[models.ColUnitPrice])),
			Total:       Decimal(cell(row, idx[models.ColTotal])),
		})
	}
	return records, nil
}

// ValidateStock is the stock counterpart of ValidateSales. Quantities may be
// embedded in free text; the first run of digits wins.
func ValidateStock(t *RawTable, aliases schema.AliasTable) ([]models.StockRecord, error) {
	idx, err := resolveColumns(t, aliases, models.StockColumns)
	if err != nil {
		return nil, err
	}

	records := make([]models.StockRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, models.StockRecord{
			ProductName: Text(cell(row, idx[models.ColStockProduct])),
			VariantName: Text(cell(row, idx[models.ColStockVariant])),
			StockQty:    ExtractQuantity(cell(row, idx[models.ColStockQty])),
		})
	}
	return records, nil
}

// resolveColumns returns the position of each required column. When two
// headers map to the same canonical name the leftmost one is used.
func resolveColumns(t *RawTable, aliases schema.AliasTable, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(t.Headers))
	for i, h := range aliases.MapHeaders(t.Headers) {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &apperrors.SchemaError{Missing: missing, Observed: slices.Clone(t.Headers)}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Text trims a text cell.
func Text(s string) string {
	return strings.TrimSpace(s)
}

var maxCount = decimal.NewFromInt(math.MaxInt)

// Int parses a count. Fractions are truncated; anything unparsable, negative
// or past the int range is zero.
func Int(s string) int {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return 0
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxCount) {
		return 0
	}
	return int(d.IntPart())
}

// Decimal parses a price or total; unparsable or negative values are zero.
func Decimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ExtractQuantity reads the first contiguous digits in s, e.g. "12 pcs" -> 12.
func ExtractQuantity(s string) int {
	m := digitRun.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
