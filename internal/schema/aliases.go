package schema

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v2"

	"smart-dashboard/internal/models"
)

var salesSynonyms = map[string][]string{
	models.ColProductName: {"product name", "product_name", "nama produk"},
	models.ColColorCode:   {"color code", "color_code", "colour code", "warna"},
	models.ColVariant:     {"variant", "variation", "variasi"},
	models.ColUnitsSold:   {"units sold", "units_sold", "sold", "terjual"},
	models.ColUnitPrice:   {"unit price", "unit_price", "harga"},
	models.ColTotal:       {"total price", "total_price", "amount"},
}

var stockSynonyms = map[string][]string{
	models.ColStockProduct: {"nama produk", "product name", "product_name", "et_title_product_name"},
	models.ColStockVariant: {"nama variasi", "variation name", "variation_name", "et_title_variation_name"},
	models.ColStockQty:     {"stok", "stock", "qty", "quantity", "et_title_variation_stock"},
}

// Aliases is the single source of column synonyms for both upload kinds.
type Aliases struct {
	Sales AliasTable
	Stock AliasTable
}

func Defaults() Aliases {
	return Aliases{
		Sales: mustAliasTable(salesSynonyms),
		Stock: mustAliasTable(stockSynonyms),
	}
}

func mustAliasTable(synonyms map[string][]string) AliasTable {
	t, err := NewAliasTable(synonyms)
	if err != nil {
		panic(err)
	}
	return t
}

type aliasFile struct {
	Sales map[string][]string `yaml:"sales"`
	Stock map[string][]string `yaml:"stock"`
}

// LoadAliasFile extends the default tables with synonyms from a YAML file:
//
//	sales:
//	  NAMA BARANG: [item, nama item]
//	stock:
//	  Stok: [on hand]
//
// Keys must be canonical column names.
func LoadAliasFile(path string) (Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Aliases{}, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliases(data)
}

func ParseAliases(data []byte) (Aliases, error) {
	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Aliases{}, fmt.Errorf("decode alias file: %w", err)
	}

	if err := checkCanonical(file.Sales, models.SalesColumns); err != nil {
		return Aliases{}, fmt.Errorf("sales aliases: %w", err)
	}
	if err := checkCanonical(file.Stock, models.StockColumns); err != nil {
		return Aliases{}, fmt.Errorf("stock aliases: %w", err)
	}

	defaults := Defaults()
	sales, err := defaults.Sales.Merge(file.Sales)
	if err != nil {
		return Aliases{}, fmt.Errorf("sales aliases: %w", err)
	}
	stock, err := defaults.Stock.Merge(file.Stock)
	if err != nil {
		return Aliases{}, fmt.Errorf("stock aliases: %w", err)
	}
	return Aliases{Sales: sales, Stock: stock}, nil
}

func checkCanonical(synonyms map[string][]string, columns []string) error {
	for canonical := range synonyms {
		if !slices.Contains(columns, canonical) {
			return fmt.Errorf("%q is not a canonical column", canonical)
		}
	}
	return nil
}
