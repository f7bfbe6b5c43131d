package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Canonical sales columns, as they appear in the upstream spreadsheet.
const (
	ColProductName = "NAMA BARANG"
	ColColorCode   = "KODE WARNA"
	ColVariant     = "VARIAN"
	ColUnitsSold   = "PENJUALAN"
	ColUnitPrice   = "HARGA SATUAN"
	ColTotal       = "TOTAL"
)

// Canonical stock columns.
const (
	ColStockProduct = "Nama Produk"
	ColStockVariant = "Nama Variasi"
	ColStockQty     = "Stok"
)

var (
	SalesColumns = []string{ColProductName, ColColorCode, ColVariant, ColUnitsSold, ColUnitPrice, ColTotal}
	StockColumns = []string{ColStockProduct, ColStockVariant, ColStockQty}
)

// Row is anything addressable by canonical column name.
type Row interface {
	Value(column string) string
}

type SalesRecord struct {
	ProductName string          `json:"product_name"`
	ColorCode   string          `json:"color_code"`
	Variant     string          `json:"variant"`
	UnitsSold   int             `json:"units_sold"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

func (r SalesRecord) Value(column string) string {
	switch column {
	case ColProductName:
		return r.ProductName
	case ColColorCode:
		return r.ColorCode
	case ColVariant:
		return r.Variant
	case ColUnitsSold:
		return strconv.Itoa(r.UnitsSold)
	case ColUnitPrice:
		return r.UnitPrice.String()
	case ColTotal:
		return r.Total.String()
	}
	return ""
}

// Fields returns the record in SalesColumns order.
func (r SalesRecord) Fields() []string {
	out := make([]string, len(SalesColumns))
	for i, col := range SalesColumns {
		out[i] = r.Value(col)
	}
	return out
}

type StockRecord struct {
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name"`
	StockQty    int    `json:"stock_qty"`
}

func (r StockRecord) Value(column string) string {
	switch column {
	case ColStockProduct:
		return r.ProductName
	case ColStockVariant:
		return r.VariantName
	case ColStockQty:
		return strconv.Itoa(r.StockQty)
	}
	return ""
}

func (r StockRecord) Fields() []string {
	return []string{r.ProductName, r.VariantName, strconv.Itoa(r.StockQty)}
}
