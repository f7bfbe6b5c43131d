package schema

import (
	"reflect"
	"testing"

	"smart-dashboard/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NAMA BARANG", "nama barang"},
		{"\ufeffet_title_product_name", "et_title_product_name"},
		{"  Product   Name \t", "product name"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAliasTable_EveryAliasResolves(t *testing.T) {
	defaults := Defaults()
	for name, table := range map[string]AliasTable{"sales": defaults.Sales, "stock": defaults.Stock} {
		for alias, canonical := range table {
			got, ok := table.Canonical(alias)
			if !ok || got != canonical {
				t.Errorf("%s: Canonical(%q) = %q, %v; want %q", name, alias, got, ok, canonical)
			}
		}
	}
}

func TestAliasTable_StockHeaders(t *testing.T) {
	stock := Defaults().Stock

	headers := []string{"\ufeffet_title_product_name", "Variation Name", "QTY", "harga"}
	got := stock.MapHeaders(headers)
	want := []string{models.ColStockProduct, models.ColStockVariant, models.ColStockQty, "harga"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapHeaders() = %q, want %q", got, want)
	}
}

func TestAliasTable_UnknownHeadersUnchanged(t *testing.T) {
	sales := Defaults().Sales
	headers := []string{"  Catatan ", "Unnamed: 7", "TANGGAL"}

	got := sales.MapHeaders(headers)
	if !reflect.DeepEqual(got, headers) {
		t.Errorf("MapHeaders() = %q, want unchanged %q", got, headers)
	}
}

func TestNewAliasTable_Conflict(t *testing.T) {
	_, err := NewAliasTable(map[string][]string{
		"A": {"x"},
		"B": {"X "},
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
}

func TestParseAliases(t *testing.T) {
	data := []byte(`
sales:
  NAMA BARANG: [item, nama item]
stock:
  Stok: [on hand]
`)

	aliases, err := ParseAliases(data)
	if err != nil {
		t.Fatalf("ParseAliases() error = %v", err)
	}

	if got, _ := aliases.Sales.Canonical("Nama Item"); got != models.ColProductName {
		t.Errorf("sales alias = %q, want %q", got, models.ColProductName)
	}
	if got, _ := aliases.Stock.Canonical("ON HAND"); got != models.ColStockQty {
		t.Errorf("stock alias = %q, want %q", got, models.ColStockQty)
	}
	if got, _ := aliases.Stock.Canonical("et_title_variation_stock"); got != models.ColStockQty {
		t.Error("defaults should survive a merge")
	}
}

func TestParseAliases_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not canonical", "sales:\n  PRODUCT: [x]\n"},
		{"conflict with default", "sales:\n  TOTAL: [penjualan]\n"},
		{"bad yaml", "sales: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAliases([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
