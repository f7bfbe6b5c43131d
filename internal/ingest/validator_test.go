package ingest

import (
	stderrors "errors"
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "smart-dashboard/internal/errors"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/schema"
)

func TestValidateSales(t *testing.T) {
	table := &RawTable{
		Headers: []string{"NAMA BARANG", "KODE WARNA", "VARIAN", "PENJUALAN", "HARGA SATUAN", "TOTAL", "CATATAN"},
		Rows: [][]string{
			{"  Kebaya A ", "KB01", "M", "10", "150000", "1500000", "x"},
			{"Kebaya B", "KB02", "L", "n/a", "abc", "", ""},
			{"Kebaya C", "", "", "3.9", "-5", "1e3"},
			{"Kebaya D"},
		},
	}

	records, err := ValidateSales(table, schema.Defaults().Sales)
	if err != nil {
		t.Fatalf("ValidateSales() error = %v", err)
	}

	want := []models.SalesRecord{
		{ProductName: "Kebaya A", ColorCode: "KB01", Variant: "M", UnitsSold: 10, UnitPrice: decimal.NewFromInt(150000), Total: decimal.NewFromInt(1500000)},
		{ProductName: "Kebaya B", ColorCode: "KB02", Variant: "L", UnitsSold: 0, UnitPrice: decimal.Zero, Total: decimal.Zero},
		{ProductName: "Kebaya C", UnitsSold: 3, UnitPrice: decimal.Zero, Total: decimal.NewFromInt(1000)},
		{ProductName: "Kebaya D", UnitPrice: decimal.Zero, Total: decimal.Zero},
	}

	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		got := records[i]
		if got.ProductName != want[i].ProductName || got.ColorCode != want[i].ColorCode ||
			got.Variant != want[i].Variant || got.UnitsSold != want[i].UnitsSold ||
			!got.UnitPrice.Equal(want[i].UnitPrice) || !got.Total.Equal(want[i].Total) {
			t.Errorf("record %d = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestValidateSales_AliasedHeaders(t *testing.T) {
	table := &RawTable{
		Headers: []string{"product name", "Color Code", "variant", "units sold", "unit price", "amount"},
		Rows:    [][]string{{"A", "C1", "S", "4", "10", "40"}},
	}

	records, err := ValidateSales(table, schema.Defaults().Sales)
	if err != nil {
		t.Fatalf("ValidateSales() error = %v", err)
	}
	if records[0].UnitsSold != 4 || records[0].ProductName != "A" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestValidateSales_MissingColumns(t *testing.T) {
	headers := []string{"NAMA BARANG", "PENJUALAN", "Keterangan"}
	table := &RawTable{Headers: headers}

	_, err := ValidateSales(table, schema.Defaults().Sales)

	var schemaErr *apperrors.SchemaError
	if !stderrors.As(err, &schemaErr) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}

	wantMissing := []string{models.ColColorCode, models.ColVariant, models.ColUnitPrice, models.ColTotal}
	if !reflect.DeepEqual(schemaErr.Missing, wantMissing) {
		t.Errorf("missing = %q, want %q", schemaErr.Missing, wantMissing)
	}
	if !reflect.DeepEqual(schemaErr.Observed, headers) {
		t.Errorf("observed = %q, want %q", schemaErr.Observed, headers)
	}
}

func TestValidateStock(t *testing.T) {
	table := &RawTable{
		Headers: []string{"et_title_product_name", "et_title_variation_name", "et_title_variation_stock"},
		Rows: [][]string{
			{"Kebaya A", "Merah", "12 pcs"},
			{"Kebaya A", "Hitam", "stok: 3 (gudang 2)"},
			{"Kebaya B", "", "habis"},
			{"Kebaya C", "Putih"},
		},
	}

	records, err := ValidateStock(table, schema.Defaults().Stock)
	if err != nil {
		t.Fatalf("ValidateStock() error = %v", err)
	}

	want := []models.StockRecord{
		{ProductName: "Kebaya A", VariantName: "Merah", StockQty: 12},
		{ProductName: "Kebaya A", VariantName: "Hitam", StockQty: 3},
		{ProductName: "Kebaya B", VariantName: "", StockQty: 0},
		{ProductName: "Kebaya C", VariantName: "Putih", StockQty: 0},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("ValidateStock() = %+v, want %+v", records, want)
	}
}

func TestValidateStock_DuplicateAliasUsesFirstColumn(t *testing.T) {
	table := &RawTable{
		Headers: []string{"Nama Produk", "Nama Variasi", "qty", "stock"},
		Rows:    [][]string{{"A", "V", "7", "99"}},
	}

	records, err := ValidateStock(table, schema.Defaults().Stock)
	if err != nil {
		t.Fatalf("ValidateStock() error = %v", err)
	}
	if records[0].StockQty != 7 {
		t.Errorf("stock = %d, want 7", records[0].StockQty)
	}
}

func TestInt_Range(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"above int32", "3000000000", 3_000_000_000},
		{"exponent", "5e9", 5_000_000_000},
		{"max int", strconv.Itoa(math.MaxInt), math.MaxInt},
		{"past int range", "1e19", 0},
		{"fraction of a large count", "3000000000.9", 3_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := int64(Int(tt.in)); got != tt.want {
				t.Errorf("Int(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoercion(t *testing.T) {
	intTests := map[string]int{"": 0, "5": 5, " 7 ": 7, "2.99": 2, "-4": 0, "NaN": 0, "1e2": 100, "seven": 0}
	for in, want := range intTests {
		if got := Int(in); got != want {
			t.Errorf("Int(%q) = %d, want %d", in, got, want)
		}
	}

	quantityTests := map[string]int{"12 pcs": 12, "x": 0, "": 0, "a1b22": 1, "007": 7}
	for in, want := range quantityTests {
		if got := ExtractQuantity(in); got != want {
			t.Errorf("ExtractQuantity(%q) = %d, want %d", in, got, want)
		}
	}

	if got := Decimal("12.50"); !got.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Decimal(12.50) = %s", got)
	}
}
