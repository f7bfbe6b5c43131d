// Package export writes dashboard tables as UTF-8, comma-delimited CSV with
// canonical headers and no index column.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"smart-dashboard/internal/models"
)

var (
	RollupColumns  = []string{models.ColProductName, models.ColUnitsSold, models.ColTotal, "MEAN " + models.ColUnitPrice, "ROWS"}
	RestockColumns = []string{models.ColProductName, "STOK SAAT INI", "RATA-RATA PENJUALAN", "PERLU RESTOCK"}
)

func WriteSales(w io.Writer, rows []models.SalesRecord) error {
	return write(w, models.SalesColumns, len(rows), func(i int) []string {
		return rows[i].Fields()
	})
}

func WriteStock(w io.Writer, rows []models.StockRecord) error {
	return write(w, models.StockColumns, len(rows), func(i int) []string {
		return rows[i].Fields()
	})
}

func WriteRollup(w io.Writer, rows []models.AggregateRow) error {
	return write(w, RollupColumns, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.ProductName,
			strconv.Itoa(r.SummedUnits),
			r.SummedTotal.String(),
			r.MeanPrice.StringFixed(2),
			strconv.Itoa(r.Rows),
		}
	})
}

// WriteRestock leaves the stock cell empty for products without stock data.
func WriteRestock(w io.Writer, rows []models.RestockRecommendation) error {
	return write(w, RestockColumns, len(rows), func(i int) []string {
		r := rows[i]
		stock := ""
		if r.CurrentStock != nil {
			stock = strconv.Itoa(*r.CurrentStock)
		}
		return []string{
			r.ProductName,
			stock,
			strconv.FormatFloat(r.AverageSales, 'f', 2, 64),
			strconv.FormatBool(r.NeedsRestock),
		}
	})
}

func write(w io.Writer, header []string, n int, record func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range n {
		if err := cw.Write(record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
