package services

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"smart-dashboard/internal/models"
)

// Summarize computes the headline metrics of a sales table.
func Summarize(rows []models.SalesRecord) models.Summary {
	s := models.Summary{
		Rows:         len(rows),
		TotalRevenue: decimal.Zero,
		AvgUnitPrice: decimal.Zero,
	}

	products := make(map[string]struct{})
	priceSum := decimal.Zero
	for _, r := range rows {
		s.TotalUnits += r.UnitsSold
		s.TotalRevenue = s.TotalRevenue.Add(r.Total)
		priceSum = priceSum.Add(r.UnitPrice)
		products[r.ProductName] = struct{}{}
	}
	s.UniqueProducts = len(products)
	if len(rows) > 0 {
		s.AvgUnitPrice = priceSum.Div(decimal.NewFromInt(int64(len(rows))))
	}
	return s
}

// RollupByProduct groups rows by exact product name. The result is sorted by
// summed units, highest first; ties keep first-seen order.
func RollupByProduct(rows []models.SalesRecord) []models.AggregateRow {
	index := make(map[string]int)
	var out []models.AggregateRow
	priceSums := []decimal.Decimal{}

	for _, r := range rows {
		i, ok := index[r.ProductName]
		if !ok {
			i = len(out)
			index[r.ProductName] = i
			out = append(out, models.AggregateRow{
				ProductName: r.ProductName,
				SummedTotal: decimal.Zero,
				MeanPrice:   decimal.Zero,
			})
			priceSums = append(priceSums, decimal.Zero)
		}
		out[i].SummedUnits += r.UnitsSold
		out[i].SummedTotal = out[i].SummedTotal.Add(r.Total)
		out[i].Rows++
		priceSums[i] = priceSums[i].Add(r.UnitPrice)
	}

	for i := range out {
		if out[i].Rows == 0 {
			continue
		}
		out[i].MeanPrice = priceSums[i].Div(decimal.NewFromInt(int64(out[i].Rows)))
		out[i].MeanUnits = float64(out[i].SummedUnits) / float64(out[i].Rows)
	}

	slices.SortStableFunc(out, func(a, b models.AggregateRow) int {
		return cmp.Compare(b.SummedUnits, a.SummedUnits)
	})
	return out
}

// MeanUnits is the mean of summed units across products, 0 when empty.
func MeanUnits(products []models.AggregateRow) float64 {
	if len(products) == 0 {
		return 0
	}
	var sum int
	for _, p := range products {
		sum += p.SummedUnits
	}
	return float64(sum) / float64(len(products))
}
