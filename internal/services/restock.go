package services

import (
	"cmp"
	"fmt"
	"slices"

	"smart-dashboard/internal/models"
)

// MaxStockSelection caps how many products the stock monitor compares at once.
const MaxStockSelection = 6

type RestockView int

const (
	RestockOnly RestockView = iota
	AllRows
)

func ParseRestockView(s string) (RestockView, error) {
	switch s {
	case "", "restock":
		return RestockOnly, nil
	case "all":
		return AllRows, nil
	}
	return RestockOnly, fmt.Errorf("unknown restock view %q", s)
}

func (v RestockView) String() string {
	if v == AllRows {
		return "all"
	}
	return "restock"
}

// StockByProduct sums stock across variants, keeping first-seen product order.
func StockByProduct(stock []models.StockRecord) []models.ProductStock {
	index := make(map[string]int)
	var out []models.ProductStock
	for _, s := range stock {
		i, ok := index[s.ProductName]
		if !ok {
			i = len(out)
			index[s.ProductName] = i
			out = append(out, models.ProductStock{ProductName: s.ProductName})
		}
		out[i].StockQty += s.StockQty
		out[i].Variants++
	}
	return out
}

// AdviseRestock left-joins sales rollups onto stock by product name. Products
// without stock are reported as having no stock data and never flagged.
// Rows are ordered by stock ascending with unknown stock last.
func AdviseRestock(products []models.AggregateRow, stock []models.ProductStock, view RestockView) []models.RestockRecommendation {
	byName := make(map[string]int, len(stock))
	for _, s := range stock {
		byName[s.ProductName] = s.StockQty
	}

	out := make([]models.RestockRecommendation, 0, len(products))
	for _, p := range products {
		rec := models.RestockRecommendation{
			ProductName:  p.ProductName,
			AverageSales: p.MeanUnits,
		}
		if qty, ok := byName[p.ProductName]; ok {
			rec.CurrentStock = &qty
			rec.NeedsRestock = float64(qty) < p.MeanUnits
		} else {
			rec.NoStockData = true
		}

		if view == RestockOnly && !rec.NeedsRestock {
			continue
		}
		out = append(out, rec)
	}

	slices.SortStableFunc(out, func(a, b models.RestockRecommendation) int {
		switch {
		case a.CurrentStock == nil && b.CurrentStock == nil:
			return 0
		case a.CurrentStock == nil:
			return 1
		case b.CurrentStock == nil:
			return -1
		}
		return cmp.Compare(*a.CurrentStock, *b.CurrentStock)
	})
	return out
}

// LowStock returns the variants at or below threshold, lowest first.
func LowStock(stock []models.StockRecord, threshold int) []models.StockRecord {
	var out []models.StockRecord
	for _, s := range stock {
		if s.StockQty <= threshold {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b models.StockRecord) int {
		return cmp.Compare(a.StockQty, b.StockQty)
	})
	return out
}

func SummarizeStock(stock []models.StockRecord, threshold int) models.StockSummary {
	s := models.StockSummary{Rows: len(stock)}
	for _, r := range stock {
		s.TotalStock += r.StockQty
		if r.StockQty <= threshold {
			s.LowStock++
		}
	}
	return s
}
