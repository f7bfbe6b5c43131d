package models

import "github.com/shopspring/decimal"

type Summary struct {
	Rows           int             `json:"rows"`
	TotalUnits     int             `json:"total_units"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	AvgUnitPrice   decimal.Decimal `json:"avg_unit_price"`
	UniqueProducts int             `json:"unique_products"`
}

// AggregateRow is one product's rollup over the working table.
type AggregateRow struct {
	ProductName string          `json:"product_name"`
	SummedUnits int             `json:"summed_units"`
	SummedTotal decimal.Decimal `json:"summed_total"`
	MeanPrice   decimal.Decimal `json:"mean_price"`
	MeanUnits   float64         `json:"mean_units"`
	Rows        int             `json:"rows"`
}

// ProductStock is current stock summed across a product's variants.
type ProductStock struct {
	ProductName string `json:"product_name"`
	StockQty    int    `json:"stock_qty"`
	Variants    int    `json:"variants"`
}

type RestockRecommendation struct {
	ProductName  string  `json:"product_name"`
	CurrentStock *int    `json:"current_stock"`
	AverageSales float64 `json:"average_sales"`
	NeedsRestock bool    `json:"needs_restock"`
	NoStockData  bool    `json:"no_stock_data"`
}

type StockSummary struct {
	Rows       int `json:"rows"`
	TotalStock int `json:"total_stock"`
	LowStock   int `json:"low_stock"`
}

type Insight struct {
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
	Action string `json:"action"`
}
