package forecast

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	apperrors "smart-dashboard/internal/errors"
	"smart-dashboard/internal/models"
)

const (
	DirectionIncreasing = "increasing"
	DirectionFlat       = "flat_or_declining"
)

type Result struct {
	Product     string       `json:"product"`
	Frequency   Frequency    `json:"frequency"`
	History     []Point      `json:"history"`
	Predictions []Prediction `json:"predictions"`
	Direction   string       `json:"direction"`
}

// ProductSeries assigns dates[i] to rows[i], keeps the rows of one product and
// sums units per date. The spreadsheet carries no dates of its own, so row
// order stands in for time.
func ProductSeries(rows []models.SalesRecord, product string, dates []time.Time) []Point {
	totals := make(map[time.Time]float64)
	var order []time.Time
	for i, r := range rows {
		if i >= len(dates) {
			break
		}
		if r.ProductName != product {
			continue
		}
		d := dates[i]
		if _, seen := totals[d]; !seen {
			order = append(order, d)
		}
		totals[d] += float64(r.UnitsSold)
	}

	slices.SortFunc(order, func(a, b time.Time) int { return a.Compare(b) })
	series := make([]Point, len(order))
	for i, d := range order {
		series[i] = Point{Date: d, Value: totals[d]}
	}
	return series
}

// Run builds the product series from the working table and forecasts it.
func Run(f Forecaster, rows []models.SalesRecord, product string, horizon int, freq Frequency, start time.Time) (*Result, error) {
	if len(rows) < 2 {
		return nil, apperrors.InsufficientData(fmt.Sprintf("forecasting needs at least 2 rows, got %d", len(rows)))
	}

	series := ProductSeries(rows, product, freq.Dates(start, len(rows)))
	var total float64
	for _, p := range series {
		total += p.Value
	}
	if len(series) == 0 || total == 0 {
		return nil, apperrors.InsufficientData(fmt.Sprintf("product %q has no sales to forecast", product))
	}

	predictions, err := f.Forecast(series, horizon, freq)
	if err != nil {
		return nil, err
	}

	return &Result{
		Product:     product,
		Frequency:   freq,
		History:     series,
		Predictions: predictions,
		Direction:   direction(series, predictions),
	}, nil
}

func direction(history []Point, predictions []Prediction) string {
	past := make([]float64, len(history))
	for i, p := range history {
		past[i] = p.Value
	}
	future := make([]float64, len(predictions))
	for i, p := range predictions {
		future[i] = p.Estimate
	}
	if stat.Mean(future, nil) > stat.Mean(past, nil) {
		return DirectionIncreasing
	}
	return DirectionFlat
}
