package forecast

import (
	"math"
	"testing"
	"time"

	apperrors "smart-dashboard/internal/errors"
	"smart-dashboard/internal/models"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFrequency_Dates(t *testing.T) {
	monthly := Monthly.Dates(start, 3)
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
	for i, d := range monthly {
		if got := d.Format(time.DateOnly); got != want[i] {
			t.Errorf("monthly[%d] = %s, want %s", i, got, want[i])
		}
	}

	daily := Daily.Dates(start, 2)
	if daily[1].Format(time.DateOnly) != "2024-01-02" {
		t.Errorf("daily[1] = %s", daily[1])
	}

	if Monthly.Next(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)).Format(time.DateOnly) != "2024-02-29" {
		t.Error("month end after January should be Feb 29 in a leap year")
	}
}

func TestParseFrequency(t *testing.T) {
	if _, err := ParseFrequency("weekly"); err == nil {
		t.Error("expected error for weekly")
	}
	if f, err := ParseFrequency("daily"); err != nil || f != Daily {
		t.Errorf("ParseFrequency(daily) = %v, %v", f, err)
	}
}

func TestLinearTrend_InsufficientData(t *testing.T) {
	_, err := NewLinearTrend().Forecast([]Point{{Date: start, Value: 3}}, 3, Monthly)
	if !apperrors.IsInsufficientData(err) {
		t.Errorf("error = %v, want insufficient data", err)
	}
}

func TestLinearTrend_PerfectLine(t *testing.T) {
	series := []Point{
		{Date: Monthly.Dates(start, 1)[0], Value: 10},
	}
	for i := 1; i < 4; i++ {
		series = append(series, Point{Date: Monthly.Next(series[i-1].Date), Value: 10 + 5*float64(i)})
	}

	preds, err := NewLinearTrend().Forecast(series, 2, Monthly)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("got %d predictions, want 2", len(preds))
	}

	if math.Abs(preds[0].Estimate-30) > 1e-9 || math.Abs(preds[1].Estimate-35) > 1e-9 {
		t.Errorf("estimates = %v, %v; want 30, 35", preds[0].Estimate, preds[1].Estimate)
	}
	if preds[0].Lower != preds[0].Estimate || preds[0].Upper != preds[0].Estimate {
		t.Error("a perfect fit should have a zero-width interval")
	}
	if preds[0].Date.Format(time.DateOnly) != "2024-05-31" {
		t.Errorf("first forecast date = %s, want 2024-05-31", preds[0].Date.Format(time.DateOnly))
	}
}

func TestLinearTrend_IntervalsWidenAndClamp(t *testing.T) {
	series := make([]Point, 0, 6)
	dates := Daily.Dates(start, 6)
	for i, v := range []float64{8, 2, 9, 1, 7, 0} {
		series = append(series, Point{Date: dates[i], Value: v})
	}

	preds, err := NewLinearTrend().Forecast(series, 3, Daily)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	for i, p := range preds {
		if p.Lower > p.Estimate || p.Upper < p.Estimate {
			t.Errorf("prediction %d bounds out of order: %+v", i, p)
		}
		if p.Lower < 0 || p.Estimate < 0 {
			t.Errorf("prediction %d is negative: %+v", i, p)
		}
	}
	if preds[2].Upper-preds[2].Estimate <= preds[0].Upper-preds[0].Estimate {
		t.Error("interval should widen with the horizon")
	}
}

func TestRun(t *testing.T) {
	rows := []models.SalesRecord{
		{ProductName: "A", UnitsSold: 10},
		{ProductName: "B", UnitsSold: 1},
		{ProductName: "A", UnitsSold: 20},
		{ProductName: "A", UnitsSold: 30},
	}

	result, err := Run(NewLinearTrend(), rows, "A", 3, Monthly, start)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.History) != 3 {
		t.Fatalf("history = %d points, want 3", len(result.History))
	}
	// Row positions 0, 2, 3 map to January, March, April month ends.
	wantDates := []string{"2024-01-31", "2024-03-31", "2024-04-30"}
	for i, p := range result.History {
		if p.Date.Format(time.DateOnly) != wantDates[i] {
			t.Errorf("history[%d] date = %s, want %s", i, p.Date.Format(time.DateOnly), wantDates[i])
		}
	}
	if len(result.Predictions) != 3 {
		t.Errorf("predictions = %d, want 3", len(result.Predictions))
	}
	if result.Direction != DirectionIncreasing {
		t.Errorf("direction = %s, want %s", result.Direction, DirectionIncreasing)
	}
}

func TestRun_InterleavedProducts(t *testing.T) {
	// A sells in every fourth row, so its points sit four months apart.
	rows := make([]models.SalesRecord, 0, 9)
	for i := range 9 {
		switch i {
		case 0:
			rows = append(rows, models.SalesRecord{ProductName: "A", UnitsSold: 10})
		case 4:
			rows = append(rows, models.SalesRecord{ProductName: "A", UnitsSold: 20})
		case 8:
			rows = append(rows, models.SalesRecord{ProductName: "A", UnitsSold: 30})
		default:
			rows = append(rows, models.SalesRecord{ProductName: "B", UnitsSold: 1})
		}
	}

	result, err := Run(NewLinearTrend(), rows, "A", 2, Monthly, start)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantHistory := []string{"2024-01-31", "2024-05-31", "2024-09-30"}
	for i, p := range result.History {
		if got := p.Date.Format(time.DateOnly); got != wantHistory[i] {
			t.Errorf("history[%d] date = %s, want %s", i, got, wantHistory[i])
		}
	}

	tests := []struct {
		date     string
		estimate float64
	}{
		{"2024-10-31", 32.5},
		{"2024-11-30", 35},
	}
	for i, tt := range tests {
		p := result.Predictions[i]
		if got := p.Date.Format(time.DateOnly); got != tt.date {
			t.Errorf("prediction[%d] date = %s, want %s", i, got, tt.date)
		}
		if math.Abs(p.Estimate-tt.estimate) > 1e-9 {
			t.Errorf("prediction[%d] estimate = %v, want %v", i, p.Estimate, tt.estimate)
		}
	}
}

func TestFrequency_Periods(t *testing.T) {
	tests := []struct {
		name string
		freq Frequency
		from time.Time
		to   time.Time
		want float64
	}{
		{"same month end", Monthly, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 0},
		{"across a year", Monthly, time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 3},
		{"days", Daily, start, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.freq.Periods(tt.from, tt.to); got != tt.want {
				t.Errorf("Periods() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_Insufficient(t *testing.T) {
	tests := []struct {
		name    string
		rows    []models.SalesRecord
		product string
	}{
		{"single row", []models.SalesRecord{{ProductName: "A", UnitsSold: 5}}, "A"},
		{"unknown product", []models.SalesRecord{{ProductName: "A", UnitsSold: 5}, {ProductName: "A", UnitsSold: 6}}, "Z"},
		{"zero sales", []models.SalesRecord{{ProductName: "A"}, {ProductName: "A"}}, "A"},
		{"one point for product", []models.SalesRecord{{ProductName: "A", UnitsSold: 5}, {ProductName: "B", UnitsSold: 6}}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(NewLinearTrend(), tt.rows, tt.product, 3, Monthly, start)
			if !apperrors.IsInsufficientData(err) {
				t.Errorf("error = %v, want insufficient data", err)
			}
		})
	}
}
