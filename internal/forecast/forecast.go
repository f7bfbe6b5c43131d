// Package forecast turns a product's sales into a dated series and projects
// it forward with prediction intervals.
package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	apperrors "smart-dashboard/internal/errors"
)

type Frequency string

const (
	Monthly Frequency = "monthly"
	Daily   Frequency = "daily"
)

func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Monthly, Daily:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("unknown forecast frequency %q", s)
}

// Dates returns n period stamps. Monthly periods are month ends, starting at
// the first month end on or after start.
func (f Frequency) Dates(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	if n <= 0 {
		return dates
	}
	d := start
	if f == Monthly {
		d = monthEnd(start)
	}
	for range n {
		dates = append(dates, d)
		d = f.Next(d)
	}
	return dates
}

func (f Frequency) Next(t time.Time) time.Time {
	if f == Monthly {
		firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		return monthEnd(firstOfNext)
	}
	return t.AddDate(0, 0, 1)
}

// Periods counts whole periods from one stamp to another: calendar months for
// Monthly, days for Daily.
func (f Frequency) Periods(from, to time.Time) float64 {
	if f == Monthly {
		return float64((to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()))
	}
	return math.Round(to.Sub(from).Hours() / 24)
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}

type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type Prediction struct {
	Date     time.Time `json:"date"`
	Estimate float64   `json:"estimate"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// Forecaster projects a chronologically ordered series horizon periods ahead.
type Forecaster interface {
	Forecast(series []Point, horizon int, freq Frequency) ([]Prediction, error)
}

// LinearTrend fits an ordinary least squares line over the periods elapsed
// since the first point, so unevenly spaced points keep their real distance
// in time. It widens its interval with the usual prediction-error term. Z is the normal
// quantile of the interval; 1.2816 gives an 80% band.
type LinearTrend struct {
	Z float64
}

func NewLinearTrend() LinearTrend {
	return LinearTrend{Z: 1.2816}
}

func (lt LinearTrend) Forecast(series []Point, horizon int, freq Frequency) ([]Prediction, error) {
	if len(series) < 2 {
		return nil, apperrors.InsufficientData(fmt.Sprintf("forecasting needs at least 2 points, got %d", len(series)))
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	n := len(series)
	first := series[0].Date
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range series {
		xs[i] = freq.Periods(first, p.Date)
		ys[i] = p.Value
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	// Residual standard error; two points fit exactly.
	var sse float64
	for i := range xs {
		r := ys[i] - (alpha + beta*xs[i])
		sse += r * r
	}
	var se float64
	if n > 2 {
		se = math.Sqrt(sse / float64(n-2))
	}

	xbar := stat.Mean(xs, nil)
	var sxx float64
	for _, x := range xs {
		sxx += (x - xbar) * (x - xbar)
	}
	if sxx == 0 {
		return nil, apperrors.InsufficientData("forecasting needs points on at least 2 distinct dates")
	}

	out := make([]Prediction, 0, horizon)
	date := series[n-1].Date
	for range horizon {
		date = freq.Next(date)
		x := freq.Periods(first, date)
		estimate := alpha + beta*x
		margin := lt.Z * se * math.Sqrt(1+1/float64(n)+(x-xbar)*(x-xbar)/sxx)
		out = append(out, Prediction{
			Date:     date,
			Estimate: math.Max(0, estimate),
			Lower:    math.Max(0, estimate-margin),
			Upper:    math.Max(0, estimate+margin),
		})
	}
	return out, nil
}
