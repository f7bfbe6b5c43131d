package services

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"smart-dashboard/internal/models"
	"smart-dashboard/internal/signals"
)

const (
	LowSalesFloor     = 5.0
	LowSalesRatio     = 0.3
	HighSalesRatio    = 1.8
	CurrencyPressure  = 15000.0
	HighTrendInterest = 40.0
	LowTrendInterest  = 10.0
)

// Insight result statuses.
const (
	StatusNoData          = "no_data"
	StatusNoCritical      = "no_critical_recommendation"
	StatusRecommendations = "recommendations"
)

// InsightContext is the read-only input shared by every rule. Products is
// ranked by summed units, highest first, and is never empty. Signals may be
// nil when external readings were not requested or not available.
type InsightContext struct {
	Products  []models.AggregateRow
	MeanUnits float64
	Signals   *signals.Snapshot
}

func (c InsightContext) Top() models.AggregateRow    { return c.Products[0] }
func (c InsightContext) Bottom() models.AggregateRow { return c.Products[len(c.Products)-1] }

type Rule struct {
	Name     string
	Evaluate func(InsightContext) []models.Insight
}

type InsightResult struct {
	Status    string               `json:"status"`
	Insights  []models.Insight     `json:"insights"`
	Top       *models.AggregateRow `json:"top,omitempty"`
	Bottom    *models.AggregateRow `json:"bottom,omitempty"`
	MeanUnits float64              `json:"mean_units"`
	Signals   *signals.Snapshot    `json:"signals,omitempty"`
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "low_sales", Evaluate: lowSales},
		{Name: "high_sales", Evaluate: highSales},
		{Name: "currency_pressure", Evaluate: currencyPressure},
		{Name: "search_trend", Evaluate: searchTrend},
	}
}

func lowSales(c InsightContext) []models.Insight {
	bottom := c.Bottom()
	if float64(bottom.SummedUnits) >= math.Max(LowSalesFloor, c.MeanUnits*LowSalesRatio) {
		return nil
	}
	return []models.Insight{{
		Rule:   "low_sales",
		Reason: fmt.Sprintf("Product %s has low sales (%s units).", bottom.ProductName, humanize.Comma(int64(bottom.SummedUnits))),
		Action: "Consider a discount, bundling, or promotion on social channels.",
	}}
}

func highSales(c InsightContext) []models.Insight {
	top := c.Top()
	if float64(top.SummedUnits) <= c.MeanUnits*HighSalesRatio {
		return nil
	}
	return []models.Insight{{
		Rule:   "high_sales",
		Reason: fmt.Sprintf("Product %s sells far above average (%s units).", top.ProductName, humanize.Comma(int64(top.SummedUnits))),
		Action: "Make sure stock and materials are sufficient; consider raising production.",
	}}
}

func currencyPressure(c InsightContext) []models.Insight {
	if c.Signals == nil || c.Signals.Exchange == nil {
		return nil
	}
	fx := c.Signals.Exchange
	if fx.Rate <= CurrencyPressure {
		return nil
	}
	return []models.Insight{{
		Rule:   "currency_pressure",
		Reason: fmt.Sprintf("%s/%s is around %s; imported materials will cost more.", fx.Base, fx.Quote, humanize.Comma(int64(math.Round(fx.Rate)))),
		Action: "Consider local material substitutes or adjust selling prices.",
	}}
}

func searchTrend(c InsightContext) []models.Insight {
	mean, ok := c.Signals.TrendMean()
	if !ok {
		return nil
	}
	switch {
	case mean > HighTrendInterest:
		return []models.Insight{{
			Rule:   "search_trend_high",
			Reason: fmt.Sprintf("Search interest for related keywords is high (avg interest %.1f).", mean),
			Action: "Focus promotion on the trending collection; produce short-form content.",
		}}
	case mean < LowTrendInterest:
		return []models.Insight{{
			Rule:   "search_trend_low",
			Reason: fmt.Sprintf("Search interest is relatively low (avg interest %.1f).", mean),
			Action: "Consider diversifying the collection or testing new products.",
		}}
	}
	return nil
}

type InsightAdvisor struct {
	rules []Rule
}

// NewInsightAdvisor uses DefaultRules when no rules are given.
func NewInsightAdvisor(rules ...Rule) *InsightAdvisor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &InsightAdvisor{rules: rules}
}

// Advise evaluates every rule in order against the ranked products. An empty
// product list yields StatusNoData without evaluating any rule.
func (a *InsightAdvisor) Advise(products []models.AggregateRow, snap *signals.Snapshot) InsightResult {
	if len(products) == 0 {
		return InsightResult{Status: StatusNoData, Insights: []models.Insight{}, Signals: snap}
	}

	ctx := InsightContext{
		Products:  products,
		MeanUnits: MeanUnits(products),
		Signals:   snap,
	}
	top, bottom := ctx.Top(), ctx.Bottom()

	insights := []models.Insight{}
	for _, rule := range a.rules {
		insights = append(insights, rule.Evaluate(ctx)...)
	}

	status := StatusRecommendations
	if len(insights) == 0 {
		status = StatusNoCritical
	}
	return InsightResult{
		Status:    status,
		Insights:  insights,
		Top:       &top,
		Bottom:    &bottom,
		MeanUnits: ctx.MeanUnits,
		Signals:   snap,
	}
}
