package services

import (
	"strings"
	"testing"

	"smart-dashboard/internal/models"
	"smart-dashboard/internal/signals"
)

func ranked(pairs ...any) []models.AggregateRow {
	var rows []models.SalesRecord
	for i := 0; i < len(pairs); i += 2 {
		rows = append(rows, sale(pairs[i].(string), "", "", pairs[i+1].(int), 1))
	}
	return RollupByProduct(rows)
}

func rules(res InsightResult) []string {
	var out []string
	for _, in := range res.Insights {
		out = append(out, in.Rule)
	}
	return out
}

func TestInsightAdvisor_EmptyIsNoData(t *testing.T) {
	called := false
	advisor := NewInsightAdvisor(Rule{Name: "probe", Evaluate: func(InsightContext) []models.Insight {
		called = true
		return nil
	}})

	res := advisor.Advise(nil, nil)
	if res.Status != StatusNoData {
		t.Errorf("status = %s, want %s", res.Status, StatusNoData)
	}
	if called {
		t.Error("rules must not run on an empty table")
	}
}

func TestInsightAdvisor_SalesRules(t *testing.T) {
	res := NewInsightAdvisor().Advise(ranked("A", 10, "B", 2, "C", 50), nil)

	if res.Status != StatusRecommendations {
		t.Fatalf("status = %s, want %s", res.Status, StatusRecommendations)
	}
	got := rules(res)
	if len(got) != 2 || got[0] != "low_sales" || got[1] != "high_sales" {
		t.Fatalf("rules = %v, want [low_sales high_sales]", got)
	}
	if !strings.Contains(res.Insights[0].Reason, "B") {
		t.Errorf("low sales insight should name B: %s", res.Insights[0].Reason)
	}
	if !strings.Contains(res.Insights[1].Reason, "C") {
		t.Errorf("high sales insight should name C: %s", res.Insights[1].Reason)
	}
	if res.Top.ProductName != "C" || res.Bottom.ProductName != "B" {
		t.Errorf("top/bottom = %s/%s, want C/B", res.Top.ProductName, res.Bottom.ProductName)
	}
	if res.MeanUnits < 20.66 || res.MeanUnits > 20.67 {
		t.Errorf("mean units = %v", res.MeanUnits)
	}
}

func TestInsightAdvisor_NoCritical(t *testing.T) {
	res := NewInsightAdvisor().Advise(ranked("A", 10, "B", 10), nil)
	if res.Status != StatusNoCritical {
		t.Errorf("status = %s, want %s", res.Status, StatusNoCritical)
	}
	if res.Insights == nil || len(res.Insights) != 0 {
		t.Errorf("insights = %v, want empty", res.Insights)
	}
}

func TestInsightAdvisor_CurrencyPressure(t *testing.T) {
	products := ranked("A", 10, "B", 10)

	tests := []struct {
		name string
		snap *signals.Snapshot
		want bool
	}{
		{"above threshold", &signals.Snapshot{Exchange: &signals.ExchangeRate{Base: "USD", Quote: "IDR", Rate: 15500}}, true},
		{"below threshold", &signals.Snapshot{Exchange: &signals.ExchangeRate{Base: "USD", Quote: "IDR", Rate: 14000}}, false},
		{"exactly threshold", &signals.Snapshot{Exchange: &signals.ExchangeRate{Rate: 15000}}, false},
		{"rate unavailable", &signals.Snapshot{}, false},
		{"no snapshot", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewInsightAdvisor().Advise(products, tt.snap)
			fired := len(res.Insights) == 1 && res.Insights[0].Rule == "currency_pressure"
			if fired != tt.want {
				t.Errorf("currency insight fired = %v, want %v (%v)", fired, tt.want, rules(res))
			}
		})
	}

	res := NewInsightAdvisor().Advise(products, tests[0].snap)
	if !strings.Contains(res.Insights[0].Reason, "15,500") {
		t.Errorf("reason should show the rate: %s", res.Insights[0].Reason)
	}
}

func TestInsightAdvisor_SearchTrend(t *testing.T) {
	products := ranked("A", 10, "B", 10)

	tests := []struct {
		name   string
		trends map[string]float64
		want   string
	}{
		{"high interest", map[string]float64{"kebaya": 50, "kebaya modern": 40}, "search_trend_high"},
		{"low interest", map[string]float64{"kebaya": 5}, "search_trend_low"},
		{"middling interest", map[string]float64{"kebaya": 20}, ""},
		{"unavailable", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewInsightAdvisor().Advise(products, &signals.Snapshot{Trends: tt.trends})
			got := ""
			if len(res.Insights) > 0 {
				got = res.Insights[0].Rule
			}
			if got != tt.want || len(res.Insights) > 1 {
				t.Errorf("rules = %v, want %q", rules(res), tt.want)
			}
		})
	}
}

func TestInsightAdvisor_RuleOrder(t *testing.T) {
	snap := &signals.Snapshot{
		Exchange: &signals.ExchangeRate{Base: "USD", Quote: "IDR", Rate: 16000},
		Trends:   map[string]float64{"kebaya": 80},
	}
	got := rules(NewInsightAdvisor().Advise(ranked("A", 10, "B", 2, "C", 50), snap))
	want := []string{"low_sales", "high_sales", "currency_pressure", "search_trend_high"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rules = %v, want %v", got, want)
	}
}
