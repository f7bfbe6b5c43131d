// Package report renders a dashboard snapshot as markdown, and that markdown
// as HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"smart-dashboard/internal/forecast"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/services"
)

// Input is everything a report can show. Nil sections are left out.
type Input struct {
	Title       string
	GeneratedAt time.Time
	Filters     models.FilterSpec
	Summary     models.Summary
	Products    []models.AggregateRow
	Restock     []models.RestockRecommendation
	Insights    *services.InsightResult
	Stock       *services.StockView
	Forecast    *forecast.Result
}

// MaxProducts caps the rollup table.
const MaxProducts = 20

func Markdown(in Input) string {
	var b strings.Builder

	title := in.Title
	if title == "" {
		title = "Sales & Stock Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", in.GeneratedAt.Format("2006-01-02 15:04"))
	}
	if in.Filters.Active() {
		fmt.Fprintf(&b, "Filters: %s\n\n", filterLine(in.Filters))
	}

	s := in.Summary
	fmt.Fprintf(&b, "- **Rows:** %s\n- **Units sold:** %s\n- **Revenue:** %s\n- **Average unit price:** %s\n- **Products:** %d\n\n",
		humanize.Comma(int64(s.Rows)), humanize.Comma(int64(s.TotalUnits)), money(s.TotalRevenue), money(s.AvgUnitPrice), s.UniqueProducts)

	if len(in.Products) > 0 {
		fmt.Fprintf(&b, "## Products\n\n| Product | Units | Revenue | Mean price |\n|---|---:|---:|---:|\n")
		for i, p := range in.Products {
			if i == MaxProducts {
				break
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(p.ProductName), humanize.Comma(int64(p.SummedUnits)), money(p.SummedTotal), money(p.MeanPrice))
		}
		fmt.Fprintln(&b)
	}

	if len(in.Restock) > 0 {
		fmt.Fprintf(&b, "## Restock\n\n| Product | Stock | Avg sales | Restock |\n|---|---:|---:|---|\n")
		for _, r := range in.Restock {
			stock := "no stock data"
			if r.CurrentStock != nil {
				stock = humanize.Comma(int64(*r.CurrentStock))
			}
			flag := ""
			if r.NeedsRestock {
				flag = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %.1f | %s |\n", cell(r.ProductName), stock, r.AverageSales, flag)
		}
		fmt.Fprintln(&b)
	}

	if in.Stock != nil {
		st := in.Stock
		fmt.Fprintf(&b, "## Stock\n\n- **Variants:** %d\n- **Total stock:** %s\n- **At or below %d:** %d\n",
			st.Summary.Rows, humanize.Comma(int64(st.Summary.TotalStock)), st.Threshold, st.Summary.LowStock)
		for _, r := range st.Low {
			fmt.Fprintf(&b, "  - %s / %s: %d\n", r.ProductName, r.VariantName, r.StockQty)
		}
		fmt.Fprintln(&b)
	}

	if in.Insights != nil {
		writeInsights(&b, in.Insights)
	}

	if f := in.Forecast; f != nil {
		fmt.Fprintf(&b, "## Forecast: %s (%s)\n\n| Period | Estimate | Lower | Upper |\n|---|---:|---:|---:|\n", f.Product, f.Frequency)
		for _, p := range f.Predictions {
			fmt.Fprintf(&b, "| %s | %.1f | %.1f | %.1f |\n", p.Date.Format(time.DateOnly), p.Estimate, p.Lower, p.Upper)
		}
		fmt.Fprintf(&b, "\nTrend: %s\n\n", strings.ReplaceAll(f.Direction, "_", " "))
	}

	return b.String()
}

func writeInsights(b *strings.Builder, res *services.InsightResult) {
	fmt.Fprintf(b, "## Insights\n\n")
	switch res.Status {
	case services.StatusNoData:
		fmt.Fprintf(b, "No data after filtering; no insight can be generated.\n\n")
		return
	}

	if res.Top != nil && res.Bottom != nil {
		fmt.Fprintf(b, "- Best seller: **%s** (%s units)\n- Least sold: **%s** (%s units)\n\n",
			res.Top.ProductName, humanize.Comma(int64(res.Top.SummedUnits)),
			res.Bottom.ProductName, humanize.Comma(int64(res.Bottom.SummedUnits)))
	}

	if res.Status == services.StatusNoCritical {
		fmt.Fprintf(b, "No critical recommendation right now. Internal data is stable.\n\n")
		return
	}
	for _, in := range res.Insights {
		fmt.Fprintf(b, "- %s\n  - Recommendation: **%s**\n", in.Reason, in.Action)
	}
	fmt.Fprintln(b)
}

// HTML converts report markdown to an HTML fragment.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := conv.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func money(d decimal.Decimal) string {
	return humanize.CommafWithDigits(d.Round(2).InexactFloat64(), 2)
}

func filterLine(spec models.FilterSpec) string {
	var parts []string
	for _, col := range models.SalesColumns {
		if values := spec[col]; len(values) > 0 {
			parts = append(parts, fmt.Sprintf("%s = %s", col, strings.Join(values, ", ")))
		}
	}
	return strings.Join(parts, "; ")
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
