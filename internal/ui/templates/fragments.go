package templates

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"smart-dashboard/internal/forecast"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/services"
)

// Element ids patched by the SSE handlers.
const (
	SummaryID  = "summary-content"
	ProductsID = "products-content"
	RestockID  = "restock-content"
	InsightsID = "insights-content"
	StockID    = "stock-content"
	ForecastID = "forecast-content"
)

const MaxTableRows = 50

var summaryTemplate = parse("summary", `<div id="{{.ID}}" class="metrics">
{{- range .Cards}}<div class="metric"><span class="label">{{.Label}}</span><strong>{{.Value}}</strong></div>{{end -}}
</div>`)

type card struct{ Label, Value string }

func SummaryCards(s models.Summary) templ.Component {
	return view(summaryTemplate, struct {
		ID    string
		Cards []card
	}{
		ID: SummaryID,
		Cards: []card{
			{"Rows", humanize.Comma(int64(s.Rows))},
			{"Units sold", humanize.Comma(int64(s.TotalUnits))},
			{"Revenue", money(s.TotalRevenue)},
			{"Average unit price", money(s.AvgUnitPrice)},
			{"Products", strconv.Itoa(s.UniqueProducts)},
		},
	})
}

var productTableTemplate = parse("productTable", `<div id="{{.ID}}"><table class="modern-table">
<thead><tr><th>Product</th><th>Units</th><th>Revenue</th><th>Mean price</th></tr></thead><tbody>
{{- range .Rows}}<tr><td>{{.ProductName}}</td><td>{{comma .SummedUnits}}</td><td><strong>{{money .SummedTotal}}</strong></td><td>{{money .MeanPrice}}</td></tr>{{end -}}
</tbody></table></div>`)

func ProductTable(rows []models.AggregateRow) templ.Component {
	if len(rows) > MaxTableRows {
		rows = rows[:MaxTableRows]
	}
	return view(productTableTemplate, struct {
		ID   string
		Rows []models.AggregateRow
	}{ProductsID, rows})
}

var restockTableTemplate = parse("restockTable", `<div id="{{.ID}}">
{{- if not .Rows}}<p class="notice">No product needs restocking.</p>
{{- else}}<table class="modern-table" data-view="{{.View}}">
<thead><tr><th>Product</th><th>Stock</th><th>Avg sales</th><th>Status</th></tr></thead><tbody>
{{- range .Rows}}<tr><td>{{.ProductName}}</td>
<td>{{with .CurrentStock}}{{comma .}}{{else}}no stock data{{end}}</td>
<td>{{one .AverageSales}}</td>
<td>{{if .NeedsRestock}}<span class="badge warn">restock</span>{{else if .CurrentStock}}<span class="badge ok">ok</span>{{else}}<span class="badge muted">no stock data</span>{{end}}</td></tr>
{{- end}}</tbody></table>
{{- end}}</div>`)

func RestockTable(rows []models.RestockRecommendation, v services.RestockView) templ.Component {
	return view(restockTableTemplate, struct {
		ID   string
		View string
		Rows []models.RestockRecommendation
	}{RestockID, v.String(), rows})
}

var insightListTemplate = parse("insightList", `<div id="{{.ID}}">
{{- if .NoData}}<p class="notice">No data after filtering; no insight can be generated.</p>
{{- else}}
{{- if and .Top .Bottom}}<ul class="highlights"><li>Best seller: <strong>{{.Top.ProductName}}</strong> ({{comma .Top.SummedUnits}} units)</li><li>Least sold: <strong>{{.Bottom.ProductName}}</strong> ({{comma .Bottom.SummedUnits}} units)</li></ul>{{end}}
{{- if .NoCritical}}<p class="success">No critical recommendation right now. Internal data is stable.</p>
{{- else}}<ul class="insights">
{{- range .Insights}}<li data-rule="{{.Rule}}">{{.Reason}}<br>Recommendation: <strong>{{.Action}}</strong></li>{{end -}}
</ul>{{end}}
{{- end}}</div>`)

func InsightList(res services.InsightResult) templ.Component {
	return view(insightListTemplate, struct {
		ID         string
		NoData     bool
		NoCritical bool
		Top        *models.AggregateRow
		Bottom     *models.AggregateRow
		Insights   []models.Insight
	}{
		ID:         InsightsID,
		NoData:     res.Status == services.StatusNoData,
		NoCritical: res.Status == services.StatusNoCritical,
		Top:        res.Top,
		Bottom:     res.Bottom,
		Insights:   res.Insights,
	})
}

var stockPanelTemplate = parse("stockPanel", `<div id="{{.ID}}"><div class="metrics">
<div class="metric"><span class="label">Variants</span><strong>{{.V.Summary.Rows}}</strong></div>
<div class="metric"><span class="label">Total stock</span><strong>{{comma .V.Summary.TotalStock}}</strong></div>
<div class="metric"><span class="label">At or below {{.V.Threshold}}</span><strong>{{.V.Summary.LowStock}}</strong></div></div>
{{- if not .V.Low}}<p class="success">All stock is above the threshold.</p>
{{- else}}<table class="modern-table"><thead><tr><th>Product</th><th>Variant</th><th>Stock</th></tr></thead><tbody>
{{- range .V.Low}}<tr><td>{{.ProductName}}</td><td>{{.VariantName}}</td><td>{{.StockQty}}</td></tr>{{end -}}
</tbody></table>{{end}}</div>`)

func StockPanel(v *services.StockView) templ.Component {
	return view(stockPanelTemplate, struct {
		ID string
		V  *services.StockView
	}{StockID, v})
}

var forecastTableTemplate = parse("forecastTable", `<div id="{{.ID}}"><h3>{{.R.Product}} ({{.R.Frequency}})</h3>
<table class="modern-table"><thead><tr><th>Period</th><th>Estimate</th><th>Lower</th><th>Upper</th></tr></thead><tbody>
{{- range .R.Predictions}}<tr><td>{{day .Date}}</td><td>{{one .Estimate}}</td><td>{{one .Lower}}</td><td>{{one .Upper}}</td></tr>{{end -}}
</tbody></table><p>Trend: {{words .R.Direction}}</p></div>`)

func ForecastTable(res *forecast.Result) templ.Component {
	return view(forecastTableTemplate, struct {
		ID string
		R  *forecast.Result
	}{ForecastID, res})
}
