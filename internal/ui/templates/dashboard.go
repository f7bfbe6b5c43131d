package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"smart-dashboard/internal/models"
)

// Page is what the dashboard shell needs to render its controls.
type Page struct {
	Title           string
	HasSales        bool
	HasStock        bool
	ExternalEnabled bool
	Threshold       int
	Options         map[string][]string
	StockProducts   []string
	Products        []string
}

// filterControl pairs a multiselect with its signal. Column doubles as the
// query key the export endpoints filter on.
type filterControl struct {
	Label   string
	Column  string
	Signal  string
	Options []string
}

var filterControls = []filterControl{
	{Label: "Product", Column: models.ColProductName, Signal: "filterProduct"},
	{Label: "Color code", Column: models.ColColorCode, Signal: "filterColor"},
	{Label: "Variant", Column: models.ColVariant, Signal: "filterVariant"},
}

func initialSignals(p Page) string {
	b, _ := json.Marshal(map[string]any{
		"filterProduct":   []string{},
		"filterColor":     []string{},
		"filterVariant":   []string{},
		"stockProducts":   []string{},
		"threshold":       p.Threshold,
		"external":        false,
		"restockView":     "restock",
		"forecastProduct": "",
	})
	return string(b)
}

// exportLink is a download button. Href is the unfiltered fallback; Bind is
// the Datastar expression that rebuilds it from the live signals.
type exportLink struct {
	Label string
	Href  string
	Bind  string
}

func listParam(key, signal string) string {
	return fmt.Sprintf("...$%s.map(v => ['%s', v])", signal, key)
}

func valueParam(key, signal string) string {
	return fmt.Sprintf("['%s', String($%s)]", key, signal)
}

func bindHref(path string, params ...string) string {
	return fmt.Sprintf("'%s?' + new URLSearchParams([%s]).toString()", path, strings.Join(params, ", "))
}

func exportLinks() []exportLink {
	filters := make([]string, 0, len(filterControls))
	for _, f := range filterControls {
		filters = append(filters, listParam(f.Column, f.Signal))
	}
	stock := []string{valueParam("threshold", "threshold"), listParam("product", "stockProducts")}
	report := append(append([]string{}, filters...), valueParam("external", "external"))

	return []exportLink{
		{"Filtered sales", "/export/sales.csv", bindHref("/export/sales.csv", filters...)},
		{"Per-product rollup", "/export/rollup.csv", bindHref("/export/rollup.csv", filters...)},
		{"Restock list", "/export/restock.csv", bindHref("/export/restock.csv", filters...)},
		{"Stock", "/export/stock.csv", bindHref("/export/stock.csv", stock...)},
		{"Low stock", "/export/stock-low.csv", bindHref("/export/stock-low.csv", stock...)},
		{"Report", "/report", bindHref("/report", report...)},
	}
}

var dashboardTemplate = parse("dashboard", `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.P.Title}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
</head>
<body data-signals="{{.Signals}}" data-init="@get('/sse/refresh-all')">
<header><h1>{{.P.Title}}</h1></header>
<main>
{{- range .Uploads}}
<form method="post" action="{{.Action}}?redirect=1" enctype="multipart/form-data" class="upload"><label>{{.Label}} <input type="file" name="file" accept=".xlsx,.xlsm,.csv" required></label><button type="submit">Upload</button></form>
{{- end}}
{{if not .P.HasSales}}<p class="notice">Upload a sales file (.xlsx or .csv) to start.</p>{{end}}

<section class="filters"><h2>Filters</h2>
{{- range .Filters}}
<label>{{.Label}}<select multiple data-bind="{{.Signal}}" data-on:change="@get('/sse/refresh-all')">
{{- range .Options}}<option value="{{.}}">{{.}}</option>{{end -}}
</select></label>
{{- end}}
{{if .P.ExternalEnabled}}<label><input type="checkbox" data-bind="external" data-on:change="@get('/sse/insights')"> Use external signals</label>{{end}}
</section>

<section><h2>Summary</h2><div id="{{.IDs.Summary}}">Loading...</div></section>
<section><h2>Products</h2><div id="{{.IDs.Products}}">Loading...</div></section>
<section><h2>Insights</h2><div id="{{.IDs.Insights}}">Loading...</div></section>

<section><h2>Restock</h2>
<select data-bind="restockView" data-on:change="@get('/sse/restock')"><option value="restock">Needs restock</option><option value="all">All products</option></select>
<div id="{{.IDs.Restock}}">Loading...</div></section>

<section><h2>Forecast</h2>
<select data-bind="forecastProduct" data-on:change="@get('/sse/forecast')"><option value="">Best seller</option>
{{- range .P.Products}}<option value="{{.}}">{{.}}</option>{{end -}}
</select>
<div id="{{.IDs.Forecast}}"></div></section>

<section><h2>Stock monitor</h2>
{{if not .P.HasStock}}<p class="notice">Upload a stock file to monitor low stock.</p>{{end}}
<label>Threshold <input type="number" min="0" data-bind="threshold" data-on:change="@get('/sse/stock')"></label>
<label>Products (max 6) <select multiple data-bind="stockProducts" data-on:change="@get('/sse/stock')">
{{- range .P.StockProducts}}<option value="{{.}}">{{.}}</option>{{end -}}
</select></label>
<div id="{{.IDs.Stock}}">Loading...</div></section>

<section class="exports"><h2>Export</h2>
{{- range .Exports}}
<a class="button" href="{{.Href}}" data-attr:href="{{.Bind}}">{{.Label}}</a>
{{- end}}
</section>
</main>
</body>
</html>`)

var uploads = []struct{ Label, Action string }{
	{"Sales file", "/api/upload/sales"},
	{"Stock file", "/api/upload/stock"},
}

type sectionIDs struct {
	Summary, Products, Insights, Restock, Forecast, Stock string
}

func Dashboard(p Page) templ.Component {
	filters := make([]filterControl, len(filterControls))
	for i, f := range filterControls {
		f.Options = p.Options[f.Column]
		filters[i] = f
	}
	return view(dashboardTemplate, struct {
		P       Page
		Signals string
		Uploads []struct{ Label, Action string }
		Filters []filterControl
		IDs     sectionIDs
		Exports []exportLink
	}{
		P:       p,
		Signals: initialSignals(p),
		Uploads: uploads,
		Filters: filters,
		IDs:     sectionIDs{SummaryID, ProductsID, InsightsID, RestockID, ForecastID, StockID},
		Exports: exportLinks(),
	})
}
