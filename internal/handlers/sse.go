package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"smart-dashboard/internal/errors"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/services"
	"smart-dashboard/internal/signals"
	"smart-dashboard/internal/ui/templates"
)

const maxChartProducts = 20

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// dashboardSignals mirrors the client-side signals declared by the page.
type dashboardSignals struct {
	FilterProduct   []string `json:"filterProduct"`
	FilterColor     []string `json:"filterColor"`
	FilterVariant   []string `json:"filterVariant"`
	StockProducts   []string `json:"stockProducts"`
	Threshold       any      `json:"threshold"`
	External        bool     `json:"external"`
	RestockView     string   `json:"restockView"`
	ForecastProduct string   `json:"forecastProduct"`
}

func (s dashboardSignals) spec() models.FilterSpec {
	spec := models.FilterSpec{}
	for col, values := range map[string][]string{
		models.ColProductName: s.FilterProduct,
		models.ColColorCode:   s.FilterColor,
		models.ColVariant:     s.FilterVariant,
	} {
		if values = nonEmpty(values); len(values) > 0 {
			spec[col] = values
		}
	}
	return spec
}

// threshold returns -1, meaning the configured default, when the input is
// blank or not a number.
func (s dashboardSignals) threshold() int {
	switch v := s.Threshold.(type) {
	case float64:
		if v >= 0 {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return -1
}

func (h *SSEHandlers) readSignals(r *http.Request) dashboardSignals {
	var sig dashboardSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.logger.WarnContext(r.Context(), "read datastar signals", "error", err)
	}
	return sig
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) {
	html, err := templates.Render(ctx, c)
	if err != nil {
		h.logger.ErrorContext(ctx, "render fragment", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.WarnContext(ctx, "patch elements", "error", err)
	}
}

// notice replaces a section with the message of err.
func (h *SSEHandlers) notice(ctx context.Context, sse *datastar.ServerSentEventGenerator, id string, err error) {
	h.patch(ctx, sse, templates.Notice(id, errors.FromDomain(err).Message))
}

func (h *SSEHandlers) sendSummary(ctx context.Context, sse *datastar.ServerSentEventGenerator, sig dashboardSignals) {
	view, err := h.dashboard.View(sig.spec())
	if err != nil {
		h.notice(ctx, sse, templates.SummaryID, err)
		return
	}
	h.patch(ctx, sse, templates.SummaryCards(view.Summary))
}

func (h *SSEHandlers) sendProducts(ctx context.Context, sse *datastar.ServerSentEventGenerator, sig dashboardSignals) {
	view, err := h.dashboard.View(sig.spec())
	if err != nil {
		h.notice(ctx, sse, templates.ProductsID, err)
		return
	}
	h.patch(ctx, sse, templates.ProductTable(view.Products))

	chart := view.Products
	if len(chart) > maxChartProducts {
		chart = chart[:maxChartProducts]
	}
	jsonData, err := json.Marshal(map[string]any{"productsData": chart})
	if err != nil {
		h.logger.ErrorContext(ctx, "marshal products data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)
}

func (h *SSEHandlers) sendRestock(ctx context.Context, sse *datastar.ServerSentEventGenerator, sig dashboardSignals) {
	view, err := services.ParseRestockView(sig.RestockView)
	if err != nil {
		view = services.RestockOnly
	}
	rows, err := h.dashboard.Restock(sig.spec(), view)
	if err != nil {
		h.notice(ctx, sse, templates.RestockID, err)
		return
	}
	h.patch(ctx, sse, templates.RestockTable(rows, view))
}

func (h *SSEHandlers) sendInsights(ctx context.Context, sse *datastar.ServerSentEventGenerator, sig dashboardSignals) {
	res, err := h.dashboard.Insights(ctx, sig.spec(), sig.External, signals.Request{})
	if err != nil {
		h.notice(ctx, sse, templates.InsightsID, err)
		return
	}
	h.patch(ctx, sse, templates.InsightList(res))
}

func (h *SSEHandlers) sendStock(ctx context.Context, sse *datastar.ServerSentEventGenerator, sig dashboardSignals) {
	if !h.dashboard.HasStock() {
		h.patch(ctx, sse, templates.Notice(templates.StockID, "No stock file loaded."))
		return
	}
	view, err := h.dashboard.Stock(nonEmpty(sig.StockProducts), sig.threshold())
	if err != nil {
		h.notice(ctx, sse, templates.StockID, err)
		return
	}
	h.patch(ctx, sse, templates.StockPanel(view))
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.sendSummary(r.Context(), sse, h.readSignals(r))
}

func (h *SSEHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.sendProducts(r.Context(), sse, h.readSignals(r))
}

func (h *SSEHandlers) HandleRestock(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.sendRestock(r.Context(), sse, h.readSignals(r))
}

func (h *SSEHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.sendInsights(r.Context(), sse, h.readSignals(r))
}

func (h *SSEHandlers) HandleStock(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.sendStock(r.Context(), sse, h.readSignals(r))
}

// HandleForecast renders insufficient data as a notice in the forecast
// section rather than an error.
func (h *SSEHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	sig := h.readSignals(r)
	sse := datastar.NewSSE(w, r)

	res, err := h.dashboard.Forecast(r.Context(), sig.spec(), sig.ForecastProduct, 0)
	if err != nil {
		h.notice(r.Context(), sse, templates.ForecastID, err)
		return
	}
	h.patch(r.Context(), sse, templates.ForecastTable(res))
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sig := h.readSignals(r)
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	h.sendSummary(ctx, sse, sig)
	h.sendProducts(ctx, sse, sig)
	h.sendRestock(ctx, sse, sig)
	h.sendInsights(ctx, sse, sig)
	h.sendStock(ctx, sse, sig)
}
