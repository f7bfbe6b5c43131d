package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"smart-dashboard/internal/errors"
	"smart-dashboard/internal/export"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/observability"
	"smart-dashboard/internal/report"
	"smart-dashboard/internal/services"
	"smart-dashboard/internal/signals"
)

const (
	cacheNoStore    = "no-store"
	multipartMemory = 8 << 20
)

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

type forecastParams struct {
	Product string `validate:"max=200"`
	Horizon int    `validate:"gte=0,lte=12"`
}

type insightParams struct {
	External bool
	Keywords []string `validate:"max=5,dive,min=1,max=100"`
	Months   int      `validate:"gte=0,lte=36"`
}

type stockParams struct {
	Threshold int      `validate:"gte=-1"`
	Products  []string `validate:"max=6"`
}

type restockParams struct {
	View string `validate:"omitempty,oneof=restock all"`
}

// filterSpec collects every query key that names a canonical sales column.
func filterSpec(r *http.Request) models.FilterSpec {
	q := r.URL.Query()
	spec := models.FilterSpec{}
	for _, col := range models.SalesColumns {
		if values := nonEmpty(q[col]); len(values) > 0 {
			spec[col] = values
		}
	}
	return spec
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.BadRequest(fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

func (h *APIHandlers) check(params any) error {
	if err := h.validate.Struct(params); err != nil {
		return errors.ValidationWrap(err, "invalid query parameters")
	}
	return nil
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleUploadSales(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.dashboard.LoadSales)
}

func (h *APIHandlers) HandleUploadStock(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.dashboard.LoadStock)
}

func (h *APIHandlers) upload(w http.ResponseWriter, r *http.Request, load func(context.Context, string, io.Reader) (*services.LoadResult, error)) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.fail(w, r, classifyUploadError(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, `multipart field "file" is required`))
		return
	}
	defer file.Close()

	res, err := load(r.Context(), header.Filename, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("redirect") != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	errors.WriteSuccess(w, res)
}

func classifyUploadError(err error) error {
	var maxBytes *http.MaxBytesError
	if stderrors.As(err, &maxBytes) {
		return err
	}
	return errors.BadRequestWrap(err, "invalid multipart upload")
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.FilterOptions(), map[string]string{"Cache-Control": cacheNoStore})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.View(filterSpec(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, view.Summary, map[string]string{"Cache-Control": cacheNoStore})
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.View(filterSpec(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, view.Products, map[string]string{"Cache-Control": cacheNoStore})
}

func (h *APIHandlers) HandleRestock(w http.ResponseWriter, r *http.Request) {
	params := restockParams{View: r.URL.Query().Get("view")}
	if err := h.check(params); err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := services.ParseRestockView(params.View)
	if err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, "invalid restock view"))
		return
	}

	rows, err := h.dashboard.Restock(filterSpec(r), view)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, rows)
}

func (h *APIHandlers) parseInsightParams(r *http.Request) (insightParams, error) {
	q := r.URL.Query()
	params := insightParams{Keywords: nonEmpty(strings.Split(q.Get("keywords"), ","))}
	if raw := q.Get("external"); raw != "" {
		ext, err := strconv.ParseBool(raw)
		if err != nil {
			return params, errors.BadRequest("external must be a boolean")
		}
		params.External = ext
	}
	months, err := queryInt(r, "months", 0)
	if err != nil {
		return params, err
	}
	params.Months = months
	return params, h.check(params)
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseInsightParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.dashboard.Insights(r.Context(), filterSpec(r), params.External, signals.Request{
		Keywords:       params.Keywords,
		LookbackMonths: params.Months,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, res)
}

// HandleSignals always answers 200; unavailable readings are null.
func (h *APIHandlers) HandleSignals(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseInsightParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap := h.dashboard.Signals(r.Context(), signals.Request{
		Keywords:       params.Keywords,
		LookbackMonths: params.Months,
	})
	errors.WriteSuccess(w, snap)
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	horizon, err := queryInt(r, "horizon", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	params := forecastParams{Product: r.URL.Query().Get("product"), Horizon: horizon}
	if err := h.check(params); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.dashboard.Forecast(r.Context(), filterSpec(r), params.Product, params.Horizon)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, res)
}

func (h *APIHandlers) parseStockParams(r *http.Request) (stockParams, error) {
	threshold, err := queryInt(r, "threshold", -1)
	if err != nil {
		return stockParams{}, err
	}
	params := stockParams{Threshold: threshold, Products: nonEmpty(r.URL.Query()["product"])}
	return params, h.check(params)
}

func (h *APIHandlers) HandleStock(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseStockParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.dashboard.Stock(params.Products, params.Threshold)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, view)
}

func (h *APIHandlers) HandleExportSales(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.View(filterSpec(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCSV(w, "sales_filtered.csv", func(out io.Writer) error {
		return export.WriteSales(out, view.Rows)
	})
}

func (h *APIHandlers) HandleExportRollup(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.View(filterSpec(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCSV(w, "rekap_penjualan.csv", func(out io.Writer) error {
		return export.WriteRollup(out, view.Products)
	})
}

func (h *APIHandlers) HandleExportRestock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.dashboard.Restock(filterSpec(r), services.RestockOnly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCSV(w, "restock.csv", func(out io.Writer) error {
		return export.WriteRestock(out, rows)
	})
}

func (h *APIHandlers) HandleExportStock(w http.ResponseWriter, r *http.Request) {
	h.exportStock(w, r, false)
}

func (h *APIHandlers) HandleExportLowStock(w http.ResponseWriter, r *http.Request) {
	h.exportStock(w, r, true)
}

func (h *APIHandlers) exportStock(w http.ResponseWriter, r *http.Request, lowOnly bool) {
	params, err := h.parseStockParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.dashboard.Stock(params.Products, params.Threshold)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rows, name := view.Rows, "stok_filtered.csv"
	if lowOnly {
		rows, name = view.Low, "stok_rendah.csv"
	}
	h.writeCSV(w, name, func(out io.Writer) error {
		return export.WriteStock(out, rows)
	})
}

func (h *APIHandlers) writeCSV(w http.ResponseWriter, filename string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", cacheNoStore)
	if err := write(w); err != nil {
		h.logger.Error("write csv export", "file", filename, "error", err)
	}
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	in, err := report.FromDashboard(r.Context(), h.dashboard, filterSpec(r), r.URL.Query().Get("external") == "true")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	md := report.Markdown(in)
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, md)
		return
	}

	body, err := report.HTML(md)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>Report</title></head><body>%s</body></html>", body)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
