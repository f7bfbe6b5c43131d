package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	apperrors "smart-dashboard/internal/errors"
	"smart-dashboard/internal/forecast"
	"smart-dashboard/internal/ingest"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/observability"
	"smart-dashboard/internal/schema"
	"smart-dashboard/internal/signals"
)

// SignalSource is the external signal gateway as seen by the dashboard.
type SignalSource interface {
	Fetch(ctx context.Context, req signals.Request) *signals.Snapshot
}

type Options struct {
	Aliases           schema.Aliases
	SalesSkipRows     int
	Signals           SignalSource
	SignalDefaults    signals.Request
	Forecaster        forecast.Forecaster
	Frequency         forecast.Frequency
	ForecastStart     time.Time
	ForecastHorizon   int
	LowStockThreshold int
	Logger            *slog.Logger
}

// LoadResult describes one accepted upload.
type LoadResult struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// View is the working table for one filter selection together with the
// aggregates derived from it.
type View struct {
	Spec     models.FilterSpec     `json:"filters"`
	Rows     []models.SalesRecord  `json:"rows"`
	Products []models.AggregateRow `json:"products"`
	Summary  models.Summary        `json:"summary"`
}

type StockView struct {
	Threshold int                  `json:"threshold"`
	Products  []string             `json:"products"`
	Summary   models.StockSummary  `json:"summary"`
	Rows      []models.StockRecord `json:"rows"`
	Low       []models.StockRecord `json:"low"`
}

// Dashboard holds the current sales and stock tables. A failed load never
// replaces what is already there.
type Dashboard struct {
	mu        sync.RWMutex
	sales     []models.SalesRecord
	stock     []models.StockRecord
	lastSales *LoadResult
	lastStock *LoadResult

	opts    Options
	advisor *InsightAdvisor
	loads   atomic.Int64
	logger  *slog.Logger
}

func NewDashboard(opts Options) *Dashboard {
	if opts.Aliases.Sales == nil || opts.Aliases.Stock == nil {
		opts.Aliases = schema.Defaults()
	}
	if opts.Forecaster == nil {
		opts.Forecaster = forecast.NewLinearTrend()
	}
	if opts.Frequency == "" {
		opts.Frequency = forecast.Monthly
	}
	if opts.ForecastStart.IsZero() {
		opts.ForecastStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.ForecastHorizon <= 0 {
		opts.ForecastHorizon = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Dashboard{
		opts:    opts,
		advisor: NewInsightAdvisor(),
		logger:  opts.Logger,
	}
}

// LoadSales decodes, maps and validates a sales upload, then replaces the
// sales table.
func (d *Dashboard) LoadSales(ctx context.Context, name string, r io.Reader) (*LoadResult, error) {
	_, span := observability.StartSpan(ctx, "dashboard.load_sales")
	defer span.Finish(d.logger)
	span.SetTag("source", name)

	start := time.Now()
	table, err := ingest.Read(name, r, d.opts.SalesSkipRows)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	rows, err := ingest.ValidateSales(table, d.opts.Aliases.Sales)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	res := d.newLoadResult("sales", name, len(rows))
	d.mu.Lock()
	d.sales = rows
	d.lastSales = res
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "sales table loaded", "source", name, "rows", len(rows), "upload_id", res.ID, "duration", time.Since(start))
	return res, nil
}

// LoadStock is LoadSales for the stock table. Stock files have no leading
// rows to skip.
func (d *Dashboard) LoadStock(ctx context.Context, name string, r io.Reader) (*LoadResult, error) {
	_, span := observability.StartSpan(ctx, "dashboard.load_stock")
	defer span.Finish(d.logger)
	span.SetTag("source", name)

	start := time.Now()
	table, err := ingest.Read(name, r, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	rows, err := ingest.ValidateStock(table, d.opts.Aliases.Stock)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	res := d.newLoadResult("stock", name, len(rows))
	d.mu.Lock()
	d.stock = rows
	d.lastStock = res
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "stock table loaded", "source", name, "rows", len(rows), "upload_id", res.ID, "duration", time.Since(start))
	return res, nil
}

func (d *Dashboard) LoadSalesFile(ctx context.Context, path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &apperrors.ParseError{Source: path, Cause: err}
	}
	defer f.Close()
	return d.LoadSales(ctx, filepath.Base(path), f)
}

func (d *Dashboard) LoadStockFile(ctx context.Context, path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &apperrors.ParseError{Source: path, Cause: err}
	}
	defer f.Close()
	return d.LoadStock(ctx, filepath.Base(path), f)
}

func (d *Dashboard) newLoadResult(kind, source string, rows int) *LoadResult {
	d.loads.Add(1)
	return &LoadResult{
		ID:       uuid.NewString(),
		Kind:     kind,
		Source:   source,
		Rows:     rows,
		LoadedAt: time.Now(),
	}
}

// SetSales replaces the sales table with already validated records.
func (d *Dashboard) SetSales(rows []models.SalesRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sales = slices.Clone(rows)
	d.lastSales = d.newLoadResult("sales", "memory", len(rows))
}

func (d *Dashboard) SetStock(rows []models.StockRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stock = slices.Clone(rows)
	d.lastStock = d.newLoadResult("stock", "memory", len(rows))
}

func (d *Dashboard) tables() ([]models.SalesRecord, []models.StockRecord) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sales, d.stock
}

func (d *Dashboard) HasSales() bool {
	sales, _ := d.tables()
	return len(sales) > 0
}

func (d *Dashboard) HasStock() bool {
	_, stock := d.tables()
	return len(stock) > 0
}

// View filters the sales table and recomputes every aggregate from scratch.
func (d *Dashboard) View(spec models.FilterSpec) (*View, error) {
	if err := spec.Validate(models.SalesColumns); err != nil {
		return nil, apperrors.ValidationWrap(err, "invalid filter")
	}

	sales, _ := d.tables()
	rows := Filter(sales, spec)
	return &View{
		Spec:     spec,
		Rows:     rows,
		Products: RollupByProduct(rows),
		Summary:  Summarize(rows),
	}, nil
}

// FilterOptions lists the selectable values of the categorical sales columns
// over the unfiltered table.
func (d *Dashboard) FilterOptions() map[string][]string {
	sales, _ := d.tables()
	return FilterOptions(sales, models.ColProductName, models.ColColorCode, models.ColVariant)
}

// StockProducts lists product names of the stock table in first-seen order.
func (d *Dashboard) StockProducts() []string {
	_, stock := d.tables()
	return DistinctValues(stock, models.ColStockProduct)
}

func (d *Dashboard) Restock(spec models.FilterSpec, view RestockView) ([]models.RestockRecommendation, error) {
	v, err := d.View(spec)
	if err != nil {
		return nil, err
	}
	_, stock := d.tables()
	return AdviseRestock(v.Products, StockByProduct(stock), view), nil
}

// SignalRequest fills the blanks of req from the configured defaults.
func (d *Dashboard) SignalRequest(req signals.Request) signals.Request {
	def := d.opts.SignalDefaults
	if req.Base == "" {
		req.Base = def.Base
	}
	if req.Quote == "" {
		req.Quote = def.Quote
	}
	if len(req.Keywords) == 0 {
		req.Keywords = def.Keywords
	}
	if req.LookbackMonths <= 0 {
		req.LookbackMonths = def.LookbackMonths
	}
	return req
}

// Signals returns one consistent snapshot of external readings, or nil when
// external signals are disabled.
func (d *Dashboard) Signals(ctx context.Context, req signals.Request) *signals.Snapshot {
	if d.opts.Signals == nil {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "dashboard.signals")
	defer span.Finish(d.logger)
	return d.opts.Signals.Fetch(ctx, d.SignalRequest(req))
}

// Insights evaluates the insight rules over the filtered rollup. When
// external is set, one snapshot is fetched and used for every rule.
func (d *Dashboard) Insights(ctx context.Context, spec models.FilterSpec, external bool, req signals.Request) (InsightResult, error) {
	v, err := d.View(spec)
	if err != nil {
		return InsightResult{}, err
	}

	var snap *signals.Snapshot
	if external {
		snap = d.Signals(ctx, req)
	}
	return d.advisor.Advise(v.Products, snap), nil
}

// Forecast projects units sold for one product of the filtered table. An
// empty product selects the best seller.
func (d *Dashboard) Forecast(ctx context.Context, spec models.FilterSpec, product string, horizon int) (*forecast.Result, error) {
	_, span := observability.StartSpan(ctx, "dashboard.forecast")
	defer span.Finish(d.logger)

	v, err := d.View(spec)
	if err != nil {
		return nil, err
	}
	if product == "" {
		if len(v.Products) == 0 {
			return nil, apperrors.InsufficientData("no sales rows to forecast")
		}
		product = v.Products[0].ProductName
	}
	if horizon <= 0 {
		horizon = d.opts.ForecastHorizon
	}
	span.SetTag("product", product)
	span.SetTag("horizon", strconv.Itoa(horizon))

	res, err := forecast.Run(d.opts.Forecaster, v.Rows, product, horizon, d.opts.Frequency, d.opts.ForecastStart)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return res, nil
}

// Stock returns the stock monitor for up to MaxStockSelection products. No
// selection means every product. A negative threshold uses the configured one.
func (d *Dashboard) Stock(products []string, threshold int) (*StockView, error) {
	if len(products) > MaxStockSelection {
		return nil, apperrors.Validation(fmt.Sprintf("select at most %d products, got %d", MaxStockSelection, len(products)))
	}
	if threshold < 0 {
		threshold = d.opts.LowStockThreshold
	}

	_, stock := d.tables()
	rows := Filter(stock, models.FilterSpec{models.ColStockProduct: products})
	return &StockView{
		Threshold: threshold,
		Products:  products,
		Summary:   SummarizeStock(rows, threshold),
		Rows:      rows,
		Low:       LowStock(rows, threshold),
	}, nil
}

func (d *Dashboard) ExternalEnabled() bool {
	return d.opts.Signals != nil
}

func (d *Dashboard) LowStockThreshold() int {
	return d.opts.LowStockThreshold
}

func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := map[string]any{
		"sales_rows":         len(d.sales),
		"stock_rows":         len(d.stock),
		"loads":              d.loads.Load(),
		"external_enabled":   d.ExternalEnabled(),
		"forecast_frequency": d.opts.Frequency,
	}
	if d.lastSales != nil {
		stats["last_sales"] = *d.lastSales
	}
	if d.lastStock != nil {
		stats["last_stock"] = *d.lastStock
	}
	return stats
}
