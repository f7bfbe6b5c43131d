package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"smart-dashboard/internal/config"
)

// TrendProvider reports the mean search interest per keyword over the last
// months months.
type TrendProvider interface {
	Interest(ctx context.Context, keywords []string, months int) (map[string]float64, error)
}

type Options struct {
	ExchangeURL  string
	Timeout      time.Duration
	CacheSize    int
	InflationYoY float64
	Trends       TrendProvider
	Client       *http.Client
}

type Gateway struct {
	client       *http.Client
	exchangeURL  string
	timeout      time.Duration
	inflationYoY float64
	trends       TrendProvider
	cache        *lru.Cache[string, any]
	logger       *slog.Logger
	now          func() time.Time
}

func NewGateway(opts Options, logger *slog.Logger) (*Gateway, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 16
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.New[string, any](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create signal cache: %w", err)
	}

	return &Gateway{
		client:       opts.Client,
		exchangeURL:  opts.ExchangeURL,
		timeout:      opts.Timeout,
		inflationYoY: opts.InflationYoY,
		trends:       opts.Trends,
		cache:        cache,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func NewGatewayFromConfig(cfg config.ExternalConfig, logger *slog.Logger) (*Gateway, error) {
	opts := Options{
		ExchangeURL:  cfg.ExchangeURL,
		Timeout:      cfg.Timeout,
		CacheSize:    cfg.CacheSize,
		InflationYoY: cfg.InflationYoY,
	}
	if cfg.TrendURL != "" {
		opts.Trends = &HTTPTrendProvider{URL: cfg.TrendURL}
	}
	return NewGateway(opts, logger)
}

// Fetch gathers all signals concurrently and returns them as one snapshot,
// so a view never mixes readings from different fetches.
func (g *Gateway) Fetch(ctx context.Context, req Request) *Snapshot {
	var (
		exchange  *ExchangeRate
		inflation *Inflation
		trends    map[string]float64
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		exchange = g.ExchangeRate(egCtx, req.Base, req.Quote)
		return nil
	})
	eg.Go(func() error {
		inflation = g.Inflation(egCtx)
		return nil
	})
	eg.Go(func() error {
		trends = g.SearchTrends(egCtx, req.Keywords, req.LookbackMonths)
		return nil
	})
	_ = eg.Wait()

	return &Snapshot{
		Exchange:  exchange,
		Inflation: inflation,
		Trends:    trends,
		FetchedAt: g.now().UTC(),
	}
}

type exchangeResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// ExchangeRate looks up base/quote. Only successful lookups are cached.
func (g *Gateway) ExchangeRate(ctx context.Context, base, quote string) *ExchangeRate {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	key := "fx|" + base + "|" + quote
	if v, ok := g.cache.Get(key); ok {
		return v.(*ExchangeRate)
	}
	if g.exchangeURL == "" {
		return nil
	}

	u, err := url.Parse(g.exchangeURL)
	if err != nil {
		g.unavailable("exchange_rate", err)
		return nil
	}
	q := u.Query()
	q.Set("base", base)
	q.Set("symbols", quote)
	u.RawQuery = q.Encode()

	var resp exchangeResponse
	if err := g.getJSON(ctx, u.String(), &resp); err != nil {
		g.unavailable("exchange_rate", err)
		return nil
	}

	rate, ok := resp.Rates[quote]
	if !ok {
		g.unavailable("exchange_rate", fmt.Errorf("no %s rate in response", quote))
		return nil
	}

	reading := &ExchangeRate{Base: base, Quote: quote, Rate: rate, AsOf: resp.Date}
	g.cache.Add(key, reading)
	return reading
}

// Inflation returns the configured year-on-year figure. There is no live
// source yet; the reading is stamped with today's date.
func (g *Gateway) Inflation(ctx context.Context) *Inflation {
	const key = "inflation"
	if v, ok := g.cache.Get(key); ok {
		return v.(*Inflation)
	}
	if ctx.Err() != nil {
		return nil
	}

	reading := &Inflation{
		YoYPercent: g.inflationYoY,
		AsOf:       g.now().UTC().Format(time.DateOnly),
	}
	g.cache.Add(key, reading)
	return reading
}

// SearchTrends returns nil when no provider is configured or the provider
// fails or has nothing for the keywords.
func (g *Gateway) SearchTrends(ctx context.Context, keywords []string, months int) map[string]float64 {
	if g.trends == nil || len(keywords) == 0 {
		return nil
	}
	months = max(1, months)

	key := fmt.Sprintf("trends|%d|%s", months, strings.Join(keywords, ","))
	if v, ok := g.cache.Get(key); ok {
		return v.(map[string]float64)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	scores, err := g.trends.Interest(ctx, keywords, months)
	if err != nil {
		g.unavailable("search_trends", err)
		return nil
	}
	if len(scores) == 0 {
		g.unavailable("search_trends", fmt.Errorf("no data for %q", keywords))
		return nil
	}

	g.cache.Add(key, scores)
	return scores
}

func (g *Gateway) getJSON(ctx context.Context, rawURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (g *Gateway) unavailable(signal string, err error) {
	g.logger.Warn("external signal unavailable", "signal", signal, "error", err)
}
