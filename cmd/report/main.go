// Command report renders the dashboard for a sales file, and optionally a
// stock file, as a markdown or HTML report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"smart-dashboard/internal/config"
	"smart-dashboard/internal/models"
	"smart-dashboard/internal/observability"
	"smart-dashboard/internal/report"
	"smart-dashboard/internal/services"
)

const runTimeout = time.Minute

type options struct {
	sales    string
	stock    string
	skip     int
	out      string
	format   string
	external bool
	products []string
}

func parseFlags(args []string, cfg *config.Config) (options, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	var (
		opts     options
		products string
	)
	fs.StringVar(&opts.sales, "sales", cfg.Data.SalesFile, "sales file (.xlsx or .csv)")
	fs.StringVar(&opts.stock, "stock", cfg.Data.StockFile, "stock file (.xlsx or .csv), optional")
	fs.IntVar(&opts.skip, "skip", cfg.Data.SalesSkipRows, "leading rows to skip in the sales file")
	fs.StringVar(&opts.out, "out", "report.md", `output path, "-" for stdout`)
	fs.StringVar(&opts.format, "format", "md", "md or html")
	fs.BoolVar(&opts.external, "external", false, "include external signals in insights")
	fs.StringVar(&products, "product", "", "comma separated product filter")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.sales == "" {
		return opts, fmt.Errorf("-sales is required")
	}
	if opts.skip < 0 {
		return opts, fmt.Errorf("-skip cannot be negative, got %d", opts.skip)
	}
	if opts.format != "md" && opts.format != "html" {
		return opts, fmt.Errorf("-format must be md or html, got %q", opts.format)
	}
	for _, p := range strings.Split(products, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.products = append(opts.products, p)
		}
	}
	return opts, nil
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger, stdout io.Writer) error {
	cfg.Data.SalesSkipRows = opts.skip
	d, err := services.NewDashboardFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	if _, err := d.LoadSalesFile(ctx, opts.sales); err != nil {
		return fmt.Errorf("load sales: %w", err)
	}
	if opts.stock != "" {
		if _, err := d.LoadStockFile(ctx, opts.stock); err != nil {
			return fmt.Errorf("load stock: %w", err)
		}
	}

	spec := models.FilterSpec{}
	if len(opts.products) > 0 {
		spec[models.ColProductName] = opts.products
	}
	in, err := report.FromDashboard(ctx, d, spec, opts.external)
	if err != nil {
		return err
	}

	body := report.Markdown(in)
	if opts.format == "html" {
		if body, err = report.HTML(body); err != nil {
			return err
		}
	}

	if opts.out == "-" {
		_, err = io.WriteString(stdout, body)
		return err
	}
	if err := os.WriteFile(opts.out, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("report written", "path", opts.out, "format", opts.format)
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLoggerTo(os.Stderr, cfg.Logger)

	opts, err := parseFlags(os.Args[1:], cfg)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := run(ctx, cfg, opts, logger, os.Stdout); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}
