package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"smart-dashboard/internal/config"
	"smart-dashboard/internal/middleware"
	"smart-dashboard/internal/observability"
	"smart-dashboard/internal/server"
	"smart-dashboard/internal/services"
	"smart-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	seedTimeout   = 30 * time.Second
	pageTitle     = "Smart Sales Dashboard"
)

// dashboardPage renders the full page from the current tables. Uploads change
// the page, so it is never cached.
func dashboardPage(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		view, err := d.View(nil)
		if err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}
		products := make([]string, 0, len(view.Products))
		for _, p := range view.Products {
			products = append(products, p.ProductName)
		}

		page := templates.Page{
			Title:           pageTitle,
			HasSales:        d.HasSales(),
			HasStock:        d.HasStock(),
			ExternalEnabled: d.ExternalEnabled(),
			Threshold:       d.LowStockThreshold(),
			Options:         d.FilterOptions(),
			StockProducts:   d.StockProducts(),
			Products:        products,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// seed loads the optional startup files. A bad seed file is logged and the
// dashboard starts without it.
func seed(d *services.Dashboard, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	if cfg.Data.SalesFile != "" {
		if _, err := d.LoadSalesFile(ctx, cfg.Data.SalesFile); err != nil {
			logger.Error("failed to load sales file", "path", cfg.Data.SalesFile, "error", err)
		}
	}
	if cfg.Data.StockFile != "" {
		if _, err := d.LoadStockFile(ctx, cfg.Data.StockFile); err != nil {
			logger.Error("failed to load stock file", "path", cfg.Data.StockFile, "error", err)
		}
	}
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

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	dashboard, err := services.NewDashboardFromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build dashboard", "error", err)
		os.Exit(1)
	}
	seed(dashboard, cfg, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(dashboard),
	}

	srv := server.NewServer(dashboard, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.UploadLimit(cfg.Data.MaxUploadBytes),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("dashboard", func(ctx context.Context) error {
		logger.Info("shutting down dashboard", "stats", dashboard.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
