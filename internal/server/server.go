package server

import (
	"log/slog"
	"net/http"

	"smart-dashboard/internal/handlers"
	"smart-dashboard/internal/services"
)

type Server struct {
	dashboard   *services.Dashboard
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(dashboard *services.Dashboard, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		dashboard:   dashboard,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("GET /report", s.apiHandlers.HandleReport)

	// Uploads
	s.mux.HandleFunc("POST /api/upload/sales", s.apiHandlers.HandleUploadSales)
	s.mux.HandleFunc("POST /api/upload/stock", s.apiHandlers.HandleUploadStock)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/products", s.apiHandlers.HandleProducts)
	s.mux.HandleFunc("GET /api/restock", s.apiHandlers.HandleRestock)
	s.mux.HandleFunc("GET /api/insights", s.apiHandlers.HandleInsights)
	s.mux.HandleFunc("GET /api/signals", s.apiHandlers.HandleSignals)
	s.mux.HandleFunc("GET /api/forecast", s.apiHandlers.HandleForecast)
	s.mux.HandleFunc("GET /api/stock", s.apiHandlers.HandleStock)

	// CSV exports
	s.mux.HandleFunc("GET /export/sales.csv", s.apiHandlers.HandleExportSales)
	s.mux.HandleFunc("GET /export/rollup.csv", s.apiHandlers.HandleExportRollup)
	s.mux.HandleFunc("GET /export/restock.csv", s.apiHandlers.HandleExportRestock)
	s.mux.HandleFunc("GET /export/stock.csv", s.apiHandlers.HandleExportStock)
	s.mux.HandleFunc("GET /export/stock-low.csv", s.apiHandlers.HandleExportLowStock)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/summary", s.sseHandlers.HandleSummary)
	s.mux.HandleFunc("GET /sse/products", s.sseHandlers.HandleProducts)
	s.mux.HandleFunc("GET /sse/restock", s.sseHandlers.HandleRestock)
	s.mux.HandleFunc("GET /sse/insights", s.sseHandlers.HandleInsights)
	s.mux.HandleFunc("GET /sse/stock", s.sseHandlers.HandleStock)
	s.mux.HandleFunc("GET /sse/forecast", s.sseHandlers.HandleForecast)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
