package services

import (
	"log/slog"

	"smart-dashboard/internal/config"
	"smart-dashboard/internal/forecast"
	"smart-dashboard/internal/schema"
	"smart-dashboard/internal/signals"
)

// NewDashboardFromConfig builds a dashboard with the configured alias file,
// forecast settings and, when enabled, the external signal gateway.
func NewDashboardFromConfig(cfg *config.Config, logger *slog.Logger) (*Dashboard, error) {
	aliases := schema.Defaults()
	if cfg.Data.AliasFile != "" {
		loaded, err := schema.LoadAliasFile(cfg.Data.AliasFile)
		if err != nil {
			return nil, err
		}
		aliases = loaded
	}

	freq, err := forecast.ParseFrequency(cfg.Forecast.Frequency)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Aliases:       aliases,
		SalesSkipRows: cfg.Data.SalesSkipRows,
		SignalDefaults: signals.Request{
			Base:           cfg.External.BaseCurrency,
			Quote:          cfg.External.QuoteCurrency,
			Keywords:       cfg.External.TrendKeywords,
			LookbackMonths: cfg.External.LookbackMonths,
		},
		Frequency:         freq,
		ForecastStart:     cfg.Forecast.StartDate,
		ForecastHorizon:   cfg.Forecast.Horizon,
		LowStockThreshold: cfg.Restock.LowStockThreshold,
		Logger:            logger,
	}
	if cfg.External.Enabled {
		gateway, err := signals.NewGatewayFromConfig(cfg.External, logger)
		if err != nil {
			return nil, err
		}
		opts.Signals = gateway
	}
	return NewDashboard(opts), nil
}
