package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Logger   LoggerConfig
	Security SecurityConfig
	External ExternalConfig
	Forecast ForecastConfig
	Restock  RestockConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DataConfig describes where tables come from. The seed files are optional;
// without them the dashboard starts empty and waits for an upload.
type DataConfig struct {
	SalesFile      string
	StockFile      string
	SalesSkipRows  int
	AliasFile      string
	MaxUploadBytes int64
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

type ExternalConfig struct {
	Enabled        bool
	ExchangeURL    string
	BaseCurrency   string
	QuoteCurrency  string
	Timeout        time.Duration
	TrendURL       string
	TrendKeywords  []string
	LookbackMonths int
	CacheSize      int
	InflationYoY   float64
}

type ForecastConfig struct {
	Frequency string
	Horizon   int
	StartDate time.Time
}

type RestockConfig struct {
	LowStockThreshold int
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			SalesFile:      getEnvString("SALES_FILE", ""),
			StockFile:      getEnvString("STOCK_FILE", ""),
			SalesSkipRows:  getEnvInt("SALES_SKIP_ROWS", 2),
			AliasFile:      getEnvString("ALIAS_FILE", ""),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 16<<20)),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 50),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 20),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		External: ExternalConfig{
			Enabled:        getEnvBool("EXTERNAL_ENABLED", false),
			ExchangeURL:    getEnvString("EXTERNAL_EXCHANGE_URL", "https://api.exchangerate.host/latest"),
			BaseCurrency:   getEnvString("EXTERNAL_BASE_CURRENCY", "USD"),
			QuoteCurrency:  getEnvString("EXTERNAL_QUOTE_CURRENCY", "IDR"),
			Timeout:        getEnvDuration("EXTERNAL_TIMEOUT", 8*time.Second),
			TrendURL:       getEnvString("EXTERNAL_TREND_URL", ""),
			TrendKeywords:  getEnvStringSlice("EXTERNAL_TREND_KEYWORDS", []string{"kebaya", "kebaya modern", "kebaya modern indonesia"}),
			LookbackMonths: getEnvInt("EXTERNAL_TREND_MONTHS", 6),
			CacheSize:      getEnvInt("EXTERNAL_CACHE_SIZE", 16),
			InflationYoY:   getEnvFloat("EXTERNAL_INFLATION_YOY", 3.5),
		},
		Forecast: ForecastConfig{
			Frequency: getEnvString("FORECAST_FREQUENCY", "monthly"),
			Horizon:   getEnvInt("FORECAST_HORIZON", 3),
			StartDate: getEnvDate("FORECAST_START_DATE", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
		Restock: RestockConfig{
			LowStockThreshold: getEnvInt("RESTOCK_LOW_STOCK_THRESHOLD", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.SalesSkipRows < 0 {
		return fmt.Errorf("sales skip rows cannot be negative, got %d", c.Data.SalesSkipRows)
	}

	if c.Data.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.External.Timeout <= 0 {
		return fmt.Errorf("external timeout must be positive")
	}

	if c.External.CacheSize <= 0 {
		return fmt.Errorf("external cache size must be positive")
	}

	if c.External.LookbackMonths < 1 || c.External.LookbackMonths > 36 {
		return fmt.Errorf("trend lookback must be between 1 and 36 months, got %d", c.External.LookbackMonths)
	}

	validFrequencies := []string{"monthly", "daily"}
	if !slices.Contains(validFrequencies, c.Forecast.Frequency) {
		return fmt.Errorf("invalid forecast frequency %q, must be one of: %s", c.Forecast.Frequency, strings.Join(validFrequencies, ", "))
	}

	if c.Forecast.Horizon < 1 || c.Forecast.Horizon > 12 {
		return fmt.Errorf("forecast horizon must be between 1 and 12, got %d", c.Forecast.Horizon)
	}

	if c.Restock.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold cannot be negative")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvDate(key string, defaultValue time.Time) time.Time {
	if value := os.Getenv(key); value != "" {
		if date, err := time.Parse(time.DateOnly, value); err == nil {
			return date
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
