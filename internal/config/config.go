// Package config loads the application configuration from .env files,
// environment variables and defaults.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline and its services.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	DB       DBConfig       `mapstructure:"db"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
}

type AppConfig struct {
	LogLevel   string `mapstructure:"log_level"`  // debug, info, warn, error
	LogFormat  string `mapstructure:"log_format"` // text or json
	StatusPort int    `mapstructure:"status_port"`
}

type PipelineConfig struct {
	Tickers           []string `mapstructure:"tickers"`
	LookbackDays      int      `mapstructure:"lookback_days"`
	RSIPeriod         int      `mapstructure:"rsi_period"`
	RawExportPath     string   `mapstructure:"raw_export_path"`
	MetricsExportPath string   `mapstructure:"metrics_export_path"`
	ChartDir          string   `mapstructure:"chart_dir"`
	MaxCharts         int      `mapstructure:"max_charts"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Path   string `mapstructure:"path"`   // sqlite database file
	DSN    string `mapstructure:"dsn"`    // postgres connection string
}

type ScheduleConfig struct {
	CronSpec      string `mapstructure:"cron_spec"`
	OverlapPolicy string `mapstructure:"overlap_policy"` // skip or allow
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // empty disables the read cache
	Password string `mapstructure:"password"`
}

type SMTPConfig struct {
	Host      string `mapstructure:"host"` // empty disables mail
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Sender    string `mapstructure:"sender"`
	Recipient string `mapstructure:"recipient"`
}

type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    uint64        `mapstructure:"max_retries"`
	RateLimit     int           `mapstructure:"rate_limit"` // calls per interval
	RateInterval  time.Duration `mapstructure:"rate_interval"`
	MarketBaseURL string        `mapstructure:"market_base_url"` // override for tests
}

// LoadConfig reads configuration from a .env file, environment variables,
// and defaults, in that order of increasing priority for env vars.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the process environment if present, so flat vars
	// like TICKERS work the same in and out of containers.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")
	v.SetDefault("app.status_port", 0)

	v.SetDefault("tickers", "AAPL,MSFT,TSLA,SPY,QQQ")
	v.SetDefault("lookback_days", 400)
	v.SetDefault("rsi_period", 14)
	v.SetDefault("pipeline.raw_export_path", "data/raw_prices_export.csv")
	v.SetDefault("pipeline.metrics_export_path", "data/daily_metrics.csv")
	v.SetDefault("pipeline.chart_dir", "data/charts")
	v.SetDefault("pipeline.max_charts", 3)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "data/market.db")
	v.SetDefault("db.dsn", "")

	// Weekdays shortly after the US close.
	v.SetDefault("schedule.cron_spec", "30 21 * * 1-5")
	v.SetDefault("schedule.overlap_policy", "skip")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.sender", "")
	v.SetDefault("smtp.recipient", "")

	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit", 8)
	v.SetDefault("fetch.rate_interval", time.Minute)
	v.SetDefault("fetch.market_base_url", "")

	// Map dot-notation keys to underscore env vars (db.driver -> DB_DRIVER).
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v,
		"app.log_level", "app.log_format", "app.status_port",
		"tickers", "lookback_days", "rsi_period",
		"pipeline.raw_export_path", "pipeline.metrics_export_path",
		"pipeline.chart_dir", "pipeline.max_charts",
		"db.driver", "db.path", "db.dsn",
		"schedule.cron_spec", "schedule.overlap_policy",
		"redis.addr", "redis.password",
		"smtp.host", "smtp.port", "smtp.username", "smtp.password",
		"smtp.sender", "smtp.recipient",
		"fetch.timeout", "fetch.max_retries", "fetch.rate_limit",
		"fetch.rate_interval", "fetch.market_base_url",
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Tickers arrive as one comma-separated env var (the original
	// TICKERS contract), so split and trim here.
	cfg.Pipeline.Tickers = splitTickers(v.GetString("tickers"))
	cfg.Pipeline.LookbackDays = v.GetInt("lookback_days")
	cfg.Pipeline.RSIPeriod = v.GetInt("rsi_period")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Pipeline.Tickers) == 0 {
		return fmt.Errorf("tickers cannot be empty")
	}
	if c.Pipeline.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive")
	}
	if c.Pipeline.RSIPeriod <= 0 {
		return fmt.Errorf("rsi_period must be positive")
	}
	if c.Schedule.CronSpec == "" {
		return fmt.Errorf("schedule cron_spec cannot be empty")
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("db driver must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.DB.Driver == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("postgres driver requires db dsn")
	}
	return nil
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// bindEnv is a helper to bind multiple keys at once.
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			slog.Warn("could not bind env var", "key", key, "error", err)
		}
	}
}
