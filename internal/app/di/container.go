package di

import (
	"log/slog"

	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/UWorldJK/stocks-etl/internal/config"
	metricadapters "github.com/UWorldJK/stocks-etl/internal/feature/metrics/adapters"
	metricusecase "github.com/UWorldJK/stocks-etl/internal/feature/metrics/usecase"
	pipelineusecase "github.com/UWorldJK/stocks-etl/internal/feature/pipeline/usecase"
	priceadapters "github.com/UWorldJK/stocks-etl/internal/feature/prices/adapters"
	priceusecase "github.com/UWorldJK/stocks-etl/internal/feature/prices/usecase"
	chartadapter "github.com/UWorldJK/stocks-etl/internal/feature/report/adapters/chart"
	mailadapter "github.com/UWorldJK/stocks-etl/internal/feature/report/adapters/mail"
	reportusecase "github.com/UWorldJK/stocks-etl/internal/feature/report/usecase"
	tickeradapters "github.com/UWorldJK/stocks-etl/internal/feature/tickers/adapters"
	tickerusecase "github.com/UWorldJK/stocks-etl/internal/feature/tickers/usecase"
	"github.com/UWorldJK/stocks-etl/internal/platform/cache"
	infradb "github.com/UWorldJK/stocks-etl/internal/platform/db"
	infraredis "github.com/UWorldJK/stocks-etl/internal/platform/redis"
	"github.com/UWorldJK/stocks-etl/internal/shared/ratelimiter"
)

// Container holds the wired application components one command needs.
type Container struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Redis    *redisv9.Client // nil when the cache is disabled or unreachable
	Pipeline *pipelineusecase.PipelineUsecase
	Query    *metricusecase.QueryUsecase
	Report   *reportusecase.ReportUsecase
}

// Build opens the database and optional Redis connection and wires every
// usecase behind them.
func Build(cfg *config.Config) (*Container, error) {
	db, err := infradb.Open(infradb.Options{
		Driver: cfg.DB.Driver,
		Path:   cfg.DB.Path,
		DSN:    cfg.DB.DSN,
	})
	if err != nil {
		return nil, err
	}

	var rdb *redisv9.Client
	if cfg.Redis.Addr != "" {
		if tmp, err := infraredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password); err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
		} else {
			rdb = tmp
		}
	}

	// Repositories.
	priceRepo := priceadapters.NewPriceRepository(db)
	metricRepo := metricadapters.NewMetricRepository(db)
	tickerRepo := tickeradapters.NewTickerRepository(db)

	// Cached metric reads, refreshed on the cadence of the daily run.
	cachedMetrics := cache.NewCachingMetricRepository(rdb, cache.TimeUntilNextMidnightUTC(), metricRepo, "metrics")

	// Usecases.
	tickerUC := tickerusecase.NewTickerUsecase(tickerRepo)
	rl := ratelimiter.NewRateLimiter(cfg.Fetch.RateLimit, cfg.Fetch.RateInterval)
	ingestUC := priceusecase.NewIngestUsecase(NewMarket(cfg), priceRepo, rl)
	computeUC := metricusecase.NewComputeUsecase(metricRepo, cfg.Pipeline.RSIPeriod)
	queryUC := metricusecase.NewQueryUsecase(cachedMetrics)

	var mailer reportusecase.Mailer
	mailCfg := mailadapter.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		Sender:    cfg.SMTP.Sender,
		Recipient: cfg.SMTP.Recipient,
	}
	if mailCfg.Enabled() {
		mailer = mailadapter.NewSMTPMailer(mailCfg)
	}
	reportUC := reportusecase.NewReportUsecase(metricRepo, chartadapter.NewRenderer(), mailer, reportusecase.Options{
		ChartDir:  cfg.Pipeline.ChartDir,
		MaxCharts: cfg.Pipeline.MaxCharts,
	})

	pipelineUC := pipelineusecase.NewPipelineUsecase(tickerUC, ingestUC, computeUC, reportUC, cachedMetrics, pipelineusecase.Options{
		Tickers:           cfg.Pipeline.Tickers,
		LookbackDays:      cfg.Pipeline.LookbackDays,
		RawExportPath:     cfg.Pipeline.RawExportPath,
		MetricsExportPath: cfg.Pipeline.MetricsExportPath,
	})

	return &Container{
		Cfg:      cfg,
		DB:       db,
		Redis:    rdb,
		Pipeline: pipelineUC,
		Query:    queryUC,
		Report:   reportUC,
	}, nil
}

// Close releases the container's external connections.
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}
