// Package usecase orchestrates one end-to-end pipeline run: ingest raw
// prices, compute metrics, refresh caches and emit the report.
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	metricentity "github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
	priceentity "github.com/UWorldJK/stocks-etl/internal/feature/prices/domain/entity"
	reportusecase "github.com/UWorldJK/stocks-etl/internal/feature/report/usecase"
)

// TickerSource yields the codes the pipeline should process.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type TickerSource interface {
	ActiveCodes(ctx context.Context, defaults []string) ([]string, error)
}

// PriceIngestor fetches and persists raw prices.
type PriceIngestor interface {
	IngestAll(ctx context.Context, tickers []string, lookbackDays int, exportPath string) ([]priceentity.DailyPrice, error)
}

// MetricComputer derives and persists metrics from raw prices.
type MetricComputer interface {
	ComputeAndStore(ctx context.Context, prices []priceentity.DailyPrice, exportPath string) ([]metricentity.DailyMetric, error)
}

// ReportGenerator emits the post-run report artifacts.
type ReportGenerator interface {
	Generate(ctx context.Context) (reportusecase.Report, error)
}

// CacheInvalidator drops cached reads after an upsert.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Options carries the per-run configuration.
type Options struct {
	Tickers           []string // default watchlist, used to seed the tickers table
	LookbackDays      int
	RawExportPath     string
	MetricsExportPath string
}

// PipelineUsecase runs the full ETL pass. Report and cache stages are
// best-effort; ingestion and computation failures abort the run.
type PipelineUsecase struct {
	tickers TickerSource
	ingest  PriceIngestor
	compute MetricComputer
	report  ReportGenerator  // nil disables reporting
	cache   CacheInvalidator // nil disables cache invalidation
	opts    Options
}

// NewPipelineUsecase creates a PipelineUsecase.
func NewPipelineUsecase(tickers TickerSource, ingest PriceIngestor, compute MetricComputer, report ReportGenerator, cache CacheInvalidator, opts Options) *PipelineUsecase {
	return &PipelineUsecase{
		tickers: tickers,
		ingest:  ingest,
		compute: compute,
		report:  report,
		cache:   cache,
		opts:    opts,
	}
}

// Run executes one pipeline pass and returns the first fatal error.
func (pu *PipelineUsecase) Run(ctx context.Context) error {
	codes, err := pu.tickers.ActiveCodes(ctx, pu.opts.Tickers)
	if err != nil {
		return fmt.Errorf("load tickers: %w", err)
	}
	slog.Info("pipeline started", "tickers", codes, "lookback_days", pu.opts.LookbackDays)

	prices, err := pu.ingest.IngestAll(ctx, codes, pu.opts.LookbackDays, pu.opts.RawExportPath)
	if err != nil {
		return fmt.Errorf("ingest prices: %w", err)
	}

	metrics, err := pu.compute.ComputeAndStore(ctx, prices, pu.opts.MetricsExportPath)
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}

	if pu.cache != nil {
		if err := pu.cache.Invalidate(ctx); err != nil {
			slog.Warn("cache invalidation failed", "error", err)
		}
	}

	chartCount := 0
	if pu.report != nil {
		rep, err := pu.report.Generate(ctx)
		if err != nil {
			// Report artifacts are best effort; the persisted data is
			// already consistent at this point.
			slog.Error("report generation failed", "error", err)
		}
		chartCount = len(rep.ChartPaths)
	}

	slog.Info("pipeline finished",
		"tickers", len(codes),
		"price_rows", len(prices),
		"metric_rows", len(metrics),
		"charts", chartCount,
	)
	return nil
}
