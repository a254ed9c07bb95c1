// Package usecase implements the metric computation business logic.
package usecase

import (
	"context"
	"log/slog"
	"sort"

	metricentity "github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
	priceentity "github.com/UWorldJK/stocks-etl/internal/feature/prices/domain/entity"
)

const (
	// DefaultRSIPeriod is Wilder's classic RSI lookback.
	DefaultRSIPeriod = 14
	// ExportWindowDays is the trailing window exported to CSV after a run.
	ExportWindowDays = 120

	maShortWindow  = 7
	maLongWindow   = 30
	volShortWindow = 7
	volLongWindow  = 30
)

// MetricRepository abstracts the persistence layer for computed metrics.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MetricRepository interface {
	UpsertBatch(ctx context.Context, metrics []metricentity.DailyMetric) error
	ExportCSV(ctx context.Context, path string, windowDays int) error
}

// ComputeUsecase derives per-ticker technical metrics from raw daily prices
// and persists them as daily_metrics rows.
type ComputeUsecase struct {
	metrics   MetricRepository
	rsiPeriod int
}

// NewComputeUsecase creates a ComputeUsecase. A non-positive rsiPeriod
// falls back to DefaultRSIPeriod.
func NewComputeUsecase(metrics MetricRepository, rsiPeriod int) *ComputeUsecase {
	if rsiPeriod <= 0 {
		rsiPeriod = DefaultRSIPeriod
	}
	return &ComputeUsecase{metrics: metrics, rsiPeriod: rsiPeriod}
}

// Compute derives metrics for every input price row. Rows are grouped per
// ticker and processed in date-ascending order; output ordering follows the
// same convention.
func (cu *ComputeUsecase) Compute(prices []priceentity.DailyPrice) []metricentity.DailyMetric {
	byTicker := map[string][]priceentity.DailyPrice{}
	var tickers []string
	for _, p := range prices {
		if _, ok := byTicker[p.Ticker]; !ok {
			tickers = append(tickers, p.Ticker)
		}
		byTicker[p.Ticker] = append(byTicker[p.Ticker], p)
	}
	sort.Strings(tickers)

	var out []metricentity.DailyMetric
	for _, t := range tickers {
		series := byTicker[t]
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

		closes := make([]float64, len(series))
		for i, p := range series {
			closes[i] = p.Close
		}

		returns := pctChange(closes)
		ma7 := rollingMean(closes, maShortWindow)
		ma30 := rollingMean(closes, maLongWindow)
		vol7 := rollingStd(returns, volShortWindow)
		vol30 := rollingStd(returns, volLongWindow)
		rsi := wilderRSI(closes, cu.rsiPeriod)

		for i, p := range series {
			out = append(out, metricentity.DailyMetric{
				Date:     p.Date,
				Ticker:   p.Ticker,
				Return1D: returns[i],
				MA7:      ma7[i],
				MA30:     ma30[i],
				Vol7:     vol7[i],
				Vol30:    vol30[i],
				RSI:      rsi[i],
			})
		}
	}
	return out
}

// ComputeAndStore computes metrics, upserts them and exports the trailing
// ExportWindowDays window to exportPath (skipped when empty).
func (cu *ComputeUsecase) ComputeAndStore(ctx context.Context, prices []priceentity.DailyPrice, exportPath string) ([]metricentity.DailyMetric, error) {
	metrics := cu.Compute(prices)
	if err := cu.metrics.UpsertBatch(ctx, metrics); err != nil {
		return nil, err
	}
	if exportPath != "" {
		if err := cu.metrics.ExportCSV(ctx, exportPath, ExportWindowDays); err != nil {
			slog.Error("failed to export daily metrics", "path", exportPath, "error", err)
		}
	}
	return metrics, nil
}
