// Package usecase implements the business logic for price ingestion.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/UWorldJK/stocks-etl/internal/feature/prices/domain/entity"
	"github.com/UWorldJK/stocks-etl/internal/shared/ratelimiter"
)

// ErrNoPrices is returned when ingestion produced no rows for any ticker.
var ErrNoPrices = errors.New("no prices ingested for any ticker")

// MarketRepository abstracts the upstream market data source.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetDailyPrices(ctx context.Context, ticker string, lookbackDays int) ([]entity.DailyPrice, error)
}

// PriceRepository abstracts the persistence layer for raw daily prices.
type PriceRepository interface {
	UpsertBatch(ctx context.Context, prices []entity.DailyPrice) error
	ExportCSV(ctx context.Context, path string) error
}

// IngestUsecase fetches daily prices from the market data source and
// persists them as raw_prices rows.
type IngestUsecase struct {
	market      MarketRepository
	prices      PriceRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewIngestUsecase creates a new IngestUsecase.
func NewIngestUsecase(market MarketRepository, prices PriceRepository, rl ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{market: market, prices: prices, rateLimiter: rl}
}

// IngestAll fetches the lookback window for every ticker, upserts the rows
// and exports the full raw_prices table to exportPath (skipped when empty).
// A ticker that fails to fetch is logged and skipped; the run only fails
// when no ticker yields data. The returned slice is sorted by ticker then
// date ascending, ready for metric computation.
func (iu *IngestUsecase) IngestAll(ctx context.Context, tickers []string, lookbackDays int, exportPath string) ([]entity.DailyPrice, error) {
	var all []entity.DailyPrice
	for _, t := range tickers {
		iu.rateLimiter.WaitIfNeeded()
		ps, err := iu.market.GetDailyPrices(ctx, t, lookbackDays)
		if err != nil {
			// One failing ticker must not abort the whole run.
			slog.Error("failed to fetch prices", "ticker", t, "error", err)
			continue
		}
		for i := range ps {
			ps[i].Ticker = t
		}
		all = append(all, ps...)
	}
	if len(tickers) > 0 && len(all) == 0 {
		return nil, ErrNoPrices
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Ticker != all[j].Ticker {
			return all[i].Ticker < all[j].Ticker
		}
		return all[i].Date.Before(all[j].Date)
	})

	if err := iu.prices.UpsertBatch(ctx, all); err != nil {
		return nil, err
	}
	if exportPath != "" {
		if err := iu.prices.ExportCSV(ctx, exportPath); err != nil {
			// Export is a convenience artifact, not pipeline state.
			slog.Error("failed to export raw prices", "path", exportPath, "error", err)
		}
	}
	return all, nil
}
