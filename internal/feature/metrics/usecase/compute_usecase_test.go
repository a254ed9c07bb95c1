package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metricentity "github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
	priceentity "github.com/UWorldJK/stocks-etl/internal/feature/prices/domain/entity"
)

var ErrDB = errors.New("database error")

// mockMetricRepository is a mock implementation of the MetricRepository interface.
type mockMetricRepository struct {
	UpsertBatchFunc  func(ctx context.Context, metrics []metricentity.DailyMetric) error
	ExportCSVFunc    func(ctx context.Context, path string, windowDays int) error
	UpsertBatchCalls int
	ExportCSVCalls   int
}

func (m *mockMetricRepository) UpsertBatch(ctx context.Context, metrics []metricentity.DailyMetric) error {
	m.UpsertBatchCalls++
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, metrics)
	}
	return nil
}

func (m *mockMetricRepository) ExportCSV(ctx context.Context, path string, windowDays int) error {
	m.ExportCSVCalls++
	if m.ExportCSVFunc != nil {
		return m.ExportCSVFunc(ctx, path, windowDays)
	}
	return nil
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func pricesFor(ticker string, closes ...float64) []priceentity.DailyPrice {
	out := make([]priceentity.DailyPrice, len(closes))
	for i, c := range closes {
		out[i] = priceentity.DailyPrice{Date: day(i), Ticker: ticker, Close: c}
	}
	return out
}

func TestComputeUsecase_Compute(t *testing.T) {
	t.Parallel()

	cu := NewComputeUsecase(&mockMetricRepository{}, DefaultRSIPeriod)

	t.Run("groups by ticker and orders ticker then date ascending", func(t *testing.T) {
		t.Parallel()

		// Interleave two tickers with dates out of order.
		prices := []priceentity.DailyPrice{
			{Date: day(1), Ticker: "MSFT", Close: 310},
			{Date: day(0), Ticker: "AAPL", Close: 100},
			{Date: day(1), Ticker: "AAPL", Close: 110},
			{Date: day(0), Ticker: "MSFT", Close: 300},
		}

		out := cu.Compute(prices)
		require.Len(t, out, 4)

		assert.Equal(t, "AAPL", out[0].Ticker)
		assert.Equal(t, day(0), out[0].Date)
		assert.Equal(t, "AAPL", out[1].Ticker)
		assert.Equal(t, day(1), out[1].Date)
		assert.Equal(t, "MSFT", out[2].Ticker)
		assert.Equal(t, "MSFT", out[3].Ticker)

		// First row of each ticker has no previous close.
		assert.True(t, math.IsNaN(out[0].Return1D))
		assert.InDelta(t, 0.1, out[1].Return1D, floatTolerance)
		assert.True(t, math.IsNaN(out[2].Return1D))
		assert.InDelta(t, 1.0/30.0, out[3].Return1D, floatTolerance)
	})

	t.Run("short series leaves long-window metrics undefined", func(t *testing.T) {
		t.Parallel()

		out := cu.Compute(pricesFor("TSLA", 200, 202, 204, 206, 208, 210, 212, 214))
		require.Len(t, out, 8)

		last := out[len(out)-1]
		assert.False(t, math.IsNaN(last.MA7), "7 closes are enough for ma_7")
		assert.True(t, math.IsNaN(last.MA30), "30-day window cannot fill from 8 rows")
		assert.True(t, math.IsNaN(last.Vol30))
		assert.True(t, math.IsNaN(last.RSI), "14 observations needed for rsi")
	})

	t.Run("ma_7 is the mean of the trailing seven closes", func(t *testing.T) {
		t.Parallel()

		out := cu.Compute(pricesFor("SPY", 1, 2, 3, 4, 5, 6, 7))
		require.Len(t, out, 7)
		assert.InDelta(t, 4.0, out[6].MA7, floatTolerance)
	})

	t.Run("empty input yields no metrics", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, cu.Compute(nil))
	})
}

func TestComputeUsecase_ComputeAndStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prices := pricesFor("AAPL", 100, 101, 102)

	t.Run("success: upserts and exports the trailing window", func(t *testing.T) {
		t.Parallel()

		repo := &mockMetricRepository{
			ExportCSVFunc: func(ctx context.Context, path string, windowDays int) error {
				assert.Equal(t, "out.csv", path)
				assert.Equal(t, ExportWindowDays, windowDays)
				return nil
			},
		}
		cu := NewComputeUsecase(repo, 0)

		metrics, err := cu.ComputeAndStore(ctx, prices, "out.csv")
		require.NoError(t, err)
		assert.Len(t, metrics, 3)
		assert.Equal(t, 1, repo.UpsertBatchCalls)
		assert.Equal(t, 1, repo.ExportCSVCalls)
	})

	t.Run("upsert failure aborts the call", func(t *testing.T) {
		t.Parallel()

		repo := &mockMetricRepository{
			UpsertBatchFunc: func(ctx context.Context, metrics []metricentity.DailyMetric) error {
				return ErrDB
			},
		}
		cu := NewComputeUsecase(repo, 0)

		_, err := cu.ComputeAndStore(ctx, prices, "out.csv")
		assert.ErrorIs(t, err, ErrDB)
		assert.Equal(t, 0, repo.ExportCSVCalls, "export should not run after a failed upsert")
	})

	t.Run("export failure is logged but not fatal", func(t *testing.T) {
		t.Parallel()

		repo := &mockMetricRepository{
			ExportCSVFunc: func(ctx context.Context, path string, windowDays int) error {
				return ErrDB
			},
		}
		cu := NewComputeUsecase(repo, 0)

		metrics, err := cu.ComputeAndStore(ctx, prices, "out.csv")
		require.NoError(t, err)
		assert.Len(t, metrics, 3)
	})

	t.Run("empty export path skips the export", func(t *testing.T) {
		t.Parallel()

		repo := &mockMetricRepository{}
		cu := NewComputeUsecase(repo, 0)

		_, err := cu.ComputeAndStore(ctx, prices, "")
		require.NoError(t, err)
		assert.Equal(t, 0, repo.ExportCSVCalls)
	})
}
