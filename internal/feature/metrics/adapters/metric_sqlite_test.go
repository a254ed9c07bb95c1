package adapters

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&MetricModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func metricOn(date time.Time, ticker string, rsi float64) entity.DailyMetric {
	return entity.DailyMetric{
		Date:     date,
		Ticker:   ticker,
		Return1D: 0.01,
		MA7:      100,
		MA30:     math.NaN(),
		Vol7:     0.02,
		Vol30:    math.NaN(),
		RSI:      rsi,
	}
}

func TestMetricSQL_UpsertBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewMetricRepository(db)

	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertBatch(ctx, []entity.DailyMetric{metricOn(d, "AAPL", 55)}))

	// Same (date,ticker) again must update in place, not duplicate.
	require.NoError(t, repo.UpsertBatch(ctx, []entity.DailyMetric{metricOn(d, "AAPL", 60)}))

	var count int64
	require.NoError(t, db.Model(&MetricModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rows, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 60, rows[0].RSI, 1e-9)
	assert.True(t, math.IsNaN(rows[0].MA30), "NULL column must round-trip to NaN")

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.UpsertBatch(ctx, nil))
	})
}

func TestMetricSQL_Recent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewMetricRepository(db)

	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	seed := []entity.DailyMetric{
		metricOn(d1, "MSFT", 40),
		metricOn(d2, "MSFT", 41),
		metricOn(d1, "AAPL", 50),
		metricOn(d2, "AAPL", 51),
	}
	require.NoError(t, repo.UpsertBatch(ctx, seed))

	t.Run("orders by date descending then ticker ascending", func(t *testing.T) {
		rows, err := repo.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, rows, 4)

		assert.Equal(t, d2, rows[0].Date.UTC())
		assert.Equal(t, "AAPL", rows[0].Ticker)
		assert.Equal(t, "MSFT", rows[1].Ticker)
		assert.Equal(t, d1, rows[2].Date.UTC())
		assert.Equal(t, "AAPL", rows[2].Ticker)
		assert.Equal(t, "MSFT", rows[3].Ticker)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		rows, err := repo.Recent(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("empty table yields no rows", func(t *testing.T) {
		empty := NewMetricRepository(setupTestDB(t))
		rows, err := empty.Recent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestMetricSQL_RecentWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewMetricRepository(db)

	now := time.Now().UTC().Truncate(24 * time.Hour)
	inside := metricOn(now.AddDate(0, 0, -5), "AAPL", 50)
	outside := metricOn(now.AddDate(0, 0, -200), "AAPL", 50)
	require.NoError(t, repo.UpsertBatch(ctx, []entity.DailyMetric{inside, outside}))

	rows, err := repo.RecentWindow(ctx, 120)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inside.Date, rows[0].Date.UTC())

	t.Run("cutoff is date-granular", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewMetricRepository(db)

		// A row dated exactly windowDays ago sits at midnight UTC; a
		// wall-clock cutoff would exclude it for most of the day.
		edge := metricOn(now.AddDate(0, 0, -120), "AAPL", 50)
		require.NoError(t, repo.UpsertBatch(ctx, []entity.DailyMetric{edge}))

		rows, err := repo.RecentWindow(ctx, 120)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, edge.Date, rows[0].Date.UTC())
	})
}

func TestMetricSQL_ExportCSV(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewMetricRepository(db)

	now := time.Now().UTC().Truncate(24 * time.Hour)
	require.NoError(t, repo.UpsertBatch(ctx, []entity.DailyMetric{
		metricOn(now.AddDate(0, 0, -1), "AAPL", 55),
		metricOn(now, "AAPL", math.NaN()),
	}))

	path := filepath.Join(t.TempDir(), "export", "daily_metrics.csv")
	require.NoError(t, repo.ExportCSV(ctx, path, 120))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3, "header plus two rows")

	assert.Equal(t, []string{"date", "ticker", "return_1d", "ma_7", "ma_30", "vol_7", "vol_30", "rsi"}, recs[0])

	// Newest date first; undefined metrics are empty cells.
	assert.Equal(t, now.Format("2006-01-02"), recs[1][0])
	assert.Equal(t, "", recs[1][7], "NaN rsi must export as empty")
	assert.Equal(t, "55", recs[2][7])
	assert.Equal(t, "", recs[1][4], "NaN ma_30 must export as empty")
}
