// Package adapters provides the repository implementations for the metrics feature.
package adapters

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/usecase"
)

type metricSQL struct {
	db *gorm.DB
}

var (
	_ usecase.MetricRepository     = (*metricSQL)(nil)
	_ usecase.MetricReadRepository = (*metricSQL)(nil)
)

// NewMetricRepository creates a gorm-backed metrics repository.
func NewMetricRepository(db *gorm.DB) *metricSQL {
	return &metricSQL{db: db}
}

// MetricModel is the persistence model for the daily_metrics table.
// Metric columns are nullable: a NULL marks an incomplete rolling window.
type MetricModel struct {
	ID     uint      `gorm:"primaryKey"`
	Date   time.Time `gorm:"not null;uniqueIndex:metric_date_ticker,priority:1"`
	Ticker string    `gorm:"size:32;not null;uniqueIndex:metric_date_ticker,priority:2"`

	Return1D *float64 `gorm:"column:return_1d"`
	MA7      *float64 `gorm:"column:ma_7"`
	MA30     *float64 `gorm:"column:ma_30"`
	Vol7     *float64 `gorm:"column:vol_7"`
	Vol30    *float64 `gorm:"column:vol_30"`
	RSI      *float64 `gorm:"column:rsi"`
}

func (MetricModel) TableName() string {
	return "daily_metrics"
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func toModel(e entity.DailyMetric) MetricModel {
	return MetricModel{
		Date:     e.Date,
		Ticker:   e.Ticker,
		Return1D: nullable(e.Return1D),
		MA7:      nullable(e.MA7),
		MA30:     nullable(e.MA30),
		Vol7:     nullable(e.Vol7),
		Vol30:    nullable(e.Vol30),
		RSI:      nullable(e.RSI),
	}
}

func toEntity(m MetricModel) entity.DailyMetric {
	return entity.DailyMetric{
		Date:     m.Date,
		Ticker:   m.Ticker,
		Return1D: value(m.Return1D),
		MA7:      value(m.MA7),
		MA30:     value(m.MA30),
		Vol7:     value(m.Vol7),
		Vol30:    value(m.Vol30),
		RSI:      value(m.RSI),
	}
}

func (r *metricSQL) UpsertBatch(ctx context.Context, metrics []entity.DailyMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	ms := make([]MetricModel, 0, len(metrics))
	for _, e := range metrics {
		ms = append(ms, toModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"return_1d", "ma_7", "ma_30", "vol_7", "vol_30", "rsi"}),
	}).CreateInBatches(&ms, 500).Error
}

// Recent returns up to limit rows, newest date first, tickers ascending
// within a date.
func (r *metricSQL) Recent(ctx context.Context, limit int) ([]entity.DailyMetric, error) {
	var rows []MetricModel
	q := r.db.WithContext(ctx).Order("date DESC, ticker ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.DailyMetric, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// RecentWindow returns every row whose date falls within the trailing
// windowDays, newest date first. The cutoff is taken at midnight UTC so
// the window is date-granular regardless of when the query runs.
func (r *metricSQL) RecentWindow(ctx context.Context, windowDays int) ([]entity.DailyMetric, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -windowDays)
	var rows []MetricModel
	if err := r.db.WithContext(ctx).
		Where("date >= ?", cutoff).
		Order("date DESC, ticker ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.DailyMetric, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// ExportCSV writes the trailing windowDays of daily_metrics to path,
// newest date first. NaN metrics become empty cells.
func (r *metricSQL) ExportCSV(ctx context.Context, path string, windowDays int) error {
	rows, err := r.RecentWindow(ctx, windowDays)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "ticker", "return_1d", "ma_7", "ma_30", "vol_7", "vol_30", "rsi"}); err != nil {
		return err
	}
	for _, m := range rows {
		rec := []string{
			m.Date.Format("2006-01-02"),
			m.Ticker,
			formatCell(m.Return1D),
			formatCell(m.MA7),
			formatCell(m.MA30),
			formatCell(m.Vol7),
			formatCell(m.Vol30),
			formatCell(m.RSI),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	return nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
