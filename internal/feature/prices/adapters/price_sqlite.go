// Package adapters provides the repository implementations for the prices feature.
package adapters

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UWorldJK/stocks-etl/internal/feature/prices/domain/entity"
	"github.com/UWorldJK/stocks-etl/internal/feature/prices/usecase"
)

type priceSQL struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceSQL)(nil)

// NewPriceRepository creates a gorm-backed PriceRepository.
func NewPriceRepository(db *gorm.DB) *priceSQL {
	return &priceSQL{db: db}
}

// PriceModel is the persistence model for the raw_prices table.
type PriceModel struct {
	ID     uint      `gorm:"primaryKey"`
	Date   time.Time `gorm:"not null;uniqueIndex:raw_price_date_ticker,priority:1"`
	Ticker string    `gorm:"size:32;not null;uniqueIndex:raw_price_date_ticker,priority:2"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (PriceModel) TableName() string {
	return "raw_prices"
}

func toModel(e entity.DailyPrice) PriceModel {
	return PriceModel{
		Date:   e.Date,
		Ticker: e.Ticker,
		Open:   e.Open,
		High:   e.High,
		Low:    e.Low,
		Close:  e.Close,
		Volume: e.Volume,
	}
}

func (r *priceSQL) UpsertBatch(ctx context.Context, prices []entity.DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}
	ms := make([]PriceModel, 0, len(prices))
	for _, e := range prices {
		ms = append(ms, toModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(&ms, 500).Error
}

// ExportCSV writes the whole raw_prices table to path, newest date first,
// tickers ascending within a date.
func (r *priceSQL) ExportCSV(ctx context.Context, path string) error {
	var rows []PriceModel
	if err := r.db.WithContext(ctx).
		Order("date DESC, ticker ASC").
		Find(&rows).Error; err != nil {
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
	if err := w.Write([]string{"date", "ticker", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, m := range rows {
		rec := []string{
			m.Date.Format("2006-01-02"),
			m.Ticker,
			strconv.FormatFloat(m.Open, 'f', -1, 64),
			strconv.FormatFloat(m.High, 'f', -1, 64),
			strconv.FormatFloat(m.Low, 'f', -1, 64),
			strconv.FormatFloat(m.Close, 'f', -1, 64),
			strconv.FormatInt(m.Volume, 10),
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
