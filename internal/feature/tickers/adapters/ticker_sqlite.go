// Package adapters provides the repository implementations for the tickers feature.
package adapters

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UWorldJK/stocks-etl/internal/feature/tickers/domain/entity"
	"github.com/UWorldJK/stocks-etl/internal/feature/tickers/usecase"
)

type tickerSQL struct {
	db *gorm.DB
}

var _ usecase.TickerRepository = (*tickerSQL)(nil)

// NewTickerRepository creates a gorm-backed TickerRepository.
func NewTickerRepository(db *gorm.DB) *tickerSQL {
	return &tickerSQL{db: db}
}

// ListActive returns all active tickers in sort_key order.
func (r *tickerSQL) ListActive(ctx context.Context) ([]entity.Ticker, error) {
	var tickers []entity.Ticker
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Find(&tickers).Error; err != nil {
		return nil, err
	}
	return tickers, nil
}

// ListActiveCodes returns only the codes of active tickers in sort_key order.
func (r *tickerSQL) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&entity.Ticker{}).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// SeedDefaults inserts the given codes as active tickers, leaving rows that
// already exist untouched.
func (r *tickerSQL) SeedDefaults(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]entity.Ticker, 0, len(codes))
	for i, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		rows = append(rows, entity.Ticker{Code: c, IsActive: true, SortKey: i})
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&rows).Error
}
