package usecase

import (
	"context"

	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
)

const (
	// DefaultRecentLimit is the row count of the diagnostic recent-metrics query.
	DefaultRecentLimit = 10
	// MaxRecentLimit caps the recent-metrics query.
	MaxRecentLimit = 1000
)

// MetricReadRepository abstracts the read side of the daily_metrics table.
type MetricReadRepository interface {
	// Recent returns up to limit rows ordered by date descending,
	// ties broken by ticker ascending.
	Recent(ctx context.Context, limit int) ([]entity.DailyMetric, error)
}

// QueryUsecase serves diagnostic reads over computed metrics.
type QueryUsecase struct {
	metrics MetricReadRepository
}

// NewQueryUsecase creates a QueryUsecase.
func NewQueryUsecase(metrics MetricReadRepository) *QueryUsecase {
	return &QueryUsecase{metrics: metrics}
}

// RecentMetrics returns the most recent metric rows. A non-positive or
// oversized limit falls back to DefaultRecentLimit.
func (qu *QueryUsecase) RecentMetrics(ctx context.Context, limit int) ([]entity.DailyMetric, error) {
	if limit <= 0 || limit > MaxRecentLimit {
		limit = DefaultRecentLimit
	}
	return qu.metrics.Recent(ctx, limit)
}
