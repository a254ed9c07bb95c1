// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/usecase"
)

// CachingMetricRepository decorates a MetricReadRepository with Redis
// caching. It implements the decorator pattern, transparently adding
// caching without modifying the underlying repository.
type CachingMetricRepository struct {
	inner     usecase.MetricReadRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.MetricReadRepository = (*CachingMetricRepository)(nil)

// cachedMetric is the cache serialization model. Metric values are
// pointers because entities mark incomplete rolling windows with NaN,
// which encoding/json rejects; nulls survive the round trip.
type cachedMetric struct {
	Date     time.Time `json:"date"`
	Ticker   string    `json:"ticker"`
	Return1D *float64  `json:"return_1d"`
	MA7      *float64  `json:"ma_7"`
	MA30     *float64  `json:"ma_30"`
	Vol7     *float64  `json:"vol_7"`
	Vol30    *float64  `json:"vol_30"`
	RSI      *float64  `json:"rsi"`
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

func toCached(metrics []entity.DailyMetric) []cachedMetric {
	out := make([]cachedMetric, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, cachedMetric{
			Date:     m.Date,
			Ticker:   m.Ticker,
			Return1D: nullable(m.Return1D),
			MA7:      nullable(m.MA7),
			MA30:     nullable(m.MA30),
			Vol7:     nullable(m.Vol7),
			Vol30:    nullable(m.Vol30),
			RSI:      nullable(m.RSI),
		})
	}
	return out
}

func fromCached(rows []cachedMetric) []entity.DailyMetric {
	out := make([]entity.DailyMetric, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.DailyMetric{
			Date:     r.Date,
			Ticker:   r.Ticker,
			Return1D: value(r.Return1D),
			MA7:      value(r.MA7),
			MA30:     value(r.MA30),
			Vol7:     value(r.Vol7),
			Vol30:    value(r.Vol30),
			RSI:      value(r.RSI),
		})
	}
	return out
}

// NewCachingMetricRepository decorates a MetricReadRepository with Redis
// caching. If ttl is 0, it defaults to 5 minutes. If namespace is empty,
// it uses "metrics". A nil rdb bypasses the cache entirely.
func NewCachingMetricRepository(rdb *redis.Client, ttl time.Duration, inner usecase.MetricReadRepository, namespace string) *CachingMetricRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "metrics"
	}
	return &CachingMetricRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Recent retrieves recent metric rows, checking the cache first and falling
// back to the database.
func (c *CachingMetricRepository) Recent(ctx context.Context, limit int) ([]entity.DailyMetric, error) {
	if c.rdb == nil {
		return c.inner.Recent(ctx, limit)
	}

	key := c.cacheKey(limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var rows []cachedMetric
		if err := json.Unmarshal(b, &rows); err == nil {
			return fromCached(rows), nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(toCached(out)); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Invalidate drops every cached entry in this namespace. The pipeline calls
// it after each upsert so readers never see a stale window.
func (c *CachingMetricRepository) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, c.namespace+":*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// cacheKey generates a cache key for a specific query.
func (c *CachingMetricRepository) cacheKey(limit int) string {
	return fmt.Sprintf("%s:recent:%d", c.namespace, limit)
}
