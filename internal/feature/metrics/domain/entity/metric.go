// Package entity defines the domain models for the metrics feature.
package entity

import (
	"math"
	"time"
)

// DailyMetric holds the computed technical metrics for one ticker on one
// trading date. Metric fields are NaN while their rolling window is not yet
// filled; adapters persist NaN as NULL.
type DailyMetric struct {
	Date   time.Time // Trading date, normalized to midnight UTC
	Ticker string    // Stock ticker symbol

	Return1D float64 // One-day simple return (close-over-close)
	MA7      float64 // 7-day rolling mean of close
	MA30     float64 // 30-day rolling mean of close
	Vol7     float64 // 7-day rolling sample std of Return1D
	Vol30    float64 // 30-day rolling sample std of Return1D
	RSI      float64 // Wilder relative strength index
}

// HasRSI reports whether the RSI value is defined for this row.
func (m DailyMetric) HasRSI() bool {
	return !math.IsNaN(m.RSI)
}
