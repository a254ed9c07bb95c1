// Package entity defines the domain models for the prices feature.
package entity

import "time"

// DailyPrice represents one trading day of OHLCV (Open, High, Low, Close,
// Volume) data for a single ticker.
type DailyPrice struct {
	Date   time.Time // Trading date, normalized to midnight UTC
	Ticker string    // Stock ticker symbol (e.g., "AAPL", "SPY")
	Open   float64   // Opening price
	High   float64   // Highest price of the day
	Low    float64   // Lowest price of the day
	Close  float64   // Closing price
	Volume int64     // Trading volume
}
