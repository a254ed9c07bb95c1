// Package entity defines the domain models for the tickers feature.
package entity

import "time"

// Ticker represents a tracked stock symbol. The pipeline ingests prices for
// every active ticker, in SortKey order.
type Ticker struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
