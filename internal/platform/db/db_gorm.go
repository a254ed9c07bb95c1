// Package db opens and migrates the gorm database handle.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	metricadapters "github.com/UWorldJK/stocks-etl/internal/feature/metrics/adapters"
	priceadapters "github.com/UWorldJK/stocks-etl/internal/feature/prices/adapters"
	tickerentity "github.com/UWorldJK/stocks-etl/internal/feature/tickers/domain/entity"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects the database driver and its target.
type Options struct {
	Driver string // DriverSQLite (default) or DriverPostgres
	// Path is the database file for sqlite. Parent directories are created
	// as needed so a fresh container can write data/market.db directly.
	Path string
	// DSN is the connection string for postgres.
	DSN string
}

// Open connects per opts and migrates the pipeline tables. The embedded
// sqlite engine serializes file access across processes, which is the only
// concurrency discipline the single-writer pipeline needs.
func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var (
		handle *gorm.DB
		err    error
	)
	switch opts.Driver {
	case DriverPostgres:
		handle, err = gorm.Open(postgres.Open(opts.DSN), cfg)
	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires a database path")
		}
		if mkErr := os.MkdirAll(filepath.Dir(opts.Path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create database dir: %w", mkErr)
		}
		handle, err = gorm.Open(sqlite.Open(opts.Path), cfg)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := handle.AutoMigrate(
		&priceadapters.PriceModel{},
		&metricadapters.MetricModel{},
		&tickerentity.Ticker{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return handle, nil
}
