package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	t.Parallel()

	// The parent directory does not exist yet; Open must create it.
	path := filepath.Join(t.TempDir(), "data", "market.db")

	handle, err := Open(Options{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)

	for _, table := range []string{"raw_prices", "daily_metrics", "tickers"} {
		assert.True(t, handle.Migrator().HasTable(table), "table %s should be migrated", table)
	}

	sqlDB, err := handle.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestOpen_EmptyDriverDefaultsToSQLite(t *testing.T) {
	t.Parallel()

	handle, err := Open(Options{Path: filepath.Join(t.TempDir(), "market.db")})
	require.NoError(t, err)
	assert.True(t, handle.Migrator().HasTable("daily_metrics"))
}

func TestOpen_SQLiteRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(Options{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(Options{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported db driver")
}
