package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) (*gorm.DB, *sql.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb, sqlDB
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "", DefaultPool())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestConfigurePool_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	_, sqlDB := openSQLite(t)
	configurePool(sqlDB, Pool{MaxOpenConns: 5, MaxIdleConns: 50})

	assert.Equal(t, 5, sqlDB.Stats().MaxOpenConnections)
}

func TestPingAndClose(t *testing.T) {
	t.Parallel()

	gdb, _ := openSQLite(t)
	require.NoError(t, Ping(context.Background(), gdb))
	require.NoError(t, Close(gdb))
	assert.Error(t, Ping(context.Background(), gdb))
}

func TestGormConfig(t *testing.T) {
	t.Parallel()

	cfg := GormConfig()
	assert.True(t, cfg.TranslateError)
	assert.True(t, cfg.PrepareStmt)
	assert.Equal(t, "UTC", cfg.NowFunc().Location().String())
}
