package database

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spscope/logging"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	var buf bytes.Buffer
	logger := logging.NewLoggerWithWriter(&logging.Config{Level: "error"}, &buf)

	db, err := New(Config{
		Path:              filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:      4,
		MaxIdleConns:      1,
		ConnMaxLifetime:   time.Minute,
		ConnMaxIdleTime:   time.Minute,
		BusyTimeoutMs:     1000,
		EnableForeignKeys: true,
		EnableWAL:         true,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := newTestDatabase(t)

	var count int
	err := db.ReadDB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)

	migrations, err := loadMigrations()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)

	_, err = db.WriteDB().Exec("INSERT INTO diagnostic_entries (operation, message, recorded_at) VALUES ('op', 'msg', '2024-01-01T00:00:00Z')")
	assert.NoError(t, err)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.runMigrations())
	require.NoError(t, db.runMigrations())

	var count int
	require.NoError(t, db.ReadDB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestHealth(t *testing.T) {
	db := newTestDatabase(t)

	stats, err := db.Health()

	require.NoError(t, err)
	assert.Contains(t, stats, "read_pool")
	assert.Contains(t, stats, "write_pool")
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(Config{Path: "/tmp/x.db", BusyTimeoutMs: 250, EnableWAL: true, EnableForeignKeys: false})

	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "_pragma=busy_timeout(250)")
	assert.Contains(t, dsn, "_pragma=journal_mode(WAL)")
	assert.NotContains(t, dsn, "foreign_keys")
}

func TestCheckDatabaseExists(t *testing.T) {
	assert.False(t, checkDatabaseExists(filepath.Join(t.TempDir(), "missing.db")))
}
