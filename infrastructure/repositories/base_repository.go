package repositories

import (
	"database/sql"
	"time"

	"spscope/database"
)

// BaseRepository provides database access and SQL conversion helpers that can be embedded in all repositories.
type BaseRepository struct {
	db *database.Database
}

// NewBaseRepository creates a new BaseRepository with database access
func NewBaseRepository(database *database.Database) *BaseRepository {
	return &BaseRepository{
		db: database,
	}
}

// ReadDB returns the read connection pool for SELECT statements
func (b *BaseRepository) ReadDB() *sql.DB {
	return b.db.ReadDB()
}

// WriteDB returns the serialized write connection for INSERT/UPDATE/DELETE statements
func (b *BaseRepository) WriteDB() *sql.DB {
	return b.db.WriteDB()
}

// timestampLayout keeps every fractional digit so TEXT values sort chronologically
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders a timestamp for TEXT columns.
func (b *BaseRepository) FormatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTime parses a TEXT timestamp written by FormatTime.
// Returns the zero time if the value cannot be parsed.
func (b *BaseRepository) ParseTime(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
