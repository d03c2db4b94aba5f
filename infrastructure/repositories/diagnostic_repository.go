package repositories

import (
	"context"
	"fmt"
	"time"

	"spscope/database"
	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
)

const defaultRecentLimit = 50

// SQLiteDiagnosticRepository implements contracts.DiagnosticRepository on SQLite
type SQLiteDiagnosticRepository struct {
	*BaseRepository
	now func() time.Time
}

// NewDiagnosticRepository creates a diagnostic repository backed by db
func NewDiagnosticRepository(db *database.Database) contracts.DiagnosticRepository {
	return &SQLiteDiagnosticRepository{
		BaseRepository: NewBaseRepository(db),
		now:            time.Now,
	}
}

// Save stores entry and fills in its ID and, when unset, its RecordedAt
func (r *SQLiteDiagnosticRepository) Save(ctx context.Context, entry *sharepoint.DiagnosticEntry) error {
	if entry == nil {
		return ErrInvalidEntry{Field: "entry", Reason: "is nil"}
	}
	if entry.Operation == "" {
		return ErrInvalidEntry{Field: "operation", Reason: "is empty"}
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = r.now()
	}

	res, err := r.WriteDB().ExecContext(ctx,
		"INSERT INTO diagnostic_entries (operation, message, recorded_at) VALUES (?, ?, ?)",
		entry.Operation, entry.Message, r.FormatTime(entry.RecordedAt))
	if err != nil {
		return fmt.Errorf("insert diagnostic entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read diagnostic entry id: %w", err)
	}
	entry.ID = id
	return nil
}

// Recent returns up to limit entries, newest first
func (r *SQLiteDiagnosticRepository) Recent(ctx context.Context, limit int) ([]*sharepoint.DiagnosticEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := r.ReadDB().QueryContext(ctx,
		"SELECT id, operation, message, recorded_at FROM diagnostic_entries ORDER BY recorded_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query diagnostic entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*sharepoint.DiagnosticEntry, 0, limit)
	for rows.Next() {
		var (
			e          sharepoint.DiagnosticEntry
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.Operation, &e.Message, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan diagnostic entry: %w", err)
		}
		e.RecordedAt = r.ParseTime(recordedAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountByOperation returns how many failures were recorded for operation
func (r *SQLiteDiagnosticRepository) CountByOperation(ctx context.Context, operation string) (int64, error) {
	var count int64
	err := r.ReadDB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM diagnostic_entries WHERE operation = ?", operation).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count diagnostic entries: %w", err)
	}
	return count, nil
}
