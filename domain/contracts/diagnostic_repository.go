package contracts

import (
	"context"

	"spscope/domain/sharepoint"
)

// DiagnosticRepository persists diagnostic entries recorded for failed operations
type DiagnosticRepository interface {
	Save(ctx context.Context, entry *sharepoint.DiagnosticEntry) error
	Recent(ctx context.Context, limit int) ([]*sharepoint.DiagnosticEntry, error)
	CountByOperation(ctx context.Context, operation string) (int64, error)
}
