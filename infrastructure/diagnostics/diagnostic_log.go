package diagnostics

import (
	"context"
	"time"

	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
	"spscope/logging"
)

// persistTimeout bounds how long recording a failure may block the failing operation
const persistTimeout = 5 * time.Second

// Log implements contracts.DiagnosticLog. Every failure goes to the structured
// logger; when a repository is attached it is also stored for later inspection.
type Log struct {
	repo   contracts.DiagnosticRepository
	logger *logging.Logger
	now    func() time.Time
}

// NewLog creates a diagnostic log. repo may be nil to log without persisting.
func NewLog(repo contracts.DiagnosticRepository) *Log {
	return &Log{
		repo:   repo,
		logger: logging.Default().WithComponent("diagnostics"),
		now:    time.Now,
	}
}

// Error records a failed operation. It never panics or returns an error.
func (l *Log) Error(operation string, message string) {
	l.logger.Diagnostic(operation, message)

	if l.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	entry := &sharepoint.DiagnosticEntry{
		Operation:  operation,
		Message:    message,
		RecordedAt: l.now(),
	}
	if err := l.repo.Save(ctx, entry); err != nil {
		l.logger.Warn("Failed to persist diagnostic entry", "operation", operation, "error", err.Error())
	}
}
