package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"spscope/domain/sharepoint"
)

// MockDiagnosticLog implements DiagnosticLog for testing
type MockDiagnosticLog struct {
	mock.Mock
}

func (m *MockDiagnosticLog) Error(operation string, message string) {
	m.Called(operation, message)
}

// MockElevator implements Elevator for testing.
// It records the call and then runs fn with the context configured via Return,
// or the caller's context when none is configured.
type MockElevator struct {
	mock.Mock
}

func (m *MockElevator) RunElevated(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if elevated, ok := args.Get(0).(context.Context); ok && elevated != nil {
		return fn(elevated)
	}
	return fn(ctx)
}

// MockDiagnosticRepository implements DiagnosticRepository for testing
type MockDiagnosticRepository struct {
	mock.Mock
}

func (m *MockDiagnosticRepository) Save(ctx context.Context, entry *sharepoint.DiagnosticEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDiagnosticRepository) Recent(ctx context.Context, limit int) ([]*sharepoint.DiagnosticEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sharepoint.DiagnosticEntry), args.Error(1)
}

func (m *MockDiagnosticRepository) CountByOperation(ctx context.Context, operation string) (int64, error) {
	args := m.Called(ctx, operation)
	return args.Get(0).(int64), args.Error(1)
}
