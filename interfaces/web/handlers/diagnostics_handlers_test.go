package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spscope/domain/sharepoint"
	"spscope/test/mocks"
)

func TestDiagnosticsHandlers_ListRecent(t *testing.T) {
	entries := []*sharepoint.DiagnosticEntry{
		{ID: 2, Operation: "AddItem", Message: "boom", RecordedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 1, Operation: "GetItems", Message: "bang", RecordedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	t.Run("default limit", func(t *testing.T) {
		repo := new(mocks.MockDiagnosticRepository)
		repo.On("Recent", mock.Anything, 50).Return(entries, nil)

		w := serve(newTestRouter(nil, repo, nil), http.MethodGet, "/api/diagnostics", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Entries []*sharepoint.DiagnosticEntry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Entries, 2)
		assert.Equal(t, "AddItem", body.Entries[0].Operation)
		repo.AssertExpectations(t)
	})

	t.Run("limit is capped", func(t *testing.T) {
		repo := new(mocks.MockDiagnosticRepository)
		repo.On("Recent", mock.Anything, maxDiagnosticsLimit).Return(entries, nil)

		w := serve(newTestRouter(nil, repo, nil), http.MethodGet, "/api/diagnostics?limit=100000", "")

		assert.Equal(t, http.StatusOK, w.Code)
		repo.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		repo := new(mocks.MockDiagnosticRepository)

		w := serve(newTestRouter(nil, repo, nil), http.MethodGet, "/api/diagnostics?limit=-3", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "Recent", mock.Anything, mock.Anything)
	})

	t.Run("operation count", func(t *testing.T) {
		repo := new(mocks.MockDiagnosticRepository)
		repo.On("Recent", mock.Anything, 10).Return(entries[:1], nil)
		repo.On("CountByOperation", mock.Anything, "AddItem").Return(int64(4), nil)

		w := serve(newTestRouter(nil, repo, nil), http.MethodGet, "/api/diagnostics?limit=10&operation=AddItem", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Operation      string `json:"operation"`
			OperationCount int64  `json:"operation_count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "AddItem", body.Operation)
		assert.Equal(t, int64(4), body.OperationCount)
		repo.AssertExpectations(t)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(mocks.MockDiagnosticRepository)
		repo.On("Recent", mock.Anything, 50).Return(nil, errors.New("database is locked"))

		w := serve(newTestRouter(nil, repo, nil), http.MethodGet, "/api/diagnostics", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
