package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
	"spscope/infrastructure/elevation"
	"spscope/test/mocks"
)

const testSiteURL = "https://contoso.sharepoint.com/sites/projects"

func newTestRunner(webs ...*mocks.FakeWeb) (*ScopedOperationRunner, *mocks.FakeSiteProvider, *mocks.MockDiagnosticLog) {
	provider := mocks.NewFakeSiteProvider(webs...)
	diag := &mocks.MockDiagnosticLog{}
	return NewScopedOperationRunner(provider, elevation.NewRunner(), diag), provider, diag
}

func TestScopedOperationRunner_SiteOp_Success(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL)
	runner, provider, diag := newTestRunner(web)

	var seen contracts.Site
	err := runner.SiteOp(context.Background(), testSiteURL, "ReadSite", func(ctx context.Context, site contracts.Site) error {
		seen = site
		return nil
	})

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, testSiteURL, seen.URL())
	assert.Equal(t, 1, provider.LastSite().CloseCount)
	diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
}

func TestScopedOperationRunner_SiteOp_CallbackErrorLoggedAndReturnedUnchanged(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL)
	runner, provider, diag := newTestRunner(web)

	inner := errors.New("access denied")
	callbackErr := fmt.Errorf("update site: %w", inner)
	diag.On("Error", "UpdateSite", "update site: access denied::access denied").Once()

	err := runner.SiteOp(context.Background(), testSiteURL, "UpdateSite", func(ctx context.Context, site contracts.Site) error {
		return callbackErr
	})

	assert.Same(t, callbackErr, err)
	assert.Equal(t, 1, provider.LastSite().CloseCount)
	diag.AssertExpectations(t)
	diag.AssertNumberOfCalls(t, "Error", 1)
}

func TestScopedOperationRunner_SiteOp_OpenFailureSkipsCallback(t *testing.T) {
	runner, provider, diag := newTestRunner()
	provider.OpenErr = errors.New("401 unauthorized")

	called := false
	err := runner.SiteOp(context.Background(), testSiteURL, "ReadSite", func(ctx context.Context, site contracts.Site) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.OpenErr)
	assert.False(t, called)
	diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
}

func TestScopedOperationRunner_SiteOp_CloseFailure(t *testing.T) {
	t.Run("returned_when_callback_succeeds", func(t *testing.T) {
		web := mocks.NewFakeWeb(testSiteURL)
		runner, provider, _ := newTestRunner(web)
		closeErr := errors.New("connection reset")

		err := runner.SiteOp(context.Background(), testSiteURL, "ReadSite", func(ctx context.Context, site contracts.Site) error {
			site.(*mocks.FakeSite).CloseErr = closeErr
			return nil
		})

		assert.ErrorIs(t, err, closeErr)
		assert.Equal(t, 1, provider.LastSite().CloseCount)
	})

	t.Run("callback_error_wins", func(t *testing.T) {
		web := mocks.NewFakeWeb(testSiteURL)
		runner, _, diag := newTestRunner(web)
		callbackErr := errors.New("write conflict")
		diag.On("Error", "WriteSite", "write conflict").Once()

		err := runner.SiteOp(context.Background(), testSiteURL, "WriteSite", func(ctx context.Context, site contracts.Site) error {
			site.(*mocks.FakeSite).CloseErr = errors.New("connection reset")
			return callbackErr
		})

		assert.Same(t, callbackErr, err)
		diag.AssertExpectations(t)
	})
}

func TestScopedOperationRunner_SiteOpElevated_RunsUnderElevation(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL)
	provider := mocks.NewFakeSiteProvider(web)
	elevator := &mocks.MockElevator{}
	elevator.On("RunElevated", mock.Anything).Return(elevation.WithElevated(context.Background())).Once()
	runner := NewScopedOperationRunner(provider, elevator, &mocks.MockDiagnosticLog{})

	var elevated bool
	err := runner.SiteOpElevated(context.Background(), testSiteURL, "ReadSite", func(ctx context.Context, site contracts.Site) error {
		elevated = elevation.IsElevated(ctx)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, elevated)
	assert.True(t, elevation.IsElevated(provider.LastSite().OpenedWithCtx), "site must be acquired inside the elevated context")
	elevator.AssertExpectations(t)
}

func TestScopedOperationRunner_WebOp_RestoresUnsafeUpdates(t *testing.T) {
	tests := []struct {
		name        string
		initialFlag bool
		callbackErr error
	}{
		{name: "flag_false_success", initialFlag: false},
		{name: "flag_true_success", initialFlag: true},
		{name: "flag_false_failure", initialFlag: false, callbackErr: errors.New("boom")},
		{name: "flag_true_failure", initialFlag: true, callbackErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			web := mocks.NewFakeWeb(testSiteURL)
			web.AllowFlag = tt.initialFlag
			runner, provider, diag := newTestRunner(web)
			if tt.callbackErr != nil {
				diag.On("Error", "EditWeb", "boom").Once()
			}

			var observed bool
			err := runner.WebOp(context.Background(), testSiteURL, "EditWeb", func(ctx context.Context, w contracts.Web) error {
				observed = w.AllowUnsafeUpdates()
				return tt.callbackErr
			})

			if tt.callbackErr != nil {
				assert.Same(t, tt.callbackErr, err)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, observed, "callback must see unsafe updates allowed")
			assert.Equal(t, tt.initialFlag, web.AllowFlag)
			assert.Equal(t, []bool{tt.initialFlag}, web.FlagAtClose, "flag must be restored before the web is closed")
			assert.Equal(t, 1, web.CloseCount)
			assert.Equal(t, 1, provider.LastSite().CloseCount)
			diag.AssertExpectations(t)
		})
	}
}

func TestScopedOperationRunner_WebOp_RestoresFlagOnPanic(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL)
	runner, provider, _ := newTestRunner(web)

	assert.Panics(t, func() {
		_ = runner.WebOp(context.Background(), testSiteURL, "Explode", func(ctx context.Context, w contracts.Web) error {
			panic("unexpected")
		})
	})

	assert.False(t, web.AllowFlag)
	assert.Equal(t, 1, web.CloseCount)
	assert.Equal(t, 1, provider.LastSite().CloseCount)
}

func TestScopedOperationRunner_WebOp_NoDriftAcrossInvocations(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL)
	runner, provider, _ := newTestRunner(web)

	for i := 0; i < 3; i++ {
		err := runner.WebOp(context.Background(), testSiteURL, "ReadWeb", func(ctx context.Context, w contracts.Web) error {
			assert.True(t, w.AllowUnsafeUpdates())
			return nil
		})
		require.NoError(t, err)
		assert.False(t, web.AllowFlag)
	}

	assert.Equal(t, []bool{false, false, false}, web.FlagAtClose)
	assert.Equal(t, 3, web.OpenCount)
	assert.Equal(t, 3, web.CloseCount)
	require.Len(t, provider.Opened, 3)
	for _, site := range provider.Opened {
		assert.Equal(t, 1, site.CloseCount)
	}
}

func TestScopedOperationRunner_WebOp_OpenWebFailureReleasesSite(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL)
	provider := mocks.NewFakeSiteProvider(web)
	openErr := errors.New("web not provisioned")
	diag := &mocks.MockDiagnosticLog{}
	runner := NewScopedOperationRunner(&failingWebProvider{FakeSiteProvider: provider, err: openErr}, elevation.NewRunner(), diag)

	called := false
	err := runner.WebOp(context.Background(), testSiteURL, "EditWeb", func(ctx context.Context, w contracts.Web) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, openErr)
	assert.False(t, called)
	assert.Equal(t, 1, provider.LastSite().CloseCount)
	assert.Equal(t, 0, web.CloseCount)
	diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
}

type failingWebProvider struct {
	*mocks.FakeSiteProvider
	err error
}

func (p *failingWebProvider) OpenSite(ctx context.Context, siteURL string) (contracts.Site, error) {
	site, err := p.FakeSiteProvider.OpenSite(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	site.(*mocks.FakeSite).OpenWebErr = p.err
	return site, nil
}

func TestScopedOperationRunner_ListOp(t *testing.T) {
	tasks := mocks.NewFakeList("Tasks")
	web := mocks.NewFakeWeb(testSiteURL, tasks)

	t.Run("resolves_list_by_title", func(t *testing.T) {
		runner, _, diag := newTestRunner(web)

		var got contracts.List
		err := runner.ListOp(context.Background(), testSiteURL, "Tasks", "ReadTasks", func(ctx context.Context, list contracts.List) error {
			got = list
			return nil
		})

		require.NoError(t, err)
		assert.Same(t, tasks, got)
		diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
	})

	t.Run("missing_list_fails_fast", func(t *testing.T) {
		runner, provider, diag := newTestRunner(web)

		called := false
		err := runner.ListOp(context.Background(), testSiteURL, "Missing", "ReadMissing", func(ctx context.Context, list contracts.List) error {
			called = true
			return nil
		})

		var nf *contracts.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, contracts.NotFoundList, nf.Kind)
		assert.False(t, called)
		assert.Equal(t, 1, provider.LastSite().CloseCount)
		diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
	})

	t.Run("callback_error_logged_once", func(t *testing.T) {
		runner, _, diag := newTestRunner(web)
		callbackErr := errors.New("item locked")
		diag.On("Error", "LockTasks", "item locked").Once()

		err := runner.ListOp(context.Background(), testSiteURL, "Tasks", "LockTasks", func(ctx context.Context, list contracts.List) error {
			return callbackErr
		})

		assert.Same(t, callbackErr, err)
		diag.AssertNumberOfCalls(t, "Error", 1)
	})

	t.Run("lookup_error_propagates", func(t *testing.T) {
		failing := mocks.NewFakeWeb(testSiteURL)
		failing.LookupErr = errors.New("throttled")
		runner, _, diag := newTestRunner(failing)

		err := runner.ListOp(context.Background(), testSiteURL, "Tasks", "ReadTasks", func(ctx context.Context, list contracts.List) error {
			t.Fatal("callback must not run")
			return nil
		})

		assert.ErrorIs(t, err, failing.LookupErr)
		assert.False(t, failing.AllowFlag)
		diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
	})
}

func TestScopedOperationRunner_ListOpElevated_WritesThroughRelaxedGuard(t *testing.T) {
	tasks := mocks.NewFakeList("Tasks")
	web := mocks.NewFakeWeb(testSiteURL, tasks)
	runner, provider, _ := newTestRunner(web)

	err := runner.ListOpElevated(context.Background(), testSiteURL, "Tasks", "AddTask", func(ctx context.Context, list contracts.List) error {
		assert.True(t, elevation.IsElevated(ctx))
		_, err := list.AddItem(ctx, map[string]any{"Title": "Review budget"})
		return err
	})

	require.NoError(t, err)
	require.Len(t, tasks.Rows, 1)
	assert.Equal(t, "Review budget", tasks.Rows[0].Title)
	assert.False(t, web.AllowFlag)
	assert.True(t, elevation.IsElevated(provider.LastSite().OpenedWithCtx))
}

func TestScopedOperationRunner_ElevatedListOp_MissingList(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL, mocks.NewFakeList("Tasks"))
	runner, provider, diag := newTestRunner(web)

	called := false
	err := runner.ElevatedListOp(context.Background(), testSiteURL, "Announcements", "ReadAnnouncements", func(ctx context.Context, list contracts.List) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	assert.Equal(t, "List 'Announcements' cannot be found in '"+testSiteURL+"' web", err.Error())
	assert.False(t, called)
	assert.False(t, web.AllowFlag)
	assert.Equal(t, 1, web.CloseCount)
	assert.Equal(t, 1, provider.LastSite().CloseCount)
	diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
}

func TestScopedOperationRunner_ElevatedQueryOp(t *testing.T) {
	t.Run("absent_collection_fails_fast", func(t *testing.T) {
		tasks := mocks.NewFakeList("Tasks")
		tasks.NilCollection = true
		web := mocks.NewFakeWeb(testSiteURL, tasks)
		runner, _, diag := newTestRunner(web)

		called := false
		err := runner.ElevatedQueryOp(context.Background(), testSiteURL, "Tasks", "ReadTasks", func(ctx context.Context, items contracts.ListItemCollection) error {
			called = true
			return nil
		})

		var nf *contracts.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, contracts.NotFoundItemCollection, nf.Kind)
		assert.Equal(t, "Tasks", nf.ListName)
		assert.Equal(t, testSiteURL, nf.WebURL)
		assert.Equal(t, "ListItemCollection 'Tasks' cannot be found in '"+testSiteURL+"' web", err.Error())
		assert.False(t, called)
		diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
	})

	t.Run("missing_list_fails_before_query", func(t *testing.T) {
		web := mocks.NewFakeWeb(testSiteURL)
		runner, _, _ := newTestRunner(web)

		err := runner.ElevatedQueryOp(context.Background(), testSiteURL, "Tasks", "ReadTasks", func(ctx context.Context, items contracts.ListItemCollection) error {
			t.Fatal("callback must not run")
			return nil
		})

		var nf *contracts.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, contracts.NotFoundList, nf.Kind)
	})

	t.Run("empty_collection_invokes_callback_once", func(t *testing.T) {
		tasks := mocks.NewFakeList("Tasks")
		web := mocks.NewFakeWeb(testSiteURL, tasks)
		runner, _, _ := newTestRunner(web)

		calls := 0
		err := runner.ElevatedQueryOp(context.Background(), testSiteURL, "Tasks", "ReadTasks", func(ctx context.Context, items contracts.ListItemCollection) error {
			calls++
			assert.Equal(t, 0, items.Count())
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		require.Len(t, tasks.Queries, 1)
		assert.True(t, tasks.Queries[0].IsDefault())
	})

	t.Run("items_delivered", func(t *testing.T) {
		tasks := mocks.NewFakeList("Tasks",
			&sharepoint.ListItem{ID: 1, Title: "One"},
			&sharepoint.ListItem{ID: 2, Title: "Two"},
		)
		web := mocks.NewFakeWeb(testSiteURL, tasks)
		runner, _, _ := newTestRunner(web)

		var titles []string
		err := runner.ElevatedQueryOp(context.Background(), testSiteURL, "Tasks", "ReadTasks", func(ctx context.Context, items contracts.ListItemCollection) error {
			for _, it := range items.Items() {
				titles = append(titles, it.Title)
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"One", "Two"}, titles)
	})

	t.Run("query_error_propagates_without_logging", func(t *testing.T) {
		tasks := mocks.NewFakeList("Tasks")
		tasks.QueryErr = errors.New("list view threshold exceeded")
		web := mocks.NewFakeWeb(testSiteURL, tasks)
		runner, _, diag := newTestRunner(web)

		err := runner.ElevatedQueryOp(context.Background(), testSiteURL, "Tasks", "ReadTasks", func(ctx context.Context, items contracts.ListItemCollection) error {
			return nil
		})

		assert.ErrorIs(t, err, tasks.QueryErr)
		assert.False(t, web.AllowFlag)
		diag.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
	})
}

func TestScopedOperationRunner_QueryOp_PassesQueryThrough(t *testing.T) {
	tasks := mocks.NewFakeList("Tasks")
	web := mocks.NewFakeWeb(testSiteURL, tasks)
	runner, provider, _ := newTestRunner(web)
	query := sharepoint.Query{Filter: "Status eq 'Open'", Top: 50}

	err := runner.QueryOp(context.Background(), testSiteURL, "Tasks", query, "OpenTasks", func(ctx context.Context, items contracts.ListItemCollection) error {
		assert.False(t, elevation.IsElevated(ctx))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []sharepoint.Query{query}, tasks.Queries)
	assert.False(t, elevation.IsElevated(provider.LastSite().OpenedWithCtx))
}

func TestScopedOperationRunner_UnnamedOperation(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL)
	runner, _, diag := newTestRunner(web)
	diag.On("Error", unnamedOperation, "boom").Once()

	err := runner.WebOp(context.Background(), testSiteURL, "", func(ctx context.Context, w contracts.Web) error {
		return errors.New("boom")
	})

	require.Error(t, err)
	diag.AssertExpectations(t)
}

func TestScopedOperationRunner_NestedScopesLogOncePerCallback(t *testing.T) {
	web := mocks.NewFakeWeb(testSiteURL, mocks.NewFakeList("Tasks"))
	runner, _, diag := newTestRunner(web)
	callbackErr := errors.New("validation failed")
	diag.On("Error", "ValidateTasks", "validation failed").Once()

	err := runner.ListOpElevated(context.Background(), testSiteURL, "Tasks", "ValidateTasks", func(ctx context.Context, list contracts.List) error {
		return callbackErr
	})

	assert.Same(t, callbackErr, err)
	diag.AssertNumberOfCalls(t, "Error", 1)
}
