package spclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
	"spscope/logging"
)

func newTestWeb() *web {
	return &web{url: "https://contoso.sharepoint.com/sites/a", title: "A", logger: logging.Default()}
}

func TestList_AddItem_RequiresUnsafeUpdates(t *testing.T) {
	w := newTestWeb()
	l := &list{web: w}

	item, err := l.AddItem(context.Background(), map[string]any{"Title": "x"})

	assert.Nil(t, item)
	assert.ErrorIs(t, err, contracts.ErrUnsafeUpdatesDisabled)
}

func TestHandles_RejectUseAfterClose(t *testing.T) {
	w := newTestWeb()
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), contracts.ErrHandleClosed)

	_, err := w.Lists().GetByTitle(context.Background(), "Tasks")
	assert.ErrorIs(t, err, contracts.ErrHandleClosed)

	w.SetAllowUnsafeUpdates(true)
	l := &list{web: w}
	_, err = l.AddItem(context.Background(), map[string]any{"Title": "x"})
	assert.ErrorIs(t, err, contracts.ErrHandleClosed)

	_, err = l.GetItems(context.Background(), sharepoint.DefaultQuery())
	assert.ErrorIs(t, err, contracts.ErrHandleClosed)

	s := &site{url: w.url, logger: logging.Default()}
	require.NoError(t, s.Close())
	_, err = s.OpenWeb(context.Background())
	assert.ErrorIs(t, err, contracts.ErrHandleClosed)
}

func TestWeb_UnsafeUpdatesFlag(t *testing.T) {
	w := newTestWeb()
	assert.False(t, w.AllowUnsafeUpdates())

	w.SetAllowUnsafeUpdates(true)
	assert.True(t, w.AllowUnsafeUpdates())

	w.SetAllowUnsafeUpdates(false)
	assert.False(t, w.AllowUnsafeUpdates())
}

func TestItemCollection(t *testing.T) {
	var empty itemCollection
	assert.Equal(t, 0, empty.Count())
	assert.Empty(t, empty.Items())
}
