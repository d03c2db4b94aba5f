package application

import (
	"context"

	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
)

// ListContentService exposes read and write use cases over the scoped operation runner.
type ListContentService interface {
	GetWeb(ctx context.Context, siteURL string) (*sharepoint.Web, error)
	GetItems(ctx context.Context, siteURL, listName string, elevated bool) ([]*sharepoint.ListItem, error)
	AddItem(ctx context.Context, siteURL, listName string, fields map[string]any) (*sharepoint.ListItem, error)
}

// ListContentServiceImpl implements ListContentService
type ListContentServiceImpl struct {
	runner *ScopedOperationRunner
}

// NewListContentService creates a list content service on top of runner
func NewListContentService(runner *ScopedOperationRunner) ListContentService {
	return &ListContentServiceImpl{runner: runner}
}

// GetWeb summarizes the root web of siteURL. AllowUnsafeUpdates reports the
// value observed inside the scope, which is always true.
func (s *ListContentServiceImpl) GetWeb(ctx context.Context, siteURL string) (*sharepoint.Web, error) {
	var result *sharepoint.Web
	err := s.runner.WebOp(ctx, siteURL, "GetWeb", func(ctx context.Context, web contracts.Web) error {
		result = &sharepoint.Web{
			URL:                web.URL(),
			Title:              web.Title(),
			AllowUnsafeUpdates: web.AllowUnsafeUpdates(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetItems returns every item of listName using the default query.
func (s *ListContentServiceImpl) GetItems(ctx context.Context, siteURL, listName string, elevated bool) ([]*sharepoint.ListItem, error) {
	var result []*sharepoint.ListItem
	collect := func(ctx context.Context, items contracts.ListItemCollection) error {
		result = append(make([]*sharepoint.ListItem, 0, items.Count()), items.Items()...)
		return nil
	}

	var err error
	if elevated {
		err = s.runner.ElevatedQueryOp(ctx, siteURL, listName, "GetItems", collect)
	} else {
		err = s.runner.QueryOp(ctx, siteURL, listName, sharepoint.DefaultQuery(), "GetItems", collect)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddItem creates an item in listName under elevated privileges.
func (s *ListContentServiceImpl) AddItem(ctx context.Context, siteURL, listName string, fields map[string]any) (*sharepoint.ListItem, error) {
	var created *sharepoint.ListItem
	err := s.runner.ElevatedListOp(ctx, siteURL, listName, "AddItem", func(ctx context.Context, list contracts.List) error {
		item, err := list.AddItem(ctx, fields)
		if err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
