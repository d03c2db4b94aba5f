package contracts

import (
	"context"

	"spscope/domain/sharepoint"
)

// SiteProvider acquires site handles by URL.
// Every handle returned must be released with Close by whoever acquired it.
type SiteProvider interface {
	OpenSite(ctx context.Context, siteURL string) (Site, error)
}

// Site is a transient handle to a site collection
type Site interface {
	URL() string
	OpenWeb(ctx context.Context) (Web, error)
	Close() error
}

// Web is a transient handle to a web opened beneath a site.
// AllowUnsafeUpdates guards write operations issued through the handle.
type Web interface {
	URL() string
	Title() string
	AllowUnsafeUpdates() bool
	SetAllowUnsafeUpdates(allow bool)
	Lists() ListCollection
	Close() error
}

// ListCollection looks up lists of a web.
// GetByTitle returns (nil, nil) when no list with that title exists.
type ListCollection interface {
	GetByTitle(ctx context.Context, title string) (List, error)
}

// List is a handle to a named list within a web
type List interface {
	ID() string
	Title() string
	GetItems(ctx context.Context, query sharepoint.Query) (ListItemCollection, error)
	AddItem(ctx context.Context, fields map[string]any) (*sharepoint.ListItem, error)
}

// ListItemCollection is the result of running a query against a list
type ListItemCollection interface {
	Count() int
	Items() []*sharepoint.ListItem
}

// Elevator runs an operation under a higher privilege context than the caller's.
// The operation runs synchronously; its error is returned unchanged.
type Elevator interface {
	RunElevated(ctx context.Context, fn func(ctx context.Context) error) error
}

// DiagnosticLog records operation failures. It never affects control flow.
type DiagnosticLog interface {
	Error(operation string, message string)
}
