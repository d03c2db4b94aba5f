package sharepoint

import "time"

// Web summarizes a SharePoint web as seen from inside a web scope
type Web struct {
	ID                 string
	URL                string
	Title              string
	AllowUnsafeUpdates bool
}

// List represents a SharePoint list or document library
type List struct {
	ID           string
	Title        string
	BaseTemplate int
	ItemCount    int
}

// ListItem is a single row returned by a list query
type ListItem struct {
	ID       int
	GUID     string
	Title    string
	FileRef  string
	URL      string // absolute URL of the backing file, empty for plain items
	Modified *time.Time
	Fields   map[string]any
}

// Query describes which items a list query returns.
// The zero value is the default, unfiltered query.
type Query struct {
	Filter string // OData $filter expression
	Select string // comma separated field names
	Top    int    // page size, 0 uses the platform default
}

// DefaultQuery returns the unfiltered query used by the fail-fast query scope
func DefaultQuery() Query {
	return Query{}
}

// IsDefault reports whether the query applies no filter, projection or paging override
func (q Query) IsDefault() bool {
	return q.Filter == "" && q.Select == "" && q.Top == 0
}
