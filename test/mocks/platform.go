package mocks

import (
	"context"
	"errors"
	"sync"

	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
)

// FakeSiteProvider is an in-memory SiteProvider whose handles record how they were used
type FakeSiteProvider struct {
	mu sync.Mutex

	// Webs maps a site URL to the web opened beneath it. Unknown URLs fail to open.
	Webs map[string]*FakeWeb

	OpenErr error
	Opened  []*FakeSite
}

// NewFakeSiteProvider creates a provider serving one web per site URL
func NewFakeSiteProvider(webs ...*FakeWeb) *FakeSiteProvider {
	p := &FakeSiteProvider{Webs: make(map[string]*FakeWeb)}
	for _, w := range webs {
		p.Webs[w.WebURL] = w
	}
	return p
}

func (p *FakeSiteProvider) OpenSite(ctx context.Context, siteURL string) (contracts.Site, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	web, ok := p.Webs[siteURL]
	if !ok {
		return nil, errors.New("site not found: " + siteURL)
	}
	site := &FakeSite{SiteURL: siteURL, Web: web, OpenedWithCtx: ctx}
	p.Opened = append(p.Opened, site)
	return site, nil
}

// LastSite returns the most recently opened site handle
func (p *FakeSiteProvider) LastSite() *FakeSite {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Opened) == 0 {
		return nil
	}
	return p.Opened[len(p.Opened)-1]
}

// FakeSite is a site handle that counts releases
type FakeSite struct {
	SiteURL       string
	Web           *FakeWeb
	OpenedWithCtx context.Context
	OpenWebErr    error
	CloseErr      error
	CloseCount    int
}

func (s *FakeSite) URL() string { return s.SiteURL }

func (s *FakeSite) OpenWeb(ctx context.Context) (contracts.Web, error) {
	if s.OpenWebErr != nil {
		return nil, s.OpenWebErr
	}
	s.Web.OpenCount++
	return s.Web, nil
}

func (s *FakeSite) Close() error {
	s.CloseCount++
	return s.CloseErr
}

// FakeWeb is a web handle with a real unsafe-updates flag
type FakeWeb struct {
	WebURL     string
	WebTitle   string
	AllowFlag  bool
	ListsByKey map[string]*FakeList
	LookupErr  error
	CloseErr   error

	OpenCount  int
	CloseCount int
	// FlagAtClose records the flag value each time the web was closed
	FlagAtClose []bool
}

// NewFakeWeb creates a web at url with the given lists
func NewFakeWeb(url string, lists ...*FakeList) *FakeWeb {
	w := &FakeWeb{WebURL: url, WebTitle: "Fake Web", ListsByKey: make(map[string]*FakeList)}
	for _, l := range lists {
		l.web = w
		w.ListsByKey[l.ListTitle] = l
	}
	return w
}

func (w *FakeWeb) URL() string                      { return w.WebURL }
func (w *FakeWeb) Title() string                    { return w.WebTitle }
func (w *FakeWeb) AllowUnsafeUpdates() bool         { return w.AllowFlag }
func (w *FakeWeb) SetAllowUnsafeUpdates(allow bool) { w.AllowFlag = allow }
func (w *FakeWeb) Lists() contracts.ListCollection  { return fakeListCollection{web: w} }

func (w *FakeWeb) Close() error {
	w.CloseCount++
	w.FlagAtClose = append(w.FlagAtClose, w.AllowFlag)
	return w.CloseErr
}

type fakeListCollection struct {
	web *FakeWeb
}

func (c fakeListCollection) GetByTitle(ctx context.Context, title string) (contracts.List, error) {
	if c.web.LookupErr != nil {
		return nil, c.web.LookupErr
	}
	l, ok := c.web.ListsByKey[title]
	if !ok {
		return nil, nil
	}
	return l, nil
}

// FakeList is a list handle backed by a slice of items
type FakeList struct {
	ListID    string
	ListTitle string
	Rows      []*sharepoint.ListItem

	// NilCollection makes GetItems return no collection and no error
	NilCollection bool
	QueryErr      error
	AddErr        error
	Queries       []sharepoint.Query

	web *FakeWeb
}

// NewFakeList creates a list with the given items
func NewFakeList(title string, items ...*sharepoint.ListItem) *FakeList {
	return &FakeList{ListID: "id-" + title, ListTitle: title, Rows: items}
}

func (l *FakeList) ID() string    { return l.ListID }
func (l *FakeList) Title() string { return l.ListTitle }

func (l *FakeList) GetItems(ctx context.Context, query sharepoint.Query) (contracts.ListItemCollection, error) {
	l.Queries = append(l.Queries, query)
	if l.QueryErr != nil {
		return nil, l.QueryErr
	}
	if l.NilCollection {
		return nil, nil
	}
	return FakeItemCollection(l.Rows), nil
}

func (l *FakeList) AddItem(ctx context.Context, fields map[string]any) (*sharepoint.ListItem, error) {
	if l.web != nil && !l.web.AllowFlag {
		return nil, contracts.ErrUnsafeUpdatesDisabled
	}
	if l.AddErr != nil {
		return nil, l.AddErr
	}
	item := &sharepoint.ListItem{ID: len(l.Rows) + 1, Fields: fields}
	if title, ok := fields["Title"].(string); ok {
		item.Title = title
	}
	l.Rows = append(l.Rows, item)
	return item, nil
}

// FakeItemCollection is a ListItemCollection over a slice
type FakeItemCollection []*sharepoint.ListItem

func (c FakeItemCollection) Count() int                    { return len(c) }
func (c FakeItemCollection) Items() []*sharepoint.ListItem { return c }
