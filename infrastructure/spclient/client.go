package spclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
	"spscope/infrastructure/elevation"
	"spscope/logging"
	"spscope/spauth"

	"github.com/koltyakov/gosip/api"
)

// SiteProvider opens SharePoint sites over the REST API using Gosip.
// Sites opened from an elevated context authenticate as the elevated identity.
type SiteProvider struct {
	auth   spauth.Config
	logger *logging.Logger
}

// NewSiteProvider creates a Gosip backed site provider for the configured identities
func NewSiteProvider(auth spauth.Config) *SiteProvider {
	return &SiteProvider{
		auth:   auth,
		logger: logging.Default().WithComponent("sharepoint_client"),
	}
}

// OpenSite authenticates against siteURL and verifies the site exists.
func (p *SiteProvider) OpenSite(ctx context.Context, siteURL string) (contracts.Site, error) {
	identity, elevated := p.auth.Ambient, elevation.IsElevated(ctx)
	if elevated {
		identity = p.auth.Elevated
	}

	client, err := spauth.NewClient(siteURL, identity)
	if err != nil {
		return nil, fmt.Errorf("auth client error: %w", err)
	}
	sp := api.NewSP(client)

	res, err := sp.Conf(&api.RequestConfig{Context: ctx}).Site().Select(SiteFields).Get()
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	info, err := decodeSite(res.Normalized())
	if err != nil {
		return nil, err
	}

	p.logger.SharePoint("Site opened", "site_url", siteURL, "site_id", info.ID, "elevated", elevated)

	return &site{
		sp:     sp,
		url:    firstNonEmpty(info.URL, siteURL),
		logger: p.logger,
	}, nil
}

// site is a handle to a site collection. REST sessions hold no server-side
// resources, so closing only invalidates the handle.
type site struct {
	sp     *api.SP
	url    string
	closed bool
	logger *logging.Logger
}

func (s *site) URL() string { return s.url }

func (s *site) OpenWeb(ctx context.Context) (contracts.Web, error) {
	if s.closed {
		return nil, contracts.ErrHandleClosed
	}

	res, err := s.sp.Conf(&api.RequestConfig{Context: ctx}).Web().Select(WebFields).Get()
	if err != nil {
		return nil, fmt.Errorf("get web: %w", err)
	}
	info, err := decodeWeb(res.Normalized())
	if err != nil {
		return nil, err
	}

	return &web{
		sp:     s.sp,
		id:     info.ID,
		url:    firstNonEmpty(info.URL, s.url),
		title:  info.Title,
		logger: s.logger,
	}, nil
}

func (s *site) Close() error {
	if s.closed {
		return contracts.ErrHandleClosed
	}
	s.closed = true
	s.logger.SharePoint("Site closed", "site_url", s.url)
	return nil
}

// web is a handle to a web. allowUnsafeUpdates is enforced client side:
// list writes issued through the handle are refused while it is false.
type web struct {
	sp                 *api.SP
	id                 string
	url                string
	title              string
	allowUnsafeUpdates bool
	closed             bool
	logger             *logging.Logger
}

func (w *web) URL() string                      { return w.url }
func (w *web) Title() string                    { return w.title }
func (w *web) AllowUnsafeUpdates() bool         { return w.allowUnsafeUpdates }
func (w *web) SetAllowUnsafeUpdates(allow bool) { w.allowUnsafeUpdates = allow }
func (w *web) Lists() contracts.ListCollection  { return &listCollection{web: w} }

func (w *web) Close() error {
	if w.closed {
		return contracts.ErrHandleClosed
	}
	w.closed = true
	return nil
}

func (w *web) conf(ctx context.Context) *api.SP {
	return w.sp.Conf(&api.RequestConfig{Context: ctx})
}

type listCollection struct {
	web *web
}

// GetByTitle returns (nil, nil) when the web has no list with that title.
func (c *listCollection) GetByTitle(ctx context.Context, title string) (contracts.List, error) {
	if c.web.closed {
		return nil, contracts.ErrHandleClosed
	}

	res, err := c.web.conf(ctx).Web().Lists().GetByTitle(title).Select(ListFields).Get()
	if err != nil {
		if isNotFound(err) {
			c.web.logger.SharePoint("List not found", "web_url", c.web.url, "list_title", title)
			return nil, nil
		}
		return nil, fmt.Errorf("get list: %w", err)
	}
	info, err := decodeList(res.Normalized())
	if err != nil {
		return nil, err
	}

	return &list{
		web: c.web,
		info: sharepoint.List{
			ID:           info.ID,
			Title:        firstNonEmpty(info.Title, title),
			ItemCount:    info.ItemCount,
			BaseTemplate: info.BaseTemplate,
		},
	}, nil
}

type list struct {
	web  *web
	info sharepoint.List
}

func (l *list) ID() string    { return l.info.ID }
func (l *list) Title() string { return l.info.Title }

// GetItems pages through every item matching query.
func (l *list) GetItems(ctx context.Context, query sharepoint.Query) (contracts.ListItemCollection, error) {
	if l.web.closed {
		return nil, contracts.ErrHandleClosed
	}

	items := l.web.conf(ctx).Web().Lists().GetByID(l.info.ID).Items()
	if query.Select != "" {
		items = items.Select(query.Select)
	} else {
		items = items.Select(ItemFields)
	}
	if query.Filter != "" {
		items = items.Filter(query.Filter)
	}
	if query.Top > 0 {
		items = items.Top(query.Top)
	}

	start := time.Now()
	collection := itemCollection{}
	err := walkListItems(ctx, items, func(ir api.ItemResp) error {
		item, err := decodeItem(ir.Normalized())
		if err != nil {
			return err
		}
		if item.FileRef != "" {
			item.URL = joinURL(l.web.url, item.FileRef)
		}
		collection = append(collection, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	l.web.logger.SharePoint("List queried", "list_title", l.info.Title, "items", len(collection))
	l.web.logger.Performance("list_query", time.Since(start), slog.Int("items", len(collection)))
	return collection, nil
}

// AddItem creates an item from fields. The owning web must allow unsafe updates.
func (l *list) AddItem(ctx context.Context, fields map[string]any) (*sharepoint.ListItem, error) {
	if l.web.closed {
		return nil, contracts.ErrHandleClosed
	}
	if !l.web.allowUnsafeUpdates {
		return nil, contracts.ErrUnsafeUpdatesDisabled
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}

	res, err := l.web.conf(ctx).Web().Lists().GetByID(l.info.ID).Items().Add(body)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	return decodeItem(res.Normalized())
}

// walkListItems iterates through all items of a query using Gosip's native pagination.
func walkListItems(ctx context.Context, items *api.Items, onItem func(api.ItemResp) error) error {
	page, err := items.GetPaged()
	if err != nil {
		return err
	}
	if page == nil { // empty list
		return nil
	}

	for p := page; ; {
		if ctx.Err() != nil {
			return fmt.Errorf("context canceled during pagination: %w", ctx.Err())
		}
		if p.Items == nil {
			return nil
		}

		for _, ir := range p.Items.Data() {
			if err := onItem(ir); err != nil {
				return err
			}
		}

		if !p.HasNextPage() {
			return nil
		}
		p, err = p.GetNextPage()
		if err != nil {
			return err
		}
	}
}

type itemCollection []*sharepoint.ListItem

func (c itemCollection) Count() int                    { return len(c) }
func (c itemCollection) Items() []*sharepoint.ListItem { return c }
