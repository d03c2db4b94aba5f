package application

import (
	"context"
	"fmt"

	"spscope/domain/contracts"
	"spscope/domain/sharepoint"
	"spscope/logging"
)

// Callbacks run inside a scope. The handle they receive is only valid until they return.
type (
	SiteOperation  func(ctx context.Context, site contracts.Site) error
	WebOperation   func(ctx context.Context, web contracts.Web) error
	ListOperation  func(ctx context.Context, list contracts.List) error
	ItemsOperation func(ctx context.Context, items contracts.ListItemCollection) error
)

const unnamedOperation = "unnamed operation"

// ScopedOperationRunner executes callbacks against site, web and list handles.
// Each operation acquires its handles, runs the callback and releases the handles
// on every exit path. Callback failures are reported to the diagnostic log once,
// under the operation name given by the caller, and returned unchanged.
type ScopedOperationRunner struct {
	sites       contracts.SiteProvider
	elevator    contracts.Elevator
	diagnostics contracts.DiagnosticLog
	logger      *logging.Logger
}

// NewScopedOperationRunner creates a runner over the given platform collaborators
func NewScopedOperationRunner(sites contracts.SiteProvider, elevator contracts.Elevator, diagnostics contracts.DiagnosticLog) *ScopedOperationRunner {
	return &ScopedOperationRunner{
		sites:       sites,
		elevator:    elevator,
		diagnostics: diagnostics,
		logger:      logging.Default().WithComponent("scoped_operation_runner"),
	}
}

// SiteOp opens the site at siteURL, runs op and closes the site.
func (r *ScopedOperationRunner) SiteOp(ctx context.Context, siteURL string, name string, op SiteOperation) error {
	return r.withSite(ctx, siteURL, func(site contracts.Site) error {
		return r.invoke(name, func() error { return op(ctx, site) })
	})
}

// SiteOpElevated runs SiteOp under elevated privileges.
func (r *ScopedOperationRunner) SiteOpElevated(ctx context.Context, siteURL string, name string, op SiteOperation) error {
	return r.elevator.RunElevated(ctx, func(ctx context.Context) error {
		return r.SiteOp(ctx, siteURL, name, op)
	})
}

// WebOp opens the root web of the site at siteURL and runs op with unsafe updates allowed.
// The web's original AllowUnsafeUpdates value is restored before the web is closed.
func (r *ScopedOperationRunner) WebOp(ctx context.Context, siteURL string, name string, op WebOperation) error {
	return r.withWeb(ctx, siteURL, func(web contracts.Web) error {
		return r.invoke(name, func() error { return op(ctx, web) })
	})
}

// WebOpElevated runs WebOp under elevated privileges.
func (r *ScopedOperationRunner) WebOpElevated(ctx context.Context, siteURL string, name string, op WebOperation) error {
	return r.elevator.RunElevated(ctx, func(ctx context.Context) error {
		return r.WebOp(ctx, siteURL, name, op)
	})
}

// ListOp resolves listName in the root web of siteURL and runs op against it.
// An absent list fails with *contracts.NotFoundError and op is not called.
func (r *ScopedOperationRunner) ListOp(ctx context.Context, siteURL string, listName string, name string, op ListOperation) error {
	return r.withWeb(ctx, siteURL, func(web contracts.Web) error {
		list, err := r.resolveList(ctx, web, siteURL, listName)
		if err != nil {
			return err
		}
		return r.invoke(name, func() error { return op(ctx, list) })
	})
}

// ListOpElevated runs ListOp under elevated privileges.
func (r *ScopedOperationRunner) ListOpElevated(ctx context.Context, siteURL string, listName string, name string, op ListOperation) error {
	return r.elevator.RunElevated(ctx, func(ctx context.Context) error {
		return r.ListOp(ctx, siteURL, listName, name, op)
	})
}

// ElevatedListOp resolves listName under elevated privileges and runs op against it,
// failing fast with *contracts.NotFoundError when the list does not exist.
func (r *ScopedOperationRunner) ElevatedListOp(ctx context.Context, siteURL string, listName string, name string, op ListOperation) error {
	return r.ListOpElevated(ctx, siteURL, listName, name, op)
}

// ElevatedQueryOp runs the default query against listName under elevated privileges
// and hands the resulting item collection to op.
func (r *ScopedOperationRunner) ElevatedQueryOp(ctx context.Context, siteURL string, listName string, name string, op ItemsOperation) error {
	return r.QueryOpElevated(ctx, siteURL, listName, sharepoint.DefaultQuery(), name, op)
}

// QueryOp runs query against listName and hands the resulting item collection to op.
// A missing list or a missing collection fails with *contracts.NotFoundError before op is called.
func (r *ScopedOperationRunner) QueryOp(ctx context.Context, siteURL string, listName string, query sharepoint.Query, name string, op ItemsOperation) error {
	return r.withWeb(ctx, siteURL, func(web contracts.Web) error {
		list, err := r.resolveList(ctx, web, siteURL, listName)
		if err != nil {
			return err
		}

		items, err := list.GetItems(ctx, query)
		if err != nil {
			return fmt.Errorf("query list %q: %w", listName, err)
		}
		if items == nil {
			return &contracts.NotFoundError{Kind: contracts.NotFoundItemCollection, ListName: listName, WebURL: siteURL}
		}

		return r.invoke(name, func() error { return op(ctx, items) })
	})
}

// QueryOpElevated runs QueryOp under elevated privileges.
func (r *ScopedOperationRunner) QueryOpElevated(ctx context.Context, siteURL string, listName string, query sharepoint.Query, name string, op ItemsOperation) error {
	return r.elevator.RunElevated(ctx, func(ctx context.Context) error {
		return r.QueryOp(ctx, siteURL, listName, query, name, op)
	})
}

// withSite acquires a site handle and guarantees its release.
// A release failure is only returned when fn succeeded.
func (r *ScopedOperationRunner) withSite(ctx context.Context, siteURL string, fn func(site contracts.Site) error) (err error) {
	site, err := r.sites.OpenSite(ctx, siteURL)
	if err != nil {
		return fmt.Errorf("open site %s: %w", siteURL, err)
	}
	defer func() {
		if closeErr := site.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("close site %s: %w", siteURL, closeErr)
				return
			}
			r.logger.WithSite(siteURL).Warn("Failed to close site", "error", closeErr.Error())
		}
	}()

	return fn(site)
}

// withWeb opens the root web inside a site scope with the unsafe-updates guard relaxed.
// Deferred calls run in reverse order, so the flag is restored before the web is closed.
func (r *ScopedOperationRunner) withWeb(ctx context.Context, siteURL string, fn func(web contracts.Web) error) error {
	return r.withSite(ctx, siteURL, func(site contracts.Site) (err error) {
		web, err := site.OpenWeb(ctx)
		if err != nil {
			return fmt.Errorf("open web %s: %w", siteURL, err)
		}
		defer func() {
			if closeErr := web.Close(); closeErr != nil {
				if err == nil {
					err = fmt.Errorf("close web %s: %w", siteURL, closeErr)
					return
				}
				r.logger.WithSite(siteURL).Warn("Failed to close web", "error", closeErr.Error())
			}
		}()

		original := web.AllowUnsafeUpdates()
		web.SetAllowUnsafeUpdates(true)
		defer web.SetAllowUnsafeUpdates(original)

		return fn(web)
	})
}

func (r *ScopedOperationRunner) resolveList(ctx context.Context, web contracts.Web, siteURL string, listName string) (contracts.List, error) {
	list, err := web.Lists().GetByTitle(ctx, listName)
	if err != nil {
		return nil, fmt.Errorf("get list %q: %w", listName, err)
	}
	if list == nil {
		return nil, &contracts.NotFoundError{Kind: contracts.NotFoundList, ListName: listName, WebURL: siteURL}
	}
	return list, nil
}

// invoke runs a caller callback and reports its failure to the diagnostic log.
// The error is returned as-is so callers can compare it by identity.
func (r *ScopedOperationRunner) invoke(name string, fn func() error) error {
	err := fn()
	if err != nil {
		if name == "" {
			name = unnamedOperation
		}
		r.diagnostics.Error(name, contracts.FormatError(err))
	}
	return err
}
