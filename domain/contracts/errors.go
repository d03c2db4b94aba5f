package contracts

import (
	"errors"
	"fmt"
)

// Common errors for domain contracts
var (
	// ErrNotFound matches every NotFoundError via errors.Is
	ErrNotFound = errors.New("not found")

	// ErrUnsafeUpdatesDisabled occurs when a write is issued through a web whose unsafe-updates guard is not relaxed
	ErrUnsafeUpdatesDisabled = errors.New("unsafe updates are not allowed on this web")

	// ErrHandleClosed occurs when a site or web handle is used after it was released
	ErrHandleClosed = errors.New("handle already closed")
)

// NotFoundKind identifies what a NotFoundError failed to resolve
type NotFoundKind string

const (
	NotFoundList           NotFoundKind = "list"
	NotFoundItemCollection NotFoundKind = "item_collection"
)

// NotFoundError is raised by scopes that fail fast when a named list,
// or the item collection of its query, cannot be resolved.
type NotFoundError struct {
	Kind     NotFoundKind
	ListName string
	WebURL   string
}

func (e *NotFoundError) Error() string {
	if e.Kind == NotFoundItemCollection {
		return fmt.Sprintf("ListItemCollection '%s' cannot be found in '%s' web", e.ListName, e.WebURL)
	}
	return fmt.Sprintf("List '%s' cannot be found in '%s' web", e.ListName, e.WebURL)
}

// Is lets errors.Is(err, ErrNotFound) match any NotFoundError
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FormatError renders an error for the diagnostic log: the error itself,
// followed by "::" and its inner error when one is present.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if inner := errors.Unwrap(err); inner != nil {
		msg += "::" + inner.Error()
	}
	return msg
}
