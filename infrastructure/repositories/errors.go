package repositories

import "fmt"

// ErrInvalidEntry occurs when an entry cannot be stored as given
type ErrInvalidEntry struct {
	Field  string
	Reason string
}

func (e ErrInvalidEntry) Error() string {
	return fmt.Sprintf("invalid diagnostic entry: %s %s", e.Field, e.Reason)
}
