// Package elevation carries the elevated-privilege marker through a context.
// The platform binding reads the marker to choose the identity a request runs as.
package elevation

import (
	"context"

	"spscope/logging"
)

type elevatedKey struct{}

// WithElevated returns a context that runs platform calls under the elevated identity
func WithElevated(ctx context.Context) context.Context {
	return context.WithValue(ctx, elevatedKey{}, true)
}

// IsElevated reports whether ctx carries the elevated marker
func IsElevated(ctx context.Context) bool {
	v, _ := ctx.Value(elevatedKey{}).(bool)
	return v
}

// Runner implements contracts.Elevator
type Runner struct {
	logger *logging.Logger
}

// NewRunner creates an elevation runner
func NewRunner() *Runner {
	return &Runner{
		logger: logging.Default().WithComponent("elevation"),
	}
}

// RunElevated runs fn synchronously with an elevated context.
// The caller's context is left untouched, so elevation ends when fn returns.
func (r *Runner) RunElevated(ctx context.Context, fn func(ctx context.Context) error) error {
	if IsElevated(ctx) {
		return fn(ctx)
	}
	r.logger.Security("running operation with elevated privileges")
	return fn(WithElevated(ctx))
}
