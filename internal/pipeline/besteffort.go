package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Optional holds a value that may be absent. Absence is a valid state, not an error.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None is the empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value is held.
func (o Optional[T]) Present() bool {
	return o.ok
}

// BestEffort runs fn on g and hands the result to onDone. A failure is reported
// as a *PartialOutcome with an empty Optional and is never returned to g.
func BestEffort[T any](ctx context.Context, g *errgroup.Group, step string, fn func(context.Context) (T, error), onDone func(Optional[T], error)) {
	g.Go(func() error {
		v, err := fn(ctx)
		if err != nil {
			onDone(None[T](), &PartialOutcome{Step: step, Cause: err})
			return nil
		}
		onDone(Some(v), nil)
		return nil
	})
}
