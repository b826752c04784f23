package scraper

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/must-gpa/chartlet/internal/metrics"
)

// Flight collapses concurrent calls for the same key into one execution.
// The shared call runs on a context detached from the first caller's
// cancellation but bounded by that caller's deadline, if any. The HTTP
// client timeout bounds it either way.
type Flight[T any] struct {
	group   singleflight.Group
	op      string
	metrics *metrics.Metrics
}

// NewFlight creates a Flight. op labels the dedup metric.
func NewFlight[T any](op string, m *metrics.Metrics) *Flight[T] {
	return &Flight[T]{op: op, metrics: m}
}

// Do executes fn once per key among concurrent callers.
func (f *Flight[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	default:
	}

	ch := f.group.DoChan(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			shared, cancel = context.WithDeadline(shared, deadline)
			defer cancel()
		}
		return fn(shared)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared && f.metrics != nil {
			f.metrics.RecordSingleflightDedup(f.op)
		}
		v, _ := res.Val.(T)
		return v, res.Err
	}
}

// Forget removes a key so the next call executes again.
func (f *Flight[T]) Forget(key string) {
	f.group.Forget(key)
}
