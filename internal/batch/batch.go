// Package batch resolves many roll numbers at once: availability checks
// for a class range and chart fetches for bundling. Work fans out over a
// bounded worker pool and results come back in input order.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/must-gpa/chartlet/internal/chart"
	domerrors "github.com/must-gpa/chartlet/internal/errors"
	"github.com/must-gpa/chartlet/internal/metrics"
	"github.com/must-gpa/chartlet/internal/resolver"
	"github.com/must-gpa/chartlet/internal/roll"
)

// Options configures a Runner.
type Options struct {
	Workers int
	// MaxSize caps the number of rolls in one batch. Zero means no cap.
	MaxSize int
	Metrics *metrics.Metrics
}

// Item is one fetched chart. Image is nil when Err is set.
type Item struct {
	chart.Reference
	Image []byte
	Err   error
}

// Progress is called once per finished item.
type Progress func()

// Runner executes batches against a Resolver.
type Runner struct {
	resolver *resolver.Resolver
	workers  int
	maxSize  int
	metrics  *metrics.Metrics
}

// New creates a Runner.
func New(r *resolver.Resolver, opts Options) *Runner {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		resolver: r,
		workers:  workers,
		maxSize:  opts.MaxSize,
		metrics:  opts.Metrics,
	}
}

// Range expands first..last into references, enforcing MaxSize.
func (b *Runner) Range(first, last string) ([]chart.Reference, error) {
	rng, err := roll.NewRange(first, last)
	if err != nil {
		return nil, err
	}
	if b.maxSize > 0 && rng.Len() > b.maxSize {
		return nil, domerrors.NewValidationError("last_roll",
			fmt.Sprintf("range of %d rolls exceeds the limit of %d", rng.Len(), b.maxSize))
	}
	return b.resolver.Builder().Refs(rng.Rolls()), nil
}

// List parses a comma-separated list into references, enforcing MaxSize.
func (b *Runner) List(input string) ([]chart.Reference, error) {
	rolls, err := roll.ParseList(input)
	if err != nil {
		return nil, err
	}
	if b.maxSize > 0 && len(rolls) > b.maxSize {
		return nil, domerrors.NewValidationError("roll_number",
			fmt.Sprintf("%d roll numbers exceed the limit of %d", len(rolls), b.maxSize))
	}
	return b.resolver.Builder().Refs(rolls), nil
}

// Check probes every reference. Per-item failures are reported in the
// results; the returned error is only set when ctx ends first.
func (b *Runner) Check(ctx context.Context, refs []chart.Reference, progress Progress) ([]resolver.Result, error) {
	out := make([]resolver.Result, len(refs))
	err := b.run(ctx, len(refs), progress, func(ctx context.Context, i int) {
		out[i] = b.resolver.Check(ctx, refs[i])
	})
	return out, err
}

// Fetch downloads every chart's bytes.
func (b *Runner) Fetch(ctx context.Context, refs []chart.Reference, progress Progress) ([]Item, error) {
	out := make([]Item, len(refs))
	err := b.run(ctx, len(refs), progress, func(ctx context.Context, i int) {
		data, err := b.resolver.FetchImage(ctx, refs[i])
		out[i] = Item{Reference: refs[i], Image: data, Err: err}
	})
	return out, err
}

// run calls fn for indexes 0..n-1 on at most b.workers goroutines.
func (b *Runner) run(ctx context.Context, n int, progress Progress, fn func(context.Context, int)) error {
	if b.metrics != nil {
		b.metrics.RecordBatch(n)
	}

	var progressMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, i)
			if progress != nil {
				progressMu.Lock()
				progress()
				progressMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Batch finished", "size", n, "workers", b.workers)
	return nil
}
