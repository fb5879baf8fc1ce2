// Package parallel provides the fixed-size worker pool used for
// data-parallel fan-out and fan-in over contiguous index ranges.
package parallel

import (
	"context"
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"
)

// A Range is the half-open index interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// A Pool runs work over index ranges on a fixed number of
// goroutines. A Pool is owned by the caller and has no state besides
// its size, so it may be shared freely.
type Pool struct {
	size int
}

// DefaultSize returns the hardware parallelism: the number of logical
// cores reported by the CPU, capped by GOMAXPROCS.
func DefaultSize() int {
	n := runtime.GOMAXPROCS(0)
	if cores := cpuid.CPU.LogicalCores; cores > 0 && cores < n {
		n = cores
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Describe returns a one-line description of the CPU the default pool
// size was derived from.
func Describe() string {
	return fmt.Sprintf("%s (%d logical cores, %d threads per core, POPCNT=%t)",
		cpuid.CPU.BrandName, cpuid.CPU.LogicalCores, cpuid.CPU.ThreadsPerCore,
		cpuid.CPU.Supports(cpuid.POPCNT))
}

// NewPool returns a pool with the given number of workers. A size of
// zero or less means DefaultSize().
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize()
	}
	return &Pool{size}
}

// SequentialPool returns a pool with a single worker, which runs
// everything on the calling goroutine.
func SequentialPool() *Pool {
	return &Pool{1}
}

// Size returns the number of workers of p.
func (p *Pool) Size() int {
	if p == nil {
		return 1
	}
	return p.size
}

// Partition splits [0, n) into at most Size() contiguous ranges of
// nearly equal length, in increasing order. Empty ranges are never
// returned.
func (p *Pool) Partition(n int) []Range {
	if n <= 0 {
		return nil
	}
	parts := p.Size()
	if parts > n {
		parts = n
	}
	ranges := make([]Range, parts)
	start := 0
	for i := range ranges {
		end := start + n/parts
		if i < n%parts {
			end++
		}
		ranges[i] = Range{start, end}
		start = end
	}
	return ranges
}

// Run calls fn once for every range of Partition(n), each on its own
// goroutine, and waits for all of them. The context passed to fn is
// cancelled as soon as any call returns an error or ctx is done; the
// first error is returned. With a single range, fn runs on the
// calling goroutine.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, r Range) error) error {
	ranges := p.Partition(n)
	if len(ranges) == 0 {
		return ctx.Err()
	}
	if len(ranges) == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, ranges[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		r := r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, r)
		})
	}
	return g.Wait()
}
