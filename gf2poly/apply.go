package gf2poly

import (
	"context"
	"fmt"
	"sync"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/parallel"
)

// cancelCheckInterval is how many terms an evaluation loop handles
// between checks of its context.
const cancelCheckInterval = 1024

// Apply returns f(input).
func (f Function) Apply(input gf2.Vector) (gf2.Vector, error) {
	return f.ApplyContext(context.Background(), input)
}

// ApplyPair returns f(lhs || rhs) for a function whose input is two
// concatenated halves of equal length, lhs occupying the low bits.
func (f Function) ApplyPair(lhs, rhs gf2.Vector) (gf2.Vector, error) {
	if lhs.Len() != rhs.Len() {
		return gf2.Vector{}, fmt.Errorf("%w: halves of %d and %d bits", gf2.ErrDimensionMismatch, lhs.Len(), rhs.Len())
	}
	return f.Apply(lhs.Concat(rhs))
}

// ApplyContext returns f(input), stopping early with ctx's error if
// ctx is done while terms are being evaluated. A parameterized
// function first evaluates its pipelines on input and appends their
// outputs to it.
func (f Function) ApplyContext(ctx context.Context, input gf2.Vector) (gf2.Vector, error) {
	if input.Len() != f.inputLength {
		return gf2.Vector{}, fmt.Errorf("%w: %d-bit input to a %d-input function", gf2.ErrDimensionMismatch, input.Len(), f.inputLength)
	}

	if len(f.pipelines) > 0 {
		outputs := make([]gf2.Vector, len(f.pipelines))
		for i, p := range f.pipelines {
			out, err := p.ApplyContext(ctx, input)
			if err != nil {
				return gf2.Vector{}, err
			}
			outputs[i] = out
		}
		input = input.Concat(outputs...)
	}

	if f.strategy == Parallel && f.pool.Size() > 1 {
		return f.evalParallel(ctx, f.pool, input)
	}
	return f.evalSequential(ctx, input, 0, len(f.monomials))
}

// evalSequential returns the xor of the contributions of the terms in
// [start, end) that are true on input.
func (f Function) evalSequential(ctx context.Context, input gf2.Vector, start, end int) (gf2.Vector, error) {
	acc := gf2.NewVector(f.outputLength)
	for i := start; i < end; i++ {
		if (i-start)%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return gf2.Vector{}, err
			}
		}
		if f.monomials[i].eval(input) {
			acc.XorAssign(f.contributions[i])
		}
	}
	return acc, nil
}

// evalParallel splits the terms into one contiguous block per worker;
// each block accumulates its own sum, which is merged into the result
// under a lock once the block is done.
func (f Function) evalParallel(ctx context.Context, pool *parallel.Pool, input gf2.Vector) (gf2.Vector, error) {
	var mu sync.Mutex
	result := gf2.NewVector(f.outputLength)
	err := pool.Run(ctx, len(f.monomials), func(ctx context.Context, r parallel.Range) error {
		local, err := f.evalSequential(ctx, input, r.Start, r.End)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		result.XorAssign(local)
		return nil
	})
	if err != nil {
		return gf2.Vector{}, err
	}
	return result, nil
}
