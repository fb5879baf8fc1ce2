package gf2poly

import (
	"fmt"

	"github.com/akalin/mvq/gf2"
)

// Resolve fixes the first prefix.Len() input variables of f to the
// bits of prefix, and returns the resulting function of the remaining
// variables. A term survives only if its fixed variables are all set
// in prefix, and then loses them; terms that become equal are merged.
// Parameterized functions are flattened first.
func (f Function) Resolve(prefix gf2.Vector) (Function, error) {
	k := prefix.Len()
	if k > f.inputLength {
		return Function{}, fmt.Errorf("%w: %d-bit prefix for a %d-input function", gf2.ErrDimensionMismatch, k, f.inputLength)
	}
	flat, err := f.Flatten()
	if err != nil {
		return Function{}, err
	}

	b := NewBuilder(f.inputLength-k, f.outputLength)
	for i, m := range flat.monomials {
		if !m.bits.Slice(0, k).SubsetOf(prefix) {
			continue
		}
		b.add(Monomial{m.bits.Slice(k, f.inputLength)}, flat.contributions[i])
	}
	return b.Build().withStrategyOf(f), nil
}

// Split partitions the output bits of f at the given increasing
// points, which must lie strictly between 0 and OutputLength(), and
// returns one function per piece, lowest bits first. Pipelines are
// shared by every piece.
func (f Function) Split(points ...int) ([]Function, error) {
	bounds := make([]int, 0, len(points)+2)
	bounds = append(bounds, 0)
	for _, p := range points {
		if p <= bounds[len(bounds)-1] || p >= f.outputLength {
			return nil, fmt.Errorf("%w: split points %v for %d outputs", gf2.ErrDimensionMismatch, points, f.outputLength)
		}
		bounds = append(bounds, p)
	}
	bounds = append(bounds, f.outputLength)

	pieces := make([]Function, len(bounds)-1)
	for k := range pieces {
		lo, hi := bounds[k], bounds[k+1]
		b := NewBuilder(f.baseInputLength(), hi-lo)
		for i, m := range f.monomials {
			c := f.contributions[i].Slice(lo, hi)
			if !c.IsZero() {
				b.add(m, c)
			}
		}
		piece := b.Build().withStrategyOf(f)
		piece.inputLength = f.inputLength
		piece.pipelines = f.pipelines
		pieces[k] = piece
	}
	return pieces, nil
}
