package gf2poly

import (
	"fmt"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/prng"
)

// Identity returns the function x -> x on n bits.
func Identity(n int) Function {
	return Projection(n, 0, n)
}

// Projection returns the function x -> x[lo:hi] on n bits.
func Projection(n, lo, hi int) Function {
	if lo < 0 || hi > n || lo > hi {
		panic("projection bounds out of range")
	}
	f := Function{inputLength: n, outputLength: hi - lo}
	for i := lo; i < hi; i++ {
		f.monomials = append(f.monomials, Variable(n, i))
		f.contributions = append(f.contributions, gf2.UnitVector(hi-lo, i-lo))
	}
	sortTerms(f.monomials, f.contributions)
	return f
}

// Linear returns the function x -> m·x.
func Linear(m gf2.Matrix) Function {
	t := m.Transpose()
	b := NewBuilder(m.Columns(), m.Rows())
	for j := 0; j < m.Columns(); j++ {
		if c := t.Row(j); !c.IsZero() {
			b.add(Variable(m.Columns(), j), c)
		}
	}
	return b.Build()
}

// Constant returns the function on n bits that is c everywhere.
func Constant(n int, c gf2.Vector) Function {
	b := NewBuilder(n, c.Len())
	b.add(ConstantMonomial(n), c)
	return b.Build()
}

// XorFunction returns the function on two concatenated half-bit
// operands whose low half is their xor and whose high half is zero.
func XorFunction(half int) Function {
	n := 2 * half
	b := NewBuilder(n, n)
	for i := 0; i < half; i++ {
		b.add(Variable(n, i), gf2.UnitVector(n, i))
		b.add(Variable(n, half+i), gf2.UnitVector(n, i))
	}
	return b.Build()
}

// AndFunction returns the function on two concatenated half-bit
// operands whose low half is their bitwise and and whose high half is
// zero.
func AndFunction(half int) Function {
	n := 2 * half
	b := NewBuilder(n, n)
	for i := 0; i < half; i++ {
		b.add(NewMonomialFromVariables(n, i, half+i), gf2.UnitVector(n, i))
	}
	return b.Build()
}

func randomNonZeroVector(src *prng.Source, n int) (gf2.Vector, error) {
	for {
		v, err := gf2.RandomVector(src, n)
		if err != nil || !v.IsZero() || n == 0 {
			return v, err
		}
	}
}

func randomMonomial(src *prng.Source, n, order int) (Monomial, error) {
	v := gf2.NewVector(n)
	for v.OnesCount() < order {
		i, err := src.Intn(n)
		if err != nil {
			return Monomial{}, err
		}
		v.SetBit(i, true)
	}
	return Monomial{v}, nil
}

// RandomFunction returns a sparse random function from in bits to out
// bits with about terms terms. The first term has exactly order
// variables and the others between 0 and order, so the result has
// order order unless terms is zero.
func RandomFunction(src *prng.Source, in, out, order, terms int) (Function, error) {
	if order < 0 || order > in {
		return Function{}, fmt.Errorf("%w: order %d for %d inputs", gf2.ErrDimensionMismatch, order, in)
	}
	b := NewBuilder(in, out)
	for t := 0; t < terms; t++ {
		k := order
		if t > 0 {
			var err error
			k, err = src.Intn(order + 1)
			if err != nil {
				return Function{}, err
			}
		}
		m, err := randomMonomial(src, in, k)
		if err != nil {
			return Function{}, err
		}
		// A monomial drawn twice would have its contributions
		// xored, so only keep the first draw.
		if _, ok := b.index[m.Key()]; ok {
			continue
		}
		c, err := randomNonZeroVector(src, out)
		if err != nil {
			return Function{}, err
		}
		b.add(m, c)
	}
	return b.Build(), nil
}

// RandomDense returns a random function from in bits to out bits
// with a uniformly random contribution for every monomial of at most
// order variables.
func RandomDense(src *prng.Source, in, out, order int) (Function, error) {
	if order < 0 || order > in {
		return Function{}, fmt.Errorf("%w: order %d for %d inputs", gf2.ErrDimensionMismatch, order, in)
	}
	all := Monomial{gf2.OnesVector(in)}
	b := NewBuilder(in, out)
	for k := 0; k <= order; k++ {
		for _, m := range all.Subsets(k) {
			c, err := gf2.RandomVector(src, out)
			if err != nil {
				return Function{}, err
			}
			b.add(m, c)
		}
	}
	return b.Build(), nil
}

// RandomQuadratic returns a random dense multivariate quadratic
// function from in bits to out bits.
func RandomQuadratic(src *prng.Source, in, out int) (Function, error) {
	order := 2
	if in < order {
		order = in
	}
	return RandomDense(src, in, out, order)
}

// RandomLinear returns x -> m·x for a uniformly random out x in
// matrix m.
func RandomLinear(src *prng.Source, in, out int) (Function, error) {
	m, err := gf2.RandomMatrix(src, out, in)
	if err != nil {
		return Function{}, err
	}
	return Linear(m), nil
}
