package gf2poly

import (
	"fmt"

	"github.com/akalin/mvq/gf2"
)

func checkSameShape(op string, f, g Function) error {
	if f.inputLength != g.inputLength || f.outputLength != g.outputLength {
		return fmt.Errorf("%w: %s of %d -> %d and %d -> %d functions", gf2.ErrDimensionMismatch, op, f.inputLength, f.outputLength, g.inputLength, g.outputLength)
	}
	return nil
}

// Xor returns the function x -> f(x) xor g(x). Terms with shared
// monomials have their contributions xored, and dropped if that
// gives zero. Parameterized operands are flattened first.
func (f Function) Xor(g Function) (Function, error) {
	if err := checkSameShape("xor", f, g); err != nil {
		return Function{}, err
	}
	f, g, err := flattenPair(f, g)
	if err != nil {
		return Function{}, err
	}

	b := NewBuilder(f.inputLength, f.outputLength)
	for i, m := range f.monomials {
		b.add(m, f.contributions[i])
	}
	for i, m := range g.monomials {
		b.add(m, g.contributions[i])
	}
	return b.Build().withStrategyOf(f), nil
}

// And returns the function x -> f(x) and g(x), computed as the
// product of every term of f with every term of g. Products that
// occur an even number of times cancel. Parameterized operands are
// flattened first.
func (f Function) And(g Function) (Function, error) {
	if err := checkSameShape("and", f, g); err != nil {
		return Function{}, err
	}
	f, g, err := flattenPair(f, g)
	if err != nil {
		return Function{}, err
	}

	b := NewBuilder(f.inputLength, f.outputLength)
	for i, mi := range f.monomials {
		for j, mj := range g.monomials {
			c := f.contributions[i].And(g.contributions[j])
			if c.IsZero() {
				continue
			}
			b.add(mi.product(mj), c)
		}
	}
	return b.Build().withStrategyOf(f), nil
}

// TransformOutputs returns the function x -> m·f(x), where m must
// have OutputLength() columns. Pipelines are kept as they are.
func (f Function) TransformOutputs(m gf2.Matrix) (Function, error) {
	if m.Columns() != f.outputLength {
		return Function{}, fmt.Errorf("%w: %dx%d matrix times %d-output function", gf2.ErrDimensionMismatch, m.Rows(), m.Columns(), f.outputLength)
	}

	b := NewBuilder(f.baseInputLength(), m.Rows())
	for i, mono := range f.monomials {
		c, err := m.TimesVector(f.contributions[i])
		if err != nil {
			return Function{}, err
		}
		if !c.IsZero() {
			b.add(mono, c)
		}
	}
	out := b.Build().withStrategyOf(f)
	out.inputLength = f.inputLength
	out.pipelines = f.pipelines
	return out, nil
}

// embed returns c placed at bit offset of a zero vector of length n.
func embed(c gf2.Vector, offset, n int) gf2.Vector {
	return gf2.NewVector(offset).Concat(c, gf2.NewVector(n-offset-c.Len()))
}

// Concat returns the function x -> fs[0](x) || fs[1](x) || ..., with
// fs[0] in the low output bits. Every function must have the same
// input length; parameterized ones are flattened first. The result
// takes the evaluation strategy of fs[0].
func Concat(fs ...Function) (Function, error) {
	if len(fs) == 0 {
		return Function{}, fmt.Errorf("%w: nothing to concatenate", gf2.ErrDimensionMismatch)
	}
	inputLength := fs[0].inputLength
	outputLength := 0
	for i, f := range fs {
		if f.inputLength != inputLength {
			return Function{}, fmt.Errorf("%w: function %d has %d inputs, expected %d", gf2.ErrDimensionMismatch, i, f.inputLength, inputLength)
		}
		outputLength += f.outputLength
	}

	b := NewBuilder(inputLength, outputLength)
	offset := 0
	for _, f := range fs {
		flat, err := f.Flatten()
		if err != nil {
			return Function{}, err
		}
		for i, m := range flat.monomials {
			b.add(m, embed(flat.contributions[i], offset, outputLength))
		}
		offset += f.outputLength
	}
	return b.Build().withStrategyOf(fs[0]), nil
}

func flattenPair(f, g Function) (Function, Function, error) {
	f, err := f.Flatten()
	if err != nil {
		return Function{}, Function{}, err
	}
	g, err = g.Flatten()
	if err != nil {
		return Function{}, Function{}, err
	}
	return f, g, nil
}
