package gf2poly

import (
	"context"
	"fmt"

	"github.com/akalin/mvq/gf2"
)

// NewParameterized returns the function of an external input x given
// by base(x || p_0(x) || p_1(x) || ...). Each pipeline p_i must take
// external input bits, and base must take external plus all of their
// outputs. The result evaluates with base's strategy.
func NewParameterized(base Function, external int, pipelines ...Function) (Function, error) {
	if base.IsParameterized() {
		return Function{}, fmt.Errorf("%w: base function is already parameterized", gf2.ErrDimensionMismatch)
	}
	n := external
	for i, p := range pipelines {
		if p.inputLength != external {
			return Function{}, fmt.Errorf("%w: pipeline %d has %d inputs, expected %d", gf2.ErrDimensionMismatch, i, p.inputLength, external)
		}
		n += p.outputLength
	}
	if base.inputLength != n {
		return Function{}, fmt.Errorf("%w: base has %d inputs, pipelines give %d", gf2.ErrDimensionMismatch, base.inputLength, n)
	}

	f := base
	f.inputLength = external
	f.pipelines = make([]Function, len(pipelines))
	copy(f.pipelines, pipelines)
	return f, nil
}

// Base returns the terms of f as a plain function of the input
// followed by the pipeline outputs. For a plain f this is f itself.
func (f Function) Base() Function {
	f.inputLength = f.baseInputLength()
	f.pipelines = nil
	return f
}

// Flatten returns a plain function equal to f, obtained by composing
// f with the identity so the pipelines are substituted into its
// terms. A plain f is returned unchanged.
func (f Function) Flatten() (Function, error) {
	return Composer{Pool: f.pool}.flatten(context.Background(), f)
}
