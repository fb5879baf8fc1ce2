// Package gf2poly implements vector-valued multivariate polynomial
// functions over GF(2): evaluation, xor and and of functions, partial
// evaluation, output splitting and, most importantly, composition.
package gf2poly

import (
	"fmt"
	"sort"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/parallel"
)

// Strategy selects how a Function evaluates its terms.
type Strategy int

const (
	// Sequential evaluates every term on the calling goroutine.
	Sequential Strategy = iota
	// Parallel splits the terms into contiguous blocks, one per
	// worker of the function's pool.
	Parallel
)

func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// A Function is a map from GF(2)^InputLength() to
// GF(2)^OutputLength() given by a list of terms. Each term is a
// monomial paired with a contribution, and the output on x is the xor
// of the contributions of the monomials that are true on x.
//
// No two terms share a monomial and no contribution is zero. A
// Function is immutable and may be shared between goroutines.
//
// A Function may also be parameterized: it then carries pipeline
// functions over the same input, and its terms range over the input
// followed by the outputs of the pipelines.
type Function struct {
	inputLength, outputLength int

	monomials     []Monomial
	contributions []gf2.Vector

	pipelines []Function

	strategy Strategy
	pool     *parallel.Pool
}

// NewFunction returns the function with the given terms. Terms with
// equal monomials are merged by xoring their contributions, and zero
// contributions are dropped.
func NewFunction(inputLength, outputLength int, monomials []Monomial, contributions []gf2.Vector) (Function, error) {
	if len(monomials) != len(contributions) {
		return Function{}, fmt.Errorf("%w: %d monomials with %d contributions", gf2.ErrDimensionMismatch, len(monomials), len(contributions))
	}
	b := NewBuilder(inputLength, outputLength)
	for i, m := range monomials {
		if err := b.Add(m, contributions[i]); err != nil {
			return Function{}, err
		}
	}
	return b.Build(), nil
}

// ZeroFunction returns the function that is zero everywhere.
func ZeroFunction(inputLength, outputLength int) Function {
	return NewBuilder(inputLength, outputLength).Build()
}

// InputLength returns the number of input bits of f.
func (f Function) InputLength() int {
	return f.inputLength
}

// OutputLength returns the number of output bits of f.
func (f Function) OutputLength() int {
	return f.outputLength
}

// baseInputLength returns the number of variables the terms of f
// range over.
func (f Function) baseInputLength() int {
	n := f.inputLength
	for _, p := range f.pipelines {
		n += p.outputLength
	}
	return n
}

// Terms returns the number of terms of f.
func (f Function) Terms() int {
	return len(f.monomials)
}

// Monomial returns the monomial of term i.
func (f Function) Monomial(i int) Monomial {
	return f.monomials[i]
}

// Contribution returns a copy of the contribution of term i.
func (f Function) Contribution(i int) gf2.Vector {
	return f.contributions[i].Clone()
}

// Monomials returns the monomials of f, in term order.
func (f Function) Monomials() []Monomial {
	ms := make([]Monomial, len(f.monomials))
	copy(ms, f.monomials)
	return ms
}

// Contributions returns copies of the contributions of f, in term
// order.
func (f Function) Contributions() []gf2.Vector {
	cs := make([]gf2.Vector, len(f.contributions))
	for i, c := range f.contributions {
		cs[i] = c.Clone()
	}
	return cs
}

// Order returns the largest cardinality of a monomial of f, or 0 if f
// has no terms.
func (f Function) Order() int {
	order := 0
	for _, m := range f.monomials {
		if c := m.Cardinality(); c > order {
			order = c
		}
	}
	return order
}

// ConstantTerm returns the contribution of the constant monomial of
// f, if it has one.
func (f Function) ConstantTerm() (gf2.Vector, bool) {
	for i, m := range f.monomials {
		if m.IsZero() {
			return f.contributions[i].Clone(), true
		}
	}
	return gf2.Vector{}, false
}

// IsParameterized returns whether Apply runs pipeline functions
// before evaluating the terms of f.
func (f Function) IsParameterized() bool {
	return len(f.pipelines) > 0
}

// Pipelines returns the pipeline functions of f, in the order their
// outputs follow the input.
func (f Function) Pipelines() []Function {
	ps := make([]Function, len(f.pipelines))
	copy(ps, f.pipelines)
	return ps
}

// Strategy returns the evaluation strategy of f.
func (f Function) Strategy() Strategy {
	return f.strategy
}

// Pool returns the pool f evaluates and composes on, or nil for a
// sequential function.
func (f Function) Pool() *parallel.Pool {
	return f.pool
}

// WithPool returns f set to evaluate in parallel on pool. A nil pool
// gives a sequential function.
func (f Function) WithPool(pool *parallel.Pool) Function {
	if pool == nil {
		return f.Sequential()
	}
	f.strategy = Parallel
	f.pool = pool
	return f
}

// Sequential returns f set to evaluate on the calling goroutine.
func (f Function) Sequential() Function {
	f.strategy = Sequential
	f.pool = nil
	return f
}

func (f Function) withStrategyOf(g Function) Function {
	f.strategy = g.strategy
	f.pool = g.pool
	return f
}

// Equal returns whether f and g have the same shape, pipelines and
// terms. Term order and evaluation strategy are ignored.
func (f Function) Equal(g Function) bool {
	if f.inputLength != g.inputLength || f.outputLength != g.outputLength || len(f.monomials) != len(g.monomials) || len(f.pipelines) != len(g.pipelines) {
		return false
	}
	for i, p := range f.pipelines {
		if !p.Equal(g.pipelines[i]) {
			return false
		}
	}
	index := make(map[string]int, len(f.monomials))
	for i, m := range f.monomials {
		index[m.Key()] = i
	}
	for j, m := range g.monomials {
		i, ok := index[m.Key()]
		if !ok || !f.contributions[i].Equal(g.contributions[j]) {
			return false
		}
	}
	return true
}

// String returns f as one line per term.
func (f Function) String() string {
	s := fmt.Sprintf("%d -> %d, %d terms", f.inputLength, f.outputLength, len(f.monomials))
	if len(f.pipelines) > 0 {
		s += fmt.Sprintf(", %d pipelines", len(f.pipelines))
	}
	for i, m := range f.monomials {
		s += fmt.Sprintf("\n  %s: %s", m, f.contributions[i])
	}
	return s
}

// A Builder accumulates terms of a function, xoring the contributions
// of repeated monomials together.
type Builder struct {
	inputLength, outputLength int

	index         map[string]int
	monomials     []Monomial
	contributions []gf2.Vector
}

// NewBuilder returns an empty builder for a function from
// inputLength bits to outputLength bits.
func NewBuilder(inputLength, outputLength int) *Builder {
	if inputLength < 0 || outputLength < 0 {
		panic("invalid function shape")
	}
	return &Builder{
		inputLength:  inputLength,
		outputLength: outputLength,
		index:        make(map[string]int),
	}
}

func (b *Builder) slot(m Monomial) int {
	key := m.Key()
	i, ok := b.index[key]
	if !ok {
		i = len(b.monomials)
		b.index[key] = i
		b.monomials = append(b.monomials, m)
		b.contributions = append(b.contributions, gf2.NewVector(b.outputLength))
	}
	return i
}

// Add xors c into the contribution of m.
func (b *Builder) Add(m Monomial, c gf2.Vector) error {
	if m.Len() != b.inputLength {
		return fmt.Errorf("%w: %d-variable monomial in a %d-input function", gf2.ErrDimensionMismatch, m.Len(), b.inputLength)
	}
	if c.Len() != b.outputLength {
		return fmt.Errorf("%w: %d-bit contribution in a %d-output function", gf2.ErrDimensionMismatch, c.Len(), b.outputLength)
	}
	b.add(m, c)
	return nil
}

func (b *Builder) add(m Monomial, c gf2.Vector) {
	i := b.slot(m)
	b.contributions[i].XorAssign(c)
}

// Toggle flips output bit j of the contribution of m.
func (b *Builder) Toggle(m Monomial, j int) error {
	if m.Len() != b.inputLength {
		return fmt.Errorf("%w: %d-variable monomial in a %d-input function", gf2.ErrDimensionMismatch, m.Len(), b.inputLength)
	}
	if j < 0 || j >= b.outputLength {
		return fmt.Errorf("%w: output bit %d of %d", gf2.ErrDimensionMismatch, j, b.outputLength)
	}
	i := b.slot(m)
	b.contributions[i].FlipBit(j)
	return nil
}

// Build returns the accumulated function. Terms whose contributions
// cancelled out are dropped, and the rest are ordered by
// CompareMonomials. The builder may keep being used afterwards.
func (b *Builder) Build() Function {
	f := Function{inputLength: b.inputLength, outputLength: b.outputLength}
	for i, m := range b.monomials {
		if b.contributions[i].IsZero() {
			continue
		}
		f.monomials = append(f.monomials, m)
		f.contributions = append(f.contributions, b.contributions[i].Clone())
	}
	sortTerms(f.monomials, f.contributions)
	return f
}

type termSorter struct {
	monomials     []Monomial
	contributions []gf2.Vector
}

func (s termSorter) Len() int {
	return len(s.monomials)
}

func (s termSorter) Less(i, j int) bool {
	return CompareMonomials(s.monomials[i], s.monomials[j]) < 0
}

func (s termSorter) Swap(i, j int) {
	s.monomials[i], s.monomials[j] = s.monomials[j], s.monomials[i]
	s.contributions[i], s.contributions[j] = s.contributions[j], s.contributions[i]
}

func sortTerms(monomials []Monomial, contributions []gf2.Vector) {
	sort.Sort(termSorter{monomials, contributions})
}
