package gf2poly

import (
	"context"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/parallel"
)

// ComposeStats describes a finished composition.
type ComposeStats struct {
	OuterTerms int
	InnerTerms int
	// DiscoveredTerms is the number of distinct monomials found
	// while expanding, including the inner function's own.
	DiscoveredTerms int
	ResultTerms     int
	Workers         int
	Elapsed         time.Duration
}

// ComposeDelegate holds methods that are called during composition.
type ComposeDelegate interface {
	OnCompose(stats ComposeStats)
}

// A Composer computes compositions of functions on a worker pool. The
// zero value composes sequentially and reports nothing.
type Composer struct {
	Pool     *parallel.Pool
	Delegate ComposeDelegate
}

// NewComposer returns a Composer running on pool, reporting to
// delegate if it is non-nil.
func NewComposer(pool *parallel.Pool, delegate ComposeDelegate) Composer {
	return Composer{pool, delegate}
}

// Compose returns f∘g, i.e. x -> f(g(x)), using the pool of f if it
// evaluates in parallel.
func (f Function) Compose(g Function) (Function, error) {
	return Composer{Pool: f.pool}.Compose(context.Background(), f, g)
}

// Compose returns f∘g as an explicit function of g's input, with
// f.InputLength() == g.OutputLength(). The result takes the
// evaluation strategy of f.
//
// A parameterized g is flattened first. For a parameterized f, each
// pipeline is composed with g, and the terms of f are then composed
// with g's output followed by the recomposed pipelines' outputs.
func (c Composer) Compose(ctx context.Context, f, g Function) (Function, error) {
	if f.inputLength != g.outputLength {
		return Function{}, fmt.Errorf("%w: composing %d-input function with %d-output function", gf2.ErrDimensionMismatch, f.inputLength, g.outputLength)
	}

	if g.IsParameterized() {
		var err error
		g, err = c.flatten(ctx, g)
		if err != nil {
			return Function{}, err
		}
	}

	if f.IsParameterized() {
		stages := make([]Function, 0, len(f.pipelines)+1)
		stages = append(stages, g)
		for _, p := range f.pipelines {
			q, err := c.Compose(ctx, p, g)
			if err != nil {
				return Function{}, err
			}
			stages = append(stages, q)
		}
		inner, err := Concat(stages...)
		if err != nil {
			return Function{}, err
		}
		base := f
		base.inputLength = f.baseInputLength()
		base.pipelines = nil
		return c.compose(ctx, base, inner)
	}

	return c.compose(ctx, f, g)
}

func (c Composer) flatten(ctx context.Context, f Function) (Function, error) {
	if !f.IsParameterized() {
		return f, nil
	}
	return c.Compose(ctx, f, Identity(f.inputLength).withStrategyOf(f))
}

// termTable is the growing list of monomials over the inner
// function's input that a composition's terms are expressed in. It is
// shared by all workers: lookups of known monomials take no lock, and
// new monomials are appended under mu, so an index once handed out
// stays valid.
type termTable struct {
	index sync.Map // Monomial.Key() -> int

	mu    sync.RWMutex
	terms []Monomial
}

// intern returns the index of m, appending it if it is new.
func (t *termTable) intern(m Monomial) int {
	key := m.Key()
	if i, ok := t.index.Load(key); ok {
		return i.(int)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Another worker may have added m since the lookup above.
	if i, ok := t.index.Load(key); ok {
		return i.(int)
	}
	i := len(t.terms)
	t.terms = append(t.terms, m)
	t.index.Store(key, i)
	return i
}

// lookup returns the monomials at the given indices.
func (t *termTable) lookup(indices []int) []Monomial {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ms := make([]Monomial, len(indices))
	for i, j := range indices {
		ms[i] = t.terms[j]
	}
	return ms
}

func (t *termTable) snapshot() []Monomial {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ms := make([]Monomial, len(t.terms))
	copy(ms, t.terms)
	return ms
}

// A termSet is a set of term table indices, i.e. a polynomial over
// GF(2) in the table's monomials. It grows as needed, since indices
// may be added to the table while the set is being built.
type termSet struct {
	words []uint64
}

func (s *termSet) flip(i int) {
	w := i / 64
	for w >= len(s.words) {
		s.words = append(s.words, 0)
	}
	s.words[w] ^= uint64(1) << uint(i%64)
}

func (s *termSet) xor(o termSet) {
	for len(s.words) < len(o.words) {
		s.words = append(s.words, 0)
	}
	for i, x := range o.words {
		s.words[i] ^= x
	}
}

func (s termSet) clone() termSet {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return termSet{words}
}

func (s termSet) isEmpty() bool {
	for _, x := range s.words {
		if x != 0 {
			return false
		}
	}
	return true
}

func (s termSet) forEach(fn func(int)) {
	for i, x := range s.words {
		for x != 0 {
			fn(i*64 + bits.TrailingZeros64(x))
			x &= x - 1
		}
	}
}

func (s termSet) indices() []int {
	var indices []int
	s.forEach(func(i int) {
		indices = append(indices, i)
	})
	return indices
}

// times returns the product of the polynomials s and o: every pair of
// their monomials is multiplied, and each product toggles its index,
// so products that appear twice cancel.
func (t *termTable) times(s, o termSet) termSet {
	lhs := t.lookup(s.indices())
	rhs := t.lookup(o.indices())
	var prod termSet
	for _, a := range lhs {
		for _, b := range rhs {
			prod.flip(t.intern(a.product(b)))
		}
	}
	return prod
}

// expand returns the polynomial obtained by substituting the inner
// rows for the variables of m.
func (t *termTable) expand(m Monomial, innerRows []termSet, constant int) termSet {
	vars := m.Variables()
	if len(vars) == 0 {
		var s termSet
		s.flip(constant)
		return s
	}
	acc := innerRows[vars[0]].clone()
	for _, v := range vars[1:] {
		if acc.isEmpty() {
			break
		}
		acc = t.times(acc, innerRows[v])
	}
	return acc
}

func (c Composer) compose(ctx context.Context, f, g Function) (Function, error) {
	start := time.Now()
	n := g.inputLength

	// The table starts out as the terms of g, so index j is term j
	// of g.
	table := &termTable{}
	for _, m := range g.monomials {
		table.intern(m)
	}

	// innerRows[i] is the polynomial giving bit i of g, i.e. the
	// transpose of g's contributions.
	innerRows := make([]termSet, g.outputLength)
	for j, contribution := range g.contributions {
		contribution.ForEachOne(func(i int) {
			innerRows[i].flip(j)
		})
	}

	// The constant monomial of f expands to the constant monomial
	// over g's input, which merges with g's constant term if it
	// has one.
	constant := table.intern(ConstantMonomial(n))

	// Quadratic f over linear g is the common case in key
	// generation. Adding all pairwise products of g's variables up
	// front keeps the workers on the lock-free lookup path.
	if f.Order() == 2 && g.Order() <= 1 {
		var linear []Monomial
		for _, m := range g.monomials {
			if m.Cardinality() == 1 {
				linear = append(linear, m)
			}
		}
		for a := 0; a < len(linear); a++ {
			for b := a + 1; b < len(linear); b++ {
				table.intern(linear[a].product(linear[b]))
			}
		}
	}

	expansions := make([]termSet, len(f.monomials))
	err := c.Pool.Run(ctx, len(f.monomials), func(ctx context.Context, r parallel.Range) error {
		for i := r.Start; i < r.End; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			expansions[i] = table.expand(f.monomials[i], innerRows, constant)
		}
		return nil
	})
	if err != nil {
		return Function{}, err
	}

	// Every worker is done, so the table is final.
	terms := table.snapshot()

	// outputRows[k] is the polynomial giving output bit k of f∘g.
	outputRows := make([]termSet, f.outputLength)
	for i, contribution := range f.contributions {
		e := expansions[i]
		contribution.ForEachOne(func(k int) {
			outputRows[k].xor(e)
		})
	}

	// Transpose back to one contribution per monomial.
	contributions := make([]gf2.Vector, len(terms))
	for k, row := range outputRows {
		row.forEach(func(j int) {
			if contributions[j].Len() == 0 {
				contributions[j] = gf2.NewVector(f.outputLength)
			}
			contributions[j].SetBit(k, true)
		})
	}

	h := Function{inputLength: n, outputLength: f.outputLength}
	for j, contribution := range contributions {
		if contribution.Len() == 0 || contribution.IsZero() {
			continue
		}
		h.monomials = append(h.monomials, terms[j])
		h.contributions = append(h.contributions, contribution)
	}
	sortTerms(h.monomials, h.contributions)
	h = h.withStrategyOf(f)

	if c.Delegate != nil {
		c.Delegate.OnCompose(ComposeStats{
			OuterTerms:      len(f.monomials),
			InnerTerms:      len(g.monomials),
			DiscoveredTerms: len(terms),
			ResultTerms:     len(h.monomials),
			Workers:         c.Pool.Size(),
			Elapsed:         time.Since(start),
		})
	}
	return h, nil
}
