package gf2poly

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/akalin/mvq/gf2"
)

// A Monomial is a conjunction of input variables, stored as a
// presence mask over the input: bit i set means variable i
// participates. The zero mask is the constant term 1.
//
// Monomials are immutable; every operation returns a new one, and
// Bits returns a copy.
type Monomial struct {
	bits gf2.Vector
}

// NewMonomial returns the monomial with the variables set in bits.
func NewMonomial(bits gf2.Vector) Monomial {
	return Monomial{bits.Clone()}
}

// NewMonomialFromVariables returns the product of the given variables
// over n inputs.
func NewMonomialFromVariables(n int, vars ...int) Monomial {
	return Monomial{gf2.NewVectorFromBits(n, vars...)}
}

// ConstantMonomial returns the constant term over n inputs.
func ConstantMonomial(n int) Monomial {
	return Monomial{gf2.NewVector(n)}
}

// Variable returns the monomial x_i over n inputs.
func Variable(n, i int) Monomial {
	return Monomial{gf2.UnitVector(n, i)}
}

// Len returns the number of input variables m ranges over.
func (m Monomial) Len() int {
	return m.bits.Len()
}

// Bits returns a copy of the presence mask of m.
func (m Monomial) Bits() gf2.Vector {
	return m.bits.Clone()
}

// Variables returns the indices of the variables of m in increasing
// order.
func (m Monomial) Variables() []int {
	return m.bits.Ones()
}

// Cardinality returns the order of m, i.e. its number of variables.
func (m Monomial) Cardinality() int {
	return m.bits.OnesCount()
}

// IsZero returns whether m is the constant term.
func (m Monomial) IsZero() bool {
	return m.bits.IsZero()
}

func checkMonomialLengths(m Monomial, n int) error {
	if m.bits.Len() != n {
		return fmt.Errorf("%w: %d-variable monomial with %d-bit operand", gf2.ErrDimensionMismatch, m.bits.Len(), n)
	}
	return nil
}

// Eval returns whether m is true on input, i.e. whether every
// variable of m is set in input.
func (m Monomial) Eval(input gf2.Vector) (bool, error) {
	if err := checkMonomialLengths(m, input.Len()); err != nil {
		return false, err
	}
	return m.eval(input), nil
}

func (m Monomial) eval(input gf2.Vector) bool {
	return m.bits.SubsetOf(input)
}

// Product returns m·other. Boolean variables are idempotent, so this
// is the union of the two variable sets.
func (m Monomial) Product(other Monomial) (Monomial, error) {
	if err := checkMonomialLengths(m, other.Len()); err != nil {
		return Monomial{}, err
	}
	return m.product(other), nil
}

func (m Monomial) product(other Monomial) Monomial {
	return Monomial{m.bits.Or(other.bits)}
}

// HasFactor returns whether other divides m, i.e. whether the
// variables of other are a subset of those of m.
func (m Monomial) HasFactor(other Monomial) (bool, error) {
	if err := checkMonomialLengths(m, other.Len()); err != nil {
		return false, err
	}
	return other.bits.SubsetOf(m.bits), nil
}

// Divide returns m with the variables of other removed, if other
// divides m. Otherwise ok is false.
func (m Monomial) Divide(other Monomial) (quotient Monomial, ok bool, err error) {
	divides, err := m.HasFactor(other)
	if err != nil || !divides {
		return Monomial{}, false, err
	}
	return Monomial{m.bits.AndNot(other.bits)}, true, nil
}

// Subsets returns every sub-monomial of m with exactly order
// variables, in lexicographic order of their variable indices.
func (m Monomial) Subsets(order int) []Monomial {
	vars := m.Variables()
	if order < 0 || order > len(vars) {
		return nil
	}

	var subsets []Monomial
	chosen := make([]int, order)
	var choose func(start, depth int)
	choose = func(start, depth int) {
		if depth == order {
			subsets = append(subsets, NewMonomialFromVariables(m.Len(), chosen...))
			return
		}
		for i := start; i <= len(vars)-(order-depth); i++ {
			chosen[depth] = vars[i]
			choose(i+1, depth+1)
		}
	}
	choose(0, 0)
	return subsets
}

// Equal returns whether m and other have the same variables over the
// same number of inputs.
func (m Monomial) Equal(other Monomial) bool {
	return m.bits.Equal(other.bits)
}

// Key returns a string that identifies m, suitable as a map key.
func (m Monomial) Key() string {
	return m.bits.Key()
}

// String returns m as a product of variables, like "x0*x3", or "1"
// for the constant term.
func (m Monomial) String() string {
	vars := m.Variables()
	if len(vars) == 0 {
		return "1"
	}
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = "x" + strconv.Itoa(v)
	}
	return strings.Join(parts, "*")
}

// CompareMonomials orders monomials of the same length by cardinality
// first, then by their variable masks. It returns -1, 0 or +1.
func CompareMonomials(a, b Monomial) int {
	ca, cb := a.Cardinality(), b.Cardinality()
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return +1
	}
	return a.bits.Compare(b.bits)
}
