package gf2

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParseMatrix(t *testing.T, rows ...string) Matrix {
	var vs []Vector
	for _, s := range rows {
		v, err := ParseVector(s)
		require.NoError(t, err)
		vs = append(vs, v)
	}
	m, err := NewMatrixFromRows(len(rows[0]), vs)
	require.NoError(t, err)
	return m
}

func TestNewMatrix(t *testing.T) {
	m := NewZeroMatrix(2, 3)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			require.False(t, m.At(i, j))
		}
	}

	m = NewMatrixFromFunction(2, 3, func(i, j int) bool {
		return (i+j)%2 == 1
	})
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			require.Equal(t, (i+j)%2 == 1, m.At(i, j))
		}
	}

	_, err := NewMatrixFromRows(3, []Vector{NewVector(3), NewVector(4)})
	require.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestMatrixTimesVector(t *testing.T) {
	// Rows are written most significant column first.
	m := mustParseMatrix(t,
		"011",
		"110",
	)
	v := NewVectorFromBits(3, 0, 1)
	prod, err := m.TimesVector(v)
	require.NoError(t, err)
	// Row 0 has columns {0, 1}, row 1 has columns {1, 2}.
	require.Equal(t, []int{1}, prod.Ones())

	_, err = m.TimesVector(NewVector(2))
	require.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestMatrixTimes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m, err := RandomMatrix(rng, 5, 7)
	require.NoError(t, err)
	n, err := RandomMatrix(rng, 7, 3)
	require.NoError(t, err)

	prod, err := m.Times(n)
	require.NoError(t, err)
	expectedProd := NewMatrixFromFunction(5, 3, func(i, j int) bool {
		var b bool
		for k := 0; k < 7; k++ {
			b = b != (m.At(i, k) && n.At(k, j))
		}
		return b
	})
	require.Equal(t, expectedProd, prod)

	_, err = n.Times(m)
	require.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestMatrixTranspose(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	m, err := RandomMatrix(rng, 70, 130)
	require.NoError(t, err)
	mt := m.Transpose()
	require.Equal(t, 130, mt.Rows())
	require.Equal(t, 70, mt.Columns())
	for i := 0; i < 70; i++ {
		for j := 0; j < 130; j++ {
			require.Equal(t, m.At(i, j), mt.At(j, i))
		}
	}
	require.True(t, m.Equal(mt.Transpose()))
}

func TestMatrixInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, n := range []int{1, 2, 8, 64, 100} {
		m, mInv, err := RandomInvertibleMatrix(rng, n, 100)
		require.NoError(t, err, "n=%d", n)
		prod, err := m.Times(mInv)
		require.NoError(t, err)
		require.True(t, prod.IsIdentity(), "n=%d", n)
		prod, err = mInv.Times(m)
		require.NoError(t, err)
		require.True(t, prod.IsIdentity(), "n=%d", n)
	}
}

func TestMatrixInverseDoesNotMutate(t *testing.T) {
	m := mustParseMatrix(t,
		"01",
		"11",
	)
	orig := m.clone()
	_, err := m.Inverse()
	require.NoError(t, err)
	require.Equal(t, orig, m)
}

func TestMatrixInverseSingular(t *testing.T) {
	m := mustParseMatrix(t,
		"011",
		"110",
		"101",
	)
	_, err := m.Inverse()
	require.True(t, errors.Is(err, ErrSingularMatrix))

	_, err = NewZeroMatrix(2, 3).Inverse()
	require.True(t, errors.Is(err, ErrNonSquareMatrix))
}

func TestMatrixRowReducedEchelonForm(t *testing.T) {
	m := mustParseMatrix(t,
		"0110",
		"1100",
		"1010",
	)
	rref, pivots := m.RowReducedEchelonForm()
	require.Equal(t, []int{1, 2}, pivots)
	require.Equal(t, 2, m.Rank())
	expected := mustParseMatrix(t,
		"1010",
		"1100",
		"0000",
	)
	require.Equal(t, expected, rref)
}

func TestMatrixNullspaceBasis(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for _, shape := range [][2]int{{3, 8}, {8, 8}, {10, 64}, {40, 130}, {20, 10}} {
		m, err := RandomMatrix(rng, shape[0], shape[1])
		require.NoError(t, err)
		basis := m.NullspaceBasis()
		require.Equal(t, m.Columns()-m.Rank(), basis.Rows(), "shape=%v", shape)
		require.Equal(t, basis.Rows(), basis.Rank(), "shape=%v", shape)
		for i := 0; i < basis.Rows(); i++ {
			prod, err := m.TimesVector(basis.Row(i))
			require.NoError(t, err)
			require.True(t, prod.IsZero(), "shape=%v, i=%d", shape, i)
		}
	}
}

func TestMatrixLeftNullifyingMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m, err := RandomMatrix(rng, 30, 12)
	require.NoError(t, err)
	l := m.LeftNullifyingMatrix()
	require.Equal(t, m.Rows()-m.Rank(), l.Rows())
	prod, err := l.Times(m)
	require.NoError(t, err)
	require.Equal(t, NewZeroMatrix(l.Rows(), 12), prod)
}

func TestMatrixRightInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for _, shape := range [][2]int{{4, 4}, {8, 20}, {64, 128}} {
		var m Matrix
		for {
			var err error
			m, err = RandomMatrix(rng, shape[0], shape[1])
			require.NoError(t, err)
			if m.Rank() == shape[0] {
				break
			}
		}
		g, err := m.RightInverse()
		require.NoError(t, err)
		require.Equal(t, shape[1], g.Rows())
		require.Equal(t, shape[0], g.Columns())
		prod, err := m.Times(g)
		require.NoError(t, err)
		require.True(t, prod.IsIdentity(), "shape=%v", shape)
	}

	_, err := NewZeroMatrix(2, 5).RightInverse()
	require.True(t, errors.Is(err, ErrSingularMatrix))
}

func TestStackAndConcatColumns(t *testing.T) {
	a := mustParseMatrix(t, "01", "10")
	b := mustParseMatrix(t, "11")
	s, err := StackRows(a, b)
	require.NoError(t, err)
	require.Equal(t, mustParseMatrix(t, "01", "10", "11"), s)
	require.Equal(t, b, s.SliceRows(2, 3))

	c, err := ConcatColumns(a, mustParseMatrix(t, "0", "1"))
	require.NoError(t, err)
	// The first matrix occupies the low columns.
	require.Equal(t, mustParseMatrix(t, "001", "110"), c)

	_, err = StackRows(a, NewZeroMatrix(1, 3))
	require.True(t, errors.Is(err, ErrDimensionMismatch))
}
