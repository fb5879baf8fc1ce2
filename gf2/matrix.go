package gf2

import (
	"fmt"
	"io"
	"strings"
)

// Matrix is an immutable rectangular array of elements of GF(2),
// stored as one Vector per row. It has just enough methods to support
// polynomial composition and key generation.
type Matrix struct {
	columns int
	rows    []Vector
}

func checkRowColumnCount(rows, columns int) {
	if rows < 0 {
		panic("invalid row count")
	}
	if columns < 0 {
		panic("invalid column count")
	}
}

// NewZeroMatrix returns a rows x columns matrix with every element
// being zero.
func NewZeroMatrix(rows, columns int) Matrix {
	checkRowColumnCount(rows, columns)
	m := Matrix{columns, make([]Vector, rows)}
	for i := range m.rows {
		m.rows[i] = NewVector(columns)
	}
	return m
}

// NewMatrixFromRows returns a matrix with the given rows, each of
// which must have length columns. The rows are copied.
func NewMatrixFromRows(columns int, rows []Vector) (Matrix, error) {
	checkRowColumnCount(len(rows), columns)
	m := Matrix{columns, make([]Vector, len(rows))}
	for i, row := range rows {
		if row.Len() != columns {
			return Matrix{}, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensionMismatch, i, row.Len(), columns)
		}
		m.rows[i] = row.Clone()
	}
	return m, nil
}

// NewMatrixFromColumns returns a matrix with the given columns, each
// of which must have length rows.
func NewMatrixFromColumns(rows int, columns []Vector) (Matrix, error) {
	t, err := NewMatrixFromRows(rows, columns)
	if err != nil {
		return Matrix{}, err
	}
	return t.Transpose(), nil
}

// NewMatrixFromFunction returns a rows x columns matrix with elements
// filled in from the given function, which is passed the row index
// and the column index, and shouldn't rely on any particular call
// ordering.
func NewMatrixFromFunction(rows, columns int, fn func(int, int) bool) Matrix {
	m := NewZeroMatrix(rows, columns)
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			if fn(i, j) {
				m.rows[i].SetBit(j, true)
			}
		}
	}
	return m
}

// NewIdentityMatrix returns an n x n identity matrix.
func NewIdentityMatrix(n int) Matrix {
	m := NewZeroMatrix(n, n)
	for i := 0; i < n; i++ {
		m.rows[i].SetBit(i, true)
	}
	return m
}

// RandomMatrix returns a uniformly random rows x columns matrix, with
// randomness read from r.
func RandomMatrix(r io.Reader, rows, columns int) (Matrix, error) {
	checkRowColumnCount(rows, columns)
	m := Matrix{columns, make([]Vector, rows)}
	for i := range m.rows {
		row, err := RandomVector(r, columns)
		if err != nil {
			return Matrix{}, err
		}
		m.rows[i] = row
	}
	return m, nil
}

// RandomInvertibleMatrix samples random n x n matrices until one is
// invertible, and returns it along with its inverse. It gives up with
// ErrSingularMatrix after maxAttempts samples.
func RandomInvertibleMatrix(r io.Reader, n, maxAttempts int) (Matrix, Matrix, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		m, err := RandomMatrix(r, n, n)
		if err != nil {
			return Matrix{}, Matrix{}, err
		}
		mInv, err := m.Inverse()
		if err == nil {
			return m, mInv, nil
		}
	}
	return Matrix{}, Matrix{}, fmt.Errorf("%w: no invertible %dx%d matrix in %d attempts", ErrSingularMatrix, n, n, maxAttempts)
}

// Rows returns the number of rows of m.
func (m Matrix) Rows() int {
	return len(m.rows)
}

// Columns returns the number of columns of m.
func (m Matrix) Columns() int {
	return m.columns
}

func (m Matrix) checkRowIndex(i int) {
	if i < 0 || i >= len(m.rows) {
		panic("row index out of bounds")
	}
}

func (m Matrix) checkColumnIndex(j int) {
	if j < 0 || j >= m.columns {
		panic("column index out of bounds")
	}
}

// At returns the element at row index i and column index j.
func (m Matrix) At(i, j int) bool {
	m.checkRowIndex(i)
	m.checkColumnIndex(j)
	return m.rows[i].Bit(j)
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) Vector {
	m.checkRowIndex(i)
	return m.rows[i].Clone()
}

// row returns row i itself, so caller must not mutate except for
// local temporary matrices.
func (m Matrix) row(i int) Vector {
	m.checkRowIndex(i)
	return m.rows[i]
}

// TimesVector returns the matrix-vector product of m with v, whose
// length must equal the column count of m. Each output bit is the
// inner product of a row with v.
func (m Matrix) TimesVector(v Vector) (Vector, error) {
	if v.Len() != m.columns {
		return Vector{}, fmt.Errorf("%w: %dx%d matrix times %d-bit vector", ErrDimensionMismatch, len(m.rows), m.columns, v.Len())
	}
	out := NewVector(len(m.rows))
	for i, row := range m.rows {
		if row.Dot(v) {
			out.SetBit(i, true)
		}
	}
	return out, nil
}

// Times returns the matrix product of m with n, which must have
// compatible dimensions. Row i of the product is the xor of the rows
// j of n for which row i of m has bit j set.
func (m Matrix) Times(n Matrix) (Matrix, error) {
	if m.columns != len(n.rows) {
		return Matrix{}, fmt.Errorf("%w: %dx%d matrix times %dx%d matrix", ErrDimensionMismatch, len(m.rows), m.columns, len(n.rows), n.columns)
	}
	prod := NewZeroMatrix(len(m.rows), n.columns)
	for i, row := range m.rows {
		acc := prod.rows[i]
		row.ForEachOne(func(j int) {
			acc.XorAssign(n.rows[j])
		})
	}
	return prod, nil
}

// Transpose returns the transpose of m.
func (m Matrix) Transpose() Matrix {
	t := NewZeroMatrix(m.columns, len(m.rows))
	for i, row := range m.rows {
		row.ForEachOne(func(j int) {
			t.rows[j].SetBit(i, true)
		})
	}
	return t
}

// Equal returns whether m and n have the same shape and elements.
func (m Matrix) Equal(n Matrix) bool {
	if m.columns != n.columns || len(m.rows) != len(n.rows) {
		return false
	}
	for i, row := range m.rows {
		if !row.Equal(n.rows[i]) {
			return false
		}
	}
	return true
}

// IsIdentity returns whether m is a square identity matrix.
func (m Matrix) IsIdentity() bool {
	return len(m.rows) == m.columns && m.Equal(NewIdentityMatrix(m.columns))
}

// SliceRows returns the matrix made of rows [lo, hi) of m.
func (m Matrix) SliceRows(lo, hi int) Matrix {
	if lo < 0 || hi > len(m.rows) || lo > hi {
		panic("row slice bounds out of range")
	}
	s := Matrix{m.columns, make([]Vector, hi-lo)}
	for i := range s.rows {
		s.rows[i] = m.rows[lo+i].Clone()
	}
	return s
}

// StackRows returns the matrix whose rows are the rows of each of ms
// in order. All of ms must have the same column count.
func StackRows(ms ...Matrix) (Matrix, error) {
	if len(ms) == 0 {
		panic("no matrices to stack")
	}
	var rows []Vector
	for _, m := range ms {
		if m.columns != ms[0].columns {
			return Matrix{}, fmt.Errorf("%w: stacking %d columns onto %d columns", ErrDimensionMismatch, m.columns, ms[0].columns)
		}
		rows = append(rows, m.rows...)
	}
	return NewMatrixFromRows(ms[0].columns, rows)
}

// ConcatColumns returns the matrix [m_0 | m_1 | ...], i.e. each row
// is the concatenation of the corresponding rows of ms. All of ms
// must have the same row count.
func ConcatColumns(ms ...Matrix) (Matrix, error) {
	if len(ms) == 0 {
		panic("no matrices to concatenate")
	}
	columns := 0
	for _, m := range ms {
		if len(m.rows) != len(ms[0].rows) {
			return Matrix{}, fmt.Errorf("%w: concatenating %d rows with %d rows", ErrDimensionMismatch, len(m.rows), len(ms[0].rows))
		}
		columns += m.columns
	}
	c := Matrix{columns, make([]Vector, len(ms[0].rows))}
	for i := range c.rows {
		rest := make([]Vector, len(ms)-1)
		for k := 1; k < len(ms); k++ {
			rest[k-1] = ms[k].rows[i]
		}
		c.rows[i] = ms[0].rows[i].Concat(rest...)
	}
	return c, nil
}

func (m Matrix) clone() Matrix {
	c := Matrix{m.columns, make([]Vector, len(m.rows))}
	for i, row := range m.rows {
		c.rows[i] = row.Clone()
	}
	return c
}

// The mutating functions below must not be called except on local
// temporary matrices.

func (m Matrix) swapRows(i, j int) {
	m.checkRowIndex(i)
	m.checkRowIndex(j)
	m.rows[i], m.rows[j] = m.rows[j], m.rows[i]
}

// addRow adds (xors) row src into row dest.
func (m Matrix) addRow(dest, src int) {
	m.rows[dest].XorAssign(m.rows[src])
}

// rowReduce converts m to reduced row echelon form in place,
// repeating every row operation on aug if it is non-nil, and returns
// the pivot column of each leading row.
func (m Matrix) rowReduce(aug *Matrix) []int {
	var pivots []int
	r := 0
	for col := 0; col < m.columns && r < len(m.rows); col++ {
		pivotRow := -1
		for j := r; j < len(m.rows); j++ {
			if m.rows[j].Bit(col) {
				pivotRow = j
				break
			}
		}
		if pivotRow < 0 {
			continue
		}
		m.swapRows(r, pivotRow)
		if aug != nil {
			aug.swapRows(r, pivotRow)
		}
		for j := range m.rows {
			if j != r && m.rows[j].Bit(col) {
				m.addRow(j, r)
				if aug != nil {
					aug.addRow(j, r)
				}
			}
		}
		pivots = append(pivots, col)
		r++
	}
	return pivots
}

func (m Matrix) rowReduceForInverse() (Matrix, error) {
	mInv := NewIdentityMatrix(m.columns)
	for i := 0; i < len(m.rows); i++ {
		// Swap the ith row with the first row at or below it
		// with a non-zero ith column.
		found := false
		for j := i; j < len(m.rows); j++ {
			if m.rows[j].Bit(i) {
				m.swapRows(i, j)
				mInv.swapRows(i, j)
				found = true
				break
			}
		}
		if !found {
			return Matrix{}, ErrSingularMatrix
		}

		// Zero out every other element of the ith column.
		for j := range m.rows {
			if j != i && m.rows[j].Bit(i) {
				m.addRow(j, i)
				mInv.addRow(j, i)
			}
		}
	}

	last := len(m.rows) - 1
	if last >= 0 && !m.rows[last].Equal(UnitVector(m.columns, last)) {
		return Matrix{}, ErrSingularMatrix
	}
	return mInv, nil
}

// Inverse returns the matrix inverse of m, or ErrNonSquareMatrix if m
// is not square, or ErrSingularMatrix if it is singular.
func (m Matrix) Inverse() (Matrix, error) {
	if len(m.rows) != m.columns {
		return Matrix{}, fmt.Errorf("%w: cannot invert %dx%d matrix", ErrNonSquareMatrix, len(m.rows), m.columns)
	}
	return m.clone().rowReduceForInverse()
}

// RowReducedEchelonForm returns the reduced row echelon form of m,
// along with the pivot column of each of its leading rows.
func (m Matrix) RowReducedEchelonForm() (Matrix, []int) {
	r := m.clone()
	pivots := r.rowReduce(nil)
	return r, pivots
}

// Rank returns the rank of m over GF(2).
func (m Matrix) Rank() int {
	_, pivots := m.RowReducedEchelonForm()
	return len(pivots)
}

// NullspaceBasis returns a matrix whose rows form a basis of the
// right null space of m, i.e. of the vectors v with m·v = 0. It has
// Columns() - Rank() rows.
func (m Matrix) NullspaceBasis() Matrix {
	rref, pivots := m.RowReducedEchelonForm()
	isPivot := make([]bool, m.columns)
	for _, p := range pivots {
		isPivot[p] = true
	}

	basis := Matrix{m.columns, nil}
	for free := 0; free < m.columns; free++ {
		if isPivot[free] {
			continue
		}
		// Setting the free variable to 1 and every other free
		// variable to 0 forces each pivot variable to the value
		// of the free column in its row.
		v := UnitVector(m.columns, free)
		for r, p := range pivots {
			if rref.rows[r].Bit(free) {
				v.SetBit(p, true)
			}
		}
		basis.rows = append(basis.rows, v)
	}
	return basis
}

// LeftNullifyingMatrix returns a matrix L whose rows form a basis of
// the left null space of m, so that L·m = 0. It has Rows() - Rank()
// rows.
func (m Matrix) LeftNullifyingMatrix() Matrix {
	return m.Transpose().NullspaceBasis()
}

// RightInverse returns a generalized inverse G of m with m·G = I. It
// exists exactly when m has full row rank; otherwise
// ErrSingularMatrix is returned.
func (m Matrix) RightInverse() (Matrix, error) {
	r := m.clone()
	e := NewIdentityMatrix(len(m.rows))
	pivots := r.rowReduce(&e)
	if len(pivots) != len(m.rows) {
		return Matrix{}, fmt.Errorf("%w: rank %d of %dx%d matrix is not full row rank", ErrSingularMatrix, len(pivots), len(m.rows), m.columns)
	}

	// e·m = r, and r restricted to the pivot columns is the
	// identity, so placing row i of e at row pivots[i] gives G.
	g := NewZeroMatrix(m.columns, len(m.rows))
	for i, p := range pivots {
		g.rows[p] = e.rows[i].Clone()
	}
	return g, nil
}

// String returns m as one line of bits per row.
func (m Matrix) String() string {
	var sb strings.Builder
	for i, row := range m.rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(row.String())
	}
	return sb.String()
}
