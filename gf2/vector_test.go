package gf2

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVector(t *testing.T) {
	v, err := ParseVector("00001110")
	require.NoError(t, err)
	require.Equal(t, 8, v.Len())
	require.Equal(t, []int{1, 2, 3}, v.Ones())
	require.Equal(t, "00001110", v.String())

	_, err = ParseVector("0102")
	require.Error(t, err)
}

func TestNewVectorFromWords(t *testing.T) {
	v, err := NewVectorFromWords(70, []uint64{0x5, 0xff})
	require.NoError(t, err)
	// Bits past the length are cleared.
	require.Equal(t, []uint64{0x5, 0x3f}, v.Words())
	require.Equal(t, 8, v.OnesCount())

	_, err = NewVectorFromWords(70, []uint64{0x5})
	require.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestVectorBitOps(t *testing.T) {
	v := NewVectorFromBits(10, 1, 3, 5)
	w := NewVectorFromBits(10, 3, 4)
	require.Equal(t, []int{1, 4, 5}, v.Xor(w).Ones())
	require.Equal(t, []int{3}, v.And(w).Ones())
	require.Equal(t, []int{1, 3, 4, 5}, v.Or(w).Ones())
	require.Equal(t, []int{1, 5}, v.AndNot(w).Ones())
	require.Equal(t, []int{0, 2, 4, 6, 7, 8, 9}, v.Not().Ones())
	require.True(t, v.Dot(w))
	require.True(t, v.Parity())
	require.False(t, w.Parity())
	require.Equal(t, 1, v.FirstOne())
	require.Equal(t, -1, NewVector(10).FirstOne())

	// The operands are unchanged.
	require.Equal(t, []int{1, 3, 5}, v.Ones())
	require.Equal(t, []int{3, 4}, w.Ones())
}

func TestVectorSubsetOf(t *testing.T) {
	m := NewVectorFromBits(8, 1, 3)
	x, err := ParseVector("00001110")
	require.NoError(t, err)
	require.True(t, m.SubsetOf(x))
	y, err := ParseVector("00000100")
	require.NoError(t, err)
	require.False(t, m.SubsetOf(y))
}

func TestVectorCloneIsIndependent(t *testing.T) {
	v := NewVectorFromBits(5, 0)
	c := v.Clone()
	c.SetBit(1, true)
	require.Equal(t, []int{0}, v.Ones())
	require.Equal(t, []int{0, 1}, c.Ones())
}

func TestVectorSliceConcat(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 63, 64, 65, 130, 256} {
		v, err := RandomVector(rng, n)
		require.NoError(t, err)
		for _, lo := range []int{0, 1, n / 3, n / 2} {
			for _, hi := range []int{lo, (lo + n) / 2, n} {
				s := v.Slice(lo, hi)
				require.Equal(t, hi-lo, s.Len())
				for i := lo; i < hi; i++ {
					require.Equal(t, v.Bit(i), s.Bit(i-lo), "n=%d, lo=%d, hi=%d, i=%d", n, lo, hi, i)
				}
			}
			joined := v.Slice(0, lo).Concat(v.Slice(lo, n))
			require.True(t, v.Equal(joined), "n=%d, lo=%d", n, lo)
		}
	}
}

func TestVectorConcatMany(t *testing.T) {
	a := NewVectorFromBits(3, 0)
	b := NewVectorFromBits(70, 69)
	c := NewVectorFromBits(2, 1)
	require.Equal(t, []int{0, 72, 74}, a.Concat(b, c).Ones())
	require.Equal(t, 75, a.Concat(b, c).Len())
}

func TestVectorKeyAndCompare(t *testing.T) {
	v := NewVectorFromBits(100, 2, 80)
	w := NewVectorFromBits(100, 2, 80)
	u := NewVectorFromBits(100, 2, 81)
	require.Equal(t, v.Key(), w.Key())
	require.NotEqual(t, v.Key(), u.Key())
	require.NotEqual(t, NewVector(3).Key(), NewVector(4).Key())
	require.Equal(t, 0, v.Compare(w))
	require.Equal(t, -1, v.Compare(u))
	require.Equal(t, +1, u.Compare(v))
}

func TestRandomVectorClearsTail(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		v, err := RandomVector(rng, 67)
		require.NoError(t, err)
		require.Equal(t, uint64(0), v.Words()[1]>>3)
	}
}
