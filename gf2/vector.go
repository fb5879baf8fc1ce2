package gf2

import (
	"fmt"
	"io"
	"math/bits"
	"strings"
)

const wordBits = 64

// A Vector is a fixed-length sequence of bits, i.e. an element of
// GF(2)^n. Bit i is stored in words[i/64] at position i%64, and the
// bits past the length in the last word are always zero.
//
// Vector is a value type, but copying a Vector shares its words. The
// methods with value receivers never mutate; SetBit and XorAssign
// must only be called by the owner of a freshly made Vector.
type Vector struct {
	n     int
	words []uint64
}

func wordCount(n int) int {
	return (n + wordBits - 1) / wordBits
}

func checkLength(n int) {
	if n < 0 {
		panic("invalid vector length")
	}
}

// NewVector returns the zero vector of length n.
func NewVector(n int) Vector {
	checkLength(n)
	return Vector{n, make([]uint64, wordCount(n))}
}

// NewVectorFromWords returns a vector of length n with bits taken
// from words, which must have exactly the right number of words for
// n. Stray bits past n are cleared. The words are copied.
func NewVectorFromWords(n int, words []uint64) (Vector, error) {
	checkLength(n)
	if len(words) != wordCount(n) {
		return Vector{}, fmt.Errorf("%w: %d words for a %d-bit vector", ErrDimensionMismatch, len(words), n)
	}
	v := Vector{n, make([]uint64, len(words))}
	copy(v.words, words)
	v.clearTail()
	return v, nil
}

// NewVectorFromBits returns a vector of length n with exactly the
// given bit indices set.
func NewVectorFromBits(n int, indices ...int) Vector {
	v := NewVector(n)
	for _, i := range indices {
		v.SetBit(i, true)
	}
	return v
}

// UnitVector returns the vector of length n with only bit i set.
func UnitVector(n, i int) Vector {
	return NewVectorFromBits(n, i)
}

// OnesVector returns the vector of length n with every bit set.
func OnesVector(n int) Vector {
	return NewVector(n).Not()
}

// ParseVector parses a string of '0' and '1' characters, most
// significant bit first, so that "0110" has bits 1 and 2 set. This is
// the inverse of String.
func ParseVector(s string) (Vector, error) {
	n := len(s)
	v := NewVector(n)
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			v.SetBit(n-1-i, true)
		default:
			return Vector{}, fmt.Errorf("invalid bit character %q at offset %d", c, i)
		}
	}
	return v, nil
}

// RandomVector returns a uniformly random vector of length n, with
// randomness read from r.
func RandomVector(r io.Reader, n int) (Vector, error) {
	checkLength(n)
	buf := make([]byte, 8*wordCount(n))
	if _, err := io.ReadFull(r, buf); err != nil {
		return Vector{}, fmt.Errorf("read random words: %w", err)
	}
	v := Vector{n, make([]uint64, wordCount(n))}
	for i := range v.words {
		b := buf[8*i : 8*i+8]
		v.words[i] = uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
			uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
	}
	v.clearTail()
	return v, nil
}

func (v *Vector) clearTail() {
	if r := v.n % wordBits; r != 0 {
		v.words[len(v.words)-1] &= (uint64(1) << uint(r)) - 1
	}
}

// Len returns the number of bits in v.
func (v Vector) Len() int {
	return v.n
}

// Words returns a copy of the underlying words of v.
func (v Vector) Words() []uint64 {
	words := make([]uint64, len(v.words))
	copy(words, v.words)
	return words
}

func (v Vector) checkIndex(i int) {
	if i < 0 || i >= v.n {
		panic("bit index out of bounds")
	}
}

// Bit returns whether bit i of v is set.
func (v Vector) Bit(i int) bool {
	v.checkIndex(i)
	return v.words[i/wordBits]&(uint64(1)<<uint(i%wordBits)) != 0
}

// SetBit sets bit i of v to b. It mutates v in place.
func (v *Vector) SetBit(i int, b bool) {
	v.checkIndex(i)
	mask := uint64(1) << uint(i%wordBits)
	if b {
		v.words[i/wordBits] |= mask
	} else {
		v.words[i/wordBits] &^= mask
	}
}

// FlipBit toggles bit i of v. It mutates v in place.
func (v *Vector) FlipBit(i int) {
	v.checkIndex(i)
	v.words[i/wordBits] ^= uint64(1) << uint(i%wordBits)
}

// XorAssign sets v to v xor w. It mutates v in place, and w must have
// the same length.
func (v *Vector) XorAssign(w Vector) {
	if v.n != w.n {
		panic("mismatched vector lengths")
	}
	for i, x := range w.words {
		v.words[i] ^= x
	}
}

// Clone returns a copy of v that shares no storage with it.
func (v Vector) Clone() Vector {
	words := make([]uint64, len(v.words))
	copy(words, v.words)
	return Vector{v.n, words}
}

func (v Vector) checkSameLength(w Vector) {
	if v.n != w.n {
		panic("mismatched vector lengths")
	}
}

// Xor returns the sum of v and w as elements of GF(2)^n, which is
// just the bitwise xor of the two.
func (v Vector) Xor(w Vector) Vector {
	v.checkSameLength(w)
	out := v.Clone()
	for i, x := range w.words {
		out.words[i] ^= x
	}
	return out
}

// And returns the bitwise and of v and w.
func (v Vector) And(w Vector) Vector {
	v.checkSameLength(w)
	out := v.Clone()
	for i, x := range w.words {
		out.words[i] &= x
	}
	return out
}

// Or returns the bitwise or of v and w.
func (v Vector) Or(w Vector) Vector {
	v.checkSameLength(w)
	out := v.Clone()
	for i, x := range w.words {
		out.words[i] |= x
	}
	return out
}

// AndNot returns v with the bits of w cleared.
func (v Vector) AndNot(w Vector) Vector {
	v.checkSameLength(w)
	out := v.Clone()
	for i, x := range w.words {
		out.words[i] &^= x
	}
	return out
}

// Not returns the bitwise complement of v.
func (v Vector) Not() Vector {
	out := v.Clone()
	for i := range out.words {
		out.words[i] = ^out.words[i]
	}
	out.clearTail()
	return out
}

// OnesCount returns the number of set bits in v.
func (v Vector) OnesCount() int {
	count := 0
	for _, x := range v.words {
		count += bits.OnesCount64(x)
	}
	return count
}

// Parity returns the xor of all the bits of v.
func (v Vector) Parity() bool {
	var acc uint64
	for _, x := range v.words {
		acc ^= x
	}
	return bits.OnesCount64(acc)&1 == 1
}

// Dot returns the inner product of v and w over GF(2).
func (v Vector) Dot(w Vector) bool {
	v.checkSameLength(w)
	var acc uint64
	for i, x := range v.words {
		acc ^= x & w.words[i]
	}
	return bits.OnesCount64(acc)&1 == 1
}

// IsZero returns whether no bit of v is set.
func (v Vector) IsZero() bool {
	for _, x := range v.words {
		if x != 0 {
			return false
		}
	}
	return true
}

// Equal returns whether v and w have the same length and bits.
func (v Vector) Equal(w Vector) bool {
	if v.n != w.n {
		return false
	}
	for i, x := range v.words {
		if w.words[i] != x {
			return false
		}
	}
	return true
}

// SubsetOf returns whether every bit set in v is also set in w, i.e.
// whether v & w == v.
func (v Vector) SubsetOf(w Vector) bool {
	v.checkSameLength(w)
	for i, x := range v.words {
		if x&w.words[i] != x {
			return false
		}
	}
	return true
}

// FirstOne returns the index of the lowest set bit of v, or -1 if v
// is zero.
func (v Vector) FirstOne() int {
	for i, x := range v.words {
		if x != 0 {
			return i*wordBits + bits.TrailingZeros64(x)
		}
	}
	return -1
}

// Ones returns the indices of the set bits of v in increasing order.
func (v Vector) Ones() []int {
	ones := make([]int, 0, v.OnesCount())
	v.ForEachOne(func(i int) {
		ones = append(ones, i)
	})
	return ones
}

// ForEachOne calls fn with the index of every set bit of v, in
// increasing order.
func (v Vector) ForEachOne(fn func(int)) {
	for i, x := range v.words {
		for x != 0 {
			fn(i*wordBits + bits.TrailingZeros64(x))
			x &= x - 1
		}
	}
}

// Slice returns the bits of v in [lo, hi) as a new vector of length
// hi-lo.
func (v Vector) Slice(lo, hi int) Vector {
	if lo < 0 || hi > v.n || lo > hi {
		panic("slice bounds out of range")
	}
	out := NewVector(hi - lo)
	if lo%wordBits == 0 {
		copy(out.words, v.words[lo/wordBits:])
		out.clearTail()
		return out
	}
	shift := uint(lo % wordBits)
	for i := range out.words {
		j := lo/wordBits + i
		x := v.words[j] >> shift
		if j+1 < len(v.words) {
			x |= v.words[j+1] << (wordBits - shift)
		}
		out.words[i] = x
	}
	out.clearTail()
	return out
}

// Concat returns the vector whose low bits are v followed by the bits
// of each of ws in order.
func (v Vector) Concat(ws ...Vector) Vector {
	n := v.n
	for _, w := range ws {
		n += w.n
	}
	out := NewVector(n)
	out.orShifted(v, 0)
	offset := v.n
	for _, w := range ws {
		out.orShifted(w, offset)
		offset += w.n
	}
	return out
}

// orShifted ors w into v starting at bit offset.
func (v *Vector) orShifted(w Vector, offset int) {
	if w.n == 0 {
		return
	}
	if offset+w.n > v.n {
		panic("shifted vector out of range")
	}
	base := offset / wordBits
	shift := uint(offset % wordBits)
	for i, x := range w.words {
		v.words[base+i] |= x << shift
		if shift != 0 && base+i+1 < len(v.words) {
			v.words[base+i+1] |= x >> (wordBits - shift)
		}
	}
}

// String returns v as a string of '0' and '1' characters, most
// significant bit first.
func (v Vector) String() string {
	var sb strings.Builder
	sb.Grow(v.n)
	for i := v.n - 1; i >= 0; i-- {
		if v.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Key returns a string that is equal for two vectors exactly when
// they are Equal, suitable as a map key.
func (v Vector) Key() string {
	var sb strings.Builder
	sb.Grow(8 + 8*len(v.words))
	writeWord(&sb, uint64(v.n))
	for _, x := range v.words {
		writeWord(&sb, x)
	}
	return sb.String()
}

func writeWord(sb *strings.Builder, x uint64) {
	for i := 0; i < 8; i++ {
		sb.WriteByte(byte(x >> (8 * uint(i))))
	}
}

// Compare orders vectors of the same length by their bits, treating
// the highest bit as most significant. It returns -1, 0 or +1.
func (v Vector) Compare(w Vector) int {
	v.checkSameLength(w)
	for i := len(v.words) - 1; i >= 0; i-- {
		switch {
		case v.words[i] < w.words[i]:
			return -1
		case v.words[i] > w.words[i]:
			return +1
		}
	}
	return 0
}
