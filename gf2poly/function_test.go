package gf2poly

import (
	"context"
	"errors"
	"testing"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/parallel"
	"github.com/stretchr/testify/require"
)

func randomFunction(t *testing.T, seed int64, in, out, order, terms int) Function {
	f, err := RandomFunction(newSource(t, seed), in, out, order, terms)
	require.NoError(t, err)
	return f
}

func apply(t *testing.T, f Function, x gf2.Vector) gf2.Vector {
	y, err := f.Apply(x)
	require.NoError(t, err)
	return y
}

// bruteForceApply evaluates f term by term with the public API.
func bruteForceApply(t *testing.T, f Function, x gf2.Vector) gf2.Vector {
	y := gf2.NewVector(f.OutputLength())
	for i := 0; i < f.Terms(); i++ {
		ok, err := f.Monomial(i).Eval(x)
		require.NoError(t, err)
		if ok {
			y = y.Xor(f.Contribution(i))
		}
	}
	return y
}

func TestBuilderMergesAndDropsTerms(t *testing.T) {
	b := NewBuilder(4, 3)
	m := NewMonomialFromVariables(4, 0, 2)
	require.NoError(t, b.Add(m, gf2.NewVectorFromBits(3, 0, 1)))
	require.NoError(t, b.Add(m, gf2.NewVectorFromBits(3, 1)))
	require.NoError(t, b.Toggle(Variable(4, 3), 2))
	require.NoError(t, b.Toggle(Variable(4, 3), 2))
	require.NoError(t, b.Toggle(ConstantMonomial(4), 1))

	f := b.Build()
	require.Equal(t, 2, f.Terms())
	// Terms are ordered by cardinality.
	require.True(t, f.Monomial(0).IsZero())
	require.Equal(t, []int{1}, f.Contribution(0).Ones())
	require.True(t, f.Monomial(1).Equal(m))
	require.Equal(t, []int{0}, f.Contribution(1).Ones())
	require.Equal(t, 2, f.Order())

	c, ok := f.ConstantTerm()
	require.True(t, ok)
	require.Equal(t, []int{1}, c.Ones())

	require.True(t, errors.Is(b.Add(Variable(5, 0), gf2.NewVector(3)), gf2.ErrDimensionMismatch))
	require.True(t, errors.Is(b.Add(Variable(4, 0), gf2.NewVector(2)), gf2.ErrDimensionMismatch))
	require.True(t, errors.Is(b.Toggle(Variable(4, 0), 3), gf2.ErrDimensionMismatch))
}

func TestNewFunction(t *testing.T) {
	f, err := NewFunction(3, 2,
		[]Monomial{Variable(3, 0), Variable(3, 1), Variable(3, 0)},
		[]gf2.Vector{gf2.UnitVector(2, 0), gf2.UnitVector(2, 1), gf2.UnitVector(2, 0)})
	require.NoError(t, err)
	require.Equal(t, 1, f.Terms())
	require.Equal(t, []int{1}, f.Monomial(0).Variables())

	_, err = NewFunction(3, 2, []Monomial{Variable(3, 0)}, nil)
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestApplyMatchesBruteForce(t *testing.T) {
	src := newSource(t, 2)
	f := randomFunction(t, 3, 70, 40, 3, 300)
	for i := 0; i < 50; i++ {
		x := randomVector(t, src, 70)
		require.Equal(t, bruteForceApply(t, f, x), apply(t, f, x))
	}

	_, err := f.Apply(gf2.NewVector(69))
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestApplyParallel(t *testing.T) {
	src := newSource(t, 4)
	f := randomFunction(t, 5, 64, 64, 2, 5000)
	for _, size := range []int{1, 2, 3, 8} {
		pf := f.WithPool(parallel.NewPool(size))
		require.Equal(t, Parallel, pf.Strategy())
		for i := 0; i < 20; i++ {
			x := randomVector(t, src, 64)
			require.Equal(t, apply(t, f, x), apply(t, pf, x), "size=%d", size)
		}
	}
	require.Equal(t, Sequential, f.WithPool(nil).Strategy())
}

func TestApplyContextCancelled(t *testing.T) {
	f := randomFunction(t, 6, 64, 8, 2, 5000).WithPool(parallel.NewPool(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.ApplyContext(ctx, gf2.NewVector(64))
	require.True(t, errors.Is(err, context.Canceled))
}

func TestIdentity(t *testing.T) {
	src := newSource(t, 7)
	for _, n := range []int{1, 64, 200} {
		x := randomVector(t, src, n)
		require.Equal(t, x, apply(t, Identity(n), x))
	}
}

func TestXorFunction(t *testing.T) {
	src := newSource(t, 8)
	f := XorFunction(128)
	require.Equal(t, 256, f.InputLength())
	require.Equal(t, 256, f.OutputLength())
	for i := 0; i < 20; i++ {
		a := randomVector(t, src, 128)
		b := randomVector(t, src, 128)
		y, err := f.ApplyPair(a, b)
		require.NoError(t, err)
		require.Equal(t, a.Xor(b).Concat(gf2.NewVector(128)), y)
	}

	_, err := f.ApplyPair(gf2.NewVector(128), gf2.NewVector(127))
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestAndFunction(t *testing.T) {
	src := newSource(t, 9)
	f := AndFunction(64)
	for i := 0; i < 20; i++ {
		a := randomVector(t, src, 64)
		b := randomVector(t, src, 64)
		y, err := f.ApplyPair(a, b)
		require.NoError(t, err)
		require.Equal(t, a.And(b).Concat(gf2.NewVector(64)), y)
	}
}

func TestLinear(t *testing.T) {
	src := newSource(t, 10)
	m, err := gf2.RandomMatrix(src, 30, 50)
	require.NoError(t, err)
	f := Linear(m)
	require.LessOrEqual(t, f.Order(), 1)
	for i := 0; i < 20; i++ {
		x := randomVector(t, src, 50)
		expected, err := m.TimesVector(x)
		require.NoError(t, err)
		require.Equal(t, expected, apply(t, f, x))
	}
}

func TestConstant(t *testing.T) {
	c := gf2.NewVectorFromBits(5, 0, 4)
	f := Constant(3, c)
	require.Equal(t, c, apply(t, f, gf2.NewVectorFromBits(3, 1)))
	require.Equal(t, 0, Constant(3, gf2.NewVector(5)).Terms())
}

func TestXor(t *testing.T) {
	src := newSource(t, 11)
	for _, order := range []int{1, 2, 3} {
		f := randomFunction(t, int64(100+order), 64, 32, order, 60)
		g := randomFunction(t, int64(200+order), 64, 32, order, 60)
		h, err := f.Xor(g)
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			x := randomVector(t, src, 64)
			require.Equal(t, apply(t, f, x).Xor(apply(t, g, x)), apply(t, h, x), "order=%d", order)
		}
	}

	// f xor f cancels completely.
	f := randomFunction(t, 12, 16, 8, 2, 30)
	z, err := f.Xor(f)
	require.NoError(t, err)
	require.Equal(t, 0, z.Terms())

	_, err = f.Xor(randomFunction(t, 13, 16, 9, 2, 30))
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestAnd(t *testing.T) {
	src := newSource(t, 14)
	for _, order := range []int{1, 2, 3} {
		f := randomFunction(t, int64(300+order), 64, 32, order, 40)
		g := randomFunction(t, int64(400+order), 64, 32, order, 40)
		h, err := f.And(g)
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			// Dense inputs make high order terms fire.
			x := randomVector(t, src, 64).Or(randomVector(t, src, 64))
			require.Equal(t, apply(t, f, x).And(apply(t, g, x)), apply(t, h, x), "order=%d", order)
		}
	}

	_, err := Identity(4).And(Identity(5))
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestTransformOutputs(t *testing.T) {
	src := newSource(t, 15)
	f := randomFunction(t, 16, 40, 20, 2, 50)
	m, err := gf2.RandomMatrix(src, 30, 20)
	require.NoError(t, err)
	h, err := f.TransformOutputs(m)
	require.NoError(t, err)
	require.Equal(t, 30, h.OutputLength())
	for i := 0; i < 20; i++ {
		x := randomVector(t, src, 40)
		expected, err := m.TimesVector(apply(t, f, x))
		require.NoError(t, err)
		require.Equal(t, expected, apply(t, h, x))
	}

	_, err = f.TransformOutputs(gf2.NewZeroMatrix(3, 21))
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestConcat(t *testing.T) {
	src := newSource(t, 17)
	f := randomFunction(t, 18, 30, 10, 2, 30)
	g := randomFunction(t, 19, 30, 7, 3, 30)
	h, err := Concat(f, g, Identity(30))
	require.NoError(t, err)
	require.Equal(t, 47, h.OutputLength())
	for i := 0; i < 20; i++ {
		x := randomVector(t, src, 30)
		require.Equal(t, apply(t, f, x).Concat(apply(t, g, x), x), apply(t, h, x))
	}

	_, err = Concat(f, Identity(31))
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestResolve(t *testing.T) {
	src := newSource(t, 20)
	f := randomFunction(t, 21, 24, 16, 3, 200)
	for _, k := range []int{0, 1, 8, 23, 24} {
		for i := 0; i < 10; i++ {
			prefix := randomVector(t, src, k)
			rest := randomVector(t, src, 24-k)
			r, err := f.Resolve(prefix)
			require.NoError(t, err)
			require.Equal(t, 24-k, r.InputLength())
			require.Equal(t, apply(t, f, prefix.Concat(rest)), apply(t, r, rest), "k=%d", k)
		}
	}

	_, err := f.Resolve(gf2.NewVector(25))
	require.True(t, errors.Is(err, gf2.ErrDimensionMismatch))
}

func TestResolveCollapsesToConstant(t *testing.T) {
	f := AndFunction(2)
	r, err := f.Resolve(gf2.NewVectorFromBits(4, 0, 1, 2, 3))
	require.NoError(t, err)
	require.Equal(t, 0, r.InputLength())
	require.Equal(t, 1, r.Terms())
	c, ok := r.ConstantTerm()
	require.True(t, ok)
	require.Equal(t, []int{0, 1}, c.Ones())
}

func TestSplit(t *testing.T) {
	src := newSource(t, 22)
	f := randomFunction(t, 23, 20, 30, 2, 60)
	pieces, err := f.Split(5, 17, 29)
	require.NoError(t, err)
	require.Len(t, pieces, 4)
	lengths := []int{5, 12, 12, 1}
	for i, p := range pieces {
		require.Equal(t, lengths[i], p.OutputLength())
		require.Equal(t, 20, p.InputLength())
	}
	for i := 0; i < 20; i++ {
		x := randomVector(t, src, 20)
		y := apply(t, pieces[0], x).Concat(apply(t, pieces[1], x), apply(t, pieces[2], x), apply(t, pieces[3], x))
		require.Equal(t, apply(t, f, x), y)
	}

	whole, err := f.Split()
	require.NoError(t, err)
	require.True(t, f.Equal(whole[0]))

	for _, points := range [][]int{{0}, {30}, {5, 5}, {7, 3}} {
		_, err := f.Split(points...)
		require.True(t, errors.Is(err, gf2.ErrDimensionMismatch), "points=%v", points)
	}
}

func TestEqualIgnoresStrategy(t *testing.T) {
	f := randomFunction(t, 24, 10, 10, 2, 20)
	require.True(t, f.Equal(f.WithPool(parallel.NewPool(2))))
	g := randomFunction(t, 25, 10, 10, 2, 20)
	require.False(t, f.Equal(g))
}
