// Package hekey generates key pairs whose encryption and decryption
// maps are GF(2) polynomial functions, and derives public functions on
// ciphertexts that mirror operations on plaintexts.
//
// A private key holds a full row rank p x c matrix D with a right
// inverse E1 and a null space basis E2, plus a generator function F.
// A plaintext x is encrypted with noise r = R(s) for a random seed s as
//
//	y = E1·(x + F(r)) + E2·r
//
// so that D·y = x + F(r), and r is recovered from y by the last c - p
// rows of the inverse of [E1 | E2].
package hekey

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/gf2poly"
	"github.com/akalin/mvq/parallel"
	"github.com/akalin/mvq/prng"
)

// ErrKeyGenerationExhausted is returned when no usable matrix was
// sampled within Params.MaxAttempts tries.
var ErrKeyGenerationExhausted = errors.New("hekey: key generation exhausted")

// errWrongNullity is the reason for rejecting a matrix whose null
// space is not c - p dimensional.
var errWrongNullity = errors.New("hekey: wrong null space dimension")

// Labels for the independent streams derived from the caller's source.
const (
	labelMatrix    = "mvq/hekey/matrix"
	labelGenerator = "mvq/hekey/generator"
	labelNoise     = "mvq/hekey/noise"
)

// Delegate holds methods that are called during key generation.
type Delegate interface {
	// OnAttempt is called after each sampled matrix, with a nil
	// err if it was accepted.
	OnAttempt(attempt, maxAttempts int, err error)
	OnPrivateKey(params Params, generatorTerms int)
	OnPublicKey(params Params, encrypterTerms, pipelineTerms int)
}

type nopDelegate struct{}

func (nopDelegate) OnAttempt(attempt, maxAttempts int, err error)                {}
func (nopDelegate) OnPrivateKey(params Params, generatorTerms int)               {}
func (nopDelegate) OnPublicKey(params Params, encrypterTerms, pipelineTerms int) {}

// A KeyBuilder generates key pairs for one parameter set.
type KeyBuilder struct {
	params   Params
	delegate Delegate
	pool     *parallel.Pool
	composer gf2poly.Composer
}

// NewKeyBuilder returns a KeyBuilder for params. The functions it
// builds evaluate and compose on pool, which may be nil for
// sequential use. A nil delegate reports nothing; composeDelegate, if
// non-nil, is told about every composition.
func NewKeyBuilder(params Params, pool *parallel.Pool, delegate Delegate, composeDelegate gf2poly.ComposeDelegate) (*KeyBuilder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if delegate == nil {
		delegate = nopDelegate{}
	}
	return &KeyBuilder{
		params:   params,
		delegate: delegate,
		pool:     pool,
		composer: gf2poly.NewComposer(pool, composeDelegate),
	}, nil
}

// Params returns the parameters the builder was created with.
func (b *KeyBuilder) Params() Params {
	return b.params
}

type privateMatrices struct {
	d, e1, e2, dNoise gf2.Matrix
}

// sampleMatrices draws a random p x c matrix D and derives the other
// private matrices from it. Matrices without full row rank come back
// with a gf2 error, and the caller resamples.
func (b *KeyBuilder) sampleMatrices(src io.Reader) (privateMatrices, error) {
	p, c, q := b.params.PlaintextBits, b.params.CiphertextBits, b.params.NoiseBits()
	d, err := gf2.RandomMatrix(src, p, c)
	if err != nil {
		return privateMatrices{}, err
	}

	basis := d.NullspaceBasis()
	if basis.Rows() != q {
		return privateMatrices{}, fmt.Errorf("%w: %d, expected %d", errWrongNullity, basis.Rows(), q)
	}
	e1, err := d.RightInverse()
	if err != nil {
		return privateMatrices{}, err
	}
	e2 := basis.Transpose()

	combined, err := gf2.ConcatColumns(e1, e2)
	if err != nil {
		return privateMatrices{}, err
	}
	inv, err := combined.Inverse()
	if err != nil {
		return privateMatrices{}, err
	}
	return privateMatrices{
		d:      d,
		e1:     e1,
		e2:     e2,
		dNoise: inv.SliceRows(p, c),
	}, nil
}

func isResampleError(err error) bool {
	return errors.Is(err, gf2.ErrSingularMatrix) ||
		errors.Is(err, gf2.ErrNonSquareMatrix) ||
		errors.Is(err, errWrongNullity)
}

// GeneratePrivateKey samples a private key from src.
func (b *KeyBuilder) GeneratePrivateKey(src *prng.Source) (*PrivateKey, error) {
	matrixSrc, err := src.Derive(labelMatrix)
	if err != nil {
		return nil, err
	}
	generatorSrc, err := src.Derive(labelGenerator)
	if err != nil {
		return nil, err
	}
	return b.generatePrivateKey(matrixSrc, generatorSrc)
}

func (b *KeyBuilder) generatePrivateKey(matrixSrc io.Reader, generatorSrc *prng.Source) (*PrivateKey, error) {
	var m privateMatrices
	var err error
	attempts := b.params.MaxAttempts
	for attempt := 1; ; attempt++ {
		if attempt > attempts {
			return nil, fmt.Errorf("%w after %d attempts", ErrKeyGenerationExhausted, attempts)
		}
		m, err = b.sampleMatrices(matrixSrc)
		if err != nil && !isResampleError(err) {
			return nil, err
		}
		b.delegate.OnAttempt(attempt, attempts, err)
		if err == nil {
			break
		}
	}

	q, p := b.params.NoiseBits(), b.params.PlaintextBits
	f, err := gf2poly.RandomDense(generatorSrc, q, p, b.params.GeneratorOrder)
	if err != nil {
		return nil, err
	}
	sk := &PrivateKey{
		params:    b.params,
		d:         m.d,
		e1:        m.e1,
		e2:        m.e2,
		dNoise:    m.dNoise,
		generator: f.WithPool(b.pool),
		composer:  b.composer,
	}
	b.delegate.OnPrivateKey(b.params, f.Terms())
	return sk, nil
}

// GeneratePublicKey samples a noise function from src and builds the
// encrypter for sk.
func (b *KeyBuilder) GeneratePublicKey(ctx context.Context, src *prng.Source, sk *PrivateKey) (*PublicKey, error) {
	noiseSrc, err := src.Derive(labelNoise)
	if err != nil {
		return nil, err
	}
	n, q := b.params.SeedBits, b.params.NoiseBits()
	r, err := gf2poly.RandomDense(noiseSrc, n, q, b.params.NoiseOrder)
	if err != nil {
		return nil, err
	}
	pk, err := b.buildPublicKey(ctx, sk, r.WithPool(b.pool))
	if err != nil {
		return nil, err
	}
	b.delegate.OnPublicKey(b.params, pk.encrypter.Terms(), pk.encrypter.Pipelines()[0].Terms())
	return pk, nil
}

// Generate returns a fresh key pair drawn from src.
func (b *KeyBuilder) Generate(ctx context.Context, src *prng.Source) (*PrivateKey, *PublicKey, error) {
	sk, err := b.GeneratePrivateKey(src)
	if err != nil {
		return nil, nil, err
	}
	pk, err := b.GeneratePublicKey(ctx, src, sk)
	if err != nil {
		return nil, nil, err
	}
	return sk, pk, nil
}

// buildPublicKey assembles the encrypter of (x || s) as the
// parameterized function with pipeline r = R(s) and base
//
//	(x, s, r) -> E1·x + E1·F(r) + E2·r.
func (b *KeyBuilder) buildPublicKey(ctx context.Context, sk *PrivateKey, r gf2poly.Function) (*PublicKey, error) {
	p, n, q := b.params.PlaintextBits, b.params.SeedBits, b.params.NoiseBits()
	external := p + n
	full := external + q

	x := gf2poly.Projection(full, 0, p)
	noise := gf2poly.Projection(full, external, full)

	e1x, err := x.TransformOutputs(sk.e1)
	if err != nil {
		return nil, err
	}
	fr, err := b.composer.Compose(ctx, sk.generator, noise)
	if err != nil {
		return nil, err
	}
	e1fr, err := fr.TransformOutputs(sk.e1)
	if err != nil {
		return nil, err
	}
	e2r, err := noise.TransformOutputs(sk.e2)
	if err != nil {
		return nil, err
	}
	base, err := e1x.Xor(e1fr)
	if err != nil {
		return nil, err
	}
	base, err = base.Xor(e2r)
	if err != nil {
		return nil, err
	}

	pipeline, err := b.composer.Compose(ctx, r, gf2poly.Projection(external, p, external))
	if err != nil {
		return nil, err
	}
	encrypter, err := gf2poly.NewParameterized(base.WithPool(b.pool), external, pipeline)
	if err != nil {
		return nil, err
	}
	return &PublicKey{
		params:    b.params,
		encrypter: encrypter,
		composer:  b.composer,
	}, nil
}
