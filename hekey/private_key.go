package hekey

import (
	"context"
	"fmt"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/gf2poly"
)

// A PrivateKey decrypts ciphertexts. It is immutable once generated.
type PrivateKey struct {
	params Params
	// d is p x c with full row rank.
	d gf2.Matrix
	// e1 is c x p with d·e1 = I.
	e1 gf2.Matrix
	// e2 is c x (c - p), with columns spanning the null space of d.
	e2 gf2.Matrix
	// dNoise is (c - p) x c and recovers the noise of a ciphertext.
	dNoise gf2.Matrix
	// generator is F, from noise bits to plaintext bits.
	generator gf2poly.Function

	composer gf2poly.Composer
}

func (sk *PrivateKey) Params() Params {
	return sk.params
}

func (sk *PrivateKey) D() gf2.Matrix {
	return sk.d
}

func (sk *PrivateKey) E1() gf2.Matrix {
	return sk.e1
}

func (sk *PrivateKey) E2() gf2.Matrix {
	return sk.e2
}

func (sk *PrivateKey) NoiseMatrix() gf2.Matrix {
	return sk.dNoise
}

func (sk *PrivateKey) Generator() gf2poly.Function {
	return sk.generator
}

// Noise returns the noise bits r of ciphertext y.
func (sk *PrivateKey) Noise(y gf2.Vector) (gf2.Vector, error) {
	if y.Len() != sk.params.CiphertextBits {
		return gf2.Vector{}, fmt.Errorf("%w: %d-bit ciphertext, expected %d", gf2.ErrDimensionMismatch, y.Len(), sk.params.CiphertextBits)
	}
	return sk.dNoise.TimesVector(y)
}

// Decrypt returns the plaintext D·y + F(r) of ciphertext y, where r
// is its noise.
func (sk *PrivateKey) Decrypt(y gf2.Vector) (gf2.Vector, error) {
	r, err := sk.Noise(y)
	if err != nil {
		return gf2.Vector{}, err
	}
	mask, err := sk.generator.Apply(r)
	if err != nil {
		return gf2.Vector{}, err
	}
	x, err := sk.d.TimesVector(y)
	if err != nil {
		return gf2.Vector{}, err
	}
	return x.Xor(mask), nil
}

// DecryptFunction returns decryption as a function from c ciphertext
// bits to p plaintext bits, i.e. y -> D·y + F(DNoise·y).
func (sk *PrivateKey) DecryptFunction(ctx context.Context) (gf2poly.Function, error) {
	fr, err := sk.composer.Compose(ctx, sk.generator, gf2poly.Linear(sk.dNoise))
	if err != nil {
		return gf2poly.Function{}, err
	}
	return gf2poly.Linear(sk.d).Xor(fr)
}
