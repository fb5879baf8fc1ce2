package hekey

import (
	"context"
	"fmt"

	"github.com/akalin/mvq/gf2"
	"github.com/akalin/mvq/gf2poly"
	"github.com/akalin/mvq/prng"
)

// A PublicKey encrypts plaintexts. It is immutable once generated.
type PublicKey struct {
	params Params
	// encrypter maps (x || s) to a ciphertext. It has a single
	// pipeline, the noise function applied to s.
	encrypter gf2poly.Function

	composer gf2poly.Composer
}

func (pk *PublicKey) Params() Params {
	return pk.params
}

// Encrypter returns the function from a plaintext followed by a seed
// to a ciphertext, with the noise function as its pipeline.
func (pk *PublicKey) Encrypter() gf2poly.Function {
	return pk.encrypter
}

// FlatEncrypter returns Encrypter() with its pipeline substituted in,
// as a single polynomial function.
func (pk *PublicKey) FlatEncrypter(ctx context.Context) (gf2poly.Function, error) {
	return pk.composer.Compose(ctx, pk.encrypter, gf2poly.Identity(pk.encrypter.InputLength()))
}

// EncryptWithSeed returns the ciphertext of x under seed s.
func (pk *PublicKey) EncryptWithSeed(x, s gf2.Vector) (gf2.Vector, error) {
	if x.Len() != pk.params.PlaintextBits || s.Len() != pk.params.SeedBits {
		return gf2.Vector{}, fmt.Errorf("%w: %d-bit plaintext and %d-bit seed, expected %d and %d", gf2.ErrDimensionMismatch, x.Len(), s.Len(), pk.params.PlaintextBits, pk.params.SeedBits)
	}
	return pk.encrypter.Apply(x.Concat(s))
}

// Encrypt returns a ciphertext of x under a seed drawn from src.
func (pk *PublicKey) Encrypt(src *prng.Source, x gf2.Vector) (gf2.Vector, error) {
	s, err := gf2.RandomVector(src, pk.params.SeedBits)
	if err != nil {
		return gf2.Vector{}, err
	}
	return pk.EncryptWithSeed(x, s)
}
