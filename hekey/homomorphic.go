package hekey

import (
	"context"
	"fmt"

	"github.com/akalin/mvq/gf2poly"
)

// HomomorphicXor returns a function of (y1 || y2 || s), for
// ciphertexts y1 and y2 and a fresh seed s, whose output is a
// ciphertext of Decrypt(y1) xor Decrypt(y2). Only the returned
// function is needed to evaluate it, so it can be published alongside
// pk.
func HomomorphicXor(ctx context.Context, sk *PrivateKey, pk *PublicKey) (gf2poly.Function, error) {
	if sk.params != pk.params {
		return gf2poly.Function{}, fmt.Errorf("%w: key pair parameters differ (%s and %s)", ErrInvalidParams, sk.params, pk.params)
	}
	p, c, n := pk.params.PlaintextBits, pk.params.CiphertextBits, pk.params.SeedBits
	in := 2*c + n

	dec, err := sk.DecryptFunction(ctx)
	if err != nil {
		return gf2poly.Function{}, err
	}
	dec1, err := sk.composer.Compose(ctx, dec, gf2poly.Projection(in, 0, c))
	if err != nil {
		return gf2poly.Function{}, err
	}
	dec2, err := sk.composer.Compose(ctx, dec, gf2poly.Projection(in, c, 2*c))
	if err != nil {
		return gf2poly.Function{}, err
	}

	// The low half of XorFunction(p) over (x1 || x2) is x1 xor x2.
	pair, err := gf2poly.Concat(dec1, dec2)
	if err != nil {
		return gf2poly.Function{}, err
	}
	xored, err := sk.composer.Compose(ctx, gf2poly.XorFunction(p), pair)
	if err != nil {
		return gf2poly.Function{}, err
	}
	halves, err := xored.Split(p)
	if err != nil {
		return gf2poly.Function{}, err
	}

	inner, err := gf2poly.Concat(halves[0], gf2poly.Projection(in, 2*c, in))
	if err != nil {
		return gf2poly.Function{}, err
	}
	return pk.composer.Compose(ctx, pk.encrypter, inner)
}
