package hekey

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidParams is returned for parameter sets that no key can be
// generated for.
var ErrInvalidParams = errors.New("hekey: invalid parameters")

// Params describes the shape of a key pair.
type Params struct {
	// PlaintextBits is the length p of a plaintext.
	PlaintextBits int
	// CiphertextBits is the length c of a ciphertext. The c - p
	// extra bits carry noise.
	CiphertextBits int
	// SeedBits is the length of the random seed s that each
	// encryption draws.
	SeedBits int
	// NoiseOrder is the order of the noise function R, which maps
	// the seed to the noise bits.
	NoiseOrder int
	// GeneratorOrder is the order of the generator function F,
	// which maps the noise bits to a plaintext mask.
	GeneratorOrder int
	// MaxAttempts bounds how many matrices key generation samples
	// before giving up.
	MaxAttempts int
}

// NoiseBits returns c - p.
func (p Params) NoiseBits() int {
	return p.CiphertextBits - p.PlaintextBits
}

// Validate returns an error wrapping ErrInvalidParams if p cannot be
// used to generate keys.
func (p Params) Validate() error {
	switch {
	case p.PlaintextBits <= 0:
		return fmt.Errorf("%w: %d plaintext bits", ErrInvalidParams, p.PlaintextBits)
	case p.CiphertextBits <= p.PlaintextBits:
		return fmt.Errorf("%w: %d ciphertext bits for %d plaintext bits", ErrInvalidParams, p.CiphertextBits, p.PlaintextBits)
	case p.SeedBits <= 0:
		return fmt.Errorf("%w: %d seed bits", ErrInvalidParams, p.SeedBits)
	case p.NoiseOrder < 1 || p.NoiseOrder > p.SeedBits:
		return fmt.Errorf("%w: noise order %d for %d seed bits", ErrInvalidParams, p.NoiseOrder, p.SeedBits)
	case p.GeneratorOrder < 1 || p.GeneratorOrder > p.NoiseBits():
		return fmt.Errorf("%w: generator order %d for %d noise bits", ErrInvalidParams, p.GeneratorOrder, p.NoiseBits())
	case p.MaxAttempts <= 0:
		return fmt.Errorf("%w: %d attempts", ErrInvalidParams, p.MaxAttempts)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("p=%d c=%d n=%d noiseOrder=%d generatorOrder=%d", p.PlaintextBits, p.CiphertextBits, p.SeedBits, p.NoiseOrder, p.GeneratorOrder)
}

const defaultMaxAttempts = 64

// Presets are named parameter sets, from quick to slow.
var Presets = map[string]Params{
	"toy": {
		PlaintextBits:  8,
		CiphertextBits: 16,
		SeedBits:       8,
		NoiseOrder:     2,
		GeneratorOrder: 2,
		MaxAttempts:    defaultMaxAttempts,
	},
	"small": {
		PlaintextBits:  16,
		CiphertextBits: 32,
		SeedBits:       16,
		NoiseOrder:     2,
		GeneratorOrder: 2,
		MaxAttempts:    defaultMaxAttempts,
	},
	"medium": {
		PlaintextBits:  32,
		CiphertextBits: 64,
		SeedBits:       24,
		NoiseOrder:     2,
		GeneratorOrder: 2,
		MaxAttempts:    defaultMaxAttempts,
	},
	"large": {
		PlaintextBits:  64,
		CiphertextBits: 128,
		SeedBits:       32,
		NoiseOrder:     2,
		GeneratorOrder: 2,
		MaxAttempts:    defaultMaxAttempts,
	},
}

// PresetNames returns the names of Presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the preset with the given name.
func Lookup(name string) (Params, error) {
	p, ok := Presets[name]
	if !ok {
		return Params{}, fmt.Errorf("%w: unknown preset %q (have %v)", ErrInvalidParams, name, PresetNames())
	}
	return p, nil
}
