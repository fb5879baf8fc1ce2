// Package prng provides the randomness used to sample matrices,
// polynomial functions and keys: a keyed PRNG that can be replayed
// from a seed, and SHAKE-256 derivation of independent child streams.
package prng

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v4/utils"
	"golang.org/x/crypto/sha3"
)

// SeedSize is the size in bytes of the seeds produced by Derive.
const SeedSize = 32

// A Source is a stream of random bytes. It is not safe for concurrent
// use.
type Source struct {
	prng utils.PRNG
}

// New returns a Source keyed with fresh system randomness.
func New() (*Source, error) {
	prng, err := utils.NewPRNG()
	if err != nil {
		return nil, fmt.Errorf("new PRNG: %w", err)
	}
	return &Source{prng}, nil
}

// NewKeyed returns a Source whose output is fully determined by seed.
func NewKeyed(seed []byte) (*Source, error) {
	prng, err := utils.NewKeyedPRNG(seed)
	if err != nil {
		return nil, fmt.Errorf("new keyed PRNG: %w", err)
	}
	return &Source{prng}, nil
}

// NewKeyedFromInt is a convenience for tests and benchmarks that want
// a reproducible Source from a small integer seed.
func NewKeyedFromInt(seed int64) (*Source, error) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(seed))
	return NewKeyed(b[:])
}

// Read fills p with random bytes. It never returns a short read
// without an error.
func (s *Source) Read(p []byte) (int, error) {
	return io.ReadFull(s.prng, p)
}

// Uint64 returns a uniformly random 64-bit value.
func (s *Source) Uint64() (uint64, error) {
	var b [8]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Intn returns a uniformly random integer in [0, n), which must be
// positive. Rejection sampling keeps the result unbiased.
func (s *Source) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("prng: non-positive bound")
	}
	bound := uint64(n)
	threshold := (^uint64(0) / bound) * bound
	for {
		x, err := s.Uint64()
		if err != nil {
			return 0, err
		}
		if x < threshold {
			return int(x % bound), nil
		}
	}
}

// Derive returns a new Source keyed by SHAKE-256 over label and
// SeedSize bytes drawn from s. Sources derived with distinct labels
// are independent of each other and of s's later output.
func (s *Source) Derive(label string) (*Source, error) {
	var material [SeedSize]byte
	if _, err := s.Read(material[:]); err != nil {
		return nil, fmt.Errorf("derive %q: %w", label, err)
	}
	return NewKeyed(ExpandSeed(label, material[:]))
}

// ExpandSeed returns SeedSize bytes of SHAKE-256 output over label
// followed by each of parts.
func ExpandSeed(label string, parts ...[]byte) []byte {
	h := sha3.NewShake256()
	// Writes to a ShakeHash never fail.
	_, _ = h.Write([]byte(label))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	out := make([]byte, SeedSize)
	_, _ = h.Read(out)
	return out
}
