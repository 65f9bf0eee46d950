// Package randsource provides the single mutable randomness primitive every
// scheme in this module draws from: a deterministic PRNG seeded from an
// entropy source. The contract is uniform output, not unpredictability of
// the generator itself - the seed does that work, which is why reseeding
// from a weak or fixed value (NewWithSeed) is explicitly a test-only escape
// hatch.
//
// A Source is exclusively owned by one operation at a time; it is not safe
// for concurrent use by multiple goroutines without external locking, since
// every draw advances its internal state.
package randsource

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"math/big"
	mrand "math/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// SeedBits is the number of bits of entropy pulled from the platform source
// on every seed or reseed.
const SeedBits = 256

// ErrEntropyUnavailable is returned when the underlying entropy reader fails
// to produce the requested number of bytes.
var ErrEntropyUnavailable = errors.New("randsource: entropy source unavailable")

// Source wraps a math/rand generator along with the entropy reader used to
// (re)seed it.
type Source struct {
	entropy io.Reader
	rng     *mrand.Rand
}

// New seeds a Source by reading SeedBits of entropy from crypto/rand.Reader.
func New() (*Source, error) {
	return NewFromEntropy(rand.Reader)
}

// NewFromEntropy seeds a Source from an arbitrary entropy reader, allowing a
// collaborator to supply its own "secure bytes" implementation.
func NewFromEntropy(entropy io.Reader) (*Source, error) {
	s := &Source{entropy: entropy}
	if err := s.Reseed(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithSeed builds a Source from a fixed int64 seed, bypassing entropy
// acquisition entirely. This exists for reproducible tests and MUST NOT be
// used to protect real keys.
func NewWithSeed(seed int64) *Source {
	return &Source{rng: mrand.New(mrand.NewSource(seed))}
}

// Reseed re-pulls SeedBits of entropy and re-derives the PRNG state from it.
// The entropy buffer is zeroized before this function returns.
func (s *Source) Reseed() error {
	if s.entropy == nil {
		s.entropy = rand.Reader
	}
	seedBuf := make([]byte, SeedBits/8)
	defer zeroizeBytes(seedBuf)
	if _, err := io.ReadFull(s.entropy, seedBuf); err != nil {
		return errors.Wrapf(ErrEntropyUnavailable, "reading seed bytes: %v", err)
	}

	// Expand the raw entropy through HKDF rather than feeding it to the PRNG
	// seed directly, so a short or structured entropy buffer doesn't leak
	// directly into the generator's initial state.
	expander := hkdf.New(sha256.New, seedBuf, nil, []byte("libhcs-randsource-seed"))
	var seedWord [8]byte
	if _, err := io.ReadFull(expander, seedWord[:]); err != nil {
		return errors.Wrapf(ErrEntropyUnavailable, "expanding seed: %v", err)
	}
	seed := int64(0)
	for _, b := range seedWord {
		seed = (seed << 8) | int64(b)
	}
	s.rng = mrand.New(mrand.NewSource(seed))
	return nil
}

// Raw exposes the underlying *math/rand.Rand for lower-level numeric
// operations (big.Int.Rand and friends) that need a math/rand.Source
// directly.
func (s *Source) Raw() *mrand.Rand {
	return s.rng
}

// BigInt returns a uniform value in [0, max). It implements bignum.Source.
func (s *Source) BigInt(max *big.Int) *big.Int {
	return new(big.Int).Rand(s.rng, max)
}

func zeroizeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
