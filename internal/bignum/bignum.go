// Package bignum collects the pure, stateless number-theoretic helpers
// shared by every cryptosystem in this module: prime and safe-prime search
// (sieved against small primes before any Miller-Rabin round), sampling a
// unit of Z*_m, two-modulus CRT combination, and zeroizing a big.Int's
// backing limbs.
//
// None of these functions touch a PRNG directly. They accept a Source -
// anything that can hand back a uniform *big.Int below a bound - so that
// callers can thread a single randsource.Source through every draw without
// this package importing it back.
package bignum

import (
	"math/big"

	"github.com/otiai10/primes"
	"github.com/pkg/errors"
)

// MillerRabinRounds is the confidence level used for every primality test
// performed in this package, matching the >= 25 round floor the scheme
// designs call for.
const MillerRabinRounds = 25

// sieveUntil bounds the small-prime trial division RandomPrime runs before
// falling back to Miller-Rabin. Candidates divisible by a prime this small
// are overwhelmingly the common case, and trial division against them is
// orders of magnitude cheaper than even one ProbablyPrime round.
const sieveUntil = 1000

func init() {
	// Warm the shared cache so the first RandomPrime call doesn't pay for it.
	_ = primes.Globally.Until(sieveUntil)
}

var (
	// ErrInvalidModulus is returned by CRT2 when the two moduli are not
	// coprime, so no Bezout combination exists.
	ErrInvalidModulus = errors.New("bignum: moduli are not coprime")

	one = big.NewInt(1)
	two = big.NewInt(2)
)

// divisibleBySmallPrime reports whether n has a factor among the primes up
// to sieveUntil, sparing a ProbablyPrime call for the common composite case.
func divisibleBySmallPrime(n *big.Int) bool {
	smallPrime := new(big.Int)
	rem := new(big.Int)
	for _, p := range primes.Until(sieveUntil).List() {
		smallPrime.SetInt64(p)
		if n.Cmp(smallPrime) == 0 {
			return false
		}
		if rem.Mod(n, smallPrime).Sign() == 0 {
			return true
		}
	}
	return false
}

// Source is the minimal randomness surface bignum needs: a uniform draw in
// [0, max).
type Source interface {
	BigInt(max *big.Int) *big.Int
}

// Factorial returns n! for n >= 0.
func Factorial(n int) *big.Int {
	ret := big.NewInt(1)
	for i := int64(2); i <= int64(n); i++ {
		ret.Mul(ret, big.NewInt(i))
	}
	return ret
}

// RandomPrime draws a uniform bits-bit candidate with the top bit set and
// advances to the next probable prime, the way crypto/rand.Prime does, but
// routed through the supplied Source so callers keep a single seeded stream.
// Each candidate is trial-divided against the small-prime sieve before
// paying for a Miller-Rabin round.
func RandomPrime(r Source, bits int) *big.Int {
	for {
		max := new(big.Int).Lsh(one, uint(bits))
		candidate := r.BigInt(max)
		candidate.SetBit(candidate, bits-1, 1)
		candidate.SetBit(candidate, 0, 1)
		for divisibleBySmallPrime(candidate) || !candidate.ProbablyPrime(MillerRabinRounds) {
			candidate.Add(candidate, two)
			if candidate.BitLen() > bits {
				break
			}
		}
		if candidate.BitLen() == bits && !divisibleBySmallPrime(candidate) && candidate.ProbablyPrime(MillerRabinRounds) {
			return candidate
		}
	}
}

// RandomSafePrime returns (p, q) such that p = 2q+1, both prime, and p has
// the requested bit length. It loops RandomPrime for p and tests whether
// (p-1)/2 is itself prime, rejecting and retrying otherwise - the textbook
// construction, not the sieve-optimized search a production safe-prime
// generator would use.
func RandomSafePrime(r Source, bits int) (p, q *big.Int) {
	for {
		p = RandomPrime(r, bits)
		q = new(big.Int).Sub(p, one)
		q.Rsh(q, 1)
		if q.ProbablyPrime(MillerRabinRounds) {
			return p, q
		}
	}
}

// RandomInMultGroup returns a uniform element of Z*_m: sample uniformly in
// [0, m) and accept iff gcd(sample, m) = 1.
func RandomInMultGroup(r Source, m *big.Int) *big.Int {
	gcd := new(big.Int)
	for {
		candidate := r.BigInt(m)
		if candidate.Sign() == 0 {
			continue
		}
		gcd.GCD(nil, nil, candidate, m)
		if gcd.Cmp(one) == 0 {
			return candidate
		}
	}
}

// RandomQuadraticResidueGenerator returns a generator of the cyclic group of
// squares in Z*_m with high probability: it squares a random unit of Z*_m.
// When m is a safe prime the group of squares has prime order, so any square
// other than 1 generates it; when m is a product of distinct safe primes (or
// the square of one, as the threshold package uses) the group of squares is
// cyclic of composite order and a random square generates it with high
// probability. The result is not checked.
func RandomQuadraticResidueGenerator(r Source, m *big.Int) *big.Int {
	g := RandomInMultGroup(r, m)
	return g.Mul(g, g).Mod(g, m)
}

// CRT2 solves the pair of congruences x = a1 (mod m1), x = a2 (mod m2) via
// Bezout's identity and returns the unique solution in [0, m1*m2). Fails with
// ErrInvalidModulus if gcd(m1, m2) != 1.
func CRT2(a1, m1, a2, m2 *big.Int) (*big.Int, error) {
	gcd := new(big.Int)
	x, y := new(big.Int), new(big.Int)
	gcd.GCD(x, y, m1, m2)
	if gcd.Cmp(one) != 0 {
		return nil, ErrInvalidModulus
	}

	m := new(big.Int).Mul(m1, m2)
	// x satisfies x*m1 + y*m2 = 1, so m2*y = 1 (mod m1) and m1*x = 1 (mod m2).
	term1 := new(big.Int).Mul(a1, y)
	term1.Mul(term1, m2)
	term2 := new(big.Int).Mul(a2, x)
	term2.Mul(term2, m1)

	result := new(big.Int).Add(term1, term2)
	result.Mod(result, m)
	if result.Sign() < 0 {
		result.Add(result, m)
	}
	return result, nil
}

// Zeroize overwrites x's backing limbs with zero in place. big.Int.Bits
// returns a slice that aliases the receiver's storage, so writing through it
// mutates x directly instead of producing a throwaway copy the optimizer
// could discard.
func Zeroize(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}

// ZeroizeAll zeroizes every non-nil big.Int given.
func ZeroizeAll(xs ...*big.Int) {
	for _, x := range xs {
		Zeroize(x)
	}
}
