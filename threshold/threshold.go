// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

// Package threshold implements w-of-l threshold decryption for the Paillier
// cryptosystem: a trusted dealer splits the private key via a Shamir-style
// polynomial over Z_{nm} (m the product of the two safe-prime cofactors),
// distributes one share per authority, and any w of the l authorities can
// cooperate to recover a plaintext without any single one of them (or any
// smaller subset) learning anything about it.
//
// Key generation requires safe primes (p = 2p'+1, q = 2q'+1) because the
// share-evaluation field Z_{nm} relies on m = p'q' being coprime to n - an
// ordinary random prime pair does not guarantee this.
package threshold

import (
	"context"
	"math/big"

	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/tiehuis/libhcs"
	"github.com/tiehuis/libhcs/internal/bignum"
	"github.com/tiehuis/libhcs/internal/bigtext"
	"github.com/tiehuis/libhcs/internal/randsource"
)

var log = logging.Logger("threshold")

// MinKeyBits is the minimum modulus size GenerateKeyPair will accept.
const MinKeyBits = 32

var one = big.NewInt(1)

// PublicKey holds everything needed to encrypt, homomorphically combine, and
// share-combine ciphertexts for a w-of-l threshold scheme.
type PublicKey struct {
	N     *big.Int
	G     *big.Int
	N2    *big.Int
	Delta *big.Int
	W, L  int
}

// PrivateKey is the ephemeral, dealer-only key material: it exists only
// between GenerateKeyPair and DestroyAfterDealing, after which only the
// public key and the authorities' individual shares remain.
type PrivateKey struct {
	PublicKey

	D  *big.Int // d = 1 mod n, d = 0 mod m
	M  *big.Int // p'q'
	Nm *big.Int // n * m
	V  *big.Int // generator of the squares subgroup of Z*_n2
	Vi []*big.Int
}

// Polynomial is the dealer's secret-sharing polynomial P(X) = d + a_1 X +
// ... + a_{w-1} X^{w-1}, coefficients in Z_{nm}. It is destroyed alongside
// the private key once every authority has its share.
type Polynomial struct {
	Coeff []*big.Int
}

// AuthServer is a single decryption authority's state: its 1-based internal
// index and the secret share it was bound to. An AuthServer never exposes
// its share outside itself.
type AuthServer struct {
	Index int
	Share *big.Int
}

// GenerateKeyPair runs the trusted-dealer protocol for a bits-bit modulus
// with quorum w out of l authorities, and constructs the sharing polynomial.
// Per-authority shares still need to be evaluated and distributed - see
// DealShares and NewAuthServer - after which the caller MUST call
// DestroyAfterDealing on the returned private key and polynomial.
func GenerateKeyPair(ctx context.Context, r *randsource.Source, bits, l, w int) (*PublicKey, *PrivateKey, *Polynomial, error) {
	if bits < MinKeyBits {
		return nil, nil, nil, errors.Wrapf(libhcs.ErrInvalidKeySize, "requested %d bits, minimum is %d", bits, MinKeyBits)
	}
	if w < 1 || w > l {
		return nil, nil, nil, errors.Wrapf(libhcs.ErrInvalidModulus, "threshold: require 1 <= w <= l, got w=%d l=%d", w, l)
	}

	primeBits := bits/2 + 1
	var p, pPrime, q, qPrime *big.Int
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, errors.Wrap(err, "threshold: key generation cancelled")
		}
		p, pPrime = bignum.RandomSafePrime(r, primeBits)
		q, qPrime = bignum.RandomSafePrime(r, primeBits)
		if p.Cmp(q) != 0 {
			break
		}
	}
	log.Debugf("generated safe primes p, q of %d bits each for w=%d l=%d", primeBits, w, l)

	n := new(big.Int).Mul(p, q)
	n2 := new(big.Int).Mul(n, n)
	g := new(big.Int).Add(n, one)
	m := new(big.Int).Mul(pPrime, qPrime)
	nm := new(big.Int).Mul(n, m)

	d, err := bignum.CRT2(one, n, big.NewInt(0), m)
	if err != nil {
		return nil, nil, nil, errors.Wrap(libhcs.ErrInvalidModulus, "threshold: d CRT combine: n, m not coprime")
	}

	delta := bignum.Factorial(l)
	v := bignum.RandomQuadraticResidueGenerator(r, n2)

	poly := &Polynomial{Coeff: make([]*big.Int, w)}
	poly.Coeff[0] = new(big.Int).Set(d)
	for k := 1; k < w; k++ {
		poly.Coeff[k] = r.BigInt(nm)
	}

	pub := PublicKey{N: n, G: g, N2: n2, Delta: delta, W: w, L: l}
	priv := &PrivateKey{
		PublicKey: pub,
		D:         d, M: m, Nm: nm, V: v,
		Vi: make([]*big.Int, l),
	}
	return &pub, priv, poly, nil
}

// Eval evaluates the polynomial at x (1-based authority index) modulo nm
// using Horner's method.
func (p *Polynomial) Eval(x int, nm *big.Int) *big.Int {
	result := new(big.Int).Set(p.Coeff[len(p.Coeff)-1])
	xBig := big.NewInt(int64(x))
	for i := len(p.Coeff) - 2; i >= 0; i-- {
		result.Mul(result, xBig)
		result.Add(result, p.Coeff[i])
		result.Mod(result, nm)
	}
	return result
}

// DealShares evaluates poly at 1..priv.L and records each authority's
// publicly-verifiable commitment v_i = v^(delta*s_i) mod n2 in priv.Vi. The
// returned slice is 0-indexed: element i is the share for authority i+1.
func (priv *PrivateKey) DealShares(poly *Polynomial) []*big.Int {
	shares := make([]*big.Int, priv.L)
	for i := 0; i < priv.L; i++ {
		share := poly.Eval(i+1, priv.Nm)
		shares[i] = share

		exp := new(big.Int).Mul(priv.Delta, share)
		priv.Vi[i] = new(big.Int).Exp(priv.V, exp, priv.N2)
	}
	return shares
}

// NewAuthServer binds a dealt share to an authority, converting the
// caller-facing 0-based index into the 1-based internal index used by
// ShareDecrypt and ShareCombine.
func NewAuthServer(indexZeroBased int, share *big.Int) *AuthServer {
	return &AuthServer{Index: indexZeroBased + 1, Share: new(big.Int).Set(share)}
}

// DestroyAfterDealing zeroizes every secret the dealer holds: the private
// key's d, m, nm, v, verification vector, and the polynomial's coefficients.
// The dealer MUST call this once every authority has its share; it is the
// Go-idiom stand-in for the C source's "ephemeral, move-only" private key.
func DestroyAfterDealing(priv *PrivateKey, poly *Polynomial) {
	bignum.ZeroizeAll(priv.D, priv.M, priv.Nm, priv.V)
	bignum.ZeroizeAll(priv.Vi...)
	if poly != nil {
		bignum.ZeroizeAll(poly.Coeff...)
		poly.Coeff = nil
	}
}

// RequireMajorityQuorum is an opt-in validation helper enforcing the
// stricter l/2 <= w <= l constraint some reference variants used; it is not
// applied by GenerateKeyPair itself, which only requires 1 <= w <= l.
func RequireMajorityQuorum(w, l int) error {
	if w < (l+1)/2 || w > l {
		return errors.Wrapf(libhcs.ErrInvalidModulus, "threshold: majority quorum requires l/2 <= w <= l, got w=%d l=%d", w, l)
	}
	return nil
}

// Encrypt returns a fresh encryption of m under pk.
func (pk *PublicKey) Encrypt(r *randsource.Source, m *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "threshold: plaintext out of range")
	}
	u := bignum.RandomInMultGroup(r, pk.N)
	return pk.EncryptWithR(m, u)
}

// EncryptWithR encrypts m using the caller-supplied blinding factor u; the
// zero-knowledge proof subsystem in proof.go relies on this to fix a
// witness value.
func (pk *PublicKey) EncryptWithR(m, u *big.Int) (*big.Int, error) {
	gm := new(big.Int).Exp(pk.G, m, pk.N2)
	un := new(big.Int).Exp(u, pk.N, pk.N2)
	c := new(big.Int).Mul(gm, un)
	c.Mod(c, pk.N2)
	return c, nil
}

// EPAdd returns an encryption of (the plaintext under c) + m.
func (pk *PublicKey) EPAdd(c, m *big.Int) (*big.Int, error) {
	gm := new(big.Int).Exp(pk.G, m, pk.N2)
	rop := new(big.Int).Mul(c, gm)
	rop.Mod(rop, pk.N2)
	return rop, nil
}

// EEAdd returns an encryption of the sum of the two plaintexts under c1, c2.
func (pk *PublicKey) EEAdd(c1, c2 *big.Int) (*big.Int, error) {
	rop := new(big.Int).Mul(c1, c2)
	rop.Mod(rop, pk.N2)
	return rop, nil
}

// EPMul returns an encryption of (the plaintext under c) * m.
func (pk *PublicKey) EPMul(c, m *big.Int) (*big.Int, error) {
	return new(big.Int).Exp(c, m, pk.N2), nil
}

// Reencrypt returns a fresh ciphertext encrypting the same plaintext as c.
func (pk *PublicKey) Reencrypt(r *randsource.Source, c *big.Int) (*big.Int, error) {
	u := bignum.RandomInMultGroup(r, pk.N)
	un := new(big.Int).Exp(u, pk.N, pk.N2)
	rop := new(big.Int).Mul(c, un)
	rop.Mod(rop, pk.N2)
	return rop, nil
}

// ShareDecrypt computes authority au's partial decryption of c:
// c_i = c^(2*delta*s_i) mod n2.
func (au *AuthServer) ShareDecrypt(pk *PublicKey, c *big.Int) *big.Int {
	exp := new(big.Int).Mul(pk.Delta, au.Share)
	exp.Mul(exp, big.NewInt(2))
	return new(big.Int).Exp(c, exp, pk.N2)
}

// ShareCombine reconstructs the plaintext from a sparse slice of partial
// decryptions: shares[i] is authority (i+1)'s contribution, or nil if
// absent. At least pk.W distinct shares must be present.
func (pk *PublicKey) ShareCombine(shares []*big.Int) (*big.Int, error) {
	present := make([]int, 0, len(shares))
	for i, s := range shares {
		if s != nil {
			present = append(present, i)
		}
	}
	if len(present) < pk.W {
		return nil, errors.Wrapf(libhcs.ErrQuorumNotMet, "threshold: have %d shares, need %d", len(present), pk.W)
	}

	product := big.NewInt(1)
	for _, i := range present {
		lambda := lagrangeCoefficient(pk.Delta, present, i)

		e := new(big.Int).Abs(lambda)
		e.Mul(e, big.NewInt(2))

		t := new(big.Int).Exp(shares[i], e, pk.N2)
		if lambda.Sign() < 0 {
			inv := new(big.Int).ModInverse(t, pk.N2)
			if inv == nil {
				return nil, errors.Wrap(libhcs.ErrShareCombineFailed, "threshold: partial share has no inverse mod n2")
			}
			t = inv
		}

		product.Mul(product, t)
		product.Mod(product, pk.N2)
	}

	x := new(big.Int).Sub(product, one)
	x.Div(x, pk.N)
	x.Mod(x, pk.N)

	deltaSq := new(big.Int).Mul(pk.Delta, pk.Delta)
	deltaSq.Mul(deltaSq, big.NewInt(4))
	inv := new(big.Int).ModInverse(deltaSq, pk.N)
	if inv == nil {
		return nil, errors.Wrap(libhcs.ErrShareCombineFailed, "threshold: (4*delta^2) has no inverse mod n")
	}

	x.Mul(x, inv)
	x.Mod(x, pk.N)
	return x, nil
}

// VerifyAllShares checks every one of auths' shares against the dealer's
// published verification value (v_i = v^(delta*s_i) mod n2, as recorded by
// DealShares), aggregating every failing authority into a single multierror
// rather than stopping at the first one.
func VerifyAllShares(pk *PublicKey, v *big.Int, vi []*big.Int, auths []*AuthServer) error {
	var result error
	for _, au := range auths {
		exp := new(big.Int).Mul(pk.Delta, au.Share)
		got := new(big.Int).Exp(v, exp, pk.N2)
		want := vi[au.Index-1]
		if got.Cmp(want) != 0 {
			result = multierror.Append(result, errors.Wrapf(libhcs.ErrInvalidProof, "threshold: authority %d's share does not match its commitment", au.Index))
		}
	}
	return result
}

// lagrangeCoefficient computes delta * prod_{j in present, j != idx} (j+1) / (j - idx),
// where present holds 0-based share indices and idx is the element being
// weighted. The division is exact because the numerator is always a
// multiple of delta = l!.
func lagrangeCoefficient(delta *big.Int, present []int, idx int) *big.Int {
	num := new(big.Int).Set(delta)
	den := big.NewInt(1)
	for _, j := range present {
		if j == idx {
			continue
		}
		num.Mul(num, big.NewInt(int64(j+1)))
		den.Mul(den, big.NewInt(int64(j-idx)))
	}
	num.Div(num, den)
	return num
}

// Verify checks the public key's structural invariants.
func (pk *PublicKey) Verify() error {
	wantG := new(big.Int).Add(pk.N, one)
	if pk.G.Cmp(wantG) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "threshold: g != n+1")
	}
	wantN2 := new(big.Int).Mul(pk.N, pk.N)
	if pk.N2.Cmp(wantN2) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "threshold: n2 != n*n")
	}
	wantDelta := bignum.Factorial(pk.L)
	if pk.Delta.Cmp(wantDelta) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "threshold: delta != l!")
	}
	if pk.W < 1 || pk.W > pk.L {
		return errors.Wrap(libhcs.ErrInvariantViolation, "threshold: require 1 <= w <= l")
	}
	return nil
}

// MarshalText renders pk's logical fields (n, w, l) as base-62
// text. g, n2, and delta are fully determined by n and l and are
// re-derived on unmarshal rather than carried.
func (pk *PublicKey) MarshalText() ([]byte, error) {
	return bigtext.Encode(pk.N, big.NewInt(int64(pk.W)), big.NewInt(int64(pk.L))), nil
}

// UnmarshalText parses text produced by MarshalText, rebuilding
// g = n+1, n2 = n*n, and delta = l!.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 3)
	if err != nil {
		return errors.Wrap(err, "threshold: unmarshal public key")
	}
	pk.N = fields[0]
	pk.W = int(fields[1].Int64())
	pk.L = int(fields[2].Int64())
	pk.G = new(big.Int).Add(pk.N, one)
	pk.N2 = new(big.Int).Mul(pk.N, pk.N)
	pk.Delta = bignum.Factorial(pk.L)
	return nil
}

// MarshalText renders the authority's logical fields (s_i, i) as base-62
// text, i being the 1-based internal index held in Index.
func (au *AuthServer) MarshalText() ([]byte, error) {
	return bigtext.Encode(au.Share, big.NewInt(int64(au.Index))), nil
}

// UnmarshalText parses text produced by MarshalText, storing the 1-based
// wire index directly as the internal Index.
func (au *AuthServer) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 2)
	if err != nil {
		return errors.Wrap(err, "threshold: unmarshal authority")
	}
	au.Share = fields[0]
	au.Index = int(fields[1].Int64())
	return nil
}
