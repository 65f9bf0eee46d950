// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

// Package damgardjurik implements the Damgard-Jurik generalization of
// Paillier: ciphertexts live in Z*_{n^(s+1)} for an implementation-chosen
// s >= 1, trading a larger modulus for a plaintext space of n^s instead of
// n. Setting s = 1 recovers the Paillier scheme bit-for-bit.
package damgardjurik

import (
	"context"
	"math/big"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/tiehuis/libhcs"
	"github.com/tiehuis/libhcs/internal/bignum"
	"github.com/tiehuis/libhcs/internal/bigtext"
	"github.com/tiehuis/libhcs/internal/randsource"
)

var log = logging.Logger("damgardjurik")

// MinKeyBits is the minimum modulus size GenerateKeyPair will accept.
const MinKeyBits = 32

var one = big.NewInt(1)

// PublicKey holds the precomputed powers of n used across every homomorphic
// operation: N[i] = n^(i+1) for i in [0, S].
type PublicKey struct {
	N []*big.Int
	G *big.Int
	S int
}

// PrivateKey holds the same n powers as PublicKey plus the Carmichael
// exponent d and decryption factor Mu.
type PrivateKey struct {
	PublicKey
	D  *big.Int
	Mu *big.Int
}

// n returns n^(i+1), i.e. N[i].
func (pk *PublicKey) n(i int) *big.Int { return pk.N[i] }

// modulus is the ciphertext-space modulus n^(S+1).
func (pk *PublicKey) modulus() *big.Int { return pk.N[pk.S] }

// plaintextModulus is the plaintext-space modulus n^S.
func (pk *PublicKey) plaintextModulus() *big.Int { return pk.N[pk.S-1] }

// GenerateKeyPair draws p, q as plain random primes (safe primes are not
// required outside the threshold scheme) and derives an s-fold generalized
// key pair.
func GenerateKeyPair(ctx context.Context, r *randsource.Source, s, bits int) (*PublicKey, *PrivateKey, error) {
	if bits < MinKeyBits {
		return nil, nil, errors.Wrapf(libhcs.ErrInvalidKeySize, "requested %d bits, minimum is %d", bits, MinKeyBits)
	}
	if s < 1 {
		return nil, nil, errors.Wrap(libhcs.ErrInvalidModulus, "damgardjurik: s must be >= 1")
	}

	primeBits := bits/2 + 1
	var p, q *big.Int
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, "damgardjurik: key generation cancelled")
		}
		p = bignum.RandomPrime(r, primeBits)
		q = bignum.RandomPrime(r, primeBits)
		if p.Cmp(q) != 0 {
			break
		}
	}
	log.Debugf("generated p, q of %d bits each, s=%d", primeBits, s)

	n0 := new(big.Int).Mul(p, q)
	g := new(big.Int).Add(n0, one)

	nPowers := make([]*big.Int, s+1)
	nPowers[0] = n0
	for i := 1; i <= s; i++ {
		nPowers[i] = new(big.Int).Mul(nPowers[i-1], n0)
	}

	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	gcdPQ := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	phi := new(big.Int).Mul(pMinus1, qMinus1)
	d := new(big.Int).Div(phi, gcdPQ)

	pub := PublicKey{N: nPowers, G: g, S: s}

	mu := new(big.Int).Exp(g, d, pub.modulus())
	mu = dlogS(&pub, mu)
	if mu.ModInverse(mu, pub.plaintextModulus()) == nil {
		return nil, nil, errors.Wrap(libhcs.ErrInvalidModulus, "damgardjurik: dlog_s(g^d) has no inverse mod n^s")
	}

	priv := &PrivateKey{PublicKey: pub, D: d, Mu: mu}
	return &pub, priv, nil
}

// dlogS computes the discrete log of op (mod n^(s+1)) base g = n+1, producing
// a value mod n^s. This is the recursive procedure from the Damgard-Jurik
// paper: L(u) = (u-1)/n is applied degree by degree, each level correcting
// for the contribution of all lower-degree terms via a cached factorial
// inverse.
func dlogS(pk *PublicKey, op *big.Int) *big.Int {
	a := new(big.Int).Mod(op, pk.modulus())
	a.Sub(a, one)
	a.Div(a, pk.n(0))

	result := big.NewInt(0)
	t1 := new(big.Int)
	t2 := new(big.Int)
	t3 := new(big.Int)
	kFact := new(big.Int)

	for j := 1; j <= pk.S; j++ {
		modulus := pk.n(j - 1)
		t1.Mod(a, modulus)

		t2.Set(result)
		kFact.SetInt64(1)

		for k := 2; k <= j; k++ {
			result.Sub(result, one)
			kFact.Mul(kFact, big.NewInt(int64(k)))

			t2.Mul(t2, result)
			t2.Mod(t2, modulus)

			t3.ModInverse(kFact, modulus)
			t3.Mul(t3, t2)
			t3.Mod(t3, modulus)
			t3.Mul(t3, pk.n(k-2))
			t3.Mod(t3, modulus)

			t1.Sub(t1, t3)
			t1.Mod(t1, modulus)
		}

		result.Set(t1)
	}

	return result
}

// Encrypt returns a fresh encryption of m under pk.
func (pk *PublicKey) Encrypt(r *randsource.Source, m *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.plaintextModulus()) >= 0 {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "damgardjurik: plaintext out of range")
	}
	u := bignum.RandomInMultGroup(r, pk.n(0))
	return pk.EncryptWithR(m, u)
}

// EncryptWithR encrypts m using the caller-supplied blinding factor u.
func (pk *PublicKey) EncryptWithR(m, u *big.Int) (*big.Int, error) {
	modulus := pk.modulus()
	gm := new(big.Int).Exp(pk.G, m, modulus)
	un := new(big.Int).Exp(u, pk.n(pk.S-1), modulus)
	c := new(big.Int).Mul(gm, un)
	c.Mod(c, modulus)
	return c, nil
}

// Decrypt recovers the plaintext encrypted by c.
func (sk *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	a := new(big.Int).Exp(c, sk.D, sk.modulus())
	m := dlogS(&sk.PublicKey, a)
	m.Mul(m, sk.Mu)
	m.Mod(m, sk.plaintextModulus())
	return m, nil
}

// EPAdd returns an encryption of (the plaintext under c) + m.
func (pk *PublicKey) EPAdd(c, m *big.Int) (*big.Int, error) {
	modulus := pk.modulus()
	gm := new(big.Int).Exp(pk.G, m, modulus)
	rop := new(big.Int).Mul(c, gm)
	rop.Mod(rop, modulus)
	return rop, nil
}

// EEAdd returns an encryption of the sum of the two plaintexts under c1, c2.
func (pk *PublicKey) EEAdd(c1, c2 *big.Int) (*big.Int, error) {
	modulus := pk.modulus()
	rop := new(big.Int).Mul(c1, c2)
	rop.Mod(rop, modulus)
	return rop, nil
}

// EPMul returns an encryption of (the plaintext under c) * m.
func (pk *PublicKey) EPMul(c, m *big.Int) (*big.Int, error) {
	return new(big.Int).Exp(c, m, pk.modulus()), nil
}

// Reencrypt returns a fresh ciphertext encrypting the same plaintext as c.
func (pk *PublicKey) Reencrypt(r *randsource.Source, c *big.Int) (*big.Int, error) {
	modulus := pk.modulus()
	u := bignum.RandomInMultGroup(r, pk.n(0))
	un := new(big.Int).Exp(u, pk.n(pk.S-1), modulus)
	rop := new(big.Int).Mul(c, un)
	rop.Mod(rop, modulus)
	return rop, nil
}

// Verify checks the public key's structural invariants.
func (pk *PublicKey) Verify() error {
	if len(pk.N) != pk.S+1 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "damgardjurik: n powers slice has wrong length")
	}
	wantG := new(big.Int).Add(pk.N[0], one)
	if pk.G.Cmp(wantG) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "damgardjurik: g != n+1")
	}
	for i := 1; i <= pk.S; i++ {
		want := new(big.Int).Mul(pk.N[i-1], pk.N[0])
		if pk.N[i].Cmp(want) != 0 {
			return errors.Wrapf(libhcs.ErrInvariantViolation, "damgardjurik: n[%d] != n[%d]*n", i, i-1)
		}
	}
	return nil
}

// Destroy zeroizes every secret limb held by sk.
func (sk *PrivateKey) Destroy() {
	bignum.ZeroizeAll(sk.D, sk.Mu)
	bignum.ZeroizeAll(sk.N...)
}

// nPowers rebuilds N[0..s] = n0^1..n0^(s+1) from the base modulus.
func nPowers(n0 *big.Int, s int) []*big.Int {
	powers := make([]*big.Int, s+1)
	powers[0] = n0
	for i := 1; i <= s; i++ {
		powers[i] = new(big.Int).Mul(powers[i-1], n0)
	}
	return powers
}

// MarshalText renders pk's logical fields (n, s) as base-62 text. G and the
// higher n powers are re-derived on unmarshal rather than carried.
func (pk *PublicKey) MarshalText() ([]byte, error) {
	return bigtext.Encode(pk.N[0], big.NewInt(int64(pk.S))), nil
}

// UnmarshalText parses text produced by MarshalText, rebuilding g = n+1 and
// the n^1..n^(s+1) power table.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 2)
	if err != nil {
		return errors.Wrap(err, "damgardjurik: unmarshal public key")
	}
	n0, s := fields[0], int(fields[1].Int64())
	pk.N = nPowers(n0, s)
	pk.G = new(big.Int).Add(n0, one)
	pk.S = s
	return nil
}

// MarshalText renders sk's logical fields (d, mu, n, s) as base-62 text.
func (sk *PrivateKey) MarshalText() ([]byte, error) {
	return bigtext.Encode(sk.D, sk.Mu, sk.N[0], big.NewInt(int64(sk.S))), nil
}

// UnmarshalText parses text produced by MarshalText.
func (sk *PrivateKey) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 4)
	if err != nil {
		return errors.Wrap(err, "damgardjurik: unmarshal private key")
	}
	sk.D, sk.Mu = fields[0], fields[1]
	n0, s := fields[2], int(fields[3].Int64())
	sk.N = nPowers(n0, s)
	sk.G = new(big.Int).Add(n0, one)
	sk.S = s
	return nil
}
