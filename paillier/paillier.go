// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

// Package paillier implements the single-party Paillier cryptosystem: an
// additively homomorphic public-key scheme over Z_n with ciphertexts living
// in Z*_n2.
//
// Given two ciphertexts, one can:
//
//   - add the encrypted plaintexts together (EEAdd)
//   - add a known plaintext to an encrypted one (EPAdd)
//   - multiply an encrypted plaintext by a known scalar (EPMul)
//
// Decryption uses the CRT optimization: the Carmichael exponent is applied
// separately modulo p^2 and modulo q^2, and the two residues are recombined,
// which is substantially cheaper than exponentiating modulo the full n^2 for
// large keys.
package paillier

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

var log = logging.Logger("paillier")

// MinKeyBits is the minimum modulus size GenerateKeyPair will accept.
const MinKeyBits = 32

var one = big.NewInt(1)

// PublicKey holds the values needed to encrypt and homomorphically combine
// ciphertexts: the modulus n, the generator g = n+1, and n^2.
type PublicKey struct {
	N  *big.Int
	G  *big.Int
	N2 *big.Int
}

// PrivateKey holds everything needed to decrypt, including the CRT
// components hp, hq that let Decrypt avoid a full-width exponentiation mod
// n^2.
type PrivateKey struct {
	PublicKey

	P, Q   *big.Int
	P2, Q2 *big.Int
	Lambda *big.Int
	Mu     *big.Int
	Hp, Hq *big.Int
}

// GenerateKeyPair draws two primes of ceil(bits/2)+1 bits each and derives
// the public/private key pair described in the package doc. ctx may cancel
// an in-progress prime search.
func GenerateKeyPair(ctx context.Context, r *randsource.Source, bits int) (*PublicKey, *PrivateKey, error) {
	if bits < MinKeyBits {
		return nil, nil, errors.Wrapf(libhcs.ErrInvalidKeySize, "requested %d bits, minimum is %d", bits, MinKeyBits)
	}

	primeBits := (bits+1)/2 + 1
	var p, q *big.Int
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, "paillier: key generation cancelled")
		}
		p = bignum.RandomPrime(r, primeBits)
		q = bignum.RandomPrime(r, primeBits)
		if p.Cmp(q) != 0 {
			break
		}
	}
	log.Debugf("generated p, q of %d bits each", primeBits)

	n := new(big.Int).Mul(p, q)
	n2 := new(big.Int).Mul(n, n)
	p2 := new(big.Int).Mul(p, p)
	q2 := new(big.Int).Mul(q, q)
	g := new(big.Int).Add(n, one)

	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	gcdPQ := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	phi := new(big.Int).Mul(pMinus1, qMinus1)
	lambda := new(big.Int).Div(phi, gcdPQ)

	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, nil, errors.Wrap(libhcs.ErrInvalidModulus, "paillier: lambda has no inverse mod n")
	}

	hp, err := computeH(g, p, p2)
	if err != nil {
		return nil, nil, err
	}
	hq, err := computeH(g, q, q2)
	if err != nil {
		return nil, nil, err
	}

	pub := PublicKey{N: n, G: g, N2: n2}
	priv := &PrivateKey{
		PublicKey: pub,
		P:         p, Q: q,
		P2: p2, Q2: q2,
		Lambda: lambda, Mu: mu,
		Hp: hp, Hq: hq,
	}
	return &pub, priv, nil
}

// computeH implements hp = L_p(g^(p-1) mod p^2)^-1 mod p (and analogously
// for q), per the CRT decryption optimization.
func computeH(g, prime, prime2 *big.Int) (*big.Int, error) {
	u := new(big.Int).Exp(g, new(big.Int).Sub(prime, one), prime2)
	l := lFunction(u, prime)
	h := new(big.Int).ModInverse(l, prime)
	if h == nil {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "paillier: L(g^(p-1) mod p^2) has no inverse mod p")
	}
	return h, nil
}

// lFunction computes L(u) = (u-1)/n, the standard Paillier L map.
func lFunction(u, n *big.Int) *big.Int {
	t := new(big.Int).Sub(u, one)
	return new(big.Int).Div(t, n)
}

// Encrypt returns a fresh encryption of m under pk, drawing its blinding
// factor from r.
func (pk *PublicKey) Encrypt(r *randsource.Source, m *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "paillier: plaintext out of range")
	}
	u := bignum.RandomInMultGroup(r, pk.N)
	return pk.EncryptWithR(m, u)
}

// EncryptWithR encrypts m using the caller-supplied blinding factor u
// instead of a fresh random draw. It exists for protocols (such as the
// threshold package's zero-knowledge proofs) that must fix u to a witness
// value; ordinary callers should use Encrypt.
func (pk *PublicKey) EncryptWithR(m, u *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "paillier: plaintext out of range")
	}
	gm := new(big.Int).Exp(pk.G, m, pk.N2)
	un := new(big.Int).Exp(u, pk.N, pk.N2)
	c := new(big.Int).Mul(gm, un)
	c.Mod(c, pk.N2)
	return c, nil
}

// Decrypt recovers the plaintext encrypted by c, using the CRT shortcut
// described in the package doc.
func (sk *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	if c.Sign() < 0 || c.Cmp(sk.N2) >= 0 {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "paillier: ciphertext out of range")
	}

	if sk.P == nil || sk.Q == nil {
		// A key rehydrated from UnmarshalText carries only {lambda, mu, n};
		// the CRT speedup factors aren't part of that logical serialization,
		// so decrypt directly: m = L(c^lambda mod n^2) * mu mod n.
		u := new(big.Int).Exp(c, sk.Lambda, sk.N2)
		m := new(big.Int).Mul(lFunction(u, sk.N), sk.Mu)
		m.Mod(m, sk.N)
		return m, nil
	}

	cp := new(big.Int).Exp(c, new(big.Int).Sub(sk.P, one), sk.P2)
	xp := new(big.Int).Mul(lFunction(cp, sk.P), sk.Hp)
	xp.Mod(xp, sk.P)

	cq := new(big.Int).Exp(c, new(big.Int).Sub(sk.Q, one), sk.Q2)
	xq := new(big.Int).Mul(lFunction(cq, sk.Q), sk.Hq)
	xq.Mod(xq, sk.Q)

	m, err := bignum.CRT2(xp, sk.P, xq, sk.Q)
	if err != nil {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "paillier: decrypt CRT combine: p, q not coprime")
	}
	m.Mod(m, sk.N)
	return m, nil
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

// Reencrypt returns a fresh ciphertext encrypting the same plaintext as c,
// unlinkable to it under CPA.
func (pk *PublicKey) Reencrypt(r *randsource.Source, c *big.Int) (*big.Int, error) {
	u := bignum.RandomInMultGroup(r, pk.N)
	un := new(big.Int).Exp(u, pk.N, pk.N2)
	rop := new(big.Int).Mul(c, un)
	rop.Mod(rop, pk.N2)
	return rop, nil
}

// Verify checks the public key's structural invariants: g = n+1 and
// n2 = n*n.
func (pk *PublicKey) Verify() error {
	wantG := new(big.Int).Add(pk.N, one)
	if pk.G.Cmp(wantG) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "paillier: g != n+1")
	}
	wantN2 := new(big.Int).Mul(pk.N, pk.N)
	if pk.N2.Cmp(wantN2) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "paillier: n2 != n*n")
	}
	return nil
}

// Verify checks the private key's structural invariants: n2 = n*n and
// mu = lambda^-1 mod n.
func (sk *PrivateKey) Verify() error {
	wantN2 := new(big.Int).Mul(sk.N, sk.N)
	if sk.N2.Cmp(wantN2) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "paillier: n2 != n*n")
	}
	wantMu := new(big.Int).ModInverse(sk.Lambda, sk.N)
	if wantMu == nil || sk.Mu.Cmp(wantMu) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "paillier: mu != lambda^-1 mod n")
	}
	return nil
}

// VerifyKeyPair checks that pk and sk individually verify and share the
// same modulus.
func VerifyKeyPair(pk *PublicKey, sk *PrivateKey) error {
	if err := pk.Verify(); err != nil {
		return err
	}
	if err := sk.Verify(); err != nil {
		return err
	}
	if pk.N.Cmp(sk.N) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "paillier: public and private key moduli differ")
	}
	return nil
}

// Destroy zeroizes every secret limb held by sk. Callers that generated a
// PrivateKey are responsible for calling Destroy once it is no longer
// needed.
func (sk *PrivateKey) Destroy() {
	bignum.ZeroizeAll(sk.P, sk.Q, sk.P2, sk.Q2, sk.Lambda, sk.Mu, sk.Hp, sk.Hq)
}

// MarshalText renders pk's logical field (n) as base-62 text. g and n2 are
// re-derived on unmarshal rather than carried, since they're fully
// determined by n.
func (pk *PublicKey) MarshalText() ([]byte, error) {
	return bigtext.Encode(pk.N), nil
}

// UnmarshalText parses text produced by MarshalText, rebuilding g = n+1 and
// n2 = n*n.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 1)
	if err != nil {
		return errors.Wrap(err, "paillier: unmarshal public key")
	}
	pk.N = fields[0]
	pk.G = new(big.Int).Add(pk.N, one)
	pk.N2 = new(big.Int).Mul(pk.N, pk.N)
	return nil
}

// MarshalText renders sk's logical fields (lambda, mu, n) as base-62 text.
// The CRT speedup factors (p, q, p2, q2, hp, hq) are not part of the
// logical key and are dropped; Decrypt falls back to the direct (slower)
// formula when they're absent.
func (sk *PrivateKey) MarshalText() ([]byte, error) {
	return bigtext.Encode(sk.Lambda, sk.Mu, sk.N), nil
}

// UnmarshalText parses text produced by MarshalText. The returned key
// decrypts correctly but without the CRT speedup, since p, q are not
// recoverable from lambda, mu, n alone.
func (sk *PrivateKey) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 3)
	if err != nil {
		return errors.Wrap(err, "paillier: unmarshal private key")
	}
	sk.Lambda, sk.Mu, sk.N = fields[0], fields[1], fields[2]
	sk.G = new(big.Int).Add(sk.N, one)
	sk.N2 = new(big.Int).Mul(sk.N, sk.N)
	return nil
}
