// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

// Package elgamal implements the multiplicatively homomorphic El-Gamal
// cipher over the order-Q subgroup of Z*_P generated by G, where P = 2Q+1 is
// a safe prime. It is this module's secondary scheme, included alongside the
// additive Paillier family as a multiplicative counterpart. Its ciphertexts
// are (C1, C2) pairs, so it does not implement the *big.Int-based capability
// interfaces in capability.go.
package elgamal

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

var log = logging.Logger("elgamal")

// MinKeyBits is the minimum modulus size GenerateKeyPair will accept.
const MinKeyBits = 32

var one = big.NewInt(1)

// PublicKey holds the group parameters (P, G, Q) and the public value
// Y = G^X mod P.
type PublicKey struct {
	P, G, Q *big.Int
	Y       *big.Int
}

// PrivateKey additionally holds the secret exponent X.
type PrivateKey struct {
	PublicKey
	X *big.Int
}

// Ciphertext is an El-Gamal pair (C1, C2) = (G^r mod P, Y^r * m mod P).
type Ciphertext struct {
	C1, C2 *big.Int
}

// GenerateKeyPair draws a safe prime P = 2Q+1, a generator G of the
// order-Q subgroup, and a secret exponent X in [1, Q-1].
func GenerateKeyPair(ctx context.Context, r *randsource.Source, bits int) (*PublicKey, *PrivateKey, error) {
	if bits < MinKeyBits {
		return nil, nil, errors.Wrapf(libhcs.ErrInvalidKeySize, "requested %d bits, minimum is %d", bits, MinKeyBits)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "elgamal: key generation cancelled")
	}

	p, q := bignum.RandomSafePrime(r, bits)
	g := bignum.RandomQuadraticResidueGenerator(r, p)
	log.Debugf("generated safe prime p of %d bits", bits)

	qMinus1 := new(big.Int).Sub(q, one)
	x := new(big.Int).Add(r.BigInt(qMinus1), one)

	y := new(big.Int).Exp(g, x, p)

	pub := PublicKey{P: p, G: g, Q: q, Y: y}
	priv := &PrivateKey{PublicKey: pub, X: x}
	return &pub, priv, nil
}

// Encrypt returns a fresh encryption of m, which must lie in [1, P-1].
func (pk *PublicKey) Encrypt(r *randsource.Source, m *big.Int) (*Ciphertext, error) {
	if m.Sign() <= 0 || m.Cmp(pk.P) >= 0 {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "elgamal: plaintext out of range")
	}
	qMinus1 := new(big.Int).Sub(pk.Q, one)
	exp := new(big.Int).Add(r.BigInt(qMinus1), one)
	return pk.EncryptWithR(m, exp)
}

// EncryptWithR encrypts m using the caller-supplied exponent exp.
func (pk *PublicKey) EncryptWithR(m, exp *big.Int) (*Ciphertext, error) {
	c1 := new(big.Int).Exp(pk.G, exp, pk.P)
	c2 := new(big.Int).Exp(pk.Y, exp, pk.P)
	c2.Mul(c2, m)
	c2.Mod(c2, pk.P)
	return &Ciphertext{C1: c1, C2: c2}, nil
}

// Decrypt recovers the plaintext encrypted by c.
func (sk *PrivateKey) Decrypt(c *Ciphertext) (*big.Int, error) {
	s := new(big.Int).Exp(c.C1, sk.X, sk.P)
	inv := new(big.Int).ModInverse(s, sk.P)
	if inv == nil {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "elgamal: shared secret has no inverse mod p")
	}
	m := new(big.Int).Mul(c.C2, inv)
	m.Mod(m, sk.P)
	return m, nil
}

// EEMul returns an encryption of the product of the two plaintexts under
// c1, c2: component-wise multiplication of the ciphertext pairs.
func (pk *PublicKey) EEMul(c1, c2 *Ciphertext) (*Ciphertext, error) {
	rop := &Ciphertext{
		C1: new(big.Int).Mul(c1.C1, c2.C1),
		C2: new(big.Int).Mul(c1.C2, c2.C2),
	}
	rop.C1.Mod(rop.C1, pk.P)
	rop.C2.Mod(rop.C2, pk.P)
	return rop, nil
}

// Reencrypt returns a fresh ciphertext encrypting the same plaintext as c,
// by multiplying in an encryption of 1 under a fresh exponent.
func (pk *PublicKey) Reencrypt(r *randsource.Source, c *Ciphertext) (*Ciphertext, error) {
	blank, err := pk.Encrypt(r, one)
	if err != nil {
		return nil, err
	}
	return pk.EEMul(c, blank)
}

// Verify checks the public key's structural invariants: P = 2Q+1 and P is
// prime. VerifyKeyPair additionally checks Y against the private key.
func (pk *PublicKey) Verify() error {
	wantP := new(big.Int).Lsh(pk.Q, 1)
	wantP.Add(wantP, one)
	if pk.P.Cmp(wantP) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "elgamal: p != 2q+1")
	}
	if !pk.P.ProbablyPrime(bignum.MillerRabinRounds) {
		return errors.Wrap(libhcs.ErrInvariantViolation, "elgamal: p is not prime")
	}
	return nil
}

// VerifyKeyPair additionally checks that Y = G^X mod P.
func VerifyKeyPair(pk *PublicKey, sk *PrivateKey) error {
	if err := pk.Verify(); err != nil {
		return err
	}
	want := new(big.Int).Exp(pk.G, sk.X, pk.P)
	if pk.Y.Cmp(want) != 0 {
		return errors.Wrap(libhcs.ErrInvariantViolation, "elgamal: y != g^x mod p")
	}
	return nil
}

// Destroy zeroizes the secret exponent.
func (sk *PrivateKey) Destroy() {
	bignum.ZeroizeAll(sk.X)
}

// MarshalText renders pk's logical fields (p, g, y) as base-62 text. Q is
// fully determined by p and is re-derived on unmarshal rather than carried.
func (pk *PublicKey) MarshalText() ([]byte, error) {
	return bigtext.Encode(pk.P, pk.G, pk.Y), nil
}

// UnmarshalText parses text produced by MarshalText, rebuilding
// q = (p-1)/2.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 3)
	if err != nil {
		return errors.Wrap(err, "elgamal: unmarshal public key")
	}
	pk.P, pk.G, pk.Y = fields[0], fields[1], fields[2]
	pk.Q = new(big.Int).Sub(pk.P, one)
	pk.Q.Rsh(pk.Q, 1)
	return nil
}

// MarshalText renders sk's logical fields (p, g, y, x) as base-62 text.
func (sk *PrivateKey) MarshalText() ([]byte, error) {
	return bigtext.Encode(sk.P, sk.G, sk.Y, sk.X), nil
}

// UnmarshalText parses text produced by MarshalText.
func (sk *PrivateKey) UnmarshalText(text []byte) error {
	fields, err := bigtext.Decode(text, 4)
	if err != nil {
		return errors.Wrap(err, "elgamal: unmarshal private key")
	}
	sk.P, sk.G, sk.Y, sk.X = fields[0], fields[1], fields[2], fields[3]
	sk.Q = new(big.Int).Sub(sk.P, one)
	sk.Q.Rsh(sk.Q, 1)
	return nil
}
