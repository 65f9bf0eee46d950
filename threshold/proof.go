// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

package threshold

import (
	"crypto/sha512"
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/tiehuis/libhcs"
	"github.com/tiehuis/libhcs/internal/bignum"
	"github.com/tiehuis/libhcs/internal/randsource"
)

// challengeBits is the number of bits a Fiat-Shamir challenge is drawn from.
// It replaces the fixed hard-coded challenge constants an earlier draft of
// this protocol used with a transcript-bound hash, per a SHA-512/256 digest.
const challengeBits = 256

var zero = big.NewInt(0)

// Proof is a non-interactive Sigma-protocol proof that the prover knows r
// such that u = r^n mod n2, i.e. that u is an encryption of 0 (an n-th power
// residue in Z*_n2).
type Proof struct {
	A *big.Int
	E *big.Int
	Z *big.Int
}

// challenge hashes a length-prefixed transcript of its parts with
// SHA-512/256 and interprets the digest as a challengeBits-bit integer.
func challenge(parts ...[]byte) *big.Int {
	h := sha512.New512_256()
	var lenBuf [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}
	sum := h.Sum(nil)
	return new(big.Int).SetBytes(sum)
}

func coprime(a, n *big.Int) bool {
	reduced := new(big.Int).Mod(a, n)
	if reduced.Sign() == 0 {
		return false
	}
	g := new(big.Int).GCD(nil, nil, reduced, n)
	return g.Cmp(one) == 0
}

// Prove constructs a non-interactive proof that witness is an n-th root of
// u modulo n2, i.e. that u = EncryptWithR(0, witness).
func Prove(pk *PublicKey, r *randsource.Source, witness, u *big.Int, proverID string) (*Proof, error) {
	rPrime := bignum.RandomInMultGroup(r, pk.N)
	a, err := pk.EncryptWithR(zero, rPrime)
	if err != nil {
		return nil, err
	}

	e := challenge(a.Bytes(), u.Bytes(), pk.N.Bytes(), []byte(proverID))

	z := new(big.Int).Exp(witness, e, pk.N)
	z.Mul(z, rPrime)
	z.Mod(z, pk.N)

	return &Proof{A: a, E: e, Z: z}, nil
}

// Verify checks a Proof produced by Prove against the statement u.
func Verify(pk *PublicKey, proof *Proof, u *big.Int, proverID string) error {
	if !coprime(u, pk.N) || !coprime(proof.A, pk.N) || !coprime(proof.Z, pk.N) {
		return errors.Wrap(libhcs.ErrInvalidProof, "threshold: proof component not coprime to n")
	}

	want := challenge(proof.A.Bytes(), u.Bytes(), pk.N.Bytes(), []byte(proverID))
	if want.Cmp(proof.E) != 0 {
		return errors.Wrap(libhcs.ErrInvalidProof, "threshold: challenge does not match transcript")
	}

	lhs, err := pk.EncryptWithR(zero, proof.Z)
	if err != nil {
		return err
	}
	ue := new(big.Int).Exp(u, proof.E, pk.N2)
	rhs := new(big.Int).Mul(ue, proof.A)
	rhs.Mod(rhs, pk.N2)

	if lhs.Cmp(rhs) != 0 {
		return errors.Wrap(libhcs.ErrInvalidProof, "threshold: proof verification equation does not hold")
	}
	return nil
}

// Proof2 is a non-interactive "1-of-2" disjunctive proof that u encrypts
// either m1 or m2, without revealing which. It is built from two parallel
// copies of the Proof Sigma-protocol - one genuine, one simulated - that
// share a single challenge e = e1 XOR e2.
type Proof2 struct {
	E1, E2 *big.Int
	U1, U2 *big.Int
	A1, A2 *big.Int
	Z1, Z2 *big.Int
	M1, M2 *big.Int
}

func subjectFor(pk *PublicKey, u, m *big.Int) (*big.Int, error) {
	gm := new(big.Int).Exp(pk.G, m, pk.N2)
	inv := new(big.Int).ModInverse(gm, pk.N2)
	if inv == nil {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "threshold: g^m has no inverse mod n2")
	}
	v := new(big.Int).Mul(u, inv)
	v.Mod(v, pk.N2)
	return v, nil
}

// Prove2 constructs a 1-of-2 proof that u encrypts m1 or m2. trueIndex (1 or
// 2) selects which statement is actually true, and witness is the blinding
// factor r such that u = EncryptWithR(m_trueIndex, witness).
func Prove2(pk *PublicKey, r *randsource.Source, u, witness *big.Int, trueIndex int, m1, m2 *big.Int, proverID string) (*Proof2, error) {
	if trueIndex != 1 && trueIndex != 2 {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "threshold: trueIndex must be 1 or 2")
	}

	v1, err := subjectFor(pk, u, m1)
	if err != nil {
		return nil, err
	}
	v2, err := subjectFor(pk, u, m2)
	if err != nil {
		return nil, err
	}
	vOther := v2
	if trueIndex == 2 {
		vOther = v1
	}

	rPrime := bignum.RandomInMultGroup(r, pk.N)
	aTrue, err := pk.EncryptWithR(zero, rPrime)
	if err != nil {
		return nil, err
	}

	bound := new(big.Int).Lsh(one, challengeBits)
	eOther := r.BigInt(bound)
	zOther := bignum.RandomInMultGroup(r, pk.N)

	encZOther, err := pk.EncryptWithR(zero, zOther)
	if err != nil {
		return nil, err
	}
	vOtherExp := new(big.Int).Exp(vOther, eOther, pk.N2)
	vOtherInv := new(big.Int).ModInverse(vOtherExp, pk.N2)
	if vOtherInv == nil {
		return nil, errors.Wrap(libhcs.ErrInvalidModulus, "threshold: simulated branch subject has no inverse mod n2")
	}
	aOther := new(big.Int).Mul(encZOther, vOtherInv)
	aOther.Mod(aOther, pk.N2)

	var a1, a2 *big.Int
	if trueIndex == 1 {
		a1, a2 = aTrue, aOther
	} else {
		a1, a2 = aOther, aTrue
	}

	e := challenge(a1.Bytes(), a2.Bytes(), u.Bytes(), m1.Bytes(), m2.Bytes(), pk.N.Bytes(), []byte(proverID))
	eTrue := new(big.Int).Xor(e, eOther)

	zTrue := new(big.Int).Exp(witness, eTrue, pk.N)
	zTrue.Mul(zTrue, rPrime)
	zTrue.Mod(zTrue, pk.N)

	proof := &Proof2{U1: v1, U2: v2, A1: a1, A2: a2, M1: m1, M2: m2}
	if trueIndex == 1 {
		proof.E1, proof.Z1 = eTrue, zTrue
		proof.E2, proof.Z2 = eOther, zOther
	} else {
		proof.E2, proof.Z2 = eTrue, zTrue
		proof.E1, proof.Z1 = eOther, zOther
	}
	return proof, nil
}

// Verify2 checks a Proof2 produced by Prove2 against the statement u.
func Verify2(pk *PublicKey, proof *Proof2, u *big.Int, proverID string) error {
	wantV1, err := subjectFor(pk, u, proof.M1)
	if err != nil {
		return err
	}
	wantV2, err := subjectFor(pk, u, proof.M2)
	if err != nil {
		return err
	}
	if proof.U1.Cmp(wantV1) != 0 || proof.U2.Cmp(wantV2) != 0 {
		return errors.Wrap(libhcs.ErrInvalidProof, "threshold: proof subject does not match claimed plaintexts")
	}

	for _, x := range []*big.Int{u, proof.A1, proof.A2, proof.Z1, proof.Z2} {
		if !coprime(x, pk.N) {
			return errors.Wrap(libhcs.ErrInvalidProof, "threshold: proof component not coprime to n")
		}
	}

	want := challenge(proof.A1.Bytes(), proof.A2.Bytes(), u.Bytes(), proof.M1.Bytes(), proof.M2.Bytes(), pk.N.Bytes(), []byte(proverID))
	eXor := new(big.Int).Xor(proof.E1, proof.E2)
	if eXor.Cmp(want) != 0 {
		return errors.Wrap(libhcs.ErrInvalidProof, "threshold: challenge does not match transcript")
	}

	if err := verify2Branch(pk, proof.U1, proof.A1, proof.E1, proof.Z1); err != nil {
		return err
	}
	return verify2Branch(pk, proof.U2, proof.A2, proof.E2, proof.Z2)
}

func verify2Branch(pk *PublicKey, v, a, e, z *big.Int) error {
	lhs, err := pk.EncryptWithR(zero, z)
	if err != nil {
		return err
	}
	ve := new(big.Int).Exp(v, e, pk.N2)
	rhs := new(big.Int).Mul(ve, a)
	rhs.Mod(rhs, pk.N2)
	if lhs.Cmp(rhs) != 0 {
		return errors.Wrap(libhcs.ErrInvalidProof, "threshold: branch verification equation does not hold")
	}
	return nil
}
