package libhcs

import (
	"math/big"

	"github.com/tiehuis/libhcs/internal/randsource"
)

// AdditivelyHomomorphic is the capability the additive ciphers in this module
// expose: encrypt, reencrypt, and the three homomorphic combinators. The
// Paillier, Damgard-Jurik, and threshold Paillier public keys all satisfy
// this. Decryption is the separate Decryptor capability, which the threshold
// scheme does not implement - only ShareDecrypt/ShareCombine reconstruct a
// plaintext there. The El-Gamal cipher, whose ciphertexts are pairs, does not
// satisfy this interface.
//
// Ciphertexts and plaintexts both travel as *big.Int: every scheme that
// implements this represents them as elements of Z*_{n^k} for some k, so
// unifying the wire type avoids a parallel hierarchy of wrapper structs per
// scheme.
type AdditivelyHomomorphic interface {
	// Encrypt returns a fresh encryption of m, drawing its blinding factor
	// from r.
	Encrypt(r *randsource.Source, m *big.Int) (*big.Int, error)

	// EEAdd returns an encryption of the sum of the plaintexts under c1, c2.
	EEAdd(c1, c2 *big.Int) (*big.Int, error)

	// EPAdd returns an encryption of (plaintext under c) + m.
	EPAdd(c, m *big.Int) (*big.Int, error)

	// EPMul returns an encryption of (plaintext under c) * m.
	EPMul(c, m *big.Int) (*big.Int, error)

	// Reencrypt returns a fresh ciphertext encrypting the same plaintext as
	// c, unlinkable to it under CPA.
	Reencrypt(r *randsource.Source, c *big.Int) (*big.Int, error)
}

// Decryptor is implemented by any private key capable of single-party
// decryption.
type Decryptor interface {
	Decrypt(c *big.Int) (*big.Int, error)
}

// Threshold is the capability a w-of-l scheme's public key exposes on top of
// AdditivelyHomomorphic: combining partial decryptions contributed by a
// quorum of authorities into a plaintext.
type Threshold interface {
	AdditivelyHomomorphic

	// ShareCombine reconstructs the plaintext from a sparse slice of partial
	// decryptions, one slot per authority index, nil where a share is
	// absent.
	ShareCombine(shares []*big.Int) (*big.Int, error)
}
