// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

// Package libhcs implements additively homomorphic public-key encryption
// over large integers - the Paillier and Damgard-Jurik cryptosystems - and a
// threshold-decryption variant of Paillier in which the private key is
// split among a set of authorities via a Shamir-style polynomial and a
// quorum of them must cooperate to recover a plaintext. A secondary
// multiplicative El-Gamal cipher is included for completeness.
//
// The package is a from-scratch Go port of the scheme implemented in
// https://github.com/tiehuis/libhcs (C), generalized to the Damgard-Jurik
// family and re-shaped around Go idioms: explicit error returns in place of
// asserts, an owned RandomSource rather than a hidden global PRNG, and a
// small set of capability interfaces (AdditivelyHomomorphic, Decryptor,
// Threshold) that
// let callers write generic code over whichever scheme they picked.
//
// Subpackages:
//
//   - paillier: the single-party Paillier cryptosystem (PCS).
//   - damgardjurik: the Damgard-Jurik generalization over n^(s+1) (DJCS).
//   - threshold: w-of-l threshold Paillier decryption (PCS_T), including the
//     n^s zero-knowledge proof subsystem.
//   - elgamal: the secondary multiplicative El-Gamal cipher (EGCS).
//   - internal/bignum: shared number-theoretic helpers (primes, CRT, zeroize).
//   - internal/randsource: the deterministic, entropy-seeded PRNG every
//     scheme draws from.
package libhcs
