package libhcs

import "github.com/pkg/errors"

// The error kinds every scheme in this module can return. Arithmetic
// precondition failures (non-invertibility, non-coprime moduli, a quorum
// that wasn't met) surface as one of these rather than a panic - see
// SPEC_FULL.md's error handling design for the full propagation policy.
var (
	// ErrEntropyUnavailable is the root kind for a RandomSource that could
	// not be (re)seeded because its entropy reader failed. The randsource
	// package itself reports that failure as randsource.ErrEntropyUnavailable;
	// no function in this module returns this root sentinel.
	ErrEntropyUnavailable = errors.New("libhcs: entropy source unavailable")

	// ErrInvalidKeySize is returned when a requested modulus size falls
	// below the minimum of 32 bits.
	ErrInvalidKeySize = errors.New("libhcs: requested key size is too small")

	// ErrAllocationFailed names a big-integer allocation that could not be
	// satisfied. No function in this module returns it, since math/big does
	// not report allocation failure; the kind is kept distinct so
	// collaborators using a constrained allocator can still report it
	// precisely.
	ErrAllocationFailed = errors.New("libhcs: allocation failed")

	// ErrInvalidModulus is returned when a CRT precondition is violated
	// (the two moduli are not coprime) or a modular inverse does not exist.
	ErrInvalidModulus = errors.New("libhcs: invalid modulus")

	// ErrShareCombineFailed is returned when combining threshold shares hits
	// a missing modular inverse.
	ErrShareCombineFailed = errors.New("libhcs: share combine failed")

	// ErrInvariantViolation is returned by a key's Verify method when an
	// imported or reconstructed key fails a structural check.
	ErrInvariantViolation = errors.New("libhcs: key invariant violation")

	// ErrQuorumNotMet is returned when fewer than the threshold's quorum of
	// distinct, non-zero shares were supplied to ShareCombine.
	ErrQuorumNotMet = errors.New("libhcs: quorum not met")

	// ErrInvalidProof is returned when a zero-knowledge proof fails
	// verification.
	ErrInvalidProof = errors.New("libhcs: invalid proof")

	// ErrInvalidSessionTransition is returned when a threshold decryption
	// session is driven out of order (e.g. combining before quorum, or
	// adding a share to a session that already failed).
	ErrInvalidSessionTransition = errors.New("libhcs: invalid session transition")
)
