// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

package threshold

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/tiehuis/libhcs"
)

// SessionState is a threshold protocol's position in its lifecycle: a
// Session is born Dealt (the dealer still holds the private key), becomes
// Ready once the dealer destroys it, accepts partial decryptions while
// Collecting, becomes Combinable once quorum is met, and ends Done or
// Failed.
type SessionState int

const (
	StateDealt SessionState = iota
	StateReady
	StateCollecting
	StateCombinable
	StateDone
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateDealt:
		return "dealt"
	case StateReady:
		return "ready"
	case StateCollecting:
		return "collecting"
	case StateCombinable:
		return "combinable"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session tracks one threshold decryption attempt: the partial shares
// collected so far for a single ciphertext, and the state machine governing
// when they may be combined.
type Session struct {
	pub    *PublicKey
	state  SessionState
	shares []*big.Int
	count  int
}

// NewSession creates a session in the Dealt state, mirroring the dealer
// still holding key material. Call Ready once shares have been distributed.
func NewSession(pub *PublicKey) *Session {
	return &Session{pub: pub, state: StateDealt, shares: make([]*big.Int, pub.L)}
}

// State returns the session's current state.
func (s *Session) State() SessionState { return s.state }

// Ready transitions Dealt -> Ready, signalling that DestroyAfterDealing has
// been called and the dealer no longer holds any secret.
func (s *Session) Ready() error {
	if s.state != StateDealt {
		return errors.Wrapf(libhcs.ErrInvalidSessionTransition, "threshold: Ready from state %s", s.state)
	}
	s.state = StateReady
	return nil
}

// AddShare records authority idx's (1-based) partial decryption, advancing
// Ready -> Collecting on the first share and Collecting -> Combinable once
// quorum is reached. It refuses shares once the session is Combinable, Done,
// or Failed.
func (s *Session) AddShare(idx int, share *big.Int) error {
	switch s.state {
	case StateReady, StateCollecting:
	default:
		return errors.Wrapf(libhcs.ErrInvalidSessionTransition, "threshold: AddShare from state %s", s.state)
	}
	if idx < 1 || idx > len(s.shares) {
		return errors.Wrapf(libhcs.ErrInvalidModulus, "threshold: authority index %d out of range", idx)
	}
	if s.shares[idx-1] == nil {
		s.count++
	}
	s.shares[idx-1] = share

	s.state = StateCollecting
	if s.count >= s.pub.W {
		s.state = StateCombinable
	}
	return nil
}

// Combine requires the session to be Combinable, runs ShareCombine over the
// collected shares, and transitions to Done on success or Failed otherwise.
func (s *Session) Combine() (*big.Int, error) {
	if s.state != StateCombinable {
		return nil, errors.Wrapf(libhcs.ErrInvalidSessionTransition, "threshold: Combine from state %s", s.state)
	}
	m, err := s.pub.ShareCombine(s.shares)
	if err != nil {
		s.state = StateFailed
		return nil, err
	}
	s.state = StateDone
	return m, nil
}
