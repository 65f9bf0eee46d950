// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

// Package bigtext implements the shared MarshalText/UnmarshalText codec
// every key type in this module uses to round-trip its logical fields: a
// fixed-order list of big.Int values rendered in base 62 and joined with a
// colon, so a collaborator wiring encoding/json gets a working
// encoding.TextMarshaler/TextUnmarshaler for free without this module
// itself taking on a JSON or protobuf dependency.
package bigtext

import (
	"bytes"
	"math/big"

	"github.com/pkg/errors"

	"github.com/tiehuis/libhcs"
)

// base is big.Int's widest native text radix: digits, then lower-case,
// then upper-case letters, giving the most compact text form math/big can
// produce without a custom alphabet.
const base = 62

const separator = ':'

// Encode renders fields as colon-separated base-62 text, in order.
func Encode(fields ...*big.Int) []byte {
	parts := make([][]byte, len(fields))
	for i, f := range fields {
		parts[i] = []byte(f.Text(base))
	}
	return bytes.Join(parts, []byte{separator})
}

// Decode parses text into exactly want big.Int fields, in order. It fails
// with ErrInvariantViolation if the field count or any field's syntax
// doesn't match what Encode would have produced.
func Decode(text []byte, want int) ([]*big.Int, error) {
	parts := bytes.Split(text, []byte{separator})
	if len(parts) != want {
		return nil, errors.Wrapf(libhcs.ErrInvariantViolation,
			"bigtext: expected %d fields, got %d", want, len(parts))
	}

	out := make([]*big.Int, want)
	for i, p := range parts {
		v, ok := new(big.Int).SetString(string(p), base)
		if !ok {
			return nil, errors.Wrapf(libhcs.ErrInvariantViolation,
				"bigtext: field %d is not valid base-%d text", i, base)
		}
		out[i] = v
	}
	return out, nil
}
