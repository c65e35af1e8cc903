// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// maxEntries bounds the number of pairs in any decoded map. A state
// file holds one pair per stored key; anything near this is corrupt.
const maxEntries = 1 << 16

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Decoded state values come out as map[string]any, matching
		// what encoding/json would produce for the same value.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),

		// A state file is only ever written by Marshal, so duplicate
		// keys or unknown fields mean tampering or a layout newer
		// than this binary.
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxMapPairs:       maxEntries,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v with Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v. Trailing bytes after the first item
// are an error.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Describe renders data in CBOR diagnostic notation for error messages
// and debugging output. Undecodable input is described by the decode
// error instead.
func Describe(data []byte) string {
	notation, err := cbor.Diagnose(data)
	if err != nil {
		return fmt.Sprintf("<invalid CBOR: %v>", err)
	}
	return notation
}
