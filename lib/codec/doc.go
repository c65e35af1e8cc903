// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for checker state
// kept on local disk.
//
// The control channel itself is JSON (one document per line, as the
// runner expects). CBOR is used only where the checker library owns
// both ends of the format: the state file written by local-mode runs,
// where no runner is present to persist STORE requests.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items, so
// the same state always produces the same file bytes. The decoder is
// strict: duplicate map keys and fields unknown to the target struct
// are errors.
//
//	data, err := codec.Marshal(state)
//	err = codec.Unmarshal(data, &state)
package codec
