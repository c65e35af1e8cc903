// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package flag generates and verifies CTF flags in the runner's
// format, so that checkers running locally (without a runner to ask
// over the control channel) see flags shaped exactly like real ones.
//
// A flag is "FAUST_" followed by the standard base64 encoding of 24
// bytes:
//
//	tick     int32, big-endian
//	team     uint16, big-endian
//	service  uint8
//	payload  8 bytes: caller payload, or CRC32 of the preceding
//	         7 bytes followed by 4 zero bytes when none was given
//	mac      first 9 bytes of SHA3-256(secret || preceding 15 bytes)
package flag
