// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flag

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Prefix starts every flag.
const Prefix = "FAUST_"

// PayloadSize is the only accepted length of a non-empty payload.
const PayloadSize = 8

// MaxTick is the largest tick a flag can carry.
const MaxTick = math.MaxInt32

const (
	headerSize = 4 + 2 + 1
	dataSize   = headerSize + PayloadSize
	macSize    = 9
	flagSize   = dataSize + macSize
)

var (
	// ErrMalformed is returned by Verify for input that is not a flag
	// at all: wrong prefix, bad base64, wrong length.
	ErrMalformed = errors.New("flag: malformed flag")

	// ErrBadMAC is returned by Verify for a well-formed flag whose MAC
	// does not match the secret.
	ErrBadMAC = errors.New("flag: MAC mismatch")
)

// Info is the content bound into a flag.
type Info struct {
	Tick    int32
	Team    uint16
	Service uint8

	// Payload is empty or exactly PayloadSize bytes.
	Payload []byte
}

// WireTick converts an unsigned control-channel tick to the tick
// carried in a flag.
func WireTick(tick uint32) (int32, error) {
	if tick > MaxTick {
		return 0, fmt.Errorf("flag: tick %d exceeds %d", tick, MaxTick)
	}
	return int32(tick), nil
}

// Generate builds the flag for info, authenticated with secret.
func Generate(info Info, secret []byte) (string, error) {
	if len(info.Payload) != 0 && len(info.Payload) != PayloadSize {
		return "", fmt.Errorf("flag: payload must be empty or %d bytes, got %d", PayloadSize, len(info.Payload))
	}

	data := make([]byte, headerSize, flagSize)
	binary.BigEndian.PutUint32(data[0:4], uint32(info.Tick))
	binary.BigEndian.PutUint16(data[4:6], info.Team)
	data[6] = info.Service
	if len(info.Payload) == 0 {
		data = append(data, defaultPayload(data)...)
	} else {
		data = append(data, info.Payload...)
	}

	data = append(data, mac(secret, data)...)
	return Prefix + base64.StdEncoding.EncodeToString(data), nil
}

// Verify checks flag against secret and returns its content. A flag
// generated without a payload comes back with an empty Payload.
func Verify(flag string, secret []byte) (Info, error) {
	encoded, ok := strings.CutPrefix(flag, Prefix)
	if !ok {
		return Info{}, fmt.Errorf("%w: missing %q prefix", ErrMalformed, Prefix)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) != flagSize {
		return Info{}, fmt.Errorf("%w: decoded length %d, want %d", ErrMalformed, len(raw), flagSize)
	}

	data, got := raw[:dataSize], raw[dataSize:]
	if subtle.ConstantTimeCompare(got, mac(secret, data)) != 1 {
		return Info{}, ErrBadMAC
	}

	info := Info{
		Tick:    int32(binary.BigEndian.Uint32(data[0:4])),
		Team:    binary.BigEndian.Uint16(data[4:6]),
		Service: data[6],
	}
	payload := data[headerSize:]
	if !bytes.Equal(payload, defaultPayload(data[:headerSize])) {
		info.Payload = append([]byte(nil), payload...)
	}
	return info, nil
}

func defaultPayload(header []byte) []byte {
	payload := make([]byte, PayloadSize)
	binary.BigEndian.PutUint32(payload[0:4], crc32.ChecksumIEEE(header))
	return payload
}

func mac(secret, data []byte) []byte {
	digest := sha3.New256()
	digest.Write(secret)
	digest.Write(data)
	return digest.Sum(nil)[:macSize]
}
