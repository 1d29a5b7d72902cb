// Package rlp implements the subset of Recursive Length Prefix encoding
// needed to serialize unsigned legacy Ethereum transactions: byte strings
// and flat or nested lists of them.
package rlp

import (
	"math/big"
)

const (
	shortStringOffset = 0x80
	longStringOffset  = 0xb7
	shortListOffset   = 0xc0
	longListOffset    = 0xf7
	shortLimit        = 55
)

// Item is a value that can be RLP encoded.
type Item interface {
	encode() []byte
}

// Bytes is an RLP byte string.
type Bytes []byte

// List is an RLP list of items.
type List []Item

func (b Bytes) encode() []byte {
	if len(b) == 1 && b[0] < shortStringOffset {
		return []byte{b[0]}
	}
	return withPrefix(shortStringOffset, longStringOffset, b)
}

func (l List) encode() []byte {
	payload := make([]byte, 0, len(l)*8)
	for _, item := range l {
		if item == nil {
			payload = append(payload, shortStringOffset)
			continue
		}
		payload = append(payload, item.encode()...)
	}
	return withPrefix(shortListOffset, longListOffset, payload)
}

// Encode returns the RLP encoding of item.
func Encode(item Item) []byte {
	if item == nil {
		return []byte{shortStringOffset}
	}
	return item.encode()
}

// Uint returns the minimal big-endian byte string for value. Zero encodes as
// the empty string.
func Uint(value *big.Int) Bytes {
	if value == nil || value.Sign() == 0 {
		return Bytes{}
	}
	return Bytes(value.Bytes())
}

// Uint64 is Uint for a native integer.
func Uint64(value uint64) Bytes {
	return Uint(new(big.Int).SetUint64(value))
}

func withPrefix(shortOffset byte, longOffset byte, payload []byte) []byte {
	if len(payload) <= shortLimit {
		out := make([]byte, 0, len(payload)+1)
		out = append(out, shortOffset+byte(len(payload)))
		return append(out, payload...)
	}
	length := encodeLength(len(payload))
	out := make([]byte, 0, len(payload)+len(length)+1)
	out = append(out, longOffset+byte(len(length)))
	out = append(out, length...)
	return append(out, payload...)
}

func encodeLength(length int) []byte {
	var buf []byte
	for length > 0 {
		buf = append([]byte{byte(length & 0xff)}, buf...)
		length >>= 8
	}
	return buf
}
