package wire

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

// Varint encoding/decoding errors
var (
	ErrMalformedVarint = errors.New("malformed varint")
	ErrVarintTruncated = errors.New("unexpected end of input while reading varint")
)

// MaxVarintLen is the longest encoding of a 64-bit vint64.
const MaxVarintLen = 9

// vint64 stores the encoded length in unary in the low bits of the first
// byte: a length of L bytes sets bit L-1 and clears the bits below it. The
// value occupies the remaining 8L-L bits, little-endian. Values that need
// more than 56 bits use a zero prefix byte followed by the raw 8 bytes.

// ENCODER FUNCTIONS

// PutVarint encodes v into dst and returns the number of bytes written.
// dst must have room for VarintSize(v) bytes.
func PutVarint(dst []byte, v uint64) int {
	n := VarintSize(v)
	if n == MaxVarintLen {
		dst[0] = 0
		binary.LittleEndian.PutUint64(dst[1:9], v)
		return n
	}

	encoded := (v<<1 | 1) << (n - 1)
	for i := 0; i < n; i++ {
		dst[i] = byte(encoded >> (8 * i))
	}
	return n
}

// AppendVarint appends the encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	var buf [MaxVarintLen]byte
	n := PutVarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// DECODER FUNCTIONS

// ConsumeVarint decodes a vint64 from the front of src, returning the value
// and the number of bytes it occupied.
func ConsumeVarint(src []byte) (uint64, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrVarintTruncated
	}

	prefix := src[0]
	if prefix == 0 {
		if len(src) < MaxVarintLen {
			return 0, 0, ErrVarintTruncated
		}
		v := binary.LittleEndian.Uint64(src[1:9])
		if v < 1<<56 {
			return 0, 0, ErrMalformedVarint
		}
		return v, MaxVarintLen, nil
	}

	n := bits.TrailingZeros8(prefix) + 1
	if len(src) < n {
		return 0, 0, ErrVarintTruncated
	}

	var raw uint64
	for i := n - 1; i >= 0; i-- {
		raw = raw<<8 | uint64(src[i])
	}
	v := raw >> n

	// Each length has exactly one valid encoding for a given value.
	if n > 1 && v < 1<<(7*(n-1)) {
		return 0, 0, ErrMalformedVarint
	}
	return v, n, nil
}

// UTILITY FUNCTIONS

// VarintSize returns the number of bytes needed to encode v.
func VarintSize(v uint64) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	case v < 1<<35:
		return 5
	case v < 1<<42:
		return 6
	case v < 1<<49:
		return 7
	case v < 1<<56:
		return 8
	default:
		return 9
	}
}

// EncodeZigZag maps signed integers onto unsigned ones so that values of
// small magnitude stay small.
func EncodeZigZag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// DecodeZigZag reverses EncodeZigZag.
func DecodeZigZag(encoded uint64) int64 {
	return int64((encoded >> 1) ^ uint64(-int64(encoded&1)))
}
