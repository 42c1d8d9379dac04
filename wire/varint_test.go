package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintVectors(t *testing.T) {
	tests := []struct {
		value   uint64
		encoded []byte
	}{
		{0, []byte{0x01}},
		{1, []byte{0x03}},
		{127, []byte{0xff}},
		{128, []byte{0x02, 0x02}},
		{16383, []byte{0xfe, 0xff}},
		{16384, []byte{0x04, 0x00, 0x02}},
		{1<<56 - 1, []byte{0x80, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{1 << 56, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}},
		{math.MaxUint64, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		got := AppendVarint(nil, tt.value)
		assert.Equal(t, tt.encoded, got, "encoding %d", tt.value)
		assert.Equal(t, len(tt.encoded), VarintSize(tt.value))

		v, n, err := ConsumeVarint(tt.encoded)
		require.NoError(t, err)
		assert.Equal(t, tt.value, v)
		assert.Equal(t, len(tt.encoded), n)
	}
}

func TestVarintRoundTripAtLengthBoundaries(t *testing.T) {
	for shift := 0; shift < 64; shift++ {
		for _, v := range []uint64{1<<shift - 1, 1 << shift, 1<<shift + 1} {
			buf := AppendVarint(nil, v)
			got, n, err := ConsumeVarint(append(buf, 0xaa))
			require.NoError(t, err)
			require.Equal(t, v, got)
			require.Equal(t, len(buf), n)
		}
	}
}

func TestVarintRejectsNonMinimal(t *testing.T) {
	tests := []struct {
		name    string
		encoded []byte
	}{
		{"one in two bytes", []byte{0x06, 0x00}},
		{"zero in three bytes", []byte{0x04, 0x00, 0x00}},
		{"small value in nine bytes", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ConsumeVarint(tt.encoded)
			require.ErrorIs(t, err, ErrMalformedVarint)
		})
	}
}

func TestVarintTruncated(t *testing.T) {
	for _, encoded := range [][]byte{
		{},
		{0x02},
		{0x04, 0x00},
		{0x00, 0x01, 0x02},
	} {
		_, _, err := ConsumeVarint(encoded)
		require.ErrorIs(t, err, ErrVarintTruncated, "input %x", encoded)
	}
}

func TestZigZag(t *testing.T) {
	tests := []struct {
		signed   int64
		unsigned uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.unsigned, EncodeZigZag(tt.signed))
		assert.Equal(t, tt.signed, DecodeZigZag(tt.unsigned))
	}
}

func TestHeaderEncoding(t *testing.T) {
	tests := []struct {
		name    string
		header  Header
		encoded []byte
	}{
		{"bool true", NewBoolHeader(1, false, true), []byte{0x23}},
		{"bool false", NewBoolHeader(1, false, false), []byte{0x21}},
		{"uint64", NewHeader(1, false, WireUInt64), []byte{0x25}},
		{"critical uint64", NewHeader(1, true, WireUInt64), []byte{0x35}},
		{"string tag 2", NewHeader(2, false, WireString), []byte{0x4b}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, MaxVarintLen)
			n, err := PutHeader(buf, tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.encoded, buf[:n])

			h, n, err := ConsumeHeader(tt.encoded)
			require.NoError(t, err)
			assert.Equal(t, len(tt.encoded), n)
			assert.Equal(t, tt.header, h)
		})
	}
}

func TestHeaderLenDependsOnlyOnTag(t *testing.T) {
	assert.Equal(t, 1, HeaderLen(7))
	assert.Equal(t, 2, HeaderLen(8))
	for _, tag := range []uint64{0, 7, 8, 1 << 20, MaxTag} {
		for _, wt := range []WireType{WireUInt64, WireSequence} {
			for _, crit := range []bool{false, true} {
				buf := make([]byte, MaxVarintLen)
				n, err := PutHeader(buf, NewHeader(tag, crit, wt))
				require.NoError(t, err)
				assert.Equal(t, HeaderLen(tag), n)
			}
		}
	}

	_, err := PutHeader(make([]byte, MaxVarintLen), NewHeader(MaxTag+1, false, WireBytes))
	require.ErrorIs(t, err, ErrTagTooLarge)
}
