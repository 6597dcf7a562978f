package leb128

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeUint32(t *testing.T) {
	tests := []struct {
		name     string
		input    uint32
		expected []byte
	}{
		{name: "zero", input: 0, expected: []byte{0x00}},
		{name: "one byte max", input: 127, expected: []byte{0x7f}},
		{name: "two bytes min", input: 128, expected: []byte{0x80, 0x01}},
		{name: "multi byte", input: 624485, expected: []byte{0xe5, 0x8e, 0x26}},
		{name: "uint32 max", input: 0xffffffff, expected: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, EncodeUint32(tc.input))
		})
	}
}

func TestEncodeInt32(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected []byte
	}{
		{name: "zero", input: 0, expected: []byte{0x00}},
		{name: "positive one byte max", input: 63, expected: []byte{0x3f}},
		{name: "positive two bytes min", input: 64, expected: []byte{0xc0, 0x00}},
		{name: "negative one", input: -1, expected: []byte{0x7f}},
		{name: "negative one byte min", input: -64, expected: []byte{0x40}},
		{name: "negative two bytes", input: -65, expected: []byte{0xbf, 0x7f}},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, EncodeInt32(tc.input))
		})
	}
}

func TestEncodeUint64_roundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 1 << 20, 1<<63 - 1, 1 << 63} {
		encoded := EncodeUint64(v)
		decoded, num, err := DecodeUint64(bytes.NewReader(encoded))
		require.NoError(t, err)
		require.Equal(t, uint64(len(encoded)), num)
		require.Equal(t, v, decoded)
	}
}

func TestDecodeUint32(t *testing.T) {
	decoded, num, err := DecodeUint32(bytes.NewReader([]byte{0xe5, 0x8e, 0x26}))
	require.NoError(t, err)
	require.Equal(t, uint64(3), num)
	require.Equal(t, uint32(624485), decoded)
}
