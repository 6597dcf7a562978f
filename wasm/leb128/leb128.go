// Package leb128 implements the variable-length integer encoding used
// throughout the WebAssembly binary format.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-int
package leb128

import (
	"fmt"
	"io"
)

// EncodeUint32 encodes the value into a buffer in unsigned LEB128 format.
func EncodeUint32(value uint32) []byte {
	return EncodeUint64(uint64(value))
}

// EncodeUint64 encodes the value into a buffer in unsigned LEB128 format.
func EncodeUint64(value uint64) (buf []byte) {
	for {
		b := uint8(value & 0x7f)
		value >>= 7
		if value != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if b&0x80 == 0 {
			return buf
		}
	}
}

// EncodeInt32 encodes the value into a buffer in signed LEB128 format.
func EncodeInt32(value int32) []byte {
	return EncodeInt64(int64(value))
}

// EncodeInt64 encodes the value into a buffer in signed LEB128 format.
func EncodeInt64(value int64) (buf []byte) {
	for {
		b := uint8(value & 0x7f)
		value >>= 7
		if (value != 0 || b&0x40 != 0) && (value != -1 || b&0x40 == 0) {
			b |= 0x80
		}
		buf = append(buf, b)
		if b&0x80 == 0 {
			return buf
		}
	}
}

func DecodeUint32(r io.Reader) (ret uint32, num uint64, err error) {
	const (
		uint32Mask  uint32 = 1 << 7
		uint32Mask2        = ^uint32Mask
	)

	for shift := 0; shift < 35; shift += 7 {
		b, err := readByteAsUint32(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		num++
		ret |= (b & uint32Mask2) << shift
		if b&uint32Mask == 0 {
			break
		}
	}
	return
}

func DecodeUint64(r io.Reader) (ret uint64, num uint64, err error) {
	const (
		uint64Mask  uint64 = 1 << 7
		uint64Mask2        = ^uint64Mask
	)
	for shift := 0; shift < 64; shift += 7 {
		b, err := readByteAsUint64(r)
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		num++
		ret |= (b & uint64Mask2) << shift
		if b&uint64Mask == 0 {
			break
		}
	}
	return
}

func readByteAsUint32(r io.Reader) (uint32, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r, b)
	return uint32(b[0]), err
}

func readByteAsUint64(r io.Reader) (uint64, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r, b)
	return uint64(b[0]), err
}
