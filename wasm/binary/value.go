package binary

import (
	"github.com/xazalea/bellum/wasm"
	"github.com/xazalea/bellum/wasm/leb128"
)

var noValType = []byte{0}

// encodedValTypes is a cache of size prefixed binary encoding of known val
// types.
var encodedValTypes = map[wasm.ValueType][]byte{
	wasm.ValueTypeI32: {1, wasm.ValueTypeI32},
	wasm.ValueTypeI64: {1, wasm.ValueTypeI64},
	wasm.ValueTypeF32: {1, wasm.ValueTypeF32},
	wasm.ValueTypeF64: {1, wasm.ValueTypeF64},
}

// encodeValTypes fast paths binary encoding of common value type lengths.
func encodeValTypes(vt []wasm.ValueType) []byte {
	switch len(vt) {
	case 0: // nullary
		return noValType
	case 1:
		if encoded, ok := encodedValTypes[vt[0]]; ok {
			return encoded
		}
	}
	count := leb128.EncodeUint32(uint32(len(vt)))
	return append(count, vt...)
}

// encodeSizePrefixed encodes the data prefixed with its length in bytes.
func encodeSizePrefixed(data []byte) []byte {
	return append(leb128.EncodeUint32(uint32(len(data))), data...)
}

// encodeNameValue encodes the name prefixed with its length in bytes.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-name
func encodeNameValue(name string) []byte {
	return encodeSizePrefixed([]byte(name))
}

// encodeFunctionType returns the encoding of a function type in WebAssembly
// 1.0 (MVP) Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#function-types%E2%91%A4
func encodeFunctionType(t *wasm.FunctionType) []byte {
	// Function types have a leading 0x60 tag.
	data := append([]byte{0x60}, encodeValTypes(t.Params)...)
	return append(data, encodeValTypes(t.Results)...)
}

// encodeLimits returns the encoding of limits in WebAssembly 1.0 (MVP)
// Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-limits
func encodeLimits(l *wasm.Limits) []byte {
	if l.Max != nil {
		data := append([]byte{0x01}, leb128.EncodeUint32(l.Min)...)
		return append(data, leb128.EncodeUint32(*l.Max)...)
	}
	return append([]byte{0x00}, leb128.EncodeUint32(l.Min)...)
}
