package binary

import (
	"github.com/xazalea/bellum/wasm"
	"github.com/xazalea/bellum/wasm/leb128"
)

// encodeCode returns the encoding of a code entry in WebAssembly 1.0 (MVP)
// Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-code
func encodeCode(c *wasm.Code) []byte {
	// Compress the local types into run-length groups of the same type.
	var locals []byte
	var groups uint32
	for i := 0; i < len(c.LocalTypes); {
		t := c.LocalTypes[i]
		j := i + 1
		for j < len(c.LocalTypes) && c.LocalTypes[j] == t {
			j++
		}
		locals = append(locals, leb128.EncodeUint32(uint32(j-i))...)
		locals = append(locals, t)
		groups++
		i = j
	}

	data := append(leb128.EncodeUint32(groups), locals...)
	data = append(data, c.Body...)
	return encodeSizePrefixed(data)
}
