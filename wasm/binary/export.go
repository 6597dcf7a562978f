package binary

import (
	"github.com/xazalea/bellum/wasm"
	"github.com/xazalea/bellum/wasm/leb128"
)

// encodeExport returns the encoding of an export in WebAssembly 1.0 (MVP)
// Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-export
func encodeExport(e *wasm.Export) []byte {
	data := encodeNameValue(e.Name)
	data = append(data, e.Kind)
	return append(data, leb128.EncodeUint32(e.Index)...)
}
