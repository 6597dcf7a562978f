package binary

import (
	"fmt"

	"github.com/xazalea/bellum/wasm"
	"github.com/xazalea/bellum/wasm/leb128"
)

// encodeImport returns the encoding of an import in WebAssembly 1.0 (MVP)
// Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-import
func encodeImport(i *wasm.Import) []byte {
	data := encodeNameValue(i.Module)
	data = append(data, encodeNameValue(i.Name)...)
	data = append(data, i.Kind)
	switch i.Kind {
	case wasm.ImportKindFunc:
		data = append(data, leb128.EncodeUint32(i.DescFunc)...)
	default:
		panic(fmt.Errorf("invalid kind: %#x", i.Kind))
	}
	return data
}
