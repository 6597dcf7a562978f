package binary

import (
	"github.com/xazalea/bellum/wasm"
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d}
var version = []byte{0x01, 0x00, 0x00, 0x00}

// EncodeModule encodes the given module into the WebAssembly 1.0 (MVP)
// Binary Format. Sections are written in the canonical SectionID order, and
// empty sections are omitted.
//
// Note: If saving to a file, the conventional extension is wasm
// See https://www.w3.org/TR/wasm-core-1/#binary-format%E2%91%A0
func EncodeModule(m *wasm.Module) (bytes []byte) {
	bytes = append(magic, version...)
	if len(m.TypeSection) > 0 {
		bytes = append(bytes, encodeTypeSection(m.TypeSection)...)
	}
	if len(m.ImportSection) > 0 {
		bytes = append(bytes, EncodeImportSection(m.ImportSection)...)
	}
	if len(m.FunctionSection) > 0 {
		bytes = append(bytes, encodeFunctionSection(m.FunctionSection)...)
	}
	if len(m.MemorySection) > 0 {
		bytes = append(bytes, encodeMemorySection(m.MemorySection)...)
	}
	if len(m.ExportSection) > 0 {
		bytes = append(bytes, encodeExportSection(m.ExportSection)...)
	}
	if len(m.CodeSection) > 0 {
		bytes = append(bytes, encodeCodeSection(m.CodeSection)...)
	}
	return
}
