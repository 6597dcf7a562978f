package binary

import (
	"github.com/xazalea/bellum/wasm"
	"github.com/xazalea/bellum/wasm/leb128"
)

// encodeSection encodes the sectionID, the size of its contents in bytes,
// followed by the contents.
//
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
func encodeSection(sectionID wasm.SectionID, contents []byte) []byte {
	return append([]byte{sectionID}, encodeSizePrefixed(contents)...)
}

// encodeTypeSection encodes a SectionIDType for the given types in
// WebAssembly 1.0 (MVP) Binary Format.
//
// See encodeFunctionType
// See https://www.w3.org/TR/wasm-core-1/#type-section%E2%91%A0
func encodeTypeSection(types []*wasm.FunctionType) []byte {
	contents := leb128.EncodeUint32(uint32(len(types)))
	for _, t := range types {
		contents = append(contents, encodeFunctionType(t)...)
	}
	return encodeSection(wasm.SectionIDType, contents)
}

// EncodeImportSection encodes a SectionIDImport for the given imports in
// WebAssembly 1.0 (MVP) Binary Format.
//
// This is exported because a link session serializes its import list
// independently of whole-module encoding.
//
// See encodeImport
// See https://www.w3.org/TR/wasm-core-1/#import-section%E2%91%A0
func EncodeImportSection(imports []*wasm.Import) []byte {
	contents := leb128.EncodeUint32(uint32(len(imports)))
	for _, i := range imports {
		contents = append(contents, encodeImport(i)...)
	}
	return encodeSection(wasm.SectionIDImport, contents)
}

// encodeFunctionSection encodes a SectionIDFunction for the type indices
// associated with module-defined functions in WebAssembly 1.0 (MVP) Binary
// Format.
//
// See https://www.w3.org/TR/wasm-core-1/#function-section%E2%91%A0
func encodeFunctionSection(typeIndices []wasm.Index) []byte {
	contents := leb128.EncodeUint32(uint32(len(typeIndices)))
	for _, index := range typeIndices {
		contents = append(contents, leb128.EncodeUint32(index)...)
	}
	return encodeSection(wasm.SectionIDFunction, contents)
}

// encodeMemorySection encodes a SectionIDMemory for the given memories in
// WebAssembly 1.0 (MVP) Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#memory-section%E2%91%A0
func encodeMemorySection(memories []*wasm.MemoryType) []byte {
	contents := leb128.EncodeUint32(uint32(len(memories)))
	for _, m := range memories {
		contents = append(contents, encodeLimits(m)...)
	}
	return encodeSection(wasm.SectionIDMemory, contents)
}

// encodeExportSection encodes a SectionIDExport for the given exports in
// WebAssembly 1.0 (MVP) Binary Format.
//
// See encodeExport
// See https://www.w3.org/TR/wasm-core-1/#export-section%E2%91%A0
func encodeExportSection(exports []*wasm.Export) []byte {
	contents := leb128.EncodeUint32(uint32(len(exports)))
	for _, e := range exports {
		contents = append(contents, encodeExport(e)...)
	}
	return encodeSection(wasm.SectionIDExport, contents)
}

// encodeCodeSection encodes a SectionIDCode for the module-defined functions
// in WebAssembly 1.0 (MVP) Binary Format.
//
// See encodeCode
// See https://www.w3.org/TR/wasm-core-1/#code-section%E2%91%A0
func encodeCodeSection(code []*wasm.Code) []byte {
	contents := leb128.EncodeUint32(uint32(len(code)))
	for _, c := range code {
		contents = append(contents, encodeCode(c)...)
	}
	return encodeSection(wasm.SectionIDCode, contents)
}
