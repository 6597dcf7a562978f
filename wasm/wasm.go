// Package wasm models the subset of the WebAssembly 1.0 (MVP) Binary Format
// the translation pipeline emits.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-format%E2%91%A0
package wasm

// Index is the offset in an index namespace, not necessarily an absolute
// position in a module section. For example, the function index namespace
// starts with any imported functions, followed by module-defined ones.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-index
type Index = uint32

// SectionID identifies the sections of a Module in the WebAssembly 1.0 (MVP)
// Binary Format.
//
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
type SectionID = byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

// ValueType is the binary encoding of a type such as i32.
//
// Note: This is a type alias as it is easier to encode and decode in the
// binary format.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// Opcode is the binary encoding of an instruction in a function body.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-instr
type Opcode = byte

const (
	OpcodeUnreachable Opcode = 0x00
	OpcodeNop         Opcode = 0x01
	OpcodeIf          Opcode = 0x04
	OpcodeEnd         Opcode = 0x0b
	OpcodeReturn      Opcode = 0x0f
	OpcodeCall        Opcode = 0x10
	OpcodeDrop        Opcode = 0x1a
	OpcodeLocalGet    Opcode = 0x20
	OpcodeLocalSet    Opcode = 0x21
	OpcodeI64Load     Opcode = 0x29
	OpcodeI64Store    Opcode = 0x37
	OpcodeI32Const    Opcode = 0x41
	OpcodeI64Const    Opcode = 0x42
	OpcodeI64Eqz      Opcode = 0x50
	OpcodeI64Add      Opcode = 0x7c
	OpcodeI64Sub      Opcode = 0x7d
	OpcodeI64Mul      Opcode = 0x7e
	OpcodeI64DivS     Opcode = 0x7f
	OpcodeI64DivU     Opcode = 0x80
)

// BlockTypeEmpty encodes a block structure with no result value.
const BlockTypeEmpty byte = 0x40

const (
	ImportKindFunc byte = 0x00
	ExportKindFunc byte = 0x00
)

// FunctionType is a possibly empty function signature.
//
// See https://www.w3.org/TR/wasm-core-1/#function-types%E2%91%A4
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Import is the binary representation of an import indicated by Kind.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-import
type Import struct {
	// Module is the possibly empty first-level namespace of the import.
	Module string
	// Name is the possibly empty name of the import within Module.
	Name string
	Kind byte
	// DescFunc is the index in Module.TypeSection when Kind is
	// ImportKindFunc.
	DescFunc Index
}

// Export is the binary representation of an export indicated by Kind.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-export
type Export struct {
	Name string
	Kind byte
	// Index is the index of the definition exported, e.g. for ExportKindFunc
	// an index in the function index namespace.
	Index Index
}

// Limits describe the min and optional max size of a resizable storage.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-limits
type Limits struct {
	Min uint32
	Max *uint32
}

// MemoryType is the type of a linear memory, sized in pages.
type MemoryType = Limits

// Code is an entry in the Module.CodeSection containing the locals and body
// of one module-defined function.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-code
type Code struct {
	// LocalTypes are the types of any function-scoped variables, expanded
	// (one entry per local).
	LocalTypes []ValueType
	// Body is the function body in the binary format, terminated by
	// OpcodeEnd.
	Body []byte
}

// Module is the binary representation of a WebAssembly module, restricted to
// the sections the translator emits. Fields are ordered by SectionID.
//
// Note: ExportSection is a slice, not a name-keyed map, so that encoding a
// module is deterministic.
//
// See https://www.w3.org/TR/wasm-core-1/#modules%E2%91%A8
type Module struct {
	TypeSection     []*FunctionType
	ImportSection   []*Import
	FunctionSection []Index
	MemorySection   []*MemoryType
	ExportSection   []*Export
	CodeSection     []*Code
}
