package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xazalea/bellum/wasm"
)

func TestEncodeModule(t *testing.T) {
	i64 := wasm.ValueTypeI64

	tests := []struct {
		name     string
		input    *wasm.Module
		expected []byte
	}{
		{
			name:     "empty",
			input:    &wasm.Module{},
			expected: append(magic, version...),
		},
		{
			name: "type section",
			input: &wasm.Module{
				TypeSection: []*wasm.FunctionType{
					{},
					{Params: []wasm.ValueType{i64}, Results: []wasm.ValueType{i64}},
				},
			},
			expected: append(append(magic, version...),
				wasm.SectionIDType, 0x09, // 9 bytes in this section
				0x02,             // 2 types
				0x60, 0x00, 0x00, // func=0x60 no param no result
				0x60, 0x01, i64, 0x01, i64, // func=0x60 1 param and 1 result
			),
		},
		{
			name: "import section",
			input: &wasm.Module{
				ImportSection: []*wasm.Import{
					{Module: "env", Name: "f", Kind: wasm.ImportKindFunc, DescFunc: 0},
				},
			},
			expected: append(append(magic, version...),
				wasm.SectionIDImport, 0x09, // 9 bytes in this section
				0x01,                   // 1 import
				0x03, 'e', 'n', 'v',    // module
				0x01, 'f',              // name
				wasm.ImportKindFunc, 0x00, // func type index 0
			),
		},
		{
			name: "function and memory sections",
			input: &wasm.Module{
				FunctionSection: []wasm.Index{0},
				MemorySection:   []*wasm.MemoryType{{Min: 1}},
			},
			expected: append(append(magic, version...),
				wasm.SectionIDFunction, 0x02, 0x01, 0x00, // 1 function of type 0
				wasm.SectionIDMemory, 0x03, 0x01, 0x00, 0x01, // 1 memory, min 1, no max
			),
		},
		{
			name: "export section",
			input: &wasm.Module{
				ExportSection: []*wasm.Export{
					{Name: "a", Kind: wasm.ExportKindFunc, Index: 1},
					{Name: "b", Kind: wasm.ExportKindFunc, Index: 0},
				},
			},
			expected: append(append(magic, version...),
				wasm.SectionIDExport, 0x09, // 9 bytes in this section
				0x02,                             // 2 exports
				0x01, 'a', wasm.ExportKindFunc, 0x01, // func index 1
				0x01, 'b', wasm.ExportKindFunc, 0x00, // func index 0
			),
		},
		{
			name: "code section",
			input: &wasm.Module{
				CodeSection: []*wasm.Code{
					{Body: []byte{wasm.OpcodeEnd}},
					{LocalTypes: []wasm.ValueType{i64, i64}, Body: []byte{wasm.OpcodeLocalGet, 0x00, wasm.OpcodeDrop, wasm.OpcodeEnd}},
				},
			},
			expected: append(append(magic, version...),
				wasm.SectionIDCode, 0x0c, // 12 bytes in this section
				0x02,             // 2 code entries
				0x02, 0x00, 0x0b, // no locals, end
				0x07, 0x01, 0x02, i64, // one group of 2 i64 locals
				wasm.OpcodeLocalGet, 0x00, wasm.OpcodeDrop, wasm.OpcodeEnd,
			),
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, EncodeModule(tc.input))
		})
	}
}

func TestEncodeImportSection_order(t *testing.T) {
	// Import indices are assigned in list order, so the encoding must
	// preserve it byte-for-byte.
	imports := []*wasm.Import{
		{Module: "env", Name: "foo", Kind: wasm.ImportKindFunc},
		{Module: "env", Name: "bar", Kind: wasm.ImportKindFunc},
	}
	expected := []byte{
		wasm.SectionIDImport, 0x15, // 21 bytes in this section
		0x02,
		0x03, 'e', 'n', 'v', 0x03, 'f', 'o', 'o', wasm.ImportKindFunc, 0x00,
		0x03, 'e', 'n', 'v', 0x03, 'b', 'a', 'r', wasm.ImportKindFunc, 0x00,
	}
	require.Equal(t, expected, EncodeImportSection(imports))
}

func TestEncodeCode_localGrouping(t *testing.T) {
	i32, i64 := wasm.ValueTypeI32, wasm.ValueTypeI64
	code := &wasm.Code{
		LocalTypes: []wasm.ValueType{i64, i64, i32, i64},
		Body:       []byte{wasm.OpcodeEnd},
	}
	require.Equal(t, []byte{
		0x08,      // 8 bytes in this entry
		0x03,      // 3 local groups
		0x02, i64, // 2 x i64
		0x01, i32, // 1 x i32
		0x01, i64, // 1 x i64
		wasm.OpcodeEnd,
	}, encodeCode(code))
}
