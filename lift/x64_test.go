package lift

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xazalea/bellum/ir"
)

func TestX64_decode(t *testing.T) {
	tests := []struct {
		name     string
		bin      []byte
		entry    uint64
		expected ir.BlockMap
	}{
		{
			name:  "prologue and ret",
			bin:   []byte{0x55, 0x48, 0x89, 0xe5, 0xc3},
			entry: 0x1000,
			expected: ir.BlockMap{
				0x1000: {
					&ir.OperationStore{Addr: 0, Src: regRBP},
					&ir.OperationAdd{Dest: regRBP, Src1: regRSP, Src2: ir.RegZero},
					&ir.OperationRet{},
				},
			},
		},
		{
			name: "register arithmetic",
			// add rax, rbx; sub rax, rcx; imul rdx, rax; ret
			bin:   []byte{0x48, 0x01, 0xd8, 0x48, 0x29, 0xc8, 0x48, 0x0f, 0xaf, 0xd0, 0xc3},
			entry: 0x2000,
			expected: ir.BlockMap{
				0x2000: {
					&ir.OperationAdd{Dest: 0, Src1: 0, Src2: 3},
					&ir.OperationSub{Dest: 0, Src1: 0, Src2: 1},
					&ir.OperationMul{Dest: 2, Src1: 2, Src2: 0},
					&ir.OperationRet{},
				},
			},
		},
		{
			name: "absolute moves",
			// mov rax, [0x3000]; mov [0x3008], rax; ret
			bin: []byte{
				0x48, 0xa1, 0x00, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x48, 0xa3, 0x08, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0xc3,
			},
			entry: 0x1000,
			expected: ir.BlockMap{
				0x1000: {
					&ir.OperationLoad{Dest: regRAX, Addr: 0x3000},
					&ir.OperationStore{Addr: 0x3008, Src: regRAX},
					&ir.OperationRet{},
				},
			},
		},
		{
			name: "jmp rel32 backwards",
			// jmp -5 (to itself)
			bin:   []byte{0xe9, 0xfb, 0xff, 0xff, 0xff},
			entry: 0x1000,
			expected: ir.BlockMap{
				0x1000: {&ir.OperationJmp{Target: 0x1000}},
			},
		},
		{
			name: "jmp rel8 and je rel8",
			// je +0x10; jmp +0x20
			bin:   []byte{0x74, 0x10, 0xeb, 0x20},
			entry: 0x1000,
			expected: ir.BlockMap{
				0x1000: {&ir.OperationBrIfZero{Src: regFlags, Target: 0x1012}},
				0x1002: {&ir.OperationJmp{Target: 0x1024}},
			},
		},
		{
			name: "call splits blocks",
			// call +0x100; ret
			bin:   []byte{0xe8, 0x00, 0x01, 0x00, 0x00, 0xc3},
			entry: 0x1000,
			expected: ir.BlockMap{
				0x1000: {&ir.OperationCall{Target: 0x1105}},
				0x1005: {&ir.OperationRet{}},
			},
		},
		{
			name: "cmp feeds the flags register for je",
			// cmp rax, rbx; je +2; ret
			bin:   []byte{0x48, 0x39, 0xd8, 0x74, 0x02, 0xc3},
			entry: 0x1000,
			expected: ir.BlockMap{
				0x1000: {
					&ir.OperationSub{Dest: regFlags, Src1: 0, Src2: 3},
					&ir.OperationBrIfZero{Src: regFlags, Target: 0x1007},
				},
				0x1005: {&ir.OperationRet{}},
			},
		},
		{
			name: "syscall id tracked from mov eax",
			// mov eax, 60; syscall; ret
			bin:   []byte{0xb8, 0x3c, 0x00, 0x00, 0x00, 0x0f, 0x05, 0xc3},
			entry: 0x1000,
			expected: ir.BlockMap{
				// mov eax, imm32 emits no IR, so the block keys at the
				// syscall itself.
				0x1005: {
					&ir.OperationSyscall{ID: 60},
					&ir.OperationRet{},
				},
			},
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			blocks, err := Lift(ArchX8664, tc.bin, tc.entry)
			require.NoError(t, err)
			require.Equal(t, tc.expected, blocks)
		})
	}
}

func TestX64_modRMGuard(t *testing.T) {
	// add [rax], rbx uses mod=00, which the fixed-size table does not
	// cover: the bytes must not decode as a register add.
	blocks, err := Lift(ArchX8664, []byte{0x48, 0x01, 0x18, 0xc3}, 0x1000)
	require.NoError(t, err)
	for _, ops := range blocks {
		for _, op := range ops {
			require.NotEqual(t, ir.OperationKindAdd, op.Kind())
		}
	}
}

func TestX64_truncatedTrailingInstruction(t *testing.T) {
	// ret followed by a truncated jmp rel32: decoding resynchronizes
	// byte-wise and never fails.
	blocks, err := Lift(ArchX8664, []byte{0xc3, 0xe9, 0x00, 0x00}, 0x1000)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Contains(t, blocks, uint64(0x1000))
}
