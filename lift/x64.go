package lift

import (
	"bytes"
	"encoding/binary"

	"github.com/xazalea/bellum/ir"
)

// Virtual registers follow the x86 register encoding: rax=0, rcx=1, rdx=2,
// rbx=3, rsp=4, rbp=5, rsi=6, rdi=7.
const (
	regRAX ir.Register = 0
	regRSP ir.Register = 4
	regRBP ir.Register = 5

	// regFlags is a pseudo-register holding the most recent comparison
	// result; conditional branches test it.
	regFlags ir.Register = 16
)

// x64Decoder carries the decode state that survives between instructions.
type x64Decoder struct {
	// eax holds the most recent mov eax, imm32 immediate. The conventional
	// syscall sequence loads the id there, so the following syscall lifts
	// with its real id.
	eax uint32
}

// x64Pattern maps a literal byte prefix to the operations it lifts to and
// the total encoded length it consumes. guard, when set, constrains the
// addressing form (e.g. register-direct ModRM only).
type x64Pattern struct {
	prefix []byte
	guard  func(enc []byte) bool
	size   int
	lift   func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation
}

// modRegDirect accepts only ModRM bytes with mod == 11 (register operands,
// no displacement), which is the only form the fixed sizes below cover.
func modRegDirect(m byte) bool { return m>>6 == 0b11 }

// x64Patterns is iterated in order: longest and most-specific prefixes
// first, so e.g. the three-byte mov rbp, rsp form wins over generic ModRM
// handling.
var x64Patterns = []x64Pattern{
	{ // imul r64, r/m64
		prefix: []byte{0x48, 0x0f, 0xaf},
		guard:  func(enc []byte) bool { return modRegDirect(enc[3]) },
		size:   4,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			m := enc[3]
			return []ir.Operation{&ir.OperationMul{Dest: reg(m >> 3), Src1: reg(m >> 3), Src2: reg(m)}}
		},
	},
	{ // mov rbp, rsp
		prefix: []byte{0x48, 0x89, 0xe5},
		size:   3,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationAdd{Dest: regRBP, Src1: regRSP, Src2: ir.RegZero}}
		},
	},
	{ // add r/m64, r64
		prefix: []byte{0x48, 0x01},
		guard:  func(enc []byte) bool { return modRegDirect(enc[2]) },
		size:   3,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			m := enc[2]
			return []ir.Operation{&ir.OperationAdd{Dest: reg(m), Src1: reg(m), Src2: reg(m >> 3)}}
		},
	},
	{ // sub r/m64, r64
		prefix: []byte{0x48, 0x29},
		guard:  func(enc []byte) bool { return modRegDirect(enc[2]) },
		size:   3,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			m := enc[2]
			return []ir.Operation{&ir.OperationSub{Dest: reg(m), Src1: reg(m), Src2: reg(m >> 3)}}
		},
	},
	{ // cmp r/m64, r64: the zero flag is the difference being zero, so the
		// flags pseudo-register holds rm - reg and je tests it directly
		prefix: []byte{0x48, 0x39},
		guard:  func(enc []byte) bool { return modRegDirect(enc[2]) },
		size:   3,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			m := enc[2]
			return []ir.Operation{&ir.OperationSub{Dest: regFlags, Src1: reg(m), Src2: reg(m >> 3)}}
		},
	},
	{ // mov rax, moffs64
		prefix: []byte{0x48, 0xa1},
		size:   10,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationLoad{Dest: regRAX, Addr: binary.LittleEndian.Uint64(enc[2:])}}
		},
	},
	{ // mov moffs64, rax
		prefix: []byte{0x48, 0xa3},
		size:   10,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationStore{Addr: binary.LittleEndian.Uint64(enc[2:]), Src: regRAX}}
		},
	},
	{ // syscall
		prefix: []byte{0x0f, 0x05},
		size:   2,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationSyscall{ID: d.eax}}
		},
	},
	{ // mov eax, imm32: recorded for syscall id tracking, no IR
		prefix: []byte{0xb8},
		size:   5,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			d.eax = binary.LittleEndian.Uint32(enc[1:])
			return nil
		},
	},
	{ // call rel32
		prefix: []byte{0xe8},
		size:   5,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationCall{Target: relTarget(pc, 5, int32(binary.LittleEndian.Uint32(enc[1:])))}}
		},
	},
	{ // jmp rel32
		prefix: []byte{0xe9},
		size:   5,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationJmp{Target: relTarget(pc, 5, int32(binary.LittleEndian.Uint32(enc[1:])))}}
		},
	},
	{ // jmp rel8
		prefix: []byte{0xeb},
		size:   2,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationJmp{Target: relTarget(pc, 2, int32(int8(enc[1])))}}
		},
	},
	{ // je rel8
		prefix: []byte{0x74},
		size:   2,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationBrIfZero{Src: regFlags, Target: relTarget(pc, 2, int32(int8(enc[1])))}}
		},
	},
	{ // push rbp: the stack home is not static, decoded as a scratch spill
		prefix: []byte{0x55},
		size:   1,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationStore{Addr: 0, Src: regRBP}}
		},
	},
	{ // pop rbp
		prefix: []byte{0x5d},
		size:   1,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationLoad{Dest: regRBP, Addr: 0}}
		},
	},
	{ // ret
		prefix: []byte{0xc3},
		size:   1,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationRet{}}
		},
	},
	{ // nop
		prefix: []byte{0x90},
		size:   1,
		lift: func(d *x64Decoder, enc []byte, pc uint64) []ir.Operation {
			return nil
		},
	},
}

func (d *x64Decoder) decode(remaining []byte, pc uint64) ([]ir.Operation, int) {
	for i := range x64Patterns {
		p := &x64Patterns[i]
		if len(remaining) < p.size || !bytes.HasPrefix(remaining, p.prefix) {
			continue
		}
		if p.guard != nil && !p.guard(remaining[:p.size]) {
			continue
		}
		return p.lift(d, remaining[:p.size], pc), p.size
	}
	return nil, 0
}

// reg extracts the low three ModRM register bits.
func reg(b byte) ir.Register { return ir.Register(b & 0b111) }

// relTarget computes the absolute target of a pc-relative transfer encoded
// at pc with the given instruction length.
func relTarget(pc uint64, size int, rel int32) ir.Address {
	return uint64(int64(pc) + int64(size) + int64(rel))
}
