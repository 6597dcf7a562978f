package lift

import (
	"encoding/binary"

	"github.com/xazalea/bellum/ir"
)

// arm64Decoder decodes little-endian 32-bit instruction words. ARM64 needs
// no inter-instruction state; register fields map directly onto the virtual
// register file, with xzr (31) landing on ir.RegZero.
type arm64Decoder struct{}

// arm64Pattern matches an instruction word against mask/value. Patterns are
// iterated in order, most-specific masks first.
type arm64Pattern struct {
	mask, value uint32
	lift        func(instr uint32, pc uint64) []ir.Operation
}

var arm64Patterns = []arm64Pattern{
	{ // stp x29, x30, [sp, #-16]! (frame prologue): scratch spills, as with push
		mask: 0xffffffff, value: 0xa9bf7bfd,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{
				&ir.OperationStore{Addr: 0, Src: 29},
				&ir.OperationStore{Addr: 0, Src: 30},
			}
		},
	},
	{ // nop
		mask: 0xffffffff, value: 0xd503201f,
		lift: func(instr uint32, pc uint64) []ir.Operation { return nil },
	},
	{ // ret Xn
		mask: 0xfffffc1f, value: 0xd65f0000,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationRet{}}
		},
	},
	{ // svc #imm16
		mask: 0xffe0001f, value: 0xd4000001,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationSyscall{ID: (instr >> 5) & 0xffff}}
		},
	},
	{ // mul Xd, Xn, Xm (madd with Ra = xzr)
		mask: 0xffe0fc00, value: 0x9b007c00,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationMul{Dest: rd(instr), Src1: rn(instr), Src2: rm(instr)}}
		},
	},
	{ // sdiv Xd, Xn, Xm
		mask: 0xffe0fc00, value: 0x9ac00c00,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationDiv{Dest: rd(instr), Src1: rn(instr), Src2: rm(instr)}}
		},
	},
	{ // add Xd, Xn, Xm (shifted register)
		mask: 0xff200000, value: 0x8b000000,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationAdd{Dest: rd(instr), Src1: rn(instr), Src2: rm(instr)}}
		},
	},
	{ // sub Xd, Xn, Xm (shifted register)
		mask: 0xff200000, value: 0xcb000000,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationSub{Dest: rd(instr), Src1: rn(instr), Src2: rm(instr)}}
		},
	},
	{ // cbz Xt, label
		mask: 0xff000000, value: 0xb4000000,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationBrIfZero{Src: rd(instr), Target: literalTarget(instr, pc)}}
		},
	},
	{ // ldr Xt, label (pc-relative literal)
		mask: 0xff000000, value: 0x58000000,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationLoad{Dest: rd(instr), Addr: literalTarget(instr, pc)}}
		},
	},
	{ // b label
		mask: 0xfc000000, value: 0x14000000,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationJmp{Target: branchTarget(instr, pc)}}
		},
	},
	{ // bl label
		mask: 0xfc000000, value: 0x94000000,
		lift: func(instr uint32, pc uint64) []ir.Operation {
			return []ir.Operation{&ir.OperationCall{Target: branchTarget(instr, pc)}}
		},
	},
}

func (arm64Decoder) decode(remaining []byte, pc uint64) ([]ir.Operation, int) {
	if len(remaining) < 4 {
		// Truncated trailing word: let the caller resynchronize byte-wise.
		return nil, 0
	}
	instr := binary.LittleEndian.Uint32(remaining)
	for i := range arm64Patterns {
		p := &arm64Patterns[i]
		if instr&p.mask == p.value {
			return p.lift(instr, pc), 4
		}
	}
	return nil, 0
}

func rd(instr uint32) ir.Register { return ir.Register(instr & 0b11111) }
func rn(instr uint32) ir.Register { return ir.Register((instr >> 5) & 0b11111) }
func rm(instr uint32) ir.Register { return ir.Register((instr >> 16) & 0b11111) }

// branchTarget resolves the imm26 word offset of b/bl.
func branchTarget(instr uint32, pc uint64) ir.Address {
	return uint64(int64(pc) + signExtend(instr&0x03ffffff, 26)*4)
}

// literalTarget resolves the imm19 word offset of cbz/ldr (literal).
func literalTarget(instr uint32, pc uint64) ir.Address {
	return uint64(int64(pc) + signExtend((instr>>5)&0x7ffff, 19)*4)
}

func signExtend(v uint32, bits int) int64 {
	shift := 64 - bits
	return int64(uint64(v)<<shift) >> shift
}
