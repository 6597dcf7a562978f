// Package compile lowers lifted IR blocks into a WebAssembly module.
//
// Each basic block becomes one exported nullary function; the virtual
// register file maps onto i64 locals and memory operands onto a module-local
// linear memory, so emitted bodies validate rather than merely balance.
package compile

import (
	"fmt"
	"math"
	"sort"

	"github.com/xazalea/bellum/ir"
	"github.com/xazalea/bellum/link"
	"github.com/xazalea/bellum/wasm"
	"github.com/xazalea/bellum/wasm/binary"
	"github.com/xazalea/bellum/wasm/leb128"
)

// EncodingOverflowError reports the single failure mode of compilation: one
// block cannot be encoded for the target, either because a memory operand
// exceeds the 32-bit address space or because a call-site reference has no
// function index to encode.
type EncodingOverflowError struct {
	BlockAddr ir.Address
	Detail    string
}

func (e *EncodingOverflowError) Error() string {
	return fmt.Sprintf("cannot encode block at 0x%x: %s", e.BlockAddr, e.Detail)
}

// Compiler lowers block maps against one link session.
//
// OptimizationLevel 0 disables the peephole pass; 1 and above enable
// identity-arithmetic elimination.
type Compiler struct {
	OptimizationLevel int

	session *link.Session
}

func NewCompiler(optimizationLevel int, session *link.Session) *Compiler {
	return &Compiler{OptimizationLevel: optimizationLevel, session: session}
}

// SyscallImportName is the import-list name a syscall id resolves under.
func SyscallImportName(id uint32) string {
	return fmt.Sprintf("syscall%d", id)
}

// RequiredImports walks the blocks in deterministic order and returns the
// distinct external names the lowered module will reference, in
// first-reference order: one name per syscall id, plus the defined symbol
// name of every call target that has no translated block.
func RequiredImports(blocks ir.BlockMap, session *link.Session) []string {
	var names []string
	seen := map[string]struct{}{}
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	for _, addr := range sortedAddresses(blocks) {
		for _, op := range blocks[addr] {
			switch o := op.(type) {
			case *ir.OperationSyscall:
				add(SyscallImportName(o.ID))
			case *ir.OperationCall:
				if _, ok := blocks[o.Target]; ok {
					continue
				}
				if name, ok := session.LookupAddress(o.Target); ok {
					add(name)
				}
			}
		}
	}
	return names
}

// Compile lowers blocks into module bytes. The input is never mutated;
// optimization, when enabled, runs on per-block copies. Byte-identical input
// yields byte-identical output: blocks are processed in ascending start
// address order and the import list is frozen before any body is emitted.
func (c *Compiler) Compile(blocks ir.BlockMap) ([]byte, error) {
	addrs := sortedAddresses(blocks)

	// Import discovery must complete before any call site is encoded so the
	// function index space is final.
	c.session.ResolveImports(RequiredImports(blocks, c.session))

	numImports := uint32(len(c.session.ImportNames()))
	funcIndex := make(map[ir.Address]wasm.Index, len(addrs))
	for i, addr := range addrs {
		funcIndex[addr] = numImports + uint32(i)
	}

	m := &wasm.Module{
		TypeSection:   []*wasm.FunctionType{{}},
		ImportSection: c.session.Imports(),
		MemorySection: []*wasm.MemoryType{{Min: 1}},
	}

	for _, addr := range addrs {
		ops := blocks[addr]
		if c.OptimizationLevel >= 1 {
			ops = Optimize(append([]ir.Operation(nil), ops...))
		}

		code, err := c.lowerBlock(addr, ops, funcIndex)
		if err != nil {
			return nil, err
		}
		m.FunctionSection = append(m.FunctionSection, 0)
		m.ExportSection = append(m.ExportSection, &wasm.Export{
			Name:  fmt.Sprintf("block_0x%x", addr),
			Kind:  wasm.ExportKindFunc,
			Index: funcIndex[addr],
		})
		m.CodeSection = append(m.CodeSection, code)
	}

	return binary.EncodeModule(m), nil
}

// lowerBlock lowers one block's operations into a function body. The
// lowering table is total over the IR set; an operation with no direct
// target equivalent becomes a nop so bodies stay well-formed.
func (c *Compiler) lowerBlock(addr ir.Address, ops []ir.Operation, funcIndex map[ir.Address]wasm.Index) (*wasm.Code, error) {
	var body []byte
	var numLocals uint32

	getReg := func(r ir.Register) {
		if r == ir.RegZero {
			body = append(body, wasm.OpcodeI64Const, 0)
			return
		}
		if r+1 > numLocals {
			numLocals = r + 1
		}
		body = append(body, wasm.OpcodeLocalGet)
		body = append(body, leb128.EncodeUint32(r)...)
	}
	setReg := func(r ir.Register) {
		if r == ir.RegZero {
			// Writes to the zero register are discarded.
			body = append(body, wasm.OpcodeDrop)
			return
		}
		if r+1 > numLocals {
			numLocals = r + 1
		}
		body = append(body, wasm.OpcodeLocalSet)
		body = append(body, leb128.EncodeUint32(r)...)
	}
	memAddr := func(a ir.Address) error {
		if a > math.MaxInt32 {
			return &EncodingOverflowError{BlockAddr: addr, Detail: fmt.Sprintf("memory operand 0x%x exceeds the 32-bit address space", a)}
		}
		body = append(body, wasm.OpcodeI32Const)
		body = append(body, leb128.EncodeInt32(int32(a))...)
		return nil
	}
	emitBranch := func(target ir.Address) {
		if idx, ok := funcIndex[target]; ok {
			body = append(body, wasm.OpcodeCall)
			body = append(body, leb128.EncodeUint32(idx)...)
			body = append(body, wasm.OpcodeReturn)
			return
		}
		// A direct branch outside the translated region traps on entry.
		body = append(body, wasm.OpcodeUnreachable)
	}

	for _, op := range ops {
		switch o := op.(type) {
		case *ir.OperationLoad:
			if err := memAddr(o.Addr); err != nil {
				return nil, err
			}
			body = append(body, wasm.OpcodeI64Load, 0x03, 0x00) // align=8, offset=0
			setReg(o.Dest)
		case *ir.OperationStore:
			if err := memAddr(o.Addr); err != nil {
				return nil, err
			}
			getReg(o.Src)
			body = append(body, wasm.OpcodeI64Store, 0x03, 0x00)
		case *ir.OperationAdd:
			getReg(o.Src1)
			getReg(o.Src2)
			body = append(body, wasm.OpcodeI64Add)
			setReg(o.Dest)
		case *ir.OperationSub:
			getReg(o.Src1)
			getReg(o.Src2)
			body = append(body, wasm.OpcodeI64Sub)
			setReg(o.Dest)
		case *ir.OperationMul:
			getReg(o.Src1)
			getReg(o.Src2)
			body = append(body, wasm.OpcodeI64Mul)
			setReg(o.Dest)
		case *ir.OperationDiv:
			getReg(o.Src1)
			getReg(o.Src2)
			body = append(body, wasm.OpcodeI64DivS)
			setReg(o.Dest)
		case *ir.OperationJmp:
			emitBranch(o.Target)
		case *ir.OperationBrIfZero:
			getReg(o.Src)
			body = append(body, wasm.OpcodeI64Eqz)
			body = append(body, wasm.OpcodeIf, wasm.BlockTypeEmpty)
			emitBranch(o.Target)
			body = append(body, wasm.OpcodeEnd)
		case *ir.OperationCall:
			idx, err := c.callTarget(addr, o.Target, funcIndex)
			if err != nil {
				return nil, err
			}
			body = append(body, wasm.OpcodeCall)
			body = append(body, leb128.EncodeUint32(idx)...)
		case *ir.OperationRet:
			body = append(body, wasm.OpcodeEnd)
		case *ir.OperationSyscall:
			idx, ok := c.session.ImportIndex(SyscallImportName(o.ID))
			if !ok {
				return nil, &EncodingOverflowError{BlockAddr: addr, Detail: fmt.Sprintf("unresolved syscall %d", o.ID)}
			}
			body = append(body, wasm.OpcodeCall)
			body = append(body, leb128.EncodeUint32(idx)...)
		default:
			body = append(body, wasm.OpcodeNop)
		}
	}

	// Only a return lowers to the body's own closing end; any other
	// terminator (or an empty block) leaves the expression open and needs
	// one appended so the block/end nesting stays balanced.
	if n := len(ops); n == 0 || ops[n-1].Kind() != ir.OperationKindRet {
		body = append(body, wasm.OpcodeEnd)
	}

	localTypes := make([]wasm.ValueType, numLocals)
	for i := range localTypes {
		localTypes[i] = wasm.ValueTypeI64
	}
	return &wasm.Code{LocalTypes: localTypes, Body: body}, nil
}

// callTarget resolves a call target to a function index: a translated block
// first, then the import bound to the symbol defined at the target address.
func (c *Compiler) callTarget(blockAddr, target ir.Address, funcIndex map[ir.Address]wasm.Index) (wasm.Index, error) {
	if idx, ok := funcIndex[target]; ok {
		return idx, nil
	}
	if name, ok := c.session.LookupAddress(target); ok {
		if idx, ok := c.session.ImportIndex(name); ok {
			return idx, nil
		}
	}
	return 0, &EncodingOverflowError{BlockAddr: blockAddr, Detail: fmt.Sprintf("unresolved call target 0x%x", target)}
}

func sortedAddresses(blocks ir.BlockMap) []ir.Address {
	addrs := make([]ir.Address, 0, len(blocks))
	for addr := range blocks {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
