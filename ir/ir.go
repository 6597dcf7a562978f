// Package ir defines the architecture-neutral intermediate representation
// native machine code is lifted into before being lowered to WebAssembly.
//
// Operations reference registers by index into an unbounded virtual register
// file and memory by absolute native-code address. Addresses are assigned at
// lift time and never rewritten afterwards.
package ir

import "fmt"

// Register is an index into the virtual register file. There is no fixed
// register count; decoders may use any index.
type Register = uint32

// RegZero is a virtual register pinned to zero. Reads always produce zero
// and writes are discarded. ARM64's xzr maps onto it directly; the x86-64
// decoder uses it to express register moves as additions with zero.
const RegZero Register = 31

// Address is an absolute address in the source binary's address space.
type Address = uint64

// BlockMap maps a basic block's start address to its operations. Every block
// is non-empty and its last operation satisfies IsBlockEnd.
type BlockMap map[Address][]Operation

// Operation is one IR operation. The set of implementations is closed.
type Operation interface {
	Kind() OperationKind
}

type OperationKind byte

const (
	OperationKindLoad OperationKind = iota
	OperationKindStore
	OperationKindAdd
	OperationKindSub
	OperationKindMul
	OperationKindDiv
	OperationKindJmp
	OperationKindBrIfZero
	OperationKindCall
	OperationKindRet
	OperationKindSyscall
)

func (o OperationKind) String() (ret string) {
	switch o {
	case OperationKindLoad:
		ret = "Load"
	case OperationKindStore:
		ret = "Store"
	case OperationKindAdd:
		ret = "Add"
	case OperationKindSub:
		ret = "Sub"
	case OperationKindMul:
		ret = "Mul"
	case OperationKindDiv:
		ret = "Div"
	case OperationKindJmp:
		ret = "Jmp"
	case OperationKindBrIfZero:
		ret = "BrIfZero"
	case OperationKindCall:
		ret = "Call"
	case OperationKindRet:
		ret = "Ret"
	case OperationKindSyscall:
		ret = "Syscall"
	default:
		panic(fmt.Errorf("unknown operation kind: %d", o))
	}
	return
}

// OperationLoad reads the value at Addr into Dest.
type OperationLoad struct {
	Dest Register
	Addr Address
}

func (o *OperationLoad) Kind() OperationKind { return OperationKindLoad }

// OperationStore writes Src to Addr.
type OperationStore struct {
	Addr Address
	Src  Register
}

func (o *OperationStore) Kind() OperationKind { return OperationKindStore }

// OperationAdd computes Dest = Src1 + Src2. With Src2 == RegZero it is a
// register move.
type OperationAdd struct {
	Dest, Src1, Src2 Register
}

func (o *OperationAdd) Kind() OperationKind { return OperationKindAdd }

// OperationSub computes Dest = Src1 - Src2.
type OperationSub struct {
	Dest, Src1, Src2 Register
}

func (o *OperationSub) Kind() OperationKind { return OperationKindSub }

// OperationMul computes Dest = Src1 * Src2.
type OperationMul struct {
	Dest, Src1, Src2 Register
}

func (o *OperationMul) Kind() OperationKind { return OperationKindMul }

// OperationDiv computes Dest = Src1 / Src2.
type OperationDiv struct {
	Dest, Src1, Src2 Register
}

func (o *OperationDiv) Kind() OperationKind { return OperationKindDiv }

// OperationJmp transfers control to the block at Target.
type OperationJmp struct {
	Target Address
}

func (o *OperationJmp) Kind() OperationKind { return OperationKindJmp }

// OperationBrIfZero transfers control to the block at Target when Src is
// zero, otherwise falls through.
type OperationBrIfZero struct {
	Src    Register
	Target Address
}

func (o *OperationBrIfZero) Kind() OperationKind { return OperationKindBrIfZero }

// OperationCall invokes the procedure at Target and falls through on return.
// Targets outside the translated region resolve through the link session.
type OperationCall struct {
	Target Address
}

func (o *OperationCall) Kind() OperationKind { return OperationKindCall }

// OperationRet returns from the current procedure.
type OperationRet struct{}

func (o *OperationRet) Kind() OperationKind { return OperationKindRet }

// OperationSyscall transfers to the external environment. ID selects the
// host function; binding happens through the link session's import list.
type OperationSyscall struct {
	ID uint32
}

func (o *OperationSyscall) Kind() OperationKind { return OperationKindSyscall }

// IsBlockEnd returns true if op terminates a basic block: an unconditional
// or conditional branch, a call (fallthrough starts a new block), or a
// return.
func IsBlockEnd(op Operation) bool {
	switch op.Kind() {
	case OperationKindJmp, OperationKindBrIfZero, OperationKindCall, OperationKindRet:
		return true
	}
	return false
}
