package compile

import "github.com/xazalea/bellum/ir"

// Optimize applies the identity-arithmetic peephole pass to one block's
// operations in place and returns the possibly shortened slice.
//
// The pass only deletes operations, so it never reorders across a control
// transfer; the final operation is exempt, so a block's terminator survives
// unconditionally. Running the pass again is a no-op.
func Optimize(ops []ir.Operation) []ir.Operation {
	out := ops[:0]
	for i, op := range ops {
		if i != len(ops)-1 && isIdentityArithmetic(op) {
			continue
		}
		out = append(out, op)
	}
	return out
}

// isIdentityArithmetic reports whether op provably leaves its destination
// unchanged: adding the zero register to itself, or subtracting it.
func isIdentityArithmetic(op ir.Operation) bool {
	switch o := op.(type) {
	case *ir.OperationAdd:
		return (o.Src2 == ir.RegZero && o.Dest == o.Src1) ||
			(o.Src1 == ir.RegZero && o.Dest == o.Src2)
	case *ir.OperationSub:
		return o.Src2 == ir.RegZero && o.Dest == o.Src1
	}
	return false
}
