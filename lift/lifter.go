// Package lift decodes native machine code into the architecture-neutral IR.
//
// Decoding is best-effort: each architecture carries a priority-ordered
// decode table, unrecognized bytes are skipped one at a time, and decoding
// never halts mid-buffer. Only a structurally unreadable input fails.
package lift

import (
	"errors"
	"fmt"

	"github.com/xazalea/bellum/ir"
)

// Arch tags the source instruction set of a byte buffer. The set is open:
// unknown tags lift to an empty block map rather than failing, so mixed
// binaries with unsupported regions still translate partially.
type Arch string

const (
	ArchX8664 Arch = "x86-64"
	ArchARM64 Arch = "arm64"
)

// ErrInvalidBinary is returned when the input buffer is structurally
// unreadable: empty, or an image that would wrap the 64-bit address space.
var ErrInvalidBinary = errors.New("invalid binary")

// decoder matches the bytes at the start of remaining, whose first byte sits
// at address pc, and returns the lifted operations plus the number of bytes
// consumed. size == 0 means no pattern matched.
type decoder interface {
	decode(remaining []byte, pc uint64) (ops []ir.Operation, size int)
}

// Lift decodes bin, an image loaded at address entry, into a block map.
//
// Blocks accumulate until a block-end operation is decoded, then move into
// the map keyed by the address of their first operation. A key already
// present is never overwritten. A trailing accumulator with no terminator is
// discarded, so every returned block ends in a control transfer.
func Lift(arch Arch, bin []byte, entry uint64) (ir.BlockMap, error) {
	if len(bin) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidBinary)
	}
	if entry+uint64(len(bin)) < entry {
		return nil, fmt.Errorf("%w: image at 0x%x wraps the address space", ErrInvalidBinary, entry)
	}

	blocks := ir.BlockMap{}
	d := newDecoder(arch)
	if d == nil {
		// Unsupported architectures degrade to an empty result so that
		// multi-architecture binaries keep translating.
		return blocks, nil
	}

	var current []ir.Operation
	var blockStart uint64
	i := 0
	for i < len(bin) {
		pc := entry + uint64(i)
		ops, size := d.decode(bin[i:], pc)
		if size == 0 {
			// Resynchronize on unrecognized or truncated bytes.
			i++
			continue
		}
		if len(ops) > 0 && len(current) == 0 {
			blockStart = pc
		}
		current = append(current, ops...)
		i += size

		if len(current) > 0 && ir.IsBlockEnd(current[len(current)-1]) {
			if _, ok := blocks[blockStart]; !ok {
				blocks[blockStart] = current
			}
			current = nil
		}
	}
	return blocks, nil
}

func newDecoder(arch Arch) decoder {
	switch arch {
	case ArchX8664:
		return &x64Decoder{}
	case ArchARM64:
		return arm64Decoder{}
	}
	return nil
}
