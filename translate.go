// Package bellum statically translates native machine code (x86-64, ARM64)
// into WebAssembly modules.
//
// The pipeline lifts a byte buffer into an architecture-neutral IR,
// optionally runs a peephole pass, lowers each basic block to one exported
// wasm function, and resolves external references through a link session
// into the module's import section. It is a pure in-memory library: no I/O,
// no persisted state, one Translator per link session.
package bellum

import (
	"github.com/xazalea/bellum/compile"
	"github.com/xazalea/bellum/ir"
	"github.com/xazalea/bellum/lift"
	"github.com/xazalea/bellum/link"
)

// TranslateConfig tunes a Translator. The zero value is valid.
type TranslateConfig struct {
	// OptimizationLevel selects the peephole passes applied before
	// lowering: 0 disables optimization, 1 and above enable the
	// identity-arithmetic elimination pass.
	OptimizationLevel int
}

// Translator runs the lift → link → compile pipeline against one link
// session. Symbols defined on it are visible to every Translate call, and
// import indices stay stable across calls for the Translator's lifetime.
type Translator struct {
	session  *link.Session
	compiler *compile.Compiler
}

func NewTranslator(config TranslateConfig) *Translator {
	session := link.NewSession()
	return &Translator{
		session:  session,
		compiler: compile.NewCompiler(config.OptimizationLevel, session),
	}
}

// DefineSymbol records the address of an external procedure so call sites
// referencing it resolve into the import section. Later definitions for the
// same name shadow earlier ones.
func (t *Translator) DefineSymbol(name string, addr uint64) {
	t.session.DefineSymbol(name, addr)
}

// Session exposes the underlying link session, e.g. to serialize the import
// section independently of a whole module.
func (t *Translator) Session() *link.Session {
	return t.session
}

// TranslatedModule is the output of one Translate call.
type TranslatedModule struct {
	// Binary is a structurally valid WebAssembly module: magic and version
	// followed by Type, Import, Function, Memory, Export and Code sections.
	Binary []byte
	// Imports maps each required external symbol name to its function
	// index. The host binds these before instantiating Binary.
	Imports map[string]uint32
}

// Translate lifts bin, an image of arch machine code loaded at entry, and
// compiles it into a wasm module. An unsupported arch yields a module with
// no functions rather than an error, so mixed binaries translate partially.
func (t *Translator) Translate(arch lift.Arch, bin []byte, entry uint64) (*TranslatedModule, error) {
	blocks, err := lift.Lift(arch, bin, entry)
	if err != nil {
		return nil, err
	}
	return t.TranslateBlocks(blocks)
}

// TranslateBlocks compiles an already-lifted block map, for hosts that run
// the lifter separately or merge maps from several regions.
func (t *Translator) TranslateBlocks(blocks ir.BlockMap) (*TranslatedModule, error) {
	out, err := t.compiler.Compile(blocks)
	if err != nil {
		return nil, err
	}

	imports := map[string]uint32{}
	for i, name := range t.session.ImportNames() {
		imports[name] = uint32(i)
	}
	return &TranslatedModule{Binary: out, Imports: imports}, nil
}
