// Package link tracks symbol definitions and external import requirements
// for one translation, and serializes the resulting import section.
//
// A Session is the unit of linking: all state is owned by it, nothing is
// global, so concurrent translations cannot interfere. The linker itself
// never fails; an inconsistency it could cause (shadowed symbol, unresolved
// reference) surfaces later at the call site that depends on it.
package link

import (
	"sort"
	"sync"

	"github.com/xazalea/bellum/ir"
	"github.com/xazalea/bellum/wasm"
	"github.com/xazalea/bellum/wasm/binary"
)

// ImportModule is the first-level namespace all imports bind under.
const ImportModule = "env"

// Session owns the symbol table and import list for one link session. It is
// safe for concurrent use; during the discovery/resolution phase callers
// must still serialize index assignment, which the internal lock provides.
type Session struct {
	mu      sync.Mutex
	symbols map[string]ir.Address
	// imports holds external symbol names in index-assignment order;
	// indices is the inverse mapping.
	imports []string
	indices map[string]uint32
}

func NewSession() *Session {
	return &Session{
		symbols: map[string]ir.Address{},
		indices: map[string]uint32{},
	}
}

// DefineSymbol records the resolved address of name. A later definition for
// the same name silently shadows the earlier one; this is documented
// behavior, not an error.
func (s *Session) DefineSymbol(name string, addr ir.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[name] = addr
}

// Symbol returns the resolved address of name, if defined.
func (s *Session) Symbol(name string) (ir.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr, ok := s.symbols[name]
	return addr, ok
}

// LookupAddress returns a symbol name defined at addr. When several names
// share the address, the lexicographically smallest wins so that lookups are
// deterministic across runs.
func (s *Session) LookupAddress(addr ir.Address) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for name, a := range s.symbols {
		if a == addr {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

// ResolveImports assigns each distinct name the next unused import index in
// first-seen order and returns the full name→index mapping for this call.
// A name already on the import list keeps its existing index: resolution is
// idempotent, so call-site indices stay stable across calls.
func (s *Session) ResolveImports(names []string) map[string]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make(map[string]uint32, len(names))
	for _, name := range names {
		idx, ok := s.indices[name]
		if !ok {
			idx = uint32(len(s.imports))
			s.imports = append(s.imports, name)
			s.indices[name] = idx
		}
		resolved[name] = idx
	}
	return resolved
}

// ImportIndex returns the import index assigned to name, if any.
func (s *Session) ImportIndex(name string) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	return idx, ok
}

// ImportNames returns the import list in index-assignment order.
func (s *Session) ImportNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.imports...)
}

// Imports returns the import list as function imports of type index 0, in
// index-assignment order, for module assembly.
func (s *Session) Imports() []*wasm.Import {
	s.mu.Lock()
	defer s.mu.Unlock()

	imports := make([]*wasm.Import, len(s.imports))
	for i, name := range s.imports {
		imports[i] = &wasm.Import{
			Module:   ImportModule,
			Name:     name,
			Kind:     wasm.ImportKindFunc,
			DescFunc: 0,
		}
	}
	return imports
}

// GenerateImportSection serializes the current import list into the module's
// import section encoding, byte-for-byte in index-assignment order.
func (s *Session) GenerateImportSection() []byte {
	return binary.EncodeImportSection(s.Imports())
}
