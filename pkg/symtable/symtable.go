// Package symtable implements the per-scope symbol table that the compiler
// consults to turn every identifier reference into a scope-specific load or
// store opcode (spec.md §4.1). There is no run-time counterpart: once the
// compiler has resolved every reference to an index, the scope chain is
// discarded.
package symtable

// ScopeKind classifies where a Symbol's value physically lives at run time.
type ScopeKind string

// The five scope kinds from spec.md §3. This mirrors the GLOBAL/LOCAL/
// BUILTIN/FREE vocabulary used by compiler/symbol_table.go-style symbol
// tables, extended with INTERNAL for reserved dotted-path segment names.
const (
	GLOBAL   ScopeKind = "GLOBAL"
	LOCAL    ScopeKind = "LOCAL"
	BUILT_IN ScopeKind = "BUILT_IN"
	FREE     ScopeKind = "FREE"
	INTERNAL ScopeKind = "INTERNAL"
)

// Symbol is a single named binding: its defining scope, its index within
// that scope, and how many times it has been (re)defined under the same
// public name.
type Symbol struct {
	Name            string
	Index           int
	Scope           ScopeKind
	DefinitionCount int
}

// IsPrivate reports whether the symbol's name starts with an underscore.
// Private symbols are never promoted to globally-visible outputs
// (spec.md §3).
func (s Symbol) IsPrivate() bool {
	return len(s.Name) > 0 && s.Name[0] == '_'
}

// Scope is a single lexical scope: a name->Symbol store, a chain to the
// enclosing scope, and the ordered list of symbols this scope had to
// capture from an outer scope (its free variables).
type Scope struct {
	Outer          *Scope
	store          map[string]Symbol
	FreeSymbols    []Symbol
	numDefinitions int

	// global marks this scope as a GLOBAL-producing scope for Define — true
	// for the builtins root and for a package's own top-level scope, false
	// for everything nested inside a package (schema body, rule body, lambda
	// body). It is an explicit flag rather than inferred from Outer == nil
	// because a package's top-level scope is itself enclosed by the shared
	// builtins scope (so its own names resolve outward to BUILT_IN) while
	// still needing to produce GLOBAL symbols for its own assignments.
	global bool
}

// New creates a top-level (GLOBAL) scope with no outer scope.
func New() *Scope {
	return &Scope{store: make(map[string]Symbol), global: true}
}

// NewEnclosed creates a scope nested inside outer for a schema body, rule
// body, or lambda body. Symbols defined directly in the new scope are
// LOCAL; symbols resolved from outer through it are captured as FREE.
func NewEnclosed(outer *Scope) *Scope {
	return &Scope{store: make(map[string]Symbol), Outer: outer}
}

// NewPackageScope creates a package's own top-level scope, enclosed by the
// shared builtins scope so built-in names resolve through it, but itself
// producing GLOBAL symbols for the package's own assignments (spec.md §4.1
// "package scope" — the scope whose bindings are visible to other packages
// importing this one and to the VM's final output assembly).
func NewPackageScope(builtins *Scope) *Scope {
	return &Scope{store: make(map[string]Symbol), Outer: builtins, global: true}
}

// Define creates a symbol at the next free index in this scope and returns
// it along with whether a symbol of the same name already existed.
//
// A private name (leading underscore) always creates a fresh binding, even
// if one already exists, because private names are scope-local by
// convention and are never meant to be referenced by a stable slot across
// redefinitions. A public GLOBAL redefinition, by contrast, must keep
// targeting the same slot so that every STORE_GLOBAL emitted so far still
// lands in the right place — so Define returns the *existing* symbol in
// that case but still bumps DefinitionCount, since callers use the count to
// detect "this name has been assigned more than once" for diagnostics.
func (s *Scope) Define(name string) (Symbol, bool) {
	if existing, ok := s.store[name]; ok && s.isGlobalRedefinition(name) {
		existing.DefinitionCount++
		s.store[name] = existing
		return existing, true
	}

	sym := Symbol{Name: name, Index: s.numDefinitions}
	if s.global {
		sym.Scope = GLOBAL
	} else {
		sym.Scope = LOCAL
	}
	sym.DefinitionCount = 1

	s.store[name] = sym
	s.numDefinitions++
	return sym, false
}

// isGlobalRedefinition reports whether name is already bound as a public
// GLOBAL symbol in this very scope (private names and non-global scopes
// never hit this path — see Define).
func (s *Scope) isGlobalRedefinition(name string) bool {
	if len(name) > 0 && name[0] == '_' {
		return false
	}
	existing, ok := s.store[name]
	return ok && existing.Scope == GLOBAL
}

// DefineInternal reserves name as an INTERNAL symbol: visible only within
// this scope, used to reserve attribute names inside dotted assignment
// paths (spec.md §3, e.g. `a.b.c` declares `b` and `c` as INTERNAL in the
// current scope so that later code compiling the same path sees them as
// already-reserved rather than as fresh globals/locals).
func (s *Scope) DefineInternal(name string) Symbol {
	sym := Symbol{Name: name, Index: s.numDefinitions, Scope: INTERNAL, DefinitionCount: 1}
	s.store[name] = sym
	s.numDefinitions++
	return sym
}

// DefineBuiltin pre-registers a built-in function at a caller-supplied,
// stable index. Built-ins live in a fixed table shared by every scope, so
// their index is not drawn from numDefinitions.
func (s *Scope) DefineBuiltin(name string, index int) Symbol {
	sym := Symbol{Name: name, Index: index, Scope: BUILT_IN, DefinitionCount: 1}
	s.store[name] = sym
	return sym
}

// defineFree promotes an outer symbol into a FREE slot of this scope,
// appending it to FreeSymbols in first-capture order, and rebinds the local
// name to the FREE wrapper so that subsequent resolutions in this scope (and
// scopes nested inside it) see the capture instead of re-walking outward.
func (s *Scope) defineFree(original Symbol) Symbol {
	s.FreeSymbols = append(s.FreeSymbols, original)
	sym := Symbol{Name: original.Name, Index: len(s.FreeSymbols) - 1, Scope: FREE, DefinitionCount: 1}
	s.store[original.Name] = sym
	return sym
}

// DefineFree is the exported form of defineFree, used by the compiler when
// it needs to force a capture ahead of the normal Resolve path (for example
// while pre-binding a lambda's declared free variables).
func (s *Scope) DefineFree(original Symbol) Symbol {
	return s.defineFree(original)
}

// Resolve looks up name, walking outward through enclosing scopes. A local
// hit is returned as-is. A hit in an outer scope that is GLOBAL or BUILT_IN
// is returned as-is (those are reachable from anywhere without capture). A
// hit that is INTERNAL is hidden — it does not leak across the scope
// boundary it was reserved in. Any other outer hit (LOCAL or FREE) is
// captured as a FREE symbol of the current scope.
func (s *Scope) Resolve(name string) (Symbol, bool) {
	if sym, ok := s.store[name]; ok {
		return sym, true
	}
	if s.Outer == nil {
		return Symbol{}, false
	}

	outer, ok := s.Outer.Resolve(name)
	if !ok {
		return Symbol{}, false
	}
	if outer.Scope == INTERNAL {
		return Symbol{}, false
	}
	if outer.Scope == GLOBAL || outer.Scope == BUILT_IN {
		return outer, true
	}
	return s.defineFree(outer), true
}

// Delete removes name from this scope only if it is currently bound to the
// given kind; used to undo speculative definitions made while lowering a
// nested identifier path that turned out not to need them.
func (s *Scope) Delete(name string, kind ScopeKind) {
	if sym, ok := s.store[name]; ok && sym.Scope == kind {
		delete(s.store, name)
	}
}

// LocalNames returns the names of this scope's directly-defined LOCAL/GLOBAL
// symbols ordered by Index, the same order their values occupy a frame's
// locals array at run time. Used by schema-body compilation to recover,
// after the body scope is otherwise discarded, which local slots correspond
// to declared attributes (spec.md §4.5 "Construction of schemas").
func (s *Scope) LocalNames() []string {
	names := make([]string, s.numDefinitions)
	for name, sym := range s.store {
		if (sym.Scope == LOCAL || sym.Scope == GLOBAL) && sym.Index < s.numDefinitions {
			names[sym.Index] = name
		}
	}
	return names
}

// NumDefinitions returns the number of symbols defined directly in this
// scope (not counting BUILT_IN or FREE symbols, which are not drawn from
// this counter). Used to size a frame's locals slot array at compile time.
func (s *Scope) NumDefinitions() int {
	return s.numDefinitions
}
