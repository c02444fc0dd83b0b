package value

import (
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/symtable"
)

// Settings carries the per-instance flags that influence how a Schema
// participates in checks, serialization, and index-signature enforcement
// (spec.md §3 Value / "Schema Instance").
type Settings struct {
	Check          bool
	IndexSignature *IndexSignature
	Relaxed        bool
	OptionalMask   map[string]bool
}

// IndexSignature is a schema's `[K]: V` declaration, permitting additional
// attributes beyond the declared set whose keys/values satisfy the given
// kinds (spec.md GLOSSARY).
type IndexSignature struct {
	KeyName  string
	KeyKind  Kind
	ValKind  Kind
	KeyAlias string
}

// Schema is a constructed schema instance: its declared type name, its
// ordered attribute dict, and the settings governing check/index-signature
// behavior. A Schema behaves as a Dict for iteration (spec.md §3).
type Schema struct {
	TypeRef  string
	Attrs    *Dict
	Settings Settings

	// tracking holds the per-attribute cycle-detection counter used by the
	// VM's lazy attribute evaluator (spec.md §4.5 "Lazy attribute evaluation
	// and backtracking"). It is runtime-only state, not part of the value's
	// structural identity.
	tracking map[string]int
	cache    map[string]Value
	// stores records the source position of the last STORE_LOCAL that wrote
	// each attribute (or of the BUILD_SCHEMA that seeded it from inherited
	// or config values), so a failing check can point a secondary span at the
	// assignment that produced the offending value rather than only at the
	// check condition itself.
	stores map[string]diagnostic.Position
}

// NewSchema creates an empty instance of the named schema type.
func NewSchema(typeRef string) *Schema {
	return &Schema{
		TypeRef:  typeRef,
		Attrs:    NewDict(),
		tracking: make(map[string]int),
		cache:    make(map[string]Value),
		stores:   make(map[string]diagnostic.Position),
	}
}

// TrackingLevel returns the current re-entrancy depth for attribute k.
func (s *Schema) TrackingLevel(k string) int { return s.tracking[k] }

// EnterAttr increments k's tracking level and returns the new level, the
// level a re-entrant call into k while it is already at that level
// constitutes a detected cycle (spec.md §4.5).
func (s *Schema) EnterAttr(k string) int {
	s.tracking[k]++
	return s.tracking[k]
}

// ExitAttr decrements k's tracking level on normal or error exit from its
// initializer.
func (s *Schema) ExitAttr(k string) {
	if s.tracking[k] > 0 {
		s.tracking[k]--
	}
}

// CachedAttr returns the memoized value for k, if the initializer has
// already run to completion for this instance (Testable Property 6).
func (s *Schema) CachedAttr(k string) (Value, bool) {
	v, ok := s.cache[k]
	return v, ok
}

// CacheAttr memoizes v as the final value of attribute k.
func (s *Schema) CacheAttr(k string, v Value) {
	s.cache[k] = v
}

// RecordAttrStore notes pos as the latest place attribute k was assigned.
func (s *Schema) RecordAttrStore(k string, pos diagnostic.Position) {
	s.stores[k] = pos
}

// AttrStorePos returns the last recorded store position for attribute k.
func (s *Schema) AttrStorePos(k string) (diagnostic.Position, bool) {
	pos, ok := s.stores[k]
	return pos, ok
}

// Function is a callable value: either compiled (executed by the VM against
// a Bytecode Module entry point) or built-in (a host-native Go function).
// Exactly one of ModuleRef/Native is meaningful, selected by IsBuiltIn
// (spec.md §3 Value / "Function").
//
// NumLocals and FreeVarSpecs are carried over from the compiler's
// FunctionConst (pkg/compiler) so MAKE_FUNCTION can size a call frame and
// snapshot captured values out of the defining frame without pkg/value
// importing pkg/compiler: FreeVarSpecs names, for each capture, where in the
// defining frame (LOCAL index or FREE index) its value lives (spec.md §9
// "Free variables").
type Function struct {
	Name       string
	IsBuiltIn  bool
	ModuleRef  interface{} // *bytecode.Module; interface{} to avoid an import cycle
	EntryPC    int
	Params     []Param
	Native     BuiltInFunc
	FreeSlots  int
	NumLocals    int
	FreeVarSpecs []symtable.Symbol
}

// Param is one declared parameter: its name and, if it has one, its default
// value expression result, pre-evaluated at definition time (spec.md §4.3
// "Lambda").
type Param struct {
	Name      string
	HasDefault bool
	Default   Value
	Starred   bool // *args
	DoubleStarred bool // **kwargs
}

// BuiltInFunc is the Go-native shape every built-in function implements;
// args are already positionally/keyword-bound by the caller.
type BuiltInFunc func(args []Value) (Value, error)

// BuiltIn pairs a native callable with its dotted dispatch name (e.g.
// "regex.match"), used by both the VM's LOAD_BUILT_IN path and the plugin
// ABI's "unprefixed names resolve under builtin." rule (spec.md §6).
type BuiltIn struct {
	Name string
	Fn   BuiltInFunc
}

// Closure pairs a Function with the free-variable slots it captured at
// definition time (spec.md §3 Value / "Closure", §9 "Free variables").
type Closure struct {
	Fn   *Function
	Free []Value
}

// DecoratorTarget distinguishes what kind of declaration a Decorator may be
// attached to.
type DecoratorTarget int

const (
	TargetSchemaType DecoratorTarget = iota
	TargetAttribute
)

// Decorator is a named, invokable-at-bind-time annotation such as
// `@deprecated` (spec.md §3 Value / "Decorator", §9 "Decorators").
type Decorator struct {
	Name   string
	Target DecoratorTarget
	Args   []Value
	Kwargs map[string]Value
}
