// Package builtin implements the fixed, pre-registered built-in function
// table spec.md §4.1 requires ("Built-in functions are pre-registered") and
// the dotted system-module namespaces spec.md §6's Plugin ABI addresses
// directly ("regex.match", "base64.encode", ...), both grounded on
// original_source/.../compiler/extension/builtin/system_module/*.py.
//
// Two addressing schemes share this one registry:
//   - core, unnamespaced functions (len, str, typeof, ...) are compiled to
//     LOAD_BUILT_IN by index, the same fixed-index table Table/Names expose
//     in lockstep order for pkg/compiler.New and pkg/vm.WithBuiltins.
//   - namespaced functions (base64.encode, math.sqrt, ...) are reached two
//     ways: a KCL `import base64` binds the namespace's Dict of functions as
//     an ordinary package-like value (see pkg/vm's importName fallback), and
//     the Plugin ABI's context_invoke dispatches directly by dotted name
//     through Lookup, bypassing the bytecode layer entirely.
package builtin

import "github.com/kcl-lang/kclvm-go/pkg/value"

// Registry is the fully-populated built-in table a compiler/VM pair shares.
type Registry struct {
	names      []string
	table      []value.BuiltIn
	namespaces map[string]*value.Dict
}

// New builds the registry once; spec.md §1's "process-wide mutable... state
// is required other than a cache of resolved built-ins (read-only after
// initialization)" is honored by callers treating the result as immutable.
func New() *Registry {
	r := &Registry{namespaces: make(map[string]*value.Dict)}
	r.registerCore()
	r.registerNamespace("base64", base64Namespace())
	r.registerNamespace("crypto", cryptoNamespace())
	r.registerNamespace("json", jsonNamespace())
	r.registerNamespace("yaml", yamlNamespace())
	r.registerNamespace("regex", regexNamespace())
	r.registerNamespace("datetime", datetimeNamespace())
	r.registerNamespace("net", netNamespace())
	r.registerNamespace("units", unitsNamespace())
	r.registerNamespace("collection", collectionNamespace())
	r.registerNamespace("testing", testingNamespace())
	r.registerNamespace("math", mathNamespace())
	r.registerNamespace("util", utilNamespace())
	return r
}

func (r *Registry) add(b value.BuiltIn) {
	r.names = append(r.names, b.Name)
	r.table = append(r.table, b)
}

func (r *Registry) registerNamespace(name string, fns []value.BuiltIn) {
	d := value.NewDict()
	for _, fn := range fns {
		fn := fn
		d.Set(fn.Name, value.Value{Kind: value.KindBuiltIn, BuiltIn: &fn}, value.OpOverride)
	}
	r.namespaces[name] = d
}

// Names returns the core built-in table's names, index-aligned with Table
// — the order pkg/compiler.New(builtinNames) must be called with.
func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

// Table returns the core built-in function values, index-aligned with
// Names — passed to pkg/vm.WithBuiltins.
func (r *Registry) Table() []value.BuiltIn { return append([]value.BuiltIn(nil), r.table...) }

// Namespace returns the dotted system module named name (e.g. "base64"),
// as a Dict of its functions, for IMPORT_NAME's built-in-namespace fallback.
func (r *Registry) Namespace(name string) (*value.Dict, bool) {
	d, ok := r.namespaces[name]
	return d, ok
}

// AllNamespaces returns every registered system module keyed by its import
// name, for pkg/vm.WithNamespaces to install as IMPORT_NAME's fallback
// table in one call.
func (r *Registry) AllNamespaces() map[string]*value.Dict {
	out := make(map[string]*value.Dict, len(r.namespaces))
	for k, v := range r.namespaces {
		out[k] = v
	}
	return out
}

// Lookup resolves a Plugin-ABI-style dotted method name ("regex.match") or
// an unprefixed core name ("len", resolved under "builtin." per spec.md
// §6) directly, without going through the bytecode/import layer at all.
func (r *Registry) Lookup(dotted string) (value.BuiltIn, bool) {
	ns, fn := splitDotted(dotted)
	if ns == "" {
		for i, name := range r.names {
			if name == fn {
				return r.table[i], true
			}
		}
		return value.BuiltIn{}, false
	}
	d, ok := r.namespaces[ns]
	if !ok {
		return value.BuiltIn{}, false
	}
	v, ok := d.Get(fn)
	if !ok || v.Kind != value.KindBuiltIn {
		return value.BuiltIn{}, false
	}
	return *v.BuiltIn, true
}

func splitDotted(s string) (ns, name string) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[:i], s[i+1:]
		}
	}
	return "", s
}
