package plugin

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	goplugin "plugin"
	"sync"

	"github.com/kcl-lang/kclvm-go/pkg/builtin"
)

// nativeFunc is the calling convention every plugin shared object exports a
// symbol under (see template.go's sourceTemplate): positional args, keyword
// args, and a (result, error) pair that round-trips through JSON.
type nativeFunc = func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// Context is the Go-native stand-in for spec.md §6's three C entry points.
// A real context_new/context_delete/context_invoke C ABI (exposed to a
// calling process via cgo) would wrap exactly this type; nothing in this
// module links against cgo today; see DESIGN.md's pkg/plugin entry.
type Context struct {
	host     *Host
	builtins *builtin.Registry

	mu      sync.Mutex
	loaded  map[string]*goplugin.Plugin
	symbols map[string]nativeFunc
}

// NewContext implements context_new: a fresh invocation context bound to a
// plugin root and the fixed built-in registry.
func NewContext(host *Host, builtins *builtin.Registry) *Context {
	return &Context{
		host:     host,
		builtins: builtins,
		loaded:   make(map[string]*goplugin.Plugin),
		symbols:  make(map[string]nativeFunc),
	}
}

// table is a process-wide handle table; context_new/context_delete/
// context_invoke as spec.md §6 describes them are free functions keyed by
// an opaque handle, not methods on a Go value a C caller could hold — this
// is the thinnest layer translating between the two.
type table struct {
	mu       sync.Mutex
	next     int64
	contexts map[int64]*Context
}

var handles = &table{contexts: make(map[int64]*Context)}

// ContextNew implements context_new() → handle.
func ContextNew(host *Host, builtins *builtin.Registry) int64 {
	handles.mu.Lock()
	defer handles.mu.Unlock()
	handles.next++
	h := handles.next
	handles.contexts[h] = NewContext(host, builtins)
	return h
}

// ContextDelete implements context_delete(handle).
func ContextDelete(handle int64) {
	handles.mu.Lock()
	defer handles.mu.Unlock()
	delete(handles.contexts, handle)
}

// ContextInvoke implements context_invoke(handle, method, args_json,
// kwargs_json) → json_result.
func ContextInvoke(handle int64, method string, argsJSON, kwargsJSON []byte) ([]byte, error) {
	handles.mu.Lock()
	ctx, ok := handles.contexts[handle]
	handles.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("plugin: no such context handle %d", handle)
	}
	return ctx.Invoke(method, argsJSON, kwargsJSON)
}

// Invoke dispatches a dotted method name. Per spec.md §6, "method is a
// dotted identifier (regex.match, base64.encode, str.startswith, …);
// unprefixed names resolve under builtin." — Lookup already honors both
// forms (see pkg/builtin.Registry.Lookup), so an unprefixed name and a
// "builtin."-prefixed name are tried there first; only a namespace that
// Lookup does not recognize falls through to a loaded plugin .so.
func (c *Context) Invoke(method string, argsJSON, kwargsJSON []byte) ([]byte, error) {
	args, kwargs, err := decodeCall(argsJSON, kwargsJSON)
	if err != nil {
		return nil, err
	}

	ns, name := splitMethod(method)
	if ns == "" || ns == "builtin" {
		if bfn, ok := c.builtins.Lookup(name); ok {
			return callBuiltIn(bfn, args, kwargs)
		}
	} else if bfn, ok := c.builtins.Lookup(method); ok {
		return callBuiltIn(bfn, args, kwargs)
	}

	if ns == "" {
		return nil, fmt.Errorf("plugin: unknown built-in %q", name)
	}
	fn, err := c.resolveNative(ns, name)
	if err != nil {
		return nil, err
	}
	result, err := fn(args, kwargs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// resolveNative loads (and caches) the shared object for a plugin namespace
// and looks up the exported symbol for name, translated from KCL's
// snake_case convention to Go's exported CamelCase the way template.go's
// generated source names its functions (say_hello → SayHello).
func (c *Context) resolveNative(ns, name string) (nativeFunc, error) {
	key := ns + "." + name
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn, ok := c.symbols[key]; ok {
		return fn, nil
	}
	p, ok := c.loaded[ns]
	if !ok {
		path := filepath.Join(c.host.pluginDir(ns), ns+".so")
		opened, err := goplugin.Open(path)
		if err != nil {
			return nil, fmt.Errorf("plugin: loading %q: %w", ns, err)
		}
		c.loaded[ns] = opened
		p = opened
	}
	sym, err := p.Lookup(exportedName(name))
	if err != nil {
		return nil, fmt.Errorf("plugin: %s has no function %q: %w", ns, name, err)
	}
	fn, ok := sym.(nativeFunc)
	if !ok {
		return nil, fmt.Errorf("plugin: %s.%s does not implement the plugin ABI", ns, name)
	}
	c.symbols[key] = fn
	return fn, nil
}

// exportedName converts a snake_case ABI name (say_hello) to the Go
// exported identifier a plugin .so built from template.go's source
// actually exports (SayHello).
func exportedName(name string) string {
	out := make([]byte, 0, len(name))
	upperNext := true
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch == '_' {
			upperNext = true
			continue
		}
		if upperNext && ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		upperNext = false
		out = append(out, ch)
	}
	return string(out)
}

func splitMethod(method string) (ns, name string) {
	for i := len(method) - 1; i >= 0; i-- {
		if method[i] == '.' {
			return method[:i], method[i+1:]
		}
	}
	return "", method
}

func decodeCall(argsJSON, kwargsJSON []byte) ([]interface{}, map[string]interface{}, error) {
	var args []interface{}
	if len(argsJSON) > 0 {
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			return nil, nil, fmt.Errorf("plugin: decoding args: %w", err)
		}
	}
	kwargs := map[string]interface{}{}
	if len(kwargsJSON) > 0 {
		if err := json.Unmarshal(kwargsJSON, &kwargs); err != nil {
			return nil, nil, fmt.Errorf("plugin: decoding kwargs: %w", err)
		}
	}
	return args, kwargs, nil
}
