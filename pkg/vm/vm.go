// Package vm implements the evaluator (spec.md §4.5): the stack-based
// virtual machine that fetches, decodes, and executes a compiled
// pkg/bytecode.Module, producing the pkg/value tree a planner later
// serializes. It is the final stage of the pipeline
// Source -> AST -> Compiler -> Bytecode -> VM -> Output.
//
// Execution model: every frame shares one VM-wide value stack, in the same
// stack-plus-stack-pointer shape a fixed-size bytecode VM uses; here the
// stack grows dynamically since KCL programs do not have CPython's
// statically known maximum stack depth per frame. A frame's own state — its
// instruction pointer, locals array, captured free-variable slots, and
// owning package — lives in a Frame value. Calling into a nested frame
// (CALL_FUNCTION, BUILD_SCHEMA's body run, a rule invocation) is an
// ordinary recursive Go call to run(); RETURN_VALUE unwinds it by returning
// from that call, leaving the shared stack exactly as the caller expects:
// one pushed result value on top of whatever was there before the call.
package vm

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
	"github.com/kcl-lang/kclvm-go/pkg/compiler"
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/mangle"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// Frame is one activation record: a running instance of a Module's
// instruction stream. Package-top-level code, a schema body, a lambda
// body, and a rule body each run in their own Frame.
type Frame struct {
	module *bytecode.Module
	ip     int
	locals []value.Value
	free   []value.Value

	pkg         *Package                    // owning package, for LOAD_NAME/STORE_GLOBAL/IMPORT_*
	schema      *value.Schema               // non-nil while running a schema body (BUILD_SCHEMA)
	schemaConst *compiler.SchemaTypeConst   // non-nil alongside schema; source of AttrInits for LOAD_ATTR_LAZY
	name        string                      // for stack traces: "<package>", "<lambda>", a schema name, ...
}

// Package is one compiled package's run-time state. Globals is backed
// directly by a live *value.Dict rather than a plain Go map wrapped
// afterward, so that the Value pushed for `import path as alias` shares the
// exact same Dict object the package's own frame continues to mutate via
// STORE_GLOBAL as it runs (spec.md §4.1, §4.3 "Import") — this is what lets
// a cyclic import observe the importing package's bindings as they are
// populated, without a separate two-phase register-then-backfill step.
type Package struct {
	Path    string
	Module  *bytecode.Module
	Globals *value.Dict

	running bool // IMPORT_NAME re-entrancy guard for cyclic imports
	done    bool
}

// VM executes one compiled program: an entry Module plus every package it
// (transitively) may import, against a shared value stack, global schema
// type registry, and built-in function table.
type VM struct {
	stack []value.Value

	packages map[string]*Package
	modules  map[string]*bytecode.Module

	// schemaTypes is a single VM-wide registry keyed by mangled schema name,
	// not scoped per importing package. A real import-alias-aware namespace
	// would key this per package, but spec.md §1 places a type checker out
	// of scope for this system, so there is no import-alias resolution layer
	// to key against in the first place; every schema name compiled anywhere
	// in the program is visible VM-wide (spec.md §4.5 "Construction of
	// schemas"). Documented here as a deliberate simplification.
	schemaTypes map[string]*compiler.SchemaTypeConst

	builtins   []value.BuiltIn
	namespaces map[string]*value.Dict

	diags       *diagnostic.Bag
	log         *logrus.Logger
	strictRange bool // spec.md §4.4 "range-check flag"

	mainPackage string // set by Run; IMPORT_NAME rejects importing this package from elsewhere
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithStrictRange enables the 32-bit int/float range checks of spec.md
// §4.4 Testable Property 8 (disabled by default, matching a 64-bit host's
// native range).
func WithStrictRange(strict bool) Option {
	return func(vm *VM) { vm.strictRange = strict }
}

// WithLogger overrides the VM's structured logger (default: logrus's
// standard logger, at whatever level it is set to; logrus starts at Info).
func WithLogger(l *logrus.Logger) Option {
	return func(vm *VM) { vm.log = l }
}

// WithBuiltins installs the built-in function table, indexed the same way
// pkg/compiler's New(builtinNames) assigned BUILT_IN symbol indices, so
// LOAD_BUILT_IN's operand indexes directly into it.
func WithBuiltins(builtins []value.BuiltIn) Option {
	return func(vm *VM) { vm.builtins = builtins }
}

// WithNamespaces installs the dotted system-module namespaces (base64,
// regex, math, ...) IMPORT_NAME falls back to when a path does not name a
// compiled package — see imports.go.
func WithNamespaces(namespaces map[string]*value.Dict) Option {
	return func(vm *VM) { vm.namespaces = namespaces }
}

// New creates a VM ready to evaluate entry, given every package (including
// entry's own) the program compiled to.
func New(entry *bytecode.Module, packages map[string]*bytecode.Module, opts ...Option) *VM {
	vm := &VM{
		packages:    make(map[string]*Package, len(packages)),
		modules:     packages,
		schemaTypes: make(map[string]*compiler.SchemaTypeConst),
		diags:       &diagnostic.Bag{},
		log:         logrus.StandardLogger(),
	}
	for path, mod := range packages {
		vm.packages[path] = &Package{Path: path, Module: mod, Globals: value.NewDict()}
		vm.registerSchemaTypes(mod, make(map[*bytecode.Module]bool))
	}
	for _, opt := range opts {
		opt(vm)
	}
	_ = entry
	return vm
}

// registerSchemaTypes walks mod's own constant pool and every nested schema
// sub-program reachable from it, pre-populating the flat VM-wide schema
// type registry (spec.md §4.5). This runs once at construction, not lazily
// at first BUILD_SCHEMA, because a schema's own body may reference a
// sibling schema declared later in source order (forward reference), and
// the registry has to be complete before any package starts running.
func (vm *VM) registerSchemaTypes(mod *bytecode.Module, visited map[*bytecode.Module]bool) {
	if mod == nil || visited[mod] {
		return
	}
	visited[mod] = true
	for _, c := range mod.Constants {
		if sc, ok := c.(compiler.SchemaTypeConst); ok {
			sc := sc
			vm.schemaTypes[mangle.Mangle(sc.Name)] = &sc
			vm.registerSchemaTypes(sc.Body, visited)
		}
	}
	for _, sub := range mod.SchemaPrograms {
		vm.registerSchemaTypes(sub, visited)
	}
}

// Diagnostics returns the accumulated warning bag (spec.md §7) after Run.
func (vm *VM) Diagnostics() *diagnostic.Bag { return vm.diags }

// Run evaluates the named main package to completion and returns its final
// global bindings. Stripping private keys, dropping Undefined slots, and
// key-sort ordering are planner concerns (spec.md §6), not the VM's — Run
// returns the raw, insertion-ordered globals dict exactly as the package's
// own frame left it.
func (vm *VM) Run(mainPackage string) (*value.Dict, error) {
	pkg, ok := vm.packages[mainPackage]
	if !ok {
		return nil, newRuntimeError(diagnostic.New(diagnostic.KindCannotFindModule, bytecode.Position{},
			"main package %q not compiled", mainPackage), nil)
	}
	vm.mainPackage = mainPackage
	if _, err := vm.runPackage(pkg); err != nil {
		return nil, err
	}
	return pkg.Globals, nil
}

// runPackage runs pkg's top-level Module exactly once; a second call (from
// a cyclic or repeated import) is a no-op that returns the already-running
// or already-populated Globals.
func (vm *VM) runPackage(pkg *Package) (*value.Dict, error) {
	if pkg.done || pkg.running {
		return pkg.Globals, nil
	}
	pkg.running = true
	fr := &Frame{module: pkg.Module, pkg: pkg, name: pkg.Path}
	if _, err := vm.run(fr); err != nil {
		return nil, err
	}
	pkg.running = false
	pkg.done = true
	return pkg.Globals, nil
}

// push/pop operate on the VM-wide shared value stack.
func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek() value.Value { return vm.stack[len(vm.stack)-1] }

// fail builds a RuntimeError for diag, wrapping whatever single-frame trace
// information fr carries. The VM has no multi-level call-stack snapshot
// beyond the frame raising the error — nested frames each report their own
// RuntimeError as they unwind, and the outermost caller sees the first one
// raised, matching spec.md §7's "first fatal error is the one reported".
func (vm *VM) fail(fr *Frame, diag *diagnostic.Diagnostic) error {
	// Helpers like binaryOp/compareOp/unaryOp build a Diagnostic without
	// access to the running frame's position; fill it in here rather than
	// threading a Position through every arithmetic helper's signature.
	if diag.Primary.Position == (diagnostic.Position{}) {
		diag.Primary.Position = vm.pos(fr)
	}
	vm.diags.Report(diag)
	trace := []StackFrame{{Package: fr.pkg.Path, Function: fr.name, Position: fr.module.PositionFor(fr.ip)}}
	return newRuntimeError(diag, trace)
}

// checkStoreRange enforces the range-checked scalar store of spec.md §4.4
// Testable Property 8: storing an int or float into a typed slot raises
// IntOverflow/FloatOverflow when the VM was built with WithStrictRange(true)
// and the value falls outside the 32-bit bound, and reports a non-fatal
// FloatUnderflow warning when a float narrows to zero under that bound.
// Every store opcode (STORE_LOCAL/STORE_GLOBAL/STORE_FREE/STORE_ATTR) and
// a schema instance's config/inherited attribute seeding all funnel through
// this one check, since each is a write into a slot spec.md treats as
// typed.
func (vm *VM) checkStoreRange(fr *Frame, v value.Value) *diagnostic.Diagnostic {
	switch v.Kind {
	case value.KindInt:
		if err := value.CheckIntRange(v.Int, vm.strictRange); err != nil {
			return diagnostic.New(diagnostic.KindIntOverflow, vm.pos(fr), "%s", err)
		}
	case value.KindFloat:
		warn, err := value.CheckFloatRange(v.Float, vm.strictRange)
		if err != nil {
			return diagnostic.New(diagnostic.KindFloatOverflow, vm.pos(fr), "%s", err)
		}
		if warn {
			vm.diags.Report(diagnostic.New(diagnostic.KindFloatUnderflow, vm.pos(fr),
				"value %v underflows the 32-bit float range", v.Float))
		}
	}
	return nil
}

func (vm *VM) pos(fr *Frame) diagnostic.Position {
	p := fr.module.PositionFor(fr.ip)
	return diagnostic.Position{File: p.File, Line: p.Line, Col: p.Col, EndLine: p.EndLine, EndCol: p.EndCol}
}

// run is the fetch-decode-execute loop for a single frame. It returns when
// RETURN_VALUE is executed, or when an opcode raises an error.
func (vm *VM) run(fr *Frame) (value.Value, error) {
	for fr.ip < len(fr.module.Instructions) {
		op, operand, next := bytecode.DecodeOne(fr.module, fr.ip)
		fr.ip = next

		switch op {

		// --- Stack ---
		case bytecode.POP:
			vm.pop()
		case bytecode.DUP_TOP:
			vm.push(vm.peek())
		case bytecode.DUP_TOP_TWO:
			n := len(vm.stack)
			a, b := vm.stack[n-2], vm.stack[n-1]
			vm.push(a)
			vm.push(b)
		case bytecode.ROT_TWO:
			n := len(vm.stack)
			vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
		case bytecode.ROT_THREE:
			n := len(vm.stack)
			top := vm.stack[n-1]
			vm.stack[n-1] = vm.stack[n-2]
			vm.stack[n-2] = vm.stack[n-3]
			vm.stack[n-3] = top

		// --- Loads / stores ---
		case bytecode.LOAD_CONST:
			v, err := vm.loadConst(fr, fr.module.Constants[operand])
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(v)
		case bytecode.LOAD_NAME, bytecode.LOAD_GLOBAL:
			name := fr.module.Names[operand]
			v, ok := fr.pkg.Globals.Get(name)
			if !ok {
				v = value.Undefined
			}
			vm.push(v)
		case bytecode.LOAD_LOCAL:
			vm.push(fr.locals[operand])
		case bytecode.LOAD_ATTR_LAZY:
			v, err := vm.loadAttrLazy(fr, operand)
			if err != nil {
				return value.Value{}, err
			}
			vm.push(v)
		case bytecode.LOAD_FREE:
			vm.push(fr.free[operand])
		case bytecode.LOAD_BUILT_IN:
			if operand < 0 || operand >= len(vm.builtins) {
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "built-in index %d out of range", operand))
			}
			vm.push(value.Value{Kind: value.KindBuiltIn, BuiltIn: &vm.builtins[operand]})
		case bytecode.STORE_LOCAL:
			v := vm.pop()
			if err := vm.checkStoreRange(fr, v); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			fr.locals[operand] = v
			if fr.schema != nil && fr.schemaConst != nil {
				if init, ok := fr.schemaConst.AttrInits[operand]; ok {
					fr.schema.RecordAttrStore(init.Name, vm.pos(fr))
				}
			}
		case bytecode.STORE_GLOBAL, bytecode.STORE_NAME:
			v := vm.pop()
			if err := vm.checkStoreRange(fr, v); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			fr.pkg.Globals.Set(fr.module.Names[operand], v, value.OpOverride)
		case bytecode.STORE_FREE:
			v := vm.pop()
			if err := vm.checkStoreRange(fr, v); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			fr.free[operand] = v
		case bytecode.DELETE_LOCAL:
			fr.locals[operand] = value.Undefined
		case bytecode.DELETE_GLOBAL:
			fr.pkg.Globals.Set(fr.module.Names[operand], value.Undefined, value.OpOverride)
		case bytecode.LOAD_ATTR:
			v, err := vm.loadAttr(vm.pop(), fr.module.Names[operand])
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(v)
		case bytecode.STORE_ATTR:
			v := vm.pop()
			recv := vm.pop()
			if err := vm.checkStoreRange(fr, v); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			if err := vm.storeAttr(recv, fr.module.Names[operand], v); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
		case bytecode.DELETE_ATTR:
			recv := vm.pop()
			if err := vm.storeAttr(recv, fr.module.Names[operand], value.Undefined); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
		case bytecode.BINARY_SUBSCR:
			idx := vm.pop()
			recv := vm.pop()
			v, err := vm.subscript(recv, idx)
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(v)
		case bytecode.STORE_SUBSCR:
			v := vm.pop()
			idx := vm.pop()
			recv := vm.pop()
			if err := vm.storeSubscript(recv, idx, v); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
		case bytecode.DELETE_SUBSCR:
			idx := vm.pop()
			recv := vm.pop()
			if err := vm.storeSubscript(recv, idx, value.Undefined); err != nil {
				return value.Value{}, vm.fail(fr, err)
			}

		// --- Arithmetic / comparison / logic ---
		case bytecode.BINARY_ADD, bytecode.BINARY_SUB, bytecode.BINARY_MUL, bytecode.BINARY_TRUE_DIVIDE,
			bytecode.BINARY_FLOOR_DIVIDE, bytecode.BINARY_MODULO, bytecode.BINARY_POWER,
			bytecode.BINARY_LSHIFT, bytecode.BINARY_RSHIFT, bytecode.BINARY_OR, bytecode.BINARY_XOR, bytecode.BINARY_AND,
			bytecode.INPLACE_ADD, bytecode.INPLACE_SUB, bytecode.INPLACE_MUL, bytecode.INPLACE_TRUE_DIVIDE,
			bytecode.INPLACE_FLOOR_DIVIDE, bytecode.INPLACE_MODULO, bytecode.INPLACE_POWER,
			bytecode.INPLACE_LSHIFT, bytecode.INPLACE_RSHIFT, bytecode.INPLACE_OR, bytecode.INPLACE_XOR, bytecode.INPLACE_AND:
			r := vm.pop()
			l := vm.pop()
			v, err := vm.binaryOp(op, l, r)
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(v)
		case bytecode.COMPARE_EQUAL_TO, bytecode.COMPARE_NOT_EQUAL_TO, bytecode.COMPARE_LESS_THAN,
			bytecode.COMPARE_LESS_THAN_OR_EQUAL_TO, bytecode.COMPARE_GREATER_THAN, bytecode.COMPARE_GREATER_THAN_OR_EQUAL_TO,
			bytecode.COMPARE_IS, bytecode.COMPARE_IS_NOT, bytecode.COMPARE_IN, bytecode.COMPARE_NOT_IN:
			r := vm.pop()
			l := vm.pop()
			v, err := vm.compareOp(op, l, r)
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(v)
		case bytecode.MEMBER_SHIP_AS:
			v := vm.pop()
			out, err := vm.memberShipAs(v, fr.module.Names[operand])
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(out)
		case bytecode.UNARY_POSITIVE, bytecode.UNARY_NEGATIVE, bytecode.UNARY_INVERT, bytecode.UNARY_NOT:
			v := vm.pop()
			out, err := vm.unaryOp(op, v)
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(out)

		// --- Control flow ---
		case bytecode.JUMP_ABSOLUTE:
			fr.ip = next + operand
		case bytecode.POP_JUMP_IF_TRUE:
			if vm.pop().Truthy() {
				fr.ip = next + operand
			}
		case bytecode.POP_JUMP_IF_FALSE:
			if !vm.pop().Truthy() {
				fr.ip = next + operand
			}
		case bytecode.JUMP_IF_TRUE_OR_POP:
			if vm.peek().Truthy() {
				fr.ip = next + operand
			} else {
				vm.pop()
			}
		case bytecode.JUMP_IF_FALSE_OR_POP:
			if !vm.peek().Truthy() {
				fr.ip = next + operand
			} else {
				vm.pop()
			}
		case bytecode.GET_ITER:
			v := vm.pop()
			it, err := vm.getIter(v)
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(it)
		case bytecode.FOR_ITER:
			top := vm.peek()
			if top.Kind != value.KindIterator {
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "FOR_ITER on a non-iterator value"))
			}
			if top.Iter.Done() {
				vm.pop()
				fr.ip = next + operand
			} else {
				for _, v := range top.Iter.Next() {
					vm.push(v)
				}
			}

		// --- Construction ---
		case bytecode.BUILD_LIST:
			items := make([]value.Value, operand)
			for i := operand - 1; i >= 0; i-- {
				items[i] = vm.pop()
			}
			vm.push(value.List(items))
		case bytecode.BUILD_MAP:
			flat := make([]value.Value, 2*operand)
			for i := 2*operand - 1; i >= 0; i-- {
				flat[i] = vm.pop()
			}
			d := value.NewDict()
			for i := 0; i < operand; i++ {
				d.Set(flat[2*i].Str, flat[2*i+1], value.OpOverride)
			}
			vm.push(value.FromDict(d))
		case bytecode.BUILD_STRING:
			parts := make([]value.Value, operand)
			for i := operand - 1; i >= 0; i-- {
				parts[i] = vm.pop()
			}
			s := ""
			for _, p := range parts {
				s += p.String()
			}
			vm.push(value.Str(s))
		case bytecode.FORMAT_VALUE:
			v := vm.pop()
			vm.push(value.Str(formatValue(v, fr.module.Names[operand])))
		case bytecode.MAKE_FUNCTION:
			v, err := vm.makeFunction(fr, operand)
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(v)
		case bytecode.MAKE_DECORATOR:
			v, err := vm.makeDecorator(operand)
			if err != nil {
				return value.Value{}, vm.fail(fr, err)
			}
			vm.push(v)
		case bytecode.BUILD_SCHEMA:
			cfg := vm.pop()
			if cfg.Kind != value.KindDict {
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "BUILD_SCHEMA requires a config dict"))
			}
			name := fr.module.Names[operand]
			sc, ok := vm.schemaTypes[name]
			if !ok {
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindCannotFindModule, vm.pos(fr), "schema type %q not found", mangle.Demangle(name)))
			}
			inst, err := vm.buildSchemaInstance(fr, sc, cfg.Dict)
			if err != nil {
				return value.Value{}, err
			}
			vm.push(value.FromSchema(inst))
		case bytecode.BUILD_SCHEMA_CONFIG:
			flat := make([]value.Value, 3*operand)
			for i := 3*operand - 1; i >= 0; i-- {
				flat[i] = vm.pop()
			}
			d := value.NewDict()
			for i := 0; i < operand; i++ {
				key, val, opv := flat[3*i], flat[3*i+1], flat[3*i+2]
				d.Set(key.Str, val, value.Op(opv.Int))
			}
			vm.push(value.FromDict(d))
		case bytecode.UNPACK_SEQUENCE:
			seq := vm.pop()
			if seq.Kind != value.KindList || len(seq.List) != operand {
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr),
					"cannot unpack %s into %d targets", seq.Kind, operand))
			}
			for i := operand - 1; i >= 0; i-- {
				vm.push(seq.List[i])
			}

		// --- Calls / returns ---
		case bytecode.CALL_FUNCTION:
			v, err := vm.callFunction(fr, operand)
			if err != nil {
				return value.Value{}, err
			}
			vm.push(v)
		case bytecode.RETURN_VALUE:
			return vm.pop(), nil
		case bytecode.RAISE:
			msg := vm.pop()
			return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "%s", msg.String()))
		case bytecode.ASSERT:
			msg := vm.pop()
			cond := vm.pop()
			if !cond.Truthy() {
				text := msg.String()
				if text == "" {
					text = "assertion failed"
				}
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindAssertionError, vm.pos(fr), "%s", text))
			}
		case bytecode.CHECK:
			msg := vm.pop()
			cond := vm.pop()
			if !cond.Truthy() {
				text := msg.String()
				if text == "" {
					text = "check failed"
				}
				diag := diagnostic.New(diagnostic.KindSchemaCheckFailure, vm.pos(fr), "%s", text)
				if fr.schema != nil && fr.schemaConst != nil && operand >= 0 && operand < len(fr.schemaConst.Checks) {
					for _, name := range fr.schemaConst.Checks[operand].AttrNames {
						if pos, ok := fr.schema.AttrStorePos(name); ok {
							diag.WithSecondary(pos, "attribute %q assigned here", name)
						}
					}
				}
				return value.Value{}, vm.fail(fr, diag)
			}

		// --- Module ---
		case bytecode.IMPORT_NAME:
			v, err := vm.importName(fr, fr.module.Names[operand])
			if err != nil {
				return value.Value{}, err
			}
			vm.push(v)
		case bytecode.IMPORT_FROM:
			ns := vm.pop()
			if ns.Kind != value.KindDict {
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "IMPORT_FROM on a non-namespace value"))
			}
			name := fr.module.Names[operand]
			v, ok := ns.Dict.Get(name)
			if !ok {
				return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindAttributeError, vm.pos(fr), "name %q not found in imported package", name))
			}
			vm.push(v)

		// --- Debug ---
		case bytecode.DEBUG_GLOBALS:
			vm.log.Debugf("DEBUG_GLOBALS [%s]: %s", fr.pkg.Path, fr.pkg.Globals)
		case bytecode.DEBUG_LOCALS:
			vm.log.Debugf("DEBUG_LOCALS [%s]: %v", fr.name, fr.locals)
		case bytecode.DEBUG_NAMES:
			vm.log.Debugf("DEBUG_NAMES [%s]: %v", fr.name, fr.module.Names)
		case bytecode.DEBUG_STACK:
			vm.log.Debugf("DEBUG_STACK: %v", vm.stack)

		default:
			return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "unhandled opcode %s", op))
		}
	}
	return value.None, nil
}

// loadConst turns a constant-pool entry into a run-time Value. The pool
// itself holds plain Go data (so pkg/bytecode never imports pkg/value or
// pkg/compiler) — this is the one place that bridges it into the value
// model, per pkg/compiler/expr.go's wire-contract doc comment.
func (vm *VM) loadConst(fr *Frame, c interface{}) (value.Value, *diagnostic.Diagnostic) {
	switch cv := c.(type) {
	case nil:
		return value.None, nil
	case bool:
		return value.Bool(cv), nil
	case int64:
		return value.Int(cv), nil
	case float64:
		return value.Float(cv), nil
	case string:
		return value.Str(cv), nil
	case compiler.UndefinedMarker:
		return value.Undefined, nil
	case compiler.NumberMultiplierConst:
		return value.Multiplier(value.NumberMultiplier{Raw: cv.Raw, Unit: value.Unit(cv.Unit)}), nil
	case compiler.FunctionConst:
		return vm.functionTemplate(cv), nil
	case compiler.SchemaTypeConst:
		cv := cv
		return value.Value{Kind: value.KindSchemaType, SchemaType: &cv}, nil
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindCompileError, vm.pos(fr), "unrecognized constant-pool entry %T", c)
	}
}

func formatValue(v value.Value, spec string) string {
	switch spec {
	case "r":
		if v.Kind == value.KindStr {
			return fmt.Sprintf("%q", v.Str)
		}
		return v.String()
	default:
		return v.String()
	}
}
