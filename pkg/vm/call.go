package vm

import (
	"strings"

	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
	"github.com/kcl-lang/kclvm-go/pkg/compiler"
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/symtable"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// basePackagePath strips a schema/rule body's "#mangled" suffix (see
// pushUnit's naming convention in pkg/compiler) to recover the real package
// path a Module belongs to, so a nested body's frame can still find the
// owning Package's Globals.
func basePackagePath(modulePath string) string {
	if i := strings.IndexByte(modulePath, '#'); i >= 0 {
		return modulePath[:i]
	}
	return modulePath
}

func (vm *VM) packageFor(modulePath string) *Package {
	return vm.packages[basePackagePath(modulePath)]
}

// functionTemplate converts a compiler.FunctionConst constant-pool entry
// into a fresh, not-yet-closed-over Function value. Called once per
// LOAD_CONST execution, so every MAKE_FUNCTION gets its own Function to
// attach that call site's freshly evaluated defaults to (spec.md §4.3
// "Lambda" — default expressions are evaluated once, at definition time, not
// once per call).
func (vm *VM) functionTemplate(fc compiler.FunctionConst) value.Value {
	params := make([]value.Param, len(fc.ParamNames))
	for i, name := range fc.ParamNames {
		params[i] = value.Param{Name: name, Starred: i == fc.Starred, DoubleStarred: i == fc.DoubleStar}
	}
	fn := &value.Function{
		ModuleRef:    fc.Module,
		Params:       params,
		NumLocals:    fc.NumLocals,
		FreeVarSpecs: fc.FreeVars,
	}
	return value.Value{Kind: value.KindFunction, Function: fn}
}

// makeFunction implements MAKE_FUNCTION: pop the Function template pushed by
// the preceding LOAD_CONST, attach the operand trailing default values
// (pushed, in order, before the template — see compileLambda), then snapshot
// this frame's free variables into a Closure. Every callable produced here is
// a Closure, even one capturing zero free variables — CALL_FUNCTION only
// ever handles one callable shape, not a template/closure split.
func (vm *VM) makeFunction(fr *Frame, numDefault int) (value.Value, *diagnostic.Diagnostic) {
	tmpl := vm.pop()
	if tmpl.Kind != value.KindFunction {
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "MAKE_FUNCTION requires a function template")
	}
	fn := tmpl.Function

	defaults := make([]value.Value, numDefault)
	for i := numDefault - 1; i >= 0; i-- {
		defaults[i] = vm.pop()
	}
	n := len(fn.Params)
	for i := 0; i < numDefault; i++ {
		idx := n - numDefault + i
		fn.Params[idx].HasDefault = true
		fn.Params[idx].Default = defaults[i]
	}

	free := make([]value.Value, len(fn.FreeVarSpecs))
	for i, sym := range fn.FreeVarSpecs {
		switch sym.Scope {
		case symtable.LOCAL:
			free[i] = fr.locals[sym.Index]
		case symtable.FREE:
			free[i] = fr.free[sym.Index]
		default:
			free[i] = value.Undefined
		}
	}
	return value.Value{Kind: value.KindClosure, Closure: &value.Closure{Fn: fn, Free: free}}, nil
}

// makeDecorator implements MAKE_DECORATOR: pop operand positional arguments,
// then a name, push a Decorator value. Not currently emitted by any
// compiler lowering (spec.md names decorators as declarative metadata
// attached at schema/attribute declaration time, which compileSchema already
// carries as ast.DecoratorDecl rather than an executable construct) but kept
// fully implemented since spec.md §4.2 names the opcode as part of the
// instruction set.
func (vm *VM) makeDecorator(argc int) (value.Value, *diagnostic.Diagnostic) {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	nameVal := vm.pop()
	return value.Value{Kind: value.KindDecorator, Decorator: &value.Decorator{
		Name: nameVal.Str, Target: value.TargetAttribute, Args: args,
	}}, nil
}

// bindArgs implements KCL's calling convention (spec.md §4.5 "Calls"):
// keyword arguments bind by name first, then remaining positional arguments
// fill unfilled parameters left to right, then declared defaults, in that
// priority order. A lone *args parameter collects leftover positional
// arguments into a list; a lone **kwargs parameter collects leftover keyword
// arguments into a dict, in an unspecified order (Go map iteration), a
// documented simplification since KCL lambdas rarely use either form.
func bindArgs(fn *value.Function, args []value.Value, kwargs map[string]value.Value) ([]value.Value, *diagnostic.Diagnostic) {
	locals := make([]value.Value, fn.NumLocals)
	for i := range locals {
		locals[i] = value.Undefined
	}
	pi := 0
	for i, p := range fn.Params {
		switch {
		case p.Starred:
			rest := append([]value.Value(nil), args[minInt(pi, len(args)):]...)
			locals[i] = value.List(rest)
			pi = len(args)
		case p.DoubleStarred:
			d := value.NewDict()
			for k, v := range kwargs {
				d.Set(k, v, value.OpOverride)
			}
			locals[i] = value.FromDict(d)
		default:
			if v, ok := kwargs[p.Name]; ok {
				locals[i] = v
			} else if pi < len(args) {
				locals[i] = args[pi]
				pi++
			} else if p.HasDefault {
				locals[i] = p.Default
			} else {
				return nil, diagnostic.New(diagnostic.KindIllegalArgumentError, diagnostic.Position{},
					"missing required argument %q", p.Name)
			}
		}
	}
	return locals, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// callFunction implements CALL_FUNCTION. Stack layout below the callable,
// bottom to top, mirrors compileCall's push order: positional args (left to
// right), then (name, value) keyword pairs, then the callable on top.
func (vm *VM) callFunction(fr *Frame, operand int) (value.Value, error) {
	argc := operand >> 8
	kwc := operand & 0xFF

	callee := vm.pop()

	kwFlat := make([]value.Value, 2*kwc)
	for i := 2*kwc - 1; i >= 0; i-- {
		kwFlat[i] = vm.pop()
	}
	kwargs := make(map[string]value.Value, kwc)
	for i := 0; i < kwc; i++ {
		kwargs[kwFlat[2*i].Str] = kwFlat[2*i+1]
	}

	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}

	switch callee.Kind {
	case value.KindBuiltIn:
		if callee.BuiltIn == nil || callee.BuiltIn.Fn == nil {
			return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "call to an unbound built-in"))
		}
		out, err := callee.BuiltIn.Fn(args)
		if err != nil {
			return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "%s: %s", callee.BuiltIn.Name, err))
		}
		return out, nil
	case value.KindClosure:
		return vm.invokeClosure(fr, callee.Closure, args, kwargs)
	default:
		return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "%s object is not callable", callee.Kind))
	}
}

func (vm *VM) invokeClosure(fr *Frame, cl *value.Closure, args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	locals, derr := bindArgs(cl.Fn, args, kwargs)
	if derr != nil {
		return value.Value{}, vm.fail(fr, derr)
	}
	mod, ok := cl.Fn.ModuleRef.(*bytecode.Module)
	if !ok {
		return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr), "closure has no compiled body"))
	}
	pkg := vm.packageFor(mod.PackagePath)
	if pkg == nil {
		pkg = fr.pkg
	}
	callFrame := &Frame{module: mod, locals: locals, free: cl.Free, pkg: pkg, name: "<lambda>"}
	return vm.run(callFrame)
}
