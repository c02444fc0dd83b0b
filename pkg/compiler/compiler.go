// Package compiler lowers a resolved AST program into one Bytecode Module
// per package (spec.md §4.3). The compiler never inspects source text or
// performs name resolution beyond indexing into a pkg/symtable.Scope chain
// — type checking and identifier resolution are an external collaborator's
// job (spec.md §1); by the time a Program reaches Compile, every name is
// assumed meaningful.
package compiler

import (
	"fmt"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
	"github.com/kcl-lang/kclvm-go/pkg/mangle"
	"github.com/kcl-lang/kclvm-go/pkg/symtable"
)

// Error wraps a compile failure with the error kind named in spec.md §7.
type Error struct {
	Kind string
	Pos  ast.Position
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s:%d:%d)", e.Kind, e.Msg, e.Pos.File, e.Pos.Line, e.Pos.Col)
}

// unit is one nested compilation target: a package's top-level code, a
// schema body, a rule body, or a lambda body each get their own unit with
// its own Module and Scope, chained to the enclosing unit's scope — a
// stack of per-function compile units generalizing a single flat
// compiler pass into one that can nest.
type unit struct {
	module *bytecode.Module
	scope  *symtable.Scope
	outer  *unit

	// loopEnds collects the forward-jump offsets a FOR_ITER scaffold needs
	// patched once the loop's end label is known.
	loopEnds []int

	// isSchema marks a unit compiling a schema body, switching every LOCAL
	// load in it (attribute reads, check conditions) to LOAD_ATTR_LAZY
	// instead of LOAD_LOCAL so a reference to an attribute declared later in
	// the same body forces that attribute's own initializer on demand
	// (spec.md §4.5 "Lazy attribute evaluation and backtracking") instead of
	// reading an as-yet-unset Undefined slot.
	isSchema bool
	// attrInits records, per attribute local index, the single-expression
	// sub-module compileSchemaBodyStmt split that attribute's initializer
	// into. Populated only for bare top-level `name = expr` attribute
	// declarations; see compileSchemaBodyStmt.
	attrInits map[int]AttrInit
}

// Compiler compiles one Program into a set of per-package Bytecode Modules.
type Compiler struct {
	builtins    *symtable.Scope // BUILT_IN symbols, shared by every package's scope chain
	cur         *unit
	packages    map[string]*bytecode.Module
	tempCounter int // source of unique scratch binding names (see tempName in quantifier.go)
}

// New creates a Compiler whose BUILT_IN scope is pre-populated with names,
// at the indices the VM's built-in function table assigns them (spec.md
// §4.1 "define_builtin").
func New(builtinNames []string) *Compiler {
	root := symtable.New()
	for i, name := range builtinNames {
		root.DefineBuiltin(name, i)
	}
	return &Compiler{builtins: root, packages: make(map[string]*bytecode.Module)}
}

// Compile lowers prog into one Module per package, returning the entry
// Module (the main package's) and the full package table.
func (c *Compiler) Compile(prog *ast.Program) (*bytecode.Module, map[string]*bytecode.Module, error) {
	// Packages may import each other in any order; compiling in the map's
	// natural order is fine because cross-package references resolve by
	// name at LOAD_NAME/IMPORT_NAME time in the VM, not by compile order.
	for path, modules := range prog.Packages {
		mod, err := c.compilePackage(path, modules)
		if err != nil {
			return nil, nil, err
		}
		c.packages[path] = mod
	}
	entry, ok := c.packages[prog.MainPackage]
	if !ok {
		return nil, nil, &Error{Kind: "CannotFindModule", Msg: "main package " + prog.MainPackage + " not compiled"}
	}
	return entry, c.packages, nil
}

func (c *Compiler) compilePackage(path string, modules []*ast.Module) (*bytecode.Module, error) {
	scope := symtable.NewPackageScope(c.builtins)
	c.cur = &unit{module: bytecode.New(path), scope: scope}
	for _, m := range modules {
		for _, stmt := range m.Statements {
			if err := c.compileStmt(stmt); err != nil {
				return nil, err
			}
		}
	}
	// A package's own return value is never consulted — the VM collects a
	// package's output from its frame's GLOBAL bindings once the frame
	// returns — but RETURN_VALUE still needs something to pop, the same way
	// CPython always appends a trailing `LOAD_CONST None; RETURN_VALUE` in
	// case control falls off the end of a code object.
	c.cur.module.Emit(bytecode.LOAD_CONST, c.cur.module.AddConstant(nil), pos(ast.Position{File: path}))
	c.cur.module.Emit(bytecode.RETURN_VALUE, 0, pos(ast.Position{File: path}))
	return c.cur.module, nil
}

// pos converts an ast.Position into a bytecode.Position; both are four
// source coordinates, kept as separate types so pkg/bytecode does not
// depend on pkg/ast (spec.md §1 keeps the AST producer an external
// collaborator).
func pos(p ast.Position) bytecode.Position {
	return bytecode.Position{File: p.File, Line: p.Line, Col: p.Col, EndLine: p.EndLine, EndCol: p.EndCol}
}

// emit is a thin forwarding helper so statement/expression lowering code
// reads as `c.emit(OP, operand, node.Pos())` instead of repeating
// `c.cur.module.Emit`.
func (c *Compiler) emit(op bytecode.Opcode, operand int, p ast.Position) int {
	return c.cur.module.Emit(op, operand, pos(p))
}

func (c *Compiler) addConst(v interface{}) int {
	return c.cur.module.AddConstant(v)
}

func (c *Compiler) addName(name string) int {
	return c.cur.module.AddName(name)
}

// pushUnit enters a nested compilation target (schema body, rule body,
// lambda body) with its own fresh Module and a Scope enclosed by the
// current one, so free variables resolve outward exactly as spec.md §4.1
// describes.
func (c *Compiler) pushUnit(packagePath string) *unit {
	u := &unit{
		module: bytecode.New(packagePath),
		scope:  symtable.NewEnclosed(c.cur.scope),
		outer:  c.cur,
	}
	c.cur = u
	return u
}

func (c *Compiler) popUnit() *unit {
	done := c.cur
	c.cur = done.outer
	return done
}

// resolveLoad emits the scope-appropriate load opcode for name (spec.md
// §4.3 "Name resolution"), defining it as a fresh GLOBAL if this is the
// first reference — top-level KCL has no forward-declaration requirement,
// so an unresolved identifier at a GLOBAL scope is bound on first sight
// rather than treated as an error; only a genuinely-nested scope referring
// to a name that resolves nowhere is SYMBOL_NOT_DEFINED.
func (c *Compiler) resolveLoad(name string, p ast.Position) error {
	name = stripDollarPrefix(name)
	sym, ok := c.cur.scope.Resolve(name)
	if !ok {
		if c.cur.outer == nil {
			sym, _ = c.cur.scope.Define(name)
		} else {
			return &Error{Kind: "SYMBOL_NOT_DEFINED", Pos: p, Msg: "name '" + name + "' is not defined"}
		}
	}
	switch sym.Scope {
	case symtable.FREE:
		c.emit(bytecode.LOAD_FREE, sym.Index, p)
	case symtable.GLOBAL:
		c.emit(bytecode.LOAD_NAME, c.addName(name), p)
	case symtable.LOCAL:
		if c.cur.isSchema {
			c.emit(bytecode.LOAD_ATTR_LAZY, sym.Index, p)
		} else {
			c.emit(bytecode.LOAD_LOCAL, sym.Index, p)
		}
	case symtable.BUILT_IN:
		c.emit(bytecode.LOAD_BUILT_IN, sym.Index, p)
	default:
		return &Error{Kind: "SYMBOL_NOT_DEFINED", Pos: p, Msg: "name '" + name + "' is not defined"}
	}
	return nil
}

// resolveStore defines name if it is not yet known in this scope (a first
// assignment) and emits the scope-appropriate store opcode.
func (c *Compiler) resolveStore(name string, p ast.Position) {
	name = stripDollarPrefix(name)
	sym, existed := c.cur.scope.Define(name)
	_ = existed
	switch sym.Scope {
	case symtable.GLOBAL:
		c.emit(bytecode.STORE_GLOBAL, c.addName(name), p)
	case symtable.LOCAL:
		c.emit(bytecode.STORE_LOCAL, sym.Index, p)
	default:
		c.emit(bytecode.STORE_NAME, c.addName(name), p)
	}
}

// mangledSchemaName produces the runtime export name for a schema type,
// per spec.md §4.3 "Name mangling".
func mangledSchemaName(name string) string {
	return mangle.Mangle(name)
}
