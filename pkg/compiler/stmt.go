package compiler

import (
	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
)

func (c *Compiler) compileStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		c.emit(bytecode.POP, 0, s.Pos())
		return nil
	case *ast.AssignStmt:
		return c.compileAssign(s)
	case *ast.IfStmt:
		return c.compileIf(s)
	case *ast.ForStmt:
		return c.compileFor(s)
	case *ast.SchemaStmt:
		return c.compileSchema(s)
	case *ast.RuleStmt:
		return c.compileRule(s)
	case *ast.ImportStmt:
		return c.compileImport(s)
	case *ast.AssertStmt:
		return c.compileAssert(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			if err := c.compileExpr(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.LOAD_CONST, c.addConst(nil), s.Pos())
		}
		c.emit(bytecode.RETURN_VALUE, 0, s.Pos())
		return nil
	default:
		return &Error{Kind: "CompileError", Pos: stmt.Pos(), Msg: "unknown statement type"}
	}
}

// compileAssign handles bare-name, dotted-path, and tuple-unpack targets,
// plus augmented assignment (spec.md §4.3 "Assign").
func (c *Compiler) compileAssign(s *ast.AssignStmt) error {
	if s.AugOp != "" {
		return c.compileAugAssign(s)
	}

	if len(s.Targets) > 1 {
		return c.compileUnpackAssign(s)
	}

	target := s.Targets[0]
	if len(target.Path) >= 2 {
		return c.compileDottedAssign(target, s.Value, s.Pos())
	}
	if err := c.compileExpr(s.Value); err != nil {
		return err
	}
	c.resolveStore(target.Name, s.Pos())
	return nil
}

// compileDottedAssign lowers `a.b.c = v` by declaring every intermediate
// segment INTERNAL on first sight, then LOAD `a`, LOAD_ATTR `b`,
// STORE_ATTR `c` (spec.md §4.3 "Assign" dotted-path case).
func (c *Compiler) compileDottedAssign(target ast.AssignTarget, value ast.Expression, p ast.Position) error {
	head := target.Path[0]
	mid := target.Path[1 : len(target.Path)-1]
	tail := target.Path[len(target.Path)-1]

	for _, seg := range mid {
		c.cur.scope.DefineInternal(seg)
	}
	c.cur.scope.DefineInternal(tail)

	if err := c.resolveLoad(head, p); err != nil {
		return err
	}
	for _, seg := range mid {
		c.emit(bytecode.LOAD_ATTR, c.addName(seg), p)
	}
	if err := c.compileExpr(value); err != nil {
		return err
	}
	c.emit(bytecode.STORE_ATTR, c.addName(tail), p)
	return nil
}

// compileUnpackAssign lowers `a, b, c = xs` via UNPACK_SEQUENCE followed
// by per-element stores. s.Starred is not consulted: a starred target is
// stored like any other, and the sequence must have exactly len(s.Targets)
// elements.
func (c *Compiler) compileUnpackAssign(s *ast.AssignStmt) error {
	if err := c.compileExpr(s.Value); err != nil {
		return err
	}
	c.emit(bytecode.UNPACK_SEQUENCE, len(s.Targets), s.Pos())
	// UNPACK_SEQUENCE pushes elements in reverse, so stores proceed in
	// declaration order popping off the stack top first.
	for _, t := range s.Targets {
		c.resolveStore(t.Name, s.Pos())
	}
	return nil
}

var augToBinary = map[string]bytecode.Opcode{
	"+=": bytecode.INPLACE_ADD, "-=": bytecode.INPLACE_SUB, "*=": bytecode.INPLACE_MUL,
	"/=": bytecode.INPLACE_TRUE_DIVIDE, "//=": bytecode.INPLACE_FLOOR_DIVIDE, "%=": bytecode.INPLACE_MODULO,
	"**=": bytecode.INPLACE_POWER, "<<=": bytecode.INPLACE_LSHIFT, ">>=": bytecode.INPLACE_RSHIFT,
	"|=": bytecode.INPLACE_OR, "^=": bytecode.INPLACE_XOR, "&=": bytecode.INPLACE_AND,
}

// compileAugAssign lowers `a += v`: load a, load v, INPLACE_*, store a
// (spec.md §4.3 "Augmented assigns").
func (c *Compiler) compileAugAssign(s *ast.AssignStmt) error {
	op, ok := augToBinary[s.AugOp]
	if !ok {
		return &Error{Kind: "CompileError", Pos: s.Pos(), Msg: "unknown augmented operator " + s.AugOp}
	}
	target := s.Targets[0]
	if len(target.Path) >= 2 {
		return &Error{Kind: "CompileError", Pos: s.Pos(), Msg: "augmented assignment to a dotted path is not supported"}
	}
	if err := c.resolveLoad(target.Name, s.Pos()); err != nil {
		return err
	}
	if err := c.compileExpr(s.Value); err != nil {
		return err
	}
	c.emit(op, 0, s.Pos())
	c.resolveStore(target.Name, s.Pos())
	return nil
}

// compileIf lowers If/elif chains (spec.md §4.3 "If"): `elif` is just a
// nested IfStmt in Else, which falls out naturally from this function
// recursing into compileStmt for the Else branch.
func (c *Compiler) compileIf(s *ast.IfStmt) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	jumpToElse := c.emit(bytecode.POP_JUMP_IF_FALSE, 0, s.Pos())
	for _, st := range s.Then {
		if err := c.compileStmt(st); err != nil {
			return err
		}
	}
	jumpToEnd := c.emit(bytecode.JUMP_ABSOLUTE, 0, s.Pos())
	c.patchJumpHere(jumpToElse)
	for _, st := range s.Else {
		if err := c.compileStmt(st); err != nil {
			return err
		}
	}
	c.patchJumpHere(jumpToEnd)
	return nil
}

// patchJumpHere back-patches the jump instruction at instrOffset to target
// the current end of the instruction stream, as a signed delta relative to
// the offset of the instruction after the jump (spec.md §4.2 "signed jump
// delta").
func (c *Compiler) patchJumpHere(instrOffset int) {
	here := len(c.cur.module.Instructions)
	delta := here - (instrOffset + 1 + 3)
	c.cur.module.PatchOperand(instrOffset, delta)
}

// compileFor lowers a for-comprehension statement: GET_ITER, FOR_ITER(end),
// assign 1-2 loop vars, body, jump back (spec.md §4.3 "For comprehension").
func (c *Compiler) compileFor(s *ast.ForStmt) error {
	if len(s.VarNames) == 0 || len(s.VarNames) > 2 {
		return &Error{Kind: "CompileError", Pos: s.Pos(), Msg: "for-loop requires 1 or 2 loop variables"}
	}
	if err := c.compileExpr(s.Iter); err != nil {
		return err
	}
	c.emit(bytecode.GET_ITER, 0, s.Pos())
	loopStart := len(c.cur.module.Instructions)
	forIter := c.emit(bytecode.FOR_ITER, 0, s.Pos())
	// FOR_ITER pushes the (optionally paired) next element(s); assign in
	// reverse declaration order, popping the last-pushed first.
	for i := len(s.VarNames) - 1; i >= 0; i-- {
		c.resolveStore(s.VarNames[i], s.Pos())
	}
	for _, st := range s.Body {
		if err := c.compileStmt(st); err != nil {
			return err
		}
	}
	backDelta := loopStart - (len(c.cur.module.Instructions) + 1 + 3)
	c.emit(bytecode.JUMP_ABSOLUTE, backDelta, s.Pos())
	c.patchJumpHere(forIter)
	return nil
}

// compileImport lowers `import path as alias` (spec.md §4.3 "Import").
// Importing the main package from a non-main module is rejected by the
// VM at IMPORT_NAME time, where the loaded-package table is actually known
// (spec.md §7 — this is a run-time, not compile-time, check here since the
// compiler compiles each package independently and does not know which
// package is "main" for any package but its own).
func (c *Compiler) compileImport(s *ast.ImportStmt) error {
	idx := c.addName(s.Path)
	c.emit(bytecode.IMPORT_NAME, idx, s.Pos())
	alias := s.Alias
	if alias == "" {
		alias = s.Path
	}
	c.resolveStore(alias, s.Pos())
	return nil
}

// compileAssert lowers `assert cond, "message"` (spec.md §4.3, Testable
// Scenario S5).
func (c *Compiler) compileAssert(s *ast.AssertStmt) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	if s.Message != nil {
		if err := c.compileExpr(s.Message); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.LOAD_CONST, c.addConst(""), s.Pos())
	}
	c.emit(bytecode.ASSERT, 0, s.Pos())
	return nil
}
