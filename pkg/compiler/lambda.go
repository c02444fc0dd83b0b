package compiler

import (
	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
	"github.com/kcl-lang/kclvm-go/pkg/symtable"
)

// FunctionConst is the constant-pool payload MAKE_FUNCTION consumes: the
// compiled body Module, its parameter list (names, which are starred/
// double-starred, and which slot in the surrounding expression stack holds
// each default value — defaults are evaluated in the *enclosing* scope at
// definition time, spec.md §4.3 "Lambda"), and the free-variable capture
// list the VM snapshots out of the *defining* frame at MAKE_FUNCTION time
// (FreeVars is body.scope.FreeSymbols — each entry names where, in the
// enclosing frame, the captured value lives).
type FunctionConst struct {
	Module     *bytecode.Module
	ParamNames []string
	Starred    int // index of *args param, or -1
	DoubleStar int // index of **kwargs param, or -1
	NumDefault int // how many trailing params have a default, pushed onto the stack before MAKE_FUNCTION
	NumLocals  int
	FreeVars   []symtable.Symbol
}

// compileLambda lowers an anonymous function: non-default parameters must
// all precede default parameters (spec.md §4.5 "Calls" — a non-default
// parameter following a default parameter is a compile-time error); default
// expressions are compiled in the enclosing scope and pushed before
// MAKE_FUNCTION runs, then the body is compiled in a fresh pushUnit.
func (c *Compiler) compileLambda(e *ast.LambdaExpr) error {
	seenDefault := false
	starredIdx, doubleStarIdx := -1, -1
	for i, p := range e.Params {
		if p.Starred {
			starredIdx = i
		}
		if p.DoubleStarred {
			doubleStarIdx = i
		}
		if p.Default != nil {
			seenDefault = true
		} else if seenDefault && !p.Starred && !p.DoubleStarred {
			return &Error{Kind: "CompileError", Pos: e.Pos(), Msg: "non-default parameter follows default parameter"}
		}
	}

	numDefault := 0
	for _, p := range e.Params {
		if p.Default != nil {
			if err := c.compileExpr(p.Default); err != nil {
				return err
			}
			numDefault++
		}
	}

	c.pushUnit(c.cur.module.PackagePath)
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		c.cur.scope.Define(p.Name)
		names[i] = p.Name
	}
	for _, st := range e.Body {
		if err := c.compileStmt(st); err != nil {
			return err
		}
	}
	// Fallback for a body that falls off the end without an explicit
	// return; unreachable whenever the last statement already returned.
	c.cur.module.Emit(bytecode.LOAD_CONST, c.cur.module.AddConstant(nil), pos(e.Pos()))
	c.cur.module.Emit(bytecode.RETURN_VALUE, 0, pos(e.Pos()))
	body := c.popUnit()

	fc := FunctionConst{
		Module: body.module, ParamNames: names, Starred: starredIdx, DoubleStar: doubleStarIdx,
		NumDefault: numDefault, NumLocals: body.scope.NumDefinitions(), FreeVars: body.scope.FreeSymbols,
	}
	c.emit(bytecode.LOAD_CONST, c.addConst(fc), e.Pos())
	c.emit(bytecode.MAKE_FUNCTION, numDefault, e.Pos())
	return nil
}
