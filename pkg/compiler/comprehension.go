package compiler

import (
	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
)

// compileComprehension lowers list/dict/set comprehensions, which share the
// GET_ITER/FOR_ITER scaffold with an optional filter Cond, terminated by
// the kind-appropriate BUILD_* opcode (spec.md §4.3 "For comprehension").
// No separate BUILD_SET opcode exists in spec.md §4.2's instruction set,
// so set comprehensions reuse BUILD_LIST and produce a plain list; neither
// the compiler nor the VM removes duplicate elements.
func (c *Compiler) compileComprehension(e *ast.ComprehensionExpr) error {
	acc := c.tempName()
	if e.Kind == ast.ComprehensionDict {
		c.emit(bytecode.BUILD_MAP, 0, e.Pos())
	} else {
		c.emit(bytecode.BUILD_LIST, 0, e.Pos())
	}
	c.resolveStore(acc, e.Pos())

	if err := c.compileExpr(e.Iter); err != nil {
		return err
	}
	c.emit(bytecode.GET_ITER, 0, e.Pos())
	loopStart := len(c.cur.module.Instructions)
	forIter := c.emit(bytecode.FOR_ITER, 0, e.Pos())
	for i := len(e.VarNames) - 1; i >= 0; i-- {
		c.resolveStore(e.VarNames[i], e.Pos())
	}

	var skip int
	hasSkip := false
	if e.Cond != nil {
		if err := c.compileExpr(e.Cond); err != nil {
			return err
		}
		skip = c.emit(bytecode.POP_JUMP_IF_FALSE, 0, e.Pos())
		hasSkip = true
	}

	if e.Kind == ast.ComprehensionDict {
		if err := c.compileExpr(e.KeyExpr); err != nil {
			return err
		}
		if err := c.compileExpr(e.ValExpr); err != nil {
			return err
		}
		c.emit(bytecode.BUILD_MAP, 1, e.Pos())
	} else {
		if err := c.compileExpr(e.ValExpr); err != nil {
			return err
		}
		c.emit(bytecode.BUILD_LIST, 1, e.Pos())
	}
	if err := c.resolveLoad(acc, e.Pos()); err != nil {
		return err
	}
	c.emit(bytecode.ROT_TWO, 0, e.Pos())
	c.emit(bytecode.BINARY_ADD, 0, e.Pos())
	c.resolveStore(acc, e.Pos())
	if hasSkip {
		c.patchJumpHere(skip)
	}

	backDelta := loopStart - (len(c.cur.module.Instructions) + 1 + 3)
	c.emit(bytecode.JUMP_ABSOLUTE, backDelta, e.Pos())
	c.patchJumpHere(forIter)
	return c.resolveLoad(acc, e.Pos())
}
