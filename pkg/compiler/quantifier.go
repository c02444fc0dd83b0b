package compiler

import (
	"fmt"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
)

// compileQuantifier lowers `all`/`any`/`map`/`filter` to a specialized loop
// scaffold over an iterator with an accumulator (spec.md §4.3 "Quantifier
// expressions"). Each kind shares the same GET_ITER/FOR_ITER skeleton as a
// for-comprehension but differs in what it accumulates and how it
// short-circuits:
//
//   - all:    accumulator starts True; any falsy body result short-circuits
//     to False without consuming the rest of the iterator.
//   - any:    accumulator starts False; any truthy body result
//     short-circuits to True.
//   - map:    accumulator is a list, grown by one-element list
//     concatenation per iteration.
//   - filter: accumulator is a list, grown only when the body is truthy.
func (c *Compiler) compileQuantifier(e *ast.QuantifierExpr) error {
	if len(e.VarNames) == 0 || len(e.VarNames) > 2 {
		return &Error{Kind: "CompileError", Pos: e.Pos(), Msg: "quantifier requires 1 or 2 loop variables"}
	}

	switch e.Kind {
	case ast.QuantAll, ast.QuantAny:
		return c.compileBooleanQuantifier(e)
	case ast.QuantMap, ast.QuantFilter:
		return c.compileCollectingQuantifier(e)
	default:
		return &Error{Kind: "INVALID_QUANTIFIER_OP", Pos: e.Pos(), Msg: "unknown quantifier kind"}
	}
}

// tempName allocates a scratch binding name that cannot collide with a
// user identifier (user names never contain "#" after de-prefixing), used
// to hold a quantifier's accumulator across loop iterations.
func (c *Compiler) tempName() string {
	c.tempCounter++
	return fmt.Sprintf("#quant%d", c.tempCounter)
}

func (c *Compiler) compileBooleanQuantifier(e *ast.QuantifierExpr) error {
	isAll := e.Kind == ast.QuantAll
	acc := c.tempName()
	c.emit(bytecode.LOAD_CONST, c.addConst(isAll), e.Pos())
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
	if err := c.compileExpr(e.Body); err != nil {
		return err
	}
	var shortCircuitJump bytecode.Opcode
	if isAll {
		shortCircuitJump = bytecode.POP_JUMP_IF_TRUE
	} else {
		shortCircuitJump = bytecode.POP_JUMP_IF_FALSE
	}
	keepLooping := c.emit(shortCircuitJump, 0, e.Pos())
	c.emit(bytecode.LOAD_CONST, c.addConst(!isAll), e.Pos())
	c.resolveStore(acc, e.Pos())
	done := c.emit(bytecode.JUMP_ABSOLUTE, 0, e.Pos())
	c.patchJumpHere(keepLooping)
	backDelta := loopStart - (len(c.cur.module.Instructions) + 1 + 3)
	c.emit(bytecode.JUMP_ABSOLUTE, backDelta, e.Pos())
	c.patchJumpHere(forIter)
	c.patchJumpHere(done)
	return c.resolveLoad(acc, e.Pos())
}

func (c *Compiler) compileCollectingQuantifier(e *ast.QuantifierExpr) error {
	acc := c.tempName()
	c.emit(bytecode.BUILD_LIST, 0, e.Pos())
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
	if e.Kind == ast.QuantFilter {
		if err := c.compileExpr(e.Body); err != nil {
			return err
		}
		skip = c.emit(bytecode.POP_JUMP_IF_FALSE, 0, e.Pos())
		hasSkip = true
		if err := c.resolveLoad(lastVarName(e.VarNames), e.Pos()); err != nil {
			return err
		}
	} else {
		if err := c.compileExpr(e.Body); err != nil {
			return err
		}
	}
	c.emit(bytecode.BUILD_LIST, 1, e.Pos())
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

func lastVarName(names []string) string {
	return names[len(names)-1]
}
