package compiler

import (
	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
)

// compileStringInterp lowers `"... ${expr} ..."` into an alternating
// sequence of string-literal pushes and FORMAT_VALUE-formatted expression
// results, joined by BUILD_STRING(n) (spec.md §4.3 "String interpolation").
// A segment with no Expr is a literal text run pushed as a plain constant;
// one with an Expr is compiled then passed through FORMAT_VALUE using its
// FormatSpec (interned in the name pool, empty string if absent).
func (c *Compiler) compileStringInterp(e *ast.StringInterpExpr) error {
	for _, seg := range e.Segments {
		if seg.Expr == nil {
			c.emit(bytecode.LOAD_CONST, c.addConst(seg.Literal), e.Pos())
			continue
		}
		if err := c.compileExpr(seg.Expr); err != nil {
			return err
		}
		c.emit(bytecode.FORMAT_VALUE, c.addName(seg.FormatSpec), e.Pos())
	}
	c.emit(bytecode.BUILD_STRING, len(e.Segments), e.Pos())
	return nil
}
