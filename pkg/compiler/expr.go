package compiler

import (
	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
)

var binaryOps = map[string]bytecode.Opcode{
	"+": bytecode.BINARY_ADD, "-": bytecode.BINARY_SUB, "*": bytecode.BINARY_MUL,
	"/": bytecode.BINARY_TRUE_DIVIDE, "//": bytecode.BINARY_FLOOR_DIVIDE, "%": bytecode.BINARY_MODULO,
	"**": bytecode.BINARY_POWER, "<<": bytecode.BINARY_LSHIFT, ">>": bytecode.BINARY_RSHIFT,
	"|": bytecode.BINARY_OR, "^": bytecode.BINARY_XOR, "&": bytecode.BINARY_AND,
}

var compareOps = map[string]bytecode.Opcode{
	"EQUAL_TO": bytecode.COMPARE_EQUAL_TO, "NOT_EQUAL_TO": bytecode.COMPARE_NOT_EQUAL_TO,
	"LESS_THAN": bytecode.COMPARE_LESS_THAN, "LESS_THAN_OR_EQUAL_TO": bytecode.COMPARE_LESS_THAN_OR_EQUAL_TO,
	"GREATER_THAN": bytecode.COMPARE_GREATER_THAN, "GREATER_THAN_OR_EQUAL_TO": bytecode.COMPARE_GREATER_THAN_OR_EQUAL_TO,
	"IS": bytecode.COMPARE_IS,
	// "IS_NOT" lowers to its own COMPARE_IS_NOT opcode, distinct from
	// COMPARE_NOT_EQUAL_TO; the VM's compareOp evaluates both as
	// structural inequality, so `is not` and `!=` give the same result.
	"IS_NOT": bytecode.COMPARE_IS_NOT,
	"IN":     bytecode.COMPARE_IN, "NOT_IN": bytecode.COMPARE_NOT_IN,
}

var unaryOps = map[string]bytecode.Opcode{
	"+": bytecode.UNARY_POSITIVE, "-": bytecode.UNARY_NEGATIVE, "~": bytecode.UNARY_INVERT, "not": bytecode.UNARY_NOT,
}

func (c *Compiler) compileExpr(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntLit:
		c.emit(bytecode.LOAD_CONST, c.addConst(e.Value), e.Pos())
		return nil
	case *ast.FloatLit:
		c.emit(bytecode.LOAD_CONST, c.addConst(e.Value), e.Pos())
		return nil
	case *ast.StringLit:
		c.emit(bytecode.LOAD_CONST, c.addConst(e.Value), e.Pos())
		return nil
	case *ast.BoolLit:
		c.emit(bytecode.LOAD_CONST, c.addConst(e.Value), e.Pos())
		return nil
	case *ast.NoneLit:
		c.emit(bytecode.LOAD_CONST, c.addConst(nil), e.Pos())
		return nil
	case *ast.UndefinedLit:
		c.emit(bytecode.LOAD_CONST, c.addConst(UndefinedMarker{}), e.Pos())
		return nil
	case *ast.NumberMultiplierLit:
		c.emit(bytecode.LOAD_CONST, c.addConst(NumberMultiplierConst{Raw: e.Raw, Unit: e.Unit}), e.Pos())
		return nil
	case *ast.Identifier:
		return c.resolveLoad(e.Name, e.Pos())
	case *ast.Attribute:
		if err := c.compileExpr(e.Target); err != nil {
			return err
		}
		c.emit(bytecode.LOAD_ATTR, c.addName(e.Name), e.Pos())
		return nil
	case *ast.Subscript:
		if err := c.compileExpr(e.Target); err != nil {
			return err
		}
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.emit(bytecode.BINARY_SUBSCR, 0, e.Pos())
		return nil
	case *ast.ListLit:
		for _, el := range e.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.emit(bytecode.BUILD_LIST, len(e.Elements), e.Pos())
		return nil
	case *ast.ConfigLit:
		return c.compileConfigLit(e)
	case *ast.BinaryExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return &Error{Kind: "CompileError", Pos: e.Pos(), Msg: "unknown binary operator " + e.Op}
		}
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.emit(op, 0, e.Pos())
		return nil
	case *ast.UnaryExpr:
		op, ok := unaryOps[e.Op]
		if !ok {
			return &Error{Kind: "CompileError", Pos: e.Pos(), Msg: "unknown unary operator " + e.Op}
		}
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		c.emit(op, 0, e.Pos())
		return nil
	case *ast.CompareExpr:
		op, ok := compareOps[e.Op]
		if !ok {
			return &Error{Kind: "CompileError", Pos: e.Pos(), Msg: "unknown compare operator " + e.Op}
		}
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.emit(op, 0, e.Pos())
		return nil
	case *ast.LogicExpr:
		return c.compileLogic(e)
	case *ast.MemberShipAsExpr:
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.emit(bytecode.MEMBER_SHIP_AS, c.addName(e.TypeName), e.Pos())
		return nil
	case *ast.CallExpr:
		return c.compileCall(e)
	case *ast.SchemaCallExpr:
		return c.compileSchemaCall(e)
	case *ast.LambdaExpr:
		return c.compileLambda(e)
	case *ast.QuantifierExpr:
		return c.compileQuantifier(e)
	case *ast.StringInterpExpr:
		return c.compileStringInterp(e)
	case *ast.ComprehensionExpr:
		return c.compileComprehension(e)
	default:
		return &Error{Kind: "CompileError", Pos: expr.Pos(), Msg: "unknown expression type"}
	}
}

// UndefinedMarker and NumberMultiplierConst are the constant-pool
// placeholders the VM recognizes and turns into value.Undefined /
// value.NumberMultiplier at LOAD_CONST time — the constant pool itself
// holds plain Go data, not pkg/value types, so that pkg/bytecode never
// needs to import pkg/value. They are exported so pkg/vm, which owns the
// LOAD_CONST case analysis, can type-switch on them without either package
// importing the other's internals.
type UndefinedMarker struct{}

type NumberMultiplierConst struct {
	Raw  int64
	Unit string
}

// compileLogic lowers short-circuit `and`/`or` via JUMP_IF_*_OR_POP
// (spec.md §4.2, §4.3).
func (c *Compiler) compileLogic(e *ast.LogicExpr) error {
	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	var op bytecode.Opcode
	if e.Op == "or" {
		op = bytecode.JUMP_IF_TRUE_OR_POP
	} else {
		op = bytecode.JUMP_IF_FALSE_OR_POP
	}
	jump := c.emit(op, 0, e.Pos())
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	c.patchJumpHere(jump)
	return nil
}

// compileCall lowers a call expression (spec.md §4.3, §4.5 "Calls"):
// positional args first, then (name,value) pairs for keyword args, then
// the callable, then CALL_FUNCTION. Positional-after-keyword is rejected
// at this point per spec.md's compile-time IllegalArgument_Syntax.
func (c *Compiler) compileCall(e *ast.CallExpr) error {
	seenKeyword := false
	argc, kwc := 0, 0
	for _, a := range e.Args {
		if a.Name != "" {
			seenKeyword = true
		} else if seenKeyword {
			return &Error{Kind: "IllegalArgumentError_Syntax", Pos: e.Pos(), Msg: "positional argument follows keyword argument"}
		}
	}
	for _, a := range e.Args {
		if a.Name == "" {
			if err := c.compileExpr(a.Value); err != nil {
				return err
			}
			argc++
		}
	}
	for _, a := range e.Args {
		if a.Name != "" {
			c.emit(bytecode.LOAD_CONST, c.addConst(a.Name), e.Pos())
			if err := c.compileExpr(a.Value); err != nil {
				return err
			}
			kwc++
		}
	}
	if err := c.compileExpr(e.Callee); err != nil {
		return err
	}
	c.emit(bytecode.CALL_FUNCTION, (argc<<8)|kwc, e.Pos())
	return nil
}

// compileSchemaCall lowers `TypeName { ...config... }` (spec.md §4.3,
// GLOSSARY "Config expression"): build the config dict, then BUILD_SCHEMA
// by the type's mangled name — the VM consults its schema-type constant
// pool entry to find the nested body Module (spec.md §4.5 "Construction of
// schemas").
func (c *Compiler) compileSchemaCall(e *ast.SchemaCallExpr) error {
	if e.Config != nil {
		if err := c.compileConfigLit(e.Config); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.BUILD_SCHEMA_CONFIG, 0, e.Pos())
	}
	c.emit(bytecode.BUILD_SCHEMA, c.addName(mangledSchemaName(e.TypeName)), e.Pos())
	return nil
}

// compileConfigLit lowers a `{ ... }` literal to BUILD_SCHEMA_CONFIG, after
// running the dotted-key preprocessing pass (spec.md §4.3 "Config
// nesting").
func (c *Compiler) compileConfigLit(lit *ast.ConfigLit) error {
	pp := preprocessConfig(lit)
	for _, entry := range pp.Entries {
		c.emit(bytecode.LOAD_CONST, c.addConst(entry.Key), lit.Pos())
		if err := c.compileExpr(entry.Value); err != nil {
			return err
		}
		c.emit(bytecode.LOAD_CONST, c.addConst(int64(entry.Op)), lit.Pos())
	}
	c.emit(bytecode.BUILD_SCHEMA_CONFIG, len(pp.Entries), lit.Pos())
	return nil
}
