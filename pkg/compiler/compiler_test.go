package compiler

import (
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
)

func program(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{
		RootPackage: "__main__",
		MainPackage: "__main__",
		Packages: map[string][]*ast.Module{
			"__main__": {{Filename: "t.k", Statements: stmts}},
		},
	}
}

func compile(t *testing.T, stmts ...ast.Statement) *bytecode.Module {
	t.Helper()
	c := New(nil)
	entry, _, err := c.Compile(program(stmts...))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return entry
}

func TestCompileIntegerAssign(t *testing.T) {
	mod := compile(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "x"}},
		Value:   &ast.IntLit{Value: 42},
	})
	decoded, err := bytecode.Decode(mod)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) < 2 {
		t.Fatalf("expected at least 2 instructions, got %d", len(decoded))
	}
	if decoded[0].Op != bytecode.LOAD_CONST {
		t.Errorf("expected LOAD_CONST first, got %s", decoded[0].Op)
	}
	if decoded[1].Op != bytecode.STORE_GLOBAL {
		t.Errorf("expected STORE_GLOBAL second, got %s", decoded[1].Op)
	}
	if mod.Constants[0] != int64(42) {
		t.Errorf("expected constant 42, got %v", mod.Constants[0])
	}
}

func TestCompileDottedAssignDeclaresInternal(t *testing.T) {
	mod := compile(t,
		&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "a"}}, Value: &ast.ConfigLit{}},
		&ast.AssignStmt{
			Targets: []ast.AssignTarget{{Name: "a", Path: []string{"a", "b", "c"}}},
			Value:   &ast.IntLit{Value: 1},
		},
	)
	decoded, err := bytecode.Decode(mod)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var sawLoadAttr, sawStoreAttr bool
	for _, d := range decoded {
		if d.Op == bytecode.LOAD_ATTR {
			sawLoadAttr = true
		}
		if d.Op == bytecode.STORE_ATTR {
			sawStoreAttr = true
		}
	}
	if !sawLoadAttr || !sawStoreAttr {
		t.Errorf("expected LOAD_ATTR and STORE_ATTR for dotted assign, decoded=%v", decoded)
	}
}

func TestCompileIfElse(t *testing.T) {
	mod := compile(t, &ast.IfStmt{
		Cond: &ast.BoolLit{Value: true},
		Then: []ast.Statement{&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "x"}}, Value: &ast.IntLit{Value: 1}}},
		Else: []ast.Statement{&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "x"}}, Value: &ast.IntLit{Value: 2}}},
	})
	decoded, err := bytecode.Decode(mod)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var sawJumpFalse, sawJumpAbs bool
	for _, d := range decoded {
		if d.Op == bytecode.POP_JUMP_IF_FALSE {
			sawJumpFalse = true
		}
		if d.Op == bytecode.JUMP_ABSOLUTE {
			sawJumpAbs = true
		}
	}
	if !sawJumpFalse || !sawJumpAbs {
		t.Errorf("expected POP_JUMP_IF_FALSE and JUMP_ABSOLUTE in if/else, decoded=%v", decoded)
	}
}

func TestCompileForLoop(t *testing.T) {
	mod := compile(t, &ast.ForStmt{
		VarNames: []string{"x"},
		Iter:     &ast.ListLit{Elements: []ast.Expression{&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}}},
		Body:     []ast.Statement{&ast.ExprStmt{X: &ast.Identifier{Name: "x"}}},
	})
	decoded, err := bytecode.Decode(mod)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var sawForIter, sawGetIter bool
	for _, d := range decoded {
		if d.Op == bytecode.FOR_ITER {
			sawForIter = true
		}
		if d.Op == bytecode.GET_ITER {
			sawGetIter = true
		}
	}
	if !sawForIter || !sawGetIter {
		t.Errorf("expected GET_ITER/FOR_ITER in for-loop, decoded=%v", decoded)
	}
}

func TestCompileSchemaRegistersSubProgram(t *testing.T) {
	mod := compile(t, &ast.SchemaStmt{
		Name: "Person",
		Body: []ast.Statement{
			&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "name"}}, Value: &ast.StringLit{Value: "Alice"}},
		},
	})
	if len(mod.SchemaPrograms) != 1 {
		t.Fatalf("expected 1 schema sub-program, got %d", len(mod.SchemaPrograms))
	}
	for name := range mod.SchemaPrograms {
		if name != "KMANGLED_Person" {
			t.Errorf("expected mangled name KMANGLED_Person, got %s", name)
		}
	}
}

func TestCompileSchemaCallEmitsBuildSchema(t *testing.T) {
	mod := compile(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "p"}},
		Value: &ast.SchemaCallExpr{
			TypeName: "Person",
			Config:   &ast.ConfigLit{Entries: []ast.ConfigEntry{{Key: "name", Value: &ast.StringLit{Value: "Alice"}, Op: ast.ConfigOverride}}},
		},
	})
	decoded, err := bytecode.Decode(mod)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var sawBuildSchema bool
	for _, d := range decoded {
		if d.Op == bytecode.BUILD_SCHEMA {
			sawBuildSchema = true
		}
	}
	if !sawBuildSchema {
		t.Errorf("expected BUILD_SCHEMA, decoded=%v", decoded)
	}
}

func TestCompileAssertEmitsAssert(t *testing.T) {
	mod := compile(t, &ast.AssertStmt{
		Cond:    &ast.CompareExpr{Op: "EQUAL_TO", Left: &ast.StringLit{Value: "bad"}, Right: &ast.StringLit{Value: "good"}},
		Message: &ast.StringLit{Value: "x should be 'good case'"},
	})
	decoded, err := bytecode.Decode(mod)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded[len(decoded)-3].Op != bytecode.ASSERT {
		t.Errorf("expected ASSERT near end, decoded=%v", decoded)
	}
}

func TestCompileQuantifierAll(t *testing.T) {
	mod := compile(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "ok"}},
		Value: &ast.QuantifierExpr{
			Kind:     ast.QuantAll,
			VarNames: []string{"x"},
			Iter:     &ast.ListLit{Elements: []ast.Expression{&ast.IntLit{Value: 1}}},
			Body:     &ast.CompareExpr{Op: "GREATER_THAN", Left: &ast.Identifier{Name: "x"}, Right: &ast.IntLit{Value: 0}},
		},
	})
	decoded, err := bytecode.Decode(mod)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var sawForIter bool
	for _, d := range decoded {
		if d.Op == bytecode.FOR_ITER {
			sawForIter = true
		}
	}
	if !sawForIter {
		t.Errorf("expected FOR_ITER in quantifier lowering, decoded=%v", decoded)
	}
}

func TestCompilePositionalAfterKeywordRejected(t *testing.T) {
	c := New(nil)
	_, _, err := c.Compile(program(&ast.ExprStmt{X: &ast.CallExpr{
		Callee: &ast.Identifier{Name: "f"},
		Args: []ast.CallArg{
			{Name: "a", Value: &ast.IntLit{Value: 1}},
			{Value: &ast.IntLit{Value: 2}},
		},
	}}))
	if err == nil {
		t.Fatalf("expected IllegalArgumentError_Syntax, got nil")
	}
	ce, ok := err.(*Error)
	if !ok || ce.Kind != "IllegalArgumentError_Syntax" {
		t.Errorf("expected IllegalArgumentError_Syntax, got %v", err)
	}
}

func TestPositionAttachedToEveryInstruction(t *testing.T) {
	mod := compile(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "x"}},
		Value:   &ast.IntLit{Value: 1},
	})
	if len(mod.Positions) == 0 {
		t.Fatalf("expected non-empty Positions side-table")
	}
}
