package vm

import (
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/builtin"
	"github.com/kcl-lang/kclvm-go/pkg/compiler"
	"github.com/kcl-lang/kclvm-go/pkg/value"
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

func run(t *testing.T, stmts ...ast.Statement) (*VM, *value.Dict) {
	t.Helper()
	registry := builtin.New()
	c := compiler.New(registry.Names())
	entry, packages, err := c.Compile(program(stmts...))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	machine := New(entry, packages,
		WithBuiltins(registry.Table()),
		WithNamespaces(registry.AllNamespaces()),
	)
	result, err := machine.Run("__main__")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return machine, result
}

func TestRunAssignsGlobalScalar(t *testing.T) {
	_, result := run(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "x"}},
		Value:   &ast.IntLit{Value: 42},
	})
	v, ok := result.Get("x")
	if !ok {
		t.Fatal("x missing from result")
	}
	if v.Int != 42 {
		t.Errorf("x = %v, want 42", v.Int)
	}
}

func TestRunBinaryArithmetic(t *testing.T) {
	_, result := run(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "sum"}},
		Value: &ast.BinaryExpr{
			Op:    "+",
			Left:  &ast.IntLit{Value: 2},
			Right: &ast.IntLit{Value: 3},
		},
	})
	v, ok := result.Get("sum")
	if !ok || v.Int != 5 {
		t.Errorf("sum = %v, want 5", v)
	}
}

func TestRunIfStatement(t *testing.T) {
	_, result := run(t,
		&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "flag"}}, Value: &ast.BoolLit{Value: false}},
		&ast.IfStmt{
			Cond: &ast.BoolLit{Value: true},
			Then: []ast.Statement{
				&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "flag"}}, Value: &ast.BoolLit{Value: true}},
			},
		},
	)
	v, ok := result.Get("flag")
	if !ok || !v.Bool {
		t.Errorf("flag = %v, want true", v)
	}
}

func TestRunCallsBuiltIn(t *testing.T) {
	_, result := run(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "n"}},
		Value: &ast.CallExpr{
			Callee: &ast.Identifier{Name: "len"},
			Args:   []ast.CallArg{{Value: &ast.ListLit{Elements: []ast.Expression{&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}}}}},
		},
	})
	v, ok := result.Get("n")
	if !ok || v.Int != 2 {
		t.Errorf("n = %v, want 2", v)
	}
}

func TestDiagnosticsStartEmpty(t *testing.T) {
	machine, _ := run(t, &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "x"}},
		Value:   &ast.IntLit{Value: 1},
	})
	if len(machine.Diagnostics().Warnings()) != 0 {
		t.Errorf("expected no warnings for a trivial program, got %v", machine.Diagnostics().Warnings())
	}
}
