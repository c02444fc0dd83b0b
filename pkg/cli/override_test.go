package cli

import (
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
)

func singleAssignProgram(name string, value ast.Expression) *ast.Program {
	assign := &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: name}},
		Starred: -1,
		Value:   value,
	}
	return &ast.Program{
		MainPackage: "__main__",
		Packages: map[string][]*ast.Module{
			"__main__": {{Filename: "main.k", Statements: []ast.Statement{assign}}},
		},
	}
}

func TestApplyOverridesReplacesTopLevelInt(t *testing.T) {
	prog := singleAssignProgram("replicas", &ast.IntLit{Value: 1})
	if err := applyOverrides(prog, []string{"replicas=5"}); err != nil {
		t.Fatal(err)
	}
	assign := prog.Packages["__main__"][0].Statements[0].(*ast.AssignStmt)
	lit, ok := assign.Value.(*ast.IntLit)
	if !ok || lit.Value != 5 {
		t.Fatalf("Value = %#v, want IntLit{5}", assign.Value)
	}
}

func TestApplyOverridesUnknownKeyErrors(t *testing.T) {
	prog := singleAssignProgram("replicas", &ast.IntLit{Value: 1})
	if err := applyOverrides(prog, []string{"nope=5"}); err == nil {
		t.Fatal("expected an error for an unmatched override key")
	}
}

func TestApplyOverridesMalformedSpecErrors(t *testing.T) {
	prog := singleAssignProgram("replicas", &ast.IntLit{Value: 1})
	if err := applyOverrides(prog, []string{"replicas"}); err == nil {
		t.Fatal("expected an error for a spec with no '='")
	}
}

func TestOverrideTopLevelSkipsDottedTargets(t *testing.T) {
	assign := &ast.AssignStmt{
		Targets: []ast.AssignTarget{{Name: "image", Path: []string{"image", "tag"}}},
		Starred: -1,
		Value:   &ast.StringLit{Value: "v1"},
	}
	prog := &ast.Program{
		MainPackage: "__main__",
		Packages: map[string][]*ast.Module{
			"__main__": {{Filename: "main.k", Statements: []ast.Statement{assign}}},
		},
	}
	if overrideTopLevel(prog, "image", "v2") {
		t.Fatal("overrideTopLevel matched a dotted target, want no match")
	}
}

func TestParseOverrideLiteral(t *testing.T) {
	cases := []struct {
		raw  string
		want interface{}
	}{
		{"5", int64(5)},
		{"3.5", float64(3.5)},
		{"true", true},
		{"false", false},
		{"hello", "hello"},
	}
	for _, c := range cases {
		got := parseOverrideLiteral(c.raw)
		switch want := c.want.(type) {
		case int64:
			lit, ok := got.(*ast.IntLit)
			if !ok || lit.Value != want {
				t.Errorf("parseOverrideLiteral(%q) = %#v, want IntLit{%d}", c.raw, got, want)
			}
		case float64:
			lit, ok := got.(*ast.FloatLit)
			if !ok || lit.Value != want {
				t.Errorf("parseOverrideLiteral(%q) = %#v, want FloatLit{%g}", c.raw, got, want)
			}
		case bool:
			lit, ok := got.(*ast.BoolLit)
			if !ok || lit.Value != want {
				t.Errorf("parseOverrideLiteral(%q) = %#v, want BoolLit{%t}", c.raw, got, want)
			}
		case string:
			lit, ok := got.(*ast.StringLit)
			if !ok || lit.Value != want {
				t.Errorf("parseOverrideLiteral(%q) = %#v, want StringLit{%q}", c.raw, got, want)
			}
		}
	}
}
