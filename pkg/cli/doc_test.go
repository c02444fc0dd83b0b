package cli

import (
	"strings"
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
)

func TestRenderDocsIncludesSchemaAndRule(t *testing.T) {
	schema := &ast.SchemaStmt{
		Name:      "Server",
		Docstring: "A server configuration.",
		Parent:    "Base",
		Body: []ast.Statement{
			&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "port"}}, Starred: -1, Value: &ast.IntLit{Value: 80}},
			&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "host", Path: []string{"host", "name"}}}, Starred: -1, Value: &ast.StringLit{Value: "x"}},
		},
		Checks: []ast.CheckEntry{{Cond: &ast.Identifier{Name: "port"}}},
	}
	rule := &ast.RuleStmt{
		Name:   "ServerRule",
		Parent: "Server",
		Checks: []ast.CheckEntry{{Cond: &ast.Identifier{Name: "port"}}},
	}
	prog := &ast.Program{
		MainPackage: "app",
		Packages: map[string][]*ast.Module{
			"app": {{Filename: "app.k", Statements: []ast.Statement{schema, rule}}},
		},
	}

	var out strings.Builder
	renderDocs(&out, prog)
	doc := out.String()

	for _, want := range []string{"app.Server", "A server configuration.", "Inherits from `Base`", "port", "app.ServerRule (rule)"} {
		if !strings.Contains(doc, want) {
			t.Errorf("renderDocs output missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "| host |") {
		t.Error("renderDocs should not list a dotted target as an attribute")
	}
}

func TestSchemaAttributesSkipsDottedAndMultiTargets(t *testing.T) {
	s := &ast.SchemaStmt{
		Body: []ast.Statement{
			&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "a"}}, Starred: -1, Value: &ast.IntLit{Value: 1}},
			&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "b", Path: []string{"b", "c"}}}, Starred: -1, Value: &ast.IntLit{Value: 2}},
			&ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "x"}, {Name: "y"}}, Starred: -1, Value: &ast.IntLit{Value: 3}},
		},
	}
	attrs := schemaAttributes(s)
	if len(attrs) != 1 || attrs[0].name != "a" {
		t.Fatalf("schemaAttributes = %v, want [{a ...}]", attrs)
	}
}

func TestRenderExprFallsBackOnComplexExpressions(t *testing.T) {
	if got := renderExpr(&ast.IntLit{Value: 7}); got != "7" {
		t.Errorf("renderExpr(IntLit) = %q", got)
	}
	if got := renderExpr(&ast.CallExpr{}); got != "<expr>" {
		t.Errorf("renderExpr(CallExpr) = %q, want <expr>", got)
	}
	if got := renderExpr(nil); got != "" {
		t.Errorf("renderExpr(nil) = %q, want empty", got)
	}
}
