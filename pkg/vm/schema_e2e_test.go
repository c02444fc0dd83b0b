package vm

import (
	"errors"
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/builtin"
	"github.com/kcl-lang/kclvm-go/pkg/compiler"
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// runFails compiles and runs stmts like run() but expects Run to fail,
// returning the RuntimeError so a test can inspect its Diagnostic.
func runFails(t *testing.T, stmts ...ast.Statement) *RuntimeError {
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
	_, runErr := machine.Run("__main__")
	if runErr == nil {
		t.Fatal("expected Run to fail, got nil error")
	}
	var rte *RuntimeError
	if !errors.As(runErr, &rte) {
		t.Fatalf("expected *RuntimeError, got %T: %v", runErr, runErr)
	}
	return rte
}

func schemaCall(typeName string, entries ...ast.ConfigEntry) *ast.SchemaCallExpr {
	return &ast.SchemaCallExpr{TypeName: typeName, Config: &ast.ConfigLit{Entries: entries}}
}

func cfg(key string, v ast.Expression) ast.ConfigEntry {
	return ast.ConfigEntry{Key: key, Value: v, Op: ast.ConfigOverride}
}

func attr(name string, v ast.Expression) ast.Statement {
	return &ast.AssignStmt{Targets: []ast.AssignTarget{{Name: name}}, Value: v}
}

// TestSchemaBasicInstantiation covers instantiating a schema from a config
// literal and reading its resulting attribute dict back out (S1).
func TestSchemaBasicInstantiation(t *testing.T) {
	_, result := run(t,
		&ast.SchemaStmt{
			Name: "Person",
			Body: []ast.Statement{
				attr("name", &ast.StringLit{Value: ""}),
				attr("age", &ast.IntLit{Value: 0}),
			},
		},
		&ast.AssignStmt{
			Targets: []ast.AssignTarget{{Name: "p"}},
			Value:   schemaCall("Person", cfg("name", &ast.StringLit{Value: "Alice"}), cfg("age", &ast.IntLit{Value: 30})),
		},
	)
	p, ok := result.Get("p")
	if !ok || p.Kind != value.KindSchema {
		t.Fatalf("p = %v, want a schema instance", p)
	}
	name, ok := p.Schema.Attrs.Get("name")
	if !ok || name.Str != "Alice" {
		t.Errorf("p.name = %v, want Alice", name)
	}
	age, ok := p.Schema.Attrs.Get("age")
	if !ok || age.Int != 30 {
		t.Errorf("p.age = %v, want 30", age)
	}
}

// TestSchemaMixinUnionMerge covers the union step of schema construction
// (spec.md §4.5 step 2): a derived schema's instance carries both its own
// declared attributes and every mixin's, unioned together (S2).
func TestSchemaMixinUnionMerge(t *testing.T) {
	_, result := run(t,
		&ast.SchemaStmt{
			Name: "Taggable",
			Body: []ast.Statement{
				attr("tag", &ast.StringLit{Value: "default"}),
			},
		},
		&ast.SchemaStmt{
			Name:   "Widget",
			Mixins: []string{"Taggable"},
			Body: []ast.Statement{
				attr("kind", &ast.StringLit{Value: "button"}),
			},
		},
		&ast.AssignStmt{
			Targets: []ast.AssignTarget{{Name: "w"}},
			Value:   schemaCall("Widget"),
		},
	)
	w, ok := result.Get("w")
	if !ok || w.Kind != value.KindSchema {
		t.Fatalf("w = %v, want a schema instance", w)
	}
	kind, ok := w.Schema.Attrs.Get("kind")
	if !ok || kind.Str != "button" {
		t.Errorf("w.kind = %v, want button", kind)
	}
	tag, ok := w.Schema.Attrs.Get("tag")
	if !ok || tag.Str != "default" {
		t.Errorf("w.tag = %v, want default (unioned in from the Taggable mixin)", tag)
	}
}

// TestSchemaCheckFailure covers a schema's check block rejecting an
// out-of-range attribute and carrying a secondary span at the attribute's
// own assignment site alongside the check condition's primary span (S4).
func TestSchemaCheckFailure(t *testing.T) {
	rte := runFails(t,
		&ast.SchemaStmt{
			Name: "Person",
			Body: []ast.Statement{
				attr("age", &ast.IntLit{Value: 0}),
			},
			Checks: []ast.CheckEntry{
				{Cond: &ast.CompareExpr{Op: "LESS_THAN", Left: &ast.Identifier{Name: "age"}, Right: &ast.IntLit{Value: 150}}},
			},
		},
		&ast.AssignStmt{
			Targets: []ast.AssignTarget{{Name: "p"}},
			Value:   schemaCall("Person", cfg("age", &ast.IntLit{Value: 200})),
		},
	)
	if rte.Diag.Kind != diagnostic.KindSchemaCheckFailure {
		t.Fatalf("Kind = %v, want SchemaCheckFailure", rte.Diag.Kind)
	}
	if len(rte.Diag.Secondary) == 0 {
		t.Errorf("expected a secondary span pointing at age's assignment, got none")
	}
}

// TestSchemaAssertionFailure covers a top-level assert statement raising on
// a false condition (S5).
func TestSchemaAssertionFailure(t *testing.T) {
	rte := runFails(t, &ast.AssertStmt{
		Cond:    &ast.CompareExpr{Op: "EQUAL_TO", Left: &ast.IntLit{Value: 1}, Right: &ast.IntLit{Value: 2}},
		Message: &ast.StringLit{Value: "1 should equal 2"},
	})
	if rte.Diag.Kind != diagnostic.KindAssertionError {
		t.Fatalf("Kind = %v, want AssertionError", rte.Diag.Kind)
	}
}

// TestSchemaAttributeForwardReference covers LOAD_ATTR_LAZY forcing a
// later-declared sibling attribute's initializer on demand.
func TestSchemaAttributeForwardReference(t *testing.T) {
	_, result := run(t,
		&ast.SchemaStmt{
			Name: "Pair",
			Body: []ast.Statement{
				attr("double", &ast.BinaryExpr{Op: "*", Left: &ast.Identifier{Name: "base"}, Right: &ast.IntLit{Value: 2}}),
				attr("base", &ast.IntLit{Value: 21}),
			},
		},
		&ast.AssignStmt{
			Targets: []ast.AssignTarget{{Name: "p"}},
			Value:   schemaCall("Pair"),
		},
	)
	p, ok := result.Get("p")
	if !ok || p.Kind != value.KindSchema {
		t.Fatalf("p = %v, want a schema instance", p)
	}
	double, ok := p.Schema.Attrs.Get("double")
	if !ok || double.Int != 42 {
		t.Errorf("p.double = %v, want 42 (forced base's initializer early)", double)
	}
}

// TestSchemaAttributeCycle covers Testable Property 7: two attributes whose
// initializers reference each other raise RecursionError instead of
// silently resolving to Undefined.
func TestSchemaAttributeCycle(t *testing.T) {
	rte := runFails(t,
		&ast.SchemaStmt{
			Name: "Cyclic",
			Body: []ast.Statement{
				attr("a", &ast.Identifier{Name: "b"}),
				attr("b", &ast.Identifier{Name: "a"}),
			},
		},
		&ast.AssignStmt{
			Targets: []ast.AssignTarget{{Name: "c"}},
			Value:   schemaCall("Cyclic"),
		},
	)
	if rte.Diag.Kind != diagnostic.KindRecursionError {
		t.Fatalf("Kind = %v, want RecursionError", rte.Diag.Kind)
	}
}
