package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
)

// applyOverrides implements `-D key=value` (run) and `query override`'s
// SPEC arguments: each override walks the main package's top-level
// AssignStmts for one whose sole, un-dotted target matches key and
// replaces its literal value in place, before compilation. Only a
// bare-name top-level binding can be overridden this way — a dotted or
// tuple-unpack target is left untouched and its key is reported as
// unmatched, since there is no lexer/parser here to safely rewrite a
// deeper expression tree from a flat string.
func applyOverrides(prog *ast.Program, overrides []string) error {
	for _, raw := range overrides {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("override: invalid override %q, expected key=value", raw)
		}
		if !overrideTopLevel(prog, key, value) {
			return fmt.Errorf("override: no top-level binding named %q in package %q", key, prog.MainPackage)
		}
	}
	return nil
}

func overrideTopLevel(prog *ast.Program, key, value string) bool {
	modules := prog.Packages[prog.MainPackage]
	for _, mod := range modules {
		for _, stmt := range mod.Statements {
			assign, ok := stmt.(*ast.AssignStmt)
			if !ok || len(assign.Targets) != 1 || assign.Targets[0].Name != key || len(assign.Targets[0].Path) > 0 {
				continue
			}
			assign.Value = parseOverrideLiteral(value)
			return true
		}
	}
	return false
}

// parseOverrideLiteral turns a raw `-D` string into the closest literal
// node: an int, a float, a bool, or a plain string — KCL has no separate
// "untyped override" literal, so the override's shape is inferred the way
// a shell-style `-D key=value` flag conventionally is.
func parseOverrideLiteral(raw string) ast.Expression {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &ast.IntLit{Value: i}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return &ast.FloatLit{Value: f}
	}
	if raw == "true" || raw == "false" {
		return &ast.BoolLit{Value: raw == "true"}
	}
	return &ast.StringLit{Value: raw}
}
