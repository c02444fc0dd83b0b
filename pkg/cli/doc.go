package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
)

var docCmd = &cobra.Command{
	Use:   "doc FILE...",
	Short: "render schema and rule documentation from a resolved program.",
	Long: `doc reads the schema and rule declarations out of one or more
gob-encoded ast.Program files and prints Markdown describing each one's
docstring, parent, attributes, and checks. There is no source-level
formatter in this module (see "fmt"), but a resolved AST still carries
every schema's Docstring, attribute defaults, and rule checks, so doc
generation needs no front end of its own.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var out strings.Builder
		for _, path := range args {
			prog, err := loadProgram(path)
			if err != nil {
				fail("%v", err)
			}
			renderDocs(&out, prog)
		}
		fmt.Print(out.String())
	},
}

func init() {
	rootCmd.AddCommand(docCmd)
}

func renderDocs(out *strings.Builder, prog *ast.Program) {
	pkgs := make([]string, 0, len(prog.Packages))
	for pkg := range prog.Packages {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	for _, pkg := range pkgs {
		for _, mod := range prog.Packages[pkg] {
			for _, stmt := range mod.Statements {
				switch s := stmt.(type) {
				case *ast.SchemaStmt:
					renderSchemaDoc(out, pkg, s)
				case *ast.RuleStmt:
					renderRuleDoc(out, pkg, s)
				}
			}
		}
	}
}

func renderSchemaDoc(out *strings.Builder, pkg string, s *ast.SchemaStmt) {
	fmt.Fprintf(out, "## %s.%s\n\n", pkg, s.Name)
	if s.Docstring != "" {
		fmt.Fprintf(out, "%s\n\n", s.Docstring)
	}
	if s.Parent != "" {
		fmt.Fprintf(out, "Inherits from `%s`.\n\n", s.Parent)
	}
	if len(s.Mixins) > 0 {
		fmt.Fprintf(out, "Mixes in: %s\n\n", strings.Join(s.Mixins, ", "))
	}

	attrs := schemaAttributes(s)
	if len(attrs) > 0 {
		fmt.Fprintln(out, "| attribute | default |")
		fmt.Fprintln(out, "| --- | --- |")
		for _, a := range attrs {
			fmt.Fprintf(out, "| %s | %s |\n", a.name, a.def)
		}
		fmt.Fprintln(out)
	}

	for i, c := range s.Checks {
		fmt.Fprintf(out, "check %d: `%s`\n\n", i, renderExpr(c.Cond))
	}
}

func renderRuleDoc(out *strings.Builder, pkg string, r *ast.RuleStmt) {
	fmt.Fprintf(out, "## %s.%s (rule)\n\n", pkg, r.Name)
	if r.Parent != "" {
		fmt.Fprintf(out, "Applies to `%s`.\n\n", r.Parent)
	}
	for i, c := range r.Checks {
		fmt.Fprintf(out, "check %d: `%s`\n\n", i, renderExpr(c.Cond))
	}
}

type schemaAttr struct{ name, def string }

// schemaAttributes pulls bare-name top-level assignments out of a
// schema's body — each one is an attribute declaration with its default
// value, the same shape a settings-file override targets in override.go.
func schemaAttributes(s *ast.SchemaStmt) []schemaAttr {
	var attrs []schemaAttr
	for _, stmt := range s.Body {
		assign, ok := stmt.(*ast.AssignStmt)
		if !ok || len(assign.Targets) != 1 || len(assign.Targets[0].Path) > 0 {
			continue
		}
		attrs = append(attrs, schemaAttr{name: assign.Targets[0].Name, def: renderExpr(assign.Value)})
	}
	return attrs
}

// renderExpr prints the small subset of expressions doc and query need to
// show a human: literals and plain identifiers. Anything else is rendered
// as "<expr>" rather than guessed at, since reconstructing KCL source
// text from a resolved AST is exactly the job this module doesn't do.
func renderExpr(e ast.Expression) string {
	if e == nil {
		return ""
	}
	switch x := e.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("%d", x.Value)
	case *ast.FloatLit:
		return fmt.Sprintf("%g", x.Value)
	case *ast.StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *ast.BoolLit:
		return fmt.Sprintf("%t", x.Value)
	case *ast.NoneLit:
		return "None"
	case *ast.UndefinedLit:
		return "Undefined"
	case *ast.Identifier:
		return x.Name
	default:
		return "<expr>"
	}
}
