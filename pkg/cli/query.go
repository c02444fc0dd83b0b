package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "inspect or rewrite a resolved program.",
}

var queryOverrideCmd = &cobra.Command{
	Use:   "override FILE SPEC...",
	Short: "apply one or more key=value overrides to a resolved program in place.",
	Long: `override rewrites a gob-encoded ast.Program's top-level bindings (see
"run"'s own note on why this module consumes a resolved AST, not raw .k
source) and writes the result back to FILE.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path, specs := args[0], args[1:]
		prog, err := loadProgram(path)
		if err != nil {
			fail("%v", err)
		}
		if err := applyOverrides(prog, specs); err != nil {
			fail("%v", err)
		}
		data, err := ast.EncodeProgram(prog)
		if err != nil {
			fail("query: re-encoding %s: %v", path, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fail("query: writing %s: %v", path, err)
		}
	},
}

func init() {
	queryCmd.AddCommand(queryOverrideCmd)
	rootCmd.AddCommand(queryCmd)
}
