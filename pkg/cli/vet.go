package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kcl-lang/kclvm-go/pkg/builtin"
	"github.com/kcl-lang/kclvm-go/pkg/compiler"
)

var vetCmd = &cobra.Command{
	Use:   "vet FILE...",
	Short: "compile a resolved program and report errors without running it.",
	Long: `vet runs every file through the compiler and prints any compile
errors it finds (bad symbol references, malformed schema bodies, and the
like), without handing the result to the VM. It cannot catch a runtime
constraint violation — that only shows up once "run" actually evaluates
the schema — but it is the fast, side-effect-free check spec.md's CLI
surface calls for between "run" and a full evaluation.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		failed := false
		for _, path := range args {
			prog, err := loadProgram(path)
			if err != nil {
				fail("%v", err)
			}
			registry := builtin.New()
			c := compiler.New(registry.Names())
			if _, _, err := c.Compile(prog); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				failed = true
				continue
			}
			fmt.Printf("%s: ok\n", path)
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(vetCmd)
}
