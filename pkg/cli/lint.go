package cli

import (
	"github.com/spf13/cobra"
)

// See fmt.go: lint belongs to the same source-level family as fmt and
// needs the text a resolved ast.Program no longer carries (original
// formatting, comments, surface-level style). "vet" covers the
// compile-error subset of what a lint pass would otherwise catch.

var lintCmd = &cobra.Command{
	Use:   "lint FILE...",
	Short: "style-check KCL source files (unsupported: no source-level parser).",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fail("lint: this build has no source-level parser to style-check " +
			"against; use \"vet\" to catch compile errors in a resolved program")
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
