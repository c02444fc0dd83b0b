// Package cli implements the CLI surface spec.md §6 describes: "A single
// executable with sub-tools: run, fmt, lint, doc, vet, plugin, query."
// It follows the same library-package-plus-thin-main-wrapper split
// Consensys-go-corset uses: pkg/cmd holds cobra.Command definitions and
// Execute(), and cmd/<tool>/main.go just calls it.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// log is the CLI's shared structured logger, matching pkg/vm.WithLogger
// and Consensys-go-corset's `log "github.com/sirupsen/logrus"` usage
// across pkg/cmd/*.
var log = logrus.StandardLogger()

var rootCmd = &cobra.Command{
	Use:   "kcl",
	Short: "A compiler and virtual machine for the KCL configuration language.",
	Long: `kcl compiles a resolved KCL program to bytecode and evaluates it,
producing a configuration document in YAML or JSON.`,
}

// Execute runs the CLI; main.main calls this once and exits non-zero on
// any error (spec.md §6: "Exit code 0 on success, non-zero on any error").
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug-level logging")
	rootCmd.PersistentFlags().String("plugin-root", "", "override the plugin root directory (default: $KCL_PLUGIN_ROOT)")
	cobra.OnInitialize(func() {
		if GetFlag(rootCmd, "debug") {
			log.SetLevel(logrus.DebugLevel)
		} else if GetFlag(rootCmd, "verbose") {
			log.SetLevel(logrus.InfoLevel)
		}
	})
}

// GetFlag/GetString/GetStringArray mirror Consensys-go-corset's
// pkg/cmd/util.go flag accessors (GetFlag/GetInt/GetUint): a thin wrapper
// exiting on a programmer error (an undeclared flag name) instead of
// threading an error through every command body for a mistake only a
// code change could cause. cobra merges a parent's PersistentFlags into
// cmd.Flags() before Run executes, so a subcommand can read rootCmd's
// "verbose"/"debug"/"plugin-root" the same way it reads its own flags.
func GetFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

func GetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

func GetStringArray(cmd *cobra.Command, name string) []string {
	v, err := cmd.Flags().GetStringArray(name)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return v
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
