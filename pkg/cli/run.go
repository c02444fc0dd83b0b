package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/builtin"
	"github.com/kcl-lang/kclvm-go/pkg/compiler"
	"github.com/kcl-lang/kclvm-go/pkg/planner"
	"github.com/kcl-lang/kclvm-go/pkg/settings"
	"github.com/kcl-lang/kclvm-go/pkg/value"
	"github.com/kcl-lang/kclvm-go/pkg/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] FILE...",
	Short: "compile and evaluate a resolved KCL program.",
	Long: `run loads the gob-encoded ast.Program file named by its first argument
(the hand-off format an external lex/parse/resolve front end produces;
this module implements no lexer or parser of its own), compiles it to
bytecode, runs the main package, and prints the resulting configuration
as YAML or JSON. Only the first FILE is read; further FILE arguments are
ignored.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := planOptionsFromFlags(cmd)
		strictRange := GetFlag(cmd, "strict-range-check")
		overrides := GetStringArray(cmd, "define")
		settingsPath := GetString(cmd, "setting")
		if settingsPath != "" {
			s, err := settings.Load(settingsPath)
			if err != nil {
				fail("%v", err)
			}
			applySettings(&opts, s)
			strictRange = strictRange || s.CLIConfigs.StrictRangeCheck
			overrides = append(settingsOverrides(s), overrides...)
		}

		prog, err := loadProgram(args[0])
		if err != nil {
			fail("%v", err)
		}
		if err := applyOverrides(prog, overrides); err != nil {
			fail("%v", err)
		}

		result, err := runProgram(prog, strictRange)
		if err != nil {
			fail("%v", err)
		}

		out, err := renderResult(cmd, result, opts)
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(out)
	},
}

func init() {
	runCmd.Flags().StringP("setting", "Y", "", "settings YAML file")
	runCmd.Flags().StringArrayP("define", "D", nil, "set a top-level override, key=value")
	runCmd.Flags().StringArrayP("select", "O", nil, "select a dot-notation path from the result")
	runCmd.Flags().Bool("sort-keys", false, "sort output keys alphabetically")
	runCmd.Flags().Bool("ignore-private", false, "omit keys beginning with '_' from output")
	runCmd.Flags().Bool("ignore-none", false, "omit None-valued keys from output")
	runCmd.Flags().String("format", "yaml", "output format: yaml or json")
	runCmd.Flags().Bool("strict-range-check", false, "fail on integer range overflow instead of wrapping")
	rootCmd.AddCommand(runCmd)
}

func planOptionsFromFlags(cmd *cobra.Command) planner.Options {
	return planner.Options{
		SortKeys:      GetFlag(cmd, "sort-keys"),
		IgnorePrivate: GetFlag(cmd, "ignore-private"),
		IgnoreNone:    GetFlag(cmd, "ignore-none"),
		PathSelectors: GetStringArray(cmd, "select"),
	}
}

// settingsOverrides flattens both override sources a settings file can
// carry — the raw `key=value` strings under kcl_cli_configs.overrides and
// the structured kcl_options key/value pairs — into the same flat form
// applyOverrides expects, CLI flags last so a `-D` always wins a conflict.
func settingsOverrides(s *settings.Settings) []string {
	overrides := append([]string(nil), s.CLIConfigs.Overrides...)
	for _, opt := range s.Options {
		overrides = append(overrides, opt.Key+"="+opt.Value)
	}
	return overrides
}

func applySettings(opts *planner.Options, s *settings.Settings) {
	if len(s.CLIConfigs.PathSelector) > 0 {
		opts.PathSelectors = append(opts.PathSelectors, s.CLIConfigs.PathSelector...)
	}
	if s.CLIConfigs.DisableNone {
		opts.IgnoreNone = true
	}
}

// loadProgram reads a gob-encoded ast.Program from path — see
// pkg/ast/codec.go.
func loadProgram(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("run: reading %s: %w", path, err)
	}
	prog, err := ast.DecodeProgram(data)
	if err != nil {
		return nil, fmt.Errorf("run: %s does not look like a resolved program: %w", path, err)
	}
	return prog, nil
}

// runProgram compiles and evaluates prog, wiring the fixed built-in table
// and system-module namespaces through to both the compiler and the VM —
// the same wiring pkg/builtin's doc comment describes as its two
// addressing schemes.
func runProgram(prog *ast.Program, strictRange bool) (*value.Dict, error) {
	registry := builtin.New()
	c := compiler.New(registry.Names())
	entry, packages, err := c.Compile(prog)
	if err != nil {
		return nil, err
	}

	machine := vm.New(entry, packages,
		vm.WithBuiltins(registry.Table()),
		vm.WithNamespaces(registry.AllNamespaces()),
		vm.WithLogger(log),
		vm.WithStrictRange(strictRange),
	)
	result, err := machine.Run(prog.MainPackage)
	if err != nil {
		return nil, err
	}
	for _, warning := range machine.Diagnostics().Warnings() {
		fmt.Fprintln(os.Stderr, warning.Render(true))
	}
	return result, nil
}

func renderResult(cmd *cobra.Command, result *value.Dict, opts planner.Options) (string, error) {
	switch strings.ToLower(GetString(cmd, "format")) {
	case "json":
		return planner.ToJSON(result, opts)
	case "yaml", "":
		return planner.ToYAML(result, opts)
	default:
		return "", fmt.Errorf("run: unknown output format %q", GetString(cmd, "format"))
	}
}
