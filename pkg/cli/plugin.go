package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	kplugin "github.com/kcl-lang/kclvm-go/pkg/plugin"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "list, scaffold, and describe KCL plugins.",
}

func pluginHost(cmd *cobra.Command) *kplugin.Host {
	root := GetString(cmd, "plugin-root")
	if root == "" {
		root = kplugin.RootFromEnv()
	}
	return kplugin.NewHost(root)
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "list plugins found under the plugin root.",
	Run: func(cmd *cobra.Command, args []string) {
		names, err := pluginHost(cmd).Names()
		if err != nil {
			fail("%v", err)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

var pluginInfoCmd = &cobra.Command{
	Use:   "info NAME",
	Short: "print a plugin's INFO descriptor.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := pluginHost(cmd).Info(args[0])
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("name: %s\ndescribe: %s\nversion: %s\n", info.Name, info.Describe, info.Version)
		if info.LongDescribe != "" {
			fmt.Printf("long_describe: %s\n", info.LongDescribe)
		}
	},
}

var pluginVersionCmd = &cobra.Command{
	Use:   "version NAME",
	Short: "print a plugin's version.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(pluginHost(cmd).Version(args[0]))
	},
}

var pluginGendocCmd = &cobra.Command{
	Use:   "gendoc NAME",
	Short: "render a plugin's INFO descriptor as Markdown.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := pluginHost(cmd).Gendoc(args[0])
		if err != nil {
			fail("%v", err)
		}
		fmt.Print(doc)
	},
}

var pluginInitCmd = &cobra.Command{
	Use:   "init NAME",
	Short: "scaffold a new plugin under the plugin root.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := pluginHost(cmd).Init(args[0]); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	pluginCmd.AddCommand(pluginListCmd, pluginInfoCmd, pluginVersionCmd, pluginGendocCmd, pluginInitCmd)
	rootCmd.AddCommand(pluginCmd)
}
