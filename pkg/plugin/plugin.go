// Package plugin implements the Plugin ABI host side (spec.md §6): a
// handle-based invocation surface — context_new, context_delete,
// context_invoke — that lets a caller (pkg/rpc, cmd/kcl's "plugin"
// subcommand, or a future cgo-exported C ABI shim) reach either a built-in
// system module or a user-supplied plugin by one dotted method name.
//
// This package has no prior Go-side precedent to build on; it is grounded
// instead on original_source's compiler/extension/plugin/main.py (the kcl-plugin CLI:
// list/init/info/gendoc/version/test against a plugin root) and
// template.py (the INFO descriptor shape and example plugin source), with
// the Go side leaning on the standard library's plugin package in place of
// main.py's Python module-import discovery — see DESIGN.md.
package plugin

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvPluginRoot is the environment variable spec.md §6 refers to as
// "configurable by environment variable" for locating the plugin root.
const EnvPluginRoot = "KCL_PLUGIN_ROOT"

// Info is a plugin's INFO descriptor (original's INFO = {'name',
// 'describe', 'long_describe', 'version'} dict from template.py), stored
// here as a sibling "info.yaml" file rather than a Python dict literal —
// the declarative-file idiom the rest of this module already uses for
// settings (see pkg/settings) instead of executable host-language source.
type Info struct {
	Name         string `yaml:"name"`
	Describe     string `yaml:"describe"`
	LongDescribe string `yaml:"long_describe,omitempty"`
	Version      string `yaml:"version"`
}

const infoFileName = "info.yaml"

// Host discovers and describes plugins under a plugin root directory, the
// Go-side counterpart of main.py's get_plugin_root/get_plugin_names/
// get_info.
type Host struct {
	Root string
}

// RootFromEnv resolves the plugin root the way main.py's get_plugin_root
// does: an environment variable, falling back to a fixed default directory.
func RootFromEnv() string {
	if root := os.Getenv(EnvPluginRoot); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kclvm", "plugins")
	}
	return filepath.Join(home, ".kclvm", "plugins")
}

// NewHost builds a Host rooted at root; pass RootFromEnv() for the default.
func NewHost(root string) *Host {
	return &Host{Root: root}
}

// Names lists every plugin directory under the root that carries an
// info.yaml descriptor — main.py's get_plugin_names.
func (h *Host) Names() ([]string, error) {
	entries, err := os.ReadDir(h.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: reading root %q: %w", h.Root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(h.Root, e.Name(), infoFileName)); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Info reads a plugin's descriptor — main.py's get_info(name).
func (h *Host) Info(name string) (Info, error) {
	path := filepath.Join(h.Root, name, infoFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("plugin: no such plugin %q: %w", name, err)
	}
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("plugin: malformed %s for %q: %w", infoFileName, name, err)
	}
	return info, nil
}

// Version reports the info.yaml version for name, or "" if absent —
// main.py's get_plugin_version.
func (h *Host) Version(name string) string {
	info, err := h.Info(name)
	if err != nil {
		return ""
	}
	return info.Version
}

// pluginDir returns the on-disk directory a named plugin lives in.
func (h *Host) pluginDir(name string) string {
	return filepath.Join(h.Root, name)
}

// Gendoc renders a plugin's descriptor as Markdown — main.py's gendoc
// subcommand, which emits a doc page from the same INFO fields.
func (h *Host) Gendoc(name string) (string, error) {
	info, err := h.Info(name)
	if err != nil {
		return "", err
	}
	doc := fmt.Sprintf("# %s\n\n%s\n\nversion: %s\n", info.Name, info.Describe, info.Version)
	if info.LongDescribe != "" {
		doc += "\n" + info.LongDescribe + "\n"
	}
	return doc, nil
}
