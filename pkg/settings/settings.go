// Package settings loads the YAML settings files spec.md §6 describes:
// `kcl_cli_configs` (files, output, overrides, path_selector,
// strict_range_check, disable_none, verbose, debug) and `kcl_options`
// (key/value pairs bound as `-D` style command-line overrides), with
// `${KCL_MOD}` expansion against a package root discovered by walking
// upward from the settings file's own directory; the process working
// directory is not consulted.
//
// This package is grounded on original_source's kcl.yaml loader for the
// `kcl_cli_configs`/`kcl_options` field names and the `${KCL_MOD}`
// substitution rule.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// packageMarker is the file walking upward from the settings file's
// directory stops at to locate the package root ${KCL_MOD} expands to — the KCL
// module manifest, mirroring original_source's own package-root walk.
const packageMarker = "kcl.mod"

// CLIConfigs is the kcl_cli_configs block of a settings file.
type CLIConfigs struct {
	Files            []string `yaml:"files"`
	Output           string   `yaml:"output"`
	Overrides        []string `yaml:"overrides"`
	PathSelector     []string `yaml:"path_selector"`
	StrictRangeCheck bool     `yaml:"strict_range_check"`
	DisableNone      bool     `yaml:"disable_none"`
	Verbose          bool     `yaml:"verbose"`
	Debug            bool     `yaml:"debug"`
}

// Option is one kcl_options entry: a `-D key=value` override applied
// before compilation.
type Option struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Settings is the fully-parsed contents of a settings YAML file.
type Settings struct {
	CLIConfigs CLIConfigs `yaml:"kcl_cli_configs"`
	Options    []Option   `yaml:"kcl_options"`
}

// Load reads and parses a settings file at path, expanding ${KCL_MOD} in
// every file path it names against the package root located by walking
// upward from the directory containing path (not from the process
// working directory).
//
// A settings file whose top level is a bare scalar or sequence is a
// loading error (spec.md §6): yaml.Unmarshal into a struct already
// rejects those shapes with a type-mismatch error, which is surfaced
// here rather than papered over.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: reading %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("settings: %s must be a YAML mapping: %w", path, err)
	}

	root, rootErr := FindPackageRoot(filepath.Dir(path))
	expand := func(p string) string {
		if rootErr != nil || !strings.Contains(p, "${KCL_MOD}") {
			return p
		}
		return strings.ReplaceAll(p, "${KCL_MOD}", root)
	}
	for i, f := range s.CLIConfigs.Files {
		s.CLIConfigs.Files[i] = expand(f)
	}
	s.CLIConfigs.Output = expand(s.CLIConfigs.Output)
	return &s, nil
}

// FindPackageRoot walks upward from start looking for a package marker
// file (kcl.mod), the directory ${KCL_MOD} expands to.
func FindPackageRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, packageMarker)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("settings: no %s found above %s", packageMarker, start)
		}
		dir = parent
	}
}

// ParseOption splits a `-D key=value` command-line override the way
// kcl_options entries are specified, used both for CLI flags and for
// settings-file-sourced options sharing one parser.
func ParseOption(raw string) (Option, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return Option{}, fmt.Errorf("settings: invalid option %q, expected key=value", raw)
	}
	return Option{Key: key, Value: value}, nil
}
