package plugin

import (
	"fmt"
	"os"
	"path/filepath"
)

// Init scaffolds a new plugin directory, the Go equivalent of template.py's
// get_plugin_template_code plus main.py's "init" subcommand: an info.yaml
// descriptor, a plugin.go exposing the native ABI functions described in
// context.go, and a _test.go exercising them.
func (h *Host) Init(name string) error {
	dir := h.pluginDir(name)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("plugin: %q already exists at %s", name, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("plugin: creating %s: %w", dir, err)
	}
	files := map[string]string{
		infoFileName: infoTemplate(name),
		"plugin.go":  sourceTemplate(name),
		"plugin_test.go": testTemplate(name),
	}
	for filename, content := range files {
		if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
			return fmt.Errorf("plugin: writing %s: %w", filename, err)
		}
	}
	return nil
}

func infoTemplate(name string) string {
	return fmt.Sprintf(`name: %s
describe: the %s plugin
long_describe: |
  generated by kcl plugin init
version: 0.0.1
`, name, name)
}

// sourceTemplate mirrors template.py's example functions (say_hello, add,
// tolower, update_dict, and list_append with *values), translated to the
// context.go ABI: func(args []interface{}, kwargs map[string]interface{})
// (interface{}, error).
func sourceTemplate(name string) string {
	return fmt.Sprintf(`// Package main is a %s plugin, loaded as a Go shared object via
// "go build -buildmode=plugin" and discovered through info.yaml.
//
// Each exported function implements the plugin ABI kcl-plugin's host
// expects: func(args []interface{}, kwargs map[string]interface{})
// (interface{}, error). Positional arguments arrive in args; keyword
// arguments arrive in kwargs.
package main

import (
	"errors"
	"strings"
)

func SayHello(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return "Hello world!", nil
}

func Add(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, errors.New("add expects exactly two arguments")
	}
	a, aok := args[0].(float64)
	b, bok := args[1].(float64)
	if !aok || !bok {
		return nil, errors.New("add expects numeric arguments")
	}
	return a + b, nil
}

func Tolower(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.New("tolower expects exactly one argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, errors.New("tolower expects a string argument")
	}
	return strings.ToLower(s), nil
}

func UpdateDict(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.New("update_dict expects exactly one argument")
	}
	d, ok := args[0].(map[string]interface{})
	if !ok {
		return nil, errors.New("update_dict expects a dict argument")
	}
	for k, v := range kwargs {
		d[k] = v
	}
	return d, nil
}

func ListAppend(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(args) < 1 {
		return nil, errors.New("list_append expects a list and zero or more values")
	}
	list, ok := args[0].([]interface{})
	if !ok {
		return nil, errors.New("list_append expects a list as its first argument")
	}
	return append(list, args[1:]...), nil
}
`, name)
}

func testTemplate(name string) string {
	return `package main

import "testing"

func TestSayHello(t *testing.T) {
	out, err := SayHello(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hello world!" {
		t.Fatalf("say_hello: got %v", out)
	}
}

func TestAdd(t *testing.T) {
	out, err := Add([]interface{}{1.0, 2.0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != 3.0 {
		t.Fatalf("add: got %v", out)
	}
}
`
}
