package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoadParsesCLIConfigsAndOptions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "kcl.mod"), "[package]\nname = \"demo\"\n")
	settingsPath := filepath.Join(dir, "kcl.yaml")
	writeFile(t, settingsPath, `
kcl_cli_configs:
  files:
    - main.k
  output: out.yaml
  strict_range_check: true
kcl_options:
  - key: env
    value: prod
`)
	s, err := Load(settingsPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(s.CLIConfigs.Files) != 1 || s.CLIConfigs.Files[0] != "main.k" {
		t.Errorf("unexpected files: %v", s.CLIConfigs.Files)
	}
	if !s.CLIConfigs.StrictRangeCheck {
		t.Errorf("expected strict_range_check true")
	}
	if len(s.Options) != 1 || s.Options[0].Key != "env" || s.Options[0].Value != "prod" {
		t.Errorf("unexpected options: %v", s.Options)
	}
}

func TestLoadExpandsKCLMod(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "kcl.mod"), "[package]\nname = \"demo\"\n")
	settingsPath := filepath.Join(dir, "kcl.yaml")
	writeFile(t, settingsPath, `
kcl_cli_configs:
  files:
    - ${KCL_MOD}/main.k
`)
	s, err := Load(settingsPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := filepath.Join(dir, "main.k")
	if s.CLIConfigs.Files[0] != want {
		t.Errorf("expected %q, got %q", want, s.CLIConfigs.Files[0])
	}
}

func TestLoadRejectsScalarTopLevel(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "kcl.yaml")
	writeFile(t, settingsPath, "just a string\n")
	if _, err := Load(settingsPath); err == nil {
		t.Errorf("expected error loading a scalar top-level settings file")
	}
}

func TestLoadRejectsListTopLevel(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "kcl.yaml")
	writeFile(t, settingsPath, "- a\n- b\n")
	if _, err := Load(settingsPath); err == nil {
		t.Errorf("expected error loading a list top-level settings file")
	}
}

func TestParseOption(t *testing.T) {
	opt, err := ParseOption("name=value")
	if err != nil {
		t.Fatalf("ParseOption error: %v", err)
	}
	if opt.Key != "name" || opt.Value != "value" {
		t.Errorf("unexpected option: %+v", opt)
	}
	if _, err := ParseOption("noequals"); err == nil {
		t.Errorf("expected error for missing '='")
	}
}

func TestFindPackageRootWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "kcl.mod"), "[package]\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	found, err := FindPackageRoot(nested)
	if err != nil {
		t.Fatalf("FindPackageRoot error: %v", err)
	}
	if found != root {
		t.Errorf("expected %q, got %q", root, found)
	}
}
