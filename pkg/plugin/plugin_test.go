package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/builtin"
)

func writeInfo(t *testing.T, root, name string, info Info) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data := "name: " + info.Name + "\ndescribe: " + info.Describe + "\nversion: " + info.Version + "\n"
	if err := os.WriteFile(filepath.Join(dir, infoFileName), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestHostNamesListsOnlyDescribedPlugins(t *testing.T) {
	root := t.TempDir()
	writeInfo(t, root, "hello", Info{Name: "hello", Describe: "says hello", Version: "0.1.0"})
	if err := os.MkdirAll(filepath.Join(root, "not_a_plugin"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := NewHost(root).Names()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "hello" {
		t.Fatalf("Names() = %v, want [hello]", names)
	}
}

func TestHostNamesMissingRootIsEmptyNotError(t *testing.T) {
	names, err := NewHost(filepath.Join(t.TempDir(), "does-not-exist")).Names()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names != nil {
		t.Fatalf("Names() = %v, want nil", names)
	}
}

func TestHostInfoAndVersion(t *testing.T) {
	root := t.TempDir()
	writeInfo(t, root, "hello", Info{Name: "hello", Describe: "says hello", Version: "1.2.3"})
	h := NewHost(root)

	info, err := h.Info("hello")
	if err != nil {
		t.Fatal(err)
	}
	if info.Describe != "says hello" {
		t.Fatalf("Describe = %q", info.Describe)
	}
	if v := h.Version("hello"); v != "1.2.3" {
		t.Fatalf("Version() = %q, want 1.2.3", v)
	}
	if v := h.Version("missing"); v != "" {
		t.Fatalf("Version(missing) = %q, want \"\"", v)
	}
}

func TestHostGendocIncludesLongDescribe(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "hello")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data := "name: hello\ndescribe: says hello\nlong_describe: a longer story\nversion: 0.1.0\n"
	if err := os.WriteFile(filepath.Join(dir, infoFileName), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewHost(root).Gendoc("hello")
	if err != nil {
		t.Fatal(err)
	}
	if !contains(doc, "a longer story") {
		t.Fatalf("Gendoc() = %q, missing long_describe", doc)
	}
}

func TestHostInitScaffoldsPluginDirectory(t *testing.T) {
	root := t.TempDir()
	if err := NewHost(root).Init("greeter"); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"info.yaml", "plugin.go", "plugin_test.go"} {
		if _, err := os.Stat(filepath.Join(root, "greeter", f)); err != nil {
			t.Fatalf("Init did not create %s: %v", f, err)
		}
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}

func TestContextInvokeDispatchesToBuiltinRegistry(t *testing.T) {
	ctx := NewContext(NewHost(t.TempDir()), builtin.New())

	out, err := ctx.Invoke("base64.encode", []byte(`["hello"]`), []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"aGVsbG8="` {
		t.Fatalf("Invoke(base64.encode) = %s, want %q", out, `"aGVsbG8="`)
	}
}

func TestContextInvokeUnprefixedResolvesUnderBuiltin(t *testing.T) {
	ctx := NewContext(NewHost(t.TempDir()), builtin.New())

	// "builtin."-prefixed and unprefixed core names must resolve identically.
	a, err := ctx.Invoke("builtin.len", []byte(`[[1,2,3]]`), []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ctx.Invoke("len", []byte(`[[1,2,3]]`), []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatalf("builtin.-prefixed and unprefixed diverge: %s vs %s", a, b)
	}
}

func TestContextInvokeUnknownMethodErrors(t *testing.T) {
	ctx := NewContext(NewHost(t.TempDir()), builtin.New())
	if _, err := ctx.Invoke("nosuchplugin.nosuchmethod", []byte(`[]`), []byte(`{}`)); err == nil {
		t.Fatal("expected an error for an unresolvable method")
	}
}

func TestContextNewDeleteInvokeHandleTable(t *testing.T) {
	h := ContextNew(NewHost(t.TempDir()), builtin.New())
	defer ContextDelete(h)

	out, err := ContextInvoke(h, "base64.encode", []byte(`["x"]`), []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("ContextInvoke returned empty result")
	}

	ContextDelete(h)
	if _, err := ContextInvoke(h, "base64.encode", []byte(`["x"]`), []byte(`{}`)); err == nil {
		t.Fatal("expected an error invoking a deleted context")
	}
}

func TestExportedName(t *testing.T) {
	cases := map[string]string{
		"say_hello":  "SayHello",
		"tolower":    "Tolower",
		"list_append": "ListAppend",
	}
	for in, want := range cases {
		if got := exportedName(in); got != want {
			t.Errorf("exportedName(%q) = %q, want %q", in, got, want)
		}
	}
}
