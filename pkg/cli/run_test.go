package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kcl-lang/kclvm-go/pkg/ast"
)

func TestLoadProgramRoundTripsGobEncoding(t *testing.T) {
	prog := singleAssignProgram("replicas", &ast.IntLit{Value: 3})
	data, err := ast.EncodeProgram(prog)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "app.kast")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := loadProgram(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.MainPackage != prog.MainPackage {
		t.Errorf("MainPackage = %q, want %q", got.MainPackage, prog.MainPackage)
	}
}

func TestLoadProgramRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-program")
	if err := os.WriteFile(path, []byte("this is not gob data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadProgram(path); err == nil {
		t.Fatal("expected an error decoding garbage as ast.Program")
	}
}
