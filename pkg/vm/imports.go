package vm

import (
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// importName implements IMPORT_NAME (spec.md §4.6 "Import"): look up the
// target package, run its top-level frame to completion if it has not
// already run or started running, and push its globals as a namespace Dict.
//
// runPackage's running/done guard (see vm.go) makes this safe for cyclic
// imports: a package that imports itself transitively observes the SAME
// *value.Dict its own frame is still populating, partially filled in
// whatever order its own top level has executed so far — not a copy, not a
// fresh empty dict, and not an error.
func (vm *VM) importName(fr *Frame, path string) (value.Value, error) {
	if path == vm.mainPackage && fr.pkg.Path != vm.mainPackage {
		return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindCannotFindModule, vm.pos(fr),
			"cannot import the main package %q from another package", path))
	}
	pkg, ok := vm.packages[path]
	if !ok {
		if ns, nsOK := vm.namespaces[path]; nsOK {
			return value.FromDict(ns), nil
		}
		return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindCannotFindModule, vm.pos(fr),
			"package %q not found", path))
	}
	globals, err := vm.runPackage(pkg)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromDict(globals), nil
}
