package vm

import (
	"github.com/kcl-lang/kclvm-go/pkg/compiler"
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/mangle"
	"github.com/kcl-lang/kclvm-go/pkg/symtable"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// resolveKind maps a bare type name — a schema name or a primitive keyword —
// to the value.Kind and (for a schema) the mangled type reference
// MEMBER_SHIP_AS and a schema's index-signature declaration both need (spec.md
// §4.4 "Type conversion", GLOSSARY "Index signature"). Schema names take
// priority over primitive keywords since nothing stops a KCL author from
// shadowing a keyword-shaped identifier with their own schema (an edge case
// this system does not forbid).
func (vm *VM) resolveKind(name string) (kind value.Kind, schemaRef string, ok bool) {
	mangled := mangle.Mangle(name)
	if _, found := vm.schemaTypes[mangled]; found {
		return value.KindSchema, mangled, true
	}
	switch name {
	case "int":
		return value.KindInt, "", true
	case "float":
		return value.KindFloat, "", true
	case "str":
		return value.KindStr, "", true
	case "bool":
		return value.KindBool, "", true
	case "list":
		return value.KindList, "", true
	case "dict":
		return value.KindDict, "", true
	case "NoneType":
		return value.KindNone, "", true
	default:
		return 0, "", false
	}
}

// buildSchemaInstance implements BUILD_SCHEMA's construction algorithm
// (spec.md §4.5 "Construction of schemas"), a fixed four-step order:
//  1. build the parent instance (recursively, with an empty config)
//  2. union each mixin's instance on top, in declaration order
//  3. apply the caller's config, respecting each entry's own merge op
//  4. run the schema's own body against the result, seeded into its locals
//
// Step 4 seeds every declared attribute's slot first, then runs the body
// frame once; within it, LOAD_ATTR_LAZY forces each attribute's own
// initializer sub-module on demand the first time something reads a slot
// still Undefined (see pkg/compiler/schema.go's compileSchemaBodyStmt), so a
// value already seeded from an earlier step wins over the body's own
// declared default, while forward references between attributes and
// reference cycles both resolve correctly instead of silently reading
// Undefined.
func (vm *VM) buildSchemaInstance(fr *Frame, sc *compiler.SchemaTypeConst, cfg *value.Dict) (*value.Schema, error) {
	inherited, err := vm.buildInherited(fr, sc)
	if err != nil {
		return nil, err
	}
	merged, mergeErr := applyConfig(inherited, cfg)
	if mergeErr != nil {
		return nil, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr),
			"schema %s: %s", sc.Name, mergeErr))
	}

	locals := make([]value.Value, sc.NumLocals)
	for i := range locals {
		locals[i] = value.Undefined
	}
	for i, name := range sc.AttrNames {
		if i >= len(locals) {
			break
		}
		if v, ok := merged.Get(name); ok {
			if err := vm.checkStoreRange(fr, v); err != nil {
				return nil, vm.fail(fr, err)
			}
			locals[i] = v
		}
	}

	free := make([]value.Value, len(sc.FreeVars))
	for i, sym := range sc.FreeVars {
		switch sym.Scope {
		case symtable.LOCAL:
			free[i] = fr.locals[sym.Index]
		case symtable.FREE:
			free[i] = fr.free[sym.Index]
		default:
			free[i] = value.Undefined
		}
	}

	inst := value.NewSchema(mangle.Mangle(sc.Name))
	for i, name := range sc.AttrNames {
		if i < len(locals) && !locals[i].IsUndefined() {
			inst.RecordAttrStore(name, vm.pos(fr))
		}
	}
	bodyFrame := &Frame{
		module: sc.Body, locals: locals, free: free,
		pkg: vm.packageFor(sc.Body.PackagePath), name: sc.Name,
		schema: inst, schemaConst: sc,
	}
	if bodyFrame.pkg == nil {
		bodyFrame.pkg = fr.pkg
	}
	if _, runErr := vm.run(bodyFrame); runErr != nil {
		return nil, runErr
	}

	inst.Attrs = merged.Clone()
	for i, name := range sc.AttrNames {
		if i >= len(bodyFrame.locals) {
			continue
		}
		v := bodyFrame.locals[i]
		if v.IsUndefined() {
			inst.Attrs.Delete(name)
		} else {
			inst.Attrs.Set(name, v, value.OpOverride)
		}
	}
	return inst, nil
}

// buildInherited constructs the parent (if any) and every mixin (in
// declaration order) with an empty config, unioning their attribute dicts
// together — step 1-2 of spec.md §4.5's construction order.
func (vm *VM) buildInherited(fr *Frame, sc *compiler.SchemaTypeConst) (*value.Dict, error) {
	base := value.NewDict()
	if sc.Parent != "" {
		parentSc, ok := vm.schemaTypes[mangle.Mangle(sc.Parent)]
		if !ok {
			return nil, vm.fail(fr, diagnostic.New(diagnostic.KindIllegalInheritError, vm.pos(fr),
				"schema %s: parent %s not found", sc.Name, sc.Parent))
		}
		parentInst, err := vm.buildSchemaInstance(fr, parentSc, value.NewDict())
		if err != nil {
			return nil, err
		}
		base = parentInst.Attrs.Clone()
	}
	for _, mixinName := range sc.Mixins {
		mixinSc, ok := vm.schemaTypes[mangle.Mangle(mixinName)]
		if !ok {
			return nil, vm.fail(fr, diagnostic.New(diagnostic.KindMultiInheritError, vm.pos(fr),
				"schema %s: mixin %s not found", sc.Name, mixinName))
		}
		mixinInst, err := vm.buildSchemaInstance(fr, mixinSc, value.NewDict())
		if err != nil {
			return nil, err
		}
		merged, unionErr := value.Union(base, mixinInst.Attrs)
		if unionErr != nil {
			return nil, vm.fail(fr, diagnostic.New(diagnostic.KindMultiInheritError, vm.pos(fr),
				"schema %s: mixing in %s: %s", sc.Name, mixinName, unionErr))
		}
		base = merged
	}
	return base, nil
}

// applyConfig folds cfg's entries onto base, respecting each entry's own Op
// tag (spec.md §4.4 "OVERRIDE | UNION | INSERT") — step 3 of construction.
func applyConfig(base, cfg *value.Dict) (*value.Dict, error) {
	out := base.Clone()
	var firstErr error
	cfg.Each(func(k string, v value.Value, op value.Op) {
		if firstErr != nil {
			return
		}
		existing, had := out.Get(k)
		merged, err := value.ApplyOp(existing, had, v, op)
		if err != nil {
			firstErr = err
			return
		}
		out.Set(k, merged, op)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// loadAttrLazy implements LOAD_ATTR_LAZY: reading a schema attribute forces
// its own initializer to run on first read if the slot is still Undefined,
// so a check condition or another attribute's initializer can reference a
// sibling declared later in the body (spec.md §4.5 "Lazy attribute
// evaluation and backtracking"). A second, re-entrant force while the same
// attribute's initializer is already running is a reference cycle.
// fr.locals is shared by reference with the sub-frame the initializer runs
// in, so the STORE_LOCAL inside it lands directly in the caller's slot.
func (vm *VM) loadAttrLazy(fr *Frame, index int) (value.Value, error) {
	if index < 0 || index >= len(fr.locals) {
		return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindEvaluationError, vm.pos(fr),
			"LOAD_ATTR_LAZY index %d out of range", index))
	}
	if !fr.locals[index].IsUndefined() || fr.schemaConst == nil || fr.schema == nil {
		return fr.locals[index], nil
	}
	init, ok := fr.schemaConst.AttrInits[index]
	if !ok {
		return fr.locals[index], nil
	}
	if cached, ok := fr.schema.CachedAttr(init.Name); ok {
		fr.locals[index] = cached
		return cached, nil
	}
	if fr.schema.EnterAttr(init.Name) > 1 {
		fr.schema.ExitAttr(init.Name)
		return value.Value{}, vm.fail(fr, diagnostic.New(diagnostic.KindRecursionError, vm.pos(fr),
			"attribute %q of schema %s references itself while being computed", init.Name, fr.schema.TypeRef))
	}
	sub := &Frame{
		module: init.Module, locals: fr.locals, free: fr.free,
		pkg: fr.pkg, schema: fr.schema, schemaConst: fr.schemaConst, name: fr.name,
	}
	v, err := vm.run(sub)
	fr.schema.ExitAttr(init.Name)
	if err != nil {
		return value.Value{}, err
	}
	v = fr.locals[index]
	fr.schema.CacheAttr(init.Name, v)
	return v, nil
}
