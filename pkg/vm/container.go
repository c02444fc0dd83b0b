package vm

import (
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// loadAttr implements LOAD_ATTR over a Dict or Schema (spec.md §4.4
// "Attribute access"). A missing key reads as Undefined rather than raising
// AttributeError — schema attribute access must tolerate an attribute that
// exists declaratively but has never been assigned.
func (vm *VM) loadAttr(recv value.Value, name string) (value.Value, *diagnostic.Diagnostic) {
	switch recv.Kind {
	case value.KindDict:
		if v, ok := recv.Dict.Get(name); ok {
			return v, nil
		}
		return value.Undefined, nil
	case value.KindSchema:
		if v, ok := recv.Schema.Attrs.Get(name); ok {
			return v, nil
		}
		return value.Undefined, nil
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindAttributeError, diagnostic.Position{},
			"%s object has no attribute %q", recv.Kind, name)
	}
}

// storeAttr implements STORE_ATTR/DELETE_ATTR (the latter passes
// value.Undefined, per pkg/bytecode's own doc comment that DELETE_* means
// "set to Undefined", not physical removal).
func (vm *VM) storeAttr(recv value.Value, name string, v value.Value) *diagnostic.Diagnostic {
	switch recv.Kind {
	case value.KindDict:
		recv.Dict.Set(name, v, value.OpOverride)
		return nil
	case value.KindSchema:
		recv.Schema.Attrs.Set(name, v, value.OpOverride)
		return nil
	default:
		return diagnostic.New(diagnostic.KindCannotAddMembers, diagnostic.Position{},
			"cannot set attribute %q on %s", name, recv.Kind)
	}
}

// subscript implements BINARY_SUBSCR: list/string indexing by int (negative
// indices count from the end, the same convention spec.md's slicing
// examples assume) and dict indexing by string key.
func (vm *VM) subscript(recv, idx value.Value) (value.Value, *diagnostic.Diagnostic) {
	switch recv.Kind {
	case value.KindList:
		i, ok := intOf(idx)
		if !ok {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "list index must be an int")
		}
		n := int64(len(recv.List))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "list index out of range")
		}
		return recv.List[i], nil
	case value.KindStr:
		i, ok := intOf(idx)
		if !ok {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "string index must be an int")
		}
		runes := []rune(recv.Str)
		n := int64(len(runes))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "string index out of range")
		}
		return value.Str(string(runes[i])), nil
	case value.KindDict:
		if idx.Kind != value.KindStr {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "dict key must be a str")
		}
		if v, ok := recv.Dict.Get(idx.Str); ok {
			return v, nil
		}
		return value.Undefined, nil
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "%s object is not subscriptable", recv.Kind)
	}
}

// storeSubscript implements STORE_SUBSCR/DELETE_SUBSCR.
func (vm *VM) storeSubscript(recv, idx, v value.Value) *diagnostic.Diagnostic {
	switch recv.Kind {
	case value.KindList:
		i, ok := intOf(idx)
		if !ok {
			return diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "list index must be an int")
		}
		n := int64(len(recv.List))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "list index out of range")
		}
		recv.List[i] = v
		return nil
	case value.KindDict:
		if idx.Kind != value.KindStr {
			return diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "dict key must be a str")
		}
		recv.Dict.Set(idx.Str, v, value.OpOverride)
		return nil
	default:
		return diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "%s object does not support item assignment", recv.Kind)
	}
}

// getIter implements GET_ITER (spec.md §4.2 "Control flow"). A string
// iterates one single-character string per step, the same arity a list of
// its characters would have.
func (vm *VM) getIter(v value.Value) (value.Value, *diagnostic.Diagnostic) {
	switch v.Kind {
	case value.KindList:
		return value.FromIterator(value.NewListIterator(v.List)), nil
	case value.KindDict:
		return value.FromIterator(value.NewDictIterator(v.Dict)), nil
	case value.KindStr:
		runes := []rune(v.Str)
		items := make([]value.Value, len(runes))
		for i, r := range runes {
			items[i] = value.Str(string(r))
		}
		return value.FromIterator(value.NewListIterator(items)), nil
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "%s object is not iterable", v.Kind)
	}
}
