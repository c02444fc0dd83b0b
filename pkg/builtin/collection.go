package builtin

import "github.com/kcl-lang/kclvm-go/pkg/value"

// collectionNamespace mirrors original_source's system_module/collection.py
// union_all: fold a list of dicts into one via left-to-right union merge,
// the same semantics BINARY_ADD on two dicts already implements in
// pkg/vm/arith.go.
func collectionNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "union_all", Fn: collectionUnionAll},
	}
}

func collectionUnionAll(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindList {
		return value.FromDict(value.NewDict()), nil
	}
	items := args[0].List
	if len(items) == 0 {
		return value.FromDict(value.NewDict()), nil
	}
	if items[0].Kind != value.KindDict {
		return value.Value{}, argErr("collection.union_all", "list elements must be dicts")
	}
	acc := items[0].Dict.Clone()
	for _, it := range items[1:] {
		if it.Kind != value.KindDict {
			return value.Value{}, argErr("collection.union_all", "list elements must be dicts")
		}
		merged, err := value.Union(acc, it.Dict)
		if err != nil {
			return value.Value{}, err
		}
		acc = merged
	}
	return value.FromDict(acc), nil
}
