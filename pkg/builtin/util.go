package builtin

import (
	"strings"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// utilNamespace mirrors original_source's system_module/util.py's single
// filter_fields helper, which json.py and yaml.py both call before
// serializing — reused here the same way by jsonEncode/yamlEncode.
func utilNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "filter_fields", Fn: utilFilterFields},
	}
}

func utilFilterFields(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Undefined, nil
	}
	ignorePrivate, ignoreNone := false, false
	if len(args) >= 2 {
		ignorePrivate = args[1].Truthy()
	}
	if len(args) >= 3 {
		ignoreNone = args[2].Truthy()
	}
	return FilterFields(args[0], ignorePrivate, ignoreNone), nil
}

// FilterFields drops Undefined values, optionally private ("_"-prefixed)
// keys and None values, recursively — the same pass json.encode/yaml.encode
// run over their input before serializing. Exported so pkg/planner's own
// flattening runs the identical filtering core rather than a duplicate.
func FilterFields(v value.Value, ignorePrivate, ignoreNone bool) value.Value {
	switch v.Kind {
	case value.KindList:
		out := make([]value.Value, 0, len(v.List))
		for _, item := range v.List {
			if item.IsUndefined() {
				continue
			}
			if ignoreNone && item.IsNone() {
				continue
			}
			out = append(out, FilterFields(item, ignorePrivate, ignoreNone))
		}
		return value.List(out)
	case value.KindDict:
		out := value.NewDict()
		v.Dict.Each(func(k string, val value.Value, op value.Op) {
			if val.IsUndefined() {
				return
			}
			if ignoreNone && val.IsNone() {
				return
			}
			if ignorePrivate && strings.HasPrefix(k, "_") {
				return
			}
			out.Set(k, FilterFields(val, ignorePrivate, ignoreNone), op)
		})
		return value.FromDict(out)
	default:
		return v
	}
}
