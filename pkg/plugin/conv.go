package plugin

import (
	"encoding/json"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// callBuiltIn bridges the JSON-encoded Plugin ABI call convention to a
// value.BuiltIn's native ([]value.Value) -> (value.Value, error) shape.
// Built-ins never receive kwargs (see pkg/builtin's documented
// simplification); kwargs arriving over the ABI are simply ignored here,
// consistent with that same choice.
func callBuiltIn(fn value.BuiltIn, args []interface{}, _ map[string]interface{}) ([]byte, error) {
	vargs := make([]value.Value, len(args))
	for i, a := range args {
		vargs[i] = goToValue(a)
	}
	result, err := fn.Fn(vargs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueToGo(result))
}

func goToValue(x interface{}) value.Value {
	switch t := x.(type) {
	case nil:
		return value.None
	case bool:
		return value.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return value.Int(int64(t))
		}
		return value.Float(t)
	case string:
		return value.Str(t)
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = goToValue(e)
		}
		return value.List(out)
	case map[string]interface{}:
		d := value.NewDict()
		for k, v := range t {
			d.Set(k, goToValue(v), value.OpOverride)
		}
		return value.FromDict(d)
	default:
		return value.None
	}
}

func valueToGo(v value.Value) interface{} {
	switch v.Kind {
	case value.KindNone, value.KindUndefined:
		return nil
	case value.KindBool:
		return v.Bool
	case value.KindInt:
		return v.Int
	case value.KindFloat:
		return v.Float
	case value.KindNumberMultiplier:
		return v.String()
	case value.KindStr:
		return v.Str
	case value.KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = valueToGo(e)
		}
		return out
	case value.KindDict:
		out := make(map[string]interface{}, v.Dict.Len())
		v.Dict.Each(func(k string, val value.Value, _ value.Op) {
			out[k] = valueToGo(val)
		})
		return out
	default:
		return v.String()
	}
}
