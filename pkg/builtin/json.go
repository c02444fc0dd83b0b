package builtin

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// jsonNamespace mirrors original_source's system_module/json.py. Encoding
// is hand-rolled rather than a plain encoding/json.Marshal over a
// map[string]interface{} conversion, because Go's encoding/json always
// sorts map keys alphabetically — it would silently break Dict's
// insertion-order guarantee (spec.md §3 Invariants) the moment a config
// had more than one key. Decoding has no such concern (nothing KCL-side
// observes the order JSON was read in beyond what the source text itself
// already fixed), so it reuses encoding/json directly.
func jsonNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "encode", Fn: jsonEncode},
		{Name: "decode", Fn: jsonDecode},
	}
}

func jsonEncode(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, argErr("json.encode", "expects at least one argument")
	}
	sortKeys, ignorePrivate, ignoreNone := false, false, false
	indent := ""
	if len(args) >= 2 {
		sortKeys = args[1].Truthy()
	}
	if len(args) >= 3 && args[2].Kind == value.KindStr {
		indent = args[2].Str
	}
	if len(args) >= 4 {
		ignorePrivate = args[3].Truthy()
	}
	if len(args) >= 5 {
		ignoreNone = args[4].Truthy()
	}
	filtered := FilterFields(args[0], ignorePrivate, ignoreNone)
	return value.Str(EncodeJSON(filtered, sortKeys, indent)), nil
}

// EncodeJSON renders v as JSON text, preserving Dict insertion order unless
// sortKeys is set. Exported so pkg/planner's flattening reuses the same
// order-preserving encoder jsonEncode uses, instead of a second copy.
func EncodeJSON(v value.Value, sortKeys bool, indent string) string {
	var b strings.Builder
	encodeJSON(&b, v, sortKeys, indent, "")
	return b.String()
}

func encodeJSON(b *strings.Builder, v value.Value, sortKeys bool, indent, cur string) {
	switch v.Kind {
	case value.KindDict:
		keys := v.Dict.Keys()
		if sortKeys {
			sort.Strings(keys)
		}
		if len(keys) == 0 {
			b.WriteString("{}")
			return
		}
		next := cur + indent
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewline(b, indent, next)
			val, _ := v.Dict.Get(k)
			encodeJSONString(b, k)
			b.WriteString(": ")
			encodeJSON(b, val, sortKeys, indent, next)
		}
		writeNewline(b, indent, cur)
		b.WriteByte('}')
	case value.KindList:
		if len(v.List) == 0 {
			b.WriteString("[]")
			return
		}
		next := cur + indent
		b.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewline(b, indent, next)
			encodeJSON(b, item, sortKeys, indent, next)
		}
		writeNewline(b, indent, cur)
		b.WriteByte(']')
	case value.KindStr:
		encodeJSONString(b, v.Str)
	case value.KindNone, value.KindUndefined:
		b.WriteString("null")
	case value.KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.KindInt:
		b.WriteString(v.String())
	case value.KindFloat, value.KindNumberMultiplier:
		b.WriteString(v.String())
	default:
		encodeJSONString(b, v.String())
	}
}

func writeNewline(b *strings.Builder, indent, at string) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(at)
}

func encodeJSONString(b *strings.Builder, s string) {
	out, _ := json.Marshal(s)
	b.Write(out)
}

func jsonDecode(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("json.decode", "expects a str argument")
	}
	var data interface{}
	if err := json.Unmarshal([]byte(args[0].Str), &data); err != nil {
		return value.Value{}, argErr("json.decode", err.Error())
	}
	return goToValue(data), nil
}

// goToValue converts a json.Unmarshal result (map[string]interface{},
// []interface{}, float64, string, bool, nil) into value.Value. Key order
// inside an object is lost — encoding/json's own decoder does not preserve
// source order into a Go map, a documented limitation of decoding only.
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
