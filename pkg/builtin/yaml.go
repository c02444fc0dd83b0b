package builtin

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// yamlNamespace mirrors original_source's system_module/yaml.py, which
// builds a ruamel.yaml CommentedMap by hand to keep key order under
// sort_keys=False. yaml.v3's Node API is the Go equivalent of that
// escape hatch (SPEC_FULL.md's AMBIENT STACK note on why yaml.v3 specifically
// was picked over encoding/json-adjacent alternatives): a MappingNode's
// Content slice is emitted in exactly the order its key/value pairs were
// appended, independent of any Go map's own iteration order.
func yamlNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "encode", Fn: yamlEncode},
		{Name: "decode", Fn: yamlDecode},
	}
}

func yamlEncode(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, argErr("yaml.encode", "expects at least one argument")
	}
	sortKeys, ignorePrivate, ignoreNone := false, false, false
	if len(args) >= 2 {
		sortKeys = args[1].Truthy()
	}
	if len(args) >= 3 {
		ignorePrivate = args[2].Truthy()
	}
	if len(args) >= 4 {
		ignoreNone = args[3].Truthy()
	}
	filtered := FilterFields(args[0], ignorePrivate, ignoreNone)
	out, err := EncodeYAML(filtered, sortKeys)
	if err != nil {
		return value.Value{}, argErr("yaml.encode", err.Error())
	}
	return value.Str(out), nil
}

// EncodeYAML renders v as YAML text, preserving Dict insertion order unless
// sortKeys is set. Exported so pkg/planner's flattening reuses the same
// yaml.Node-based ordered encoder yamlEncode uses.
func EncodeYAML(v value.Value, sortKeys bool) (string, error) {
	node := valueToYAMLNode(v, sortKeys)
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func valueToYAMLNode(v value.Value, sortKeys bool) *yaml.Node {
	switch v.Kind {
	case value.KindDict:
		keys := v.Dict.Keys()
		if sortKeys {
			sort.Strings(keys)
		}
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			val, _ := v.Dict.Get(k)
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				valueToYAMLNode(val, sortKeys))
		}
		return node
	case value.KindList:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.List {
			node.Content = append(node.Content, valueToYAMLNode(item, sortKeys))
		}
		return node
	case value.KindNone, value.KindUndefined:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.KindBool:
		tag := "!!bool"
		val := "false"
		if v.Bool {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: val}
	case value.KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.String()}
	case value.KindFloat, value.KindNumberMultiplier:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v.String()}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.String()}
	}
}

func yamlDecode(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindStr {
		return value.Value{}, argErr("yaml.decode", "expects a str argument")
	}
	var data interface{}
	if err := yaml.Unmarshal([]byte(args[0].Str), &data); err != nil {
		return value.Value{}, argErr("yaml.decode", err.Error())
	}
	return yamlGoToValue(data), nil
}

// yamlGoToValue converts yaml.Unmarshal's interface{} result into Value.
// yaml.v3 decodes mappings as map[string]interface{}, losing source order
// the same documented way json.decode's goToValue does.
func yamlGoToValue(x interface{}) value.Value {
	switch t := x.(type) {
	case nil:
		return value.None
	case bool:
		return value.Bool(t)
	case int:
		return value.Int(int64(t))
	case int64:
		return value.Int(t)
	case float64:
		return value.Float(t)
	case string:
		return value.Str(t)
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = yamlGoToValue(e)
		}
		return value.List(out)
	case map[string]interface{}:
		d := value.NewDict()
		for k, v := range t {
			d.Set(k, yamlGoToValue(v), value.OpOverride)
		}
		return value.FromDict(d)
	default:
		return value.None
	}
}
