// Package planner flattens a finished evaluation result into the output
// formats and filters spec.md §6's "Value format boundary" describes:
// YAML/JSON serialization, dot-notation path selectors
// ("appConfig.image"), and the three output flags (sort_keys,
// ignore_private, ignore_none). The VM itself returns Go values to its
// caller directly, with no planning/output stage of its own; this package
// is grounded on original_source/.../tools/printer and resolver
// output-shaping code plus the same pkg/builtin.FilterFields/EncodeJSON/
// EncodeYAML core the json/yaml system modules already use, so that a
// plan and a `json.encode`/`yaml.encode` call inside KCL source agree on
// every rule.
package planner

import (
	"fmt"
	"strings"

	"github.com/kcl-lang/kclvm-go/pkg/builtin"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// Options controls how a result dict is flattened and serialized —
// spec.md §6's three planner flags plus the CLI's `-O path.selector`.
type Options struct {
	SortKeys      bool
	IgnorePrivate bool
	IgnoreNone    bool
	PathSelectors []string
	Indent        string
}

// Plan selects, filters, and returns the subset of result Options asks
// for, without serializing it — the step both serializers in this file
// run before encoding; pkg/rpc does not call it.
func Plan(result *value.Dict, opts Options) (value.Value, error) {
	v := value.FromDict(result)
	if len(opts.PathSelectors) > 0 {
		selected := value.NewDict()
		for _, sel := range opts.PathSelectors {
			leaf, err := selectPath(v, sel)
			if err != nil {
				return value.Value{}, err
			}
			if err := setPath(selected, sel, leaf); err != nil {
				return value.Value{}, err
			}
		}
		v = value.FromDict(selected)
	}
	return builtin.FilterFields(v, opts.IgnorePrivate, opts.IgnoreNone), nil
}

// ToYAML plans and renders result as YAML text.
func ToYAML(result *value.Dict, opts Options) (string, error) {
	planned, err := Plan(result, opts)
	if err != nil {
		return "", err
	}
	return builtin.EncodeYAML(planned, opts.SortKeys)
}

// ToJSON plans and renders result as JSON text.
func ToJSON(result *value.Dict, opts Options) (string, error) {
	planned, err := Plan(result, opts)
	if err != nil {
		return "", err
	}
	return builtin.EncodeJSON(planned, opts.SortKeys, opts.Indent), nil
}

// selectPath walks a dot-notation selector ("appConfig.image") through
// nested dicts, the way the original's path_selector option picks a
// subtree out of the full result before printing it.
func selectPath(v value.Value, selector string) (value.Value, error) {
	cur := v
	parts := strings.Split(selector, ".")
	for i, part := range parts {
		if cur.Kind != value.KindDict {
			return value.Value{}, fmt.Errorf("planner: path selector %q: %q is not a dict", selector, strings.Join(parts[:i], "."))
		}
		next, ok := cur.Dict.Get(part)
		if !ok {
			return value.Value{}, fmt.Errorf("planner: path selector %q: no such key %q", selector, part)
		}
		cur = next
	}
	return cur, nil
}

// setPath writes leaf into dst at the nested position selector names,
// creating intermediate dicts as needed, so that selecting
// "appConfig.image" and "appConfig.replicas" together produces one merged
// "appConfig" subtree rather than two separate top-level results.
func setPath(dst *value.Dict, selector string, leaf value.Value) error {
	parts := strings.Split(selector, ".")
	cur := dst
	for i, part := range parts {
		if i == len(parts)-1 {
			cur.Set(part, leaf, value.OpOverride)
			return nil
		}
		existing, ok := cur.Get(part)
		if !ok {
			child := value.NewDict()
			cur.Set(part, value.FromDict(child), value.OpOverride)
			cur = child
			continue
		}
		if existing.Kind != value.KindDict {
			return fmt.Errorf("planner: path selector %q: %q is not a dict", selector, strings.Join(parts[:i+1], "."))
		}
		cur = existing.Dict
	}
	return nil
}
