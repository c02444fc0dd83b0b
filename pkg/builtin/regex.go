package builtin

import (
	"regexp"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// regexNamespace mirrors original_source's system_module/regex.py, which
// wraps Python's re module; RE2 (Go's regexp) is the nearest standard
// equivalent.
func regexNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "match", Fn: regexMatch},
		{Name: "search", Fn: regexSearch},
		{Name: "compile", Fn: regexCompile},
		{Name: "findall", Fn: regexFindall},
		{Name: "replace", Fn: regexReplace},
		{Name: "split", Fn: regexSplit},
	}
}

func regexMatch(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, argErr("regex.match", "expects (string, pattern)")
	}
	re, err := regexp.Compile("^(?:" + args[1].Str + ")")
	if err != nil {
		return value.Value{}, argErr("regex.match", err.Error())
	}
	return value.Bool(re.MatchString(args[0].Str)), nil
}

func regexSearch(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, argErr("regex.search", "expects (string, pattern)")
	}
	re, err := regexp.Compile(args[1].Str)
	if err != nil {
		return value.Value{}, argErr("regex.search", err.Error())
	}
	return value.Bool(re.MatchString(args[0].Str)), nil
}

func regexCompile(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, argErr("regex.compile", "expects (pattern)")
	}
	_, err := regexp.Compile(args[0].Str)
	return value.Bool(err == nil), nil
}

func regexFindall(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, argErr("regex.findall", "expects (string, pattern)")
	}
	re, err := regexp.Compile(args[1].Str)
	if err != nil {
		return value.Value{}, argErr("regex.findall", err.Error())
	}
	matches := re.FindAllString(args[0].Str, -1)
	out := make([]value.Value, len(matches))
	for i, m := range matches {
		out[i] = value.Str(m)
	}
	return value.List(out), nil
}

func regexReplace(args []value.Value) (value.Value, error) {
	if len(args) < 3 {
		return value.Value{}, argErr("regex.replace", "expects (string, pattern, replace[, count])")
	}
	re, err := regexp.Compile(args[1].Str)
	if err != nil {
		return value.Value{}, argErr("regex.replace", err.Error())
	}
	count := -1
	if len(args) >= 4 && args[3].Kind == value.KindInt && args[3].Int > 0 {
		count = int(args[3].Int)
	}
	if count < 0 {
		return value.Str(re.ReplaceAllString(args[0].Str, args[2].Str)), nil
	}
	n := 0
	out := re.ReplaceAllStringFunc(args[0].Str, func(m string) string {
		n++
		if n > count {
			return m
		}
		return re.ReplaceAllString(m, args[2].Str)
	})
	return value.Str(out), nil
}

func regexSplit(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, argErr("regex.split", "expects (string, pattern[, maxsplit])")
	}
	re, err := regexp.Compile(args[1].Str)
	if err != nil {
		return value.Value{}, argErr("regex.split", err.Error())
	}
	max := -1
	if len(args) >= 3 && args[2].Kind == value.KindInt && args[2].Int > 0 {
		max = int(args[2].Int) + 1
	}
	parts := re.Split(args[0].Str, max)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.Str(p)
	}
	return value.List(out), nil
}
