package builtin

import (
	"fmt"
	"math"
	"sort"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// registerCore pre-registers the fixed, unnamespaced built-in table
// (spec.md §4.1). These are the functions a bare identifier resolves to
// through BUILT_IN scope, the KCL analogue of Python's own builtins module
// the original implementation leans on throughout system_module/*.py
// (isinstance, len, str, ...).
func (r *Registry) registerCore() {
	r.add(value.BuiltIn{Name: "len", Fn: blLen})
	r.add(value.BuiltIn{Name: "str", Fn: blStr})
	r.add(value.BuiltIn{Name: "int", Fn: blInt})
	r.add(value.BuiltIn{Name: "float", Fn: blFloat})
	r.add(value.BuiltIn{Name: "bool", Fn: blBool})
	r.add(value.BuiltIn{Name: "list", Fn: blList})
	r.add(value.BuiltIn{Name: "dict", Fn: blDict})
	r.add(value.BuiltIn{Name: "range", Fn: blRange})
	r.add(value.BuiltIn{Name: "abs", Fn: blAbs})
	r.add(value.BuiltIn{Name: "min", Fn: blMin})
	r.add(value.BuiltIn{Name: "max", Fn: blMax})
	r.add(value.BuiltIn{Name: "sum", Fn: blSum})
	r.add(value.BuiltIn{Name: "pow", Fn: blPow})
	r.add(value.BuiltIn{Name: "round", Fn: blRound})
	r.add(value.BuiltIn{Name: "sorted", Fn: blSorted})
	r.add(value.BuiltIn{Name: "zip", Fn: blZip})
	r.add(value.BuiltIn{Name: "enumerate", Fn: blEnumerate})
	r.add(value.BuiltIn{Name: "all", Fn: blAll})
	r.add(value.BuiltIn{Name: "any", Fn: blAny})
	r.add(value.BuiltIn{Name: "isinstance", Fn: blIsinstance})
	r.add(value.BuiltIn{Name: "typeof", Fn: blTypeof})
	r.add(value.BuiltIn{Name: "print", Fn: blPrint})
}

func argErr(name, msg string) error { return fmt.Errorf("%s: %s", name, msg) }

func blLen(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, argErr("len", "expects exactly one argument")
	}
	switch a := args[0]; a.Kind {
	case value.KindStr:
		return value.Int(int64(len([]rune(a.Str)))), nil
	case value.KindList:
		return value.Int(int64(len(a.List))), nil
	case value.KindDict:
		return value.Int(int64(a.Dict.Len())), nil
	default:
		return value.Value{}, argErr("len", fmt.Sprintf("object of type %s has no len()", a.Kind))
	}
}

func blStr(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Str(""), nil
	}
	return value.Str(args[0].String()), nil
}

func blInt(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(0), nil
	}
	switch a := args[0]; a.Kind {
	case value.KindInt:
		return a, nil
	case value.KindFloat:
		return value.Int(int64(a.Float)), nil
	case value.KindBool:
		if a.Bool {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.KindNumberMultiplier:
		return value.Int(a.Num.ToInt()), nil
	case value.KindStr:
		var i int64
		if _, err := fmt.Sscanf(a.Str, "%d", &i); err != nil {
			return value.Value{}, argErr("int", fmt.Sprintf("invalid literal %q", a.Str))
		}
		return value.Int(i), nil
	default:
		return value.Value{}, argErr("int", fmt.Sprintf("cannot convert %s to int", a.Kind))
	}
}

func blFloat(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Float(0), nil
	}
	switch a := args[0]; a.Kind {
	case value.KindFloat:
		return a, nil
	case value.KindInt:
		return value.Float(float64(a.Int)), nil
	case value.KindNumberMultiplier:
		return value.Float(float64(a.Num.ToInt())), nil
	case value.KindStr:
		var f float64
		if _, err := fmt.Sscanf(a.Str, "%g", &f); err != nil {
			return value.Value{}, argErr("float", fmt.Sprintf("invalid literal %q", a.Str))
		}
		return value.Float(f), nil
	default:
		return value.Value{}, argErr("float", fmt.Sprintf("cannot convert %s to float", a.Kind))
	}
}

func blBool(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Bool(false), nil
	}
	return value.Bool(args[0].Truthy()), nil
}

func blList(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.List(nil), nil
	}
	switch a := args[0]; a.Kind {
	case value.KindList:
		return value.List(append([]value.Value(nil), a.List...)), nil
	case value.KindDict:
		keys := a.Dict.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.Str(k)
		}
		return value.List(out), nil
	case value.KindStr:
		runes := []rune(a.Str)
		out := make([]value.Value, len(runes))
		for i, c := range runes {
			out[i] = value.Str(string(c))
		}
		return value.List(out), nil
	default:
		return value.Value{}, argErr("list", fmt.Sprintf("cannot convert %s to list", a.Kind))
	}
}

func blDict(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.FromDict(value.NewDict()), nil
	}
	if args[0].Kind != value.KindDict {
		return value.Value{}, argErr("dict", fmt.Sprintf("cannot convert %s to dict", args[0].Kind))
	}
	return value.FromDict(args[0].Dict.Clone()), nil
}

func blRange(args []value.Value) (value.Value, error) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		stop = args[0].Int
	case 2:
		start, stop = args[0].Int, args[1].Int
	case 3:
		start, stop, step = args[0].Int, args[1].Int, args[2].Int
	default:
		return value.Value{}, argErr("range", "expects 1 to 3 arguments")
	}
	if step == 0 {
		return value.Value{}, argErr("range", "step must not be zero")
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, value.Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, value.Int(i))
		}
	}
	return value.List(out), nil
}

func numeric(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.Int), true
	case value.KindFloat:
		return v.Float, true
	case value.KindNumberMultiplier:
		return float64(v.Num.ToInt()), true
	default:
		return 0, false
	}
}

func blAbs(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, argErr("abs", "expects exactly one argument")
	}
	if args[0].Kind == value.KindInt {
		if args[0].Int < 0 {
			return value.Int(-args[0].Int), nil
		}
		return args[0], nil
	}
	f, ok := numeric(args[0])
	if !ok {
		return value.Value{}, argErr("abs", fmt.Sprintf("unsupported type %s", args[0].Kind))
	}
	return value.Float(math.Abs(f)), nil
}

func blMin(args []value.Value) (value.Value, error) { return extremum(args, "min", false) }
func blMax(args []value.Value) (value.Value, error) { return extremum(args, "max", true) }

func extremum(args []value.Value, name string, wantMax bool) (value.Value, error) {
	items := args
	if len(items) == 1 && items[0].Kind == value.KindList {
		items = items[0].List
	}
	if len(items) == 0 {
		return value.Value{}, argErr(name, "expects at least one argument")
	}
	best := items[0]
	bestN, _ := numeric(best)
	for _, it := range items[1:] {
		n, ok := numeric(it)
		if !ok {
			return value.Value{}, argErr(name, fmt.Sprintf("unsupported type %s", it.Kind))
		}
		if (wantMax && n > bestN) || (!wantMax && n < bestN) {
			best, bestN = it, n
		}
	}
	return best, nil
}

func blSum(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindList {
		return value.Value{}, argErr("sum", "expects a list argument")
	}
	var total float64
	allInt := true
	for _, it := range args[0].List {
		n, ok := numeric(it)
		if !ok {
			return value.Value{}, argErr("sum", fmt.Sprintf("unsupported type %s", it.Kind))
		}
		if it.Kind != value.KindInt {
			allInt = false
		}
		total += n
	}
	if allInt {
		return value.Int(int64(total)), nil
	}
	return value.Float(total), nil
}

func blPow(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, argErr("pow", "expects exactly two arguments")
	}
	base, ok1 := numeric(args[0])
	exp, ok2 := numeric(args[1])
	if !ok1 || !ok2 {
		return value.Value{}, argErr("pow", "unsupported operand type")
	}
	if args[0].Kind == value.KindInt && args[1].Kind == value.KindInt && args[1].Int >= 0 {
		return value.Int(int64(math.Pow(base, exp))), nil
	}
	return value.Float(math.Pow(base, exp)), nil
}

func blRound(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, argErr("round", "expects at least one argument")
	}
	f, ok := numeric(args[0])
	if !ok {
		return value.Value{}, argErr("round", fmt.Sprintf("unsupported type %s", args[0].Kind))
	}
	if len(args) == 1 {
		return value.Int(int64(math.Round(f))), nil
	}
	ndigits := args[1].Int
	mult := math.Pow(10, float64(ndigits))
	return value.Float(math.Round(f*mult) / mult), nil
}

func blSorted(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindList {
		return value.Value{}, argErr("sorted", "expects a list argument")
	}
	out := append([]value.Value(nil), args[0].List...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return value.List(out), nil
}

func less(a, b value.Value) bool {
	if an, ok := numeric(a); ok {
		if bn, ok2 := numeric(b); ok2 {
			return an < bn
		}
	}
	if a.Kind == value.KindStr && b.Kind == value.KindStr {
		return a.Str < b.Str
	}
	return false
}

func blZip(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.List(nil), nil
	}
	n := len(args[0].List)
	for _, a := range args {
		if a.Kind != value.KindList {
			return value.Value{}, argErr("zip", "arguments must be lists")
		}
		if len(a.List) < n {
			n = len(a.List)
		}
	}
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		tuple := make([]value.Value, len(args))
		for j, a := range args {
			tuple[j] = a.List[i]
		}
		out[i] = value.List(tuple)
	}
	return value.List(out), nil
}

func blEnumerate(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindList {
		return value.Value{}, argErr("enumerate", "expects a list argument")
	}
	out := make([]value.Value, len(args[0].List))
	for i, v := range args[0].List {
		out[i] = value.List([]value.Value{value.Int(int64(i)), v})
	}
	return value.List(out), nil
}

func blAll(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindList {
		return value.Value{}, argErr("all", "expects a list argument")
	}
	for _, v := range args[0].List {
		if !v.Truthy() {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func blAny(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindList {
		return value.Value{}, argErr("any", "expects a list argument")
	}
	for _, v := range args[0].List {
		if v.Truthy() {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func blIsinstance(args []value.Value) (value.Value, error) {
	if len(args) != 2 || args[1].Kind != value.KindStr {
		return value.Value{}, argErr("isinstance", "expects (value, type name)")
	}
	return value.Bool(args[0].Kind.String() == args[1].Str), nil
}

func blTypeof(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, argErr("typeof", "expects exactly one argument")
	}
	return value.Str(args[0].Kind.String()), nil
}

func blPrint(args []value.Value) (value.Value, error) {
	parts := make([]interface{}, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Println(parts...)
	return value.Undefined, nil
}
