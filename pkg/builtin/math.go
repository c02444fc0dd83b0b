package builtin

import (
	"fmt"
	"math"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// mathNamespace is grounded on original_source's system_module/math.py,
// which thinly wraps Python's math module; here it thinly wraps Go's.
func mathNamespace() []value.BuiltIn {
	return []value.BuiltIn{
		{Name: "ceil", Fn: wrap1f("math.ceil", func(x float64) value.Value { return value.Int(int64(math.Ceil(x))) })},
		{Name: "floor", Fn: wrap1f("math.floor", func(x float64) value.Value { return value.Int(int64(math.Floor(x))) })},
		{Name: "sqrt", Fn: wrap1f("math.sqrt", func(x float64) value.Value { return value.Float(math.Sqrt(x)) })},
		{Name: "exp", Fn: wrap1f("math.exp", func(x float64) value.Value { return value.Float(math.Exp(x)) })},
		{Name: "expm1", Fn: wrap1f("math.expm1", func(x float64) value.Value { return value.Float(math.Expm1(x)) })},
		{Name: "log", Fn: mathLog},
		{Name: "log1p", Fn: wrap1f("math.log1p", func(x float64) value.Value { return value.Float(math.Log1p(x)) })},
		{Name: "log2", Fn: wrap1f("math.log2", func(x float64) value.Value { return value.Float(math.Log2(x)) })},
		{Name: "log10", Fn: wrap1f("math.log10", func(x float64) value.Value { return value.Float(math.Log10(x)) })},
		{Name: "pow", Fn: mathPow},
		{Name: "isfinite", Fn: wrap1f("math.isfinite", func(x float64) value.Value { return value.Bool(!math.IsInf(x, 0) && !math.IsNaN(x)) })},
		{Name: "isinf", Fn: wrap1f("math.isinf", func(x float64) value.Value { return value.Bool(math.IsInf(x, 0)) })},
		{Name: "isnan", Fn: wrap1f("math.isnan", func(x float64) value.Value { return value.Bool(math.IsNaN(x)) })},
		{Name: "modf", Fn: mathModf},
		{Name: "factorial", Fn: mathFactorial},
		{Name: "gcd", Fn: mathGcd},
	}
}

func wrap1f(name string, fn func(float64) value.Value) value.BuiltInFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Value{}, argErr(name, "expects exactly one argument")
		}
		x, ok := numeric(args[0])
		if !ok {
			return value.Value{}, argErr(name, fmt.Sprintf("unsupported type %s", args[0].Kind))
		}
		return fn(x), nil
	}
}

func mathLog(args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Value{}, argErr("math.log", "expects (x) or (x, base)")
	}
	x, ok := numeric(args[0])
	if !ok {
		return value.Value{}, argErr("math.log", "unsupported type")
	}
	if len(args) == 1 {
		return value.Float(math.Log(x)), nil
	}
	base, ok := numeric(args[1])
	if !ok {
		return value.Value{}, argErr("math.log", "unsupported base type")
	}
	return value.Float(math.Log(x) / math.Log(base)), nil
}

func mathPow(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, argErr("math.pow", "expects exactly two arguments")
	}
	x, ok1 := numeric(args[0])
	y, ok2 := numeric(args[1])
	if !ok1 || !ok2 {
		return value.Value{}, argErr("math.pow", "unsupported operand type")
	}
	return value.Float(math.Pow(x, y)), nil
}

func mathModf(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, argErr("math.modf", "expects exactly one argument")
	}
	x, ok := numeric(args[0])
	if !ok {
		return value.Value{}, argErr("math.modf", "unsupported type")
	}
	ip, fp := math.Modf(x)
	return value.List([]value.Value{value.Float(fp), value.Float(ip)}), nil
}

func mathFactorial(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindInt {
		return value.Value{}, argErr("math.factorial", "expects an int argument")
	}
	n := args[0].Int
	if n < 0 {
		return value.Value{}, argErr("math.factorial", "argument must be non-negative")
	}
	var result int64 = 1
	for i := int64(2); i <= n; i++ {
		result *= i
	}
	return value.Int(result), nil
}

func mathGcd(args []value.Value) (value.Value, error) {
	if len(args) != 2 || args[0].Kind != value.KindInt || args[1].Kind != value.KindInt {
		return value.Value{}, argErr("math.gcd", "expects two int arguments")
	}
	a, b := args[0].Int, args[1].Int
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return value.Int(a), nil
}
