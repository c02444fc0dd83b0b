package builtin

import (
	"fmt"

	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// unitsNamespace mirrors original_source's system_module/units.py: the
// decimal/binary multiplier constants, exposed here as plain numeric
// built-ins rather than module attributes (this registry has no notion of
// a non-callable namespace member), plus the to_<unit> string-rendering
// helpers, grounded on pkg/value/units.go's own unit table so the constant
// values can never drift from what NUMBER_MULTIPLIER arithmetic uses.
func unitsNamespace() []value.BuiltIn {
	fns := []value.BuiltIn{
		{Name: "n", Fn: constFloat(1e-9)},
		{Name: "u", Fn: constFloat(1e-6)},
		{Name: "m", Fn: constFloat(1e-3)},
		{Name: "k", Fn: constInt(1_000)},
		{Name: "K", Fn: constInt(1_000)},
		{Name: "M", Fn: constInt(1_000_000)},
		{Name: "G", Fn: constInt(1_000_000_000)},
		{Name: "T", Fn: constInt(1_000_000_000_000)},
		{Name: "P", Fn: constInt(1_000_000_000_000_000)},
		{Name: "Ki", Fn: constInt(1 << 10)},
		{Name: "Mi", Fn: constInt(1 << 20)},
		{Name: "Gi", Fn: constInt(1 << 30)},
		{Name: "Ti", Fn: constInt(1 << 40)},
		{Name: "Pi", Fn: constInt(1 << 50)},
	}
	for u, factor := range map[value.Unit]float64{
		value.UnitNano: 1e-9, value.UnitMicro: 1e-6, value.UnitMilli: 1e-3,
		value.UnitKilo: 1e3, value.UnitMega: 1e6, value.UnitGiga: 1e9, value.UnitTera: 1e12, value.UnitPeta: 1e15,
		value.UnitKibi: 1 << 10, value.UnitMebi: 1 << 20, value.UnitGibi: 1 << 30, value.UnitTebi: 1 << 40, value.UnitPebi: 1 << 50,
	} {
		u, factor := u, factor
		fns = append(fns, value.BuiltIn{Name: "to_" + string(u), Fn: toUnitFn(u, factor)})
	}
	return fns
}

func constInt(i int64) value.BuiltInFunc {
	return func(args []value.Value) (value.Value, error) { return value.Int(i), nil }
}

func constFloat(f float64) value.BuiltInFunc {
	return func(args []value.Value) (value.Value, error) { return value.Float(f), nil }
}

// toUnitFn reproduces units.py's to_unit: divide the plain integer by the
// unit's multiplier, floor toward zero, and append the suffix — "1024Ki"
// is wrong, "1Ki" (1024 // 1024) is what units.to_Ki(1024) returns.
func toUnitFn(u value.Unit, factor float64) value.BuiltInFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Value{}, argErr("units.to_"+string(u), "expects exactly one argument")
		}
		n, ok := numeric(args[0])
		if !ok {
			return value.Value{}, argErr("units.to_"+string(u), fmt.Sprintf("unsupported type %s", args[0].Kind))
		}
		scaled := n / factor
		return value.Str(value.NumberMultiplier{Raw: int64(scaled), Unit: u}.String()), nil
	}
}
