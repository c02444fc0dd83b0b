// Package value implements the runtime value model the evaluator operates
// on (spec.md §3, §4.4): a tagged sum of scalars, containers, schema
// instances and callables, plus the coercion and range-check rules and the
// unification/merge semantics that make schema construction deterministic.
package value

import (
	"fmt"
	"math"
	"strings"
)

// Kind tags which variant of the value sum a Value holds.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindStr
	KindBool
	KindNone
	KindUndefined
	KindNumberMultiplier
	KindList
	KindDict
	KindSchema
	KindFunction
	KindClosure
	KindBuiltIn
	KindDecorator
	KindIterator
	KindSchemaType
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	case KindNone:
		return "NoneType"
	case KindUndefined:
		return "UndefinedType"
	case KindNumberMultiplier:
		return "units.NumberMultiplier"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindSchema:
		return "schema"
	case KindFunction:
		return "function"
	case KindClosure:
		return "closure"
	case KindBuiltIn:
		return "NativeFunction"
	case KindDecorator:
		return "decorator"
	case KindIterator:
		return "iterator"
	case KindSchemaType:
		return "type"
	}
	return "unknown"
}

// Value is the single runtime representation every VM stack slot, local,
// dict entry and attribute cache holds. Exactly one of the typed fields is
// meaningful for a given Kind; the rest are the zero value. Values carry no
// identity of their own — equality is always structural (spec.md §3
// Invariants).
type Value struct {
	Kind Kind

	Int   int64
	Float float64
	Str   string
	Bool  bool
	Num   NumberMultiplier

	List []Value
	Dict *Dict

	Schema   *Schema
	Function *Function
	Closure  *Closure
	BuiltIn  *BuiltIn
	Decorator *Decorator
	Iter     *Iterator

	// SchemaType holds a *compiler.SchemaTypeConst, boxed as interface{} so
	// this package does not import pkg/compiler. Produced by the VM's
	// LOAD_CONST when it encounters a schema type constant, bound to the
	// type's mangled name by STORE_GLOBAL exactly like any other global
	// (spec.md §4.3 "Schema statement").
	SchemaType interface{}
}

// None is the singleton "set to null" value.
var None = Value{Kind: KindNone}

// Undefined is the singleton "not set" value (spec.md §3 Invariants).
var Undefined = Value{Kind: KindUndefined}

func Int(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func Str(s string) Value     { return Value{Kind: KindStr, Str: s} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Multiplier(n NumberMultiplier) Value {
	return Value{Kind: KindNumberMultiplier, Num: n}
}
func List(items []Value) Value { return Value{Kind: KindList, List: items} }
func FromDict(d *Dict) Value   { return Value{Kind: KindDict, Dict: d} }
func FromSchema(s *Schema) Value { return Value{Kind: KindSchema, Schema: s} }

// IsUndefined reports whether v is the Undefined sentinel — the only value
// elidable from planner output (spec.md §3 Invariants).
func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }

// IsNone reports whether v is the None sentinel.
func (v Value) IsNone() bool { return v.Kind == KindNone }

// Truthy implements the VM's notion of boolishness for POP_JUMP_IF_* and
// LOGIC_AND/LOGIC_OR short-circuiting.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindStr:
		return v.Str != ""
	case KindList:
		return len(v.List) != 0
	case KindDict:
		return v.Dict != nil && v.Dict.Len() != 0
	case KindNone, KindUndefined:
		return false
	case KindNumberMultiplier:
		return v.Num.ToInt() != 0
	default:
		return true
	}
}

// Equal implements structural equality. None equals only None; Undefined
// equals only Undefined (spec.md §3 Invariants).
func Equal(a, b Value) bool {
	if a.Kind == KindNone || b.Kind == KindNone {
		return a.Kind == KindNone && b.Kind == KindNone
	}
	if a.Kind == KindUndefined || b.Kind == KindUndefined {
		return a.Kind == KindUndefined && b.Kind == KindUndefined
	}
	an, aIsNum := asNumeric(a)
	bn, bIsNum := asNumeric(b)
	if aIsNum && bIsNum {
		return an == bn
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindStr:
		return a.Str == b.Str
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindDict:
		return dictEqual(a.Dict, b.Dict)
	case KindSchema:
		return a.Schema == b.Schema || (a.Schema != nil && b.Schema != nil &&
			a.Schema.TypeRef == b.Schema.TypeRef && dictEqual(a.Schema.Attrs, b.Schema.Attrs))
	case KindSchemaType:
		return a.SchemaType == b.SchemaType
	default:
		return false
	}
}

// asNumeric reduces Int/Float/Bool/NumberMultiplier to a common float64 so
// that e.g. 1 == 1.0 == true == 1k*0.001.
func asNumeric(v Value) (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindNumberMultiplier:
		return float64(v.Num.ToInt()), true
	default:
		return 0, false
	}
}

// String renders v the way KCL's own formatter would for interpolation and
// debug opcodes, not necessarily the planner's serialization form.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return itoa(v.Int)
	case KindFloat:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v.Float), "0"), ".")
	case KindStr:
		return v.Str
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindNone:
		return "None"
	case KindUndefined:
		return "Undefined"
	case KindNumberMultiplier:
		return v.Num.String()
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		return v.Dict.String()
	case KindSchema:
		return v.Schema.TypeRef + v.Schema.Attrs.String()
	case KindSchemaType:
		return v.Kind.String()
	default:
		return v.Kind.String()
	}
}

// RangeCheckWidth selects the integer/float bit-width a scalar store is
// checked against (spec.md §4.4, Testable Property 8).
type RangeCheckWidth int

const (
	Width32 RangeCheckWidth = 32
	Width64 RangeCheckWidth = 64
)

// RangeError is raised by CheckIntRange/CheckFloatRange when a scalar falls
// outside the selected width's bound.
type RangeError struct {
	Kind  string // "IntOverflow" | "FloatOverflow" | "FloatUnderflow"
	Bound RangeCheckWidth
	Value string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: value %s exceeds %d-bit range", e.Kind, e.Value, e.Bound)
}

// CheckIntRange validates i against the i32 bound when strict is true, or
// the i64 bound otherwise (the i64 bound is Go's native int64 range, so it
// never fails in that branch — strict is the only branch that can reject).
func CheckIntRange(i int64, strict bool) error {
	if !strict {
		return nil
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return &RangeError{Kind: "IntOverflow", Bound: Width32, Value: itoa(i)}
	}
	return nil
}

// CheckFloatRange validates f against the f32 bound when strict is true, or
// the f64 bound otherwise. A value that underflows when narrowed to f32
// produces a warning, signalled by the second return value, rather than an
// error.
func CheckFloatRange(f float64, strict bool) (warn bool, err error) {
	if !strict {
		return false, nil
	}
	abs := math.Abs(f)
	if abs > math.MaxFloat32 {
		return false, &RangeError{Kind: "FloatOverflow", Bound: Width32, Value: fmt.Sprint(f)}
	}
	if f != 0 && abs < math.SmallestNonzeroFloat32 {
		return true, nil
	}
	return false, nil
}
