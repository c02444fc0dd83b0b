package vm

import (
	"math"

	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
	"github.com/kcl-lang/kclvm-go/pkg/value"
)

// numOf reduces Int/Float/Bool/NumberMultiplier to a float64, the same
// widening value.Equal's unexported asNumeric performs — duplicated here
// rather than exported from pkg/value, since arithmetic promotion is an
// evaluator concern while Equal's widening is a value-identity concern; the
// two happen to agree today but are not guaranteed to stay that way.
func numOf(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.Int), true
	case value.KindFloat:
		return v.Float, true
	case value.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case value.KindNumberMultiplier:
		return float64(v.Num.ToInt()), true
	default:
		return 0, false
	}
}

// intOf reduces an Int-ish value to an int64, for opcodes that only make
// sense over whole numbers (bitwise ops, FLOOR_DIVIDE/MODULO's int branch).
func intOf(v value.Value) (int64, bool) {
	switch v.Kind {
	case value.KindInt:
		return v.Int, true
	case value.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case value.KindNumberMultiplier:
		return v.Num.ToInt(), true
	default:
		return 0, false
	}
}

func isIntish(v value.Value) bool {
	_, ok := intOf(v)
	return ok && v.Kind != value.KindFloat
}

// binaryOp implements BINARY_*/INPLACE_* (spec.md §4.4 "Arithmetic"). The
// two opcode families share handling: an augmented assign is compiled as
// load-target, load-value, INPLACE_op, store-target, so by the time the
// operator runs there is no distinction left between "binary" and
// "in-place" — both just combine two already-loaded values.
func (vm *VM) binaryOp(op bytecode.Opcode, l, r value.Value) (value.Value, *diagnostic.Diagnostic) {
	switch op {
	case bytecode.BINARY_ADD, bytecode.INPLACE_ADD:
		if l.Kind == value.KindStr && r.Kind == value.KindStr {
			return value.Str(l.Str + r.Str), nil
		}
		if l.Kind == value.KindList && r.Kind == value.KindList {
			v, err := value.Concat(l, r)
			if err != nil {
				return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "%s", err)
			}
			return v, nil
		}
		if l.Kind == value.KindDict && r.Kind == value.KindDict {
			d, err := value.Union(l.Dict, r.Dict)
			if err != nil {
				return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "%s", err)
			}
			return value.FromDict(d), nil
		}
		return vm.numericBinary(op, l, r)
	case bytecode.BINARY_SUB, bytecode.BINARY_MUL, bytecode.BINARY_TRUE_DIVIDE, bytecode.BINARY_FLOOR_DIVIDE,
		bytecode.BINARY_MODULO, bytecode.BINARY_POWER,
		bytecode.INPLACE_SUB, bytecode.INPLACE_MUL, bytecode.INPLACE_TRUE_DIVIDE, bytecode.INPLACE_FLOOR_DIVIDE,
		bytecode.INPLACE_MODULO, bytecode.INPLACE_POWER:
		return vm.numericBinary(op, l, r)
	case bytecode.BINARY_LSHIFT, bytecode.BINARY_RSHIFT, bytecode.BINARY_OR, bytecode.BINARY_XOR, bytecode.BINARY_AND,
		bytecode.INPLACE_LSHIFT, bytecode.INPLACE_RSHIFT, bytecode.INPLACE_OR, bytecode.INPLACE_XOR, bytecode.INPLACE_AND:
		return vm.bitwiseBinary(op, l, r)
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "unhandled binary opcode %s", op)
	}
}

func (vm *VM) numericBinary(op bytecode.Opcode, l, r value.Value) (value.Value, *diagnostic.Diagnostic) {
	lf, lok := numOf(l)
	rf, rok := numOf(r)
	if !lok || !rok {
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{},
			"unsupported operand types for %s: %s and %s", op, l.Kind, r.Kind)
	}
	bothInt := isIntish(l) && isIntish(r)

	switch op {
	case bytecode.BINARY_ADD, bytecode.INPLACE_ADD:
		if bothInt {
			li, _ := intOf(l)
			ri, _ := intOf(r)
			return value.Int(li + ri), nil
		}
		return value.Float(lf + rf), nil
	case bytecode.BINARY_SUB, bytecode.INPLACE_SUB:
		if bothInt {
			li, _ := intOf(l)
			ri, _ := intOf(r)
			return value.Int(li - ri), nil
		}
		return value.Float(lf - rf), nil
	case bytecode.BINARY_MUL, bytecode.INPLACE_MUL:
		if bothInt {
			li, _ := intOf(l)
			ri, _ := intOf(r)
			return value.Int(li * ri), nil
		}
		return value.Float(lf * rf), nil
	case bytecode.BINARY_TRUE_DIVIDE, bytecode.INPLACE_TRUE_DIVIDE:
		if rf == 0 {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "division by zero")
		}
		return value.Float(lf / rf), nil
	case bytecode.BINARY_FLOOR_DIVIDE, bytecode.INPLACE_FLOOR_DIVIDE:
		if rf == 0 {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "division by zero")
		}
		if bothInt {
			li, _ := intOf(l)
			ri, _ := intOf(r)
			return value.Int(int64(math.Floor(float64(li) / float64(ri)))), nil
		}
		return value.Float(math.Floor(lf / rf)), nil
	case bytecode.BINARY_MODULO, bytecode.INPLACE_MODULO:
		if rf == 0 {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "modulo by zero")
		}
		if bothInt {
			li, _ := intOf(l)
			ri, _ := intOf(r)
			return value.Int(li % ri), nil
		}
		return value.Float(math.Mod(lf, rf)), nil
	case bytecode.BINARY_POWER, bytecode.INPLACE_POWER:
		if bothInt && rf >= 0 {
			li, _ := intOf(l)
			ri, _ := intOf(r)
			return value.Int(intPow(li, ri)), nil
		}
		return value.Float(math.Pow(lf, rf)), nil
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "unhandled numeric opcode %s", op)
	}
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func (vm *VM) bitwiseBinary(op bytecode.Opcode, l, r value.Value) (value.Value, *diagnostic.Diagnostic) {
	li, lok := intOf(l)
	ri, rok := intOf(r)
	if !lok || !rok {
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{},
			"unsupported operand types for %s: %s and %s", op, l.Kind, r.Kind)
	}
	switch op {
	case bytecode.BINARY_LSHIFT, bytecode.INPLACE_LSHIFT:
		return value.Int(li << uint(ri)), nil
	case bytecode.BINARY_RSHIFT, bytecode.INPLACE_RSHIFT:
		return value.Int(li >> uint(ri)), nil
	case bytecode.BINARY_OR, bytecode.INPLACE_OR:
		return value.Int(li | ri), nil
	case bytecode.BINARY_XOR, bytecode.INPLACE_XOR:
		return value.Int(li ^ ri), nil
	case bytecode.BINARY_AND, bytecode.INPLACE_AND:
		return value.Int(li & ri), nil
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "unhandled bitwise opcode %s", op)
	}
}

// compareOp implements COMPARE_* (spec.md §4.4 "Comparison"). COMPARE_IS and
// COMPARE_IS_NOT are structural equality/inequality, not pointer identity —
// Values "carry no identity of their own" (spec.md §3 Invariants), so `is`
// can only ever mean what `==` means here.
func (vm *VM) compareOp(op bytecode.Opcode, l, r value.Value) (value.Value, *diagnostic.Diagnostic) {
	switch op {
	case bytecode.COMPARE_EQUAL_TO, bytecode.COMPARE_IS:
		return value.Bool(value.Equal(l, r)), nil
	case bytecode.COMPARE_NOT_EQUAL_TO, bytecode.COMPARE_IS_NOT:
		return value.Bool(!value.Equal(l, r)), nil
	case bytecode.COMPARE_LESS_THAN, bytecode.COMPARE_LESS_THAN_OR_EQUAL_TO,
		bytecode.COMPARE_GREATER_THAN, bytecode.COMPARE_GREATER_THAN_OR_EQUAL_TO:
		return vm.orderCompare(op, l, r)
	case bytecode.COMPARE_IN, bytecode.COMPARE_NOT_IN:
		return vm.membershipCompare(op, l, r)
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{}, "unhandled compare opcode %s", op)
	}
}

func (vm *VM) orderCompare(op bytecode.Opcode, l, r value.Value) (value.Value, *diagnostic.Diagnostic) {
	var less, equal bool
	if l.Kind == value.KindStr && r.Kind == value.KindStr {
		less = l.Str < r.Str
		equal = l.Str == r.Str
	} else {
		lf, lok := numOf(l)
		rf, rok := numOf(r)
		if !lok || !rok {
			return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{},
				"unsupported operand types for %s: %s and %s", op, l.Kind, r.Kind)
		}
		less = lf < rf
		equal = lf == rf
	}
	switch op {
	case bytecode.COMPARE_LESS_THAN:
		return value.Bool(less), nil
	case bytecode.COMPARE_LESS_THAN_OR_EQUAL_TO:
		return value.Bool(less || equal), nil
	case bytecode.COMPARE_GREATER_THAN:
		return value.Bool(!less && !equal), nil
	default: // COMPARE_GREATER_THAN_OR_EQUAL_TO
		return value.Bool(!less || equal), nil
	}
}

func (vm *VM) membershipCompare(op bytecode.Opcode, l, r value.Value) (value.Value, *diagnostic.Diagnostic) {
	var found bool
	switch r.Kind {
	case value.KindList:
		for _, e := range r.List {
			if value.Equal(l, e) {
				found = true
				break
			}
		}
	case value.KindDict:
		if l.Kind == value.KindStr {
			_, found = r.Dict.Get(l.Str)
		}
	case value.KindStr:
		if l.Kind == value.KindStr {
			found = containsSubstr(r.Str, l.Str)
		}
	default:
		return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{},
			"argument of type %s is not iterable", r.Kind)
	}
	if op == bytecode.COMPARE_NOT_IN {
		found = !found
	}
	return value.Bool(found), nil
}

func containsSubstr(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// unaryOp implements UNARY_* (spec.md §4.4).
func (vm *VM) unaryOp(op bytecode.Opcode, v value.Value) (value.Value, *diagnostic.Diagnostic) {
	switch op {
	case bytecode.UNARY_NOT:
		return value.Bool(!v.Truthy()), nil
	case bytecode.UNARY_POSITIVE:
		if f, ok := numOf(v); ok {
			if isIntish(v) {
				i, _ := intOf(v)
				return value.Int(i), nil
			}
			return value.Float(f), nil
		}
	case bytecode.UNARY_NEGATIVE:
		if isIntish(v) {
			i, _ := intOf(v)
			return value.Int(-i), nil
		}
		if f, ok := numOf(v); ok {
			return value.Float(-f), nil
		}
	case bytecode.UNARY_INVERT:
		if i, ok := intOf(v); ok {
			return value.Int(^i), nil
		}
	}
	return value.Value{}, diagnostic.New(diagnostic.KindEvaluationError, diagnostic.Position{},
		"unsupported operand type for %s: %s", op, v.Kind)
}

// memberShipAs implements MEMBER_SHIP_AS (spec.md §4.4 "Type conversion").
func (vm *VM) memberShipAs(v value.Value, typeName string) (value.Value, *diagnostic.Diagnostic) {
	kind, ref, ok := vm.resolveKind(typeName)
	if !ok {
		return value.Value{}, diagnostic.New(diagnostic.KindCannotFindModule, diagnostic.Position{}, "unknown type %q", typeName)
	}
	out, err := value.MemberShipAs(v, kind, ref)
	if err != nil {
		return value.Value{}, diagnostic.New(diagnostic.KindTypeErrorCompile, diagnostic.Position{}, "%s", err)
	}
	return out, nil
}
