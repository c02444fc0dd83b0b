package value

import "fmt"

// TypeError is raised by MemberShipAs when a coercion is unsound (spec.md
// §4.4 "Type conversion (MEMBER_SHIP_AS)").
type TypeError struct {
	From, To string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("TypeError: cannot convert %s to %s", e.From, e.To)
}

// MemberShipAs coerces v to the declared Kind want where sound: dict to
// schema (by wrapping, not reinterpreting, the dict's entries), numeric
// widening (int to float), and identity coercions. String-to-int/float
// parsing is explicitly not performed (spec.md §4.4).
func MemberShipAs(v Value, want Kind, schemaTypeRef string) (Value, error) {
	if v.Kind == want {
		return v, nil
	}
	switch want {
	case KindFloat:
		if v.Kind == KindInt {
			return Float(float64(v.Int)), nil
		}
		if v.Kind == KindNumberMultiplier {
			return Float(float64(v.Num.ToInt())), nil
		}
	case KindSchema:
		if v.Kind == KindDict {
			s := NewSchema(schemaTypeRef)
			s.Attrs = v.Dict.Clone()
			return FromSchema(s), nil
		}
	case KindInt:
		if v.Kind == KindNumberMultiplier {
			return Int(v.Num.ToInt()), nil
		}
		if v.Kind == KindBool {
			if v.Bool {
				return Int(1), nil
			}
			return Int(0), nil
		}
	}
	return Value{}, &TypeError{From: v.Kind.String(), To: want.String()}
}
