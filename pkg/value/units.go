package value

// Unit is a NumberMultiplier's suffix, distinguishing the decimal (k, M, G,
// T, P) and binary (Ki, Mi, Gi, Ti, Pi) multiplier families, plus the
// sub-unit fractional suffixes (n, u, m) (spec.md §3, §9 "units.py").
type Unit string

// The unit table, grounded on the original implementation's
// compiler/build/utils/units.py NumberMultiplier table: decimal multipliers
// are powers of 1000, binary multipliers are powers of 1024, and the three
// fractional units are powers of 1000 below one.
const (
	UnitNone Unit = ""

	UnitNano  Unit = "n"
	UnitMicro Unit = "u"
	UnitMilli Unit = "m"

	UnitKilo  Unit = "k"
	UnitMega  Unit = "M"
	UnitGiga  Unit = "G"
	UnitTera  Unit = "T"
	UnitPeta  Unit = "P"

	UnitKibi Unit = "Ki"
	UnitMebi Unit = "Mi"
	UnitGibi Unit = "Gi"
	UnitTebi Unit = "Ti"
	UnitPebi Unit = "Pi"
)

// unitMultiplier maps each Unit to the factor a raw integer is multiplied by
// to obtain its plain integer value. Fractional units (n, u, m) multiply by
// a value less than one and are only exact when the raw integer is itself a
// multiple of the corresponding power of ten; KCL, like the original
// implementation, truncates toward zero in that case.
var unitMultiplier = map[Unit]float64{
	UnitNone: 1,

	UnitNano:  1e-9,
	UnitMicro: 1e-6,
	UnitMilli: 1e-3,

	UnitKilo: 1e3,
	UnitMega: 1e6,
	UnitGiga: 1e9,
	UnitTera: 1e12,
	UnitPeta: 1e15,

	UnitKibi: 1 << 10,
	UnitMebi: 1 << 20,
	UnitGibi: 1 << 30,
	UnitTebi: 1 << 40,
	UnitPebi: 1 << 50,
}

// IsValidUnit reports whether u is UnitNone or one of the thirteen
// recognized suffixes.
func IsValidUnit(u Unit) bool {
	_, ok := unitMultiplier[u]
	return ok
}

// NumberMultiplier is a raw integer paired with a unit suffix. Arithmetic
// treats it as the plain integer obtained by ToInt; only display
// (String/serialization) preserves the unit (spec.md §3, §4.4).
type NumberMultiplier struct {
	Raw  int64
	Unit Unit
}

// ToInt converts a NumberMultiplier to its plain integer value by applying
// its unit's multiplier to Raw.
func (n NumberMultiplier) ToInt() int64 {
	factor := unitMultiplier[n.Unit]
	return int64(float64(n.Raw) * factor)
}

// String renders the canonical suffixed form, e.g. "1Mi", used by the JSON
// planner (spec.md §6) and by Value.String.
func (n NumberMultiplier) String() string {
	if n.Unit == UnitNone {
		return itoa(n.Raw)
	}
	return itoa(n.Raw) + string(n.Unit)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
