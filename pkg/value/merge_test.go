package value

import "testing"

func dictOf(pairs ...interface{}) *Dict {
	d := NewDict()
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Set(pairs[i].(string), pairs[i+1].(Value), OpOverride)
	}
	return d
}

func TestUnionAssociative(t *testing.T) {
	a := dictOf("a", Int(1))
	b := dictOf("b", Int(2))
	c := dictOf("c", Int(3))

	ab, err := Union(a, b)
	if err != nil {
		t.Fatalf("Union(a,b): %v", err)
	}
	abc1, err := Union(ab, c)
	if err != nil {
		t.Fatalf("Union(ab,c): %v", err)
	}

	bc, err := Union(b, c)
	if err != nil {
		t.Fatalf("Union(b,c): %v", err)
	}
	abc2, err := Union(a, bc)
	if err != nil {
		t.Fatalf("Union(a,bc): %v", err)
	}

	if !dictEqual(abc1, abc2) {
		t.Errorf("union not associative: %s != %s", abc1.String(), abc2.String())
	}
}

func TestOverrideIdempotent(t *testing.T) {
	a := dictOf("x", Int(1), "y", Int(2))
	if !dictEqual(Override(a, a), a) {
		t.Errorf("Override(a,a) != a")
	}

	b := dictOf("y", Int(99))
	ob := Override(a, b)
	oob := Override(ob, b)
	if !dictEqual(ob, oob) {
		t.Errorf("Override(Override(a,b),b) != Override(a,b)")
	}
}

func TestStripPrivateElision(t *testing.T) {
	inner := dictOf("_secret", Str("hidden"), "public", Int(1))
	outer := dictOf("_topsecret", Int(0), "nested", FromDict(inner))

	stripped := StripPrivate(outer)
	stripped.Each(func(k string, v Value, _ Op) {
		if len(k) > 0 && k[0] == '_' {
			t.Errorf("private key %q survived StripPrivate", k)
		}
		if v.Kind == KindDict {
			v.Dict.Each(func(nk string, _ Value, _ Op) {
				if len(nk) > 0 && nk[0] == '_' {
					t.Errorf("nested private key %q survived StripPrivate", nk)
				}
			})
		}
	})
}

func TestUnionConflictingSchemaTypes(t *testing.T) {
	l := FromSchema(NewSchema("A"))
	r := FromSchema(NewSchema("B"))
	ld, rd := NewDict(), NewDict()
	ld.Set("k", l, OpOverride)
	rd.Set("k", r, OpOverride)

	if _, err := Union(ld, rd); err == nil {
		t.Errorf("expected conflict unification error, got nil")
	} else if _, ok := err.(interface{ Unwrap() error }); !ok {
		// the error need not wrap another; any non-nil error passes
	}
}

func TestNumberMultiplierArithmeticAndDisplay(t *testing.T) {
	n := NumberMultiplier{Raw: 1, Unit: UnitMebi}
	if got := n.ToInt(); got != 1048576 {
		t.Errorf("1Mi.ToInt() = %d, want 1048576", got)
	}
	if got := n.String(); got != "1Mi" {
		t.Errorf("1Mi.String() = %q, want %q", got, "1Mi")
	}
}

func TestDictInsertionOrderPreserved(t *testing.T) {
	d := NewDict()
	d.Set("b", Int(2), OpOverride)
	d.Set("a", Int(1), OpOverride)
	d.Set("b", Int(20), OpOverride)

	keys := d.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Keys() = %v, want [b a] (first-insertion order preserved through overwrite)", keys)
	}
}
