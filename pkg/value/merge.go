package value

import "fmt"

// ConflictError reports a type conflict raised by Union when two schema
// instances of disjoint declared types overlap on a key (spec.md §4.4
// "conflict unification types").
type ConflictError struct {
	Key      string
	LeftType string
	RightType string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict unification types for key %q: %s vs %s", e.Key, e.LeftType, e.RightType)
}

// Override implements `=` merge semantics (spec.md §4.4 "OVERRIDE"): every
// key of r replaces the corresponding key of l; keys only in l are kept in
// l's order, and keys only in r are appended afterward in r's order.
// Override(a, a) == a and Override(Override(a, b), b) == Override(a, b)
// (Testable Property 4) because re-applying the same r a second time just
// overwrites the same slots with the same values.
func Override(l, r *Dict) *Dict {
	out := l.Clone()
	r.Each(func(k string, v Value, _ Op) {
		out.Set(k, v, OpOverride)
	})
	return out
}

// Union implements `:` merge semantics (spec.md §4.4 "UNION"): a deep,
// recursive merge. Overlapping keys of mergeable type (both dicts, or both
// schema instances of compatible declared type) recurse; scalar/list
// overlaps let r win; overlapping schema instances of disjoint declared
// types are a ConflictError.
//
// Union is associative (Testable Property 3) because at every overlapping
// key the function either recurses associatively or picks the rightmost
// non-dict/non-schema value, both of which are associative operations.
func Union(l, r *Dict) (*Dict, error) {
	out := l.Clone()
	var mergeErr error
	r.Each(func(k string, rv Value, _ Op) {
		if mergeErr != nil {
			return
		}
		lv, exists := out.Get(k)
		if !exists {
			out.Set(k, rv, OpUnion)
			return
		}
		merged, err := unionValue(lv, rv)
		if err != nil {
			mergeErr = fmt.Errorf("key %q: %w", k, err)
			return
		}
		out.Set(k, merged, OpUnion)
	})
	if mergeErr != nil {
		return nil, mergeErr
	}
	return out, nil
}

// unionValue merges two non-dict-entry values according to UNION rules.
func unionValue(l, r Value) (Value, error) {
	if l.Kind == KindDict && r.Kind == KindDict {
		merged, err := Union(l.Dict, r.Dict)
		if err != nil {
			return Value{}, err
		}
		return FromDict(merged), nil
	}
	if l.Kind == KindSchema && r.Kind == KindSchema {
		if l.Schema.TypeRef != r.Schema.TypeRef {
			return Value{}, &ConflictError{LeftType: l.Schema.TypeRef, RightType: r.Schema.TypeRef}
		}
		merged, err := Union(l.Schema.Attrs, r.Schema.Attrs)
		if err != nil {
			return Value{}, err
		}
		out := NewSchema(r.Schema.TypeRef)
		out.Attrs = merged
		out.Settings = r.Schema.Settings
		return FromSchema(out), nil
	}
	if l.Kind == KindSchema && r.Kind == KindDict {
		merged, err := Union(l.Schema.Attrs, r.Dict)
		if err != nil {
			return Value{}, err
		}
		out := NewSchema(l.Schema.TypeRef)
		out.Attrs = merged
		out.Settings = l.Schema.Settings
		return FromSchema(out), nil
	}
	// Scalar/list overlap: r wins outright.
	return r, nil
}

// ApplyOp merges incoming onto an existing value according to op — the
// per-key counterpart to Union's whole-dict recursion, used when a config
// literal's individual entries each carry their own declared merge
// operation (spec.md §4.4 "OVERRIDE | UNION | INSERT"). hadExisting
// distinguishes "no prior value" (incoming always wins outright) from a
// UNION/INSERT against an explicit prior value.
func ApplyOp(existing Value, hadExisting bool, incoming Value, op Op) (Value, error) {
	if !hadExisting {
		return incoming, nil
	}
	switch op {
	case OpOverride:
		return incoming, nil
	case OpUnion:
		return unionValue(existing, incoming)
	case OpInsert:
		return Insert(existing, incoming)
	default:
		return incoming, nil
	}
}

// Insert implements `+=` on a list entry (spec.md §4.4 "INSERT"): append r's
// elements to l.
func Insert(l, r Value) (Value, error) {
	if l.Kind != KindList || r.Kind != KindList {
		return Value{}, fmt.Errorf("INSERT requires two lists, got %s and %s", l.Kind, r.Kind)
	}
	out := make([]Value, 0, len(l.List)+len(r.List))
	out = append(out, l.List...)
	out = append(out, r.List...)
	return List(out), nil
}

// Concat implements list `+` concatenation (spec.md §4.4 "list `+`
// concatenates").
func Concat(l, r Value) (Value, error) {
	if l.Kind != KindList || r.Kind != KindList {
		return Value{}, fmt.Errorf("'+' requires two lists, got %s and %s", l.Kind, r.Kind)
	}
	out := make([]Value, 0, len(l.List)+len(r.List))
	out = append(out, l.List...)
	out = append(out, r.List...)
	return List(out), nil
}

// StripPrivate returns a copy of d with every key starting with "_"
// removed, recursively through nested dicts and schema attribute dicts
// (spec.md §4.4 "Private keys... omitted from final output when
// ignore_private is requested", Testable Property 5).
func StripPrivate(d *Dict) *Dict {
	out := NewDict()
	d.Each(func(k string, v Value, op Op) {
		if len(k) > 0 && k[0] == '_' {
			return
		}
		out.Set(k, stripPrivateValue(v), op)
	})
	return out
}

func stripPrivateValue(v Value) Value {
	switch v.Kind {
	case KindDict:
		return FromDict(StripPrivate(v.Dict))
	case KindSchema:
		out := NewSchema(v.Schema.TypeRef)
		out.Attrs = StripPrivate(v.Schema.Attrs)
		out.Settings = v.Schema.Settings
		return FromSchema(out)
	case KindList:
		items := make([]Value, len(v.List))
		for i, e := range v.List {
			items[i] = stripPrivateValue(e)
		}
		return List(items)
	default:
		return v
	}
}
