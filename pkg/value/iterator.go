package value

// Iterator is the runtime cursor GET_ITER manufactures and FOR_ITER advances
// (spec.md §4.2 "Control flow"). It is a VM-internal runtime concept, the
// same way Function/Closure/BuiltIn are — never planner output, never
// constructed by a literal, never compared or serialized.
//
// Arity is fixed by the source kind: a list (or string) iterator yields one
// value per step (the element); a dict iterator yields two (key, then
// value). A for-loop declaring a variable count that does not match its
// iterable's kind (two variables over a list, one over a dict) is outside
// what this iteration model expresses — spec.md's canonical shapes are
// single-variable list iteration and two-variable dict iteration.
type Iterator struct {
	list []Value

	dict     *Dict
	dictKeys []string

	idx int
}

// NewListIterator returns an iterator over items in order.
func NewListIterator(items []Value) *Iterator {
	return &Iterator{list: items}
}

// NewDictIterator returns an iterator over d's entries in insertion order.
func NewDictIterator(d *Dict) *Iterator {
	return &Iterator{dict: d, dictKeys: d.Keys()}
}

// FromIterator wraps it as a Value.
func FromIterator(it *Iterator) Value { return Value{Kind: KindIterator, Iter: it} }

// Done reports whether the iterator is exhausted.
func (it *Iterator) Done() bool {
	if it.dict != nil {
		return it.idx >= len(it.dictKeys)
	}
	return it.idx >= len(it.list)
}

// Next returns this step's value(s) — one for a list iterator, (key, value)
// for a dict iterator — and advances the cursor. Calling Next when Done is a
// caller error; FOR_ITER always checks Done first.
func (it *Iterator) Next() []Value {
	if it.dict != nil {
		k := it.dictKeys[it.idx]
		v, _ := it.dict.Get(k)
		it.idx++
		return []Value{Str(k), v}
	}
	v := it.list[it.idx]
	it.idx++
	return []Value{v}
}
