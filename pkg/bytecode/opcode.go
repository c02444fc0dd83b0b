// Package bytecode defines the instruction set the compiler emits and the
// VM executes, and the Module that carries a compiled unit: constant pool,
// name pool, instruction stream, a parallel source-position side-table, and
// the nested sub-programs compiled for schema bodies (spec.md §3, §4.2).
//
// Encoding:
//
// Every instruction is one opcode byte followed, for opcodes with an
// operand, by a 24-bit little-endian operand. The operand indexes into the
// owning Module's constant pool or name pool, or — for jump instructions —
// is a signed delta, sign-extended from 24 bits. An instruction is thus
// either 1 byte (opcodes in noOperand) or 4 bytes wide, and the position
// side-table holds one entry per instruction rather than per byte, so
// PositionFor walks the stream to map a byte offset to its entry.
package bytecode

// Opcode identifies a single VM operation.
type Opcode byte

// Instruction set, grouped the way spec.md §4.2 groups them. Comments note
// the stack effect and operand meaning for opcodes taking one.
const (
	// --- Stack ---

	// POP discards the top of the value stack.
	POP Opcode = iota
	// DUP_TOP duplicates the top of the value stack.
	DUP_TOP
	// DUP_TOP_TWO duplicates the top two values, preserving their order.
	DUP_TOP_TWO
	// ROT_TWO swaps the top two stack values.
	ROT_TWO
	// ROT_THREE rotates the top three stack values down by one.
	ROT_THREE

	// --- Loads / stores ---

	// LOAD_CONST pushes constants[operand].
	LOAD_CONST
	// LOAD_NAME pushes the current package global named names[operand].
	LOAD_NAME
	// LOAD_LOCAL pushes the current frame's locals[operand].
	LOAD_LOCAL
	// LOAD_ATTR_LAZY pushes a schema body's locals[operand], forcing that
	// attribute's own initializer to run first if the slot is still
	// Undefined and the schema type registered one for it.
	LOAD_ATTR_LAZY
	// LOAD_GLOBAL pushes the current package's globals[operand] (by name index).
	LOAD_GLOBAL
	// LOAD_FREE pushes the current closure's free-slot[operand].
	LOAD_FREE
	// LOAD_BUILT_IN pushes built-in function table[operand].
	LOAD_BUILT_IN
	// STORE_LOCAL pops and stores into locals[operand].
	STORE_LOCAL
	// STORE_GLOBAL pops and stores into the package globals under names[operand].
	STORE_GLOBAL
	// STORE_FREE pops and stores into the current closure's free-slot[operand].
	STORE_FREE
	// STORE_NAME pops and stores into the current scope's binding named names[operand].
	STORE_NAME
	// DELETE_LOCAL removes locals[operand] (sets it Undefined).
	DELETE_LOCAL
	// DELETE_GLOBAL removes the package global named names[operand].
	DELETE_GLOBAL
	// LOAD_ATTR pops a dict/schema, pushes its attribute names[operand].
	LOAD_ATTR
	// STORE_ATTR pops value then receiver, stores value at receiver.names[operand].
	STORE_ATTR
	// DELETE_ATTR pops a receiver, removes its attribute names[operand].
	DELETE_ATTR
	// BINARY_SUBSCR pops index then receiver, pushes receiver[index].
	BINARY_SUBSCR
	// STORE_SUBSCR pops value, index, receiver; stores receiver[index] = value.
	STORE_SUBSCR
	// DELETE_SUBSCR pops index then receiver, removes receiver[index].
	DELETE_SUBSCR

	// --- Arithmetic / comparison / logic ---

	BINARY_ADD
	BINARY_SUB
	BINARY_MUL
	BINARY_TRUE_DIVIDE
	BINARY_FLOOR_DIVIDE
	BINARY_MODULO
	BINARY_POWER
	BINARY_LSHIFT
	BINARY_RSHIFT
	BINARY_OR
	BINARY_XOR
	BINARY_AND
	BINARY_LOGIC_AND
	BINARY_LOGIC_OR
	INPLACE_ADD
	INPLACE_SUB
	INPLACE_MUL
	INPLACE_TRUE_DIVIDE
	INPLACE_FLOOR_DIVIDE
	INPLACE_MODULO
	INPLACE_POWER
	INPLACE_LSHIFT
	INPLACE_RSHIFT
	INPLACE_OR
	INPLACE_XOR
	INPLACE_AND
	COMPARE_EQUAL_TO
	COMPARE_NOT_EQUAL_TO
	COMPARE_LESS_THAN
	COMPARE_LESS_THAN_OR_EQUAL_TO
	COMPARE_GREATER_THAN
	COMPARE_GREATER_THAN_OR_EQUAL_TO
	COMPARE_IS
	COMPARE_IS_NOT
	COMPARE_IN
	COMPARE_NOT_IN
	// MEMBER_SHIP_AS coerces top-of-stack to the declared type at names[operand].
	MEMBER_SHIP_AS
	UNARY_POSITIVE
	UNARY_NEGATIVE
	UNARY_INVERT
	UNARY_NOT

	// --- Control flow ---

	// JUMP_ABSOLUTE moves ip by the signed delta operand (relative to the next instruction).
	JUMP_ABSOLUTE
	// POP_JUMP_IF_TRUE pops; jumps by operand if the value is truthy.
	POP_JUMP_IF_TRUE
	// POP_JUMP_IF_FALSE pops; jumps by operand if the value is falsy.
	POP_JUMP_IF_FALSE
	// JUMP_IF_TRUE_OR_POP jumps without popping if truthy, else pops (short-circuit `or`).
	JUMP_IF_TRUE_OR_POP
	// JUMP_IF_FALSE_OR_POP jumps without popping if falsy, else pops (short-circuit `and`).
	JUMP_IF_FALSE_OR_POP
	// FOR_ITER advances the iterator on top of stack; jumps by operand when exhausted.
	FOR_ITER
	// GET_ITER pops an iterable, pushes its iterator.
	GET_ITER

	// --- Construction ---

	// BUILD_LIST pops operand values, pushes a List.
	BUILD_LIST
	// BUILD_MAP pops operand (key,value) pairs, pushes an ordered Dict.
	BUILD_MAP
	// BUILD_STRING pops operand string segments, pushes their concatenation.
	BUILD_STRING
	// FORMAT_VALUE pops a value, formats it per the spec string at names[operand], pushes the string.
	FORMAT_VALUE
	// MAKE_FUNCTION pops a code constant and defaults, pushes a Function. operand is the number of defaults.
	MAKE_FUNCTION
	// MAKE_DECORATOR pops arguments and a name, pushes a Decorator.
	MAKE_DECORATOR
	// BUILD_SCHEMA constructs an instance of the schema type named names[operand].
	BUILD_SCHEMA
	// BUILD_SCHEMA_CONFIG pops operand (key,value,op) triples, pushes a config Dict.
	BUILD_SCHEMA_CONFIG
	// UNPACK_SEQUENCE pops a sequence, pushes its operand elements in reverse.
	UNPACK_SEQUENCE

	// --- Calls / returns ---

	// CALL_FUNCTION: operand packs (argcount<<8)|kwargcount; pops callable+args, pushes result.
	CALL_FUNCTION
	// RETURN_VALUE ends the current frame, returning the top of stack.
	RETURN_VALUE
	// RAISE pops a message, raises EvaluationError at the current position.
	RAISE
	// ASSERT pops a message then a condition; raises AssertionError(message) if falsy.
	ASSERT
	// CHECK pops a message then a condition; raises SchemaCheckFailure(message) if falsy.
	// operand indexes the schema's check list (for secondary spans).
	CHECK

	// --- Module ---

	// IMPORT_NAME ensures the package named names[operand] is loaded, pushes its namespace.
	IMPORT_NAME
	// IMPORT_FROM pops a package namespace, pushes its member named names[operand].
	IMPORT_FROM

	// --- Debug (no-ops in release builds) ---

	DEBUG_GLOBALS
	DEBUG_LOCALS
	DEBUG_NAMES
	DEBUG_STACK
)

// names maps every opcode to its mnemonic, used by the disassembler and by
// String().
var names = map[Opcode]string{
	POP: "POP", DUP_TOP: "DUP_TOP", DUP_TOP_TWO: "DUP_TOP_TWO", ROT_TWO: "ROT_TWO", ROT_THREE: "ROT_THREE",
	LOAD_CONST: "LOAD_CONST", LOAD_NAME: "LOAD_NAME", LOAD_LOCAL: "LOAD_LOCAL", LOAD_ATTR_LAZY: "LOAD_ATTR_LAZY",
	LOAD_GLOBAL: "LOAD_GLOBAL",
	LOAD_FREE: "LOAD_FREE", LOAD_BUILT_IN: "LOAD_BUILT_IN", STORE_LOCAL: "STORE_LOCAL", STORE_GLOBAL: "STORE_GLOBAL",
	STORE_FREE: "STORE_FREE", STORE_NAME: "STORE_NAME", DELETE_LOCAL: "DELETE_LOCAL", DELETE_GLOBAL: "DELETE_GLOBAL",
	LOAD_ATTR: "LOAD_ATTR", STORE_ATTR: "STORE_ATTR", DELETE_ATTR: "DELETE_ATTR",
	BINARY_SUBSCR: "BINARY_SUBSCR", STORE_SUBSCR: "STORE_SUBSCR", DELETE_SUBSCR: "DELETE_SUBSCR",
	BINARY_ADD: "BINARY_ADD", BINARY_SUB: "BINARY_SUB", BINARY_MUL: "BINARY_MUL",
	BINARY_TRUE_DIVIDE: "BINARY_TRUE_DIVIDE", BINARY_FLOOR_DIVIDE: "BINARY_FLOOR_DIVIDE", BINARY_MODULO: "BINARY_MODULO",
	BINARY_POWER: "BINARY_POWER", BINARY_LSHIFT: "BINARY_LSHIFT", BINARY_RSHIFT: "BINARY_RSHIFT",
	BINARY_OR: "BINARY_OR", BINARY_XOR: "BINARY_XOR", BINARY_AND: "BINARY_AND",
	BINARY_LOGIC_AND: "BINARY_LOGIC_AND", BINARY_LOGIC_OR: "BINARY_LOGIC_OR",
	INPLACE_ADD: "INPLACE_ADD", INPLACE_SUB: "INPLACE_SUB", INPLACE_MUL: "INPLACE_MUL",
	INPLACE_TRUE_DIVIDE: "INPLACE_TRUE_DIVIDE", INPLACE_FLOOR_DIVIDE: "INPLACE_FLOOR_DIVIDE", INPLACE_MODULO: "INPLACE_MODULO",
	INPLACE_POWER: "INPLACE_POWER", INPLACE_LSHIFT: "INPLACE_LSHIFT", INPLACE_RSHIFT: "INPLACE_RSHIFT",
	INPLACE_OR: "INPLACE_OR", INPLACE_XOR: "INPLACE_XOR", INPLACE_AND: "INPLACE_AND",
	COMPARE_EQUAL_TO: "COMPARE_EQUAL_TO", COMPARE_NOT_EQUAL_TO: "COMPARE_NOT_EQUAL_TO",
	COMPARE_LESS_THAN: "COMPARE_LESS_THAN", COMPARE_LESS_THAN_OR_EQUAL_TO: "COMPARE_LESS_THAN_OR_EQUAL_TO",
	COMPARE_GREATER_THAN: "COMPARE_GREATER_THAN", COMPARE_GREATER_THAN_OR_EQUAL_TO: "COMPARE_GREATER_THAN_OR_EQUAL_TO",
	COMPARE_IS: "COMPARE_IS", COMPARE_IS_NOT: "COMPARE_IS_NOT", COMPARE_IN: "COMPARE_IN", COMPARE_NOT_IN: "COMPARE_NOT_IN",
	MEMBER_SHIP_AS: "MEMBER_SHIP_AS",
	UNARY_POSITIVE: "UNARY_POSITIVE", UNARY_NEGATIVE: "UNARY_NEGATIVE", UNARY_INVERT: "UNARY_INVERT", UNARY_NOT: "UNARY_NOT",
	JUMP_ABSOLUTE: "JUMP_ABSOLUTE", POP_JUMP_IF_TRUE: "POP_JUMP_IF_TRUE", POP_JUMP_IF_FALSE: "POP_JUMP_IF_FALSE",
	JUMP_IF_TRUE_OR_POP: "JUMP_IF_TRUE_OR_POP", JUMP_IF_FALSE_OR_POP: "JUMP_IF_FALSE_OR_POP",
	FOR_ITER: "FOR_ITER", GET_ITER: "GET_ITER",
	BUILD_LIST: "BUILD_LIST", BUILD_MAP: "BUILD_MAP", BUILD_STRING: "BUILD_STRING", FORMAT_VALUE: "FORMAT_VALUE",
	MAKE_FUNCTION: "MAKE_FUNCTION", MAKE_DECORATOR: "MAKE_DECORATOR",
	BUILD_SCHEMA: "BUILD_SCHEMA", BUILD_SCHEMA_CONFIG: "BUILD_SCHEMA_CONFIG", UNPACK_SEQUENCE: "UNPACK_SEQUENCE",
	CALL_FUNCTION: "CALL_FUNCTION", RETURN_VALUE: "RETURN_VALUE", RAISE: "RAISE", ASSERT: "ASSERT", CHECK: "CHECK",
	IMPORT_NAME: "IMPORT_NAME", IMPORT_FROM: "IMPORT_FROM",
	DEBUG_GLOBALS: "DEBUG_GLOBALS", DEBUG_LOCALS: "DEBUG_LOCALS", DEBUG_NAMES: "DEBUG_NAMES", DEBUG_STACK: "DEBUG_STACK",
}

// String renders an opcode's mnemonic, falling back to "UNKNOWN" for any
// value outside the defined set (which should not occur outside of a
// corrupted in-memory Module).
func (op Opcode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "UNKNOWN"
}

// noOperand is the set of opcodes with no operand byte — i.e. the 0-arity
// opcodes from spec.md §4.2. Everything else takes one 24-bit operand.
var noOperand = map[Opcode]bool{
	POP: true, DUP_TOP: true, DUP_TOP_TWO: true, ROT_TWO: true, ROT_THREE: true,
	BINARY_ADD: true, BINARY_SUB: true, BINARY_MUL: true, BINARY_TRUE_DIVIDE: true, BINARY_FLOOR_DIVIDE: true,
	BINARY_MODULO: true, BINARY_POWER: true, BINARY_LSHIFT: true, BINARY_RSHIFT: true, BINARY_OR: true,
	BINARY_XOR: true, BINARY_AND: true, BINARY_LOGIC_AND: true, BINARY_LOGIC_OR: true,
	INPLACE_ADD: true, INPLACE_SUB: true, INPLACE_MUL: true, INPLACE_TRUE_DIVIDE: true, INPLACE_FLOOR_DIVIDE: true,
	INPLACE_MODULO: true, INPLACE_POWER: true, INPLACE_LSHIFT: true, INPLACE_RSHIFT: true,
	INPLACE_OR: true, INPLACE_XOR: true, INPLACE_AND: true,
	COMPARE_EQUAL_TO: true, COMPARE_NOT_EQUAL_TO: true, COMPARE_LESS_THAN: true, COMPARE_LESS_THAN_OR_EQUAL_TO: true,
	COMPARE_GREATER_THAN: true, COMPARE_GREATER_THAN_OR_EQUAL_TO: true, COMPARE_IS: true, COMPARE_IS_NOT: true,
	COMPARE_IN: true, COMPARE_NOT_IN: true,
	UNARY_POSITIVE: true, UNARY_NEGATIVE: true, UNARY_INVERT: true, UNARY_NOT: true,
	GET_ITER: true, RETURN_VALUE: true, RAISE: true, ASSERT: true,
	DEBUG_GLOBALS: true, DEBUG_LOCALS: true, DEBUG_NAMES: true, DEBUG_STACK: true,
}

// HasOperand reports whether op is followed by a 24-bit operand in the
// instruction stream.
func (op Opcode) HasOperand() bool {
	return !noOperand[op]
}
