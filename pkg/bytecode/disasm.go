package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a Module's instruction stream as human-readable text,
// one line per instruction, in the classic "OFFSET OPCODE OPERAND ; comment"
// form; neither the VM's DEBUG_* opcodes nor the CLI call it. Nested schema
// sub-programs are
// rendered recursively, indented, after the owning Module's own stream.
func Disassemble(m *Module) (string, error) {
	var b strings.Builder
	if err := disassembleInto(&b, m, "", 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func disassembleInto(b *strings.Builder, m *Module, indent string, depth int) error {
	decoded, err := Decode(m)
	if err != nil {
		return err
	}
	for _, d := range decoded {
		fmt.Fprintf(b, "%s%6d %-24s", indent, d.Offset, d.Op)
		if d.Op.HasOperand() {
			fmt.Fprintf(b, "%6d", d.Operand)
			b.WriteString(operandComment(m, d))
		}
		b.WriteByte('\n')
	}
	if depth > 8 {
		return fmt.Errorf("schema sub-program nesting exceeds depth 8 at %q", m.PackagePath)
	}
	for name, sub := range m.SchemaPrograms {
		fmt.Fprintf(b, "%s-- schema %s --\n", indent, name)
		if err := disassembleInto(b, sub, indent+"  ", depth+1); err != nil {
			return err
		}
	}
	return nil
}

// operandComment annotates an operand with the constant/name it refers to,
// when that can be determined statically, the way a disassembler attaches
// "; 10" next to "LOAD_CONST 3".
func operandComment(m *Module, d Decoded) string {
	switch d.Op {
	case LOAD_CONST:
		if d.Operand >= 0 && d.Operand < len(m.Constants) {
			return fmt.Sprintf("  ; %v", m.Constants[d.Operand])
		}
	case LOAD_NAME, LOAD_GLOBAL, STORE_GLOBAL, STORE_NAME, LOAD_ATTR, STORE_ATTR, DELETE_ATTR,
		IMPORT_NAME, IMPORT_FROM, BUILD_SCHEMA, MEMBER_SHIP_AS, FORMAT_VALUE, DELETE_GLOBAL:
		if d.Operand >= 0 && d.Operand < len(m.Names) {
			return fmt.Sprintf("  ; %s", m.Names[d.Operand])
		}
	case JUMP_ABSOLUTE, POP_JUMP_IF_TRUE, POP_JUMP_IF_FALSE, JUMP_IF_TRUE_OR_POP, JUMP_IF_FALSE_OR_POP, FOR_ITER:
		return fmt.Sprintf("  ; -> %d", d.Offset+1+operandWidth+d.Operand)
	}
	return ""
}
