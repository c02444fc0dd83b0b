// Package vm implements the evaluator: the stack-based virtual machine that
// executes a compiled pkg/bytecode.Module and produces the pkg/value tree
// a planner later serializes (spec.md §4.5).
package vm

import (
	"fmt"
	"strings"

	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
	"github.com/kcl-lang/kclvm-go/pkg/diagnostic"
)

// StackFrame is one entry of a RuntimeError's trace: the package and source
// position executing when the error propagated through it.
type StackFrame struct {
	Package  string
	Function string
	Position bytecode.Position
}

// RuntimeError wraps the first fatal Diagnostic the VM raised with the
// frame trace active at the point it was raised, carrying a structured
// Diagnostic instead of a plain string so callers can match on
// Diagnostic.Kind (spec.md §7 "the VM never swallows an error").
type RuntimeError struct {
	Diag  *diagnostic.Diagnostic
	Trace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Diag.Error())
	if len(e.Trace) > 0 {
		b.WriteString("\n\nStack trace:")
		for i := len(e.Trace) - 1; i >= 0; i-- {
			f := e.Trace[i]
			fmt.Fprintf(&b, "\n  at %s", f.Package)
			if f.Function != "" {
				fmt.Fprintf(&b, ".%s", f.Function)
			}
			fmt.Fprintf(&b, " [%s:%d:%d]", f.Position.File, f.Position.Line, f.Position.Col)
		}
	}
	return b.String()
}

// Unwrap exposes the underlying Diagnostic so callers can use errors.As to
// recover it without string-matching Error()'s rendered form.
func (e *RuntimeError) Unwrap() error { return e.Diag }

func newRuntimeError(diag *diagnostic.Diagnostic, trace []StackFrame) *RuntimeError {
	return &RuntimeError{Diag: diag, Trace: trace}
}
