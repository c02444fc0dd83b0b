// Package diagnostic defines the structured error and warning model used
// throughout compilation and evaluation, and renders it the way kcl_err_theme
// in the original implementation does: one line per span followed by a caret
// underline, with secondary spans carrying their own sub-messages.
package diagnostic

import (
	"fmt"
	"strings"
)

// Kind is a stable diagnostic code, used both for machine matching (tests,
// RPC error payloads) and for the code printed alongside a diagnostic's
// message.
type Kind string

// The fixed set of error kinds from spec.md §7. Deprecated_Warning and the
// float-underflow/docstring cases are warnings; everything else is fatal.
const (
	KindInvalidSyntax             Kind = "InvalidSyntax"
	KindIndentationError          Kind = "IndentationError"
	KindCompileError              Kind = "CompileError"
	KindTypeErrorCompile          Kind = "TypeError_Compile"
	KindIntOverflow               Kind = "IntOverflow"
	KindFloatOverflow             Kind = "FloatOverflow"
	KindFloatUnderflow            Kind = "FloatUnderflow"
	KindIllegalArgumentError      Kind = "IllegalArgumentError"
	KindIllegalArgumentSyntax     Kind = "IllegalArgumentError_Syntax"
	KindCannotFindModule          Kind = "CannotFindModule"
	KindCannotAddMembers          Kind = "CannotAddMembers"
	KindImmutableCompileError     Kind = "ImmutableCompileError"
	KindIndexSignatureError       Kind = "IndexSignatureError"
	KindMultiInheritError         Kind = "MultiInheritError"
	KindCycleInheritError         Kind = "CycleInheritError"
	KindIllegalInheritError       Kind = "IllegalInheritError"
	KindRecursionError            Kind = "RecursionError"
	KindAttributeError            Kind = "AttributeError"
	KindEvaluationError           Kind = "EvaluationError"
	KindSchemaCheckFailure        Kind = "SchemaCheckFailure"
	KindAssertionError            Kind = "AssertionError"
	KindInvalidFormatSpec         Kind = "InvalidFormatSpec"
	KindInvalidDocstring          Kind = "InvalidDocstring"
	KindDeprecated                Kind = "Deprecated"
	KindDeprecatedWarning         Kind = "Deprecated_Warning"
	KindUnknownDecorator          Kind = "UnKnownDecorator"
)

// warningKinds is the subset of Kind that never aborts evaluation.
var warningKinds = map[Kind]bool{
	KindFloatUnderflow:    true,
	KindDeprecatedWarning: true,
	KindInvalidDocstring:  true,
}

// IsWarning reports whether a diagnostic of this kind is non-fatal.
func (k Kind) IsWarning() bool {
	return warningKinds[k]
}

// Position is a single point or span endpoint in a source file.
type Position struct {
	File   string
	Line   int
	Col    int
	EndLine int
	EndCol  int
}

// Span pairs a message with the Position it applies to. A Diagnostic carries
// one primary Span plus zero or more secondary ones (e.g. "expect T" at a
// declaration, "got U" at the offending expression).
type Span struct {
	Position Position
	Message  string
}

// Diagnostic is the structured error/warning produced by the compiler or the
// VM. Every user-visible error in this system is reported as one of these.
type Diagnostic struct {
	Kind      Kind
	Primary   Span
	Secondary []Span
}

// Error implements the error interface so a Diagnostic can be returned and
// wrapped like any other Go error.
func (d *Diagnostic) Error() string {
	return d.Render(false)
}

// New builds a fatal-by-default Diagnostic with a single primary span.
func New(kind Kind, pos Position, message string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Kind:    kind,
		Primary: Span{Position: pos, Message: fmt.Sprintf(message, args...)},
	}
}

// WithSecondary appends a secondary span and returns the receiver, so
// construction can be chained: diagnostic.New(...).WithSecondary(...).
func (d *Diagnostic) WithSecondary(pos Position, message string, args ...interface{}) *Diagnostic {
	d.Secondary = append(d.Secondary, Span{Position: pos, Message: fmt.Sprintf(message, args...)})
	return d
}

// Render formats the diagnostic as file:line:col:code:message for the
// primary span, then the same for each secondary span. With withCaret,
// each span line is followed by a line holding a caret under Col; the
// source text itself is not printed.
func (d *Diagnostic) Render(withCaret bool) string {
	var b strings.Builder
	renderSpan(&b, d.Kind, d.Primary, withCaret)
	for _, s := range d.Secondary {
		b.WriteByte('\n')
		renderSpan(&b, d.Kind, s, withCaret)
	}
	return b.String()
}

func renderSpan(b *strings.Builder, kind Kind, s Span, withCaret bool) {
	fmt.Fprintf(b, "%s:%d:%d:%s:%s", s.Position.File, s.Position.Line, s.Position.Col, kind, s.Message)
	if withCaret {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(" ", s.Position.Col-1))
		b.WriteByte('^')
	}
}

// Bag collects diagnostics during a phase that can recover from individual
// errors (the type checker, per spec.md §7); at run time only ever holds the
// first fatal error and any accumulated warnings.
type Bag struct {
	fatal    *Diagnostic
	warnings []*Diagnostic
}

// Report records a diagnostic. Warnings accumulate; the first fatal
// diagnostic seen is latched and all subsequent fatal diagnostics are
// dropped, matching "the VM guarantees the first fatal error seen is the one
// reported" from spec.md §4.5.
func (b *Bag) Report(d *Diagnostic) {
	if d.Kind.IsWarning() {
		b.warnings = append(b.warnings, d)
		return
	}
	if b.fatal == nil {
		b.fatal = d
	}
}

// Fatal returns the first fatal diagnostic reported, or nil.
func (b *Bag) Fatal() *Diagnostic { return b.fatal }

// Warnings returns all warnings reported, in report order.
func (b *Bag) Warnings() []*Diagnostic { return b.warnings }

// HasFatal reports whether a fatal diagnostic has been latched.
func (b *Bag) HasFatal() bool { return b.fatal != nil }
