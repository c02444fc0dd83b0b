package ast

import "encoding/gob"

// init registers every concrete Expression/Statement implementation with
// encoding/gob, the same way Consensys-go-corset's schema/hir packages
// register their own interface implementations (gob.Register(Type(&...))
// in pkg/schema/type.go, gob.Register(Term(&...)) in pkg/hir/term.go) so
// that a gob.Encoder/Decoder can round-trip a Program's Statement/
// Expression-typed fields without knowing their concrete types up front.
//
// A resolved Program is produced by an external lex/parse/resolve front
// end this module does not implement (spec.md §1/§6 — "no lexer/parser
// implemented here"); gob is the hand-off format that front end and this
// module's CLI agree on, in place of a JSON schema neither side has
// standardized.
func init() {
	gob.Register(Expression(&Identifier{}))
	gob.Register(Expression(&Attribute{}))
	gob.Register(Expression(&Subscript{}))
	gob.Register(Expression(&IntLit{}))
	gob.Register(Expression(&FloatLit{}))
	gob.Register(Expression(&StringLit{}))
	gob.Register(Expression(&BoolLit{}))
	gob.Register(Expression(&NoneLit{}))
	gob.Register(Expression(&UndefinedLit{}))
	gob.Register(Expression(&NumberMultiplierLit{}))
	gob.Register(Expression(&ListLit{}))
	gob.Register(Expression(&ConfigLit{}))
	gob.Register(Expression(&BinaryExpr{}))
	gob.Register(Expression(&UnaryExpr{}))
	gob.Register(Expression(&CompareExpr{}))
	gob.Register(Expression(&LogicExpr{}))
	gob.Register(Expression(&MemberShipAsExpr{}))
	gob.Register(Expression(&CallExpr{}))
	gob.Register(Expression(&SchemaCallExpr{}))
	gob.Register(Expression(&LambdaExpr{}))
	gob.Register(Expression(&QuantifierExpr{}))
	gob.Register(Expression(&StringInterpExpr{}))
	gob.Register(Expression(&ComprehensionExpr{}))

	gob.Register(Statement(&AssignStmt{}))
	gob.Register(Statement(&ExprStmt{}))
	gob.Register(Statement(&IfStmt{}))
	gob.Register(Statement(&ForStmt{}))
	gob.Register(Statement(&SchemaStmt{}))
	gob.Register(Statement(&RuleStmt{}))
	gob.Register(Statement(&ImportStmt{}))
	gob.Register(Statement(&AssertStmt{}))
	gob.Register(Statement(&ReturnStmt{}))
}
