package compiler

import (
	"github.com/kcl-lang/kclvm-go/pkg/ast"
	"github.com/kcl-lang/kclvm-go/pkg/bytecode"
	"github.com/kcl-lang/kclvm-go/pkg/symtable"
)

// SchemaTypeConst is the constant-pool payload that registers a schema
// type, attached to the enclosing module under its mangled name (spec.md
// §4.3 "Schema statement"). The VM's BUILD_SCHEMA opcode looks this up by
// name, then runs Body against a fresh instance following the five-step
// construction order of spec.md §4.5. Body is one frame whose declared
// attributes are forced on demand via LOAD_ATTR_LAZY and AttrInits rather
// than assigned unconditionally in declaration order; the VM recovers
// individual attribute values from the frame's locals array by consulting
// AttrNames, which is parallel to the locals array the way a
// SchemaTypeConst's Body Module's own constant/name pools are parallel to
// its instructions.
type SchemaTypeConst struct {
	Name           string
	Parent         string
	Mixins         []string
	Protocols      []string
	IndexSignature *ast.IndexSignatureDecl
	Docstring      string
	Checks         []CheckConst
	Decorators     []ast.DecoratorDecl
	Body           *bytecode.Module
	AttrNames      []string
	NumLocals      int
	FreeVars       []symtable.Symbol
	// AttrInits maps a declared attribute's local slot index to the
	// single-expression sub-module computing it, letting the VM's
	// LOAD_ATTR_LAZY force that one attribute on demand rather than running
	// the whole body straight through (spec.md §4.5 "Lazy attribute
	// evaluation and backtracking"). Keyed by index rather than by name so
	// the VM needs no extra name lookup at the one place (LOAD_ATTR_LAZY)
	// that consults it.
	AttrInits map[int]AttrInit
}

// AttrInit is one schema attribute's initializer, split out of the body's
// otherwise-linear instruction stream so it can be run independently of
// the body's own declaration order.
type AttrInit struct {
	Name   string
	Module *bytecode.Module
}

type CheckConst struct {
	// Cond/Message compile directly into the schema body Module itself (see
	// compileSchema): the condition, then the message (or an empty string),
	// then a CHECK opcode carrying this check's own index. This struct only
	// needs to record the per-check metadata CHECK's dispatch case cannot
	// recover from the instruction stream alone.
	HasMessage bool
	// AttrNames lists the bare attribute names the check's condition reads,
	// so a failing check can attach each one's last store position as a
	// secondary diagnostic span alongside the check condition's own span.
	AttrNames []string
}

// attrRefs collects the bare identifier names an expression reads, used to
// point a failing check's diagnostic at the attribute stores that produced
// the values it compared. It only descends into the expression shapes a
// check predicate actually uses; anything else (a lambda, a comprehension)
// is left unattributed rather than guessed at.
func attrRefs(e ast.Expression) []string {
	switch x := e.(type) {
	case *ast.Identifier:
		return []string{x.Name}
	case *ast.BinaryExpr:
		return append(attrRefs(x.Left), attrRefs(x.Right)...)
	case *ast.UnaryExpr:
		return attrRefs(x.Operand)
	case *ast.CompareExpr:
		return append(attrRefs(x.Left), attrRefs(x.Right)...)
	case *ast.LogicExpr:
		return append(attrRefs(x.Left), attrRefs(x.Right)...)
	case *ast.MemberShipAsExpr:
		return attrRefs(x.Value)
	case *ast.CallExpr:
		var names []string
		for _, a := range x.Args {
			names = append(names, attrRefs(a.Value)...)
		}
		return names
	default:
		return nil
	}
}

// compileSchema lowers a schema statement (spec.md §4.3 "Schema
// statement"): the body compiles into its own nested Module, registered in
// the enclosing module's SchemaPrograms and constant pool under the
// schema's mangled name. A bare top-level attribute assignment is split by
// compileSchemaBodyStmt into its own initializer sub-module and forced
// on demand by LOAD_ATTR_LAZY rather than run inline; everything else in the
// body (dotted assigns, control flow, asserts) compiles and runs straight
// through as an ordinary statement. The VM harvests the resulting locals
// array into the instance's attribute dict using AttrNames. A reference
// cycle between two attributes' initializers (a reads b, b reads a) is
// caught by the VM's re-entrancy tracking on the schema instance, not as a
// compile-time concern.
func (c *Compiler) compileSchema(s *ast.SchemaStmt) error {
	mangled := mangledSchemaName(s.Name)

	c.pushUnit(c.cur.module.PackagePath + "#" + mangled)
	c.cur.isSchema = true
	for _, stmt := range s.Body {
		if err := c.compileSchemaBodyStmt(stmt); err != nil {
			c.popUnit()
			return err
		}
	}
	checks := make([]CheckConst, len(s.Checks))
	for i, chk := range s.Checks {
		if err := c.compileExpr(chk.Cond); err != nil {
			c.popUnit()
			return err
		}
		checks[i].AttrNames = attrRefs(chk.Cond)
		if chk.Message != nil {
			if err := c.compileExpr(chk.Message); err != nil {
				c.popUnit()
				return err
			}
			checks[i].HasMessage = true
		} else {
			c.emit(bytecode.LOAD_CONST, c.addConst(""), s.Pos())
		}
		c.emit(bytecode.CHECK, i, s.Pos())
	}
	c.emit(bytecode.LOAD_CONST, c.addConst(nil), s.Pos())
	c.cur.module.Emit(bytecode.RETURN_VALUE, 0, pos(s.Pos()))
	body := c.popUnit()

	attrNames := make([]string, 0, len(body.scope.LocalNames()))
	for _, name := range body.scope.LocalNames() {
		if name != "" && name[0] != '#' {
			attrNames = append(attrNames, name)
		}
	}

	sig := s.IndexSignature
	sc := SchemaTypeConst{
		Name: s.Name, Parent: s.Parent, Mixins: s.Mixins, Protocols: s.Protocols,
		IndexSignature: sig, Docstring: s.Docstring, Checks: checks,
		Decorators: s.Decorators, Body: body.module, AttrNames: attrNames,
		NumLocals: body.scope.NumDefinitions(), FreeVars: body.scope.FreeSymbols,
		AttrInits: body.attrInits,
	}
	c.cur.module.SchemaPrograms[mangled] = body.module
	for _, init := range body.attrInits {
		body.module.SchemaPrograms["attr:"+init.Name] = init.Module
	}
	idx := c.addConst(sc)
	nameIdx := c.addName(mangled)
	// Bind the schema type object to its mangled name as a GLOBAL so that
	// later LOAD_NAME references to the bare type name (e.g. in a
	// MEMBER_SHIP_AS coercion target) resolve the same object BUILD_SCHEMA
	// consults by name index.
	c.emit(bytecode.LOAD_CONST, idx, s.Pos())
	c.emit(bytecode.STORE_GLOBAL, nameIdx, s.Pos())
	return nil
}

// compileRule lowers a rule statement as a constraints-only sub-program
// (spec.md §4.3 "Rule statement", GLOSSARY "Rule"): evaluating it returns
// True only if every check passes.
func (c *Compiler) compileRule(s *ast.RuleStmt) error {
	c.pushUnit(c.cur.module.PackagePath + "#rule:" + s.Name)
	for _, chk := range s.Checks {
		if err := c.compileExpr(chk.Cond); err != nil {
			c.popUnit()
			return err
		}
		if chk.Message != nil {
			if err := c.compileExpr(chk.Message); err != nil {
				c.popUnit()
				return err
			}
		} else {
			c.emit(bytecode.LOAD_CONST, c.addConst(""), s.Pos())
		}
		c.emit(bytecode.CHECK, 0, s.Pos())
	}
	c.emit(bytecode.LOAD_CONST, c.addConst(true), s.Pos())
	c.emit(bytecode.RETURN_VALUE, 0, s.Pos())
	body := c.popUnit()

	mangled := mangledSchemaName(s.Name)
	c.cur.module.SchemaPrograms[mangled] = body.module
	fc := FunctionConst{
		Module: body.module, Starred: -1, DoubleStar: -1,
		NumLocals: body.scope.NumDefinitions(), FreeVars: body.scope.FreeSymbols,
	}
	idx := c.addConst(fc)
	c.emit(bytecode.LOAD_CONST, idx, s.Pos())
	c.emit(bytecode.MAKE_FUNCTION, 0, s.Pos())
	c.resolveStore(s.Name, s.Pos())
	return nil
}

// compileSchemaBodyStmt special-cases a bare `name = expr` (or `name: expr`)
// attribute declaration at the top level of a schema body: rather than
// compiling the initializer inline, it splits it into its own
// single-expression sub-module (registered on the unit's attrInits) and
// leaves only a LOAD_ATTR_LAZY/POP pair in the body's own instruction
// stream at the attribute's declaration point.
//
// LOAD_ATTR_LAZY only runs that sub-module when the slot is still
// Undefined, so a value already seeded into the frame's locals from
// inherited parent/mixin defaults or from the caller's config (spec.md §4.5
// steps 1-3) wins over the schema's own declared default (step 4) exactly
// as before — but now the same forcing also fires from any other point in
// the body (an earlier attribute's initializer, a check condition) that
// reads this attribute before its own declaration runs, which is what lets
// attributes reference later-declared siblings and lets a genuine reference
// cycle surface as RecursionError instead of silently reading Undefined.
//
// Anything else — dotted assigns, control flow, asserts — compiles through
// the ordinary path and always executes unconditionally; an attribute
// assignment nested inside an `if`/`for` inside a schema body is therefore
// an unconditional overwrite, not a lazily-forced declaration.
func (c *Compiler) compileSchemaBodyStmt(stmt ast.Statement) error {
	as, ok := stmt.(*ast.AssignStmt)
	if !ok || as.AugOp != "" || len(as.Targets) != 1 || len(as.Targets[0].Path) >= 2 {
		return c.compileStmt(stmt)
	}
	name := as.Targets[0].Name
	sym, _ := c.cur.scope.Define(name)
	if sym.Scope != symtable.LOCAL {
		return c.compileStmt(stmt)
	}

	outer := c.cur.module
	init := bytecode.New(outer.PackagePath + "#attr:" + name)
	c.cur.module = init
	if err := c.compileExpr(as.Value); err != nil {
		c.cur.module = outer
		return err
	}
	c.emit(bytecode.STORE_LOCAL, sym.Index, as.Pos())
	c.emit(bytecode.LOAD_CONST, c.addConst(nil), as.Pos())
	c.emit(bytecode.RETURN_VALUE, 0, as.Pos())
	c.cur.module = outer

	if c.cur.attrInits == nil {
		c.cur.attrInits = make(map[int]AttrInit)
	}
	c.cur.attrInits[sym.Index] = AttrInit{Name: name, Module: init}

	c.emit(bytecode.LOAD_ATTR_LAZY, sym.Index, as.Pos())
	c.emit(bytecode.POP, 0, as.Pos())
	return nil
}
