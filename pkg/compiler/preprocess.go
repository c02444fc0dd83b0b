package compiler

import "github.com/kcl-lang/kclvm-go/pkg/ast"

// preprocessConfig rewrites a config literal's dotted-key entries into
// nested single-key config literals before compilation (spec.md §4.3
// "Config nesting", §9 "Dotted assignment chains"), following the original
// implementation's dedicated `compiler/build/preprocess.py` pass rather
// than inlining the rewrite into statement lowering.
//
// `d = {a.b.c = 1}` becomes, after this pass, the literal equivalent of
// `d = {a: {b: {c = 1}}}`: every level but the innermost uses UNION
// semantics so that repeated dotted assignments to different leaves of the
// same prefix merge instead of clobbering each other.
func preprocessConfig(lit *ast.ConfigLit) *ast.ConfigLit {
	out := &ast.ConfigLit{}
	for _, e := range lit.Entries {
		out.Entries = append(out.Entries, preprocessEntry(e))
	}
	return out
}

func preprocessEntry(e ast.ConfigEntry) ast.ConfigEntry {
	segments := splitDotted(e.Key)
	if len(segments) <= 1 {
		return withPreprocessedValue(e)
	}
	return rewriteChain(segments, e.Value, e.Op)
}

// rewriteChain builds the nested single-key ConfigLit chain for a dotted
// key `segments[0].segments[1]...`. Every level but the last is UNION;
// the innermost keeps the original entry's operation.
func rewriteChain(segments []string, value ast.Expression, leafOp ast.ConfigOp) ast.ConfigEntry {
	if len(segments) == 1 {
		return ast.ConfigEntry{Key: segments[0], Value: value, Op: leafOp}
	}
	inner := rewriteChain(segments[1:], value, leafOp)
	nested := &ast.ConfigLit{Entries: []ast.ConfigEntry{inner}}
	return ast.ConfigEntry{Key: segments[0], Value: nested, Op: ast.ConfigUnion}
}

func withPreprocessedValue(e ast.ConfigEntry) ast.ConfigEntry {
	if nested, ok := e.Value.(*ast.ConfigLit); ok {
		e.Value = preprocessConfig(nested)
	}
	return e
}

// splitDotted splits a dotted key "a.b.c" into ["a","b","c"]. A key with no
// dot returns a single-element slice.
func splitDotted(key string) []string {
	var out []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			out = append(out, key[start:i])
			start = i + 1
		}
	}
	out = append(out, key[start:])
	return out
}

// stripDollarPrefix implements spec.md §4.3 "Identifier de-prefixing":
// AST identifiers/path segments beginning with `$` (used to escape reserved
// words in source) are stripped of that prefix before compilation.
func stripDollarPrefix(name string) string {
	if len(name) > 0 && name[0] == '$' {
		return name[1:]
	}
	return name
}
