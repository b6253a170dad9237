// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expand

import (
	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/token"
)

// matchFragment consumes one fragment of the given kind from the cursor.
// Fragment matching is committed: like macro_rules itself, a fragment that
// can start never retries with a shorter parse, so the FOLLOW restrictions
// enforced at definition time are what keep rules unambiguous.
//
// The parsers here are token-tree classifiers, not a Rust grammar: they
// consume balanced trees, tracking un-delimited < > nesting where types and
// paths need it, and stop at the tokens the fragment kind cannot contain at
// top level.
func matchFragment(d ast.Designator, cur *token.Cursor) ([]token.Tree, bool) {
	switch d {
	case ast.TT:
		t := cur.Next()
		if t == nil {
			return nil, false
		}
		return []token.Tree{*t}, true

	case ast.IdentTok:
		t := cur.Peek()
		if t == nil || t.Kind != token.Ident {
			return nil, false
		}
		cur.Next()
		return []token.Tree{*t}, true

	case ast.LifetimeTok:
		t := cur.Peek()
		if t == nil || t.Kind != token.Lifetime {
			return nil, false
		}
		cur.Next()
		return []token.Tree{*t}, true

	case ast.Literal:
		return matchLiteral(cur)

	case ast.Block:
		t := cur.Peek()
		if t == nil || t.Kind != token.Group || t.Delim != token.Brace {
			return nil, false
		}
		cur.Next()
		return []token.Tree{*t}, true

	case ast.Vis:
		return matchVis(cur)

	case ast.Path:
		return matchPath(cur)

	case ast.Ty:
		return matchTy(cur)

	case ast.Expr:
		return matchExpr(cur)

	case ast.Pat:
		return matchPat(cur)

	case ast.Stmt:
		return matchStmt(cur)

	case ast.Item:
		return matchItem(cur)

	case ast.Meta:
		return matchMeta(cur)

	default:
		return nil, false
	}
}

func matchLiteral(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	if t := cur.Peek(); t != nil && t.IsPunct('-') {
		next := cur.PeekAt(1)
		if next == nil || !next.Kind.IsLiteral() {
			return nil, false
		}
		out = append(out, *cur.Next())
	}
	t := cur.Peek()
	if t == nil || !t.Kind.IsLiteral() {
		return nil, false
	}
	out = append(out, *cur.Next())
	return out, true
}

// matchVis matches pub, pub(...), or nothing. It never fails: the empty
// visibility is a valid capture.
func matchVis(cur *token.Cursor) ([]token.Tree, bool) {
	t := cur.Peek()
	if t == nil || !t.IsIdent("pub") {
		return []token.Tree{}, true
	}
	out := []token.Tree{*cur.Next()}
	if g := cur.Peek(); g != nil && g.Kind == token.Group && g.Delim == token.Paren {
		out = append(out, *cur.Next())
	}
	return out, true
}

// matchPath matches [::] ident (:: ident | :: <...> | <...>)*.
func matchPath(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree

	if leading, ok := consumePun2(cur, ':', ':'); ok {
		out = append(out, leading...)
	}

	seg := cur.Peek()
	if seg == nil || seg.Kind != token.Ident {
		return nil, false
	}
	out = append(out, *cur.Next())

	for {
		if angles, ok := consumeAngles(cur); ok {
			out = append(out, angles...)
			continue
		}
		sep, ok := consumePun2(cur, ':', ':')
		if !ok {
			break
		}
		// a path cannot end in ::, so only commit if a segment or turbofish
		// follows
		if seg := cur.Peek(); seg != nil && seg.Kind == token.Ident {
			out = append(out, sep...)
			out = append(out, *cur.Next())
			continue
		}
		if angles, ok := consumeAngles(cur); ok {
			out = append(out, sep...)
			out = append(out, angles...)
			continue
		}
		return nil, false
	}
	return out, true
}

// consumePun2 consumes a two-rune joint operator like :: or => when present.
func consumePun2(cur *token.Cursor, a, b rune) ([]token.Tree, bool) {
	first := cur.Peek()
	if first == nil || !first.IsPunct(a) || !first.Joint {
		return nil, false
	}
	second := cur.PeekAt(1)
	if second == nil || !second.IsPunct(b) {
		return nil, false
	}
	return []token.Tree{*cur.Next(), *cur.Next()}, true
}

// consumeAngles consumes a balanced < ... > run, which delimiter nesting does
// not cover because angle brackets lex as ordinary puncts.
func consumeAngles(cur *token.Cursor) ([]token.Tree, bool) {
	t := cur.Peek()
	if t == nil || !t.IsPunct('<') {
		return nil, false
	}
	var out []token.Tree
	depth := 0
	for {
		t := cur.Peek()
		if t == nil {
			return nil, false
		}
		switch {
		case t.IsPunct('<'):
			depth++
		case t.IsPunct('>'):
			depth--
		}
		out = append(out, *cur.Next())
		if depth == 0 {
			return out, true
		}
	}
}

// matchTy greedily consumes a type: balanced trees, tracking angle nesting,
// stopping at top-level tokens a type cannot contain.
func matchTy(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	depth := 0
	for {
		t := cur.Peek()
		if t == nil {
			break
		}
		if depth == 0 {
			switch {
			case t.IsPunct(','), t.IsPunct(';'), t.IsPunct('='), t.IsPunct('|'):
				goto done
			case t.IsIdent("where"):
				goto done
			}
			// a brace group after at least one tree is a body, not a type
			if t.Kind == token.Group && t.Delim == token.Brace && len(out) > 0 {
				goto done
			}
		}
		switch {
		case t.IsPunct('<'):
			depth++
		case t.IsPunct('>'):
			if depth == 0 {
				goto done
			}
			depth--
		}
		out = append(out, *cur.Next())
	}
done:
	if len(out) == 0 || depth != 0 {
		return nil, false
	}
	return out, true
}

// matchExpr consumes one expression. The strategy is primary-then-operator:
// consume a primary (prefix operators, then a root, then postfix chains),
// then keep going as long as a binary operator continues the expression.
func matchExpr(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	for {
		prim, ok := consumePrimary(cur)
		if !ok {
			return nil, false
		}
		out = append(out, prim...)

		// `as` binds a type rather than another primary, so it does not
		// restart the loop; further operators may still follow the cast.
		for {
			t := cur.Peek()
			if t == nil || !t.IsIdent("as") {
				break
			}
			out = append(out, *cur.Next())
			ty, ok := matchTy(cur)
			if !ok {
				return nil, false
			}
			out = append(out, ty...)
		}

		op, ok := consumeBinaryOp(cur)
		if !ok {
			return out, true
		}
		out = append(out, op...)
	}
}

// exprKeywords start expressions that run through a brace-delimited body.
var exprKeywords = map[string]bool{
	"if": true, "match": true, "loop": true, "while": true,
	"for": true, "unsafe": true,
}

func consumePrimary(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree

	// prefix operators
	for {
		t := cur.Peek()
		if t == nil {
			return nil, false
		}
		if t.IsPunct('-') || t.IsPunct('!') || t.IsPunct('*') || t.IsPunct('&') {
			out = append(out, *cur.Next())
			continue
		}
		break
	}

	t := cur.Peek()
	switch {
	case t == nil:
		return nil, false

	case t.IsPunct('|') || t.IsIdent("move"):
		// closure: optional move, |params|, then the body expression
		if t.IsIdent("move") {
			out = append(out, *cur.Next())
			t = cur.Peek()
			if t == nil || !t.IsPunct('|') {
				return nil, false
			}
		}
		header, ok := consumeClosureHeader(cur)
		if !ok {
			return nil, false
		}
		out = append(out, header...)
		body, ok := matchExpr(cur)
		if !ok {
			return nil, false
		}
		return append(out, body...), true

	case t.Kind == token.Ident && exprKeywords[t.Name()]:
		kw, ok := consumeThroughBlock(cur)
		if !ok {
			return nil, false
		}
		out = append(out, kw...)
		// else-if chains
		for {
			e := cur.Peek()
			if e == nil || !e.IsIdent("else") {
				break
			}
			out = append(out, *cur.Next())
			chain, ok := consumeThroughBlock(cur)
			if !ok {
				return nil, false
			}
			out = append(out, chain...)
		}
		return out, true

	case t.IsIdent("return") || t.IsIdent("break") || t.IsIdent("continue"):
		out = append(out, *cur.Next())
		// the operand is optional; try one if something expression-like follows
		if n := cur.Peek(); n != nil && !isExprStop(cur) {
			rest, ok := matchExpr(cur)
			if !ok {
				return nil, false
			}
			out = append(out, rest...)
		}
		return out, true

	case t.Kind == token.Ident, t.Kind == token.Group, t.Kind.IsLiteral(), t.Kind == token.Lifetime:
		if t.Kind == token.Lifetime {
			// loop label: 'a: loop { ... }
			out = append(out, *cur.Next())
			if c := cur.Peek(); c != nil && c.IsPunct(':') {
				out = append(out, *cur.Next())
				rest, ok := consumePrimary(cur)
				if !ok {
					return nil, false
				}
				return append(out, rest...), true
			}
			return out, true
		}
		out = append(out, *cur.Next())

	default:
		return nil, false
	}

	// postfix chains: field access, calls, indexing, ?, paths, macro bang
	for {
		t := cur.Peek()
		if t == nil {
			break
		}
		switch {
		case t.IsPunct('.'):
			out = append(out, *cur.Next())
			next := cur.Peek()
			if next == nil {
				return nil, false
			}
			out = append(out, *cur.Next())
			continue
		case t.IsPunct('?'):
			out = append(out, *cur.Next())
			continue
		case t.IsPunct('!') && !t.Joint:
			// macro invocation in expression position
			if g := cur.PeekAt(1); g != nil && g.Kind == token.Group {
				out = append(out, *cur.Next(), *cur.Next())
				continue
			}
		case t.Kind == token.Group && t.Delim != token.Brace:
			out = append(out, *cur.Next())
			continue
		}
		if sep, ok := consumePun2(cur, ':', ':'); ok {
			out = append(out, sep...)
			if angles, ok := consumeAngles(cur); ok {
				out = append(out, angles...)
				continue
			}
			next := cur.Peek()
			if next == nil || next.Kind != token.Ident {
				return nil, false
			}
			out = append(out, *cur.Next())
			continue
		}
		break
	}
	return out, true
}

// consumeClosureHeader consumes |...| including || for no parameters.
func consumeClosureHeader(cur *token.Cursor) ([]token.Tree, bool) {
	t := cur.Peek()
	if t == nil || !t.IsPunct('|') {
		return nil, false
	}
	if t.Joint {
		if n := cur.PeekAt(1); n != nil && n.IsPunct('|') {
			// || is an empty parameter list
			return []token.Tree{*cur.Next(), *cur.Next()}, true
		}
	}
	out := []token.Tree{*cur.Next()}
	for {
		t := cur.Peek()
		if t == nil {
			return nil, false
		}
		out = append(out, *cur.Next())
		if t.IsPunct('|') {
			return out, true
		}
	}
}

// consumeThroughBlock consumes trees until it has consumed a brace group,
// inclusive. This is the shape of if/match/loop/while/for expressions.
func consumeThroughBlock(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	for {
		t := cur.Peek()
		if t == nil {
			return nil, false
		}
		out = append(out, *cur.Next())
		if t.Kind == token.Group && t.Delim == token.Brace {
			return out, true
		}
	}
}

// isExprStop reports whether the tree at the cursor ends an expression at
// top level: a separator, or the => that closes a match arm. A joint = is
// only a stop when a > actually follows; == is an ordinary operator.
func isExprStop(cur *token.Cursor) bool {
	t := cur.Peek()
	if t == nil {
		return true
	}
	if t.IsPunct(',') || t.IsPunct(';') {
		return true
	}
	if t.IsPunct('=') && t.Joint {
		if n := cur.PeekAt(1); n != nil && n.IsPunct('>') {
			return true
		}
	}
	return false
}

// consumeBinaryOp consumes a binary operator when one continues the
// expression. Separators and => never do.
func consumeBinaryOp(cur *token.Cursor) ([]token.Tree, bool) {
	t := cur.Peek()
	if t == nil || t.Kind != token.Punct || isExprStop(cur) {
		return nil, false
	}
	switch t.Text {
	case "+", "-", "*", "/", "%", "^", "&", "|", "<", ">", "=", ".":
	case "!":
		// a bare ! never continues an expression, but != does
		if !t.Joint {
			return nil, false
		}
		if n := cur.PeekAt(1); n == nil || !n.IsPunct('=') {
			return nil, false
		}
	default:
		return nil, false
	}
	// single rune or the head of a joint run; either way the whole run
	// belongs to the operator
	return consumeJointRun(cur), true
}

// consumeJointRun consumes a punct and every punct glued to it.
func consumeJointRun(cur *token.Cursor) []token.Tree {
	joint := cur.Peek().Joint
	out := []token.Tree{*cur.Next()}
	for joint {
		n := cur.Peek()
		if n == nil || n.Kind != token.Punct {
			break
		}
		joint = n.Joint
		out = append(out, *cur.Next())
	}
	return out
}

// matchPat consumes one pattern: balanced trees up to a top-level token a
// pattern cannot contain. Range operators are joint punct runs, so a `.`
// run is consumed whole and the = in ..= does not read as a stop.
func matchPat(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	for {
		t := cur.Peek()
		if t == nil {
			break
		}
		if t.IsPunct('.') {
			out = append(out, consumeJointRun(cur)...)
			continue
		}
		switch {
		case t.IsPunct(','), t.IsPunct(';'), t.IsPunct('='), t.IsPunct('|'):
			goto done
		case t.IsIdent("if"), t.IsIdent("in"):
			goto done
		}
		out = append(out, *cur.Next())
	}
done:
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// matchStmt consumes one statement without its trailing semicolon: a let
// binding, an item, or an expression statement.
func matchStmt(cur *token.Cursor) ([]token.Tree, bool) {
	t := cur.Peek()
	if t == nil {
		return nil, false
	}
	if t.IsIdent("let") {
		var out []token.Tree
		for {
			t := cur.Peek()
			if t == nil || t.IsPunct(';') {
				break
			}
			out = append(out, *cur.Next())
		}
		if len(out) < 2 {
			return nil, false
		}
		return out, true
	}
	if isItemStart(t) {
		return matchItem(cur)
	}
	return matchExpr(cur)
}

var itemKeywords = map[string]bool{
	"fn": true, "impl": true, "trait": true, "mod": true, "enum": true,
	"struct": true, "union": true, "extern": true, "use": true,
	"static": true, "const": true, "type": true, "pub": true,
	"macro_rules": true,
}

func isItemStart(t *token.Tree) bool {
	if t.IsPunct('#') {
		return true
	}
	return t.Kind == token.Ident && itemKeywords[t.Name()]
}

// matchItem consumes one item: leading outer attributes and visibility,
// then a form keyed off the item keyword. Items with bodies run through
// their first top-level brace group; declaration-only items run through a
// semicolon.
func matchItem(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	for {
		t := cur.Peek()
		if t == nil || !t.IsPunct('#') {
			break
		}
		g := cur.PeekAt(1)
		if g == nil || g.Kind != token.Group || g.Delim != token.Bracket {
			return nil, false
		}
		out = append(out, *cur.Next(), *cur.Next())
	}
	vis, _ := matchVis(cur)
	out = append(out, vis...)

	t := cur.Peek()
	if t == nil || t.Kind != token.Ident {
		return nil, false
	}
	switch t.Name() {
	case "macro_rules":
		bang := cur.PeekAt(1)
		if bang == nil || !bang.IsPunct('!') {
			return nil, false
		}
		out = append(out, *cur.Next(), *cur.Next())
		name := cur.Peek()
		if name == nil || name.Kind != token.Ident {
			return nil, false
		}
		out = append(out, *cur.Next())
		g := cur.Peek()
		if g == nil || g.Kind != token.Group {
			return nil, false
		}
		out = append(out, *cur.Next())
		if g.Delim != token.Brace {
			semi := cur.Peek()
			if semi == nil || !semi.IsPunct(';') {
				return nil, false
			}
			out = append(out, *cur.Next())
		}
		return out, true

	case "fn", "impl", "trait", "mod", "enum", "struct", "union", "extern", "unsafe":
		// tuple structs and extern declarations may end in ; instead of a body
		body, ok := consumeThroughBlockOrSemi(cur)
		if !ok {
			return nil, false
		}
		return append(out, body...), true

	case "use", "static", "const", "type":
		body, ok := consumeThroughSemi(cur)
		if !ok {
			return nil, false
		}
		return append(out, body...), true

	default:
		return nil, false
	}
}

// matchMeta consumes one attribute body: a path, then optionally a
// delimited argument list or = and a single value tree.
func matchMeta(cur *token.Cursor) ([]token.Tree, bool) {
	out, ok := matchPath(cur)
	if !ok {
		return nil, false
	}
	t := cur.Peek()
	switch {
	case t == nil:
		return out, true
	case t.Kind == token.Group:
		return append(out, *cur.Next()), true
	case t.IsPunct('=') && !t.Joint:
		out = append(out, *cur.Next())
		if cur.Peek() == nil {
			return nil, false
		}
		return append(out, *cur.Next()), true
	}
	return out, true
}

// consumeThroughSemi consumes trees through a top-level semicolon,
// inclusive.
func consumeThroughSemi(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	for {
		t := cur.Peek()
		if t == nil {
			return nil, false
		}
		out = append(out, *cur.Next())
		if t.IsPunct(';') {
			return out, true
		}
	}
}

// consumeThroughBlockOrSemi consumes trees through the first top-level
// brace group or semicolon, inclusive, whichever comes first.
func consumeThroughBlockOrSemi(cur *token.Cursor) ([]token.Tree, bool) {
	var out []token.Tree
	for {
		t := cur.Peek()
		if t == nil {
			return nil, false
		}
		out = append(out, *cur.Next())
		if t.IsPunct(';') || (t.Kind == token.Group && t.Delim == token.Brace) {
			return out, true
		}
	}
}
