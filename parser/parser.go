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

package parser

import (
	"errors"
	"io"

	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

// errSkipDecl unwinds a bad definition when the handler's reporter swallowed
// the diagnostic and asked to continue. It never escapes Parse.
var errSkipDecl = errors.New("skipping malformed macro definition")

// Parse lexes and parses the given source. It scans the resulting token trees
// for macro_rules! definitions; everything between definitions is kept as raw
// declarations for the expander to process.
//
// If the handler's reporter swallows errors, Parse keeps going after a bad
// definition and the returned error is the handler's final verdict.
func Parse(filename string, r io.Reader, handler *reporter.Handler) (*ast.FileNode, error) {
	lx, err := newLexer(r, filename, handler)
	if err != nil {
		return nil, err
	}
	trees, err := lx.lex()
	if err != nil {
		return nil, handler.Error()
	}

	p := &fileParser{info: lx.info, handler: handler}
	decls := p.parseDecls(trees)
	file := ast.NewFileNode(lx.info, decls)
	for _, def := range file.Defs() {
		if err := validateDef(lx.info, handler, def); err != nil {
			break
		}
	}
	return file, handler.Error()
}

type fileParser struct {
	info    *token.FileInfo
	handler *reporter.Handler
}

func (p *fileParser) errf(n token.Node, format string, args ...any) error {
	if err := p.handler.HandleError(reporter.Errorf(p.info.NodeInfo(n).Start(), format, args...)); err != nil {
		return err
	}
	// the reporter swallowed the diagnostic; still unwind the definition so
	// callers never see a half-parsed node
	return errSkipDecl
}

func (p *fileParser) parseDecls(trees []token.Tree) []ast.DeclNode {
	var decls []ast.DeclNode
	var raw []token.Tree

	flush := func() {
		if len(raw) > 0 {
			decls = append(decls, &ast.RawDeclNode{Trees: raw})
			raw = nil
		}
	}

	cur := token.NewCursor(trees)
	for !cur.Done() {
		if p.handler.ReporterError() != nil {
			// reporter already aborted; skip the rest of the input
			break
		}
		if !isMacroRulesHead(cur) {
			raw = append(raw, *cur.Next())
			continue
		}

		flush()
		def, err := p.parseMacroDef(cur)
		if err != nil || def == nil {
			// skip ahead and keep looking for definitions; if the reporter
			// aborted, the check at the top of the loop stops the scan
			continue
		}
		decls = append(decls, def)
	}
	flush()
	return decls
}

// isMacroRulesHead reports whether the cursor is positioned at
// macro_rules ! name (body).
func isMacroRulesHead(cur *token.Cursor) bool {
	head := cur.Peek()
	if head == nil || !head.IsIdent("macro_rules") {
		return false
	}
	bang := cur.PeekAt(1)
	if bang == nil || !bang.IsPunct('!') {
		return false
	}
	name := cur.PeekAt(2)
	if name == nil || name.Kind != token.Ident {
		return false
	}
	body := cur.PeekAt(3)
	return body != nil && body.Kind == token.Group
}

func (p *fileParser) parseMacroDef(cur *token.Cursor) (*ast.MacroDefNode, error) {
	head := cur.Next() // macro_rules
	cur.Next()         // !
	name := cur.Next()
	body := cur.Next()

	end := body.End()
	if body.Delim != token.Brace {
		// macro_rules!(...) and macro_rules![...] need a trailing semicolon
		semi := cur.Peek()
		if semi == nil || !semi.IsPunct(';') {
			return nil, p.errf(body, "macro_rules! with %s delimiters must be terminated by a semicolon", body.Delim)
		}
		end = cur.Next().End()
	}

	rules, err := p.parseRules(body.Children)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, p.errf(body, "macro_rules! definition of %q has no rules", name.Name())
	}
	return ast.NewMacroDefNode(*name, rules, head.Start(), end), nil
}

func (p *fileParser) parseRules(trees []token.Tree) ([]*ast.RuleNode, error) {
	var rules []*ast.RuleNode
	cur := token.NewCursor(trees)
	for !cur.Done() {
		matcher := cur.Next()
		if matcher.Kind != token.Group {
			return nil, p.errf(*matcher, "expected a delimited matcher to start a macro rule, got %q", matcher.String())
		}

		fatArrow := cur.Next()
		if fatArrow == nil || !fatArrow.IsPunct('=') || !fatArrow.Joint {
			return nil, p.errf(*matcher, "expected => after macro rule matcher")
		}
		gt := cur.Next()
		if gt == nil || !gt.IsPunct('>') {
			return nil, p.errf(*fatArrow, "expected => after macro rule matcher")
		}

		template := cur.Next()
		if template == nil || template.Kind != token.Group {
			return nil, p.errf(*gt, "expected a delimited template after =>")
		}

		matchers, err := p.parseMatchers(matcher.Children)
		if err != nil {
			return nil, err
		}
		tmpl, err := p.parseTemplate(template.Children)
		if err != nil {
			return nil, err
		}
		rules = append(rules, ast.NewRuleNode(matchers, tmpl, matcher.Start(), template.End()))

		if semi := cur.Peek(); semi != nil {
			if !semi.IsPunct(';') {
				return nil, p.errf(*semi, "expected ; between macro rules, got %q", semi.String())
			}
			cur.Next()
		}
	}
	return rules, nil
}

func (p *fileParser) parseMatchers(trees []token.Tree) ([]ast.MatcherNode, error) {
	var matchers []ast.MatcherNode
	cur := token.NewCursor(trees)
	for !cur.Done() {
		t := cur.Next()

		if t.Kind == token.Group {
			inner, err := p.parseMatchers(t.Children)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, ast.NewGroupMatcherNode(t.Delim, inner, t.Start(), t.End()))
			continue
		}

		if !t.IsPunct('$') {
			matchers = append(matchers, &ast.TokenMatcherNode{Tree: *t})
			continue
		}

		next := cur.Next()
		switch {
		case next == nil:
			return nil, p.errf(*t, "expected identifier or repetition after $ in matcher")

		case next.Kind == token.Ident:
			name := next.Name()
			colon := cur.Next()
			if colon == nil || !colon.IsPunct(':') {
				return nil, p.errf(*next, "metavariable $%s has no fragment designator", name)
			}
			desig := cur.Next()
			if desig == nil || desig.Kind != token.Ident {
				return nil, p.errf(*colon, "expected fragment designator after $%s:", name)
			}
			d, ok := ast.DesignatorByName(desig.Name())
			if !ok {
				return nil, p.errf(*desig, "invalid fragment designator %q; expected one of %v", desig.Name(), ast.DesignatorNames())
			}
			matchers = append(matchers, ast.NewFragmentMatcherNode(name, d, t.Start(), desig.End()))

		case next.Kind == token.Group && next.Delim == token.Paren:
			inner, err := p.parseMatchers(next.Children)
			if err != nil {
				return nil, err
			}
			sep, op, end, err := p.parseRepSuffix(cur, *next)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, ast.NewRepetitionMatcherNode(inner, sep, op, t.Start(), end))

		default:
			return nil, p.errf(*next, "expected identifier or ( after $ in matcher, got %q", next.String())
		}
	}
	return matchers, nil
}

func (p *fileParser) parseTemplate(trees []token.Tree) ([]ast.TemplateNode, error) {
	var tmpl []ast.TemplateNode
	cur := token.NewCursor(trees)
	for !cur.Done() {
		t := cur.Next()

		if t.Kind == token.Group {
			inner, err := p.parseTemplate(t.Children)
			if err != nil {
				return nil, err
			}
			tmpl = append(tmpl, ast.NewGroupTemplateNode(t.Delim, inner, t.Start(), t.End()))
			continue
		}

		if !t.IsPunct('$') {
			tmpl = append(tmpl, &ast.TokenTemplateNode{Tree: *t})
			continue
		}

		next := cur.Next()
		switch {
		case next == nil:
			return nil, p.errf(*t, "expected identifier or repetition after $ in template")

		case next.Kind == token.Ident && next.Name() == "crate":
			tmpl = append(tmpl, ast.NewCrateNode(t.Start(), next.End()))

		case next.Kind == token.Ident:
			tmpl = append(tmpl, ast.NewSubstitutionNode(next.Name(), t.Start(), next.End()))

		case next.Kind == token.Group && next.Delim == token.Paren:
			inner, err := p.parseTemplate(next.Children)
			if err != nil {
				return nil, err
			}
			sep, op, end, err := p.parseRepSuffix(cur, *next)
			if err != nil {
				return nil, err
			}
			tmpl = append(tmpl, ast.NewRepetitionTemplateNode(inner, sep, op, t.Start(), end))

		default:
			return nil, p.errf(*next, "expected identifier or ( after $ in template, got %q", next.String())
		}
	}
	return tmpl, nil
}

// parseRepSuffix parses the separator and operator after the parenthesized
// body of a repetition: the `,*` of `$(...),*`.
func (p *fileParser) parseRepSuffix(cur *token.Cursor, body token.Tree) (*token.Tree, ast.RepOp, token.Token, error) {
	var sep *token.Tree

	t := cur.Next()
	if t == nil {
		return nil, 0, -1, p.errf(body, "repetition is missing its * + or ? operator")
	}

	op, isOp := repOpFor(*t)
	if !isOp {
		if t.Kind == token.Group {
			return nil, 0, -1, p.errf(*t, "repetition separator must be a single token, not a delimited group")
		}
		s := *t
		sep = &s
		t = cur.Next()
		if t == nil {
			return nil, 0, -1, p.errf(s, "repetition is missing its * + or ? operator")
		}
		op, isOp = repOpFor(*t)
		if !isOp {
			return nil, 0, -1, p.errf(*t, "expected repetition operator * + or ?, got %q", t.String())
		}
	}
	return sep, op, t.End(), nil
}

func repOpFor(t token.Tree) (ast.RepOp, bool) {
	if t.Kind != token.Punct {
		return 0, false
	}
	switch t.Text {
	case "*":
		return ast.ZeroOrMore, true
	case "+":
		return ast.OneOrMore, true
	case "?":
		return ast.ZeroOrOne, true
	default:
		return 0, false
	}
}

