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
	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

// validateDef applies the definition-time checks that make a macro's rules
// safe to match against arbitrary input later: metavariable uniqueness,
// repetition well-formedness, template boundness, and the FOLLOW restrictions
// on ambiguous fragment kinds.
func validateDef(info *token.FileInfo, handler *reporter.Handler, def *ast.MacroDefNode) error {
	v := &defValidator{info: info, handler: handler, def: def}
	for _, rule := range def.Rules {
		if err := v.checkRule(rule); err != nil {
			return err
		}
	}
	return nil
}

type defValidator struct {
	info    *token.FileInfo
	handler *reporter.Handler
	def     *ast.MacroDefNode
}

func (v *defValidator) errf(n token.Node, format string, args ...any) error {
	return v.handler.HandleError(reporter.Errorf(v.info.NodeInfo(n).Start(), format, args...))
}

func (v *defValidator) checkRule(rule *ast.RuleNode) error {
	// metavariable names must be unique within one matcher
	names := map[string]ast.MatcherNode{}
	err := ast.WalkMatchers(rule.Matchers, func(m ast.MatcherNode) error {
		frag, ok := m.(*ast.FragmentMatcherNode)
		if !ok {
			return nil
		}
		if _, dup := names[frag.Name]; dup {
			return v.errf(frag, "duplicate metavariable $%s in matcher for macro %q", frag.Name, v.def.Name())
		}
		names[frag.Name] = frag
		return nil
	})
	if err != nil {
		return err
	}

	if err := v.checkRepetitions(rule.Matchers); err != nil {
		return err
	}
	if err := v.checkFollowSets(rule.Matchers, nil); err != nil {
		return err
	}
	return v.checkTemplateBound(rule, names)
}

func (v *defValidator) checkRepetitions(matchers []ast.MatcherNode) error {
	return ast.WalkMatchers(matchers, func(m ast.MatcherNode) error {
		rep, ok := m.(*ast.RepetitionMatcherNode)
		if !ok {
			return nil
		}
		if rep.Op == ast.ZeroOrOne && rep.Separator != nil {
			return v.errf(rep, "the ? repetition operator does not take a separator")
		}
		if rep.Separator == nil && rep.Op != ast.ZeroOrOne && canMatchEmpty(rep.Matchers) {
			return v.errf(rep, "repetition matches the empty token sequence and would loop forever")
		}
		return nil
	})
}

// canMatchEmpty reports whether a matcher sequence can succeed without
// consuming any input.
func canMatchEmpty(matchers []ast.MatcherNode) bool {
	for _, m := range matchers {
		switch m := m.(type) {
		case *ast.RepetitionMatcherNode:
			if m.Op == ast.OneOrMore && !canMatchEmpty(m.Matchers) {
				return false
			}
			// * and ? can always match empty
		case *ast.FragmentMatcherNode:
			if m.Designator != ast.Vis {
				return false
			}
			// vis matches the empty qualifier
		default:
			return false
		}
	}
	return true
}

// checkTemplateBound verifies that every substitution in the template names a
// metavariable the matcher actually binds.
func (v *defValidator) checkTemplateBound(rule *ast.RuleNode, names map[string]ast.MatcherNode) error {
	return ast.WalkTemplate(rule.Template, func(t ast.TemplateNode) error {
		sub, ok := t.(*ast.SubstitutionNode)
		if !ok {
			return nil
		}
		if _, bound := names[sub.Name]; !bound {
			return v.errf(sub, "template of macro %q uses $%s, which its matcher does not bind", v.def.Name(), sub.Name)
		}
		return nil
	})
}

// follower describes what can come immediately after a matcher position:
// either a concrete leaf token, the start of a group (its open delimiter), a
// fragment matcher, or the end of the pattern.
type follower struct {
	leaf  *token.Tree
	delim *token.Delimiter
	frag  *ast.FragmentMatcherNode
	end   bool
}

// checkFollowSets enforces the restrictions on what may follow expr, stmt,
// pat, ty, path, and vis fragments, so that matching never has to commit to
// an ambiguous parse. after is the set of positions that can follow the whole
// sequence.
func (v *defValidator) checkFollowSets(matchers []ast.MatcherNode, after []follower) error {
	for i, m := range matchers {
		nexts := followersOf(matchers[i+1:], after)
		switch m := m.(type) {
		case *ast.GroupMatcherNode:
			closing := m.Delim
			if err := v.checkFollowSets(m.Matchers, []follower{{delim: &closing, end: true}}); err != nil {
				return err
			}
		case *ast.RepetitionMatcherNode:
			// inside the body, the loop may continue (separator or body
			// start) or exit to whatever follows the repetition
			inner := nexts
			if m.Separator != nil {
				inner = append([]follower{{leaf: m.Separator}}, nexts...)
			} else if m.Op != ast.ZeroOrOne {
				inner = append(followersOf(m.Matchers, nil), nexts...)
			}
			if err := v.checkFollowSets(m.Matchers, inner); err != nil {
				return err
			}
			// the separator itself must be a valid follower of the body's
			// last fragment; that is covered by inner above
		case *ast.FragmentMatcherNode:
			for _, f := range nexts {
				if !mayFollow(m.Designator, f) {
					return v.errf(m, "$%s:%s fragment in macro %q is followed by %s, which is not allowed after %s fragments",
						m.Name, m.Designator, v.def.Name(), describeFollower(f), m.Designator)
				}
			}
		}
	}
	return nil
}

// followersOf computes the possible first positions of a matcher sequence,
// falling through elements that can match empty.
func followersOf(matchers []ast.MatcherNode, after []follower) []follower {
	if len(matchers) == 0 {
		if after == nil {
			return []follower{{end: true}}
		}
		return after
	}
	switch m := matchers[0].(type) {
	case *ast.TokenMatcherNode:
		return []follower{{leaf: &m.Tree}}
	case *ast.GroupMatcherNode:
		d := m.Delim
		return []follower{{delim: &d}}
	case *ast.FragmentMatcherNode:
		fs := []follower{{frag: m}}
		if m.Designator == ast.Vis {
			fs = append(fs, followersOf(matchers[1:], after)...)
		}
		return fs
	case *ast.RepetitionMatcherNode:
		fs := followersOf(m.Matchers, nil)
		// strip synthetic end markers from the body; what follows the
		// repetition follows instead
		n := 0
		for _, f := range fs {
			if !f.end {
				fs[n] = f
				n++
			}
		}
		fs = fs[:n]
		if m.Separator != nil && m.Op != ast.ZeroOrOne {
			fs = append(fs, follower{leaf: m.Separator})
		}
		return append(fs, followersOf(matchers[1:], after)...)
	default:
		return after
	}
}

func describeFollower(f follower) string {
	switch {
	case f.end:
		return "the end of the pattern"
	case f.leaf != nil:
		return "`" + f.leaf.String() + "`"
	case f.delim != nil:
		return "`" + string(f.delim.Open()) + "`"
	case f.frag != nil:
		return "a $" + f.frag.Name + ":" + f.frag.Designator.String() + " fragment"
	default:
		return "an unknown token"
	}
}

// mayFollow encodes the FOLLOW sets of the restricted fragment kinds.
func mayFollow(d ast.Designator, f follower) bool {
	// end of pattern and closing delimiters are fine after anything
	if f.end {
		return true
	}

	switch d {
	case ast.Expr, ast.Stmt:
		if f.leaf == nil {
			return false
		}
		// `=` is only permitted as the start of `=>`; a lone assignment would
		// be ambiguous with the expression's own operators
		return f.leaf.IsPunct(',') || f.leaf.IsPunct(';') ||
			(f.leaf.IsPunct('=') && f.leaf.Joint)
	case ast.Pat:
		if f.leaf == nil {
			return false
		}
		switch {
		case f.leaf.IsPunct(','), f.leaf.IsPunct('='), f.leaf.IsPunct('|'):
			return true
		case f.leaf.IsIdent("if"), f.leaf.IsIdent("in"):
			return true
		}
		return false
	case ast.Ty, ast.Path:
		if f.frag != nil {
			return f.frag.Designator == ast.Block
		}
		if f.delim != nil {
			return *f.delim == token.Bracket || *f.delim == token.Brace
		}
		switch {
		case f.leaf.IsPunct(','), f.leaf.IsPunct('='), f.leaf.IsPunct('|'),
			f.leaf.IsPunct(';'), f.leaf.IsPunct(':'), f.leaf.IsPunct('>'):
			return true
		case f.leaf.IsIdent("as"), f.leaf.IsIdent("where"):
			return true
		}
		return false
	case ast.Vis:
		if f.frag != nil {
			switch f.frag.Designator {
			case ast.IdentTok, ast.Ty, ast.Path:
				return true
			}
			return false
		}
		if f.delim != nil {
			return true
		}
		if f.leaf.Kind == token.Ident || f.leaf.Kind == token.Lifetime {
			return true
		}
		// tokens that can begin a type
		switch f.leaf.Text {
		case "&", "*", "<", ":", "!":
			return true
		}
		return false
	default:
		// ident, lifetime, literal, tt, item, meta, block: anything may follow
		return true
	}
}
