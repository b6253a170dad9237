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
	"github.com/bufbuild/macrocompile/hygiene"
	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

// transcriber replays one rule's template with the bindings from a
// successful match. Every identifier and lifetime originating in the
// template is stamped with the expansion's mark; tokens replayed from a
// captured fragment keep the context they arrived with.
type transcriber struct {
	table *hygiene.Table
	mark  hygiene.Mark
	// crate is what $crate transcribes to.
	crate []token.Tree
	// pos maps a template node back to a source position for diagnostics.
	pos func(ast.Node) token.SourcePos
}

// run transcribes a template sequence under the given bindings.
func (tr *transcriber) run(template []ast.TemplateNode, b Bindings) ([]token.Tree, error) {
	var out []token.Tree
	for _, node := range template {
		switch node := node.(type) {
		case *ast.TokenTemplateNode:
			out = append(out, tr.stamp(node.Tree))

		case *ast.GroupTemplateNode:
			children, err := tr.run(node.Children, b)
			if err != nil {
				return nil, err
			}
			out = append(out, token.NewGroup(node.Delim, children, node.Start(), node.End()))

		case *ast.SubstitutionNode:
			m := b[node.Name]
			if m == nil {
				// definition-time validation rejects unbound substitutions
				panic("expand: substitution of unbound metavariable " + node.Name)
			}
			if m.IsSeq() {
				return nil, reporter.Errorf(tr.pos(node),
					"variable %q is still repeating at this depth", node.Name)
			}
			out = append(out, m.Trees()...)

		case *ast.CrateNode:
			out = append(out, tr.crate...)

		case *ast.RepetitionTemplateNode:
			trees, err := tr.repeat(node, b)
			if err != nil {
				return nil, err
			}
			out = append(out, trees...)
		}
	}
	return out, nil
}

// repeat replays a template repetition once per iteration of the matched
// sequences it refers to. All sequences a repetition drives on must have
// matched the same number of iterations.
func (tr *transcriber) repeat(node *ast.RepetitionTemplateNode, b Bindings) ([]token.Tree, error) {
	vars := collectTemplateVars(node.Children)
	n := -1
	driver := ""
	for _, name := range vars {
		m := b[name]
		if m == nil || !m.IsSeq() {
			continue
		}
		if n == -1 {
			n, driver = m.Len(), name
		} else if m.Len() != n {
			return nil, reporter.Errorf(tr.pos(node),
				"inconsistent repetition: %q matched %d fragments but %q matched %d",
				driver, n, name, m.Len())
		}
	}
	if n == -1 {
		return nil, reporter.Errorf(tr.pos(node),
			"attempted to repeat with no variables repeating at this depth")
	}
	if node.Op == ast.ZeroOrOne && n > 1 {
		return nil, reporter.Errorf(tr.pos(node),
			"variable %q matched %d fragments but this repetition allows at most one", driver, n)
	}
	if node.Op == ast.OneOrMore && n == 0 {
		return nil, reporter.Errorf(tr.pos(node),
			"this repetition requires at least one iteration but %q matched none", driver)
	}

	var out []token.Tree
	for i := 0; i < n; i++ {
		if i > 0 && node.Separator != nil {
			out = append(out, tr.stamp(*node.Separator))
		}
		// advance only the sequences this repetition refers to; everything
		// else passes through unchanged, including non-repeating captures
		iter := make(Bindings, len(b))
		for name, m := range b {
			iter[name] = m
		}
		for _, name := range vars {
			if m := b[name]; m != nil && m.IsSeq() {
				iter[name] = m.Index(i)
			}
		}
		trees, err := tr.run(node.Children, iter)
		if err != nil {
			return nil, err
		}
		out = append(out, trees...)
	}
	return out, nil
}

// stamp applies the expansion's mark to template-originated identifiers and
// lifetimes. Other leaves transcribe as-is.
func (tr *transcriber) stamp(t token.Tree) token.Tree {
	if t.Kind == token.Ident || t.Kind == token.Lifetime {
		t.Ctx = tr.table.Apply(t.Ctx, tr.mark)
	}
	return t
}
