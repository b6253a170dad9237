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

// Match is what one metavariable captured. It is either a single fragment (a
// run of token trees) or, underneath a repetition, an ordered sequence of
// nested matches, one per iteration. The nesting depth of sequences equals
// the metavariable's repetition depth in the matcher.
type Match struct {
	trees []token.Tree
	seq   []*Match
	isSeq bool
}

// single wraps a captured fragment.
func single(trees []token.Tree) *Match {
	return &Match{trees: trees}
}

// emptySeq is a repetition that matched zero iterations.
func emptySeq() *Match {
	return &Match{isSeq: true}
}

// IsSeq reports whether this match is a repetition sequence rather than a
// captured fragment.
func (m *Match) IsSeq() bool { return m.isSeq }

// Len returns the number of iterations of a sequence match.
func (m *Match) Len() int { return len(m.seq) }

// Index returns the i-th iteration of a sequence match.
func (m *Match) Index(i int) *Match { return m.seq[i] }

// Trees returns the captured fragment of a non-sequence match.
func (m *Match) Trees() []token.Tree { return m.trees }

// Bindings maps metavariable names to what they matched at the top level of
// a rule.
type Bindings map[string]*Match

// collectVars lists the metavariable names bound anywhere inside the given
// matcher sequence.
func collectVars(matchers []ast.MatcherNode) []string {
	var names []string
	_ = ast.WalkMatchers(matchers, func(m ast.MatcherNode) error {
		if frag, ok := m.(*ast.FragmentMatcherNode); ok {
			names = append(names, frag.Name)
		}
		return nil
	})
	return names
}

// collectTemplateVars lists the metavariable names substituted anywhere
// inside the given template sequence.
func collectTemplateVars(template []ast.TemplateNode) []string {
	var names []string
	_ = ast.WalkTemplate(template, func(t ast.TemplateNode) error {
		if sub, ok := t.(*ast.SubstitutionNode); ok {
			names = append(names, sub.Name)
		}
		return nil
	})
	return names
}
