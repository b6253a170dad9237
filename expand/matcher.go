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

// matcher matches one rule against one invocation's argument trees. It also
// remembers how far the most successful attempt got, which is what the
// "no rules expected this token" diagnostic points at.
type matcher struct {
	// high watermark of consumed trees across all attempts, plus the tree
	// matching stalled on there.
	progress int
	stalled  *token.Tree
}

// matchRule attempts to match the given trees in their entirety. On success
// it returns the bindings for the rule's metavariables.
func (m *matcher) matchRule(rule *ast.RuleNode, trees []token.Tree) (Bindings, bool) {
	cur := token.NewCursor(trees)
	b := Bindings{}
	if !m.matchSeq(cur, rule.Matchers, b) {
		return nil, false
	}
	if !cur.Done() {
		m.stall(cur)
		return nil, false
	}
	return b, true
}

// stall records the position where matching gave up, if it is the farthest
// seen so far.
func (m *matcher) stall(cur *token.Cursor) {
	if cur.Pos() >= m.progress {
		m.progress = cur.Pos()
		m.stalled = cur.Peek()
	}
}

// matchSeq matches a matcher sequence against the cursor, recording captures
// into b. On failure the cursor state is unspecified; callers fork or mark
// the cursor when they need to backtrack.
func (m *matcher) matchSeq(cur *token.Cursor, matchers []ast.MatcherNode, b Bindings) bool {
	for _, node := range matchers {
		switch node := node.(type) {
		case *ast.TokenMatcherNode:
			t := cur.Peek()
			if t == nil || !t.Matches(node.Tree) {
				m.stall(cur)
				return false
			}
			cur.Next()

		case *ast.GroupMatcherNode:
			t := cur.Peek()
			if t == nil || t.Kind != token.Group || t.Delim != node.Delim {
				m.stall(cur)
				return false
			}
			cur.Next()
			inner := token.NewCursor(t.Children)
			if !m.matchSeq(inner, node.Matchers, b) {
				return false
			}
			if !inner.Done() {
				m.stall(inner)
				return false
			}

		case *ast.FragmentMatcherNode:
			trees, ok := matchFragment(node.Designator, cur)
			if !ok {
				m.stall(cur)
				return false
			}
			b[node.Name] = single(trees)

		case *ast.RepetitionMatcherNode:
			if !m.matchRepetition(cur, node, b) {
				return false
			}
		}
	}
	return true
}

func (m *matcher) matchRepetition(cur *token.Cursor, rep *ast.RepetitionMatcherNode, b Bindings) bool {
	vars := collectVars(rep.Matchers)
	for _, name := range vars {
		b[name] = emptySeq()
	}

	iterations := 0
	for {
		if rep.Op == ast.ZeroOrOne && iterations == 1 {
			break
		}

		mark := cur.Mark()
		if iterations > 0 && rep.Separator != nil {
			sep := cur.Peek()
			if sep == nil || !sep.Matches(*rep.Separator) {
				break
			}
			cur.Next()
		}

		iterB := Bindings{}
		if !m.matchIteration(cur, rep.Matchers, iterB) {
			// no further iteration; undo any separator we consumed
			cur.Rewind(mark)
			break
		}
		for _, name := range vars {
			b[name].seq = append(b[name].seq, iterB[name])
		}
		iterations++
	}

	if rep.Op == ast.OneOrMore && iterations == 0 {
		m.stall(cur)
		return false
	}
	return true
}

// matchIteration speculatively matches one repetition iteration: on failure
// the cursor is rewound to where the iteration began.
func (m *matcher) matchIteration(cur *token.Cursor, matchers []ast.MatcherNode, b Bindings) bool {
	mark := cur.Mark()
	if !m.matchSeq(cur, matchers, b) {
		cur.Rewind(mark)
		return false
	}
	return true
}
