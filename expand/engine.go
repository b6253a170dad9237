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
	"fmt"
	"strings"

	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/hygiene"
	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

// DefaultMaxDepth bounds recursive expansion when Engine.MaxDepth is unset.
const DefaultMaxDepth = 128

// Engine expands macro invocations in token streams. It scans for the
// invocation shape (a path ending in an identifier, a !, and a delimited
// group), matches the named macro's rules first-match-wins, transcribes the
// winning template, and rescans the output until no invocations remain or
// the recursion limit trips.
type Engine struct {
	// Lookup resolves a macro name to its definition. A nil result leaves
	// the invocation in place; the engine warns once per name.
	Lookup func(name string) *ast.MacroDefNode
	// Handler receives diagnostics. Must be non-nil.
	Handler *reporter.Handler
	// Hygiene is the context table shared by every expansion of one input.
	Hygiene *hygiene.Table
	// Info resolves spans for diagnostics; nil means unknown positions.
	Info *token.FileInfo
	// MaxDepth bounds recursion; zero or negative means DefaultMaxDepth.
	MaxDepth int
	// Crate is the name $crate resolves to. Empty or "crate" transcribes
	// $crate as the crate keyword; any other name as ::name.
	Crate string

	warned map[string]bool
}

// Expand rewrites the stream until it contains no expandable invocations,
// then renames colliding macro-introduced bindings. The returned stream is
// valid even when an error was reported; unexpandable invocations stay in
// place.
func (e *Engine) Expand(trees []token.Tree) ([]token.Tree, error) {
	out, err := e.expand(trees, nil)
	if err != nil {
		return nil, err
	}
	return renameHygienic(out), nil
}

// expand is one rescan pass. chain is the stack of macro names currently
// being expanded, used for the recursion limit and its diagnostic.
func (e *Engine) expand(trees []token.Tree, chain []string) ([]token.Tree, error) {
	var out []token.Tree
	cur := token.NewCursor(trees)
	for !cur.Done() {
		inv, consumed := e.recognize(cur)
		if inv == nil {
			t := *cur.Next()
			if t.Kind == token.Group {
				children, err := e.expand(t.Children, chain)
				if err != nil {
					return nil, err
				}
				t.Children = children
			}
			out = append(out, t)
			continue
		}

		expanded, ok, err := e.invoke(inv, chain)
		if err != nil {
			return nil, err
		}
		if !ok {
			// the invocation itself stays in the output, but its argument
			// group may still contain expandable invocations
			args := consumed[len(consumed)-1]
			children, err := e.expand(args.Children, chain)
			if err != nil {
				return nil, err
			}
			args.Children = children
			out = append(out, consumed[:len(consumed)-1]...)
			out = append(out, args)
			continue
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// recognize identifies an invocation at the cursor: ident (:: ident)* ! group.
// On a match it consumes the invocation and returns it along with the raw
// trees consumed; otherwise the cursor does not move.
func (e *Engine) recognize(cur *token.Cursor) (*ast.InvocationNode, []token.Tree) {
	mark := cur.Mark()
	t := cur.Peek()
	if t == nil || t.Kind != token.Ident {
		return nil, nil
	}
	if t.Name() == "macro_rules" {
		// nested definitions are items, not invocations; they pass through
		return nil, nil
	}

	var raw []token.Tree
	name := t.Name()
	raw = append(raw, *cur.Next())
	for {
		sep, ok := consumePun2(cur, ':', ':')
		if !ok {
			break
		}
		seg := cur.Peek()
		if seg == nil || seg.Kind != token.Ident {
			cur.Rewind(mark)
			return nil, nil
		}
		name = seg.Name()
		raw = append(raw, sep...)
		raw = append(raw, *cur.Next())
	}

	bang := cur.Peek()
	if bang == nil || !bang.IsPunct('!') || bang.Joint {
		cur.Rewind(mark)
		return nil, nil
	}
	args := cur.PeekAt(1)
	if args == nil || args.Kind != token.Group {
		cur.Rewind(mark)
		return nil, nil
	}
	raw = append(raw, *cur.Next(), *cur.Next())

	start, end := raw[0].Start(), raw[len(raw)-1].End()
	return ast.NewInvocationNode(name, *args, start, end), raw
}

// invoke expands a single recognized invocation. The second result is false
// when the macro is unknown, which is not an error: the invocation may be
// for a macro this run never saw.
func (e *Engine) invoke(inv *ast.InvocationNode, chain []string) ([]token.Tree, bool, error) {
	if trees, ok, err := e.builtin(inv, chain); ok || err != nil {
		return trees, ok, err
	}

	def := e.lookup(inv.Name)
	if def == nil {
		if e.warned == nil {
			e.warned = make(map[string]bool)
		}
		if !e.warned[inv.Name] {
			e.warned[inv.Name] = true
			e.Handler.HandleWarning(e.pos(inv),
				fmt.Errorf("cannot find macro %q; leaving invocation unexpanded", inv.Name))
		}
		return nil, false, nil
	}

	limit := e.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if len(chain) >= limit {
		return nil, false, e.Handler.HandleErrorf(e.pos(inv),
			"recursion limit (%d) reached while expanding %s", limit, formatChain(append(chain, inv.Name)))
	}

	m := &matcher{}
	for _, rule := range def.Rules {
		b, ok := m.matchRule(rule, inv.Args.Children)
		if !ok {
			continue
		}
		tr := &transcriber{
			table: e.Hygiene,
			mark:  e.Hygiene.Fresh(),
			crate: e.crateTrees(),
			pos:   e.pos,
		}
		trees, err := tr.run(rule.Template, b)
		if err != nil {
			return nil, false, e.Handler.HandleError(err)
		}
		expanded, err := e.expand(trees, append(chain, inv.Name))
		if err != nil {
			return nil, false, err
		}
		return expanded, true, nil
	}

	// no rule matched: point at the token the best attempt stalled on
	pos := e.pos(inv)
	what := "end of arguments"
	if m.stalled != nil {
		pos = e.treePos(*m.stalled)
		what = "`" + m.stalled.String() + "`"
	}
	return nil, false, e.Handler.HandleErrorf(pos,
		"no rules of macro %q expected %s", inv.Name, what)
}

func (e *Engine) lookup(name string) *ast.MacroDefNode {
	if e.Lookup == nil {
		return nil
	}
	return e.Lookup(name)
}

// crateTrees is what $crate transcribes to. The trees are synthetic: they
// have no source position of their own.
func (e *Engine) crateTrees() []token.Tree {
	if e.Crate == "" || e.Crate == "crate" {
		return []token.Tree{token.Synthetic(token.NewIdent("crate", 0, -1))}
	}
	lead := token.Synthetic(token.NewPunct(':', true, -1))
	trail := token.Synthetic(token.NewPunct(':', false, -1))
	return []token.Tree{lead, trail, token.Synthetic(token.NewIdent(e.Crate, 0, -1))}
}

func (e *Engine) pos(n ast.Node) token.SourcePos {
	if e.Info == nil || n.Start() < 0 {
		return token.UnknownPos(e.filename())
	}
	return e.Info.NodeInfo(n).Start()
}

func (e *Engine) treePos(t token.Tree) token.SourcePos {
	if e.Info == nil || t.IsSynthetic() {
		return token.UnknownPos(e.filename())
	}
	return e.Info.NodeInfo(t).Start()
}

func (e *Engine) filename() string {
	if e.Info == nil {
		return "<macro expansion>"
	}
	return e.Info.Name()
}

func formatChain(chain []string) string {
	return strings.Join(chain, "! -> ") + "!"
}
