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

	"github.com/bufbuild/macrocompile/hygiene"
	"github.com/bufbuild/macrocompile/token"
)

// nameCtx identifies an identifier by spelling and syntax context. Two
// occurrences with the same spelling but different contexts are different
// names as far as hygiene is concerned.
type nameCtx struct {
	name string
	ctx  hygiene.Context
}

// renameHygienic makes expansion output readable as plain source without
// losing hygiene. Local bindings introduced by a template carry a nonzero
// context; when such a binding's spelling also occurs under any other
// context in the same output, the binding and every use sharing its context
// are renamed to name__hygN. Bindings that collide with nothing keep their
// original spelling.
func renameHygienic(trees []token.Tree) []token.Tree {
	contexts := make(map[string]map[hygiene.Context]bool)
	collectContexts(trees, contexts)

	renames := make(map[nameCtx]string)
	next := 0
	collectBinders(trees, func(k nameCtx) {
		if k.ctx == 0 {
			return
		}
		if _, done := renames[k]; done {
			return
		}
		if len(contexts[k.name]) > 1 {
			next++
			renames[k] = fmt.Sprintf("%s__hyg%d", k.name, next)
		}
	})
	if len(renames) == 0 {
		return trees
	}
	return applyRenames(trees, renames)
}

// collectContexts records, per identifier spelling, the set of contexts it
// occurs under anywhere in the stream.
func collectContexts(trees []token.Tree, out map[string]map[hygiene.Context]bool) {
	for _, t := range trees {
		switch t.Kind {
		case token.Group:
			collectContexts(t.Children, out)
		case token.Ident:
			set := out[t.Name()]
			if set == nil {
				set = make(map[hygiene.Context]bool)
				out[t.Name()] = set
			}
			set[t.Ctx] = true
		}
	}
}

// collectBinders visits, in source order, the identifiers bound by let
// statements and for loops. Richer binding forms (destructuring patterns,
// match arms) pass through unrenamed; their contexts still keep them
// distinct in later expansion passes.
func collectBinders(trees []token.Tree, visit func(nameCtx)) {
	for i := 0; i < len(trees); i++ {
		t := trees[i]
		if t.Kind == token.Group {
			collectBinders(t.Children, visit)
			continue
		}
		if t.Kind != token.Ident {
			continue
		}
		switch t.Name() {
		case "let":
			j := i + 1
			if j < len(trees) && trees[j].IsIdent("mut") {
				j++
			}
			if j >= len(trees) || trees[j].Kind != token.Ident {
				continue
			}
			// a simple binding is followed by : = or ;. Anything else means
			// the ident is a path segment of a pattern like Some(x)
			if j+1 < len(trees) {
				n := trees[j+1]
				if !n.IsPunct(':') && !n.IsPunct('=') && !n.IsPunct(';') {
					continue
				}
			}
			visit(nameCtx{trees[j].Name(), trees[j].Ctx})

		case "for":
			// only loop headers bind; `in` must follow the name, which also
			// rules out the for in impl Trait for Type
			j := i + 1
			if j+1 < len(trees) && trees[j].Kind == token.Ident && trees[j+1].IsIdent("in") {
				visit(nameCtx{trees[j].Name(), trees[j].Ctx})
			}
		}
	}
}

// applyRenames rewrites every identifier whose spelling and context match a
// rename, preserving spans and everything else.
func applyRenames(trees []token.Tree, renames map[nameCtx]string) []token.Tree {
	out := make([]token.Tree, len(trees))
	for i, t := range trees {
		switch t.Kind {
		case token.Group:
			t.Children = applyRenames(t.Children, renames)
		case token.Ident:
			if to, ok := renames[nameCtx{t.Name(), t.Ctx}]; ok {
				t.Text = to
			}
		}
		out[i] = t
	}
	return out
}
