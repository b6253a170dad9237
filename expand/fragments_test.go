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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/parser"
	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

// lex parses source that contains no macro definitions and returns its token
// trees.
func lex(t *testing.T, source string) []token.Tree {
	t.Helper()
	handler := reporter.NewHandler(nil)
	file, err := parser.Parse("frag.rs", strings.NewReader(source), handler)
	require.NoError(t, err)
	require.Len(t, file.Decls, 1)
	raw, ok := file.Decls[0].(*ast.RawDeclNode)
	require.True(t, ok)
	return raw.Trees
}

func TestMatchFragment(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		d    ast.Designator
		// source is lexed; the fragment match starts at the first tree
		source string
		// rest is the rendering of the trees the fragment did not consume
		rest string
		fail bool
	}{
		{name: "tt leaf", d: ast.TT, source: "a b", rest: "b"},
		{name: "tt group", d: ast.TT, source: "(a b) c", rest: "c"},

		{name: "ident", d: ast.IdentTok, source: "foo + 1", rest: "+ 1"},
		{name: "ident keyword", d: ast.IdentTok, source: "match x", rest: "x"},
		{name: "ident not literal", d: ast.IdentTok, source: "42", fail: true},

		{name: "lifetime", d: ast.LifetimeTok, source: "'a + 'b", rest: "+ 'b"},
		{name: "lifetime not char", d: ast.LifetimeTok, source: "'a' x", fail: true},

		{name: "literal int", d: ast.Literal, source: "42 x", rest: "x"},
		{name: "literal negative", d: ast.Literal, source: "-42 x", rest: "x"},
		{name: "literal string", d: ast.Literal, source: `"hi" x`, rest: "x"},
		{name: "literal not ident", d: ast.Literal, source: "foo", fail: true},
		{name: "literal lone minus", d: ast.Literal, source: "- x", fail: true},

		{name: "block", d: ast.Block, source: "{ a; b } c", rest: "c"},
		{name: "block not paren", d: ast.Block, source: "(a)", fail: true},

		{name: "vis pub", d: ast.Vis, source: "pub fn", rest: "fn"},
		{name: "vis restricted", d: ast.Vis, source: "pub(crate) fn", rest: "fn"},
		{name: "vis empty", d: ast.Vis, source: "fn f()", rest: "fn f()"},

		{name: "path plain", d: ast.Path, source: "std::mem::swap, x", rest: ", x"},
		{name: "path leading colons", d: ast.Path, source: "::alloc::vec::Vec y", rest: "y"},
		{name: "path turbofish", d: ast.Path, source: "Vec::<u8>::new, x", rest: ", x"},
		{name: "path not number", d: ast.Path, source: "42", fail: true},

		{name: "ty nested generics", d: ast.Ty, source: "Vec<Vec<T>>, x", rest: ", x"},
		{name: "ty reference", d: ast.Ty, source: "&'a mut T = x", rest: "= x"},
		{name: "ty stops at where", d: ast.Ty, source: "T where T: Clone", rest: "where T: Clone"},
		{name: "ty empty", d: ast.Ty, source: ", x", fail: true},

		{name: "expr binary", d: ast.Expr, source: "1 + 2, x", rest: ", x"},
		{name: "expr postfix chain", d: ast.Expr, source: "a.b(c)?.d, x", rest: ", x"},
		{name: "expr call with path", d: ast.Expr, source: "Vec::new(), x", rest: ", x"},
		{name: "expr if else", d: ast.Expr, source: "if a { b } else { c }, x", rest: ", x"},
		{name: "expr closure", d: ast.Expr, source: "|a| a + 1, x", rest: ", x"},
		{name: "expr equality is not an arm arrow", d: ast.Expr, source: "a == b, x", rest: ", x"},
		{name: "expr stops at fat arrow", d: ast.Expr, source: "a => b", rest: "=> b"},
		{name: "expr cast", d: ast.Expr, source: "x as u64 + 1, y", rest: ", y"},
		{name: "expr macro bang", d: ast.Expr, source: "vec![1, 2], x", rest: ", x"},
		{name: "expr stops at semicolon", d: ast.Expr, source: "f(x); y", rest: ";\ny"},
		{name: "expr not separator", d: ast.Expr, source: ", x", fail: true},

		{name: "pat tuple struct", d: ast.Pat, source: "Some(x) if cond", rest: "if cond"},
		{name: "pat range", d: ast.Pat, source: "0..=9 => x", rest: "=> x"},
		{name: "pat reference", d: ast.Pat, source: "&mut thing, x", rest: ", x"},
		{name: "pat stops at alternation", d: ast.Pat, source: "A | B", rest: "| B"},

		{name: "stmt let", d: ast.Stmt, source: "let x = 5; rest", rest: ";\nrest"},
		{name: "stmt expr", d: ast.Stmt, source: "f(1); rest", rest: ";\nrest"},
		{name: "stmt item", d: ast.Stmt, source: "fn f() {} rest", rest: "rest"},

		{name: "item fn", d: ast.Item, source: "pub fn f(x: u8) {} rest", rest: "rest"},
		{name: "item struct with attr", d: ast.Item, source: "#[derive(Debug)] struct S; rest", rest: "rest"},
		{name: "item use", d: ast.Item, source: "use std::mem; rest", rest: "rest"},
		{name: "item not expr", d: ast.Item, source: "1 + 2", fail: true},

		{name: "meta path", d: ast.Meta, source: "inline, x", rest: ", x"},
		{name: "meta args", d: ast.Meta, source: "derive(Debug, Clone) x", rest: "x"},
		{name: "meta value", d: ast.Meta, source: `path = "lib.rs", x`, rest: ", x"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cur := token.NewCursor(lex(t, tt.source))
			got, ok := matchFragment(tt.d, cur)
			if tt.fail {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.NotNil(t, got)
			assert.Equal(t, tt.rest, token.Print(cur.Rest()))
		})
	}
}
