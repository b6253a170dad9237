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

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ident(name string) Tree            { return Synthetic(NewIdent(name, 0, -1)) }
func punct(r rune, joint bool) Tree     { return Synthetic(NewPunct(r, joint, -1)) }
func group(d Delimiter, c ...Tree) Tree { return Synthetic(NewGroup(d, c, -1, -1)) }

func intLit(text string) Tree {
	return Synthetic(Tree{Kind: IntLit, Text: text})
}

func TestPrint(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		trees []Tree
		want  string
	}{
		{
			name:  "words separate",
			trees: []Tree{ident("let"), ident("x")},
			want:  "let x",
		},
		{
			name: "joint puncts glue into operators",
			trees: []Tree{
				ident("a"), punct(':', true), punct(':', false), ident("b"),
			},
			want: "a::b",
		},
		{
			name: "fat arrow spaces both sides",
			trees: []Tree{
				ident("x"), punct('=', true), punct('>', false), intLit("1"),
			},
			want: "x => 1",
		},
		{
			name: "call group attaches to callee",
			trees: []Tree{
				ident("f"), group(Paren, intLit("1"), punct(',', false), intLit("2")),
			},
			want: "f(1, 2)",
		},
		{
			name: "macro bang glues",
			trees: []Tree{
				ident("vec"), punct('!', false), group(Bracket, intLit("1")),
			},
			want: "vec![1]",
		},
		{
			name: "attribute stays glued",
			trees: []Tree{
				punct('#', false), group(Bracket, ident("derive"), group(Paren, ident("Debug"))),
			},
			want: "#[derive(Debug)]",
		},
		{
			name: "semicolon breaks the line",
			trees: []Tree{
				ident("a"), punct(';', false), ident("b"),
			},
			want: "a;\nb",
		},
		{
			name: "empty braces",
			trees: []Tree{
				ident("fn"), ident("f"), group(Paren), group(Brace),
			},
			want: "fn f() {}",
		},
		{
			name: "brace body indents",
			trees: []Tree{
				ident("fn"), ident("f"), group(Paren),
				group(Brace,
					ident("a"), punct(';', false),
					ident("b"),
				),
			},
			want: "fn f() {\n    a;\n    b\n}",
		},
		{
			name: "field access and question mark glue",
			trees: []Tree{
				ident("x"), punct('.', false), ident("len"), group(Paren), punct('?', false),
			},
			want: "x.len()?",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Print(tt.trees))
		})
	}
}

func TestTreeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "type", ident("r#type").Name())
	assert.Equal(t, "plain", ident("plain").Name())
	assert.True(t, ident("r#match").IsIdent("match"))
}

func TestTreeMatches(t *testing.T) {
	t.Parallel()
	assert.True(t, ident("x").Matches(ident("r#x")))
	assert.False(t, ident("x").Matches(ident("y")))
	assert.True(t, punct('+', false).Matches(punct('+', true)),
		"joint flags are spacing, not spelling")
	assert.False(t, intLit("0xff").Matches(intLit("255")))

	lit := func(s string) Tree {
		return Synthetic(Tree{Kind: StringLit, Text: `"` + s + `"`, StrVal: s})
	}
	raw := Synthetic(Tree{Kind: StringLit, Text: `r"a"`, StrVal: "a"})
	assert.True(t, lit("a").Matches(raw), "string literals compare by value")
	assert.False(t, lit("a").Matches(ident("a")))
}
