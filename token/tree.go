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
	"fmt"

	"github.com/bufbuild/macrocompile/hygiene"
)

// Delimiter is one of the three bracket pairs that may enclose a [Group].
type Delimiter byte

const (
	Paren   Delimiter = iota // ( ... )
	Bracket                  // [ ... ]
	Brace                    // { ... }
)

// Open returns the opening rune for this delimiter.
func (d Delimiter) Open() rune {
	switch d {
	case Paren:
		return '('
	case Bracket:
		return '['
	case Brace:
		return '{'
	default:
		panic(fmt.Sprintf("invalid delimiter: %d", d))
	}
}

// Close returns the closing rune for this delimiter.
func (d Delimiter) Close() rune {
	switch d {
	case Paren:
		return ')'
	case Bracket:
		return ']'
	case Brace:
		return '}'
	default:
		panic(fmt.Sprintf("invalid delimiter: %d", d))
	}
}

// String implements [fmt.Stringer].
func (d Delimiter) String() string {
	return string(d.Open()) + string(d.Close())
}

// Node is implemented by anything that spans a range of tokens in a file.
// The ranges are inclusive on both ends.
type Node interface {
	Start() Token
	End() Token
}

// Tree is a single token tree: either a leaf token or a delimited group of
// child trees.
//
// Leaves store their raw text plus a decoded value appropriate to their kind.
// Identifiers and lifetimes additionally carry a hygiene context; trees lexed
// from source always carry the empty context, and transcription stamps
// template-originated trees with the expansion's context.
type Tree struct {
	Kind Kind

	// Raw text of a leaf, as written in source: r#type keeps its prefix here,
	// and Name() strips it.
	Text string

	// Whether this punct is immediately adjacent to another punct, with no
	// intervening space or comment. Multi-rune operators such as => and ::
	// are recognized from runs of joint puncts.
	Joint bool

	// Decoded literal values. Exactly one is meaningful, per Kind.
	IntVal   uint64
	FloatVal float64
	StrVal   string // string and char literals, after escape processing
	CharVal  rune

	// Hygiene context for Ident and Lifetime leaves.
	Ctx hygiene.Context

	// Group fields.
	Delim    Delimiter
	Children []Tree

	start, end Token
}

// NewIdent returns an identifier leaf. The text may include the r# raw prefix.
func NewIdent(text string, ctx hygiene.Context, tok Token) Tree {
	return Tree{Kind: Ident, Text: text, Ctx: ctx, start: tok, end: tok}
}

// NewLifetime returns a lifetime leaf. The text includes the leading quote.
func NewLifetime(text string, ctx hygiene.Context, tok Token) Tree {
	return Tree{Kind: Lifetime, Text: text, Ctx: ctx, start: tok, end: tok}
}

// NewPunct returns a single-rune punctuation leaf.
func NewPunct(r rune, joint bool, tok Token) Tree {
	return Tree{Kind: Punct, Text: string(r), Joint: joint, start: tok, end: tok}
}

// NewGroup returns a group spanning the given open and close delimiter tokens.
func NewGroup(delim Delimiter, children []Tree, open, close Token) Tree {
	return Tree{Kind: Group, Delim: delim, Children: children, start: open, end: close}
}

// WithSpan returns t spanning exactly the given token. Used by the lexer for
// leaves it assembles field by field.
func (t Tree) WithSpan(tok Token) Tree {
	t.start, t.end = tok, tok
	return t
}

// Synthetic marks t as having no position of its own and returns it. The
// printer and diagnostics fall back to the provoking invocation's position
// for synthetic trees.
func Synthetic(t Tree) Tree {
	t.start, t.end = -1, -1
	return t
}

// IsSynthetic reports whether this tree was created by transcription rather
// than by lexing a file.
func (t Tree) IsSynthetic() bool {
	return t.start < 0
}

// Start implements [Node].
func (t Tree) Start() Token { return t.start }

// End implements [Node].
func (t Tree) End() Token { return t.end }

// IsIdent reports whether t is an identifier leaf with the given name.
func (t Tree) IsIdent(name string) bool {
	return t.Kind == Ident && t.Name() == name
}

// IsPunct reports whether t is a punctuation leaf for the given rune.
func (t Tree) IsPunct(r rune) bool {
	return t.Kind == Punct && t.Text == string(r)
}

// Name returns the identifier text with any r# prefix stripped. For
// non-identifier trees it returns Text unchanged.
func (t Tree) Name() string {
	if t.Kind == Ident && len(t.Text) > 2 && t.Text[0] == 'r' && t.Text[1] == '#' {
		return t.Text[2:]
	}
	return t.Text
}

// Matches reports whether two leaves are the same literal token, which is the
// equality that matching a non-metavariable matcher token uses. Hygiene
// contexts are ignored: a macro pattern spelled in the definition matches the
// same spelling at any call site.
func (t Tree) Matches(o Tree) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Ident, Lifetime:
		return t.Name() == o.Name()
	case Punct, IntLit, FloatLit:
		// Literal matchers compare spelled tokens: 0xff does not match 255.
		return t.Text == o.Text
	case StringLit:
		return t.StrVal == o.StrVal
	case CharLit:
		return t.CharVal == o.CharVal
	default:
		return false
	}
}

// String returns the leaf's text, or the delimiter pair for a group. This is
// intended for diagnostics; use [Print] to render whole streams.
func (t Tree) String() string {
	if t.Kind == Group {
		return t.Delim.String()
	}
	return t.Text
}
