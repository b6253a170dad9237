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

import "strings"

// Print renders a stream of token trees as source text.
//
// The output is deterministic but makes no attempt to reproduce the original
// formatting of matched fragments: joint punctuation runs are glued back into
// operators, brace groups get one statement per line, and everything else is
// separated by minimal single spaces.
func Print(trees []Tree) string {
	var p printer
	p.stream(trees, 0)
	return p.buf.String()
}

type printer struct {
	buf    strings.Builder
	prevOp string // last rendered token text; "" at start of line
	prevK  Kind
}

// op is a leaf whose joint punctuation run has been glued into a single
// operator string, or a plain leaf.
type op struct {
	text  string
	kind  Kind
	group *Tree
}

// glue coalesces runs of joint puncts so that spacing decisions see whole
// operators like :: and => instead of their individual runes.
func glue(trees []Tree) []op {
	var out []op
	for i := 0; i < len(trees); i++ {
		t := trees[i]
		if t.Kind == Group {
			out = append(out, op{group: &trees[i], kind: Group})
			continue
		}
		if t.Kind == Punct && t.Joint {
			text := t.Text
			for i+1 < len(trees) && trees[i+1].Kind == Punct {
				next := trees[i+1]
				text += next.Text
				i++
				if !next.Joint {
					break
				}
			}
			out = append(out, op{text: text, kind: Punct})
			continue
		}
		out = append(out, op{text: t.Text, kind: t.Kind})
	}
	return out
}

func (p *printer) stream(trees []Tree, depth int) {
	ops := glue(trees)
	for i, o := range ops {
		if o.kind == Group {
			p.pad(o)
			p.group(o.group, depth)
			// Inside a brace body, an item that itself ends in a brace group
			// starts a fresh line, unless punctuation continues it (match
			// arms, struct literals in expressions, and the like).
			if o.group.Delim == Brace && i+1 < len(ops) && ops[i+1].kind != Punct {
				p.newline(depth)
			}
			continue
		}
		p.pad(o)
		p.buf.WriteString(o.text)
		p.prevOp, p.prevK = o.text, o.kind
		if o.text == ";" && i+1 < len(ops) {
			p.newline(depth)
		}
	}
}

func (p *printer) group(g *Tree, depth int) {
	if g.Delim != Brace {
		p.buf.WriteRune(g.Delim.Open())
		p.prevOp, p.prevK = string(g.Delim.Open()), Punct
		p.stream(g.Children, depth)
		p.buf.WriteRune(g.Delim.Close())
		p.prevOp, p.prevK = string(g.Delim.Close()), Punct
		return
	}

	if len(g.Children) == 0 {
		p.buf.WriteString("{}")
		p.prevOp, p.prevK = "}", Punct
		return
	}
	p.buf.WriteString("{")
	p.newline(depth + 1)
	p.stream(g.Children, depth+1)
	p.newline(depth)
	p.buf.WriteString("}")
	p.prevOp, p.prevK = "}", Punct
}

func (p *printer) newline(depth int) {
	p.buf.WriteString("\n")
	p.buf.WriteString(strings.Repeat("    ", depth))
	p.prevOp, p.prevK = "", Unrecognized
}

// pad writes a single separating space if one is needed between the
// previously rendered token and next.
func (p *printer) pad(next op) {
	if p.prevOp == "" && p.prevK == Unrecognized {
		// start of the output or of a fresh line
		return
	}
	if !needSpace(p.prevOp, p.prevK, next) {
		return
	}
	p.buf.WriteString(" ")
}

func needSpace(prev string, prevKind Kind, next op) bool {
	// No space right after an opening delimiter.
	if prevKind == Punct && (prev == "(" || prev == "[") {
		return false
	}

	if next.kind == Group {
		if next.group.Delim == Brace {
			// fn f() { ... }, but #[...] style prefixes stay glued
			return prev != "#" && prev != "!"
		}
		// Call and index groups attach to whatever precedes them, except
		// after separators and binary-ish operators.
		if prevKind == Punct {
			switch prev {
			case ",", ";", "=", "=>", "->", "|", "||", "&&", "+", "-", "*", "/", ":", "<", ">", "(", "[", "{", "..", "..=", "==", "!=", "<=", ">=":
				return true
			}
			return false
		}
		return false
	}

	switch next.text {
	case ",", ";", ".", "?", "::", ")", "]", ":":
		return false
	case "!":
		// macro bang / unary not: glue to a preceding name, space after ops
		return prevKind == Punct && prev != ")" && prev != "]"
	}

	if prevKind == Punct {
		switch prev {
		case ".", "::", "#", "$", "&", "!", "-", "*":
			// Prefix-position operators glue to their operand. A binary use
			// of & - * renders tight, which is ugly but unambiguous.
			return false
		}
		return true
	}

	// Two words (or a word and a literal) always separate.
	return true
}
