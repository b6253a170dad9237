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

import "fmt"

const (
	Unrecognized Kind = iota // Unrecognized garbage in the input file.

	Ident     // An identifier, including keywords and raw identifiers.
	Lifetime  // A lifetime such as 'a (but not a char literal).
	IntLit    // An integer literal, including any suffix.
	FloatLit  // A floating-point literal, including any suffix.
	StringLit // A string literal, cooked or raw.
	CharLit   // A character literal.
	Punct     // A single punctuation rune, such as one of the three in =>>.
	Group     // A delimited sequence of token trees.
)

// Kind identifies what kind of token tree a particular [Tree] is.
type Kind byte

// IsLiteral returns whether this kind is one of the literal kinds, which is
// what the "literal" fragment designator matches.
func (k Kind) IsLiteral() bool {
	switch k {
	case IntLit, FloatLit, StringLit, CharLit:
		return true
	default:
		return false
	}
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case Unrecognized:
		return "Unrecognized"
	case Ident:
		return "Ident"
	case Lifetime:
		return "Lifetime"
	case IntLit:
		return "IntLit"
	case FloatLit:
		return "FloatLit"
	case StringLit:
		return "StringLit"
	case CharLit:
		return "CharLit"
	case Punct:
		return "Punct"
	case Group:
		return "Group"
	default:
		return fmt.Sprintf("token.Kind(%d)", int(k))
	}
}
