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

package ast

import "fmt"

// Designator is the fragment specifier on a metavariable matcher: the part
// after the colon in $name:expr, constraining what syntax the metavariable
// may match.
type Designator byte

const (
	designatorZero Designator = iota

	Block    // a brace-delimited block
	Expr     // an expression
	IdentTok // an identifier or keyword
	Item     // an item: fn, struct, impl, use, ...
	LifetimeTok
	Literal // a literal, optionally preceded by -
	Meta    // the body of an attribute
	Pat     // a pattern
	Path    // a (possibly generic) path
	Stmt    // a statement, without its trailing semicolon
	TT      // a single token tree
	Ty      // a type
	Vis     // a possibly-empty visibility qualifier
)

var designatorNames = map[Designator]string{
	Block:       "block",
	Expr:        "expr",
	IdentTok:    "ident",
	Item:        "item",
	LifetimeTok: "lifetime",
	Literal:     "literal",
	Meta:        "meta",
	Pat:         "pat",
	Path:        "path",
	Stmt:        "stmt",
	TT:          "tt",
	Ty:          "ty",
	Vis:         "vis",
}

var designatorsByName = func() map[string]Designator {
	m := make(map[string]Designator, len(designatorNames))
	for d, name := range designatorNames {
		m[name] = d
	}
	return m
}()

// DesignatorByName resolves the spelling used in a matcher. The second result
// is false for anything that is not a known fragment specifier.
func DesignatorByName(name string) (Designator, bool) {
	d, ok := designatorsByName[name]
	return d, ok
}

// DesignatorNames returns the valid spellings, sorted, for error messages.
func DesignatorNames() []string {
	return []string{
		"block", "expr", "ident", "item", "lifetime", "literal",
		"meta", "pat", "path", "stmt", "tt", "ty", "vis",
	}
}

// String implements [fmt.Stringer].
func (d Designator) String() string {
	if name, ok := designatorNames[d]; ok {
		return name
	}
	return fmt.Sprintf("ast.Designator(%d)", int(d))
}
