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

import (
	"fmt"

	"github.com/bufbuild/macrocompile/token"
)

// MacroDefNode is a macro_rules! definition.
type MacroDefNode struct {
	span

	// NameTree is the identifier leaf carrying the macro's name.
	NameTree token.Tree
	// Rules, in source order. Matching tries them in this order and the first
	// rule that consumes the whole invocation wins.
	Rules []*RuleNode
}

// NewMacroDefNode creates a definition spanning the macro_rules keyword
// through the closing delimiter of the rule body.
func NewMacroDefNode(name token.Tree, rules []*RuleNode, start, end token.Token) *MacroDefNode {
	if name.Kind != token.Ident {
		panic(fmt.Sprintf("ast: macro name must be an identifier, got %v", name.Kind))
	}
	return &MacroDefNode{span: newSpan(start, end), NameTree: name, Rules: rules}
}

func (*MacroDefNode) declNode() {}

// Name returns the macro's name.
func (m *MacroDefNode) Name() string {
	return m.NameTree.Name()
}

// RuleNode is a single matcher => template arm of a macro definition.
type RuleNode struct {
	span

	Matchers []MatcherNode
	Template []TemplateNode
}

// NewRuleNode creates a rule spanning its matcher's opening delimiter through
// its template's closing delimiter.
func NewRuleNode(matchers []MatcherNode, template []TemplateNode, start, end token.Token) *RuleNode {
	return &RuleNode{span: newSpan(start, end), Matchers: matchers, Template: template}
}

// RepOp is a repetition operator.
type RepOp byte

const (
	ZeroOrMore RepOp = iota // $( ... )*
	OneOrMore               // $( ... )+
	ZeroOrOne               // $( ... )?
)

// String implements [fmt.Stringer].
func (op RepOp) String() string {
	switch op {
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	case ZeroOrOne:
		return "?"
	default:
		return fmt.Sprintf("ast.RepOp(%d)", int(op))
	}
}

// MatcherNode is one element of a rule's pattern.
type MatcherNode interface {
	Node
	matcherNode()
}

var (
	_ MatcherNode = (*TokenMatcherNode)(nil)
	_ MatcherNode = (*GroupMatcherNode)(nil)
	_ MatcherNode = (*FragmentMatcherNode)(nil)
	_ MatcherNode = (*RepetitionMatcherNode)(nil)
)

// TokenMatcherNode matches exactly one leaf token, by spelling.
type TokenMatcherNode struct {
	Tree token.Tree
}

func (*TokenMatcherNode) matcherNode() {}

func (t *TokenMatcherNode) Start() token.Token { return t.Tree.Start() }
func (t *TokenMatcherNode) End() token.Token   { return t.Tree.End() }

// GroupMatcherNode matches a group with the same delimiter whose contents
// match the nested matchers.
type GroupMatcherNode struct {
	span

	Delim    token.Delimiter
	Matchers []MatcherNode
}

func NewGroupMatcherNode(delim token.Delimiter, matchers []MatcherNode, start, end token.Token) *GroupMatcherNode {
	return &GroupMatcherNode{span: newSpan(start, end), Delim: delim, Matchers: matchers}
}

func (*GroupMatcherNode) matcherNode() {}

// FragmentMatcherNode is a metavariable matcher: $name:designator.
type FragmentMatcherNode struct {
	span

	Name       string
	Designator Designator
}

func NewFragmentMatcherNode(name string, d Designator, start, end token.Token) *FragmentMatcherNode {
	return &FragmentMatcherNode{span: newSpan(start, end), Name: name, Designator: d}
}

func (*FragmentMatcherNode) matcherNode() {}

// RepetitionMatcherNode is $( ... ) sep? op.
type RepetitionMatcherNode struct {
	span

	Matchers []MatcherNode
	// Separator is the optional leaf between the closing paren and the
	// operator, nil when absent. ZeroOrOne never has one.
	Separator *token.Tree
	Op        RepOp
}

func NewRepetitionMatcherNode(matchers []MatcherNode, sep *token.Tree, op RepOp, start, end token.Token) *RepetitionMatcherNode {
	return &RepetitionMatcherNode{span: newSpan(start, end), Matchers: matchers, Separator: sep, Op: op}
}

func (*RepetitionMatcherNode) matcherNode() {}

// TemplateNode is one element of a rule's transcription template.
type TemplateNode interface {
	Node
	templateNode()
}

var (
	_ TemplateNode = (*TokenTemplateNode)(nil)
	_ TemplateNode = (*GroupTemplateNode)(nil)
	_ TemplateNode = (*SubstitutionNode)(nil)
	_ TemplateNode = (*CrateNode)(nil)
	_ TemplateNode = (*RepetitionTemplateNode)(nil)
)

// TokenTemplateNode transcribes one leaf token verbatim (modulo hygiene
// stamping).
type TokenTemplateNode struct {
	Tree token.Tree
}

func (*TokenTemplateNode) templateNode() {}

func (t *TokenTemplateNode) Start() token.Token { return t.Tree.Start() }
func (t *TokenTemplateNode) End() token.Token   { return t.Tree.End() }

// GroupTemplateNode transcribes a delimited group.
type GroupTemplateNode struct {
	span

	Delim    token.Delimiter
	Children []TemplateNode
}

func NewGroupTemplateNode(delim token.Delimiter, children []TemplateNode, start, end token.Token) *GroupTemplateNode {
	return &GroupTemplateNode{span: newSpan(start, end), Delim: delim, Children: children}
}

func (*GroupTemplateNode) templateNode() {}

// SubstitutionNode transcribes a matched metavariable: $name.
type SubstitutionNode struct {
	span

	Name string
}

func NewSubstitutionNode(name string, start, end token.Token) *SubstitutionNode {
	return &SubstitutionNode{span: newSpan(start, end), Name: name}
}

func (*SubstitutionNode) templateNode() {}

// CrateNode transcribes $crate: the root path of the defining crate.
type CrateNode struct {
	span
}

func NewCrateNode(start, end token.Token) *CrateNode {
	return &CrateNode{span: newSpan(start, end)}
}

func (*CrateNode) templateNode() {}

// RepetitionTemplateNode replays the matched iterations of a repetition:
// $( ... ) sep? op.
type RepetitionTemplateNode struct {
	span

	Children  []TemplateNode
	Separator *token.Tree
	Op        RepOp
}

func NewRepetitionTemplateNode(children []TemplateNode, sep *token.Tree, op RepOp, start, end token.Token) *RepetitionTemplateNode {
	return &RepetitionTemplateNode{span: newSpan(start, end), Children: children, Separator: sep, Op: op}
}

func (*RepetitionTemplateNode) templateNode() {}

// InvocationNode is a recognized macro invocation: path ! (args). The
// expander constructs these while scanning raw token runs; the parser does
// not, because invocations can occur at any nesting depth.
type InvocationNode struct {
	span

	// Name is the final path segment, which is the macro name looked up in
	// the registry.
	Name string
	// Args is the delimited argument group.
	Args token.Tree
}

func NewInvocationNode(name string, args token.Tree, start, end token.Token) *InvocationNode {
	if args.Kind != token.Group {
		panic(fmt.Sprintf("ast: invocation arguments must be a group, got %v", args.Kind))
	}
	return &InvocationNode{span: newSpan(start, end), Name: name, Args: args}
}
