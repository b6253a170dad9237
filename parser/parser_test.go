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

package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/reporter"
)

func parseFile(t *testing.T, source string) *ast.FileNode {
	t.Helper()
	handler := reporter.NewHandler(nil)
	file, err := Parse("test.rs", strings.NewReader(source), handler)
	require.NoError(t, err)
	return file
}

func parseError(t *testing.T, source string) error {
	t.Helper()
	handler := reporter.NewHandler(nil)
	_, err := Parse("test.rs", strings.NewReader(source), handler)
	require.Error(t, err)
	return err
}

func TestParseDef(t *testing.T) {
	t.Parallel()
	file := parseFile(t, `
macro_rules! pair {
    ($a:expr, $b:expr) => { ($a, $b) };
    () => { unit };
}
`)
	defs := file.Defs()
	require.Len(t, defs, 1)
	def := defs[0]
	assert.Equal(t, "pair", def.Name())
	require.Len(t, def.Rules, 2)

	// the matchers are the contents of the rule's matcher group; the
	// delimiters themselves do not participate in matching
	rule := def.Rules[0]
	require.Len(t, rule.Matchers, 3)
	a, ok := rule.Matchers[0].(*ast.FragmentMatcherNode)
	require.True(t, ok)
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, ast.Expr, a.Designator)

	comma, ok := rule.Matchers[1].(*ast.TokenMatcherNode)
	require.True(t, ok)
	assert.True(t, comma.Tree.IsPunct(','))

	require.Len(t, rule.Template, 1)
	tmpl, ok := rule.Template[0].(*ast.GroupTemplateNode)
	require.True(t, ok)
	require.Len(t, tmpl.Children, 3)
	_, ok = tmpl.Children[0].(*ast.SubstitutionNode)
	assert.True(t, ok)

	assert.Empty(t, def.Rules[1].Matchers)
}

func TestParseRepetition(t *testing.T) {
	t.Parallel()
	file := parseFile(t, `
macro_rules! list {
    ($($x:expr),+) => { $(item($x);)+ };
}
`)
	rule := file.Defs()[0].Rules[0]
	require.Len(t, rule.Matchers, 1)
	rep, ok := rule.Matchers[0].(*ast.RepetitionMatcherNode)
	require.True(t, ok)
	assert.Equal(t, ast.OneOrMore, rep.Op)
	require.NotNil(t, rep.Separator)
	assert.True(t, rep.Separator.IsPunct(','))

	trep, ok := rule.Template[0].(*ast.RepetitionTemplateNode)
	require.True(t, ok)
	assert.Equal(t, ast.OneOrMore, trep.Op)
	assert.Nil(t, trep.Separator)
}

func TestParseCrate(t *testing.T) {
	t.Parallel()
	file := parseFile(t, `
macro_rules! reexport {
    () => { $crate::inner };
}
`)
	rule := file.Defs()[0].Rules[0]
	_, ok := rule.Template[0].(*ast.CrateNode)
	assert.True(t, ok)
}

func TestParseRawDecls(t *testing.T) {
	t.Parallel()
	file := parseFile(t, `
fn before() {}
macro_rules! m { () => {}; }
fn after() {}
`)
	require.Len(t, file.Decls, 3)
	_, ok := file.Decls[0].(*ast.RawDeclNode)
	assert.True(t, ok)
	_, ok = file.Decls[1].(*ast.MacroDefNode)
	assert.True(t, ok)
	_, ok = file.Decls[2].(*ast.RawDeclNode)
	assert.True(t, ok)
}

func TestParseNonBraceDefNeedsSemicolon(t *testing.T) {
	t.Parallel()
	file := parseFile(t, `macro_rules! m ( () => {}; );`)
	assert.Len(t, file.Defs(), 1)

	err := parseError(t, `macro_rules! m ( () => {}; )`)
	assert.ErrorContains(t, err, "must be terminated by a semicolon")
}

func TestParseContinuesAfterBadDef(t *testing.T) {
	t.Parallel()
	var msgs []string
	rep := reporter.NewReporter(func(err reporter.ErrorWithPos) error {
		msgs = append(msgs, err.Error())
		return nil // collect everything
	}, nil)
	handler := reporter.NewHandler(rep)

	source := `
macro_rules! empty {}
macro_rules! ok { () => { 1 }; }
macro_rules! bad { ($x) => {}; }
fn main() {}
`
	file, err := Parse("test.rs", strings.NewReader(source), handler)
	assert.ErrorIs(t, err, reporter.ErrInvalidSource)
	require.NotNil(t, file)

	// only the well-formed definition survives; the bad ones are skipped
	// without leaving half-parsed nodes behind
	defs := file.Defs()
	require.Len(t, defs, 1)
	assert.Equal(t, "ok", defs[0].Name())

	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "has no rules")
	assert.Contains(t, msgs[1], "has no fragment designator")
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"no rules",
			`macro_rules! m {}`,
			"has no rules",
		},
		{
			"missing fat arrow",
			`macro_rules! m { () {} }`,
			"expected => after macro rule matcher",
		},
		{
			"comment splits the rule arrow",
			`macro_rules! m { () =/* gap */> { x }; }`,
			"expected => after macro rule matcher",
		},
		{
			"missing designator",
			`macro_rules! m { ($x) => {}; }`,
			"has no fragment designator",
		},
		{
			"invalid designator",
			`macro_rules! m { ($x:frobnicate) => {}; }`,
			"invalid fragment designator",
		},
		{
			"missing repetition operator",
			`macro_rules! m { ($($x:tt)) => {}; }`,
			"missing its * + or ? operator",
		},
		{
			"group separator",
			`macro_rules! m { ($($x:tt)(,)*) => {}; }`,
			"separator must be a single token",
		},
		{
			"missing rule separator",
			`macro_rules! m { () => {} () => {} }`,
			"expected ; between macro rules",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := parseError(t, tt.source)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
