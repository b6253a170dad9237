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
	"github.com/bufbuild/macrocompile/hygiene"
	"github.com/bufbuild/macrocompile/parser"
	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

// expandSource parses source, expands every invocation against the macros the
// source itself defines, and renders the result. configure may adjust the
// engine before expansion.
func expandSource(t *testing.T, source string, configure func(*Engine)) (string, error) {
	t.Helper()
	handler := reporter.NewHandler(nil)
	file, err := parser.Parse("test.rs", strings.NewReader(source), handler)
	require.NoError(t, err)

	defs := make(map[string]*ast.MacroDefNode)
	for _, def := range file.Defs() {
		defs[def.Name()] = def
	}
	engine := &Engine{
		Lookup:  func(name string) *ast.MacroDefNode { return defs[name] },
		Handler: handler,
		Hygiene: &hygiene.Table{},
		Info:    file.FileInfo(),
	}
	if configure != nil {
		configure(engine)
	}

	var stream []token.Tree
	for _, d := range file.Decls {
		if raw, ok := d.(*ast.RawDeclNode); ok {
			stream = append(stream, raw.Trees...)
		}
	}
	out, err := engine.Expand(stream)
	if err != nil {
		return "", err
	}
	return token.Print(out), handler.Error()
}

func TestBuiltins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "stringify",
			source: `const S: &str = stringify!(x + 1);`,
			want:   `const S: &str = "x + 1";`,
		},
		{
			name:   "concat",
			source: `const C: &str = concat!("a", 'b', 1, true, -2);`,
			want:   `const C: &str = "ab1true-2";`,
		},
		{
			name:   "line",
			source: `const L: u32 = line!();`,
			want:   `const L: u32 = 1;`,
		},
		{
			name:   "file",
			source: `const F: &str = file!();`,
			want:   `const F: &str = "test.rs";`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := expandSource(t, tt.source, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	t.Parallel()
	_, err := expandSource(t, `concat!(foo)`, nil)
	assert.ErrorContains(t, err, "concat! only accepts literals and booleans")

	_, err = expandSource(t, `concat!(1 2)`, nil)
	assert.ErrorContains(t, err, "expected `,` between concat! arguments")
}

func TestRecursionLimit(t *testing.T) {
	t.Parallel()
	source := `
macro_rules! forever { () => { forever!() }; }
forever!()
`
	_, err := expandSource(t, source, func(e *Engine) { e.MaxDepth = 8 })
	assert.ErrorContains(t, err, "recursion limit (8) reached while expanding")
	assert.ErrorContains(t, err, "forever! -> forever!")
}

func TestNoRuleMatches(t *testing.T) {
	t.Parallel()
	source := `
macro_rules! pair { ($a:expr, $b:expr) => { ($a, $b) }; }
pair!(1)
`
	_, err := expandSource(t, source, nil)
	assert.ErrorContains(t, err, `no rules of macro "pair" expected end of arguments`)

	source = `
macro_rules! pair { ($a:expr, $b:expr) => { ($a, $b) }; }
pair!(1; 2)
`
	_, err = expandSource(t, source, nil)
	assert.ErrorContains(t, err, `no rules of macro "pair" expected `+"`;`")
}

func TestCrate(t *testing.T) {
	t.Parallel()
	source := `
macro_rules! m { () => { $crate::helper() }; }
m!()
`
	tests := []struct {
		name  string
		crate string
		want  string
	}{
		{name: "unset", crate: "", want: "crate::helper()"},
		{name: "self", crate: "crate", want: "crate::helper()"},
		{name: "named", crate: "mylib", want: "::mylib::helper()"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := expandSource(t, source, func(e *Engine) { e.Crate = tt.crate })
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranscriptionErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name: "still repeating",
			source: `
macro_rules! m { ($($x:expr),*) => { $x }; }
m!(1, 2)
`,
			want: `variable "x" is still repeating at this depth`,
		},
		{
			name: "nothing repeats",
			source: `
macro_rules! m { ($x:expr) => { $($x)* }; }
m!(1)
`,
			want: "attempted to repeat with no variables repeating at this depth",
		},
		{
			name: "inconsistent lengths",
			source: `
macro_rules! zip { ($($a:ident),* ; $($b:ident),*) => { $(($a, $b))* }; }
zip!(x, y; z)
`,
			want: "inconsistent repetition",
		},
		{
			name: "at most one",
			source: `
macro_rules! m { ($($x:expr),*) => { $($x)? }; }
m!(1, 2)
`,
			want: "matched 2 fragments but this repetition allows at most one",
		},
		{
			name: "at least one",
			source: `
macro_rules! m { ($($x:expr),*) => { f($($x)+) }; }
m!()
`,
			want: `requires at least one iteration but "x" matched none`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := expandSource(t, tt.source, nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestInvocationDelimiters(t *testing.T) {
	t.Parallel()
	source := `
macro_rules! id { ($x:expr) => { $x }; }
const A: i32 = id![7];
const B: i32 = id! { 7 };
`
	got, err := expandSource(t, source, nil)
	require.NoError(t, err)
	assert.Equal(t, "const A: i32 = 7;\nconst B: i32 = 7;", got)
}

func TestUnknownMacroArgumentsStillExpand(t *testing.T) {
	t.Parallel()
	source := `
macro_rules! double { ($x:expr) => { $x + $x }; }
const A: i32 = nope!(double!(3));
`
	got, err := expandSource(t, source, nil)
	require.NoError(t, err)
	assert.Equal(t, "const A: i32 = nope!(3 + 3);", got)
}

func TestJointBangIsNotAnInvocation(t *testing.T) {
	t.Parallel()
	got, err := expandSource(t, `const A: bool = b != c;`, nil)
	require.NoError(t, err)
	assert.Equal(t, "const A: bool = b != c;", got)
}

func TestTemplateIdentsGetFreshContexts(t *testing.T) {
	t.Parallel()
	source := `
macro_rules! mk { () => { let inner = 1; }; }
fn main() {
    mk!()
    mk!()
}
`
	got, err := expandSource(t, source, nil)
	require.NoError(t, err)
	// each expansion introduces its own binding; both collide on spelling,
	// so both get renamed
	assert.Contains(t, got, "let inner__hyg1 = 1;")
	assert.Contains(t, got, "let inner__hyg2 = 1;")
}
