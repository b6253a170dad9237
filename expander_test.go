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

package macrocompile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/macrocompile/internal/corpora"
	"github.com/bufbuild/macrocompile/reporter"
)

// TestCorpus runs every testdata/*.rs file through a full expansion and
// compares the rendered output against the .expanded golden, and any
// reported diagnostics against the .errors golden. Set MACROCOMPILE_REFRESH
// to a glob of test names to regenerate goldens.
func TestCorpus(t *testing.T) {
	t.Parallel()
	corpora.Corpus{
		Root:      "testdata",
		Refresh:   "MACROCOMPILE_REFRESH",
		Extension: "rs",
		Outputs: []corpora.Output{
			{Extension: "expanded"},
			{Extension: "errors"},
		},
		Test: func(t *testing.T, path, text string) []string {
			var errs strings.Builder
			rep := reporter.NewReporter(
				func(err reporter.ErrorWithPos) error {
					fmt.Fprintln(&errs, err.Error())
					return nil // collect everything
				},
				nil,
			)
			exp := &Expander{
				Resolver: ResolverFunc(func(string) (SearchResult, error) {
					return SearchResult{Source: strings.NewReader(text)}, nil
				}),
				Reporter: rep,
			}
			files, err := exp.Expand(context.Background(), path)
			if err != nil && !errors.Is(err, reporter.ErrInvalidSource) {
				t.Fatal(err)
			}
			var out string
			if len(files) == 1 && files[0] != nil {
				out = files[0].Text() + "\n"
			}
			return []string{out, errs.String()}
		},
	}.Run(t)
}

func TestExpandNoFiles(t *testing.T) {
	t.Parallel()
	exp := &Expander{Resolver: CompositeResolver(nil)}
	files, err := exp.Expand(context.Background())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestExpandDedup(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	exp := &Expander{
		Resolver: ResolverFunc(func(string) (SearchResult, error) {
			calls.Add(1)
			return SearchResult{Source: strings.NewReader("fn main() {}")}, nil
		}),
	}
	files, err := exp.Expand(context.Background(), "a.rs", "a.rs")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Same(t, files[0], files[1])
	assert.Equal(t, int32(1), calls.Load())
}

func TestExpandNotFound(t *testing.T) {
	t.Parallel()
	exp := &Expander{
		Resolver: ResolverFunc(func(string) (SearchResult, error) {
			return SearchResult{}, ErrNotFound
		}),
	}
	_, err := exp.Expand(context.Background(), "missing.rs")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompositeResolver(t *testing.T) {
	t.Parallel()
	r := CompositeResolver{
		ResolverFunc(func(string) (SearchResult, error) {
			return SearchResult{}, ErrNotFound
		}),
		ResolverFunc(func(string) (SearchResult, error) {
			return SearchResult{Source: strings.NewReader("fn f() {}")}, nil
		}),
	}
	sr, err := r.FindFileByPath("x.rs")
	require.NoError(t, err)
	assert.NotNil(t, sr.Source)

	_, err = CompositeResolver{}.FindFileByPath("x.rs")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileMacros(t *testing.T) {
	t.Parallel()
	source := `
macro_rules! zeta { () => {}; }
macro_rules! alpha { () => {}; }
fn main() {}
`
	exp := &Expander{
		Resolver: ResolverFunc(func(string) (SearchResult, error) {
			return SearchResult{Source: strings.NewReader(source)}, nil
		}),
	}
	files, err := exp.Expand(context.Background(), "m.rs")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, []string{"alpha", "zeta"}, files[0].Macros())
	assert.Equal(t, "m.rs", files[0].Name())
	assert.Len(t, files[0].AST().Defs(), 2)
}

func TestUnknownMacroLeftUnexpanded(t *testing.T) {
	t.Parallel()
	var warnings []string
	rep := reporter.NewReporter(nil, func(err reporter.ErrorWithPos) {
		warnings = append(warnings, err.Error())
	})
	exp := &Expander{
		Resolver: ResolverFunc(func(string) (SearchResult, error) {
			return SearchResult{Source: strings.NewReader("fn main() { nope!(1); }")}, nil
		}),
		Reporter: rep,
	}
	files, err := exp.Expand(context.Background(), "w.rs")
	require.NoError(t, err)
	assert.Contains(t, files[0].Text(), "nope!(1)")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `cannot find macro "nope"`)
}
