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
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/bufbuild/macrocompile/ast"
	"github.com/bufbuild/macrocompile/expand"
	"github.com/bufbuild/macrocompile/hygiene"
	"github.com/bufbuild/macrocompile/parser"
	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

// Expander turns source files containing macro_rules! definitions and macro
// invocations into fully expanded token streams.
//
// Expansion involves four steps for each file:
//  1. Lexing the source into balanced token trees.
//  2. Parsing macro definitions out of the tree stream and validating them.
//  3. Rewriting the remaining stream, matching each invocation against its
//     macro's rules and transcribing the first rule that matches, repeatedly
//     until no expandable invocations remain.
//  4. Renaming macro-introduced bindings that would otherwise collide with
//     names from the call site.
type Expander struct {
	// Resolves paths into source code or parsed ASTs. This is the only
	// required field.
	Resolver Resolver
	// The maximum parallelism to use when expanding. If unspecified or set
	// to a non-positive value, then min(runtime.NumCPU(),
	// runtime.GOMAXPROCS(-1)) will be used.
	MaxParallelism int
	// A custom error and warning reporter. If unspecified a default reporter
	// is used. The default reporter fails expansion after the first error
	// and ignores all warnings.
	Reporter reporter.Reporter

	// MaxDepth bounds recursive expansion per invocation. If unspecified or
	// non-positive, expand.DefaultMaxDepth is used.
	MaxDepth int
	// CrateName is what $crate resolves to in expanded output. Empty means
	// the expansion is for the defining crate itself, so $crate becomes the
	// crate keyword.
	CrateName string
}

// Expand expands the given file names into token streams. The expander's
// resolver locates the sources, and each file is processed independently
// and concurrently: a file's invocations see the macros that file defines.
func (e *Expander) Expand(ctx context.Context, files ...string) (Files, error) {
	if len(files) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	par := e.MaxParallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(-1)
		cpus := runtime.NumCPU()
		if par > cpus {
			par = cpus
		}
	}

	h := reporter.NewHandler(e.Reporter)

	exec := executor{
		e:       e,
		h:       h,
		s:       semaphore.NewWeighted(int64(par)),
		cancel:  cancel,
		results: map[string]*result{},
	}

	results := make([]*result, len(files))
	for i, f := range files {
		results[i] = exec.expand(ctx, f)
	}

	out := make(Files, len(files))
	for i, r := range results {
		select {
		case <-r.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if r.err != nil {
			return nil, r.err
		}
		out[i] = r.res
	}

	return out, nil
}

// File is the expansion result for one source file.
type File struct {
	ast   *ast.FileNode
	reg   *registry
	trees []token.Tree
}

// Files is the result of expanding a set of files, in request order.
type Files []*File

// Name returns the path the file was resolved under.
func (f *File) Name() string {
	return f.ast.Name()
}

// AST returns the parsed file the expansion started from.
func (f *File) AST() *ast.FileNode {
	return f.ast
}

// Trees returns the expanded token stream.
func (f *File) Trees() []token.Tree {
	return f.trees
}

// Text renders the expanded stream as formatted source text.
func (f *File) Text() string {
	return token.Print(f.trees)
}

// Macros lists the names of the macros the file defined, sorted.
func (f *File) Macros() []string {
	return f.reg.names()
}

type result struct {
	ready chan struct{}
	res   *File
	err   error
}

func (r *result) fail(err error) {
	r.err = err
	close(r.ready)
}

func (r *result) complete(f *File) {
	r.res = f
	close(r.ready)
}

type executor struct {
	e      *Expander
	h      *reporter.Handler
	s      *semaphore.Weighted
	cancel context.CancelFunc

	mu      sync.Mutex
	results map[string]*result
}

// expand returns the (possibly already in-flight) result for the given file.
// Requesting the same path twice does the work once.
func (e *executor) expand(ctx context.Context, file string) *result {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.results[file]
	if r != nil {
		return r
	}

	r = &result{
		ready: make(chan struct{}),
	}
	e.results[file] = r
	go func() {
		e.doExpand(ctx, file, r)
	}()
	return r
}

func (e *executor) doExpand(ctx context.Context, file string, r *result) {
	if err := e.s.Acquire(ctx, 1); err != nil {
		r.fail(err)
		return
	}
	defer e.s.Release(1)

	sr, err := e.e.Resolver.FindFileByPath(file)
	if err != nil {
		r.fail(err)
		return
	}

	defer func() {
		if sr.Source == nil {
			return
		}
		if c, ok := sr.Source.(io.Closer); ok {
			_ = c.Close()
		}
	}()

	res, err := e.expandFile(file, sr)
	if err != nil {
		r.fail(err)
		return
	}
	r.complete(res)
}

func (e *executor) expandFile(name string, sr SearchResult) (*File, error) {
	fileNode, err := e.asAST(name, sr)
	if err != nil {
		return nil, err
	}

	reg := newRegistry(fileNode)
	engine := &expand.Engine{
		Lookup:   reg.lookup,
		Handler:  e.h,
		Hygiene:  &hygiene.Table{},
		Info:     fileNode.FileInfo(),
		MaxDepth: e.e.MaxDepth,
		Crate:    e.e.CrateName,
	}

	// definitions are consumed by expansion; the output is the raw stream
	// with every invocation rewritten
	var stream []token.Tree
	for _, decl := range fileNode.Decls {
		if raw, ok := decl.(*ast.RawDeclNode); ok {
			stream = append(stream, raw.Trees...)
		}
	}
	trees, err := engine.Expand(stream)
	if err != nil {
		return nil, err
	}
	if err := e.h.Error(); err != nil {
		return nil, err
	}
	return &File{ast: fileNode, reg: reg, trees: trees}, nil
}

func (e *executor) asAST(name string, sr SearchResult) (*ast.FileNode, error) {
	if sr.AST != nil {
		if sr.AST.Name() != name {
			return nil, fmt.Errorf("search result for %q returned AST for %q", name, sr.AST.Name())
		}
		return sr.AST, nil
	}
	return parser.Parse(name, sr.Source, e.h)
}
