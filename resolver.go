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
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/bufbuild/macrocompile/ast"
)

// ErrNotFound is returned by resolvers that cannot locate a requested file.
var ErrNotFound = errors.New("file not found")

// Resolver locates the contents of files to expand, by path.
type Resolver interface {
	FindFileByPath(string) (SearchResult, error)
}

// SearchResult is what a resolver found for one path. Only one of the fields
// should be set; when both are, the AST wins and the source is ignored.
type SearchResult struct {
	// Source is the raw file contents. If it implements io.Closer it is
	// closed when the expander is done with it.
	Source io.Reader
	// AST is an already-parsed file, for callers that run their own parse.
	AST *ast.FileNode
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(string) (SearchResult, error)

var _ Resolver = ResolverFunc(nil)

func (f ResolverFunc) FindFileByPath(path string) (SearchResult, error) {
	return f(path)
}

// CompositeResolver tries each resolver in order and returns the first
// result found. If all fail, the first error is returned.
type CompositeResolver []Resolver

var _ Resolver = CompositeResolver(nil)

func (f CompositeResolver) FindFileByPath(path string) (SearchResult, error) {
	if len(f) == 0 {
		return SearchResult{}, ErrNotFound
	}
	var firstErr error
	for _, res := range f {
		r, err := res.FindFileByPath(path)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return SearchResult{}, firstErr
}

// SourceResolver reads files from disk. If ImportPaths is non-empty, paths
// are resolved relative to each in turn.
type SourceResolver struct {
	ImportPaths []string
	// Accessor opens a resolved path. Defaults to os.Open.
	Accessor func(string) (io.ReadCloser, error)
}

var _ Resolver = (*SourceResolver)(nil)

func (r *SourceResolver) FindFileByPath(path string) (SearchResult, error) {
	accessor := r.Accessor
	if accessor == nil {
		accessor = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}
	if len(r.ImportPaths) == 0 {
		reader, err := accessor(path)
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Source: reader}, nil
	}

	var e error
	for _, importPath := range r.ImportPaths {
		reader, err := accessor(filepath.Join(importPath, path))
		if err != nil {
			if os.IsNotExist(err) {
				e = err
				continue
			}
			return SearchResult{}, err
		}
		return SearchResult{Source: reader}, nil
	}
	return SearchResult{}, e
}
