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
	"github.com/bufbuild/macrocompile/token"
)

// Node is the interface implemented by all nodes in this package. It is the
// same contract as [token.Node]: an inclusive range of tokens in a file.
type Node = token.Node

// DeclNode is a top-level element of a file: either a macro definition or a
// run of raw token trees that the expander scans for invocations and
// otherwise copies through.
type DeclNode interface {
	Node
	declNode()
}

var (
	_ DeclNode = (*MacroDefNode)(nil)
	_ DeclNode = (*RawDeclNode)(nil)
)

// FileNode is the root of the AST for a single source file.
type FileNode struct {
	fileInfo *token.FileInfo

	Decls []DeclNode
}

// NewFileNode creates a file node backed by the given file info.
func NewFileNode(info *token.FileInfo, decls []DeclNode) *FileNode {
	if info == nil {
		panic("ast: nil FileInfo")
	}
	return &FileNode{fileInfo: info, Decls: decls}
}

// Name returns the name of the underlying file.
func (f *FileNode) Name() string {
	return f.fileInfo.Name()
}

// FileInfo returns the position bookkeeping for this file.
func (f *FileNode) FileInfo() *token.FileInfo {
	return f.fileInfo
}

// NodeInfo returns position details for any node in this file.
func (f *FileNode) NodeInfo(n Node) token.NodeInfo {
	return f.fileInfo.NodeInfo(n)
}

// Defs returns the macro definitions in this file, in lexical order.
func (f *FileNode) Defs() []*MacroDefNode {
	var defs []*MacroDefNode
	for _, d := range f.Decls {
		if def, ok := d.(*MacroDefNode); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

func (f *FileNode) Start() token.Token {
	if len(f.Decls) == 0 {
		return 0
	}
	return f.Decls[0].Start()
}

func (f *FileNode) End() token.Token {
	if len(f.Decls) == 0 {
		return 0
	}
	return f.Decls[len(f.Decls)-1].End()
}

// RawDeclNode is a run of token trees between macro definitions. The trees
// may contain macro invocations at any nesting depth; finding them is the
// expander's job, not the parser's.
type RawDeclNode struct {
	Trees []token.Tree
}

func (*RawDeclNode) declNode() {}

func (r *RawDeclNode) Start() token.Token {
	if len(r.Trees) == 0 {
		return -1
	}
	return r.Trees[0].Start()
}

func (r *RawDeclNode) End() token.Token {
	if len(r.Trees) == 0 {
		return -1
	}
	return r.Trees[len(r.Trees)-1].End()
}

// span is the embeddable implementation of Node used by the nodes in this
// package that do not delegate their extent to child structures.
type span struct {
	start, end token.Token
}

func newSpan(start, end token.Token) span {
	return span{start: start, end: end}
}

func (s span) Start() token.Token { return s.start }
func (s span) End() token.Token   { return s.end }
