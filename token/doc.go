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

// Package token models the token streams that macro matching and expansion
// operate over.
//
// # Token Trees
//
// Tokens are trees: the tokens between a matched pair of delimiters ( ), [ ],
// or { } are contained within a single Group tree, accessible via
// [Tree.Children]. Matching braces in the lexer, rather than the matcher,
// means every later phase can assume balanced input, which is the property
// that makes declarative macro matching tractable.
//
// # Natural and Synthetic Trees
//
// Trees produced by lexing a file are natural: they carry [Token] handles that
// resolve to spans within a [FileInfo], so diagnostics can point at them.
// Trees produced by transcription are synthetic: they have no position of
// their own and instead report the position of the invocation that produced
// them, when one is known.
package token
