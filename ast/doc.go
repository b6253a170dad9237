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

// Package ast defines the syntax tree for macro definitions.
//
// A parsed file is a [FileNode]: a sequence of macro definitions interleaved
// with runs of ordinary token trees that the expander copies through while
// scanning them for invocations. Macro definitions decompose into rules, each
// a matcher pattern and a transcription template.
//
// All nodes implement [token.Node], so a file's [token.FileInfo] can report
// the position of any of them.
package ast
