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

// Package parser contains the lexer and the macro_rules! parser.
//
// Lexing produces balanced token trees rather than a flat token stream;
// parsing then only has to recognize the shape
//
//	macro_rules ! name { matcher => template ; ... }
//
// and decompose matchers and templates into their metavariable, repetition,
// and literal-token parts. Everything else in a file is left as raw token
// trees, because macro invocations can appear at any nesting depth and
// finding them is the expander's job.
package parser
