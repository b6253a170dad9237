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

// Package macrocompile expands macro_rules!-style declarative macros.
//
// The entry point is [Expander]: give it a [Resolver] to locate source files
// and it lexes each file into balanced token trees, parses and validates the
// macro definitions it finds, and rewrites the rest of the stream by
// matching every invocation against its macro's rules and transcribing the
// first rule that matches. Expansion is recursive, so transcribed output is
// rescanned for further invocations up to a configurable depth limit.
//
// Expanded identifiers are hygienic: names introduced by a macro's template
// carry a syntax context distinguishing them from names spelled at the call
// site, and local bindings that would collide are renamed in the final
// output. See the hygiene package for the underlying model.
//
// The individual phases are exposed by the parser, expand, and token
// packages for callers that want finer control than [Expander] offers, such
// as expanding a stream assembled in memory.
package macrocompile
