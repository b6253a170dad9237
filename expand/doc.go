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

// Package expand implements macro expansion: matching invocations against a
// definition's rules, transcribing the winning rule's template with the
// matched fragments, re-expanding the output until no known invocations
// remain, and the hygiene renaming that keeps template-introduced bindings
// from capturing call-site names.
//
// The three phases mirror how the engine's data flows:
//
//   - matching consumes the invocation's token trees with a rule's matchers,
//     producing [Bindings];
//   - transcription replays the rule's template against those bindings,
//     stamping template-originated identifiers with a fresh hygiene mark;
//   - the driver ([Engine]) rescans the transcribed output for further
//     invocations, bounded by a recursion limit.
package expand
