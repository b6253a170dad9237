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

// Package hygiene implements the syntax contexts that keep identifiers
// introduced by a macro expansion from capturing, or being captured by,
// identifiers spelled at the call site.
//
// Every expansion allocates a fresh [Mark]. Identifiers that originate in the
// macro's template are stamped with the expansion's context, which is the
// invocation-site context extended by that mark; identifiers captured from
// the call site keep the context they arrived with. Two identifiers refer to
// the same binding only if both their names and their contexts agree.
package hygiene

import (
	"fmt"
	"sync"
)

// Mark identifies a single macro expansion. Marks are never reused within a
// [Table].
type Mark uint32

// Context is an interned chain of marks. The zero Context is the empty chain,
// which is what all identifiers lexed from a source file carry.
//
// Contexts created by the same [Table] are comparable: equal values are the
// same mark chain.
type Context int32

// Table interns mark chains and hands out fresh marks.
//
// The zero value is ready to use. A Table may be used by multiple goroutines
// concurrently.
type Table struct {
	mu       sync.Mutex
	chains   []chain
	index    map[chain]Context
	nextMark Mark
}

// chain is one link of a context: the mark applied last, plus the context it
// was applied to.
type chain struct {
	parent Context
	mark   Mark
}

// Fresh allocates a mark that no context in this table carries yet.
func (t *Table) Fresh() Mark {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextMark++
	return t.nextMark
}

// Apply returns the context that is ctx extended with mark.
func (t *Table) Apply(ctx Context, mark Mark) Context {
	if mark == 0 {
		panic("hygiene: cannot apply the zero mark")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	c := chain{parent: ctx, mark: mark}
	if id, ok := t.index[c]; ok {
		return id
	}
	if t.index == nil {
		t.index = make(map[chain]Context)
	}
	t.chains = append(t.chains, c)
	id := Context(len(t.chains)) // zero is reserved for the empty chain
	t.index[c] = id
	return id
}

// Outer returns the most recently applied mark of ctx, or zero for the empty
// context.
func (t *Table) Outer(ctx Context) Mark {
	if ctx == 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chains[ctx-1].mark
}

// Parent returns ctx with its most recently applied mark removed.
func (t *Table) Parent(ctx Context) Context {
	if ctx == 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chains[ctx-1].parent
}

// Marks returns the full mark chain of ctx, outermost (most recent) first.
func (t *Table) Marks(ctx Context) []Mark {
	var marks []Mark
	for ctx != 0 {
		t.mu.Lock()
		c := t.chains[ctx-1]
		t.mu.Unlock()
		marks = append(marks, c.mark)
		ctx = c.parent
	}
	return marks
}

// String implements [fmt.Stringer].
func (c Context) String() string {
	if c == 0 {
		return "hygiene.Context(source)"
	}
	return fmt.Sprintf("hygiene.Context(%d)", int32(c))
}
