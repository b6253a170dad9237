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

package token

// Cursor is an iterator-like construct for walking a slice of token trees.
// Unlike a plain range loop, it supports peeking and rewinding, which is what
// backtracking rule matching is built out of.
type Cursor struct {
	trees []Tree
	idx   int
}

// CursorMark is the return value of [Cursor.Mark], which marks a position on
// a Cursor for rewinding to.
type CursorMark struct {
	owner *Cursor
	idx   int
}

// NewCursor returns a new cursor over the given trees.
func NewCursor(trees []Tree) *Cursor {
	return &Cursor{trees: trees}
}

// Done returns whether or not there are still trees left to yield.
func (c *Cursor) Done() bool {
	return c.idx >= len(c.trees)
}

// Pos returns how many trees this cursor has consumed so far.
func (c *Cursor) Pos() int {
	return c.idx
}

// Mark makes a mark on this cursor to indicate a place that can be rewound
// to.
func (c *Cursor) Mark() CursorMark {
	return CursorMark{owner: c, idx: c.idx}
}

// Rewind rewinds this cursor to the position described by mark.
//
// Panics if mark was not created with this cursor's Mark method.
func (c *Cursor) Rewind(mark CursorMark) {
	if mark.owner != c {
		panic("token: rewound cursor with the wrong mark")
	}
	c.idx = mark.idx
}

// Peek returns the next tree without consuming it, or nil if the cursor is
// done.
func (c *Cursor) Peek() *Tree {
	if c.Done() {
		return nil
	}
	return &c.trees[c.idx]
}

// PeekAt returns the tree n positions ahead of the next one, or nil.
func (c *Cursor) PeekAt(n int) *Tree {
	if c.idx+n >= len(c.trees) {
		return nil
	}
	return &c.trees[c.idx+n]
}

// Next consumes and returns the next tree, or nil if the cursor is done.
func (c *Cursor) Next() *Tree {
	if c.Done() {
		return nil
	}
	t := &c.trees[c.idx]
	c.idx++
	return t
}

// Rest returns the trees that have not been consumed yet.
func (c *Cursor) Rest() []Tree {
	return c.trees[c.idx:]
}

// Consumed returns the trees consumed so far, as a slice of the underlying
// storage.
func (c *Cursor) Consumed() []Tree {
	return c.trees[:c.idx]
}
