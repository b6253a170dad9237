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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idents(names ...string) []Tree {
	trees := make([]Tree, len(names))
	for i, n := range names {
		trees[i] = NewIdent(n, 0, Token(i))
	}
	return trees
}

func TestCursorWalk(t *testing.T) {
	t.Parallel()
	cur := NewCursor(idents("a", "b", "c"))

	assert.False(t, cur.Done())
	assert.Equal(t, 0, cur.Pos())
	assert.Equal(t, "a", cur.Peek().Name())
	assert.Equal(t, "b", cur.PeekAt(1).Name())
	assert.Nil(t, cur.PeekAt(3))

	assert.Equal(t, "a", cur.Next().Name())
	assert.Equal(t, "b", cur.Next().Name())
	assert.Equal(t, 2, cur.Pos())
	assert.Len(t, cur.Consumed(), 2)
	assert.Len(t, cur.Rest(), 1)

	assert.Equal(t, "c", cur.Next().Name())
	assert.True(t, cur.Done())
	assert.Nil(t, cur.Peek())
	assert.Nil(t, cur.Next())
}

func TestCursorRewind(t *testing.T) {
	t.Parallel()
	cur := NewCursor(idents("a", "b", "c"))
	cur.Next()
	mark := cur.Mark()
	cur.Next()
	cur.Next()
	require.True(t, cur.Done())

	cur.Rewind(mark)
	assert.Equal(t, 1, cur.Pos())
	assert.Equal(t, "b", cur.Peek().Name())
}

func TestCursorRewindWrongOwnerPanics(t *testing.T) {
	t.Parallel()
	a := NewCursor(idents("a"))
	b := NewCursor(idents("b"))
	mark := a.Mark()
	assert.Panics(t, func() { b.Rewind(mark) })
}

func TestCursorEmpty(t *testing.T) {
	t.Parallel()
	cur := NewCursor(nil)
	assert.True(t, cur.Done())
	assert.Nil(t, cur.Peek())
	assert.Nil(t, cur.PeekAt(0))
	assert.Empty(t, cur.Rest())
}
