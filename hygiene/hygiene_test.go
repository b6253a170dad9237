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

package hygiene

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshMarksAreDistinct(t *testing.T) {
	t.Parallel()
	var table Table
	m1 := table.Fresh()
	m2 := table.Fresh()
	assert.NotEqual(t, m1, m2)
	assert.NotZero(t, m1)
}

func TestApplyInterns(t *testing.T) {
	t.Parallel()
	var table Table
	m1 := table.Fresh()
	m2 := table.Fresh()

	c1 := table.Apply(0, m1)
	assert.NotEqual(t, Context(0), c1)
	// same chain interns to the same context
	assert.Equal(t, c1, table.Apply(0, m1))

	c2 := table.Apply(c1, m2)
	assert.NotEqual(t, c1, c2)
	assert.Equal(t, m2, table.Outer(c2))
	assert.Equal(t, c1, table.Parent(c2))
	assert.Equal(t, []Mark{m2, m1}, table.Marks(c2))
}

func TestEmptyContext(t *testing.T) {
	t.Parallel()
	var table Table
	assert.Equal(t, Mark(0), table.Outer(0))
	assert.Equal(t, Context(0), table.Parent(0))
	assert.Nil(t, table.Marks(0))
}

func TestApplyZeroMarkPanics(t *testing.T) {
	t.Parallel()
	var table Table
	assert.Panics(t, func() { table.Apply(0, 0) })
}

func TestConcurrentUse(t *testing.T) {
	t.Parallel()
	var table Table
	var wg sync.WaitGroup
	ctxs := make([]Context, 16)
	for i := range ctxs {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			ctxs[i] = table.Apply(0, table.Fresh())
		}()
	}
	wg.Wait()

	seen := map[Context]bool{}
	for _, c := range ctxs {
		require.False(t, seen[c], "contexts of distinct marks must not collide")
		seen[c] = true
	}
}
