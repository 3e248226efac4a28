/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package xsync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Run("With Set/Get/Delete", func(t *testing.T) {
		m := NewMap[string, int]()
		m.Set("a", 1)
		value, ok := m.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, value)

		m.Delete("a")
		_, ok = m.Get("a")
		assert.False(t, ok)
		assert.Zero(t, m.Len())
	})

	t.Run("With SetIfAbsent", func(t *testing.T) {
		m := NewMap[string, int]()
		assert.True(t, m.SetIfAbsent("inproc://a", 1))
		assert.False(t, m.SetIfAbsent("inproc://a", 2))
		value, _ := m.Get("inproc://a")
		assert.Equal(t, 1, value)
	})

	t.Run("With View", func(t *testing.T) {
		m := NewMap[string, int]()
		m.Set("a", 41)
		seen := 0
		assert.True(t, m.View("a", func(v int) { seen = v + 1 }))
		assert.Equal(t, 42, seen)
		assert.False(t, m.View("b", func(int) { seen = 0 }))
		assert.Equal(t, 42, seen)
	})

	t.Run("With DeleteIf and DeleteFunc", func(t *testing.T) {
		m := NewMap[string, int]()
		m.Set("a", 1)
		m.Set("b", 2)
		m.Set("c", 2)

		assert.False(t, m.DeleteIf("a", func(v int) bool { return v == 2 }))
		assert.True(t, m.DeleteIf("b", func(v int) bool { return v == 2 }))
		assert.False(t, m.DeleteIf("missing", func(int) bool { return true }))

		m.DeleteFunc(func(_ string, v int) bool { return v == 2 })
		assert.Equal(t, []int{1}, m.Values())

		m.Reset()
		assert.Zero(t, m.Len())
	})

	t.Run("With concurrent writers", func(t *testing.T) {
		m := NewMap[int, int]()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m.Set(i, i)
			}(i)
		}
		wg.Wait()

		sum := 0
		m.Range(func(_ int, v int) { sum += v })
		assert.Equal(t, 50*49/2, sum)
	})
}
