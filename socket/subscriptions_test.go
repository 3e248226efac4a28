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

package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionTable(t *testing.T) {
	t.Run("With prefix matching", func(t *testing.T) {
		table := newSubscriptionTable()
		first, second := &pipe{}, &pipe{}

		assert.True(t, table.add([]byte("weather"), first))
		assert.False(t, table.add([]byte("weather"), second))
		assert.True(t, table.add([]byte("sport"), second))

		matched := make(map[*pipe]int)
		table.match([]byte("weather.paris"), func(p *pipe) { matched[p]++ })
		assert.Equal(t, map[*pipe]int{first: 1, second: 1}, matched)

		matched = make(map[*pipe]int)
		table.match([]byte("sport.tennis"), func(p *pipe) { matched[p]++ })
		assert.Equal(t, map[*pipe]int{second: 1}, matched)

		matched = make(map[*pipe]int)
		table.match([]byte("news"), func(p *pipe) { matched[p]++ })
		assert.Empty(t, matched)
	})
	t.Run("With empty prefix", func(t *testing.T) {
		table := newSubscriptionTable()
		p := &pipe{}
		table.add(nil, p)

		count := 0
		table.match([]byte("anything"), func(*pipe) { count++ })
		assert.Equal(t, 1, count)
	})
	t.Run("With remove", func(t *testing.T) {
		table := newSubscriptionTable()
		first, second := &pipe{}, &pipe{}
		table.add([]byte("a"), first)
		table.add([]byte("a"), second)

		assert.False(t, table.remove([]byte("a"), first))
		// unknown subscriptions are ignored
		assert.False(t, table.remove([]byte("a"), first))
		assert.False(t, table.remove([]byte("b"), first))
		assert.True(t, table.remove([]byte("a"), second))
	})
	t.Run("With removePipe", func(t *testing.T) {
		table := newSubscriptionTable()
		first, second := &pipe{}, &pipe{}
		table.add([]byte("b"), first)
		table.add([]byte("a"), first)
		table.add([]byte("a"), second)

		var last []string
		table.removePipe(first, func(prefix []byte) {
			last = append(last, string(prefix))
		})
		assert.Equal(t, []string{"b"}, last)

		count := 0
		table.match([]byte("b"), func(*pipe) { count++ })
		assert.Zero(t, count)
	})
}

func TestSubscriptionCounter(t *testing.T) {
	counter := newSubscriptionCounter()

	assert.True(t, counter.add([]byte("topic")))
	assert.False(t, counter.add([]byte("topic")))
	assert.True(t, counter.check([]byte("topic.1")))
	assert.False(t, counter.check([]byte("other")))

	assert.False(t, counter.remove([]byte("topic")))
	assert.True(t, counter.check([]byte("topic")))
	assert.True(t, counter.remove([]byte("topic")))
	assert.False(t, counter.check([]byte("topic")))
	assert.False(t, counter.remove([]byte("topic")))

	counter.add([]byte("x"))
	counter.add([]byte("y"))
	var prefixes []string
	counter.each(func(prefix []byte) { prefixes = append(prefixes, string(prefix)) })
	assert.ElementsMatch(t, []string{"x", "y"}, prefixes)
}
