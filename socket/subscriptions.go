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
	"bytes"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// subscriptionTable records which pipes subscribed to which prefix. It is
// used by the publishing side to select the receivers of a message.
type subscriptionTable struct {
	prefixes map[string]mapset.Set[*pipe]
}

func newSubscriptionTable() *subscriptionTable {
	return &subscriptionTable{prefixes: make(map[string]mapset.Set[*pipe])}
}

// add subscribes the pipe and reports whether nobody had subscribed to the
// prefix before
func (t *subscriptionTable) add(prefix []byte, p *pipe) bool {
	key := string(prefix)
	pipes, ok := t.prefixes[key]
	if !ok {
		pipes = mapset.NewThreadUnsafeSet[*pipe]()
		t.prefixes[key] = pipes
	}
	unique := pipes.IsEmpty()
	pipes.Add(p)
	return unique
}

// remove unsubscribes the pipe and reports whether it was the last
// subscriber of the prefix
func (t *subscriptionTable) remove(prefix []byte, p *pipe) bool {
	key := string(prefix)
	pipes, ok := t.prefixes[key]
	if !ok || !pipes.Contains(p) {
		return false
	}
	pipes.Remove(p)
	if pipes.IsEmpty() {
		delete(t.prefixes, key)
		return true
	}
	return false
}

// removePipe drops every subscription of the pipe and calls onLast for the
// prefixes nobody else subscribed to
func (t *subscriptionTable) removePipe(p *pipe, onLast func(prefix []byte)) {
	keys := make([]string, 0, len(t.prefixes))
	for key := range t.prefixes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if t.remove([]byte(key), p) && onLast != nil {
			onLast([]byte(key))
		}
	}
}

// match calls fn for every pipe subscribed to a prefix of data
func (t *subscriptionTable) match(data []byte, fn func(p *pipe)) {
	for key, pipes := range t.prefixes {
		if !bytes.HasPrefix(data, []byte(key)) {
			continue
		}
		pipes.Each(func(p *pipe) bool {
			fn(p)
			return false
		})
	}
}

// subscriptionCounter counts the local subscriptions of a subscribing
// socket, so that only the first subscribe and the last unsubscribe of a
// prefix travel upstream.
type subscriptionCounter struct {
	prefixes map[string]int
}

func newSubscriptionCounter() *subscriptionCounter {
	return &subscriptionCounter{prefixes: make(map[string]int)}
}

func (c *subscriptionCounter) add(prefix []byte) bool {
	key := string(prefix)
	c.prefixes[key]++
	return c.prefixes[key] == 1
}

func (c *subscriptionCounter) remove(prefix []byte) bool {
	key := string(prefix)
	count, ok := c.prefixes[key]
	if !ok {
		return false
	}
	if count == 1 {
		delete(c.prefixes, key)
		return true
	}
	c.prefixes[key] = count - 1
	return false
}

func (c *subscriptionCounter) check(data []byte) bool {
	for key := range c.prefixes {
		if bytes.HasPrefix(data, []byte(key)) {
			return true
		}
	}
	return false
}

// each calls fn once per subscribed prefix
func (c *subscriptionCounter) each(fn func(prefix []byte)) {
	for key := range c.prefixes {
		fn([]byte(key))
	}
}
