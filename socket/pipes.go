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

// pipeArray is an ordered set of pipes where the leading items form an
// "active" prefix. Routing helpers move pipes across the boundary by
// swapping positions.
type pipeArray []*pipe

func (a pipeArray) index(p *pipe) int {
	for i, item := range a {
		if item == p {
			return i
		}
	}
	return -1
}

func (a pipeArray) swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

// erase removes the pipe by swapping it with the last item
func (a *pipeArray) erase(p *pipe) {
	i := a.index(p)
	if i < 0 {
		return
	}
	last := len(*a) - 1
	(*a)[i] = (*a)[last]
	(*a)[last] = nil
	*a = (*a)[:last]
}
