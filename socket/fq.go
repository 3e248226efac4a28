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
	gerrors "github.com/tochemey/gomq/errors"
)

// fairQueue reads from its active pipes in turn. The frames of one message
// always come from the same pipe.
type fairQueue struct {
	pipes   pipeArray
	active  int
	current int
	more    bool
}

func (q *fairQueue) attach(p *pipe) {
	q.pipes = append(q.pipes, p)
	q.pipes.swap(q.active, len(q.pipes)-1)
	q.active++
}

func (q *fairQueue) terminated(p *pipe) {
	idx := q.pipes.index(p)
	if idx < 0 {
		return
	}
	if idx < q.active {
		q.active--
		q.pipes.swap(idx, q.active)
		if q.current == q.active {
			q.current = 0
		}
	}
	q.pipes.erase(p)
}

func (q *fairQueue) activated(p *pipe) {
	idx := q.pipes.index(p)
	if idx < 0 {
		return
	}
	q.pipes.swap(idx, q.active)
	q.active++
}

func (q *fairQueue) recv(msg *Msg) error {
	_, err := q.recvPipe(msg)
	return err
}

// recvPipe reads the next frame and returns the pipe it came from
func (q *fairQueue) recvPipe(msg *Msg) (*pipe, error) {
	for q.active > 0 {
		p := q.pipes[q.current]
		if got, ok := p.read(); ok {
			msg.assign(got)
			q.more = got.More()
			if !q.more {
				q.current = (q.current + 1) % q.active
			}
			return p, nil
		}

		// the pipe is empty or going away, deactivate it
		q.active--
		q.pipes.swap(q.current, q.active)
		if q.current == q.active {
			q.current = 0
		}
	}
	return nil, gerrors.ErrWouldBlock
}

func (q *fairQueue) hasIn() bool {
	if q.more {
		return true
	}

	for q.active > 0 {
		if q.pipes[q.current].checkRead() {
			return true
		}
		q.active--
		q.pipes.swap(q.current, q.active)
		if q.current == q.active {
			q.current = 0
		}
	}
	return false
}
