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

// loadBalancer sends each message to the next pipe with available credit.
type loadBalancer struct {
	pipes   pipeArray
	active  int
	current int
	more    bool
	// the pipe went away in the middle of a message, drop its remainder
	dropping bool
}

func (l *loadBalancer) attach(p *pipe) {
	l.pipes = append(l.pipes, p)
	l.activated(p)
}

func (l *loadBalancer) terminated(p *pipe) {
	idx := l.pipes.index(p)
	if idx < 0 {
		return
	}
	if idx == l.current && l.more {
		l.dropping = true
	}
	if idx < l.active {
		l.active--
		l.pipes.swap(idx, l.active)
		if l.current == l.active {
			l.current = 0
		}
	}
	l.pipes.erase(p)
}

func (l *loadBalancer) activated(p *pipe) {
	idx := l.pipes.index(p)
	if idx < 0 {
		return
	}
	l.pipes.swap(idx, l.active)
	l.active++
}

func (l *loadBalancer) send(msg *Msg) error {
	_, err := l.sendPipe(msg)
	return err
}

// sendPipe writes the frame and returns the pipe it went to
func (l *loadBalancer) sendPipe(msg *Msg) (*pipe, error) {
	if l.dropping {
		l.more = msg.More()
		l.dropping = l.more
		msg.Init()
		return nil, nil
	}

	for l.active > 0 {
		if l.pipes[l.current].write(msg) {
			break
		}
		l.active--
		if l.current < l.active {
			l.pipes.swap(l.current, l.active)
		} else {
			l.current = 0
		}
	}

	if l.active == 0 {
		return nil, gerrors.ErrWouldBlock
	}

	p := l.pipes[l.current]
	l.more = msg.More()
	if !l.more {
		p.flush()
		l.current = (l.current + 1) % l.active
	}
	msg.Init()
	return p, nil
}

func (l *loadBalancer) hasOut() bool {
	if l.more {
		return true
	}

	for l.active > 0 {
		if l.pipes[l.current].checkWrite() {
			return true
		}
		l.active--
		if l.current < l.active {
			l.pipes.swap(l.current, l.active)
		} else {
			l.current = 0
		}
	}
	return false
}
