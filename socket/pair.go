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

// pair talks to exactly one peer. Further connections are rejected.
type pair struct {
	basePattern
	pipe *pipe
}

var _ pattern = (*pair)(nil)

func newPair() *pair {
	return &pair{}
}

func (x *pair) attachPipe(p *pipe, _ bool) {
	if x.pipe == nil {
		x.pipe = p
		return
	}
	p.terminate(false)
}

func (x *pair) terminated(p *pipe) {
	if p == x.pipe {
		x.pipe = nil
	}
}

func (x *pair) readActivated(*pipe) {}

func (x *pair) writeActivated(*pipe) {}

func (x *pair) send(msg *Msg) error {
	if x.pipe == nil || !x.pipe.write(msg) {
		return gerrors.ErrWouldBlock
	}
	if !msg.More() {
		x.pipe.flush()
	}
	msg.Init()
	return nil
}

func (x *pair) recv(msg *Msg) error {
	if x.pipe == nil {
		return gerrors.ErrWouldBlock
	}
	got, ok := x.pipe.read()
	if !ok {
		return gerrors.ErrWouldBlock
	}
	msg.assign(got)
	return nil
}

func (x *pair) hasIn() bool {
	return x.pipe != nil && x.pipe.checkRead()
}

func (x *pair) hasOut() bool {
	return x.pipe != nil && x.pipe.checkWrite()
}
