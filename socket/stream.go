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

// stream exchanges raw bytes with non gomq peers. Every received chunk is
// prefixed with the identity of the connection it came from; every sent
// message is an identity frame followed by one data frame. Sending an empty
// data frame closes the connection.
type stream struct {
	*router
}

var _ pattern = (*stream)(nil)

func newStream(opts *options) *stream {
	r := newRouter(opts)
	opts.rawSocket = true
	opts.recvIdentity = false
	return &stream{router: r}
}

func (x *stream) attachPipe(p *pipe, _ bool) {
	identity := x.nextIdentity()
	p.setIdentity(identity)
	x.outpipes[string(identity)] = &outpipe{pipe: p, active: true}
	x.fq.attach(p)
}

func (x *stream) readActivated(p *pipe) {
	x.fq.activated(p)
}

func (x *stream) setOption(Option, any) (bool, error) {
	return false, nil
}

func (x *stream) send(msg *Msg) error {
	if !x.moreOut {
		if msg.More() {
			out, ok := x.outpipes[string(msg.Data())]
			if !ok {
				return gerrors.ErrHostUnreachable
			}
			x.currentOut = out.pipe
			if !x.currentOut.checkWrite() {
				out.active = false
				x.currentOut = nil
				return gerrors.ErrWouldBlock
			}
		}
		x.moreOut = true
		msg.Init()
		return nil
	}

	// raw connections have no frames
	msg.setMore(false)
	x.moreOut = false

	if x.currentOut != nil {
		if x.currentOut.write(msg) {
			x.currentOut.flush()
		}
		x.currentOut = nil
	}
	msg.Init()
	return nil
}
