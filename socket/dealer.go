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

// dealer load balances outgoing messages and fair queues incoming ones.
type dealer struct {
	basePattern
	fq fairQueue
	lb loadBalancer
}

var _ pattern = (*dealer)(nil)

func newDealer() *dealer {
	return &dealer{}
}

func (x *dealer) attachPipe(p *pipe, _ bool) {
	x.fq.attach(p)
	x.lb.attach(p)
}

func (x *dealer) terminated(p *pipe) {
	x.fq.terminated(p)
	x.lb.terminated(p)
}

func (x *dealer) readActivated(p *pipe) {
	x.fq.activated(p)
}

func (x *dealer) writeActivated(p *pipe) {
	x.lb.activated(p)
}

func (x *dealer) send(msg *Msg) error {
	return x.lb.send(msg)
}

func (x *dealer) recv(msg *Msg) error {
	return x.fq.recv(msg)
}

func (x *dealer) hasIn() bool {
	return x.fq.hasIn()
}

func (x *dealer) hasOut() bool {
	return x.lb.hasOut()
}

// req is a dealer enforcing strict request/reply alternation. Each request
// is prefixed with an empty delimiter frame that the reply must carry back.
type req struct {
	*dealer
	receivingReply bool
	messageBegins  bool
}

var _ pattern = (*req)(nil)

func newReq() *req {
	return &req{dealer: newDealer(), messageBegins: true}
}

func (x *req) send(msg *Msg) error {
	if x.receivingReply {
		return errInvalidState("cannot send a request before receiving the previous reply")
	}

	if x.messageBegins {
		bottom := NewEmptyMsg()
		bottom.setMore(true)
		if err := x.dealer.send(bottom); err != nil {
			return err
		}
		x.messageBegins = false
	}

	more := msg.More()
	if err := x.dealer.send(msg); err != nil {
		return err
	}

	if !more {
		x.receivingReply = true
		x.messageBegins = true
	}
	return nil
}

func (x *req) recv(msg *Msg) error {
	if !x.receivingReply {
		return errInvalidState("cannot receive a reply before sending a request")
	}

	if x.messageBegins {
		if err := x.dealer.recv(msg); err != nil {
			return err
		}

		// drop replies that do not start with the delimiter
		if !msg.More() || msg.Size() != 0 {
			for msg.More() {
				if err := x.dealer.recv(msg); err != nil {
					break
				}
			}
			msg.Init()
			return gerrors.ErrWouldBlock
		}
		x.messageBegins = false
	}

	if err := x.dealer.recv(msg); err != nil {
		return err
	}

	if !msg.More() {
		x.receivingReply = false
		x.messageBegins = true
	}
	return nil
}

func (x *req) hasIn() bool {
	if !x.receivingReply {
		return false
	}
	return x.dealer.hasIn()
}

func (x *req) hasOut() bool {
	if x.receivingReply {
		return false
	}
	return x.dealer.hasOut()
}
