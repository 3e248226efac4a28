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

// push load balances messages over its peers.
type push struct {
	basePattern
	sendOnly
	lb loadBalancer
}

var _ pattern = (*push)(nil)

func newPush() *push {
	return &push{}
}

func (x *push) attachPipe(p *pipe, _ bool) {
	// nothing would ever read the delimiter
	p.setNoDelay()
	x.lb.attach(p)
}

func (x *push) terminated(p *pipe) {
	x.lb.terminated(p)
}

func (x *push) writeActivated(p *pipe) {
	x.lb.activated(p)
}

func (x *push) send(msg *Msg) error {
	return x.lb.send(msg)
}

func (x *push) hasOut() bool {
	return x.lb.hasOut()
}

// pull fair queues messages from its peers.
type pull struct {
	basePattern
	recvOnly
	fq fairQueue
}

var _ pattern = (*pull)(nil)

func newPull() *pull {
	return &pull{}
}

func (x *pull) attachPipe(p *pipe, _ bool) {
	x.fq.attach(p)
}

func (x *pull) terminated(p *pipe) {
	x.fq.terminated(p)
}

func (x *pull) readActivated(p *pipe) {
	x.fq.activated(p)
}

func (x *pull) recv(msg *Msg) error {
	return x.fq.recv(msg)
}

func (x *pull) hasIn() bool {
	return x.fq.hasIn()
}
