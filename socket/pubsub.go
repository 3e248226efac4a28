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

const (
	unsubscribeCommand byte = 0
	subscribeCommand   byte = 1
)

// xpub publishes messages to the peers whose subscriptions match the first
// frame, and hands the subscriptions it receives to the user.
type xpub struct {
	basePattern
	dist          distribution
	subscriptions *subscriptionTable
	verbose       bool
	more          bool
	// subscription messages waiting to be received, nil for PUB
	pending [][]byte
	// PUB sockets do not expose subscriptions
	exposeSubscriptions bool
}

var _ pattern = (*xpub)(nil)

func newXPub() *xpub {
	return &xpub{subscriptions: newSubscriptionTable(), exposeSubscriptions: true}
}

func (x *xpub) attachPipe(p *pipe, icanhasall bool) {
	x.dist.attach(p)

	// transports that cannot forward subscriptions get everything
	if icanhasall {
		x.subscriptions.add(nil, p)
	}

	// the peer may have sent its subscriptions already
	x.readActivated(p)
}

func (x *xpub) readActivated(p *pipe) {
	for {
		msg, ok := p.read()
		if !ok {
			return
		}

		data := msg.Data()
		if len(data) > 0 && (data[0] == unsubscribeCommand || data[0] == subscribeCommand) {
			var unique bool
			if data[0] == unsubscribeCommand {
				unique = x.subscriptions.remove(data[1:], p)
			} else {
				unique = x.subscriptions.add(data[1:], p)
			}
			if unique || (data[0] == subscribeCommand && x.verbose) {
				x.enqueue(data)
			}
			continue
		}
		x.enqueue(data)
	}
}

func (x *xpub) enqueue(data []byte) {
	if x.exposeSubscriptions {
		x.pending = append(x.pending, data)
	}
}

func (x *xpub) writeActivated(p *pipe) {
	x.dist.activated(p)
}

func (x *xpub) terminated(p *pipe) {
	x.subscriptions.removePipe(p, func(prefix []byte) {
		x.enqueue(append([]byte{unsubscribeCommand}, prefix...))
	})
	x.dist.terminated(p)
}

func (x *xpub) setOption(opt Option, value any) (bool, error) {
	if opt != XPubVerbose || !x.exposeSubscriptions {
		return false, nil
	}
	v, err := toBool(opt, value)
	if err != nil {
		return true, err
	}
	x.verbose = v
	return true, nil
}

func (x *xpub) send(msg *Msg) error {
	more := msg.More()

	if !x.more {
		x.subscriptions.match(msg.Data(), x.dist.match)
	}

	if err := x.dist.sendToMatching(msg); err != nil {
		return err
	}

	if !more {
		x.dist.unmatch()
	}
	x.more = more
	return nil
}

func (x *xpub) hasOut() bool {
	return x.dist.hasOut()
}

func (x *xpub) recv(msg *Msg) error {
	if !x.exposeSubscriptions {
		return gerrors.ErrNotSupported
	}
	if len(x.pending) == 0 {
		return gerrors.ErrWouldBlock
	}
	msg.Init()
	msg.SetData(x.pending[0])
	x.pending[0] = nil
	x.pending = x.pending[1:]
	return nil
}

func (x *xpub) hasIn() bool {
	return len(x.pending) > 0
}

// newPub creates a publisher: an xpub that keeps subscriptions to itself
func newPub() *xpub {
	return &xpub{subscriptions: newSubscriptionTable()}
}

// xsub receives the messages matching its subscriptions and forwards
// subscription messages upstream.
type xsub struct {
	basePattern
	fq            fairQueue
	dist          distribution
	subscriptions *subscriptionCounter

	// a message read ahead by hasIn
	message    *Msg
	hasMessage bool
	more       bool
}

var _ pattern = (*xsub)(nil)

func newXSub() *xsub {
	return &xsub{subscriptions: newSubscriptionCounter(), message: NewEmptyMsg()}
}

func (x *xsub) attachPipe(p *pipe, _ bool) {
	x.fq.attach(p)
	x.dist.attach(p)

	x.subscriptions.each(func(prefix []byte) {
		sendSubscription(p, prefix)
	})
	p.flush()
}

func sendSubscription(p *pipe, prefix []byte) {
	msg := NewMsg(append([]byte{subscribeCommand}, prefix...))
	// a full pipe drops the subscription
	p.write(msg)
}

func (x *xsub) readActivated(p *pipe) {
	x.fq.activated(p)
}

func (x *xsub) writeActivated(p *pipe) {
	x.dist.activated(p)
}

func (x *xsub) terminated(p *pipe) {
	x.fq.terminated(p)
	x.dist.terminated(p)
}

// hiccuped resends the subscriptions over a reconnected pipe
func (x *xsub) hiccuped(p *pipe) {
	x.subscriptions.each(func(prefix []byte) {
		sendSubscription(p, prefix)
	})
	p.flush()
}

func (x *xsub) send(msg *Msg) error {
	data := msg.Data()
	switch {
	case len(data) > 0 && data[0] == subscribeCommand:
		if x.subscriptions.add(data[1:]) {
			return x.dist.sendToAll(msg)
		}
	case len(data) > 0 && data[0] == unsubscribeCommand:
		if x.subscriptions.remove(data[1:]) {
			return x.dist.sendToAll(msg)
		}
	default:
		// a user message travelling upstream
		return x.dist.sendToAll(msg)
	}
	msg.Init()
	return nil
}

func (x *xsub) hasOut() bool {
	return true
}

func (x *xsub) recv(msg *Msg) error {
	if x.hasMessage {
		msg.assign(x.message)
		x.message.Init()
		x.hasMessage = false
		x.more = msg.More()
		return nil
	}

	for {
		if err := x.fq.recv(msg); err != nil {
			return err
		}

		// only the first frame of a message is matched
		if x.more || x.subscriptions.check(msg.Data()) {
			x.more = msg.More()
			return nil
		}

		x.skipRemainder(msg)
	}
}

func (x *xsub) hasIn() bool {
	if x.more || x.hasMessage {
		return true
	}

	for {
		if err := x.fq.recv(x.message); err != nil {
			return false
		}

		if x.subscriptions.check(x.message.Data()) {
			x.hasMessage = true
			return true
		}

		x.skipRemainder(x.message)
	}
}

// skipRemainder drops the remaining frames of a non matching message
func (x *xsub) skipRemainder(msg *Msg) {
	for msg.More() {
		if err := x.fq.recv(msg); err != nil {
			return
		}
	}
}

// sub is an xsub whose subscriptions are set through options.
type sub struct {
	*xsub
}

var _ pattern = (*sub)(nil)

func newSub() *sub {
	return &sub{xsub: newXSub()}
}

func (x *sub) setOption(opt Option, value any) (bool, error) {
	if opt != Subscribe && opt != Unsubscribe {
		return false, nil
	}

	topic, err := toBytes(opt, value)
	if err != nil {
		return true, err
	}

	command := subscribeCommand
	if opt == Unsubscribe {
		command = unsubscribeCommand
	}
	msg := NewMsg(append([]byte{command}, topic...))
	return true, x.xsub.send(msg)
}

func (x *sub) send(*Msg) error {
	return gerrors.ErrNotSupported
}

func (x *sub) hasOut() bool {
	return false
}
