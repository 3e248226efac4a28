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
	"encoding/binary"
	"math/rand/v2"

	mapset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/gomq/errors"
)

type outpipe struct {
	pipe   *pipe
	active bool
}

// router prefixes every received message with the identity of the peer it
// came from, and routes every sent message to the peer named by its first
// frame.
type router struct {
	basePattern
	fq fairQueue

	// a message read ahead by hasIn, returned after the identity
	prefetched   bool
	prefetchedID  *Msg
	prefetchedMsg *Msg
	identitySent  bool
	moreIn        bool

	currentOut *pipe
	moreOut    bool
	nextPeerID uint32
	mandatory  bool

	// pipes whose identity has not arrived yet
	anonymous mapset.Set[*pipe]
	outpipes  map[string]*outpipe
}

var _ pattern = (*router)(nil)

func newRouter(opts *options) *router {
	opts.recvIdentity = true
	return &router{
		nextPeerID:    rand.Uint32(),
		anonymous:     mapset.NewThreadUnsafeSet[*pipe](),
		outpipes:      make(map[string]*outpipe),
		prefetchedID:  NewEmptyMsg(),
		prefetchedMsg: NewEmptyMsg(),
	}
}

func (x *router) setOption(opt Option, value any) (bool, error) {
	if opt != RouterMandatory {
		return false, nil
	}
	v, err := toBool(opt, value)
	if err != nil {
		return true, err
	}
	x.mandatory = v
	return true, nil
}

func (x *router) attachPipe(p *pipe, _ bool) {
	if x.identifyPeer(p) {
		x.fq.attach(p)
		return
	}
	x.anonymous.Add(p)
}

func (x *router) terminated(p *pipe) {
	if x.anonymous.Contains(p) {
		x.anonymous.Remove(p)
		return
	}

	if out, ok := x.outpipes[string(p.getIdentity())]; ok && out.pipe == p {
		delete(x.outpipes, string(p.getIdentity()))
	}
	x.fq.terminated(p)
	if p == x.currentOut {
		x.currentOut = nil
	}
}

func (x *router) readActivated(p *pipe) {
	if !x.anonymous.Contains(p) {
		x.fq.activated(p)
		return
	}

	if x.identifyPeer(p) {
		x.anonymous.Remove(p)
		x.fq.attach(p)
	}
}

func (x *router) writeActivated(p *pipe) {
	for _, out := range x.outpipes {
		if out.pipe == p {
			out.active = true
			return
		}
	}
}

func (x *router) send(msg *Msg) error {
	if !x.moreOut {
		// the first frame names the destination
		if msg.More() {
			x.moreOut = true

			if out, ok := x.outpipes[string(msg.Data())]; ok {
				x.currentOut = out.pipe
				if !x.currentOut.checkWrite() {
					out.active = false
					x.currentOut = nil
					if x.mandatory {
						x.moreOut = false
						return gerrors.ErrWouldBlock
					}
				}
			} else if x.mandatory {
				x.moreOut = false
				return gerrors.ErrHostUnreachable
			}
		}
		msg.Init()
		return nil
	}

	x.moreOut = msg.More()

	if x.currentOut != nil {
		if !x.currentOut.write(msg) {
			x.currentOut = nil
		} else if !x.moreOut {
			x.currentOut.flush()
			x.currentOut = nil
		}
	}
	msg.Init()
	return nil
}

// rollback drops the frames of the message being sent
func (x *router) rollback() {
	if x.currentOut != nil {
		x.currentOut.rollback()
		x.currentOut = nil
	}
	x.moreOut = false
}

func (x *router) recv(msg *Msg) error {
	if x.prefetched {
		if !x.identitySent {
			msg.assign(x.prefetchedID)
			x.identitySent = true
		} else {
			msg.assign(x.prefetchedMsg)
			x.prefetched = false
		}
		x.moreIn = msg.More()
		return nil
	}

	p, err := x.fq.recvPipe(msg)
	// a reconnected peer sends its identity again
	for err == nil && msg.isIdentity() {
		p, err = x.fq.recvPipe(msg)
	}
	if err != nil {
		return err
	}

	if x.moreIn {
		x.moreIn = msg.More()
		return nil
	}

	// first frame of a message: return the identity and keep the frame
	x.prefetchedMsg.assign(msg)
	x.prefetched = true

	msg.Init()
	msg.SetData(p.getIdentity())
	msg.setMore(true)
	x.identitySent = true
	x.moreIn = true
	return nil
}

func (x *router) hasIn() bool {
	if x.moreIn || x.prefetched {
		return true
	}

	p, err := x.fq.recvPipe(x.prefetchedMsg)
	for err == nil && x.prefetchedMsg.isIdentity() {
		p, err = x.fq.recvPipe(x.prefetchedMsg)
	}
	if err != nil {
		return false
	}

	x.prefetchedID.Init()
	x.prefetchedID.SetData(p.getIdentity())
	x.prefetchedID.setMore(true)
	x.prefetched = true
	x.identitySent = false
	return true
}

func (x *router) hasOut() bool {
	return true
}

// identifyPeer reads the identity message of the pipe. Peers without an
// identity get a generated one; duplicate identities are ignored.
func (x *router) identifyPeer(p *pipe) bool {
	msg, ok := p.read()
	if !ok {
		return false
	}

	var identity []byte
	if msg.Size() == 0 {
		identity = x.nextIdentity()
	} else {
		identity = msg.Data()
		if _, ok := x.outpipes[string(identity)]; ok {
			return false
		}
	}

	p.setIdentity(identity)
	x.outpipes[string(identity)] = &outpipe{pipe: p, active: true}
	return true
}

// nextIdentity generates a peer identity. Generated identities start with
// a zero byte, which user supplied identities cannot.
func (x *router) nextIdentity() []byte {
	identity := make([]byte, 5)
	binary.BigEndian.PutUint32(identity[1:], x.nextPeerID)
	x.nextPeerID++
	return identity
}

// rep is a router enforcing strict request/reply alternation. The routing
// envelope of a request is kept and sent back with the reply.
type rep struct {
	*router
	sendingReply  bool
	requestBegins bool
}

var _ pattern = (*rep)(nil)

func newRep(opts *options) *rep {
	return &rep{router: newRouter(opts), requestBegins: true}
}

func (x *rep) send(msg *Msg) error {
	if !x.sendingReply {
		return errInvalidState("cannot send a reply before receiving a request")
	}

	more := msg.More()
	if err := x.router.send(msg); err != nil {
		return err
	}

	if !more {
		x.sendingReply = false
	}
	return nil
}

func (x *rep) recv(msg *Msg) error {
	if x.sendingReply {
		return errInvalidState("cannot receive a request before sending the previous reply")
	}

	if x.requestBegins {
		// copy the envelope, up to the empty delimiter, to the reply pipe
		for {
			if err := x.router.recv(msg); err != nil {
				return err
			}

			if msg.More() {
				bottom := msg.Size() == 0
				if err := x.router.send(msg); err != nil {
					return err
				}
				if bottom {
					break
				}
				continue
			}

			// malformed envelope, drop what was copied so far
			x.router.rollback()
		}
		x.requestBegins = false
	}

	if err := x.router.recv(msg); err != nil {
		return err
	}

	if !msg.More() {
		x.sendingReply = true
		x.requestBegins = true
	}
	return nil
}

func (x *rep) hasIn() bool {
	if x.sendingReply {
		return false
	}
	return x.router.hasIn()
}

func (x *rep) hasOut() bool {
	if !x.sendingReply {
		return false
	}
	return x.router.hasOut()
}
