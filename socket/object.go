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
	"time"
)

// actor is a unit of the command graph: sockets, sessions, listeners,
// connecters, engines, pipes, I/O threads and the reaper.
type actor interface {
	// threadID returns the slot of the mailbox commands to this actor go to
	threadID() int
	processCommand(cmd command)
}

// object carries what every actor needs to send commands: its context and
// the slot of the thread it lives on.
type object struct {
	ctx *Context
	tid int
}

func (o *object) threadID() int {
	return o.tid
}

func (o *object) send(cmd command) {
	o.ctx.sendCommand(cmd.destination.threadID(), cmd)
}

func (o *object) sendStop(destination actor) {
	o.send(command{destination: destination, kind: cmdStop})
}

func (o *object) sendPlug(destination ownable, incSeqnum bool) {
	if incSeqnum {
		destination.ownNode().incSeqnum()
	}
	o.send(command{destination: destination, kind: cmdPlug})
}

func (o *object) sendOwn(destination ownable, child ownable) {
	destination.ownNode().incSeqnum()
	o.send(command{destination: destination, kind: cmdOwn, object: child})
}

func (o *object) sendAttach(destination *session, e engine, incSeqnum bool) {
	if incSeqnum {
		destination.incSeqnum()
	}
	o.send(command{destination: destination, kind: cmdAttach, object: e})
}

func (o *object) sendBind(destination ownable, p *pipe, incSeqnum bool) {
	if incSeqnum {
		destination.ownNode().incSeqnum()
	}
	o.send(command{destination: destination, kind: cmdBind, object: p})
}

func (o *object) sendActivateRead(destination *pipe) {
	o.send(command{destination: destination, kind: cmdActivateRead})
}

func (o *object) sendActivateWrite(destination *pipe, msgsRead uint64) {
	o.send(command{destination: destination, kind: cmdActivateWrite, count: msgsRead})
}

func (o *object) sendHiccup(destination *pipe, inbound *ypipe) {
	o.send(command{destination: destination, kind: cmdHiccup, object: inbound})
}

func (o *object) sendPipeTerm(destination *pipe) {
	o.send(command{destination: destination, kind: cmdPipeTerm})
}

func (o *object) sendPipeTermAck(destination *pipe) {
	o.send(command{destination: destination, kind: cmdPipeTermAck})
}

func (o *object) sendTermReq(destination ownable, child ownable) {
	o.send(command{destination: destination, kind: cmdTermReq, object: child})
}

func (o *object) sendTerm(destination ownable, linger time.Duration) {
	o.send(command{destination: destination, kind: cmdTerm, linger: linger})
}

func (o *object) sendTermAck(destination ownable) {
	o.send(command{destination: destination, kind: cmdTermAck})
}

func (o *object) sendReap(s *Socket) {
	o.ctx.sendCommand(reaperTID, command{destination: o.ctx.reaper, kind: cmdReap, object: s})
}

func (o *object) sendReaped() {
	o.ctx.sendCommand(reaperTID, command{destination: o.ctx.reaper, kind: cmdReaped})
}

func (o *object) sendDone() {
	o.ctx.sendCommand(termTID, command{kind: cmdDone})
}
