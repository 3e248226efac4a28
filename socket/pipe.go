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
	"go.uber.org/atomic"

	"github.com/tochemey/gomq/internal/queue"
)

// maxWatermarkDelta bounds the distance between the high and low water
// marks of a pipe
const maxWatermarkDelta = 1024

// ypipe is one direction of a pipe: a lock-free queue written by one end
// and read by the other. The reader flags itself asleep when it finds the
// queue empty; the writer wakes it up with an activate-read command.
type ypipe struct {
	queue  *queue.Mpsc[*Msg]
	asleep *atomic.Bool
}

func newYpipe() *ypipe {
	return &ypipe{
		queue:  queue.NewMpsc[*Msg](),
		asleep: atomic.NewBool(false),
	}
}

// checkRead reports whether a message can be read. When it cannot, the
// reader is asleep and the next flush sends it an activate-read command.
func (y *ypipe) checkRead() bool {
	if !y.queue.IsEmpty() {
		return true
	}
	y.asleep.Store(true)
	if y.queue.IsEmpty() {
		return false
	}
	// a writer raced us. Whether it saw us asleep or not, the message is
	// there and a spurious activation is harmless.
	y.asleep.CompareAndSwap(true, false)
	return true
}

func (y *ypipe) read() (*Msg, bool) {
	if !y.checkRead() {
		return nil, false
	}
	return y.queue.Pop()
}

func (y *ypipe) peek() (*Msg, bool) {
	return y.queue.Peek()
}

// publish appends messages and reports whether the reader must be woken up
func (y *ypipe) publish(msgs []*Msg) bool {
	for _, msg := range msgs {
		y.queue.Push(msg)
	}
	return y.asleep.CompareAndSwap(true, false)
}

type pipeState uint8

const (
	pipeActive pipeState = iota
	// the delimiter arrived before the term command
	pipeDelimiterReceived
	// the term command arrived, pending messages are still being read
	pipeWaitingForDelimiter
	// the term ack was sent, waiting for the peer's ack
	pipeTermAckSent
	// the term command was sent, waiting for the peer's term or ack
	pipeTermReqSent1
	// both term commands crossed, waiting for the peer's ack
	pipeTermReqSent2
)

// pipeEventSink receives the notifications of a pipe. Sockets and sessions
// implement it.
type pipeEventSink interface {
	readActivated(p *pipe)
	writeActivated(p *pipe)
	hiccuped(p *pipe)
	pipeTerminated(p *pipe)
}

// pipe is one end of a bidirectional, flow controlled channel between two
// actors. Each end is used by the thread of the actor it is attached to;
// the two ends talk through the ypipes and through commands.
type pipe struct {
	object

	inpipe  *ypipe
	outpipe *ypipe

	// frames written but not yet flushed, complete marks the end of the
	// last complete message among them
	pending  []*Msg
	complete int

	inActive  bool
	outActive bool

	hwm int
	lwm int

	msgsRead      uint64
	msgsWritten   uint64
	peersMsgsRead uint64

	peer  *pipe
	sink  pipeEventSink
	state pipeState

	// delay keeps the pending inbound messages readable when the peer
	// terminates the pipe
	delay bool

	identity []byte
}

// pipePair creates the two connected ends of a pipe. The first end is used
// by parents[0] and writes with hwms[0], the second one is used by
// parents[1] and writes with hwms[1].
func pipePair(parents [2]actor, ctx *Context, hwms [2]int, delays [2]bool) [2]*pipe {
	upipe1 := newYpipe()
	upipe2 := newYpipe()

	first := newPipe(ctx, parents[0].threadID(), upipe1, upipe2, hwms[1], hwms[0], delays[0])
	second := newPipe(ctx, parents[1].threadID(), upipe2, upipe1, hwms[0], hwms[1], delays[1])
	first.peer = second
	second.peer = first
	return [2]*pipe{first, second}
}

func newPipe(ctx *Context, tid int, inpipe, outpipe *ypipe, inhwm, outhwm int, delay bool) *pipe {
	return &pipe{
		object:    object{ctx: ctx, tid: tid},
		inpipe:    inpipe,
		outpipe:   outpipe,
		inActive:  true,
		outActive: true,
		hwm:       outhwm,
		lwm:       computeLWM(inhwm),
		state:     pipeActive,
		delay:     delay,
	}
}

func computeLWM(hwm int) int {
	if hwm > maxWatermarkDelta*2 {
		return hwm - maxWatermarkDelta
	}
	return (hwm + 1) / 2
}

// setEventSink attaches the pipe to the actor that will use it
func (p *pipe) setEventSink(sink pipeEventSink) {
	p.sink = sink
}

// setNoDelay makes the pipe acknowledge a termination right away, for
// sockets that never read the delimiter
func (p *pipe) setNoDelay() {
	p.delay = false
}

func (p *pipe) setIdentity(identity []byte) {
	p.identity = identity
}

func (p *pipe) getIdentity() []byte {
	return p.identity
}

func (p *pipe) readable() bool {
	return p.inActive && (p.state == pipeActive || p.state == pipeWaitingForDelimiter)
}

// checkRead reports whether a message is available
func (p *pipe) checkRead() bool {
	if !p.readable() {
		return false
	}

	if !p.inpipe.checkRead() {
		p.inActive = false
		return false
	}

	if msg, ok := p.inpipe.peek(); ok && msg.isDelimiter() {
		p.inpipe.read()
		p.processDelimiter()
		return false
	}
	return true
}

// read returns the next frame
func (p *pipe) read() (*Msg, bool) {
	if !p.readable() {
		return nil, false
	}

	msg, ok := p.inpipe.read()
	if !ok {
		p.inActive = false
		return nil, false
	}

	if msg.isDelimiter() {
		p.processDelimiter()
		return nil, false
	}

	if !msg.More() && !msg.isIdentity() {
		p.msgsRead++
		if p.lwm > 0 && p.msgsRead%uint64(p.lwm) == 0 {
			p.sendActivateWrite(p.peer, p.msgsRead)
		}
	}
	return msg, true
}

// checkWrite reports whether a frame can be written without exceeding the
// high water mark
func (p *pipe) checkWrite() bool {
	if !p.outActive || p.state != pipeActive {
		return false
	}

	if p.hwm > 0 && p.msgsWritten-p.peersMsgsRead >= uint64(p.hwm) {
		p.outActive = false
		return false
	}
	return true
}

// write queues a copy of the frame. It is only visible to the peer once the
// message is complete and flushed.
func (p *pipe) write(msg *Msg) bool {
	if !p.checkWrite() {
		return false
	}

	p.pending = append(p.pending, msg.copy())
	if !msg.More() {
		p.complete = len(p.pending)
		if !msg.isIdentity() {
			p.msgsWritten++
		}
	}
	return true
}

// rollback drops the frames of an incomplete message
func (p *pipe) rollback() {
	for i := p.complete; i < len(p.pending); i++ {
		p.pending[i] = nil
	}
	p.pending = p.pending[:p.complete]
}

// flush publishes the complete messages written so far
func (p *pipe) flush() {
	// the peer is gone
	if p.state == pipeTermAckSent || p.outpipe == nil {
		return
	}
	if p.complete == 0 {
		return
	}

	ready := p.pending[:p.complete]
	rest := append([]*Msg(nil), p.pending[p.complete:]...)
	wake := p.outpipe.publish(ready)
	p.pending = rest
	p.complete = 0

	if wake {
		p.sendActivateRead(p.peer)
	}
}

func (p *pipe) processCommand(cmd command) {
	switch cmd.kind {
	case cmdActivateRead:
		p.processActivateRead()
	case cmdActivateWrite:
		p.processActivateWrite(cmd.count)
	case cmdHiccup:
		p.processHiccup(cmd.object.(*ypipe))
	case cmdPipeTerm:
		p.processPipeTerm()
	case cmdPipeTermAck:
		p.processPipeTermAck()
	}
}

func (p *pipe) processActivateRead() {
	if !p.inActive && (p.state == pipeActive || p.state == pipeWaitingForDelimiter) {
		p.inActive = true
		p.sink.readActivated(p)
	}
}

func (p *pipe) processActivateWrite(msgsRead uint64) {
	p.peersMsgsRead = msgsRead
	if !p.outActive && p.state == pipeActive {
		p.outActive = true
		p.sink.writeActivated(p)
	}
}

func (p *pipe) processHiccup(inbound *ypipe) {
	// the peer abandoned the old queue, drain it and forget the messages
	// it never read
	for _, msg := range p.pending[:p.complete] {
		if !msg.More() && !msg.isIdentity() {
			p.msgsWritten--
		}
	}
	p.pending = nil
	p.complete = 0
	for {
		msg, ok := p.outpipe.queue.Pop()
		if !ok {
			break
		}
		if !msg.More() && !msg.isIdentity() && !msg.isDelimiter() {
			p.msgsWritten--
		}
	}

	p.outpipe = inbound
	p.outActive = true

	if p.state == pipeActive {
		p.sink.hiccuped(p)
	}
}

func (p *pipe) processPipeTerm() {
	switch p.state {
	case pipeActive:
		if p.delay {
			p.state = pipeWaitingForDelimiter
			return
		}
		p.state = pipeTermAckSent
		p.outpipe = nil
		p.sendPipeTermAck(p.peer)
	case pipeDelimiterReceived:
		p.state = pipeTermAckSent
		p.outpipe = nil
		p.sendPipeTermAck(p.peer)
	case pipeTermReqSent1:
		p.state = pipeTermReqSent2
		p.outpipe = nil
		p.sendPipeTermAck(p.peer)
	}
}

func (p *pipe) processPipeTermAck() {
	p.sink.pipeTerminated(p)

	if p.state == pipeTermReqSent1 {
		p.outpipe = nil
		p.sendPipeTermAck(p.peer)
	}

	// drop what was never read
	for {
		if _, ok := p.inpipe.queue.Pop(); !ok {
			break
		}
	}
	p.pending = nil
}

// terminate asks the pipe to shut down. With delay set, pending inbound
// messages can still be read before the pipe goes away.
func (p *pipe) terminate(delay bool) {
	p.delay = delay

	switch p.state {
	case pipeTermReqSent1, pipeTermReqSent2, pipeTermAckSent:
		return
	case pipeActive:
		p.sendPipeTerm(p.peer)
		p.state = pipeTermReqSent1
	case pipeWaitingForDelimiter:
		// with delay set the pending messages are read first
		if !p.delay {
			p.outpipe = nil
			p.sendPipeTermAck(p.peer)
			p.state = pipeTermAckSent
		}
	case pipeDelimiterReceived:
		p.sendPipeTerm(p.peer)
		p.state = pipeTermReqSent1
	}

	p.outActive = false

	if p.outpipe != nil {
		p.rollback()
		// the delimiter ignores the high water mark
		p.pending = append(p.pending, newDelimiterMsg())
		p.complete = len(p.pending)
		p.flush()
	}
}

func (p *pipe) processDelimiter() {
	if p.state == pipeActive {
		p.state = pipeDelimiterReceived
		return
	}
	p.outpipe = nil
	p.sendPipeTermAck(p.peer)
	p.state = pipeTermAckSent
}

// hiccup replaces the inbound queue after a reconnection. The messages the
// peer had queued but we had not read yet are dropped.
func (p *pipe) hiccup() {
	if p.state != pipeActive {
		return
	}
	p.inpipe = newYpipe()
	p.inActive = true
	p.sendHiccup(p.peer, p.inpipe)
}
