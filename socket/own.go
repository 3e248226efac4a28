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

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"
)

// ownable is an actor taking part in the ownership tree.
type ownable interface {
	actor
	ownNode() *own
	// processTerm starts the termination of the actor and of its children
	processTerm(linger time.Duration)
	// processDestroy is called exactly once, when every child and pipe of
	// the actor has acknowledged its termination
	processDestroy()
}

// own is the node of an actor in the ownership arena.
//
// The owner and the children are referenced by identifier. The context keeps
// the arena that maps identifiers back to actors, so that no actor holds a
// handle on its parent.
//
// Sequence numbers count the commands that may create new children
// (plug, own, attach, bind). An actor only destroys itself once it has
// processed as many of them as were sent to it, so a child handed over while
// the actor was shutting down is never lost.
type own struct {
	object

	id   uint64
	self ownable
	opts *options

	owner       uint64
	owned       mapset.Set[uint64]
	terminating bool
	destroyed   bool
	termAcks    int

	sentSeqnum      *atomic.Uint64
	processedSeqnum uint64
}

func (o *own) init(ctx *Context, tid int, self ownable, opts *options) {
	o.ctx = ctx
	o.tid = tid
	o.self = self
	o.opts = opts
	o.id = ctx.nextActorID()
	o.owned = mapset.NewThreadUnsafeSet[uint64]()
	o.sentSeqnum = atomic.NewUint64(0)
	ctx.actors.Set(o.id, self)
}

func (o *own) ownNode() *own {
	return o
}

// release removes the actor from the arena
func (o *own) release() {
	o.ctx.actors.Delete(o.id)
}

func (o *own) incSeqnum() {
	o.sentSeqnum.Inc()
}

func (o *own) processSeqnum() {
	o.processedSeqnum++
	o.checkTermAcks()
}

// processCommonCommand handles the ownership commands shared by every
// ownable actor. It reports whether the command was one of them.
func (o *own) processCommonCommand(cmd command) bool {
	switch cmd.kind {
	case cmdOwn:
		o.processOwn(cmd.object.(ownable))
		o.processSeqnum()
	case cmdTermReq:
		o.processTermReq(cmd.object.(ownable))
	case cmdTerm:
		o.self.processTerm(cmd.linger)
	case cmdTermAck:
		o.processTermAck()
	default:
		return false
	}
	return true
}

// launchChild makes this actor the owner of child and plugs it in
func (o *own) launchChild(child ownable) {
	child.ownNode().owner = o.id
	o.sendPlug(child, true)
	o.sendOwn(o.self, child)
}

// termChild asks a child to shut down
func (o *own) termChild(child ownable) {
	o.processTermReq(child)
}

func (o *own) processTermReq(child ownable) {
	if o.terminating {
		return
	}

	id := child.ownNode().id
	if !o.owned.Contains(id) {
		return
	}
	o.owned.Remove(id)
	o.registerTermAcks(1)
	o.sendTerm(child, o.opts.linger)
}

func (o *own) processOwn(child ownable) {
	if o.terminating {
		o.registerTermAcks(1)
		o.sendTerm(child, 0)
		return
	}
	o.owned.Add(child.ownNode().id)
}

// terminate asks the owner to shut this actor down. An actor without owner
// starts its termination right away.
func (o *own) terminate() {
	if o.terminating {
		return
	}

	if o.owner == 0 {
		o.self.processTerm(o.opts.linger)
		return
	}

	if owner, ok := o.ctx.actors.Get(o.owner); ok {
		o.sendTermReq(owner, o.self)
	}
}

func (o *own) isTerminating() bool {
	return o.terminating
}

// processTerm sends a term command to every child and waits for their
// acknowledgments. Concrete actors override it and call it last.
func (o *own) processTerm(linger time.Duration) {
	sent := 0
	for _, id := range o.owned.ToSlice() {
		if child, ok := o.ctx.actors.Get(id); ok {
			o.sendTerm(child, linger)
			sent++
		}
	}
	o.registerTermAcks(sent)
	o.owned.Clear()

	o.terminating = true
	o.checkTermAcks()
}

func (o *own) registerTermAcks(count int) {
	o.termAcks += count
}

func (o *own) unregisterTermAck() {
	o.termAcks--
	o.checkTermAcks()
}

func (o *own) processTermAck() {
	o.unregisterTermAck()
}

func (o *own) checkTermAcks() {
	if o.destroyed || !o.terminating || o.termAcks > 0 {
		return
	}
	if o.processedSeqnum != o.sentSeqnum.Load() {
		return
	}

	if o.owner != 0 {
		if owner, ok := o.ctx.actors.Get(o.owner); ok {
			o.sendTermAck(owner)
		}
	}

	o.destroyed = true
	o.self.processDestroy()
}
