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
	"sync"
)

// reaper finishes the shutdown of closed sockets so that Close never
// blocks the caller.
type reaper struct {
	object
	mailbox     *mailbox
	poller      *poller
	sockets     int
	terminating bool
	done        bool
}

func newReaper(ctx *Context, tid int) *reaper {
	r := &reaper{
		object:  object{ctx: ctx, tid: tid},
		mailbox: newMailbox("reaper"),
	}
	r.poller = newPoller(r.mailbox)
	return r
}

func (r *reaper) run() error {
	for !r.done {
		cmd, ok := r.mailbox.recv(-1)
		if !ok {
			break
		}
		cmd.destination.processCommand(cmd)
	}
	r.poller.wait()
	return nil
}

func (r *reaper) processCommand(cmd command) {
	switch cmd.kind {
	case cmdStop:
		r.processStop()
	case cmdReap:
		r.processReap(cmd.object.(*Socket))
	case cmdReaped:
		r.processReaped()
	}
}

func (r *reaper) stop() {
	r.sendStop(r)
}

func (r *reaper) processStop() {
	r.terminating = true
	if r.sockets == 0 {
		r.finish()
	}
}

func (r *reaper) processReap(s *Socket) {
	s.startReaping(r.poller)
	r.sockets++
}

func (r *reaper) processReaped() {
	r.sockets--
	if r.sockets == 0 && r.terminating {
		r.finish()
	}
}

func (r *reaper) finish() {
	if r.done {
		return
	}
	r.done = true
	r.sendDone()
}

// poller turns the mailbox signals of the sockets being reaped into
// in-event commands processed by the reaper.
type poller struct {
	sink    *mailbox
	handles map[*Socket]chan struct{}
	wg      sync.WaitGroup
}

func newPoller(sink *mailbox) *poller {
	return &poller{sink: sink, handles: make(map[*Socket]chan struct{})}
}

func (p *poller) addHandle(s *Socket) {
	stop := make(chan struct{})
	p.handles[s] = stop

	signal := s.mailbox.handle()
	event := command{destination: s, kind: cmdInEvent}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// commands may have arrived before the handle was added
		p.sink.send(event)
		for {
			select {
			case <-stop:
				return
			case <-signal:
				p.sink.send(event)
			}
		}
	}()
}

func (p *poller) removeHandle(s *Socket) {
	if stop, ok := p.handles[s]; ok {
		close(stop)
		delete(p.handles, s)
	}
}

func (p *poller) wait() {
	p.wg.Wait()
}
