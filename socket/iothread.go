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
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// ioThread runs the command loop of the actors doing network work:
// sessions, listeners, connecters and engines. The blocking network calls
// themselves run on goroutines spawned by those actors, which report back
// through the mailbox.
type ioThread struct {
	object
	index   int
	mailbox *mailbox
	load    *atomic.Int64
	stopped bool
	// goroutines spawned on behalf of the actors of this thread
	wg sync.WaitGroup
}

func newIOThread(ctx *Context, tid, index int) *ioThread {
	return &ioThread{
		object:  object{ctx: ctx, tid: tid},
		index:   index,
		mailbox: newMailbox(fmt.Sprintf("iothread-%d", index)),
		load:    atomic.NewInt64(0),
	}
}

func (t *ioThread) run() error {
	logger := t.ctx.logger.With("iothread", t.index)
	logger.Debug("I/O thread started")

	for !t.stopped {
		cmd, ok := t.mailbox.recv(-1)
		if !ok {
			break
		}
		cmd.destination.processCommand(cmd)
	}

	t.wg.Wait()
	logger.Debug("I/O thread stopped")
	return nil
}

func (t *ioThread) processCommand(cmd command) {
	if cmd.kind == cmdStop {
		t.stopped = true
	}
}

func (t *ioThread) stop() {
	t.sendStop(t)
}

// spawn runs fn on a goroutine tracked by the thread
func (t *ioThread) spawn(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

func (t *ioThread) adjustLoad(delta int64) {
	t.load.Add(delta)
}

func (t *ioThread) getLoad() int64 {
	return t.load.Load()
}

// post delivers a command to this thread's mailbox, whatever the thread of
// the destination. Goroutines spawned by the thread use it to hand results
// back.
func (t *ioThread) post(cmd command) {
	t.mailbox.send(cmd)
}
