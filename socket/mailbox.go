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

	gods "github.com/Workiva/go-datastructures/queue"
)

// mailbox is the FIFO command inbox of an actor. Any number of threads may
// send to it; only its owner receives from it.
//
// Every send also pulses the signal channel. The channel is what the reaper
// and Poll wait on, and it is exposed as the socket's native handle. A pulse
// may be stale: receivers always check the queue after waking up.
type mailbox struct {
	name     string
	commands *gods.Queue
	signal   chan struct{}
}

func newMailbox(name string) *mailbox {
	return &mailbox{
		name:     name,
		commands: gods.New(16),
		signal:   make(chan struct{}, 1),
	}
}

func (m *mailbox) send(cmd command) {
	if err := m.commands.Put(cmd); err != nil {
		// the mailbox has been disposed, its actor is gone
		return
	}
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// recv returns the next command. A zero timeout never blocks, a negative
// timeout blocks until a command arrives, a positive one waits at most that
// long. The boolean is false when no command was received.
func (m *mailbox) recv(timeout time.Duration) (command, bool) {
	var (
		items []any
		err   error
	)

	switch {
	case timeout == 0:
		if m.commands.Len() == 0 {
			return command{}, false
		}
		items, err = m.commands.Get(1)
	case timeout < 0:
		items, err = m.commands.Get(1)
	default:
		items, err = m.commands.Poll(1, timeout)
	}

	// a timeout or a disposed queue both mean nothing was received
	if err != nil || len(items) == 0 {
		return command{}, false
	}
	return items[0].(command), true
}

// handle returns the readiness channel of the mailbox
func (m *mailbox) handle() <-chan struct{} {
	return m.signal
}

func (m *mailbox) close() {
	m.commands.Dispose()
}
