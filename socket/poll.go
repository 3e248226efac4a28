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
	"reflect"
	"time"

	gerrors "github.com/tochemey/gomq/errors"
)

// PollEvents is a set of socket readiness conditions.
type PollEvents int

const (
	// PollIn means a message can be received without waiting
	PollIn PollEvents = 1 << iota
	// PollOut means a message can be sent without waiting
	PollOut
)

// PollItem is a socket watched by Poll.
type PollItem struct {
	Socket *Socket
	// Events the caller is interested in
	Events PollEvents
	// ReadyEvents is set by Poll
	ReadyEvents PollEvents
}

// Poll waits until at least one of the items is ready for one of its
// events and returns the number of ready items. A zero timeout checks once,
// a negative timeout waits forever.
func Poll(items []PollItem, timeout time.Duration) (int, error) {
	for i := range items {
		if items[i].Socket == nil {
			return 0, gerrors.NewErrInvalidArgument("poll item without socket")
		}
	}

	var (
		deadline time.Time
		timer    *time.Timer
		cases    []reflect.SelectCase
	)

	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		ready, err := pollOnce(items)
		if err != nil || ready > 0 || timeout == 0 {
			return ready, err
		}

		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return 0, nil
			}
			if timer == nil {
				timer = time.NewTimer(remaining)
				defer timer.Stop()
			} else {
				timer.Reset(remaining)
			}
		}

		if cases == nil {
			cases = make([]reflect.SelectCase, 0, len(items)+1)
			for i := range items {
				cases = append(cases, reflect.SelectCase{
					Dir:  reflect.SelectRecv,
					Chan: reflect.ValueOf(items[i].Socket.mailbox.handle()),
				})
			}
			if timer != nil {
				cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(timer.C)})
			}
		}

		// a command arrived for one of the sockets, or the time is up
		reflect.Select(cases)
	}
}

func pollOnce(items []PollItem) (int, error) {
	ready := 0
	for i := range items {
		items[i].ReadyEvents = 0

		value, err := items[i].Socket.GetOption(Events)
		if err != nil {
			return 0, err
		}
		if items[i].Socket.ctxTerminated {
			return 0, gerrors.ErrTerminating
		}

		items[i].ReadyEvents = value.(PollEvents) & items[i].Events
		if items[i].ReadyEvents != 0 {
			ready++
		}
	}
	return ready, nil
}
