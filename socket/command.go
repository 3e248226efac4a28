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

type commandType uint8

const (
	cmdStop commandType = iota
	cmdPlug
	cmdOwn
	cmdAttach
	cmdBind
	cmdActivateRead
	cmdActivateWrite
	cmdHiccup
	cmdPipeTerm
	cmdPipeTermAck
	cmdTermReq
	cmdTerm
	cmdTermAck
	cmdReap
	cmdReaped
	cmdDone
	cmdInEvent
	cmdTimer
	cmdAccepted
	cmdAcceptFailed
	cmdConnected
	cmdConnectFailed
	cmdEngineReady
	cmdEngineInput
	cmdEngineOutput
	cmdEngineError
)

var commandNames = [...]string{
	cmdStop:          "stop",
	cmdPlug:          "plug",
	cmdOwn:           "own",
	cmdAttach:        "attach",
	cmdBind:          "bind",
	cmdActivateRead:  "activate-read",
	cmdActivateWrite: "activate-write",
	cmdHiccup:        "hiccup",
	cmdPipeTerm:      "pipe-term",
	cmdPipeTermAck:   "pipe-term-ack",
	cmdTermReq:       "term-req",
	cmdTerm:          "term",
	cmdTermAck:       "term-ack",
	cmdReap:          "reap",
	cmdReaped:        "reaped",
	cmdDone:          "done",
	cmdInEvent:       "in-event",
	cmdTimer:         "timer",
	cmdAccepted:      "accepted",
	cmdAcceptFailed:  "accept-failed",
	cmdConnected:     "connected",
	cmdConnectFailed: "connect-failed",
	cmdEngineReady:   "engine-ready",
	cmdEngineInput:   "engine-input",
	cmdEngineOutput:  "engine-output",
	cmdEngineError:   "engine-error",
}

func (t commandType) String() string {
	if int(t) < len(commandNames) {
		return commandNames[t]
	}
	return "unknown"
}

// command is an asynchronous instruction addressed to one actor.
// Commands are the only way actors living on different threads talk.
type command struct {
	destination actor
	kind        commandType
	// object carries the payload: a pipe, an engine, an owned child, a
	// connection or a batch of messages depending on kind
	object any
	linger time.Duration
	count  uint64
	err    error
}
