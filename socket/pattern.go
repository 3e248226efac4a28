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

	gerrors "github.com/tochemey/gomq/errors"
)

// pattern is the messaging behavior of a socket type. The socket actor
// calls it from the thread of the user, after draining commands.
//
// send and recv return ErrWouldBlock when the operation cannot complete
// yet; the socket then waits for commands and retries.
type pattern interface {
	attachPipe(p *pipe, icanhasall bool)
	terminated(p *pipe)
	readActivated(p *pipe)
	writeActivated(p *pipe)
	hiccuped(p *pipe)
	send(msg *Msg) error
	recv(msg *Msg) error
	hasIn() bool
	hasOut() bool
	// setOption handles the options specific to the pattern and reports
	// whether it did
	setOption(opt Option, value any) (bool, error)
}

func newPattern(socketType Type, opts *options) (pattern, error) {
	switch socketType {
	case Pair:
		return newPair(), nil
	case Pub:
		return newPub(), nil
	case Sub:
		return newSub(), nil
	case XPub:
		return newXPub(), nil
	case XSub:
		return newXSub(), nil
	case Req:
		return newReq(), nil
	case Rep:
		return newRep(opts), nil
	case Dealer:
		return newDealer(), nil
	case Router:
		return newRouter(opts), nil
	case Pull:
		return newPull(), nil
	case Push:
		return newPush(), nil
	case Stream:
		return newStream(opts), nil
	default:
		return nil, fmt.Errorf("type=(%d): %w", int(socketType), gerrors.ErrInvalidSocketType)
	}
}

// basePattern provides the defaults shared by most patterns
type basePattern struct{}

func (basePattern) hiccuped(*pipe) {}

func (basePattern) setOption(Option, any) (bool, error) {
	return false, nil
}

// sendOnly is embedded by patterns that cannot receive
type sendOnly struct{}

func (sendOnly) recv(*Msg) error { return gerrors.ErrNotSupported }

func (sendOnly) hasIn() bool { return false }

func (sendOnly) readActivated(*pipe) {}

// recvOnly is embedded by patterns that cannot send
type recvOnly struct{}

func (recvOnly) send(*Msg) error { return gerrors.ErrNotSupported }

func (recvOnly) hasOut() bool { return false }

func (recvOnly) writeActivated(*pipe) {}

func errInvalidState(reason string) error {
	return fmt.Errorf("%s: %w", reason, gerrors.ErrInvalidState)
}
