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
	"strings"

	gerrors "github.com/tochemey/gomq/errors"
)

// Type identifies a messaging pattern.
type Type int

const (
	Pair Type = iota
	Pub
	Sub
	Req
	Rep
	Dealer
	Router
	Pull
	Push
	XPub
	XSub
	Stream
)

var typeNames = [...]string{
	Pair:   "PAIR",
	Pub:    "PUB",
	Sub:    "SUB",
	Req:    "REQ",
	Rep:    "REP",
	Dealer: "DEALER",
	Router: "ROUTER",
	Pull:   "PULL",
	Push:   "PUSH",
	XPub:   "XPUB",
	XSub:   "XSUB",
	Stream: "STREAM",
}

// String returns the conventional upper case name of the type.
func (t Type) String() string {
	if t.valid() {
		return typeNames[t]
	}
	return "UNKNOWN"
}

func (t Type) valid() bool {
	return t >= Pair && t <= Stream
}

// isPubSub reports whether the type belongs to the publish/subscribe
// family, the only one allowed on multicast transports.
func (t Type) isPubSub() bool {
	switch t {
	case Pub, Sub, XPub, XSub:
		return true
	default:
		return false
	}
}

// ParseType returns the type with the given name, case insensitive.
func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if strings.EqualFold(n, name) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("type=(%s): %w", name, gerrors.ErrInvalidSocketType)
}

// compatible reports whether a peer of the given type may talk to a socket
// of this type over a stream connection.
func (t Type) compatible(peer Type) bool {
	switch t {
	case Pair:
		return peer == Pair
	case Pub, XPub:
		return peer == Sub || peer == XSub
	case Sub, XSub:
		return peer == Pub || peer == XPub
	case Req:
		return peer == Rep || peer == Router
	case Rep:
		return peer == Req || peer == Dealer
	case Dealer:
		return peer == Rep || peer == Dealer || peer == Router
	case Router:
		return peer == Req || peer == Dealer || peer == Router
	case Pull:
		return peer == Push
	case Push:
		return peer == Pull
	default:
		return false
	}
}
