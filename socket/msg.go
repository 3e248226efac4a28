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
	"bytes"
)

type msgFlags uint8

const (
	flagMore msgFlags = 1 << iota
	flagIdentity
	flagDelimiter
)

// Msg is one frame of a message. A message is a sequence of frames where
// every frame but the last has the more flag set.
//
// The zero value is uninitialized: Send and Recv reject it. Use NewMsg, or
// InitMsg on a reused value.
type Msg struct {
	data        []byte
	flags       msgFlags
	initialized bool
}

// NewMsg creates an initialized frame holding data. The frame does not copy
// data.
func NewMsg(data []byte) *Msg {
	return &Msg{data: data, initialized: true}
}

// NewEmptyMsg creates an initialized frame with no data, ready to receive.
func NewEmptyMsg() *Msg {
	return &Msg{initialized: true}
}

// Init resets the frame and marks it initialized.
func (m *Msg) Init() {
	m.data = nil
	m.flags = 0
	m.initialized = true
}

// Initialized reports whether the frame can be used with Send or Recv.
func (m *Msg) Initialized() bool {
	return m != nil && m.initialized
}

// Data returns the frame's payload.
func (m *Msg) Data() []byte {
	return m.data
}

// SetData replaces the frame's payload.
func (m *Msg) SetData(data []byte) {
	m.data = data
}

// Size returns the payload length.
func (m *Msg) Size() int {
	return len(m.data)
}

// More reports whether another frame of the same message follows.
func (m *Msg) More() bool {
	return m.flags&flagMore != 0
}

// String returns the payload as a string.
func (m *Msg) String() string {
	return string(m.data)
}

// Equal reports whether two frames carry the same payload.
func (m *Msg) Equal(other *Msg) bool {
	return bytes.Equal(m.data, other.data)
}

func (m *Msg) setMore(more bool) {
	if more {
		m.flags |= flagMore
		return
	}
	m.flags &^= flagMore
}

func (m *Msg) isIdentity() bool {
	return m.flags&flagIdentity != 0
}

func (m *Msg) isDelimiter() bool {
	return m.flags&flagDelimiter != 0
}

// move transfers the content of m into a fresh frame and leaves m
// initialized and empty.
func (m *Msg) move() *Msg {
	out := &Msg{data: m.data, flags: m.flags, initialized: true}
	m.Init()
	return out
}

// copy returns a frame sharing the payload of m
func (m *Msg) copy() *Msg {
	return &Msg{data: m.data, flags: m.flags, initialized: true}
}

// assign makes m a copy of other
func (m *Msg) assign(other *Msg) {
	m.data = other.data
	m.flags = other.flags
	m.initialized = true
}

func newIdentityMsg(identity []byte) *Msg {
	return &Msg{data: identity, flags: flagIdentity, initialized: true}
}

func newDelimiterMsg() *Msg {
	return &Msg{flags: flagDelimiter, initialized: true}
}
