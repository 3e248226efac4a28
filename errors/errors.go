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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminating is returned when the owning context, or the socket itself, has been stopped.
	// Every public socket operation checks for it on entry and at every suspension point.
	ErrTerminating = errors.New("context is terminating")

	// ErrAddressInUse is returned when binding an endpoint address that is already registered.
	ErrAddressInUse = errors.New("address already in use")

	// ErrProtocolNotSupported is returned for an unknown transport protocol, or for a multicast
	// protocol combined with a socket type outside the publish/subscribe family.
	ErrProtocolNotSupported = errors.New("protocol not supported")

	// ErrEndpointNotFound is returned when disconnecting or unbinding an address that was never
	// bound or connected, or when connecting to an in-process address nobody is bound to.
	ErrEndpointNotFound = errors.New("endpoint not found")

	// ErrInvalidArgument is returned for malformed input: an uninitialized message, a malformed
	// endpoint address, an invalid option value or a readiness-poll failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrWouldBlock is returned by a non-blocking operation that cannot complete immediately.
	ErrWouldBlock = errors.New("operation would block")

	// ErrTimedOut is returned by a blocking operation whose deadline elapsed.
	ErrTimedOut = errors.New("operation timed out")

	// ErrNoIOThread is returned when a transport needs an I/O thread but none is available.
	ErrNoIOThread = errors.New("no I/O thread available")

	// ErrDisposed is returned when using a socket after Close.
	ErrDisposed = errors.New("socket is disposed")

	// ErrNotSupported is returned when the socket type does not support the operation.
	ErrNotSupported = errors.New("operation not supported by socket type")

	// ErrInvalidState is returned when an operation is not valid in the current state of the
	// socket's messaging pattern (e.g. two consecutive sends on a request socket).
	ErrInvalidState = errors.New("operation cannot be accomplished in current state")

	// ErrTooManySockets is returned when the context reached its maximum number of sockets.
	ErrTooManySockets = errors.New("too many open sockets")

	// ErrHostUnreachable is returned when a message cannot be routed to its destination.
	ErrHostUnreachable = errors.New("host unreachable")

	// ErrInvalidSocketType is returned when creating a socket with an unknown type.
	ErrInvalidSocketType = errors.New("invalid socket type")
)

// Code is a stable numeric error code. It is carried by monitor events whose payload is an
// error (bind-failed, accept-failed, close-failed, connect-delayed).
type Code uint32

const (
	// CodeUnknown is used for errors outside the taxonomy, typically raw network errors.
	CodeUnknown Code = iota + 1
	CodeTerminating
	CodeAddressInUse
	CodeProtocolNotSupported
	CodeEndpointNotFound
	CodeInvalidArgument
	CodeWouldBlock
	CodeTimedOut
	CodeNoIOThread
	CodeDisposed
	CodeNotSupported
	CodeInvalidState
	CodeTooManySockets
	CodeHostUnreachable
	CodeInvalidSocketType
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrTerminating, CodeTerminating},
	{ErrAddressInUse, CodeAddressInUse},
	{ErrProtocolNotSupported, CodeProtocolNotSupported},
	{ErrEndpointNotFound, CodeEndpointNotFound},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrWouldBlock, CodeWouldBlock},
	{ErrTimedOut, CodeTimedOut},
	{ErrNoIOThread, CodeNoIOThread},
	{ErrDisposed, CodeDisposed},
	{ErrNotSupported, CodeNotSupported},
	{ErrInvalidState, CodeInvalidState},
	{ErrTooManySockets, CodeTooManySockets},
	{ErrHostUnreachable, CodeHostUnreachable},
	{ErrInvalidSocketType, CodeInvalidSocketType},
}

// CodeOf returns the numeric code of the given error. A nil error yields zero.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}

// ErrorOf returns the sentinel error for the given code, or nil when the code is zero or unknown.
func ErrorOf(code Code) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// NewErrAddressInUse wraps ErrAddressInUse with the conflicting address.
func NewErrAddressInUse(address string) error {
	return fmt.Errorf("cannot bind address=(%s): %w", address, ErrAddressInUse)
}

// NewErrProtocolNotSupported wraps ErrProtocolNotSupported with the offending protocol.
func NewErrProtocolNotSupported(protocol string) error {
	return fmt.Errorf("protocol=(%s): %w", protocol, ErrProtocolNotSupported)
}

// NewErrEndpointNotFound wraps ErrEndpointNotFound with the missing address.
func NewErrEndpointNotFound(address string) error {
	return fmt.Errorf("endpoint=(%s): %w", address, ErrEndpointNotFound)
}

// NewErrInvalidArgument wraps ErrInvalidArgument with a reason.
func NewErrInvalidArgument(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidArgument)
}
