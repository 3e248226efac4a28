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

package address

import (
	"fmt"

	gerrors "github.com/tochemey/gomq/errors"
)

var (
	// ErrMalformedEndpoint is returned when an endpoint does not have the protocol://address form.
	ErrMalformedEndpoint = fmt.Errorf("endpoint must be protocol://address: %w", gerrors.ErrInvalidArgument)

	// ErrInvalidPort is returned when the port of a tcp or multicast address cannot be parsed.
	ErrInvalidPort = fmt.Errorf("invalid port: %w", gerrors.ErrInvalidArgument)

	// ErrUnresolvedHost is returned when a host name resolves to no usable IP address.
	ErrUnresolvedHost = fmt.Errorf("cannot resolve host: %w", gerrors.ErrInvalidArgument)

	// ErrNotMulticast is returned when a multicast endpoint names a unicast group.
	ErrNotMulticast = fmt.Errorf("group is not a multicast address: %w", gerrors.ErrInvalidArgument)

	// ErrNotResolvable is returned by Resolve for protocols that have no network address.
	ErrNotResolvable = fmt.Errorf("protocol has no resolvable address: %w", gerrors.ErrProtocolNotSupported)
)
