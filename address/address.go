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

// Package address parses and resolves the endpoint strings accepted by
// Bind and Connect.
//
// An endpoint has the form:
//
//	<protocol>://<address>
//
// where protocol is one of inproc, tcp, ipc, pgm or epgm. The address part
// is transport specific:
//
//   - inproc: any non-empty name
//   - tcp: host:port, where host is an IP, an interface name, a DNS name or *,
//     and port is a number, 0 or * (the last two ask for a system-assigned port)
//   - ipc: a filesystem path for a unix domain socket, or * for a generated path
//   - pgm, epgm: [interface;]group:port where group is a multicast IPv4 address
//
// Splitting happens at the first occurrence of "://" and no other escaping is
// defined, so Join(Split(endpoint)) always yields the original string.
package address

import (
	"fmt"
	"net"
	"strings"
)

const separator = "://"

// Protocol names understood by the transports.
const (
	InProc = "inproc"
	TCP    = "tcp"
	IPC    = "ipc"
	PGM    = "pgm"
	EPGM   = "epgm"
)

// Address is a resolved transport address.
type Address interface {
	net.Addr
	// Protocol returns the endpoint protocol (tcp, ipc, pgm, epgm)
	Protocol() string
	// Endpoint returns the address in protocol://address form, with any
	// system-assigned part filled in once bound.
	Endpoint() string
}

// Split separates an endpoint into its protocol and address parts at the first "://".
func Split(endpoint string) (protocol, addr string, err error) {
	idx := strings.Index(endpoint, separator)
	if idx < 0 {
		return "", "", fmt.Errorf("endpoint=(%s): %w", endpoint, ErrMalformedEndpoint)
	}
	protocol = endpoint[:idx]
	addr = endpoint[idx+len(separator):]
	if protocol == "" || addr == "" {
		return "", "", fmt.Errorf("endpoint=(%s): %w", endpoint, ErrMalformedEndpoint)
	}
	return protocol, addr, nil
}

// Join builds an endpoint string from its parts.
func Join(protocol, addr string) string {
	return protocol + separator + addr
}

// IsSupported reports whether the protocol has a transport.
func IsSupported(protocol string) bool {
	switch protocol {
	case InProc, TCP, IPC, PGM, EPGM:
		return true
	default:
		return false
	}
}

// IsMulticast reports whether the protocol is one of the multicast transports.
func IsMulticast(protocol string) bool {
	return protocol == PGM || protocol == EPGM
}

// Resolve turns the address part of an endpoint into a transport address.
// When ipv4Only is set, wildcard and DNS resolution only yield IPv4 addresses.
func Resolve(protocol, addr string, ipv4Only bool) (Address, error) {
	switch protocol {
	case TCP:
		return ResolveTCP(addr, ipv4Only)
	case IPC:
		return ResolveIPC(addr)
	case PGM, EPGM:
		return ResolveMulticast(protocol, addr)
	default:
		return nil, fmt.Errorf("protocol=(%s): %w", protocol, ErrNotResolvable)
	}
}
