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
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-sockaddr"
)

// TCPAddress is a resolved tcp endpoint.
type TCPAddress struct {
	addr *net.TCPAddr
}

var _ Address = (*TCPAddress)(nil)

// NewTCPAddress wraps an already resolved address, typically the one a listener is bound to.
func NewTCPAddress(addr *net.TCPAddr) *TCPAddress {
	return &TCPAddress{addr: addr}
}

// ResolveTCP parses host:port. The port is taken after the last colon so
// bracketed and bare IPv6 hosts both work. A port of * or 0 requests a
// system-assigned port, a host of * the wildcard address. Other hosts are tried
// as a literal IP, then as a network interface name, then through DNS.
func ResolveTCP(addr string, ipv4Only bool) (*TCPAddress, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return nil, fmt.Errorf("address=(%s): %w", addr, ErrInvalidPort)
	}

	host := addr[:idx]
	portStr := addr[idx+1:]

	port := 0
	if portStr != "*" && portStr != "0" {
		p, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("address=(%s): %w", addr, ErrInvalidPort)
		}
		port = int(p)
	}

	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	ip, err := resolveHost(host, ipv4Only)
	if err != nil {
		return nil, err
	}
	return &TCPAddress{addr: &net.TCPAddr{IP: ip, Port: port}}, nil
}

// Network implements net.Addr.
func (a *TCPAddress) Network() string {
	return "tcp"
}

// Protocol returns tcp.
func (a *TCPAddress) Protocol() string {
	return TCP
}

// String returns host:port.
func (a *TCPAddress) String() string {
	return a.addr.String()
}

// Endpoint returns tcp://host:port.
func (a *TCPAddress) Endpoint() string {
	return Join(TCP, a.addr.String())
}

// TCPAddr returns the underlying address.
func (a *TCPAddress) TCPAddr() *net.TCPAddr {
	return a.addr
}

// Port returns the port, zero when a system-assigned port was requested and not yet bound.
func (a *TCPAddress) Port() int {
	return a.addr.Port
}

func resolveHost(host string, ipv4Only bool) (net.IP, error) {
	if host == "*" || host == "" {
		if ipv4Only {
			return net.IPv4zero, nil
		}
		return net.IPv6unspecified, nil
	}

	if ip := net.ParseIP(host); ip != nil {
		if ipv4Only && ip.To4() == nil {
			return nil, fmt.Errorf("host=(%s) is not IPv4: %w", host, ErrUnresolvedHost)
		}
		return ip, nil
	}

	if _, err := net.InterfaceByName(host); err == nil {
		ipStr, err := sockaddr.GetInterfaceIP("^" + regexp.QuoteMeta(host) + "$")
		if err == nil && ipStr != "" {
			if ip := net.ParseIP(ipStr); ip != nil {
				return ip, nil
			}
		}
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("host=(%s): %v: %w", host, err, ErrUnresolvedHost)
	}

	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}
	if !ipv4Only && len(ips) > 0 {
		return ips[0], nil
	}
	return nil, fmt.Errorf("host=(%s): %w", host, ErrUnresolvedHost)
}
