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
	"strconv"
	"strings"
)

// MulticastAddress is a pgm or epgm endpoint: an optional interface and a
// multicast group with its port.
type MulticastAddress struct {
	protocol string
	iface    string
	group    *net.UDPAddr
}

var _ Address = (*MulticastAddress)(nil)

// ResolveMulticast parses [interface;]group:port. The interface may be a name
// or one of its IP addresses.
func ResolveMulticast(protocol, addr string) (*MulticastAddress, error) {
	iface := ""
	rest := addr
	if idx := strings.Index(addr, ";"); idx >= 0 {
		iface = addr[:idx]
		rest = addr[idx+1:]
	}

	host, portStr, err := net.SplitHostPort(rest)
	if err != nil {
		return nil, fmt.Errorf("address=(%s): %v: %w", addr, err, ErrMalformedEndpoint)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return nil, fmt.Errorf("address=(%s): %w", addr, ErrInvalidPort)
	}

	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return nil, fmt.Errorf("group=(%s): %w", host, ErrNotMulticast)
	}

	return &MulticastAddress{
		protocol: protocol,
		iface:    iface,
		group:    &net.UDPAddr{IP: ip, Port: int(port)},
	}, nil
}

// Network implements net.Addr.
func (a *MulticastAddress) Network() string {
	return "udp4"
}

// Protocol returns pgm or epgm.
func (a *MulticastAddress) Protocol() string {
	return a.protocol
}

// String returns [interface;]group:port.
func (a *MulticastAddress) String() string {
	if a.iface == "" {
		return a.group.String()
	}
	return a.iface + ";" + a.group.String()
}

// Endpoint returns protocol://[interface;]group:port.
func (a *MulticastAddress) Endpoint() string {
	return Join(a.protocol, a.String())
}

// Group returns the multicast group address.
func (a *MulticastAddress) Group() *net.UDPAddr {
	return a.group
}

// Interface resolves the configured network interface. It returns nil when
// none was given, letting the system pick one.
func (a *MulticastAddress) Interface() (*net.Interface, error) {
	if a.iface == "" {
		return nil, nil
	}

	if ifi, err := net.InterfaceByName(a.iface); err == nil {
		return ifi, nil
	}

	ip := net.ParseIP(a.iface)
	if ip == nil {
		return nil, fmt.Errorf("interface=(%s): %w", a.iface, ErrUnresolvedHost)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("interface=(%s): %w", a.iface, ErrUnresolvedHost)
}
