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
	"net"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// IPCAddress is a unix domain socket path.
type IPCAddress struct {
	addr *net.UnixAddr
}

var _ Address = (*IPCAddress)(nil)

// ResolveIPC resolves a socket path. A path of * yields a fresh path in the
// temporary directory.
func ResolveIPC(path string) (*IPCAddress, error) {
	if path == "*" {
		path = filepath.Join(os.TempDir(), "gomq-"+uuid.NewString()+".sock")
	}
	return &IPCAddress{addr: &net.UnixAddr{Name: path, Net: "unix"}}, nil
}

// Network implements net.Addr.
func (a *IPCAddress) Network() string {
	return "unix"
}

// Protocol returns ipc.
func (a *IPCAddress) Protocol() string {
	return IPC
}

// String returns the socket path.
func (a *IPCAddress) String() string {
	return a.addr.Name
}

// Endpoint returns ipc://path.
func (a *IPCAddress) Endpoint() string {
	return Join(IPC, a.addr.Name)
}

// UnixAddr returns the underlying address.
func (a *IPCAddress) UnixAddr() *net.UnixAddr {
	return a.addr
}
