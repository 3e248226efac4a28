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
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/tochemey/gomq/address"
	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/log"
)

// acceptRetryDelay is the pause after a failed accept, so that a listener
// running out of file descriptors does not spin
const acceptRetryDelay = 100 * time.Millisecond

// boundEndpoint is the child serving a bound endpoint. setAddress opens
// the endpoint; a failure leaves nothing to clean up but the arena entry.
type boundEndpoint interface {
	ownable
	setAddress(protocol, addr string) error
	getEndpoint() string
	release()
}

var (
	_ boundEndpoint = (*listener)(nil)
	_ boundEndpoint = (*multicastListener)(nil)
)

// listener accepts tcp and ipc connections and hands every one of them to a
// new session.
type listener struct {
	own
	io       *ioThread
	socket   *Socket
	ln       net.Listener
	endpoint string
	handle   uint32
	done     chan struct{}
	logger   log.Logger
}

func newListener(io *ioThread, socket *Socket, opts *options) *listener {
	l := &listener{
		io:     io,
		socket: socket,
		handle: io.ctx.nextHandle(),
		done:   make(chan struct{}),
	}
	l.init(io.ctx, io.tid, l, opts.clone())
	return l
}

// setAddress binds the listening socket. The realized endpoint, with the
// system assigned port or path filled in, is then available through
// getEndpoint.
func (l *listener) setAddress(protocol, addr string) error {
	resolved, err := address.Resolve(protocol, addr, l.opts.ipv4Only)
	if err != nil {
		return err
	}

	switch a := resolved.(type) {
	case *address.TCPAddress:
		ln, err := net.ListenTCP("tcp", a.TCPAddr())
		if err != nil {
			return listenError(address.Join(protocol, addr), err)
		}
		l.ln = ln
		l.endpoint = address.NewTCPAddress(ln.Addr().(*net.TCPAddr)).Endpoint()
	case *address.IPCAddress:
		ln, err := net.ListenUnix("unix", a.UnixAddr())
		if err != nil {
			return listenError(address.Join(protocol, addr), err)
		}
		ln.SetUnlinkOnClose(true)
		l.ln = ln
		l.endpoint = a.Endpoint()
	default:
		return gerrors.NewErrProtocolNotSupported(protocol)
	}

	l.logger = l.ctx.logger.With("socket", l.opts.socketID, "endpoint", l.endpoint)
	return nil
}

func listenError(endpoint string, err error) error {
	if errors.Is(err, syscall.EADDRINUSE) {
		return gerrors.NewErrAddressInUse(endpoint)
	}
	return err
}

func (l *listener) getEndpoint() string {
	return l.endpoint
}

func (l *listener) processCommand(cmd command) {
	switch cmd.kind {
	case cmdPlug:
		l.processPlug()
		l.processSeqnum()
	case cmdAccepted:
		l.accepted(cmd.object.(net.Conn))
	case cmdAcceptFailed:
		l.socket.eventAcceptFailed(l.endpoint, cmd.err)
	default:
		if !l.processCommonCommand(cmd) {
			l.logger.Warnf("ignored command=(%s)", cmd.kind)
		}
	}
}

func (l *listener) processPlug() {
	l.io.adjustLoad(1)
	l.socket.eventListening(l.endpoint, l.handle)
	ln := l.ln
	l.io.spawn(func() { l.acceptLoop(ln) })
}

func (l *listener) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.io.post(command{destination: l, kind: cmdAcceptFailed, err: err})

			select {
			case <-l.done:
				return
			case <-time.After(acceptRetryDelay):
			}
			continue
		}
		l.io.post(command{destination: l, kind: cmdAccepted, object: conn})
	}
}

func (l *listener) accepted(conn net.Conn) {
	if l.terminating || l.destroyed {
		_ = conn.Close()
		return
	}

	tuneTCP(conn, l.opts)

	handle := l.ctx.nextHandle()
	e, err := newStreamEngine(conn, l.opts, l.endpoint, handle)
	if err != nil {
		_ = conn.Close()
		l.logger.Warnf("cannot start engine for accepted connection: %v", err)
		l.socket.eventAcceptFailed(l.endpoint, err)
		return
	}

	io := l.ctx.chooseIOThread(l.opts.affinity, conn.RemoteAddr().String())
	if io == nil {
		io = l.io
	}

	s := newSession(io, false, l.socket, l.opts, nil, l.endpoint)
	s.incSeqnum()
	l.launchChild(s)
	l.sendAttach(s, e, false)

	l.logger.Debugf("accepted connection from %s", conn.RemoteAddr())
	l.socket.eventAccepted(l.endpoint, handle)
}

func (l *listener) close() {
	if l.ln == nil {
		return
	}
	close(l.done)
	err := l.ln.Close()
	l.ln = nil
	if err != nil {
		l.socket.eventCloseFailed(l.endpoint, err)
		return
	}
	l.socket.eventClosed(l.endpoint, l.handle)
}

func (l *listener) processTerm(linger time.Duration) {
	l.close()
	l.own.processTerm(linger)
}

func (l *listener) processDestroy() {
	l.io.adjustLoad(-1)
	l.release()
}
