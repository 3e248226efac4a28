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
	"context"
	"net"
	"time"

	"github.com/flowchartsman/retry"

	"github.com/tochemey/gomq/address"
	"github.com/tochemey/gomq/log"
)

// dial attempts made before the backoff starts over from the reconnect
// interval
const dialAttemptsPerRound = 16

// connecter dials a tcp or ipc peer on behalf of a session, retrying with
// an exponential backoff until it succeeds or is terminated.
type connecter struct {
	own
	io       *ioThread
	session  *session
	socket   *Socket
	addr     address.Address
	endpoint string
	// wait for the reconnect interval before the first attempt
	wait bool

	runCtx   context.Context
	cancel   context.CancelFunc
	failures int
	logger   log.Logger
}

func newConnecter(io *ioThread, s *session, opts *options, addr address.Address, endpoint string, wait bool) *connecter {
	c := &connecter{
		io:       io,
		session:  s,
		socket:   s.socket,
		addr:     addr,
		endpoint: endpoint,
		wait:     wait,
		logger:   s.logger,
	}
	c.init(io.ctx, io.tid, c, opts)
	return c
}

func (c *connecter) processCommand(cmd command) {
	switch cmd.kind {
	case cmdPlug:
		c.processPlug()
		c.processSeqnum()
	case cmdConnected:
		c.connected(cmd.object.(net.Conn))
	case cmdConnectFailed:
		c.connectFailed(cmd.err)
	default:
		if !c.processCommonCommand(cmd) {
			c.logger.Warnf("ignored command=(%s)", cmd.kind)
		}
	}
}

func (c *connecter) processPlug() {
	c.io.adjustLoad(1)

	c.runCtx, c.cancel = context.WithCancel(context.Background())
	c.start(c.wait)
}

func (c *connecter) start(wait bool) {
	ctx := c.runCtx
	ivl, ivlMax := c.intervals()
	c.io.spawn(func() { c.connectLoop(ctx, wait, ivl, ivlMax) })
}

func (c *connecter) intervals() (time.Duration, time.Duration) {
	ivl := c.opts.reconnectIvl
	if ivl <= 0 {
		ivl = defaultOptions().reconnectIvl
	}
	ivlMax := c.opts.reconnectIvlMax
	if ivlMax < ivl {
		ivlMax = ivl
	}
	return ivl, ivlMax
}

func (c *connecter) connectLoop(ctx context.Context, wait bool, ivl, ivlMax time.Duration) {
	if wait {
		select {
		case <-ctx.Done():
			return
		case <-time.After(ivl):
		}
	}

	for ctx.Err() == nil {
		retrier := retry.NewRetrier(dialAttemptsPerRound, ivl, ivlMax)
		err := retrier.RunContext(ctx, func(ctx context.Context) error {
			conn, err := c.dial(ctx)
			if err != nil {
				if ctx.Err() == nil {
					c.io.post(command{destination: c, kind: cmdConnectFailed, err: err})
				}
				return err
			}
			c.io.post(command{destination: c, kind: cmdConnected, object: conn})
			return nil
		})
		if err == nil {
			return
		}
	}
}

func (c *connecter) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{KeepAlive: -1}
	switch a := c.addr.(type) {
	case *address.IPCAddress:
		return dialer.DialContext(ctx, "unix", a.String())
	default:
		return dialer.DialContext(ctx, "tcp", c.addr.String())
	}
}

func (c *connecter) connectFailed(err error) {
	if c.terminating || c.destroyed {
		return
	}

	c.failures++
	c.logger.Debugf("connect attempt %d failed: %v", c.failures, err)

	if c.failures == 1 {
		c.socket.eventConnectDelayed(c.endpoint, err)
		return
	}
	ivl, _ := c.intervals()
	c.socket.eventConnectRetried(c.endpoint, ivl)
}

func (c *connecter) connected(conn net.Conn) {
	if c.terminating || c.destroyed {
		_ = conn.Close()
		return
	}

	tuneTCP(conn, c.opts)

	handle := c.ctx.nextHandle()
	e, err := newStreamEngine(conn, c.opts, c.endpoint, handle)
	if err != nil {
		_ = conn.Close()
		c.logger.Warnf("cannot start engine: %v", err)
		c.start(true)
		return
	}

	c.logger.Debug("connected")
	c.sendAttach(c.session, e, true)
	c.terminate()
	c.socket.eventConnected(c.endpoint, handle)
}

func (c *connecter) processTerm(linger time.Duration) {
	if c.cancel != nil {
		c.cancel()
	}
	c.own.processTerm(linger)
}

func (c *connecter) processDestroy() {
	c.io.adjustLoad(-1)
	c.release()
}
