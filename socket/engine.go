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
	"fmt"
	"io"
	"net"

	"github.com/tochemey/gomq/internal/codec"
	"github.com/tochemey/gomq/log"
)

const (
	// frames decoded before handing them to the session
	inBatchFrames = 64
	// bytes encoded before handing them to the writer
	outBatchSize = 8 << 10
	// read size of raw connections
	rawChunkSize = 8 << 10
)

// errIncompatiblePeer is reported when the greeting names a socket type
// this socket cannot talk to.
var errIncompatiblePeer = errors.New("incompatible peer socket type")

// engine moves messages between a session and the network. Engines live on
// the I/O thread of their session; their blocking calls run on goroutines
// that report back to that thread.
type engine interface {
	actor
	plug(io *ioThread, s *session)
	// terminate releases the connection. The engine must not call the
	// session afterwards.
	terminate()
	// activateIn tells the engine the session pipe can take messages again
	activateIn()
	// activateOut tells the engine the session pipe has messages to send
	activateOut()
}

// engineBase carries the inbound side shared by the engines: frames read
// by a goroutine are pushed into the session, and the goroutine waits until
// the session took them all.
type engineBase struct {
	object
	io       *ioThread
	session  *session
	socket   *Socket
	opts     *options
	endpoint string
	logger   log.Logger

	done   chan struct{}
	resume chan struct{}

	inbox          []*Msg
	awaitingResume bool
	terminated     bool
}

func (e *engineBase) attach(io *ioThread, s *session) {
	e.object = object{ctx: io.ctx, tid: io.tid}
	e.io = io
	e.session = s
	e.socket = s.socket
	e.opts = s.opts
	e.done = make(chan struct{})
	e.resume = make(chan struct{}, 1)
	io.adjustLoad(1)
}

// post hands a command to the I/O thread. It returns false once the engine
// is terminated.
func (e *engineBase) post(self engine, kind commandType, object any, err error) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	e.io.post(command{destination: self, kind: kind, object: object, err: err})
	return true
}

// await blocks the reading goroutine until the I/O thread asks for more
func (e *engineBase) await() bool {
	select {
	case <-e.resume:
		return true
	case <-e.done:
		return false
	}
}

func (e *engineBase) receive(frames []*Msg) {
	e.inbox = append(e.inbox, frames...)
	e.awaitingResume = true
	e.pushInbox()
}

// pushInbox moves the received frames into the session until the pipe is
// full. The reader resumes once the inbox is empty.
func (e *engineBase) pushInbox() {
	if e.terminated {
		return
	}

	pushed := 0
	for pushed < len(e.inbox) {
		if err := e.session.pushMsg(e.inbox[pushed]); err != nil {
			break
		}
		e.inbox[pushed] = nil
		pushed++
	}
	e.inbox = e.inbox[pushed:]

	if pushed > 0 {
		e.session.flush()
	}

	if len(e.inbox) == 0 && e.awaitingResume {
		e.awaitingResume = false
		select {
		case e.resume <- struct{}{}:
		default:
		}
	}
}

func (e *engineBase) release() {
	if e.terminated {
		return
	}
	e.terminated = true
	close(e.done)
	e.inbox = nil
	e.io.adjustLoad(-1)
}

// streamEngine speaks the gomq wire format over a tcp or ipc connection.
// In raw mode, used by STREAM sockets, bytes are exchanged as they are.
type streamEngine struct {
	engineBase

	conn    net.Conn
	decoder *codec.Decoder
	outbox  chan []byte

	handle uint32
	ready  bool
	// a batch is being written
	writing bool
	// an empty raw message asked to close the connection
	closing bool
}

var _ engine = (*streamEngine)(nil)

// newStreamEngine wraps conn with the configured compression.
func newStreamEngine(conn net.Conn, opts *options, endpoint string, handle uint32) (*streamEngine, error) {
	if opts.compressor != nil {
		wrapped, err := opts.compressor.Wrap(conn)
		if err != nil {
			return nil, fmt.Errorf("failed to wrap connection: %w", err)
		}
		conn = wrapped
	}

	return &streamEngine{
		engineBase: engineBase{endpoint: endpoint},
		conn:       conn,
		decoder:    codec.NewDecoder(conn, opts.maxMsgSize),
		outbox:     make(chan []byte, 1),
		handle:     handle,
	}, nil
}

func (e *streamEngine) plug(io *ioThread, s *session) {
	e.attach(io, s)
	e.logger = s.logger

	raw := e.opts.rawSocket
	e.ready = raw

	greeting := codec.Greeting{
		Version:    codec.Version,
		SocketType: byte(e.opts.socketType),
		Identity:   e.opts.identity,
	}

	io.spawn(func() { e.readLoop(raw) })
	io.spawn(func() { e.writeLoop(raw, greeting) })

	// raw connections have no handshake to trigger the first pull
	if raw {
		e.pullOutput()
	}
}

func (e *streamEngine) readLoop(raw bool) {
	if !raw {
		greeting, err := codec.ReadGreeting(e.decoder.Reader())
		if err != nil {
			e.post(e, cmdEngineError, nil, err)
			return
		}
		if !e.post(e, cmdEngineReady, greeting, nil) {
			return
		}
	}

	for {
		var (
			frames []*Msg
			err    error
		)

		if raw {
			frames, err = e.readChunk()
		} else {
			frames, err = e.readFrames()
		}

		if len(frames) > 0 {
			if !e.post(e, cmdEngineInput, frames, nil) || !e.await() {
				return
			}
		}

		if err != nil {
			e.post(e, cmdEngineError, nil, err)
			return
		}
	}
}

// readFrames blocks for one frame, then decodes what is already buffered
func (e *streamEngine) readFrames() ([]*Msg, error) {
	var frames []*Msg
	for len(frames) < inBatchFrames {
		body, more, err := e.decoder.ReadFrame()
		if err != nil {
			return frames, err
		}

		msg := NewMsg(body)
		msg.setMore(more)
		frames = append(frames, msg)

		if !more && e.decoder.Buffered() == 0 {
			break
		}
	}
	return frames, nil
}

func (e *streamEngine) readChunk() ([]*Msg, error) {
	buf := make([]byte, rawChunkSize)
	n, err := e.decoder.Reader().Read(buf)
	if n == 0 {
		return nil, err
	}
	return []*Msg{NewMsg(buf[:n])}, err
}

func (e *streamEngine) writeLoop(raw bool, greeting codec.Greeting) {
	if !raw {
		if err := codec.WriteGreeting(e.conn, greeting); err != nil {
			e.post(e, cmdEngineError, nil, err)
			return
		}
	}

	for {
		select {
		case <-e.done:
			return
		case buf := <-e.outbox:
			if _, err := e.conn.Write(buf); err != nil {
				e.post(e, cmdEngineError, nil, err)
				return
			}
			if !e.post(e, cmdEngineOutput, nil, nil) {
				return
			}
		}
	}
}

func (e *streamEngine) processCommand(cmd command) {
	if e.terminated {
		return
	}

	switch cmd.kind {
	case cmdEngineReady:
		e.handshake(cmd.object.(codec.Greeting))
	case cmdEngineInput:
		e.receive(cmd.object.([]*Msg))
	case cmdEngineOutput:
		e.writing = false
		if e.closing {
			e.fail(nil)
			return
		}
		e.pullOutput()
	case cmdEngineError:
		e.fail(cmd.err)
	}
}

func (e *streamEngine) handshake(greeting codec.Greeting) {
	peer := Type(greeting.SocketType)
	if !e.opts.socketType.compatible(peer) {
		e.fail(fmt.Errorf("peer type=(%s): %w", peer, errIncompatiblePeer))
		return
	}

	e.ready = true
	e.logger.Debugf("handshake done with %s peer", peer)

	if e.opts.recvIdentity {
		e.inbox = append(e.inbox, newIdentityMsg(greeting.Identity))
		e.pushInbox()
	}
	e.pullOutput()
}

func (e *streamEngine) activateIn() {
	e.pushInbox()
}

func (e *streamEngine) activateOut() {
	if e.terminated || !e.ready || e.writing || e.closing {
		return
	}
	e.pullOutput()
}

// pullOutput encodes the frames waiting in the session and hands them to
// the writer
func (e *streamEngine) pullOutput() {
	var buf []byte
	for len(buf) < outBatchSize {
		msg, ok := e.session.pullMsg()
		if !ok {
			break
		}

		if e.opts.rawSocket {
			if msg.Size() == 0 {
				e.closing = true
				break
			}
			buf = append(buf, msg.Data()...)
			continue
		}
		buf = codec.AppendFrame(buf, msg.Data(), msg.More())
	}

	if len(buf) == 0 {
		if e.closing {
			e.fail(nil)
		}
		return
	}

	e.writing = true
	e.outbox <- buf
}

// fail drops the connection and hands the session back its pipe
func (e *streamEngine) fail(err error) {
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		e.logger.Debug("connection closed")
	default:
		e.logger.Warnf("connection lost: %v", err)
	}

	e.socket.eventDisconnected(e.endpoint, e.handle)

	s := e.session
	e.terminate()
	s.detach()
}

func (e *streamEngine) terminate() {
	if e.terminated {
		return
	}
	e.release()
	_ = e.conn.Close()
}

// tuneTCP applies the keepalive options to a tcp connection
func tuneTCP(conn net.Conn, opts *options) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}

	_ = tcp.SetNoDelay(true)

	switch {
	case opts.tcpKeepalive == 0:
		_ = tcp.SetKeepAlive(false)
	case opts.tcpKeepalive > 0:
		config := net.KeepAliveConfig{Enable: true, Idle: -1, Interval: -1, Count: -1}
		if opts.tcpKeepaliveIdle > 0 {
			config.Idle = opts.tcpKeepaliveIdle
		}
		_ = tcp.SetKeepAliveConfig(config)
	}
}
