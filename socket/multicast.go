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
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/tochemey/gomq/address"
	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/internal/codec"
)

// maxDatagramSize is the largest UDP payload over IPv4
const maxDatagramSize = 65507

// multicastSender publishes every message as one datagram to a multicast
// group. Delivery is best effort: datagrams that cannot be sent are lost.
type multicastSender struct {
	engineBase
	conn    *net.UDPConn
	outbox  chan []byte
	writing bool
}

var _ engine = (*multicastSender)(nil)

func newMulticastSender(opts *options, addr *address.MulticastAddress, endpoint string) (*multicastSender, error) {
	ifi, err := addr.Interface()
	if err != nil {
		return nil, err
	}

	conn, err := net.DialUDP("udp4", nil, addr.Group())
	if err != nil {
		return nil, err
	}

	pc := ipv4.NewPacketConn(conn)
	err = pc.SetMulticastTTL(opts.multicastHops)
	if err == nil {
		err = pc.SetMulticastLoopback(opts.multicastLoopback)
	}
	if err == nil && ifi != nil {
		err = pc.SetMulticastInterface(ifi)
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &multicastSender{
		engineBase: engineBase{endpoint: endpoint},
		conn:       conn,
		outbox:     make(chan []byte, 1),
	}, nil
}

func (e *multicastSender) plug(io *ioThread, s *session) {
	e.attach(io, s)
	e.logger = s.logger
	io.spawn(e.writeLoop)
	e.activateOut()
}

func (e *multicastSender) writeLoop() {
	for {
		select {
		case <-e.done:
			return
		case datagram := <-e.outbox:
			if _, err := e.conn.Write(datagram); err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				e.logger.Debugf("datagram lost: %v", err)
			}
			if !e.post(e, cmdEngineOutput, nil, nil) {
				return
			}
		}
	}
}

func (e *multicastSender) processCommand(cmd command) {
	if e.terminated || cmd.kind != cmdEngineOutput {
		return
	}
	e.writing = false
	e.activateOut()
}

func (e *multicastSender) activateIn() {}

func (e *multicastSender) activateOut() {
	if e.terminated || e.writing {
		return
	}

	for {
		datagram, ok := e.nextDatagram()
		if !ok {
			return
		}
		if len(datagram) > maxDatagramSize {
			e.logger.Warnf("dropping message of %d bytes, larger than a datagram", len(datagram))
			continue
		}
		e.writing = true
		e.outbox <- datagram
		return
	}
}

// nextDatagram encodes the next complete message of the session
func (e *multicastSender) nextDatagram() ([]byte, bool) {
	var datagram []byte
	for {
		msg, ok := e.session.pullMsg()
		if !ok {
			// the rest of the message is not flushed yet
			return nil, false
		}
		datagram = codec.AppendFrame(datagram, msg.Data(), msg.More())
		if !msg.More() {
			return datagram, true
		}
	}
}

func (e *multicastSender) terminate() {
	if e.terminated {
		return
	}
	e.release()
	_ = e.conn.Close()
}

// multicastReceiver joins a multicast group and delivers every valid
// datagram as one message.
type multicastReceiver struct {
	engineBase
	conn *net.UDPConn
}

var _ engine = (*multicastReceiver)(nil)

func newMulticastReceiver(opts *options, addr *address.MulticastAddress, endpoint string) (*multicastReceiver, error) {
	ifi, err := addr.Interface()
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenMulticastUDP("udp4", ifi, addr.Group())
	if err != nil {
		return nil, fmt.Errorf("failed to join group=(%s): %w", addr.Group(), err)
	}

	return &multicastReceiver{
		engineBase: engineBase{endpoint: endpoint},
		conn:       conn,
	}, nil
}

func (e *multicastReceiver) plug(io *ioThread, s *session) {
	e.attach(io, s)
	e.logger = s.logger
	maxSize := e.opts.maxMsgSize
	io.spawn(func() { e.readLoop(maxSize) })
}

func (e *multicastReceiver) readLoop(maxSize int64) {
	buf := make([]byte, maxDatagramSize+1)
	for {
		n, _, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			e.post(e, cmdEngineError, nil, err)
			return
		}

		frames, err := decodeDatagram(buf[:n], maxSize)
		if err != nil {
			e.logger.Debugf("dropping datagram: %v", err)
			continue
		}

		if !e.post(e, cmdEngineInput, frames, nil) || !e.await() {
			return
		}
	}
}

// decodeDatagram returns the frames of a datagram, which must hold exactly
// one complete message
func decodeDatagram(datagram []byte, maxSize int64) ([]*Msg, error) {
	decoder := codec.NewDecoder(bytes.NewReader(datagram), maxSize)

	var frames []*Msg
	for {
		body, more, err := decoder.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		msg := NewMsg(body)
		msg.setMore(more)
		frames = append(frames, msg)
	}

	if len(frames) == 0 || frames[len(frames)-1].More() {
		return nil, io.ErrUnexpectedEOF
	}
	return frames, nil
}

func (e *multicastReceiver) processCommand(cmd command) {
	if e.terminated {
		return
	}

	switch cmd.kind {
	case cmdEngineInput:
		e.receive(cmd.object.([]*Msg))
	case cmdEngineError:
		e.logger.Warnf("multicast receiver failed: %v", cmd.err)
		s := e.session
		e.terminate()
		s.detach()
	}
}

func (e *multicastReceiver) activateIn() {
	e.pushInbox()
}

// activateOut drops what the socket sends, subscriptions are filtered
// locally
func (e *multicastReceiver) activateOut() {
	if e.terminated {
		return
	}
	for {
		if _, ok := e.session.pullMsg(); !ok {
			return
		}
	}
}

func (e *multicastReceiver) terminate() {
	if e.terminated {
		return
	}
	e.release()
	_ = e.conn.Close()
}

// multicastListener serves a subscriber bound to a multicast group. The
// group is joined when the endpoint is bound, the session owning the
// receiver is created once the listener is plugged.
type multicastListener struct {
	own
	io       *ioThread
	socket   *Socket
	group    *address.MulticastAddress
	receiver *multicastReceiver
	endpoint string
	handle   uint32
}

func newMulticastListener(io *ioThread, socket *Socket, opts *options) *multicastListener {
	l := &multicastListener{
		io:     io,
		socket: socket,
		handle: io.ctx.nextHandle(),
	}
	l.init(io.ctx, io.tid, l, opts.clone())
	return l
}

func (l *multicastListener) setAddress(protocol, addr string) error {
	resolved, err := address.Resolve(protocol, addr, l.opts.ipv4Only)
	if err != nil {
		return err
	}

	group, ok := resolved.(*address.MulticastAddress)
	if !ok {
		return gerrors.NewErrProtocolNotSupported(protocol)
	}

	endpoint := address.Join(protocol, addr)
	receiver, err := newMulticastReceiver(l.opts, group, endpoint)
	if err != nil {
		return err
	}

	l.group = group
	l.receiver = receiver
	l.endpoint = endpoint
	return nil
}

func (l *multicastListener) getEndpoint() string {
	return l.endpoint
}

func (l *multicastListener) processCommand(cmd command) {
	switch cmd.kind {
	case cmdPlug:
		l.processPlug()
		l.processSeqnum()
	default:
		if !l.processCommonCommand(cmd) {
			l.ctx.logger.Warnf("multicast listener ignored command=(%s)", cmd.kind)
		}
	}
}

func (l *multicastListener) processPlug() {
	l.io.adjustLoad(1)
	l.socket.eventListening(l.endpoint, l.handle)

	s := newSession(l.io, false, l.socket, l.opts, l.group, l.endpoint)
	s.incSeqnum()
	l.launchChild(s)
	l.sendAttach(s, l.receiver, false)
	l.receiver = nil
}

func (l *multicastListener) processTerm(linger time.Duration) {
	// the group was joined but never handed to a session
	if l.receiver != nil {
		_ = l.receiver.conn.Close()
		l.receiver = nil
	}
	l.socket.eventClosed(l.endpoint, l.handle)
	l.own.processTerm(linger)
}

func (l *multicastListener) processDestroy() {
	l.io.adjustLoad(-1)
	l.release()
}
