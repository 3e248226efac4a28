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
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/gomq/address"
	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/log"
)

// session bridges one connection to the socket. It owns the pipe to the
// socket and the engine moving messages between that pipe and the network.
// Connecting sessions outlive their engines and reconnect; sessions created
// for accepted connections go away with their engine.
type session struct {
	own
	io       *ioThread
	connect  bool
	socket   *Socket
	addr     address.Address
	endpoint string

	pipe             *pipe
	terminatingPipes mapset.Set[*pipe]
	incompleteIn     bool
	// termination waits for the pipe to be drained
	pending bool

	engine engine

	lingerTimer *time.Timer
	lingerID    uint64

	logger log.Logger
}

var _ pipeEventSink = (*session)(nil)

func newSession(io *ioThread, connect bool, socket *Socket, opts *options, addr address.Address, endpoint string) *session {
	s := &session{
		io:               io,
		connect:          connect,
		socket:           socket,
		addr:             addr,
		endpoint:         endpoint,
		terminatingPipes: mapset.NewThreadUnsafeSet[*pipe](),
		logger:           io.ctx.logger.With("socket", opts.socketID, "endpoint", endpoint),
	}
	s.init(io.ctx, io.tid, s, opts.clone())
	return s
}

func (s *session) processCommand(cmd command) {
	switch cmd.kind {
	case cmdPlug:
		s.processPlug()
		s.processSeqnum()
	case cmdAttach:
		s.processAttach(cmd.object.(engine))
		s.processSeqnum()
	case cmdTimer:
		s.timerEvent(cmd.count)
	default:
		if !s.processCommonCommand(cmd) {
			s.logger.Warnf("ignored command=(%s)", cmd.kind)
		}
	}
}

func (s *session) attachPipe(p *pipe) {
	s.pipe = p
	p.setEventSink(s)
}

// pullMsg returns the next frame to send to the peer
func (s *session) pullMsg() (*Msg, bool) {
	if s.pipe == nil {
		return nil, false
	}
	msg, ok := s.pipe.read()
	if !ok {
		return nil, false
	}
	s.incompleteIn = msg.More()
	return msg, true
}

// pushMsg hands a frame received from the peer to the socket
func (s *session) pushMsg(msg *Msg) error {
	if s.pipe != nil && s.pipe.write(msg) {
		return nil
	}
	return gerrors.ErrWouldBlock
}

func (s *session) flush() {
	if s.pipe != nil {
		s.pipe.flush()
	}
}

// cleanPipes drops the half transferred messages of a dead engine
func (s *session) cleanPipes() {
	if s.pipe == nil {
		return
	}

	s.pipe.rollback()
	s.pipe.flush()

	for s.incompleteIn {
		if _, ok := s.pullMsg(); !ok {
			break
		}
	}
}

func (s *session) pipeTerminated(p *pipe) {
	if s.pipe == p {
		s.pipe = nil
	} else {
		s.terminatingPipes.Remove(p)
	}

	if s.pending && s.pipe == nil && s.terminatingPipes.IsEmpty() {
		s.proceedWithTerm()
	}
}

func (s *session) readActivated(p *pipe) {
	if p != s.pipe {
		return
	}
	if s.engine != nil {
		s.engine.activateOut()
		return
	}
	// there may be nothing but a delimiter in the pipe
	s.pipe.checkRead()
}

func (s *session) writeActivated(p *pipe) {
	if p != s.pipe {
		return
	}
	if s.engine != nil {
		s.engine.activateIn()
	}
}

// hiccuped never happens, hiccups travel from sessions to sockets
func (s *session) hiccuped(*pipe) {}

func (s *session) processPlug() {
	if s.connect {
		s.startConnecting(false)
	}
}

func (s *session) processAttach(e engine) {
	if s.pipe == nil && !s.isTerminating() {
		pipes := pipePair(
			[2]actor{s, s.socket},
			s.ctx,
			[2]int{s.opts.rcvhwm, s.opts.sndhwm},
			[2]bool{s.opts.delayOnClose, s.opts.delayOnDisconnect},
		)
		s.attachPipe(pipes[0])
		s.sendBind(s.socket, pipes[1], true)
	}

	s.engine = e
	e.plug(s.io, s)
}

// detach is called by an engine that lost its connection
func (s *session) detach() {
	s.engine = nil
	s.cleanPipes()
	s.detached()

	if s.pipe != nil {
		s.pipe.checkRead()
	}
}

func (s *session) detached() {
	if !s.connect {
		s.terminate()
		return
	}

	multicast := s.addr != nil && address.IsMulticast(s.addr.Protocol())

	// messages were only queued for a live connection, start over
	if s.pipe != nil && s.opts.delayAttachOnConnect && !multicast {
		s.pipe.hiccup()
		s.pipe.terminate(false)
		s.terminatingPipes.Add(s.pipe)
		s.pipe = nil
	}

	if s.opts.reconnectIvl >= 0 {
		s.startConnecting(true)
	}

	// subscribers resend their subscriptions over the new connection
	if s.pipe != nil && (s.opts.socketType == Sub || s.opts.socketType == XSub) {
		s.pipe.hiccup()
	}
}

func (s *session) startConnecting(wait bool) {
	if s.isTerminating() {
		return
	}

	io := s.ctx.chooseIOThread(s.opts.affinity, s.endpoint)
	if io == nil {
		io = s.io
	}

	switch s.addr.Protocol() {
	case address.TCP, address.IPC:
		s.launchChild(newConnecter(io, s, s.opts, s.addr, s.endpoint, wait))
	case address.PGM, address.EPGM:
		e, err := s.newMulticastEngine()
		if err != nil {
			s.logger.Warnf("cannot open multicast endpoint: %v", err)
			s.socket.eventConnectDelayed(s.endpoint, err)
			return
		}
		s.sendAttach(s, e, true)
	}
}

// newMulticastEngine creates the sending side for publishers and the
// receiving side for subscribers
func (s *session) newMulticastEngine() (engine, error) {
	addr := s.addr.(*address.MulticastAddress)
	if s.opts.socketType == Pub || s.opts.socketType == XPub {
		return newMulticastSender(s.opts, addr, s.endpoint)
	}
	return newMulticastReceiver(s.opts, addr, s.endpoint)
}

func (s *session) processTerm(linger time.Duration) {
	if s.pipe == nil && s.terminatingPipes.IsEmpty() {
		s.proceedWithTerm()
		return
	}

	s.pending = true

	if s.pipe != nil {
		// a negative linger waits for the pipe forever
		if linger > 0 {
			s.lingerID++
			id := s.lingerID
			s.lingerTimer = time.AfterFunc(linger, func() {
				s.io.post(command{destination: s, kind: cmdTimer, count: id})
			})
		}

		s.pipe.terminate(linger != 0)

		// without an engine nobody would read the delimiter
		if s.engine == nil {
			s.pipe.checkRead()
		}
	}
}

func (s *session) proceedWithTerm() {
	s.pending = false
	s.own.processTerm(0)
}

// timerEvent fires when the linger period expires
func (s *session) timerEvent(id uint64) {
	if id != s.lingerID || s.lingerTimer == nil {
		return
	}
	s.lingerTimer = nil

	if s.pipe != nil {
		s.pipe.terminate(false)
	}
}

func (s *session) processDestroy() {
	if s.lingerTimer != nil {
		s.lingerTimer.Stop()
		s.lingerTimer = nil
	}

	if s.engine != nil {
		s.engine.terminate()
		s.engine = nil
	}
	s.release()
}
