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
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/gomq/address"
	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/internal/validation"
	"github.com/tochemey/gomq/log"
)

const (
	// maxCommandDelay is how long a throttled command drain may be skipped
	maxCommandDelay = time.Millisecond
	// inboundPollRate is the number of receives after which commands are
	// drained even though messages keep arriving
	inboundPollRate = 100
)

// SendFlags alter the behavior of Send.
type SendFlags int

const (
	// DontWait makes Send fail with ErrWouldBlock instead of waiting for
	// the pipes to have room
	DontWait SendFlags = 1 << iota
	// SendMore marks the frame as followed by another frame of the same
	// message
	SendMore
)

// Socket is a messaging socket. The messaging pattern depends on its Type.
//
// A Socket is not safe for concurrent use: all its operations, Close
// included, must be called from one goroutine at a time. The network work
// happens on the I/O threads of the context, which talk to the socket
// through its mailbox; the commands are processed whenever the socket is
// used.
type Socket struct {
	own

	mailbox    *mailbox
	pattern    pattern
	socketType Type

	pipes pipeArray
	// children serving tcp, ipc and multicast endpoints
	endpoints map[string][]ownable
	// the endpoint a wildcard address was bound as
	aliases map[string]string
	// local ends of the pipes to in-process peers
	inprocs map[string][]*pipe

	ctxTerminated bool
	disposed      *atomic.Bool
	reaped        bool

	lastTSC time.Time
	ticks   int
	rcvmore bool

	monitorMu     sync.Mutex
	monitor       *Socket
	monitorEvents Event

	reaperPoller *poller
	logger       log.Logger
}

var _ pipeEventSink = (*Socket)(nil)

func newSocket(ctx *Context, socketType Type, tid, sid int) (*Socket, error) {
	opts := defaultOptions()
	opts.socketType = socketType
	opts.socketID = sid

	s := &Socket{
		mailbox:    newMailbox(fmt.Sprintf("socket-%d", sid)),
		socketType: socketType,
		endpoints:  make(map[string][]ownable),
		aliases:    make(map[string]string),
		inprocs:    make(map[string][]*pipe),
		disposed:   atomic.NewBool(false),
		logger:     ctx.logger.With("socket", sid, "type", socketType.String()),
	}
	s.init(ctx, tid, s, &opts)

	p, err := newPattern(socketType, s.opts)
	if err != nil {
		s.release()
		return nil, err
	}
	s.pattern = p
	return s, nil
}

// ID returns the identifier of the socket within its context.
func (s *Socket) ID() int {
	return s.opts.socketID
}

// Type returns the socket type.
func (s *Socket) Type() Type {
	return s.socketType
}

// TypeString returns the name of the socket type.
func (s *Socket) TypeString() string {
	return s.socketType.String()
}

// LastEndpoint returns the endpoint most recently bound or connected, with
// any system assigned port filled in.
func (s *Socket) LastEndpoint() string {
	return s.opts.lastEndpoint
}

func (s *Socket) checkUsable() error {
	if s.disposed.Load() {
		return gerrors.ErrDisposed
	}
	if s.ctxTerminated {
		return gerrors.ErrTerminating
	}
	return nil
}

// parseEndpoint splits the endpoint and checks the transport can be used
// by this socket type
func (s *Socket) parseEndpoint(endpoint string) (string, string, error) {
	if err := validation.NewEndpointValidator(endpoint).Validate(); err != nil {
		return "", "", err
	}

	protocol, addr, _ := address.Split(endpoint)

	// multicast only carries publish/subscribe traffic
	if address.IsMulticast(protocol) && !s.socketType.isPubSub() {
		return "", "", gerrors.NewErrProtocolNotSupported(protocol)
	}
	return protocol, addr, nil
}

// Bind makes the socket accept connections on the endpoint.
func (s *Socket) Bind(endpoint string) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	// a child launched by a previous call may still be unowned
	if err := s.processCommands(0, false); err != nil {
		return err
	}

	protocol, addr, err := s.parseEndpoint(endpoint)
	if err != nil {
		return err
	}

	switch protocol {
	case address.InProc:
		if err := s.ctx.registerEndpoint(endpoint, s, s.opts.clone()); err != nil {
			return err
		}
		s.opts.lastEndpoint = endpoint
		return nil
	case address.PGM, address.EPGM:
		// a publisher sends to the group the same way bound or connected
		if s.socketType == Pub || s.socketType == XPub {
			return s.Connect(endpoint)
		}
	}

	io := s.ctx.chooseIOThread(s.opts.affinity, endpoint)
	if io == nil {
		return gerrors.ErrNoIOThread
	}

	var l boundEndpoint
	if address.IsMulticast(protocol) {
		l = newMulticastListener(io, s, s.opts)
	} else {
		l = newListener(io, s, s.opts)
	}
	if err := l.setAddress(protocol, addr); err != nil {
		l.release()
		s.eventBindFailed(endpoint, err)
		return err
	}

	realized := l.getEndpoint()
	s.opts.lastEndpoint = realized
	if realized != endpoint {
		s.aliases[endpoint] = realized
	}
	s.addEndpoint(realized, l)

	s.logger.Debugf("bound to %s", realized)
	return nil
}

// BindRandomPort binds the socket to a system assigned port of a tcp
// endpoint given without port, such as tcp://127.0.0.1, and returns the
// port.
func (s *Socket) BindRandomPort(endpoint string) (int, error) {
	if err := s.Bind(endpoint + ":0"); err != nil {
		return 0, err
	}

	_, addr, err := address.Split(s.opts.lastEndpoint)
	if err != nil {
		return 0, err
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, gerrors.NewErrInvalidArgument(err.Error())
	}
	return strconv.Atoi(port)
}

// Connect connects the socket to the endpoint. Except for in-process
// endpoints, the connection is established in the background and
// reestablished when lost.
func (s *Socket) Connect(endpoint string) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	if err := s.processCommands(0, false); err != nil {
		return err
	}

	protocol, addr, err := s.parseEndpoint(endpoint)
	if err != nil {
		return err
	}

	if protocol == address.InProc {
		return s.connectInProc(endpoint)
	}

	resolved, err := address.Resolve(protocol, addr, s.opts.ipv4Only)
	if err != nil {
		return err
	}

	io := s.ctx.chooseIOThread(s.opts.affinity, endpoint)
	if io == nil {
		return gerrors.ErrNoIOThread
	}

	sess := newSession(io, true, s, s.opts, resolved, endpoint)

	// multicast cannot forward subscriptions, so its pipe is created right
	// away and receives everything
	multicast := address.IsMulticast(protocol)
	if !s.opts.delayAttachOnConnect || multicast {
		pipes := pipePair(
			[2]actor{s, sess},
			s.ctx,
			[2]int{s.opts.sndhwm, s.opts.rcvhwm},
			[2]bool{s.opts.delayOnDisconnect, s.opts.delayOnClose},
		)
		s.attachPipe(pipes[0], multicast)
		sess.attachPipe(pipes[1])
	}

	s.opts.lastEndpoint = endpoint
	s.addEndpoint(endpoint, sess)

	s.logger.Debugf("connecting to %s", endpoint)
	return nil
}

// connectInProc creates the pipe to a bound in-process peer. There is no
// reconnection: a peer that goes away requires a new Connect.
func (s *Socket) connectInProc(endpoint string) error {
	peer, err := s.ctx.findEndpoint(endpoint)
	if err != nil {
		return err
	}

	pipes := pipePair(
		[2]actor{s, peer.socket},
		s.ctx,
		[2]int{
			combinedHWM(s.opts.sndhwm, peer.opts.rcvhwm),
			combinedHWM(s.opts.rcvhwm, peer.opts.sndhwm),
		},
		[2]bool{s.opts.delayOnDisconnect, peer.opts.delayOnDisconnect},
	)

	s.attachPipe(pipes[0], false)

	if peer.opts.recvIdentity {
		if pipes[0].write(newIdentityMsg(s.opts.identity)) {
			pipes[0].flush()
		}
	}

	if s.opts.recvIdentity {
		if pipes[1].write(newIdentityMsg(peer.opts.identity)) {
			pipes[1].flush()
		}
	}

	// findEndpoint already counted the bind command
	s.sendBind(peer.socket, pipes[1], false)

	s.opts.lastEndpoint = endpoint
	s.inprocs[endpoint] = append(s.inprocs[endpoint], pipes[0])
	return nil
}

// combinedHWM is the credit of an in-process pipe direction: both ends
// queue messages, unless one of them is unbounded
func combinedHWM(sender, receiver int) int {
	if sender == 0 || receiver == 0 {
		return 0
	}
	return sender + receiver
}

func (s *Socket) addEndpoint(endpoint string, child ownable) {
	s.launchChild(child)
	s.endpoints[endpoint] = append(s.endpoints[endpoint], child)
}

// TermEndpoint stops binding or connecting to the endpoint.
func (s *Socket) TermEndpoint(endpoint string) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	protocol, _, err := address.Split(endpoint)
	if err != nil {
		return err
	}

	// the child serving the endpoint may not be owned yet
	if err := s.processCommands(0, false); err != nil {
		return err
	}

	if protocol == address.InProc {
		if s.ctx.unregisterEndpoint(endpoint, s) == nil {
			return nil
		}

		pipes, ok := s.inprocs[endpoint]
		if !ok {
			return gerrors.NewErrEndpointNotFound(endpoint)
		}
		for _, p := range pipes {
			p.terminate(true)
		}
		delete(s.inprocs, endpoint)
		return nil
	}

	key := endpoint
	if realized, ok := s.aliases[endpoint]; ok {
		key = realized
		delete(s.aliases, endpoint)
	}

	children, ok := s.endpoints[key]
	if !ok {
		return gerrors.NewErrEndpointNotFound(endpoint)
	}
	for _, child := range children {
		s.termChild(child)
	}
	delete(s.endpoints, key)

	s.logger.Debugf("terminated endpoint %s", key)
	return nil
}

// Unbind stops accepting connections on the endpoint.
func (s *Socket) Unbind(endpoint string) error {
	return s.TermEndpoint(endpoint)
}

// Disconnect closes the connection to the endpoint.
func (s *Socket) Disconnect(endpoint string) error {
	return s.TermEndpoint(endpoint)
}

// Send queues one frame. On success the frame is reset. When no peer can
// take the frame, Send waits up to the SendTimeout option unless DontWait
// is given.
func (s *Socket) Send(msg *Msg, flags SendFlags) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	if !msg.Initialized() {
		return gerrors.NewErrInvalidArgument("message is not initialized")
	}

	if err := s.processCommands(0, true); err != nil {
		return err
	}

	msg.setMore(flags&SendMore != 0)

	err := s.pattern.send(msg)
	if !errors.Is(err, gerrors.ErrWouldBlock) {
		return err
	}

	timeout := s.opts.sndtimeo
	if flags&DontWait != 0 || timeout == 0 {
		return gerrors.ErrWouldBlock
	}

	deadline := time.Now().Add(timeout)
	wait := timeout
	if timeout < 0 {
		wait = -1
	}

	for {
		if err := s.processCommands(wait, false); err != nil {
			return err
		}

		err := s.pattern.send(msg)
		if !errors.Is(err, gerrors.ErrWouldBlock) {
			return err
		}

		if timeout > 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				return gerrors.ErrTimedOut
			}
		}
	}
}

// Recv receives one frame, waiting up to the ReceiveTimeout option. It
// fails with ErrWouldBlock or ErrTimedOut when no frame arrived.
func (s *Socket) Recv(msg *Msg) error {
	timeout := s.opts.rcvtimeo

	ok, err := s.TryRecv(msg, timeout)
	if err != nil {
		return err
	}
	if !ok {
		if timeout == 0 {
			return gerrors.ErrWouldBlock
		}
		return gerrors.ErrTimedOut
	}
	return nil
}

// TryRecv receives one frame. A zero timeout does not wait, a negative
// timeout waits until a frame arrives. It reports false when no frame
// arrived in time.
func (s *Socket) TryRecv(msg *Msg, timeout time.Duration) (bool, error) {
	if err := s.checkUsable(); err != nil {
		return false, err
	}

	if !msg.Initialized() {
		return false, gerrors.NewErrInvalidArgument("message is not initialized")
	}

	// keep processing commands under sustained traffic
	s.ticks++
	if s.ticks == inboundPollRate {
		if err := s.processCommands(0, false); err != nil {
			return false, err
		}
		s.ticks = 0
	}

	ok, err := s.recv(msg)
	if ok || err != nil {
		return ok, err
	}

	if timeout == 0 {
		if err := s.processCommands(0, false); err != nil {
			return false, err
		}
		s.ticks = 0
		return s.recv(msg)
	}

	deadline := time.Now().Add(timeout)
	wait := timeout
	if timeout < 0 {
		wait = -1
	}

	// commands were just drained, look for new ones without waiting
	block := s.ticks != 0
	for {
		drainWait := wait
		if !block {
			drainWait = 0
		}
		if err := s.processCommands(drainWait, false); err != nil {
			return false, err
		}

		ok, err := s.recv(msg)
		if ok || err != nil {
			s.ticks = 0
			return ok, err
		}

		block = true
		if timeout > 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				return false, nil
			}
		}
	}
}

// recv asks the pattern for a frame. ErrWouldBlock is reported as no frame.
func (s *Socket) recv(msg *Msg) (bool, error) {
	err := s.pattern.recv(msg)
	switch {
	case err == nil:
		s.rcvmore = msg.More()
		return true, nil
	case errors.Is(err, gerrors.ErrWouldBlock):
		return false, nil
	default:
		return false, err
	}
}

// SendFrame sends data as one frame.
func (s *Socket) SendFrame(data []byte, more bool) error {
	var flags SendFlags
	if more {
		flags = SendMore
	}
	return s.Send(NewMsg(data), flags)
}

// SendMultipart sends the frames as one message.
func (s *Socket) SendMultipart(frames ...[]byte) error {
	for i, frame := range frames {
		if err := s.SendFrame(frame, i < len(frames)-1); err != nil {
			return err
		}
	}
	return nil
}

// RecvFrame receives one frame and reports whether more frames follow.
func (s *Socket) RecvFrame() ([]byte, bool, error) {
	msg := NewEmptyMsg()
	if err := s.Recv(msg); err != nil {
		return nil, false, err
	}
	return msg.Data(), msg.More(), nil
}

// RecvMultipart receives all the frames of a message.
func (s *Socket) RecvMultipart() ([][]byte, error) {
	var frames [][]byte
	for {
		data, more, err := s.RecvFrame()
		if err != nil {
			return nil, err
		}
		frames = append(frames, data)
		if !more {
			return frames, nil
		}
	}
}

// Subscribe adds a prefix subscription to a SUB socket.
func (s *Socket) Subscribe(prefix []byte) error {
	return s.SetOption(Subscribe, prefix)
}

// Unsubscribe removes a prefix subscription from a SUB socket.
func (s *Socket) Unsubscribe(prefix []byte) error {
	return s.SetOption(Unsubscribe, prefix)
}

// SetOption sets a socket option.
func (s *Socket) SetOption(opt Option, value any) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	if handled, err := s.pattern.setOption(opt, value); handled {
		return err
	}
	return s.opts.set(opt, value)
}

// GetOption returns the value of a socket option. ReceiveMore reports
// whether the last received frame is followed by another one, Events
// returns the PollEvents the socket is ready for and Handle the channel
// signaled when commands arrive.
func (s *Socket) GetOption(opt Option) (any, error) {
	if s.disposed.Load() {
		return nil, gerrors.ErrDisposed
	}

	switch opt {
	case Events:
		return s.events(), nil
	case ReceiveMore:
		return s.rcvmore, nil
	case Handle:
		return s.mailbox.handle(), nil
	}

	if s.ctxTerminated {
		return nil, gerrors.ErrTerminating
	}
	return s.opts.get(opt)
}

// events drains the commands and reports readiness. A terminated context
// has no events.
func (s *Socket) events() PollEvents {
	if err := s.processCommands(0, false); err != nil {
		return 0
	}

	var events PollEvents
	if s.pattern.hasOut() {
		events |= PollOut
	}
	if s.pattern.hasIn() {
		events |= PollIn
	}
	return events
}

// Close releases the socket. It returns right away, the pending messages
// are sent in the background for up to the Linger option.
func (s *Socket) Close() error {
	if s.disposed.Swap(true) {
		return nil
	}
	s.logger.Debug("closing socket")
	s.sendReap(s)
	return nil
}

// processCommands runs the commands waiting in the mailbox. A non zero
// timeout waits for the first command. A throttled drain is skipped when
// the previous one happened less than maxCommandDelay ago.
func (s *Socket) processCommands(timeout time.Duration, throttle bool) error {
	var (
		cmd command
		ok  bool
	)

	if timeout != 0 {
		cmd, ok = s.mailbox.recv(timeout)
	} else {
		if throttle {
			now := time.Now()
			if !s.lastTSC.IsZero() && now.Sub(s.lastTSC) <= maxCommandDelay {
				return nil
			}
			s.lastTSC = now
		}
		cmd, ok = s.mailbox.recv(0)
	}

	for ok {
		cmd.destination.processCommand(cmd)
		cmd, ok = s.mailbox.recv(0)
	}

	if s.ctxTerminated {
		return gerrors.ErrTerminating
	}
	return nil
}

func (s *Socket) processCommand(cmd command) {
	switch cmd.kind {
	case cmdStop:
		s.processStop()
	case cmdBind:
		s.attachPipe(cmd.object.(*pipe), false)
		s.processSeqnum()
	case cmdInEvent:
		s.inEvent()
	default:
		if !s.processCommonCommand(cmd) {
			s.logger.Warnf("ignored command=(%s)", cmd.kind)
		}
	}
}

// stop tells the socket its context is terminating
func (s *Socket) stop() {
	s.sendStop(s)
}

func (s *Socket) processStop() {
	s.stopMonitor()
	s.ctxTerminated = true
}

func (s *Socket) attachPipe(p *pipe, icanhasall bool) {
	p.setEventSink(s)
	s.pipes = append(s.pipes, p)
	s.pattern.attachPipe(p, icanhasall)

	// a pipe arriving during termination is terminated right away
	if s.isTerminating() {
		s.registerTermAcks(1)
		p.terminate(false)
	}
}

func (s *Socket) readActivated(p *pipe) {
	s.pattern.readActivated(p)
}

func (s *Socket) writeActivated(p *pipe) {
	s.pattern.writeActivated(p)
}

func (s *Socket) hiccuped(p *pipe) {
	// a deferred pipe only makes sense with a live connection
	if s.opts.delayAttachOnConnect {
		p.terminate(false)
		return
	}
	s.pattern.hiccuped(p)
}

func (s *Socket) pipeTerminated(p *pipe) {
	s.pattern.terminated(p)

	for endpoint, pipes := range s.inprocs {
		for i, item := range pipes {
			if item != p {
				continue
			}
			pipes = append(pipes[:i], pipes[i+1:]...)
			if len(pipes) == 0 {
				delete(s.inprocs, endpoint)
			} else {
				s.inprocs[endpoint] = pipes
			}
			break
		}
	}

	s.pipes.erase(p)

	if s.isTerminating() {
		s.unregisterTermAck()
	}
}

// processTerm stops new in-process peers from connecting and asks every
// pipe to terminate. The socket is destroyed once all of them and all the
// children have acknowledged.
func (s *Socket) processTerm(linger time.Duration) {
	s.ctx.unregisterEndpoints(s)

	for _, p := range s.pipes {
		p.terminate(false)
	}
	s.registerTermAcks(len(s.pipes))

	s.own.processTerm(linger)
}

func (s *Socket) processDestroy() {
	s.logger.Debug("socket destroyed")
}

// startReaping hands the socket over to the reaper, whose poller processes
// its commands from now on
func (s *Socket) startReaping(p *poller) {
	s.reaperPoller = p
	p.addHandle(s)
	s.terminate()
	s.checkDestroy()
}

func (s *Socket) inEvent() {
	if s.reaped {
		return
	}
	// the context may be terminating, the commands still have to run
	_ = s.processCommands(0, false)
	s.checkDestroy()
}

func (s *Socket) checkDestroy() {
	if !s.destroyed || s.reaped {
		return
	}
	s.reaped = true

	s.reaperPoller.removeHandle(s)
	s.stopMonitor()
	s.ctx.destroySocket(s)
	s.sendReaped()
	s.release()
	s.mailbox.close()
}
