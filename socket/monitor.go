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
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/tochemey/gomq/address"
	gerrors "github.com/tochemey/gomq/errors"
)

// Event is a kind of socket lifecycle event. Events are bit flags so that
// a monitor can subscribe to several of them.
type Event uint16

const (
	// EventConnected carries the handle of the new connection
	EventConnected Event = 1 << iota
	// EventConnectDelayed carries the error code of the first failed attempt
	EventConnectDelayed
	// EventConnectRetried carries the reconnect interval in milliseconds
	EventConnectRetried
	// EventListening carries the handle of the listener
	EventListening
	// EventBindFailed carries an error code
	EventBindFailed
	// EventAccepted carries the handle of the accepted connection
	EventAccepted
	// EventAcceptFailed carries an error code
	EventAcceptFailed
	// EventClosed carries the handle of the closed listener
	EventClosed
	// EventCloseFailed carries an error code
	EventCloseFailed
	// EventDisconnected carries the handle of the lost connection
	EventDisconnected

	// EventAll subscribes to every event
	EventAll = EventConnected | EventConnectDelayed | EventConnectRetried |
		EventListening | EventBindFailed | EventAccepted | EventAcceptFailed |
		EventClosed | EventCloseFailed | EventDisconnected
)

var eventNames = map[Event]string{
	EventConnected:      "connected",
	EventConnectDelayed: "connect-delayed",
	EventConnectRetried: "connect-retried",
	EventListening:      "listening",
	EventBindFailed:     "bind-failed",
	EventAccepted:       "accepted",
	EventAcceptFailed:   "accept-failed",
	EventClosed:         "closed",
	EventCloseFailed:    "close-failed",
	EventDisconnected:   "disconnected",
}

// String returns the names of the events in the set.
func (e Event) String() string {
	var names []string
	for bit := EventConnected; bit <= EventDisconnected; bit <<= 1 {
		if e&bit != 0 {
			names = append(names, eventNames[bit])
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("Event(%d)", uint16(e))
	}
	return strings.Join(names, "|")
}

// MonitorEvent is one event read from a monitor endpoint.
type MonitorEvent struct {
	Event   Event
	Address string
	// Value is a handle, an error code or an interval depending on Event
	Value uint32
}

// Err returns the error carried by the failure events.
func (e MonitorEvent) Err() error {
	switch e.Event {
	case EventConnectDelayed, EventBindFailed, EventAcceptFailed, EventCloseFailed:
		return gerrors.ErrorOf(gerrors.Code(e.Value))
	default:
		return nil
	}
}

// Interval returns the reconnect interval of EventConnectRetried.
func (e MonitorEvent) Interval() time.Duration {
	if e.Event != EventConnectRetried {
		return 0
	}
	return time.Duration(e.Value) * time.Millisecond
}

// ParseMonitorEvent decodes the two frames of a monitor event.
func ParseMonitorEvent(frames [][]byte) (MonitorEvent, error) {
	if len(frames) != 2 || len(frames[0]) != 6 {
		return MonitorEvent{}, gerrors.NewErrInvalidArgument("malformed monitor event")
	}
	return MonitorEvent{
		Event:   Event(binary.LittleEndian.Uint16(frames[0][:2])),
		Value:   binary.LittleEndian.Uint32(frames[0][2:]),
		Address: string(frames[1]),
	}, nil
}

// ReadMonitorEvent receives the next event from a socket subscribed to a
// monitor endpoint.
func ReadMonitorEvent(s *Socket) (MonitorEvent, error) {
	frames, err := s.RecvMultipart()
	if err != nil {
		return MonitorEvent{}, err
	}
	return ParseMonitorEvent(frames)
}

// Monitor publishes the events of the socket on an in-process endpoint. A
// SUB socket connected to the endpoint receives every event in events. An
// empty endpoint stops monitoring.
func (s *Socket) Monitor(endpoint string, events Event) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	s.monitorMu.Lock()
	defer s.monitorMu.Unlock()

	if endpoint == "" {
		s.stopMonitorLocked()
		return nil
	}

	protocol, _, err := address.Split(endpoint)
	if err != nil {
		return err
	}
	if protocol != address.InProc {
		return gerrors.NewErrProtocolNotSupported(protocol)
	}

	s.stopMonitorLocked()

	monitor, err := s.ctx.CreateSocket(Pub)
	if err != nil {
		return err
	}

	// pending events never hold the context back
	if err := monitor.SetOption(Linger, 0); err != nil {
		_ = monitor.Close()
		return err
	}

	if err := monitor.Bind(endpoint); err != nil {
		_ = monitor.Close()
		return err
	}

	s.monitor = monitor
	s.monitorEvents = events
	return nil
}

func (s *Socket) stopMonitor() {
	s.monitorMu.Lock()
	defer s.monitorMu.Unlock()
	s.stopMonitorLocked()
}

func (s *Socket) stopMonitorLocked() {
	if s.monitor == nil {
		return
	}
	_ = s.monitor.Close()
	s.monitor = nil
	s.monitorEvents = 0
}

// emit publishes an event when the monitor subscribed to it. It is called
// from the I/O threads.
func (s *Socket) emit(event Event, endpoint string, value uint32) {
	s.monitorMu.Lock()
	defer s.monitorMu.Unlock()

	if s.monitor == nil || s.monitorEvents&event == 0 {
		return
	}

	// subscribers that connected since the last event are attached first
	if err := s.monitor.processCommands(0, false); err != nil {
		return
	}

	header := make([]byte, 6)
	binary.LittleEndian.PutUint16(header[:2], uint16(event))
	binary.LittleEndian.PutUint32(header[2:], value)

	if err := s.monitor.Send(NewMsg(header), SendMore|DontWait); err != nil {
		return
	}
	_ = s.monitor.Send(NewMsg([]byte(endpoint)), DontWait)
}

func (s *Socket) eventConnected(endpoint string, handle uint32) {
	s.emit(EventConnected, endpoint, handle)
}

func (s *Socket) eventConnectDelayed(endpoint string, err error) {
	s.emit(EventConnectDelayed, endpoint, uint32(gerrors.CodeOf(err)))
}

func (s *Socket) eventConnectRetried(endpoint string, interval time.Duration) {
	s.emit(EventConnectRetried, endpoint, uint32(interval.Milliseconds()))
}

func (s *Socket) eventListening(endpoint string, handle uint32) {
	s.emit(EventListening, endpoint, handle)
}

func (s *Socket) eventBindFailed(endpoint string, err error) {
	s.emit(EventBindFailed, endpoint, uint32(gerrors.CodeOf(err)))
}

func (s *Socket) eventAccepted(endpoint string, handle uint32) {
	s.emit(EventAccepted, endpoint, handle)
}

func (s *Socket) eventAcceptFailed(endpoint string, err error) {
	s.emit(EventAcceptFailed, endpoint, uint32(gerrors.CodeOf(err)))
}

func (s *Socket) eventClosed(endpoint string, handle uint32) {
	s.emit(EventClosed, endpoint, handle)
}

func (s *Socket) eventCloseFailed(endpoint string, err error) {
	s.emit(EventCloseFailed, endpoint, uint32(gerrors.CodeOf(err)))
}

func (s *Socket) eventDisconnected(endpoint string, handle uint32) {
	s.emit(EventDisconnected, endpoint, handle)
}
