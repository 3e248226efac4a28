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
	"fmt"
	"time"

	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/internal/compression"
	"github.com/tochemey/gomq/internal/validation"
)

// Option names a socket option.
type Option int

const (
	// SendHighWatermark is the outbound queue limit per pipe (int, 0 = unbounded)
	SendHighWatermark Option = iota + 1
	// ReceiveHighWatermark is the inbound queue limit per pipe (int, 0 = unbounded)
	ReceiveHighWatermark
	// Affinity is the bitmask of I/O threads new connections may use (uint64)
	Affinity
	// Identity is sent to peers on connection ([]byte or string, 1 to 255 bytes)
	Identity
	// Linger bounds how long pending messages are kept after Close (time.Duration, negative = forever)
	Linger
	// ReconnectInterval is the first delay between reconnection attempts (time.Duration, negative = never)
	ReconnectInterval
	// ReconnectIntervalMax caps the exponential reconnection backoff (time.Duration, 0 = no backoff)
	ReconnectIntervalMax
	// Backlog is the listen queue length (int)
	Backlog
	// MaxMessageSize rejects inbound frames larger than this (int64, negative = unlimited)
	MaxMessageSize
	// MulticastHops is the time to live of multicast datagrams (int)
	MulticastHops
	// MulticastLoopback delivers multicast datagrams to local receivers (bool)
	MulticastLoopback
	// SendTimeout bounds blocking sends (time.Duration, negative = forever, 0 = never block)
	SendTimeout
	// ReceiveTimeout bounds blocking receives (time.Duration, negative = forever, 0 = never block)
	ReceiveTimeout
	// IPv4Only restricts name resolution to IPv4 (bool)
	IPv4Only
	// DelayAttachOnConnect queues messages only for completed connections (bool)
	DelayAttachOnConnect
	// TCPKeepalive enables (1) or disables (0) keepalive probes, -1 keeps the system default (int)
	TCPKeepalive
	// TCPKeepaliveIdle is the idle time before keepalive probes start (time.Duration)
	TCPKeepaliveIdle
	// Compression selects the stream compression: "none", "zstd" or "brotli" (string)
	Compression
	// Subscribe adds a prefix subscription on SUB sockets ([]byte or string)
	Subscribe
	// Unsubscribe removes a prefix subscription on SUB sockets ([]byte or string)
	Unsubscribe
	// RouterMandatory makes ROUTER sockets fail on unroutable messages (bool)
	RouterMandatory
	// XPubVerbose passes every subscription up on XPUB sockets, not only new ones (bool)
	XPubVerbose
	// ReceiveMore reports whether the last received frame has a continuation (bool, read only)
	ReceiveMore
	// Events reports the readiness of the socket as PollEvents (read only)
	Events
	// Handle is a channel pulsed when the socket has commands to process (<-chan struct{}, read only)
	Handle
	// LastEndpoint is the last bound or connected endpoint (string, read only)
	LastEndpoint
	// SocketType is the socket's messaging pattern (Type, read only)
	SocketType
)

var optionNames = map[Option]string{
	SendHighWatermark:    "send-hwm",
	ReceiveHighWatermark: "receive-hwm",
	Affinity:             "affinity",
	Identity:             "identity",
	Linger:               "linger",
	ReconnectInterval:    "reconnect-interval",
	ReconnectIntervalMax: "reconnect-interval-max",
	Backlog:              "backlog",
	MaxMessageSize:       "max-message-size",
	MulticastHops:        "multicast-hops",
	MulticastLoopback:    "multicast-loopback",
	SendTimeout:          "send-timeout",
	ReceiveTimeout:       "receive-timeout",
	IPv4Only:             "ipv4-only",
	DelayAttachOnConnect: "delay-attach-on-connect",
	TCPKeepalive:         "tcp-keepalive",
	TCPKeepaliveIdle:     "tcp-keepalive-idle",
	Compression:          "compression",
	Subscribe:            "subscribe",
	Unsubscribe:          "unsubscribe",
	RouterMandatory:      "router-mandatory",
	XPubVerbose:          "xpub-verbose",
	ReceiveMore:          "receive-more",
	Events:               "events",
	Handle:               "handle",
	LastEndpoint:         "last-endpoint",
	SocketType:           "socket-type",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("option(%d)", int(o))
}

// options is the option set of a socket. Sessions, listeners and engines
// get a copy taken when they are created.
type options struct {
	socketType Type
	socketID   int

	sndhwm               int
	rcvhwm               int
	affinity             uint64
	identity             []byte
	linger               time.Duration
	reconnectIvl         time.Duration
	reconnectIvlMax      time.Duration
	backlog              int
	maxMsgSize           int64
	multicastHops        int
	multicastLoopback    bool
	sndtimeo             time.Duration
	rcvtimeo             time.Duration
	ipv4Only             bool
	delayAttachOnConnect bool
	tcpKeepalive         int
	tcpKeepaliveIdle     time.Duration
	compression          string
	compressor           compression.Wrapper

	// set by the socket patterns
	recvIdentity bool
	rawSocket    bool

	// pipes do not drop pending messages when their peer goes away
	delayOnClose      bool
	delayOnDisconnect bool

	lastEndpoint string
}

func defaultOptions() options {
	return options{
		sndhwm:            1000,
		rcvhwm:            1000,
		linger:            -1,
		reconnectIvl:      100 * time.Millisecond,
		backlog:           100,
		maxMsgSize:        -1,
		multicastHops:     1,
		multicastLoopback: true,
		sndtimeo:          -1,
		rcvtimeo:          -1,
		ipv4Only:          true,
		tcpKeepalive:      -1,
		delayOnClose:      true,
		delayOnDisconnect: true,
	}
}

func (o *options) clone() *options {
	c := *o
	if o.identity != nil {
		c.identity = append([]byte(nil), o.identity...)
	}
	return &c
}

// set applies a generic option. Read only and pattern specific options are
// rejected with ErrInvalidArgument.
func (o *options) set(opt Option, value any) error {
	switch opt {
	case SendHighWatermark:
		v, err := toInt(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.NewMinValidator(opt.String(), v, 0)); err != nil {
			return err
		}
		o.sndhwm = v
	case ReceiveHighWatermark:
		v, err := toInt(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.NewMinValidator(opt.String(), v, 0)); err != nil {
			return err
		}
		o.rcvhwm = v
	case Affinity:
		switch v := value.(type) {
		case uint64:
			o.affinity = v
		case int:
			if v < 0 {
				return invalidValue(opt, value)
			}
			o.affinity = uint64(v)
		default:
			return invalidValue(opt, value)
		}
	case Identity:
		v, err := toBytes(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.New(validation.FailFast()).
			AddAssertion(len(v) > 0 && len(v) <= 255, "identity must be 1 to 255 bytes long").
			AddAssertion(len(v) == 0 || v[0] != 0, "identity cannot start with a zero byte")); err != nil {
			return err
		}
		o.identity = append([]byte(nil), v...)
	case Linger:
		v, err := toDuration(opt, value)
		if err != nil {
			return err
		}
		o.linger = v
	case ReconnectInterval:
		v, err := toDuration(opt, value)
		if err != nil {
			return err
		}
		o.reconnectIvl = v
	case ReconnectIntervalMax:
		v, err := toDuration(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.NewMinValidator(opt.String(), v, 0)); err != nil {
			return err
		}
		o.reconnectIvlMax = v
	case Backlog:
		v, err := toInt(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.NewMinValidator(opt.String(), v, 0)); err != nil {
			return err
		}
		o.backlog = v
	case MaxMessageSize:
		var v int64
		switch x := value.(type) {
		case int64:
			v = x
		case int:
			v = int64(x)
		default:
			return invalidValue(opt, value)
		}
		if err := validation.Check(validation.NewMinValidator(opt.String(), v, -1)); err != nil {
			return err
		}
		o.maxMsgSize = v
	case MulticastHops:
		v, err := toInt(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.NewRangeValidator(opt.String(), v, 1, 255)); err != nil {
			return err
		}
		o.multicastHops = v
	case MulticastLoopback:
		v, err := toBool(opt, value)
		if err != nil {
			return err
		}
		o.multicastLoopback = v
	case SendTimeout:
		v, err := toDuration(opt, value)
		if err != nil {
			return err
		}
		o.sndtimeo = v
	case ReceiveTimeout:
		v, err := toDuration(opt, value)
		if err != nil {
			return err
		}
		o.rcvtimeo = v
	case IPv4Only:
		v, err := toBool(opt, value)
		if err != nil {
			return err
		}
		o.ipv4Only = v
	case DelayAttachOnConnect:
		v, err := toBool(opt, value)
		if err != nil {
			return err
		}
		o.delayAttachOnConnect = v
	case TCPKeepalive:
		v, err := toInt(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.NewRangeValidator(opt.String(), v, -1, 1)); err != nil {
			return err
		}
		o.tcpKeepalive = v
	case TCPKeepaliveIdle:
		v, err := toDuration(opt, value)
		if err != nil {
			return err
		}
		if err := validation.Check(validation.NewMinValidator(opt.String(), v, 0)); err != nil {
			return err
		}
		o.tcpKeepaliveIdle = v
	case Compression:
		name, ok := value.(string)
		if !ok {
			return invalidValue(opt, value)
		}
		wrapper, err := compression.Parse(name)
		if err != nil {
			return err
		}
		o.compression = name
		o.compressor = wrapper
	default:
		return gerrors.NewErrInvalidArgument(fmt.Sprintf("option=(%s) cannot be set", opt))
	}
	return nil
}

// get returns the value of a generic option
func (o *options) get(opt Option) (any, error) {
	switch opt {
	case SendHighWatermark:
		return o.sndhwm, nil
	case ReceiveHighWatermark:
		return o.rcvhwm, nil
	case Affinity:
		return o.affinity, nil
	case Identity:
		return append([]byte(nil), o.identity...), nil
	case Linger:
		return o.linger, nil
	case ReconnectInterval:
		return o.reconnectIvl, nil
	case ReconnectIntervalMax:
		return o.reconnectIvlMax, nil
	case Backlog:
		return o.backlog, nil
	case MaxMessageSize:
		return o.maxMsgSize, nil
	case MulticastHops:
		return o.multicastHops, nil
	case MulticastLoopback:
		return o.multicastLoopback, nil
	case SendTimeout:
		return o.sndtimeo, nil
	case ReceiveTimeout:
		return o.rcvtimeo, nil
	case IPv4Only:
		return o.ipv4Only, nil
	case DelayAttachOnConnect:
		return o.delayAttachOnConnect, nil
	case TCPKeepalive:
		return o.tcpKeepalive, nil
	case TCPKeepaliveIdle:
		return o.tcpKeepaliveIdle, nil
	case Compression:
		return o.compression, nil
	case LastEndpoint:
		return o.lastEndpoint, nil
	case SocketType:
		return o.socketType, nil
	default:
		return nil, gerrors.NewErrInvalidArgument(fmt.Sprintf("option=(%s) cannot be read", opt))
	}
}

func invalidValue(opt Option, value any) error {
	return gerrors.NewErrInvalidArgument(fmt.Sprintf("option=(%s) does not accept value=(%v) of type %T", opt, value, value))
}

func toInt(opt Option, value any) (int, error) {
	if v, ok := value.(int); ok {
		return v, nil
	}
	return 0, invalidValue(opt, value)
}

func toBool(opt Option, value any) (bool, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return false, invalidValue(opt, value)
}

func toDuration(opt Option, value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case int:
		// plain integers are milliseconds
		return time.Duration(v) * time.Millisecond, nil
	default:
		return 0, invalidValue(opt, value)
	}
}

func toBytes(opt Option, value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, invalidValue(opt, value)
	}
}
