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

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/internal/validation"
	"github.com/tochemey/gomq/log"
	"github.com/tochemey/gomq/socket"
)

// Config represents a messaging context configuration as read from YAML:
//
//	io-threads: 2
//	max-sockets: 512
//	log-level: warn
//	socket:
//	  send-hwm: 5000
//	  linger: 250ms
//	  compression: zstd
type Config struct {
	// Specifies the number of I/O threads. The default value is 1
	IOThreads int `yaml:"io-threads"`
	// Specifies the maximum number of open sockets. The default value is 1023
	MaxSockets int `yaml:"max-sockets"`
	// Specifies the level of the context logger. The default value is info
	LogLevel string `yaml:"log-level"`
	// Specifies the option values every socket starts with
	Socket SocketDefaults `yaml:"socket"`
}

// SocketDefaults holds the socket options a configuration file may set.
// Unset fields keep the socket's own defaults.
type SocketDefaults struct {
	SendHighWatermark    *int           `yaml:"send-hwm"`
	ReceiveHighWatermark *int           `yaml:"receive-hwm"`
	Affinity             *uint64        `yaml:"affinity"`
	Linger               *time.Duration `yaml:"linger"`
	ReconnectInterval    *time.Duration `yaml:"reconnect-interval"`
	ReconnectIntervalMax *time.Duration `yaml:"reconnect-interval-max"`
	Backlog              *int           `yaml:"backlog"`
	MaxMessageSize       *int64         `yaml:"max-message-size"`
	MulticastHops        *int           `yaml:"multicast-hops"`
	SendTimeout          *time.Duration `yaml:"send-timeout"`
	ReceiveTimeout       *time.Duration `yaml:"receive-timeout"`
	IPv4Only             *bool          `yaml:"ipv4-only"`
	DelayAttachOnConnect *bool          `yaml:"delay-attach-on-connect"`
	TCPKeepalive         *int           `yaml:"tcp-keepalive"`
	TCPKeepaliveIdle     *time.Duration `yaml:"tcp-keepalive-idle"`
	Compression          *string        `yaml:"compression"`
}

// Default returns the configuration used when nothing is specified
func Default() *Config {
	return &Config{
		IOThreads:  socket.DefaultIOThreads,
		MaxSockets: socket.DefaultMaxSockets,
		LogLevel:   log.InfoLevel.String(),
	}
}

// Load reads and validates the configuration file at the given path
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Read(file)
}

// Parse validates the configuration held in data
func Parse(data []byte) (*Config, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a YAML configuration from the reader. Missing keys keep their
// default values and unknown keys are rejected.
func Read(reader io.Reader) (*Config, error) {
	config := Default()

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, gerrors.NewErrInvalidArgument(fmt.Sprintf("malformed config: %v", err))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the context settings and every socket default
func (c *Config) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewRangeValidator("io-threads", c.IOThreads, 0, 64)).
		AddValidator(validation.NewMinValidator("max-sockets", c.MaxSockets, 1))

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		chain.AddAssertion(false, err.Error())
	}

	if err := validation.Check(chain); err != nil {
		return err
	}

	// threads only start with the first socket, so this context holds no
	// resources
	_, err := socket.NewContext(
		socket.WithLogger(log.DiscardLogger),
		socket.WithSocketDefaults(c.Socket.options()))
	return err
}

// Logger returns a logger writing to os.Stdout at the configured level
func (c *Config) Logger() log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewZap(level, os.Stdout)
}

// ContextOptions converts the configuration into options for
// socket.NewContext
func (c *Config) ContextOptions() []socket.ContextOption {
	return []socket.ContextOption{
		socket.WithIOThreads(c.IOThreads),
		socket.WithMaxSockets(c.MaxSockets),
		socket.WithLogger(c.Logger()),
		socket.WithSocketDefaults(c.Socket.options()),
	}
}

// NewContext creates a messaging context from the configuration. Further
// options are applied after the configured ones.
func (c *Config) NewContext(opts ...socket.ContextOption) (*socket.Context, error) {
	return socket.NewContext(append(c.ContextOptions(), opts...)...)
}

func (d SocketDefaults) options() map[socket.Option]any {
	values := make(map[socket.Option]any)
	if d.SendHighWatermark != nil {
		values[socket.SendHighWatermark] = *d.SendHighWatermark
	}
	if d.ReceiveHighWatermark != nil {
		values[socket.ReceiveHighWatermark] = *d.ReceiveHighWatermark
	}
	if d.Affinity != nil {
		values[socket.Affinity] = *d.Affinity
	}
	if d.Linger != nil {
		values[socket.Linger] = *d.Linger
	}
	if d.ReconnectInterval != nil {
		values[socket.ReconnectInterval] = *d.ReconnectInterval
	}
	if d.ReconnectIntervalMax != nil {
		values[socket.ReconnectIntervalMax] = *d.ReconnectIntervalMax
	}
	if d.Backlog != nil {
		values[socket.Backlog] = *d.Backlog
	}
	if d.MaxMessageSize != nil {
		values[socket.MaxMessageSize] = *d.MaxMessageSize
	}
	if d.MulticastHops != nil {
		values[socket.MulticastHops] = *d.MulticastHops
	}
	if d.SendTimeout != nil {
		values[socket.SendTimeout] = *d.SendTimeout
	}
	if d.ReceiveTimeout != nil {
		values[socket.ReceiveTimeout] = *d.ReceiveTimeout
	}
	if d.IPv4Only != nil {
		values[socket.IPv4Only] = *d.IPv4Only
	}
	if d.DelayAttachOnConnect != nil {
		values[socket.DelayAttachOnConnect] = *d.DelayAttachOnConnect
	}
	if d.TCPKeepalive != nil {
		values[socket.TCPKeepalive] = *d.TCPKeepalive
	}
	if d.TCPKeepaliveIdle != nil {
		values[socket.TCPKeepaliveIdle] = *d.TCPKeepaliveIdle
	}
	if d.Compression != nil {
		values[socket.Compression] = *d.Compression
	}
	return values
}
