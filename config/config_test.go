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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/gomq/errors"
	"github.com/tochemey/gomq/log"
	"github.com/tochemey/gomq/socket"
)

func TestConfig(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, socket.DefaultIOThreads, cfg.IOThreads)
		assert.Equal(t, socket.DefaultMaxSockets, cfg.MaxSockets)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.Socket.options())
	})
	t.Run("With valid config", func(t *testing.T) {
		cfg, err := Parse([]byte(`
io-threads: 2
max-sockets: 16
log-level: warn
socket:
  send-hwm: 10
  receive-hwm: 0
  affinity: 3
  linger: 250ms
  reconnect-interval: 1s
  max-message-size: 4096
  ipv4-only: false
  compression: zstd
`))
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.IOThreads)
		assert.Equal(t, 16, cfg.MaxSockets)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, log.WarningLevel, cfg.Logger().LogLevel())

		assert.Equal(t, map[socket.Option]any{
			socket.SendHighWatermark:    10,
			socket.ReceiveHighWatermark: 0,
			socket.Affinity:             uint64(3),
			socket.Linger:               250 * time.Millisecond,
			socket.ReconnectInterval:    time.Second,
			socket.MaxMessageSize:       int64(4096),
			socket.IPv4Only:             false,
			socket.Compression:          "zstd",
		}, cfg.Socket.options())
	})
	t.Run("With invalid values", func(t *testing.T) {
		testCases := []struct {
			name string
			data string
		}{
			{"io threads", "io-threads: 100"},
			{"max sockets", "max-sockets: 0"},
			{"log level", "log-level: loud"},
			{"unknown key", "threads: 2"},
			{"malformed", "io-threads: [1"},
			{"socket default", "socket:\n  compression: lz4"},
			{"negative hwm", "socket:\n  send-hwm: -1"},
		}

		for _, tc := range testCases {
			_, err := Parse([]byte(tc.data))
			assert.ErrorIs(t, err, gerrors.ErrInvalidArgument, tc.name)
		}
	})
	t.Run("With config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gomq.yaml")
		require.NoError(t, os.WriteFile(path, []byte("io-threads: 0\nsocket:\n  backlog: 50\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Zero(t, cfg.IOThreads)
		require.NotNil(t, cfg.Socket.Backlog)
		assert.Equal(t, 50, *cfg.Socket.Backlog)

		_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
	t.Run("With context created from config", func(t *testing.T) {
		cfg, err := Parse([]byte("socket:\n  send-hwm: 7\n  linger: 0s\n"))
		require.NoError(t, err)

		ctx, err := cfg.NewContext(socket.WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		s, err := ctx.CreateSocket(socket.Push)
		require.NoError(t, err)

		value, err := s.GetOption(socket.SendHighWatermark)
		require.NoError(t, err)
		assert.Equal(t, 7, value)

		value, err = s.GetOption(socket.Linger)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), value)

		require.NoError(t, s.Close())
		require.NoError(t, ctx.Terminate())
	})
}
