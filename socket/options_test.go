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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/gomq/errors"
)

func TestOptions(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		opts := defaultOptions()
		assert.Equal(t, 1000, opts.sndhwm)
		assert.Equal(t, 1000, opts.rcvhwm)
		assert.Equal(t, time.Duration(-1), opts.linger)
		assert.Equal(t, 100*time.Millisecond, opts.reconnectIvl)
		assert.EqualValues(t, -1, opts.maxMsgSize)
		assert.True(t, opts.ipv4Only)
		assert.True(t, opts.delayOnClose)
		assert.True(t, opts.delayOnDisconnect)
	})
	t.Run("With valid values", func(t *testing.T) {
		opts := defaultOptions()

		require.NoError(t, opts.set(SendHighWatermark, 10))
		require.NoError(t, opts.set(ReceiveHighWatermark, 0))
		require.NoError(t, opts.set(Linger, 250))
		require.NoError(t, opts.set(ReconnectInterval, time.Second))
		require.NoError(t, opts.set(Identity, "worker-1"))
		require.NoError(t, opts.set(Affinity, 3))
		require.NoError(t, opts.set(MaxMessageSize, 1024))
		require.NoError(t, opts.set(Compression, "zstd"))

		value, err := opts.get(SendHighWatermark)
		require.NoError(t, err)
		assert.Equal(t, 10, value)

		value, err = opts.get(Linger)
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, value)

		value, err = opts.get(Identity)
		require.NoError(t, err)
		assert.Equal(t, []byte("worker-1"), value)

		value, err = opts.get(Affinity)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), value)

		value, err = opts.get(MaxMessageSize)
		require.NoError(t, err)
		assert.Equal(t, int64(1024), value)

		assert.NotNil(t, opts.compressor)
	})
	t.Run("With invalid values", func(t *testing.T) {
		opts := defaultOptions()

		testCases := []struct {
			opt   Option
			value any
		}{
			{SendHighWatermark, -1},
			{SendHighWatermark, "ten"},
			{Identity, ""},
			{Identity, []byte{0, 1}},
			{Identity, make([]byte, 256)},
			{Affinity, -2},
			{MulticastHops, 0},
			{TCPKeepalive, 2},
			{MaxMessageSize, -2},
			{Compression, "lz4"},
			{Linger, "forever"},
			{Events, 1},
		}

		for _, tc := range testCases {
			err := opts.set(tc.opt, tc.value)
			assert.ErrorIs(t, err, gerrors.ErrInvalidArgument, "option %s value %v", tc.opt, tc.value)
		}
	})
	t.Run("With clone", func(t *testing.T) {
		opts := defaultOptions()
		require.NoError(t, opts.set(Identity, "a"))

		clone := opts.clone()
		clone.identity[0] = 'b'
		clone.sndhwm = 1

		assert.Equal(t, []byte("a"), opts.identity)
		assert.Equal(t, 1000, opts.sndhwm)
	})
	t.Run("With option names", func(t *testing.T) {
		assert.Equal(t, "send-hwm", SendHighWatermark.String())
		assert.Equal(t, "option(999)", Option(999).String())
	})
}

func TestType(t *testing.T) {
	t.Run("With names", func(t *testing.T) {
		assert.Equal(t, "ROUTER", Router.String())
		assert.Equal(t, "UNKNOWN", Type(42).String())

		socketType, err := ParseType("dealer")
		require.NoError(t, err)
		assert.Equal(t, Dealer, socketType)

		_, err = ParseType("bogus")
		assert.ErrorIs(t, err, gerrors.ErrInvalidSocketType)
	})
	t.Run("With compatible peers", func(t *testing.T) {
		assert.True(t, Req.compatible(Rep))
		assert.True(t, Req.compatible(Router))
		assert.True(t, Dealer.compatible(Dealer))
		assert.True(t, Pub.compatible(Sub))
		assert.True(t, XSub.compatible(Pub))
		assert.True(t, Push.compatible(Pull))
		assert.True(t, Pair.compatible(Pair))

		assert.False(t, Req.compatible(Req))
		assert.False(t, Pub.compatible(Pub))
		assert.False(t, Push.compatible(Push))
		assert.False(t, Pair.compatible(Dealer))
	})
}
