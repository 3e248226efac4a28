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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/gomq/log"
)

// syncBuffer is a log sink safe to share with the I/O threads
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestOwn(t *testing.T) {
	t.Run("With destroy after the last pipe acknowledgment", func(t *testing.T) {
		ctx := newTestContext(t)
		pull := newTestSocket(t, ctx, Pull)
		require.NoError(t, pull.Bind("inproc://acks"))

		pushes := make([]*Socket, 3)
		for i := range pushes {
			pushes[i] = newTestSocket(t, ctx, Push)
			require.NoError(t, pushes[i].Connect("inproc://acks"))
		}

		require.NoError(t, pull.processCommands(0, false))
		require.Len(t, pull.pipes, 3)

		pull.terminate()
		assert.True(t, pull.isTerminating())
		assert.Equal(t, 3, pull.termAcks)
		assert.False(t, pull.destroyed)

		for i, push := range pushes {
			// the peer acknowledges the pipe termination
			require.NoError(t, push.processCommands(0, false))
			require.NoError(t, pull.processCommands(0, false))

			assert.Equal(t, len(pushes)-1-i, pull.termAcks)
			assert.Equal(t, i == len(pushes)-1, pull.destroyed)
		}
		assert.Empty(t, pull.pipes)

		closeAll(t, ctx, append([]*Socket{pull}, pushes...)...)
	})
	t.Run("With unknown command logged", func(t *testing.T) {
		sink := new(syncBuffer)
		ctx := newTestContext(t, WithLogger(log.NewZap(log.WarningLevel, sink)))
		s := newTestSocket(t, ctx, Pair)

		ctx.sendCommand(s.tid, command{destination: s, kind: cmdHiccup})
		_, err := s.GetOption(Events)
		require.NoError(t, err)
		assert.Contains(t, sink.String(), "ignored command=(hiccup)")

		closeAll(t, ctx, s)
	})
	t.Run("With command names", func(t *testing.T) {
		assert.Equal(t, "term-ack", cmdTermAck.String())
		assert.Equal(t, "hiccup", cmdHiccup.String())
		assert.Equal(t, "unknown", commandType(200).String())
	})
}
