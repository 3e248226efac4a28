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
)

func TestMailbox(t *testing.T) {
	t.Run("With commands in order", func(t *testing.T) {
		mb := newMailbox("test")
		defer mb.close()

		mb.send(command{kind: cmdStop})
		mb.send(command{kind: cmdPlug})

		select {
		case <-mb.handle():
		default:
			t.Fatal("expected the handle to be signaled")
		}

		cmd, ok := mb.recv(0)
		require.True(t, ok)
		assert.Equal(t, cmdStop, cmd.kind)

		cmd, ok = mb.recv(0)
		require.True(t, ok)
		assert.Equal(t, cmdPlug, cmd.kind)

		_, ok = mb.recv(0)
		assert.False(t, ok)
	})
	t.Run("With timeout", func(t *testing.T) {
		mb := newMailbox("test")
		defer mb.close()

		start := time.Now()
		_, ok := mb.recv(50 * time.Millisecond)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})
	t.Run("With blocking receive", func(t *testing.T) {
		mb := newMailbox("test")
		defer mb.close()

		received := make(chan command, 1)
		go func() {
			cmd, ok := mb.recv(-1)
			if ok {
				received <- cmd
			}
			close(received)
		}()

		mb.send(command{kind: cmdDone})
		cmd, ok := <-received
		require.True(t, ok)
		assert.Equal(t, cmdDone, cmd.kind)
	})
	t.Run("With closed mailbox", func(t *testing.T) {
		mb := newMailbox("test")
		mb.close()

		// sending to a closed mailbox is a no-op
		mb.send(command{kind: cmdStop})
		_, ok := mb.recv(-1)
		assert.False(t, ok)
	})
}
