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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type stubActor struct {
	tid int
}

func (a stubActor) threadID() int            { return a.tid }
func (a stubActor) processCommand(_ command) {}

type recordingSink struct {
	readActivations  int
	writeActivations int
	hiccups          int
	terminated       int
}

func (s *recordingSink) readActivated(*pipe)  { s.readActivations++ }
func (s *recordingSink) writeActivated(*pipe) { s.writeActivations++ }
func (s *recordingSink) hiccuped(*pipe)       { s.hiccups++ }
func (s *recordingSink) pipeTerminated(*pipe) { s.terminated++ }

// pipeFixture is a pipe whose two ends live on slots 0 and 1 of a context
// that only routes commands
type pipeFixture struct {
	ctx   *Context
	pipes [2]*pipe
	sinks [2]*recordingSink
	boxes [2]*mailbox
}

func newPipeFixture(hwms [2]int, delays [2]bool) *pipeFixture {
	f := &pipeFixture{ctx: &Context{}}
	for i := range f.boxes {
		f.boxes[i] = newMailbox("test")
		f.ctx.slots = append(f.ctx.slots, atomic.NewPointer(f.boxes[i]))
		f.sinks[i] = &recordingSink{}
	}

	f.pipes = pipePair([2]actor{stubActor{tid: 0}, stubActor{tid: 1}}, f.ctx, hwms, delays)
	f.pipes[0].setEventSink(f.sinks[0])
	f.pipes[1].setEventSink(f.sinks[1])
	return f
}

// deliver processes the commands waiting for the given end and reports how
// many there were
func (f *pipeFixture) deliver(end int) int {
	count := 0
	for {
		cmd, ok := f.boxes[end].recv(0)
		if !ok {
			return count
		}
		cmd.destination.processCommand(cmd)
		count++
	}
}

func (f *pipeFixture) close() {
	for _, box := range f.boxes {
		box.close()
	}
}

func frame(data string, more bool) *Msg {
	msg := NewMsg([]byte(data))
	msg.setMore(more)
	return msg
}

func TestPipe(t *testing.T) {
	t.Run("With complete message flushed", func(t *testing.T) {
		f := newPipeFixture([2]int{10, 10}, [2]bool{true, true})
		defer f.close()

		writer, reader := f.pipes[0], f.pipes[1]
		require.True(t, writer.write(frame("a", true)))
		require.True(t, writer.write(frame("b", false)))

		// nothing is visible before the flush
		assert.False(t, reader.checkRead())
		writer.flush()

		// the reader went to sleep, the flush woke it up
		assert.Equal(t, 1, f.deliver(1))
		assert.Equal(t, 1, f.sinks[1].readActivations)

		msg, ok := reader.read()
		require.True(t, ok)
		assert.Equal(t, "a", msg.String())
		assert.True(t, msg.More())

		msg, ok = reader.read()
		require.True(t, ok)
		assert.Equal(t, "b", msg.String())
		assert.False(t, msg.More())

		_, ok = reader.read()
		assert.False(t, ok)
	})
	t.Run("With incomplete message not flushed", func(t *testing.T) {
		f := newPipeFixture([2]int{10, 10}, [2]bool{true, true})
		defer f.close()

		writer, reader := f.pipes[0], f.pipes[1]
		require.True(t, writer.write(frame("one", false)))
		require.True(t, writer.write(frame("two", true)))
		writer.flush()

		msg, ok := reader.read()
		require.True(t, ok)
		assert.Equal(t, "one", msg.String())

		// the second message has no last frame yet
		_, ok = reader.read()
		assert.False(t, ok)

		writer.rollback()
		assert.Empty(t, writer.pending)
	})
	t.Run("With high water mark reached", func(t *testing.T) {
		f := newPipeFixture([2]int{2, 2}, [2]bool{true, true})
		defer f.close()

		writer, reader := f.pipes[0], f.pipes[1]
		require.True(t, writer.write(frame("1", false)))
		require.True(t, writer.write(frame("2", false)))
		writer.flush()

		assert.False(t, writer.checkWrite())
		assert.False(t, writer.write(frame("3", false)))

		_, ok := reader.read()
		require.True(t, ok)

		// the reader reports its progress every low water mark messages
		f.deliver(0)
		assert.Equal(t, 1, f.sinks[0].writeActivations)
		assert.True(t, writer.checkWrite())
	})
	t.Run("With unbounded pipe", func(t *testing.T) {
		f := newPipeFixture([2]int{0, 0}, [2]bool{true, true})
		defer f.close()

		writer := f.pipes[0]
		for i := 0; i < 5000; i++ {
			require.True(t, writer.write(frame("x", false)))
		}
		writer.flush()
		assert.True(t, writer.checkWrite())
	})
	t.Run("With identity not counted", func(t *testing.T) {
		f := newPipeFixture([2]int{1, 1}, [2]bool{true, true})
		defer f.close()

		writer, reader := f.pipes[0], f.pipes[1]
		require.True(t, writer.write(newIdentityMsg([]byte("peer"))))
		require.True(t, writer.write(frame("payload", false)))
		writer.flush()
		assert.EqualValues(t, 1, writer.msgsWritten)

		msg, ok := reader.read()
		require.True(t, ok)
		assert.True(t, msg.isIdentity())
		assert.Equal(t, "peer", msg.String())
		assert.Zero(t, reader.msgsRead)
	})
	t.Run("With termination by the writer", func(t *testing.T) {
		f := newPipeFixture([2]int{10, 10}, [2]bool{true, true})
		defer f.close()

		writer, reader := f.pipes[0], f.pipes[1]
		require.True(t, writer.write(frame("pending", false)))
		writer.flush()
		writer.terminate(false)
		assert.Equal(t, pipeTermReqSent1, writer.state)

		f.deliver(1)
		assert.Equal(t, pipeWaitingForDelimiter, reader.state)

		// the pending message is still delivered
		msg, ok := reader.read()
		require.True(t, ok)
		assert.Equal(t, "pending", msg.String())

		// then the delimiter acknowledges the termination
		_, ok = reader.read()
		assert.False(t, ok)
		assert.Equal(t, pipeTermAckSent, reader.state)

		f.deliver(0)
		assert.Equal(t, 1, f.sinks[0].terminated)
		f.deliver(1)
		assert.Equal(t, 1, f.sinks[1].terminated)
	})
	t.Run("With termination without delay", func(t *testing.T) {
		f := newPipeFixture([2]int{10, 10}, [2]bool{false, false})
		defer f.close()

		writer, reader := f.pipes[0], f.pipes[1]
		require.True(t, writer.write(frame("dropped", false)))
		writer.flush()
		writer.terminate(false)

		f.deliver(1)
		assert.Equal(t, pipeTermAckSent, reader.state)
		_, ok := reader.read()
		assert.False(t, ok)

		f.deliver(0)
		f.deliver(1)
		assert.Equal(t, 1, f.sinks[0].terminated)
		assert.Equal(t, 1, f.sinks[1].terminated)
	})
	t.Run("With both ends terminating", func(t *testing.T) {
		f := newPipeFixture([2]int{10, 10}, [2]bool{true, true})
		defer f.close()

		f.pipes[0].terminate(false)
		f.pipes[1].terminate(false)

		f.deliver(0)
		f.deliver(1)
		f.deliver(0)
		f.deliver(1)

		assert.Equal(t, 1, f.sinks[0].terminated)
		assert.Equal(t, 1, f.sinks[1].terminated)

		// a second terminate is ignored
		f.pipes[0].terminate(false)
		assert.Zero(t, f.deliver(1))
	})
	t.Run("With hiccup", func(t *testing.T) {
		f := newPipeFixture([2]int{10, 10}, [2]bool{true, true})
		defer f.close()

		writer, reader := f.pipes[0], f.pipes[1]
		require.True(t, writer.write(frame("stale", false)))
		writer.flush()

		reader.hiccup()
		f.deliver(0)
		assert.Equal(t, 1, f.sinks[0].hiccups)
		assert.Zero(t, writer.msgsWritten)

		// the reader now reads the queue given in the hiccup
		require.True(t, writer.write(frame("fresh", false)))
		writer.flush()
		msg, ok := reader.read()
		require.True(t, ok)
		assert.Equal(t, "fresh", msg.String())
	})
}

func TestComputeLWM(t *testing.T) {
	assert.Equal(t, 500, computeLWM(1000))
	assert.Equal(t, 1, computeLWM(1))
	assert.Equal(t, 0, computeLWM(0))
	assert.Equal(t, 10000-maxWatermarkDelta, computeLWM(10000))
}
