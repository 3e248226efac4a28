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

package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreeting(t *testing.T) {
	t.Run("With identity", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, WriteGreeting(buf, Greeting{Version: Version, SocketType: 5, Identity: []byte("worker-1")}))
		assert.Equal(t, []byte{0xFF, 'G', 'M', 'Q', 1, 5, 8}, buf.Bytes()[:7])

		greeting, err := ReadGreeting(buf)
		require.NoError(t, err)
		assert.Equal(t, byte(5), greeting.SocketType)
		assert.Equal(t, []byte("worker-1"), greeting.Identity)
	})

	t.Run("With bad signature", func(t *testing.T) {
		_, err := ReadGreeting(bytes.NewReader([]byte("GET / HTTP/1.1")))
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("With newer version", func(t *testing.T) {
		_, err := ReadGreeting(bytes.NewReader([]byte{0xFF, 'G', 'M', 'Q', 9, 0, 0}))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("With identity too long", func(t *testing.T) {
		err := WriteGreeting(io.Discard, Greeting{Version: Version, Identity: make([]byte, 256)})
		assert.ErrorIs(t, err, ErrIdentityTooLong)
	})
}

func TestFrames(t *testing.T) {
	t.Run("With short and long frames", func(t *testing.T) {
		long := bytes.Repeat([]byte{'x'}, 300)
		var stream []byte
		stream = AppendFrame(stream, []byte("topic"), true)
		stream = AppendFrame(stream, long, true)
		stream = AppendFrame(stream, nil, false)

		decoder := NewDecoder(bytes.NewReader(stream), -1)

		body, more, err := decoder.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, []byte("topic"), body)
		assert.True(t, more)

		body, more, err = decoder.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, long, body)
		assert.True(t, more)

		body, more, err = decoder.ReadFrame()
		require.NoError(t, err)
		assert.Empty(t, body)
		assert.False(t, more)

		_, _, err = decoder.ReadFrame()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("With maximum size", func(t *testing.T) {
		stream := AppendFrame(nil, []byte("0123456789"), false)
		_, _, err := NewDecoder(bytes.NewReader(stream), 4).ReadFrame()
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})

	t.Run("With truncated frame", func(t *testing.T) {
		stream := AppendFrame(nil, []byte("0123456789"), false)
		_, _, err := NewDecoder(bytes.NewReader(stream[:5]), -1).ReadFrame()
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("With invalid flags", func(t *testing.T) {
		_, _, err := NewDecoder(bytes.NewReader([]byte{0x80, 0}), -1).ReadFrame()
		assert.ErrorIs(t, err, ErrInvalidFlags)
	})
}
