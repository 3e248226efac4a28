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

// Package compression wraps stream connections with a compression layer.
// Every write is flushed so that a frame written by the engine reaches the
// peer without waiting for more data.
package compression

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	gerrors "github.com/tochemey/gomq/errors"
)

// Algorithm names accepted by Parse.
const (
	None   = "none"
	Zstd   = "zstd"
	Brotli = "brotli"
)

var (
	// ErrZstdEncoderInit is returned when a zstd encoder cannot be created.
	ErrZstdEncoderInit = errors.New("failed to create zstd encoder")
	// ErrZstdDecoderInit is returned when a zstd decoder cannot be created.
	ErrZstdDecoderInit = errors.New("failed to create zstd decoder")
)

// Wrapper transforms a [net.Conn] by adding a compression layer.
// Implementations must be safe to call from multiple goroutines.
type Wrapper interface {
	Wrap(conn net.Conn) (net.Conn, error)
}

// Parse returns the wrapper for the given algorithm name. "none" and the
// empty string yield a nil wrapper.
func Parse(name string) (Wrapper, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", None:
		return nil, nil
	case Zstd:
		return NewZstd()
	case Brotli:
		return NewBrotli(), nil
	default:
		return nil, gerrors.NewErrInvalidArgument(fmt.Sprintf("unknown compression=(%s)", name))
	}
}

type flushWriter interface {
	io.Writer
	Flush() error
}

// compressedConn reads through a decompressor and writes through a flushed
// compressor. Read and Write may be used by different goroutines but each by
// one at a time. Close only closes the raw connection so a blocked Read
// returns.
type compressedConn struct {
	raw    net.Conn
	reader io.Reader
	writer flushWriter
}

var _ net.Conn = (*compressedConn)(nil)

func (c *compressedConn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

func (c *compressedConn) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if err != nil {
		return n, err
	}
	if err := c.writer.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

func (c *compressedConn) Close() error {
	return c.raw.Close()
}

func (c *compressedConn) LocalAddr() net.Addr                { return c.raw.LocalAddr() }
func (c *compressedConn) RemoteAddr() net.Addr               { return c.raw.RemoteAddr() }
func (c *compressedConn) SetDeadline(t time.Time) error      { return c.raw.SetDeadline(t) }
func (c *compressedConn) SetReadDeadline(t time.Time) error  { return c.raw.SetReadDeadline(t) }
func (c *compressedConn) SetWriteDeadline(t time.Time) error { return c.raw.SetWriteDeadline(t) }
