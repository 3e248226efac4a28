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

package compression

import (
	"net"

	"github.com/andybalholm/brotli"
)

// BrotliWrapper wraps connections with Brotli compression.
type BrotliWrapper struct {
	level int
}

var _ Wrapper = (*BrotliWrapper)(nil)

type brotliConfig struct {
	level int
}

// BrotliOption configures [NewBrotli].
type BrotliOption func(*brotliConfig)

// WithBrotliLevel sets the Brotli compression level.
func WithBrotliLevel(level int) BrotliOption {
	return func(c *brotliConfig) { c.level = level }
}

// NewBrotli creates a [BrotliWrapper].
func NewBrotli(opts ...BrotliOption) *BrotliWrapper {
	cfg := brotliConfig{level: brotli.DefaultCompression}
	for _, o := range opts {
		o(&cfg)
	}
	return &BrotliWrapper{level: cfg.level}
}

// Wrap applies Brotli compression to conn.
func (b *BrotliWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	return &compressedConn{
		raw:    conn,
		reader: brotli.NewReader(conn),
		writer: brotli.NewWriterLevel(conn, b.level),
	}, nil
}
