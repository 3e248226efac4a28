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
	"errors"
	"net"

	"github.com/klauspost/compress/zstd"
)

// ZstdWrapper wraps connections with Zstandard compression.
type ZstdWrapper struct {
	encoderOpts []zstd.EOption
	decoderOpts []zstd.DOption
}

var _ Wrapper = (*ZstdWrapper)(nil)

type zstdConfig struct {
	level  zstd.EncoderLevel
	window int
	maxMem uint64
}

// ZstdOption configures [NewZstd].
type ZstdOption func(*zstdConfig)

// WithZstdLevel sets the Zstandard compression level.
func WithZstdLevel(level zstd.EncoderLevel) ZstdOption {
	return func(c *zstdConfig) { c.level = level }
}

// WithZstdWindow sets the maximum window size for the encoder.
func WithZstdWindow(size int) ZstdOption {
	return func(c *zstdConfig) { c.window = size }
}

// NewZstd creates a [ZstdWrapper]. The options are checked by building one
// encoder and one decoder.
func NewZstd(opts ...ZstdOption) (*ZstdWrapper, error) {
	cfg := zstdConfig{
		level:  zstd.SpeedDefault,
		window: 512 << 10,
		maxMem: 64 << 20,
	}
	for _, o := range opts {
		o(&cfg)
	}

	w := &ZstdWrapper{
		encoderOpts: []zstd.EOption{
			zstd.WithEncoderLevel(cfg.level),
			zstd.WithWindowSize(cfg.window),
			zstd.WithEncoderConcurrency(1),
			zstd.WithLowerEncoderMem(true),
			zstd.WithZeroFrames(true),
		},
		decoderOpts: []zstd.DOption{
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
			zstd.WithDecoderMaxMemory(cfg.maxMem),
		},
	}

	if _, err := zstd.NewWriter(nil, w.encoderOpts...); err != nil {
		return nil, errors.Join(ErrZstdEncoderInit, err)
	}

	dec, err := zstd.NewReader(nil, w.decoderOpts...)
	if err != nil {
		return nil, errors.Join(ErrZstdDecoderInit, err)
	}
	dec.Close()
	return w, nil
}

// Wrap applies Zstandard compression to conn.
func (z *ZstdWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	enc, err := zstd.NewWriter(conn, z.encoderOpts...)
	if err != nil {
		return nil, errors.Join(ErrZstdEncoderInit, err)
	}

	dec, err := zstd.NewReader(conn, z.decoderOpts...)
	if err != nil {
		_ = enc.Close()
		return nil, errors.Join(ErrZstdDecoderInit, err)
	}

	return &compressedConn{raw: conn, reader: dec, writer: enc}, nil
}
