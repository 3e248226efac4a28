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

// Package codec implements the stream wire format spoken between two
// connected peers: a greeting exchanged once per connection, followed by
// length-prefixed frames.
//
// Greeting layout:
//
//	┌───────────┬─────────┬─────────────┬──────────┬──────────┐
//	│ signature │ version │ socket type │ id len   │ identity │
//	│ FF G M Q  │ 1 byte  │ 1 byte      │ 1 byte   │ N bytes  │
//	└───────────┴─────────┴─────────────┴──────────┴──────────┘
//
// Frame layout (the long length is a big-endian uint64):
//
//	┌───────┬─────────────────────┬──────────┐
//	│ flags │ length              │ body     │
//	│ 1 byte│ 1 byte, or 8 (LONG) │ N bytes  │
//	└───────┴─────────────────────┴──────────┘
//
// Flags: bit 0 (MORE) marks a frame followed by another frame of the same
// message, bit 1 (LONG) selects the 8-byte length.
package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Version is the protocol revision written in the greeting.
const Version byte = 1

const (
	flagMore byte = 1 << 0
	flagLong byte = 1 << 1
)

var signature = [4]byte{0xFF, 'G', 'M', 'Q'}

var (
	// ErrBadSignature is returned when the peer does not speak this protocol.
	ErrBadSignature = errors.New("codec: bad greeting signature")
	// ErrUnsupportedVersion is returned when the peer speaks a newer protocol revision.
	ErrUnsupportedVersion = errors.New("codec: unsupported protocol version")
	// ErrIdentityTooLong is returned when an identity does not fit the 1-byte length.
	ErrIdentityTooLong = errors.New("codec: identity longer than 255 bytes")
	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("codec: frame exceeds maximum size")
	// ErrInvalidFlags is returned for frames carrying unknown flag bits.
	ErrInvalidFlags = errors.New("codec: invalid frame flags")
)

// Greeting is the first thing each peer sends on a new connection.
type Greeting struct {
	Version    byte
	SocketType byte
	Identity   []byte
}

// WriteGreeting encodes the greeting to w.
func WriteGreeting(w io.Writer, greeting Greeting) error {
	if len(greeting.Identity) > 255 {
		return ErrIdentityTooLong
	}
	buf := make([]byte, 0, 7+len(greeting.Identity))
	buf = append(buf, signature[:]...)
	buf = append(buf, greeting.Version, greeting.SocketType, byte(len(greeting.Identity)))
	buf = append(buf, greeting.Identity...)
	_, err := w.Write(buf)
	return err
}

// ReadGreeting decodes a greeting from r.
func ReadGreeting(r io.Reader) (Greeting, error) {
	var header [7]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Greeting{}, err
	}
	if !bytes.Equal(header[:4], signature[:]) {
		return Greeting{}, ErrBadSignature
	}
	if header[4] == 0 || header[4] > Version {
		return Greeting{}, fmt.Errorf("version=(%d): %w", header[4], ErrUnsupportedVersion)
	}

	greeting := Greeting{Version: header[4], SocketType: header[5]}
	if size := int(header[6]); size > 0 {
		greeting.Identity = make([]byte, size)
		if _, err := io.ReadFull(r, greeting.Identity); err != nil {
			return Greeting{}, err
		}
	}
	return greeting, nil
}

// AppendFrame appends the encoding of one frame to dst.
func AppendFrame(dst, body []byte, more bool) []byte {
	var flags byte
	if more {
		flags |= flagMore
	}
	if len(body) > 255 {
		flags |= flagLong
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(len(body)))
		dst = append(dst, flags)
		dst = append(dst, size[:]...)
	} else {
		dst = append(dst, flags, byte(len(body)))
	}
	return append(dst, body...)
}

// Decoder reads frames from a stream.
type Decoder struct {
	reader  *bufio.Reader
	maxSize int64
}

// NewDecoder creates a Decoder. A negative maxSize accepts frames of any size.
func NewDecoder(r io.Reader, maxSize int64) *Decoder {
	return &Decoder{reader: bufio.NewReader(r), maxSize: maxSize}
}

// Reader returns the buffered reader, for reading the greeting before any frame.
func (d *Decoder) Reader() io.Reader {
	return d.reader
}

// Buffered returns the number of bytes already read from the stream and not
// yet decoded.
func (d *Decoder) Buffered() int {
	return d.reader.Buffered()
}

// ReadFrame decodes the next frame. The returned body is freshly allocated.
func (d *Decoder) ReadFrame() (body []byte, more bool, err error) {
	flags, err := d.reader.ReadByte()
	if err != nil {
		return nil, false, err
	}
	if flags&^(flagMore|flagLong) != 0 {
		return nil, false, ErrInvalidFlags
	}

	var size uint64
	if flags&flagLong != 0 {
		var buf [8]byte
		if _, err := io.ReadFull(d.reader, buf[:]); err != nil {
			return nil, false, noEOF(err)
		}
		size = binary.BigEndian.Uint64(buf[:])
	} else {
		b, err := d.reader.ReadByte()
		if err != nil {
			return nil, false, noEOF(err)
		}
		size = uint64(b)
	}

	if (d.maxSize >= 0 && size > uint64(d.maxSize)) || size > 1<<40 {
		return nil, false, fmt.Errorf("size=(%d): %w", size, ErrFrameTooLarge)
	}

	body = make([]byte, size)
	if _, err := io.ReadFull(d.reader, body); err != nil {
		return nil, false, noEOF(err)
	}
	return body, flags&flagMore != 0, nil
}

func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
