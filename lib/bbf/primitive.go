// Copyright 2026 The Boundbook Authors
// SPDX-License-Identifier: Apache-2.0

package bbf

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// maxBlobLength caps decoded byte-strings and strings at 1 GiB. A
// length prefix above this is rejected before any allocation.
const maxBlobLength = 1 << 30

// encoder appends little-endian primitives to an io.Writer and counts
// the bytes written. All multi-byte integers are little-endian;
// signed values are two's-complement. Byte-strings and strings are a
// 64-bit length followed by that many bytes.
type encoder struct {
	w io.Writer
	n uint64
}

func (e *encoder) raw(b []byte) error {
	written, err := e.w.Write(b)
	e.n += uint64(written)
	if err != nil {
		return fmt.Errorf("writing %d bytes: %w", len(b), err)
	}
	return nil
}

func (e *encoder) uint8(v uint8) error {
	return e.raw([]byte{v})
}

func (e *encoder) uint16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return e.raw(buf[:])
}

func (e *encoder) uint32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return e.raw(buf[:])
}

func (e *encoder) uint64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return e.raw(buf[:])
}

func (e *encoder) int64(v int64) error {
	return e.uint64(uint64(v))
}

func (e *encoder) bytes(b []byte) error {
	if uint64(len(b)) > maxBlobLength {
		return fmt.Errorf("%w: byte-string of %d bytes exceeds %d", ErrOverflow, len(b), maxBlobLength)
	}
	if err := e.uint64(uint64(len(b))); err != nil {
		return err
	}
	return e.raw(b)
}

func (e *encoder) str(s string) error {
	return e.bytes([]byte(s))
}

// decoder consumes little-endian primitives from an in-memory buffer,
// tracking a logical cursor. Exhausting the buffer mid-field is
// ErrUnexpectedEOF; the caller checks remaining() for exact
// consumption.
type decoder struct {
	buf []byte
	off int
}

// take returns the next n bytes and advances the cursor.
func (d *decoder) take(n int) ([]byte, error) {
	if len(d.buf)-d.off < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrUnexpectedEOF, n, d.off, len(d.buf)-d.off)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) uint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) uint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *decoder) uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) int64() (int64, error) {
	v, err := d.uint64()
	return int64(v), err
}

func (d *decoder) bytes() ([]byte, error) {
	length, err := d.uint64()
	if err != nil {
		return nil, err
	}
	if length > maxBlobLength {
		return nil, fmt.Errorf("%w: byte-string length %d at offset %d exceeds %d",
			ErrOverflow, length, d.off-8, maxBlobLength)
	}
	return d.take(int(length))
}

func (d *decoder) str() (string, error) {
	b, err := d.bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: at offset %d", ErrMalformedUTF8, d.off-len(b))
	}
	return string(b), nil
}

// remaining reports the unconsumed byte count.
func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}
