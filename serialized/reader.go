// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Reader decodes fields from an in-memory buffer in a switchable byte order.
// The first failed read is sticky: later reads return zero values and Err
// reports the failure.
type Reader struct {
	order binary.ByteOrder
	err   error
	buf   []byte
	pos   int
}

// NewReader returns a Reader over buf using order.
func NewReader(buf []byte, order binary.ByteOrder) *Reader {
	return &Reader{buf: buf, order: order}
}

// Err returns the first read failure.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the read position.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// SetOrder switches byte order for subsequent reads.
func (r *Reader) SetOrder(order binary.ByteOrder) {
	r.order = order
}

// Fail records err unless a failure is already recorded.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrTruncated, n, r.pos, r.Remaining())
		return nil
	}

	out := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return out
}

// Skip advances n bytes.
func (r *Reader) Skip(n int) {
	r.Bytes(n)
}

// U8 reads one byte.
func (r *Reader) U8() uint8 {
	b := r.Bytes(1)
	if b == nil {
		return 0
	}

	return b[0]
}

// Bool reads one byte as a boolean.
func (r *Reader) Bool() bool {
	return r.U8() != 0
}

// U16 reads an unsigned 16-bit integer.
func (r *Reader) U16() uint16 {
	b := r.Bytes(2)
	if b == nil {
		return 0
	}

	return r.order.Uint16(b)
}

// I16 reads a signed 16-bit integer.
func (r *Reader) I16() int16 {
	return int16(r.U16())
}

// U32 reads an unsigned 32-bit integer.
func (r *Reader) U32() uint32 {
	b := r.Bytes(4)
	if b == nil {
		return 0
	}

	return r.order.Uint32(b)
}

// I32 reads a signed 32-bit integer.
func (r *Reader) I32() int32 {
	return int32(r.U32())
}

// U64 reads an unsigned 64-bit integer.
func (r *Reader) U64() uint64 {
	b := r.Bytes(8)
	if b == nil {
		return 0
	}

	return r.order.Uint64(b)
}

// I64 reads a signed 64-bit integer.
func (r *Reader) I64() int64 {
	return int64(r.U64())
}

// Align advances to the next multiple of n.
func (r *Reader) Align(n int) {
	if rem := r.pos % n; rem != 0 {
		r.Skip(n - rem)
	}
}

// CString reads a zero-terminated string.
func (r *Reader) CString() string {
	if r.err != nil {
		return ""
	}

	end := bytes.IndexByte(r.buf[r.pos:], 0)
	if end < 0 {
		r.err = fmt.Errorf("%w: unterminated string at %d", ErrTruncated, r.pos)
		return ""
	}

	s := string(r.buf[r.pos : r.pos+end])
	r.pos += end + 1
	return s
}

// AlignedString reads a length-prefixed string padded to 4 bytes.
func (r *Reader) AlignedString() string {
	n := r.Count(1)
	s := string(r.Bytes(n))
	r.Align(4)
	return s
}

// Count reads an array length and checks that n elements of at least
// minSize bytes each fit in the remaining buffer.
func (r *Reader) Count(minSize int) int {
	n := r.I32()
	if r.err != nil {
		return 0
	}
	if n < 0 || (minSize > 0 && int(n) > r.Remaining()/minSize) {
		r.err = fmt.Errorf("%w: count %d at %d", ErrCorrupt, n, r.pos-4)
		return 0
	}

	return int(n)
}
