// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// cursor decodes fixed-width fields from an in-memory buffer.
// The first out-of-range read is sticky: later reads return zero values.
type cursor struct {
	order binary.ByteOrder
	err   error
	buf   []byte
	pos   int
}

func newCursor(buf []byte, order binary.ByteOrder) *cursor {
	return &cursor{buf: buf, order: order}
}

// take returns the next n bytes or nil after recording ErrTruncated.
func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || n > len(c.buf)-c.pos {
		c.err = fmt.Errorf("%w: need %d bytes at %d, have %d", ErrTruncated, n, c.pos, len(c.buf)-c.pos)
		return nil
	}

	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}

	return c.order.Uint16(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}

	return c.order.Uint32(b)
}

func (c *cursor) i32() int32 {
	return int32(c.u32())
}

func (c *cursor) u64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}

	return c.order.Uint64(b)
}

func (c *cursor) i64() int64 {
	return int64(c.u64())
}

// cstring reads a zero-terminated string.
func (c *cursor) cstring() string {
	if c.err != nil {
		return ""
	}

	end := bytes.IndexByte(c.buf[c.pos:], 0)
	if end < 0 {
		c.err = fmt.Errorf("%w: unterminated string at %d", ErrTruncated, c.pos)
		return ""
	}

	s := string(c.buf[c.pos : c.pos+end])
	c.pos += end + 1
	return s
}

// align advances the position to a multiple of n relative to base.
func (c *cursor) align(n int, base int) {
	if rem := (base + c.pos) % n; rem != 0 {
		c.take(n - rem)
	}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}
