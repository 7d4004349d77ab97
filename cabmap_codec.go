// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// maxStringLen bounds one length-prefixed string in a CAB map file.
const maxStringLen = 1 << 20

// WriteTo writes the map in its persisted binary form: little-endian, with
// 7-bit length-prefixed UTF-8 strings. Layout: base folder, i32 entry count,
// then per entry sorted by CAB id: CAB id, relative path, i64 offset,
// i32 dependency count and the dependency ids.
func (m *CABMap) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	entries := m.Entries()
	if len(entries) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d entries", ErrCorruptCABMap, len(entries))
	}

	writeString(bw, m.BaseFolder)
	writeI32(bw, int32(len(entries)))
	for _, e := range entries {
		writeString(bw, e.CAB)
		writeString(bw, e.Path)
		writeI64(bw, e.Offset)
		writeI32(bw, int32(len(e.Dependencies)))
		for _, dep := range e.Dependencies {
			writeString(bw, dep)
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("write CAB map: %w", err)
	}

	return cw.n, nil
}

// ReadCABMap decodes a map written by WriteTo.
func ReadCABMap(r io.Reader) (*CABMap, error) {
	br := bufio.NewReader(r)
	d := &mapDecoder{r: br}

	base := d.string()
	count := d.count()
	m := NewCABMap(base)
	for i := 0; i < count && d.err == nil; i++ {
		cab := d.string()
		var e CABEntry
		e.Path = d.string()
		e.Offset = d.i64()

		deps := d.count()
		if deps > 0 {
			e.Dependencies = make([]string, 0, min(deps, 1024))
		}
		for j := 0; j < deps && d.err == nil; j++ {
			e.Dependencies = append(e.Dependencies, d.string())
		}

		if d.err == nil && !m.Add(cab, e) {
			d.fail(fmt.Errorf("duplicate CAB id %q", cab))
		}
	}

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCABMap, d.err)
	}

	return m, nil
}

// countingWriter counts bytes passed to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeString writes a 7-bit length-prefixed string. Write errors are
// sticky in bufio.Writer and surface on Flush.
func writeString(w *bufio.Writer, s string) {
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(s)))
	_, _ = w.Write(prefix[:n])
	_, _ = w.WriteString(s)
}

func writeI32(w *bufio.Writer, v int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, _ = w.Write(buf[:])
}

func writeI64(w *bufio.Writer, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = w.Write(buf[:])
}

// mapDecoder reads CAB map fields with a sticky error.
type mapDecoder struct {
	r   *bufio.Reader
	err error
}

func (d *mapDecoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *mapDecoder) full(buf []byte) bool {
	if d.err != nil {
		return false
	}

	if _, err := io.ReadFull(d.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		d.fail(err)
		return false
	}

	return true
}

func (d *mapDecoder) string() string {
	if d.err != nil {
		return ""
	}

	n, err := binary.ReadUvarint(d.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		d.fail(err)
		return ""
	}
	if n > maxStringLen {
		d.fail(fmt.Errorf("string length %d", n))
		return ""
	}

	buf := make([]byte, n)
	if !d.full(buf) {
		return ""
	}
	if !utf8.Valid(buf) {
		d.fail(errors.New("string is not valid UTF-8"))
		return ""
	}

	return string(buf)
}

func (d *mapDecoder) i32() int32 {
	var buf [4]byte
	if !d.full(buf[:]) {
		return 0
	}

	return int32(binary.LittleEndian.Uint32(buf[:]))
}

func (d *mapDecoder) i64() int64 {
	var buf [8]byte
	if !d.full(buf[:]) {
		return 0
	}

	return int64(binary.LittleEndian.Uint64(buf[:]))
}

func (d *mapDecoder) count() int {
	n := d.i32()
	if n < 0 {
		d.fail(fmt.Errorf("negative count %d", n))
		return 0
	}

	return int(n)
}
