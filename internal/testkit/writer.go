// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

// Package testkit builds serialized files and containers for tests.
package testkit

import "encoding/binary"

// ByteOrder is satisfied by binary.LittleEndian and binary.BigEndian.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Writer appends fields to a buffer in a fixed byte order.
type Writer struct {
	order ByteOrder
	buf   []byte
}

// NewWriter returns an empty Writer using order.
func NewWriter(order ByteOrder) *Writer {
	return &Writer{order: order}
}

// Data returns the written bytes.
func (w *Writer) Data() []byte { return w.buf }

// Len returns the number of written bytes.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes appends raw bytes.
func (w *Writer) Bytes(b []byte) { w.buf = append(w.buf, b...) }

// Zero appends n zero bytes.
func (w *Writer) Zero(n int) { w.buf = append(w.buf, make([]byte, n)...) }

// U8 appends one byte.
func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

// Bool appends a one-byte boolean.
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
		return
	}
	w.U8(0)
}

// I16 appends a 16-bit integer.
func (w *Writer) I16(v int16) { w.buf = w.order.AppendUint16(w.buf, uint16(v)) }

// U32 appends a 32-bit integer.
func (w *Writer) U32(v uint32) { w.buf = w.order.AppendUint32(w.buf, v) }

// I32 appends a signed 32-bit integer.
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// U64 appends a 64-bit integer.
func (w *Writer) U64(v uint64) { w.buf = w.order.AppendUint64(w.buf, v) }

// I64 appends a signed 64-bit integer.
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// Align pads with zeros to a multiple of n.
func (w *Writer) Align(n int) {
	if rem := len(w.buf) % n; rem != 0 {
		w.Zero(n - rem)
	}
}

// CString appends a zero-terminated string.
func (w *Writer) CString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// AlignedString appends a length-prefixed string padded to 4 bytes.
func (w *Writer) AlignedString(s string) {
	w.I32(int32(len(s)))
	w.buf = append(w.buf, s...)
	w.Align(4)
}

// PPtr appends a file id and path id.
func (w *Writer) PPtr(p PPtr) {
	w.I32(p.FileID)
	w.I64(p.PathID)
}

// PPtr mirrors a serialized reference.
type PPtr struct {
	FileID int32
	PathID int64
}

// Local references an object of the same file.
func Local(pathID int64) PPtr {
	return PPtr{PathID: pathID}
}

// External references an object of external file index ext (1-based).
func External(ext int32, pathID int64) PPtr {
	return PPtr{FileID: ext, PathID: pathID}
}
