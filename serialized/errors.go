// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSerializedFile means the buffer does not carry a SerializedFile header.
	ErrNotSerializedFile = errors.New("not a serialized file")
	// ErrUnsupportedVersion means the format version is older than supported.
	ErrUnsupportedVersion = errors.New("unsupported serialized file version")
	// ErrTruncated means a read ran past the end of the buffer.
	ErrTruncated = errors.New("truncated serialized data")
	// ErrCorrupt means a count or offset field is out of range.
	ErrCorrupt = errors.New("corrupt serialized data")
	// ErrObjectRange means an object payload lies outside its file.
	ErrObjectRange = errors.New("object payload out of range")
)

// DecodeError describes one object that failed to decode.
type DecodeError struct {
	Err    error
	Source string
	File   string
	Class  ClassID
	PathID int64
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s #%d in %s (%s): %v", e.Class, e.PathID, e.File, e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrDuplicateFile means a file with the same name is already in the session.
var ErrDuplicateFile = errors.New("serialized file already loaded")
