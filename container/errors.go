// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import "errors"

var (
	// ErrInvalidSignature means the stream does not start with the expected signature.
	ErrInvalidSignature = errors.New("invalid container signature")
	// ErrVariantMismatch means the container shape does not match the configured game variant.
	ErrVariantMismatch = errors.New("game variant mismatch")
	// ErrUnsupportedCompression means a block uses a compression type we cannot decode.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
	// ErrCorrupt means a length, offset or count field is outside the stream.
	ErrCorrupt = errors.New("corrupt container")
	// ErrTruncated means the stream ended inside a structure.
	ErrTruncated = errors.New("truncated container")
	// ErrUnrecognized means the stream is not a known container.
	ErrUnrecognized = errors.New("unrecognized container")
	// ErrNoSubContainer means no sub-container starts at the requested offset.
	ErrNoSubContainer = errors.New("no sub-container at offset")
	// ErrEmptyInputs means there is nothing to pack.
	ErrEmptyInputs = errors.New("empty inputs")
	// ErrDuplicateEntryPath means two pack inputs share one path.
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrInvalidEntryPath means an entry path is empty after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrInvalidExtractPath means entry path is unsafe for extraction.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrInvalidCompressPattern means compression rules failed to compile.
	ErrInvalidCompressPattern = errors.New("invalid compress pattern")
	// ErrInvalidIncludePattern means extraction include rules failed to compile.
	ErrInvalidIncludePattern = errors.New("invalid include pattern")
	// ErrEntryTooLarge means an entry exceeds the bundle size limits.
	ErrEntryTooLarge = errors.New("entry too large")
)
