// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// maxWebArchiveSize bounds inflated gzip web archives.
const maxWebArchiveSize = 1 << 31

// ReadWebFile parses a UnityWebData1.0 archive. Gzip-wrapped input is
// inflated first. Web archives carry no game-specific secrets.
func ReadWebFile(ra io.ReaderAt, size int64) ([]Entry, error) {
	data, err := readWebData(ra, size)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(data, webSignature) {
		return nil, fmt.Errorf("%w: want UnityWebData1.0", ErrInvalidSignature)
	}

	c := newCursor(data, binary.LittleEndian)
	c.take(len(webSignature))
	headLength := int(c.i32())
	if c.err != nil || headLength < c.pos || headLength > len(data) {
		return nil, fmt.Errorf("%w: web header length %d", ErrCorrupt, headLength)
	}

	var entries []Entry
	for c.pos < headLength {
		offset := int64(c.i32())
		length := int64(c.i32())
		pathLength := int(c.i32())
		entryPath := string(c.take(pathLength))
		if c.err != nil {
			return nil, fmt.Errorf("web directory: %w", c.err)
		}

		if offset < 0 || length < 0 || offset+length > int64(len(data)) {
			return nil, fmt.Errorf("%w: web entry %q range [%d,+%d)", ErrCorrupt, entryPath, offset, length)
		}

		entries = append(entries, Entry{
			Path: entryPath,
			Data: data[offset : offset+length : offset+length],
		})
	}

	return entries, nil
}

// readWebData loads the archive bytes, inflating gzip input.
func readWebData(ra io.ReaderAt, size int64) ([]byte, error) {
	if !bytes.HasPrefix(readPrefix(ra, size, 0, len(gzipMagic)), gzipMagic) {
		return readRegion(ra, 0, size)
	}

	zr, err := gzip.NewReader(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrCorrupt, err)
	}
	defer func() { _ = zr.Close() }()

	data, err := io.ReadAll(io.LimitReader(zr, maxWebArchiveSize))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrCorrupt, err)
	}

	return data, nil
}
