// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"bytes"
	"fmt"
	"io"

	"github.com/woozymasta/assetmap/game"
)

// maxNestingDepth bounds recursion into containers stored as entries.
const maxNestingDepth = 4

// Extract classifies a stream and unpacks it with the matching reader,
// recursing into entries that are containers themselves. Unrecognized
// streams return ErrUnrecognized so callers can pass them through.
func Extract(ra io.ReaderAt, size int64, name string, g game.Game) ([]Entry, error) {
	return extractKind(ra, size, Classify(ra, size, name), g, 0)
}

// ReadAt re-reads exactly one sub-container that starts at offset, as
// recorded in Entry.Offset. For block-encrypted archives the offset is
// relative to the decrypted payload. Single-container files only accept
// offset zero.
func ReadAt(ra io.ReaderAt, size int64, name string, g game.Game, offset int64) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)

	switch kind := Classify(ra, size, name); kind {
	case KindBlockEncrypted:
		dec, openErr := OpenBlk(ra, size, g)
		if openErr != nil {
			return nil, openErr
		}

		sub := classifyPrefix(readPrefix(dec, dec.Size(), offset, classifyPrefixSize))
		if !blkKinds(sub) {
			return nil, fmt.Errorf("%w: %s at offset %d", ErrNoSubContainer, sub, offset)
		}
		entries, err = readSubContainer(dec, dec.Size(), offset, sub, g)
	case KindBlockContainer:
		entries, err = readSubContainer(ra, size, offset, classifyPrefix(readPrefix(ra, size, offset, classifyPrefixSize)), g)
	case KindUnrecognized:
		return nil, ErrUnrecognized
	default:
		if offset != 0 {
			return nil, fmt.Errorf("%w: %s has a single container, got offset %d", ErrNoSubContainer, kind, offset)
		}

		return extractKind(ra, size, kind, g, 0)
	}
	if err != nil {
		return nil, err
	}

	return expandNested(entries, g, 1)
}

// extractKind dispatches to the reader for kind.
func extractKind(ra io.ReaderAt, size int64, kind Kind, g game.Game, depth int) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)

	switch kind {
	case KindBundle:
		var bundle *Bundle
		bundle, err = ReadBundle(ra, size, g)
		if err == nil {
			entries = bundle.Entries(0)
		}
	case KindWebArchive:
		entries, err = ReadWebFile(ra, size)
	case KindBlockEncrypted:
		entries, err = ReadBlk(ra, size, g)
	case KindBlockContainer:
		entries, err = ReadBlock(ra, size, g)
	case KindMhy0:
		var m *Mhy0
		m, err = ReadMhy0(ra, size, g)
		if err == nil {
			entries = m.Entries(0)
		}
	default:
		return nil, ErrUnrecognized
	}

	nested, nestedErr := expandNested(entries, g, depth+1)
	if err != nil {
		return nested, err
	}

	return nested, nestedErr
}

// expandNested replaces entries holding bundles, web archives or mhy0
// containers with their own entries. Nested entries keep the offset of the
// outer sub-container.
func expandNested(entries []Entry, g game.Game, depth int) ([]Entry, error) {
	if depth > maxNestingDepth {
		return entries, nil
	}

	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		kind := classifyPrefix(readPrefix(bytes.NewReader(entry.Data), entry.Size(), 0, classifyPrefixSize))
		if kind != KindBundle && kind != KindWebArchive && kind != KindMhy0 {
			out = append(out, entry)
			continue
		}

		inner, err := extractKind(bytes.NewReader(entry.Data), entry.Size(), kind, g, depth)
		if err != nil {
			return out, fmt.Errorf("nested %s %q: %w", kind, entry.Path, err)
		}

		for i := range inner {
			inner[i].Offset = entry.Offset
		}
		out = append(out, inner...)
	}

	return out, nil
}
