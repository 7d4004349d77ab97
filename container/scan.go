// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"fmt"
	"io"
	"iter"

	"github.com/woozymasta/assetmap/game"
)

// Scan walks back-to-back sub-containers of a stream. Each region is
// classified by signature; kinds not accepted by allow end the scan.
//
// The sequence ends when no bytes remain. It yields one error and stops on an
// unknown signature, on a size field that overruns the stream, or when a
// region would not advance the cursor.
func Scan(ra io.ReaderAt, size int64, g game.Game, allow func(Kind) bool) iter.Seq2[SubContainer, error] {
	return func(yield func(SubContainer, error) bool) {
		var off int64
		for off < size {
			kind := classifyPrefix(readPrefix(ra, size, off, classifyPrefixSize))
			if !allow(kind) {
				yield(SubContainer{Offset: off, Kind: kind}, fmt.Errorf("%w: %s signature at offset %d", ErrUnrecognized, kind, off))
				return
			}

			regionSize, err := measureSubContainer(ra, size, off, kind, g)
			if err != nil {
				yield(SubContainer{Offset: off, Kind: kind}, fmt.Errorf("sub-container at offset %d: %w", off, err))
				return
			}

			if regionSize <= 0 {
				yield(SubContainer{Offset: off, Kind: kind}, fmt.Errorf("%w: zero-length sub-container at offset %d", ErrCorrupt, off))
				return
			}
			if regionSize > size-off {
				yield(SubContainer{Offset: off, Kind: kind, Size: regionSize}, fmt.Errorf("%w: sub-container at offset %d claims %d bytes, %d remain", ErrCorrupt, off, regionSize, size-off))
				return
			}

			if !yield(SubContainer{Kind: kind, Offset: off, Size: regionSize}, nil) {
				return
			}

			off += regionSize
		}
	}
}

// measureSubContainer returns the byte length of the region at off.
func measureSubContainer(ra io.ReaderAt, size int64, off int64, kind Kind, g game.Game) (int64, error) {
	switch kind {
	case KindBundle:
		hdr, _, err := parseBundleHeader(readPrefix(ra, size, off, bundleHeaderMax))
		if err != nil {
			return 0, err
		}

		return hdr.Size, nil
	case KindMhy0:
		m, _, _, err := readMhy0Layout(ra, size, off, g)
		if err != nil {
			return 0, err
		}

		return m.Size, nil
	default:
		return 0, fmt.Errorf("%w: cannot size %s", ErrUnrecognized, kind)
	}
}

// readSubContainer extracts the region of the given kind at off.
func readSubContainer(ra io.ReaderAt, size int64, off int64, kind Kind, g game.Game) ([]Entry, error) {
	switch kind {
	case KindBundle:
		bundle, err := ReadBundleAt(ra, size, off, g)
		if err != nil {
			return nil, err
		}

		return bundle.Entries(off), nil
	case KindMhy0:
		m, err := ReadMhy0At(ra, size, off, g)
		if err != nil {
			return nil, err
		}

		return m.Entries(off), nil
	default:
		return nil, fmt.Errorf("%w: %s at offset %d", ErrNoSubContainer, kind, off)
	}
}

// scanEntries extracts every sub-container found by Scan. On failure it
// returns the entries collected so far together with the error.
func scanEntries(ra io.ReaderAt, size int64, g game.Game, allow func(Kind) bool) ([]Entry, error) {
	var entries []Entry
	for sub, err := range Scan(ra, size, g, allow) {
		if err != nil {
			return entries, err
		}

		subEntries, err := readSubContainer(ra, size, sub.Offset, sub.Kind, g)
		if err != nil {
			return entries, fmt.Errorf("sub-container at offset %d: %w", sub.Offset, err)
		}

		entries = append(entries, subEntries...)
	}

	return entries, nil
}

// blkKinds accepts the sub-containers found inside block-encrypted archives.
func blkKinds(k Kind) bool {
	return k == KindBundle || k == KindMhy0
}

// blockKinds accepts the sub-containers found inside block containers.
func blockKinds(k Kind) bool {
	return k == KindBundle
}
