// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/woozymasta/assetmap/crypt"
)

// classifyPrefixSize is the number of leading bytes inspected by Classify.
const classifyPrefixSize = 32

// Container signatures.
var (
	bundleSignature = []byte("UnityFS\x00")
	webSignature    = []byte("UnityWebData1.0\x00")
	mhy0Signature   = []byte("mhy0")
	gzipMagic       = []byte{0x1f, 0x8b}
)

// Classify inspects the leading signature of a stream, and the file name
// extension where signatures are ambiguous, and returns its container kind.
// It only reads through ReadAt; unrecognized streams yield KindUnrecognized.
func Classify(ra io.ReaderAt, size int64, name string) Kind {
	prefix := readPrefix(ra, size, 0, classifyPrefixSize)

	switch kind := classifyPrefix(prefix); kind {
	case KindBundle:
		if hasExt(name, ".block") {
			return KindBlockContainer
		}

		return KindBundle
	case KindUnrecognized:
		if bytes.HasPrefix(prefix, gzipMagic) && isGzipWebArchive(ra, size) {
			return KindWebArchive
		}
		if hasExt(name, ".blk") {
			return KindBlockEncrypted
		}

		return KindUnrecognized
	default:
		return kind
	}
}

// classifyPrefix maps a signature prefix to a kind without name hints.
func classifyPrefix(prefix []byte) Kind {
	switch {
	case bytes.HasPrefix(prefix, bundleSignature):
		return KindBundle
	case bytes.HasPrefix(prefix, webSignature):
		return KindWebArchive
	case bytes.HasPrefix(prefix, mhy0Signature):
		return KindMhy0
	case bytes.HasPrefix(prefix, crypt.BlkMagic):
		return KindBlockEncrypted
	default:
		return KindUnrecognized
	}
}

// readPrefix reads up to n bytes at off; short streams return what exists.
func readPrefix(ra io.ReaderAt, size int64, off int64, n int) []byte {
	if off >= size {
		return nil
	}
	if remaining := size - off; int64(n) > remaining {
		n = int(remaining)
	}

	buf := make([]byte, n)
	read, _ := ra.ReadAt(buf, off)
	return buf[:read]
}

// isGzipWebArchive reports whether a gzip stream inflates to a web archive.
func isGzipWebArchive(ra io.ReaderAt, size int64) bool {
	zr, err := gzip.NewReader(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return false
	}
	defer func() { _ = zr.Close() }()

	head := make([]byte, len(webSignature))
	if _, err := io.ReadFull(zr, head); err != nil {
		return false
	}

	return bytes.Equal(head, webSignature)
}
