// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"
	"github.com/woozymasta/pathrules"
)

const (
	// lzmaPropsSize is the size of the LZMA properties prefix stored in bundles.
	lzmaPropsSize = 5
	// lz4MaxRatio bounds the expansion of one LZ4 block.
	lz4MaxRatio = 255
	// maxInitialData caps the up-front reservation for expanded block data.
	maxInitialData = 64 << 20
)

// checkExpansion reports whether stored bytes can expand to size under comp.
// LZMA has no fixed ratio and is bounded while decoding instead.
func checkExpansion(comp Compression, stored int64, size uint32) error {
	switch comp {
	case CompressionNone:
		if stored != int64(size) {
			return fmt.Errorf("%w: raw block is %d bytes, want %d", ErrCorrupt, stored, size)
		}
	case CompressionLZ4, CompressionLZ4HC:
		if int64(size) > stored*lz4MaxRatio+16 {
			return fmt.Errorf("%w: lz4 block of %d bytes cannot expand to %d", ErrCorrupt, stored, size)
		}
	}

	return nil
}

// checkBlocks validates a block table before any block is read: every
// declared size must be reachable from its stored size less up to overhead
// framing bytes, and the stored sizes must fit in avail bytes. It returns the
// total expanded size.
func checkBlocks(blocks []StorageBlock, comp func(StorageBlock) Compression, overhead int64, avail int64) (int64, error) {
	var stored, total int64
	for i, block := range blocks {
		c := comp(block)
		payload := int64(block.CompressedSize)
		if c == CompressionNone {
			payload = min(payload, max(int64(block.UncompressedSize), payload-overhead))
		}

		if err := checkExpansion(c, payload, block.UncompressedSize); err != nil {
			return 0, fmt.Errorf("block %d: %w", i, err)
		}

		stored += int64(block.CompressedSize)
		total += int64(block.UncompressedSize)
	}

	if stored > avail {
		return 0, fmt.Errorf("%w: %d stored block bytes, %d available", ErrCorrupt, stored, avail)
	}
	if total > maxBundleDataSize {
		return 0, fmt.Errorf("%w: %d bytes of block data", ErrCorrupt, total)
	}

	return total, nil
}

// initialCapacity is the reservation for total expanded bytes.
func initialCapacity(total int64) int {
	return int(min(total, maxInitialData))
}

// decompressBlock expands one stored block to exactly size bytes.
func decompressBlock(comp Compression, src []byte, size uint32) ([]byte, error) {
	if err := checkExpansion(comp, int64(len(src)), size); err != nil {
		return nil, err
	}

	switch comp {
	case CompressionNone:
		return src, nil
	case CompressionLZ4, CompressionLZ4HC:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(src, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: lz4 block expanded to %d bytes, want %d", ErrCorrupt, n, size)
		}

		return out, nil
	case CompressionLZMA:
		return decompressLZMA(src, size)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, comp)
	}
}

// decompressLZMA expands a bundle LZMA block: 5 property bytes followed by
// the raw stream, without the classic 8-byte size field. The output grows
// with decoded data rather than the declared size.
func decompressLZMA(src []byte, size uint32) ([]byte, error) {
	if len(src) < lzmaPropsSize {
		return nil, fmt.Errorf("%w: lzma block shorter than properties", ErrCorrupt)
	}

	header := make([]byte, lzmaPropsSize+8)
	copy(header, src[:lzmaPropsSize])
	binary.LittleEndian.PutUint64(header[lzmaPropsSize:], uint64(size))

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), bytes.NewReader(src[lzmaPropsSize:])))
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %w", ErrCorrupt, err)
	}

	var out bytes.Buffer
	out.Grow(int(min(int64(size), int64(len(src))*lz4MaxRatio, maxInitialData)))
	n, err := io.Copy(&out, io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %w", ErrCorrupt, err)
	}
	if n != int64(size) {
		return nil, fmt.Errorf("%w: lzma block expanded to %d bytes, want %d", ErrCorrupt, n, size)
	}

	return out.Bytes(), nil
}

// compressLZ4Block compresses src as one LZ4 block.
// ok is false when the data did not shrink.
func compressLZ4Block(src []byte) ([]byte, bool, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, false, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(src) {
		return nil, false, nil
	}

	return dst[:n], true, nil
}

// compressMatcher holds compiled allow-list rules for compression.
type compressMatcher struct {
	matcher *pathrules.Matcher
}

// newCompressMatcher compiles compression path rules.
func newCompressMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*compressMatcher, error) {
	rules = normalizeRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidCompressPattern, err)
	}

	return &compressMatcher{matcher: matcher}, nil
}

// Match reports whether node path is selected by compress rules.
func (m *compressMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// shouldCompress reports whether a node is a compression candidate.
func shouldCompress(opts PackOptions, matcher *compressMatcher, path string, size int64) bool {
	if size > int64(opts.MaxCompressSize) || size < int64(opts.MinCompressSize) {
		return false
	}

	return matcher.Match(path)
}

// normalizeRules normalizes rule patterns and drops empty patterns.
func normalizeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}
