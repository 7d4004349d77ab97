// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/woozymasta/assetmap/crypt"
	"github.com/woozymasta/assetmap/game"
)

// UnityFS archive flags.
const (
	bundleFlagCompressionMask     = 0x3f
	bundleFlagBlocksAndDirectory  = 0x40
	bundleFlagBlocksInfoAtEnd     = 0x80
	bundleFlagBlockInfoPaddingPre = 0x200
)

// Bundle layout limits.
const (
	bundleHeaderMax     = 512
	bundleInfoHashSize  = 16
	bundleBlockInfoSize = 10
	bundleNodeInfoMin   = 21
	bundleAlign         = 16
	maxBundleDataSize   = 1 << 32
)

// BundleHeader is the fixed UnityFS header.
type BundleHeader struct {
	// Signature is "UnityFS".
	Signature string `json:"signature" yaml:"signature"`
	// UnityVersion is the engine version string.
	UnityVersion string `json:"unity_version" yaml:"unity_version"`
	// UnityRevision is the engine revision string.
	UnityRevision string `json:"unity_revision" yaml:"unity_revision"`
	// Size is total bundle size in bytes, header included.
	Size int64 `json:"size" yaml:"size"`
	// Version is the archive format version.
	Version uint32 `json:"version" yaml:"version"`
	// CompressedBlocksInfoSize is stored directory size.
	CompressedBlocksInfoSize uint32 `json:"compressed_blocks_info_size" yaml:"compressed_blocks_info_size"`
	// UncompressedBlocksInfoSize is expanded directory size.
	UncompressedBlocksInfoSize uint32 `json:"uncompressed_blocks_info_size" yaml:"uncompressed_blocks_info_size"`
	// Flags holds compression type and layout bits.
	Flags uint32 `json:"flags" yaml:"flags"`
}

// StorageBlock is one compressed block of the node data stream.
type StorageBlock struct {
	UncompressedSize uint32 `json:"uncompressed_size" yaml:"uncompressed_size"`
	CompressedSize   uint32 `json:"compressed_size" yaml:"compressed_size"`
	Flags            uint16 `json:"flags" yaml:"flags"`
}

// Node is one named file inside the bundle data stream.
type Node struct {
	Path   string `json:"path" yaml:"path"`
	Offset int64  `json:"offset" yaml:"offset"`
	Size   int64  `json:"size" yaml:"size"`
	Flags  uint32 `json:"flags" yaml:"flags"`
}

// Bundle is a parsed UnityFS archive with its node data expanded in memory.
type Bundle struct {
	Header BundleHeader   `json:"header" yaml:"header"`
	Blocks []StorageBlock `json:"blocks" yaml:"blocks"`
	Nodes  []Node         `json:"nodes" yaml:"nodes"`
	data   []byte
}

// Size returns the number of bytes the bundle occupies in its stream.
func (b *Bundle) Size() int64 {
	return b.Header.Size
}

// Entries returns nodes as entries tagged with offset.
// Entry data shares the bundle buffer.
func (b *Bundle) Entries(offset int64) []Entry {
	entries := make([]Entry, 0, len(b.Nodes))
	for _, node := range b.Nodes {
		entries = append(entries, Entry{
			Path:   node.Path,
			Offset: offset,
			Data:   b.data[node.Offset : node.Offset+node.Size : node.Offset+node.Size],
		})
	}

	return entries
}

// ReadBundle parses a UnityFS bundle starting at offset zero.
func ReadBundle(ra io.ReaderAt, size int64, g game.Game) (*Bundle, error) {
	return ReadBundleAt(ra, size, 0, g)
}

// ReadBundleAt parses a UnityFS bundle that starts at off within a stream of
// size bytes. A block framed as mr0k under a non-mr0k variant fails with
// ErrVariantMismatch.
func ReadBundleAt(ra io.ReaderAt, size int64, off int64, g game.Game) (*Bundle, error) {
	head := readPrefix(ra, size, off, bundleHeaderMax)
	hdr, headerLen, err := parseBundleHeader(head)
	if err != nil {
		return nil, err
	}

	if hdr.Size < int64(headerLen) || hdr.Size > size-off {
		return nil, fmt.Errorf("%w: bundle size %d at offset %d exceeds stream size %d", ErrCorrupt, hdr.Size, off, size)
	}

	end := off + hdr.Size
	pos := off + int64(headerLen)

	var infoRaw []byte
	dataEnd := end
	if hdr.Flags&bundleFlagBlocksInfoAtEnd != 0 {
		infoPos := end - int64(hdr.CompressedBlocksInfoSize)
		if infoPos < pos {
			return nil, fmt.Errorf("%w: blocks info overlaps header", ErrCorrupt)
		}

		infoRaw, err = readRegion(ra, infoPos, int64(hdr.CompressedBlocksInfoSize))
		dataEnd = infoPos
	} else {
		infoRaw, err = readRegion(ra, pos, int64(hdr.CompressedBlocksInfoSize))
		pos += int64(hdr.CompressedBlocksInfoSize)
	}
	if err != nil {
		return nil, fmt.Errorf("read blocks info: %w", err)
	}

	if hdr.Flags&bundleFlagBlockInfoPaddingPre != 0 {
		pos = off + alignUp(pos-off, bundleAlign)
	}

	info, err := decompressBlock(Compression(hdr.Flags&bundleFlagCompressionMask), infoRaw, hdr.UncompressedBlocksInfoSize)
	if err != nil {
		return nil, fmt.Errorf("expand blocks info: %w", err)
	}

	bundle := &Bundle{Header: hdr}
	if err := bundle.parseBlocksInfo(info); err != nil {
		return nil, err
	}

	if err := bundle.readBlocks(ra, pos, dataEnd, g); err != nil {
		return nil, err
	}

	return bundle, nil
}

// parseBundleHeader decodes the UnityFS header and returns its aligned length.
func parseBundleHeader(buf []byte) (BundleHeader, int, error) {
	var hdr BundleHeader

	c := newCursor(buf, binary.BigEndian)
	hdr.Signature = c.cstring()
	if c.err != nil || hdr.Signature != "UnityFS" {
		return hdr, 0, fmt.Errorf("%w: want UnityFS", ErrInvalidSignature)
	}

	hdr.Version = c.u32()
	hdr.UnityVersion = c.cstring()
	hdr.UnityRevision = c.cstring()
	hdr.Size = c.i64()
	hdr.CompressedBlocksInfoSize = c.u32()
	hdr.UncompressedBlocksInfoSize = c.u32()
	hdr.Flags = c.u32()
	if hdr.Version >= 7 {
		c.align(bundleAlign, 0)
	}
	if c.err != nil {
		return hdr, 0, fmt.Errorf("bundle header: %w", c.err)
	}

	return hdr, c.pos, nil
}

// parseBlocksInfo decodes the storage block table and node directory.
func (b *Bundle) parseBlocksInfo(info []byte) error {
	c := newCursor(info, binary.BigEndian)
	c.take(bundleInfoHashSize)

	blockCount := c.i32()
	if blockCount < 0 || int(blockCount) > c.remaining()/bundleBlockInfoSize {
		return fmt.Errorf("%w: block count %d", ErrCorrupt, blockCount)
	}

	b.Blocks = make([]StorageBlock, blockCount)
	var total int64
	for i := range b.Blocks {
		b.Blocks[i] = StorageBlock{
			UncompressedSize: c.u32(),
			CompressedSize:   c.u32(),
			Flags:            c.u16(),
		}
		total += int64(b.Blocks[i].UncompressedSize)
	}
	if total > maxBundleDataSize {
		return fmt.Errorf("%w: %d bytes of block data", ErrCorrupt, total)
	}

	nodeCount := c.i32()
	if nodeCount < 0 || int(nodeCount) > c.remaining()/bundleNodeInfoMin {
		return fmt.Errorf("%w: node count %d", ErrCorrupt, nodeCount)
	}

	b.Nodes = make([]Node, nodeCount)
	for i := range b.Nodes {
		b.Nodes[i] = Node{
			Offset: c.i64(),
			Size:   c.i64(),
			Flags:  c.u32(),
			Path:   c.cstring(),
		}
	}
	if c.err != nil {
		return fmt.Errorf("blocks info: %w", c.err)
	}

	for _, node := range b.Nodes {
		if node.Offset < 0 || node.Size < 0 || node.Offset+node.Size > total {
			return fmt.Errorf("%w: node %q range [%d,+%d) outside %d bytes", ErrCorrupt, node.Path, node.Offset, node.Size, total)
		}
	}

	return nil
}

// readBlocks reads and expands every storage block from [pos, end).
func (b *Bundle) readBlocks(ra io.ReaderAt, pos int64, end int64, g game.Game) error {
	total, err := checkBlocks(b.Blocks, bundleBlockCompression, crypt.Mr0kHeaderSize, end-pos)
	if err != nil {
		return err
	}

	b.data = make([]byte, 0, initialCapacity(total))
	for i, block := range b.Blocks {
		if pos+int64(block.CompressedSize) > end {
			return fmt.Errorf("%w: block %d overruns bundle", ErrCorrupt, i)
		}

		raw, err := readRegion(ra, pos, int64(block.CompressedSize))
		if err != nil {
			return fmt.Errorf("read block %d: %w", i, err)
		}
		pos += int64(block.CompressedSize)

		if crypt.IsMr0k(raw) {
			if g.Type != game.TypeMr0k {
				return fmt.Errorf("%w: mr0k block under %s variant", ErrVariantMismatch, g.Type)
			}

			raw, err = crypt.DecryptMr0k(g.Key, raw)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
		}

		out, err := decompressBlock(bundleBlockCompression(block), raw, block.UncompressedSize)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}

		b.data = append(b.data, out...)
	}

	return nil
}

// bundleBlockCompression returns the codec named by a block's flags.
func bundleBlockCompression(block StorageBlock) Compression {
	return Compression(block.Flags & bundleFlagCompressionMask)
}

// readRegion reads exactly n bytes at off.
func readRegion(ra io.ReaderAt, off int64, n int64) ([]byte, error) {
	if n < 0 || n > maxBundleDataSize {
		return nil, fmt.Errorf("%w: region size %d", ErrCorrupt, n)
	}

	buf := make([]byte, n)
	read, err := ra.ReadAt(buf, off)
	if int64(read) == n {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = ErrTruncated
	}

	return nil, fmt.Errorf("read %d bytes at %d: %w", n, off, err)
}

// alignUp rounds v up to a multiple of n.
func alignUp(v int64, n int64) int64 {
	if rem := v % n; rem != 0 {
		return v + n - rem
	}

	return v
}
