// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/woozymasta/assetmap/crypt"
	"github.com/woozymasta/assetmap/game"
)

// mhy0 framing: signature and little-endian header size.
const (
	mhy0PrefixSize  = 8
	mhy0BlockInfo   = 8
	mhy0NodeInfoMin = 2 + 16
)

// Mhy0 is a parsed mhy0 container with its node data expanded in memory.
type Mhy0 struct {
	Blocks []StorageBlock `json:"blocks" yaml:"blocks"`
	Nodes  []Node         `json:"nodes" yaml:"nodes"`
	// Size is the number of bytes the container occupies in its stream.
	Size int64 `json:"size" yaml:"size"`
	data []byte
}

// Entries returns nodes as entries tagged with offset.
func (m *Mhy0) Entries(offset int64) []Entry {
	entries := make([]Entry, 0, len(m.Nodes))
	for _, node := range m.Nodes {
		entries = append(entries, Entry{
			Path:   node.Path,
			Offset: offset,
			Data:   m.data[node.Offset : node.Offset+node.Size : node.Offset+node.Size],
		})
	}

	return entries
}

// ReadMhy0 parses an mhy0 container starting at offset zero.
func ReadMhy0(ra io.ReaderAt, size int64, g game.Game) (*Mhy0, error) {
	return ReadMhy0At(ra, size, 0, g)
}

// ReadMhy0At parses an mhy0 container starting at off. The variant must be
// of the mhy0 group and carry a key, otherwise ErrVariantMismatch.
func ReadMhy0At(ra io.ReaderAt, size int64, off int64, g game.Game) (*Mhy0, error) {
	m, pad, pos, err := readMhy0Layout(ra, size, off, g)
	if err != nil {
		return nil, err
	}

	total, err := checkBlocks(m.Blocks, mhy0Compression, 0, size-pos)
	if err != nil {
		return nil, fmt.Errorf("mhy0: %w", err)
	}

	m.data = make([]byte, 0, initialCapacity(total))
	for i, block := range m.Blocks {
		stored, err := readRegion(ra, pos, int64(block.CompressedSize))
		if err != nil {
			return nil, fmt.Errorf("read mhy0 block %d: %w", i, err)
		}
		pos += int64(block.CompressedSize)

		crypt.Mhy0Scramble(pad, stored)
		out, err := decompressBlock(mhy0Compression(block), stored, block.UncompressedSize)
		if err != nil {
			return nil, fmt.Errorf("mhy0 block %d: %w", i, err)
		}

		m.data = append(m.data, out...)
	}

	for _, node := range m.Nodes {
		if node.Offset < 0 || node.Size < 0 || node.Offset+node.Size > total {
			return nil, fmt.Errorf("%w: mhy0 node %q range [%d,+%d) outside %d bytes", ErrCorrupt, node.Path, node.Offset, node.Size, total)
		}
	}

	return m, nil
}

// readMhy0Layout decodes the mhy0 header at off without touching blocks.
// It returns the container with Size set, the pad and the first block position.
func readMhy0Layout(ra io.ReaderAt, size int64, off int64, g game.Game) (*Mhy0, *crypt.XORPad, int64, error) {
	if !g.Type.IsMhy0Group() || len(g.Key) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: mhy0 container under %s variant", ErrVariantMismatch, g.Type)
	}

	prefix := readPrefix(ra, size, off, mhy0PrefixSize)
	if len(prefix) < mhy0PrefixSize || !bytes.HasPrefix(prefix, mhy0Signature) {
		return nil, nil, 0, fmt.Errorf("%w: want mhy0", ErrInvalidSignature)
	}

	headerSize := int64(binary.LittleEndian.Uint32(prefix[4:]))
	pos := off + mhy0PrefixSize
	if headerSize < 4 || pos+headerSize > size {
		return nil, nil, 0, fmt.Errorf("%w: mhy0 header size %d", ErrCorrupt, headerSize)
	}

	pad, err := crypt.Mhy0Pad(g.Key)
	if err != nil {
		return nil, nil, 0, err
	}

	raw, err := readRegion(ra, pos, headerSize)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read mhy0 header: %w", err)
	}
	pos += headerSize

	crypt.Mhy0Scramble(pad, raw)
	headerLen := binary.LittleEndian.Uint32(raw)
	headerBlock := StorageBlock{CompressedSize: uint32(len(raw) - 4), UncompressedSize: headerLen}
	header, err := decompressBlock(mhy0Compression(headerBlock), raw[4:], headerLen)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("expand mhy0 header: %w", err)
	}

	m := &Mhy0{}
	if err := m.parseHeader(header); err != nil {
		return nil, nil, 0, err
	}

	m.Size = pos - off
	for _, block := range m.Blocks {
		m.Size += int64(block.CompressedSize)
	}
	if off+m.Size > size {
		return nil, nil, 0, fmt.Errorf("%w: mhy0 blocks overrun stream by %d bytes", ErrCorrupt, off+m.Size-size)
	}

	return m, pad, pos, nil
}

// parseHeader decodes the cab directory and block table.
func (m *Mhy0) parseHeader(header []byte) error {
	c := newCursor(header, binary.LittleEndian)

	nodeCount := c.u32()
	if int64(nodeCount) > int64(c.remaining()/mhy0NodeInfoMin) {
		return fmt.Errorf("%w: mhy0 node count %d", ErrCorrupt, nodeCount)
	}

	m.Nodes = make([]Node, nodeCount)
	for i := range m.Nodes {
		nameLen := int(c.u16())
		m.Nodes[i].Path = string(c.take(nameLen))
		m.Nodes[i].Offset = c.i64()
		m.Nodes[i].Size = c.i64()
	}

	blockCount := c.u32()
	if int64(blockCount) > int64(c.remaining()/mhy0BlockInfo) {
		return fmt.Errorf("%w: mhy0 block count %d", ErrCorrupt, blockCount)
	}

	m.Blocks = make([]StorageBlock, blockCount)
	var total int64
	for i := range m.Blocks {
		m.Blocks[i].CompressedSize = c.u32()
		m.Blocks[i].UncompressedSize = c.u32()
		total += int64(m.Blocks[i].UncompressedSize)
	}
	if c.err != nil {
		return fmt.Errorf("mhy0 header: %w", c.err)
	}
	if total > maxBundleDataSize {
		return fmt.Errorf("%w: %d bytes of mhy0 block data", ErrCorrupt, total)
	}

	return nil
}

// mhy0Compression tells raw blocks (stored size equals expanded size) from LZ4 ones.
func mhy0Compression(block StorageBlock) Compression {
	if block.CompressedSize == block.UncompressedSize {
		return CompressionNone
	}

	return CompressionLZ4
}

// EncodeMhy0 builds an mhy0 container holding entries, sorted by path.
// Each entry becomes one node; node data is split into LZ4 blocks of
// DefaultBlockSize that are stored raw when compression does not help.
func EncodeMhy0(entries []Entry, g game.Game) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyInputs
	}
	if !g.Type.IsMhy0Group() || len(g.Key) == 0 {
		return nil, fmt.Errorf("%w: mhy0 container under %s variant", ErrVariantMismatch, g.Type)
	}

	pad, err := crypt.Mhy0Pad(g.Key)
	if err != nil {
		return nil, err
	}

	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var (
		stream []byte
		header []byte
		blocks [][]byte
		table  []byte
	)

	header = binary.LittleEndian.AppendUint32(header, uint32(len(sorted)))
	for _, entry := range sorted {
		if len(entry.Path) > 0xffff {
			return nil, fmt.Errorf("%w: path of %d bytes", ErrInvalidEntryPath, len(entry.Path))
		}

		header = binary.LittleEndian.AppendUint16(header, uint16(len(entry.Path)))
		header = append(header, entry.Path...)
		header = binary.LittleEndian.AppendUint64(header, uint64(len(stream)))
		header = binary.LittleEndian.AppendUint64(header, uint64(len(entry.Data)))
		stream = append(stream, entry.Data...)
	}

	var count uint32
	for start := 0; start < len(stream); start += DefaultBlockSize {
		chunk := stream[start:min(start+DefaultBlockSize, len(stream))]
		stored, ok, err := compressLZ4Block(chunk)
		if err != nil {
			return nil, err
		}
		if !ok {
			stored = bytes.Clone(chunk)
		}

		table = binary.LittleEndian.AppendUint32(table, uint32(len(stored)))
		table = binary.LittleEndian.AppendUint32(table, uint32(len(chunk)))
		crypt.Mhy0Scramble(pad, stored)
		blocks = append(blocks, stored)
		count++
	}

	header = binary.LittleEndian.AppendUint32(header, count)
	header = append(header, table...)

	packedHeader, ok, err := compressLZ4Block(header)
	if err != nil {
		return nil, err
	}
	if !ok {
		packedHeader = header
	}

	framed := binary.LittleEndian.AppendUint32(nil, uint32(len(header)))
	framed = append(framed, packedHeader...)
	crypt.Mhy0Scramble(pad, framed)

	out := make([]byte, 0, mhy0PrefixSize+len(framed)+len(stream))
	out = append(out, mhy0Signature...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(framed)))
	out = append(out, framed...)
	for _, block := range blocks {
		out = append(out, block...)
	}

	return out, nil
}
