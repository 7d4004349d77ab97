// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/woozymasta/assetmap/crypt"
	"github.com/woozymasta/assetmap/game"
)

// maxNodeSize bounds one packed node.
const maxNodeSize = 1 << 31

// packedBlock is one stored block with its table record.
type packedBlock struct {
	stored []byte
	info   StorageBlock
}

// BytesInput returns an Input serving data from memory.
func BytesInput(path string, data []byte) Input {
	return Input{
		Path: path,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// PackBundle writes a UnityFS bundle holding inputs to out.
// Inputs are sorted by path for deterministic output. Node data is split
// into BlockSize blocks; blocks of nodes selected by Compress rules are
// stored LZ4-compressed when that makes them smaller. Under an mr0k variant
// every block is mr0k-framed.
func PackBundle(ctx context.Context, out io.Writer, inputs []Input, opts PackOptions) (*PackResult, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	opts.applyDefaults()
	start := time.Now()

	sorted, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	matcher, err := newCompressMatcher(opts.Compress, opts.CompressMatcherOptions)
	if err != nil {
		return nil, err
	}

	scramble := opts.Game.Type == game.TypeMr0k
	if scramble && len(opts.Game.Key) == 0 {
		return nil, fmt.Errorf("pack mr0k bundle: %w", game.ErrMissingKey)
	}

	res := &PackResult{}
	var (
		blocks []packedBlock
		nodes  []Node
		offset int64
	)

	for _, in := range sorted {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := readInput(in)
		if err != nil {
			return nil, err
		}

		candidate := shouldCompress(opts, matcher, in.Path, int64(len(data)))
		nodeBlocks := 0
		for chunkStart := 0; chunkStart < len(data); chunkStart += int(opts.BlockSize) {
			chunk := data[chunkStart:min(chunkStart+int(opts.BlockSize), len(data))]
			block, compressed, err := packBlock(chunk, candidate, scramble, opts.Game.Key, len(blocks))
			if err != nil {
				return nil, fmt.Errorf("pack %s: %w", in.Path, err)
			}

			if compressed {
				res.CompressedBlocks++
			} else if candidate {
				res.SkippedCompressionBlocks++
			}

			blocks = append(blocks, block)
			nodeBlocks++
		}

		node := Node{Path: in.Path, Offset: offset, Size: int64(len(data))}
		nodes = append(nodes, node)
		offset += node.Size

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{
				Path:                 node.Path,
				Offset:               node.Offset,
				Size:                 node.Size,
				Blocks:               nodeBlocks,
				CompressionCandidate: candidate,
			})
		}
	}

	bundle, err := layoutBundle(blocks, nodes, opts)
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriter(out)
	if _, err := bw.Write(bundle); err != nil {
		return nil, fmt.Errorf("write bundle: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush bundle: %w", err)
	}

	res.WrittenEntries = len(nodes)
	res.Blocks = len(blocks)
	res.Size = int64(len(bundle))
	res.Duration = time.Since(start)
	return res, nil
}

// PackBundleFile writes a bundle to outPath.
func PackBundleFile(ctx context.Context, outPath string, inputs []Input, opts PackOptions) (*PackResult, error) {
	f, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create bundle file: %w", err)
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	res, err := PackBundle(ctx, f, inputs, opts)
	if err != nil {
		return nil, err
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("sync bundle file: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close bundle file: %w", err)
	}
	f = nil

	return res, nil
}

// packBlock stores one chunk, compressing and scrambling it as requested.
func packBlock(chunk []byte, compress bool, scramble bool, key []byte, index int) (packedBlock, bool, error) {
	block := packedBlock{
		stored: chunk,
		info: StorageBlock{
			UncompressedSize: uint32(len(chunk)),
			Flags:            uint16(CompressionNone),
		},
	}

	compressed := false
	if compress {
		packed, ok, err := compressLZ4Block(chunk)
		if err != nil {
			return block, false, err
		}
		if ok {
			block.stored = packed
			block.info.Flags = uint16(CompressionLZ4)
			compressed = true
		}
	}

	if scramble {
		framed, err := crypt.EncryptMr0k(key, mr0kBlockKey(index, chunk), block.stored)
		if err != nil {
			return block, false, err
		}

		block.stored = framed
	}

	block.info.CompressedSize = uint32(len(block.stored))
	return block, compressed, nil
}

// mr0kBlockKey derives a deterministic per-block key.
func mr0kBlockKey(index int, chunk []byte) []byte {
	h := fnv.New128a()
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(index))
	_, _ = h.Write(idx[:])
	_, _ = h.Write(chunk)
	return h.Sum(nil)
}

// layoutBundle assembles header, directory and blocks.
func layoutBundle(blocks []packedBlock, nodes []Node, opts PackOptions) ([]byte, error) {
	info := encodeBlocksInfo(blocks, nodes)
	infoStored, ok, err := compressLZ4Block(info)
	if err != nil {
		return nil, err
	}

	flags := uint32(bundleFlagBlocksAndDirectory | bundleFlagBlockInfoPaddingPre)
	if ok {
		flags |= uint32(CompressionLZ4)
	} else {
		infoStored = info
	}
	if opts.BlocksInfoAtEnd {
		flags |= bundleFlagBlocksInfoAtEnd
	}

	hdr := BundleHeader{
		Signature:                  "UnityFS",
		Version:                    opts.Version,
		UnityVersion:               opts.UnityVersion,
		UnityRevision:              opts.UnityRevision,
		CompressedBlocksInfoSize:   uint32(len(infoStored)),
		UncompressedBlocksInfoSize: uint32(len(info)),
		Flags:                      flags,
	}

	headerLen := int64(len(encodeBundleHeader(hdr)))
	if hdr.Version >= 7 {
		headerLen = alignUp(headerLen, bundleAlign)
	}

	pos := headerLen
	if !opts.BlocksInfoAtEnd {
		pos += int64(len(infoStored))
	}
	blocksStart := alignUp(pos, bundleAlign)

	var blocksSize int64
	for _, block := range blocks {
		blocksSize += int64(len(block.stored))
	}

	hdr.Size = blocksStart + blocksSize
	if opts.BlocksInfoAtEnd {
		hdr.Size += int64(len(infoStored))
	}

	out := make([]byte, 0, hdr.Size)
	out = append(out, encodeBundleHeader(hdr)...)
	out = padTo(out, headerLen)
	if !opts.BlocksInfoAtEnd {
		out = append(out, infoStored...)
	}
	out = padTo(out, blocksStart)
	for _, block := range blocks {
		out = append(out, block.stored...)
	}
	if opts.BlocksInfoAtEnd {
		out = append(out, infoStored...)
	}

	if int64(len(out)) != hdr.Size {
		return nil, fmt.Errorf("%w: laid out %d bytes, header says %d", ErrCorrupt, len(out), hdr.Size)
	}

	return out, nil
}

// encodeBundleHeader serializes the fixed header without alignment.
func encodeBundleHeader(hdr BundleHeader) []byte {
	out := make([]byte, 0, 64)
	out = append(out, hdr.Signature...)
	out = append(out, 0)
	out = binary.BigEndian.AppendUint32(out, hdr.Version)
	out = append(out, hdr.UnityVersion...)
	out = append(out, 0)
	out = append(out, hdr.UnityRevision...)
	out = append(out, 0)
	out = binary.BigEndian.AppendUint64(out, uint64(hdr.Size))
	out = binary.BigEndian.AppendUint32(out, hdr.CompressedBlocksInfoSize)
	out = binary.BigEndian.AppendUint32(out, hdr.UncompressedBlocksInfoSize)
	out = binary.BigEndian.AppendUint32(out, hdr.Flags)
	return out
}

// encodeBlocksInfo serializes the block table and node directory.
func encodeBlocksInfo(blocks []packedBlock, nodes []Node) []byte {
	out := make([]byte, bundleInfoHashSize, 64+len(blocks)*bundleBlockInfoSize+len(nodes)*64)
	out = binary.BigEndian.AppendUint32(out, uint32(len(blocks)))
	for _, block := range blocks {
		out = binary.BigEndian.AppendUint32(out, block.info.UncompressedSize)
		out = binary.BigEndian.AppendUint32(out, block.info.CompressedSize)
		out = binary.BigEndian.AppendUint16(out, block.info.Flags)
	}

	out = binary.BigEndian.AppendUint32(out, uint32(len(nodes)))
	for _, node := range nodes {
		out = binary.BigEndian.AppendUint64(out, uint64(node.Offset))
		out = binary.BigEndian.AppendUint64(out, uint64(node.Size))
		out = binary.BigEndian.AppendUint32(out, node.Flags)
		out = append(out, node.Path...)
		out = append(out, 0)
	}

	return out
}

// padTo appends zero bytes until len(buf) == size.
func padTo(buf []byte, size int64) []byte {
	for int64(len(buf)) < size {
		buf = append(buf, 0)
	}

	return buf
}

// preparePackPlan normalizes and sorts pack inputs.
func preparePackPlan(inputs []Input) ([]Input, error) {
	sorted := make([]Input, len(inputs))
	copy(sorted, inputs)

	for i := range sorted {
		p := strings.TrimSpace(strings.ReplaceAll(sorted[i].Path, `\`, `/`))
		if p == "" || strings.ContainsRune(p, 0) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEntryPath, sorted[i].Path)
		}

		sorted[i].Path = p
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	if err := validateUniqueEntryPaths(sorted); err != nil {
		return nil, err
	}

	return sorted, nil
}

// readInput loads one input payload.
func readInput(in Input) ([]byte, error) {
	if in.Open == nil {
		return nil, fmt.Errorf("input %s: Open is nil", in.Path)
	}

	rc, err := in.Open()
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", in.Path, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxNodeSize+1))
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", in.Path, err)
	}
	if len(data) > maxNodeSize {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, in.Path)
	}

	return data, nil
}

// validateUniqueEntryPaths ensures there are no duplicate node paths.
func validateUniqueEntryPaths(inputs []Input) error {
	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		key := strings.ToLower(in.Path)
		if existing, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntryPath, in.Path, existing)
		}

		seen[key] = in.Path
	}

	return nil
}
