// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/pathrules"
)

// Default packer tuning values.
const (
	DefaultBlockSize       = 128 * 1024
	DefaultMinCompressSize = 256
	DefaultMaxCompressSize = 64 * 1024 * 1024
	DefaultBundleVersion   = 7
	DefaultUnityVersion    = "5.x.x"
	DefaultUnityRevision   = "2019.4.34f1"
)

// Kind is the classification of a candidate container stream.
type Kind uint8

// Container kinds returned by Classify.
const (
	KindUnrecognized Kind = iota
	KindBundle
	KindWebArchive
	KindBlockEncrypted
	KindBlockContainer
	KindMhy0
)

var kindNames = [...]string{
	KindUnrecognized:   "unrecognized",
	KindBundle:         "bundle",
	KindWebArchive:     "web",
	KindBlockEncrypted: "blk",
	KindBlockContainer: "block",
	KindMhy0:           "mhy0",
}

// String returns the kind label.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind label.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind label.
func (k *Kind) UnmarshalText(text []byte) error {
	label := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range kindNames {
		if name == label {
			*k = Kind(i)
			return nil
		}
	}

	return fmt.Errorf("unknown container kind %q", text)
}

// IsContainer reports whether Extract can unpack this kind.
func (k Kind) IsContainer() bool {
	return k != KindUnrecognized && int(k) < len(kindNames)
}

// Compression is a UnityFS block compression type (low 6 bits of flags).
type Compression uint32

// Bundle compression types.
const (
	CompressionNone  Compression = 0
	CompressionLZMA  Compression = 1
	CompressionLZ4   Compression = 2
	CompressionLZ4HC Compression = 3
	CompressionLZHAM Compression = 4
)

// Entry is one named sub-stream of a container.
type Entry struct {
	// Path is the entry name inside its container (CAB id for serialized files).
	Path string `json:"path" yaml:"path"`
	// Offset is the start of the enclosing sub-container within the
	// physical (decrypted) stream. Zero for single-container files.
	Offset int64 `json:"offset" yaml:"offset"`
	// Data is the decompressed entry payload.
	Data []byte `json:"-" yaml:"-"`
}

// Size returns payload size in bytes.
func (e Entry) Size() int64 {
	return int64(len(e.Data))
}

// SubContainer describes one region found by a back-to-back scan.
type SubContainer struct {
	// Kind is the classification of the region.
	Kind Kind `json:"kind" yaml:"kind"`
	// Offset is region start inside the scanned stream.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is region length in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// Input describes one source stream to be packed into a bundle node.
type Input struct {
	// Open returns raw source stream for this entry.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Path is destination node path inside the bundle.
	Path string `json:"path" yaml:"path"`
}

// PackEntryProgress contains one completed node write event from pack flow.
type PackEntryProgress struct {
	// Path is node path written to the bundle.
	Path string `json:"path" yaml:"path"`
	// Offset is node offset in the uncompressed block stream.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is node size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Blocks is number of storage blocks used by the node.
	Blocks int `json:"blocks" yaml:"blocks"`
	// CompressionCandidate reports whether rules selected the node for compression.
	CompressionCandidate bool `json:"compression_candidate,omitempty" yaml:"compression_candidate,omitempty"`
}

// PackOptions configures PackBundle.
type PackOptions struct {
	// OnEntryDone is called after one node is laid out.
	OnEntryDone func(entry PackEntryProgress) `json:"-" yaml:"-"`
	// Game selects optional mr0k block scrambling (variants of type Mr0k).
	Game game.Game `json:"game,omitzero" yaml:"game,omitzero"`
	// Compress defines ordered path rules for compression candidate selection.
	Compress []pathrules.Rule `json:"compress,omitempty" yaml:"compress,omitempty"`
	// CompressMatcherOptions control compression path rule matching.
	CompressMatcherOptions pathrules.MatcherOptions `json:"compress_matcher_options,omitzero" yaml:"compress_matcher_options,omitzero"`
	// UnityVersion is the engine version string stored in the header.
	UnityVersion string `json:"unity_version,omitempty" yaml:"unity_version,omitempty"`
	// UnityRevision is the engine revision string stored in the header.
	UnityRevision string `json:"unity_revision,omitempty" yaml:"unity_revision,omitempty"`
	// Version is the UnityFS format version. Default is 7.
	Version uint32 `json:"version,omitempty" yaml:"version,omitempty"`
	// BlockSize is uncompressed size of one storage block. Default is 128 KiB.
	BlockSize uint32 `json:"block_size,omitempty" yaml:"block_size,omitempty"`
	// MinCompressSize disables compression for nodes smaller than this size.
	MinCompressSize uint32 `json:"min_compress_size,omitempty" yaml:"min_compress_size,omitempty"`
	// MaxCompressSize disables compression for nodes larger than this size.
	MaxCompressSize uint32 `json:"max_compress_size,omitempty" yaml:"max_compress_size,omitempty"`
	// BlocksInfoAtEnd stores the directory after the blocks.
	BlocksInfoAtEnd bool `json:"blocks_info_at_end,omitempty" yaml:"blocks_info_at_end,omitempty"`
}

// PackResult contains pack output statistics.
type PackResult struct {
	// WrittenEntries is number of nodes written to the bundle.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// Size is total bundle size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Blocks is number of storage blocks.
	Blocks int `json:"blocks" yaml:"blocks"`
	// CompressedBlocks is number of blocks stored LZ4-compressed.
	CompressedBlocks int `json:"compressed_blocks,omitempty" yaml:"compressed_blocks,omitempty"`
	// SkippedCompressionBlocks is number of candidate blocks stored raw because compression did not help.
	SkippedCompressionBlocks int `json:"skipped_compression_blocks,omitempty" yaml:"skipped_compression_blocks,omitempty"`
	// Duration is end-to-end pack duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ExtractOptions configures ExtractToDir.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is written to disk.
	OnEntryDone func(entry Entry, written int64, outputPath string) `json:"-" yaml:"-"`
	// Include defines ordered path rules selecting entries; empty means all.
	Include []pathrules.Rule `json:"include,omitempty" yaml:"include,omitempty"`
	// IncludeMatcherOptions control include rule matching.
	IncludeMatcherOptions pathrules.MatcherOptions `json:"include_matcher_options,omitzero" yaml:"include_matcher_options,omitzero"`
	// MaxWorkers is number of writer goroutines (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables path sanitization.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.Version == 0 {
		opts.Version = DefaultBundleVersion
	}

	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}

	if opts.UnityVersion == "" {
		opts.UnityVersion = DefaultUnityVersion
	}

	if opts.UnityRevision == "" {
		opts.UnityRevision = DefaultUnityRevision
	}

	if opts.MinCompressSize == 0 {
		opts.MinCompressSize = DefaultMinCompressSize
	}

	if opts.MaxCompressSize == 0 || opts.MaxCompressSize <= opts.MinCompressSize {
		opts.MaxCompressSize = DefaultMaxCompressSize
	}

	if opts.CompressMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.CompressMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.CompressMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.CompressMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.IncludeMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.IncludeMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.IncludeMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.IncludeMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}
