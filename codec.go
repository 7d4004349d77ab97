// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/woozymasta/lzss"
)

// Codec is the block compression of a binary catalog.
type Codec uint8

// Binary catalog codecs.
const (
	// CodecLZ4 is the default codec.
	CodecLZ4 Codec = iota
	// CodecNone stores the payload raw.
	CodecNone
	// CodecZstd uses zstd at the default level.
	CodecZstd
	// CodecLZSS uses LZSS with default options.
	CodecLZSS
)

// maxCatalogSize bounds the declared raw size of a binary catalog payload.
const maxCatalogSize = 1 << 30

var codecNames = map[Codec]string{
	CodecNone: "none",
	CodecLZ4:  "lz4",
	CodecZstd: "zstd",
	CodecLZSS: "lzss",
}

// String returns the codec name.
func (c Codec) String() string {
	if name, ok := codecNames[c]; ok {
		return name
	}

	return fmt.Sprintf("codec(%d)", uint8(c))
}

// ParseCodec parses a codec name. Empty selects CodecLZ4.
func ParseCodec(value string) (Codec, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return CodecLZ4, nil
	}

	for c, name := range codecNames {
		if name == value {
			return c, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, value)
}

// MarshalText implements encoding.TextMarshaler.
func (c Codec) MarshalText() ([]byte, error) {
	if _, ok := codecNames[c]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}

	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Codec) UnmarshalText(text []byte) error {
	parsed, err := ParseCodec(string(text))
	if err != nil {
		return err
	}

	*c = parsed
	return nil
}

// compress encodes data with c. The returned codec differs from c only when
// LZ4 could not shrink the data and the payload is stored raw.
func (c Codec) compress(data []byte) ([]byte, Codec, error) {
	switch c {
	case CodecNone:
		return data, CodecNone, nil
	case CodecLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, c, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 {
			return data, CodecNone, nil
		}

		return dst[:n], CodecLZ4, nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, c, fmt.Errorf("zstd encoder: %w", err)
		}
		defer func() { _ = enc.Close() }()

		return enc.EncodeAll(data, nil), CodecZstd, nil
	case CodecLZSS:
		out, err := lzss.Compress(data, lzss.DefaultCompressOptions())
		if err != nil {
			return nil, c, fmt.Errorf("lzss compress: %w", err)
		}

		return out, CodecLZSS, nil
	default:
		return nil, c, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

// decompress expands src to exactly rawLen bytes.
func (c Codec) decompress(src []byte, rawLen int) ([]byte, error) {
	if rawLen < 0 || rawLen > maxCatalogSize {
		return nil, fmt.Errorf("%w: raw size %d", ErrCorruptCatalog, rawLen)
	}

	var (
		out []byte
		err error
	)

	switch c {
	case CodecNone:
		out = src
	case CodecLZ4:
		out = make([]byte, rawLen)
		var n int
		n, err = lz4.UncompressBlock(src, out)
		out = out[:max(n, 0)]
	case CodecZstd:
		var dec *zstd.Decoder
		dec, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxCatalogSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer dec.Close()

		out, err = dec.DecodeAll(src, make([]byte, 0, rawLen))
	case CodecLZSS:
		var buf bytes.Buffer
		buf.Grow(rawLen)
		_, err = lzss.DecompressToWriter(&buf, bytes.NewReader(src), rawLen, nil)
		out = buf.Bytes()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptCatalog, c, err)
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, want %d", ErrCorruptCatalog, c, len(out), rawLen)
	}

	return out, nil
}
