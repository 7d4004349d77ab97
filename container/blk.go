// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"fmt"
	"io"

	"github.com/woozymasta/assetmap/crypt"
	"github.com/woozymasta/assetmap/game"
)

// OpenBlk validates a block-encrypted archive and returns its decrypted
// payload view. Offset zero of the view is the first payload byte.
func OpenBlk(ra io.ReaderAt, size int64, g game.Game) (*crypt.DecryptReaderAt, error) {
	if g.Type != game.TypeBlk {
		return nil, fmt.Errorf("%w: blk archive under %s variant", ErrVariantMismatch, g.Type)
	}

	fileKey, err := crypt.BlkFileKey(readPrefix(ra, size, 0, crypt.BlkHeaderSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	pad, err := crypt.BlkPad(g.Key, fileKey)
	if err != nil {
		return nil, err
	}

	return crypt.NewDecryptReaderAt(ra, crypt.BlkHeaderSize, size-crypt.BlkHeaderSize, pad), nil
}

// ReadBlk decrypts a block-encrypted archive and extracts its back-to-back
// bundles and mhy0 containers. Entry offsets are relative to the decrypted
// payload. On a scan failure the entries read so far are returned with the error.
func ReadBlk(ra io.ReaderAt, size int64, g game.Game) ([]Entry, error) {
	dec, err := OpenBlk(ra, size, g)
	if err != nil {
		return nil, err
	}

	return scanEntries(dec, dec.Size(), g, blkKinds)
}

// EncodeBlk wraps payload (concatenated sub-containers) into a block-encrypted
// archive using the per-file key.
func EncodeBlk(payload []byte, fileKey []byte, g game.Game) ([]byte, error) {
	if g.Type != game.TypeBlk {
		return nil, fmt.Errorf("%w: blk archive under %s variant", ErrVariantMismatch, g.Type)
	}

	pad, err := crypt.BlkPad(g.Key, fileKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, crypt.BlkHeaderSize+len(payload))
	copy(out, crypt.BlkMagic)
	copy(out[crypt.BlkMagicSize:], fileKey)

	body := out[crypt.BlkHeaderSize:]
	copy(body, payload)
	pad.Apply(body, 0)

	return out, nil
}
