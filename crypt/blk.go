// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package crypt

import (
	"bytes"
	"crypto/aes"
	"fmt"
)

// Blk header layout: magic, per-file key, reserved.
const (
	BlkMagicSize   = 4
	BlkFileKeySize = 16
	BlkHeaderSize  = BlkMagicSize + BlkFileKeySize + 16
)

// BlkMagic opens every block-encrypted archive.
var BlkMagic = []byte{'b', 'l', 'k', 0}

// BlkFileKey validates a blk header and returns its per-file key.
func BlkFileKey(header []byte) ([]byte, error) {
	if len(header) < BlkHeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrInvalidBlkHeader)
	}
	if !bytes.Equal(header[:BlkMagicSize], BlkMagic) {
		return nil, ErrInvalidBlkHeader
	}

	return header[BlkMagicSize : BlkMagicSize+BlkFileKeySize], nil
}

// BlkPad derives the payload pad: the per-file key is encrypted with the
// variant key (AES-128) and the ciphertext seeds the XOR pad.
func BlkPad(gameKey []byte, fileKey []byte) (*XORPad, error) {
	if len(fileKey) != BlkFileKeySize {
		return nil, fmt.Errorf("%w: blk file key is %d bytes", ErrInvalidKey, len(fileKey))
	}

	block, err := aes.NewCipher(gameKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	var seed [BlkFileKeySize]byte
	block.Encrypt(seed[:], fileKey)
	return NewXORPad(seed[:])
}
