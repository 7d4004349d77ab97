// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package crypt

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// mr0k frame layout: signature followed by block key.
const (
	mr0kKeySize    = 16
	Mr0kHeaderSize = 4 + mr0kKeySize
)

// Mr0kMagic marks a scrambled bundle block.
var Mr0kMagic = []byte("mr0k")

// IsMr0k reports whether block starts with the mr0k signature.
func IsMr0k(block []byte) bool {
	return bytes.HasPrefix(block, Mr0kMagic)
}

// DecryptMr0k descrambles one mr0k framed block and returns its payload.
func DecryptMr0k(gameKey []byte, block []byte) ([]byte, error) {
	if len(block) < Mr0kHeaderSize || !IsMr0k(block) {
		return nil, ErrInvalidMr0k
	}

	blockKey := block[4:Mr0kHeaderSize]
	c, err := mr0kCipher(gameKey, blockKey)
	if err != nil {
		return nil, err
	}

	out := bytes.Clone(block[Mr0kHeaderSize:])
	whole := len(out) &^ (blowfish.BlockSize - 1)
	for i := 0; i < whole; i += blowfish.BlockSize {
		c.Decrypt(out[i:i+blowfish.BlockSize], out[i:i+blowfish.BlockSize])
	}
	xorTail(out[whole:], blockKey)

	return out, nil
}

// EncryptMr0k frames payload as an mr0k block using blockKey.
func EncryptMr0k(gameKey []byte, blockKey []byte, payload []byte) ([]byte, error) {
	if len(blockKey) != mr0kKeySize {
		return nil, fmt.Errorf("%w: mr0k block key is %d bytes", ErrInvalidKey, len(blockKey))
	}

	c, err := mr0kCipher(gameKey, blockKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, Mr0kHeaderSize+len(payload))
	copy(out, Mr0kMagic)
	copy(out[4:], blockKey)
	body := out[Mr0kHeaderSize:]
	copy(body, payload)

	whole := len(body) &^ (blowfish.BlockSize - 1)
	for i := 0; i < whole; i += blowfish.BlockSize {
		c.Encrypt(body[i:i+blowfish.BlockSize], body[i:i+blowfish.BlockSize])
	}
	xorTail(body[whole:], blockKey)

	return out, nil
}

// mr0kCipher keys Blowfish with the variant key followed by the block key.
func mr0kCipher(gameKey []byte, blockKey []byte) (*blowfish.Cipher, error) {
	if len(gameKey) == 0 {
		return nil, fmt.Errorf("%w: empty mr0k key", ErrInvalidKey)
	}

	key := make([]byte, 0, len(gameKey)+len(blockKey))
	key = append(key, gameKey...)
	key = append(key, blockKey...)

	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return c, nil
}

// xorTail scrambles bytes that do not fill a whole cipher block.
func xorTail(tail []byte, key []byte) {
	for i := range tail {
		tail[i] ^= key[i%len(key)]
	}
}
