// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package crypt

import (
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/sha3"
)

// PadSize is the XOR pad period in bytes.
const PadSize = 0x1000

// padMask maps stream offsets into the pad.
const padMask = PadSize - 1

// XORPad is a repeating keystream addressed by absolute stream offset.
type XORPad [PadSize]byte

// NewXORPad expands seed into a pad: SHA3-256(seed) keys a ChaCha20 keystream.
func NewXORPad(seed []byte) (*XORPad, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: empty pad seed", ErrInvalidKey)
	}

	key := sha3.Sum256(seed)
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, fmt.Errorf("init keystream: %w", err)
	}

	pad := new(XORPad)
	stream.XORKeyStream(pad[:], pad[:])
	return pad, nil
}

// Apply XORs buf in place as if it started at stream offset off.
func (p *XORPad) Apply(buf []byte, off int64) {
	for i := range buf {
		buf[i] ^= p[(off+int64(i))&padMask]
	}
}

// DecryptReaderAt decrypts a region of an underlying ReaderAt on every read.
type DecryptReaderAt struct {
	ra   io.ReaderAt
	pad  *XORPad
	base int64
	size int64
}

// NewDecryptReaderAt exposes size bytes of ra starting at base as a decrypted
// stream whose offset zero is base.
func NewDecryptReaderAt(ra io.ReaderAt, base int64, size int64, pad *XORPad) *DecryptReaderAt {
	if size < 0 {
		size = 0
	}

	return &DecryptReaderAt{ra: ra, pad: pad, base: base, size: size}
}

// ReadAt implements io.ReaderAt over the decrypted region.
func (d *DecryptReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= d.size {
		return 0, io.EOF
	}

	want := p
	if remaining := d.size - off; int64(len(want)) > remaining {
		want = want[:remaining]
	}

	n, err := d.ra.ReadAt(want, d.base+off)
	d.pad.Apply(want[:n], off)
	if err == nil && n < len(p) {
		err = io.EOF
	}

	return n, err
}

// Size returns decrypted region size.
func (d *DecryptReaderAt) Size() int64 {
	return d.size
}
