// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

/*
Package crypt implements the keyed transforms applied to raw bytes before
container parsing: a seekable XOR pad, the blk per-file key schedule, and the
mr0k and mhy0 descramblers.

Every transform is a pure function of its key and input. Pads and decrypting
readers hold no cursor state, so one pad may serve many concurrent streams:

	pad, err := crypt.BlkPad(gameKey, fileKey)
	if err != nil {
	    return err
	}
	ra := crypt.NewDecryptReaderAt(file, crypt.BlkHeaderSize, size-crypt.BlkHeaderSize, pad)
*/
package crypt
