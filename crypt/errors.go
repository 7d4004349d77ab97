// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package crypt

import "errors"

var (
	// ErrInvalidKey means the key has wrong size.
	ErrInvalidKey = errors.New("invalid key size")
	// ErrInvalidBlkHeader means the blk header is missing or malformed.
	ErrInvalidBlkHeader = errors.New("invalid blk header")
	// ErrInvalidMr0k means the mr0k frame is truncated or has a bad signature.
	ErrInvalidMr0k = errors.New("invalid mr0k block")
)
