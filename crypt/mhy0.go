// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package crypt

import "fmt"

// Mhy0Pad returns the pad that scrambles mhy0 headers and blocks.
func Mhy0Pad(gameKey []byte) (*XORPad, error) {
	if len(gameKey) == 0 {
		return nil, fmt.Errorf("%w: empty mhy0 key", ErrInvalidKey)
	}

	seed := make([]byte, 0, len(gameKey)+4)
	seed = append(seed, "mhy0"...)
	seed = append(seed, gameKey...)
	return NewXORPad(seed)
}

// Mhy0Scramble toggles mhy0 scrambling on buf in place; it is its own inverse.
func Mhy0Scramble(pad *XORPad, buf []byte) {
	pad.Apply(buf, 0)
}
