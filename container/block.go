// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"io"

	"github.com/woozymasta/assetmap/game"
)

// ReadBlock extracts a block container: plain bundles stored back to back.
// On a scan failure the entries read so far are returned with the error.
func ReadBlock(ra io.ReaderAt, size int64, g game.Game) ([]Entry, error) {
	return scanEntries(ra, size, g, blockKinds)
}
