// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

/*
Package container detects and unpacks game asset containers.

Supported envelopes:
  - UnityFS bundles (plain or with mr0k-scrambled blocks);
  - UnityWebData archives (optionally gzip-wrapped);
  - block-encrypted "blk" archives holding back-to-back bundles or mhy0 containers;
  - block containers: plain back-to-back bundles with the ".block" extension;
  - mhy0 containers.

Every reader works over an io.ReaderAt, never consumes stream state, and
yields ordered entries:

	kind := container.Classify(f, size, name)
	entries, err := container.Extract(f, size, name, g)
	if errors.Is(err, container.ErrVariantMismatch) {
		// wrong game variant for this file: skip it
	}

Each Entry records the offset of its enclosing sub-container inside the
(decrypted) physical stream, so a later run can re-read only that region:

	entries, err := container.ReadAt(f, size, name, g, entry.Offset)

ExtractToDir writes entries to disk and PackBundle builds bundles.
*/
package container
