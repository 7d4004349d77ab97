// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import "errors"

// Sentinel errors for map operations. Use errors.Is in callers.
var (
	// ErrNoInputs means the build was given no files.
	ErrNoInputs = errors.New("no input files")
	// ErrInvalidMapName means a CAB map name is empty or contains path separators.
	ErrInvalidMapName = errors.New("invalid map name")
	// ErrCorruptCABMap means a persisted CAB map could not be decoded.
	ErrCorruptCABMap = errors.New("corrupt CAB map")
	// ErrInvalidFilter means one of the catalog filter patterns does not compile.
	ErrInvalidFilter = errors.New("invalid catalog filter")
	// ErrUnknownFormat means the catalog format is not one of xml, json or bin.
	ErrUnknownFormat = errors.New("unknown catalog format")
	// ErrUnknownCodec means the binary catalog codec is not supported.
	ErrUnknownCodec = errors.New("unknown catalog codec")
	// ErrCorruptCatalog means a catalog file could not be decoded.
	ErrCorruptCatalog = errors.New("corrupt catalog")
	// ErrResourceIndex means a resource index file could not be loaded.
	ErrResourceIndex = errors.New("invalid resource index")
	// ErrNotLoaded means a physical file yielded no serialized files.
	ErrNotLoaded = errors.New("no serialized files found")
)
