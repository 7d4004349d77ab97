// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ResourceIndex resolves a numeric container slot of a block file to a
// container path. An empty result means unknown.
type ResourceIndex interface {
	Container(blockID uint32, slot uint32) string
}

// ResourceKey addresses one slot of one block file.
type ResourceKey struct {
	Block uint32 `json:"block" yaml:"block"`
	Slot  uint32 `json:"slot" yaml:"slot"`
}

// MapResourceIndex is an in-memory ResourceIndex.
type MapResourceIndex map[ResourceKey]string

// Container implements ResourceIndex.
func (m MapResourceIndex) Container(blockID uint32, slot uint32) string {
	return m[ResourceKey{Block: blockID, Slot: slot}]
}

// resourceIndexFile is the JSON layout of an asset index file.
type resourceIndexFile struct {
	Assets []struct {
		Path string `json:"path"`
		ResourceKey
	} `json:"assets"`
}

// ReadResourceIndex decodes a JSON asset index of the form
// {"assets":[{"block":1,"slot":2,"path":"..."}]}.
func ReadResourceIndex(r io.Reader) (MapResourceIndex, error) {
	var doc resourceIndexFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceIndex, err)
	}

	out := make(MapResourceIndex, len(doc.Assets))
	for _, asset := range doc.Assets {
		if asset.Path == "" {
			continue
		}
		out[asset.ResourceKey] = asset.Path
	}

	return out, nil
}

// LoadResourceIndex reads a JSON asset index file.
func LoadResourceIndex(path string) (MapResourceIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceIndex, err)
	}
	defer func() { _ = f.Close() }()

	return ReadResourceIndex(f)
}
