// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package testkit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/assetmap/container"
	"github.com/woozymasta/assetmap/game"
)

// Key is a fixed 16-byte variant key for fixtures.
var Key = bytes.Repeat([]byte{0x5a}, game.KeySize)

// CAB is one named serialized file placed into a container.
type CAB struct {
	Name string
	File SerializedFile
}

// Bundle packs cabs into a UnityFS bundle for variant g.
func Bundle(tb testing.TB, g game.Game, cabs ...CAB) []byte {
	tb.Helper()

	inputs := make([]container.Input, 0, len(cabs))
	for _, cab := range cabs {
		inputs = append(inputs, container.BytesInput(cab.Name, cab.File.Bytes()))
	}

	var buf bytes.Buffer
	if _, err := container.PackBundle(context.Background(), &buf, inputs, container.PackOptions{Game: g}); err != nil {
		tb.Fatalf("PackBundle: %v", err)
	}

	return buf.Bytes()
}

// Mhy0 encodes cabs as an mhy0 container for variant g.
func Mhy0(tb testing.TB, g game.Game, cabs ...CAB) []byte {
	tb.Helper()

	entries := make([]container.Entry, 0, len(cabs))
	for _, cab := range cabs {
		entries = append(entries, container.Entry{Path: cab.Name, Data: cab.File.Bytes()})
	}

	data, err := container.EncodeMhy0(entries, g)
	if err != nil {
		tb.Fatalf("EncodeMhy0: %v", err)
	}

	return data
}

// Blk encrypts concatenated sub-containers as a block-encrypted file.
func Blk(tb testing.TB, g game.Game, parts ...[]byte) []byte {
	tb.Helper()

	data, err := container.EncodeBlk(bytes.Join(parts, nil), bytes.Repeat([]byte{0x11}, 16), g)
	if err != nil {
		tb.Fatalf("EncodeBlk: %v", err)
	}

	return data
}

// WriteFile writes data to dir/rel, creating parents.
func WriteFile(tb testing.TB, dir, rel string, data []byte) string {
	tb.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", rel, err)
	}

	return path
}

// Game returns the named registry variant keyed with Key.
func Game(tb testing.TB, name string) game.Game {
	tb.Helper()

	g, err := game.Lookup(name)
	if err != nil {
		tb.Fatalf("Lookup(%q): %v", name, err)
	}
	if !g.Type.IsKeyed() {
		return g
	}

	g, err = g.WithKey(Key)
	if err != nil {
		tb.Fatalf("WithKey: %v", err)
	}

	return g
}
