package container

import (
	"bytes"
	"context"
	"testing"

	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/pathrules"
)

var testKey = bytes.Repeat([]byte{0x5a}, game.KeySize)

func includeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	return rules
}

// packTestBundle packs entries (path, data pairs) into a bundle.
func packTestBundle(t *testing.T, opts PackOptions, entries ...Entry) []byte {
	t.Helper()

	inputs := make([]Input, 0, len(entries))
	for _, entry := range entries {
		inputs = append(inputs, BytesInput(entry.Path, entry.Data))
	}

	var buf bytes.Buffer
	res, err := PackBundle(context.Background(), &buf, inputs, opts)
	if err != nil {
		t.Fatalf("PackBundle: %v", err)
	}
	if res.Size != int64(buf.Len()) {
		t.Fatalf("PackResult.Size=%d, want %d", res.Size, buf.Len())
	}

	return buf.Bytes()
}

func compressible(n int) []byte {
	return bytes.Repeat([]byte("serialized object payload "), n/26+1)[:n]
}

func entryByPath(entries []Entry, path string) (Entry, bool) {
	for _, entry := range entries {
		if entry.Path == path {
			return entry, true
		}
	}

	return Entry{}, false
}

func blkGame() game.Game {
	return game.Game{Name: "test_blk", Type: game.TypeBlk, Key: testKey}
}
