package assetmap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadResourceIndex(t *testing.T) {
	t.Parallel()

	idx, err := ReadResourceIndex(strings.NewReader(`{"assets":[
		{"block": 42, "slot": 6699, "path": "BinOutput/a.json"},
		{"block": 42, "slot": 1, "path": ""},
		{"block": 7, "slot": 1, "path": "Assets/b.prefab"}
	]}`))
	if err != nil {
		t.Fatalf("ReadResourceIndex: %v", err)
	}

	if got := idx.Container(42, 6699); got != "BinOutput/a.json" {
		t.Fatalf("Container(42, 6699)=%q", got)
	}
	if got := idx.Container(42, 1); got != "" {
		t.Fatalf("Container(42, 1)=%q, want empty", got)
	}
	if len(idx) != 2 {
		t.Fatalf("len=%d, want 2", len(idx))
	}
}

func TestLoadResourceIndexErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := LoadResourceIndex(filepath.Join(dir, "none.json")); !errors.Is(err, ErrResourceIndex) {
		t.Fatalf("missing file err=%v, want ErrResourceIndex", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadResourceIndex(bad); !errors.Is(err, ErrResourceIndex) {
		t.Fatalf("bad json err=%v, want ErrResourceIndex", err)
	}
}
