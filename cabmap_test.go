package assetmap

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/assetmap/internal/testkit"
)

func TestCABMapRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewCABMap(`C:\Game\Data`)
	m.Add("CAB-b", CABEntry{Path: "data/b.bundle", Offset: 0, Dependencies: []string{"CAB-z", "CAB-a", "CAB-m"}})
	m.Add("CAB-a", CABEntry{Path: "data/a.blk", Offset: 4096, Dependencies: nil})
	m.Add("cab-Ü", CABEntry{Path: "data/ü.blk", Offset: 1 << 40, Dependencies: []string{"CAB-a"}})

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("WriteTo n=%d, want %d", n, buf.Len())
	}

	got, err := ReadCABMap(&buf)
	if err != nil {
		t.Fatalf("ReadCABMap: %v", err)
	}

	if got.BaseFolder != m.BaseFolder {
		t.Fatalf("BaseFolder=%q, want %q", got.BaseFolder, m.BaseFolder)
	}
	if got.Len() != m.Len() {
		t.Fatalf("Len=%d, want %d", got.Len(), m.Len())
	}

	want := m.Entries()
	have := got.Entries()
	for i := range want {
		if have[i].CAB != want[i].CAB || have[i].Path != want[i].Path || have[i].Offset != want[i].Offset {
			t.Fatalf("entry %d=%+v, want %+v", i, have[i], want[i])
		}
		if !slices.Equal(have[i].Dependencies, want[i].Dependencies) {
			t.Fatalf("entry %d deps=%v, want %v", i, have[i].Dependencies, want[i].Dependencies)
		}
	}
}

func TestCABMapLookupMiss(t *testing.T) {
	t.Parallel()

	m := NewCABMap("")
	for _, cab := range []string{"", "CAB-a", "cab-A", "shared.assets"} {
		if entry, ok := m.Lookup(cab); ok {
			t.Fatalf("Lookup(%q)=%+v on empty map", cab, entry)
		}
	}

	m.Add("CAB-a", CABEntry{Path: "a"})
	if _, ok := m.Lookup("cab-A"); !ok {
		t.Fatal("Lookup is not case-insensitive")
	}
	if _, ok := m.Lookup("CAB-b"); ok {
		t.Fatal("Lookup(CAB-b) hit after adding CAB-a")
	}
}

func TestCABMapFirstSeenWins(t *testing.T) {
	t.Parallel()

	m := NewCABMap("")
	if !m.Add("CAB-a", CABEntry{Path: "first"}) {
		t.Fatal("first Add returned false")
	}
	if m.Add("cab-a", CABEntry{Path: "second"}) {
		t.Fatal("duplicate Add returned true")
	}

	entry, _ := m.Lookup("CAB-A")
	if entry.Path != "first" {
		t.Fatalf("Path=%q, want first", entry.Path)
	}
}

func TestReadCABMapCorrupt(t *testing.T) {
	t.Parallel()

	m := NewCABMap("base")
	m.Add("CAB-a", CABEntry{Path: "a", Dependencies: []string{"CAB-b"}})

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	data := buf.Bytes()

	for _, n := range []int{0, 1, 5, len(data) - 1} {
		if _, err := ReadCABMap(bytes.NewReader(data[:n])); !errors.Is(err, ErrCorruptCABMap) {
			t.Fatalf("ReadCABMap(%d bytes) err=%v, want ErrCorruptCABMap", n, err)
		}
	}

	negative := []byte{0x00, 0xff, 0xff, 0xff, 0xff}
	if _, err := ReadCABMap(bytes.NewReader(negative)); !errors.Is(err, ErrCorruptCABMap) {
		t.Fatalf("negative count err=%v, want ErrCorruptCABMap", err)
	}
}

// writeCorpus writes two bundles and returns their paths in build order.
func writeCorpus(t *testing.T, dir string) []string {
	t.Helper()

	a := testkit.Bundle(t, game.Normal,
		testkit.CAB{Name: "CAB-a1", File: testkit.SerializedFile{
			Externals: []string{"archive:/CAB-b1/CAB-b1"},
			Objects:   textFile(map[int64]string{1: "a1"}).Objects,
		}},
		testkit.CAB{Name: "shared.assets", File: textFile(map[int64]string{1: "shared"})},
	)
	b := testkit.Bundle(t, game.Normal,
		testkit.CAB{Name: "CAB-b1", File: textFile(map[int64]string{1: "b1"})},
		testkit.CAB{Name: "shared.assets", File: textFile(map[int64]string{1: "other"})},
	)

	return []string{
		testkit.WriteFile(t, dir, "data/a.bundle", a),
		testkit.WriteFile(t, dir, "data/b.bundle", b),
	}
}

func TestBuildCABMapCollision(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := writeCorpus(t, dir)

	m, stats, err := BuildCABMap(context.Background(), files, dir, CABMapOptions{
		Loader: LoaderOptions{Logger: quietLogger()},
	})
	if err != nil {
		t.Fatalf("BuildCABMap: %v", err)
	}

	if m.Len() != 3 {
		t.Fatalf("Len=%d, want 3", m.Len())
	}
	if stats.Collisions != 1 {
		t.Fatalf("Collisions=%d, want 1", stats.Collisions)
	}
	if stats.Files != 2 || stats.SerializedFiles != 4 {
		t.Fatalf("stats=%+v, want 2 files and 4 serialized files", stats)
	}

	shared, ok := m.Lookup("shared.assets")
	if !ok || shared.Path != "data/a.bundle" {
		t.Fatalf("shared.assets=%+v ok=%v, want data/a.bundle", shared, ok)
	}

	a1, _ := m.Lookup("CAB-a1")
	if !slices.Equal(a1.Dependencies, []string{"CAB-b1"}) {
		t.Fatalf("CAB-a1 deps=%v, want [CAB-b1]", a1.Dependencies)
	}

	if got := m.FindCABs("DATA/A.BUNDLE"); !slices.Equal(got, []string{"CAB-a1", "shared.assets"}) {
		t.Fatalf("FindCABs=%v", got)
	}
}

func TestBuildCABMapIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := writeCorpus(t, dir)

	build := func() []byte {
		m, _, err := BuildCABMap(context.Background(), files, dir, CABMapOptions{
			Loader: LoaderOptions{Logger: quietLogger()},
		})
		if err != nil {
			t.Fatalf("BuildCABMap: %v", err)
		}

		var buf bytes.Buffer
		if _, err := m.WriteTo(&buf); err != nil {
			t.Fatalf("WriteTo: %v", err)
		}

		return buf.Bytes()
	}

	first := build()
	second := build()
	if !bytes.Equal(first, second) {
		t.Fatal("two builds of the same corpus differ")
	}
}

func TestBuildCABMapCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := writeCorpus(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, stats, err := BuildCABMap(ctx, files, dir, CABMapOptions{
		Loader: LoaderOptions{Logger: quietLogger()},
		OnFileDone: func(string, int, int) {
			cancel()
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}

	if stats.Files != 1 || m.Len() != 2 {
		t.Fatalf("files=%d len=%d, want partial map of the first file", stats.Files, m.Len())
	}
	if _, ok := m.Lookup("CAB-b1"); ok {
		t.Fatal("CAB-b1 indexed after cancellation")
	}
}

func TestBuildCABMapSkipsBadFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := writeCorpus(t, dir)
	junk := testkit.WriteFile(t, dir, "junk.bin", []byte("not a container at all"))
	broken := testkit.WriteFile(t, dir, "broken.bundle", []byte("UnityFS\x00\x00\x00\x00\x08"))

	m, stats, err := BuildCABMap(context.Background(), append([]string{junk, broken}, files...), dir, CABMapOptions{
		Loader: LoaderOptions{Logger: quietLogger()},
	})
	if err != nil {
		t.Fatalf("BuildCABMap: %v", err)
	}

	if stats.SkippedFiles != 2 || m.Len() != 3 {
		t.Fatalf("skipped=%d len=%d, want 2 and 3", stats.SkippedFiles, m.Len())
	}
}

func TestBuildCABMapNoInputs(t *testing.T) {
	t.Parallel()

	m, _, err := BuildCABMap(context.Background(), nil, "", CABMapOptions{})
	if !errors.Is(err, ErrNoInputs) {
		t.Fatalf("err=%v, want ErrNoInputs", err)
	}
	if m == nil || m.Len() != 0 {
		t.Fatal("want empty map on ErrNoInputs")
	}
}

func TestRelativePath(t *testing.T) {
	t.Parallel()

	base := filepath.Join("root", "game")
	if got := relativePath(base, filepath.Join(base, "data", "x.blk")); got != "data/x.blk" {
		t.Fatalf("relativePath=%q, want data/x.blk", got)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		t.Fatal(err)
	}
	if got := relativePath(absBase, filepath.Join(base, "data", "x.blk")); got != "data/x.blk" {
		t.Fatalf("relativePath(abs base)=%q, want data/x.blk", got)
	}
}
