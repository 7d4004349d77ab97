package assetmap

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/woozymasta/assetmap/internal/testkit"
)

func TestCollectFilesOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, rel := range []string{"bb/long_name.blk", "b.blk", "a/c.blk", "aa.blk"} {
		testkit.WriteFile(t, dir, rel, []byte("x"))
	}

	files, err := CollectFiles(dir)
	if err != nil {
		t.Fatalf("CollectFiles: %v", err)
	}

	got := make([]string, 0, len(files))
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		got = append(got, filepath.ToSlash(rel))
	}

	want := []string{"b.blk", "aa.blk", "a/c.blk", "bb/long_name.blk"}
	if !slices.Equal(got, want) {
		t.Fatalf("order=%v, want %v", got, want)
	}

	single, err := CollectFiles(files[0])
	if err != nil || len(single) != 1 || !strings.HasSuffix(single[0], "b.blk") {
		t.Fatalf("CollectFiles(file)=%v, %v", single, err)
	}

	if _, err := CollectFiles(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("CollectFiles(missing) succeeded")
	}
}
