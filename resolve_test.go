package assetmap

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/assetmap/internal/testkit"
)

// dependencyCorpus writes a.blk (CAB-a -> CAB-d), b.blk (CAB-x at 0, CAB-d
// at L1 -> CAB-e) and c.blk (CAB-e). It returns the paths and L1.
func dependencyCorpus(t *testing.T, dir string, g game.Game) ([]string, int64) {
	t.Helper()

	a := testkit.Bundle(t, game.Normal, testkit.CAB{Name: "CAB-a", File: testkit.SerializedFile{
		Externals: []string{"archive:/CAB-d/CAB-d"},
		Objects:   textFile(map[int64]string{1: "a"}).Objects,
	}})
	x := testkit.Bundle(t, game.Normal, testkit.CAB{Name: "CAB-x", File: textFile(map[int64]string{1: "x"})})
	d := testkit.Bundle(t, game.Normal, testkit.CAB{Name: "CAB-d", File: testkit.SerializedFile{
		Externals: []string{"archive:/CAB-e/CAB-e"},
		Objects:   textFile(map[int64]string{1: "d"}).Objects,
	}})
	e := testkit.Bundle(t, game.Normal, testkit.CAB{Name: "CAB-e", File: textFile(map[int64]string{1: "e"})})

	files := []string{
		testkit.WriteFile(t, dir, "a.blk", testkit.Blk(t, g, a)),
		testkit.WriteFile(t, dir, "b.blk", testkit.Blk(t, g, x, d)),
		testkit.WriteFile(t, dir, "c.blk", testkit.Blk(t, g, e)),
	}

	return files, int64(len(x))
}

func TestResolveOffsets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g := testkit.Game(t, "gi")
	files, l1 := dependencyCorpus(t, dir, g)

	m, _, err := BuildCABMap(context.Background(), files, dir, CABMapOptions{
		Loader: LoaderOptions{Logger: quietLogger(), Game: g},
	})
	if err != nil {
		t.Fatalf("BuildCABMap: %v", err)
	}

	d, ok := m.Lookup("CAB-d")
	if !ok || d.Path != "b.blk" || d.Offset != l1 {
		t.Fatalf("CAB-d=%+v, want b.blk at %d", d, l1)
	}

	plan := m.Resolve(files[:1])
	if !slices.Equal(plan.Files(), files) {
		t.Fatalf("Files=%v, want %v", plan.Files(), files)
	}
	if !plan.IsFull(files[0]) || plan.IsFull(files[1]) || plan.IsFull(files[2]) {
		t.Fatal("only the input file may be loaded entirely")
	}
	if got := plan.Offsets(files[1]); !slices.Equal(got, []int64{l1}) {
		t.Fatalf("Offsets(b)=%v, want [%d]", got, l1)
	}
	if got := plan.Offsets(files[2]); !slices.Equal(got, []int64{0}) {
		t.Fatalf("Offsets(c)=%v, want [0]", got)
	}

	both := m.Resolve(files[:2])
	if !both.IsFull(files[1]) || len(both.Offsets(files[1])) != 0 {
		t.Fatal("input file b recorded by offset")
	}
	if got := both.Offsets(files[2]); !slices.Equal(got, []int64{0}) {
		t.Fatalf("Offsets(c)=%v, want [0]", got)
	}
}

func TestLoadPlan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g := testkit.Game(t, "gi")
	files, _ := dependencyCorpus(t, dir, g)

	m, _, err := BuildCABMap(context.Background(), files, dir, CABMapOptions{
		Loader: LoaderOptions{Logger: quietLogger(), Game: g},
	})
	if err != nil {
		t.Fatalf("BuildCABMap: %v", err)
	}

	loader, err := NewLoader(LoaderOptions{Logger: quietLogger(), Game: g})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	plan := m.Resolve(files[:1])
	for range 2 {
		s, err := loader.LoadPlan(context.Background(), plan)
		if err != nil {
			t.Fatalf("LoadPlan: %v", err)
		}

		for _, cab := range []string{"CAB-a", "CAB-d", "CAB-e"} {
			if _, ok := s.FileIndex(cab); !ok {
				t.Fatalf("%s not loaded", cab)
			}
		}
		if _, ok := s.FileIndex("CAB-x"); ok {
			t.Fatal("CAB-x loaded from a dependency file")
		}

		entries, _, err := CatalogSession(context.Background(), s, CatalogOptions{
			Loader: LoaderOptions{Logger: quietLogger(), Game: g},
		})
		if err != nil {
			t.Fatalf("CatalogSession: %v", err)
		}
		if got := entryNames(entries); !slices.Equal(got, []string{"a", "d", "e"}) {
			t.Fatalf("names=%v, want [a d e]", got)
		}
	}
}

func TestResolveRelativeInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g := testkit.Game(t, "gi")
	files, _ := dependencyCorpus(t, dir, g)

	m, _, err := BuildCABMap(context.Background(), files, dir, CABMapOptions{
		Loader: LoaderOptions{Logger: quietLogger(), Game: g},
	})
	if err != nil {
		t.Fatalf("BuildCABMap: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	inputs := make([]string, 0, 2)
	for _, file := range files[:2] {
		rel, err := filepath.Rel(wd, file)
		if err != nil {
			t.Skipf("no relative path from %s to %s", wd, file)
		}
		inputs = append(inputs, rel)
	}

	plan := m.Resolve(inputs)
	if got := plan.Files(); len(got) != 3 {
		t.Fatalf("Files=%v, want 3 files", got)
	}
	if !plan.IsFull(files[1]) || !plan.IsFull(inputs[1]) {
		t.Fatal("input file b must be loaded entirely under both spellings")
	}
	if got := plan.Offsets(files[1]); len(got) != 0 {
		t.Fatalf("Offsets(b)=%v, want none", got)
	}
	if got := plan.Offsets(files[2]); !slices.Equal(got, []int64{0}) {
		t.Fatalf("Offsets(c)=%v, want [0]", got)
	}
}

func TestResolveUnknownFile(t *testing.T) {
	t.Parallel()

	m := NewCABMap("base")
	plan := m.Resolve([]string{"base/none.blk"})
	if got := plan.Files(); len(got) != 1 {
		t.Fatalf("Files=%v, want the input only", got)
	}
	if len(plan.Offsets("base/none.blk")) != 0 {
		t.Fatal("unexpected offsets for an unknown file")
	}
}

func TestFullPlanDeduplicates(t *testing.T) {
	t.Parallel()

	plan := FullPlan([]string{"a/x.blk", "a/./x.blk", "a/y.blk"})
	if got := plan.Files(); len(got) != 2 {
		t.Fatalf("Files=%v, want 2 unique paths", got)
	}
}
