package assetmap

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/assetmap/internal/testkit"
	"github.com/woozymasta/assetmap/serialized"
)

func catalogSession(t *testing.T, opts CatalogOptions, files ...testFile) []AssetEntry {
	t.Helper()

	if opts.Loader.Logger == nil {
		opts.Loader.Logger = quietLogger()
	}

	entries, _, err := CatalogSession(context.Background(), newTestSession(t, files...), opts)
	if err != nil {
		t.Fatalf("CatalogSession: %v", err)
	}

	return entries
}

func TestCatalogBinDataNaming(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassIndexObject, Payload: testkit.IndexObject(
			testkit.IndexItem{Key: "1A2B", Asset: testkit.Local(2)},
			testkit.IndexItem{Key: "not-hex", Asset: testkit.Local(3)},
			testkit.IndexItem{Key: "FFFF", Asset: testkit.Local(404)},
		)},
		{PathID: 2, ClassID: testkit.ClassMiHoYoBinData, Payload: testkit.BinData([]byte("blob"))},
		{PathID: 3, ClassID: testkit.ClassMiHoYoBinData, Payload: testkit.BinData([]byte("blob"))},
	}}

	entries := catalogSession(t, CatalogOptions{}, testFile{name: "CAB-bin", source: "bin.blk", file: f})

	hex, ok := entryByPathID(entries, "bin.blk", 2)
	if !ok {
		t.Fatal("bin data 2 missing")
	}
	if hex.Name != "1A2B" || hex.Container != "6699" {
		t.Fatalf("bin data 2 name=%q container=%q, want 1A2B and 6699", hex.Name, hex.Container)
	}

	plain, _ := entryByPathID(entries, "bin.blk", 3)
	if plain.Name != "BinFile #3" || plain.Container != "" {
		t.Fatalf("bin data 3 name=%q container=%q", plain.Name, plain.Container)
	}

	if len(entries) != 3 {
		t.Fatalf("entries=%d, want 3", len(entries))
	}
}

func TestCatalogHighHexKeyWraps(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassIndexObject, Payload: testkit.IndexObject(
			testkit.IndexItem{Key: "FFFFFFFF", Asset: testkit.Local(2)},
		)},
		{PathID: 2, ClassID: testkit.ClassMiHoYoBinData, Payload: testkit.BinData(nil)},
	}}

	entries := catalogSession(t, CatalogOptions{}, testFile{name: "CAB-bin", source: "bin.blk", file: f})
	e, _ := entryByPathID(entries, "bin.blk", 2)
	if e.Container != "-1" {
		t.Fatalf("container=%q, want -1", e.Container)
	}
}

func TestCatalogContainers(t *testing.T) {
	t.Parallel()

	bundle := testkit.SerializedFile{
		Externals: []string{"archive:/CAB-dep/CAB-dep", "archive:/CAB-missing/CAB-missing"},
		Objects: []testkit.Object{
			{PathID: 1, ClassID: testkit.ClassAssetBundle, Payload: testkit.AssetBundle("hero.bundle",
				[]testkit.PPtr{testkit.Local(2), testkit.External(1, 7), testkit.External(2, 1), testkit.Local(999)},
				[]testkit.BundleItem{
					{Name: "assets/hero/sword.txt", PreloadIndex: 0, PreloadSize: 2},
					{Name: "assets/ghost.txt", PreloadIndex: 2, PreloadSize: 2},
				})},
			{PathID: 2, ClassID: testkit.ClassTextAsset, Payload: testkit.Named("sword")},
		},
	}
	dep := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 7, ClassID: testkit.ClassTextAsset, Payload: testkit.Named("sword_data")},
	}}

	entries := catalogSession(t, CatalogOptions{},
		testFile{name: "CAB-main", source: "main.bundle", file: bundle},
		testFile{name: "CAB-dep", source: "dep.bundle", file: dep},
	)

	if got := entryNames(entries); !slices.Equal(got, []string{"hero.bundle", "sword", "sword_data"}) {
		t.Fatalf("names=%v", got)
	}

	for _, e := range entries[1:] {
		if e.Container != "assets/hero/sword.txt" {
			t.Fatalf("%s container=%q, want assets/hero/sword.txt", e.Name, e.Container)
		}
	}
	for _, e := range entries {
		if e.Container == "assets/ghost.txt" {
			t.Fatalf("unresolved reference produced %+v", e)
		}
	}
}

func TestCatalogResourceManager(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassResourceManager, Payload: testkit.ResourceManager(
			testkit.ResourceItem{Name: "ui/logo", Asset: testkit.Local(2)},
			testkit.ResourceItem{Name: "ui/none", Asset: testkit.PPtr{}},
		)},
		{PathID: 2, ClassID: testkit.ClassTexture2D, Payload: testkit.Named("logo")},
	}}

	entries := catalogSession(t, CatalogOptions{}, testFile{name: "globalgamemanagers", source: "ggm", file: f})

	logo, ok := entryByPathID(entries, "ggm", 2)
	if !ok || logo.Container != "ui/logo" || logo.Type != serialized.ClassTexture2D {
		t.Fatalf("logo=%+v ok=%v", logo, ok)
	}

	rm, _ := entryByPathID(entries, "ggm", 1)
	if !strings.HasPrefix(rm.Name, "ResourceManager#") {
		t.Fatalf("resource manager name=%q, want synthetic", rm.Name)
	}
}

func TestCatalogFilter(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassResourceManager, Payload: testkit.ResourceManager(
			testkit.ResourceItem{Name: "Assets/Hero/prop", Asset: testkit.Local(4)},
			testkit.ResourceItem{Name: "Assets/Misc/hero", Asset: testkit.Local(2)},
		)},
		{PathID: 2, ClassID: testkit.ClassTextAsset, Payload: testkit.Named("HeroSword")},
		{PathID: 3, ClassID: testkit.ClassTextAsset, Payload: testkit.Named("Villain")},
		{PathID: 4, ClassID: testkit.ClassTextAsset, Payload: testkit.Named("prop")},
		{PathID: 5, ClassID: testkit.ClassUnknown, Payload: testkit.Raw([]byte("????"))},
	}}
	tf := testFile{name: "CAB-f", source: "f.bundle", file: f}

	all := catalogSession(t, CatalogOptions{}, tf)
	if len(all) != 5 {
		t.Fatalf("unfiltered entries=%d (%v), want 5", len(all), entryNames(all))
	}

	hero := catalogSession(t, CatalogOptions{Filters: []string{"Hero"}}, tf)
	if got := entryNames(hero); !slices.Equal(got, []string{"HeroSword", "prop"}) {
		t.Fatalf("filtered names=%v, want [HeroSword prop]", got)
	}

	sword, _ := entryByPathID(hero, "f.bundle", 2)
	if sword.Container != "Assets/Misc/hero" {
		t.Fatalf("container=%q, want the resolved container of a kept entry", sword.Container)
	}
}

func TestCatalogInvalidFilter(t *testing.T) {
	t.Parallel()

	_, _, err := CatalogSession(context.Background(), serialized.NewSession(), CatalogOptions{Filters: []string{"("}})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("err=%v, want ErrInvalidFilter", err)
	}
}

func TestCatalogMinimalAndPolicy(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassTextAsset, Payload: testkit.Named("text")},
		{PathID: 2, ClassID: testkit.ClassTexture2D, Payload: testkit.Named("tex")},
		{PathID: 3, ClassID: testkit.ClassUnknown, Payload: testkit.Raw([]byte{1, 2, 3, 4})},
		{PathID: 4, ClassID: testkit.ClassTransform, Payload: testkit.Component(testkit.Local(9))},
	}}
	tf := testFile{name: "CAB-p", source: "p", file: f}

	minimal := catalogSession(t, CatalogOptions{Minimal: true}, tf)
	if _, ok := entryByPathID(minimal, "p", 3); ok || len(minimal) != 3 {
		t.Fatalf("minimal entries=%v, want unknown class dropped", entryNames(minimal))
	}

	policy := catalogSession(t, CatalogOptions{Policy: KindPolicy{
		serialized.ClassTexture2D: {Parse: true, Export: false},
		serialized.ClassTextAsset: {Parse: false, Export: true},
	}}, tf)
	if _, ok := entryByPathID(policy, "p", 2); ok {
		t.Fatal("texture exported with Export=false")
	}

	text, ok := entryByPathID(policy, "p", 1)
	if !ok || !strings.HasPrefix(text.Name, "TextAsset#") {
		t.Fatalf("unparsed text asset=%+v, want synthetic name", text)
	}

	unparsed := catalogSession(t, CatalogOptions{Minimal: true, Policy: KindPolicy{
		serialized.ClassTextAsset: {Parse: false, Export: true},
	}}, tf)
	if _, ok := entryByPathID(unparsed, "p", 1); ok {
		t.Fatal("unparsed class kept in minimal mode")
	}
}

func TestCatalogSyntheticNamesAreUnique(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassUnknown, Payload: testkit.Raw(nil)},
		{PathID: 2, ClassID: testkit.ClassUnknown, Payload: testkit.Raw(nil)},
		{PathID: 3, ClassID: testkit.ClassTransform, Payload: testkit.Component(testkit.Local(1))},
	}}

	entries := catalogSession(t, CatalogOptions{}, testFile{name: "CAB-s", source: "s", file: f})
	seen := make(map[string]bool)
	for _, e := range entries {
		if !strings.Contains(e.Name, "#") || seen[e.Name] {
			t.Fatalf("name=%q, want a unique synthetic name", e.Name)
		}
		seen[e.Name] = true
	}

	if entries[2].Name != "Transform#3" {
		t.Fatalf("name=%q, want Transform#3", entries[2].Name)
	}
}

func TestCatalogOwnerNaming(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassGameObject, Payload: testkit.GameObject("HeroRig", testkit.Local(2))},
		{PathID: 2, ClassID: testkit.ClassAnimator, Payload: testkit.Animator(testkit.Local(1))},
		{PathID: 3, ClassID: testkit.ClassMonoScript, Payload: testkit.MonoScript("HeroController", "HeroController", "Game", "Assembly-CSharp.dll")},
		{PathID: 4, ClassID: testkit.ClassMonoBehaviour, Payload: testkit.MonoBehaviour(testkit.Local(1), testkit.Local(3), "")},
		{PathID: 5, ClassID: testkit.ClassMonoBehaviour, Payload: testkit.MonoBehaviour(testkit.Local(1), testkit.Local(3), "Named")},
	}}
	tf := testFile{name: "CAB-o", source: "o", file: f}

	entries := catalogSession(t, CatalogOptions{}, tf)
	for id, want := range map[int64]string{1: "HeroRig", 2: "HeroRig", 4: "HeroController", 5: "Named"} {
		e, ok := entryByPathID(entries, "o", id)
		if !ok || e.Name != want {
			t.Fatalf("path id %d name=%q ok=%v, want %q", id, e.Name, ok, want)
		}
	}

	filtered := catalogSession(t, CatalogOptions{Filters: []string{"^Hero"}}, tf)
	for _, id := range []int64{1, 2, 3, 4} {
		if _, ok := entryByPathID(filtered, "o", id); !ok {
			t.Fatalf("path id %d missing from filtered catalog %v", id, entryNames(filtered))
		}
	}
	if _, ok := entryByPathID(filtered, "o", 5); ok {
		t.Fatal("behaviour Named passed ^Hero")
	}

	noScripts := catalogSession(t, CatalogOptions{Scripts: StaticScripts(false)}, tf)
	for _, id := range []int64{4, 5} {
		if _, ok := entryByPathID(noScripts, "o", id); ok {
			t.Fatalf("behaviour %d exported without script information", id)
		}
	}
}

func TestCatalogDecodeFailure(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassTextAsset, Payload: testkit.Raw([]byte{0xff})},
		{PathID: 2, ClassID: testkit.ClassTextAsset, Payload: testkit.Named("ok")},
	}}

	handler := memory.New()
	s := newTestSession(t, testFile{name: "CAB-bad", source: "bad.bundle", file: f})
	entries, stats, err := CatalogSession(context.Background(), s, CatalogOptions{
		Loader: LoaderOptions{Logger: &log.Logger{Handler: handler, Level: log.DebugLevel}},
	})
	if err != nil {
		t.Fatalf("CatalogSession: %v", err)
	}

	if got := entryNames(entries); !slices.Equal(got, []string{"ok"}) {
		t.Fatalf("names=%v, want [ok]", got)
	}
	if stats.DecodeFailures != 1 {
		t.Fatalf("DecodeFailures=%d, want 1", stats.DecodeFailures)
	}

	var logged *log.Entry
	for _, e := range handler.Entries {
		if e.Level == log.ErrorLevel {
			logged = e
		}
	}
	if logged == nil {
		t.Fatal("decode failure not logged")
	}
	for _, key := range []string{"source", "file", "class", "path_id"} {
		if _, ok := logged.Fields[key]; !ok {
			t.Fatalf("log entry lacks %q: %v", key, logged.Fields)
		}
	}
}

func TestCatalogStreamedSize(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassAudioClip, Payload: testkit.Named("theme")},
		{PathID: 2, ClassID: testkit.ClassTexture2D, Payload: testkit.Named("icon")},
	}}
	s := newTestSession(t, testFile{name: "CAB-stream", source: "stream.bundle", file: f})

	inFile := make(map[int64]int64)
	for _, info := range s.Files()[0].Objects {
		inFile[info.PathID] = int64(info.ByteSize)
	}

	streamed := serialized.DecoderFunc(func(r *serialized.ObjectReader) (serialized.Object, error) {
		obj, err := serialized.BuiltinDecoder{}.Decode(r)
		if err != nil {
			return nil, err
		}
		if clip, ok := obj.(*serialized.StreamedAsset); ok && clip.Name == "theme" {
			clip.StreamPath = "archive:/CAB-stream/CAB-stream.resource"
			clip.StreamSize = 1000
		}
		return obj, nil
	})

	entries, _, err := CatalogSession(context.Background(), s, CatalogOptions{
		Loader: LoaderOptions{Logger: quietLogger(), Decoder: streamed},
	})
	if err != nil {
		t.Fatalf("CatalogSession: %v", err)
	}

	clip, ok := entryByPathID(entries, "stream.bundle", 1)
	if !ok || clip.Size != inFile[1]+1000 {
		t.Fatalf("clip=%+v, want size %d", clip, inFile[1]+1000)
	}
	icon, ok := entryByPathID(entries, "stream.bundle", 2)
	if !ok || icon.Size != inFile[2] {
		t.Fatalf("icon=%+v, want size %d", icon, inFile[2])
	}

	fresh := newTestSession(t, testFile{name: "CAB-stream", source: "stream.bundle", file: f})
	entries, _, err = CatalogSession(context.Background(), fresh, CatalogOptions{
		Loader: LoaderOptions{Logger: quietLogger()},
	})
	if err != nil {
		t.Fatalf("CatalogSession builtin: %v", err)
	}
	if clip, ok := entryByPathID(entries, "stream.bundle", 1); !ok || clip.Size != inFile[1] {
		t.Fatalf("builtin clip=%+v, want size %d", clip, inFile[1])
	}
}

func TestCatalogUpdateContainers(t *testing.T) {
	t.Parallel()

	f := testkit.SerializedFile{Objects: []testkit.Object{
		{PathID: 1, ClassID: testkit.ClassIndexObject, Payload: testkit.IndexObject(
			testkit.IndexItem{Key: "1A2B", Asset: testkit.Local(2)},
			testkit.IndexItem{Key: "0010", Asset: testkit.Local(3)},
		)},
		{PathID: 2, ClassID: testkit.ClassMiHoYoBinData, Payload: testkit.BinData(nil)},
		{PathID: 3, ClassID: testkit.ClassMiHoYoBinData, Payload: testkit.BinData(nil)},
	}}
	tf := testFile{name: "CAB-gi", source: "data/42.blk", file: f}
	resources := MapResourceIndex{
		{Block: 42, Slot: 6699}: "BinOutput/Avatar/hero_table.json",
	}

	entries := catalogSession(t, CatalogOptions{
		Resources: resources,
		Loader:    LoaderOptions{Game: testkit.Game(t, "gi")},
	}, tf)

	e, _ := entryByPathID(entries, "data/42.blk", 2)
	if e.Container != "BinOutput/Avatar/hero_table.json" || e.Name != "hero_table" {
		t.Fatalf("entry=%+v, want resolved container and file name", e)
	}

	miss, _ := entryByPathID(entries, "data/42.blk", 3)
	if miss.Container != "16" || miss.Name != "0010" {
		t.Fatalf("unresolved entry=%+v, want numeric container kept", miss)
	}

	normal := catalogSession(t, CatalogOptions{Resources: resources, Loader: LoaderOptions{Game: game.Normal}}, tf)
	if e, _ := entryByPathID(normal, "data/42.blk", 2); e.Container != "6699" {
		t.Fatalf("normal variant container=%q, want 6699", e.Container)
	}
}

func TestBuildCatalogCorpus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := writeCorpus(t, dir)

	var done []int
	entries, stats, err := BuildCatalog(context.Background(), files, CatalogOptions{
		Loader:     LoaderOptions{Logger: quietLogger()},
		OnFileDone: func(_ string, n int, _ int) { done = append(done, n) },
	})
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}

	if got := entryNames(entries); !slices.Equal(got, []string{"a1", "shared", "b1", "other"}) {
		t.Fatalf("names=%v", got)
	}
	if stats.Assets != 4 || !slices.Equal(done, []int{1, 2}) {
		t.Fatalf("stats=%+v done=%v", stats, done)
	}

	m, both, stats, err := BuildBoth(context.Background(), files, dir, CatalogOptions{
		Loader: LoaderOptions{Logger: quietLogger()},
	})
	if err != nil {
		t.Fatalf("BuildBoth: %v", err)
	}
	if m.Len() != 3 || stats.Collisions != 1 || len(both) != len(entries) {
		t.Fatalf("BuildBoth len=%d collisions=%d entries=%d", m.Len(), stats.Collisions, len(both))
	}
}
