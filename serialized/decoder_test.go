package serialized

import (
	"errors"
	"testing"

	"github.com/woozymasta/assetmap/internal/testkit"
)

func parseFixture(t *testing.T, name string, f testkit.SerializedFile) *File {
	t.Helper()

	file, err := Parse(name, f.Bytes())
	if err != nil {
		t.Fatalf("Parse(%s): %v", name, err)
	}

	return file
}

func decodeAll(t *testing.T, f *File) []Object {
	t.Helper()

	out := make([]Object, 0, len(f.Objects))
	for _, info := range f.Objects {
		obj, err := BuiltinDecoder{}.Decode(f.ObjectReader(0, info))
		if err != nil {
			t.Fatalf("Decode %d: %v", info.PathID, err)
		}
		out = append(out, obj)
	}

	return out
}

func TestBuiltinDecoderVariants(t *testing.T) {
	t.Parallel()

	f := parseFixture(t, "CAB-main", testkit.SerializedFile{
		Objects: []testkit.Object{
			{PathID: 1, ClassID: testkit.ClassAssetBundle, Payload: testkit.AssetBundle("hero.ab",
				[]testkit.PPtr{testkit.Local(2), testkit.Local(3), testkit.External(1, 5)},
				[]testkit.BundleItem{{Name: "assets/hero.prefab", PreloadIndex: 0, PreloadSize: 2, Asset: testkit.Local(2)}},
			)},
			{PathID: 2, ClassID: testkit.ClassResourceManager, Payload: testkit.ResourceManager(
				testkit.ResourceItem{Name: "ui/title", Asset: testkit.Local(3)},
			)},
			{PathID: 3, ClassID: testkit.ClassIndexObject, Payload: testkit.IndexObject(
				testkit.IndexItem{Key: "1A2B", Asset: testkit.Local(4), Size: 99},
			)},
			{PathID: 4, ClassID: testkit.ClassMiHoYoBinData, Payload: testkit.BinData([]byte{1, 2, 3})},
			{PathID: 5, ClassID: testkit.ClassMonoBehaviour, Payload: testkit.MonoBehaviour(testkit.Local(7), testkit.Local(6), "")},
			{PathID: 6, ClassID: testkit.ClassMonoScript, Payload: testkit.MonoScript("HeroController", "HeroController", "Game", "Assembly-CSharp.dll")},
			{PathID: 7, ClassID: testkit.ClassGameObject, Payload: testkit.GameObject("Hero", testkit.Local(8))},
			{PathID: 8, ClassID: testkit.ClassAnimator, Payload: testkit.Animator(testkit.Local(7))},
			{PathID: 9, ClassID: testkit.ClassTexture2D, Payload: testkit.Named("hero_diffuse")},
			{PathID: 10, ClassID: testkit.ClassTransform, Payload: testkit.Component(testkit.Local(7))},
			{PathID: 11, ClassID: testkit.ClassUnknown, Payload: testkit.Raw([]byte{0xff})},
		},
	})

	objs := decodeAll(t, f)

	bundle, ok := objs[0].(*AssetBundle)
	if !ok {
		t.Fatalf("object 0 is %T, want *AssetBundle", objs[0])
	}
	if bundle.Name != "hero.ab" || len(bundle.PreloadTable) != 3 || len(bundle.Container) != 1 {
		t.Fatalf("bundle=%+v", bundle)
	}
	if got := bundle.Preload(bundle.Container[0]); len(got) != 2 || got[1].PathID != 3 {
		t.Fatalf("preload slice=%v", got)
	}
	if got := bundle.Preload(ContainerItem{PreloadIndex: 2, PreloadSize: 10}); len(got) != 1 || got[0].FileID != 1 {
		t.Fatalf("clipped preload slice=%v", got)
	}

	rm := objs[1].(*ResourceManager)
	if len(rm.Container) != 1 || rm.Container[0].Name != "ui/title" || rm.Container[0].Asset.PathID != 3 {
		t.Fatalf("resource manager=%+v", rm)
	}

	index := objs[2].(*IndexObject)
	if index.Count != 1 || index.AssetMap[0].Key != "1A2B" || index.AssetMap[0].Size != 99 {
		t.Fatalf("index=%+v", index)
	}

	if bin := objs[3].(*BinData); len(bin.Data) != 3 {
		t.Fatalf("bin data=%v", bin.Data)
	}

	mb := objs[4].(*MonoBehaviour)
	if mb.Name != "" || !mb.Enabled || mb.Script.PathID != 6 || mb.GameObject.PathID != 7 {
		t.Fatalf("behaviour=%+v", mb)
	}

	script := objs[5].(*MonoScript)
	if script.ClassName != "HeroController" || script.Namespace != "Game" || script.AssemblyName != "Assembly-CSharp.dll" {
		t.Fatalf("script=%+v", script)
	}

	gameObject := objs[6].(*GameObject)
	if gameObject.Name != "Hero" || len(gameObject.Components) != 1 {
		t.Fatalf("game object=%+v", gameObject)
	}

	if animator := objs[7].(*Animator); animator.GameObject.PathID != 7 {
		t.Fatalf("animator=%+v", animator)
	}
	if tex := objs[8].(*StreamedAsset); tex.Name != "hero_diffuse" || tex.IsStreamed() {
		t.Fatalf("texture=%+v", tex)
	}
	if comp := objs[9].(*Component); comp.GameObject.PathID != 7 {
		t.Fatalf("component=%+v", comp)
	}
	if _, ok := objs[10].(*Unrecognized); !ok {
		t.Fatalf("object 10 is %T, want *Unrecognized", objs[10])
	}
	if objs[10].Base().Size != 1 || objs[10].Base().Handle != (Handle{PathID: 11}) {
		t.Fatalf("base=%+v", objs[10].Base())
	}
}

// Every class decodes into the variant its kind names.
func TestBuiltinDecoderCoversKinds(t *testing.T) {
	t.Parallel()

	classes := append(KnownClasses(), ClassID(4242))
	objects := make([]testkit.Object, 0, len(classes))
	for i, class := range classes {
		objects = append(objects, testkit.Object{
			PathID:  int64(i + 1),
			ClassID: int32(class),
			Payload: testkit.Raw(make([]byte, 64)),
		})
	}

	f := parseFixture(t, "CAB-kinds", testkit.SerializedFile{Objects: objects})
	for i, obj := range decodeAll(t, f) {
		class := classes[i]

		var got Kind
		switch obj.(type) {
		case *AssetBundle:
			got = KindAssetBundle
		case *ResourceManager:
			got = KindResourceManager
		case *IndexObject:
			got = KindIndexObject
		case *BinData:
			got = KindBinData
		case *StreamedAsset:
			got = KindStreamedAsset
		case *MonoBehaviour:
			got = KindMonoBehaviour
		case *MonoScript:
			got = KindMonoScript
		case *GameObject:
			got = KindGameObject
		case *Animator:
			got = KindAnimator
		case *NamedObject:
			got = KindNamedObject
		case *Component:
			got = KindComponent
		case *Unrecognized:
			got = KindUnrecognized
		default:
			t.Fatalf("%s decoded to unexpected %T", class, obj)
		}

		if want := KindOf(class); got != want {
			t.Fatalf("%s decoded as %s, want %s", class, got, want)
		}
		if obj.Base().Class != class {
			t.Fatalf("class=%s, want %s", obj.Base().Class, class)
		}
	}
}

func TestBuiltinDecoderTruncated(t *testing.T) {
	t.Parallel()

	f := parseFixture(t, "CAB-bad", testkit.SerializedFile{
		Objects: []testkit.Object{
			{PathID: 3, ClassID: testkit.ClassAssetBundle, Payload: testkit.Raw([]byte{0xff, 0xff, 0, 0})},
		},
	})
	f.Source = "data/bad.bundle"

	_, err := BuiltinDecoder{}.Decode(f.ObjectReader(0, f.Objects[0]))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err=%v, want *DecodeError", err)
	}
	if decodeErr.Class != ClassAssetBundle || decodeErr.Source != "data/bad.bundle" || decodeErr.PathID != 3 {
		t.Fatalf("decode error=%+v", decodeErr)
	}
	if !errors.Is(err, ErrCorrupt) && !errors.Is(err, ErrTruncated) {
		t.Fatalf("err=%v, want corrupt or truncated", err)
	}
}

func TestDecoderFunc(t *testing.T) {
	t.Parallel()

	f := parseFixture(t, "CAB-stream", testkit.SerializedFile{
		Objects: []testkit.Object{{PathID: 1, ClassID: testkit.ClassAudioClip, Payload: testkit.Named("theme")}},
	})

	dec := DecoderFunc(func(r *ObjectReader) (Object, error) {
		obj, err := BuiltinDecoder{}.Decode(r)
		if err != nil {
			return nil, err
		}
		if clip, ok := obj.(*StreamedAsset); ok {
			clip.StreamPath = "archive:/CAB-stream/CAB-stream.resource"
			clip.StreamSize = 4096
		}
		return obj, nil
	})

	obj, err := dec.Decode(f.ObjectReader(0, f.Objects[0]))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if clip := obj.(*StreamedAsset); !clip.IsStreamed() || clip.Name != "theme" {
		t.Fatalf("clip=%+v", clip)
	}
}
