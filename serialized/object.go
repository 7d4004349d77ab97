// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

// Kind is the cataloguing category of a class.
type Kind uint8

const (
	// KindUnrecognized covers classes without a typed variant.
	KindUnrecognized Kind = iota
	KindAssetBundle
	KindResourceManager
	KindIndexObject
	KindBinData
	// KindStreamedAsset covers classes that may keep their payload in a
	// separate resource stream.
	KindStreamedAsset
	KindMonoBehaviour
	KindMonoScript
	KindGameObject
	KindAnimator
	// KindNamedObject covers classes whose leading field is a name.
	KindNamedObject
	// KindComponent covers classes whose leading field is the owning game object.
	KindComponent
)

var kindLabels = [...]string{
	KindUnrecognized:    "unrecognized",
	KindAssetBundle:     "asset_bundle",
	KindResourceManager: "resource_manager",
	KindIndexObject:     "index_object",
	KindBinData:         "bin_data",
	KindStreamedAsset:   "streamed_asset",
	KindMonoBehaviour:   "mono_behaviour",
	KindMonoScript:      "mono_script",
	KindGameObject:      "game_object",
	KindAnimator:        "animator",
	KindNamedObject:     "named_object",
	KindComponent:       "component",
}

// String returns the kind label.
func (k Kind) String() string {
	if int(k) < len(kindLabels) {
		return kindLabels[k]
	}

	return kindLabels[KindUnrecognized]
}

// KindOf returns the variant category of a class id.
func KindOf(class ClassID) Kind {
	switch class {
	case ClassAssetBundle:
		return KindAssetBundle
	case ClassResourceManager:
		return KindResourceManager
	case ClassIndexObject:
		return KindIndexObject
	case ClassMiHoYoBinData:
		return KindBinData
	case ClassTexture2D, ClassAudioClip, ClassVideoClip:
		return KindStreamedAsset
	case ClassMonoBehaviour:
		return KindMonoBehaviour
	case ClassMonoScript:
		return KindMonoScript
	case ClassGameObject:
		return KindGameObject
	case ClassAnimator:
		return KindAnimator
	case ClassMaterial, ClassTexture, ClassMesh, ClassShader, ClassTextAsset,
		ClassAnimationClip, ClassAvatar, ClassAnimatorController, ClassFont,
		ClassMovieTexture, ClassSprite, ClassAnimatorOverrideController, ClassSpriteAtlas:
		return KindNamedObject
	case ClassTransform, ClassRectTransform, ClassMeshRenderer, ClassMeshFilter,
		ClassSkinnedMeshRenderer, ClassAnimation:
		return KindComponent
	default:
		return KindUnrecognized
	}
}

// Object is one decoded object. The set of implementations is closed:
// every variant embeds ObjectBase.
type Object interface {
	Base() *ObjectBase
	sealed()
}

// ObjectBase carries the fields shared by every variant.
type ObjectBase struct {
	Handle Handle  `json:"handle" yaml:"handle"`
	Class  ClassID `json:"class" yaml:"class"`
	// Size is the in-file payload size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// Base returns the shared fields.
func (b *ObjectBase) Base() *ObjectBase {
	return b
}

func (b *ObjectBase) sealed() {}

// ContainerItem is one named entry of an asset bundle container.
type ContainerItem struct {
	Name         string `json:"name" yaml:"name"`
	Asset        PPtr   `json:"asset" yaml:"asset"`
	PreloadIndex int32  `json:"preload_index" yaml:"preload_index"`
	PreloadSize  int32  `json:"preload_size" yaml:"preload_size"`
}

// AssetBundle lists the container paths of a bundle.
type AssetBundle struct {
	ObjectBase
	Name         string          `json:"name" yaml:"name"`
	PreloadTable []PPtr          `json:"preload_table" yaml:"preload_table"`
	Container    []ContainerItem `json:"container" yaml:"container"`
}

// Preload returns the preload table slice of one container item.
// Out of range bounds are clipped.
func (b *AssetBundle) Preload(item ContainerItem) []PPtr {
	start := max(int(item.PreloadIndex), 0)
	end := min(start+max(int(item.PreloadSize), 0), len(b.PreloadTable))
	if start >= end {
		return nil
	}

	return b.PreloadTable[start:end]
}

// ResourceEntry is one named resource.
type ResourceEntry struct {
	Name  string `json:"name" yaml:"name"`
	Asset PPtr   `json:"asset" yaml:"asset"`
}

// ResourceManager lists the resource paths of a player build.
type ResourceManager struct {
	ObjectBase
	Container []ResourceEntry `json:"container" yaml:"container"`
}

// IndexEntry is one keyed entry of an index object.
type IndexEntry struct {
	Key   string `json:"key" yaml:"key"`
	Asset PPtr   `json:"asset" yaml:"asset"`
	Size  uint64 `json:"size" yaml:"size"`
}

// IndexObject maps hex keys to binary data objects.
type IndexObject struct {
	ObjectBase
	AssetMap []IndexEntry `json:"asset_map" yaml:"asset_map"`
	Count    int32        `json:"count" yaml:"count"`
}

// BinData is an opaque vendor binary blob, named through an index object.
type BinData struct {
	ObjectBase
	Data []byte `json:"-" yaml:"-"`
}

// StreamedAsset is a texture, audio or video clip whose payload may live in
// a separate resource stream.
type StreamedAsset struct {
	ObjectBase
	Name       string `json:"name" yaml:"name"`
	StreamPath string `json:"stream_path,omitempty" yaml:"stream_path,omitempty"`
	StreamSize int64  `json:"stream_size,omitempty" yaml:"stream_size,omitempty"`
}

// IsStreamed reports whether the payload lives outside the file.
func (a *StreamedAsset) IsStreamed() bool {
	return a.StreamPath != "" && a.StreamSize > 0
}

// MonoBehaviour is a script instance.
type MonoBehaviour struct {
	ObjectBase
	Name       string `json:"name" yaml:"name"`
	GameObject PPtr   `json:"game_object" yaml:"game_object"`
	Script     PPtr   `json:"script" yaml:"script"`
	Enabled    bool   `json:"enabled" yaml:"enabled"`
}

// MonoScript describes a script class.
type MonoScript struct {
	ObjectBase
	Name         string `json:"name" yaml:"name"`
	ClassName    string `json:"class_name" yaml:"class_name"`
	Namespace    string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	AssemblyName string `json:"assembly_name" yaml:"assembly_name"`
}

// GameObject owns a list of components.
type GameObject struct {
	ObjectBase
	Name       string `json:"name" yaml:"name"`
	Components []PPtr `json:"components" yaml:"components"`
	Layer      uint32 `json:"layer" yaml:"layer"`
}

// Animator is named after its game object.
type Animator struct {
	ObjectBase
	GameObject PPtr `json:"game_object" yaml:"game_object"`
	Enabled    bool `json:"enabled" yaml:"enabled"`
}

// NamedObject is any class whose leading field is its name.
type NamedObject struct {
	ObjectBase
	Name string `json:"name" yaml:"name"`
}

// Component is any class whose leading field is its game object.
type Component struct {
	ObjectBase
	GameObject PPtr `json:"game_object" yaml:"game_object"`
}

// Unrecognized is an object without a typed variant.
type Unrecognized struct {
	ObjectBase
}

// NameOf returns the own name of an object, empty for unnamed variants.
func NameOf(obj Object) string {
	switch o := obj.(type) {
	case *AssetBundle:
		return o.Name
	case *StreamedAsset:
		return o.Name
	case *MonoBehaviour:
		return o.Name
	case *MonoScript:
		return o.Name
	case *GameObject:
		return o.Name
	case *NamedObject:
		return o.Name
	default:
		return ""
	}
}
