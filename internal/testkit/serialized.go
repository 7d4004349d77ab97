// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package testkit

import "encoding/binary"

// Class ids used by fixtures.
const (
	ClassGameObject      int32 = 1
	ClassTransform       int32 = 4
	ClassTexture2D       int32 = 28
	ClassTextAsset       int32 = 49
	ClassAudioClip       int32 = 83
	ClassAnimator        int32 = 95
	ClassMonoBehaviour   int32 = 114
	ClassMonoScript      int32 = 115
	ClassAssetBundle     int32 = 142
	ClassResourceManager int32 = 147
	ClassIndexObject     int32 = 1127
	ClassMiHoYoBinData   int32 = 1128
	ClassUnknown         int32 = 9999
)

// Payload writes one object body.
type Payload func(w *Writer)

// Object is one object table row and its body.
type Object struct {
	Payload Payload
	PathID  int64
	ClassID int32
}

// TypeTree describes a dummy type tree blob attached to every type.
type TypeTree struct {
	Nodes        int
	StringBuffer int
}

// SerializedFile describes a SerializedFile to encode.
type SerializedFile struct {
	TypeTree       *TypeTree
	UnityVersion   string
	Externals      []string
	Objects        []Object
	Version        uint32
	TargetPlatform int32
	BigEndian      bool
}

// Bytes encodes the file. Version defaults to 22.
func (f SerializedFile) Bytes() []byte {
	version := f.Version
	if version == 0 {
		version = 22
	}
	unityVersion := f.UnityVersion
	if unityVersion == "" {
		unityVersion = "2019.4.34f1"
	}

	var order ByteOrder = binary.LittleEndian
	if f.BigEndian {
		order = binary.BigEndian
	}

	headerLen := 20
	if version >= 22 {
		headerLen = 48
	}

	w := NewWriter(order)
	w.Zero(headerLen)
	metaStart := w.Len()

	w.CString(unityVersion)
	w.I32(f.TargetPlatform)
	w.Bool(f.TypeTree != nil)

	var classes []int32
	typeIndex := make(map[int32]int32)
	for _, obj := range f.Objects {
		if _, ok := typeIndex[obj.ClassID]; !ok {
			typeIndex[obj.ClassID] = int32(len(classes))
			classes = append(classes, obj.ClassID)
		}
	}

	w.I32(int32(len(classes)))
	for _, class := range classes {
		w.I32(class)
		w.U8(0)
		w.I16(-1)
		if class == ClassMonoBehaviour {
			w.Zero(16)
		}
		w.Zero(16)
		if f.TypeTree != nil {
			nodeSize := 24
			if version >= 19 {
				nodeSize = 32
			}
			w.I32(int32(f.TypeTree.Nodes))
			w.I32(int32(f.TypeTree.StringBuffer))
			w.Zero(f.TypeTree.Nodes*nodeSize + f.TypeTree.StringBuffer)
			if version >= 21 {
				w.I32(0)
			}
		}
	}

	bodies := make([][]byte, len(f.Objects))
	for i, obj := range f.Objects {
		body := NewWriter(order)
		if obj.Payload != nil {
			obj.Payload(body)
		}
		bodies[i] = body.Data()
	}

	starts := make([]int64, len(f.Objects))
	var pos int64
	for i, body := range bodies {
		pos = (pos + 7) &^ 7
		starts[i] = pos
		pos += int64(len(body))
	}

	w.I32(int32(len(f.Objects)))
	for i, obj := range f.Objects {
		w.Align(4)
		w.I64(obj.PathID)
		if version >= 22 {
			w.I64(starts[i])
		} else {
			w.U32(uint32(starts[i]))
		}
		w.U32(uint32(len(bodies[i])))
		w.I32(typeIndex[obj.ClassID])
	}

	w.I32(0) // scripts

	w.I32(int32(len(f.Externals)))
	for _, ext := range f.Externals {
		w.CString("")
		w.Zero(16)
		w.I32(0)
		w.CString(ext)
	}

	if version >= 20 {
		w.I32(0)
	}
	w.CString("")

	metadataSize := w.Len() - metaStart
	if w.Len() < 4096 {
		w.Zero(4096 - w.Len())
	}
	w.Align(16)
	dataOffset := w.Len()

	for i, body := range bodies {
		w.Zero(dataOffset + int(starts[i]) - w.Len())
		w.Bytes(body)
	}

	out := w.Data()
	h := NewWriter(binary.BigEndian)
	if version >= 22 {
		h.U32(0)
		h.U32(0)
		h.U32(version)
		h.U32(0)
		h.Bool(f.BigEndian)
		h.Zero(3)
		h.U32(uint32(metadataSize))
		h.I64(int64(len(out)))
		h.I64(int64(dataOffset))
		h.Zero(8)
	} else {
		h.U32(uint32(metadataSize))
		h.U32(uint32(len(out)))
		h.U32(version)
		h.U32(uint32(dataOffset))
		h.Bool(f.BigEndian)
		h.Zero(3)
	}
	copy(out, h.Data())

	return out
}

// Named writes a name-leading body.
func Named(name string) Payload {
	return func(w *Writer) { w.AlignedString(name) }
}

// BundleItem is one container entry of an asset bundle.
type BundleItem struct {
	Name         string
	Asset        PPtr
	PreloadIndex int32
	PreloadSize  int32
}

// AssetBundle writes an asset bundle body.
func AssetBundle(name string, preload []PPtr, items []BundleItem) Payload {
	return func(w *Writer) {
		w.AlignedString(name)
		w.I32(int32(len(preload)))
		for _, p := range preload {
			w.PPtr(p)
		}
		w.I32(int32(len(items)))
		for _, item := range items {
			w.AlignedString(item.Name)
			w.I32(item.PreloadIndex)
			w.I32(item.PreloadSize)
			w.PPtr(item.Asset)
		}
	}
}

// ResourceItem is one resource manager entry.
type ResourceItem struct {
	Name  string
	Asset PPtr
}

// ResourceManager writes a resource manager body.
func ResourceManager(items ...ResourceItem) Payload {
	return func(w *Writer) {
		w.I32(int32(len(items)))
		for _, item := range items {
			w.AlignedString(item.Name)
			w.PPtr(item.Asset)
		}
	}
}

// IndexItem is one index object entry.
type IndexItem struct {
	Key   string
	Asset PPtr
	Size  uint64
}

// IndexObject writes an index object body.
func IndexObject(items ...IndexItem) Payload {
	return func(w *Writer) {
		w.I32(int32(len(items)))
		w.I32(int32(len(items)))
		for _, item := range items {
			w.AlignedString(item.Key)
			w.PPtr(item.Asset)
			w.U64(item.Size)
		}
	}
}

// BinData writes a vendor binary blob body.
func BinData(data []byte) Payload {
	return func(w *Writer) {
		w.I32(int32(len(data)))
		w.Bytes(data)
	}
}

// MonoBehaviour writes a script instance body.
func MonoBehaviour(gameObject, script PPtr, name string) Payload {
	return func(w *Writer) {
		w.PPtr(gameObject)
		w.Bool(true)
		w.Align(4)
		w.PPtr(script)
		w.AlignedString(name)
	}
}

// MonoScript writes a script class body.
func MonoScript(name, className, namespace, assembly string) Payload {
	return func(w *Writer) {
		w.AlignedString(name)
		w.I32(0)
		w.Zero(16)
		w.AlignedString(className)
		w.AlignedString(namespace)
		w.AlignedString(assembly)
	}
}

// GameObject writes a game object body.
func GameObject(name string, components ...PPtr) Payload {
	return func(w *Writer) {
		w.I32(int32(len(components)))
		for _, c := range components {
			w.PPtr(c)
		}
		w.U32(0)
		w.AlignedString(name)
	}
}

// Animator writes an animator body.
func Animator(gameObject PPtr) Payload {
	return func(w *Writer) {
		w.PPtr(gameObject)
		w.Bool(true)
		w.Align(4)
	}
}

// Component writes a component body.
func Component(gameObject PPtr) Payload {
	return func(w *Writer) { w.PPtr(gameObject) }
}

// Raw writes data as is.
func Raw(data []byte) Payload {
	return func(w *Writer) { w.Bytes(data) }
}
