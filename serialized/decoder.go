// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

import "fmt"

// Decoder turns an object payload into a typed Object.
type Decoder interface {
	Decode(r *ObjectReader) (Object, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r *ObjectReader) (Object, error)

// Decode calls fn.
func (fn DecoderFunc) Decode(r *ObjectReader) (Object, error) {
	return fn(r)
}

// ObjectReader is a Reader positioned at the start of one object payload.
type ObjectReader struct {
	*Reader
	File  *File
	Info  ObjectInfo
	Index int
}

// ObjectReader returns a reader over one object of f. idx is the session
// index of f, used to build handles.
func (f *File) ObjectReader(idx int, info ObjectInfo) *ObjectReader {
	data, err := f.ObjectData(info)
	r := NewReader(data, f.order)
	if err != nil {
		r.Fail(err)
	}

	return &ObjectReader{Reader: r, File: f, Info: info, Index: idx}
}

// ObjectBase returns the shared fields for the object under the reader.
func (r *ObjectReader) ObjectBase() ObjectBase {
	return ObjectBase{
		Handle: Handle{File: r.Index, PathID: r.Info.PathID},
		Class:  r.Info.ClassID,
		Size:   int64(r.Info.ByteSize),
	}
}

// DecodeError wraps err with the object context of r.
func (r *ObjectReader) DecodeError(err error) *DecodeError {
	return &DecodeError{
		Err:    err,
		Source: r.File.Source,
		File:   r.File.Name,
		Class:  r.Info.ClassID,
		PathID: r.Info.PathID,
	}
}

// BuiltinDecoder decodes the leading fields each variant needs for
// cataloguing. Streamed assets get their name only: stream info sits behind
// class-specific fields that need a type tree to locate.
type BuiltinDecoder struct{}

// Decode implements Decoder. Failures are returned as *DecodeError.
func (BuiltinDecoder) Decode(r *ObjectReader) (Object, error) {
	if err := r.Err(); err != nil {
		return nil, r.DecodeError(err)
	}

	obj := decodeBuiltin(r)
	if err := r.Err(); err != nil {
		return nil, r.DecodeError(err)
	}

	return obj, nil
}

func decodeBuiltin(r *ObjectReader) Object {
	base := r.ObjectBase()

	switch KindOf(r.Info.ClassID) {
	case KindAssetBundle:
		return decodeAssetBundle(r, base)
	case KindResourceManager:
		obj := &ResourceManager{ObjectBase: base}
		n := r.Count(4 + 12)
		obj.Container = make([]ResourceEntry, 0, n)
		for range n {
			name := r.AlignedString()
			obj.Container = append(obj.Container, ResourceEntry{Name: name, Asset: r.ReadPPtr()})
		}

		return obj
	case KindIndexObject:
		obj := &IndexObject{ObjectBase: base}
		obj.Count = r.I32()
		n := r.Count(4 + 12 + 8)
		obj.AssetMap = make([]IndexEntry, 0, n)
		for range n {
			var e IndexEntry
			e.Key = r.AlignedString()
			e.Asset = r.ReadPPtr()
			e.Size = r.U64()
			obj.AssetMap = append(obj.AssetMap, e)
		}

		return obj
	case KindBinData:
		n := r.Count(1)
		return &BinData{ObjectBase: base, Data: r.Bytes(n)}
	case KindStreamedAsset:
		return &StreamedAsset{ObjectBase: base, Name: r.AlignedString()}
	case KindMonoBehaviour:
		obj := &MonoBehaviour{ObjectBase: base}
		obj.GameObject = r.ReadPPtr()
		obj.Enabled = r.Bool()
		r.Align(4)
		obj.Script = r.ReadPPtr()
		obj.Name = r.AlignedString()
		return obj
	case KindMonoScript:
		obj := &MonoScript{ObjectBase: base}
		obj.Name = r.AlignedString()
		r.I32() // execution order
		r.Skip(hashSize)
		obj.ClassName = r.AlignedString()
		obj.Namespace = r.AlignedString()
		obj.AssemblyName = r.AlignedString()
		return obj
	case KindGameObject:
		obj := &GameObject{ObjectBase: base}
		n := r.Count(12)
		obj.Components = make([]PPtr, 0, n)
		for range n {
			obj.Components = append(obj.Components, r.ReadPPtr())
		}
		obj.Layer = r.U32()
		obj.Name = r.AlignedString()
		return obj
	case KindAnimator:
		obj := &Animator{ObjectBase: base}
		obj.GameObject = r.ReadPPtr()
		obj.Enabled = r.Bool()
		r.Align(4)
		return obj
	case KindNamedObject:
		return &NamedObject{ObjectBase: base, Name: r.AlignedString()}
	case KindComponent:
		return &Component{ObjectBase: base, GameObject: r.ReadPPtr()}
	case KindUnrecognized:
		return &Unrecognized{ObjectBase: base}
	default:
		r.Fail(fmt.Errorf("%w: no decoder for kind %s", ErrCorrupt, KindOf(r.Info.ClassID)))
		return nil
	}
}

func decodeAssetBundle(r *ObjectReader, base ObjectBase) *AssetBundle {
	obj := &AssetBundle{ObjectBase: base}
	obj.Name = r.AlignedString()

	n := r.Count(12)
	obj.PreloadTable = make([]PPtr, 0, n)
	for range n {
		obj.PreloadTable = append(obj.PreloadTable, r.ReadPPtr())
	}

	n = r.Count(4 + 8 + 12)
	obj.Container = make([]ContainerItem, 0, n)
	for range n {
		var item ContainerItem
		item.Name = r.AlignedString()
		item.PreloadIndex = r.I32()
		item.PreloadSize = r.I32()
		item.Asset = r.ReadPPtr()
		obj.Container = append(obj.Container, item)
	}

	return obj
}
