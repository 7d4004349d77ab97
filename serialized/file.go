// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

import (
	"encoding/binary"
	"fmt"
	"path"
	"strings"
)

// Format versions that change the metadata layout.
const (
	MinVersion                = 17
	versionTypeTreeNodeFlags  = 19
	versionRefObjects         = 20
	versionTypeDependencies   = 21
	versionLargeFiles         = 22
	headerSize                = 20
	largeHeaderSize           = 48
	typeTreeNodeSize          = 24
	typeTreeNodeWithFlagsSize = 32
	hashSize                  = 16
)

// Header is the fixed SerializedFile header. Multi-byte fields are big-endian.
type Header struct {
	MetadataSize int64  `json:"metadata_size" yaml:"metadata_size"`
	FileSize     int64  `json:"file_size" yaml:"file_size"`
	DataOffset   int64  `json:"data_offset" yaml:"data_offset"`
	Version      uint32 `json:"version" yaml:"version"`
	BigEndian    bool   `json:"big_endian" yaml:"big_endian"`
}

// SerializedType is one entry of the type table.
type SerializedType struct {
	KlassName       string         `json:"klass_name,omitempty" yaml:"klass_name,omitempty"`
	NameSpace       string         `json:"name_space,omitempty" yaml:"name_space,omitempty"`
	AsmName         string         `json:"asm_name,omitempty" yaml:"asm_name,omitempty"`
	Dependencies    []int32        `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	ScriptID        [hashSize]byte `json:"-" yaml:"-"`
	OldTypeHash     [hashSize]byte `json:"-" yaml:"-"`
	ClassID         ClassID        `json:"class_id" yaml:"class_id"`
	ScriptTypeIndex int16          `json:"script_type_index" yaml:"script_type_index"`
	Stripped        bool           `json:"stripped,omitempty" yaml:"stripped,omitempty"`
	HasTypeTree     bool           `json:"has_type_tree,omitempty" yaml:"has_type_tree,omitempty"`
}

// ObjectInfo is one row of the object table.
type ObjectInfo struct {
	PathID    int64   `json:"path_id" yaml:"path_id"`
	ByteStart int64   `json:"byte_start" yaml:"byte_start"`
	ByteSize  uint32  `json:"byte_size" yaml:"byte_size"`
	TypeID    int32   `json:"type_id" yaml:"type_id"`
	ClassID   ClassID `json:"class_id" yaml:"class_id"`
}

// ScriptRef is one script type reference.
type ScriptRef struct {
	FileIndex int32 `json:"file_index" yaml:"file_index"`
	PathID    int64 `json:"path_id" yaml:"path_id"`
}

// External is a dependency on another serialized file.
type External struct {
	GUID     [hashSize]byte `json:"-" yaml:"-"`
	PathName string         `json:"path_name" yaml:"path_name"`
	// FileName is the last path segment of PathName: the dependency CAB id.
	FileName string `json:"file_name" yaml:"file_name"`
	Type     int32  `json:"type" yaml:"type"`
}

// File is one parsed SerializedFile.
type File struct {
	order binary.ByteOrder
	data  []byte

	// Name is the entry name inside its container: the CAB id.
	Name string `json:"name" yaml:"name"`
	// Source is the physical file the entry came from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Offset is the start of the enclosing sub-container in Source.
	Offset int64 `json:"offset" yaml:"offset"`

	UnityVersion    string           `json:"unity_version" yaml:"unity_version"`
	UserInformation string           `json:"user_information,omitempty" yaml:"user_information,omitempty"`
	Types           []SerializedType `json:"types" yaml:"types"`
	Objects         []ObjectInfo     `json:"objects" yaml:"objects"`
	Scripts         []ScriptRef      `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Externals       []External       `json:"externals,omitempty" yaml:"externals,omitempty"`
	RefTypes        []SerializedType `json:"ref_types,omitempty" yaml:"ref_types,omitempty"`
	Header          Header           `json:"header" yaml:"header"`
	TargetPlatform  int32            `json:"target_platform" yaml:"target_platform"`
	EnableTypeTree  bool             `json:"enable_type_tree" yaml:"enable_type_tree"`
}

// Sniff reports whether data starts with a plausible SerializedFile header.
func Sniff(data []byte) bool {
	_, err := parseHeader(data)
	return err == nil
}

// Parse reads the header and metadata of a SerializedFile. name is the
// entry name (CAB id). The file keeps a reference to data for object decoding.
func Parse(name string, data []byte) (*File, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if hdr.Version < MinVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}

	f := &File{Name: name, Header: hdr, data: data, order: binary.LittleEndian}
	if hdr.BigEndian {
		f.order = binary.BigEndian
	}

	r := NewReader(data, f.order)
	r.Skip(headerSize)
	if hdr.Version >= versionLargeFiles {
		r.Skip(largeHeaderSize - headerSize)
	}

	f.readMetadata(r)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: metadata: %w", name, err)
	}

	for i := range f.Objects {
		info := &f.Objects[i]
		if info.TypeID < 0 || int(info.TypeID) >= len(f.Types) {
			return nil, fmt.Errorf("%w: %s object %d has type index %d of %d", ErrCorrupt, name, info.PathID, info.TypeID, len(f.Types))
		}

		info.ClassID = f.Types[info.TypeID].ClassID
	}

	return f, nil
}

// parseHeader decodes and validates the fixed header against len(data).
func parseHeader(data []byte) (Header, error) {
	var hdr Header
	if len(data) < headerSize {
		return hdr, ErrNotSerializedFile
	}

	r := NewReader(data, binary.BigEndian)
	hdr.MetadataSize = int64(r.U32())
	hdr.FileSize = int64(r.U32())
	hdr.Version = r.U32()
	hdr.DataOffset = int64(r.U32())
	hdr.BigEndian = r.U8() != 0
	r.Skip(3)

	if hdr.Version >= versionLargeFiles {
		if len(data) < largeHeaderSize {
			return hdr, ErrNotSerializedFile
		}

		hdr.MetadataSize = int64(r.U32())
		hdr.FileSize = r.I64()
		hdr.DataOffset = r.I64()
		r.Skip(8)
	}

	if r.Err() != nil || hdr.FileSize != int64(len(data)) || hdr.DataOffset > hdr.FileSize || hdr.Version == 0 || hdr.Version > 100 {
		return hdr, ErrNotSerializedFile
	}

	return hdr, nil
}

// readMetadata decodes everything between the header and the object data.
func (f *File) readMetadata(r *Reader) {
	v := f.Header.Version

	f.UnityVersion = r.CString()
	f.TargetPlatform = r.I32()
	f.EnableTypeTree = r.Bool()

	typeCount := r.Count(4 + 1 + 2 + hashSize)
	f.Types = make([]SerializedType, 0, typeCount)
	for range typeCount {
		f.Types = append(f.Types, f.readType(r, false))
	}

	objectCount := r.Count(8 + 4 + 4 + 4)
	f.Objects = make([]ObjectInfo, 0, objectCount)
	for range objectCount {
		var info ObjectInfo
		r.Align(4)
		info.PathID = r.I64()
		if v >= versionLargeFiles {
			info.ByteStart = r.I64()
		} else {
			info.ByteStart = int64(r.U32())
		}
		info.ByteStart += f.Header.DataOffset
		info.ByteSize = r.U32()
		info.TypeID = r.I32()
		f.Objects = append(f.Objects, info)
	}

	scriptCount := r.Count(4 + 8)
	f.Scripts = make([]ScriptRef, 0, scriptCount)
	for range scriptCount {
		var ref ScriptRef
		ref.FileIndex = r.I32()
		r.Align(4)
		ref.PathID = r.I64()
		f.Scripts = append(f.Scripts, ref)
	}

	externalCount := r.Count(1 + hashSize + 4 + 1)
	f.Externals = make([]External, 0, externalCount)
	for range externalCount {
		var ext External
		r.CString()
		copy(ext.GUID[:], r.Bytes(hashSize))
		ext.Type = r.I32()
		ext.PathName = r.CString()
		ext.FileName = externalFileName(ext.PathName)
		f.Externals = append(f.Externals, ext)
	}

	if v >= versionRefObjects {
		refCount := r.Count(4 + 1 + 2 + hashSize)
		f.RefTypes = make([]SerializedType, 0, refCount)
		for range refCount {
			f.RefTypes = append(f.RefTypes, f.readType(r, true))
		}
	}

	f.UserInformation = r.CString()
}

// readType decodes one type table entry. Type tree blobs are skipped.
func (f *File) readType(r *Reader, isRef bool) SerializedType {
	v := f.Header.Version

	var t SerializedType
	t.ClassID = ClassID(r.I32())
	t.Stripped = r.Bool()
	t.ScriptTypeIndex = r.I16()
	if (isRef && t.ScriptTypeIndex >= 0) || t.ClassID == ClassMonoBehaviour {
		copy(t.ScriptID[:], r.Bytes(hashSize))
	}
	copy(t.OldTypeHash[:], r.Bytes(hashSize))

	if !f.EnableTypeTree {
		return t
	}

	t.HasTypeTree = true
	nodeCount := r.Count(0)
	stringBufferSize := r.Count(0)
	nodeSize := typeTreeNodeSize
	if v >= versionTypeTreeNodeFlags {
		nodeSize = typeTreeNodeWithFlagsSize
	}
	if nodeCount > r.Remaining()/nodeSize {
		r.Fail(fmt.Errorf("%w: type tree of %d nodes", ErrCorrupt, nodeCount))
		return t
	}
	r.Skip(nodeCount*nodeSize + stringBufferSize)

	if v >= versionTypeDependencies {
		if isRef {
			t.KlassName = r.CString()
			t.NameSpace = r.CString()
			t.AsmName = r.CString()
		} else {
			depCount := r.Count(4)
			t.Dependencies = make([]int32, 0, depCount)
			for range depCount {
				t.Dependencies = append(t.Dependencies, r.I32())
			}
		}
	}

	return t
}

// externalFileName returns the last segment of an external path name.
func externalFileName(pathName string) string {
	return path.Base(strings.ReplaceAll(pathName, `\`, `/`))
}

// Data returns the raw file bytes.
func (f *File) Data() []byte {
	return f.data
}

// Order returns the byte order of metadata and objects.
func (f *File) Order() binary.ByteOrder {
	return f.order
}

// ObjectData returns the payload of one object.
func (f *File) ObjectData(info ObjectInfo) ([]byte, error) {
	end := info.ByteStart + int64(info.ByteSize)
	if info.ByteStart < 0 || end > int64(len(f.data)) {
		return nil, fmt.Errorf("%w: path id %d [%d,+%d) in %d bytes", ErrObjectRange, info.PathID, info.ByteStart, info.ByteSize, len(f.data))
	}

	return f.data[info.ByteStart:end:end], nil
}

// Dependencies returns the CAB ids of externals in table order.
func (f *File) Dependencies() []string {
	out := make([]string, 0, len(f.Externals))
	for _, ext := range f.Externals {
		out = append(out, ext.FileName)
	}

	return out
}
