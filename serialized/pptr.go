// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

import "fmt"

// PPtr is a weak reference to an object. FileID 0 names the owning file,
// FileID n names the external at index n-1 of the owning file.
type PPtr struct {
	FileID int32 `json:"file_id" yaml:"file_id"`
	PathID int64 `json:"path_id" yaml:"path_id"`
}

// IsNull reports whether p references nothing.
func (p PPtr) IsNull() bool {
	return p.PathID == 0
}

// String returns the "fileID:pathID" form.
func (p PPtr) String() string {
	return fmt.Sprintf("%d:%d", p.FileID, p.PathID)
}

// ReadPPtr reads a file id and path id.
func (r *Reader) ReadPPtr() PPtr {
	fileID := r.I32()
	pathID := r.I64()
	return PPtr{FileID: fileID, PathID: pathID}
}

// Handle is the stable arena key of a loaded object: session file index
// and local path id.
type Handle struct {
	File   int   `json:"file" yaml:"file"`
	PathID int64 `json:"path_id" yaml:"path_id"`
}

// String returns the "file/pathID" form.
func (h Handle) String() string {
	return fmt.Sprintf("%d/%d", h.File, h.PathID)
}
