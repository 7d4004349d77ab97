// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

import (
	"fmt"
	"iter"
	"strings"
)

// Session is the arena of files and objects of one load. Objects are
// addressed by Handle; a fresh Session replaces clearing an old one.
type Session struct {
	byName  map[string]int
	objects map[Handle]Object
	files   []*File
	order   []Handle
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{
		byName:  make(map[string]int),
		objects: make(map[Handle]Object),
	}
}

// AddFile registers f and returns its session index.
// Names are unique case-insensitively.
func (s *Session) AddFile(f *File) (int, error) {
	key := strings.ToLower(f.Name)
	if idx, ok := s.byName[key]; ok {
		return idx, fmt.Errorf("%w: %s", ErrDuplicateFile, f.Name)
	}

	idx := len(s.files)
	s.files = append(s.files, f)
	s.byName[key] = idx
	return idx, nil
}

// Files returns the registered files in registration order.
func (s *Session) Files() []*File {
	return s.files
}

// File returns the file at idx.
func (s *Session) File(idx int) (*File, bool) {
	if idx < 0 || idx >= len(s.files) {
		return nil, false
	}

	return s.files[idx], true
}

// FileIndex looks a file up by name, case-insensitively.
func (s *Session) FileIndex(name string) (int, bool) {
	idx, ok := s.byName[strings.ToLower(name)]
	return idx, ok
}

// Put stores obj under its handle. A second object with the same handle
// replaces nothing and is reported as false.
func (s *Session) Put(obj Object) bool {
	h := obj.Base().Handle
	if _, ok := s.objects[h]; ok {
		return false
	}

	s.objects[h] = obj
	s.order = append(s.order, h)
	return true
}

// Object returns the object stored under h.
func (s *Session) Object(h Handle) (Object, bool) {
	obj, ok := s.objects[h]
	return obj, ok
}

// Objects yields stored objects in insertion order.
func (s *Session) Objects() iter.Seq[Object] {
	return func(yield func(Object) bool) {
		for _, h := range s.order {
			if !yield(s.objects[h]) {
				return
			}
		}
	}
}

// Len returns the number of stored objects.
func (s *Session) Len() int {
	return len(s.order)
}

// Resolve maps a reference made from file index from to a loaded object
// handle. A miss is expected when the target was not loaded.
func (s *Session) Resolve(from int, p PPtr) (Handle, bool) {
	if p.IsNull() || p.FileID < 0 {
		return Handle{}, false
	}

	target := from
	if p.FileID > 0 {
		f, ok := s.File(from)
		if !ok || int(p.FileID) > len(f.Externals) {
			return Handle{}, false
		}

		if target, ok = s.FileIndex(f.Externals[p.FileID-1].FileName); !ok {
			return Handle{}, false
		}
	}

	h := Handle{File: target, PathID: p.PathID}
	if _, ok := s.objects[h]; !ok {
		return Handle{}, false
	}

	return h, true
}

// Lookup resolves p and returns the referenced object.
func (s *Session) Lookup(from int, p PPtr) (Object, bool) {
	h, ok := s.Resolve(from, p)
	if !ok {
		return nil, false
	}

	return s.objects[h], true
}
