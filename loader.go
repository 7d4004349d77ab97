// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/apex/log"
	"github.com/hashicorp/golang-lru/arc/v2"
	"github.com/woozymasta/assetmap/container"
	"github.com/woozymasta/assetmap/serialized"
	"golang.org/x/exp/mmap"
)

// subKey identifies one cached sub-container load.
type subKey struct {
	path   string
	offset int64
}

// Loader opens physical files, extracts their containers and parses the
// serialized files inside. Sub-container loads are cached by (path, offset).
type Loader struct {
	log   log.Interface
	cache *arc.ARCCache[subKey, []*serialized.File]
	opts  LoaderOptions
}

// NewLoader validates opts and returns a Loader.
func NewLoader(opts LoaderOptions) (*Loader, error) {
	opts.applyDefaults()

	if err := opts.Game.Validate(); err != nil {
		return nil, err
	}

	l := &Loader{opts: opts, log: opts.Logger}
	if opts.CacheSize > 0 {
		cache, err := arc.NewARC[subKey, []*serialized.File](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create loader cache: %w", err)
		}
		l.cache = cache
	}

	return l, nil
}

// Options returns the effective loader options.
func (l *Loader) Options() LoaderOptions {
	return l.opts
}

// LoadFile parses every serialized file found in path. Containers are
// expanded recursively; an unrecognized file is parsed as a serialized file
// itself when it looks like one. A file with no serialized content returns
// an empty result and no error. Full loads are not cached.
func (l *Loader) LoadFile(filePath string) ([]*serialized.File, error) {
	r, err := mmap.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer func() { _ = r.Close() }()

	size := int64(r.Len())
	name := filepath.Base(filePath)

	entries, err := container.Extract(r, size, name, l.opts.Game)
	switch {
	case errors.Is(err, container.ErrUnrecognized):
		entries, err = passThrough(r, size, name)
		if err != nil {
			return nil, err
		}
	case err != nil && len(entries) == 0:
		return nil, fmt.Errorf("extract %s: %w", filePath, err)
	case err != nil:
		l.log.WithField("file", filePath).WithError(err).Warn("container scan stopped early")
	}

	return l.parseEntries(filePath, entries), nil
}

// LoadAt parses the serialized files of the sub-containers of path that
// start at offsets. Failed offsets are logged and skipped.
func (l *Loader) LoadAt(filePath string, offsets []int64) ([]*serialized.File, error) {
	var (
		out     []*serialized.File
		pending []int64
	)

	for _, offset := range offsets {
		if files, ok := l.cacheGet(subKey{path: filePath, offset: offset}); ok {
			out = append(out, files...)
			continue
		}
		pending = append(pending, offset)
	}

	if len(pending) == 0 {
		return out, nil
	}

	r, err := mmap.Open(filePath)
	if err != nil {
		return out, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer func() { _ = r.Close() }()

	size := int64(r.Len())
	name := filepath.Base(filePath)

	for _, offset := range pending {
		entries, err := container.ReadAt(r, size, name, l.opts.Game, offset)
		if err != nil {
			l.log.WithFields(log.Fields{"file": filePath, "offset": offset}).WithError(err).Warn("skip sub-container")
			continue
		}

		files := l.parseEntries(filePath, entries)
		l.cacheAdd(subKey{path: filePath, offset: offset}, files)
		out = append(out, files...)
	}

	return out, nil
}

// LoadPlan builds a session from plan: files marked full are loaded
// entirely, the rest only at their recorded offsets. Per-file failures are
// logged and skipped. Cancellation returns the partial session with ctx.Err().
func (l *Loader) LoadPlan(ctx context.Context, plan *OffsetPlan) (*serialized.Session, error) {
	s := serialized.NewSession()

	for _, filePath := range plan.Files() {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		var (
			files []*serialized.File
			err   error
		)
		if plan.IsFull(filePath) {
			files, err = l.LoadFile(filePath)
		} else {
			files, err = l.LoadAt(filePath, plan.Offsets(filePath))
		}
		if err != nil {
			l.log.WithField("file", filePath).WithError(err).Warn("skip file")
		}

		l.addFiles(s, files)
	}

	return s, nil
}

// addFiles registers files in s, skipping names already present.
func (l *Loader) addFiles(s *serialized.Session, files []*serialized.File) {
	for _, f := range files {
		if _, err := s.AddFile(f); err != nil {
			l.log.WithFields(log.Fields{"file": f.Source, "cab": f.Name}).Debug("serialized file already loaded")
		}
	}
}

// parseEntries parses every entry that looks like a serialized file.
func (l *Loader) parseEntries(filePath string, entries []container.Entry) []*serialized.File {
	files := make([]*serialized.File, 0, len(entries))
	for _, entry := range entries {
		if !serialized.Sniff(entry.Data) {
			continue
		}

		f, err := serialized.Parse(path.Base(entry.Path), entry.Data)
		if err != nil {
			l.log.WithFields(log.Fields{"file": filePath, "entry": entry.Path}).WithError(err).Warn("skip serialized file")
			continue
		}

		f.Source = filePath
		f.Offset = entry.Offset
		files = append(files, f)
	}

	return files
}

// passThrough reads an unrecognized file as a single entry when it holds a
// serialized file.
func passThrough(r *mmap.ReaderAt, size int64, name string) ([]container.Entry, error) {
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if !serialized.Sniff(data) {
		return nil, nil
	}

	return []container.Entry{{Path: name, Data: data}}, nil
}

func (l *Loader) cacheGet(key subKey) ([]*serialized.File, bool) {
	if l.cache == nil {
		return nil, false
	}

	return l.cache.Get(key)
}

func (l *Loader) cacheAdd(key subKey, files []*serialized.File) {
	if l.cache != nil {
		l.cache.Add(key, files)
	}
}
