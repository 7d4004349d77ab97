// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/woozymasta/assetmap/serialized"
)

// CABMap indexes CAB ids to their physical location and dependencies.
// Lookups are case-insensitive. A map is built by one writer; clearing it
// means constructing a new one.
type CABMap struct {
	entries    map[string]CABMapEntry
	BaseFolder string `json:"base_folder" yaml:"base_folder"`
}

// CABMapEntry is one CAB id with its entry.
type CABMapEntry struct {
	CAB string `json:"cab" yaml:"cab"`
	CABEntry
}

// NewCABMap returns an empty map rooted at baseFolder.
func NewCABMap(baseFolder string) *CABMap {
	return &CABMap{
		BaseFolder: baseFolder,
		entries:    make(map[string]CABMapEntry),
	}
}

// cabKey returns the case-insensitive map key of a CAB id.
func cabKey(cab string) string {
	return strings.ToLower(cab)
}

// Add records entry under cab. The first occurrence wins: a second one is
// dropped and reported as false.
func (m *CABMap) Add(cab string, entry CABEntry) bool {
	key := cabKey(cab)
	if _, ok := m.entries[key]; ok {
		return false
	}

	m.entries[key] = CABMapEntry{CAB: cab, CABEntry: entry}
	return true
}

// Lookup returns the entry of cab.
func (m *CABMap) Lookup(cab string) (CABEntry, bool) {
	e, ok := m.entries[cabKey(cab)]
	return e.CABEntry, ok
}

// Len returns the number of CAB ids.
func (m *CABMap) Len() int {
	return len(m.entries)
}

// Entries returns all entries sorted by CAB id, case-insensitively.
func (m *CABMap) Entries() []CABMapEntry {
	out := make([]CABMapEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b CABMapEntry) int {
		return cmp.Or(cmp.Compare(cabKey(a.CAB), cabKey(b.CAB)), cmp.Compare(a.CAB, b.CAB))
	})

	return out
}

// FindCABs returns the CAB ids stored in the file at relative path rel,
// compared case-insensitively, sorted.
func (m *CABMap) FindCABs(rel string) []string {
	return m.cabsByPath()[pathKey(rel)]
}

// cabsByPath groups sorted CAB ids by their case-folded relative path.
func (m *CABMap) cabsByPath() map[string][]string {
	out := make(map[string][]string)
	for _, e := range m.Entries() {
		key := pathKey(e.Path)
		out[key] = append(out[key], e.CAB)
	}

	return out
}

// pathKey returns the lookup key of a stored relative path.
func pathKey(rel string) string {
	return strings.ToLower(normalizeRel(rel))
}

// BuildCABMap indexes every serialized file found in files. Relative paths
// are computed against baseFolder. Per-file load failures are logged and
// skipped. Cancellation is checked before each serialized file and after
// each top-level file; a cancelled build returns the partial map together
// with ctx.Err().
func BuildCABMap(ctx context.Context, files []string, baseFolder string, opts CABMapOptions) (*CABMap, BuildStats, error) {
	opts.applyDefaults()

	m := NewCABMap(baseFolder)
	if len(files) == 0 {
		return m, BuildStats{}, ErrNoInputs
	}

	loader, err := NewLoader(opts.Loader)
	if err != nil {
		return m, BuildStats{}, err
	}

	b := &indexBuilder{m: m, log: opts.Loader.Logger}
	stats, err := walkCorpus(ctx, loader, files, opts.OnFileDone, b.log, b.visit)
	stats.Collisions = b.collisions

	b.log.WithFields(log.Fields{
		"entries":    m.Len(),
		"collisions": b.collisions,
		"duration":   stats.Duration,
	}).Info("CAB map built")

	return m, stats, err
}

// indexBuilder accumulates CAB map entries over a corpus walk.
type indexBuilder struct {
	m          *CABMap
	log        log.Interface
	collisions int
}

// visit indexes the serialized files of one top-level file.
func (b *indexBuilder) visit(ctx context.Context, filePath string, session *serialized.Session) error {
	rel := relativePath(b.m.BaseFolder, filePath)
	for _, f := range session.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := CABEntry{
			Path:         rel,
			Offset:       f.Offset,
			Dependencies: f.Dependencies(),
		}
		if !b.m.Add(f.Name, entry) {
			b.collisions++
			b.log.WithFields(log.Fields{"cab": f.Name, "file": rel}).Debug("CAB id collision")
		}
	}

	return nil
}

// visitFunc handles the session of one top-level file.
type visitFunc func(ctx context.Context, filePath string, session *serialized.Session) error

// walkCorpus loads each top-level file in order into a fresh session and
// hands it to visit. Files are released before the next
// one is loaded.
func walkCorpus(ctx context.Context, loader *Loader, files []string, onDone func(string, int, int), logger log.Interface, visit visitFunc) (BuildStats, error) {
	started := time.Now()

	var stats BuildStats
	finish := func(err error) (BuildStats, error) {
		stats.Duration = time.Since(started)
		return stats, err
	}

	for i, filePath := range files {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		entry := logger.WithFields(log.Fields{"file": filePath, "n": i + 1, "total": len(files)})

		sfiles, err := loader.LoadFile(filePath)
		switch {
		case err != nil:
			stats.SkippedFiles++
			entry.WithError(err).Warn("skip file")
		case len(sfiles) == 0:
			stats.SkippedFiles++
			entry.Debug("no serialized files found")
		default:
			stats.Files++
			stats.SerializedFiles += len(sfiles)

			session := serialized.NewSession()
			loader.addFiles(session, sfiles)

			if err := visit(ctx, filePath, session); err != nil {
				return finish(err)
			}
			entry.Info("processed")
		}

		if onDone != nil {
			onDone(filePath, i+1, len(files))
		}

		if err := ctx.Err(); err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}
