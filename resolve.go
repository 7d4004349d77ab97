// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"path/filepath"
	"slices"
	"strings"
)

// OffsetPlan lists the physical files of a partial load. Input files are
// loaded entirely; dependency files only at the recorded sub-container
// offsets. Files are matched by absolute path, so relative and absolute
// spellings of one file share an entry.
type OffsetPlan struct {
	full    map[string]bool
	offsets map[string][]int64
	order   []string
}

// newOffsetPlan returns an empty plan.
func newOffsetPlan() *OffsetPlan {
	return &OffsetPlan{
		full:    make(map[string]bool),
		offsets: make(map[string][]int64),
	}
}

// FullPlan returns a plan that loads every file entirely.
func FullPlan(files []string) *OffsetPlan {
	p := newOffsetPlan()
	for _, file := range files {
		p.addFull(file)
	}

	return p
}

// Files returns input files first, then dependency files in first-seen order,
// each spelled as first seen.
func (p *OffsetPlan) Files() []string {
	return p.order
}

// IsFull reports whether path is loaded entirely.
func (p *OffsetPlan) IsFull(path string) bool {
	return p.full[absPath(path)]
}

// Offsets returns the sub-container offsets recorded for path, ascending.
func (p *OffsetPlan) Offsets(path string) []int64 {
	return p.offsets[absPath(path)]
}

func (p *OffsetPlan) addFull(path string) {
	key := absPath(path)
	if p.full[key] {
		return
	}

	if _, ok := p.offsets[key]; !ok {
		p.order = append(p.order, filepath.Clean(path))
	}
	p.full[key] = true
	delete(p.offsets, key)
}

func (p *OffsetPlan) addOffset(path string, offset int64) {
	key := absPath(path)
	if p.full[key] {
		return
	}

	list, ok := p.offsets[key]
	if !ok {
		p.order = append(p.order, filepath.Clean(path))
	}

	idx, found := slices.BinarySearch(list, offset)
	if !found {
		list = slices.Insert(list, idx, offset)
	}
	p.offsets[key] = list
}

// Resolve computes the load plan of files. The CAB ids stored in each input
// are found by relative path; their dependency lists are followed
// transitively, and every dependency that lives in a file outside the
// input set is recorded as (file, offset).
func (m *CABMap) Resolve(files []string) *OffsetPlan {
	plan := FullPlan(files)
	byPath := m.cabsByPath()

	for _, file := range files {
		queue := slices.Clone(byPath[pathKey(relativePath(m.BaseFolder, file))])
		seen := make(map[string]bool, len(queue))
		for _, cab := range queue {
			seen[cabKey(cab)] = true
		}

		for i := 0; i < len(queue); i++ {
			entry, ok := m.Lookup(queue[i])
			if !ok {
				continue
			}

			plan.addOffset(m.physicalPath(entry.Path), entry.Offset)

			for _, dep := range entry.Dependencies {
				if key := cabKey(dep); !seen[key] {
					seen[key] = true
					queue = append(queue, dep)
				}
			}
		}
	}

	return plan
}

// physicalPath joins a stored relative path to the base folder.
func (m *CABMap) physicalPath(rel string) string {
	native := filepath.FromSlash(normalizeRel(rel))
	if m.BaseFolder == "" || filepath.IsAbs(native) {
		return native
	}

	return filepath.Join(m.BaseFolder, native)
}

// normalizeRel converts stored relative paths to forward slashes.
func normalizeRel(rel string) string {
	return strings.ReplaceAll(rel, `\`, "/")
}
