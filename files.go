// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"cmp"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// CollectFiles expands input into an ordered list of regular files.
// A file input yields itself. A directory is walked recursively and the
// result is ordered by path length, then by path.
func CollectFiles(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if !info.IsDir() {
		return []string{input}, nil
	}

	var files []string
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", input, err)
	}

	slices.SortFunc(files, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), cmp.Compare(a, b))
	})

	return files, nil
}

// relativePath returns path relative to base with forward slashes.
// Paths outside base are kept as cleaned absolute-or-given paths.
func relativePath(base string, path string) string {
	if base == "" {
		return filepath.ToSlash(filepath.Clean(path))
	}

	if filepath.IsAbs(base) != filepath.IsAbs(path) {
		base, path = absPath(base), absPath(path)
	}

	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}

	return filepath.ToSlash(rel)
}

// absPath returns the absolute form of path, or path cleaned when the working
// directory is unknown.
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return filepath.Clean(path)
}
