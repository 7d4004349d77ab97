// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/pathrules"
)

// UnpackedSuffix is appended to the source file name to form its output directory.
const UnpackedSuffix = "_unpacked"

// extractWorkItem is one entry with its prepared output path.
type extractWorkItem struct {
	relPath string
	entry   Entry
}

// ExtractToDir unpacks the container at srcPath into
// dstDir/<file name>_unpacked/. Existing files are never overwritten.
// It returns the number of files written. When the container is only
// partly readable, the readable entries are written and the read error
// is returned alongside the count.
func ExtractToDir(ctx context.Context, srcPath string, dstDir string, g game.Game, opts ExtractOptions) (int, error) {
	opts.applyDefaults()

	f, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", srcPath, err)
	}

	entries, readErr := Extract(f, info.Size(), filepath.Base(srcPath), g)
	if readErr != nil && len(entries) == 0 {
		return 0, readErr
	}

	workItems, err := prepareExtractWorkItems(entries, opts)
	if err != nil {
		return 0, err
	}

	outRoot, err := filepath.Abs(filepath.Join(dstDir, filepath.Base(srcPath)+UnpackedSuffix))
	if err != nil {
		return 0, fmt.Errorf("resolve output dir: %w", err)
	}

	written, err := writeExtractWorkItems(ctx, outRoot, workItems, opts)
	if err != nil {
		return written, err
	}

	return written, readErr
}

// prepareExtractWorkItems filters entries by include rules and assigns output paths.
func prepareExtractWorkItems(entries []Entry, opts ExtractOptions) ([]extractWorkItem, error) {
	var matcher *pathrules.Matcher
	if rules := normalizeRules(opts.Include); len(rules) > 0 {
		m, err := pathrules.NewMatcher(rules, opts.IncludeMatcherOptions)
		if err != nil {
			return nil, fmt.Errorf("%w: compile include rules: %w", ErrInvalidIncludePattern, err)
		}

		matcher = m
	}

	unique := newUniquePaths(len(entries))
	items := make([]extractWorkItem, 0, len(entries))
	for _, entry := range entries {
		if matcher != nil && !matcher.Included(NormalizePath(entry.Path), false) {
			continue
		}

		relPath := NormalizePath(entry.Path)
		if !opts.RawNames {
			sanitized, err := SanitizePath(entry.Path)
			if err != nil {
				return nil, err
			}

			relPath = sanitized
		}
		if relPath == "" || !filepath.IsLocal(filepath.FromSlash(relPath)) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExtractPath, entry.Path)
		}

		items = append(items, extractWorkItem{relPath: unique.claim(relPath), entry: entry})
	}

	return items, nil
}

// writeExtractWorkItems writes items with a bounded worker pool.
func writeExtractWorkItems(ctx context.Context, outRoot string, items []extractWorkItem, opts ExtractOptions) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(min(workers, len(items)), 1)

	taskCh := make(chan extractWorkItem, len(items))
	errCh := make(chan error, len(items))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		written atomic.Int64
	)
	for range workers {
		wg.Go(func() {
			for task := range taskCh {
				ok, err := writeExtractItem(ctx, outRoot, task, opts.OnEntryDone)
				if ok {
					written.Add(1)
				}

				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		})
	}

	for _, task := range items {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return int(written.Load()), ctx.Err()
		case taskCh <- task:
		}
	}

	close(taskCh)
	wg.Wait()
	close(errCh)

	var first error
	for err := range errCh {
		if err != nil && first == nil {
			first = err
		}
	}

	return int(written.Load()), first
}

// writeExtractItem writes one entry unless the output file already exists.
func writeExtractItem(ctx context.Context, outRoot string, task extractWorkItem, onDone func(Entry, int64, string)) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	outPath := filepath.Join(outRoot, filepath.FromSlash(task.relPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return false, fmt.Errorf("create output directory for %s: %w", task.entry.Path, err)
	}

	file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", task.entry.Path, err)
	}

	n, writeErr := file.Write(task.entry.Data)
	closeErr := file.Close()
	if writeErr != nil {
		return false, fmt.Errorf("write %s: %w", task.entry.Path, writeErr)
	}
	if closeErr != nil {
		return false, fmt.Errorf("close %s: %w", task.entry.Path, closeErr)
	}

	if onDone != nil {
		onDone(task.entry, int64(n), outPath)
	}

	return true, nil
}
