// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SaveOptions configures CAB map persistence.
type SaveOptions struct {
	// BackupKeep controls how many previous map generations are kept.
	// 0 replaces the map in place, 1 keeps `<name>.bin.bak`,
	// N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// CABMapPath returns `<dir>/Maps/<name>.bin`.
func CABMapPath(dir string, name string) (string, error) {
	trimmed, err := checkMapName(name)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, MapsDir, trimmed+CABMapExt), nil
}

// checkMapName trims name and rejects names that are not a single path element.
func checkMapName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMapName, name)
	}

	return trimmed, nil
}

// SaveCABMap writes m to `<dir>/Maps/<name>.bin` through a temporary file
// and a rename, so a failed write never leaves a partial map behind.
// It returns the written path.
func SaveCABMap(dir string, name string, m *CABMap, opts SaveOptions) (string, error) {
	target, err := CABMapPath(dir, name)
	if err != nil {
		return "", err
	}

	err = writeFileAtomic(target, opts.BackupKeep, func(w io.Writer) error {
		_, err := m.WriteTo(w)
		return err
	})
	if err != nil {
		return "", err
	}

	return target, nil
}

// writeFileAtomic creates target through a synced temporary file in the same
// directory, rotating backupKeep previous generations first.
func writeFileAtomic(target string, backupKeep int, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if backupKeep > 0 {
		backupPath := target + ".bak"
		if err := prepareBackupSlot(backupPath, backupKeep); err != nil {
			_ = os.Remove(tmpPath)
			return err
		}

		if err := renameIfExists(target, backupPath); err != nil {
			_ = os.Remove(tmpPath)
			return err
		}
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(target), err)
	}

	return nil
}

// LoadCABMap reads `<dir>/Maps/<name>.bin`.
func LoadCABMap(dir string, name string) (*CABMap, error) {
	target, err := CABMapPath(dir, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := ReadCABMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}

	return m, nil
}

// ListCABMaps returns the names of maps stored under `<dir>/Maps`, sorted.
// A missing directory yields an empty list.
func ListCABMaps(dir string) ([]string, error) {
	items, err := os.ReadDir(filepath.Join(dir, MapsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}

	var names []string
	for _, item := range items {
		name := item.Name()
		if !item.Type().IsRegular() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), CABMapExt) {
			continue
		}

		names = append(names, strings.TrimSuffix(name, filepath.Ext(name)))
	}

	slices.Sort(names)
	return names, nil
}

// prepareBackupSlot rotates existing backup generations before a new save.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep <= 1 {
		return removeIfExists(backupPath)
	}

	oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
	if err := removeIfExists(oldest); err != nil {
		return err
	}

	for i := keep - 2; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", backupPath, i)
		to := fmt.Sprintf("%s.%d", backupPath, i+1)
		if err := renameIfExists(from, to); err != nil {
			return err
		}
	}

	return renameIfExists(backupPath, backupPath+".1")
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("remove %s: %w", path, err)
}
