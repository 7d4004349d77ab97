// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"path"
	"strings"
)

// NormalizePath converts an entry path to slash-separated form without
// leading "./" or "/" and without "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, `/`)
	return strings.TrimPrefix(p, "./")
}

// hasExt reports whether name ends with ext, ignoring case.
func hasExt(name string, ext string) bool {
	return strings.EqualFold(path.Ext(strings.ReplaceAll(name, `\`, `/`)), ext)
}
