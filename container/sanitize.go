// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package container

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// maxSegmentLen limits one output path segment.
const maxSegmentLen = 240

// SanitizePath rewrites an entry path to a filesystem-safe relative path.
// Container entry names such as "archive:/CAB-x/CAB-x.resS" keep their
// structure with unsafe runes replaced by "_".
func SanitizePath(entryPath string) (string, error) {
	parts := strings.Split(strings.ReplaceAll(entryPath, `\`, `/`), "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "." {
			continue
		}

		out = append(out, sanitizeSegment(part))
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, entryPath)
	}

	return strings.Join(out, "/"), nil
}

// sanitizeSegment maps one segment to a name valid on common filesystems.
func sanitizeSegment(segment string) string {
	if segment == ".." {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		if unicode.IsControl(r) || unicode.In(r, unicode.Cf) || r == '\uFFFD' || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	out := strings.TrimRight(b.String(), ". ")
	if out == "" {
		return "_"
	}

	stem := strings.ToLower(out)
	if dot := strings.IndexByte(stem, '.'); dot >= 0 {
		stem = stem[:dot]
	}
	if isReservedDeviceName(stem) {
		out = "_" + out
	}

	return shortenSegment(out, maxSegmentLen)
}

// isReservedDeviceName reports whether stem is a Windows device name.
func isReservedDeviceName(stem string) bool {
	switch stem {
	case "con", "prn", "aux", "nul", "clock$":
		return true
	}

	if len(stem) == 4 && (strings.HasPrefix(stem, "com") || strings.HasPrefix(stem, "lpt")) {
		return stem[3] >= '1' && stem[3] <= '9'
	}

	return false
}

// uniquePaths resolves case-insensitive collisions with "~N" suffixes.
type uniquePaths struct {
	used map[string]struct{}
	next map[string]int
}

func newUniquePaths(capacity int) *uniquePaths {
	return &uniquePaths{
		used: make(map[string]struct{}, capacity),
		next: make(map[string]int, capacity),
	}
}

// claim returns p, or p with a numeric suffix when p is already taken.
func (u *uniquePaths) claim(p string) string {
	key := strings.ToLower(p)
	if _, taken := u.used[key]; !taken {
		u.used[key] = struct{}{}
		return p
	}

	dir, name := path.Split(p)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := max(u.next[key], 2); ; n++ {
		suffix := "~" + strconv.Itoa(n)
		candidate := dir + shortenSegment(base, max(maxSegmentLen-len(ext)-len(suffix), 1)) + suffix + ext
		candidateKey := strings.ToLower(candidate)
		if _, taken := u.used[candidateKey]; taken {
			continue
		}

		u.used[candidateKey] = struct{}{}
		u.next[key] = n + 1
		return candidate
	}
}

// shortenSegment cuts value to maxLen keeping a hash of the full value.
func shortenSegment(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 10 {
		return value[:maxLen]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	hashPart := fmt.Sprintf("~%08x", h.Sum32())
	return value[:maxLen-len(hashPart)] + hashPart
}
