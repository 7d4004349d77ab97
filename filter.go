// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"fmt"
	"regexp"
	"strings"
)

// catalogFilter holds compiled display text filters.
type catalogFilter struct {
	patterns []*regexp.Regexp
}

// newCatalogFilter compiles patterns and drops empty ones.
func newCatalogFilter(patterns []string) (*catalogFilter, error) {
	f := &catalogFilter{}
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidFilter, pattern, err)
		}

		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// Active reports whether at least one pattern is configured.
func (f *catalogFilter) Active() bool {
	return f != nil && len(f.patterns) > 0
}

// Match reports whether text passes the filter. An inactive filter passes
// everything.
func (f *catalogFilter) Match(text string) bool {
	if !f.Active() {
		return true
	}

	for _, re := range f.patterns {
		if re.MatchString(text) {
			return true
		}
	}

	return false
}
