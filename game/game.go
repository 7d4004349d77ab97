// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

// Package game describes game variants: the configuration selector that picks
// decryption key schedules and container shapes expected by readers.
package game

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// KeySize is the size of variant keys in bytes.
const KeySize = 16

var (
	// ErrUnknownGame means the variant name is not registered.
	ErrUnknownGame = errors.New("unknown game")
	// ErrMissingKey means a keyed variant has no key configured.
	ErrMissingKey = errors.New("game variant requires a key")
	// ErrInvalidKey means the key is not KeySize bytes of hex.
	ErrInvalidKey = errors.New("invalid game key")
)

// Type selects encoding-specific behavior of container readers.
type Type uint8

// Known variant types.
const (
	// TypeNormal reads plain bundles and web archives only.
	TypeNormal Type = iota
	// TypeMr0k expects mr0k-scrambled bundle blocks.
	TypeMr0k
	// TypeBlk reads block-encrypted archives and the mhy0 containers inside them.
	TypeBlk
	// TypeMhy0 reads bare mhy0 containers.
	TypeMhy0
)

var typeNames = map[Type]string{
	TypeNormal: "normal",
	TypeMr0k:   "mr0k",
	TypeBlk:    "blk",
	TypeMhy0:   "mhy0",
}

// String returns the lowercase type label.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("type(%d)", uint8(t))
}

// IsKeyed reports whether readers need a key for this type.
func (t Type) IsKeyed() bool {
	return t != TypeNormal
}

// IsMhy0Group reports whether mhy0 containers are valid for this type.
func (t Type) IsMhy0Group() bool {
	return t == TypeBlk || t == TypeMhy0
}

// IsGISubGroup reports whether the variant stores container paths indirectly
// as numeric slots resolved through a resource index.
func (t Type) IsGISubGroup() bool {
	return t.IsMhy0Group()
}

// Game is one configured variant.
type Game struct {
	// Name is the registry name.
	Name string `json:"name" yaml:"name"`
	// Type selects reader behavior.
	Type Type `json:"type" yaml:"type"`
	// Key is the active key for keyed types.
	Key []byte `json:"-" yaml:"-"`
}

// Normal is the default unkeyed variant.
var Normal = Game{Name: "Normal", Type: TypeNormal}

var registry = map[string]Game{
	"normal":  Normal,
	"bh3":     {Name: "BH3", Type: TypeMr0k},
	"gi":      {Name: "GI", Type: TypeBlk},
	"gi_pack": {Name: "GI_Pack", Type: TypeBlk},
	"gi_cb1":  {Name: "GI_CB1", Type: TypeMhy0},
	"gi_cb2":  {Name: "GI_CB2", Type: TypeMhy0},
}

// Lookup returns a registered variant by case-insensitive name.
func Lookup(name string) (Game, error) {
	g, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Game{}, fmt.Errorf("%w: %q", ErrUnknownGame, name)
	}

	return g, nil
}

// Names returns registered variant names sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, g := range registry {
		names = append(names, g.Name)
	}

	sort.Strings(names)
	return names
}

// WithKey returns a copy of g using key.
func (g Game) WithKey(key []byte) (Game, error) {
	if len(key) != KeySize {
		return g, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}

	g.Key = append([]byte(nil), key...)
	return g, nil
}

// WithKeyHex returns a copy of g using a hex encoded key.
func (g Game) WithKeyHex(value string) (Game, error) {
	key, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return g, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return g.WithKey(key)
}

// Validate reports whether the variant is usable by readers.
func (g Game) Validate() error {
	if g.Type.IsKeyed() && len(g.Key) != KeySize {
		return fmt.Errorf("%w: %s", ErrMissingKey, g.Name)
	}

	return nil
}

// String returns the variant name.
func (g Game) String() string {
	if g.Name == "" {
		return g.Type.String()
	}

	return g.Name
}
