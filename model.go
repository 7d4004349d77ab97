// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"time"

	"github.com/apex/log"
	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/assetmap/serialized"
)

// Persistence layout and defaults.
const (
	// MapsDir is the subdirectory that holds persisted CAB maps.
	MapsDir = "Maps"
	// CABMapExt is the CAB map file extension.
	CABMapExt = ".bin"
	// DefaultCacheSize is the number of parsed sub-containers kept by a Loader.
	DefaultCacheSize = 64
)

// CABEntry is the location and dependency list of one CAB.
type CABEntry struct {
	// Path is the physical file path relative to the map base folder.
	Path string `json:"path" yaml:"path"`
	// Dependencies are the CAB ids referenced by this CAB, in external table order.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	// Offset is the start of the enclosing sub-container in the physical file.
	Offset int64 `json:"offset" yaml:"offset"`
}

// AssetEntry is one row of the asset catalog.
type AssetEntry struct {
	// Name is the display name.
	Name string `json:"Name" yaml:"name"`
	// Container is the resolved container path, empty when unresolved.
	Container string `json:"Container" yaml:"container"`
	// Source is the physical file the object was loaded from.
	Source string `json:"Source" yaml:"source"`
	// PathID is the local object id.
	PathID int64 `json:"PathID" yaml:"path_id"`
	// Size is the payload size in bytes, including streamed data.
	Size int64 `json:"Size" yaml:"size"`
	// Type is the object class.
	Type serialized.ClassID `json:"Type" yaml:"type"`
}

// LoaderOptions configures how physical files are opened and parsed.
type LoaderOptions struct {
	// Logger receives per-file progress and failures. Default is log.Log.
	Logger log.Interface `json:"-" yaml:"-"`
	// Decoder decodes object payloads. Default is serialized.BuiltinDecoder,
	// which does not read external stream info; catalog sizes include
	// streamed payloads only with a type-tree aware decoder.
	Decoder serialized.Decoder `json:"-" yaml:"-"`
	// Game selects container and keyed transform behavior.
	Game game.Game `json:"game" yaml:"game"`
	// CacheSize bounds parsed sub-containers kept across loads.
	// Negative disables the cache; zero means DefaultCacheSize.
	CacheSize int `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
}

// CABMapOptions configures BuildCABMap.
type CABMapOptions struct {
	// OnFileDone is called after each top-level file is indexed.
	OnFileDone func(path string, done int, total int) `json:"-" yaml:"-"`
	// Loader configures file access.
	Loader LoaderOptions `json:"loader,omitzero" yaml:"loader,omitzero"`
}

// BuildStats reports counters of one index or catalog build.
type BuildStats struct {
	// Files is the number of top-level files that yielded serialized files.
	Files int `json:"files" yaml:"files"`
	// SkippedFiles is the number of top-level files without serialized files
	// or that failed to load.
	SkippedFiles int `json:"skipped_files,omitempty" yaml:"skipped_files,omitempty"`
	// SerializedFiles is the number of serialized files visited.
	SerializedFiles int `json:"serialized_files" yaml:"serialized_files"`
	// Collisions is the number of CAB ids seen more than once.
	Collisions int `json:"collisions,omitempty" yaml:"collisions,omitempty"`
	// Assets is the number of catalog entries produced.
	Assets int `json:"assets,omitempty" yaml:"assets,omitempty"`
	// DecodeFailures is the number of objects excluded after a decode error.
	DecodeFailures int `json:"decode_failures,omitempty" yaml:"decode_failures,omitempty"`
	// Duration is the wall time of the build.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ClassPolicy holds the per-class catalog switches.
type ClassPolicy struct {
	// Parse enables the typed decoder for the class. Classes that are not
	// parsed are handled like unrecognized ones.
	Parse bool `json:"parse" yaml:"parse"`
	// Export includes parsed objects of the class in the catalog.
	Export bool `json:"export" yaml:"export"`
}

// KindPolicy maps classes to their catalog switches.
// Classes absent from the map are parsed and exported.
type KindPolicy map[serialized.ClassID]ClassPolicy

// Lookup returns the policy of class.
func (p KindPolicy) Lookup(class serialized.ClassID) ClassPolicy {
	if policy, ok := p[class]; ok {
		return policy
	}

	return ClassPolicy{Parse: true, Export: true}
}

// ScriptResolver reports whether script type information is available.
// Behaviours are catalogued only while it reports loaded.
type ScriptResolver interface {
	Loaded() bool
}

// StaticScripts is a ScriptResolver with a fixed answer.
type StaticScripts bool

// Loaded implements ScriptResolver.
func (s StaticScripts) Loaded() bool {
	return bool(s)
}

// CatalogOptions configures the asset catalog builder.
type CatalogOptions struct {
	// Scripts gates behaviour export. Default is StaticScripts(true).
	Scripts ScriptResolver `json:"-" yaml:"-"`
	// Resources resolves numeric containers for variants that store them
	// indirectly. Nil skips that step.
	Resources ResourceIndex `json:"-" yaml:"-"`
	// OnFileDone is called after each top-level file is catalogued.
	OnFileDone func(path string, done int, total int) `json:"-" yaml:"-"`
	// Policy holds per-class parse and export switches.
	Policy KindPolicy `json:"policy,omitempty" yaml:"policy,omitempty"`
	// Filters are regular expressions matched against display text.
	// Empty means every exportable object is kept.
	Filters []string `json:"filters,omitempty" yaml:"filters,omitempty"`
	// Loader configures file access. Set Loader.Decoder to a type-tree
	// decoder to count streamed payloads in sizes.
	Loader LoaderOptions `json:"loader,omitzero" yaml:"loader,omitzero"`
	// Minimal drops objects of unrecognized classes.
	Minimal bool `json:"minimal,omitempty" yaml:"minimal,omitempty"`
}

// applyDefaults fills zero-valued loader options with defaults.
func (opts *LoaderOptions) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = log.Log
	}

	if opts.Decoder == nil {
		opts.Decoder = serialized.BuiltinDecoder{}
	}

	if opts.CacheSize == 0 {
		opts.CacheSize = DefaultCacheSize
	}

	if opts.Game.Name == "" && opts.Game.Type == game.TypeNormal {
		opts.Game = game.Normal
	}
}

// applyDefaults fills zero-valued CAB map options with defaults.
func (opts *CABMapOptions) applyDefaults() {
	opts.Loader.applyDefaults()
}

// applyDefaults fills zero-valued catalog options with defaults.
func (opts *CatalogOptions) applyDefaults() {
	opts.Loader.applyDefaults()

	if opts.Scripts == nil {
		opts.Scripts = StaticScripts(true)
	}
}
