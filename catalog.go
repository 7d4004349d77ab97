// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/woozymasta/assetmap/serialized"
)

// BuildCatalog walks files one at a time and returns the asset catalog.
// Per-object decode failures are logged and excluded. A cancelled build
// returns the entries gathered so far together with ctx.Err().
func BuildCatalog(ctx context.Context, files []string, opts CatalogOptions) ([]AssetEntry, BuildStats, error) {
	_, entries, stats, err := buildMaps(ctx, files, "", opts, false)
	return entries, stats, err
}

// BuildBoth builds the CAB map and the asset catalog in one walk.
func BuildBoth(ctx context.Context, files []string, baseFolder string, opts CatalogOptions) (*CABMap, []AssetEntry, BuildStats, error) {
	return buildMaps(ctx, files, baseFolder, opts, true)
}

// CatalogSession catalogs the objects of an already loaded session, such as
// one produced by Loader.LoadPlan. Objects are decoded into s.
func CatalogSession(ctx context.Context, s *serialized.Session, opts CatalogOptions) ([]AssetEntry, BuildStats, error) {
	opts.applyDefaults()

	b, err := newCatalogBuilder(opts)
	if err != nil {
		return nil, BuildStats{}, err
	}

	err = b.visit(ctx, s)
	b.updateContainers()

	stats := BuildStats{SerializedFiles: len(s.Files())}
	return b.finish(&stats), stats, err
}

func buildMaps(ctx context.Context, files []string, baseFolder string, opts CatalogOptions, withIndex bool) (*CABMap, []AssetEntry, BuildStats, error) {
	opts.applyDefaults()

	var index *indexBuilder
	if withIndex {
		index = &indexBuilder{m: NewCABMap(baseFolder), log: opts.Loader.Logger}
	}

	if len(files) == 0 {
		return index.cabMap(), nil, BuildStats{}, ErrNoInputs
	}

	b, err := newCatalogBuilder(opts)
	if err != nil {
		return index.cabMap(), nil, BuildStats{}, err
	}

	loader, err := NewLoader(opts.Loader)
	if err != nil {
		return index.cabMap(), nil, BuildStats{}, err
	}

	stats, err := walkCorpus(ctx, loader, files, opts.OnFileDone, b.log, func(ctx context.Context, filePath string, s *serialized.Session) error {
		if index != nil {
			if err := index.visit(ctx, filePath, s); err != nil {
				return err
			}
		}

		return b.visit(ctx, s)
	})

	b.updateContainers()
	entries := b.finish(&stats)
	if index != nil {
		stats.Collisions = index.collisions
	}

	b.log.WithFields(log.Fields{
		"assets":          stats.Assets,
		"decode_failures": stats.DecodeFailures,
		"duration":        stats.Duration,
	}).Info("asset catalog built")

	return index.cabMap(), entries, stats, err
}

// cabMap returns the built map, nil for a catalog-only build.
func (b *indexBuilder) cabMap() *CABMap {
	if b == nil {
		return nil
	}

	return b.m
}

// catalogItem is one object's catalog row and its inclusion state.
type catalogItem struct {
	entry      AssetEntry
	exportable bool
	included   bool
}

// deferredName is a reference that receives a name or container after the
// arena is populated.
type deferredName struct {
	name string
	ptr  serialized.PPtr
	from int
}

// deferredItem is a reference that names an existing catalog item.
type deferredItem struct {
	item *catalogItem
	ptr  serialized.PPtr
	from int
}

// catalogPass holds the deferred work of one session.
type catalogPass struct {
	session    *serialized.Session
	items      map[serialized.Handle]*catalogItem
	containers []deferredName
	binNames   []deferredName
	behaviours []deferredItem
	animators  []deferredItem
}

// catalogBuilder accumulates catalog entries over sessions.
type catalogBuilder struct {
	log      log.Interface
	filter   *catalogFilter
	included []*catalogItem
	opts     CatalogOptions
	failures int
	seq      int
}

func newCatalogBuilder(opts CatalogOptions) (*catalogBuilder, error) {
	filter, err := newCatalogFilter(opts.Filters)
	if err != nil {
		return nil, err
	}

	return &catalogBuilder{
		opts:   opts,
		log:    opts.Loader.Logger,
		filter: filter,
	}, nil
}

// visit runs pass 1 over every object of s, then the deferred passes.
// Deferred references are resolved only after all objects are in s.
func (b *catalogBuilder) visit(ctx context.Context, s *serialized.Session) error {
	p := &catalogPass{
		session: s,
		items:   make(map[serialized.Handle]*catalogItem),
	}

	for idx, f := range s.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, info := range f.Objects {
			b.classify(p, idx, f, info)
		}
	}

	b.nameFromOwners(p)
	b.nameBinData(p)
	b.resolveContainers(p)
	return nil
}

// classify is pass 1 for one object.
func (b *catalogBuilder) classify(p *catalogPass, idx int, f *serialized.File, info serialized.ObjectInfo) {
	b.seq++

	item := &catalogItem{entry: AssetEntry{
		Source: f.Source,
		PathID: info.PathID,
		Type:   info.ClassID,
		Size:   int64(info.ByteSize),
	}}

	policy := b.opts.Policy.Lookup(info.ClassID)
	r := f.ObjectReader(idx, info)

	var obj serialized.Object
	if policy.Parse && serialized.KindOf(info.ClassID) != serialized.KindUnrecognized {
		var err error
		obj, err = b.opts.Loader.Decoder.Decode(r)
		if err != nil {
			b.failures++
			b.log.WithFields(log.Fields{
				"source":  f.Source,
				"file":    f.Name,
				"class":   info.ClassID.String(),
				"path_id": info.PathID,
			}).WithError(err).Error("unable to load object")
			return
		}
	} else {
		obj = &serialized.Unrecognized{ObjectBase: r.ObjectBase()}
	}

	if !p.session.Put(obj) {
		b.log.WithFields(log.Fields{"file": f.Name, "path_id": info.PathID}).Debug("duplicate object")
		return
	}
	p.items[obj.Base().Handle] = item

	switch o := obj.(type) {
	case *serialized.AssetBundle:
		for _, c := range o.Container {
			for _, ptr := range o.Preload(c) {
				p.containers = append(p.containers, deferredName{from: idx, ptr: ptr, name: c.Name})
			}
		}
		item.entry.Name = o.Name
		item.exportable = policy.Export
	case *serialized.ResourceManager:
		for _, c := range o.Container {
			p.containers = append(p.containers, deferredName{from: idx, ptr: c.Asset, name: c.Name})
		}
		item.exportable = policy.Export
	case *serialized.IndexObject:
		for _, e := range o.AssetMap {
			p.binNames = append(p.binNames, deferredName{from: idx, ptr: e.Asset, name: e.Key})
		}
		item.exportable = policy.Export
	case *serialized.StreamedAsset:
		item.entry.Name = o.Name
		if o.IsStreamed() {
			item.entry.Size += o.StreamSize
		}
		item.exportable = policy.Export
	case *serialized.MonoBehaviour:
		item.entry.Name = o.Name
		if o.Name == "" {
			p.behaviours = append(p.behaviours, deferredItem{from: idx, ptr: o.Script, item: item})
		}
		item.exportable = policy.Export && b.opts.Scripts.Loaded()
	case *serialized.Animator:
		p.animators = append(p.animators, deferredItem{from: idx, ptr: o.GameObject, item: item})
		item.exportable = policy.Export
	case *serialized.BinData, *serialized.MonoScript, *serialized.GameObject,
		*serialized.NamedObject, *serialized.Component:
		item.entry.Name = serialized.NameOf(obj)
		item.exportable = policy.Export
	case *serialized.Unrecognized:
		item.exportable = !b.opts.Minimal
	default:
		b.log.WithField("class", info.ClassID.String()).Warnf("no catalog rule for %T", obj)
	}

	if item.entry.Name == "" {
		item.entry.Name = fmt.Sprintf("%s#%d", info.ClassID, b.seq)
	}

	b.consider(item, item.entry.Name)
}

// consider includes item when it is exportable and text passes the filter.
// Inclusion is never revoked.
func (b *catalogBuilder) consider(item *catalogItem, text string) {
	if item.included || !item.exportable {
		return
	}

	if b.filter.Match(text) {
		item.included = true
		b.included = append(b.included, item)
	}
}

// nameFromOwners names animators after their game object and nameless
// behaviours after their script.
func (b *catalogBuilder) nameFromOwners(p *catalogPass) {
	for _, d := range p.animators {
		obj, ok := p.session.Lookup(d.from, d.ptr)
		if !ok {
			continue
		}

		if gameObject, ok := obj.(*serialized.GameObject); ok && gameObject.Name != "" {
			d.item.entry.Name = gameObject.Name
			b.consider(d.item, gameObject.Name)
		}
	}

	for _, d := range p.behaviours {
		obj, ok := p.session.Lookup(d.from, d.ptr)
		if !ok {
			continue
		}

		script, ok := obj.(*serialized.MonoScript)
		if !ok {
			continue
		}

		name := cmp.Or(script.Name, script.ClassName)
		if name != "" {
			d.item.entry.Name = name
			b.consider(d.item, name)
		}
	}
}

// nameBinData names binary data objects from index keys: a hex key becomes
// the name and its decimal value the container. With an active filter the
// new name is matched like a resolved container.
func (b *catalogBuilder) nameBinData(p *catalogPass) {
	for _, d := range p.binNames {
		h, ok := p.session.Resolve(d.from, d.ptr)
		if !ok {
			continue
		}

		obj, _ := p.session.Object(h)
		if _, ok := obj.(*serialized.BinData); !ok {
			continue
		}

		item, ok := p.items[h]
		if !ok {
			continue
		}

		if value, err := strconv.ParseUint(strings.TrimSpace(d.name), 16, 32); err == nil {
			item.entry.Name = d.name
			item.entry.Container = strconv.FormatInt(int64(int32(value)), 10)
		} else {
			item.entry.Name = fmt.Sprintf("BinFile #%d", item.entry.PathID)
		}

		if b.filter.Active() {
			b.consider(item, item.entry.Name)
		}
	}
}

// resolveContainers assigns container paths. With an active filter an
// object excluded in pass 1 is added when its container matches.
func (b *catalogBuilder) resolveContainers(p *catalogPass) {
	for _, d := range p.containers {
		h, ok := p.session.Resolve(d.from, d.ptr)
		if !ok {
			continue
		}

		item, ok := p.items[h]
		if !ok {
			continue
		}

		item.entry.Container = d.name
		if b.filter.Active() {
			b.consider(item, d.name)
		}
	}
}

// updateContainers replaces numeric containers with paths from the resource
// index for variants that store containers indirectly. The block id is the
// numeric source file name.
func (b *catalogBuilder) updateContainers() {
	if !b.opts.Loader.Game.Type.IsGISubGroup() || b.opts.Resources == nil || len(b.included) == 0 {
		return
	}

	b.log.Info("updating containers")
	for _, item := range b.included {
		value, err := strconv.ParseInt(item.entry.Container, 10, 32)
		if err != nil {
			continue
		}

		base := filepath.Base(item.entry.Source)
		blockID, err := strconv.ParseUint(strings.TrimSuffix(base, filepath.Ext(base)), 10, 32)
		if err != nil {
			continue
		}

		resolved := b.opts.Resources.Container(uint32(blockID), uint32(int32(value)))
		if resolved == "" {
			continue
		}

		item.entry.Container = resolved
		if item.entry.Type == serialized.ClassMiHoYoBinData {
			name := path.Base(normalizeRel(resolved))
			item.entry.Name = strings.TrimSuffix(name, path.Ext(name))
		}
	}
}

// finish copies included entries in inclusion order.
func (b *catalogBuilder) finish(stats *BuildStats) []AssetEntry {
	out := make([]AssetEntry, 0, len(b.included))
	for _, item := range b.included {
		out = append(out, item.entry)
	}

	stats.Assets = len(out)
	stats.DecodeFailures = b.failures
	return out
}
