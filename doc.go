// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

/*
Package assetmap indexes game asset corpora. It builds two artifacts over an
ordered list of container files:

  - a CAB map: every serialized file (CAB) id with the physical file, the
    offset of its enclosing sub-container and its dependency ids;
  - an asset catalog: one row per exportable object with display name,
    container path, class, local id, source file and size.

Files are processed one at a time: each is loaded, indexed and released
before the next one. Per-file and per-object failures are logged through
apex/log and skipped; only cancellation stops a build early, and a cancelled
build returns its partial result together with ctx.Err().

# CAB map

Build, persist and reload the map:

	files, err := assetmap.CollectFiles("GenshinImpact_Data/StreamingAssets")
	if err != nil {
	    return err
	}
	m, stats, err := assetmap.BuildCABMap(ctx, files, baseFolder, assetmap.CABMapOptions{
	    Loader: assetmap.LoaderOptions{Game: g},
	})
	if err != nil {
	    return err
	}
	_ = stats.Collisions
	path, err := assetmap.SaveCABMap(workDir, "GI", m, assetmap.SaveOptions{BackupKeep: 1})

The first occurrence of a CAB id wins; later duplicates are counted as
collisions and dropped. Entries are written sorted by id, so two builds of
an unchanged corpus produce identical bytes.

# Partial loads

Resolve computes which dependency sub-containers a set of input files
needs. Inputs are loaded entirely; dependency files only at the recorded
offsets:

	m, err := assetmap.LoadCABMap(workDir, "GI")
	plan := m.Resolve(inputs)
	loader, err := assetmap.NewLoader(assetmap.LoaderOptions{Game: g})
	session, err := loader.LoadPlan(ctx, plan)
	entries, _, err := assetmap.CatalogSession(ctx, session, assetmap.CatalogOptions{})

# Asset catalog

BuildCatalog walks files and classifies every object. References from
bundles, resource managers and index objects are resolved only after all
objects of a file are loaded; unresolved references are dropped silently.
Filters are regular expressions over the display text. An object excluded
by name may still be included once its container path is known, but an
included object is never removed:

	entries, stats, err := assetmap.BuildCatalog(ctx, files, assetmap.CatalogOptions{
	    Filters: []string{"Avatar"},
	    Loader:  assetmap.LoaderOptions{Game: g},
	})

Write the catalog as XML, JSON or compressed CBOR:

	pending := assetmap.SaveCatalogAsync(ctx, workDir, "GI", assetmap.Catalog{
	    Game:    g.Name,
	    Entries: entries,
	}, assetmap.ExportOptions{Format: assetmap.FormatBinary, Codec: assetmap.CodecZstd})
	path, err := pending.Wait()
*/
package assetmap
