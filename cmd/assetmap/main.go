// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

// Command assetmap extracts game asset containers and builds CAB maps and
// asset catalogs over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/urfave/cli/v2"
	"github.com/woozymasta/assetmap"
	"github.com/woozymasta/assetmap/container"
	"github.com/woozymasta/assetmap/game"
	"github.com/woozymasta/pathrules"
)

func main() {
	log.SetHandler(clihandler.New(os.Stderr))

	app := &cli.App{
		Name:  "assetmap",
		Usage: "index game asset containers",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log per-file progress"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				log.SetLevel(log.DebugLevel)
			}

			return nil
		},
		Commands: []*cli.Command{
			&cmdExtract,
			&cmdCABMap,
			&cmdAssetMap,
			&cmdBoth,
			&cmdResolve,
			&cmdMaps,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.WithError(err).Error("assetmap failed")
		stop()
		os.Exit(1)
	}
}

var gameFlags = []cli.Flag{
	&cli.StringFlag{Name: "game", Aliases: []string{"g"}, Value: "Normal", Usage: "game variant: " + strings.Join(game.Names(), ", ")},
	&cli.StringFlag{Name: "key", Usage: "hex key for keyed variants"},
}

var mapFlags = []cli.Flag{
	&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "map name (default: game name)"},
	&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Value: ".", Usage: "working directory for maps"},
	&cli.IntFlag{Name: "backup-keep", Usage: "previous generations to keep"},
}

var catalogFlags = []cli.Flag{
	&cli.StringSliceFlag{Name: "filter", Aliases: []string{"f"}, Usage: "regular expression over display text (repeatable)"},
	&cli.StringFlag{Name: "format", Value: "xml", Usage: "catalog format: xml, json or bin"},
	&cli.StringFlag{Name: "codec", Value: "lz4", Usage: "binary catalog codec: none, lz4, zstd or lzss"},
	&cli.BoolFlag{Name: "minimal", Usage: "drop objects of unrecognized classes"},
	&cli.PathFlag{Name: "resource-index", Usage: "JSON asset index for indirect container paths"},
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}

	return out
}

var cmdExtract = cli.Command{
	Name:      "extract",
	Usage:     "Extract container entries to a directory",
	ArgsUsage: "<file|dir>...",
	Flags: flags(gameFlags, []cli.Flag{
		&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Required: true},
		&cli.StringSliceFlag{Name: "include", Usage: "entry path glob (repeatable)"},
		&cli.IntFlag{Name: "workers", Usage: "writer goroutines"},
	}),
	Action: extractFiles,
}

var cmdCABMap = cli.Command{
	Name:      "cabmap",
	Usage:     "Build and save a CAB map",
	ArgsUsage: "<dir>",
	Flags:     flags(gameFlags, mapFlags),
	Action:    buildCABMap,
}

var cmdAssetMap = cli.Command{
	Name:      "assetmap",
	Usage:     "Build and save an asset catalog",
	ArgsUsage: "<dir>",
	Flags:     flags(gameFlags, mapFlags, catalogFlags),
	Action:    buildAssetMap,
}

var cmdBoth = cli.Command{
	Name:      "both",
	Usage:     "Build a CAB map and an asset catalog in one pass",
	ArgsUsage: "<dir>",
	Flags:     flags(gameFlags, mapFlags, catalogFlags),
	Action:    buildBoth,
}

var cmdResolve = cli.Command{
	Name:      "resolve",
	Usage:     "Load files with their dependencies from a saved CAB map and catalog them",
	ArgsUsage: "<file>...",
	Flags: flags(gameFlags, mapFlags, catalogFlags, []cli.Flag{
		&cli.BoolFlag{Name: "plan", Usage: "print the load plan and exit"},
	}),
	Action: resolveFiles,
}

var cmdMaps = cli.Command{
	Name:  "maps",
	Usage: "List saved CAB maps",
	Flags: []cli.Flag{
		&cli.PathFlag{Name: "output", Aliases: []string{"o"}, Value: "."},
	},
	Action: func(c *cli.Context) error {
		names, err := assetmap.ListCABMaps(c.Path("output"))
		if err != nil {
			return err
		}

		for _, name := range names {
			fmt.Println(name)
		}

		return nil
	},
}

func selectGame(c *cli.Context) (game.Game, error) {
	g, err := game.Lookup(c.String("game"))
	if err != nil {
		return g, err
	}

	if key := c.String("key"); key != "" {
		return g.WithKeyHex(key)
	}

	return g, g.Validate()
}

func mapName(c *cli.Context, g game.Game) string {
	if name := c.String("name"); name != "" {
		return name
	}

	return g.Name
}

// inputFiles expands every argument into an ordered file list.
func inputFiles(c *cli.Context) ([]string, error) {
	if c.NArg() == 0 {
		return nil, assetmap.ErrNoInputs
	}

	var files []string
	for _, arg := range c.Args().Slice() {
		expanded, err := assetmap.CollectFiles(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, expanded...)
	}

	return files, nil
}

// baseFolder is the first argument when it is a directory, else its parent.
func baseFolder(c *cli.Context) string {
	first := c.Args().First()
	if info, err := os.Stat(first); err == nil && info.IsDir() {
		return filepath.Clean(first)
	}

	return filepath.Dir(first)
}

func progress(path string, done int, total int) {
	log.WithFields(log.Fields{"file": path, "n": done, "total": total}).Debug("done")
}

func catalogOptions(c *cli.Context, g game.Game) (assetmap.CatalogOptions, error) {
	opts := assetmap.CatalogOptions{
		Filters:    c.StringSlice("filter"),
		Minimal:    c.Bool("minimal"),
		OnFileDone: progress,
		Loader:     assetmap.LoaderOptions{Game: g},
	}

	if path := c.Path("resource-index"); path != "" {
		idx, err := assetmap.LoadResourceIndex(path)
		if err != nil {
			return opts, err
		}
		opts.Resources = idx
	}

	return opts, nil
}

func exportOptions(c *cli.Context) (assetmap.ExportOptions, error) {
	format, err := assetmap.ParseFormat(c.String("format"))
	if err != nil {
		return assetmap.ExportOptions{}, err
	}

	codec, err := assetmap.ParseCodec(c.String("codec"))
	if err != nil {
		return assetmap.ExportOptions{}, err
	}

	return assetmap.ExportOptions{Format: format, Codec: codec, BackupKeep: c.Int("backup-keep")}, nil
}

func saveCABMap(c *cli.Context, g game.Game, m *assetmap.CABMap) error {
	path, err := assetmap.SaveCABMap(c.Path("output"), mapName(c, g), m, assetmap.SaveOptions{BackupKeep: c.Int("backup-keep")})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path, "entries": m.Len()}).Info("CAB map saved")
	return nil
}

func saveCatalog(c *cli.Context, g game.Game, entries []assetmap.AssetEntry) error {
	opts, err := exportOptions(c)
	if err != nil {
		return err
	}

	pending := assetmap.SaveCatalogAsync(c.Context, c.Path("output"), mapName(c, g), assetmap.Catalog{
		Game:    g.Name,
		Entries: entries,
	}, opts)

	path, err := pending.Wait()
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path, "entries": len(entries)}).Info("asset catalog saved")
	return nil
}

func extractFiles(c *cli.Context) error {
	g, err := selectGame(c)
	if err != nil {
		return err
	}

	files, err := inputFiles(c)
	if err != nil {
		return err
	}

	opts := container.ExtractOptions{MaxWorkers: c.Int("workers")}
	for _, pattern := range c.StringSlice("include") {
		opts.Include = append(opts.Include, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: pattern})
	}
	if len(opts.Include) > 0 {
		opts.IncludeMatcherOptions = pathrules.MatcherOptions{CaseInsensitive: true, DefaultAction: pathrules.ActionExclude}
	}

	output := c.Path("output")
	total := 0
	for _, file := range files {
		if err := c.Context.Err(); err != nil {
			return err
		}

		dst := filepath.Join(output, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
		n, err := container.ExtractToDir(c.Context, file, dst, g, opts)
		if err != nil {
			log.WithField("file", file).WithError(err).Warn("skip file")
			continue
		}

		total += n
		log.WithFields(log.Fields{"file": file, "entries": n}).Debug("extracted")
	}

	log.WithField("entries", total).Info("extraction finished")
	return nil
}

func buildCABMap(c *cli.Context) error {
	g, err := selectGame(c)
	if err != nil {
		return err
	}

	files, err := inputFiles(c)
	if err != nil {
		return err
	}

	m, _, err := assetmap.BuildCABMap(c.Context, files, baseFolder(c), assetmap.CABMapOptions{
		OnFileDone: progress,
		Loader:     assetmap.LoaderOptions{Game: g},
	})
	if err != nil {
		return err
	}

	return saveCABMap(c, g, m)
}

func buildAssetMap(c *cli.Context) error {
	g, err := selectGame(c)
	if err != nil {
		return err
	}

	files, err := inputFiles(c)
	if err != nil {
		return err
	}

	opts, err := catalogOptions(c, g)
	if err != nil {
		return err
	}

	entries, _, err := assetmap.BuildCatalog(c.Context, files, opts)
	if err != nil {
		return err
	}

	return saveCatalog(c, g, entries)
}

func buildBoth(c *cli.Context) error {
	g, err := selectGame(c)
	if err != nil {
		return err
	}

	files, err := inputFiles(c)
	if err != nil {
		return err
	}

	opts, err := catalogOptions(c, g)
	if err != nil {
		return err
	}

	m, entries, _, err := assetmap.BuildBoth(c.Context, files, baseFolder(c), opts)
	if err != nil {
		return err
	}

	if err := saveCABMap(c, g, m); err != nil {
		return err
	}

	return saveCatalog(c, g, entries)
}

func resolveFiles(c *cli.Context) error {
	g, err := selectGame(c)
	if err != nil {
		return err
	}

	files, err := inputFiles(c)
	if err != nil {
		return err
	}

	m, err := assetmap.LoadCABMap(c.Path("output"), mapName(c, g))
	if err != nil {
		return err
	}

	plan := m.Resolve(files)
	if c.Bool("plan") {
		for _, file := range plan.Files() {
			if plan.IsFull(file) {
				fmt.Printf("%s\tfull\n", file)
				continue
			}

			for _, offset := range plan.Offsets(file) {
				fmt.Printf("%s\t%d\n", file, offset)
			}
		}

		return nil
	}

	opts, err := catalogOptions(c, g)
	if err != nil {
		return err
	}

	loader, err := assetmap.NewLoader(opts.Loader)
	if err != nil {
		return err
	}

	session, err := loader.LoadPlan(c.Context, plan)
	if err != nil {
		return err
	}

	entries, _, err := assetmap.CatalogSession(c.Context, session, opts)
	if err != nil {
		return err
	}

	return saveCatalog(c, g, entries)
}
