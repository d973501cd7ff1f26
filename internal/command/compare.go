// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/TargetedEntropy/change-log-o-matic/internal/cache"
	"github.com/TargetedEntropy/change-log-o-matic/internal/cacheutil"
	"github.com/TargetedEntropy/change-log-o-matic/internal/config"
	"github.com/TargetedEntropy/change-log-o-matic/internal/curse"
	"github.com/TargetedEntropy/change-log-o-matic/internal/differ"
	"github.com/TargetedEntropy/change-log-o-matic/internal/enrich"
	"github.com/TargetedEntropy/change-log-o-matic/internal/log"
	"github.com/TargetedEntropy/change-log-o-matic/internal/manifest"
	"github.com/TargetedEntropy/change-log-o-matic/internal/report"
)

// compareCommandAction is the action handler for the root command. It loads
// both archives, diffs them, optionally enriches the diff, and renders the
// changelog.
func compareCommandAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return fmt.Errorf("expected <old.zip> <new.zip>, got %d argument(s)", len(args))
	}
	oldPath, newPath := args[0], args[1]

	oldRaw, err := manifest.ReadArchive(oldPath)
	if err != nil {
		return err
	}
	newRaw, err := manifest.ReadArchive(newPath)
	if err != nil {
		return err
	}
	log.Debugf("manifests extracted: old=%s new=%s",
		humanize.Bytes(uint64(len(oldRaw))), humanize.Bytes(uint64(len(newRaw))))

	// Short circuit --raw-diff mode.
	if cmd.Bool("raw-diff") {
		out, diffErr := differ.RawDiff(oldRaw, newRaw)
		if diffErr != nil {
			return diffErr
		}
		if out == "" {
			fmt.Fprintln(os.Stdout, "The manifests are identical.")
			return nil
		}
		fmt.Fprintln(os.Stdout, out)
		return nil
	}

	oldM, err := manifest.Parse(oldRaw)
	if err != nil {
		return fmt.Errorf("old archive %s: %w", oldPath, err)
	}
	newM, err := manifest.Parse(newRaw)
	if err != nil {
		return fmt.Errorf("new archive %s: %w", newPath, err)
	}

	d := differ.Diff(oldM, newM)
	log.Infof("diffed manifests: added=%d removed=%d updated=%d unchanged=%d",
		len(d.Added), len(d.Removed), len(d.Updated), len(d.Unchanged))

	scrape := cmd.Bool("scrape")
	reg := initRegistry(cmd, scrape)

	opts := enrich.Options{
		Enable:        scrape,
		FetchFileInfo: !cmd.Bool("no-scrape-files"),
		Delay:         cmd.Duration("delay"),
		MaxWorkers:    cmd.Int("max-workers"),
		Cache:         reg,
	}

	res, err := enrich.Enrich(ctx, d, curse.New(), opts)
	if err != nil {
		return err
	}

	if reg.Enabled() {
		s := reg.TotalStats()
		log.Infof("cache statistics: hits=%d misses=%d writes=%d errors=%d",
			s.Hits, s.Misses, s.Writes, s.Errors)
		ms, fs := reg.Mods.Stats(), reg.Files.Stats()
		log.Debugf("cache by namespace: mods hits=%d misses=%d, files hits=%d misses=%d",
			ms.Hits, ms.Misses, fs.Hits, fs.Misses)
		if info, statErr := os.Stat(reg.Root()); statErr == nil {
			log.Debugf("cache directory last written %s", humanize.Time(info.ModTime()))
		}
	}

	doc := report.Build(oldM, newM, res)

	w := os.Stdout
	if outPath := cmd.String("output"); outPath != "" {
		f, createErr := os.Create(outPath)
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}
		defer f.Close()
		w = f
		log.Infof("comparison saved to %s", outPath)
	}

	return report.Render(w, cmd.String("format"), doc)
}

// initRegistry binds the lookup cache per flags, env and config. Any failure
// degrades to a disabled cache; a broken cache never blocks a run.
func initRegistry(cmd *cli.Command, scrape bool) cache.Registry {
	if !scrape || cmd.Bool("no-cache") || !cacheutil.Enabled() {
		return cache.Disabled()
	}

	dir := cmd.String("cache-dir")
	if dir == "" {
		var ok bool
		if dir, ok = cacheutil.Dir(); !ok {
			log.Debug("no cache dir resolvable, caching disabled")
			return cache.Disabled()
		}
	}

	// Age out stale entries first when cache.clean is configured (hours).
	cleanHours, _ := config.GetInt("cache.clean", 0)
	if err := cacheutil.Purge(dir, cleanHours); err != nil {
		log.WithError(err).Warnf("failed to purge cache")
	}

	reg, err := cache.New(dir)
	if err != nil {
		log.WithError(err).Warnf("failed to init cache, continuing without")
		return cache.Disabled()
	}
	log.Infof("using cache directory: %s", dir)
	return reg
}
