// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"sort"

	"github.com/TargetedEntropy/change-log-o-matic/internal/manifest"
)

// VersionChange reports a verbatim old/new string pair. No semantic version
// parsing happens here; any textual change is a change.
type VersionChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// LoaderChange carries the full loader lists of both manifests whenever they
// differ in membership or primary flags.
type LoaderChange struct {
	Old []manifest.Loader `json:"old"`
	New []manifest.Loader `json:"new"`
}

// Update pairs the old and new entry for a project whose file changed.
type Update struct {
	Old manifest.Entry `json:"old"`
	New manifest.Entry `json:"new"`
}

// Result partitions the union of both manifests' identities. Every identity
// lands in exactly one of Added, Removed, Updated, Unchanged.
type Result struct {
	MinecraftChange *VersionChange `json:"minecraftChange,omitempty"`
	LoaderChange    *LoaderChange  `json:"loaderChange,omitempty"`

	Added     []manifest.Entry `json:"added"`
	Removed   []manifest.Entry `json:"removed"`
	Updated   []Update         `json:"updated"`
	Unchanged []manifest.Entry `json:"unchanged"`
}

// Diff compares two manifests. Pure function: no I/O, deterministic output
// (buckets sorted by ProjectID).
func Diff(oldM, newM *manifest.Manifest) Result {
	var r Result

	if oldM.MinecraftVersion != newM.MinecraftVersion {
		r.MinecraftChange = &VersionChange{Old: oldM.MinecraftVersion, New: newM.MinecraftVersion}
	}

	if !loadersEqual(oldM.Loaders, newM.Loaders) {
		r.LoaderChange = &LoaderChange{Old: oldM.Loaders, New: newM.Loaders}
	}

	for _, id := range unionKeys(oldM.Entries, newM.Entries) {
		oldE, inOld := oldM.Entries[id]
		newE, inNew := newM.Entries[id]
		switch {
		case !inOld:
			r.Added = append(r.Added, newE)
		case !inNew:
			r.Removed = append(r.Removed, oldE)
		case oldE.FileID != newE.FileID:
			r.Updated = append(r.Updated, Update{Old: oldE, New: newE})
		default:
			r.Unchanged = append(r.Unchanged, oldE)
		}
	}

	return r
}

// unionKeys returns the sorted union of both identity sets.
func unionKeys(a, b map[string]manifest.Entry) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for id := range a {
		seen[id] = struct{}{}
		keys = append(keys, id)
	}
	for id := range b {
		if _, ok := seen[id]; !ok {
			keys = append(keys, id)
		}
	}
	sort.Strings(keys)
	return keys
}

// loadersEqual compares loader lists as sets of (id, primary) pairs; order is
// not significant.
func loadersEqual(a, b []manifest.Loader) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[manifest.Loader]int, len(a))
	for _, l := range a {
		set[l]++
	}
	for _, l := range b {
		set[l]--
		if set[l] < 0 {
			return false
		}
	}
	return true
}
