// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TargetedEntropy/change-log-o-matic/internal/manifest"
)

func mkManifest(mc string, loaders []manifest.Loader, entries ...manifest.Entry) *manifest.Manifest {
	m := &manifest.Manifest{
		MinecraftVersion: mc,
		Loaders:          loaders,
		Entries:          make(map[string]manifest.Entry),
	}
	for _, e := range entries {
		m.Entries[e.ProjectID] = e
	}
	return m
}

// TestDiff_Scenario runs the canonical upgrade scenario: platform bump,
// loader bump, one addition, one update.
func TestDiff_Scenario(t *testing.T) {
	oldM := mkManifest("1.18.2",
		[]manifest.Loader{{ID: "forge-40.1.0", Primary: true}},
		manifest.Entry{ProjectID: "jei", FileID: "9.7.0.209"},
	)
	newM := mkManifest("1.19.2",
		[]manifest.Loader{{ID: "forge-43.2.0", Primary: true}},
		manifest.Entry{ProjectID: "jei", FileID: "9.7.0.210"},
		manifest.Entry{ProjectID: "create", FileID: "0.5.0g"},
	)

	r := Diff(oldM, newM)

	require.NotNil(t, r.MinecraftChange)
	assert.Equal(t, "1.18.2", r.MinecraftChange.Old)
	assert.Equal(t, "1.19.2", r.MinecraftChange.New)

	require.NotNil(t, r.LoaderChange)
	assert.Equal(t, []manifest.Loader{{ID: "forge-40.1.0", Primary: true}}, r.LoaderChange.Old)
	assert.Equal(t, []manifest.Loader{{ID: "forge-43.2.0", Primary: true}}, r.LoaderChange.New)

	require.Len(t, r.Added, 1)
	assert.Equal(t, "create", r.Added[0].ProjectID)
	assert.Empty(t, r.Removed)
	require.Len(t, r.Updated, 1)
	assert.Equal(t, "9.7.0.209", r.Updated[0].Old.FileID)
	assert.Equal(t, "9.7.0.210", r.Updated[0].New.FileID)
	assert.Empty(t, r.Unchanged)
}

// TestDiff_Identity verifies diff(M, M) reports nothing changed and
// unchanged == all entries.
func TestDiff_Identity(t *testing.T) {
	m := mkManifest("1.19.2",
		[]manifest.Loader{{ID: "fabric-0.14.9", Primary: true}},
		manifest.Entry{ProjectID: "a", FileID: "1"},
		manifest.Entry{ProjectID: "b", FileID: "2"},
	)

	r := Diff(m, m)

	assert.Nil(t, r.MinecraftChange)
	assert.Nil(t, r.LoaderChange)
	assert.Empty(t, r.Added)
	assert.Empty(t, r.Removed)
	assert.Empty(t, r.Updated)
	assert.Len(t, r.Unchanged, len(m.Entries))
}

// TestDiff_PartitionInvariant verifies every identity in old ∪ new lands in
// exactly one bucket.
func TestDiff_PartitionInvariant(t *testing.T) {
	oldM := mkManifest("1.18.2", nil,
		manifest.Entry{ProjectID: "a", FileID: "1"},
		manifest.Entry{ProjectID: "b", FileID: "2"},
		manifest.Entry{ProjectID: "c", FileID: "3"},
	)
	newM := mkManifest("1.18.2", nil,
		manifest.Entry{ProjectID: "b", FileID: "2"},
		manifest.Entry{ProjectID: "c", FileID: "9"},
		manifest.Entry{ProjectID: "d", FileID: "4"},
	)

	r := Diff(oldM, newM)

	seen := make(map[string]int)
	for _, e := range r.Added {
		seen[e.ProjectID]++
	}
	for _, e := range r.Removed {
		seen[e.ProjectID]++
	}
	for _, u := range r.Updated {
		seen[u.Old.ProjectID]++
	}
	for _, e := range r.Unchanged {
		seen[e.ProjectID]++
	}

	union := map[string]struct{}{}
	for id := range oldM.Entries {
		union[id] = struct{}{}
	}
	for id := range newM.Entries {
		union[id] = struct{}{}
	}

	assert.Len(t, seen, len(union))
	for id, n := range seen {
		assert.Equalf(t, 1, n, "identity %s appears in %d buckets", id, n)
	}
}

// TestDiff_UpdatedPairsDiffer verifies updates always pair matching
// identities with differing file ids.
func TestDiff_UpdatedPairsDiffer(t *testing.T) {
	oldM := mkManifest("1.18.2", nil,
		manifest.Entry{ProjectID: "a", FileID: "1"},
		manifest.Entry{ProjectID: "b", FileID: "2"},
	)
	newM := mkManifest("1.18.2", nil,
		manifest.Entry{ProjectID: "a", FileID: "5"},
		manifest.Entry{ProjectID: "b", FileID: "2"},
	)

	r := Diff(oldM, newM)

	require.Len(t, r.Updated, 1)
	for _, u := range r.Updated {
		assert.Equal(t, u.Old.ProjectID, u.New.ProjectID)
		assert.NotEqual(t, u.Old.FileID, u.New.FileID)
	}
}

// TestDiff_LoaderOrderInsensitive verifies reordered loader lists are not a
// change, but a flipped primary flag is.
func TestDiff_LoaderOrderInsensitive(t *testing.T) {
	a := []manifest.Loader{{ID: "forge-40.1.0", Primary: true}, {ID: "quilt-1.0", Primary: false}}
	b := []manifest.Loader{{ID: "quilt-1.0", Primary: false}, {ID: "forge-40.1.0", Primary: true}}

	r := Diff(mkManifest("1.18.2", a), mkManifest("1.18.2", b))
	assert.Nil(t, r.LoaderChange)

	c := []manifest.Loader{{ID: "forge-40.1.0", Primary: false}, {ID: "quilt-1.0", Primary: true}}
	r = Diff(mkManifest("1.18.2", a), mkManifest("1.18.2", c))
	assert.NotNil(t, r.LoaderChange)
}

// TestDiff_Deterministic verifies bucket ordering is stable across calls.
func TestDiff_Deterministic(t *testing.T) {
	oldM := mkManifest("1.18.2", nil)
	newM := mkManifest("1.18.2", nil,
		manifest.Entry{ProjectID: "zebra", FileID: "1"},
		manifest.Entry{ProjectID: "aardvark", FileID: "2"},
		manifest.Entry{ProjectID: "mango", FileID: "3"},
	)

	first := Diff(oldM, newM)
	second := Diff(oldM, newM)

	assert.Equal(t, first, second)
	require.Len(t, first.Added, 3)
	assert.Equal(t, "aardvark", first.Added[0].ProjectID)
	assert.Equal(t, "zebra", first.Added[2].ProjectID)
}

// TestRawDiff_Identical verifies identical documents produce no output.
func TestRawDiff_Identical(t *testing.T) {
	doc := []byte(`{"minecraft":{"version":"1.18.2"},"files":[]}`)
	out, err := RawDiff(doc, doc)
	require.NoError(t, err)
	assert.Empty(t, out)
}

// TestRawDiff_Changed verifies a changed document produces a delta.
func TestRawDiff_Changed(t *testing.T) {
	oldDoc := []byte(`{"minecraft":{"version":"1.18.2"}}`)
	newDoc := []byte(`{"minecraft":{"version":"1.19.2"}}`)

	out, err := RawDiff(oldDoc, newDoc)
	require.NoError(t, err)
	assert.Contains(t, out, "1.19.2")
}
