// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"

	"github.com/TargetedEntropy/change-log-o-matic/internal/cache"
	"github.com/TargetedEntropy/change-log-o-matic/internal/differ"
	"github.com/TargetedEntropy/change-log-o-matic/internal/enrich"
	"github.com/TargetedEntropy/change-log-o-matic/internal/manifest"
)

func pack(name, version string) *manifest.Manifest {
	return &manifest.Manifest{Name: name, Version: version}
}

func basicResult() *enrich.Result {
	return &enrich.Result{
		Diff: differ.Result{
			MinecraftChange: &differ.VersionChange{Old: "1.18.2", New: "1.19.2"},
			Unchanged:       make([]manifest.Entry, 5),
		},
		Added: []enrich.Entry{
			{Entry: manifest.Entry{ProjectID: "sodium", FileID: "100", Required: true}},
		},
		Removed: []enrich.Entry{
			{Entry: manifest.Entry{ProjectID: "optifine", FileID: "200", Required: true}},
		},
		Updated: []enrich.Update{
			{
				Old: enrich.Entry{Entry: manifest.Entry{ProjectID: "jei", FileID: "300", Required: true}},
				New: enrich.Entry{Entry: manifest.Entry{ProjectID: "jei", FileID: "301", Required: true}},
			},
		},
	}
}

func enrichedResult() *enrich.Result {
	r := basicResult()
	r.Added[0].ResolvedName = "Sodium"
	r.Added[0].ResolvedFileInfo = "sodium-0.4.jar"
	r.Added[0].Status = enrich.StatusMiss
	r.Removed[0].Status = enrich.StatusHit
	r.Updated[0].Old.ResolvedName = "Just Enough Items"
	r.Updated[0].Old.ResolvedFileInfo = "JEI 9.6"
	r.Updated[0].Old.Status = enrich.StatusHit
	r.Updated[0].New.ResolvedName = "Just Enough Items"
	r.Updated[0].New.ResolvedFileInfo = "JEI 9.7"
	r.Updated[0].New.Status = enrich.StatusMiss
	r.Stats = cache.Stats{Hits: 2, Misses: 2, Writes: 2}
	return r
}

// TestBuild_Basic verifies the document shape for an unenriched run.
func TestBuild_Basic(t *testing.T) {
	doc := Build(pack("All the Mods", "1.0.0"), pack("All the Mods", "1.1.0"), basicResult())

	assert.Equal(t, "All the Mods", doc.OldName)
	assert.Equal(t, "1.1.0", doc.NewVersion)
	assert.False(t, doc.Enriched)
	assert.Nil(t, doc.CacheStats)
	assert.Equal(t, 5, doc.UnchangedCount)

	require.Len(t, doc.Added, 1)
	assert.Equal(t, "sodium", doc.Added[0].ProjectID)
	// Without resolution the identity doubles as the name and the raw file id
	// as the version.
	assert.Equal(t, "sodium", doc.Added[0].Name)
	assert.Equal(t, "100", doc.Added[0].Version)

	require.Len(t, doc.Updated, 1)
	assert.Equal(t, "300", doc.Updated[0].OldVersion)
	assert.Equal(t, "301", doc.Updated[0].NewVersion)
}

// TestBuild_Enriched verifies resolved names win and cache stats surface.
func TestBuild_Enriched(t *testing.T) {
	doc := Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), enrichedResult())

	assert.True(t, doc.Enriched)
	require.NotNil(t, doc.CacheStats)
	assert.Equal(t, uint64(2), doc.CacheStats.Hits)

	assert.Equal(t, "Sodium", doc.Added[0].Name)
	assert.Equal(t, "sodium-0.4.jar", doc.Added[0].Version)
	assert.Equal(t, string(enrich.StatusMiss), doc.Added[0].Status)

	assert.Equal(t, "Just Enough Items", doc.Updated[0].Name)
	assert.Equal(t, "JEI 9.6", doc.Updated[0].OldVersion)
	assert.Equal(t, "JEI 9.7", doc.Updated[0].NewVersion)
}

// TestBuild_MissingNames verifies empty pack metadata degrades to "Unknown".
func TestBuild_MissingNames(t *testing.T) {
	doc := Build(pack("", ""), pack("", ""), &enrich.Result{})
	assert.Equal(t, "Unknown", doc.OldName)
	assert.Equal(t, "Unknown", doc.NewVersion)
}

// TestMarkdown_Basic verifies the unenriched layout: three-column tables and
// the summary footer.
func TestMarkdown_Basic(t *testing.T) {
	doc := Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), basicResult())
	out := Markdown(doc)

	assert.Contains(t, out, "# Manifest Comparison")
	assert.Contains(t, out, "Comparing ATM v1.0.0 to ATM v1.1.0 (upgrade)")
	assert.Contains(t, out, "## Minecraft Version Change")
	assert.Contains(t, out, "- Changed from `1.18.2` to `1.19.2`")
	assert.Contains(t, out, "| Project ID | File ID | Required |")
	assert.Contains(t, out, "| sodium | 100 | true |")
	assert.Contains(t, out, "| Project ID | Old File ID | New File ID |")
	assert.Contains(t, out, "| jei | 300 | 301 |")
	assert.Contains(t, out, "_1 added, 1 removed, 1 updated, 5 unchanged_")
	assert.NotContains(t, out, "Mod Loader Changes")
}

// TestMarkdown_Enriched verifies the five-column layout with resolved names.
func TestMarkdown_Enriched(t *testing.T) {
	doc := Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), enrichedResult())
	out := Markdown(doc)

	assert.Contains(t, out, "| Project ID | Mod Name | File Name | Version | Required |")
	assert.Contains(t, out, "| sodium | Sodium | sodium-0.4.jar | sodium-0.4.jar | true |")
	assert.Contains(t, out, "| Project ID | Mod Name | From Version | To Version |")
	assert.Contains(t, out, "| jei | Just Enough Items | JEI 9.6 | JEI 9.7 |")
}

// TestMarkdown_Loaders verifies the loader change section lists both sides
// with primary markers.
func TestMarkdown_Loaders(t *testing.T) {
	res := basicResult()
	res.Diff.LoaderChange = &differ.LoaderChange{
		Old: []manifest.Loader{{ID: "forge-40.1.0", Primary: true}},
		New: []manifest.Loader{
			{ID: "forge-43.2.0", Primary: true},
			{ID: "extra-loader", Primary: false},
		},
	}
	out := Markdown(Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), res))

	assert.Contains(t, out, "## Mod Loader Changes")
	assert.Contains(t, out, "### Old Loaders:\n- `forge-40.1.0` (primary)")
	assert.Contains(t, out, "- `forge-43.2.0` (primary)")
	assert.Contains(t, out, "- `extra-loader` (secondary)")
}

// TestVersionNote covers the upgrade/downgrade annotation and its fallback
// for unparseable versions.
func TestVersionNote(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		expected string
	}{
		{"upgrade", "1.0.0", "1.1.0", " (upgrade)"},
		{"downgrade", "2.0.0", "1.9.0", " (downgrade)"},
		{"equal", "1.0.0", "1.0.0", ""},
		{"unparseable old", "Unknown", "1.0.0", ""},
		{"unparseable new", "1.0.0", "latest-and-greatest", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, versionNote(tt.old, tt.new))
		})
	}
}

// TestRender_JSON verifies the JSON document round-trips.
func TestRender_JSON(t *testing.T) {
	doc := Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), enrichedResult())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, doc))

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc.Added, decoded.Added)
	assert.Equal(t, doc.Updated, decoded.Updated)
	assert.True(t, decoded.Enriched)
}

// TestRender_YAML verifies the YAML document round-trips.
func TestRender_YAML(t *testing.T) {
	doc := Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), basicResult())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, doc))

	var decoded Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc.Added, decoded.Added)
	assert.Equal(t, doc.UnchangedCount, decoded.UnchangedCount)
}

// TestRender_Text smoke-tests the styled renderer for the key content.
func TestRender_Text(t *testing.T) {
	doc := Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), enrichedResult())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, doc))

	out := buf.String()
	assert.Contains(t, out, "Sodium")
	assert.Contains(t, out, "Just Enough Items")
	assert.Contains(t, out, "1 added")
}

// TestRender_DefaultAndUnknown verifies the empty format falls back to
// Markdown and unknown formats error.
func TestRender_DefaultAndUnknown(t *testing.T) {
	doc := Build(pack("ATM", "1.0.0"), pack("ATM", "1.1.0"), basicResult())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "", doc))
	assert.True(t, strings.HasPrefix(buf.String(), "# Manifest Comparison"))

	err := Render(&buf, "xml", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}
