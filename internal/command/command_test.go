// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

const oldManifestJSON = `{
  "name": "Test Pack",
  "version": "1.0.0",
  "minecraft": {
    "version": "1.19.2",
    "modLoaders": [{"id": "forge-43.2.0", "primary": true}]
  },
  "files": [
    {"projectID": 238222, "fileID": 3723162, "required": true},
    {"projectID": 328085, "fileID": 4011394, "required": true}
  ]
}`

const newManifestJSON = `{
  "name": "Test Pack",
  "version": "1.1.0",
  "minecraft": {
    "version": "1.19.2",
    "modLoaders": [{"id": "forge-43.2.0", "primary": true}]
  },
  "files": [
    {"projectID": 238222, "fileID": 3940240, "required": true},
    {"projectID": 394468, "fileID": 4050206, "required": true}
  ]
}`

// writePack builds a minimal modpack archive holding one manifest.json.
func writePack(t *testing.T, dir, name, manifestJSON string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("manifest.json")
	require.NoError(t, err)
	_, err = f.Write([]byte(manifestJSON))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	ctx := context.Background()
	app, err := InitApp(ctx, args)
	require.NoError(t, err)
	return app.Run(ctx, append([]string{"change-log-o-matic"}, args...))
}

// TestCompare_Markdown runs the whole pipeline without enrichment and checks
// the rendered changelog.
func TestCompare_Markdown(t *testing.T) {
	dir := t.TempDir()
	oldPath := writePack(t, dir, "old.zip", oldManifestJSON)
	newPath := writePack(t, dir, "new.zip", newManifestJSON)
	outPath := filepath.Join(dir, "changelog.md")

	err := runApp(t, "--output", outPath, oldPath, newPath)
	require.NoError(t, err)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)

	md := string(out)
	assert.Contains(t, md, "Comparing Test Pack v1.0.0 to Test Pack v1.1.0 (upgrade)")
	assert.Contains(t, md, "## Additions")
	assert.Contains(t, md, "| 394468 | 4050206 | true |")
	assert.Contains(t, md, "## Removals")
	assert.Contains(t, md, "| 328085 | 4011394 | true |")
	assert.Contains(t, md, "## Updates")
	assert.Contains(t, md, "| 238222 | 3723162 | 3940240 |")
	assert.Contains(t, md, "_1 added, 1 removed, 1 updated, 0 unchanged_")
	// Same Minecraft version on both sides, no section.
	assert.NotContains(t, md, "Minecraft Version Change")
}

// TestCompare_JSONFormat verifies the --format flag reaches the renderer.
func TestCompare_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	oldPath := writePack(t, dir, "old.zip", oldManifestJSON)
	newPath := writePack(t, dir, "new.zip", newManifestJSON)
	outPath := filepath.Join(dir, "changelog.json")

	err := runApp(t, "--format", "json", "--output", outPath, oldPath, newPath)
	require.NoError(t, err)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"newVersion": "1.1.0"`)
}

// TestCompare_ArgErrors covers bad invocations.
func TestCompare_ArgErrors(t *testing.T) {
	dir := t.TempDir()
	oldPath := writePack(t, dir, "old.zip", oldManifestJSON)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"one arg", []string{oldPath}},
		{"missing archive", []string{oldPath, filepath.Join(dir, "nope.zip")}},
		{"invalid format", []string{"--format", "xml", oldPath, oldPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, runApp(t, tt.args...))
		})
	}
}

// TestFormatValidator checks acceptance of every renderer format and
// rejection of anything else.
func TestFormatValidator(t *testing.T) {
	for _, f := range []string{"markdown", "text", "json", "yaml"} {
		assert.NoError(t, FormatValidator(f))
	}
	assert.Error(t, FormatValidator("xml"))
	assert.Error(t, FormatValidator(""))
	assert.Error(t, FormatValidator("Markdown"))
}

// TestNewFlags_Defaults verifies the flag set carries the documented
// defaults.
func TestNewFlags_Defaults(t *testing.T) {
	flags := NewFlags("")

	byName := make(map[string]cli.Flag)
	for _, f := range flags {
		byName[f.Names()[0]] = f
	}

	for _, name := range []string{"scrape", "no-scrape-files", "delay", "max-workers", "cache-dir", "no-cache", "output", "format", "raw-diff"} {
		assert.Contains(t, byName, name, "flag %s missing", name)
	}

	format, ok := byName["format"].(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "markdown", format.Value)

	workers, ok := byName["max-workers"].(*cli.IntFlag)
	require.True(t, ok)
	assert.Equal(t, 3, workers.Value)
}
