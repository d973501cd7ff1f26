// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/TargetedEntropy/change-log-o-matic/internal/log"
)

// ErrMalformed is the root of the fatal input error taxonomy. Every failure
// to produce a valid Manifest from an archive wraps it.
var ErrMalformed = errors.New("malformed manifest")

// ManifestName is the archive member holding the pack manifest.
const ManifestName = "manifest.json"

// Loader identifies one mod loader declared by a pack, e.g. forge-40.1.0.
type Loader struct {
	ID      string `json:"id"`
	Primary bool   `json:"primary"`
}

// Entry is one addressable mod within a manifest. ProjectID is the stable
// cross-manifest key (case-normalized at load). FileID doubles as the version
// label: two manifests carrying the same ProjectID with different FileIDs
// describe an update.
type Entry struct {
	ProjectID   string `json:"projectID"`
	DisplayName string `json:"displayName,omitempty"`
	FileID      string `json:"fileID"`
	Required    bool   `json:"required"`
}

// Manifest is one validated pack snapshot. Immutable once loaded.
type Manifest struct {
	Name             string
	Version          string
	MinecraftVersion string
	Loaders          []Loader
	// Entries is keyed by normalized ProjectID. Identity is unique per
	// manifest; duplicates are rejected at load.
	Entries map[string]Entry
}

// Normalize returns the canonical form of a project identity: trimmed and
// lower-cased, so identical mods match across manifests regardless of casing.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ident carries a project or file id as a string regardless of how the JSON
// spells it. CurseForge exports use numbers; hand-edited manifests sometimes
// carry slugs.
type ident string

func (v *ident) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = ident(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = ident(n.String())
	return nil
}

// raw mirrors the CurseForge manifest.json shape.
type raw struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Minecraft struct {
		Version    string   `json:"version"`
		ModLoaders []Loader `json:"modLoaders"`
	} `json:"minecraft"`
	Files []struct {
		ProjectID   ident  `json:"projectID"`
		FileID      ident  `json:"fileID"`
		DisplayName string `json:"displayName"`
		Required    bool   `json:"required"`
	} `json:"files"`
}

// Parse unmarshals and validates manifest.json bytes.
func Parse(data []byte) (*Manifest, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}

	if r.Minecraft.Version == "" {
		return nil, fmt.Errorf("%w: missing minecraft.version", ErrMalformed)
	}

	m := &Manifest{
		Name:             r.Name,
		Version:          r.Version,
		MinecraftVersion: r.Minecraft.Version,
		Loaders:          r.Minecraft.ModLoaders,
		Entries:          make(map[string]Entry, len(r.Files)),
	}

	for i, f := range r.Files {
		pid := Normalize(string(f.ProjectID))
		fid := strings.TrimSpace(string(f.FileID))
		if pid == "" || fid == "" {
			return nil, fmt.Errorf("%w: files[%d] missing projectID or fileID", ErrMalformed, i)
		}
		if _, dup := m.Entries[pid]; dup {
			return nil, fmt.Errorf("%w: duplicate projectID %s", ErrMalformed, pid)
		}
		m.Entries[pid] = Entry{
			ProjectID:   pid,
			DisplayName: f.DisplayName,
			FileID:      fid,
			Required:    f.Required,
		}
	}

	return m, nil
}

// ReadArchive extracts the raw manifest.json bytes from a modpack zip.
func ReadArchive(zipPath string) ([]byte, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid zip archive %s: %v", ErrMalformed, zipPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		// Some packs nest the manifest one directory down (e.g. overrides
		// exporters); match on the basename.
		if path.Base(f.Name) != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot open %s in %s: %v", ErrMalformed, f.Name, zipPath, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s in %s: %v", ErrMalformed, f.Name, zipPath, err)
		}
		log.Debugf("extracted %s from %s: bytes=%d", f.Name, zipPath, len(data))
		return data, nil
	}

	return nil, fmt.Errorf("%w: no %s found in %s", ErrMalformed, ManifestName, zipPath)
}

// LoadArchive extracts, parses and validates a pack manifest from a zip file.
func LoadArchive(zipPath string) (*Manifest, error) {
	data, err := ReadArchive(zipPath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
