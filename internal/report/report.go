// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"

	goversion "github.com/hashicorp/go-version"
	yaml "gopkg.in/yaml.v2"

	"github.com/TargetedEntropy/change-log-o-matic/internal/cache"
	"github.com/TargetedEntropy/change-log-o-matic/internal/differ"
	"github.com/TargetedEntropy/change-log-o-matic/internal/enrich"
	"github.com/TargetedEntropy/change-log-o-matic/internal/log"
	"github.com/TargetedEntropy/change-log-o-matic/internal/manifest"
)

// Supported output formats.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Formats lists the valid --format values.
var Formats = []string{FormatMarkdown, FormatText, FormatJSON, FormatYAML}

// Row is one rendered entry line.
type Row struct {
	ProjectID string `json:"projectID" yaml:"projectID"`
	Name      string `json:"name" yaml:"name"`
	File      string `json:"file,omitempty" yaml:"file,omitempty"`
	Version   string `json:"version" yaml:"version"`
	Required  bool   `json:"required" yaml:"required"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
}

// UpdateRow is one rendered update line, old version then new.
type UpdateRow struct {
	ProjectID  string `json:"projectID" yaml:"projectID"`
	Name       string `json:"name" yaml:"name"`
	OldVersion string `json:"oldVersion" yaml:"oldVersion"`
	NewVersion string `json:"newVersion" yaml:"newVersion"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Document is the serializable report: everything the renderers show, in
// diff order.
type Document struct {
	OldName    string `json:"oldName" yaml:"oldName"`
	OldVersion string `json:"oldVersion" yaml:"oldVersion"`
	NewName    string `json:"newName" yaml:"newName"`
	NewVersion string `json:"newVersion" yaml:"newVersion"`

	Minecraft *differ.VersionChange `json:"minecraft,omitempty" yaml:"minecraft,omitempty"`
	Loaders   *differ.LoaderChange  `json:"loaders,omitempty" yaml:"loaders,omitempty"`

	Added          []Row       `json:"added" yaml:"added"`
	Removed        []Row       `json:"removed" yaml:"removed"`
	Updated        []UpdateRow `json:"updated" yaml:"updated"`
	UnchangedCount int         `json:"unchangedCount" yaml:"unchangedCount"`

	Enriched   bool         `json:"enriched" yaml:"enriched"`
	CacheStats *cache.Stats `json:"cacheStats,omitempty" yaml:"cacheStats,omitempty"`
}

// Build assembles the document from the two manifests and the enriched diff.
func Build(oldM, newM *manifest.Manifest, res *enrich.Result) Document {
	doc := Document{
		OldName:        orUnknown(oldM.Name),
		OldVersion:     orUnknown(oldM.Version),
		NewName:        orUnknown(newM.Name),
		NewVersion:     orUnknown(newM.Version),
		Minecraft:      res.Diff.MinecraftChange,
		Loaders:        res.Diff.LoaderChange,
		UnchangedCount: len(res.Diff.Unchanged),
	}

	for _, e := range res.Added {
		doc.Added = append(doc.Added, row(e))
		if e.Status != enrich.StatusNone {
			doc.Enriched = true
		}
	}
	for _, e := range res.Removed {
		doc.Removed = append(doc.Removed, row(e))
		if e.Status != enrich.StatusNone {
			doc.Enriched = true
		}
	}
	for _, u := range res.Updated {
		doc.Updated = append(doc.Updated, updateRow(u))
		if u.Old.Status != enrich.StatusNone || u.New.Status != enrich.StatusNone {
			doc.Enriched = true
		}
	}

	if doc.Enriched {
		stats := res.Stats
		doc.CacheStats = &stats
	}

	return doc
}

// Render writes the document to w in the requested format.
func Render(w io.Writer, format string, doc Document) error {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			log.Errorf("report json marshal: %v", err)
			return err
		}
		_, err = w.Write(append(out, '\n'))
		return err
	case FormatYAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			log.Errorf("report yaml marshal: %v", err)
			return err
		}
		_, err = w.Write(out)
		return err
	case FormatText:
		return writeText(w, doc)
	case FormatMarkdown, "":
		_, err := io.WriteString(w, Markdown(doc))
		return err
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

func row(e enrich.Entry) Row {
	return Row{
		ProjectID: e.ProjectID,
		Name:      displayName(e),
		File:      fileName(e),
		Version:   versionLabel(e),
		Required:  e.Required,
		Status:    string(e.Status),
	}
}

func updateRow(u enrich.Update) UpdateRow {
	return UpdateRow{
		ProjectID:  u.New.ProjectID,
		Name:       displayName(u.New),
		OldVersion: versionLabel(u.Old),
		NewVersion: versionLabel(u.New),
		Status:     string(combineRowStatus(u.Old.Status, u.New.Status)),
	}
}

func combineRowStatus(a, b enrich.Status) enrich.Status {
	if a == enrich.StatusFailed || b == enrich.StatusFailed {
		return enrich.StatusFailed
	}
	if a != enrich.StatusNone {
		return a
	}
	return b
}

// displayName prefers the resolved upstream name, then the manifest's own
// display name, then the bare identity.
func displayName(e enrich.Entry) string {
	if e.ResolvedName != "" {
		return e.ResolvedName
	}
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.ProjectID
}

// versionLabel prefers the resolved file display info over the raw file id.
func versionLabel(e enrich.Entry) string {
	if e.ResolvedFileInfo != "" {
		return e.ResolvedFileInfo
	}
	return e.FileID
}

func fileName(e enrich.Entry) string {
	if e.ResolvedFileInfo != "" {
		return e.ResolvedFileInfo
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// versionNote annotates the pack version pair when both parse as versions.
// Classification of the diff never depends on this; it is display sugar only.
func versionNote(oldV, newV string) string {
	ov, err := goversion.NewVersion(oldV)
	if err != nil {
		return ""
	}
	nv, err := goversion.NewVersion(newV)
	if err != nil {
		return ""
	}
	switch {
	case nv.GreaterThan(ov):
		return " (upgrade)"
	case nv.LessThan(ov):
		return " (downgrade)"
	default:
		return ""
	}
}
