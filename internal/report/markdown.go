// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Markdown renders the document as a Markdown changelog. Section layout:
// header, Minecraft version change, loader changes, then Additions, Removals
// and Updates tables. Sections with nothing to say are omitted.
func Markdown(doc Document) string {
	var b strings.Builder

	b.WriteString("# Manifest Comparison\n\n")
	fmt.Fprintf(&b, "Comparing %s v%s to %s v%s%s\n\n",
		doc.OldName, doc.OldVersion, doc.NewName, doc.NewVersion,
		versionNote(doc.OldVersion, doc.NewVersion))

	if doc.Minecraft != nil {
		b.WriteString("## Minecraft Version Change\n\n")
		fmt.Fprintf(&b, "- Changed from `%s` to `%s`\n\n", doc.Minecraft.Old, doc.Minecraft.New)
	}

	if doc.Loaders != nil {
		b.WriteString("## Mod Loader Changes\n\n")
		b.WriteString("### Old Loaders:\n")
		for _, l := range doc.Loaders.Old {
			fmt.Fprintf(&b, "- `%s` (%s)\n", l.ID, primaryLabel(l.Primary))
		}
		b.WriteString("\n### New Loaders:\n")
		for _, l := range doc.Loaders.New {
			fmt.Fprintf(&b, "- `%s` (%s)\n", l.ID, primaryLabel(l.Primary))
		}
		b.WriteString("\n")
	}

	if len(doc.Added) > 0 {
		b.WriteString("## Additions\n\n")
		writeEntryTable(&b, doc.Added, doc.Enriched)
	}

	if len(doc.Removed) > 0 {
		b.WriteString("## Removals\n\n")
		writeEntryTable(&b, doc.Removed, doc.Enriched)
	}

	if len(doc.Updated) > 0 {
		b.WriteString("## Updates\n\n")
		if doc.Enriched {
			b.WriteString("| Project ID | Mod Name | From Version | To Version |\n")
			b.WriteString("|-----------|----------|--------------|------------|\n")
			for _, u := range doc.Updated {
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", u.ProjectID, u.Name, u.OldVersion, u.NewVersion)
			}
		} else {
			b.WriteString("| Project ID | Old File ID | New File ID |\n")
			b.WriteString("|-----------|------------|------------|\n")
			for _, u := range doc.Updated {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", u.ProjectID, u.OldVersion, u.NewVersion)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "_%s added, %s removed, %s updated, %s unchanged_\n",
		humanize.Comma(int64(len(doc.Added))),
		humanize.Comma(int64(len(doc.Removed))),
		humanize.Comma(int64(len(doc.Updated))),
		humanize.Comma(int64(doc.UnchangedCount)))

	return b.String()
}

func writeEntryTable(b *strings.Builder, rows []Row, enriched bool) {
	if enriched {
		b.WriteString("| Project ID | Mod Name | File Name | Version | Required |\n")
		b.WriteString("|-----------|----------|-----------|---------|----------|\n")
		for _, r := range rows {
			fmt.Fprintf(b, "| %s | %s | %s | %s | %t |\n",
				r.ProjectID, r.Name, orDash(r.File), r.Version, r.Required)
		}
	} else {
		b.WriteString("| Project ID | File ID | Required |\n")
		b.WriteString("|-----------|---------|----------|\n")
		for _, r := range rows {
			fmt.Fprintf(b, "| %s | %s | %t |\n", r.ProjectID, r.Version, r.Required)
		}
	}
	b.WriteString("\n")
}

func primaryLabel(primary bool) string {
	if primary {
		return "primary"
	}
	return "secondary"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
