// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
)

// writeText renders the document for a terminal: styled section headings and
// borderless tables.
func writeText(w io.Writer, doc Document) error {
	var (
		headingStyle = lipgloss.NewStyle().Bold(true)
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left).Bold(true)
		cellStyle    = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Left)
	)

	fmt.Fprintf(w, "%s\n", headingStyle.Render(fmt.Sprintf("Comparing %s v%s to %s v%s%s",
		doc.OldName, doc.OldVersion, doc.NewName, doc.NewVersion,
		versionNote(doc.OldVersion, doc.NewVersion))))

	if doc.Minecraft != nil {
		fmt.Fprintf(w, "\nMinecraft version: %s -> %s\n", doc.Minecraft.Old, doc.Minecraft.New)
	}

	if doc.Loaders != nil {
		fmt.Fprintf(w, "\nLoaders:\n")
		for _, l := range doc.Loaders.Old {
			fmt.Fprintf(w, "  - %s (%s)\n", l.ID, primaryLabel(l.Primary))
		}
		fmt.Fprintf(w, "  ->\n")
		for _, l := range doc.Loaders.New {
			fmt.Fprintf(w, "  - %s (%s)\n", l.ID, primaryLabel(l.Primary))
		}
	}

	writeSection := func(title string, rows []Row) {
		if len(rows) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\n", headingStyle.Render(title))

		var data [][]string
		for _, r := range rows {
			data = append(data, []string{r.ProjectID, r.Name, r.Version, fmt.Sprintf("%t", r.Required), orDash(r.Status)})
		}
		t := entryTable(headerStyle, cellStyle).
			Headers("ID", "NAME", "VERSION", "REQUIRED", "STATUS").
			Rows(data...)
		fmt.Fprintln(w, t.Render())
	}

	writeSection("Additions", doc.Added)
	writeSection("Removals", doc.Removed)

	if len(doc.Updated) > 0 {
		fmt.Fprintf(w, "\n%s\n", headingStyle.Render("Updates"))
		var data [][]string
		for _, u := range doc.Updated {
			data = append(data, []string{u.ProjectID, u.Name, u.OldVersion, u.NewVersion, orDash(u.Status)})
		}
		t := entryTable(headerStyle, cellStyle).
			Headers("ID", "NAME", "FROM", "TO", "STATUS").
			Rows(data...)
		fmt.Fprintln(w, t.Render())
	}

	fmt.Fprintf(w, "\n%s added, %s removed, %s updated, %s unchanged\n",
		humanize.Comma(int64(len(doc.Added))),
		humanize.Comma(int64(len(doc.Removed))),
		humanize.Comma(int64(len(doc.Updated))),
		humanize.Comma(int64(doc.UnchangedCount)))

	if doc.CacheStats != nil {
		s := *doc.CacheStats
		fmt.Fprintf(w, "cache: %d hits, %d misses, %d writes, %d errors\n",
			s.Hits, s.Misses, s.Writes, s.Errors)
	}

	return nil
}

func entryTable(headerStyle, cellStyle lipgloss.Style) *table.Table {
	return table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
