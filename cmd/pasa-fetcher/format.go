// Copyright Marco Kaiser, 2025. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kaiserm99/pasa-research-fetcher/internal/fetcher"
	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// formatTable writes papers as a human-readable table to w.
func formatTable(out fetcher.Output, w io.Writer) {
	fmt.Fprintf(w, "%-4s  %-60s  %-24s  %-10s  %-6s\n",
		"Rank", "Title", "Authors", "Date", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for i, p := range out.Papers {
		title := truncate(p.Metadata.Title, 60)
		authors := formatAuthors(p)
		date := "N/A"
		if !p.Metadata.PublishedDate.IsZero() {
			date = p.Metadata.PublishedDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-24s  %-10s  %-6.3f\n",
			i+1, title, authors, date, p.RelevanceScore)
	}

	fmt.Fprintf(w, "\n%d papers", len(out.Papers))
	if out.FromCache {
		fmt.Fprint(w, " (cached)")
	} else {
		fmt.Fprintf(w, " (%d polls)", out.Polls)
	}
	if !out.Complete {
		fmt.Fprint(w, " [incomplete]")
	}
	fmt.Fprintln(w)
}

// formatJSON writes v as indented JSON to w.
func formatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAuthors(p types.Paper) string {
	authors := p.Metadata.Authors
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0].Name, 24)
	default:
		return truncate(authors[0].Name, 17) + " et al."
	}
}

// truncate shortens s to max runes, cutting on rune boundaries so
// multi-byte titles never yield invalid UTF-8.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
