// Copyright Marco Kaiser, 2025. All rights reserved.

// Package arxiv enriches normalized paper records with metadata from the
// arXiv Atom API: subject categories, DOI, journal reference, and author
// comments, which the search agent does not report.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Enricher fetches supplementary metadata from arXiv.
type Enricher struct {
	Client    *http.Client
	UserAgent string
	Logger    zerolog.Logger
}

// EnrichAll fills arXiv metadata for each paper in place. A failed
// lookup leaves the paper as-is with a logged warning; enrichment never
// fails the fetch.
func (e *Enricher) EnrichAll(ctx context.Context, papers []types.Paper) {
	for i := range papers {
		if err := e.enrich(ctx, &papers[i]); err != nil {
			if ctx.Err() != nil {
				return
			}
			e.Logger.Warn().Err(err).Str("arxiv_id", papers[i].Metadata.ArxivID).
				Msg("could not enrich paper")
		}
	}
}

func (e *Enricher) enrich(ctx context.Context, paper *types.Paper) error {
	id := paper.Metadata.ArxivID
	if id == "" {
		return fmt.Errorf("paper has no arXiv ID")
	}

	apiURL := fmt.Sprintf("%s?id_list=%s", arxivAPIBase, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.UserAgent)

	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return fmt.Errorf("no entries found for arXiv ID %s", id)
	}

	entry := feed.Entries[0]
	for _, c := range entry.Categories {
		if c.Term != "" {
			paper.Metadata.Categories = append(paper.Metadata.Categories, c.Term)
		}
	}
	paper.Metadata.PrimaryCategory = entry.PrimaryCategory.Term
	paper.Metadata.DOI = strings.TrimSpace(entry.DOI)
	paper.Metadata.JournalRef = strings.TrimSpace(entry.JournalRef)
	paper.Metadata.Comments = strings.TrimSpace(entry.Comment)

	e.Logger.Debug().Str("arxiv_id", id).Msg("paper enriched")
	return nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Categories      []arxivCategory `xml:"category"`
	PrimaryCategory arxivCategory   `xml:"primary_category"`
	DOI             string          `xml:"doi"`
	JournalRef      string          `xml:"journal_ref"`
	Comment         string          `xml:"comment"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}
