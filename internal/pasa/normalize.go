// Copyright Marco Kaiser, 2025. All rights reserved.

package pasa

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// arXiv resource URL prefixes used to derive locators from an entry ID.
const (
	arxivPDFBase      = "https://arxiv.org/pdf/"
	arxivAbstractBase = "https://arxiv.org/abs/"
	arxivSourceBase   = "https://arxiv.org/e-print/"
)

// Normalize converts the raw result items of a final snapshot into paper
// records, in order. Malformed items are skipped with a logged warning;
// a bad entry never aborts the batch.
func Normalize(items []types.RawResult, query string, logger zerolog.Logger) []types.Paper {
	papers := make([]types.Paper, 0, len(items))
	for i, item := range items {
		paper, err := normalizeOne(item, query)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("skipping malformed result item")
			continue
		}
		papers = append(papers, paper)
	}
	return papers
}

func normalizeOne(item types.RawResult, query string) (types.Paper, error) {
	id := strings.TrimSpace(item.EntryID)
	if id == "" {
		return types.Paper{}, fmt.Errorf("result item has no entry ID")
	}

	authors := make([]types.Author, 0, len(item.Authors))
	for _, name := range item.Authors {
		name = strings.TrimSpace(name)
		if name != "" {
			authors = append(authors, types.Author{Name: name})
		}
	}

	meta := types.PaperMetadata{
		ArxivID:  id,
		Title:    strings.TrimSpace(item.Title),
		Authors:  authors,
		Abstract: strings.TrimSpace(item.Abstract),
	}
	if t, ok := parsePublishTime(item.PublishTime); ok {
		meta.PublishedDate = t
	}

	return types.Paper{
		Metadata:       meta,
		PDFURL:         arxivPDFBase + id + ".pdf",
		AbstractURL:    arxivAbstractBase + id,
		SourceURL:      arxivSourceBase + id,
		RelevanceScore: clampScore(item.Score),
		SelectReason:   strings.TrimSpace(item.SelectReason),
		Source:         item.Source,
		BibTeX:         item.BibResult,
		Query:          query,
		ExtractedAt:    time.Now().UTC(),
	}, nil
}

// parsePublishTime parses the agent's compact date format "YYYYMMDD".
func parsePublishTime(s string) (time.Time, bool) {
	if len(s) != 8 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
