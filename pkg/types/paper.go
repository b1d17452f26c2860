// Copyright Marco Kaiser, 2025. All rights reserved.

// Package types defines shared data structures for the pasa-research-fetcher
// pipeline: normalized paper records, poll snapshots, and configuration.
package types

import "time"

// Author holds one author of a paper.
type Author struct {
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// PaperMetadata holds the bibliographic metadata of a paper.
type PaperMetadata struct {
	// ArxivID is the arXiv identifier (e.g. "2301.07041").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title as reported by the search agent.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// PublishedDate is the publication or preprint date, if known.
	PublishedDate time.Time `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	// Categories lists arXiv subject categories (filled by enrichment).
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// PrimaryCategory is the primary arXiv category (filled by enrichment).
	PrimaryCategory string `json:"primary_category,omitempty" yaml:"primary_category,omitempty"`

	// DOI is the Digital Object Identifier (filled by enrichment).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// JournalRef is the journal reference (filled by enrichment).
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`

	// Comments holds the author comments field from arXiv (filled by enrichment).
	Comments string `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Paper is the normalized output unit of a fetch: metadata, resource
// locators, relevance, and provenance. Constructed once at the end of
// polling and immutable thereafter.
type Paper struct {
	Metadata PaperMetadata `json:"metadata" yaml:"metadata"`

	// PDFURL locates the PDF file.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// AbstractURL locates the arXiv abstract page.
	AbstractURL string `json:"abstract_url" yaml:"abstract_url"`

	// SourceURL locates the TeX source tarball, if available.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// RelevanceScore is the agent's relevance judgment, clamped to [0, 1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// SelectReason is the agent's stated reason for selecting this paper.
	SelectReason string `json:"select_reason,omitempty" yaml:"select_reason,omitempty"`

	// Source identifies the agent-side corpus the result came from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// BibTeX is the citation record reported by the agent, if any.
	BibTeX string `json:"bibtex,omitempty" yaml:"bibtex,omitempty"`

	// Query is the original user query this paper was fetched for.
	Query string `json:"query" yaml:"query"`

	// ExtractedAt is the time the record was constructed.
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`
}

// PaperSummary is a flat, serialization-friendly projection of a Paper,
// for callers that only want metadata.
type PaperSummary struct {
	ArxivID        string   `json:"arxiv_id"`
	Title          string   `json:"title"`
	Authors        []string `json:"authors"`
	Abstract       string   `json:"abstract"`
	PublishedDate  string   `json:"published_date,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	PDFURL         string   `json:"pdf_url"`
	AbstractURL    string   `json:"abstract_url"`
	RelevanceScore float64  `json:"relevance_score"`
}

// Summary returns the flat metadata projection of p.
func (p Paper) Summary() PaperSummary {
	authors := make([]string, 0, len(p.Metadata.Authors))
	for _, a := range p.Metadata.Authors {
		authors = append(authors, a.Name)
	}
	published := ""
	if !p.Metadata.PublishedDate.IsZero() {
		published = p.Metadata.PublishedDate.Format("2006-01-02")
	}
	return PaperSummary{
		ArxivID:        p.Metadata.ArxivID,
		Title:          p.Metadata.Title,
		Authors:        authors,
		Abstract:       p.Metadata.Abstract,
		PublishedDate:  published,
		Categories:     p.Metadata.Categories,
		PDFURL:         p.PDFURL,
		AbstractURL:    p.AbstractURL,
		RelevanceScore: p.RelevanceScore,
	}
}
