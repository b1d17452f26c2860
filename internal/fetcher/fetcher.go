// Copyright Marco Kaiser, 2025. All rights reserved.

// Package fetcher composes the transport client, completion poller, and
// result cache into the single "fetch papers for query" operation, with
// optional metadata enrichment and relevance sorting on top.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/internal/arxiv"
	"github.com/kaiserm99/pasa-research-fetcher/internal/cache"
	"github.com/kaiserm99/pasa-research-fetcher/internal/pasa"
	"github.com/kaiserm99/pasa-research-fetcher/internal/poller"
	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// SearchClient is the transport consumed by the fetcher.
type SearchClient interface {
	Submit(ctx context.Context, query string) (pasa.Handle, error)
	Poll(ctx context.Context, h pasa.Handle) (types.ResultSnapshot, error)
}

// Enricher fills supplementary metadata on normalized papers.
type Enricher interface {
	EnrichAll(ctx context.Context, papers []types.Paper)
}

// Options selects per-fetch behavior.
type Options struct {
	// Complete selects the extended polling profile with its stricter
	// stability gates.
	Complete bool

	// SortByRelevance sorts the output by relevance score, descending.
	// The sort is stable: equal scores keep their first-seen order.
	SortByRelevance bool

	// Enrich fills arXiv metadata (categories, DOI, journal reference)
	// after normalization.
	Enrich bool
}

// Output is the result of one fetch.
type Output struct {
	// Papers is the ordered, normalized result set.
	Papers []types.Paper

	// Complete is false when the result set is best-effort: the poll
	// budget ran out before the stabilization gates were satisfied.
	Complete bool

	// Polls is the number of polls performed (zero on a cache hit).
	Polls int

	// FromCache is true when the result was served from the cache.
	FromCache bool
}

// Fetcher is the entry point tying cache, submission, and polling
// together. It is safe for concurrent use; independent fetches share
// only the cache.
type Fetcher struct {
	client   SearchClient
	cache    cache.Store
	enricher Enricher
	logger   zerolog.Logger

	// Polling profiles, overridable in tests to avoid real intervals.
	standard poller.Profile
	complete poller.Profile
}

// New builds a Fetcher with the real transport, cache backend, and
// arXiv enricher selected by cfg.
func New(cfg types.Config, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: pasa.NewClient(cfg.HTTP, logger),
		cache:  cache.New(cfg.Cache, logger),
		enricher: &arxiv.Enricher{
			Client:    &http.Client{Timeout: cfg.HTTP.Timeout()},
			UserAgent: cfg.HTTP.UserAgent,
			Logger:    logger,
		},
		logger:   logger.With().Str("component", "fetcher").Logger(),
		standard: poller.Standard,
		complete: poller.Complete,
	}
}

// Close releases the cache backend.
func (f *Fetcher) Close() error { return f.cache.Close() }

// Fetch returns the papers for query, serving from the cache when a
// fresh entry exists and polling the agent otherwise. maxResults <= 0
// means no ceiling. A transport failure past the retry bound propagates
// to the caller; a timed-out poll run returns best-effort papers with
// Complete=false instead.
func (f *Fetcher) Fetch(ctx context.Context, query string, maxResults int, opts Options) (Output, error) {
	key := cache.Key{
		Query:           query,
		MaxResults:      maxResults,
		Complete:        opts.Complete,
		SortByRelevance: opts.SortByRelevance,
		Enrich:          opts.Enrich,
	}
	if entry, ok := f.cache.Get(key); ok {
		f.logger.Info().Str("query", query).Msg("serving cached results")
		return Output{Papers: entry.Papers, Complete: entry.Complete, FromCache: true}, nil
	}

	handle, err := f.client.Submit(ctx, query)
	if err != nil {
		return Output{}, fmt.Errorf("submitting query: %w", err)
	}

	profile := f.standard
	if opts.Complete {
		profile = f.complete
	}
	result, err := poller.New(profile, f.logger).WaitUntilStable(ctx, func(ctx context.Context) (types.ResultSnapshot, error) {
		return f.client.Poll(ctx, handle)
	})
	if err != nil {
		return Output{}, err
	}

	papers := pasa.Normalize(result.Snapshot.Items, query, f.logger)
	if maxResults > 0 && len(papers) > maxResults {
		papers = papers[:maxResults]
	}

	if opts.Enrich && f.enricher != nil {
		f.enricher.EnrichAll(ctx, papers)
	}
	if opts.SortByRelevance {
		sort.SliceStable(papers, func(i, j int) bool {
			return papers[i].RelevanceScore > papers[j].RelevanceScore
		})
	}

	// A cancelled fetch must not write a partial result set.
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	f.cache.Put(key, cache.Entry{Papers: papers, Complete: result.Complete})

	f.logger.Info().Str("query", query).Int("papers", len(papers)).
		Int("polls", result.Polls).Bool("complete", result.Complete).
		Msg("fetch finished")
	return Output{Papers: papers, Complete: result.Complete, Polls: result.Polls}, nil
}

// MetadataOnly projects papers to flat, serialization-friendly summary
// records for callers that do not need the full records.
func MetadataOnly(papers []types.Paper) []types.PaperSummary {
	summaries := make([]types.PaperSummary, 0, len(papers))
	for _, p := range papers {
		summaries = append(summaries, p.Summary())
	}
	return summaries
}
