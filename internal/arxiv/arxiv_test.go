// Copyright Marco Kaiser, 2025. All rights reserved.

package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All You Need</title>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
    <arxiv:primary_category term="cs.CL"/>
    <arxiv:doi>10.48550/arXiv.1706.03762</arxiv:doi>
    <arxiv:journal_ref> NeurIPS 2017 </arxiv:journal_ref>
    <arxiv:comment>15 pages, 5 figures</arxiv:comment>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"></feed>`

// newTestEnricher points the enricher at a local server and restores the
// real endpoint afterwards.
func newTestEnricher(t *testing.T, handler http.Handler) *Enricher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	orig := arxivAPIBase
	arxivAPIBase = srv.URL
	t.Cleanup(func() { arxivAPIBase = orig })

	return &Enricher{
		Client:    srv.Client(),
		UserAgent: "pasa-research-fetcher-test",
		Logger:    zerolog.Nop(),
	}
}

func TestEnrichAllFillsMetadata(t *testing.T) {
	var gotID, gotAgent string
	e := newTestEnricher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("id_list")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(atomFeed))
	}))

	papers := []types.Paper{{Metadata: types.PaperMetadata{ArxivID: "1706.03762"}}}
	e.EnrichAll(context.Background(), papers)

	assert.Equal(t, "1706.03762", gotID)
	assert.Equal(t, "pasa-research-fetcher-test", gotAgent)

	md := papers[0].Metadata
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, md.Categories)
	assert.Equal(t, "cs.CL", md.PrimaryCategory)
	assert.Equal(t, "10.48550/arXiv.1706.03762", md.DOI)
	assert.Equal(t, "NeurIPS 2017", md.JournalRef, "journal_ref must be trimmed")
	assert.Equal(t, "15 pages, 5 figures", md.Comments)
}

func TestEnrichAllContinuesPastFailures(t *testing.T) {
	e := newTestEnricher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id_list") {
		case "bad.00001":
			http.Error(w, "not found", http.StatusNotFound)
		case "empty.00002":
			w.Write([]byte(emptyFeed))
		default:
			w.Write([]byte(atomFeed))
		}
	}))

	papers := []types.Paper{
		{Metadata: types.PaperMetadata{ArxivID: "bad.00001"}},
		{Metadata: types.PaperMetadata{ArxivID: "empty.00002"}},
		{Metadata: types.PaperMetadata{ArxivID: "1706.03762"}},
	}
	e.EnrichAll(context.Background(), papers)

	assert.Empty(t, papers[0].Metadata.Categories, "failed lookup leaves the paper untouched")
	assert.Empty(t, papers[1].Metadata.Categories)
	assert.Equal(t, "cs.CL", papers[2].Metadata.PrimaryCategory, "later papers still enriched")
}

func TestEnrichAllSkipsPapersWithoutID(t *testing.T) {
	var requests atomic.Int32
	e := newTestEnricher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(atomFeed))
	}))

	papers := []types.Paper{{Metadata: types.PaperMetadata{Title: "no id"}}}
	e.EnrichAll(context.Background(), papers)

	assert.Zero(t, requests.Load())
	assert.Empty(t, papers[0].Metadata.Categories)
}

func TestEnrichAllStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var requests atomic.Int32
	e := newTestEnricher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		cancel()
		w.Write([]byte(atomFeed))
	}))

	papers := []types.Paper{
		{Metadata: types.PaperMetadata{ArxivID: "2301.00001"}},
		{Metadata: types.PaperMetadata{ArxivID: "2301.00002"}},
		{Metadata: types.PaperMetadata{ArxivID: "2301.00003"}},
	}
	e.EnrichAll(ctx, papers)

	require.LessOrEqual(t, requests.Load(), int32(2), "enrichment must stop once the context is done")
}
