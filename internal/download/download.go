// Copyright Marco Kaiser, 2025. All rights reserved.

// Package download retrieves PDF and TeX files for fetched papers with a
// bounded-concurrency pool and writes a metadata sidecar per paper. It
// sits outside the polling core: it consumes finalized paper records.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// Result records the files written for one paper, or the error that
// stopped it.
type Result struct {
	PDFPath      string
	TexPath      string
	MetadataPath string
	Err          error
}

// BatchResult summarizes a download run.
type BatchResult struct {
	Succeeded int
	Failed    int

	// PerPaper maps arXiv ID to that paper's outcome.
	PerPaper map[string]*Result
}

// Downloader retrieves paper files concurrently. Concurrency is bounded
// by the configured pool size and paced by a request-rate limiter.
type Downloader struct {
	client    *http.Client
	cfg       types.DownloadConfig
	userAgent string
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// New builds a Downloader from the download and HTTP settings.
func New(cfg types.DownloadConfig, httpCfg types.HTTPConfig, logger zerolog.Logger) *Downloader {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	cfg.MaxConcurrent = maxConcurrent
	return &Downloader{
		client:    &http.Client{Timeout: httpCfg.Timeout()},
		cfg:       cfg,
		userAgent: httpCfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(maxConcurrent), maxConcurrent),
		logger:    logger.With().Str("component", "download").Logger(),
	}
}

// DownloadAll fetches files for every paper, continuing past individual
// failures. Each paper gets its own directory under the output dir with
// the PDF, the TeX tarball when enabled and available, and a YAML
// metadata sidecar.
func (d *Downloader) DownloadAll(ctx context.Context, papers []types.Paper) BatchResult {
	batch := BatchResult{PerPaper: make(map[string]*Result, len(papers))}

	// Results are pre-allocated so each worker touches only its own slot.
	// Repeated IDs collapse to one download: the first occurrence wins,
	// so no two workers ever share a slot.
	unique := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if _, ok := batch.PerPaper[p.Metadata.ArxivID]; ok {
			continue
		}
		batch.PerPaper[p.Metadata.ArxivID] = &Result{}
		unique = append(unique, p)
	}

	var g errgroup.Group
	g.SetLimit(d.cfg.MaxConcurrent)
	for _, p := range unique {
		p := p
		g.Go(func() error {
			res := batch.PerPaper[p.Metadata.ArxivID]
			if err := d.downloadOne(ctx, p, res); err != nil {
				res.Err = err
				d.logger.Warn().Err(err).Str("arxiv_id", p.Metadata.ArxivID).
					Msg("paper download failed")
			}
			return nil
		})
	}
	g.Wait()

	for _, res := range batch.PerPaper {
		if res.Err != nil {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}
	d.logger.Info().Int("succeeded", batch.Succeeded).Int("failed", batch.Failed).
		Msg("download batch finished")
	return batch
}

func (d *Downloader) downloadOne(ctx context.Context, paper types.Paper, res *Result) error {
	id := paper.Metadata.ArxivID
	if id == "" {
		return fmt.Errorf("paper has no arXiv ID")
	}

	paperDir := filepath.Join(d.cfg.Dir, id)
	if err := os.MkdirAll(paperDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", paperDir, err)
	}

	if d.cfg.PDFs && paper.PDFURL != "" {
		path := filepath.Join(paperDir, id+".pdf")
		if err := d.downloadFile(ctx, paper.PDFURL, path); err != nil {
			return fmt.Errorf("downloading PDF: %w", err)
		}
		res.PDFPath = path
	}

	if d.cfg.Tex && paper.SourceURL != "" {
		path := filepath.Join(paperDir, id+".tar.gz")
		if err := d.downloadFile(ctx, paper.SourceURL, path); err != nil {
			return fmt.Errorf("downloading TeX source: %w", err)
		}
		res.TexPath = path
	}

	metaPath := filepath.Join(paperDir, id+".yaml")
	if err := writeMetadata(paper, metaPath); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	res.MetadataPath = metaPath
	return nil
}

// downloadFile fetches url to destPath through a temporary file so a
// partial download never lands at the final path.
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeMetadata(paper types.Paper, path string) error {
	data, err := yaml.Marshal(paper)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
