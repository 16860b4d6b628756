// Package scrape provides directory scraping orchestration.
// It coordinates selector inference, page fetching, record extraction,
// pagination, and detail page enrichment.
package scrape

import (
	"context"
	"net/url"
	"time"

	"github.com/fwojciec/dirscrape"
	"golang.org/x/sync/errgroup"
)

// Defaults for scrape orchestration.
const (
	// DefaultMaxPages caps how many listing pages one scrape visits.
	DefaultMaxPages = 50
	// DefaultConcurrency is how many pages are fetched per batch.
	DefaultConcurrency = 5
)

// Probe output bounds.
const (
	probeSampleRecords = 3
	probeHTMLSampleLen = 5000
)

// Scraper orchestrates the scraping of a paginated directory.
type Scraper struct {
	Fetcher      dirscrape.Fetcher
	Resolver     dirscrape.SelectorResolver
	NewExtractor dirscrape.ExtractorFactory
	Limiter      dirscrape.DomainLimiter // optional politeness throttle
	Concurrency  int
	MaxPages     int
	// MinFields is the minimum number of non-null fields a record needs
	// to be kept. Zero means two, or one for single-field schemas.
	MinFields int
}

// Result holds the outcome of a scrape operation.
type Result struct {
	Session *dirscrape.Session
	Pages   int // listing pages successfully processed
	Failed  int // pages skipped after fetch or parse errors
}

// ProgressEvent reports progress during a scrape operation.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting scrape progress.
type ProgressFunc func(event ProgressEvent)

// pageResult holds the outcome of processing a single listing page.
type pageResult struct {
	url    string
	result *dirscrape.ExtractResult
	err    error
}

// firstPage bundles everything learned from the starting page.
type firstPage struct {
	html      string
	mapping   *dirscrape.SelectorMap
	extractor dirscrape.Extractor
	extracted *dirscrape.ExtractResult
}

// Scrape walks the directory starting at startURL: it infers a selector
// map from the first page, then follows pagination links in concurrent
// batches until the trail ends or the page cap is reached. Failed pages
// are skipped and don't count against the cap. A canceled context ends
// pagination early; records collected so far are still returned.
func (s *Scraper) Scrape(ctx context.Context, startURL string, schema dirscrape.Schema, progress ProgressFunc) (*Result, error) {
	if startURL == "" {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "start URL required")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: maxPages})
	}

	first, err := s.inferFirstPage(ctx, startURL, schema)
	if err != nil {
		return nil, err
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Mark(startURL)

	var records []*dirscrape.Record
	records = append(records, first.extracted.Records...)
	pages := 1
	failed := 0

	if next := first.extracted.NextPageURL; next != "" {
		frontier.Push(next)
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressCompleted, Completed: pages, Total: maxPages, URL: startURL})
	}

	for frontier.Len() > 0 && pages < maxPages && ctx.Err() == nil {
		batch := nextBatch(frontier, min(concurrency, maxPages-pages))

		results := make([]pageResult, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, pageURL := range batch {
			g.Go(func() error {
				results[i] = s.processPage(gctx, pageURL, first.extractor)
				return nil
			})
		}
		_ = g.Wait()

		// Fold results in batch order so record order and next page
		// discovery are deterministic for a given site.
		for _, r := range results {
			if r.err != nil {
				failed++
				if progress != nil {
					progress(ProgressEvent{Type: ProgressFailed, Completed: pages, Total: maxPages, URL: r.url, Error: r.err})
				}
				continue
			}
			pages++
			records = append(records, r.result.Records...)
			if next := r.result.NextPageURL; next != "" {
				frontier.Push(next)
			}
			if progress != nil {
				progress(ProgressEvent{Type: ProgressCompleted, Completed: pages, Total: maxPages, URL: r.url})
			}
		}
	}

	records = s.cleanRecords(records, len(schema))

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: pages, Total: maxPages})
	}

	session := &dirscrape.Session{
		URL:       startURL,
		Schema:    schema,
		Records:   records,
		Total:     len(records),
		CreatedAt: time.Now().UTC(),
	}

	return &Result{Session: session, Pages: pages, Failed: failed}, nil
}

// Probe runs inference against the first page only and reports the
// selector map with a few sample records, without walking pagination.
func (s *Scraper) Probe(ctx context.Context, startURL string, schema dirscrape.Schema) (*dirscrape.ProbeResult, error) {
	if startURL == "" {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "start URL required")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	first, err := s.inferFirstPage(ctx, startURL, schema)
	if err != nil {
		return nil, err
	}

	samples := first.extracted.Records
	if len(samples) > probeSampleRecords {
		samples = samples[:probeSampleRecords]
	}

	return &dirscrape.ProbeResult{
		SelectorMap:   first.mapping,
		SampleRecords: samples,
		TotalSamples:  len(first.extracted.Records),
		HTMLSample:    clipString(first.html, probeHTMLSampleLen),
	}, nil
}

// inferFirstPage fetches the starting page once and uses it for both
// selector inference and the first extraction. Relative links on every
// page of the scrape resolve against the start URL.
func (s *Scraper) inferFirstPage(ctx context.Context, startURL string, schema dirscrape.Schema) (*firstPage, error) {
	html, err := s.fetchPage(ctx, startURL)
	if err != nil {
		return nil, err
	}

	mapping, err := s.Resolver.Resolve(ctx, html, schema, startURL)
	if err != nil {
		return nil, err
	}

	extractor, err := s.NewExtractor(mapping, startURL)
	if err != nil {
		return nil, err
	}

	extracted, err := extractor.Extract(html)
	if err != nil {
		return nil, err
	}

	return &firstPage{
		html:      html,
		mapping:   mapping,
		extractor: extractor,
		extracted: extracted,
	}, nil
}

// processPage fetches and extracts a single listing page.
func (s *Scraper) processPage(ctx context.Context, pageURL string, extractor dirscrape.Extractor) pageResult {
	result := pageResult{url: pageURL}

	html, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		result.err = err
		return result
	}

	extracted, err := extractor.Extract(html)
	if err != nil {
		result.err = err
		return result
	}

	result.result = extracted
	return result
}

// fetchPage applies the politeness limit, then fetches.
func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if s.Limiter != nil {
		if host := hostOf(pageURL); host != "" {
			if err := s.Limiter.Wait(ctx, host); err != nil {
				return "", err
			}
		}
	}
	return s.Fetcher.Fetch(ctx, pageURL)
}

// cleanRecords drops sparse records, then deduplicates.
// The default threshold is two non-null fields, or one when the schema
// itself has a single field.
func (s *Scraper) cleanRecords(records []*dirscrape.Record, schemaSize int) []*dirscrape.Record {
	minFields := s.MinFields
	if minFields <= 0 {
		minFields = min(2, schemaSize)
	}

	kept := make([]*dirscrape.Record, 0, len(records))
	for _, rec := range records {
		if rec.NonNullCount() >= minFields {
			kept = append(kept, rec)
		}
	}
	return dirscrape.DedupRecords(kept)
}

// nextBatch pops up to n URLs from the frontier.
func nextBatch(frontier *Frontier, n int) []string {
	var batch []string
	for len(batch) < n {
		url, ok := frontier.Pop()
		if !ok {
			break
		}
		batch = append(batch, url)
	}
	return batch
}

// hostOf returns the host portion of a URL, or "" if it can't be parsed.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// clipString trims a string to max runes.
func clipString(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
