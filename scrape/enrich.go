package scrape

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/dirscrape"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultEnrichConcurrency is how many detail pages are fetched at once.
const DefaultEnrichConcurrency = 3

// Enricher visits each record's detail page and merges the fields found
// there into the record. Selector inference runs once per site origin;
// concurrent records from the same origin wait for the first inference
// instead of issuing their own.
//
// Enrichment never discards a record. When a detail page can't be
// fetched or parsed, the record keeps its listing values.
type Enricher struct {
	Fetcher      dirscrape.Fetcher
	Resolver     dirscrape.SelectorResolver
	NewExtractor dirscrape.ExtractorFactory
	Limiter      dirscrape.DomainLimiter // optional politeness throttle
	URLField     string                  // record field holding the detail page URL
	Schema       dirscrape.Schema        // fields to extract from detail pages
	Concurrency  int

	group    singleflight.Group
	mu       sync.Mutex
	mappings map[string]*dirscrape.SelectorMap
}

// enrichJob pairs a record with its detail page URL.
type enrichJob struct {
	position int
	url      string
	record   *dirscrape.Record
}

// enrichResult holds the outcome of enriching a single record.
type enrichResult struct {
	position int
	url      string
	record   *dirscrape.Record
	err      error
}

// Enrich processes the given records concurrently and returns them in
// the same order. Records without a detail URL pass through unchanged.
// A canceled context stops enrichment early; records not yet processed
// keep their original values.
func (e *Enricher) Enrich(ctx context.Context, records []*dirscrape.Record, progress ProgressFunc) ([]*dirscrape.Record, error) {
	if e.URLField == "" {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "detail URL field required")
	}
	if err := e.Schema.Validate(); err != nil {
		return nil, err
	}

	out := make([]*dirscrape.Record, len(records))
	copy(out, records)

	var jobs []enrichJob
	for i, rec := range records {
		detailURL, ok := rec.Get(e.URLField)
		if !ok || detailURL == "" {
			continue
		}
		jobs = append(jobs, enrichJob{position: i, url: detailURL, record: rec})
	}
	if len(jobs) == 0 {
		return out, nil
	}

	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultEnrichConcurrency
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: len(jobs)})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	resultCh := make(chan enrichResult, len(jobs))

	go func() {
		for _, job := range jobs {
			g.Go(func() error {
				rec, err := e.enrichRecord(gctx, job)
				select {
				case resultCh <- enrichResult{position: job.position, url: job.url, record: rec, err: err}:
				case <-gctx.Done():
				}
				return nil
			})
		}
		g.Wait()
		close(resultCh)
	}()

	completed := 0
	for er := range resultCh {
		out[er.position] = er.record
		completed++

		if progress == nil {
			continue
		}
		if er.err != nil {
			progress(ProgressEvent{Type: ProgressFailed, Completed: completed, Total: len(jobs), URL: er.url, Error: er.err})
		} else {
			progress(ProgressEvent{Type: ProgressCompleted, Completed: completed, Total: len(jobs), URL: er.url})
		}
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: completed, Total: len(jobs)})
	}

	return out, nil
}

// enrichRecord fetches one detail page and merges its fields into the
// record. On any failure the original record is returned along with the
// error; the caller reports the failure but keeps the record.
func (e *Enricher) enrichRecord(ctx context.Context, job enrichJob) (*dirscrape.Record, error) {
	org := origin(job.url)
	if org == "" {
		return job.record, dirscrape.Errorf(dirscrape.EINVALID, "detail URL %q is not absolute", job.url)
	}

	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx, hostOf(job.url)); err != nil {
			return job.record, err
		}
	}

	html, err := e.Fetcher.Fetch(ctx, job.url)
	if err != nil {
		return job.record, err
	}

	mapping, err := e.mappingFor(ctx, org, html, job.url)
	if err != nil {
		return job.record, err
	}

	// Each record gets its own extractor so relative links on the detail
	// page resolve against that page's URL. Only the mapping is shared.
	extractor, err := e.NewExtractor(mapping, job.url)
	if err != nil {
		return job.record, err
	}

	extracted, err := extractor.Extract(html)
	if err != nil {
		return job.record, err
	}
	if len(extracted.Records) == 0 {
		return job.record, nil
	}

	return job.record.Merge(extracted.Records[0]), nil
}

// mappingFor returns the selector map for a site origin, inferring it
// from the given page on first use. Concurrent callers for the same
// origin share a single inference call.
func (e *Enricher) mappingFor(ctx context.Context, org, html, pageURL string) (*dirscrape.SelectorMap, error) {
	e.mu.Lock()
	if m, ok := e.mappings[org]; ok {
		e.mu.Unlock()
		return m, nil
	}
	e.mu.Unlock()

	v, err, _ := e.group.Do(org, func() (any, error) {
		e.mu.Lock()
		if m, ok := e.mappings[org]; ok {
			e.mu.Unlock()
			return m, nil
		}
		e.mu.Unlock()

		m, err := e.Resolver.Resolve(ctx, html, e.Schema, pageURL)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		if e.mappings == nil {
			e.mappings = make(map[string]*dirscrape.SelectorMap)
		}
		e.mappings[org] = m
		e.mu.Unlock()

		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dirscrape.SelectorMap), nil
}

// origin reduces a URL to its scheme://host key. Detail pages on one
// site share a layout, so one inferred mapping serves them all.
func origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
