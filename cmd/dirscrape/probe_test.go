package main_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/dirscrape"
	main "github.com/fwojciec/dirscrape/cmd/dirscrape"
	"github.com/fwojciec/dirscrape/mock"
	"github.com/fwojciec/dirscrape/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeCmd_Run(t *testing.T) {
	t.Parallel()

	newProbeScraper := func(html string) *scrape.Scraper {
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				return html, nil
			},
		}

		resolver := &mock.SelectorResolver{
			ResolveFn: func(_ context.Context, _ string, _ dirscrape.Schema, _ string) (*dirscrape.SelectorMap, error) {
				return testMapping(), nil
			},
		}

		extractor := &mock.Extractor{
			ExtractFn: func(_ string) (*dirscrape.ExtractResult, error) {
				recs := make([]*dirscrape.Record, 5)
				for i := range recs {
					rec := dirscrape.NewRecord([]string{"name", "email"})
					rec.Set("name", fmt.Sprintf("Member %d", i))
					rec.Set("email", fmt.Sprintf("m%d@example.com", i))
					recs[i] = rec
				}
				return &dirscrape.ExtractResult{Records: recs}, nil
			},
		}

		return &scrape.Scraper{
			Fetcher:      fetcher,
			Resolver:     resolver,
			NewExtractor: staticFactory(extractor),
		}
	}

	t.Run("shows selectors and sample records", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Scraper: newProbeScraper("<html><div class=\"member\">x</div></html>"),
		}

		cmd := &main.ProbeCmd{
			URL:    "https://example.com/members",
			Schema: []string{"name:member name", "email:contact email"},
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, `"list_item_selector"`)
		assert.Contains(t, output, "div.member")
		assert.Contains(t, output, "Sample records (3 of 5 extracted):")
		assert.Contains(t, output, "Member 0")
		assert.NotContains(t, output, "Member 3", "samples should be capped at three records")
	})

	t.Run("saves the page HTML when requested", func(t *testing.T) {
		t.Parallel()

		html := "<html><div class=\"member\">x</div></html>"
		htmlPath := filepath.Join(t.TempDir(), "sample.html")

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Scraper: newProbeScraper(html),
		}

		cmd := &main.ProbeCmd{
			URL:      "https://example.com/members",
			Schema:   []string{"name:member name", "email:contact email"},
			SaveHTML: htmlPath,
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Wrote HTML sample to "+htmlPath)

		data, err := os.ReadFile(htmlPath)
		require.NoError(t, err)
		assert.Equal(t, html, string(data))
	})

	t.Run("requires a schema", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
		}

		cmd := &main.ProbeCmd{URL: "https://example.com/members"}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, dirscrape.EINVALID, dirscrape.ErrorCode(err))
		assert.Contains(t, stderr.String(), "schema required")
	})

	t.Run("reports fetch failure", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				return "", dirscrape.Errorf(dirscrape.ENOTFOUND, "page not found")
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Scraper: &scrape.Scraper{
				Fetcher:      fetcher,
				Resolver:     &mock.SelectorResolver{},
				NewExtractor: staticFactory(&mock.Extractor{}),
			},
		}

		cmd := &main.ProbeCmd{
			URL:    "https://example.com/members",
			Schema: []string{"name:member name"},
		}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, dirscrape.ENOTFOUND, dirscrape.ErrorCode(err))
		assert.Contains(t, stderr.String(), "page not found")
	})
}
