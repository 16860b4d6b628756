package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/fwojciec/dirscrape"
	"github.com/fwojciec/dirscrape/fs"
	"github.com/fwojciec/dirscrape/scrape"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	schema, err := parseSchemaArgs(c.Schema, c.SchemaJSON, c.SchemaFile)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		return err
	}

	// Validate enrichment flags before scraping so a bad detail schema fails
	// fast instead of after all the pages have been fetched.
	var detailSchema dirscrape.Schema
	if len(c.DetailSchema) > 0 {
		detailSchema, err = parseSchemaArgs(c.DetailSchema, "", "")
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
			return err
		}
		if !slices.Contains(schema.FieldNames(), c.DetailURLField) {
			err := dirscrape.Errorf(dirscrape.EINVALID, "detail URL field %q is not in the schema", c.DetailURLField)
			fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
			return err
		}
	}

	// Without --output the record array goes to stdout, so progress and
	// summary lines move to stderr to keep the JSON pipeable.
	var human io.Writer = deps.Stdout
	if c.Output == "" {
		human = deps.Stderr
	}

	progress := func(event scrape.ProgressEvent) {
		switch event.Type {
		case scrape.ProgressStarted:
			fmt.Fprintf(human, "Scraping %s (up to %d pages)\n", c.URL, event.Total)
		case scrape.ProgressCompleted:
			fmt.Fprintf(human, "  page %d  %s\n", event.Completed, scrape.TruncateURL(event.URL, 60))
		case scrape.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.URL, event.Error)
		case scrape.ProgressFinished:
			// Summary printed after the scrape completes
		}
	}

	result, err := deps.Scraper.Scrape(deps.Ctx, c.URL, schema, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		return err
	}

	session := result.Session
	fmt.Fprintf(human, "Scraped %d pages: %d records", result.Pages, session.Total)
	if result.Failed > 0 {
		fmt.Fprintf(human, " (%d pages failed)", result.Failed)
	}
	fmt.Fprintln(human)

	// Enrich records from detail pages if requested
	if deps.Enricher != nil && detailSchema != nil {
		deps.Enricher.Schema = detailSchema
		deps.Enricher.URLField = c.DetailURLField

		enrichProgress := func(event scrape.ProgressEvent) {
			switch event.Type {
			case scrape.ProgressStarted:
				fmt.Fprintf(human, "Enriching %d records from detail pages\n", event.Total)
			case scrape.ProgressFailed:
				fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.URL, event.Error)
			}
		}

		enriched, err := deps.Enricher.Enrich(deps.Ctx, session.Records, enrichProgress)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
			return err
		}
		session.Records = enriched
	}

	if err := deps.Sessions.CreateSession(deps.Ctx, session); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(human, "Saved session %s\n", session.ID)

	if c.Output != "" {
		writer := fs.NewWriter(c.Output)
		if err := writer.WriteSession(deps.Ctx, session); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(human, "Wrote %s\n", c.Output)
		return nil
	}

	records := session.Records
	if records == nil {
		records = []*dirscrape.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(data))

	return nil
}
