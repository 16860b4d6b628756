package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/dirscrape"
	"github.com/fwojciec/dirscrape/scrape"
)

// Run executes the probe command.
func (c *ProbeCmd) Run(deps *Dependencies) error {
	schema, err := parseSchemaArgs(c.Schema, c.SchemaJSON, c.SchemaFile)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		return err
	}

	probe, err := deps.Scraper.Probe(deps.Ctx, c.URL, schema)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		return err
	}

	mapping, err := json.MarshalIndent(probe.SelectorMap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Selectors:\n%s\n", mapping)

	samples, err := json.MarshalIndent(probe.SampleRecords, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "\nSample records (%d of %d extracted):\n%s\n", len(probe.SampleRecords), probe.TotalSamples, samples)

	if c.SaveHTML != "" {
		if err := os.WriteFile(c.SaveHTML, []byte(probe.HTMLSample), 0644); err != nil {
			fmt.Fprintf(deps.Stderr, "error writing %s: %v\n", c.SaveHTML, err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "\nWrote HTML sample to %s (%s)\n", c.SaveHTML, scrape.FormatBytes(len(probe.HTMLSample)))
	}

	return nil
}
