package main

import (
	"context"
	"io"

	"github.com/fwojciec/dirscrape"
	"github.com/fwojciec/dirscrape/scrape"
	"github.com/fwojciec/dirscrape/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	DB       *sqlite.DB
	Sessions dirscrape.SessionService
	Scraper  *scrape.Scraper
	Enricher *scrape.Enricher
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Run     RunCmd     `cmd:"" help:"Scrape a directory listing into structured records"`
	Probe   ProbeCmd   `cmd:"" help:"Infer selectors and show sample records without scraping"`
	History HistoryCmd `cmd:"" help:"List stored scraping sessions"`
	Show    ShowCmd    `cmd:"" help:"Print a stored session as JSON"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a stored session"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	URL            string   `arg:"" help:"Directory listing URL to scrape"`
	Schema         []string `short:"s" help:"Field as name:description (repeatable)"`
	SchemaJSON     string   `short:"j" name:"schema-json" help:"Schema as inline JSON mapping field names to descriptions"`
	SchemaFile     string   `short:"f" name:"schema-file" help:"Schema as a JSON file mapping field names to descriptions"`
	Output         string   `short:"o" help:"Write the record array to a JSON file instead of stdout"`
	MaxPages       int      `short:"p" name:"max-pages" default:"50" help:"Pagination page limit"`
	Concurrency    int      `short:"c" default:"5" help:"Concurrent page fetch limit"`
	MinFields      int      `name:"min-fields" help:"Minimum non-null fields to keep a record (default: 2, or 1 for single-field schemas)"`
	Rate           float64  `default:"2" help:"Max requests per second per domain"`
	Browser        bool     `short:"b" help:"Render pages in a headless browser"`
	WaitFor        string   `name:"wait-for" help:"CSS selector to wait for before reading browser pages"`
	DetailSchema   []string `short:"d" name:"detail-schema" help:"Detail page field as name:description (repeatable, enables enrichment)"`
	DetailURLField string   `name:"detail-url-field" default:"url" help:"Schema field holding the detail page URL"`
	Verbose        bool     `short:"v" help:"Log fetches and selector inference to stderr"`
}

// ProbeCmd is the "probe" subcommand.
type ProbeCmd struct {
	URL        string   `arg:"" help:"Directory listing URL to probe"`
	Schema     []string `short:"s" help:"Field as name:description (repeatable)"`
	SchemaJSON string   `short:"j" name:"schema-json" help:"Schema as inline JSON mapping field names to descriptions"`
	SchemaFile string   `short:"f" name:"schema-file" help:"Schema as a JSON file mapping field names to descriptions"`
	SaveHTML   string   `name:"save-html" help:"Write the fetched page HTML sample to a file"`
	Browser    bool     `short:"b" help:"Render the page in a headless browser"`
	WaitFor    string   `name:"wait-for" help:"CSS selector to wait for before reading the page"`
	Verbose    bool     `short:"v" help:"Log fetches and selector inference to stderr"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	URL   string `help:"Filter sessions by start URL"`
	Limit int    `short:"n" help:"Show at most N sessions"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID     string `arg:"" help:"Session ID"`
	Output string `short:"o" help:"Write the session's record array to a JSON file instead of printing the session"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Session ID"`
	Force bool   `help:"Confirm deletion"`
}
