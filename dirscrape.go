// Package dirscrape provides a CLI-based scraper for online directories.
// Given a start URL and a description of the fields to collect, it asks an
// LLM to map a compressed sketch of the page's DOM onto CSS selectors, then
// extracts records deterministically across paginated listing pages, with
// optional per-record detail page enrichment.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, gemini/, rod/).
package dirscrape
