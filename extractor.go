package dirscrape

// ExtractResult holds everything pulled from a single listing page.
type ExtractResult struct {
	// Records are the structured entries found on the page, in document
	// order. Records where every field is null are dropped.
	Records []*Record

	// NextPageURL is the absolute URL of the next listing page, or empty
	// when the page has no usable pagination link.
	NextPageURL string
}

// Extractor applies a resolved selector map to fetched HTML.
// Implementations are deterministic: the same HTML always yields the
// same records in the same order.
type Extractor interface {
	// Extract parses the page and returns its records and next page link.
	Extract(html string) (*ExtractResult, error)
}

// ExtractorFactory builds an Extractor for a selector map, with relative
// links resolved against baseURL. Returns EINVALID when the list item
// selector or base URL is unusable.
type ExtractorFactory func(m *SelectorMap, baseURL string) (Extractor, error)
