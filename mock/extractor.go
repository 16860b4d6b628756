package mock

import "github.com/fwojciec/dirscrape"

var _ dirscrape.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of dirscrape.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*dirscrape.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*dirscrape.ExtractResult, error) {
	return e.ExtractFn(html)
}
