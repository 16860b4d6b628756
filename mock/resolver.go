package mock

import (
	"context"

	"github.com/fwojciec/dirscrape"
)

var _ dirscrape.SelectorResolver = (*SelectorResolver)(nil)

// SelectorResolver is a mock implementation of dirscrape.SelectorResolver.
type SelectorResolver struct {
	ResolveFn func(ctx context.Context, html string, schema dirscrape.Schema, pageURL string) (*dirscrape.SelectorMap, error)
}

func (r *SelectorResolver) Resolve(ctx context.Context, html string, schema dirscrape.Schema, pageURL string) (*dirscrape.SelectorMap, error) {
	return r.ResolveFn(ctx, html, schema, pageURL)
}
