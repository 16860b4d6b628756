package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/dirscrape"
)

// Ensure LoggingResolver implements dirscrape.SelectorResolver.
var _ dirscrape.SelectorResolver = (*LoggingResolver)(nil)

// LoggingResolver wraps a SelectorResolver with debug logging.
type LoggingResolver struct {
	next   dirscrape.SelectorResolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next dirscrape.SelectorResolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the operation.
func (r *LoggingResolver) Resolve(ctx context.Context, html string, schema dirscrape.Schema, pageURL string) (m *dirscrape.SelectorMap, err error) {
	defer func(begin time.Time) {
		r.logger.Info("selector inference",
			"url", pageURL,
			"fields", resolvedFields(m),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Resolve(ctx, html, schema, pageURL)
}

// resolvedFields counts the fields the resolver produced a selector for.
func resolvedFields(m *dirscrape.SelectorMap) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, f := range m.Fields {
		if f.Selector != "" {
			n++
		}
	}
	return n
}
