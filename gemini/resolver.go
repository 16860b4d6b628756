// Package gemini implements selector inference using Google Gemini.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fwojciec/dirscrape"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// Ensure Resolver implements dirscrape.SelectorResolver at compile time.
var _ dirscrape.SelectorResolver = (*Resolver)(nil)

// Resolver implements dirscrape.SelectorResolver using Google Gemini.
// The page is compressed into a structural sketch before inference, so
// the prompt stays small regardless of page size. Rate limited calls are
// retried with exponential backoff; other inference errors fail fast.
type Resolver struct {
	client   *genai.Client
	sketcher dirscrape.Sketcher
	retry    dirscrape.RetryPolicy
	tokens   dirscrape.TokenCounter
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRetryPolicy overrides the default rate limit retry policy.
func WithRetryPolicy(p dirscrape.RetryPolicy) Option {
	return func(r *Resolver) {
		r.retry = p
	}
}

// WithTokenCounter enables prompt token reporting in sketch logs.
func WithTokenCounter(tc dirscrape.TokenCounter) Option {
	return func(r *Resolver) {
		r.tokens = tc
	}
}

// WithLogger sets the logger for sketch compression diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a new Resolver.
func NewResolver(client *genai.Client, sketcher dirscrape.Sketcher, opts ...Option) *Resolver {
	r := &Resolver{
		client:   client,
		sketcher: sketcher,
		retry:    dirscrape.DefaultRetryPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve infers a selector map for the given listing page.
func (r *Resolver) Resolve(ctx context.Context, html string, schema dirscrape.Schema, pageURL string) (*dirscrape.SelectorMap, error) {
	if html == "" {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "html required")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	sketch, err := r.sketcher.Sketch(html)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(sketch, schema, pageURL)
	r.logSketch(ctx, sketch, len(html), prompt)

	config := BuildConfig()

	var text string
	err = r.retry.Do(ctx, func(ctx context.Context) error {
		result, err := r.client.Models.GenerateContent(ctx, model,
			[]*genai.Content{{
				Parts: []*genai.Part{{Text: prompt}},
			}},
			config,
		)
		if err != nil {
			return categorizeError(err)
		}
		if result == nil {
			return dirscrape.Errorf(dirscrape.EINTERNAL, "gemini returned nil result")
		}
		text = result.Text()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ParseSelectorResponse([]byte(text), schema)
}

// logSketch reports how much the sketch compressed the page, plus the
// prompt's token count when a counter is configured.
func (r *Resolver) logSketch(ctx context.Context, sketch *dirscrape.Sketch, pageBytes int, prompt string) {
	attrs := []any{
		"layout", sketch.Layout,
		"items", sketch.Count,
		"sketch_bytes", len(sketch.Text),
		"page_bytes", pageBytes,
	}
	if r.tokens != nil {
		if n, err := r.tokens.CountTokens(ctx, prompt); err == nil {
			attrs = append(attrs, "prompt_tokens", n)
		}
	}
	r.logger.Info("sketch", attrs...)
}

// categorizeError maps quota exhaustion to ERATELIMIT so the retry
// policy can tell it apart from fatal inference errors.
func categorizeError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return dirscrape.Errorf(dirscrape.ERATELIMIT, "gemini rate limited: %s", apiErr.Message)
	}
	return err
}
