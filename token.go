package dirscrape

import "context"

// TokenCounter counts tokens in text for a specific model.
// Used to report how large an inference prompt is before sending it.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
